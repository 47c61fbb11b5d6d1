package invoice

import (
	"fmt"
	"strings"

	"invoicegen/pkg/models"
)

// Status actions reported by the delivery side.
const (
	ActionReadyForDelivery = "invoice_ready_for_delivery"
	ActionSent             = "invoice_sent"
	ActionCreationFinished = "invoice_creation_finished"
)

// NextStatus applies a delivery action to the current status. A "_paid"
// suffix on the current status survives the transition.
func NextStatus(current, action string) (string, error) {
	suffix := ""
	if strings.HasSuffix(current, models.PaidSuffix) {
		suffix = models.PaidSuffix
	}

	switch action {
	case ActionReadyForDelivery:
		return models.StatusInDelivery + suffix, nil
	case ActionSent, ActionCreationFinished:
		return models.StatusSent + suffix, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidAction, action)
}
