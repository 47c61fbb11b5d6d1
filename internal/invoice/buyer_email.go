package invoice

import (
	"strings"

	"invoicegen/pkg/models"
)

// BuyerElectronicAddress returns the customer's typed e-mail, falling back
// to BuyerEmailFromInfo for records created before the field existed.
func BuyerElectronicAddress(c models.Customer) string {
	if e := strings.TrimSpace(c.Email); e != "" {
		return e
	}
	return BuyerEmailFromInfo(c.AdditionalInfo)
}

// BuyerEmailFromInfo scans free-text info lines for the first token that
// contains "@".
//
// Deprecated: older customer records kept the invoice address in
// AdditionalInfo. Set Customer.Email instead.
func BuyerEmailFromInfo(lines []string) string {
	for _, line := range lines {
		for _, token := range strings.Fields(line) {
			if strings.Contains(token, "@") {
				return strings.Trim(token, ",;<>()")
			}
		}
	}
	return ""
}
