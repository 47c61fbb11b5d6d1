package invoice

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

var sequencePattern = regexp.MustCompile(`^(\d{4})-(\d{2})-(\d+)$`)

// NextNumber returns the next invoice number for the month of date, in the
// form YYYY-MM-XXXX. The sequence is one past the highest sequence found
// among existing numbers of that month; numbers of other months and foreign
// formats are ignored.
func NextNumber(date string, existing []string) (string, error) {
	const op = "NextNumber"

	day := date
	if i := strings.IndexByte(day, 'T'); i >= 0 {
		day = day[:i]
	}
	if _, err := ParseDate(day); err != nil {
		return "", fmt.Errorf("%s: expected YYYY-MM-DD: %w", op, err)
	}
	year, month := day[0:4], day[5:7]

	maxSeq := 0
	for _, number := range existing {
		m := sequencePattern.FindStringSubmatch(strings.TrimSpace(number))
		if m == nil || m[1] != year || m[2] != month {
			continue
		}
		seq, err := strconv.Atoi(m[3])
		if err != nil {
			continue
		}
		if seq > maxSeq {
			maxSeq = seq
		}
	}

	return fmt.Sprintf("%s-%s-%04d", year, month, maxSeq+1), nil
}
