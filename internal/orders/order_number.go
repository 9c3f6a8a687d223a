package orders

import (
	"fmt"
	"strconv"
	"strings"
)

// FormatOrderNumber renders the public order id, e.g. 2025-00042.
func FormatOrderNumber(year, seq int) string {
	return fmt.Sprintf("%d-%05d", year, seq)
}

// ParseOrderNumber splits a public order id into year and sequence.
func ParseOrderNumber(s string) (year, seq int, err error) {
	y, n, ok := strings.Cut(s, "-")
	if !ok {
		return 0, 0, fmt.Errorf("order number %q: missing separator", s)
	}
	if year, err = strconv.Atoi(y); err != nil {
		return 0, 0, fmt.Errorf("order number %q: year: %w", s, err)
	}
	if seq, err = strconv.Atoi(n); err != nil {
		return 0, 0, fmt.Errorf("order number %q: sequence: %w", s, err)
	}
	return year, seq, nil
}

// OrderNumberPrefix is the LIKE pattern matching every order id of a year.
func OrderNumberPrefix(year int) string {
	return strconv.Itoa(year) + "-%"
}
