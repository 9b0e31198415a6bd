// Package price formats and parses rouble prices the way the storefront
// shows them, e.g. "25 000 ₽".
package price

import (
	"strconv"
	"strings"

	"github.com/dustin/go-humanize"
)

const Currency = "₽"

// Format groups thousands with spaces and appends the currency sign.
func Format(amount int) string {
	return humanize.FormatInteger("# ###.", amount) + " " + Currency
}

// Parse keeps the digits of s and reads them as an integer amount.
// It returns 0 when s has no digits.
func Parse(s string) int {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	n, err := strconv.Atoi(b.String())
	if err != nil {
		return 0
	}
	return n
}
