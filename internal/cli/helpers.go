package cli

import (
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/roach88/perfumery/internal/session"
)

func errNotSignedIn() error {
	return session.ErrNotSignedIn
}

// money renders an amount with two decimals.
func money(d decimal.Decimal) string {
	return d.StringFixed(2)
}

// truncate shortens s to n runes for table columns.
func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}

// splitTriple parses "a:b:c" specs such as perfume:volume:quantity.
func splitTriple(spec string) (string, string, string, bool) {
	parts := strings.Split(spec, ":")
	if len(parts) != 3 {
		return "", "", "", false
	}
	return parts[0], parts[1], parts[2], true
}

func atoiPositive(s string) (int, bool) {
	n, err := strconv.Atoi(s)
	if err != nil || n <= 0 {
		return 0, false
	}
	return n, true
}
