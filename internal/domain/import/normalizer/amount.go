package normalizer

import (
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
)

var (
	currencyTokens = []string{"R$", "US$", "BRL", "USD", "EUR", "$", "€", "£"}
	plainNumber    = regexp.MustCompile(`^[0-9]*\.?[0-9]*$`)
)

// ParseAmount parses a Brazilian (1.234,56) or US (1,234.56) formatted amount.
// A value fully wrapped in parentheses is negative. When only one kind of
// separator appears once, it is a decimal separator if at most two digits follow.
// The boolean is false when the text does not hold a number.
func ParseAmount(raw string) (decimal.Decimal, bool) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return decimal.Zero, false
	}

	negative := false
	if strings.HasPrefix(s, "(") && strings.HasSuffix(s, ")") {
		negative = true
		s = strings.TrimSpace(s[1 : len(s)-1])
	}

	upper := strings.ToUpper(s)
	for _, tok := range currencyTokens {
		upper = strings.ReplaceAll(upper, tok, "")
	}
	s = strings.Map(func(r rune) rune {
		switch r {
		case ' ', '\u00a0', '\t':
			return -1
		}
		return r
	}, upper)

	switch {
	case strings.HasPrefix(s, "-"):
		negative = !negative
		s = s[1:]
	case strings.HasPrefix(s, "+"):
		s = s[1:]
	case strings.HasSuffix(s, "-"):
		negative = !negative
		s = s[:len(s)-1]
	}
	if s == "" {
		return decimal.Zero, false
	}

	for _, r := range s {
		if (r < '0' || r > '9') && r != ',' && r != '.' {
			return decimal.Zero, false
		}
	}

	s = canonicalDecimal(s)
	if !plainNumber.MatchString(s) || !strings.ContainsAny(s, "0123456789") {
		return decimal.Zero, false
	}
	s = strings.TrimSuffix(s, ".")
	if strings.HasPrefix(s, ".") {
		s = "0" + s
	}

	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, false
	}
	if negative {
		d = d.Neg()
	}
	return d, true
}

// canonicalDecimal rewrites s so that "." is the only (decimal) separator.
func canonicalDecimal(s string) string {
	lastComma := strings.LastIndex(s, ",")
	lastDot := strings.LastIndex(s, ".")

	var decimalSep byte
	switch {
	case lastComma >= 0 && lastDot >= 0:
		if lastComma > lastDot {
			decimalSep = ','
		} else {
			decimalSep = '.'
		}
	case lastComma >= 0:
		if strings.Count(s, ",") == 1 && len(s)-lastComma-1 <= 2 {
			decimalSep = ','
		}
	case lastDot >= 0:
		if strings.Count(s, ".") == 1 && len(s)-lastDot-1 <= 2 {
			decimalSep = '.'
		}
	}

	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c == decimalSep:
			b.WriteByte('.')
		case c == ',' || c == '.':
			// thousands separator
		default:
			b.WriteByte(c)
		}
	}
	return b.String()
}

// LooksLikeAmount reports whether raw parses as an amount and carries at least one digit.
func LooksLikeAmount(raw string) bool {
	_, ok := ParseAmount(raw)
	return ok
}

// ToCents rounds an amount to integer cents.
func ToCents(d decimal.Decimal) int64 {
	return d.Shift(2).Round(0).IntPart()
}
