// Package rules holds the validity predicates and term schemas that bound a
// character sheet: legal names and descriptions, numeric ranges, and the
// point pools that skills and attributes draw from.
//
// Everything here is a pure function or an immutable value so the notation
// grammar, the constrained term maps and the character aggregate can share one
// definition of what "legal" means.
package rules

import (
	"math"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"
)

// Unbounded is the upper bound used when a level has no maximum.
const Unbounded = math.MaxInt

// NormalizeText returns s in Unicode normalization form C so that visually
// identical names compare and round-trip equal.
func NormalizeText(s string) string {
	return norm.NFC.String(s)
}

// ValidName reports whether s can be used as a trait, asset or talent name.
//
// A name is non-empty, has no surrounding whitespace, does not start with
// ':', contains no "(" and no line break, and every ':' is followed by a
// character that is neither whitespace, '(' nor ':'. The colon rules keep
// ": " free to introduce a description.
func ValidName(s string) bool {
	if s == "" || !utf8.ValidString(s) {
		return false
	}
	first, _ := utf8.DecodeRuneInString(s)
	last, _ := utf8.DecodeLastRuneInString(s)
	if first == ':' || unicode.IsSpace(first) || unicode.IsSpace(last) {
		return false
	}
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '(', '\n', '\r':
			return false
		case ':':
			if i+1 >= len(s) {
				return false
			}
			next, _ := utf8.DecodeRuneInString(s[i+1:])
			if unicode.IsSpace(next) || next == '(' || next == ':' {
				return false
			}
		}
	}
	return true
}

// ValidDescription reports whether s can be stored as a description. Empty
// means "no description". A description is a single line and must not end in
// the ";;" terminator the formatter appends.
func ValidDescription(s string) bool {
	if !utf8.ValidString(s) {
		return false
	}
	if strings.ContainsAny(s, "\n\r") {
		return false
	}
	return !strings.HasSuffix(s, ";;")
}

// ValidStatement reports whether s is a usable drive statement.
func ValidStatement(s string) bool {
	if strings.TrimSpace(s) == "" || !utf8.ValidString(s) {
		return false
	}
	return !strings.ContainsAny(s, "\n\r")
}

// InRange reports whether min <= v <= max.
func InRange(v, min, max int) bool {
	return v >= min && v <= max
}

// WithinPool reports whether a cumulative total fits a pool.
func WithinPool(total, pool int) bool {
	return total <= pool
}

// Clamp bounds v to [lo, hi].
func Clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// SaturatingAdd returns a+b, pinned to the int range instead of wrapping.
func SaturatingAdd(a, b int) int {
	if b > 0 && a > math.MaxInt-b {
		return math.MaxInt
	}
	if b < 0 && a < math.MinInt-b {
		return math.MinInt
	}
	return a + b
}
