package normalize

import (
	"regexp"
	"strings"
)

var (
	integerLike = regexp.MustCompile(`^\d+(\.0+)?$`)
	nonDigit    = regexp.MustCompile(`\D`)
)

// LotNumber reduces a customer lot reference to its digits. Integer-like
// floats ("123.0") keep the integer part, anything else has non-digits
// stripped. Leading zeros are dropped; an input without digits yields "".
func LotNumber(v string) string {
	s := strings.TrimSpace(v)
	if integerLike.MatchString(s) {
		s = strings.SplitN(s, ".", 2)[0]
	} else {
		s = nonDigit.ReplaceAllString(s, "")
	}
	return strings.TrimLeft(s, "0")
}

// PalletID trims whitespace and coerces integer-like floats ("123.0") to
// "123". Alphanumeric IDs such as "JTL00496" are preserved as-is.
func PalletID(v string) string {
	s := strings.TrimSpace(v)
	if integerLike.MatchString(s) {
		s = strings.SplitN(s, ".", 2)[0]
	}
	return s
}

// PalletKey is the case-insensitive comparison key for a pallet ID.
func PalletKey(v string) string {
	return strings.ToUpper(PalletID(v))
}

// Location trims a location name. Excel sometimes stores purely numeric
// locations as floats, so "11400804.0" becomes "11400804".
func Location(v string) string {
	s := strings.TrimSpace(v)
	if integerLike.MatchString(s) {
		s = strings.SplitN(s, ".", 2)[0]
	}
	return s
}
