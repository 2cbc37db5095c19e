package normalize

import (
	"regexp"
	"strings"
)

var multiSpace = regexp.MustCompile(`\s+`)

// HeaderKey lowercases, collapses whitespace and trims a column header so
// "Location Name" and "locationname" can be compared loosely.
func HeaderKey(v string) string {
	s := strings.TrimSpace(v)
	s = strings.ToLower(s)
	s = multiSpace.ReplaceAllString(s, "")
	return strings.NewReplacer("_", "", "-", "").Replace(s)
}

// SKU trims a warehouse SKU.
func SKU(v string) string {
	return strings.TrimSpace(v)
}
