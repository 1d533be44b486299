// Package format renders prices and dates the way the storefront shows them
// (Indian rupees, Indian digit grouping, IST timestamps).
package format

import (
	"regexp"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

const rupee = "₹"

// IST is India Standard Time. A fixed zone keeps formatting independent of tzdata.
var IST = time.FixedZone("IST", 5*60*60+30*60)

var nonSlugChars = regexp.MustCompile(`[^a-z0-9]+`)

// FormatPrice renders an amount as whole rupees, e.g. 149999.5 -> "₹1,50,000".
func FormatPrice(price decimal.Decimal) string {
	rounded := price.Round(0)
	sign := ""
	if rounded.IsNegative() {
		sign = "-"
		rounded = rounded.Neg()
	}
	return sign + rupee + groupIndian(rounded.String())
}

// groupIndian inserts separators after the last three digits, then every two.
func groupIndian(digits string) string {
	if len(digits) <= 3 {
		return digits
	}
	head, tail := digits[:len(digits)-3], digits[len(digits)-3:]

	var groups []string
	for len(head) > 2 {
		groups = append([]string{head[len(head)-2:]}, groups...)
		head = head[:len(head)-2]
	}
	if head != "" {
		groups = append([]string{head}, groups...)
	}
	return strings.Join(groups, ",") + "," + tail
}

// FormatDate renders a timestamp in IST as "13 Jan 2026, 4:00 pm".
func FormatDate(t time.Time) string {
	return t.In(IST).Format("2 Jan 2006, 3:04 pm")
}

// FormatDateString parses an RFC 3339 timestamp and formats it. Unparseable input is
// returned unchanged.
func FormatDateString(s string) string {
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return s
	}
	return FormatDate(t)
}

// Slugify lowercases text and collapses every run of non-alphanumerics into one dash.
func Slugify(text string) string {
	slug := nonSlugChars.ReplaceAllString(strings.ToLower(text), "-")
	return strings.Trim(slug, "-")
}

// Truncate cuts text to length runes and appends "..." when it was longer.
// A negative length is treated as zero.
func Truncate(text string, length int) string {
	if length < 0 {
		length = 0
	}
	runes := []rune(text)
	if len(runes) <= length {
		return text
	}
	return string(runes[:length]) + "..."
}
