package domain

import (
	"time"
	"unicode/utf8"
)

const processNumberLength = 20

// dateLayouts are the timestamp shapes seen in DataJud payloads.
var dateLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"20060102150405",
	"2006-01-02",
}

// FormatProcessNumber renders a 20-digit number as NNNNNNN-DD.AAAA.J.TR.OOOO.
func FormatProcessNumber(n string) string {
	if len(n) != processNumberLength || StripNonDigits(n) != n {
		return n
	}
	return n[0:7] + "-" + n[7:9] + "." + n[9:13] + "." + n[13:14] + "." + n[14:16] + "." + n[16:20]
}

// ParseTimestamp accepts the layouts DataJud uses.
func ParseTimestamp(s string) (time.Time, bool) {
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// FormatDate renders dd/MM/yyyy, or s unchanged when it cannot be parsed.
func FormatDate(s string) string {
	t, ok := ParseTimestamp(s)
	if !ok {
		return s
	}
	return t.Format("02/01/2006")
}

// FormatDateTime renders dd/MM/yyyy HH:mm, or s unchanged when it cannot be parsed.
func FormatDateTime(s string) string {
	t, ok := ParseTimestamp(s)
	if !ok {
		return s
	}
	return t.Format("02/01/2006 15:04")
}

// Truncate shortens text to maxLen runes and appends "...".
func Truncate(text string, maxLen int) string {
	if maxLen < 0 || utf8.RuneCountInString(text) <= maxLen {
		return text
	}
	runes := []rune(text)
	return string(runes[:maxLen]) + "..."
}
