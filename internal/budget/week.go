package budget

import (
	"strings"
	"time"

	"budget/internal/core"
)

// sundayFirstLocales lists language tags whose week starts on Sunday.
// Everything else starts on Monday.
var sundayFirstLocales = map[string]struct{}{
	"en": {},
	"us": {},
	"ja": {},
	"ko": {},
	"zh": {},
	"he": {},
	"pt": {},
}

// firstDayOfWeek maps a locale tag to the weekday its week starts on.
// Only the language part of the tag matters ("en-US" behaves like "en").
func firstDayOfWeek(locale string) time.Weekday {
	lang := strings.ToLower(locale)
	if i := strings.IndexAny(lang, "-_"); i >= 0 {
		lang = lang[:i]
	}
	if _, ok := sundayFirstLocales[lang]; ok {
		return time.Sunday
	}
	return time.Monday
}

// startOfWeek returns the first day of the week containing d.
func startOfWeek(d core.Date, first time.Weekday) core.Date {
	diff := int(d.Weekday()) - int(first)
	if diff < 0 {
		diff += 7
	}
	return d.AddDays(-diff)
}
