package datetime

import (
	"time"

	dps "github.com/markusmobius/go-dateparser"
)

// DefaultLanguages are the locales the fuzzy parser is allowed to detect.
var DefaultLanguages = []string{"bg", "en", "nb", "nn"}

// DateParserFallback delegates to go-dateparser with a prefer-future bias.
type DateParserFallback struct {
	parser    *dps.Parser
	languages []string
}

// NewDateParserFallback builds a fallback restricted to languages (DefaultLanguages when empty).
func NewDateParserFallback(languages ...string) *DateParserFallback {
	if len(languages) == 0 {
		languages = DefaultLanguages
	}
	return &DateParserFallback{
		parser:    &dps.Parser{},
		languages: languages,
	}
}

// Parse implements Fallback.
func (f *DateParserFallback) Parse(text string, now time.Time, loc *time.Location) (t time.Time, ok bool) {
	defer func() {
		// Treat a parser panic as no match.
		if r := recover(); r != nil {
			t, ok = time.Time{}, false
		}
	}()

	cfg := &dps.Configuration{
		Languages:           f.languages,
		CurrentTime:         now.In(loc),
		DefaultTimezone:     loc,
		PreferredDateSource: dps.Future,
	}
	dt, err := f.parser.Parse(cfg, text)
	if err != nil || dt.Time.IsZero() {
		return time.Time{}, false
	}
	return dt.Time.In(loc), true
}
