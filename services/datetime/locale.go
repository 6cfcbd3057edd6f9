package datetime

import (
	"regexp"
	"strings"
	"time"
	"unicode"
)

// relativeDays maps "today"/"tomorrow"/"day after tomorrow" phrases to day offsets.
// Longer offsets are listed first so "i overmorgen" never reads as "i morgen".
var relativeDays = []struct {
	offset   int
	keywords []string
}{
	{2, []string{"вдругиден", "day after tomorrow", "i overmorgen", "overmorgen"}},
	{1, []string{"утре", "tomorrow", "i morgen", "imorgen"}},
	{0, []string{"днес", "today", "tonight", "i dag", "idag", "i kveld"}},
}

// weekdayNames covers full weekday names in Bulgarian, English and Norwegian.
var weekdayNames = map[string]time.Weekday{
	"понеделник": time.Monday,
	"вторник":    time.Tuesday,
	"сряда":      time.Wednesday,
	"четвъртък":  time.Thursday,
	"петък":      time.Friday,
	"събота":     time.Saturday,
	"неделя":     time.Sunday,

	"monday":    time.Monday,
	"tuesday":   time.Tuesday,
	"wednesday": time.Wednesday,
	"thursday":  time.Thursday,
	"friday":    time.Friday,
	"saturday":  time.Saturday,
	"sunday":    time.Sunday,

	"mandag":  time.Monday,
	"tirsdag": time.Tuesday,
	"onsdag":  time.Wednesday,
	"torsdag": time.Thursday,
	"fredag":  time.Friday,
	"lørdag":  time.Saturday,
	"søndag":  time.Sunday,
}

// Period words for the AM/PM heuristic.
var (
	pmWords = []string{
		"pm", "p m", "evening", "tonight", "afternoon",
		"вечерта", "вечер", "следобед", "следобяд",
		"kveld", "kvelden", "i kveld", "ettermiddag", "ettermiddagen",
	}
	amWords = []string{
		"am", "a m", "morning",
		"сутринта", "сутрин",
		"morgenen", "om morgenen", "formiddag", "formiddagen",
	}
	eveningWords = []string{
		"tonight", "evening", "вечерта", "вечер", "kveld", "kvelden", "i kveld",
	}
	afternoonWords = []string{
		"afternoon", "следобед", "следобяд", "ettermiddag", "ettermiddagen",
	}
	pmSuffix = regexp.MustCompile(`\d\s*(?:pm|p\.m\.)`)
	amSuffix = regexp.MustCompile(`\d\s*(?:am|a\.m\.)`)
)

var (
	// clockPattern matches an explicit "HH:MM" or "HH.MM".
	clockPattern = regexp.MustCompile(`(?:^|[^\d])(\d{1,2})[:.](\d{2})(?:[^\d]|$)`)
	// connectorClock matches a clock time introduced by a word such as
	// "at", "kl" or "в", with an optional am/pm or unit suffix.
	connectorClock = regexp.MustCompile(`(?:^|\s)(?:at|@|kl\.?|klokka|klokken|в|около|um)\s*(\d{1,2})(?:[:.](\d{2}))?(?:\s*(?:am|pm|a\.m\.|p\.m\.|h|ч\.?|часа))?(?:\s|$|[.,!?])`)
	// hourPattern matches a bare 1-2 digit hour that is not part of a date or a longer number.
	hourPattern = regexp.MustCompile(`(?:^|[^\d\-/.:])(\d{1,2})(?:[^\d\-/.:]|\.(?:\s|$)|$)`)
)

var (
	durationUnitsHour   = `(?:hours?|hrs?|h|часа|час|ч|timer|time)`
	durationUnitsMinute = `(?:minutes?|mins?|m|минути|минута|мин|minutter|minutt|min)`
	durationLead        = `(?:^|\s)(?:in|след|om)\s+`
	durationTail        = `(?:\s|$|[.,!?])`

	hoursPattern = regexp.MustCompile(durationLead + `(\d{1,3})\s*` + durationUnitsHour +
		`(?:\s*(?:and|и|og)?\s*(\d{1,3})\s*` + durationUnitsMinute + `)?` + durationTail)
	minutesPattern = regexp.MustCompile(durationLead + `(\d{1,3})\s*` + durationUnitsMinute + durationTail)
	oneHourPattern = regexp.MustCompile(`(?:^|\s)(?:in an|in one|след един|след|om en|om ein|om ett)\s+(?:hour|час|time|timen)` + durationTail)
)

// normalize lower-cases text and turns punctuation into single spaces,
// padding the result so keywords can be matched as " kw ".
func normalize(text string) string {
	var b strings.Builder
	b.WriteByte(' ')
	lastSpace := true
	for _, r := range strings.ToLower(text) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
			lastSpace = false
			continue
		}
		if !lastSpace {
			b.WriteByte(' ')
			lastSpace = true
		}
	}
	if !lastSpace {
		b.WriteByte(' ')
	}
	return b.String()
}

// containsWord reports whether normalized text holds any keyword as whole words.
func containsWord(normalized string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(normalized, " "+kw+" ") {
			return true
		}
	}
	return false
}
