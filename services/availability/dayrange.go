package availability

import (
	"strings"
	"time"
	"unicode/utf8"
)

// dayCodes is the week in schedule order.
var dayCodes = []string{"mon", "tue", "wed", "thu", "fri", "sat", "sun"}

// DayCode returns the three-letter code of a weekday.
func DayCode(d time.Weekday) string {
	// time.Weekday starts at Sunday.
	return dayCodes[(int(d)+6)%7]
}

func dayIndex(code string) int {
	for i, c := range dayCodes {
		if c == code {
			return i
		}
	}
	return -1
}

// shortCode lower-cases a day token and cuts it to three letters, so
// "Tuesday" and "TUE" both read as "tue".
func shortCode(token string) string {
	r := []rune(strings.ToLower(strings.TrimSpace(token)))
	if len(r) > 3 {
		r = r[:3]
	}
	return string(r)
}

// ExpandDays turns a schedule day cell into the ordered set of active day codes.
//
//	"wed"       -> [wed]
//	"fri-mon"   -> [fri sat sun mon]
//	"tue–sat"   -> [tue wed thu fri sat]
//	"bogus-day" -> all seven days
//	""          -> all seven days
//
// A blank cell and a range with an unrecognized end are fail-open. Comma
// separated cells ("mon,wed-fri") are the union of their parts.
func ExpandDays(cell string) []string {
	if strings.TrimSpace(cell) == "" {
		return append([]string(nil), dayCodes...)
	}
	seen := make(map[string]bool, 7)
	for _, part := range strings.Split(cell, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		for _, code := range expandPart(part) {
			seen[code] = true
		}
	}

	days := make([]string, 0, len(seen))
	for _, code := range dayCodes {
		if seen[code] {
			days = append(days, code)
			delete(seen, code)
		}
	}
	// Unrecognized single-day tokens are kept so they simply never match.
	for code := range seen {
		days = append(days, code)
	}
	return days
}

func expandPart(part string) []string {
	sep := strings.IndexAny(part, "-–")
	if sep < 0 {
		return []string{shortCode(part)}
	}

	_, width := utf8.DecodeRuneInString(part[sep:])
	start := dayIndex(shortCode(part[:sep]))
	end := dayIndex(shortCode(part[sep+width:]))
	if start < 0 || end < 0 {
		return append([]string(nil), dayCodes...)
	}

	var days []string
	for i := start; ; i = (i + 1) % len(dayCodes) {
		days = append(days, dayCodes[i])
		if i == end {
			break
		}
	}
	return days
}

// activeOn reports whether code is among the expanded days of cell.
func activeOn(cell, code string) bool {
	for _, d := range ExpandDays(cell) {
		if d == code {
			return true
		}
	}
	return false
}
