// Package datetime resolves free-text date/time phrases (Bulgarian, English,
// Norwegian) into instants anchored to the business timezone.
package datetime

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	// Deployments run in slim containers without a zoneinfo database.
	_ "time/tzdata"
)

// ErrUnresolvable is returned when no strategy produces a usable moment.
var ErrUnresolvable = errors.New("datetime: phrase could not be resolved")

// Strategy names reported in Resolution.
const (
	StrategyRelativeDay      = "relative_day"
	StrategyRelativeDuration = "relative_duration"
	StrategyWeekday          = "weekday"
	StrategyFallback         = "fallback"
)

// DefaultHour is used when a phrase names a day but no clock time.
const DefaultHour = 12

// Hours used instead of the default hour when a phrase names a part of the
// day but no clock time ("tonight", "i morgen ettermiddag").
const (
	AfternoonHour = 15
	EveningHour   = 19
)

// maxFallbackAhead bounds how far in the future a fuzzy parse may land.
const maxFallbackAhead = 366 * 24 * time.Hour

// Resolution is a resolved moment together with the strategy that produced it.
type Resolution struct {
	Moment   time.Time
	Strategy string
	// Rolled is set when a past result was pushed forward by a week.
	Rolled bool
}

// Fallback is the general-purpose parser consulted after the special-cased strategies.
type Fallback interface {
	Parse(text string, now time.Time, loc *time.Location) (time.Time, bool)
}

// Resolver turns phrases into future-facing moments in a fixed timezone.
type Resolver struct {
	loc         *time.Location
	defaultHour int
	fallback    Fallback
}

type Option func(*Resolver)

// WithDefaultHour sets the hour applied when a phrase carries no clock time.
func WithDefaultHour(hour int) Option {
	return func(r *Resolver) {
		if hour >= 0 && hour <= 23 {
			r.defaultHour = hour
		}
	}
}

// WithFallback replaces the general fallback parser.
func WithFallback(f Fallback) Option {
	return func(r *Resolver) {
		r.fallback = f
	}
}

// NewResolver creates a resolver for loc. A nil loc means UTC.
func NewResolver(loc *time.Location, opts ...Option) *Resolver {
	if loc == nil {
		loc = time.UTC
	}
	r := &Resolver{
		loc:         loc,
		defaultHour: DefaultHour,
		fallback:    NewDateParserFallback(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Location returns the business timezone.
func (r *Resolver) Location() *time.Location {
	return r.loc
}

// Resolve converts text into a moment that is never before now.
//
// Strategies run in order and the first match wins: relative-day keywords,
// relative durations, weekday names, then the fallback parser. Results of the
// relative-day and fallback strategies that land before now are moved one
// week forward; weekday and duration results are future by construction.
func (r *Resolver) Resolve(text string, now time.Time) (Resolution, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return Resolution{}, fmt.Errorf("%w: empty input", ErrUnresolvable)
	}
	now = now.In(r.loc)
	lower := strings.ToLower(text)
	norm := normalize(text)

	if t, ok := r.relativeDay(lower, norm, now); ok {
		return r.corrected(t, now, StrategyRelativeDay)
	}
	if t, ok := relativeDuration(lower, now); ok {
		return Resolution{Moment: t, Strategy: StrategyRelativeDuration}, nil
	}
	if t, ok := r.weekday(lower, norm, now); ok {
		return Resolution{Moment: t, Strategy: StrategyWeekday}, nil
	}
	if t, ok := r.general(text, now); ok {
		return r.corrected(t, now, StrategyFallback)
	}
	return Resolution{}, fmt.Errorf("%w: %q", ErrUnresolvable, text)
}

// corrected applies the one-week rollover for results that landed in the past.
func (r *Resolver) corrected(t, now time.Time, strategy string) (Resolution, error) {
	res := Resolution{Moment: t.In(r.loc), Strategy: strategy}
	if !res.Moment.Before(now) {
		return res, nil
	}
	res.Moment = res.Moment.AddDate(0, 0, 7)
	res.Rolled = true
	if res.Moment.Before(now) {
		// A date more than a week old is a stale explicit date, not an under-specified one.
		return Resolution{}, fmt.Errorf("%w: %s lies in the past", ErrUnresolvable, t.Format(time.RFC3339))
	}
	return res, nil
}

func (r *Resolver) relativeDay(lower, norm string, now time.Time) (time.Time, bool) {
	for _, rd := range relativeDays {
		if !containsWord(norm, rd.keywords) {
			continue
		}
		day := now.AddDate(0, 0, rd.offset)
		return r.atClock(day, lower, norm), true
	}
	return time.Time{}, false
}

func relativeDuration(lower string, now time.Time) (time.Time, bool) {
	var d time.Duration
	switch {
	case hoursPattern.MatchString(lower):
		m := hoursPattern.FindStringSubmatch(lower)
		h, _ := strconv.Atoi(m[1])
		d = time.Duration(h) * time.Hour
		if m[2] != "" {
			mins, _ := strconv.Atoi(m[2])
			d += time.Duration(mins) * time.Minute
		}
	case minutesPattern.MatchString(lower):
		m := minutesPattern.FindStringSubmatch(lower)
		mins, _ := strconv.Atoi(m[1])
		d = time.Duration(mins) * time.Minute
	case oneHourPattern.MatchString(lower):
		d = time.Hour
	default:
		return time.Time{}, false
	}
	if d < time.Minute {
		return time.Time{}, false
	}
	return now.Add(d).Truncate(time.Minute), true
}

func (r *Resolver) weekday(lower, norm string, now time.Time) (time.Time, bool) {
	for _, word := range strings.Fields(norm) {
		target, ok := weekdayNames[word]
		if !ok {
			continue
		}
		days := (int(target) - int(now.Weekday()) + 7) % 7
		if days == 0 {
			// A bare weekday never means today.
			days = 7
		}
		return r.atClock(now.AddDate(0, 0, days), lower, norm), true
	}
	return time.Time{}, false
}

// general tries exact layouts first and then the fuzzy fallback parser.
//
// The clock time is split off before the fallback sees the phrase, since
// "November 14 at 10" otherwise reads the hour as a year. Date-only results
// get the default hour, and results more than a year ahead are rejected.
func (r *Resolver) general(text string, now time.Time) (time.Time, bool) {
	if t, ok := r.exactLayout(text, now); ok {
		return t, true
	}
	if r.fallback == nil {
		return time.Time{}, false
	}

	dateText, hour, minute, hasClock := splitClock(text)
	if dateText == "" {
		if !hasClock {
			return time.Time{}, false
		}
		t := time.Date(now.Year(), now.Month(), now.Day(), hour, minute, 0, 0, r.loc)
		if t.Before(now) {
			t = t.AddDate(0, 0, 1)
		}
		return t, true
	}

	t, ok := r.fallback.Parse(dateText, now, r.loc)
	if !ok || t.IsZero() {
		return time.Time{}, false
	}
	t = t.In(r.loc)
	if t.Sub(now) > maxFallbackAhead {
		return time.Time{}, false
	}
	switch {
	case hasClock:
		t = time.Date(t.Year(), t.Month(), t.Day(), hour, minute, 0, 0, r.loc)
	case t.Hour() == 0 && t.Minute() == 0:
		t = time.Date(t.Year(), t.Month(), t.Day(), r.periodHour(normalize(text)), 0, 0, 0, r.loc)
	}
	return t, true
}

// splitClock removes a connector clock ("at 10", "в 11", "kl 14:30") from
// text and returns it separately. An explicit "HH:MM" is returned but left in
// place. rest is lower-cased.
func splitClock(text string) (rest string, hour, minute int, ok bool) {
	lower := strings.ToLower(strings.TrimSpace(text))
	if idx := connectorClock.FindStringSubmatchIndex(lower); idx != nil {
		hour, _ = strconv.Atoi(lower[idx[2]:idx[3]])
		if idx[4] >= 0 {
			minute, _ = strconv.Atoi(lower[idx[4]:idx[5]])
		}
		rest = strings.TrimSpace(lower[:idx[0]] + " " + lower[idx[1]:])
	} else if m := clockPattern.FindStringSubmatch(lower); m != nil {
		hour, _ = strconv.Atoi(m[1])
		minute, _ = strconv.Atoi(m[2])
		rest = lower
	} else {
		return lower, 0, 0, false
	}
	if hour > 23 || minute > 59 {
		return lower, 0, 0, false
	}
	return rest, applyPeriod(hour, lower, normalize(lower)), minute, true
}

var exactLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
	"02.01.2006 15:04",
	"02.01.2006",
	"2006/01/02 15:04",
	"15:04",
}

func (r *Resolver) exactLayout(text string, now time.Time) (time.Time, bool) {
	for _, layout := range exactLayouts {
		t, err := time.ParseInLocation(layout, text, r.loc)
		if err != nil {
			continue
		}
		switch layout {
		case "15:04":
			return time.Date(now.Year(), now.Month(), now.Day(), t.Hour(), t.Minute(), 0, 0, r.loc), true
		case "2006-01-02", "02.01.2006":
			return time.Date(t.Year(), t.Month(), t.Day(), r.defaultHour, 0, 0, 0, r.loc), true
		}
		return t, true
	}
	return time.Time{}, false
}

// atClock places the clock time found in the text (or the default hour) on day.
func (r *Resolver) atClock(day time.Time, lower, norm string) time.Time {
	hour, minute, ok := clockTime(lower, norm)
	if !ok {
		hour, minute = r.periodHour(norm), 0
	}
	return time.Date(day.Year(), day.Month(), day.Day(), hour, minute, 0, 0, r.loc)
}

// clockTime extracts the time of day and applies the AM/PM heuristic.
//
// The heuristic is deliberately light: only hours 0-12 are ambiguous. An
// evening/PM mention moves 1-11 into the afternoon; a morning/AM mention
// turns 12 into 0. Hours 13-23 are explicit and never shifted.
func clockTime(lower, norm string) (hour, minute int, ok bool) {
	if m := clockPattern.FindStringSubmatch(lower); m != nil {
		hour, _ = strconv.Atoi(m[1])
		minute, _ = strconv.Atoi(m[2])
		ok = hour <= 23 && minute <= 59
	}
	if !ok {
		if m := hourPattern.FindStringSubmatch(lower); m != nil {
			hour, _ = strconv.Atoi(m[1])
			minute = 0
			ok = hour <= 23
		}
	}
	if !ok {
		return 0, 0, false
	}
	return applyPeriod(hour, lower, norm), minute, true
}

func applyPeriod(hour int, lower, norm string) int {
	pm := pmSuffix.MatchString(lower) || containsWord(norm, pmWords)
	am := amSuffix.MatchString(lower) || containsWord(norm, amWords)
	switch {
	case pm && hour >= 1 && hour < 12:
		hour += 12
	case am && !pm && hour == 12:
		hour = 0
	}
	return hour
}

// periodHour is the hour for a phrase without a clock time.
func (r *Resolver) periodHour(norm string) int {
	switch {
	case containsWord(norm, eveningWords):
		return EveningHour
	case containsWord(norm, afternoonWords):
		return AfternoonHour
	}
	return r.defaultHour
}

// TomorrowAt is the default-instant policy some deployments apply when a
// phrase cannot be resolved.
func TomorrowAt(now time.Time, loc *time.Location, hour int) time.Time {
	if loc == nil {
		loc = time.UTC
	}
	d := now.In(loc).AddDate(0, 0, 1)
	return time.Date(d.Year(), d.Month(), d.Day(), hour, 0, 0, 0, loc)
}
