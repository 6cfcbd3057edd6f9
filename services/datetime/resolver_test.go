package datetime

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubFallback struct {
	t  time.Time
	ok bool
}

func (s stubFallback) Parse(string, time.Time, *time.Location) (time.Time, bool) {
	return s.t, s.ok
}

func oslo(t *testing.T) *time.Location {
	t.Helper()
	loc, err := time.LoadLocation("Europe/Oslo")
	require.NoError(t, err)
	return loc
}

// Monday 2025-11-10 09:00 Europe/Oslo.
func referenceNow(loc *time.Location) time.Time {
	return time.Date(2025, 11, 10, 9, 0, 0, 0, loc)
}

func TestResolve_RelativeDay(t *testing.T) {
	loc := oslo(t)
	r := NewResolver(loc, WithFallback(stubFallback{}))
	now := referenceNow(loc)

	tests := []struct {
		name   string
		input  string
		want   string
		rolled bool
	}{
		{"bg tomorrow with hour", "утре в 11", "2025-11-11 11:00", false},
		{"bg today with clock", "днес в 15:30", "2025-11-10 15:30", false},
		{"bg today already past", "днес в 8", "2025-11-17 08:00", true},
		{"bg day after tomorrow default hour", "вдругиден", "2025-11-12 12:00", false},
		{"no tomorrow", "i morgen kl 14", "2025-11-11 14:00", false},
		{"no tomorrow joined", "imorgen 10.30", "2025-11-11 10:30", false},
		{"no day after tomorrow", "i overmorgen", "2025-11-12 12:00", false},
		{"en tomorrow pm", "tomorrow at 3pm", "2025-11-11 15:00", false},
		{"en tomorrow evening", "tomorrow evening at 7", "2025-11-11 19:00", false},
		{"en midnight am", "tomorrow at 12 am", "2025-11-11 00:00", false},
		{"explicit 24h not shifted", "tomorrow evening 18:00", "2025-11-11 18:00", false},
		{"bg evening", "утре вечерта в 6", "2025-11-11 18:00", false},
		{"en tonight evening hour", "tonight", "2025-11-10 19:00", false},
		{"no tonight evening hour", "i kveld", "2025-11-10 19:00", false},
		{"en tomorrow afternoon", "tomorrow afternoon", "2025-11-11 15:00", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := r.Resolve(tt.input, now)
			require.NoError(t, err)
			assert.Equal(t, StrategyRelativeDay, got.Strategy)
			assert.Equal(t, tt.want, got.Moment.Format("2006-01-02 15:04"))
			assert.Equal(t, tt.rolled, got.Rolled)
			assert.Equal(t, loc, got.Moment.Location())
		})
	}
}

func TestResolve_TonightLaterInTheDay(t *testing.T) {
	loc := oslo(t)
	r := NewResolver(loc, WithFallback(stubFallback{}))
	now := time.Date(2025, 11, 10, 15, 0, 0, 0, loc)

	for _, input := range []string{"tonight", "i kveld", "днес вечерта"} {
		got, err := r.Resolve(input, now)
		require.NoError(t, err, input)
		assert.Equal(t, "2025-11-10 19:00", got.Moment.Format("2006-01-02 15:04"), input)
		assert.False(t, got.Rolled, input)
	}
}

func TestResolve_TomorrowScenario(t *testing.T) {
	loc := oslo(t)
	r := NewResolver(loc)

	got, err := r.Resolve("утре в 11", referenceNow(loc))
	require.NoError(t, err)
	assert.True(t, got.Moment.Equal(time.Date(2025, 11, 11, 11, 0, 0, 0, loc)))
	assert.Equal(t, time.Tuesday, got.Moment.Weekday())
}

func TestResolve_RelativeDuration(t *testing.T) {
	loc := oslo(t)
	r := NewResolver(loc, WithFallback(stubFallback{}))
	now := referenceNow(loc)

	tests := []struct {
		input string
		want  string
	}{
		{"in 2 hours", "2025-11-10 11:00"},
		{"in 2 hours and 30 minutes", "2025-11-10 11:30"},
		{"in 45 minutes", "2025-11-10 09:45"},
		{"in an hour", "2025-11-10 10:00"},
		{"след 3 часа", "2025-11-10 12:00"},
		{"след 1 час и 15 минути", "2025-11-10 10:15"},
		{"om 2 timer og 10 minutter", "2025-11-10 11:10"},
		{"om 20 minutter", "2025-11-10 09:20"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := r.Resolve(tt.input, now)
			require.NoError(t, err)
			assert.Equal(t, StrategyRelativeDuration, got.Strategy)
			assert.Equal(t, tt.want, got.Moment.Format("2006-01-02 15:04"))
			assert.False(t, got.Rolled)
		})
	}
}

func TestResolve_Weekday(t *testing.T) {
	loc := oslo(t)
	r := NewResolver(loc, WithFallback(stubFallback{}))
	now := referenceNow(loc)

	tests := []struct {
		input string
		want  string
	}{
		{"Monday 13:30", "2025-11-17 13:30"},
		{"следващия петък", "2025-11-14 12:00"},
		{"в сряда в 10", "2025-11-12 10:00"},
		{"på fredag kl 10", "2025-11-14 10:00"},
		{"lørdag 11:15", "2025-11-15 11:15"},
		{"tuesday", "2025-11-11 12:00"},
		{"sunday evening at 6", "2025-11-16 18:00"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := r.Resolve(tt.input, now)
			require.NoError(t, err)
			assert.Equal(t, StrategyWeekday, got.Strategy)
			assert.Equal(t, tt.want, got.Moment.Format("2006-01-02 15:04"))
		})
	}
}

func TestResolve_WeekdayNeverToday(t *testing.T) {
	loc := oslo(t)
	r := NewResolver(loc, WithFallback(stubFallback{}))
	start := referenceNow(loc)

	for name, weekday := range weekdayNames {
		for day := 0; day < 7; day++ {
			for _, hour := range []int{0, 9, 23} {
				now := time.Date(start.Year(), start.Month(), start.Day()+day, hour, 30, 0, 0, loc)
				got, err := r.Resolve(name, now)
				require.NoError(t, err, name)
				assert.Equal(t, weekday, got.Moment.Weekday(), name)
				assert.True(t, got.Moment.After(now), "%s at %s", name, now)
				assert.NotEqual(t, now.Format("2006-01-02"), got.Moment.Format("2006-01-02"), name)
			}
		}
	}
}

func TestResolve_NeverInThePast(t *testing.T) {
	loc := oslo(t)
	r := NewResolver(loc, WithFallback(stubFallback{}))
	inputs := []string{
		"днес в 8", "днес в 23", "today", "утре", "i dag kl 07", "in 5 minutes",
		"friday", "неделя", "08:00", "10:00",
	}

	for day := 0; day < 7; day++ {
		now := time.Date(2025, 11, 10+day, 9, 0, 0, 0, loc)
		for _, in := range inputs {
			got, err := r.Resolve(in, now)
			require.NoError(t, err, in)
			assert.False(t, got.Moment.Before(now), "%q resolved to %s before %s", in, got.Moment, now)
		}
	}
}

func TestResolve_ExactLayouts(t *testing.T) {
	loc := oslo(t)
	r := NewResolver(loc, WithFallback(stubFallback{}))
	now := referenceNow(loc)

	got, err := r.Resolve("2025-11-14 15:00", now)
	require.NoError(t, err)
	assert.Equal(t, StrategyFallback, got.Strategy)
	assert.Equal(t, "2025-11-14 15:00", got.Moment.Format("2006-01-02 15:04"))

	got, err = r.Resolve("2025-11-05 10:00", now)
	require.NoError(t, err)
	assert.True(t, got.Rolled)
	assert.Equal(t, "2025-11-12 10:00", got.Moment.Format("2006-01-02 15:04"))

	got, err = r.Resolve("14.11.2025", now)
	require.NoError(t, err)
	assert.Equal(t, "2025-11-14 12:00", got.Moment.Format("2006-01-02 15:04"))
}

func TestResolve_FallbackRollover(t *testing.T) {
	loc := oslo(t)
	now := referenceNow(loc)
	past := now.Add(-48 * time.Hour)
	r := NewResolver(loc, WithFallback(stubFallback{t: past, ok: true}))

	got, err := r.Resolve("something fuzzy", now)
	require.NoError(t, err)
	assert.Equal(t, StrategyFallback, got.Strategy)
	assert.True(t, got.Rolled)
	assert.True(t, got.Moment.Equal(past.AddDate(0, 0, 7)))
}

func TestResolve_Failures(t *testing.T) {
	loc := oslo(t)
	now := referenceNow(loc)

	tests := []struct {
		name     string
		input    string
		fallback stubFallback
	}{
		{"empty", "   ", stubFallback{}},
		{"gibberish", "когато и да е", stubFallback{}},
		{"stale explicit date", "2020-01-01 10:00", stubFallback{}},
		{"fallback returns stale date", "last year", stubFallback{t: now.AddDate(-1, 0, 0), ok: true}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := NewResolver(loc, WithFallback(tt.fallback))
			_, err := r.Resolve(tt.input, now)
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrUnresolvable))
		})
	}
}

func TestResolve_DefaultHourOption(t *testing.T) {
	loc := oslo(t)
	r := NewResolver(loc, WithDefaultHour(10), WithFallback(stubFallback{}))

	got, err := r.Resolve("утре", referenceNow(loc))
	require.NoError(t, err)
	assert.Equal(t, "2025-11-11 10:00", got.Moment.Format("2006-01-02 15:04"))
}

func TestTomorrowAt(t *testing.T) {
	loc := oslo(t)
	got := TomorrowAt(referenceNow(loc), loc, 13)
	assert.Equal(t, "2025-11-11 13:00", got.Format("2006-01-02 15:04"))
}

func TestClockTime(t *testing.T) {
	tests := []struct {
		input        string
		hour, minute int
		ok           bool
	}{
		{"в 11", 11, 0, true},
		{"kl 9.45", 9, 45, true},
		{"at 7pm", 19, 0, true},
		{"at 7 p.m.", 19, 0, true},
		{"at 12 pm", 12, 0, true},
		{"morning 9", 9, 0, true},
		{"15:00 evening", 15, 0, true},
		{"2025-11-14", 0, 0, false},
		{"no digits", 0, 0, false},
		{"at 25", 0, 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			h, m, ok := clockTime(tt.input, normalize(tt.input))
			assert.Equal(t, tt.ok, ok)
			if tt.ok {
				assert.Equal(t, tt.hour, h)
				assert.Equal(t, tt.minute, m)
			}
		})
	}
}

type recordingFallback struct {
	t     time.Time
	seen  []string
	calls int
}

func (f *recordingFallback) Parse(text string, _ time.Time, _ *time.Location) (time.Time, bool) {
	f.calls++
	f.seen = append(f.seen, text)
	return f.t, !f.t.IsZero()
}

func TestResolve_FallbackClockHandling(t *testing.T) {
	loc := oslo(t)
	now := referenceNow(loc)

	tests := []struct {
		name   string
		input  string
		parsed time.Time
		seen   string
		want   string
	}{
		{"clock split from date", "November 14 at 10", time.Date(2025, 11, 14, 0, 0, 0, 0, loc), "november 14", "2025-11-14 10:00"},
		{"bg connector", "14 ноември в 16:30", time.Date(2025, 11, 14, 0, 0, 0, 0, loc), "14 ноември", "2025-11-14 16:30"},
		{"no connector with pm", "20. desember kl 7 pm", time.Date(2025, 12, 20, 0, 0, 0, 0, loc), "20. desember", "2025-12-20 19:00"},
		{"date only gets default hour", "20. desember", time.Date(2025, 12, 20, 0, 0, 0, 0, loc), "20. desember", "2025-12-20 12:00"},
		{"date only evening", "December 20 evening", time.Date(2025, 12, 20, 0, 0, 0, 0, loc), "december 20 evening", "2025-12-20 19:00"},
		{"parsed time kept", "the 14th around lunch", time.Date(2025, 11, 14, 12, 30, 0, 0, loc), "the 14th around lunch", "2025-11-14 12:30"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fb := &recordingFallback{t: tt.parsed}
			r := NewResolver(loc, WithFallback(fb))

			got, err := r.Resolve(tt.input, now)
			require.NoError(t, err)
			assert.Equal(t, StrategyFallback, got.Strategy)
			assert.Equal(t, tt.want, got.Moment.Format("2006-01-02 15:04"))
			assert.Equal(t, []string{tt.seen}, fb.seen)
		})
	}
}

func TestResolve_BareConnectorClock(t *testing.T) {
	loc := oslo(t)
	now := referenceNow(loc)
	fb := &recordingFallback{}
	r := NewResolver(loc, WithFallback(fb))

	got, err := r.Resolve("at 10", now)
	require.NoError(t, err)
	assert.Equal(t, "2025-11-10 10:00", got.Moment.Format("2006-01-02 15:04"))

	got, err = r.Resolve("at 8", now)
	require.NoError(t, err)
	assert.Equal(t, "2025-11-11 08:00", got.Moment.Format("2006-01-02 15:04"))
	assert.Zero(t, fb.calls)
}

func TestResolve_FallbackTooFarAhead(t *testing.T) {
	loc := oslo(t)
	now := referenceNow(loc)
	r := NewResolver(loc, WithFallback(&recordingFallback{t: time.Date(2110, 11, 14, 0, 0, 0, 0, loc)}))

	_, err := r.Resolve("November 14 2110", now)
	assert.ErrorIs(t, err, ErrUnresolvable)
}

func TestDateParserFallback_Parse(t *testing.T) {
	loc := oslo(t)
	now := referenceNow(loc)
	fb := NewDateParserFallback()

	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"en", "December 20 10:00", "2025-12-20 10:00"},
		{"bg", "20 декември 10:00", "2025-12-20 10:00"},
		{"nb", "20 desember 10:00", "2025-12-20 10:00"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := fb.Parse(tt.input, now, loc)
			require.True(t, ok)
			assert.Equal(t, tt.want, got.Format("2006-01-02 15:04"))
			assert.Equal(t, loc, got.Location())
		})
	}

	_, ok := fb.Parse("xyzzy plugh", now, loc)
	assert.False(t, ok)
}

func TestResolve_WithDateParserFallback(t *testing.T) {
	loc := oslo(t)
	now := referenceNow(loc)
	r := NewResolver(loc)

	tests := []struct {
		input string
		want  string
	}{
		{"20 desember kl 10", "2025-12-20 10:00"},
		{"November 14 at 10", "2025-11-14 10:00"},
		{"20 декември", "2025-12-20 12:00"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := r.Resolve(tt.input, now)
			require.NoError(t, err)
			assert.Equal(t, StrategyFallback, got.Strategy)
			assert.Equal(t, tt.want, got.Moment.Format("2006-01-02 15:04"))
		})
	}
}

func TestSplitClock(t *testing.T) {
	tests := []struct {
		input  string
		rest   string
		hour   int
		minute int
		ok     bool
	}{
		{"November 14 at 10", "november 14", 10, 0, true},
		{"14 ноември в 16:30", "14 ноември", 16, 30, true},
		{"20. desember kl. 9.15", "20. desember", 9, 15, true},
		{"December 20 at 7pm", "december 20", 19, 0, true},
		{"December 20 18:45", "december 20 18:45", 18, 45, true},
		{"December 20", "december 20", 0, 0, false},
		{"at 10", "", 10, 0, true},
		{"December 20 at 25", "december 20 at 25", 0, 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			rest, hour, minute, ok := splitClock(tt.input)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.rest, rest)
			if tt.ok {
				assert.Equal(t, tt.hour, hour)
				assert.Equal(t, tt.minute, minute)
			}
		})
	}
}
