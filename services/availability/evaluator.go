// Package availability decides whether a barber works at a given moment and
// may perform a given service, based on the weekly working windows kept in the
// schedule sheet.
package availability

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"barberbot/models"
	"barberbot/utils"

	"go.uber.org/zap"
)

// ScheduleSource returns the current working windows. Implementations must
// read fresh data on every call.
type ScheduleSource interface {
	WorkingWindows(ctx context.Context) ([]models.WorkingWindow, error)
}

// Reasons reported in a Verdict.
const (
	ReasonAvailable         = "available"
	ReasonUnknownStaff      = "unknown_staff"
	ReasonDayOff            = "day_off"
	ReasonOutsideHours      = "outside_hours"
	ReasonServiceRestricted = "service_restricted"
)

// Verdict is the outcome of an availability check.
type Verdict struct {
	Available bool
	Reason    string
	// Window is the matched working window, nil for ReasonUnknownStaff.
	Window *models.WorkingWindow
}

type Evaluator struct {
	source ScheduleSource
	loc    *time.Location
}

// NewEvaluator checks moments in loc (UTC when nil) against source.
func NewEvaluator(source ScheduleSource, loc *time.Location) *Evaluator {
	if loc == nil {
		loc = time.UTC
	}
	return &Evaluator{source: source, loc: loc}
}

// IsAvailable reports whether staffID works at moment and may perform serviceID.
func (e *Evaluator) IsAvailable(ctx context.Context, staffID string, moment time.Time, serviceID string) (bool, error) {
	v, err := e.Check(ctx, staffID, moment, serviceID)
	if err != nil {
		return false, err
	}
	return v.Available, nil
}

// Check is IsAvailable with the reason for a refusal.
func (e *Evaluator) Check(ctx context.Context, staffID string, moment time.Time, serviceID string) (Verdict, error) {
	windows, err := e.source.WorkingWindows(ctx)
	if err != nil {
		return Verdict{}, fmt.Errorf("failed to read working windows: %w", err)
	}
	v := Evaluate(windows, staffID, moment.In(e.loc), serviceID)
	if v.Window != nil && strings.TrimSpace(v.Window.Days) == "" {
		utils.GetLogger().Warn("Working window has no days, treating every day as active",
			zap.String("staff", staffID),
			zap.String("window", v.Window.Name))
	}
	utils.GetLogger().Debug("Availability checked",
		zap.String("staff", staffID),
		zap.Time("moment", moment),
		zap.String("service", serviceID),
		zap.String("reason", v.Reason))
	return v, nil
}

// Evaluate runs the availability rules against an already loaded table.
// moment must already be in the business timezone.
func Evaluate(windows []models.WorkingWindow, staffID string, moment time.Time, serviceID string) Verdict {
	w := FindWindow(windows, staffID)
	if w == nil {
		return Verdict{Reason: ReasonUnknownStaff}
	}
	if !activeOn(w.Days, DayCode(moment.Weekday())) {
		return Verdict{Reason: ReasonDayOff, Window: w}
	}
	if !withinHours(moment, w.StartTime, w.EndTime) {
		return Verdict{Reason: ReasonOutsideHours, Window: w}
	}
	if serviceRestricted(w.RestrictedServices, serviceID) {
		return Verdict{Reason: ReasonServiceRestricted, Window: w}
	}
	return Verdict{Available: true, Reason: ReasonAvailable, Window: w}
}

// FindWindow returns the first window whose name contains staffID,
// case-insensitively. "Ivan" therefore also matches "Ivanov" when that row
// comes first.
func FindWindow(windows []models.WorkingWindow, staffID string) *models.WorkingWindow {
	needle := strings.ToLower(strings.TrimSpace(staffID))
	if needle == "" {
		return nil
	}
	for i := range windows {
		if strings.Contains(strings.ToLower(windows[i].Name), needle) {
			return &windows[i]
		}
	}
	return nil
}

// withinHours compares zero-padded "HH:MM" values, both bounds inclusive.
// A bound that cannot be read does not restrict.
func withinHours(moment time.Time, start, end string) bool {
	hhmm := moment.Format("15:04")
	if s, ok := padClock(start); ok && hhmm < s {
		return false
	}
	if e, ok := padClock(end); ok && hhmm > e {
		return false
	}
	return true
}

// padClock normalizes "9:00", "09.00" or "9" to "09:00".
func padClock(value string) (string, bool) {
	value = strings.TrimSpace(value)
	if value == "" {
		return "", false
	}
	hourPart, minutePart, found := strings.Cut(strings.ReplaceAll(value, ".", ":"), ":")
	if !found {
		minutePart = "0"
	}
	h, err := strconv.Atoi(strings.TrimSpace(hourPart))
	if err != nil || h < 0 || h > 24 {
		return "", false
	}
	m, err := strconv.Atoi(strings.TrimSpace(minutePart))
	if err != nil || m < 0 || m > 59 {
		return "", false
	}
	return fmt.Sprintf("%02d:%02d", h, m), true
}

func serviceRestricted(restricted, serviceID string) bool {
	restricted = strings.TrimSpace(restricted)
	serviceID = strings.TrimSpace(serviceID)
	if restricted == "" || serviceID == "" {
		return false
	}
	return strings.Contains(strings.ToLower(restricted), strings.ToLower(serviceID))
}
