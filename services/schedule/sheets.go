// Package schedule reads the barbershop's service catalog and staff working
// windows from the Google Sheets spreadsheet the shop maintains.
package schedule

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"barberbot/models"
	"barberbot/utils"

	"go.uber.org/zap"
	"google.golang.org/api/sheets/v4"
)

// SheetSchedule reads the schedule on every call so edits to the sheet take
// effect on the next message.
type SheetSchedule struct {
	svc           *sheets.Service
	spreadsheetID string
	servicesRange string
	barbersRange  string
}

func NewSheetSchedule(svc *sheets.Service, spreadsheetID, servicesRange, barbersRange string) *SheetSchedule {
	return &SheetSchedule{
		svc:           svc,
		spreadsheetID: spreadsheetID,
		servicesRange: servicesRange,
		barbersRange:  barbersRange,
	}
}

func (s *SheetSchedule) values(ctx context.Context, rangeA1 string) ([][]interface{}, error) {
	resp, err := s.svc.Spreadsheets.Values.Get(s.spreadsheetID, rangeA1).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", rangeA1, err)
	}
	return resp.Values, nil
}

// Catalog returns the bookable services keyed by lower-cased name.
func (s *SheetSchedule) Catalog(ctx context.Context) (models.Catalog, error) {
	rows, err := s.values(ctx, s.servicesRange)
	if err != nil {
		return nil, err
	}
	return ParseCatalog(rows), nil
}

// WorkingWindows returns one window per staff row, in sheet order.
func (s *SheetSchedule) WorkingWindows(ctx context.Context) ([]models.WorkingWindow, error) {
	rows, err := s.values(ctx, s.barbersRange)
	if err != nil {
		return nil, err
	}
	return ParseWindows(rows), nil
}

// ParseCatalog reads "name, price, duration" rows. Rows without a name are
// skipped; a missing or unreadable duration becomes the default.
func ParseCatalog(rows [][]interface{}) models.Catalog {
	catalog := make(models.Catalog, len(rows))
	for i, row := range rows {
		name := cell(row, 0)
		if name == "" {
			continue
		}
		duration := models.DefaultServiceDuration
		if raw := cell(row, 2); raw != "" {
			if d, err := strconv.Atoi(strings.Fields(raw)[0]); err == nil && d > 0 {
				duration = d
			} else {
				utils.GetLogger().Warn("Unreadable service duration, using default",
					zap.Int("row", i+2), zap.String("service", name), zap.String("duration", raw))
			}
		}
		catalog[strings.ToLower(name)] = models.Service{
			Name:            name,
			Price:           cell(row, 1),
			DurationMinutes: duration,
		}
	}
	return catalog
}

// ParseWindows reads "name, days, start, end, restricted services" rows.
func ParseWindows(rows [][]interface{}) []models.WorkingWindow {
	windows := make([]models.WorkingWindow, 0, len(rows))
	for _, row := range rows {
		name := cell(row, 0)
		if name == "" {
			continue
		}
		windows = append(windows, models.WorkingWindow{
			Name:               name,
			Days:               cell(row, 1),
			StartTime:          cell(row, 2),
			EndTime:            cell(row, 3),
			RestrictedServices: cell(row, 4),
		})
	}
	return windows
}

func cell(row []interface{}, i int) string {
	if i >= len(row) || row[i] == nil {
		return ""
	}
	return strings.TrimSpace(fmt.Sprint(row[i]))
}
