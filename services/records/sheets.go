// Package records persists committed bookings: a client row per Messenger
// user and an append-only history, in Google Sheets and optionally MongoDB.
package records

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"barberbot/models"
	"barberbot/utils"

	"google.golang.org/api/sheets/v4"
)

const valueInputOption = "USER_ENTERED"

// SheetRecorder writes the Clients and History tabs.
type SheetRecorder struct {
	svc           *sheets.Service
	spreadsheetID string
	clientsRange  string
	historyRange  string
}

func NewSheetRecorder(svc *sheets.Service, spreadsheetID, clientsRange, historyRange string) *SheetRecorder {
	return &SheetRecorder{
		svc:           svc,
		spreadsheetID: spreadsheetID,
		clientsRange:  clientsRange,
		historyRange:  historyRange,
	}
}

// ClientRow is [psid, name, service, barber, "YYYY-MM-DD HH:MM", notes].
func ClientRow(b models.Booking) []interface{} {
	return []interface{}{b.UserID, b.ClientName, b.Service, b.Barber, b.Start.Format(utils.DateTimeLayout), b.Notes}
}

// HistoryRow is ["YYYY-MM-DD HH:MM", name, service, barber, notes, psid].
func HistoryRow(b models.Booking) []interface{} {
	return []interface{}{b.Start.Format(utils.DateTimeLayout), b.ClientName, b.Service, b.Barber, b.Notes, b.UserID}
}

func (r *SheetRecorder) Record(ctx context.Context, b models.Booking) error {
	if err := r.UpsertClient(ctx, b); err != nil {
		return err
	}
	return r.AppendHistory(ctx, b)
}

// UpsertClient overwrites the row whose first column is the booking's psid,
// or appends a new row when there is none.
func (r *SheetRecorder) UpsertClient(ctx context.Context, b models.Booking) error {
	resp, err := r.svc.Spreadsheets.Values.Get(r.spreadsheetID, r.clientsRange).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("failed to read clients: %w", err)
	}
	row := &sheets.ValueRange{Values: [][]interface{}{ClientRow(b)}}

	if i := findRow(resp.Values, b.UserID); i >= 0 {
		n := startRow(r.clientsRange) + i
		target := rowRange(r.clientsRange, n)
		if _, err := r.svc.Spreadsheets.Values.Update(r.spreadsheetID, target, row).
			ValueInputOption(valueInputOption).Context(ctx).Do(); err != nil {
			return fmt.Errorf("failed to update client row %d: %w", n, err)
		}
		return nil
	}

	if _, err := r.svc.Spreadsheets.Values.Append(r.spreadsheetID, r.clientsRange, row).
		ValueInputOption(valueInputOption).InsertDataOption("INSERT_ROWS").Context(ctx).Do(); err != nil {
		return fmt.Errorf("failed to append client: %w", err)
	}
	return nil
}

func (r *SheetRecorder) AppendHistory(ctx context.Context, b models.Booking) error {
	row := &sheets.ValueRange{Values: [][]interface{}{HistoryRow(b)}}
	if _, err := r.svc.Spreadsheets.Values.Append(r.spreadsheetID, r.historyRange, row).
		ValueInputOption(valueInputOption).InsertDataOption("INSERT_ROWS").Context(ctx).Do(); err != nil {
		return fmt.Errorf("failed to append history: %w", err)
	}
	return nil
}

// findRow returns the index of the row whose first cell is psid, or -1.
func findRow(rows [][]interface{}, psid string) int {
	for i, row := range rows {
		if len(row) > 0 && strings.TrimSpace(fmt.Sprint(row[0])) == psid {
			return i
		}
	}
	return -1
}

// startRow is the first sheet row of an A1 range: 2 for "Clients!A2:F", 1 for "Clients!A:F".
func startRow(rangeA1 string) int {
	_, cols, found := strings.Cut(rangeA1, "!")
	if !found {
		cols = rangeA1
	}
	first, _, _ := strings.Cut(cols, ":")
	if n, err := strconv.Atoi(strings.TrimLeft(first, "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz")); err == nil && n > 0 {
		return n
	}
	return 1
}

// rowRange turns "Clients!A:F" and 7 into "Clients!A7:F7".
func rowRange(columns string, n int) string {
	sheet, cols, found := strings.Cut(columns, "!")
	if !found {
		sheet, cols = "", columns
	}
	first, last, _ := strings.Cut(cols, ":")
	first = strings.TrimRight(first, "0123456789")
	last = strings.TrimRight(last, "0123456789")
	if last == "" {
		last = first
	}
	a1 := fmt.Sprintf("%s%d:%s%d", first, n, last, n)
	if sheet == "" {
		return a1
	}
	return sheet + "!" + a1
}
