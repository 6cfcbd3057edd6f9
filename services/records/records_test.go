package records

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"barberbot/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"
)

func testBooking() models.Booking {
	return models.Booking{
		ID:              "b-1",
		UserID:          "psid-2",
		ClientName:      "Ana Ivanova",
		Service:         "Haircut",
		Barber:          "Ivan Petrov",
		Start:           time.Date(2025, 11, 11, 11, 0, 0, 0, time.UTC),
		DurationMinutes: 30,
		Notes:           "fade",
	}
}

type sheetCall struct {
	method string
	path   string
	values [][]interface{}
}

type fakeSheet struct {
	mu      sync.Mutex
	clients string
	calls   []sheetCall
}

func (f *fakeSheet) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	call := sheetCall{method: r.Method, path: r.URL.Path}
	if r.Method != http.MethodGet {
		var body sheets.ValueRange
		_ = json.NewDecoder(r.Body).Decode(&body)
		call.values = body.Values
	}
	f.mu.Lock()
	f.calls = append(f.calls, call)
	f.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	if r.Method == http.MethodGet {
		_, _ = w.Write([]byte(f.clients))
		return
	}
	_, _ = w.Write([]byte(`{}`))
}

func newRecorder(t *testing.T, f *fakeSheet, clientsRange string) *SheetRecorder {
	t.Helper()
	srv := httptest.NewServer(f)
	t.Cleanup(srv.Close)
	svc, err := sheets.NewService(context.Background(), option.WithoutAuthentication(), option.WithEndpoint(srv.URL+"/"))
	require.NoError(t, err)
	return NewSheetRecorder(svc, "sheet-1", clientsRange, "History!A:F")
}

func TestSheetRecorder_UpdatesExistingClient(t *testing.T) {
	f := &fakeSheet{clients: `{"values":[["psid","name"],["psid-1","Boris"],["psid-2","Ana"]]}`}
	r := newRecorder(t, f, "Clients!A:F")

	require.NoError(t, r.Record(context.Background(), testBooking()))

	require.Len(t, f.calls, 3)
	assert.Equal(t, http.MethodGet, f.calls[0].method)
	assert.Equal(t, http.MethodPut, f.calls[1].method)
	assert.True(t, strings.HasSuffix(f.calls[1].path, "/values/Clients!A3:F3"), f.calls[1].path)
	assert.Equal(t, [][]interface{}{{"psid-2", "Ana Ivanova", "Haircut", "Ivan Petrov", "2025-11-11 11:00", "fade"}}, f.calls[1].values)

	assert.Equal(t, http.MethodPost, f.calls[2].method)
	assert.True(t, strings.HasSuffix(f.calls[2].path, "History!A:F:append"), f.calls[2].path)
	assert.Equal(t, [][]interface{}{{"2025-11-11 11:00", "Ana Ivanova", "Haircut", "Ivan Petrov", "fade", "psid-2"}}, f.calls[2].values)
}

func TestSheetRecorder_AppendsNewClient(t *testing.T) {
	f := &fakeSheet{clients: `{"values":[["psid-1","Boris"]]}`}
	r := newRecorder(t, f, "Clients!A2:F")

	require.NoError(t, r.UpsertClient(context.Background(), testBooking()))

	require.Len(t, f.calls, 2)
	assert.Equal(t, http.MethodPost, f.calls[1].method)
	assert.True(t, strings.HasSuffix(f.calls[1].path, "Clients!A2:F:append"), f.calls[1].path)
}

func TestRowRanges(t *testing.T) {
	assert.Equal(t, "Clients!A7:F7", rowRange("Clients!A:F", 7))
	assert.Equal(t, "Clients!A3:F3", rowRange("Clients!A2:F", 3))
	assert.Equal(t, "A4:A4", rowRange("A", 4))

	assert.Equal(t, 1, startRow("Clients!A:F"))
	assert.Equal(t, 2, startRow("Clients!A2:F"))
	assert.Equal(t, 1, startRow("Clients"))

	rows := [][]interface{}{{}, {"psid-1"}, {" psid-2 ", "x"}}
	assert.Equal(t, 2, findRow(rows, "psid-2"))
	assert.Equal(t, -1, findRow(rows, "psid-3"))
}

type mockRepo struct {
	mock.Mock
}

func (m *mockRepo) UpsertClient(ctx context.Context, client models.ClientRecord) error {
	return m.Called(ctx, client).Error(0)
}

func (m *mockRepo) InsertHistory(ctx context.Context, entry models.HistoryEntry) error {
	return m.Called(ctx, entry).Error(0)
}

func (m *mockRepo) HistoryByPSID(ctx context.Context, psid string) ([]models.HistoryEntry, error) {
	args := m.Called(ctx, psid)
	entries, _ := args.Get(0).([]models.HistoryEntry)
	return entries, args.Error(1)
}

func TestMongoRecorder(t *testing.T) {
	ctx := context.Background()
	b := testBooking()

	repo := new(mockRepo)
	repo.On("UpsertClient", ctx, models.ClientRecordOf(b)).Return(nil).Once()
	repo.On("InsertHistory", ctx, models.HistoryEntryOf(b)).Return(nil).Once()
	require.NoError(t, NewMongoRecorder(repo).Record(ctx, b))
	repo.AssertExpectations(t)

	failing := new(mockRepo)
	failing.On("UpsertClient", ctx, mock.Anything).Return(errors.New("no primary")).Once()
	err := NewMongoRecorder(failing).Record(ctx, b)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "psid-2")
	failing.AssertNotCalled(t, "InsertHistory", mock.Anything, mock.Anything)
}

type recorderFunc func(ctx context.Context, b models.Booking) error

func (f recorderFunc) Record(ctx context.Context, b models.Booking) error { return f(ctx, b) }

func TestFanOut_ContinuesAfterFailure(t *testing.T) {
	errSheet := errors.New("quota exceeded")
	var reached bool
	fan := NewFanOut(
		Named{Name: "sheets", Recorder: recorderFunc(func(context.Context, models.Booking) error { return errSheet })},
		Named{Name: "mongo", Recorder: recorderFunc(func(context.Context, models.Booking) error {
			reached = true
			return nil
		})},
	)

	err := fan.Record(context.Background(), testBooking())
	assert.ErrorIs(t, err, errSheet)
	assert.True(t, reached)

	assert.NoError(t, NewFanOut().Record(context.Background(), testBooking()))
}
