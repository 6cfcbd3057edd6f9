package booking

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"barberbot/models"
	"barberbot/services/availability"
	"barberbot/services/conversation"
	"barberbot/services/datetime"
	ai "barberbot/services/intelligence"

	"github.com/stretchr/testify/require"
)

var errBoom = errors.New("boom")

func oslo(t *testing.T) *time.Location {
	t.Helper()
	loc, err := time.LoadLocation("Europe/Oslo")
	require.NoError(t, err)
	return loc
}

// Monday 10 November 2025, 09:00 in Oslo.
func referenceNow(t *testing.T) time.Time {
	return time.Date(2025, 11, 10, 9, 0, 0, 0, oslo(t))
}

var testCatalog = models.Catalog{
	"подстригване": {Name: "Подстригване", Price: "350", DurationMinutes: 30},
	"beard trim":   {Name: "Beard Trim", Price: "200", DurationMinutes: 20},
	"haircut":      {Name: "Haircut", Price: "350", DurationMinutes: 45},
}

var testWindows = []models.WorkingWindow{
	{Name: "Ivan Petrov", Days: "tue-sat", StartTime: "09:00", EndTime: "18:00", RestrictedServices: "beard trim"},
	{Name: "Maria", Days: "fri-mon", StartTime: "9:30", EndTime: "17:00"},
}

func intentReply(service, when, barber string) string {
	return fmt.Sprintf("Sure!\n{\"action\": \"create_booking\", \"service\": %q, \"datetime\": %q, \"barber\": %q}",
		service, when, barber)
}

// editableSchedule starts from testWindows and can be changed mid-test, the
// way the schedule sheet can be edited between a request and its confirmation.
type editableSchedule struct {
	mu      sync.Mutex
	windows []models.WorkingWindow
}

func newEditableSchedule() *editableSchedule {
	return &editableSchedule{windows: append([]models.WorkingWindow(nil), testWindows...)}
}

func (s *editableSchedule) WorkingWindows(context.Context) ([]models.WorkingWindow, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]models.WorkingWindow(nil), s.windows...), nil
}

func (s *editableSchedule) SetDays(name, days string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.windows {
		if s.windows[i].Name == name {
			s.windows[i].Days = days
		}
	}
}

// deadlineStore fails every call once ctx is done, like a network store would.
type deadlineStore struct {
	conversation.Store
}

func (s deadlineStore) Get(ctx context.Context, userID string) (*models.Conversation, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return s.Store.Get(ctx, userID)
}

func (s deadlineStore) CompareAndSwap(ctx context.Context, conv *models.Conversation) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.Store.CompareAndSwap(ctx, conv)
}

type fakePrompts struct {
	err error
}

func (f fakePrompts) Build(context.Context) (ai.Prompt, error) {
	if f.err != nil {
		return ai.Prompt{}, f.err
	}
	return ai.Prompt{System: "system prompt", Catalog: testCatalog, Staff: testWindows}, nil
}

// scriptedModel answers with replies in order and repeats the last one.
type scriptedModel struct {
	mu      sync.Mutex
	replies []string
	err     error
	calls   int
	seen    [][]models.Turn
}

func (m *scriptedModel) Chat(_ context.Context, _ string, turns []models.Turn) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	m.seen = append(m.seen, append([]models.Turn(nil), turns...))
	if m.err != nil {
		return "", m.err
	}
	if len(m.replies) == 0 {
		return "", ai.ErrEmptyReply
	}
	i := m.calls - 1
	if i >= len(m.replies) {
		i = len(m.replies) - 1
	}
	return m.replies[i], nil
}

func (m *scriptedModel) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

type countingResolver struct {
	mu    sync.Mutex
	inner DateResolver
	calls int
}

func (r *countingResolver) Resolve(text string, now time.Time) (datetime.Resolution, error) {
	r.mu.Lock()
	r.calls++
	r.mu.Unlock()
	return r.inner.Resolve(text, now)
}

func (r *countingResolver) Calls() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.calls
}

type noFallback struct{}

func (noFallback) Parse(string, time.Time, *time.Location) (time.Time, bool) {
	return time.Time{}, false
}

type fakeCalendar struct {
	mu     sync.Mutex
	events []models.Booking
	err    error
	delay  time.Duration
}

func (c *fakeCalendar) CreateEvent(_ context.Context, b models.Booking) (string, error) {
	if c.delay > 0 {
		time.Sleep(c.delay)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.err != nil {
		return "", c.err
	}
	c.events = append(c.events, b)
	return "https://calendar.example/event/" + b.ID, nil
}

func (c *fakeCalendar) Events() []models.Booking {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]models.Booking(nil), c.events...)
}

type sentMessage struct {
	userID string
	text   string
}

type fakeMessenger struct {
	mu   sync.Mutex
	sent []sentMessage
}

func (m *fakeMessenger) SendMessage(_ context.Context, userID, text string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, sentMessage{userID: userID, text: text})
	return nil
}

func (m *fakeMessenger) GetUserName(context.Context, string) string {
	return "Ana Ivanova"
}

func (m *fakeMessenger) Sent() []sentMessage {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]sentMessage(nil), m.sent...)
}

type fakeRecorder struct {
	mu       sync.Mutex
	bookings []models.Booking
	err      error
}

func (r *fakeRecorder) Record(_ context.Context, b models.Booking) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.bookings = append(r.bookings, b)
	return r.err
}

func (r *fakeRecorder) Bookings() []models.Booking {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]models.Booking(nil), r.bookings...)
}

type fakeReminders struct {
	mu        sync.Mutex
	scheduled []string
}

func (r *fakeReminders) Schedule(_ context.Context, b models.Booking) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.scheduled = append(r.scheduled, b.ID)
	return nil
}

type harness struct {
	assistant *Assistant
	store     *conversation.MemoryStore
	schedule  *editableSchedule
	model     *scriptedModel
	resolver  *countingResolver
	calendar  *fakeCalendar
	messenger *fakeMessenger
	recorder  *fakeRecorder
	reminders *fakeReminders
	clock     time.Time
}

func newHarness(t *testing.T, mutate func(*Settings), replies ...string) *harness {
	t.Helper()
	loc := oslo(t)
	h := &harness{
		store:     conversation.NewMemoryStore(time.Hour),
		schedule:  newEditableSchedule(),
		model:     &scriptedModel{replies: replies},
		resolver:  &countingResolver{inner: datetime.NewResolver(loc, datetime.WithFallback(noFallback{}))},
		calendar:  &fakeCalendar{},
		messenger: &fakeMessenger{},
		recorder:  &fakeRecorder{},
		reminders: &fakeReminders{},
		clock:     referenceNow(t),
	}
	settings := Settings{
		Location:            loc,
		AffirmativeTokens:   []string{"yes", "да", "ja", "ok", "confirm"},
		PendingTTL:          30 * time.Minute,
		MaxTurns:            20,
		UnparsedDatePolicy:  PolicyClarify,
		FallbackHour:        12,
		CollaboratorTimeout: time.Second,
	}
	if mutate != nil {
		mutate(&settings)
	}
	h.assistant = NewAssistant(Dependencies{
		Store:        h.store,
		Resolver:     h.resolver,
		Availability: availability.NewEvaluator(h.schedule, loc),
		Prompts:      fakePrompts{},
		Model:        h.model,
		Calendar:     h.calendar,
		Messenger:    h.messenger,
		Recorder:     h.recorder,
		FunFacts:     ai.NewStaticFunFacts("Beards grow faster than hair."),
		Reminders:    h.reminders,
	}, settings)
	h.assistant.now = func() time.Time { return h.clock }
	return h
}

func (h *harness) conversation(t *testing.T, userID string) *models.Conversation {
	t.Helper()
	conv, err := h.store.Get(context.Background(), userID)
	require.NoError(t, err)
	return conv
}
