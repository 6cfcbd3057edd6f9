// Package booking drives the per-conversation booking protocol: ask the
// language model, validate the booking intent it emits, ask the user to
// confirm, and commit the booking to the calendar and the records.
package booking

import (
	"context"
	"strings"
	"sync"
	"time"

	"barberbot/models"
	"barberbot/services/availability"
	"barberbot/services/conversation"
	"barberbot/services/datetime"
	ai "barberbot/services/intelligence"
	"barberbot/utils"

	"go.uber.org/zap"
)

// DateResolver turns the free-text datetime of a booking request into a moment.
type DateResolver interface {
	Resolve(text string, now time.Time) (datetime.Resolution, error)
}

// AvailabilityChecker decides whether a barber can take a booking.
type AvailabilityChecker interface {
	Check(ctx context.Context, staffID string, moment time.Time, serviceID string) (availability.Verdict, error)
}

// PromptSource renders the system prompt together with the service catalog.
type PromptSource interface {
	Build(ctx context.Context) (ai.Prompt, error)
}

// Calendar creates the calendar event of a booking and returns its link.
type Calendar interface {
	CreateEvent(ctx context.Context, b models.Booking) (string, error)
}

// Recorder persists a committed booking.
type Recorder interface {
	Record(ctx context.Context, b models.Booking) error
}

// Messenger delivers replies and looks up display names.
type Messenger interface {
	SendMessage(ctx context.Context, userID, text string) error
	GetUserName(ctx context.Context, userID string) string
}

// Reminders schedules an appointment reminder.
type Reminders interface {
	Schedule(ctx context.Context, b models.Booking) error
}

// Unparsed date policies.
const (
	PolicyClarify = "clarify"
	PolicyDefault = "default"
)

type Settings struct {
	Location          *time.Location
	AffirmativeTokens []string
	// PendingTTL bounds how long a pending booking can wait for confirmation.
	PendingTTL time.Duration
	MaxTurns   int
	// UnparsedDatePolicy is PolicyClarify (ask again) or PolicyDefault
	// (book tomorrow at FallbackHour).
	UnparsedDatePolicy  string
	FallbackHour        int
	CollaboratorTimeout time.Duration
}

// Dependencies are the collaborators of an Assistant. Recorder, FunFacts and
// Reminders are optional.
type Dependencies struct {
	Store        conversation.Store
	Resolver     DateResolver
	Availability AvailabilityChecker
	Prompts      PromptSource
	Model        ai.ChatModel
	Calendar     Calendar
	Messenger    Messenger
	Recorder     Recorder
	FunFacts     ai.FunFacts
	Reminders    Reminders
}

type Assistant struct {
	Dependencies
	settings    Settings
	affirmative map[string]bool
	now         func() time.Time
	background  sync.WaitGroup
}

func NewAssistant(deps Dependencies, settings Settings) *Assistant {
	if settings.Location == nil {
		settings.Location = time.UTC
	}
	if settings.UnparsedDatePolicy == "" {
		settings.UnparsedDatePolicy = PolicyClarify
	}
	affirmative := make(map[string]bool, len(settings.AffirmativeTokens))
	for _, tok := range settings.AffirmativeTokens {
		if tok = normalizeToken(tok); tok != "" {
			affirmative[tok] = true
		}
	}
	return &Assistant{
		Dependencies: deps,
		settings:     settings,
		affirmative:  affirmative,
		now:          time.Now,
	}
}

func normalizeToken(s string) string {
	return strings.ToLower(strings.TrimSpace(strings.TrimRight(strings.TrimSpace(s), ".!")))
}

// IsAffirmative reports whether text is exactly one of the configured
// confirmation tokens, ignoring case, surrounding space and a trailing "." or "!".
func (a *Assistant) IsAffirmative(text string) bool {
	return a.affirmative[normalizeToken(text)]
}

// Wait blocks until background persistence started by commits has finished.
func (a *Assistant) Wait() {
	a.background.Wait()
}

func (a *Assistant) collaboratorContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if a.settings.CollaboratorTimeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, a.settings.CollaboratorTimeout)
}

func (a *Assistant) backgroundTimeout() time.Duration {
	if a.settings.CollaboratorTimeout <= 0 {
		return defaultBackgroundTimeout
	}
	return a.settings.CollaboratorTimeout
}

// storeContext keeps the values of ctx but not its deadline, for writes that
// must land after the request gave up, such as leaving StateCommitting.
func (a *Assistant) storeContext(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.WithoutCancel(ctx), a.backgroundTimeout())
}

// commitStale reports whether conv has been committing for longer than any
// live commit can take. Such a commit was lost and no longer owns the state.
func (a *Assistant) commitStale(conv *models.Conversation, now time.Time) bool {
	if conv.State != models.StateCommitting {
		return false
	}
	return now.Sub(conv.CommittingSince) > commitStages*a.backgroundTimeout()
}

// HandleMessage answers one inbound Messenger message. It never panics and
// never returns an error; failures are logged and the user gets an apology.
func (a *Assistant) HandleMessage(ctx context.Context, msg models.InboundMessage) {
	logger := utils.GetLogger()
	defer func() {
		if r := recover(); r != nil {
			logger.Error("Panic while handling message",
				zap.String("userID", msg.SenderID), zap.Any("panic", r))
		}
	}()

	reply, err := a.Respond(ctx, msg.SenderID, msg.Text)
	if err != nil {
		logger.Error("Message handling failed",
			zap.String("userID", msg.SenderID),
			zap.String("code", CodeOf(err)),
			zap.Error(err))
	}
	if reply == "" {
		return
	}

	sctx, cancel := a.collaboratorContext(ctx)
	defer cancel()
	if err := a.Messenger.SendMessage(sctx, msg.SenderID, reply); err != nil {
		logger.Error("Failed to deliver reply", zap.String("userID", msg.SenderID), zap.Error(err))
	}
}

// Respond computes the reply to text and performs any state transition it
// triggers. An empty reply means nothing should be sent. A non-nil error is a
// CommitFailure or CollaboratorUnreachable; the reply is then an apology.
func (a *Assistant) Respond(ctx context.Context, userID, text string) (string, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return "", nil
	}
	lang := DetectLanguage(text)
	now := a.now()

	if a.IsAffirmative(text) {
		if reply, handled, err := a.confirm(ctx, userID, text, lang, now); handled {
			return reply, err
		}
	}
	return a.converse(ctx, userID, text, lang, now)
}
