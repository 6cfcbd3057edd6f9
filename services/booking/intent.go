package booking

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"barberbot/models"
	"barberbot/services/availability"
	"barberbot/services/conversation"
	"barberbot/services/datetime"
	ai "barberbot/services/intelligence"
	"barberbot/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// transition is the outcome of evaluating a booking intent.
type transition struct {
	reply string
	// state is the next conversation state; "" keeps the current one.
	state   models.ConversationState
	pending *models.PendingBooking
}

// converse records the user turn, asks the language model, and acts on a
// booking intent if the reply carries one.
func (a *Assistant) converse(ctx context.Context, userID, text, lang string, now time.Time) (string, error) {
	logger := utils.GetLogger()
	pb := book(lang)

	abandoned := false
	conv, err := conversation.Update(ctx, a.Store, userID, func(conv *models.Conversation) error {
		abandoned = false
		if conv.State == models.StateCommitted {
			conv.State = models.StateIdle
			conv.LastConfirmation = ""
		}
		if a.commitStale(conv, now) {
			abandoned = true
			conv.State = models.StateIdle
			conv.Pending = nil
			conv.CommittingSince = time.Time{}
		}
		conv.AppendTurn(models.RoleUser, text, a.settings.MaxTurns)
		conv.UpdatedAt = now
		return nil
	})
	if err != nil {
		return pb.apology, newBookingError(CodeCollaboratorUnreachable, "conversation store", err)
	}
	if abandoned {
		logger.Warn("Abandoned stale commit", zap.String("userID", userID))
	}

	pctx, cancel := a.collaboratorContext(ctx)
	prompt, err := a.Prompts.Build(pctx)
	cancel()
	if err != nil {
		return pb.apology, newBookingError(CodeCollaboratorUnreachable, "schedule sheet", err)
	}

	mctx, cancel := a.collaboratorContext(ctx)
	reply, err := a.Model.Chat(mctx, prompt.System, conv.Turns)
	cancel()
	if err != nil {
		return pb.apology, newBookingError(CodeCollaboratorUnreachable, "language model", err)
	}

	intent, ok := ai.ExtractIntent(reply)
	if !ok {
		a.apply(ctx, userID, transition{reply: reply})
		return reply, nil
	}

	t, err := a.evaluate(ctx, intent.Request, prompt.Catalog, lang, now)
	if err != nil {
		if IsCode(err, CodeCollaboratorUnreachable) {
			return t.reply, err
		}
		logger.Warn("Booking intent not actionable",
			zap.String("userID", userID),
			zap.String("code", CodeOf(err)),
			zap.Error(err))
	}
	a.apply(ctx, userID, t)
	return t.reply, nil
}

// apply stores the assistant turn and the state transition. A live commit
// is never overwritten.
func (a *Assistant) apply(ctx context.Context, userID string, t transition) {
	_, err := conversation.Update(ctx, a.Store, userID, func(conv *models.Conversation) error {
		now := a.now()
		conv.AppendTurn(models.RoleAssistant, t.reply, a.settings.MaxTurns)
		conv.UpdatedAt = now
		if t.state == "" || (conv.State == models.StateCommitting && !a.commitStale(conv, now)) {
			return nil
		}
		conv.State = t.state
		conv.Pending = t.pending
		conv.CommittingSince = time.Time{}
		return nil
	})
	if err != nil {
		utils.GetLogger().Error("Failed to store conversation", zap.String("userID", userID), zap.Error(err))
	}
}

// evaluate validates a booking request: required fields, service, date and
// availability, in that order. The returned transition always carries the
// reply; a non-nil error tells which check failed.
func (a *Assistant) evaluate(ctx context.Context, req models.BookingRequest, catalog models.Catalog, lang string, now time.Time) (transition, error) {
	pb := book(lang)

	if missing := req.MissingFields(); len(missing) > 0 {
		return transition{reply: missingText(lang, missing)},
			newBookingError(CodeIncompleteIntent, "missing "+strings.Join(missing, ", "), nil)
	}

	svc, ok := matchService(catalog, req.Service)
	if !ok {
		return transition{reply: fmt.Sprintf(pb.unknownService, req.Service, ai.RenderCatalog(catalog))},
			newBookingError(CodeUnknownService, req.Service, nil)
	}

	moment, err := a.resolveMoment(req.DateTime, now)
	if err != nil {
		return transition{
				reply: fmt.Sprintf(pb.clarify, req.DateTime),
				state: models.StateAwaitingClarification,
			},
			newBookingError(CodeParseFailure, req.DateTime, err)
	}

	actx, cancel := a.collaboratorContext(ctx)
	verdict, err := a.Availability.Check(actx, req.Barber, moment, svc.Name)
	cancel()
	if err != nil {
		return transition{reply: pb.apology}, newBookingError(CodeCollaboratorUnreachable, "availability check", err)
	}
	if !verdict.Available {
		return transition{
				reply: unavailableText(lang, req.Barber, svc.Name, moment, verdict),
				state: models.StateIdle,
			},
			newBookingError(CodeUnavailable, verdict.Reason, nil)
	}

	pending := &models.PendingBooking{
		ID:              uuid.NewString(),
		Service:         svc.Name,
		Barber:          verdict.Window.Name,
		Start:           moment,
		DurationMinutes: svc.DurationMinutes,
		Notes:           req.Notes,
		CreatedAt:       now,
	}
	return transition{
		reply:   fmt.Sprintf(pb.confirmRequest, pending.Service, pending.Barber, FormatMoment(lang, moment)),
		state:   models.StateAwaitingConfirmation,
		pending: pending,
	}, nil
}

// resolveMoment applies the configured policy for phrases the resolver
// cannot read: ask again, or book tomorrow at the fallback hour.
func (a *Assistant) resolveMoment(text string, now time.Time) (time.Time, error) {
	res, err := a.Resolver.Resolve(text, now)
	if err == nil {
		return res.Moment.In(a.settings.Location), nil
	}
	if errors.Is(err, datetime.ErrUnresolvable) && a.settings.UnparsedDatePolicy == PolicyDefault {
		utils.GetLogger().Info("Unparsed date, using fallback hour",
			zap.String("datetime", text), zap.Int("hour", a.settings.FallbackHour))
		return datetime.TomorrowAt(now, a.settings.Location, a.settings.FallbackHour), nil
	}
	return time.Time{}, err
}

// matchService finds the catalog entry for name: exact (case-insensitive)
// first, then a single partial match. An empty catalog accepts any service.
func matchService(catalog models.Catalog, name string) (models.Service, bool) {
	key := strings.ToLower(strings.TrimSpace(name))
	if len(catalog) == 0 {
		return models.Service{Name: strings.TrimSpace(name), DurationMinutes: models.DefaultServiceDuration}, true
	}

	svc, ok := catalog[key]
	if !ok {
		matches := 0
		for k, candidate := range catalog {
			if strings.Contains(k, key) || strings.Contains(key, k) {
				svc = candidate
				matches++
			}
		}
		if matches != 1 {
			return models.Service{}, false
		}
	}
	if svc.DurationMinutes <= 0 {
		svc.DurationMinutes = models.DefaultServiceDuration
	}
	return svc, true
}

func unavailableText(lang, barber, service string, moment time.Time, v availability.Verdict) string {
	pb := book(lang)
	if v.Window == nil {
		return fmt.Sprintf(pb.unknownStaff, barber)
	}
	if v.Reason == availability.ReasonServiceRestricted {
		return fmt.Sprintf(pb.restricted, v.Window.Name, service)
	}
	hours := fmt.Sprintf(pb.workingHours, v.Window.Days, v.Window.StartTime, v.Window.EndTime)
	return fmt.Sprintf(pb.notWorking, v.Window.Name, FormatMoment(lang, moment), hours)
}
