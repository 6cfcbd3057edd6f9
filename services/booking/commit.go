package booking

import (
	"context"
	"fmt"
	"time"

	"barberbot/models"
	"barberbot/services/conversation"
	"barberbot/utils"

	"go.uber.org/zap"
)

const defaultBackgroundTimeout = 10 * time.Second

// commitStages bounds a live commit: four collaborator calls and the final
// store write, each within one collaborator timeout.
const commitStages = 5

type claimOutcome int

const (
	claimNone claimOutcome = iota
	claimTaken
	claimExpired
	claimRepeat
	claimInProgress
	claimStale
)

// confirm handles an affirmative message. handled is false when there is
// nothing to confirm and the message should go to the language model.
//
// The pending booking is claimed by moving the conversation to
// StateCommitting with compare-and-swap, so concurrent or duplicate
// deliveries of the same "yes" commit at most once.
func (a *Assistant) confirm(ctx context.Context, userID, text, lang string, now time.Time) (reply string, handled bool, err error) {
	logger := utils.GetLogger()
	pb := book(lang)
	maxTurns := a.settings.MaxTurns

	var (
		outcome claimOutcome
		pending models.PendingBooking
		last    string
	)
	_, err = conversation.Update(ctx, a.Store, userID, func(conv *models.Conversation) error {
		outcome, last = claimNone, ""
		switch {
		case conv.State == models.StateAwaitingConfirmation && conv.Pending != nil:
			conv.AppendTurn(models.RoleUser, text, maxTurns)
			conv.UpdatedAt = now
			if conv.Pending.Expired(now, a.settings.PendingTTL) {
				outcome = claimExpired
				conv.State = models.StateIdle
				conv.Pending = nil
				conv.AppendTurn(models.RoleAssistant, pb.expired, maxTurns)
				return nil
			}
			outcome = claimTaken
			pending = *conv.Pending
			conv.State = models.StateCommitting
			conv.CommittingSince = now
			return nil
		case a.commitStale(conv, now):
			outcome = claimStale
			conv.AppendTurn(models.RoleUser, text, maxTurns)
			conv.State = models.StateIdle
			conv.Pending = nil
			conv.CommittingSince = time.Time{}
			conv.AppendTurn(models.RoleAssistant, pb.expired, maxTurns)
			conv.UpdatedAt = now
			return nil
		case conv.State == models.StateCommitting:
			outcome = claimInProgress
		case conv.State == models.StateCommitted && conv.LastConfirmation != "":
			outcome = claimRepeat
			last = conv.LastConfirmation
		}
		return conversation.ErrAborted
	})
	if err != nil {
		return pb.apology, true, newBookingError(CodeCollaboratorUnreachable, "conversation store", err)
	}

	switch outcome {
	case claimTaken:
		reply, err := a.commit(ctx, userID, text, lang, pending)
		return reply, true, err
	case claimExpired:
		logger.Warn("Pending booking expired",
			zap.String("userID", userID), zap.Duration("ttl", a.settings.PendingTTL))
		return pb.expired, true, nil
	case claimRepeat:
		logger.Info("Repeated confirmation, booking already committed", zap.String("userID", userID))
		return last, true, nil
	case claimStale:
		logger.Warn("Abandoned stale commit", zap.String("userID", userID))
		return pb.expired, true, nil
	case claimInProgress:
		logger.Info("Confirmation ignored, commit in progress", zap.String("userID", userID))
		return "", true, nil
	}
	return "", false, nil
}

// commit creates the calendar event for a claimed pending booking. Records
// and reminders are written in the background and never block the reply.
//
// The availability is checked again first, since the schedule sheet may have
// changed while the booking waited for confirmation.
func (a *Assistant) commit(ctx context.Context, userID, userText, lang string, p models.PendingBooking) (string, error) {
	logger := utils.GetLogger()
	pb := book(lang)

	actx, cancel := a.collaboratorContext(ctx)
	verdict, err := a.Availability.Check(actx, p.Barber, p.Start, p.Service)
	cancel()
	if err != nil {
		a.abandonCommit(ctx, userID, p.ID, pb.apology)
		return pb.apology, newBookingError(CodeCollaboratorUnreachable, "availability re-check", err)
	}
	if !verdict.Available {
		reply := unavailableText(lang, p.Barber, p.Service, p.Start.In(a.settings.Location), verdict)
		a.abandonCommit(ctx, userID, p.ID, reply)
		return reply, newBookingError(CodeCommitFailure, "slot no longer available: "+verdict.Reason, nil)
	}

	nctx, cancel := a.collaboratorContext(ctx)
	clientName := a.Messenger.GetUserName(nctx, userID)
	cancel()

	b := models.Booking{
		ID:              p.ID,
		UserID:          userID,
		ClientName:      clientName,
		Service:         p.Service,
		Barber:          p.Barber,
		Start:           p.Start.In(a.settings.Location),
		DurationMinutes: p.DurationMinutes,
		Notes:           p.Notes,
		Language:        lang,
		CreatedAt:       a.now(),
	}

	cctx, cancel := a.collaboratorContext(ctx)
	link, err := a.Calendar.CreateEvent(cctx, b)
	cancel()
	if err != nil {
		a.abandonCommit(ctx, userID, p.ID, pb.commitFailed)
		return pb.commitFailed, newBookingError(CodeCommitFailure, "calendar event not created", err)
	}
	b.EventLink = link
	a.persist(b)

	reply := fmt.Sprintf(pb.confirmed, b.Service, b.Barber, FormatMoment(lang, b.Start))
	if a.FunFacts != nil {
		fctx, cancel := a.collaboratorContext(ctx)
		if fact := a.FunFacts.FunFact(fctx, userText); fact != "" {
			reply += fmt.Sprintf(pb.funFact, fact)
		}
		cancel()
	}

	sctx, cancel := a.storeContext(ctx)
	defer cancel()
	if _, err := conversation.Update(sctx, a.Store, userID, func(conv *models.Conversation) error {
		if conv.State != models.StateCommitting || conv.Pending == nil || conv.Pending.ID != p.ID {
			// A stale-commit reset already released the conversation.
			return conversation.ErrAborted
		}
		conv.State = models.StateCommitted
		conv.Pending = nil
		conv.CommittingSince = time.Time{}
		conv.Turns = nil
		conv.LastConfirmation = reply
		conv.UpdatedAt = a.now()
		return nil
	}); err != nil {
		// The event exists, so the user still gets the confirmation.
		logger.Error("Failed to store committed conversation",
			zap.String("userID", userID), zap.String("bookingID", b.ID), zap.Error(err))
	}

	logger.Info("Booking committed",
		zap.String("userID", userID),
		zap.String("bookingID", b.ID),
		zap.String("service", b.Service),
		zap.String("barber", b.Barber),
		zap.Time("start", b.Start),
		zap.String("eventLink", link))
	return reply, nil
}

// abandonCommit returns a conversation still committing pendingID to idle
// and records reply as the assistant turn.
func (a *Assistant) abandonCommit(ctx context.Context, userID, pendingID, reply string) {
	sctx, cancel := a.storeContext(ctx)
	defer cancel()
	if _, err := conversation.Update(sctx, a.Store, userID, func(conv *models.Conversation) error {
		if conv.State != models.StateCommitting || conv.Pending == nil || conv.Pending.ID != pendingID {
			return conversation.ErrAborted
		}
		conv.State = models.StateIdle
		conv.Pending = nil
		conv.CommittingSince = time.Time{}
		conv.AppendTurn(models.RoleAssistant, reply, a.settings.MaxTurns)
		conv.UpdatedAt = a.now()
		return nil
	}); err != nil {
		utils.GetLogger().Error("Failed to reset conversation after commit failure",
			zap.String("userID", userID), zap.Error(err))
	}
}

// persist writes the booking records and schedules the reminder without
// blocking the caller. Failures are logged and not retried.
func (a *Assistant) persist(b models.Booking) {
	if a.Recorder == nil && a.Reminders == nil {
		return
	}
	a.background.Add(1)
	go func() {
		defer a.background.Done()
		logger := utils.GetLogger()
		defer func() {
			if r := recover(); r != nil {
				logger.Error("Panic while persisting booking", zap.String("bookingID", b.ID), zap.Any("panic", r))
			}
		}()

		ctx, cancel := context.WithTimeout(context.Background(), a.backgroundTimeout())
		defer cancel()

		if a.Recorder != nil {
			if err := a.Recorder.Record(ctx, b); err != nil {
				logger.Warn("Failed to record booking", zap.String("bookingID", b.ID), zap.Error(err))
			}
		}
		if a.Reminders != nil {
			if err := a.Reminders.Schedule(ctx, b); err != nil {
				logger.Warn("Failed to schedule reminder", zap.String("bookingID", b.ID), zap.Error(err))
			}
		}
	}()
}
