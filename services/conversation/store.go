// Package conversation keeps the per-user conversation record (transcript,
// booking state and pending booking) behind a store with compare-and-swap.
package conversation

import (
	"context"
	"errors"
	"fmt"

	"barberbot/models"
)

// ErrConflict is returned by CompareAndSwap when the stored record changed
// since it was read.
var ErrConflict = errors.New("conversation: version conflict")

// ErrAborted can be returned from an Update callback to stop without writing.
var ErrAborted = errors.New("conversation: update aborted")

// Store persists conversations keyed by Messenger user id.
type Store interface {
	// Get returns the stored conversation, or a fresh idle one with Version 0.
	Get(ctx context.Context, userID string) (*models.Conversation, error)
	// Put writes conv unconditionally and bumps its Version.
	Put(ctx context.Context, conv *models.Conversation) error
	// CompareAndSwap writes conv only if the stored Version still equals
	// conv.Version, then bumps conv.Version. Otherwise it returns ErrConflict.
	CompareAndSwap(ctx context.Context, conv *models.Conversation) error
	// Clear deletes the conversation.
	Clear(ctx context.Context, userID string) error
}

const maxUpdateAttempts = 5

// Update applies fn to a fresh copy of the user's conversation and stores the
// result with compare-and-swap, retrying on conflicts. fn must not do I/O; it
// runs once per attempt. Returning ErrAborted from fn skips the write and
// returns the unmodified conversation with a nil error.
func Update(ctx context.Context, store Store, userID string, fn func(*models.Conversation) error) (*models.Conversation, error) {
	for attempt := 0; attempt < maxUpdateAttempts; attempt++ {
		current, err := store.Get(ctx, userID)
		if err != nil {
			return nil, fmt.Errorf("failed to load conversation: %w", err)
		}
		next := current.Clone()
		if err := fn(next); err != nil {
			if errors.Is(err, ErrAborted) {
				return current, nil
			}
			return nil, err
		}
		err = store.CompareAndSwap(ctx, next)
		if err == nil {
			return next, nil
		}
		if !errors.Is(err, ErrConflict) {
			return nil, fmt.Errorf("failed to store conversation: %w", err)
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}
	}
	return nil, fmt.Errorf("%w: gave up after %d attempts", ErrConflict, maxUpdateAttempts)
}
