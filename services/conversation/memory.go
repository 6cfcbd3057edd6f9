package conversation

import (
	"context"
	"sync"
	"time"

	"barberbot/models"
	"barberbot/utils"

	"go.uber.org/zap"
)

type memoryEntry struct {
	conv    *models.Conversation
	touched time.Time
}

// MemoryStore is the in-process Store. Conversations are lost on restart.
type MemoryStore struct {
	mu      sync.Mutex
	entries map[string]memoryEntry
	ttl     time.Duration
	now     func() time.Time
}

// NewMemoryStore keeps idle conversations for ttl; zero keeps them forever.
func NewMemoryStore(ttl time.Duration) *MemoryStore {
	return &MemoryStore{
		entries: make(map[string]memoryEntry),
		ttl:     ttl,
		now:     time.Now,
	}
}

func (s *MemoryStore) expired(e memoryEntry, now time.Time) bool {
	return s.ttl > 0 && now.Sub(e.touched) > s.ttl
}

func (s *MemoryStore) Get(_ context.Context, userID string) (*models.Conversation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[userID]
	if !ok || s.expired(e, s.now()) {
		return models.NewConversation(userID), nil
	}
	return e.conv.Clone(), nil
}

func (s *MemoryStore) Put(_ context.Context, conv *models.Conversation) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	conv.Version++
	s.entries[conv.UserID] = memoryEntry{conv: conv.Clone(), touched: s.now()}
	return nil
}

func (s *MemoryStore) CompareAndSwap(_ context.Context, conv *models.Conversation) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	var stored int64
	if e, ok := s.entries[conv.UserID]; ok && !s.expired(e, now) {
		stored = e.conv.Version
	}
	if stored != conv.Version {
		return ErrConflict
	}
	conv.Version++
	s.entries[conv.UserID] = memoryEntry{conv: conv.Clone(), touched: now}
	return nil
}

func (s *MemoryStore) Clear(_ context.Context, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, userID)
	return nil
}

// Len returns the number of stored conversations, expired ones included.
func (s *MemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

// Sweep drops conversations idle for longer than the TTL.
func (s *MemoryStore) Sweep() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	removed := 0
	for id, e := range s.entries {
		if s.expired(e, now) {
			delete(s.entries, id)
			removed++
		}
	}
	return removed
}

// RunJanitor sweeps expired conversations every interval until ctx is done.
func (s *MemoryStore) RunJanitor(ctx context.Context, interval time.Duration) {
	if s.ttl <= 0 || interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	logger := utils.GetLogger()
	for {
		select {
		case <-ctx.Done():
			logger.Info("Conversation janitor stopped")
			return
		case <-ticker.C:
			if n := s.Sweep(); n > 0 {
				logger.Debug("Expired conversations removed", zap.Int("count", n))
			}
		}
	}
}
