package models

import "time"

// ConversationState is the booking-intent state of a conversation.
type ConversationState string

const (
	StateIdle                  ConversationState = "idle"
	StateAwaitingClarification ConversationState = "awaiting_clarification"
	StateAwaitingConfirmation  ConversationState = "awaiting_confirmation"
	StateCommitting            ConversationState = "committing"
	StateCommitted             ConversationState = "committed"
)

// Turn is one entry of a conversation transcript.
type Turn struct {
	Role    string `json:"role"` // "user" | "assistant"
	Content string `json:"content"`
}

const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Conversation is everything kept per Messenger user.
// Version is bumped on every successful write and drives compare-and-swap.
type Conversation struct {
	UserID           string            `json:"userId"`
	State            ConversationState `json:"state"`
	Turns            []Turn            `json:"turns"`
	Pending          *PendingBooking   `json:"pending,omitempty"`
	LastConfirmation string            `json:"lastConfirmation,omitempty"`
	// CommittingSince is when the pending booking was claimed for commit.
	// Zero outside StateCommitting.
	CommittingSince time.Time `json:"committingSince,omitempty"`
	Version         int64     `json:"version"`
	UpdatedAt       time.Time `json:"updatedAt"`
}

// NewConversation returns an empty idle conversation for userID.
func NewConversation(userID string) *Conversation {
	return &Conversation{UserID: userID, State: StateIdle}
}

// Clone returns a deep copy so callers can mutate it before a compare-and-swap.
func (c *Conversation) Clone() *Conversation {
	if c == nil {
		return nil
	}
	cp := *c
	cp.Turns = append([]Turn(nil), c.Turns...)
	if c.Pending != nil {
		p := *c.Pending
		cp.Pending = &p
	}
	return &cp
}

// AppendTurn adds a turn and keeps at most maxTurns entries.
func (c *Conversation) AppendTurn(role, content string, maxTurns int) {
	c.Turns = append(c.Turns, Turn{Role: role, Content: content})
	if maxTurns > 0 && len(c.Turns) > maxTurns {
		c.Turns = append([]Turn(nil), c.Turns[len(c.Turns)-maxTurns:]...)
	}
}
