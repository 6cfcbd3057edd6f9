package models

// ChatMessage is a single message sent to the language model.
type ChatMessage struct {
	Role    string `json:"role"` // "system" | "user" | "assistant"
	Content string `json:"content"`
}

// CreateBookingAction is the action value that marks a booking payload.
const CreateBookingAction = "create_booking"
