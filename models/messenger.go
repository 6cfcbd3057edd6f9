package models

// WebhookEvent is the Messenger webhook body.
type WebhookEvent struct {
	Object string         `json:"object"`
	Entry  []WebhookEntry `json:"entry"`
}

type WebhookEntry struct {
	ID        string           `json:"id"`
	Time      int64            `json:"time"`
	Messaging []MessagingEvent `json:"messaging"`
}

type MessagingEvent struct {
	Sender    MessengerUser     `json:"sender"`
	Recipient MessengerUser     `json:"recipient"`
	Timestamp int64             `json:"timestamp"`
	Message   *MessengerMessage `json:"message,omitempty"`
}

type MessengerUser struct {
	ID string `json:"id"`
}

type MessengerMessage struct {
	MID    string `json:"mid"`
	Text   string `json:"text"`
	IsEcho bool   `json:"is_echo,omitempty"`
}

// InboundMessage is a text message extracted from a webhook delivery.
type InboundMessage struct {
	SenderID  string
	MessageID string
	Text      string
}

// TextMessages flattens the webhook body into the text messages it carries.
func (e WebhookEvent) TextMessages() []InboundMessage {
	var out []InboundMessage
	for _, entry := range e.Entry {
		for _, ev := range entry.Messaging {
			if ev.Message == nil || ev.Message.IsEcho || ev.Message.Text == "" || ev.Sender.ID == "" {
				continue
			}
			out = append(out, InboundMessage{
				SenderID:  ev.Sender.ID,
				MessageID: ev.Message.MID,
				Text:      ev.Message.Text,
			})
		}
	}
	return out
}
