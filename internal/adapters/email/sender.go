package email

import (
	"context"
	"time"
)

// Message is one outgoing email.
type Message struct {
	To      string
	From    string // falls back to the sender's default
	ReplyTo string
	Subject string
	HTML    string
	Tag     string // provider tag used to group sends, e.g. "visitor_welcome"
}

// Receipt is what the provider returned for an accepted message.
type Receipt struct {
	MessageID string
	SentAt    time.Time
}

// Sender delivers email through an external provider.
type Sender interface {
	Send(ctx context.Context, msg Message) (Receipt, error)
}
