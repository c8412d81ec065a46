package sms

import (
	"context"
)

// Message is a single text message.
type Message struct {
	// To is the recipient in E.164 form.
	To string
	// Body is the text content.
	Body string
}

// SMS abstracts an SMS provider.
type SMS interface {
	// Send delivers msg once. Implementations do not retry.
	Send(ctx context.Context, msg Message) error
}
