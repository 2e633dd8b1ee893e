// Package notify delivers duty notices to substitute teachers.
package notify

import (
	"context"
	"net/mail"
)

// Message is a rendered email ready for delivery.
type Message struct {
	To      []mail.Address
	Subject string
	Text    string
	HTML    string
}

// HasRecipients reports whether the message has at least one address.
func (m Message) HasRecipients() bool { return len(m.To) > 0 }

// HasContent reports whether either body is set.
func (m Message) HasContent() bool { return m.Text != "" || m.HTML != "" }

// Sender delivers messages.
type Sender interface {
	Send(ctx context.Context, msg Message) error
}
