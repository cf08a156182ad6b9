// Package chat defines the transport-neutral message types exchanged between
// the Telegram adapter and the conversation core.
package chat

import (
	"context"
	"strings"
)

// HandlePlaceholder is rendered when a user has no public handle.
const HandlePlaceholder = "—"

// Identity describes the person on the other side of a conversation.
type Identity struct {
	ID          int64
	DisplayName string
	Username    string
}

// Handle returns "@username" or the placeholder when no username is set.
func (i Identity) Handle() string {
	u := strings.TrimPrefix(strings.TrimSpace(i.Username), "@")
	if u == "" {
		return HandlePlaceholder
	}
	return "@" + u
}

// Contact is the structured phone payload shared through the client's
// "share contact" button.
type Contact struct {
	Phone     string
	UserID    int64
	FirstName string
	LastName  string
}

// Text returns the textual representation of the contact, empty when the
// payload carries no phone number.
func (c *Contact) Text() string {
	if c == nil {
		return ""
	}
	return strings.TrimSpace(c.Phone)
}

// Inbound is one message received from a user.
type Inbound struct {
	ChatID  int64
	From    Identity
	Text    string
	Contact *Contact
}

// Button is an inline button; Key is the callback identifier.
type Button struct {
	Text string
	Key  string
}

// Reply is one outbound message. At most one of Keyboard, Inline or
// RemoveKeyboard is honoured by the transport, in that order.
type Reply struct {
	Text     string
	Keyboard [][]string
	// ContactButton, when set, is rendered as a request-contact button on
	// its own row above Keyboard.
	ContactButton  string
	Inline         []Button
	RemoveKeyboard bool
}

// HasKeyboard reports whether the reply carries any markup.
func (r Reply) HasKeyboard() bool {
	return len(r.Keyboard) > 0 || r.ContactButton != "" || len(r.Inline) > 0 || r.RemoveKeyboard
}

// Outbox delivers replies to the user currently being served.
type Outbox interface {
	Reply(ctx context.Context, r Reply) error
}

// OutboxFunc adapts a function to Outbox.
type OutboxFunc func(ctx context.Context, r Reply) error

// Reply calls f.
func (f OutboxFunc) Reply(ctx context.Context, r Reply) error {
	return f(ctx, r)
}
