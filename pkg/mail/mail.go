// Package mail abstracts the transactional email relay so services can be
// tested with fakes and the relay swapped without touching callers.
package mail

import "context"

// Message is one outbound email.
type Message struct {
	To      string
	Subject string
	HTML    string
}

// Sender delivers a single message. Implementations must be safe for
// concurrent use.
type Sender interface {
	Send(ctx context.Context, msg Message) error
}
