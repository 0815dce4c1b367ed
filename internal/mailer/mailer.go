// Package mailer is the notification-sending collaborator used by the
// reminder engine.
package mailer

import "context"

type Message struct {
	To      []string
	Cc      []string
	Subject string
	Body    string
}

type Sender interface {
	Send(ctx context.Context, msg Message) error
}
