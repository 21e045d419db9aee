// Package mail provides outbound email delivery and the email audit log.
package mail

import "context"

// Message is a rendered outbound email.
type Message struct {
	To      string
	CC      string
	Subject string
	HTML    string
	Text    string
}

// Sender delivers a message. Delivery failure is reported as false, never as
// an error: callers decide whether a failed send is fatal, and every send is
// recorded in the email log either way.
type Sender interface {
	Send(ctx context.Context, msg Message) bool
}
