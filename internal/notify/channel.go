// Package notify formats compliance reports into channel-specific messages
// and delivers them best-effort to the configured channels.
package notify

import "context"

// Message is one notification. Subject is used by channels that support a
// title (SNS); Text is the full body.
type Message struct {
	Subject string
	Text    string
}

// Channel delivers a message to one notification target.
// Implementations must honour ctx cancellation; the dispatcher bounds every
// Send with its own timeout.
type Channel interface {
	// Name returns a short stable label used in logs and outcomes.
	Name() string

	// Send delivers msg. Any error is recorded by the dispatcher and never
	// escalated to the invocation result.
	Send(ctx context.Context, msg Message) error
}
