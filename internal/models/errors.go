package models

import (
	"fmt"
	"time"
)

// ProviderError is a transport, auth, or unexpected service failure while
// listing a kind or looking up one resource's encryption configuration.
type ProviderError struct {
	Kind       ResourceType
	Op         string
	ResourceID string
	Err        error
}

func (e *ProviderError) Error() string {
	if e.ResourceID != "" {
		return fmt.Sprintf("%s %s %s: %v", e.Kind, e.Op, e.ResourceID, e.Err)
	}
	return fmt.Sprintf("%s %s: %v", e.Kind, e.Op, e.Err)
}

func (e *ProviderError) Unwrap() error { return e.Err }

// ScanError aborts the scan of one kind.
type ScanError struct {
	Kind ResourceType
	Err  error
}

func (e *ScanError) Error() string {
	return fmt.Sprintf("scan %s: %v", e.Kind, e.Err)
}

func (e *ScanError) Unwrap() error { return e.Err }

// ChannelError is a notification delivery failure. It is always caught and
// recorded, never escalated to the invocation result.
type ChannelError struct {
	Channel string
	Err     error
}

func (e *ChannelError) Error() string {
	return fmt.Sprintf("channel %s: %v", e.Channel, e.Err)
}

func (e *ChannelError) Unwrap() error { return e.Err }

// AuditError is the structured body returned when an invocation fails.
type AuditError struct {
	Message   string    `json:"error"`
	Timestamp time.Time `json:"timestamp"`
}

func (e *AuditError) Error() string { return e.Message }
