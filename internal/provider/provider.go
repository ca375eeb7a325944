// Package provider defines the interface for email delivery backends.
package provider

import (
	"context"
	"fmt"

	"github.com/shineum/mail-broadcast-lite/internal/email"
)

// Provider is the interface that email delivery backends must implement.
// Each provider handles the actual sending of one personalized message
// to the target service (e.g., an HTTP endpoint, AWS SES, Resend, stdout).
type Provider interface {
	// Send delivers an email message through this provider and returns
	// the provider-assigned message id, which may be empty.
	// It returns an error if the delivery fails.
	Send(ctx context.Context, msg *email.Email) (string, error)

	// Name returns the human-readable name of this provider.
	Name() string
}

// HealthChecker is implemented by providers that expose a status endpoint.
type HealthChecker interface {
	Health(ctx context.Context) (*Health, error)
}

// Health is the advisory status reported by a provider.
type Health struct {
	Version  string
	Services any
}

// SendError is returned when the remote service answered but refused the
// message. Message holds the provider's own explanation.
type SendError struct {
	StatusCode int
	Message    string
}

func (e *SendError) Error() string {
	if e.StatusCode == 0 {
		return e.Message
	}
	return fmt.Sprintf("HTTP %d: %s", e.StatusCode, e.Message)
}
