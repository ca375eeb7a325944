// Package resend implements a Provider that sends emails via the Resend API.
package resend

import (
	"context"
	"fmt"

	"github.com/resend/resend-go/v3"

	"github.com/shineum/mail-broadcast-lite/internal/email"
)

// Config holds Resend provider configuration.
type Config struct {
	APIKey string
	Sender string
}

// EmailsAPI is the subset of the Resend emails service used here.
type EmailsAPI interface {
	SendWithContext(ctx context.Context, params *resend.SendEmailRequest) (*resend.SendEmailResponse, error)
}

// Provider sends emails through Resend.
type Provider struct {
	sender string
	emails EmailsAPI
}

// New creates a new Resend provider.
func New(cfg Config) *Provider {
	return &Provider{
		sender: cfg.Sender,
		emails: resend.NewClient(cfg.APIKey).Emails,
	}
}

// NewWithClient creates a Provider with a custom emails client, used for testing.
func NewWithClient(sender string, emails EmailsAPI) *Provider {
	return &Provider{sender: sender, emails: emails}
}

// Send delivers msg and returns the Resend email id.
func (p *Provider) Send(ctx context.Context, msg *email.Email) (string, error) {
	from := p.sender
	if msg.FromName != "" {
		from = fmt.Sprintf("%s <%s>", msg.FromName, p.sender)
	}

	req := &resend.SendEmailRequest{
		From:    from,
		To:      msg.To,
		Subject: msg.Subject,
		Html:    msg.HtmlBody,
		Text:    msg.TextBody,
		Cc:      msg.Cc,
		Bcc:     msg.Bcc,
	}

	resp, err := p.emails.SendWithContext(ctx, req)
	if err != nil {
		return "", fmt.Errorf("resend: failed to send email: %w", err)
	}

	return resp.Id, nil
}

// Name returns the provider name.
func (p *Provider) Name() string {
	return "resend"
}
