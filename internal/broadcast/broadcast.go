// Package broadcast sends one personalized message per recipient,
// sequentially, pausing after every batch.
package broadcast

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/shineum/mail-broadcast-lite/internal/email"
	"github.com/shineum/mail-broadcast-lite/internal/provider"
)

const (
	// DefaultBatchSize is the number of sends between pauses.
	DefaultBatchSize = 10

	// DefaultDelay is the pause inserted after each batch.
	DefaultDelay = time.Second

	successMessage = "Email sent successfully"
)

// Options controls pacing and personalization of a broadcast.
type Options struct {
	Delay       time.Duration
	BatchSize   int
	Placeholder string
}

func (o Options) withDefaults() Options {
	if o.BatchSize < 1 {
		o.BatchSize = DefaultBatchSize
	}
	if o.Delay < 0 {
		o.Delay = 0
	}
	if o.Placeholder == "" {
		o.Placeholder = email.DefaultPlaceholder
	}
	return o
}

// ProgressFunc is called after each send with the 1-based position, the
// total and the result just recorded.
type ProgressFunc func(done, total int, r Result)

// Broadcaster drives a provider through a recipient list. It holds no
// per-broadcast state and may be reused across runs.
type Broadcaster struct {
	provider provider.Provider
	progress ProgressFunc
	sleep    func(time.Duration)
	now      func() time.Time
}

// Option configures a Broadcaster.
type Option func(*Broadcaster)

// WithProgress registers a callback invoked after every send.
func WithProgress(fn ProgressFunc) Option {
	return func(b *Broadcaster) { b.progress = fn }
}

// WithSleep replaces the function used to pause between batches.
func WithSleep(fn func(time.Duration)) Option {
	return func(b *Broadcaster) { b.sleep = fn }
}

// WithClock replaces the time source used for result timestamps.
func WithClock(fn func() time.Time) Option {
	return func(b *Broadcaster) { b.now = fn }
}

// New creates a Broadcaster that delivers through p.
func New(p provider.Provider, opts ...Option) *Broadcaster {
	b := &Broadcaster{
		provider: p,
		sleep:    time.Sleep,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Run sends tmpl to every recipient in order and returns the session.
// Failures are recorded and never stop the loop. After every
// opts.BatchSize-th recipient, and only if more remain, Run blocks for
// opts.Delay.
func (b *Broadcaster) Run(ctx context.Context, recipients []email.Recipient, tmpl email.Template, opts Options) *Session {
	opts = opts.withDefaults()
	total := len(recipients)
	session := newSession(b.now(), total)

	slog.Info("starting broadcast",
		"session", session.ID,
		"provider", b.provider.Name(),
		"recipients", total,
		"batch_size", opts.BatchSize,
		"delay", opts.Delay,
	)

	for i, r := range recipients {
		result := b.send(ctx, r, tmpl, opts.Placeholder)
		session.record(result)

		done := i + 1
		if result.OK() {
			slog.Info("sent", "n", done, "total", total, "email", r.Email, "message_id", result.MessageID)
		} else {
			slog.Warn("send failed", "n", done, "total", total, "email", r.Email, "reason", result.Message)
		}
		if b.progress != nil {
			b.progress(done, total, result)
		}

		if done%opts.BatchSize == 0 && done < total {
			slog.Info("pausing for rate limiting", "delay", opts.Delay, "done", done)
			session.Pauses++
			b.sleep(opts.Delay)
		}
	}

	session.FinishedAt = b.now()
	slog.Info("broadcast finished",
		"session", session.ID,
		"sent", session.Sent,
		"failed", session.Failed,
		"duration", session.FinishedAt.Sub(session.StartedAt),
	)

	return session
}

// SendOne sends tmpl to a single recipient. Every outcome, including a
// panic inside the provider, is returned as a Result.
func (b *Broadcaster) SendOne(ctx context.Context, r email.Recipient, tmpl email.Template, placeholder string) Result {
	if placeholder == "" {
		placeholder = email.DefaultPlaceholder
	}
	return b.send(ctx, r, tmpl, placeholder)
}

func (b *Broadcaster) send(ctx context.Context, r email.Recipient, tmpl email.Template, placeholder string) (result Result) {
	defer func() {
		if rec := recover(); rec != nil {
			result = b.failed(r, fmt.Sprintf("Unexpected error: %v", rec))
		}
	}()

	msg := tmpl.Render(r, placeholder)

	id, err := b.provider.Send(ctx, msg)
	if err != nil {
		return b.failed(r, describe(err))
	}

	return Result{
		Status:    StatusSuccess,
		Email:     r.Email,
		Name:      r.Name,
		Message:   successMessage,
		MessageID: id,
		Timestamp: b.now(),
	}
}

func (b *Broadcaster) failed(r email.Recipient, message string) Result {
	return Result{
		Status:    StatusFailed,
		Email:     r.Email,
		Name:      r.Name,
		Message:   message,
		Timestamp: b.now(),
	}
}

// describe turns a provider error into the human-readable result message.
// Rejections keep the provider's own wording; anything else is a transport
// problem.
func describe(err error) string {
	var sendErr *provider.SendError
	if errors.As(err, &sendErr) {
		return sendErr.Message
	}
	return fmt.Sprintf("Request error: %v", err)
}
