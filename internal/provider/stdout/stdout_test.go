package stdout

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/google/uuid"

	"github.com/shineum/mail-broadcast-lite/internal/email"
)

func TestSend_BasicEmail(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	p := NewWithWriter(&buf)

	msg := &email.Email{
		FromName: "Event Team",
		To:       []string{"alice@example.com"},
		Subject:  "Invitation for Alice",
		TextBody: "Dear Alice, you are invited.",
	}

	id, err := p.Send(context.Background(), msg)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := uuid.Parse(id); err != nil {
		t.Errorf("message id should be a uuid, got %q", id)
	}

	output := buf.String()

	if !strings.Contains(output, "From: Event Team") {
		t.Error("output missing From header")
	}
	if !strings.Contains(output, "To: alice@example.com") {
		t.Error("output missing To header")
	}
	if !strings.Contains(output, "Subject: Invitation for Alice") {
		t.Error("output missing Subject header")
	}
	if !strings.Contains(output, "Dear Alice, you are invited.") {
		t.Error("output missing body text")
	}
	if strings.Contains(output, "HTML body:") {
		t.Error("output should not contain HTML line when there is no HTML body")
	}
	if !strings.HasPrefix(output, "========================================\n") {
		t.Error("output should start with separator line")
	}
	if !strings.HasSuffix(output, "========================================\n") {
		t.Error("output should end with separator line")
	}
}

func TestSend_WithCcBcc(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	p := NewWithWriter(&buf)

	msg := &email.Email{
		To:       []string{"alice@example.com"},
		Cc:       []string{"carol@example.com"},
		Bcc:      []string{"audit@example.com", "log@example.com"},
		Subject:  "With CC",
		TextBody: "Hello",
	}

	if _, err := p.Send(context.Background(), msg); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	output := buf.String()
	if !strings.Contains(output, "Cc: carol@example.com") {
		t.Error("output missing Cc header")
	}
	if !strings.Contains(output, "Bcc: audit@example.com, log@example.com") {
		t.Error("output missing Bcc header")
	}
}

func TestSend_NoCc(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	p := NewWithWriter(&buf)

	msg := &email.Email{
		To:       []string{"recipient@example.com"},
		Subject:  "No CC",
		TextBody: "Body",
	}

	if _, err := p.Send(context.Background(), msg); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	output := buf.String()
	if strings.Contains(output, "Cc:") {
		t.Error("output should not contain Cc line when there are no Cc recipients")
	}
	if strings.Contains(output, "From:") {
		t.Error("output should not contain From line without a sender name")
	}
}

func TestSend_HTMLBodyFallback(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	p := NewWithWriter(&buf)

	msg := &email.Email{
		To:       []string{"recipient@example.com"},
		Subject:  "HTML Only",
		HtmlBody: "<p>HTML content</p>",
	}

	if _, err := p.Send(context.Background(), msg); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	output := buf.String()
	if !strings.Contains(output, "<p>HTML content</p>") {
		t.Error("output should display HTML body when text body is empty")
	}
}

func TestSend_TextAndHTML(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	p := NewWithWriter(&buf)

	msg := &email.Email{
		To:       []string{"recipient@example.com"},
		TextBody: "plain",
		HtmlBody: strings.Repeat("x", 2048),
	}

	if _, err := p.Send(context.Background(), msg); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !strings.Contains(buf.String(), "HTML body: 2.0 KB") {
		t.Errorf("output should summarize the HTML body size, got:\n%s", buf.String())
	}
}

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) { return 0, errors.New("closed pipe") }

func TestSend_WriteError(t *testing.T) {
	t.Parallel()

	p := NewWithWriter(failingWriter{})
	if _, err := p.Send(context.Background(), &email.Email{To: []string{"a@example.com"}}); err == nil {
		t.Fatal("expected write error, got nil")
	}
}

func TestName(t *testing.T) {
	t.Parallel()

	p := New()
	if p.Name() != "stdout" {
		t.Errorf("Name: got %q, want %q", p.Name(), "stdout")
	}
}

func TestFormatSize(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		bytes int
		want  string
	}{
		{name: "zero bytes", bytes: 0, want: "0 B"},
		{name: "small bytes", bytes: 512, want: "512 B"},
		{name: "kilobytes", bytes: 46080, want: "45.0 KB"},
		{name: "megabytes", bytes: 1258291, want: "1.2 MB"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := formatSize(tt.bytes)
			if got != tt.want {
				t.Errorf("formatSize(%d): got %q, want %q", tt.bytes, got, tt.want)
			}
		})
	}
}
