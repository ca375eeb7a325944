package main

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/shineum/mail-broadcast-lite/internal/config"
	"github.com/shineum/mail-broadcast-lite/internal/provider/httpapi"
	"github.com/shineum/mail-broadcast-lite/internal/provider/resend"
	"github.com/shineum/mail-broadcast-lite/internal/provider/stdout"
)

func TestSelectProvider_AutoDetect(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		cfg  config.Config
		want string
	}{
		{
			name: "api wins",
			cfg: config.Config{
				API:    config.APIConfig{URL: "http://api.example.com", APIKey: "k"},
				Resend: config.ResendConfig{APIKey: "re_x", Sender: "a@example.com"},
			},
			want: "httpapi",
		},
		{
			name: "resend",
			cfg:  config.Config{Resend: config.ResendConfig{APIKey: "re_x", Sender: "a@example.com"}},
			want: "resend",
		},
		{
			name: "nothing configured",
			want: "stdout",
		},
		{
			name: "explicit stdout",
			cfg: config.Config{
				Provider: "stdout",
				API:      config.APIConfig{URL: "http://api.example.com", APIKey: "k"},
			},
			want: "stdout",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			cfg := tt.cfg
			p := selectProvider(context.Background(), &cfg)
			if p.Name() != tt.want {
				t.Errorf("provider: got %q, want %q", p.Name(), tt.want)
			}
			switch tt.want {
			case "httpapi":
				if _, ok := p.(*httpapi.Provider); !ok {
					t.Errorf("expected *httpapi.Provider, got %T", p)
				}
			case "resend":
				if _, ok := p.(*resend.Provider); !ok {
					t.Errorf("expected *resend.Provider, got %T", p)
				}
			case "stdout":
				if _, ok := p.(*stdout.Provider); !ok {
					t.Errorf("expected *stdout.Provider, got %T", p)
				}
			}
		})
	}
}

func TestBuildTemplate_FromConfig(t *testing.T) {
	t.Parallel()

	cfg := &config.Config{
		Message:   config.MessageConfig{Subject: "Hi {name}", Body: "Hello", Cc: "a@example.com"},
		Broadcast: config.BroadcastConfig{FromName: "Team"},
	}

	tmpl, err := buildTemplate(cfg)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if tmpl.Subject != "Hi {name}" {
		t.Errorf("subject: got %q, want %q", tmpl.Subject, "Hi {name}")
	}
	if tmpl.FromName != "Team" {
		t.Errorf("from name: got %q, want %q", tmpl.FromName, "Team")
	}
	if tmpl.Cc != "a@example.com" {
		t.Errorf("cc: got %q, want %q", tmpl.Cc, "a@example.com")
	}
}

func TestBuildTemplate_Empty(t *testing.T) {
	t.Parallel()

	if _, err := buildTemplate(&config.Config{}); err == nil {
		t.Fatal("expected error for empty message")
	}
}

func TestBuildTemplate_TemplateFileFillsGaps(t *testing.T) {
	t.Parallel()

	raw := "From: Newsletter <news@example.com>\r\n" +
		"Subject: From file\r\n" +
		"Content-Type: text/plain; charset=utf-8\r\n" +
		"\r\n" +
		"Body from file {name}\r\n"
	path := filepath.Join(t.TempDir(), "welcome.eml")
	if err := os.WriteFile(path, []byte(raw), 0o644); err != nil {
		t.Fatalf("write template: %v", err)
	}

	cfg := &config.Config{
		Message: config.MessageConfig{Subject: "From config", TemplateFile: path},
	}

	tmpl, err := buildTemplate(cfg)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if tmpl.Subject != "From config" {
		t.Errorf("subject: got %q, want %q", tmpl.Subject, "From config")
	}
	if got := strings.TrimSpace(tmpl.Body); got != "Body from file {name}" {
		t.Errorf("body: got %q, want %q", got, "Body from file {name}")
	}
	if tmpl.FromName != "Newsletter" {
		t.Errorf("from name: got %q, want %q", tmpl.FromName, "Newsletter")
	}
}

func TestBuildTemplate_ConfiguredSenderBeatsTemplateFile(t *testing.T) {
	t.Parallel()

	path := writeTemplate(t, "From: Newsletter <news@example.com>\r\n"+
		"Subject: From file\r\n"+
		"\r\n"+
		"Hello {name}\r\n")

	cfg := &config.Config{
		Message:   config.MessageConfig{TemplateFile: path},
		Broadcast: config.BroadcastConfig{FromName: "Acme Explicit"},
	}

	tmpl, err := buildTemplate(cfg)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if tmpl.FromName != "Acme Explicit" {
		t.Errorf("from name: got %q, want %q", tmpl.FromName, "Acme Explicit")
	}
	if tmpl.Subject != "From file" {
		t.Errorf("subject: got %q, want %q", tmpl.Subject, "From file")
	}
}

func TestBuildTemplate_DefaultSender(t *testing.T) {
	t.Parallel()

	path := writeTemplate(t, "From: news@example.com\r\n"+
		"Subject: No display name\r\n"+
		"\r\n"+
		"Hello\r\n")

	tmpl, err := buildTemplate(&config.Config{Message: config.MessageConfig{TemplateFile: path}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if tmpl.FromName != config.DefaultFromName {
		t.Errorf("from name: got %q, want %q", tmpl.FromName, config.DefaultFromName)
	}
}

func writeTemplate(t *testing.T, raw string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "template.eml")
	if err := os.WriteFile(path, []byte(raw), 0o644); err != nil {
		t.Fatalf("write template: %v", err)
	}
	return path
}

func TestBuildTemplate_MissingTemplateFile(t *testing.T) {
	t.Parallel()

	cfg := &config.Config{
		Message: config.MessageConfig{Subject: "x", TemplateFile: filepath.Join(t.TempDir(), "missing.eml")},
	}
	if _, err := buildTemplate(cfg); err == nil {
		t.Fatal("expected error for missing template file")
	}
}
