// Package main is the entry point for the mail broadcaster.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/shineum/mail-broadcast-lite/internal/broadcast"
	"github.com/shineum/mail-broadcast-lite/internal/config"
	"github.com/shineum/mail-broadcast-lite/internal/email"
	"github.com/shineum/mail-broadcast-lite/internal/parser"
	"github.com/shineum/mail-broadcast-lite/internal/prompt"
	"github.com/shineum/mail-broadcast-lite/internal/provider"
	"github.com/shineum/mail-broadcast-lite/internal/provider/httpapi"
	"github.com/shineum/mail-broadcast-lite/internal/provider/resend"
	"github.com/shineum/mail-broadcast-lite/internal/provider/ses"
	"github.com/shineum/mail-broadcast-lite/internal/provider/stdout"
	"github.com/shineum/mail-broadcast-lite/internal/recipient"
	"github.com/shineum/mail-broadcast-lite/internal/report"
)

// previewSize is how many recipients the interactive flow shows.
const previewSize = 5

type flags struct {
	configPath  string
	envFile     string
	provider    string
	input       string
	format      string
	sheet       string
	output      string
	subject     string
	bodyFile    string
	htmlFile    string
	template    string
	fromName    string
	delay       float64
	batchSize   int
	dryRun      bool
	interactive bool
	skipHealth  bool
}

func parseFlags() *flags {
	f := &flags{}
	flag.StringVar(&f.configPath, "config", "", "path to YAML configuration file (optional)")
	flag.StringVar(&f.envFile, "env-file", "", "path to a .env file (default .env if present)")
	flag.StringVar(&f.provider, "provider", "", "delivery provider: httpapi, ses, resend or stdout")
	flag.StringVar(&f.input, "input", "", "recipient file (.csv or .xlsx)")
	flag.StringVar(&f.format, "format", "", "recipient file format: csv or excel (default from extension)")
	flag.StringVar(&f.sheet, "sheet", "", "Excel sheet name (default first sheet)")
	flag.StringVar(&f.output, "output", "", "export results to this file (.csv or .xlsx)")
	flag.StringVar(&f.subject, "subject", "", "message subject")
	flag.StringVar(&f.bodyFile, "body-file", "", "file holding the plain text body")
	flag.StringVar(&f.htmlFile, "html-file", "", "file holding the HTML body")
	flag.StringVar(&f.template, "template", "", "RFC 5322 .eml file used as message template")
	flag.StringVar(&f.fromName, "from-name", "", "sender display name")
	flag.Float64Var(&f.delay, "delay", 0, "seconds to pause after each batch")
	flag.IntVar(&f.batchSize, "batch-size", 0, "recipients per batch")
	flag.BoolVar(&f.dryRun, "dry-run", false, "print messages instead of sending them")
	flag.BoolVar(&f.interactive, "interactive", false, "collect settings through console prompts")
	flag.BoolVar(&f.skipHealth, "skip-health", false, "skip the API health check")
	flag.Parse()
	return f
}

func main() {
	f := parseFlags()

	if err := config.LoadEnvFile(f.envFile); err != nil {
		slog.Error("failed to load env file", "error", err)
		os.Exit(1)
	}

	// Load configuration
	cfg, err := loadConfig(f.configPath)
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}
	if err := applyFlags(cfg, f); err != nil {
		slog.Error("invalid flags", "error", err)
		os.Exit(1)
	}

	// Setup structured logging
	setupLogger(cfg.Logging.Level, cfg.Logging.Format)

	var p *prompt.Prompter
	if f.interactive {
		p = prompt.New(os.Stdin, os.Stdout)
	}

	ctx := context.Background()

	// Select email delivery provider
	prov := selectProvider(ctx, cfg)

	if !f.skipHealth {
		checkHealth(ctx, prov, p)
	}

	if p != nil {
		if err := p.Source(&cfg.Input); err != nil {
			slog.Error("invalid recipient source", "error", err)
			os.Exit(1)
		}
	}

	list, err := recipient.Load(cfg.Input.Path, recipient.Options{
		Format:      recipient.Format(cfg.Input.Format),
		Sheet:       cfg.Input.Sheet,
		NameColumn:  cfg.Input.NameColumn,
		EmailColumn: cfg.Input.EmailColumn,
	})
	if err != nil {
		slog.Error("failed to load recipients", "path", cfg.Input.Path, "error", err)
		os.Exit(1)
	}

	if p != nil {
		if err := p.Preview(list.Recipients, previewSize); err != nil {
			exitOnPrompt(err)
		}
		if err := p.Message(cfg); err != nil {
			exitOnPrompt(err)
		}
	}

	tmpl, err := buildTemplate(cfg)
	if err != nil {
		slog.Error("failed to build message", "error", err)
		os.Exit(1)
	}

	b := broadcast.New(prov, broadcast.WithProgress(printProgress))
	session := b.Run(ctx, list.Recipients, *tmpl, broadcast.Options{
		Delay:       cfg.Delay(),
		BatchSize:   cfg.Broadcast.BatchSize,
		Placeholder: cfg.Broadcast.Placeholder,
	})

	if err := report.WriteSummary(os.Stdout, report.Summarize(session.Results)); err != nil {
		slog.Error("failed to write summary", "error", err)
	}

	outputPath := cfg.Output.Path
	if p != nil {
		if outputPath, err = p.Output(outputPath); err != nil {
			exitOnPrompt(err)
		}
	}
	if outputPath != "" {
		if err := report.Export(outputPath, session.Results); err != nil {
			if errors.Is(err, report.ErrNoResults) {
				slog.Warn("nothing to export")
				return
			}
			slog.Error("failed to export results", "path", outputPath, "error", err)
			os.Exit(1)
		}
		slog.Info("results exported", "path", outputPath, "rows", len(session.Results))
	}
}

// loadConfig loads configuration from the specified path (YAML + env override)
// or from environment variables only if no path is given.
func loadConfig(path string) (*config.Config, error) {
	if path != "" {
		return config.LoadFromFile(path)
	}
	return config.Load()
}

// applyFlags lets explicitly set command-line flags override the configuration.
func applyFlags(cfg *config.Config, f *flags) error {
	var err error
	flag.Visit(func(fl *flag.Flag) {
		switch fl.Name {
		case "provider":
			cfg.Provider = f.provider
		case "input":
			cfg.Input.Path = f.input
		case "format":
			cfg.Input.Format = f.format
		case "sheet":
			cfg.Input.Sheet = f.sheet
		case "output":
			cfg.Output.Path = f.output
		case "subject":
			cfg.Message.Subject = f.subject
		case "template":
			cfg.Message.TemplateFile = f.template
		case "from-name":
			cfg.Broadcast.FromName = f.fromName
		case "delay":
			cfg.Broadcast.DelaySeconds = f.delay
		case "batch-size":
			cfg.Broadcast.BatchSize = f.batchSize
		case "body-file":
			cfg.Message.Body, err = readText(f.bodyFile, err)
		case "html-file":
			cfg.Message.HTMLBody, err = readText(f.htmlFile, err)
		}
	})
	if f.dryRun {
		cfg.Provider = "stdout"
	}
	return err
}

func readText(path string, prev error) (string, error) {
	if prev != nil {
		return "", prev
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// buildTemplate assembles the message template. Values from an .eml
// template file fill in whatever the configuration leaves empty, and the
// default sender name applies only when neither provides one.
func buildTemplate(cfg *config.Config) (*email.Template, error) {
	tmpl := &email.Template{
		Subject:  cfg.Message.Subject,
		Body:     cfg.Message.Body,
		HTMLBody: cfg.Message.HTMLBody,
		FromName: cfg.Broadcast.FromName,
		Cc:       cfg.Message.Cc,
		Bcc:      cfg.Message.Bcc,
	}

	if cfg.Message.TemplateFile != "" {
		raw, err := os.ReadFile(cfg.Message.TemplateFile)
		if err != nil {
			return nil, fmt.Errorf("failed to read template file: %w", err)
		}
		fromFile, err := parser.ParseTemplate(raw)
		if err != nil {
			return nil, err
		}
		mergeTemplate(tmpl, fromFile)
	}
	if tmpl.FromName == "" {
		tmpl.FromName = config.DefaultFromName
	}

	if tmpl.Subject == "" && tmpl.Body == "" && tmpl.HTMLBody == "" {
		return nil, errors.New("message has no subject and no body")
	}
	return tmpl, nil
}

func mergeTemplate(dst, src *email.Template) {
	fill := func(d *string, s string) {
		if *d == "" {
			*d = s
		}
	}
	fill(&dst.Subject, src.Subject)
	fill(&dst.Body, src.Body)
	fill(&dst.HTMLBody, src.HTMLBody)
	fill(&dst.Cc, src.Cc)
	fill(&dst.Bcc, src.Bcc)
	fill(&dst.FromName, src.FromName)
}

// checkHealth runs the provider's advisory health check if it has one.
// Only the interactive flow lets a failure stop the run.
func checkHealth(ctx context.Context, prov provider.Provider, p *prompt.Prompter) {
	hc, ok := prov.(provider.HealthChecker)
	if !ok {
		return
	}

	h, err := hc.Health(ctx)
	if err == nil {
		slog.Info("API healthy", "version", h.Version, "services", h.Services)
		return
	}

	if p == nil {
		slog.Warn("API health check failed, continuing", "error", err)
		return
	}

	proceed, perr := p.Unhealthy(err)
	if perr != nil {
		exitOnPrompt(perr)
	}
	if !proceed {
		exitOnPrompt(prompt.ErrCancelled)
	}
}

func printProgress(done, total int, r broadcast.Result) {
	if r.OK() {
		fmt.Fprintf(os.Stdout, "[%d/%d] %s (%s) ... OK\n", done, total, r.Name, r.Email)
		return
	}
	fmt.Fprintf(os.Stdout, "[%d/%d] %s (%s) ... FAILED: %s\n", done, total, r.Name, r.Email, r.Message)
}

func exitOnPrompt(err error) {
	if errors.Is(err, prompt.ErrCancelled) {
		fmt.Fprintln(os.Stdout, "Broadcast cancelled")
		os.Exit(0)
	}
	slog.Error("interactive input failed", "error", err)
	os.Exit(1)
}

// setupLogger configures the global slog logger with the requested output
// format and level. Logs go to stderr so progress output stays readable.
func setupLogger(level, format string) {
	var logLevel slog.Level

	switch level {
	case "debug":
		logLevel = slog.LevelDebug
	case "info":
		logLevel = slog.LevelInfo
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: logLevel}

	var handler slog.Handler
	if format == "text" {
		handler = slog.NewTextHandler(os.Stderr, opts)
	} else {
		handler = slog.NewJSONHandler(os.Stderr, opts)
	}
	slog.SetDefault(slog.New(handler))
}

// selectProvider chooses the email delivery backend based on configuration.
// If the PROVIDER env var is set, it takes precedence.
// Otherwise, it falls back to auto-detection (HTTP endpoint, SES, Resend,
// then stdout).
func selectProvider(ctx context.Context, cfg *config.Config) provider.Provider {
	switch cfg.Provider {
	case "httpapi":
		if !cfg.APIConfigured() {
			slog.Error("httpapi provider selected but API_URL and API_KEY are required")
			os.Exit(1)
		}
		return newHTTPAPI(cfg)

	case "ses":
		if !cfg.SESConfigured() {
			slog.Error("SES provider selected but SES_REGION and SES_SENDER are required")
			os.Exit(1)
		}
		return newSES(ctx, cfg)

	case "resend":
		if !cfg.ResendConfigured() {
			slog.Error("Resend provider selected but RESEND_API_KEY and RESEND_SENDER are required")
			os.Exit(1)
		}
		return newResend(cfg)

	case "stdout":
		slog.Info("using stdout provider (dry run)")
		return stdout.New()

	case "":
		// Auto-detection
		switch {
		case cfg.APIConfigured():
			return newHTTPAPI(cfg)
		case cfg.SESConfigured():
			return newSES(ctx, cfg)
		case cfg.ResendConfigured():
			return newResend(cfg)
		}
		slog.Warn("no provider configured, using stdout provider (dry run)")
		return stdout.New()

	default:
		slog.Error("unknown provider", "provider", cfg.Provider)
		os.Exit(1)
		return nil
	}
}

func newHTTPAPI(cfg *config.Config) provider.Provider {
	slog.Info("using HTTP API provider", "url", cfg.API.URL)
	return httpapi.New(httpapi.Config{
		URL:    cfg.API.URL,
		APIKey: cfg.API.APIKey,
	})
}

func newSES(ctx context.Context, cfg *config.Config) provider.Provider {
	slog.Info("using AWS SES provider",
		"region", cfg.SES.Region,
		"sender", cfg.SES.Sender,
	)
	p, err := ses.New(ctx, ses.SESProviderConfig{
		Region:          cfg.SES.Region,
		AccessKeyID:     cfg.SES.AccessKeyID,
		SecretAccessKey: cfg.SES.SecretAccessKey,
		Sender:          cfg.SES.Sender,
	})
	if err != nil {
		slog.Error("failed to create SES provider", "error", err)
		os.Exit(1)
	}
	return p
}

func newResend(cfg *config.Config) provider.Provider {
	slog.Info("using Resend provider", "sender", cfg.Resend.Sender)
	return resend.New(resend.Config{
		APIKey: cfg.Resend.APIKey,
		Sender: cfg.Resend.Sender,
	})
}
