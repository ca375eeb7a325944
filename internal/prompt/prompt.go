// Package prompt implements the interactive console flow that fills in a
// broadcast configuration. It only collects values; sending is done by the
// caller.
package prompt

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/shineum/mail-broadcast-lite/internal/config"
	"github.com/shineum/mail-broadcast-lite/internal/email"
	"github.com/shineum/mail-broadcast-lite/internal/recipient"
	"github.com/shineum/mail-broadcast-lite/internal/report"
)

// EndMarker terminates a multi-line block.
const EndMarker = "END"

// ErrCancelled is returned when the user declines to continue.
var ErrCancelled = errors.New("cancelled by user")

// Prompter reads answers line by line from in and writes questions to out.
type Prompter struct {
	in  *bufio.Scanner
	out io.Writer
}

// New creates a Prompter.
func New(in io.Reader, out io.Writer) *Prompter {
	s := bufio.NewScanner(in)
	s.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	return &Prompter{in: s, out: out}
}

func (p *Prompter) readLine() (string, error) {
	if !p.in.Scan() {
		if err := p.in.Err(); err != nil {
			return "", fmt.Errorf("failed to read input: %w", err)
		}
		return "", io.ErrUnexpectedEOF
	}
	return p.in.Text(), nil
}

// Ask prints question and returns the trimmed answer, or def when the
// answer is empty.
func (p *Prompter) Ask(question, def string) (string, error) {
	if def != "" {
		fmt.Fprintf(p.out, "%s [%s]: ", question, def)
	} else {
		fmt.Fprintf(p.out, "%s: ", question)
	}

	line, err := p.readLine()
	if err != nil {
		return "", err
	}
	if v := strings.TrimSpace(line); v != "" {
		return v, nil
	}
	return def, nil
}

// Confirm asks a yes/no question. Only "y" or "yes" count as yes.
func (p *Prompter) Confirm(question string) (bool, error) {
	answer, err := p.Ask(question+" (y/n)", "")
	if err != nil {
		return false, err
	}
	switch strings.ToLower(answer) {
	case "y", "yes":
		return true, nil
	default:
		return false, nil
	}
}

// ReadBlock reads lines until a line equal to EndMarker and joins them
// with newlines.
func (p *Prompter) ReadBlock(title string) (string, error) {
	fmt.Fprintf(p.out, "%s\n(Type '%s' on its own line to finish)\n", title, EndMarker)

	var lines []string
	for {
		line, err := p.readLine()
		if err != nil {
			return "", err
		}
		if strings.TrimSpace(line) == EndMarker {
			break
		}
		lines = append(lines, line)
	}
	return strings.Join(lines, "\n"), nil
}

// AskFloat asks until the answer parses as a non-negative number.
func (p *Prompter) AskFloat(question string, def float64) (float64, error) {
	for {
		answer, err := p.Ask(question, strconv.FormatFloat(def, 'f', -1, 64))
		if err != nil {
			return 0, err
		}
		v, err := strconv.ParseFloat(answer, 64)
		if err == nil && v >= 0 {
			return v, nil
		}
		fmt.Fprintf(p.out, "Please enter a non-negative number.\n")
	}
}

// AskInt asks until the answer parses as a positive integer.
func (p *Prompter) AskInt(question string, def int) (int, error) {
	for {
		answer, err := p.Ask(question, strconv.Itoa(def))
		if err != nil {
			return 0, err
		}
		v, err := strconv.Atoi(answer)
		if err == nil && v > 0 {
			return v, nil
		}
		fmt.Fprintf(p.out, "Please enter a whole number greater than zero.\n")
	}
}

// Source asks for the recipient file type and path.
func (p *Prompter) Source(in *config.InputConfig) error {
	fmt.Fprintln(p.out, "Recipient source:")
	fmt.Fprintln(p.out, "  1. CSV file")
	fmt.Fprintln(p.out, "  2. Excel file")

	choice, err := p.Ask("Choice (1/2)", "")
	if err != nil {
		return err
	}

	switch choice {
	case "1":
		in.Format = string(recipient.FormatCSV)
	case "2":
		in.Format = string(recipient.FormatExcel)
	default:
		return fmt.Errorf("invalid choice %q", choice)
	}

	path, err := p.Ask("File path", in.Path)
	if err != nil {
		return err
	}
	if path == "" {
		return errors.New("file path is required")
	}
	in.Path = path
	return nil
}

// Preview prints up to n recipients and asks whether to continue.
func (p *Prompter) Preview(list []email.Recipient, n int) error {
	if n > len(list) {
		n = len(list)
	}

	fmt.Fprintf(p.out, "\nFirst %d of %d recipients:\n", n, len(list))
	tw := tabwriter.NewWriter(p.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "#\tNAME\tEMAIL")
	for i, r := range list[:n] {
		fmt.Fprintf(tw, "%d\t%s\t%s\n", i+1, r.Name, r.Email)
	}
	tw.Flush()

	ok, err := p.Confirm("\nContinue with the broadcast?")
	if err != nil {
		return err
	}
	if !ok {
		return ErrCancelled
	}
	return nil
}

// Message asks for sender, subject, bodies and pacing.
func (p *Prompter) Message(cfg *config.Config) error {
	token := cfg.Broadcast.Placeholder
	if token == "" {
		token = email.DefaultPlaceholder
	}

	sender := cfg.Broadcast.FromName
	if sender == "" {
		sender = config.DefaultFromName
	}

	var err error
	if cfg.Broadcast.FromName, err = p.Ask("Sender name", sender); err != nil {
		return err
	}
	if cfg.Message.Subject, err = p.Ask(fmt.Sprintf("Subject (use %s to personalize)", token), cfg.Message.Subject); err != nil {
		return err
	}
	if cfg.Message.Body, err = p.ReadBlock(fmt.Sprintf("\nPlain text body (use %s to personalize)", token)); err != nil {
		return err
	}

	useHTML, err := p.Confirm("\nAdd an HTML body?")
	if err != nil {
		return err
	}
	if useHTML {
		if cfg.Message.HTMLBody, err = p.ReadBlock(fmt.Sprintf("\nHTML body (use %s to personalize)", token)); err != nil {
			return err
		}
	} else {
		cfg.Message.HTMLBody = ""
	}

	if cfg.Broadcast.DelaySeconds, err = p.AskFloat("\nDelay between batches in seconds", cfg.Broadcast.DelaySeconds); err != nil {
		return err
	}
	if cfg.Broadcast.BatchSize, err = p.AskInt("Batch size", cfg.Broadcast.BatchSize); err != nil {
		return err
	}
	return nil
}

// Unhealthy reports a failed health check and asks whether to go on anyway.
func (p *Prompter) Unhealthy(cause error) (bool, error) {
	fmt.Fprintf(p.out, "API health check failed: %v\n", cause)
	return p.Confirm("Continue anyway?")
}

// Output asks whether to save results and where. An empty path means the
// results should not be saved.
func (p *Prompter) Output(def string) (string, error) {
	save, err := p.Confirm("\nSave results to a file?")
	if err != nil || !save {
		return "", err
	}
	if def == "" {
		def = report.DefaultOutputPath
	}
	return p.Ask("Output file", def)
}
