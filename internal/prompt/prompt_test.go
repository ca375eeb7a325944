package prompt

import (
	"bytes"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shineum/mail-broadcast-lite/internal/config"
	"github.com/shineum/mail-broadcast-lite/internal/email"
)

func newPrompter(input string) (*Prompter, *bytes.Buffer) {
	var out bytes.Buffer
	return New(strings.NewReader(input), &out), &out
}

func TestAsk_Default(t *testing.T) {
	t.Parallel()

	p, out := newPrompter("\n  custom  \n")

	v, err := p.Ask("Name", "fallback")
	require.NoError(t, err)
	assert.Equal(t, "fallback", v)
	assert.Contains(t, out.String(), "Name [fallback]: ")

	v, err = p.Ask("Name", "fallback")
	require.NoError(t, err)
	assert.Equal(t, "custom", v)
}

func TestAsk_EOF(t *testing.T) {
	t.Parallel()

	p, _ := newPrompter("")
	_, err := p.Ask("Name", "")
	assert.ErrorIs(t, err, io.ErrUnexpectedEOF)
}

func TestConfirm(t *testing.T) {
	t.Parallel()

	p, _ := newPrompter("y\nYES\nn\nmaybe\n")
	want := []bool{true, true, false, false}
	for _, w := range want {
		got, err := p.Confirm("Continue?")
		require.NoError(t, err)
		assert.Equal(t, w, got)
	}
}

func TestReadBlock(t *testing.T) {
	t.Parallel()

	p, _ := newPrompter("Dear {name},\n\n  Welcome!\n END \nleftover\n")

	block, err := p.ReadBlock("Body")
	require.NoError(t, err)
	assert.Equal(t, "Dear {name},\n\n  Welcome!", block)

	next, err := p.Ask("Next", "")
	require.NoError(t, err)
	assert.Equal(t, "leftover", next)
}

func TestReadBlock_MissingEnd(t *testing.T) {
	t.Parallel()

	p, _ := newPrompter("line one\nline two\n")
	_, err := p.ReadBlock("Body")
	assert.ErrorIs(t, err, io.ErrUnexpectedEOF)
}

func TestAskNumbers_RepromptOnInvalid(t *testing.T) {
	t.Parallel()

	p, out := newPrompter("abc\n-1\n2.5\n0\nx\n\n")

	d, err := p.AskFloat("Delay", 1.0)
	require.NoError(t, err)
	assert.Equal(t, 2.5, d)
	assert.Equal(t, 2, strings.Count(out.String(), "non-negative number"))

	n, err := p.AskInt("Batch", 10)
	require.NoError(t, err)
	assert.Equal(t, 10, n)
	assert.Equal(t, 2, strings.Count(out.String(), "greater than zero"))
}

func TestSource(t *testing.T) {
	t.Parallel()

	p, _ := newPrompter("2\nmembers.xlsx\n")
	var in config.InputConfig
	require.NoError(t, p.Source(&in))
	assert.Equal(t, "excel", in.Format)
	assert.Equal(t, "members.xlsx", in.Path)

	p, _ = newPrompter("3\n")
	assert.Error(t, p.Source(&in))
}

func TestPreview(t *testing.T) {
	t.Parallel()

	list := []email.Recipient{
		{Name: "Alice", Email: "alice@example.com"},
		{Name: "Bob", Email: "bob@example.com"},
	}

	p, out := newPrompter("y\n")
	require.NoError(t, p.Preview(list, 5))
	assert.Contains(t, out.String(), "First 2 of 2 recipients")
	assert.Contains(t, out.String(), "alice@example.com")

	p, _ = newPrompter("n\n")
	assert.True(t, errors.Is(p.Preview(list, 1), ErrCancelled))
}

func TestMessage(t *testing.T) {
	t.Parallel()

	input := strings.Join([]string{
		"Panitia",
		"Undangan untuk {name}",
		"Halo {name},",
		"sampai jumpa.",
		"END",
		"y",
		"<p>Halo {name}</p>",
		"END",
		"",
		"5",
	}, "\n") + "\n"

	p, _ := newPrompter(input)
	cfg := &config.Config{
		Broadcast: config.BroadcastConfig{DelaySeconds: 1.5, BatchSize: 10},
	}

	require.NoError(t, p.Message(cfg))
	assert.Equal(t, "Panitia", cfg.Broadcast.FromName)
	assert.Equal(t, "Undangan untuk {name}", cfg.Message.Subject)
	assert.Equal(t, "Halo {name},\nsampai jumpa.", cfg.Message.Body)
	assert.Equal(t, "<p>Halo {name}</p>", cfg.Message.HTMLBody)
	assert.Equal(t, 1.5, cfg.Broadcast.DelaySeconds)
	assert.Equal(t, 5, cfg.Broadcast.BatchSize)
}

func TestMessage_DefaultSender(t *testing.T) {
	t.Parallel()

	input := strings.Join([]string{"", "Hi", "Body", "END", "n", "", ""}, "\n") + "\n"

	p, out := newPrompter(input)
	cfg := &config.Config{Broadcast: config.BroadcastConfig{DelaySeconds: 1, BatchSize: 10}}

	require.NoError(t, p.Message(cfg))
	assert.Equal(t, config.DefaultFromName, cfg.Broadcast.FromName)
	assert.Contains(t, out.String(), "Sender name ["+config.DefaultFromName+"]")
}

func TestOutput(t *testing.T) {
	t.Parallel()

	p, _ := newPrompter("y\n\n")
	path, err := p.Output("")
	require.NoError(t, err)
	assert.Equal(t, "broadcast_results.csv", path)

	p, _ = newPrompter("n\n")
	path, err = p.Output("x.csv")
	require.NoError(t, err)
	assert.Empty(t, path)
}
