// Package report summarizes broadcast results and exports them as tabular files.
package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/shineum/mail-broadcast-lite/internal/broadcast"
)

// Summary is the tally of one broadcast.
type Summary struct {
	Total   int
	Success int
	Failed  int
}

// Summarize counts results by status.
func Summarize(results []broadcast.Result) Summary {
	s := Summary{Total: len(results)}
	for _, r := range results {
		if r.OK() {
			s.Success++
		} else {
			s.Failed++
		}
	}
	return s
}

// SuccessRate returns the percentage of successful sends. ok is false when
// there are no results.
func (s Summary) SuccessRate() (rate float64, ok bool) {
	if s.Total == 0 {
		return 0, false
	}
	return float64(s.Success) / float64(s.Total) * 100, true
}

// FormatRate renders the success rate, or "N/A" for an empty broadcast.
func (s Summary) FormatRate() string {
	rate, ok := s.SuccessRate()
	if !ok {
		return "N/A"
	}
	return fmt.Sprintf("%.2f%%", rate)
}

// WriteSummary prints the tally block.
func WriteSummary(w io.Writer, s Summary) error {
	rule := strings.Repeat("=", 60)

	var b strings.Builder
	fmt.Fprintf(&b, "\n%s\n", rule)
	b.WriteString("BROADCAST SUMMARY\n")
	fmt.Fprintf(&b, "%s\n", rule)
	fmt.Fprintf(&b, "Total:        %d\n", s.Total)
	fmt.Fprintf(&b, "Success:      %d\n", s.Success)
	fmt.Fprintf(&b, "Failed:       %d\n", s.Failed)
	fmt.Fprintf(&b, "Success rate: %s\n", s.FormatRate())
	fmt.Fprintf(&b, "%s\n", rule)

	_, err := io.WriteString(w, b.String())
	return err
}
