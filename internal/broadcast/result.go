package broadcast

import (
	"time"

	"github.com/google/uuid"
)

// Status is the outcome of one send attempt.
type Status string

const (
	StatusSuccess Status = "success"
	StatusFailed  Status = "failed"
)

// Result records the outcome for one recipient. It is never modified after
// it is appended to a Session.
type Result struct {
	Status    Status
	Email     string
	Name      string
	Message   string
	MessageID string
	Timestamp time.Time
}

// OK reports whether the send succeeded.
func (r Result) OK() bool {
	return r.Status == StatusSuccess
}

// Session holds the state of one broadcast. A new Session is created by
// every call to Broadcaster.Run.
type Session struct {
	ID         uuid.UUID
	StartedAt  time.Time
	FinishedAt time.Time
	Sent       int
	Failed     int
	Results    []Result
	Pauses     int
}

func newSession(now time.Time, capacity int) *Session {
	return &Session{
		ID:        uuid.New(),
		StartedAt: now,
		Results:   make([]Result, 0, capacity),
	}
}

func (s *Session) record(r Result) {
	s.Results = append(s.Results, r)
	if r.OK() {
		s.Sent++
	} else {
		s.Failed++
	}
}
