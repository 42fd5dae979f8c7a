package model

import (
	"crypto/rand"
	"io"
	"time"

	"github.com/oklog/ulid/v2"
)

// Transcript is the ordered, append-only list of messages for one session.
// It is not safe for concurrent use; the owning session serializes access.
type Transcript struct {
	messages []Message
	entropy  io.Reader
	now      func() time.Time
}

func NewTranscript() *Transcript {
	return NewTranscriptWithClock(time.Now)
}

// NewTranscriptWithClock lets tests pin timestamps. IDs stay monotonic regardless of the clock.
func NewTranscriptWithClock(now func() time.Time) *Transcript {
	return &Transcript{
		messages: make([]Message, 0, 16),
		entropy:  ulid.Monotonic(rand.Reader, 0),
		now:      now,
	}
}

// Append stamps the message with a fresh ID and timestamp and adds it to the end.
// Language is only retained on assistant messages.
func (t *Transcript) Append(m Message) Message {
	ts := t.now()
	if n := len(t.messages); n > 0 && ts.Before(t.messages[n-1].Timestamp) {
		ts = t.messages[n-1].Timestamp
	}
	m.ID = ulid.MustNew(ulid.Timestamp(ts), t.entropy).String()
	m.Timestamp = ts
	if m.Role != RoleAssistant {
		m.Language = ""
	}
	if len(m.Sources) == 0 {
		m.Sources = nil
	} else {
		m.Sources = append([]Source(nil), m.Sources...)
	}
	if len(m.Metadata) == 0 {
		m.Metadata = nil
	} else {
		md := make(map[string]int64, len(m.Metadata))
		for k, v := range m.Metadata {
			md[k] = v
		}
		m.Metadata = md
	}
	t.messages = append(t.messages, m)
	return m
}

func (t *Transcript) Len() int { return len(t.messages) }

// Messages returns a copy so callers can't reorder or edit history.
func (t *Transcript) Messages() []Message {
	out := make([]Message, len(t.messages))
	copy(out, t.messages)
	return out
}

func (t *Transcript) Last() (Message, bool) {
	if len(t.messages) == 0 {
		return Message{}, false
	}
	return t.messages[len(t.messages)-1], true
}

