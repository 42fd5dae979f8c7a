package model

import (
	"fmt"
	"strings"
	"time"
)

// Role tags who authored a transcript entry. The set is closed: user, assistant, error.
type Role uint8

const (
	RoleUser Role = iota + 1
	RoleAssistant
	RoleError
)

func (r Role) String() string {
	switch r {
	case RoleUser:
		return "user"
	case RoleAssistant:
		return "assistant"
	case RoleError:
		return "error"
	default:
		return fmt.Sprintf("role(%d)", uint8(r))
	}
}

func (r Role) Valid() bool {
	switch r {
	case RoleUser, RoleAssistant, RoleError:
		return true
	}
	return false
}

func (r Role) MarshalText() ([]byte, error) {
	if !r.Valid() {
		return nil, fmt.Errorf("invalid role %d", uint8(r))
	}
	return []byte(r.String()), nil
}

func (r *Role) UnmarshalText(b []byte) error {
	switch strings.ToLower(string(b)) {
	case "user":
		*r = RoleUser
	case "assistant":
		*r = RoleAssistant
	case "error":
		*r = RoleError
	default:
		return fmt.Errorf("unknown role %q", string(b))
	}
	return nil
}

// Source is one supporting reference attached to an assistant answer.
type Source struct {
	Title      string `json:"title"`
	URL        string `json:"url"`
	SourceName string `json:"source,omitempty"`
	Kind       string `json:"type,omitempty"` // "web" | "news"
	Snippet    string `json:"snippet,omitempty"`
}

// Attachment describes a file the user uploaded; only name and type are kept.
type Attachment struct {
	Name     string `json:"name"`
	MIMEType string `json:"mime_type"`
}

// Message represents one transcript entry. It is never modified after being appended.
type Message struct {
	ID         string           `json:"id"`
	Role       Role             `json:"role"`
	Content    string           `json:"content"`
	Sources    []Source         `json:"sources,omitempty"`
	Language   string           `json:"language,omitempty"`
	Metadata   map[string]int64 `json:"metadata,omitempty"`
	Attachment *Attachment      `json:"attachment,omitempty"`
	Timestamp  time.Time        `json:"timestamp"`
}

// NormalizedAnswer is the canonical shape derived from any chat endpoint response.
type NormalizedAnswer struct {
	Content  string
	Sources  []Source
	Language string
	Metadata map[string]int64
}

// SolveResult is the triple returned by the solve endpoint. Failures carry "Error: ..." in Result.
type SolveResult struct {
	OCRText          string `json:"ocr_text"`
	ParsedExpression string `json:"parsed_expression"`
	Result           string `json:"result"`
}

// Text renders the triple as a single message body, skipping empty parts.
func (s SolveResult) Text() string {
	var b strings.Builder
	if s.OCRText != "" {
		b.WriteString("Recognized text: ")
		b.WriteString(s.OCRText)
		b.WriteString("\n")
	}
	if s.ParsedExpression != "" {
		b.WriteString("Expression: ")
		b.WriteString(s.ParsedExpression)
		b.WriteString("\n")
	}
	b.WriteString("Result: ")
	b.WriteString(s.Result)
	return b.String()
}

// Counter returns a metadata counter or zero.
func (m Message) Counter(name string) int64 {
	if m.Metadata == nil {
		return 0
	}
	return m.Metadata[name]
}
