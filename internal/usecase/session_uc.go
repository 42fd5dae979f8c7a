package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"smart-study-buddy/internal/domain"
	"smart-study-buddy/internal/domain/model"
	"smart-study-buddy/internal/domain/ports/adapter"
	"smart-study-buddy/internal/infra/logging"
	"smart-study-buddy/internal/infra/metrics"
)

// Compile-time check
var _ SessionUseCase = (*Session)(nil)

// SessionUseCase is what a presentation layer drives.
type SessionUseCase interface {
	ID() string
	SetDraft(text string)
	Draft() string
	Pending() bool
	Uploading() bool
	Transcript() []model.Message
	Snapshot() SessionState

	Submit() (*Exchange, error)
	Complete(c Completion) (model.Message, bool)
	Dispatch(ctx context.Context, ex *Exchange) model.Message

	Upload(f model.File) (*UploadJob, error)
	CompleteUpload(o UploadOutcome) (model.Message, bool)
	DispatchUpload(ctx context.Context, job *UploadJob) model.Message
}

// Endpoints are the injected destinations; nothing here reads global state.
type Endpoints struct {
	Chat  string
	Solve string
}

// SolveCallback receives the solve triple after every upload, success or not.
type SolveCallback func(res model.SolveResult)

type SessionOptions struct {
	ID        string // generated when empty
	Welcome   string
	Endpoints Endpoints
	OnSolve   SolveCallback
	Now       func() time.Time
	Dev       bool // log user text unredacted
}

// SessionState is a consistent copy of everything a renderer needs.
type SessionState struct {
	ID        string
	Messages  []model.Message
	Pending   bool
	Uploading bool
	Draft     string
}

// Session owns one transcript and its gates. All state changes happen under mu;
// network and file I/O run outside it in Exchange.Run and UploadJob.Run.
type Session struct {
	mu         sync.Mutex
	id         string
	transcript *model.Transcript
	draft      string

	pending        bool
	inflight       uint64 // current text exchange, 0 when idle
	uploading      bool
	uploadInflight uint64
	seq            uint64

	dispatcher adapter.Dispatcher
	encoder    adapter.FileEncoder
	endpoints  Endpoints
	onSolve    SolveCallback
	dev        bool
	log        *zerolog.Logger
}

func NewSession(dispatcher adapter.Dispatcher, enc adapter.FileEncoder, opts SessionOptions, log *zerolog.Logger) *Session {
	if opts.ID == "" {
		opts.ID = uuid.NewString()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if log == nil {
		log = logging.Nop()
	}
	l := log.With().Str("session_id", opts.ID).Logger()

	s := &Session{
		id:         opts.ID,
		transcript: model.NewTranscriptWithClock(opts.Now),
		dispatcher: dispatcher,
		encoder:    enc,
		endpoints:  opts.Endpoints,
		onSolve:    opts.OnSolve,
		dev:        opts.Dev,
		log:        &l,
	}
	if opts.Welcome != "" {
		s.append(model.Message{Role: model.RoleAssistant, Content: opts.Welcome})
	}
	return s
}

func (s *Session) ID() string { return s.id }

func (s *Session) SetDraft(text string) {
	s.mu.Lock()
	s.draft = text
	s.mu.Unlock()
}

func (s *Session) Draft() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.draft
}

func (s *Session) Pending() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pending
}

func (s *Session) Uploading() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.uploading
}

func (s *Session) Transcript() []model.Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.transcript.Messages()
}

func (s *Session) Snapshot() SessionState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return SessionState{
		ID:        s.id,
		Messages:  s.transcript.Messages(),
		Pending:   s.pending,
		Uploading: s.uploading,
		Draft:     s.draft,
	}
}

// activity reports the newest message time and whether anything is in flight.
func (s *Session) activity() (time.Time, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var last time.Time
	if m, ok := s.transcript.Last(); ok {
		last = m.Timestamp
	}
	return last, s.pending || s.uploading
}

// chatRequest is the chat endpoint contract.
type chatRequest struct {
	Prompt string `json:"prompt"`
}

// Exchange is an accepted text submission waiting for its answer.
type Exchange struct {
	id     uint64
	prompt string
	s      *Session
}

func (e *Exchange) Prompt() string { return e.prompt }

// Completion is the outcome of Exchange.Run, applied with Session.Complete.
type Completion struct {
	exchangeID uint64
	Answer     model.NormalizedAnswer
	Err        error
}

// Submit commits the draft. Empty input is a no-op (nil, nil). While a text
// exchange is in flight it returns ErrSubmissionPending and changes nothing.
func (s *Session) Submit() (*Exchange, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.pending {
		metrics.IncRejected("pending")
		s.log.Debug().Msg("submission rejected: request in flight")
		return nil, domain.ErrSubmissionPending
	}
	prompt := strings.TrimSpace(s.draft)
	if prompt == "" {
		return nil, nil
	}

	s.append(model.Message{Role: model.RoleUser, Content: prompt})
	s.draft = ""
	s.pending = true
	s.seq++
	s.inflight = s.seq

	s.log.Info().Uint64("exchange", s.seq).Str("prompt", logging.Redact(prompt, s.dev)).Msg("submission accepted")
	return &Exchange{id: s.seq, prompt: prompt, s: s}, nil
}

// Run performs the network call and normalization. It never touches session state.
func (e *Exchange) Run(ctx context.Context) Completion {
	defer logging.TraceDuration(e.s.log, "Exchange.Run")()

	raw, err := e.s.dispatcher.Send(ctx, e.s.endpoints.Chat, chatRequest{Prompt: e.prompt})
	if err != nil {
		return Completion{exchangeID: e.id, Err: err}
	}
	ans, err := NormalizeAnswer(raw.Body)
	if err != nil {
		return Completion{exchangeID: e.id, Err: err}
	}
	return Completion{exchangeID: e.id, Answer: ans}
}

// Fail builds a failed completion for an exchange that never ran.
func (e *Exchange) Fail(err error) Completion {
	return Completion{exchangeID: e.id, Err: err}
}

// Complete appends the single terminal message for an exchange and clears pending.
// A completion for an exchange that already finished is ignored.
func (s *Session) Complete(c Completion) (model.Message, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if c.exchangeID == 0 || c.exchangeID != s.inflight {
		s.log.Warn().Uint64("exchange", c.exchangeID).Msg("stale completion ignored")
		return model.Message{}, false
	}
	s.inflight = 0
	s.pending = false

	if c.Err != nil {
		s.log.Warn().Uint64("exchange", c.exchangeID).Err(c.Err).Msg("exchange failed")
		return s.append(model.Message{Role: model.RoleError, Content: failureContent(c.Err)}), true
	}
	s.log.Info().Uint64("exchange", c.exchangeID).Int("sources", len(c.Answer.Sources)).Msg("exchange answered")
	return s.append(model.Message{
		Role:     model.RoleAssistant,
		Content:  c.Answer.Content,
		Sources:  c.Answer.Sources,
		Language: c.Answer.Language,
		Metadata: c.Answer.Metadata,
	}), true
}

// Dispatch is Run followed by Complete, for callers already off the UI thread.
func (s *Session) Dispatch(ctx context.Context, ex *Exchange) model.Message {
	m, _ := s.Complete(ex.Run(ctx))
	return m
}

// append must be called with mu held (or before the session is shared).
func (s *Session) append(m model.Message) model.Message {
	out := s.transcript.Append(m)
	metrics.IncMessage(out.Role.String())
	return out
}

// failureContent renders a diagnostic for an error-role message.
func failureContent(err error) string {
	var (
		he *domain.HTTPError
		te *domain.TimeoutError
		ne *domain.NetworkError
		ue *domain.UpstreamError
	)
	switch {
	case errors.As(err, &he):
		return "Error: " + he.Error()
	case errors.As(err, &te):
		return "Error: the request timed out. The service may be busy, please try again."
	case errors.As(err, &ne):
		return fmt.Sprintf("Error: could not reach the service (%v).\nPlease check:\n• the API URL is correct\n• the service is deployed and running", ne.Err)
	case errors.As(err, &ue):
		return "Error: " + ue.Message
	case errors.Is(err, domain.ErrUnparsableResponse):
		return "Error: the service returned a response that could not be read (" + err.Error() + ")"
	default:
		return "Error: " + err.Error()
	}
}
