package usecase

import (
	"context"
	"errors"
	"fmt"

	"smart-study-buddy/internal/domain"
	"smart-study-buddy/internal/domain/model"
	"smart-study-buddy/internal/infra/logging"
	"smart-study-buddy/internal/infra/metrics"
)

// solveRequest is the solve endpoint contract.
type solveRequest struct {
	ImageBase64 string `json:"image_base64"`
}

// UploadJob is an accepted upload waiting to be encoded and solved.
type UploadJob struct {
	id   uint64
	file model.File
	s    *Session
}

func (j *UploadJob) File() model.File { return j.file }

// UploadOutcome always carries a renderable triple; Err is set when Result holds an error line.
type UploadOutcome struct {
	jobID  uint64
	Result model.SolveResult
	Err    error
}

// Upload validates the type before anything else. A rejected type returns
// ErrUnsupportedFormat and leaves the session untouched; so does a second upload
// while one is in flight (ErrUploadPending). Text submissions are not gated here.
func (s *Session) Upload(f model.File) (*UploadJob, error) {
	if err := s.encoder.Validate(f); err != nil {
		metrics.IncRejected("unsupported_format")
		s.log.Info().Str("file", f.Name).Str("mime", f.MIMEType).Msg("upload rejected")
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.uploading {
		metrics.IncRejected("upload_pending")
		return nil, domain.ErrUploadPending
	}

	// Optimistic feedback: images show inline right away, documents only by name.
	m := model.Message{Role: model.RoleUser, Content: "📎 " + f.Name}
	if !s.encoder.IsDocument(f.MIMEType) {
		m.Attachment = f.Attachment()
	}
	s.append(m)

	s.uploading = true
	s.seq++
	s.uploadInflight = s.seq

	s.log.Info().Uint64("upload", s.seq).Str("file", f.Name).Str("mime", f.MIMEType).Msg("upload accepted")
	return &UploadJob{id: s.seq, file: f, s: s}, nil
}

// Run reads, encodes and dispatches the file. Failures become an "Error: …" result.
func (j *UploadJob) Run(ctx context.Context) UploadOutcome {
	defer logging.TraceDuration(j.s.log, "UploadJob.Run")()

	res, err := j.solve(ctx)
	if err != nil {
		return j.Fail(err)
	}
	return UploadOutcome{jobID: j.id, Result: res}
}

// Fail builds a failed outcome for a job that never ran.
func (j *UploadJob) Fail(err error) UploadOutcome {
	return UploadOutcome{jobID: j.id, Result: model.SolveResult{Result: failureContent(err)}, Err: err}
}

func (j *UploadJob) solve(ctx context.Context) (model.SolveResult, error) {
	b64, err := j.s.encoder.Encode(j.file)
	if err != nil {
		return model.SolveResult{}, err
	}
	if err := ctx.Err(); err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return model.SolveResult{}, &domain.TimeoutError{Endpoint: j.s.endpoints.Solve, Err: err}
		}
		return model.SolveResult{}, &domain.NetworkError{Endpoint: j.s.endpoints.Solve, Err: err}
	}
	raw, err := j.s.dispatcher.Send(ctx, j.s.endpoints.Solve, solveRequest{ImageBase64: b64})
	if err != nil {
		return model.SolveResult{}, err
	}
	res, err := NormalizeSolve(raw.Body)
	if err != nil {
		return model.SolveResult{}, fmt.Errorf("solve %s: %w", j.file.Name, err)
	}
	return res, nil
}

// CompleteUpload appends one message for the job, clears the upload gate and
// hands the triple to the solve callback. Stale outcomes are ignored.
func (s *Session) CompleteUpload(o UploadOutcome) (model.Message, bool) {
	s.mu.Lock()
	if o.jobID == 0 || o.jobID != s.uploadInflight {
		s.mu.Unlock()
		s.log.Warn().Uint64("upload", o.jobID).Msg("stale upload outcome ignored")
		return model.Message{}, false
	}
	s.uploadInflight = 0
	s.uploading = false

	var m model.Message
	if o.Err != nil {
		metrics.IncUpload("error")
		s.log.Warn().Uint64("upload", o.jobID).Err(o.Err).Msg("upload failed")
		m = s.append(model.Message{Role: model.RoleError, Content: o.Result.Result})
	} else {
		metrics.IncUpload("ok")
		s.log.Info().Uint64("upload", o.jobID).Msg("upload solved")
		m = s.append(model.Message{Role: model.RoleAssistant, Content: o.Result.Text()})
	}
	cb := s.onSolve
	s.mu.Unlock()

	if cb != nil {
		cb(o.Result)
	}
	return m, true
}

// DispatchUpload is Run followed by CompleteUpload.
func (s *Session) DispatchUpload(ctx context.Context, job *UploadJob) model.Message {
	m, _ := s.CompleteUpload(job.Run(ctx))
	return m
}
