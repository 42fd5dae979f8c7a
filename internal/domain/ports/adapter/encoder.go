package adapter

import "smart-study-buddy/internal/domain/model"

// FileEncoder turns an accepted upload into a transport-safe payload.
type FileEncoder interface {
	// Validate rejects types outside the allow-list without touching the file.
	Validate(f model.File) error
	Encode(f model.File) (string, error)
	// IsDocument reports types that are not previewed inline (PDF).
	IsDocument(mimeType string) bool
}
