// Package encoder turns accepted uploads into base64 payloads for the solve endpoint.
package encoder

import (
	"encoding/base64"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strings"

	"smart-study-buddy/internal/domain"
	"smart-study-buddy/internal/domain/model"
	"smart-study-buddy/internal/domain/ports/adapter"
)

const (
	MIMEPNG  = "image/png"
	MIMEJPEG = "image/jpeg"
	MIMEPDF  = "application/pdf"
)

// allowed is the exact upload allow-list. Extensions play no part.
var allowed = map[string]struct{}{
	MIMEPNG:  {},
	MIMEJPEG: {},
	MIMEPDF:  {},
}

// Compile-time check
var _ adapter.FileEncoder = (*Encoder)(nil)

// Encoder is stateless; the zero value is ready to use.
type Encoder struct{}

func New() *Encoder { return &Encoder{} }

// Accepts reports whether the MIME type is on the allow-list. Parameters are ignored.
func Accepts(mimeType string) bool {
	_, ok := allowed[baseType(mimeType)]
	return ok
}

// IsDocument is true for types that are not shown inline as images.
func IsDocument(mimeType string) bool {
	return baseType(mimeType) == MIMEPDF
}

func (e *Encoder) IsDocument(mimeType string) bool { return IsDocument(mimeType) }

// Validate fails with ErrUnsupportedFormat for anything outside the allow-list.
func (e *Encoder) Validate(f model.File) error {
	if !Accepts(f.MIMEType) {
		return fmt.Errorf("%w: %q (accepted: PNG, JPG, PDF)", domain.ErrUnsupportedFormat, f.MIMEType)
	}
	return nil
}

// Encode validates the type, then reads the whole file and returns its standard base64 form.
func (e *Encoder) Encode(f model.File) (string, error) {
	if err := e.Validate(f); err != nil {
		return "", err
	}
	if f.Open == nil {
		return "", fmt.Errorf("%w: %s has no content", domain.ErrRead, f.Name)
	}
	rc, err := f.Open()
	if err != nil {
		return "", fmt.Errorf("%w: open %s: %v", domain.ErrRead, f.Name, err)
	}
	defer rc.Close()

	raw, err := io.ReadAll(rc)
	if err != nil {
		return "", fmt.Errorf("%w: read %s: %v", domain.ErrRead, f.Name, err)
	}
	return base64.StdEncoding.EncodeToString(raw), nil
}

// DetectMIME sniffs the content type from the first bytes of a file.
func DetectMIME(head []byte) string {
	return baseType(http.DetectContentType(head))
}

func baseType(mimeType string) string {
	mt, _, err := mime.ParseMediaType(mimeType)
	if err != nil {
		return strings.ToLower(strings.TrimSpace(mimeType))
	}
	return mt
}
