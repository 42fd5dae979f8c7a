package tui

import (
	"io"
	"mime"
	"os"
	"path/filepath"
	"strings"

	"smart-study-buddy/internal/domain/model"
	"smart-study-buddy/internal/infra/encoder"
)

// FileFromPath sniffs the type from the first bytes of the file and falls back
// to the extension only for unrecognized content. The returned File reopens the path when encoded.
func FileFromPath(path string) (model.File, error) {
	path = strings.Trim(strings.TrimSpace(path), `"'`)
	f, err := os.Open(path)
	if err != nil {
		return model.File{}, err
	}
	head := make([]byte, 512)
	n, err := io.ReadFull(f, head)
	_ = f.Close()
	if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
		return model.File{}, err
	}

	// The extension only names content the sniffer could not classify;
	// it never relabels a recognized type.
	mimeType := encoder.DetectMIME(head[:n])
	if mimeType == "application/octet-stream" {
		if byExt := mime.TypeByExtension(strings.ToLower(filepath.Ext(path))); byExt != "" {
			mimeType = byExt
		}
	}
	return model.File{
		Name:     filepath.Base(path),
		MIMEType: mimeType,
		Open:     func() (io.ReadCloser, error) { return os.Open(path) },
	}, nil
}
