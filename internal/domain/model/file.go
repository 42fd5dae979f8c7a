package model

import "io"

// File is an upload candidate. Open is only called once the type has been accepted.
type File struct {
	Name     string
	MIMEType string
	Open     func() (io.ReadCloser, error)
}

func (f File) Attachment() *Attachment {
	return &Attachment{Name: f.Name, MIMEType: f.MIMEType}
}
