// Package docstore abstracts the external document-storage collaborator used
// for boletos, card photos and load receipts.
package docstore

import "context"

type UploadInput struct {
	Bytes    []byte
	Filename string
	MimeType string
}

// File is the stored document reference kept on the owning row.
type File struct {
	ID  string
	URL string
}

type Store interface {
	// Upload stores a file under the configured root folder.
	Upload(ctx context.Context, input UploadInput) (File, error)
	// UploadAt stores a file under root/<path...>, creating folders as needed.
	UploadAt(ctx context.Context, path []string, input UploadInput) (File, error)
}
