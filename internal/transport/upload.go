package transport

import (
	"io"
	"net/http"

	"github.com/frahmantamala/benefits-portal/internal"
	"github.com/frahmantamala/benefits-portal/internal/docstore"
)

const maxUploadBytes = 10 << 20

// ReadUpload extracts the multipart "file" field, capped at 10 MiB. Shared by
// the boleto, card photo and load receipt handlers.
func ReadUpload(r *http.Request) (docstore.UploadInput, *internal.AppError) {
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		return docstore.UploadInput{}, internal.NewValidationError("Arquivo e obrigatorio", internal.ErrCodeInvalidFile)
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		return docstore.UploadInput{}, internal.NewValidationError("Arquivo e obrigatorio", internal.ErrCodeInvalidFile)
	}
	defer file.Close()

	content, err := io.ReadAll(io.LimitReader(file, maxUploadBytes))
	if err != nil {
		return docstore.UploadInput{}, internal.NewValidationError("Arquivo invalido", internal.ErrCodeInvalidFile)
	}

	mimeType := header.Header.Get("Content-Type")
	if mimeType == "" {
		mimeType = "application/octet-stream"
	}
	return docstore.UploadInput{
		Bytes:    content,
		Filename: header.Filename,
		MimeType: mimeType,
	}, nil
}
