package docstore

import (
	"context"
	"fmt"
	"log/slog"
	"path"

	"github.com/google/uuid"
)

// Dev fakes document storage. Nothing is persisted; the returned URL points
// nowhere. Used when no Drive service account is configured.
type Dev struct {
	logger *slog.Logger
}

func NewDev(logger *slog.Logger) *Dev {
	return &Dev{logger: logger}
}

func (d *Dev) Upload(ctx context.Context, input UploadInput) (File, error) {
	return d.UploadAt(ctx, nil, input)
}

func (d *Dev) UploadAt(_ context.Context, folders []string, input UploadInput) (File, error) {
	id := uuid.NewString()
	d.logger.Info("DEV upload",
		"filename", input.Filename,
		"folder", path.Join(folders...),
		"bytes", len(input.Bytes))
	return File{
		ID:  id,
		URL: fmt.Sprintf("https://storage.invalid/%s/%s", id, input.Filename),
	}, nil
}
