// Package drive implements the document store on Google Drive.
package drive

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"strings"

	"golang.org/x/oauth2/google"
	"golang.org/x/oauth2/jwt"
	driveapi "google.golang.org/api/drive/v3"
	"google.golang.org/api/option"

	"github.com/frahmantamala/benefits-portal/internal"
	"github.com/frahmantamala/benefits-portal/internal/docstore"
)

const folderMimeType = "application/vnd.google-apps.folder"

type Store struct {
	svc          *driveapi.Service
	rootFolderID string
	logger       *slog.Logger
}

func New(ctx context.Context, cfg internal.DriveConfig, logger *slog.Logger) (*Store, error) {
	conf := &jwt.Config{
		Email:      cfg.ServiceAccountEmail,
		PrivateKey: []byte(cfg.PrivateKey),
		Scopes:     []string{driveapi.DriveScope},
		TokenURL:   google.JWTTokenURL,
	}

	svc, err := driveapi.NewService(ctx, option.WithHTTPClient(conf.Client(ctx)))
	if err != nil {
		return nil, internal.NewUpstreamError("Erro ao autenticar no Google Drive.", internal.ErrCodeDocStore, err)
	}

	return &Store{svc: svc, rootFolderID: cfg.RootFolderID, logger: logger}, nil
}

func (s *Store) Upload(ctx context.Context, input docstore.UploadInput) (docstore.File, error) {
	return s.upload(ctx, s.rootFolderID, input)
}

func (s *Store) UploadAt(ctx context.Context, path []string, input docstore.UploadInput) (docstore.File, error) {
	folderID, err := s.ensureFolderPath(ctx, path)
	if err != nil {
		return docstore.File{}, err
	}
	return s.upload(ctx, folderID, input)
}

func (s *Store) upload(ctx context.Context, folderID string, input docstore.UploadInput) (docstore.File, error) {
	mimeType := input.MimeType
	if mimeType == "" {
		mimeType = "application/octet-stream"
	}

	created, err := s.svc.Files.
		Create(&driveapi.File{Name: input.Filename, Parents: []string{folderID}}).
		Media(bytes.NewReader(input.Bytes)).
		SupportsAllDrives(true).
		Fields("id, webViewLink").
		Context(ctx).
		Do()
	if err != nil {
		return docstore.File{}, internal.NewUpstreamError("Erro ao enviar arquivo para o Drive.", internal.ErrCodeDocStore, err)
	}

	// Public read link is convenience, not a requirement; shared drives may
	// reject it.
	_, err = s.svc.Permissions.
		Create(created.Id, &driveapi.Permission{Role: "reader", Type: "anyone"}).
		SupportsAllDrives(true).
		Context(ctx).
		Do()
	if err != nil {
		s.logger.Warn("public permission not applied to uploaded file", "file_id", created.Id, "error", err)
	}

	return docstore.File{ID: created.Id, URL: created.WebViewLink}, nil
}

func (s *Store) ensureFolderPath(ctx context.Context, path []string) (string, error) {
	parent := s.rootFolderID
	for _, segment := range path {
		segment = strings.TrimSpace(segment)
		if segment == "" {
			continue
		}

		folderID, err := s.findFolder(ctx, parent, segment)
		if err != nil {
			return "", err
		}
		if folderID == "" {
			created, err := s.svc.Files.
				Create(&driveapi.File{Name: segment, MimeType: folderMimeType, Parents: []string{parent}}).
				SupportsAllDrives(true).
				Fields("id").
				Context(ctx).
				Do()
			if err != nil {
				return "", internal.NewUpstreamError("Erro ao criar pasta no Drive.", internal.ErrCodeDocStore, err)
			}
			folderID = created.Id
		}
		parent = folderID
	}
	return parent, nil
}

func (s *Store) findFolder(ctx context.Context, parentID, name string) (string, error) {
	query := fmt.Sprintf(
		"name = '%s' and '%s' in parents and mimeType = '%s' and trashed = false",
		strings.ReplaceAll(name, "'", "\\'"), parentID, folderMimeType)

	list, err := s.svc.Files.List().
		Q(query).
		SupportsAllDrives(true).
		IncludeItemsFromAllDrives(true).
		Fields("files(id)").
		Context(ctx).
		Do()
	if err != nil {
		return "", internal.NewUpstreamError("Erro ao consultar pastas no Drive.", internal.ErrCodeDocStore, err)
	}
	if len(list.Files) == 0 {
		return "", nil
	}
	return list.Files[0].Id, nil
}
