package audit

import (
	"context"
	"log/slog"
	"sort"
	"strings"

	"github.com/frahmantamala/benefits-portal/internal/rowstore"
)

type Filters struct {
	EntityType string
	Action     string
	Actor      string
	From       string
	To         string
	Limit      int
	Offset     int
}

type Page struct {
	Entries []Entry `json:"entries"`
	Total   int     `json:"total"`
}

// Service is the admin read view over the log: linear scan, filter, sort by
// created_at descending, paginate.
type Service struct {
	store  rowstore.CachedStore
	logger *slog.Logger
}

func NewService(store rowstore.CachedStore, logger *slog.Logger) *Service {
	return &Service{store: store, logger: logger}
}

func (s *Service) List(ctx context.Context, filters Filters) (Page, error) {
	rows, err := s.store.GetRowsCached(ctx, rowstore.TableAuditLog)
	if err != nil {
		s.logger.Error("failed to read audit log", "error", err)
		return Page{}, err
	}

	// Reverse append order so same-timestamp entries stay newest first
	// under the stable sort.
	entries := make([]Entry, 0, len(rows))
	for i := len(rows) - 1; i >= 0; i-- {
		entry := FromRecord(rows[i])

		if filters.EntityType != "" && string(entry.EntityType) != filters.EntityType {
			continue
		}
		if filters.Action != "" && string(entry.Action) != filters.Action {
			continue
		}
		if filters.Actor != "" &&
			!strings.Contains(strings.ToLower(entry.ActorEmail), strings.ToLower(filters.Actor)) {
			continue
		}
		if filters.From != "" && entry.CreatedAt < filters.From {
			continue
		}
		if filters.To != "" && entry.CreatedAt > filters.To {
			continue
		}
		entries = append(entries, entry)
	}

	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].CreatedAt > entries[j].CreatedAt
	})

	total := len(entries)
	limit := filters.Limit
	if limit <= 0 {
		limit = 20
	}
	offset := filters.Offset
	if offset < 0 {
		offset = 0
	}

	if offset >= total {
		return Page{Entries: []Entry{}, Total: total}, nil
	}
	end := offset + limit
	if end > total {
		end = total
	}

	return Page{Entries: entries[offset:end], Total: total}, nil
}
