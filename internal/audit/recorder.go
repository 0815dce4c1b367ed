package audit

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/frahmantamala/benefits-portal/internal"
	"github.com/frahmantamala/benefits-portal/internal/rowstore"
)

// Change describes one mutation to record. Before and After are the typed
// entity values themselves; the recorder serializes them, so every entity
// snapshot shape is checked at compile time at the call site.
type Change struct {
	EntityType EntityType
	EntityID   string
	Action     Action
	Before     interface{}
	After      interface{}
	Actor      internal.Actor
	Metadata   interface{}
}

type Recorder struct {
	store  rowstore.CachedStore
	logger *slog.Logger
}

func NewRecorder(store rowstore.CachedStore, logger *slog.Logger) *Recorder {
	return &Recorder{store: store, logger: logger}
}

// Record appends one audit entry. Before is empty for CREATE.
func (r *Recorder) Record(ctx context.Context, change Change) error {
	entry := Entry{
		ID:         uuid.NewString(),
		EntityType: change.EntityType,
		EntityID:   change.EntityID,
		Action:     change.Action,
		Before:     marshalSnapshot(change.Before),
		After:      marshalSnapshot(change.After),
		ActorEmail: change.Actor.Email,
		ActorRole:  change.Actor.Role,
		CreatedAt:  time.Now().UTC().Format(time.RFC3339),
		Metadata:   marshalSnapshot(change.Metadata),
	}

	if err := r.store.AppendRow(ctx, rowstore.TableAuditLog, entry.ToRecord()); err != nil {
		r.logger.Error("failed to append audit entry",
			"entity_type", change.EntityType,
			"entity_id", change.EntityID,
			"action", change.Action,
			"error", err)
		return err
	}
	return nil
}

func marshalSnapshot(v interface{}) string {
	if v == nil {
		return ""
	}
	data, err := json.Marshal(v)
	if err != nil {
		return ""
	}
	return string(data)
}
