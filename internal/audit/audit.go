// Package audit is the append-only log of before/after snapshots written by
// every mutating service call. Entries are never updated or deleted.
package audit

import (
	"github.com/frahmantamala/benefits-portal/internal/rowstore"
)

type EntityType string

const (
	EntityPayment     EntityType = "PAYMENT"
	EntityConfig      EntityType = "CONFIG"
	EntityReminderRun EntityType = "REMINDER_RUN"
	EntityCard        EntityType = "CARD"
	EntityPerson      EntityType = "PERSON"
	EntityAllocation  EntityType = "ALLOCATION"
	EntityLoad        EntityType = "LOAD"
)

type Action string

const (
	ActionCreate   Action = "CREATE"
	ActionUpdate   Action = "UPDATE"
	ActionDelete   Action = "DELETE"
	ActionMarkPaid Action = "MARK_PAID"
	ActionUpload   Action = "UPLOAD"
	ActionRun      Action = "RUN"
)

type Entry struct {
	ID         string     `json:"id"`
	EntityType EntityType `json:"entity_type"`
	EntityID   string     `json:"entity_id"`
	Action     Action     `json:"action"`
	Before     string     `json:"before,omitempty"`
	After      string     `json:"after,omitempty"`
	ActorEmail string     `json:"actor_email"`
	ActorRole  string     `json:"actor_role"`
	CreatedAt  string     `json:"created_at"`
	Metadata   string     `json:"metadata,omitempty"`
}

var Columns = []string{
	"id",
	"entity_type",
	"entity_id",
	"action",
	"before",
	"after",
	"actor_email",
	"actor_role",
	"created_at",
	"metadata",
}

func (e Entry) ToRecord() rowstore.Record {
	return rowstore.Record{
		"id":          e.ID,
		"entity_type": string(e.EntityType),
		"entity_id":   e.EntityID,
		"action":      string(e.Action),
		"before":      e.Before,
		"after":       e.After,
		"actor_email": e.ActorEmail,
		"actor_role":  e.ActorRole,
		"created_at":  e.CreatedAt,
		"metadata":    e.Metadata,
	}
}

func FromRecord(record rowstore.Record) Entry {
	return Entry{
		ID:         record.Get("id"),
		EntityType: EntityType(record.Get("entity_type")),
		EntityID:   record.Get("entity_id"),
		Action:     Action(record.Get("action")),
		Before:     record.Get("before"),
		After:      record.Get("after"),
		ActorEmail: record.Get("actor_email"),
		ActorRole:  record.Get("actor_role"),
		CreatedAt:  record.Get("created_at"),
		Metadata:   record.Get("metadata"),
	}
}
