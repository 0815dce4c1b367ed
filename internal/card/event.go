package card

import (
	"context"
	"encoding/json"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/frahmantamala/benefits-portal/internal/rowstore"
)

// Event types mirrored onto the per-card event stream.
const (
	EventCardCreated     = "CARD_CREATED"
	EventCardUpdated     = "CARD_UPDATED"
	EventAttachmentAdded = "ATTACHMENT_ADDED"
	EventAllocated       = "ALLOCATED"
	EventDeallocated     = "DEALLOCATED"
	EventLoadCreated     = "LOAD_CREATED"
)

// Attachment types.
const (
	AttachmentCardPhoto   = "CARD_PHOTO"
	AttachmentLoadReceipt = "LOAD_RECEIPT"
)

type Event struct {
	ID        string `json:"event_id"`
	CardID    string `json:"card_id"`
	Type      string `json:"event_type"`
	Date      string `json:"event_date"`
	Payload   string `json:"payload_json"`
	CreatedBy string `json:"created_by"`
}

var EventColumns = []string{
	"event_id",
	"card_id",
	"event_type",
	"event_date",
	"payload_json",
	"created_by",
}

func (e Event) ToRecord() rowstore.Record {
	return rowstore.Record{
		"event_id":     e.ID,
		"card_id":      e.CardID,
		"event_type":   e.Type,
		"event_date":   e.Date,
		"payload_json": e.Payload,
		"created_by":   e.CreatedBy,
	}
}

func EventFromRecord(record rowstore.Record) Event {
	return Event{
		ID:        record.Get("event_id"),
		CardID:    record.Get("card_id"),
		Type:      record.Get("event_type"),
		Date:      record.Get("event_date"),
		Payload:   record.Get("payload_json"),
		CreatedBy: record.Get("created_by"),
	}
}

type Attachment struct {
	ID        string `json:"attachment_id"`
	CardID    string `json:"card_id"`
	Type      string `json:"type"`
	URL       string `json:"url"`
	Notes     string `json:"notes,omitempty"`
	CreatedAt string `json:"created_at"`
	CreatedBy string `json:"created_by"`
}

var AttachmentColumns = []string{
	"attachment_id",
	"card_id",
	"type",
	"url",
	"notes",
	"created_at",
	"created_by",
}

func (a Attachment) ToRecord() rowstore.Record {
	return rowstore.Record{
		"attachment_id": a.ID,
		"card_id":       a.CardID,
		"type":          a.Type,
		"url":           a.URL,
		"notes":         a.Notes,
		"created_at":    a.CreatedAt,
		"created_by":    a.CreatedBy,
	}
}

// EventLog appends and reads the per-card event stream. The allocation and
// load services share it so every card mutation lands in one place.
type EventLog struct {
	store rowstore.CachedStore
}

func NewEventLog(store rowstore.CachedStore) *EventLog {
	return &EventLog{store: store}
}

// Append records one event. The payload is any JSON-marshalable value; the
// typed payload structs live next to the services that emit them.
func (l *EventLog) Append(ctx context.Context, cardID, eventType string, payload interface{}, createdBy string) error {
	encoded := ""
	if payload != nil {
		data, err := json.Marshal(payload)
		if err == nil {
			encoded = string(data)
		}
	}
	event := Event{
		ID:        uuid.NewString(),
		CardID:    cardID,
		Type:      eventType,
		Date:      time.Now().UTC().Format(time.RFC3339),
		Payload:   encoded,
		CreatedBy: createdBy,
	}
	return l.store.AppendRow(ctx, rowstore.TableEvents, event.ToRecord())
}

// ListByCard returns the card's timeline, newest first.
func (l *EventLog) ListByCard(ctx context.Context, cardID string) ([]Event, error) {
	rows, err := l.store.GetRowsCached(ctx, rowstore.TableEvents)
	if err != nil {
		return nil, err
	}

	// Walk rows in reverse append order so events stamped within the same
	// second still come out newest first under the stable sort.
	events := make([]Event, 0)
	for i := len(rows) - 1; i >= 0; i-- {
		event := EventFromRecord(rows[i])
		if event.CardID == cardID {
			events = append(events, event)
		}
	}
	sort.SliceStable(events, func(i, j int) bool {
		return events[i].Date > events[j].Date
	})
	return events, nil
}
