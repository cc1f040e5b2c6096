package models

import "time"

// Document event types published for downstream consumers.
const (
	EventDocumentDecided  = "DocumentDecided"
	EventDocumentReplaced = "DocumentReplaced"
)

// DocumentEvent is the payload emitted after a successful document mutation.
// Delivery to members is handled by the notification module.
type DocumentEvent struct {
	Type       string         `json:"type"`
	DocumentID string         `json:"documentId"`
	OwnerID    string         `json:"ownerId"`
	AreaID     string         `json:"areaId,omitempty"`
	Kind       DocumentKind   `json:"kind"`
	Outcome    DocumentStatus `json:"outcome"`
	ActorID    string         `json:"actorId"`
	Version    int64          `json:"version"`
	OccurredAt time.Time      `json:"occurredAt"`
}
