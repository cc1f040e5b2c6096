package models

import "time"

// DocumentKind enumerates the certificates a member may submit.
type DocumentKind string

const (
	DocumentKindBaptism      DocumentKind = "BAPTISM"
	DocumentKindConfirmation DocumentKind = "CONFIRMATION"
	DocumentKindMarriage     DocumentKind = "MARRIAGE"
	DocumentKindOther        DocumentKind = "OTHER"
)

// MandatoryKinds lists the singleton slots in the order progress reports them.
var MandatoryKinds = []DocumentKind{
	DocumentKindBaptism,
	DocumentKindConfirmation,
	DocumentKindMarriage,
}

// Valid reports whether k is a known kind.
func (k DocumentKind) Valid() bool {
	switch k {
	case DocumentKindBaptism, DocumentKindConfirmation, DocumentKindMarriage, DocumentKindOther:
		return true
	}
	return false
}

// IsSlot reports whether at most one active document of this kind may exist per member.
func (k DocumentKind) IsSlot() bool {
	return k.Valid() && k != DocumentKindOther
}

// DefaultTitle is the label shown for slot kinds that carry no explicit title.
func (k DocumentKind) DefaultTitle() string {
	switch k {
	case DocumentKindBaptism:
		return "Surat Baptis"
	case DocumentKindConfirmation:
		return "Surat Sidi"
	case DocumentKindMarriage:
		return "Surat Nikah"
	}
	return ""
}

// DocumentStatus captures verification states.
type DocumentStatus string

const (
	DocumentStatusPending  DocumentStatus = "PENDING"
	DocumentStatusApproved DocumentStatus = "APPROVED"
	DocumentStatusRejected DocumentStatus = "REJECTED"
)

// Valid reports whether s is a known status.
func (s DocumentStatus) Valid() bool {
	switch s {
	case DocumentStatusPending, DocumentStatusApproved, DocumentStatusRejected:
		return true
	}
	return false
}

// Document is a member-submitted certificate awaiting or holding a review decision.
type Document struct {
	ID          string         `db:"id" json:"id"`
	OwnerID     string         `db:"owner_id" json:"ownerId"`
	Kind        DocumentKind   `db:"kind" json:"kind"`
	Title       string         `db:"title" json:"title"`
	FileName    string         `db:"file_name" json:"fileName"`
	FileRef     string         `db:"file_ref" json:"fileRef"`
	MimeType    *string        `db:"mime_type" json:"mimeType,omitempty"`
	SizeBytes   *int64         `db:"size_bytes" json:"sizeBytes,omitempty"`
	Status      DocumentStatus `db:"status" json:"status"`
	ReviewNote  *string        `db:"review_note" json:"reviewNote,omitempty"`
	SubmittedAt time.Time      `db:"submitted_at" json:"submittedAt"`
	DecidedAt   *time.Time     `db:"decided_at" json:"decidedAt,omitempty"`
	DecidedBy   *string        `db:"decided_by" json:"decidedBy,omitempty"`
	Version     int64          `db:"version" json:"version"`
	UpdatedAt   time.Time      `db:"updated_at" json:"updatedAt"`
}

// Active reports whether the document occupies its slot.
func (d *Document) Active() bool {
	return d.Status == DocumentStatusPending || d.Status == DocumentStatusApproved
}

// DocumentFilter constrains listing queries. Scope is mandatory and is applied
// while building the query, never after rows are loaded.
type DocumentFilter struct {
	Scope    Scope
	Status   []DocumentStatus
	Kind     DocumentKind
	MemberID string
	Limit    int
	Offset   int
}

// DocumentReview is one entry of the append-only decision history.
type DocumentReview struct {
	ID         string         `db:"id" json:"id"`
	DocumentID string         `db:"document_id" json:"documentId"`
	Version    int64          `db:"version" json:"version"`
	Outcome    DocumentStatus `db:"outcome" json:"outcome"`
	Note       *string        `db:"note" json:"note,omitempty"`
	FileRef    string         `db:"file_ref" json:"fileRef"`
	DecidedBy  string         `db:"decided_by" json:"decidedBy"`
	DecidedAt  time.Time      `db:"decided_at" json:"decidedAt"`
}
