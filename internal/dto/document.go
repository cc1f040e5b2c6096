package dto

import "github.com/ShotGuy/gmit-betlehem-oesapa-barat-app-sub002/internal/models"

// CreateDocumentRequest is the upload payload. The file itself lives in the
// storage collaborator; only its reference is submitted here. MemberID is
// honoured for global reviewers uploading on a member's behalf.
type CreateDocumentRequest struct {
	Kind      models.DocumentKind `json:"kind" validate:"required,oneof=BAPTISM CONFIRMATION MARRIAGE OTHER"`
	Title     string              `json:"title" validate:"max=200"`
	FileName  string              `json:"fileName" validate:"required,max=255"`
	FileRef   string              `json:"fileRef" validate:"required,max=2048"`
	MimeType  string              `json:"mimeType" validate:"omitempty,max=127"`
	SizeBytes int64               `json:"sizeBytes" validate:"gte=0"`
	MemberID  string              `json:"memberId" validate:"omitempty,max=64"`
}

// DecideDocumentRequest captures a reviewer decision against the version the reviewer read.
type DecideDocumentRequest struct {
	Version int64                 `json:"version" validate:"required,gt=0"`
	Outcome models.DocumentStatus `json:"outcome" validate:"required"`
	Note    string                `json:"note" validate:"max=1000"`
}

// ReplaceDocumentRequest swaps the file of a rejected document. Version is
// optional; when present it must match the stored version.
type ReplaceDocumentRequest struct {
	FileName  string `json:"fileName" validate:"required,max=255"`
	FileRef   string `json:"fileRef" validate:"required,max=2048"`
	MimeType  string `json:"mimeType" validate:"omitempty,max=127"`
	SizeBytes int64  `json:"sizeBytes" validate:"gte=0"`
	Version   int64  `json:"version" validate:"gte=0"`
}

// DocumentQuery mirrors supported listing filters.
type DocumentQuery struct {
	Status   []models.DocumentStatus
	Kind     models.DocumentKind
	MemberID string
	Page     int
	PageSize int
}

// DocumentPage is a scoped page of documents.
type DocumentPage struct {
	Items      []models.Document
	Pagination models.Pagination
}
