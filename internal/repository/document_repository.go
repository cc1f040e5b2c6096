package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/ShotGuy/gmit-betlehem-oesapa-barat-app-sub002/internal/models"
)

var (
	// ErrSlotTaken reports a unique violation on the active-slot index.
	ErrSlotTaken = errors.New("active document slot already taken")
	// ErrInvalidScope is returned when a query is attempted without a usable scope.
	ErrInvalidScope = errors.New("document query requires a valid scope")
)

const (
	activeSlotIndex = "uq_member_documents_active_slot"
	uniqueViolation = "23505"

	documentColumns = `d.id, d.owner_id, d.kind, d.title, d.file_name, d.file_ref, d.mime_type, d.size_bytes,
       d.status, d.review_note, d.submitted_at, d.decided_at, d.decided_by, d.version, d.updated_at`
	returningColumns = `id, owner_id, kind, title, file_name, file_ref, mime_type, size_bytes,
       status, review_note, submitted_at, decided_at, decided_by, version, updated_at`
)

// DocumentRepository persists member documents.
type DocumentRepository struct {
	db *sqlx.DB
}

// NewDocumentRepository constructs the repository.
func NewDocumentRepository(db *sqlx.DB) *DocumentRepository {
	return &DocumentRepository{db: db}
}

// Create inserts a new document at version 1.
func (r *DocumentRepository) Create(ctx context.Context, doc *models.Document) error {
	if doc.ID == "" {
		doc.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if doc.SubmittedAt.IsZero() {
		doc.SubmittedAt = now
	}
	doc.UpdatedAt = doc.SubmittedAt
	doc.Status = models.DocumentStatusPending
	doc.Version = 1

	const query = `INSERT INTO member_documents
	(id, owner_id, kind, title, file_name, file_ref, mime_type, size_bytes, status, submitted_at, version, updated_at)
	VALUES (:id, :owner_id, :kind, :title, :file_name, :file_ref, :mime_type, :size_bytes, :status, :submitted_at, :version, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, doc); err != nil {
		if isSlotViolation(err) {
			return ErrSlotTaken
		}
		return fmt.Errorf("create document: %w", err)
	}
	return nil
}

// GetByID fetches a document by identifier.
func (r *DocumentRepository) GetByID(ctx context.Context, id string) (*models.Document, error) {
	query := `SELECT ` + documentColumns + ` FROM member_documents d WHERE d.id = $1`
	var doc models.Document
	if err := r.db.GetContext(ctx, &doc, query, id); err != nil {
		return nil, err
	}
	return &doc, nil
}

// List returns documents visible to filter.Scope, latest submissions first.
func (r *DocumentRepository) List(ctx context.Context, filter models.DocumentFilter) ([]models.Document, error) {
	from, where, args, err := buildDocumentQuery(filter)
	if err != nil {
		return nil, err
	}

	limit := filter.Limit
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}

	query := fmt.Sprintf("SELECT %s FROM %s%s ORDER BY d.submitted_at DESC, d.id LIMIT %d OFFSET %d",
		documentColumns, from, where, limit, offset)

	var docs []models.Document
	if err := r.db.SelectContext(ctx, &docs, query, args...); err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}
	return docs, nil
}

// Count returns the number of documents visible to filter.Scope. It shares the
// predicate of List so totals never include rows outside the scope.
func (r *DocumentRepository) Count(ctx context.Context, filter models.DocumentFilter) (int, error) {
	from, where, args, err := buildDocumentQuery(filter)
	if err != nil {
		return 0, err
	}
	var total int
	if err := r.db.GetContext(ctx, &total, "SELECT COUNT(*) FROM "+from+where, args...); err != nil {
		return 0, fmt.Errorf("count documents: %w", err)
	}
	return total, nil
}

// HasActiveSlot reports whether ownerID already holds a PENDING or APPROVED
// document of kind, ignoring excludeID.
func (r *DocumentRepository) HasActiveSlot(ctx context.Context, ownerID string, kind models.DocumentKind, excludeID string) (bool, error) {
	const query = `SELECT EXISTS (
	SELECT 1 FROM member_documents
	WHERE owner_id = $1 AND kind = $2 AND status IN ('PENDING', 'APPROVED') AND id::text <> $3)`
	var exists bool
	if err := r.db.GetContext(ctx, &exists, query, ownerID, kind, excludeID); err != nil {
		return false, fmt.Errorf("check document slot: %w", err)
	}
	return exists, nil
}

// ListApprovedKinds returns the distinct mandatory kinds with an APPROVED document for memberID.
func (r *DocumentRepository) ListApprovedKinds(ctx context.Context, memberID string) ([]models.DocumentKind, error) {
	const query = `SELECT DISTINCT kind FROM member_documents
	WHERE owner_id = $1 AND status = 'APPROVED' AND kind <> 'OTHER'`
	var kinds []models.DocumentKind
	if err := r.db.SelectContext(ctx, &kinds, query, memberID); err != nil {
		return nil, fmt.Errorf("list approved kinds: %w", err)
	}
	return kinds, nil
}

// DecisionParams describes a compare-and-set review decision.
type DecisionParams struct {
	ID              string
	ExpectedVersion int64
	Status          models.DocumentStatus
	Note            *string
	DecidedBy       string
	DecidedAt       time.Time
	// AreaID, when set, additionally requires the owner to live in that area
	// at the moment of the update.
	AreaID string
}

// ApplyDecision moves a PENDING document at ExpectedVersion to the decided
// status and appends the decision to the review history in one transaction.
// sql.ErrNoRows means the compare-and-set lost or the owner left params.AreaID.
func (r *DocumentRepository) ApplyDecision(ctx context.Context, params DecisionParams) (*models.Document, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin decision tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	args := []interface{}{params.Status, params.Note, params.DecidedAt, params.DecidedBy, params.ID, params.ExpectedVersion}
	query := `UPDATE member_documents
	SET status = $1, review_note = $2, decided_at = $3, decided_by = $4, version = version + 1, updated_at = $3
	WHERE id = $5 AND version = $6 AND status = 'PENDING'`
	if params.AreaID != "" {
		args = append(args, params.AreaID)
		query += `
	AND owner_id IN (SELECT m.id FROM members m JOIN households h ON h.id = m.household_id WHERE h.area_id = $7)`
	}
	query += `
	RETURNING ` + returningColumns
	var doc models.Document
	if err := tx.QueryRowxContext(ctx, query, args...).StructScan(&doc); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sql.ErrNoRows
		}
		return nil, fmt.Errorf("apply document decision: %w", err)
	}

	review := &models.DocumentReview{
		DocumentID: doc.ID,
		Version:    doc.Version,
		Outcome:    doc.Status,
		Note:       doc.ReviewNote,
		FileRef:    doc.FileRef,
		DecidedBy:  params.DecidedBy,
		DecidedAt:  params.DecidedAt,
	}
	if err := insertReview(ctx, tx, review); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit document decision: %w", err)
	}
	return &doc, nil
}

// ReplaceParams describes a compare-and-set file swap on a rejected document.
type ReplaceParams struct {
	ID              string
	ExpectedVersion int64
	FileName        string
	FileRef         string
	MimeType        *string
	SizeBytes       *int64
	SubmittedAt     time.Time
}

// ReplaceFile swaps the file of a REJECTED document at ExpectedVersion and
// returns it to PENDING with the decision fields cleared. sql.ErrNoRows means
// the compare-and-set lost; ErrSlotTaken means the slot was refilled meanwhile.
func (r *DocumentRepository) ReplaceFile(ctx context.Context, params ReplaceParams) (*models.Document, error) {
	query := `UPDATE member_documents
	SET file_name = $1, file_ref = $2, mime_type = $3, size_bytes = $4,
	    status = 'PENDING', review_note = NULL, decided_at = NULL, decided_by = NULL,
	    submitted_at = $5, version = version + 1, updated_at = $5
	WHERE id = $6 AND version = $7 AND status = 'REJECTED'
	RETURNING ` + returningColumns
	var doc models.Document
	if err := r.db.QueryRowxContext(ctx, query,
		params.FileName, params.FileRef, params.MimeType, params.SizeBytes, params.SubmittedAt, params.ID, params.ExpectedVersion,
	).StructScan(&doc); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sql.ErrNoRows
		}
		if isSlotViolation(err) {
			return nil, ErrSlotTaken
		}
		return nil, fmt.Errorf("replace document file: %w", err)
	}
	return &doc, nil
}

// Delete removes a document at expectedVersion. sql.ErrNoRows means the
// document changed or vanished since it was read.
func (r *DocumentRepository) Delete(ctx context.Context, id string, expectedVersion int64) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM member_documents WHERE id = $1 AND version = $2`, id, expectedVersion)
	if err != nil {
		return fmt.Errorf("delete document: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("check document delete rows: %w", err)
	}
	if rows == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// buildDocumentQuery renders the FROM clause and scope-restricted WHERE clause
// shared by List and Count.
func buildDocumentQuery(filter models.DocumentFilter) (string, string, []interface{}, error) {
	if !filter.Scope.Valid() {
		return "", "", nil, ErrInvalidScope
	}

	from := "member_documents d"
	args := make([]interface{}, 0, 6)
	conditions := make([]string, 0, 4)

	switch filter.Scope.Kind {
	case models.ScopeOwn:
		args = append(args, filter.Scope.MemberID)
		conditions = append(conditions, fmt.Sprintf("d.owner_id = $%d", len(args)))
	case models.ScopeArea:
		from += " JOIN members m ON m.id = d.owner_id JOIN households h ON h.id = m.household_id"
		args = append(args, filter.Scope.AreaID)
		conditions = append(conditions, fmt.Sprintf("h.area_id = $%d", len(args)))
	}

	if len(filter.Status) > 0 {
		placeholders := make([]string, len(filter.Status))
		for i, status := range filter.Status {
			args = append(args, status)
			placeholders[i] = fmt.Sprintf("$%d", len(args))
		}
		conditions = append(conditions, fmt.Sprintf("d.status IN (%s)", strings.Join(placeholders, ",")))
	}
	if filter.Kind != "" {
		args = append(args, filter.Kind)
		conditions = append(conditions, fmt.Sprintf("d.kind = $%d", len(args)))
	}
	if filter.MemberID != "" {
		args = append(args, filter.MemberID)
		conditions = append(conditions, fmt.Sprintf("d.owner_id = $%d", len(args)))
	}

	where := ""
	if len(conditions) > 0 {
		where = " WHERE " + strings.Join(conditions, " AND ")
	}
	return from, where, args, nil
}

func isSlotViolation(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return string(pqErr.Code) == uniqueViolation && pqErr.Constraint == activeSlotIndex
	}
	return false
}
