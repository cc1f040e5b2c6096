package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/ShotGuy/gmit-betlehem-oesapa-barat-app-sub002/internal/models"
)

// DocumentReviewRepository reads the append-only decision history.
type DocumentReviewRepository struct {
	db *sqlx.DB
}

// NewDocumentReviewRepository constructs the repository.
func NewDocumentReviewRepository(db *sqlx.DB) *DocumentReviewRepository {
	return &DocumentReviewRepository{db: db}
}

// ListByDocument returns every decision recorded for documentID, oldest first.
func (r *DocumentReviewRepository) ListByDocument(ctx context.Context, documentID string) ([]models.DocumentReview, error) {
	const query = `SELECT id, document_id, version, outcome, note, file_ref, decided_by, decided_at
	FROM member_document_reviews WHERE document_id = $1 ORDER BY decided_at ASC, version ASC`
	var reviews []models.DocumentReview
	if err := r.db.SelectContext(ctx, &reviews, query, documentID); err != nil {
		return nil, fmt.Errorf("list document reviews: %w", err)
	}
	return reviews, nil
}

func insertReview(ctx context.Context, exec sqlx.ExtContext, review *models.DocumentReview) error {
	if review.ID == "" {
		review.ID = uuid.NewString()
	}
	const query = `INSERT INTO member_document_reviews
	(id, document_id, version, outcome, note, file_ref, decided_by, decided_at)
	VALUES (:id, :document_id, :version, :outcome, :note, :file_ref, :decided_by, :decided_at)`
	if _, err := sqlx.NamedExecContext(ctx, exec, query, review); err != nil {
		return fmt.Errorf("append document review: %w", err)
	}
	return nil
}
