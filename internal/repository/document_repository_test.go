package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ShotGuy/gmit-betlehem-oesapa-barat-app-sub002/internal/models"
)

var documentRowColumns = []string{"id", "owner_id", "kind", "title", "file_name", "file_ref", "mime_type", "size_bytes",
	"status", "review_note", "submitted_at", "decided_at", "decided_by", "version", "updated_at"}

func newDocumentRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func TestDocumentRepositoryCreate(t *testing.T) {
	db, mock, cleanup := newDocumentRepoMock(t)
	defer cleanup()

	repo := NewDocumentRepository(db)
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO member_documents")).
		WillReturnResult(sqlmock.NewResult(1, 1))

	doc := &models.Document{
		OwnerID:  "member-1",
		Kind:     models.DocumentKindBaptism,
		Title:    "Surat Baptis",
		FileName: "baptis.pdf",
		FileRef:  "https://cdn.example/baptis.pdf",
		Status:   models.DocumentStatusApproved,
		Version:  9,
	}
	require.NoError(t, repo.Create(context.Background(), doc))
	assert.NotEmpty(t, doc.ID)
	assert.Equal(t, models.DocumentStatusPending, doc.Status)
	assert.Equal(t, int64(1), doc.Version)
	assert.False(t, doc.SubmittedAt.IsZero())
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestDocumentRepositoryCreateSlotTaken(t *testing.T) {
	db, mock, cleanup := newDocumentRepoMock(t)
	defer cleanup()

	repo := NewDocumentRepository(db)
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO member_documents")).
		WillReturnError(&pq.Error{Code: "23505", Constraint: "uq_member_documents_active_slot"})

	err := repo.Create(context.Background(), &models.Document{OwnerID: "member-1", Kind: models.DocumentKindMarriage})
	require.ErrorIs(t, err, ErrSlotTaken)
}

func TestDocumentRepositoryListAreaScopeJoinsHouseholds(t *testing.T) {
	db, mock, cleanup := newDocumentRepoMock(t)
	defer cleanup()

	repo := NewDocumentRepository(db)
	now := time.Now()
	rows := sqlmock.NewRows(documentRowColumns).
		AddRow("doc-1", "member-1", "BAPTISM", "Surat Baptis", "b.pdf", "ref-1", nil, nil, "PENDING", nil, now, nil, nil, 1, now)
	mock.ExpectQuery(regexp.QuoteMeta("FROM member_documents d JOIN members m ON m.id = d.owner_id JOIN households h ON h.id = m.household_id WHERE h.area_id = $1 AND d.status IN ($2)")).
		WithArgs("area-1", models.DocumentStatusPending).
		WillReturnRows(rows)

	docs, err := repo.List(context.Background(), models.DocumentFilter{
		Scope:  models.AreaScope("area-1"),
		Status: []models.DocumentStatus{models.DocumentStatusPending},
	})
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, "doc-1", docs[0].ID)
	assert.Equal(t, models.DocumentKindBaptism, docs[0].Kind)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestDocumentRepositoryListOwnScope(t *testing.T) {
	db, mock, cleanup := newDocumentRepoMock(t)
	defer cleanup()

	repo := NewDocumentRepository(db)
	mock.ExpectQuery(regexp.QuoteMeta("FROM member_documents d WHERE d.owner_id = $1 AND d.kind = $2 ORDER BY d.submitted_at DESC, d.id LIMIT 20 OFFSET 0")).
		WithArgs("member-1", models.DocumentKindOther).
		WillReturnRows(sqlmock.NewRows(documentRowColumns))

	docs, err := repo.List(context.Background(), models.DocumentFilter{
		Scope: models.OwnScope("member-1"),
		Kind:  models.DocumentKindOther,
	})
	require.NoError(t, err)
	assert.Empty(t, docs)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestDocumentRepositoryListRejectsInvalidScope(t *testing.T) {
	db, mock, cleanup := newDocumentRepoMock(t)
	defer cleanup()

	repo := NewDocumentRepository(db)
	_, err := repo.List(context.Background(), models.DocumentFilter{Scope: models.Scope{Kind: models.ScopeArea}})
	require.ErrorIs(t, err, ErrInvalidScope)

	_, err = repo.Count(context.Background(), models.DocumentFilter{})
	require.ErrorIs(t, err, ErrInvalidScope)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestDocumentRepositoryCountUsesScopedPredicate(t *testing.T) {
	db, mock, cleanup := newDocumentRepoMock(t)
	defer cleanup()

	repo := NewDocumentRepository(db)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM member_documents d JOIN members m ON m.id = d.owner_id JOIN households h ON h.id = m.household_id WHERE h.area_id = $1")).
		WithArgs("area-2").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(4))

	total, err := repo.Count(context.Background(), models.DocumentFilter{Scope: models.AreaScope("area-2")})
	require.NoError(t, err)
	assert.Equal(t, 4, total)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestDocumentRepositoryApplyDecision(t *testing.T) {
	db, mock, cleanup := newDocumentRepoMock(t)
	defer cleanup()

	repo := NewDocumentRepository(db)
	now := time.Now().UTC()
	note := "wrong certificate"
	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("UPDATE member_documents SET status = $1")).
		WithArgs(models.DocumentStatusRejected, sqlmock.AnyArg(), sqlmock.AnyArg(), "majelis-1", "doc-1", int64(3)).
		WillReturnRows(sqlmock.NewRows(documentRowColumns).
			AddRow("doc-1", "member-1", "BAPTISM", "Surat Baptis", "b.pdf", "ref-1", nil, nil, "REJECTED", note, now, now, "majelis-1", 4, now))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO member_document_reviews")).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	doc, err := repo.ApplyDecision(context.Background(), DecisionParams{
		ID:              "doc-1",
		ExpectedVersion: 3,
		Status:          models.DocumentStatusRejected,
		Note:            &note,
		DecidedBy:       "majelis-1",
		DecidedAt:       now,
	})
	require.NoError(t, err)
	assert.Equal(t, int64(4), doc.Version)
	assert.Equal(t, models.DocumentStatusRejected, doc.Status)
	require.NotNil(t, doc.ReviewNote)
	assert.Equal(t, note, *doc.ReviewNote)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestDocumentRepositoryApplyDecisionLostRace(t *testing.T) {
	db, mock, cleanup := newDocumentRepoMock(t)
	defer cleanup()

	repo := NewDocumentRepository(db)
	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("UPDATE member_documents SET status = $1")).
		WillReturnRows(sqlmock.NewRows(documentRowColumns))
	mock.ExpectRollback()

	_, err := repo.ApplyDecision(context.Background(), DecisionParams{
		ID:              "doc-1",
		ExpectedVersion: 3,
		Status:          models.DocumentStatusApproved,
		DecidedBy:       "admin-1",
		DecidedAt:       time.Now(),
	})
	require.ErrorIs(t, err, sql.ErrNoRows)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestDocumentRepositoryApplyDecisionRechecksArea(t *testing.T) {
	db, mock, cleanup := newDocumentRepoMock(t)
	defer cleanup()

	repo := NewDocumentRepository(db)
	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("WHERE id = $5 AND version = $6 AND status = 'PENDING' AND owner_id IN (SELECT m.id FROM members m JOIN households h ON h.id = m.household_id WHERE h.area_id = $7) RETURNING")).
		WithArgs(models.DocumentStatusApproved, sqlmock.AnyArg(), sqlmock.AnyArg(), "majelis-a", "doc-1", int64(1), "area-a").
		WillReturnRows(sqlmock.NewRows(documentRowColumns))
	mock.ExpectRollback()

	_, err := repo.ApplyDecision(context.Background(), DecisionParams{
		ID:              "doc-1",
		ExpectedVersion: 1,
		Status:          models.DocumentStatusApproved,
		DecidedBy:       "majelis-a",
		DecidedAt:       time.Now(),
		AreaID:          "area-a",
	})
	require.ErrorIs(t, err, sql.ErrNoRows)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestDocumentRepositoryReplaceFile(t *testing.T) {
	db, mock, cleanup := newDocumentRepoMock(t)
	defer cleanup()

	repo := NewDocumentRepository(db)
	now := time.Now().UTC()
	mock.ExpectQuery(regexp.QuoteMeta("WHERE id = $6 AND version = $7 AND status = 'REJECTED'")).
		WithArgs("new.pdf", "ref-2", nil, nil, sqlmock.AnyArg(), "doc-1", int64(2)).
		WillReturnRows(sqlmock.NewRows(documentRowColumns).
			AddRow("doc-1", "member-1", "BAPTISM", "Surat Baptis", "new.pdf", "ref-2", nil, nil, "PENDING", nil, now, nil, nil, 3, now))

	doc, err := repo.ReplaceFile(context.Background(), ReplaceParams{
		ID:              "doc-1",
		ExpectedVersion: 2,
		FileName:        "new.pdf",
		FileRef:         "ref-2",
		SubmittedAt:     now,
	})
	require.NoError(t, err)
	assert.Equal(t, models.DocumentStatusPending, doc.Status)
	assert.Nil(t, doc.ReviewNote)
	assert.Nil(t, doc.DecidedAt)
	assert.Equal(t, int64(3), doc.Version)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestDocumentRepositoryReplaceFileSlotTaken(t *testing.T) {
	db, mock, cleanup := newDocumentRepoMock(t)
	defer cleanup()

	repo := NewDocumentRepository(db)
	mock.ExpectQuery(regexp.QuoteMeta("UPDATE member_documents")).
		WillReturnError(&pq.Error{Code: "23505", Constraint: "uq_member_documents_active_slot"})

	_, err := repo.ReplaceFile(context.Background(), ReplaceParams{ID: "doc-1", ExpectedVersion: 2, SubmittedAt: time.Now()})
	require.ErrorIs(t, err, ErrSlotTaken)
}

func TestDocumentRepositoryDeleteCompareAndSet(t *testing.T) {
	db, mock, cleanup := newDocumentRepoMock(t)
	defer cleanup()

	repo := NewDocumentRepository(db)
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM member_documents WHERE id = $1 AND version = $2")).
		WithArgs("doc-1", int64(5)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	require.NoError(t, repo.Delete(context.Background(), "doc-1", 5))

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM member_documents")).
		WithArgs("doc-1", int64(5)).
		WillReturnResult(sqlmock.NewResult(0, 0))
	require.ErrorIs(t, repo.Delete(context.Background(), "doc-1", 5), sql.ErrNoRows)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestDocumentRepositoryListApprovedKinds(t *testing.T) {
	db, mock, cleanup := newDocumentRepoMock(t)
	defer cleanup()

	repo := NewDocumentRepository(db)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT DISTINCT kind FROM member_documents")).
		WithArgs("member-1").
		WillReturnRows(sqlmock.NewRows([]string{"kind"}).AddRow("BAPTISM").AddRow("CONFIRMATION"))

	kinds, err := repo.ListApprovedKinds(context.Background(), "member-1")
	require.NoError(t, err)
	assert.ElementsMatch(t, []models.DocumentKind{models.DocumentKindBaptism, models.DocumentKindConfirmation}, kinds)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestDocumentRepositoryHasActiveSlot(t *testing.T) {
	db, mock, cleanup := newDocumentRepoMock(t)
	defer cleanup()

	repo := NewDocumentRepository(db)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT EXISTS")).
		WithArgs("member-1", models.DocumentKindBaptism, "doc-9").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))

	exists, err := repo.HasActiveSlot(context.Background(), "member-1", models.DocumentKindBaptism, "doc-9")
	require.NoError(t, err)
	assert.True(t, exists)
	require.NoError(t, mock.ExpectationsWereMet())
}
