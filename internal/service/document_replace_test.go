package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ShotGuy/gmit-betlehem-oesapa-barat-app-sub002/internal/dto"
	"github.com/ShotGuy/gmit-betlehem-oesapa-barat-app-sub002/internal/models"
	appErrors "github.com/ShotGuy/gmit-betlehem-oesapa-barat-app-sub002/pkg/errors"
)

func rejectDocument(t *testing.T, f *documentFixture, doc *models.Document, reviewer *models.JWTClaims) *models.Document {
	t.Helper()
	rejected, err := f.svc.Decide(context.Background(), doc.ID, dto.DecideDocumentRequest{
		Version: doc.Version, Outcome: models.DocumentStatusRejected, Note: "wrong certificate",
	}, reviewer)
	require.NoError(t, err)
	return rejected
}

func TestDocumentServiceReplaceResetsDecision(t *testing.T) {
	f := newDocumentFixture()
	doc := uploadDocument(t, f, "m-a1", models.DocumentKindBaptism, "")
	rejected := rejectDocument(t, f, doc, majelisClaims("A"))

	replaced, err := f.svc.Replace(context.Background(), doc.ID, dto.ReplaceDocumentRequest{
		FileName: "baptis-new.pdf", FileRef: "https://cdn.example/baptis-new.pdf", MimeType: "application/pdf",
	}, memberClaims("m-a1"))
	require.NoError(t, err)

	assert.Equal(t, doc.ID, replaced.ID)
	assert.Equal(t, models.DocumentStatusPending, replaced.Status)
	assert.Nil(t, replaced.ReviewNote)
	assert.Nil(t, replaced.DecidedAt)
	assert.Nil(t, replaced.DecidedBy)
	assert.Equal(t, rejected.Version+1, replaced.Version)
	assert.Equal(t, "baptis-new.pdf", replaced.FileName)
	assert.Equal(t, "https://cdn.example/baptis-new.pdf", replaced.FileRef)

	events := f.events.snapshot()
	require.Len(t, events, 2)
	assert.Equal(t, models.EventDocumentReplaced, events[1].Type)
	assert.Equal(t, models.DocumentStatusPending, events[1].Outcome)
	assert.Contains(t, f.audit.actions(), models.AuditActionDocumentReplace)
}

func TestDocumentServiceReplaceScope(t *testing.T) {
	f := newDocumentFixture()
	ctx := context.Background()
	doc := uploadDocument(t, f, "m-a1", models.DocumentKindBaptism, "")
	rejectDocument(t, f, doc, majelisClaims("A"))
	req := dto.ReplaceDocumentRequest{FileName: "n.pdf", FileRef: "ref-n"}

	_, err := f.svc.Replace(ctx, doc.ID, req, memberClaims("m-a2"))
	requireAppError(t, err, appErrors.ErrForbidden)

	_, err = f.svc.Replace(ctx, doc.ID, req, majelisClaims("A"))
	requireAppError(t, err, appErrors.ErrForbidden)

	_, err = f.svc.Replace(ctx, doc.ID, req, adminClaims())
	requireAppError(t, err, appErrors.ErrForbidden)

	_, err = f.svc.Replace(ctx, absentDocumentID, req, memberClaims("m-a1"))
	requireAppError(t, err, appErrors.ErrForbidden)
}

func TestDocumentServiceReplaceRequiresRejected(t *testing.T) {
	f := newDocumentFixture()
	doc := uploadDocument(t, f, "m-a1", models.DocumentKindBaptism, "")

	_, err := f.svc.Replace(context.Background(), doc.ID, dto.ReplaceDocumentRequest{FileName: "n.pdf", FileRef: "ref-n"}, memberClaims("m-a1"))
	requireAppError(t, err, appErrors.ErrInvalidState)
}

func TestDocumentServiceReplaceStaleVersion(t *testing.T) {
	f := newDocumentFixture()
	doc := uploadDocument(t, f, "m-a1", models.DocumentKindBaptism, "")
	rejected := rejectDocument(t, f, doc, adminClaims())

	_, err := f.svc.Replace(context.Background(), doc.ID, dto.ReplaceDocumentRequest{
		FileName: "n.pdf", FileRef: "ref-n", Version: rejected.Version - 1,
	}, memberClaims("m-a1"))
	requireAppError(t, err, appErrors.ErrConflict)

	replaced, err := f.svc.Replace(context.Background(), doc.ID, dto.ReplaceDocumentRequest{
		FileName: "n.pdf", FileRef: "ref-n", Version: rejected.Version,
	}, memberClaims("m-a1"))
	require.NoError(t, err)
	assert.Equal(t, rejected.Version+1, replaced.Version)
}

func TestDocumentServiceReplaceKeepsSingletonSlot(t *testing.T) {
	f := newDocumentFixture()
	ctx := context.Background()
	old := uploadDocument(t, f, "m-a1", models.DocumentKindBaptism, "")
	rejectDocument(t, f, old, majelisClaims("A"))

	// A rejected document frees the slot, so a fresh upload is accepted.
	uploadDocument(t, f, "m-a1", models.DocumentKindBaptism, "")

	_, err := f.svc.Replace(ctx, old.ID, dto.ReplaceDocumentRequest{FileName: "n.pdf", FileRef: "ref-n"}, memberClaims("m-a1"))
	requireAppError(t, err, appErrors.ErrDuplicateSlot)

	f.store.skipSlotCheck = true
	_, err = f.svc.Replace(ctx, old.ID, dto.ReplaceDocumentRequest{FileName: "n.pdf", FileRef: "ref-n"}, memberClaims("m-a1"))
	requireAppError(t, err, appErrors.ErrDuplicateSlot)
}

func TestDocumentServiceReplaceOtherIgnoresSlot(t *testing.T) {
	f := newDocumentFixture()
	first := uploadDocument(t, f, "m-a1", models.DocumentKindOther, "Akta Lahir")
	uploadDocument(t, f, "m-a1", models.DocumentKindOther, "Akta Lahir")
	rejectDocument(t, f, first, adminClaims())

	replaced, err := f.svc.Replace(context.Background(), first.ID, dto.ReplaceDocumentRequest{FileName: "n.pdf", FileRef: "ref-n"}, memberClaims("m-a1"))
	require.NoError(t, err)
	assert.Equal(t, models.DocumentStatusPending, replaced.Status)
}
