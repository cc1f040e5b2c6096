package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/ShotGuy/gmit-betlehem-oesapa-barat-app-sub002/internal/dto"
	"github.com/ShotGuy/gmit-betlehem-oesapa-barat-app-sub002/internal/models"
	"github.com/ShotGuy/gmit-betlehem-oesapa-barat-app-sub002/internal/repository"
	appErrors "github.com/ShotGuy/gmit-betlehem-oesapa-barat-app-sub002/pkg/errors"
)

// Replace lets the owner of a REJECTED document submit a corrected file. The
// document keeps its id and returns to PENDING with the decision cleared.
func (s *DocumentService) Replace(ctx context.Context, id string, req dto.ReplaceDocumentRequest, claims *models.JWTClaims) (*models.Document, error) {
	scope, err := ResolveScope(claims)
	if err != nil {
		return nil, err
	}
	if scope.Kind != models.ScopeOwn {
		return nil, appErrors.ErrForbidden
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid replace payload")
	}

	doc, err := s.loadVisible(ctx, scope, id)
	if err != nil {
		return nil, err
	}
	if doc.Status != models.DocumentStatusRejected {
		return nil, appErrors.Clone(appErrors.ErrInvalidState, "only rejected documents can be replaced")
	}
	if req.Version > 0 && req.Version != doc.Version {
		s.metrics.RecordConflict("replace")
		return nil, appErrors.ErrConflict
	}
	if err := s.checkFileMetadata(req.MimeType, req.SizeBytes); err != nil {
		return nil, err
	}

	if doc.Kind.IsSlot() {
		taken, err := s.repo.HasActiveSlot(ctx, doc.OwnerID, doc.Kind, doc.ID)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check document slot")
		}
		if taken {
			return nil, appErrors.ErrDuplicateSlot
		}
	}

	replaced, err := s.repo.ReplaceFile(ctx, repository.ReplaceParams{
		ID:              doc.ID,
		ExpectedVersion: doc.Version,
		FileName:        strings.TrimSpace(req.FileName),
		FileRef:         strings.TrimSpace(req.FileRef),
		MimeType:        optionalString(req.MimeType),
		SizeBytes:       optionalSize(req.SizeBytes),
		SubmittedAt:     s.now(),
	})
	if err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			s.metrics.RecordConflict("replace")
			return nil, appErrors.ErrConflict
		case errors.Is(err, repository.ErrSlotTaken):
			return nil, appErrors.ErrDuplicateSlot
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to replace document")
	}

	s.emitAudit(ctx, scope.ActorID, models.AuditActionDocumentReplace, replaced.ID, doc, replaced)
	s.emit(ctx, scope, models.EventDocumentReplaced, replaced)
	return replaced, nil
}
