package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"go.uber.org/zap"

	"github.com/ShotGuy/gmit-betlehem-oesapa-barat-app-sub002/internal/dto"
	"github.com/ShotGuy/gmit-betlehem-oesapa-barat-app-sub002/internal/models"
	"github.com/ShotGuy/gmit-betlehem-oesapa-barat-app-sub002/internal/repository"
	appErrors "github.com/ShotGuy/gmit-betlehem-oesapa-barat-app-sub002/pkg/errors"
)

// Decide approves or rejects a PENDING document. The caller must present the
// version it read; concurrent decisions on one version produce exactly one
// success and CONFLICT for the rest.
func (s *DocumentService) Decide(ctx context.Context, id string, req dto.DecideDocumentRequest, claims *models.JWTClaims) (*models.Document, error) {
	scope, err := ResolveScope(claims)
	if err != nil {
		return nil, err
	}
	if scope.Kind == models.ScopeOwn {
		return nil, appErrors.ErrForbidden
	}

	req.Outcome = models.DocumentStatus(strings.ToUpper(strings.TrimSpace(string(req.Outcome))))
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid decision payload")
	}
	if req.Outcome != models.DocumentStatusApproved && req.Outcome != models.DocumentStatusRejected {
		return nil, appErrors.Clone(appErrors.ErrValidation, "outcome must be APPROVED or REJECTED")
	}

	doc, err := s.loadVisible(ctx, scope, id)
	if err != nil {
		return nil, err
	}
	if doc.Version != req.Version {
		s.metrics.RecordConflict("decide")
		return nil, appErrors.ErrConflict
	}
	if doc.Status != models.DocumentStatusPending {
		return nil, appErrors.Clone(appErrors.ErrInvalidState, "document has already been decided")
	}

	var note *string
	if req.Outcome == models.DocumentStatusRejected {
		note = optionalString(req.Note)
		if note == nil {
			return nil, appErrors.ErrMissingReason
		}
	}

	decided, err := s.repo.ApplyDecision(ctx, repository.DecisionParams{
		ID:              doc.ID,
		ExpectedVersion: req.Version,
		Status:          req.Outcome,
		Note:            note,
		DecidedBy:       scope.ActorID,
		DecidedAt:       s.now(),
		AreaID:          scope.AreaID,
	})
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			s.metrics.RecordConflict("decide")
			return nil, appErrors.ErrConflict
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to apply decision")
	}

	s.metrics.RecordDecision(string(decided.Status))
	s.logger.Info("document decided",
		zap.String("document_id", decided.ID),
		zap.String("outcome", string(decided.Status)),
		zap.String("decided_by", scope.ActorID),
		zap.Int64("version", decided.Version),
	)
	s.emitAudit(ctx, scope.ActorID, models.AuditActionDocumentDecide, decided.ID, doc, decided)
	s.emit(ctx, scope, models.EventDocumentDecided, decided)
	return decided, nil
}
