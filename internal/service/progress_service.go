package service

import (
	"context"
	"database/sql"
	"errors"
	"math"

	"go.uber.org/zap"

	"github.com/ShotGuy/gmit-betlehem-oesapa-barat-app-sub002/internal/models"
	appErrors "github.com/ShotGuy/gmit-betlehem-oesapa-barat-app-sub002/pkg/errors"
)

type approvedKindsReader interface {
	ListApprovedKinds(ctx context.Context, memberID string) ([]models.DocumentKind, error)
}

// ProgressService reports how many mandatory document slots a member has
// completed. Nothing is cached; each call reads the approved kinds.
type ProgressService struct {
	repo   approvedKindsReader
	areas  memberAreaResolver
	logger *zap.Logger
}

// NewProgressService constructs the service.
func NewProgressService(repo approvedKindsReader, areas memberAreaResolver, logger *zap.Logger) *ProgressService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ProgressService{repo: repo, areas: areas, logger: logger}
}

// Progress returns the completion of memberID's mandatory documents.
func (s *ProgressService) Progress(ctx context.Context, memberID string, claims *models.JWTClaims) (*models.DocumentProgress, error) {
	scope, err := ResolveScope(claims)
	if err != nil {
		return nil, err
	}
	if err := s.authorize(ctx, scope, memberID); err != nil {
		return nil, err
	}

	approved, err := s.repo.ListApprovedKinds(ctx, memberID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load approved documents")
	}
	progress := ComputeProgress(memberID, approved)
	return &progress, nil
}

func (s *ProgressService) authorize(ctx context.Context, scope models.Scope, memberID string) error {
	switch scope.Kind {
	case models.ScopeOwn:
		if memberID != scope.MemberID {
			return appErrors.ErrForbidden
		}
		return nil
	case models.ScopeArea:
		visible, err := canSee(ctx, s.areas, scope, memberID)
		if err != nil {
			return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to resolve member area")
		}
		if !visible {
			return appErrors.ErrForbidden
		}
		return nil
	case models.ScopeGlobal:
		if _, err := s.areas.ResolveArea(ctx, memberID); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return appErrors.Clone(appErrors.ErrNotFound, "member not found")
			}
			return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to resolve member")
		}
		return nil
	}
	return appErrors.ErrForbidden
}

// ComputeProgress derives completion from the kinds that hold an APPROVED
// document. OTHER never counts. Missing kinds keep the canonical slot order.
func ComputeProgress(memberID string, approved []models.DocumentKind) models.DocumentProgress {
	have := make(map[models.DocumentKind]struct{}, len(approved))
	for _, kind := range approved {
		have[kind] = struct{}{}
	}

	total := len(models.MandatoryKinds)
	completed := 0
	missing := make([]models.DocumentKind, 0, total)
	for _, kind := range models.MandatoryKinds {
		if _, ok := have[kind]; ok {
			completed++
			continue
		}
		missing = append(missing, kind)
	}

	return models.DocumentProgress{
		MemberID:  memberID,
		Completed: completed,
		Total:     total,
		Ratio:     math.Round(float64(completed)/float64(total)*1000) / 1000,
		Missing:   missing,
	}
}
