package service

import (
	"context"
	"database/sql"
	"errors"

	"github.com/ShotGuy/gmit-betlehem-oesapa-barat-app-sub002/internal/models"
)

type memberAreaResolver interface {
	ResolveArea(ctx context.Context, memberID string) (string, error)
}

// Allows reports whether scope may see a document owned by ownerID whose
// household belongs to ownerArea.
func Allows(scope models.Scope, ownerID, ownerArea string) bool {
	if !scope.Valid() {
		return false
	}
	switch scope.Kind {
	case models.ScopeGlobal:
		return true
	case models.ScopeOwn:
		return ownerID != "" && ownerID == scope.MemberID
	case models.ScopeArea:
		return ownerArea != "" && ownerArea == scope.AreaID
	}
	return false
}

// FilterDocuments keeps the documents scope may see. areaOf maps an owner to
// their area and is only consulted for area scopes. Listing endpoints push the
// same rule into SQL; this is used for already-loaded sets.
func FilterDocuments(scope models.Scope, docs []models.Document, areaOf func(ownerID string) string) []models.Document {
	allowed := make([]models.Document, 0, len(docs))
	for _, doc := range docs {
		area := ""
		if scope.Kind == models.ScopeArea && areaOf != nil {
			area = areaOf(doc.OwnerID)
		}
		if Allows(scope, doc.OwnerID, area) {
			allowed = append(allowed, doc)
		}
	}
	return allowed
}

// canSee resolves the owner's area when the scope needs it. Unknown members
// are reported as not visible.
func canSee(ctx context.Context, areas memberAreaResolver, scope models.Scope, ownerID string) (bool, error) {
	if scope.Kind != models.ScopeArea {
		return Allows(scope, ownerID, ""), nil
	}
	area, err := areas.ResolveArea(ctx, ownerID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}
		return false, err
	}
	return Allows(scope, ownerID, area), nil
}
