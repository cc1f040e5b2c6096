package service

import (
	"strings"

	"github.com/ShotGuy/gmit-betlehem-oesapa-barat-app-sub002/internal/models"
	appErrors "github.com/ShotGuy/gmit-betlehem-oesapa-barat-app-sub002/pkg/errors"
)

// ResolveScope derives the authorization scope of a caller. It performs no I/O.
// Area reviewers without an area and members without a member record are
// denied outright instead of being widened to another scope.
func ResolveScope(claims *models.JWTClaims) (models.Scope, error) {
	if claims == nil || claims.UserID == "" {
		return models.Scope{}, appErrors.ErrUnauthorized
	}

	var scope models.Scope
	switch claims.Role {
	case models.RoleSuperAdmin, models.RoleAdmin, models.RolePendeta:
		scope = models.GlobalScope()
	case models.RoleMajelis:
		areaID := strings.TrimSpace(claims.AreaID)
		if areaID == "" {
			return models.Scope{}, appErrors.ErrUnscopedReviewer
		}
		scope = models.AreaScope(areaID)
	case models.RoleJemaat:
		memberID := strings.TrimSpace(claims.MemberID)
		if memberID == "" {
			return models.Scope{}, appErrors.ErrUnscopedMember
		}
		scope = models.OwnScope(memberID)
	default:
		return models.Scope{}, appErrors.ErrForbidden
	}

	scope.ActorID = claims.UserID
	return scope, nil
}
