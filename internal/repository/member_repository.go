package repository

import (
	"context"

	"github.com/jmoiron/sqlx"

	"github.com/ShotGuy/gmit-betlehem-oesapa-barat-app-sub002/internal/models"
)

// MemberRepository reads the member -> household -> area chain owned by the
// membership module.
type MemberRepository struct {
	db *sqlx.DB
}

// NewMemberRepository constructs the repository.
func NewMemberRepository(db *sqlx.DB) *MemberRepository {
	return &MemberRepository{db: db}
}

// GetPlacement returns the household and area of memberID. sql.ErrNoRows is
// returned for unknown members.
func (r *MemberRepository) GetPlacement(ctx context.Context, memberID string) (*models.MemberPlacement, error) {
	const query = `SELECT m.id AS member_id, m.household_id, h.area_id
	FROM members m JOIN households h ON h.id = m.household_id
	WHERE m.id = $1`
	var placement models.MemberPlacement
	if err := r.db.GetContext(ctx, &placement, query, memberID); err != nil {
		return nil, err
	}
	return &placement, nil
}

// ResolveArea returns the area (rayon) of memberID.
func (r *MemberRepository) ResolveArea(ctx context.Context, memberID string) (string, error) {
	placement, err := r.GetPlacement(ctx, memberID)
	if err != nil {
		return "", err
	}
	return placement.AreaID, nil
}
