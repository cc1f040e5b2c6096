package models

// MemberPlacement is the Member -> Household -> Area chain used for scoping.
type MemberPlacement struct {
	MemberID    string `db:"member_id" json:"memberId"`
	HouseholdID string `db:"household_id" json:"householdId"`
	AreaID      string `db:"area_id" json:"areaId"`
}
