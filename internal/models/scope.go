package models

// ScopeKind tags the authorization scope attached to a request.
type ScopeKind string

const (
	ScopeOwn    ScopeKind = "OWN"
	ScopeArea   ScopeKind = "AREA"
	ScopeGlobal ScopeKind = "GLOBAL"
)

// Scope is the single authorization value derived once per request. Exactly
// one of MemberID or AreaID is set for OWN and AREA; neither is set for GLOBAL.
type Scope struct {
	Kind     ScopeKind `json:"kind"`
	MemberID string    `json:"memberId,omitempty"`
	AreaID   string    `json:"areaId,omitempty"`
	ActorID  string    `json:"actorId,omitempty"`
}

// OwnScope scopes a member to their own documents.
func OwnScope(memberID string) Scope {
	return Scope{Kind: ScopeOwn, MemberID: memberID}
}

// AreaScope scopes a reviewer to one rayon.
func AreaScope(areaID string) Scope {
	return Scope{Kind: ScopeArea, AreaID: areaID}
}

// GlobalScope grants unrestricted access.
func GlobalScope() Scope {
	return Scope{Kind: ScopeGlobal}
}

// Valid reports whether the scope is well formed. A zero Scope is invalid so
// a forgotten scope denies instead of widening access.
func (s Scope) Valid() bool {
	switch s.Kind {
	case ScopeOwn:
		return s.MemberID != ""
	case ScopeArea:
		return s.AreaID != ""
	case ScopeGlobal:
		return true
	}
	return false
}
