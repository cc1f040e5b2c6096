package models

// DocumentProgress summarises how many mandatory slots hold an approved document.
type DocumentProgress struct {
	MemberID  string         `json:"memberId"`
	Completed int            `json:"completed"`
	Total     int            `json:"total"`
	Ratio     float64        `json:"ratio"`
	Missing   []DocumentKind `json:"missing"`
}
