package models

import "time"

// ActiveValueKind names a historized "one active row" attribute of a prisoner.
type ActiveValueKind string

const (
	ActiveValueDomesticStatus   ActiveValueKind = "domestic-status"
	ActiveValueNumberOfChildren ActiveValueKind = "number-of-children"
)

func (k ActiveValueKind) ElementType() ElementType {
	switch k {
	case ActiveValueDomesticStatus:
		return ElementTypePrisonerDomesticStatus
	case ActiveValueNumberOfChildren:
		return ElementTypePrisonerNumberOfChildren
	default:
		return ElementType(k)
	}
}

func (k ActiveValueKind) Valid() bool {
	return k == ActiveValueDomesticStatus || k == ActiveValueNumberOfChildren
}

// ActiveValue is one row of a single-active-value history. At most one row per
// prisoner number is active.
type ActiveValue struct {
	ID             int64     `json:"id" db:"id"`
	PrisonerNumber string    `json:"prisonerNumber" db:"prisoner_number"`
	Value          string    `json:"value" db:"value"`
	Active         bool      `json:"active" db:"active"`
	CreatedBy      string    `json:"createdBy" db:"created_by"`
	CreatedTime    time.Time `json:"createdTime" db:"created_time"`
}
