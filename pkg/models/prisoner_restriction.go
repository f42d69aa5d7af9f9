package models

import "time"

// PrisonerRestriction applies directly to a prisoner identity.
type PrisonerRestriction struct {
	ID                 int64      `json:"prisonerRestrictionId" db:"prisoner_restriction_id"`
	PrisonerNumber     string     `json:"prisonerNumber" db:"prisoner_number"`
	RestrictionType    string     `json:"restrictionType" db:"restriction_type"`
	EffectiveDate      LocalDate  `json:"effectiveDate" db:"effective_date"`
	ExpiryDate         *LocalDate `json:"expiryDate,omitempty" db:"expiry_date"`
	CommentText        *string    `json:"commentText,omitempty" db:"comment_text"`
	AuthorisedUsername *string    `json:"authorisedUsername,omitempty" db:"authorised_username"`
	CurrentTerm        bool       `json:"currentTerm" db:"current_term"`
	CreatedBy          string     `json:"createdBy" db:"created_by"`
	CreatedTime        time.Time  `json:"createdTime" db:"created_time"`
	UpdatedBy          *string    `json:"updatedBy,omitempty" db:"updated_by"`
	UpdatedTime        *time.Time `json:"updatedTime,omitempty" db:"updated_time"`
}
