package models

import "time"

const (
	RelationshipTypeSocial   = "S"
	RelationshipTypeOfficial = "O"
)

// Relationship links one contact to one prisoner identity.
type Relationship struct {
	ID                  int64      `json:"prisonerContactId" db:"prisoner_contact_id"`
	ContactID           int64      `json:"contactId" db:"contact_id"`
	PrisonerNumber      string     `json:"prisonerNumber" db:"prisoner_number"`
	RelationshipType    string     `json:"relationshipType" db:"relationship_type"`
	RelationshipSubType string     `json:"subType" db:"relationship_to_prisoner"`
	NextOfKin           bool       `json:"nextOfKin" db:"next_of_kin"`
	EmergencyContact    bool       `json:"emergencyContact" db:"emergency_contact"`
	Active              bool       `json:"active" db:"active"`
	ApprovedVisitor     bool       `json:"approvedVisitor" db:"approved_visitor"`
	ApprovedBy          *string    `json:"approvedBy,omitempty" db:"approved_by"`
	ApprovedTime        *time.Time `json:"approvedTime,omitempty" db:"approved_time"`
	CurrentTerm         bool       `json:"currentTerm" db:"current_term"`
	Comments            *string    `json:"comments,omitempty" db:"comments"`
	ExpiryDate          *LocalDate `json:"expiryDate,omitempty" db:"expiry_date"`
	CreatedBy           string     `json:"createdBy" db:"created_by"`
	CreatedTime         time.Time  `json:"createdTime" db:"created_time"`
	UpdatedBy           *string    `json:"updatedBy,omitempty" db:"updated_by"`
	UpdatedTime         *time.Time `json:"updatedTime,omitempty" db:"updated_time"`
}

// RelationshipRestriction is scoped to one relationship and is deleted with it.
type RelationshipRestriction struct {
	ID              int64      `json:"prisonerContactRestrictionId" db:"prisoner_contact_restriction_id"`
	RelationshipID  int64      `json:"prisonerContactId" db:"prisoner_contact_id"`
	RestrictionType string     `json:"restrictionType" db:"restriction_type"`
	StartDate       *LocalDate `json:"startDate,omitempty" db:"start_date"`
	ExpiryDate      *LocalDate `json:"expiryDate,omitempty" db:"expiry_date"`
	Comments        *string    `json:"comments,omitempty" db:"comments"`
	CreatedBy       string     `json:"createdBy" db:"created_by"`
	CreatedTime     time.Time  `json:"createdTime" db:"created_time"`
	UpdatedBy       *string    `json:"updatedBy,omitempty" db:"updated_by"`
	UpdatedTime     *time.Time `json:"updatedTime,omitempty" db:"updated_time"`
}

// ApprovalProvenance records who approved a visitor and when.
type ApprovalProvenance struct {
	ApprovedBy   string
	ApprovedTime time.Time
}
