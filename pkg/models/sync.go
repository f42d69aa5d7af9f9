package models

import "time"

type SyncRelationshipRestriction struct {
	SourceID        int64      `json:"sourceId" validate:"required"`
	RestrictionType string     `json:"restrictionType" validate:"required"`
	Comment         *string    `json:"comment,omitempty"`
	StartDate       *LocalDate `json:"startDate,omitempty"`
	ExpiryDate      *LocalDate `json:"expiryDate,omitempty"`
	CreatedBy       *string    `json:"createdBy,omitempty"`
	CreatedAt       *time.Time `json:"createdAt,omitempty"`
}

// SyncRelationship is an upstream relationship definition to be recreated.
type SyncRelationship struct {
	SourceID         int64                         `json:"sourceId" validate:"required"`
	ContactID        int64                         `json:"contactId" validate:"required"`
	PrisonerNumber   string                        `json:"prisonerNumber" validate:"required"`
	RelationshipType string                        `json:"relationshipType" validate:"required,oneof=S O"`
	SubType          string                        `json:"subType" validate:"required"`
	NextOfKin        bool                          `json:"nextOfKin"`
	EmergencyContact bool                          `json:"emergencyContact"`
	Active           bool                          `json:"active"`
	ApprovedVisitor  bool                          `json:"approvedVisitor"`
	CurrentTerm      bool                          `json:"currentTerm"`
	Comment          *string                       `json:"comment,omitempty"`
	ExpiryDate       *LocalDate                    `json:"expiryDate,omitempty"`
	Restrictions     []SyncRelationshipRestriction `json:"restrictions" validate:"dive"`
	CreatedBy        *string                       `json:"createdBy,omitempty"`
	CreatedAt        *time.Time                    `json:"createdAt,omitempty"`
}

type MergeRelationshipsRequest struct {
	RetainedPrisonerNumber string             `json:"retainedPrisonerNumber" validate:"required"`
	RemovedPrisonerNumber  string             `json:"removedPrisonerNumber" validate:"required,nefield=RetainedPrisonerNumber"`
	Relationships          []SyncRelationship `json:"relationships" validate:"dive"`
}

type ResetRelationshipsRequest struct {
	PrisonerNumber string             `json:"prisonerNumber" validate:"required"`
	Relationships  []SyncRelationship `json:"relationships" validate:"dive"`
}

// MergePrisonerRequest is used by the single-active-value and prisoner
// restriction merges.
type MergePrisonerRequest struct {
	RetainingPrisonerNumber string `json:"retainingPrisonerNumber" validate:"required"`
	RemovingPrisonerNumber  string `json:"removingPrisonerNumber" validate:"required,nefield=RetainingPrisonerNumber"`
}

type SupersedeValueRequest struct {
	Value       string     `json:"value" validate:"required"`
	CreatedBy   *string    `json:"createdBy,omitempty"`
	CreatedTime *time.Time `json:"createdTime,omitempty"`
}

type SyncPrisonerRestriction struct {
	RestrictionType    string     `json:"restrictionType" validate:"required"`
	EffectiveDate      LocalDate  `json:"effectiveDate"`
	ExpiryDate         *LocalDate `json:"expiryDate,omitempty"`
	CommentText        *string    `json:"commentText,omitempty"`
	AuthorisedUsername *string    `json:"authorisedUsername,omitempty"`
	CurrentTerm        bool       `json:"currentTerm"`
	CreatedBy          string     `json:"createdBy" validate:"required"`
	CreatedTime        time.Time  `json:"createdTime"`
	UpdatedBy          *string    `json:"updatedBy,omitempty"`
	UpdatedTime        *time.Time `json:"updatedTime,omitempty"`
}

type ResetPrisonerRestrictionsRequest struct {
	PrisonerNumber string                    `json:"prisonerNumber" validate:"required"`
	Restrictions   []SyncPrisonerRestriction `json:"restrictions" validate:"dive"`
}
