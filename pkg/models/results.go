package models

// ElementType tags ids in results and events with the kind of row they name.
type ElementType string

const (
	ElementTypePrisonerContact            ElementType = "PRISONER_CONTACT"
	ElementTypePrisonerContactRestriction ElementType = "PRISONER_CONTACT_RESTRICTION"
	ElementTypePrisonerDomesticStatus     ElementType = "PRISONER_DOMESTIC_STATUS"
	ElementTypePrisonerNumberOfChildren   ElementType = "PRISONER_NUMBER_OF_CHILDREN"
	ElementTypePrisonerRestriction        ElementType = "PRISONER_RESTRICTION"
)

// IDPair maps the upstream id of a recreated row to the id it was given here.
// It is never persisted.
type IDPair struct {
	ElementType ElementType `json:"elementType"`
	SourceID    int64       `json:"sourceId"`
	NewID       int64       `json:"newId"`
}

type CreatedRelationship struct {
	ContactID      int64    `json:"contactId"`
	PrisonerNumber string   `json:"prisonerNumber"`
	Relationship   IDPair   `json:"relationship"`
	Restrictions   []IDPair `json:"restrictions"`
}

type RemovedRelationship struct {
	PrisonerNumber string  `json:"prisonerNumber"`
	ContactID      int64   `json:"contactId"`
	RelationshipID int64   `json:"prisonerContactId"`
	RestrictionIDs []int64 `json:"prisonerContactRestrictionIds"`
}

// RelationshipsResult is returned by relationship merge and reset.
type RelationshipsResult struct {
	RelationshipsCreated []CreatedRelationship `json:"relationshipsCreated"`
	RelationshipsRemoved []RemovedRelationship `json:"relationshipsRemoved"`
}

type ActiveValueMergeResult struct {
	NewActiveRecordID     *int64 `json:"id,omitempty"`
	WasNewlyActiveCreated bool   `json:"wasCreated"`
}

type SupersedeResult struct {
	ID                     int64  `json:"id"`
	PreviousActiveRecordID *int64 `json:"previousId,omitempty"`
}

// RestrictionMergeResult pairs each removed restriction with its copy on the
// retaining prisoner in IDs.
type RestrictionMergeResult struct {
	HasChanged bool                  `json:"hasChanged"`
	Created    []PrisonerRestriction `json:"created,omitempty"`
	IDs        []IDPair              `json:"restrictionIds,omitempty"`
	DeletedIDs []int64               `json:"deletedRestrictionIds,omitempty"`
}

type RestrictionResetResult struct {
	DeletedIDs []int64 `json:"deletedRestrictionIds"`
	CreatedIDs []int64 `json:"createdRestrictionIds"`
}
