package models

type ReconciledAddress struct {
	ContactAddress
	Phones []ContactPhone `json:"phones"`
}

type ReconciledRelationship struct {
	Relationship
	Restrictions []RelationshipRestriction `json:"restrictions"`
}

// ContactReconciliation is the point-in-time view of a contact used to diff
// against the upstream system. Every list is ordered by id.
type ContactReconciliation struct {
	Contact
	Phones        []ContactPhone           `json:"phones"`
	Addresses     []ReconciledAddress      `json:"addresses"`
	Emails        []ContactEmail           `json:"emails"`
	Identities    []ContactIdentity        `json:"identities"`
	Employments   []ContactEmployment      `json:"employments"`
	Restrictions  []ContactRestriction     `json:"restrictions"`
	Relationships []ReconciledRelationship `json:"relationships"`
}

type PrisonerReconciliation struct {
	PrisonerNumber   string                   `json:"prisonerNumber"`
	DomesticStatus   *ActiveValue             `json:"domesticStatus"`
	NumberOfChildren *ActiveValue             `json:"numberOfChildren"`
	Restrictions     []PrisonerRestriction    `json:"restrictions"`
	Relationships    []ReconciledRelationship `json:"relationships"`
}
