// Package events turns merge and reset results into the domain events other
// services consume.
package events

import (
	"github.com/Ramsey-B/thistle/pkg/kafka"
	"github.com/Ramsey-B/thistle/pkg/models"
)

// SourceNOMIS marks changes that originated in the upstream system, so the
// sync back to it can ignore them.
const SourceNOMIS = "NOMIS"

const (
	PrisonerContactCreated            = "contacts.prisoner-contact.created"
	PrisonerContactDeleted            = "contacts.prisoner-contact.deleted"
	PrisonerContactRestrictionCreated = "contacts.prisoner-contact-restriction.created"
	PrisonerContactRestrictionDeleted = "contacts.prisoner-contact-restriction.deleted"
	PrisonerDomesticStatusCreated     = "contacts.prisoner-domestic-status.created"
	PrisonerNumberOfChildrenCreated   = "contacts.prisoner-number-of-children.created"
	PrisonerRestrictionCreated        = "contacts.prisoner-restriction.created"
	PrisonerRestrictionDeleted        = "contacts.prisoner-restriction.deleted"
	PrisonerRestrictionsChanged       = "contacts.prisoner-restrictions.changed"
)

func createdEventFor(kind models.ActiveValueKind) string {
	if kind == models.ActiveValueNumberOfChildren {
		return PrisonerNumberOfChildrenCreated
	}
	return PrisonerDomesticStatusCreated
}

func event(eventType string, elementType models.ElementType, id int64, contactID int64, prisonerNumber string) *kafka.DomainEvent {
	return &kafka.DomainEvent{
		EventType:      eventType,
		ElementType:    elementType,
		Identifier:     id,
		ContactID:      contactID,
		PrisonerNumber: prisonerNumber,
		Source:         SourceNOMIS,
	}
}

// ForRelationships emits deletions before creations, restrictions before the
// relationship they belong to when deleting and after it when creating.
func ForRelationships(result *models.RelationshipsResult) []*kafka.DomainEvent {
	if result == nil {
		return nil
	}

	var out []*kafka.DomainEvent
	for _, removed := range result.RelationshipsRemoved {
		for _, restrictionID := range removed.RestrictionIDs {
			out = append(out, event(PrisonerContactRestrictionDeleted, models.ElementTypePrisonerContactRestriction, restrictionID, removed.ContactID, removed.PrisonerNumber))
		}
		out = append(out, event(PrisonerContactDeleted, models.ElementTypePrisonerContact, removed.RelationshipID, removed.ContactID, removed.PrisonerNumber))
	}
	for _, created := range result.RelationshipsCreated {
		out = append(out, event(PrisonerContactCreated, models.ElementTypePrisonerContact, created.Relationship.NewID, created.ContactID, created.PrisonerNumber))
		for _, restriction := range created.Restrictions {
			out = append(out, event(PrisonerContactRestrictionCreated, models.ElementTypePrisonerContactRestriction, restriction.NewID, created.ContactID, created.PrisonerNumber))
		}
	}
	return out
}

// ForActiveValueMerge only emits when the removing identity's value became the
// active one. Otherwise the retaining identity's active value is unchanged.
func ForActiveValueMerge(kind models.ActiveValueKind, retainingPrisonerNumber string, result *models.ActiveValueMergeResult) []*kafka.DomainEvent {
	if result == nil || !result.WasNewlyActiveCreated || result.NewActiveRecordID == nil {
		return nil
	}
	return []*kafka.DomainEvent{
		event(createdEventFor(kind), kind.ElementType(), *result.NewActiveRecordID, 0, retainingPrisonerNumber),
	}
}

func ForSupersede(kind models.ActiveValueKind, prisonerNumber string, result *models.SupersedeResult) []*kafka.DomainEvent {
	if result == nil {
		return nil
	}
	return []*kafka.DomainEvent{
		event(createdEventFor(kind), kind.ElementType(), result.ID, 0, prisonerNumber),
	}
}

func ForRestrictionMerge(retainingPrisonerNumber, removingPrisonerNumber string, result *models.RestrictionMergeResult) []*kafka.DomainEvent {
	if result == nil || !result.HasChanged {
		return nil
	}

	var out []*kafka.DomainEvent
	for _, id := range result.DeletedIDs {
		out = append(out, event(PrisonerRestrictionDeleted, models.ElementTypePrisonerRestriction, id, 0, removingPrisonerNumber))
	}
	for _, restriction := range result.Created {
		out = append(out, event(PrisonerRestrictionCreated, models.ElementTypePrisonerRestriction, restriction.ID, 0, retainingPrisonerNumber))
	}

	changed := event(PrisonerRestrictionsChanged, "", 0, 0, retainingPrisonerNumber)
	changed.RemovedPrisonerNumber = removingPrisonerNumber
	return append(out, changed)
}

func ForRestrictionReset(prisonerNumber string, result *models.RestrictionResetResult) []*kafka.DomainEvent {
	if result == nil {
		return nil
	}

	var out []*kafka.DomainEvent
	for _, id := range result.DeletedIDs {
		out = append(out, event(PrisonerRestrictionDeleted, models.ElementTypePrisonerRestriction, id, 0, prisonerNumber))
	}
	for _, id := range result.CreatedIDs {
		out = append(out, event(PrisonerRestrictionCreated, models.ElementTypePrisonerRestriction, id, 0, prisonerNumber))
	}
	return out
}
