// Package reconciliation builds read-only snapshots of a contact or a prisoner
// that the upstream system diffs against its own records.
package reconciliation

import (
	"cmp"
	"context"
	"net/http"
	"slices"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Gobusters/ectolinq"
	"github.com/Gobusters/ectologger"
	"github.com/Ramsey-B/thistle/pkg/models"
	"github.com/Ramsey-B/thistle/pkg/tracing"
)

type ContactReader interface {
	Get(ctx context.Context, contactID int64) (*models.Contact, error)
	ListPhones(ctx context.Context, contactID int64) ([]models.ContactPhone, error)
	ListAddresses(ctx context.Context, contactID int64) ([]models.ContactAddress, error)
	ListAddressPhones(ctx context.Context, contactID int64) ([]models.ContactAddressPhone, error)
	ListEmails(ctx context.Context, contactID int64) ([]models.ContactEmail, error)
	ListIdentities(ctx context.Context, contactID int64) ([]models.ContactIdentity, error)
	ListEmployments(ctx context.Context, contactID int64) ([]models.ContactEmployment, error)
	ListRestrictions(ctx context.Context, contactID int64) ([]models.ContactRestriction, error)
}

type RelationshipReader interface {
	ListByContact(ctx context.Context, contactID int64) ([]models.Relationship, error)
	ListByPrisoner(ctx context.Context, prisonerNumber string) ([]models.Relationship, error)
}

type RelationshipRestrictionReader interface {
	ListByRelationshipIDs(ctx context.Context, relationshipIDs []int64) ([]models.RelationshipRestriction, error)
}

type ActiveValueReader interface {
	GetActive(ctx context.Context, kind models.ActiveValueKind, prisonerNumber string) (*models.ActiveValue, error)
}

type PrisonerRestrictionReader interface {
	ListByPrisoner(ctx context.Context, prisonerNumber string) ([]models.PrisonerRestriction, error)
}

type Builder struct {
	contacts             ContactReader
	relationships        RelationshipReader
	restrictions         RelationshipRestrictionReader
	values               ActiveValueReader
	prisonerRestrictions PrisonerRestrictionReader
	logger               ectologger.Logger
}

func NewBuilder(
	contacts ContactReader,
	relationships RelationshipReader,
	restrictions RelationshipRestrictionReader,
	values ActiveValueReader,
	prisonerRestrictions PrisonerRestrictionReader,
	logger ectologger.Logger,
) *Builder {
	return &Builder{
		contacts:             contacts,
		relationships:        relationships,
		restrictions:         restrictions,
		values:               values,
		prisonerRestrictions: prisonerRestrictions,
		logger:               logger,
	}
}

// ContactSnapshot returns 404 when the contact does not exist.
func (b *Builder) ContactSnapshot(ctx context.Context, contactID int64) (*models.ContactReconciliation, error) {
	ctx, span := tracing.StartSpan(ctx, "reconciliation.Builder.ContactSnapshot")
	defer span.End()

	contact, err := b.contacts.Get(ctx, contactID)
	if err != nil {
		return nil, err
	}
	if contact == nil {
		return nil, httperror.NewHTTPErrorf(http.StatusNotFound, "contact %d not found", contactID)
	}

	phones, err := b.contacts.ListPhones(ctx, contactID)
	if err != nil {
		return nil, err
	}
	addresses, err := b.contacts.ListAddresses(ctx, contactID)
	if err != nil {
		return nil, err
	}
	links, err := b.contacts.ListAddressPhones(ctx, contactID)
	if err != nil {
		return nil, err
	}
	emails, err := b.contacts.ListEmails(ctx, contactID)
	if err != nil {
		return nil, err
	}
	identities, err := b.contacts.ListIdentities(ctx, contactID)
	if err != nil {
		return nil, err
	}
	employments, err := b.contacts.ListEmployments(ctx, contactID)
	if err != nil {
		return nil, err
	}
	contactRestrictions, err := b.contacts.ListRestrictions(ctx, contactID)
	if err != nil {
		return nil, err
	}
	relationships, err := b.relationships.ListByContact(ctx, contactID)
	if err != nil {
		return nil, err
	}
	reconciled, err := b.withRestrictions(ctx, relationships)
	if err != nil {
		return nil, err
	}

	contactPhones, reconciledAddresses := splitPhones(phones, addresses, links)

	return &models.ContactReconciliation{
		Contact:       *contact,
		Phones:        contactPhones,
		Addresses:     reconciledAddresses,
		Emails:        sortedByID(emails, func(e models.ContactEmail) int64 { return e.ID }),
		Identities:    sortedByID(identities, func(i models.ContactIdentity) int64 { return i.ID }),
		Employments:   sortedByID(employments, func(e models.ContactEmployment) int64 { return e.ID }),
		Restrictions:  sortedByID(contactRestrictions, func(r models.ContactRestriction) int64 { return r.ID }),
		Relationships: reconciled,
	}, nil
}

// PrisonerSnapshot never returns 404. A prisoner with no data yields an empty
// snapshot so the caller can still diff against it.
func (b *Builder) PrisonerSnapshot(ctx context.Context, prisonerNumber string) (*models.PrisonerReconciliation, error) {
	ctx, span := tracing.StartSpan(ctx, "reconciliation.Builder.PrisonerSnapshot")
	defer span.End()
	tracing.SetPrisonerNumbers(span, prisonerNumber)

	domesticStatus, err := b.values.GetActive(ctx, models.ActiveValueDomesticStatus, prisonerNumber)
	if err != nil {
		return nil, err
	}
	numberOfChildren, err := b.values.GetActive(ctx, models.ActiveValueNumberOfChildren, prisonerNumber)
	if err != nil {
		return nil, err
	}
	restrictions, err := b.prisonerRestrictions.ListByPrisoner(ctx, prisonerNumber)
	if err != nil {
		return nil, err
	}
	relationships, err := b.relationships.ListByPrisoner(ctx, prisonerNumber)
	if err != nil {
		return nil, err
	}
	reconciled, err := b.withRestrictions(ctx, relationships)
	if err != nil {
		return nil, err
	}

	b.logger.WithContext(ctx).WithFields(map[string]any{
		"prisoner_number": prisonerNumber,
		"relationships":   len(reconciled),
		"restrictions":    len(restrictions),
	}).Debug("Built prisoner reconciliation")

	return &models.PrisonerReconciliation{
		PrisonerNumber:   prisonerNumber,
		DomesticStatus:   domesticStatus,
		NumberOfChildren: numberOfChildren,
		Restrictions:     sortedByID(restrictions, func(r models.PrisonerRestriction) int64 { return r.ID }),
		Relationships:    reconciled,
	}, nil
}

// withRestrictions keeps current-term relationships only and attaches their
// restrictions.
func (b *Builder) withRestrictions(ctx context.Context, relationships []models.Relationship) ([]models.ReconciledRelationship, error) {
	current := sortedByID(
		ectolinq.Filter(relationships, func(r models.Relationship) bool { return r.CurrentTerm }),
		func(r models.Relationship) int64 { return r.ID },
	)
	out := make([]models.ReconciledRelationship, 0, len(current))
	if len(current) == 0 {
		return out, nil
	}

	ids := ectolinq.Map(current, func(r models.Relationship) int64 { return r.ID })
	restrictions, err := b.restrictions.ListByRelationshipIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	byRelationship := map[int64][]models.RelationshipRestriction{}
	for _, restriction := range restrictions {
		byRelationship[restriction.RelationshipID] = append(byRelationship[restriction.RelationshipID], restriction)
	}

	for _, relationship := range current {
		out = append(out, models.ReconciledRelationship{
			Relationship: relationship,
			Restrictions: sortedByID(byRelationship[relationship.ID], func(r models.RelationshipRestriction) int64 { return r.ID }),
		})
	}
	return out, nil
}

// splitPhones separates contact-level phones from the ones scoped to an address.
func splitPhones(phones []models.ContactPhone, addresses []models.ContactAddress, links []models.ContactAddressPhone) ([]models.ContactPhone, []models.ReconciledAddress) {
	phoneByID := make(map[int64]models.ContactPhone, len(phones))
	for _, phone := range phones {
		phoneByID[phone.ID] = phone
	}

	scoped := map[int64]bool{}
	byAddress := map[int64][]models.ContactPhone{}
	for _, link := range sortedByID(links, func(l models.ContactAddressPhone) int64 { return l.ID }) {
		scoped[link.ContactPhoneID] = true
		if phone, ok := phoneByID[link.ContactPhoneID]; ok {
			byAddress[link.ContactAddressID] = append(byAddress[link.ContactAddressID], phone)
		}
	}

	contactPhones := sortedByID(
		ectolinq.Filter(phones, func(p models.ContactPhone) bool { return !scoped[p.ID] }),
		func(p models.ContactPhone) int64 { return p.ID },
	)

	sortedAddresses := sortedByID(addresses, func(a models.ContactAddress) int64 { return a.ID })
	reconciled := make([]models.ReconciledAddress, 0, len(sortedAddresses))
	for _, address := range sortedAddresses {
		reconciled = append(reconciled, models.ReconciledAddress{
			ContactAddress: address,
			Phones:         sortedByID(byAddress[address.ID], func(p models.ContactPhone) int64 { return p.ID }),
		})
	}
	return contactPhones, reconciled
}

// sortedByID returns a sorted copy that is never nil, so an empty list
// serializes as [] rather than null.
func sortedByID[T any](items []T, id func(T) int64) []T {
	out := make([]T, len(items))
	copy(out, items)
	slices.SortFunc(out, func(a, b T) int {
		return cmp.Compare(id(a), id(b))
	})
	return out
}
