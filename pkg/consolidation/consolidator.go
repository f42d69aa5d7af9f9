// Package consolidation rebuilds a prisoner's relationships and their
// restrictions after an identity merge or a booking reset.
package consolidation

import (
	"cmp"
	"context"
	"net/http"
	"slices"
	"time"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Gobusters/ectolinq"
	"github.com/Gobusters/ectologger"
	pkgcontext "github.com/Ramsey-B/thistle/pkg/context"
	"github.com/Ramsey-B/thistle/pkg/models"
	"github.com/Ramsey-B/thistle/pkg/tracing"
)

type RelationshipStore interface {
	ListByPrisoner(ctx context.Context, prisonerNumber string) ([]models.Relationship, error)
	Insert(ctx context.Context, rel *models.Relationship) (*models.Relationship, error)
	DeleteByPrisoner(ctx context.Context, prisonerNumber string) (int64, error)
}

type RestrictionStore interface {
	ListByRelationshipIDs(ctx context.Context, relationshipIDs []int64) ([]models.RelationshipRestriction, error)
	Insert(ctx context.Context, restriction *models.RelationshipRestriction) (*models.RelationshipRestriction, error)
	DeleteByRelationshipIDs(ctx context.Context, relationshipIDs []int64) (int64, error)
}

// CodeValidator checks coded values against reference data and returns a 400
// for the first one that is unknown.
type CodeValidator interface {
	ValidateAll(ctx context.Context, refs ...models.CodeRef) error
}

// Wipe destroys every relationship and relationship restriction of one identity.
type Wipe struct {
	PrisonerNumber string
}

// Rebuild recreates Definitions under PrisonerNumber with new ids.
type Rebuild struct {
	PrisonerNumber string
	Definitions    []models.SyncRelationship
}

// wiped is what one Wipe is about to destroy.
type wiped struct {
	prisonerNumber string
	relationships  []models.Relationship
	restrictions   []models.RelationshipRestriction
}

type Consolidator struct {
	relationships RelationshipStore
	restrictions  RestrictionStore
	validator     CodeValidator
	logger        ectologger.Logger
	now           func() time.Time
}

func NewConsolidator(relationships RelationshipStore, restrictions RestrictionStore, validator CodeValidator, logger ectologger.Logger) *Consolidator {
	return &Consolidator{
		relationships: relationships,
		restrictions:  restrictions,
		validator:     validator,
		logger:        logger,
		now:           func() time.Time { return time.Now().UTC() },
	}
}

// Merge wipes both identities and recreates incoming under retained.
func (c *Consolidator) Merge(ctx context.Context, retained, removed string, incoming []models.SyncRelationship) (*models.RelationshipsResult, error) {
	if retained == removed {
		return nil, httperror.NewHTTPErrorf(http.StatusBadRequest, "cannot merge prisoner %s into itself", retained)
	}
	return c.Consolidate(ctx, retained, incoming, []string{removed, retained})
}

// Reset wipes prisonerNumber and recreates incoming under it.
func (c *Consolidator) Reset(ctx context.Context, prisonerNumber string, incoming []models.SyncRelationship) (*models.RelationshipsResult, error) {
	return c.Consolidate(ctx, prisonerNumber, incoming, []string{prisonerNumber})
}

// Consolidate validates incoming, captures and wipes every identity in
// sourcesToWipe, then rebuilds incoming under target. The caller owns the
// transaction; any error leaves it to be rolled back.
func (c *Consolidator) Consolidate(ctx context.Context, target string, incoming []models.SyncRelationship, sourcesToWipe []string) (*models.RelationshipsResult, error) {
	ctx, span := tracing.StartSpan(ctx, "consolidation.Consolidator.Consolidate")
	defer span.End()
	tracing.SetPrisonerNumbers(span, sourcesToWipe...)

	log := c.logger.WithContext(ctx).WithFields(map[string]any{
		"target":         target,
		"sources":        sourcesToWipe,
		"incoming_count": len(incoming),
	})

	if err := c.validate(ctx, incoming, sourcesToWipe); err != nil {
		return nil, err
	}

	var snapshot []wiped
	for _, prisonerNumber := range sourcesToWipe {
		w, err := c.capture(ctx, Wipe{PrisonerNumber: prisonerNumber})
		if err != nil {
			return nil, err
		}
		snapshot = append(snapshot, w)
	}

	for _, w := range snapshot {
		if err := c.wipe(ctx, w); err != nil {
			return nil, err
		}
	}

	var prior []models.Relationship
	for _, w := range snapshot {
		prior = append(prior, w.relationships...)
	}

	created, err := c.rebuild(ctx, Rebuild{PrisonerNumber: target, Definitions: incoming}, prior)
	if err != nil {
		return nil, err
	}

	result := &models.RelationshipsResult{
		RelationshipsCreated: created,
		RelationshipsRemoved: removedFrom(snapshot),
	}

	log.WithFields(map[string]any{
		"created": len(result.RelationshipsCreated),
		"removed": len(result.RelationshipsRemoved),
	}).Info("Consolidated relationships")

	return result, nil
}

func (c *Consolidator) validate(ctx context.Context, incoming []models.SyncRelationship, sourcesToWipe []string) error {
	relationshipIDs := map[int64]bool{}
	restrictionIDs := map[int64]bool{}
	var refs []models.CodeRef

	for _, rel := range incoming {
		if relationshipIDs[rel.SourceID] {
			return httperror.NewHTTPErrorf(http.StatusBadRequest, "relationship %d appears more than once", rel.SourceID)
		}
		relationshipIDs[rel.SourceID] = true

		if !ectolinq.Contains(sourcesToWipe, rel.PrisonerNumber) {
			return httperror.NewHTTPErrorf(http.StatusBadRequest,
				"relationship %d belongs to prisoner %s which is not part of this request", rel.SourceID, rel.PrisonerNumber)
		}

		for _, restriction := range rel.Restrictions {
			if restrictionIDs[restriction.SourceID] {
				return httperror.NewHTTPErrorf(http.StatusBadRequest, "relationship restriction %d appears more than once", restriction.SourceID)
			}
			restrictionIDs[restriction.SourceID] = true
		}
		refs = append(refs, rel.CodeRefs()...)
	}

	if c.validator == nil || len(refs) == 0 {
		return nil
	}
	return c.validator.ValidateAll(ctx, refs...)
}

// capture loads everything a Wipe will destroy so it can be reported.
func (c *Consolidator) capture(ctx context.Context, w Wipe) (wiped, error) {
	relationships, err := c.relationships.ListByPrisoner(ctx, w.PrisonerNumber)
	if err != nil {
		return wiped{}, err
	}
	restrictions, err := c.restrictions.ListByRelationshipIDs(ctx, relationshipIDs(relationships))
	if err != nil {
		return wiped{}, err
	}
	return wiped{
		prisonerNumber: w.PrisonerNumber,
		relationships:  relationships,
		restrictions:   restrictions,
	}, nil
}

func (c *Consolidator) wipe(ctx context.Context, w wiped) error {
	ctx, span := tracing.StartSpan(ctx, "consolidation.Consolidator.wipe")
	defer span.End()

	if _, err := c.restrictions.DeleteByRelationshipIDs(ctx, relationshipIDs(w.relationships)); err != nil {
		return err
	}
	if _, err := c.relationships.DeleteByPrisoner(ctx, w.prisonerNumber); err != nil {
		return err
	}
	return nil
}

// rebuild runs in two phases. Phase one inserts every relationship and binds
// its upstream id to the id it was given; phase two inserts restrictions
// against those bindings.
func (c *Consolidator) rebuild(ctx context.Context, r Rebuild, prior []models.Relationship) ([]models.CreatedRelationship, error) {
	ctx, span := tracing.StartSpan(ctx, "consolidation.Consolidator.rebuild")
	defer span.End()

	actor := pkgcontext.GetActor(ctx)
	now := c.now()
	arena := newIDArena()

	created := make([]models.CreatedRelationship, 0, len(r.Definitions))
	for _, definition := range r.Definitions {
		rel := c.relationshipFrom(definition, r.PrisonerNumber, ResolveApproval(prior, definition), actor, now)
		inserted, err := c.relationships.Insert(ctx, rel)
		if err != nil {
			return nil, err
		}
		arena.bind(definition.SourceID, inserted.ID)

		created = append(created, models.CreatedRelationship{
			ContactID:      inserted.ContactID,
			PrisonerNumber: inserted.PrisonerNumber,
			Relationship: models.IDPair{
				ElementType: models.ElementTypePrisonerContact,
				SourceID:    definition.SourceID,
				NewID:       inserted.ID,
			},
			Restrictions: []models.IDPair{},
		})
	}

	for i, definition := range r.Definitions {
		relationshipID, err := arena.resolve(definition.SourceID)
		if err != nil {
			return nil, err
		}
		for _, restriction := range definition.Restrictions {
			inserted, err := c.restrictions.Insert(ctx, restrictionFrom(restriction, relationshipID, definition, actor, now))
			if err != nil {
				return nil, err
			}
			created[i].Restrictions = append(created[i].Restrictions, models.IDPair{
				ElementType: models.ElementTypePrisonerContactRestriction,
				SourceID:    restriction.SourceID,
				NewID:       inserted.ID,
			})
		}
	}

	return created, nil
}

func (c *Consolidator) relationshipFrom(definition models.SyncRelationship, prisonerNumber string, approval *models.ApprovalProvenance, actor string, now time.Time) *models.Relationship {
	rel := &models.Relationship{
		ContactID:           definition.ContactID,
		PrisonerNumber:      prisonerNumber,
		RelationshipType:    definition.RelationshipType,
		RelationshipSubType: definition.SubType,
		NextOfKin:           definition.NextOfKin,
		EmergencyContact:    definition.EmergencyContact,
		Active:              definition.Active,
		ApprovedVisitor:     definition.ApprovedVisitor,
		CurrentTerm:         definition.CurrentTerm,
		Comments:            definition.Comment,
		ExpiryDate:          definition.ExpiryDate,
		CreatedBy:           valueOr(definition.CreatedBy, actor),
		CreatedTime:         valueOr(definition.CreatedAt, now),
	}
	if approval != nil {
		approvedBy, approvedTime := approval.ApprovedBy, approval.ApprovedTime
		rel.ApprovedBy = &approvedBy
		rel.ApprovedTime = &approvedTime
	} else if definition.ApprovedVisitor {
		c.logger.WithFields(map[string]any{
			"contact_id":      definition.ContactID,
			"prisoner_number": prisonerNumber,
			"source_id":       definition.SourceID,
		}).Warn("Approved visitor has no prior approval to carry forward")
	}
	return rel
}

func restrictionFrom(restriction models.SyncRelationshipRestriction, relationshipID int64, owner models.SyncRelationship, actor string, now time.Time) *models.RelationshipRestriction {
	return &models.RelationshipRestriction{
		RelationshipID:  relationshipID,
		RestrictionType: restriction.RestrictionType,
		StartDate:       restriction.StartDate,
		ExpiryDate:      restriction.ExpiryDate,
		Comments:        restriction.Comment,
		CreatedBy:       valueOr(restriction.CreatedBy, valueOr(owner.CreatedBy, actor)),
		CreatedTime:     valueOr(restriction.CreatedAt, valueOr(owner.CreatedAt, now)),
	}
}

// removedFrom reports every wiped relationship ordered by id, each with the
// ids of the restrictions it owned.
func removedFrom(snapshot []wiped) []models.RemovedRelationship {
	removed := []models.RemovedRelationship{}
	for _, w := range snapshot {
		for _, rel := range w.relationships {
			restrictionIDs := []int64{}
			for _, restriction := range w.restrictions {
				if restriction.RelationshipID == rel.ID {
					restrictionIDs = append(restrictionIDs, restriction.ID)
				}
			}
			slices.Sort(restrictionIDs)

			removed = append(removed, models.RemovedRelationship{
				PrisonerNumber: rel.PrisonerNumber,
				ContactID:      rel.ContactID,
				RelationshipID: rel.ID,
				RestrictionIDs: restrictionIDs,
			})
		}
	}
	slices.SortFunc(removed, func(a, b models.RemovedRelationship) int {
		return cmp.Compare(a.RelationshipID, b.RelationshipID)
	})
	return removed
}

func relationshipIDs(relationships []models.Relationship) []int64 {
	return ectolinq.Map(relationships, func(rel models.Relationship) int64 {
		return rel.ID
	})
}

func valueOr[T any](value *T, fallback T) T {
	if value != nil {
		return *value
	}
	return fallback
}
