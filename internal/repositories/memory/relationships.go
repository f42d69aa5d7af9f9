package memory

import (
	"context"
	"net/http"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Gobusters/ectolinq"
	"github.com/Ramsey-B/thistle/pkg/models"
)

type RelationshipStore struct {
	s *Store
}

func (r *RelationshipStore) ListByPrisoner(_ context.Context, prisonerNumber string) ([]models.Relationship, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return collect(r.s.state.relationships, func(rel models.Relationship) bool {
		return rel.PrisonerNumber == prisonerNumber
	}), nil
}

func (r *RelationshipStore) ListByContact(_ context.Context, contactID int64) ([]models.Relationship, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return collect(r.s.state.relationships, func(rel models.Relationship) bool {
		return rel.ContactID == contactID
	}), nil
}

func (r *RelationshipStore) Insert(_ context.Context, rel *models.Relationship) (*models.Relationship, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if err := r.s.fault(OpInsertRelationship); err != nil {
		return nil, err
	}

	if _, ok := r.s.state.contacts[rel.ContactID]; !ok {
		return nil, notFound("contact %d not found", rel.ContactID)
	}

	if rel.Active {
		for _, existing := range r.s.state.relationships {
			if existing.Active &&
				existing.ContactID == rel.ContactID &&
				existing.PrisonerNumber == rel.PrisonerNumber &&
				existing.RelationshipType == rel.RelationshipType {
				return nil, httperror.NewHTTPErrorf(http.StatusConflict,
					"an active relationship already exists for contact %d, prisoner %s and type %s",
					rel.ContactID, rel.PrisonerNumber, rel.RelationshipType)
			}
		}
	}

	out := *rel
	out.ID = r.s.allocateID()
	r.s.state.relationships[out.ID] = out
	return &out, nil
}

// DeleteByPrisoner also removes the relationships' restrictions, as the
// foreign key cascade does in postgres.
func (r *RelationshipStore) DeleteByPrisoner(_ context.Context, prisonerNumber string) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if err := r.s.fault(OpDeleteRelationships); err != nil {
		return 0, err
	}

	var deleted int64
	for id, rel := range r.s.state.relationships {
		if rel.PrisonerNumber != prisonerNumber {
			continue
		}
		delete(r.s.state.relationships, id)
		deleted++
		for restrictionID, restriction := range r.s.state.relationshipRestrictions {
			if restriction.RelationshipID == id {
				delete(r.s.state.relationshipRestrictions, restrictionID)
			}
		}
	}
	return deleted, nil
}

type RelationshipRestrictionStore struct {
	s *Store
}

func (r *RelationshipRestrictionStore) ListByRelationshipIDs(_ context.Context, relationshipIDs []int64) ([]models.RelationshipRestriction, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return collect(r.s.state.relationshipRestrictions, func(restriction models.RelationshipRestriction) bool {
		return ectolinq.Contains(relationshipIDs, restriction.RelationshipID)
	}), nil
}

func (r *RelationshipRestrictionStore) Insert(_ context.Context, restriction *models.RelationshipRestriction) (*models.RelationshipRestriction, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if err := r.s.fault(OpInsertRelationshipRestriction); err != nil {
		return nil, err
	}
	if _, ok := r.s.state.relationships[restriction.RelationshipID]; !ok {
		return nil, httperror.NewHTTPErrorf(http.StatusInternalServerError,
			"relationship %d does not exist", restriction.RelationshipID)
	}

	out := *restriction
	out.ID = r.s.allocateID()
	r.s.state.relationshipRestrictions[out.ID] = out
	return &out, nil
}

func (r *RelationshipRestrictionStore) DeleteByRelationshipIDs(_ context.Context, relationshipIDs []int64) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if err := r.s.fault(OpDeleteRelationshipRestriction); err != nil {
		return 0, err
	}

	var deleted int64
	for id, restriction := range r.s.state.relationshipRestrictions {
		if ectolinq.Contains(relationshipIDs, restriction.RelationshipID) {
			delete(r.s.state.relationshipRestrictions, id)
			deleted++
		}
	}
	return deleted, nil
}
