package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Ramsey-B/thistle/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore() *Store {
	store := NewStore()
	store.Contacts().Seed(1, 2, 3)
	return store
}

func relationship(contactID int64, prisonerNumber string) *models.Relationship {
	return &models.Relationship{
		ContactID:           contactID,
		PrisonerNumber:      prisonerNumber,
		RelationshipType:    models.RelationshipTypeSocial,
		RelationshipSubType: "FRI",
		Active:              true,
		CreatedBy:           "SYS",
		CreatedTime:         time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
	}
}

func TestStore_RunInTx_RollsBackButKeepsSequence(t *testing.T) {
	ctx := context.Background()
	store := newTestStore()

	kept, err := store.Relationships().Insert(ctx, relationship(1, "A1234BC"))
	require.NoError(t, err)

	boom := errors.New("boom")
	err = store.RunInTx(ctx, nil, func(ctx context.Context) error {
		_, err := store.Relationships().DeleteByPrisoner(ctx, "A1234BC")
		require.NoError(t, err)
		_, err = store.Relationships().Insert(ctx, relationship(2, "A1234BC"))
		require.NoError(t, err)
		return boom
	})
	require.ErrorIs(t, err, boom)

	rels, err := store.Relationships().ListByPrisoner(ctx, "A1234BC")
	require.NoError(t, err)
	require.Len(t, rels, 1)
	assert.Equal(t, kept.ID, rels[0].ID)

	next, err := store.Relationships().Insert(ctx, relationship(3, "A1234BC"))
	require.NoError(t, err)
	assert.Greater(t, next.ID, kept.ID+1, "ids allocated inside a rolled back transaction are not reused")
}

func TestStore_RunInTx_NestedCallsJoin(t *testing.T) {
	ctx := context.Background()
	store := newTestStore()

	err := store.RunInTx(ctx, nil, func(ctx context.Context) error {
		return store.RunInTx(ctx, nil, func(ctx context.Context) error {
			_, err := store.Relationships().Insert(ctx, relationship(1, "A1234BC"))
			return err
		})
	})
	require.NoError(t, err)

	rels, err := store.Relationships().ListByPrisoner(ctx, "A1234BC")
	require.NoError(t, err)
	assert.Len(t, rels, 1)
}

func TestStore_DuplicateActiveRelationshipConflicts(t *testing.T) {
	ctx := context.Background()
	store := newTestStore()

	_, err := store.Relationships().Insert(ctx, relationship(1, "A1234BC"))
	require.NoError(t, err)

	_, err = store.Relationships().Insert(ctx, relationship(1, "A1234BC"))
	require.Error(t, err)
	assert.Equal(t, 409, httperror.GetStatusCode(err))

	inactive := relationship(1, "A1234BC")
	inactive.Active = false
	_, err = store.Relationships().Insert(ctx, inactive)
	assert.NoError(t, err)
}

func TestStore_DeleteRelationshipsCascades(t *testing.T) {
	ctx := context.Background()
	store := newTestStore()

	rel, err := store.Relationships().Insert(ctx, relationship(1, "A1234BC"))
	require.NoError(t, err)
	_, err = store.RelationshipRestrictions().Insert(ctx, &models.RelationshipRestriction{RelationshipID: rel.ID, RestrictionType: "BAN"})
	require.NoError(t, err)

	deleted, err := store.Relationships().DeleteByPrisoner(ctx, "A1234BC")
	require.NoError(t, err)
	assert.EqualValues(t, 1, deleted)

	restrictions, err := store.RelationshipRestrictions().ListByRelationshipIDs(ctx, []int64{rel.ID})
	require.NoError(t, err)
	assert.Empty(t, restrictions)
}

func TestStore_ActiveValuesKeepOneActivePerPrisoner(t *testing.T) {
	ctx := context.Background()
	store := newTestStore()
	values := store.ActiveValues()
	kind := models.ActiveValueDomesticStatus

	first, err := values.Insert(ctx, kind, &models.ActiveValue{PrisonerNumber: "A1234BC", Value: "S", Active: true})
	require.NoError(t, err)

	_, err = values.Insert(ctx, kind, &models.ActiveValue{PrisonerNumber: "A1234BC", Value: "M", Active: true})
	assert.Equal(t, 409, httperror.GetStatusCode(err))

	other, err := values.Insert(ctx, kind, &models.ActiveValue{PrisonerNumber: "B1234BC", Value: "M", Active: true})
	require.NoError(t, err)

	err = values.Reparent(ctx, kind, []int64{other.ID}, "A1234BC")
	assert.Equal(t, 409, httperror.GetStatusCode(err))

	require.NoError(t, values.SetActive(ctx, kind, first.ID, false))
	require.NoError(t, values.Reparent(ctx, kind, []int64{other.ID}, "A1234BC"))

	active, err := values.GetActive(ctx, kind, "A1234BC")
	require.NoError(t, err)
	require.NotNil(t, active)
	assert.Equal(t, other.ID, active.ID)

	none, err := values.GetActive(ctx, kind, "B1234BC")
	require.NoError(t, err)
	assert.Nil(t, none)
}

func TestStore_FailOn(t *testing.T) {
	ctx := context.Background()
	store := newTestStore()
	boom := errors.New("boom")

	store.FailOn(OpInsertPrisonerRestriction, boom)
	_, err := store.PrisonerRestrictions().Insert(ctx, &models.PrisonerRestriction{PrisonerNumber: "A1234BC"})
	assert.ErrorIs(t, err, boom)

	store.ClearFaults()
	_, err = store.PrisonerRestrictions().Insert(ctx, &models.PrisonerRestriction{PrisonerNumber: "A1234BC"})
	assert.NoError(t, err)
}

func TestStore_RelationshipForUnknownContactNotFound(t *testing.T) {
	ctx := context.Background()
	store := newTestStore()

	_, err := store.Relationships().Insert(ctx, relationship(999999, "A1234BC"))
	require.Error(t, err)
	assert.Equal(t, 404, httperror.GetStatusCode(err))

	rels, err := store.Relationships().ListByPrisoner(ctx, "A1234BC")
	require.NoError(t, err)
	assert.Empty(t, rels)
}

func TestContactStore_AddContactSkipsSeededIDs(t *testing.T) {
	store := newTestStore()

	contact := store.Contacts().AddContact(models.Contact{LastName: "Smith"})
	assert.NotContains(t, []int64{1, 2, 3}, contact.ID)

	seeded, err := store.Contacts().Get(context.Background(), 1)
	require.NoError(t, err)
	require.NotNil(t, seeded)
	assert.Empty(t, seeded.LastName)
}
