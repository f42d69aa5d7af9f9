//go:build integration

package syncservice

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Ramsey-B/thistle/internal/repositories/activevalue"
	"github.com/Ramsey-B/thistle/internal/repositories/contact"
	"github.com/Ramsey-B/thistle/internal/repositories/prisonerrestriction"
	"github.com/Ramsey-B/thistle/internal/repositories/referencecode"
	"github.com/Ramsey-B/thistle/internal/repositories/relationship"
	"github.com/Ramsey-B/thistle/internal/testutil/containers"
	"github.com/Ramsey-B/thistle/pkg/consolidation"
	"github.com/Ramsey-B/thistle/pkg/database"
	"github.com/Ramsey-B/thistle/pkg/events"
	"github.com/Ramsey-B/thistle/pkg/merging"
	"github.com/Ramsey-B/thistle/pkg/models"
	"github.com/Ramsey-B/thistle/pkg/reconciliation"
	"github.com/Ramsey-B/thistle/pkg/refdata"
	"github.com/Ramsey-B/thistle/pkg/restrictions"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type postgresFixture struct {
	pg            *containers.PostgresContainer
	service       *Service
	relationships *relationship.Repository
	values        *activevalue.Repository
	restrictions  *prisonerrestriction.Repository
	publisher     *recordingPublisher
}

func newPostgresFixture(t *testing.T) *postgresFixture {
	if testing.Short() {
		t.Skip("skipping postgres test in short mode")
	}

	pg := containers.NewPostgresContainer(t, testLogger)
	db := pg.DB

	relationships := relationship.NewRepository(db, testLogger)
	relationshipRestrictions := relationship.NewRestrictionRepository(db, testLogger)
	values := activevalue.NewRepository(db, testLogger)
	prisonerRestrictions := prisonerrestriction.NewRepository(db, testLogger)
	validator := refdata.NewValidator(nil, referencecode.NewRepository(db, testLogger), time.Minute, testLogger)
	publisher := &recordingPublisher{}

	service := NewService(Dependencies{
		Tx:            db,
		Values:        merging.NewRecencyMerger(values, testLogger),
		Relationships: consolidation.NewConsolidator(relationships, relationshipRestrictions, validator, testLogger),
		Restrictions:  restrictions.NewMerger(prisonerRestrictions, validator, testLogger),
		Snapshots: reconciliation.NewBuilder(
			contact.NewRepository(db, testLogger),
			relationships,
			relationshipRestrictions,
			values,
			prisonerRestrictions,
			testLogger,
		),
		Validator: validator,
		Emitter:   events.NewEmitter(publisher, testLogger),
	}, testLogger)

	return &postgresFixture{
		pg:            pg,
		service:       service,
		relationships: relationships,
		values:        values,
		restrictions:  prisonerRestrictions,
		publisher:     publisher,
	}
}

func (f *postgresFixture) reset(t *testing.T) {
	f.pg.Truncate(t)
	f.publisher.published = nil
}

func (f *postgresFixture) insertContact(t *testing.T, lastName string) int64 {
	t.Helper()
	var id int64
	err := f.pg.SQLX.Get(&id,
		`INSERT INTO contact (last_name, first_name, created_by) VALUES ($1, 'Test', 'SYS') RETURNING contact_id`,
		lastName)
	require.NoError(t, err)
	return id
}

func (f *postgresFixture) insertRelationship(t *testing.T, contactID int64, prisonerNumber string) *models.Relationship {
	t.Helper()
	rel, err := f.relationships.Insert(context.Background(), &models.Relationship{
		ContactID:           contactID,
		PrisonerNumber:      prisonerNumber,
		RelationshipType:    models.RelationshipTypeSocial,
		RelationshipSubType: "FRI",
		Active:              true,
		CurrentTerm:         true,
		CreatedBy:           "SYS",
		CreatedTime:         created,
	})
	require.NoError(t, err)
	return rel
}

func TestPostgres_Service(t *testing.T) {
	f := newPostgresFixture(t)
	ctx := context.Background()

	t.Run("merge relationships moves the removed identity's contacts", func(t *testing.T) {
		f.reset(t)
		first := f.insertContact(t, "One")
		second := f.insertContact(t, "Two")
		old := f.insertRelationship(t, first, "A4444AA")
		f.insertRelationship(t, second, "A4444AA")

		result, err := f.service.MergeRelationships(ctx, models.MergeRelationshipsRequest{
			RetainedPrisonerNumber: "A3333AA",
			RemovedPrisonerNumber:  "A4444AA",
			Relationships: []models.SyncRelationship{{
				SourceID:         900,
				ContactID:        first,
				PrisonerNumber:   "A3333AA",
				RelationshipType: models.RelationshipTypeSocial,
				SubType:          "MOT",
				Active:           true,
				CurrentTerm:      true,
				Restrictions: []models.SyncRelationshipRestriction{
					{SourceID: 901, RestrictionType: "BAN"},
				},
			}},
		})
		require.NoError(t, err)

		require.Len(t, result.RelationshipsCreated, 1)
		assert.Len(t, result.RelationshipsRemoved, 2)
		assert.NotEqual(t, old.ID, result.RelationshipsCreated[0].Relationship.NewID)
		assert.Len(t, result.RelationshipsCreated[0].Restrictions, 1)

		removed, err := f.relationships.ListByPrisoner(ctx, "A4444AA")
		require.NoError(t, err)
		assert.Empty(t, removed)

		retained, err := f.relationships.ListByPrisoner(ctx, "A3333AA")
		require.NoError(t, err)
		require.Len(t, retained, 1)
		assert.Equal(t, "MOT", retained[0].RelationshipSubType)
	})

	t.Run("reset rolls back when a code is unknown", func(t *testing.T) {
		f.reset(t)
		contactID := f.insertContact(t, "Three")
		existing := f.insertRelationship(t, contactID, "A1111AA")

		_, err := f.service.ResetRelationships(ctx, models.ResetRelationshipsRequest{
			PrisonerNumber: "A1111AA",
			Relationships: []models.SyncRelationship{{
				SourceID:         1,
				ContactID:        contactID,
				PrisonerNumber:   "A1111AA",
				RelationshipType: models.RelationshipTypeSocial,
				SubType:          "NOPE",
				Active:           true,
			}},
		})

		require.Error(t, err)
		assert.Equal(t, http.StatusBadRequest, httperror.GetStatusCode(err))

		rows, err := f.relationships.ListByPrisoner(ctx, "A1111AA")
		require.NoError(t, err)
		require.Len(t, rows, 1)
		assert.Equal(t, existing.ID, rows[0].ID)
		assert.Empty(t, f.publisher.published)
	})

	t.Run("duplicate active relationship is a conflict", func(t *testing.T) {
		f.reset(t)
		contactID := f.insertContact(t, "Four")
		f.insertRelationship(t, contactID, "A2222AA")

		_, err := f.relationships.Insert(ctx, &models.Relationship{
			ContactID:           contactID,
			PrisonerNumber:      "A2222AA",
			RelationshipType:    models.RelationshipTypeSocial,
			RelationshipSubType: "BRO",
			Active:              true,
			CreatedBy:           "SYS",
			CreatedTime:         created,
		})
		require.Error(t, err)
		assert.Equal(t, http.StatusConflict, httperror.GetStatusCode(err))
	})

	t.Run("relationship for unknown contact is not found", func(t *testing.T) {
		f.reset(t)
		contactID := f.insertContact(t, "Seven")
		existing := f.insertRelationship(t, contactID, "A2222AA")

		_, err := f.service.ResetRelationships(ctx, models.ResetRelationshipsRequest{
			PrisonerNumber: "A2222AA",
			Relationships: []models.SyncRelationship{{
				SourceID:         1,
				ContactID:        contactID + 1000,
				PrisonerNumber:   "A2222AA",
				RelationshipType: models.RelationshipTypeSocial,
				SubType:          "FRI",
				Active:           true,
			}},
		})
		require.Error(t, err)
		assert.Equal(t, http.StatusNotFound, httperror.GetStatusCode(err))

		rows, err := f.relationships.ListByPrisoner(ctx, "A2222AA")
		require.NoError(t, err)
		require.Len(t, rows, 1)
		assert.Equal(t, existing.ID, rows[0].ID)
	})

	t.Run("domestic status merge keeps one active row", func(t *testing.T) {
		f.reset(t)
		for _, row := range []struct {
			prisonerNumber string
			value          string
			at             time.Time
		}{
			{"A3333AA", "S", created},
			{"A4444AA", "M", created.Add(time.Hour)},
		} {
			_, err := f.values.Insert(ctx, models.ActiveValueDomesticStatus, &models.ActiveValue{
				PrisonerNumber: row.prisonerNumber,
				Value:          row.value,
				Active:         true,
				CreatedBy:      "SYS",
				CreatedTime:    row.at,
			})
			require.NoError(t, err)
		}

		result, err := f.service.MergeActiveValue(ctx, models.ActiveValueDomesticStatus, models.MergePrisonerRequest{
			RetainingPrisonerNumber: "A3333AA",
			RemovingPrisonerNumber:  "A4444AA",
		})
		require.NoError(t, err)
		assert.True(t, result.WasNewlyActiveCreated)

		active, err := f.values.GetActive(ctx, models.ActiveValueDomesticStatus, "A3333AA")
		require.NoError(t, err)
		require.NotNil(t, active)
		assert.Equal(t, "M", active.Value)

		history, err := f.values.ListByPrisoner(ctx, models.ActiveValueDomesticStatus, "A3333AA")
		require.NoError(t, err)
		assert.Len(t, history, 2)
	})

	t.Run("restriction reset replaces the set", func(t *testing.T) {
		f.reset(t)
		_, err := f.restrictions.Insert(ctx, &models.PrisonerRestriction{
			PrisonerNumber:  "A5555AA",
			RestrictionType: "CCTV",
			EffectiveDate:   models.NewLocalDate(2023, time.January, 1),
			CreatedBy:       "SYS",
			CreatedTime:     created,
		})
		require.NoError(t, err)

		result, err := f.service.ResetRestrictions(ctx, models.ResetPrisonerRestrictionsRequest{
			PrisonerNumber: "A5555AA",
			Restrictions: []models.SyncPrisonerRestriction{{
				RestrictionType: "BAN",
				EffectiveDate:   models.NewLocalDate(2024, time.March, 1),
				CreatedBy:       "JSMITH",
				CreatedTime:     created,
			}},
		})
		require.NoError(t, err)
		assert.Len(t, result.DeletedIDs, 1)
		assert.Len(t, result.CreatedIDs, 1)

		rows, err := f.restrictions.ListByPrisoner(ctx, "A5555AA")
		require.NoError(t, err)
		require.Len(t, rows, 1)
		assert.Equal(t, "BAN", rows[0].RestrictionType)
	})

	t.Run("reconcile reads a consistent contact snapshot", func(t *testing.T) {
		f.reset(t)
		contactID := f.insertContact(t, "Five")
		f.insertRelationship(t, contactID, "A6666AA")

		snapshot, err := f.service.ReconcileContact(ctx, contactID)
		require.NoError(t, err)
		assert.Equal(t, "Five", snapshot.LastName)
		require.Len(t, snapshot.Relationships, 1)
		assert.Equal(t, "A6666AA", snapshot.Relationships[0].PrisonerNumber)

		_, err = f.service.ReconcileContact(ctx, contactID+1000)
		require.Error(t, err)
		assert.Equal(t, http.StatusNotFound, httperror.GetStatusCode(err))
	})
}

func TestPostgres_RunInTxRollsBack(t *testing.T) {
	f := newPostgresFixture(t)
	ctx := context.Background()
	contactID := f.insertContact(t, "Six")

	err := f.pg.DB.RunInTx(ctx, database.ReadCommitted, func(ctx context.Context) error {
		f.insertRelationshipCtx(ctx, t, contactID, "A7777AA")
		return assert.AnError
	})
	require.ErrorIs(t, err, assert.AnError)

	rows, err := f.relationships.ListByPrisoner(ctx, "A7777AA")
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func (f *postgresFixture) insertRelationshipCtx(ctx context.Context, t *testing.T, contactID int64, prisonerNumber string) {
	t.Helper()
	_, err := f.relationships.Insert(ctx, &models.Relationship{
		ContactID:           contactID,
		PrisonerNumber:      prisonerNumber,
		RelationshipType:    models.RelationshipTypeOfficial,
		RelationshipSubType: "SOL",
		Active:              true,
		CreatedBy:           "SYS",
		CreatedTime:         created,
	})
	require.NoError(t, err)
}
