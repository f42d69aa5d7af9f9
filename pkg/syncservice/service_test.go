package syncservice

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Gobusters/ectologger"
	"github.com/Ramsey-B/thistle/internal/repositories/memory"
	"github.com/Ramsey-B/thistle/pkg/consolidation"
	"github.com/Ramsey-B/thistle/pkg/events"
	"github.com/Ramsey-B/thistle/pkg/kafka"
	"github.com/Ramsey-B/thistle/pkg/merging"
	"github.com/Ramsey-B/thistle/pkg/models"
	"github.com/Ramsey-B/thistle/pkg/reconciliation"
	"github.com/Ramsey-B/thistle/pkg/refdata"
	"github.com/Ramsey-B/thistle/pkg/restrictions"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingPublisher struct {
	published []*kafka.DomainEvent
	err       error
}

func (p *recordingPublisher) PublishDomainEvents(_ context.Context, batch []*kafka.DomainEvent) error {
	if p.err != nil {
		return p.err
	}
	p.published = append(p.published, batch...)
	return nil
}

func (p *recordingPublisher) types() []string {
	out := make([]string, len(p.published))
	for i, e := range p.published {
		out[i] = e.EventType
	}
	return out
}

var (
	testLogger = ectologger.NewEctoLogger(func(_ ectologger.EctoLogMessage) {})
	created    = time.Date(2023, 8, 14, 9, 0, 0, 0, time.UTC)
)

func newTestService(publisher events.Publisher) (*Service, *memory.Store) {
	store := memory.NewStore()
	store.Contacts().Seed(1, 2, 3, 4, 5, 6, 7, 8, 9, 10)
	codes := store.ReferenceCodes()
	codes.Seed(models.GroupSocialRelationship, "FRI", "MOT")
	codes.Seed(models.GroupOfficialRelationship, "SOL")
	codes.Seed(models.GroupRestriction, "BAN", "CCTV")
	codes.Seed(models.GroupDomesticStatus, "S", "M")

	validator := refdata.NewValidator(nil, codes, time.Minute, testLogger)
	service := NewService(Dependencies{
		Tx:            store,
		Values:        merging.NewRecencyMerger(store.ActiveValues(), testLogger),
		Relationships: consolidation.NewConsolidator(store.Relationships(), store.RelationshipRestrictions(), validator, testLogger),
		Restrictions:  restrictions.NewMerger(store.PrisonerRestrictions(), validator, testLogger),
		Snapshots: reconciliation.NewBuilder(
			store.Contacts(),
			store.Relationships(),
			store.RelationshipRestrictions(),
			store.ActiveValues(),
			store.PrisonerRestrictions(),
			testLogger,
		),
		Validator: validator,
		Emitter:   events.NewEmitter(publisher, testLogger),
	}, testLogger)
	return service, store
}

func seedRelationship(t *testing.T, store *memory.Store, contactID int64, prisonerNumber string, restrictionTypes ...string) models.Relationship {
	t.Helper()
	ctx := context.Background()
	rel, err := store.Relationships().Insert(ctx, &models.Relationship{
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
	for _, restrictionType := range restrictionTypes {
		_, err := store.RelationshipRestrictions().Insert(ctx, &models.RelationshipRestriction{
			RelationshipID:  rel.ID,
			RestrictionType: restrictionType,
			CreatedBy:       "SYS",
			CreatedTime:     created,
		})
		require.NoError(t, err)
	}
	return *rel
}

func seedValue(t *testing.T, store *memory.Store, kind models.ActiveValueKind, prisonerNumber, value string, at time.Time) models.ActiveValue {
	t.Helper()
	row, err := store.ActiveValues().Insert(context.Background(), kind, &models.ActiveValue{
		PrisonerNumber: prisonerNumber,
		Value:          value,
		Active:         true,
		CreatedBy:      "SYS",
		CreatedTime:    at,
	})
	require.NoError(t, err)
	return *row
}

func TestService_MergeRelationshipsEndToEnd(t *testing.T) {
	publisher := &recordingPublisher{}
	service, store := newTestService(publisher)
	ctx := context.Background()

	for contactID := int64(1); contactID <= 5; contactID++ {
		if contactID <= 2 {
			seedRelationship(t, store, contactID, "A4444AA", "BAN")
			continue
		}
		seedRelationship(t, store, contactID, "A4444AA")
	}

	result, err := service.MergeRelationships(ctx, models.MergeRelationshipsRequest{
		RetainedPrisonerNumber: "A3333AA",
		RemovedPrisonerNumber:  "A4444AA",
	})
	require.NoError(t, err)

	assert.Empty(t, result.RelationshipsCreated)
	assert.Len(t, result.RelationshipsRemoved, 5)

	remaining, err := store.Relationships().ListByPrisoner(ctx, "A4444AA")
	require.NoError(t, err)
	assert.Empty(t, remaining)

	deletes := 0
	for _, e := range publisher.published {
		assert.Contains(t, []string{events.PrisonerContactDeleted, events.PrisonerContactRestrictionDeleted}, e.EventType)
		assert.Equal(t, "A4444AA", e.PrisonerNumber)
		deletes++
	}
	assert.Equal(t, 7, deletes)
}

func TestService_PublishFailureKeepsCommittedData(t *testing.T) {
	publisher := &recordingPublisher{err: errors.New("broker unavailable")}
	service, store := newTestService(publisher)
	ctx := context.Background()

	result, err := service.ResetRestrictions(ctx, models.ResetPrisonerRestrictionsRequest{
		PrisonerNumber: "A1234BC",
		Restrictions: []models.SyncPrisonerRestriction{{
			RestrictionType: "BAN",
			EffectiveDate:   models.NewLocalDate(2024, time.January, 5),
			CreatedBy:       "JSMITH",
		}},
	})
	require.NoError(t, err)
	require.Len(t, result.CreatedIDs, 1)

	rows, err := store.PrisonerRestrictions().ListByPrisoner(ctx, "A1234BC")
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, result.CreatedIDs[0], rows[0].ID)
}

func TestService_FailedOperationPublishesNothing(t *testing.T) {
	publisher := &recordingPublisher{}
	service, store := newTestService(publisher)
	seedRelationship(t, store, 1, "A2222AA", "BAN")
	store.FailOn(memory.OpInsertRelationship, errors.New("disk full"))

	_, err := service.MergeRelationships(context.Background(), models.MergeRelationshipsRequest{
		RetainedPrisonerNumber: "A1111AA",
		RemovedPrisonerNumber:  "A2222AA",
		Relationships: []models.SyncRelationship{{
			SourceID:         100,
			ContactID:        1,
			PrisonerNumber:   "A1111AA",
			RelationshipType: models.RelationshipTypeSocial,
			SubType:          "FRI",
			Active:           true,
		}},
	})
	require.Error(t, err)
	assert.Empty(t, publisher.published)

	remaining, err := store.Relationships().ListByPrisoner(context.Background(), "A2222AA")
	require.NoError(t, err)
	assert.Len(t, remaining, 1)
}

func TestService_MergeActiveValue(t *testing.T) {
	publisher := &recordingPublisher{}
	service, store := newTestService(publisher)
	seedValue(t, store, models.ActiveValueDomesticStatus, "A1111AA", "S", created)
	removing := seedValue(t, store, models.ActiveValueDomesticStatus, "A2222AA", "M", created.Add(time.Hour))

	result, err := service.MergeActiveValue(context.Background(), models.ActiveValueDomesticStatus, models.MergePrisonerRequest{
		RetainingPrisonerNumber: "A1111AA",
		RemovingPrisonerNumber:  "A2222AA",
	})
	require.NoError(t, err)

	assert.True(t, result.WasNewlyActiveCreated)
	require.NotNil(t, result.NewActiveRecordID)
	assert.Equal(t, removing.ID, *result.NewActiveRecordID)
	assert.Equal(t, []string{events.PrisonerDomesticStatusCreated}, publisher.types())
	assert.Equal(t, "A1111AA", publisher.published[0].PrisonerNumber)
}

func TestService_MergeActiveValueIntoItself(t *testing.T) {
	service, _ := newTestService(nil)

	_, err := service.MergeActiveValue(context.Background(), models.ActiveValueNumberOfChildren, models.MergePrisonerRequest{
		RetainingPrisonerNumber: "A1111AA",
		RemovingPrisonerNumber:  "A1111AA",
	})
	require.Error(t, err)
	assert.Equal(t, http.StatusBadRequest, httperror.GetStatusCode(err))
}

func TestService_SupersedeActiveValue(t *testing.T) {
	tests := []struct {
		name       string
		kind       models.ActiveValueKind
		value      string
		wantStatus int
	}{
		{name: "domestic status", kind: models.ActiveValueDomesticStatus, value: "M"},
		{name: "number of children", kind: models.ActiveValueNumberOfChildren, value: "3"},
		{name: "unknown domestic status", kind: models.ActiveValueDomesticStatus, value: "Q", wantStatus: http.StatusBadRequest},
		{name: "non numeric children", kind: models.ActiveValueNumberOfChildren, value: "three", wantStatus: http.StatusBadRequest},
		{name: "negative children", kind: models.ActiveValueNumberOfChildren, value: "-1", wantStatus: http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			publisher := &recordingPublisher{}
			service, store := newTestService(publisher)
			ctx := context.Background()
			previous := seedValue(t, store, tt.kind, "A1234BC", "1", created)

			result, err := service.SupersedeActiveValue(ctx, tt.kind, "A1234BC", models.SupersedeValueRequest{Value: tt.value})
			if tt.wantStatus != 0 {
				require.Error(t, err)
				assert.Equal(t, tt.wantStatus, httperror.GetStatusCode(err))
				assert.Empty(t, publisher.published)
				return
			}
			require.NoError(t, err)

			require.NotNil(t, result.PreviousActiveRecordID)
			assert.Equal(t, previous.ID, *result.PreviousActiveRecordID)

			active, err := store.ActiveValues().GetActive(ctx, tt.kind, "A1234BC")
			require.NoError(t, err)
			require.NotNil(t, active)
			assert.Equal(t, result.ID, active.ID)
			assert.Equal(t, tt.value, active.Value)
			assert.Equal(t, "SYS", active.CreatedBy)

			history, err := store.ActiveValues().ListByPrisoner(ctx, tt.kind, "A1234BC")
			require.NoError(t, err)
			assert.Len(t, history, 2)

			require.Len(t, publisher.published, 1)
			assert.Equal(t, result.ID, publisher.published[0].Identifier)
		})
	}
}

func TestService_MergeRestrictions(t *testing.T) {
	publisher := &recordingPublisher{}
	service, store := newTestService(publisher)
	_, err := store.PrisonerRestrictions().Insert(context.Background(), &models.PrisonerRestriction{
		PrisonerNumber:  "A2222AA",
		RestrictionType: "CCTV",
		EffectiveDate:   models.NewLocalDate(2023, time.March, 1),
		CreatedBy:       "SYS",
		CreatedTime:     created,
	})
	require.NoError(t, err)

	result, err := service.MergeRestrictions(context.Background(), models.MergePrisonerRequest{
		RetainingPrisonerNumber: "A1111AA",
		RemovingPrisonerNumber:  "A2222AA",
	})
	require.NoError(t, err)

	assert.True(t, result.HasChanged)
	assert.Equal(t, []string{
		events.PrisonerRestrictionDeleted,
		events.PrisonerRestrictionCreated,
		events.PrisonerRestrictionsChanged,
	}, publisher.types())

	publisher.published = nil
	result, err = service.MergeRestrictions(context.Background(), models.MergePrisonerRequest{
		RetainingPrisonerNumber: "A1111AA",
		RemovingPrisonerNumber:  "A2222AA",
	})
	require.NoError(t, err)
	assert.False(t, result.HasChanged)
	assert.Empty(t, publisher.published)
}

func TestService_Reconcile(t *testing.T) {
	service, store := newTestService(nil)
	contact := store.Contacts().AddContact(models.Contact{LastName: "Smith", FirstName: "Jo", CreatedBy: "SYS", CreatedTime: created})
	seedRelationship(t, store, contact.ID, "A1234BC", "BAN")
	ctx := context.Background()

	first, err := service.ReconcileContact(ctx, contact.ID)
	require.NoError(t, err)
	second, err := service.ReconcileContact(ctx, contact.ID)
	require.NoError(t, err)
	assert.Equal(t, first, second)
	require.Len(t, first.Relationships, 1)
	assert.Len(t, first.Relationships[0].Restrictions, 1)

	_, err = service.ReconcileContact(ctx, contact.ID+1000)
	assert.Equal(t, http.StatusNotFound, httperror.GetStatusCode(err))

	prisoner, err := service.ReconcilePrisoner(ctx, "A1234BC")
	require.NoError(t, err)
	assert.Len(t, prisoner.Relationships, 1)
}
