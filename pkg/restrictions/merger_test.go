package restrictions

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Gobusters/ectologger"
	"github.com/Ramsey-B/thistle/internal/repositories/memory"
	"github.com/Ramsey-B/thistle/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type validatorFunc func(ctx context.Context, refs ...models.CodeRef) error

func (f validatorFunc) ValidateAll(ctx context.Context, refs ...models.CodeRef) error {
	return f(ctx, refs...)
}

var created = time.Date(2024, 2, 10, 9, 30, 0, 0, time.UTC)

func newTestMerger(validator CodeValidator) (*Merger, *memory.Store) {
	store := memory.NewStore()
	logger := ectologger.NewEctoLogger(func(_ ectologger.EctoLogMessage) {})
	return NewMerger(store.PrisonerRestrictions(), validator, logger), store
}

func seed(t *testing.T, store *memory.Store, prisonerNumber, restrictionType string) models.PrisonerRestriction {
	t.Helper()
	restriction, err := store.PrisonerRestrictions().Insert(context.Background(), &models.PrisonerRestriction{
		PrisonerNumber:  prisonerNumber,
		RestrictionType: restrictionType,
		EffectiveDate:   models.NewLocalDate(2024, time.January, 1),
		CurrentTerm:     true,
		CreatedBy:       "SYS",
		CreatedTime:     created,
	})
	require.NoError(t, err)
	return *restriction
}

func inTx[T any](store *memory.Store, fn func(ctx context.Context) (T, error)) (T, error) {
	var out T
	err := store.RunInTx(context.Background(), nil, func(ctx context.Context) error {
		var err error
		out, err = fn(ctx)
		return err
	})
	return out, err
}

func list(t *testing.T, store *memory.Store, prisonerNumber string) []models.PrisonerRestriction {
	t.Helper()
	rows, err := store.PrisonerRestrictions().ListByPrisoner(context.Background(), prisonerNumber)
	require.NoError(t, err)
	return rows
}

func TestMerger_MergeMovesRestrictionsWithNewIDs(t *testing.T) {
	merger, store := newTestMerger(nil)
	kept := seed(t, store, "A1111AA", "BAN")
	first := seed(t, store, "A2222AA", "CCTV")
	second := seed(t, store, "A2222AA", "CHILD")

	result, err := inTx(store, func(ctx context.Context) (*models.RestrictionMergeResult, error) {
		return merger.Merge(ctx, "A1111AA", "A2222AA")
	})
	require.NoError(t, err)

	assert.True(t, result.HasChanged)
	assert.Equal(t, []int64{first.ID, second.ID}, result.DeletedIDs)
	require.Len(t, result.Created, 2)
	for i, source := range []models.PrisonerRestriction{first, second} {
		assert.NotEqual(t, source.ID, result.Created[i].ID)
		assert.Equal(t, "A1111AA", result.Created[i].PrisonerNumber)
		assert.Equal(t, source.RestrictionType, result.Created[i].RestrictionType)
		assert.Equal(t, source.EffectiveDate, result.Created[i].EffectiveDate)
	}
	assert.Equal(t, []models.IDPair{
		{ElementType: models.ElementTypePrisonerRestriction, SourceID: first.ID, NewID: result.Created[0].ID},
		{ElementType: models.ElementTypePrisonerRestriction, SourceID: second.ID, NewID: result.Created[1].ID},
	}, result.IDs)

	assert.Empty(t, list(t, store, "A2222AA"))
	retained := list(t, store, "A1111AA")
	require.Len(t, retained, 3)
	assert.Equal(t, kept.ID, retained[0].ID)
}

func TestMerger_MergeWithNothingToMoveIsNoOp(t *testing.T) {
	merger, store := newTestMerger(nil)
	kept := seed(t, store, "A1111AA", "BAN")
	before := store.LastID()

	result, err := inTx(store, func(ctx context.Context) (*models.RestrictionMergeResult, error) {
		return merger.Merge(ctx, "A1111AA", "A2222AA")
	})
	require.NoError(t, err)

	assert.False(t, result.HasChanged)
	assert.Empty(t, result.Created)
	assert.Empty(t, result.IDs)
	assert.Empty(t, result.DeletedIDs)
	assert.Equal(t, before, store.LastID())
	assert.Equal(t, []models.PrisonerRestriction{kept}, list(t, store, "A1111AA"))
}

func TestMerger_MergeIntoItselfIsRejected(t *testing.T) {
	merger, store := newTestMerger(nil)

	_, err := inTx(store, func(ctx context.Context) (*models.RestrictionMergeResult, error) {
		return merger.Merge(ctx, "A1111AA", "A1111AA")
	})
	require.Error(t, err)
	assert.Equal(t, http.StatusBadRequest, httperror.GetStatusCode(err))
}

func TestMerger_MergeFailureLeavesBothIdentitiesUntouched(t *testing.T) {
	merger, store := newTestMerger(nil)
	seed(t, store, "A1111AA", "BAN")
	seed(t, store, "A2222AA", "CCTV")
	boom := errors.New("delete failed")
	store.FailOn(memory.OpDeletePrisonerRestrictions, boom)

	_, err := inTx(store, func(ctx context.Context) (*models.RestrictionMergeResult, error) {
		return merger.Merge(ctx, "A1111AA", "A2222AA")
	})
	require.ErrorIs(t, err, boom)

	assert.Len(t, list(t, store, "A1111AA"), 1)
	assert.Len(t, list(t, store, "A2222AA"), 1)
}

func TestMerger_Reset(t *testing.T) {
	incoming := func(types ...string) []models.SyncPrisonerRestriction {
		out := make([]models.SyncPrisonerRestriction, 0, len(types))
		for _, restrictionType := range types {
			out = append(out, models.SyncPrisonerRestriction{
				RestrictionType: restrictionType,
				EffectiveDate:   models.NewLocalDate(2024, time.March, 4),
				CurrentTerm:     true,
				CreatedBy:       "JSMITH",
			})
		}
		return out
	}

	tests := []struct {
		name     string
		existing []string
		incoming []models.SyncPrisonerRestriction
		created  int
	}{
		{name: "replaces existing", existing: []string{"BAN", "CCTV"}, incoming: incoming("CHILD"), created: 1},
		{name: "empty clears", existing: []string{"BAN"}, incoming: nil, created: 0},
		{name: "nothing existing", incoming: incoming("BAN", "NONCON"), created: 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			merger, store := newTestMerger(nil)
			var existingIDs []int64
			for _, restrictionType := range tt.existing {
				existingIDs = append(existingIDs, seed(t, store, "A1234BC", restrictionType).ID)
			}

			result, err := inTx(store, func(ctx context.Context) (*models.RestrictionResetResult, error) {
				return merger.Reset(ctx, "A1234BC", tt.incoming)
			})
			require.NoError(t, err)

			assert.ElementsMatch(t, existingIDs, result.DeletedIDs)
			assert.Len(t, result.CreatedIDs, tt.created)

			rows := list(t, store, "A1234BC")
			require.Len(t, rows, tt.created)
			for i, row := range rows {
				assert.Equal(t, result.CreatedIDs[i], row.ID)
				assert.Equal(t, tt.incoming[i].RestrictionType, row.RestrictionType)
				assert.Equal(t, "JSMITH", row.CreatedBy)
				assert.False(t, row.CreatedTime.IsZero())
			}
		})
	}
}

func TestMerger_ResetValidatesBeforeDeleting(t *testing.T) {
	rejectUnknown := validatorFunc(func(_ context.Context, refs ...models.CodeRef) error {
		for _, ref := range refs {
			if ref.Code == "NOPE" {
				return httperror.NewHTTPErrorf(http.StatusBadRequest, "invalid %s code %s", ref.Group, ref.Code)
			}
		}
		return nil
	})

	tests := []struct {
		name        string
		restriction models.SyncPrisonerRestriction
	}{
		{
			name:        "unknown restriction type",
			restriction: models.SyncPrisonerRestriction{RestrictionType: "NOPE", EffectiveDate: models.NewLocalDate(2024, time.May, 1), CreatedBy: "SYS"},
		},
		{
			name:        "missing effective date",
			restriction: models.SyncPrisonerRestriction{RestrictionType: "BAN", CreatedBy: "SYS"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			merger, store := newTestMerger(rejectUnknown)
			existing := seed(t, store, "A1234BC", "BAN")

			_, err := inTx(store, func(ctx context.Context) (*models.RestrictionResetResult, error) {
				return merger.Reset(ctx, "A1234BC", []models.SyncPrisonerRestriction{tt.restriction})
			})
			require.Error(t, err)
			assert.Equal(t, http.StatusBadRequest, httperror.GetStatusCode(err))
			assert.Equal(t, []models.PrisonerRestriction{existing}, list(t, store, "A1234BC"))
		})
	}
}

func TestMerger_ResetInsertFailureRestoresPreviousSet(t *testing.T) {
	merger, store := newTestMerger(nil)
	existing := seed(t, store, "A1234BC", "BAN")
	boom := errors.New("insert failed")
	store.FailOn(memory.OpInsertPrisonerRestriction, boom)

	_, err := inTx(store, func(ctx context.Context) (*models.RestrictionResetResult, error) {
		return merger.Reset(ctx, "A1234BC", []models.SyncPrisonerRestriction{{
			RestrictionType: "CCTV",
			EffectiveDate:   models.NewLocalDate(2024, time.May, 1),
			CreatedBy:       "SYS",
		}})
	})
	require.ErrorIs(t, err, boom)
	assert.Equal(t, []models.PrisonerRestriction{existing}, list(t, store, "A1234BC"))
}
