// Package merging consolidates single-active-value histories when two prisoner
// identities are merged.
package merging

import (
	"context"
	"time"

	"github.com/Gobusters/ectolinq"
	"github.com/Gobusters/ectologger"
	"github.com/Ramsey-B/thistle/pkg/models"
	"github.com/Ramsey-B/thistle/pkg/tracing"
)

// Store is the single-active-value access the merger needs.
type Store interface {
	GetActive(ctx context.Context, kind models.ActiveValueKind, prisonerNumber string) (*models.ActiveValue, error)
	ListByPrisoner(ctx context.Context, kind models.ActiveValueKind, prisonerNumber string) ([]models.ActiveValue, error)
	Insert(ctx context.Context, kind models.ActiveValueKind, value *models.ActiveValue) (*models.ActiveValue, error)
	SetActive(ctx context.Context, kind models.ActiveValueKind, id int64, active bool) error
	Reparent(ctx context.Context, kind models.ActiveValueKind, ids []int64, prisonerNumber string) error
}

// RecencyMerger keeps the most recently created active value when two
// identities each have one. It never deletes rows.
type RecencyMerger struct {
	store  Store
	logger ectologger.Logger
}

func NewRecencyMerger(store Store, logger ectologger.Logger) *RecencyMerger {
	return &RecencyMerger{store: store, logger: logger}
}

// Merge moves the removing identity's rows for kind onto the retaining identity.
// It is a no-op unless both identities have an active value. The caller owns
// the transaction.
func (m *RecencyMerger) Merge(ctx context.Context, kind models.ActiveValueKind, retaining, removing string) (*models.ActiveValueMergeResult, error) {
	ctx, span := tracing.StartSpan(ctx, "merging.RecencyMerger.Merge")
	defer span.End()
	tracing.SetPrisonerNumbers(span, retaining, removing)

	log := m.logger.WithContext(ctx).WithFields(map[string]any{
		"kind":      kind,
		"retaining": retaining,
		"removing":  removing,
	})

	retainingActive, err := m.store.GetActive(ctx, kind, retaining)
	if err != nil {
		return nil, err
	}
	removingActive, err := m.store.GetActive(ctx, kind, removing)
	if err != nil {
		return nil, err
	}
	if retainingActive == nil || removingActive == nil {
		log.Debug("Skipping merge, an identity has no active value")
		return &models.ActiveValueMergeResult{}, nil
	}

	history, err := m.store.ListByPrisoner(ctx, kind, removing)
	if err != nil {
		return nil, err
	}
	historyIDs := ectolinq.Map(ectolinq.Filter(history, func(v models.ActiveValue) bool {
		return !v.Active
	}), func(v models.ActiveValue) int64 {
		return v.ID
	})
	if err := m.store.Reparent(ctx, kind, historyIDs, retaining); err != nil {
		return nil, err
	}

	// The deactivation always happens before the active row moves so the
	// retaining identity never holds two active rows.
	if IsStrictlyNewer(removingActive.CreatedTime, retainingActive.CreatedTime) {
		if err := m.store.SetActive(ctx, kind, retainingActive.ID, false); err != nil {
			return nil, err
		}
		if err := m.store.Reparent(ctx, kind, []int64{removingActive.ID}, retaining); err != nil {
			return nil, err
		}

		log.WithField("active_id", removingActive.ID).Info("Removed identity's value is newer and is now active")
		id := removingActive.ID
		return &models.ActiveValueMergeResult{NewActiveRecordID: &id, WasNewlyActiveCreated: true}, nil
	}

	if err := m.store.SetActive(ctx, kind, removingActive.ID, false); err != nil {
		return nil, err
	}
	if err := m.store.Reparent(ctx, kind, []int64{removingActive.ID}, retaining); err != nil {
		return nil, err
	}

	log.WithField("active_id", retainingActive.ID).Info("Retained identity's value stays active")
	id := retainingActive.ID
	return &models.ActiveValueMergeResult{NewActiveRecordID: &id, WasNewlyActiveCreated: false}, nil
}

// IsStrictlyNewer reports whether candidate was created after current. Equal
// timestamps are not newer, so the retaining identity wins ties.
func IsStrictlyNewer(candidate, current time.Time) bool {
	return candidate.After(current)
}

// Supersede flips the current active value for prisonerNumber to history and
// inserts value as the new active row.
func (m *RecencyMerger) Supersede(ctx context.Context, kind models.ActiveValueKind, prisonerNumber string, value *models.ActiveValue) (*models.SupersedeResult, error) {
	ctx, span := tracing.StartSpan(ctx, "merging.RecencyMerger.Supersede")
	defer span.End()
	tracing.SetPrisonerNumbers(span, prisonerNumber)

	current, err := m.store.GetActive(ctx, kind, prisonerNumber)
	if err != nil {
		return nil, err
	}

	result := &models.SupersedeResult{}
	if current != nil {
		if err := m.store.SetActive(ctx, kind, current.ID, false); err != nil {
			return nil, err
		}
		previous := current.ID
		result.PreviousActiveRecordID = &previous
	}

	next := *value
	next.PrisonerNumber = prisonerNumber
	next.Active = true
	created, err := m.store.Insert(ctx, kind, &next)
	if err != nil {
		return nil, err
	}
	result.ID = created.ID

	m.logger.WithContext(ctx).WithFields(map[string]any{
		"kind":            kind,
		"prisoner_number": prisonerNumber,
		"id":              created.ID,
	}).Info("Superseded active value")

	return result, nil
}
