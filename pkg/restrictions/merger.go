// Package restrictions merges and resets prisoner-level restrictions.
package restrictions

import (
	"context"
	"net/http"
	"time"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Gobusters/ectolinq"
	"github.com/Gobusters/ectologger"
	pkgcontext "github.com/Ramsey-B/thistle/pkg/context"
	"github.com/Ramsey-B/thistle/pkg/models"
	"github.com/Ramsey-B/thistle/pkg/tracing"
)

type Store interface {
	ListByPrisoner(ctx context.Context, prisonerNumber string) ([]models.PrisonerRestriction, error)
	Insert(ctx context.Context, restriction *models.PrisonerRestriction) (*models.PrisonerRestriction, error)
	DeleteByPrisoner(ctx context.Context, prisonerNumber string) (int64, error)
}

type CodeValidator interface {
	ValidateAll(ctx context.Context, refs ...models.CodeRef) error
}

type Merger struct {
	store     Store
	validator CodeValidator
	logger    ectologger.Logger
	now       func() time.Time
}

func NewMerger(store Store, validator CodeValidator, logger ectologger.Logger) *Merger {
	return &Merger{
		store:     store,
		validator: validator,
		logger:    logger,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// Merge copies the removing identity's restrictions onto the retaining identity
// with new ids and then deletes the originals.
func (m *Merger) Merge(ctx context.Context, retaining, removing string) (*models.RestrictionMergeResult, error) {
	ctx, span := tracing.StartSpan(ctx, "restrictions.Merger.Merge")
	defer span.End()
	tracing.SetPrisonerNumbers(span, retaining, removing)

	if retaining == removing {
		return nil, httperror.NewHTTPErrorf(http.StatusBadRequest, "cannot merge prisoner %s into itself", retaining)
	}

	source, err := m.store.ListByPrisoner(ctx, removing)
	if err != nil {
		return nil, err
	}
	if len(source) == 0 {
		return &models.RestrictionMergeResult{HasChanged: false}, nil
	}

	result := &models.RestrictionMergeResult{HasChanged: true}
	for _, restriction := range source {
		copied := restriction
		copied.ID = 0
		copied.PrisonerNumber = retaining
		inserted, err := m.store.Insert(ctx, &copied)
		if err != nil {
			return nil, err
		}
		result.Created = append(result.Created, *inserted)
		result.IDs = append(result.IDs, models.IDPair{
			ElementType: models.ElementTypePrisonerRestriction,
			SourceID:    restriction.ID,
			NewID:       inserted.ID,
		})
	}

	if _, err := m.store.DeleteByPrisoner(ctx, removing); err != nil {
		return nil, err
	}
	result.DeletedIDs = restrictionIDs(source)

	m.logger.WithContext(ctx).WithFields(map[string]any{
		"retaining": retaining,
		"removing":  removing,
		"copied":    len(result.Created),
	}).Info("Merged prisoner restrictions")

	return result, nil
}

// Reset replaces every restriction of prisonerNumber with incoming. Incoming
// restrictions are validated before anything is deleted.
func (m *Merger) Reset(ctx context.Context, prisonerNumber string, incoming []models.SyncPrisonerRestriction) (*models.RestrictionResetResult, error) {
	ctx, span := tracing.StartSpan(ctx, "restrictions.Merger.Reset")
	defer span.End()
	tracing.SetPrisonerNumbers(span, prisonerNumber)

	if err := m.validate(ctx, incoming); err != nil {
		return nil, err
	}

	existing, err := m.store.ListByPrisoner(ctx, prisonerNumber)
	if err != nil {
		return nil, err
	}
	if _, err := m.store.DeleteByPrisoner(ctx, prisonerNumber); err != nil {
		return nil, err
	}

	result := &models.RestrictionResetResult{
		DeletedIDs: restrictionIDs(existing),
		CreatedIDs: []int64{},
	}
	actor := pkgcontext.GetActor(ctx)
	for _, restriction := range incoming {
		inserted, err := m.store.Insert(ctx, m.restrictionFrom(restriction, prisonerNumber, actor))
		if err != nil {
			return nil, err
		}
		result.CreatedIDs = append(result.CreatedIDs, inserted.ID)
	}

	m.logger.WithContext(ctx).WithFields(map[string]any{
		"prisoner_number": prisonerNumber,
		"deleted":         len(result.DeletedIDs),
		"created":         len(result.CreatedIDs),
	}).Info("Reset prisoner restrictions")

	return result, nil
}

func (m *Merger) validate(ctx context.Context, incoming []models.SyncPrisonerRestriction) error {
	var refs []models.CodeRef
	for i, restriction := range incoming {
		if restriction.EffectiveDate.IsZero() {
			return httperror.NewHTTPErrorf(http.StatusBadRequest, "restriction %d has no effective date", i)
		}
		if restriction.ExpiryDate != nil && restriction.ExpiryDate.Before(restriction.EffectiveDate.Time) {
			return httperror.NewHTTPErrorf(http.StatusBadRequest, "restriction %d expires before it takes effect", i)
		}
		refs = append(refs, restriction.CodeRefs()...)
	}
	if m.validator == nil || len(refs) == 0 {
		return nil
	}
	return m.validator.ValidateAll(ctx, refs...)
}

func (m *Merger) restrictionFrom(restriction models.SyncPrisonerRestriction, prisonerNumber, actor string) *models.PrisonerRestriction {
	createdBy := restriction.CreatedBy
	if createdBy == "" {
		createdBy = actor
	}
	createdTime := restriction.CreatedTime
	if createdTime.IsZero() {
		createdTime = m.now()
	}
	return &models.PrisonerRestriction{
		PrisonerNumber:     prisonerNumber,
		RestrictionType:    restriction.RestrictionType,
		EffectiveDate:      restriction.EffectiveDate,
		ExpiryDate:         restriction.ExpiryDate,
		CommentText:        restriction.CommentText,
		AuthorisedUsername: restriction.AuthorisedUsername,
		CurrentTerm:        restriction.CurrentTerm,
		CreatedBy:          createdBy,
		CreatedTime:        createdTime,
		UpdatedBy:          restriction.UpdatedBy,
		UpdatedTime:        restriction.UpdatedTime,
	}
}

func restrictionIDs(restrictions []models.PrisonerRestriction) []int64 {
	return ectolinq.Map(restrictions, func(r models.PrisonerRestriction) int64 {
		return r.ID
	})
}
