// Package syncservice runs each merge, reset and reconcile request as one
// transaction and publishes the resulting events once it has committed.
package syncservice

import (
	"context"
	"database/sql"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Gobusters/ectologger"
	"github.com/Ramsey-B/thistle/pkg/consolidation"
	pkgcontext "github.com/Ramsey-B/thistle/pkg/context"
	"github.com/Ramsey-B/thistle/pkg/database"
	"github.com/Ramsey-B/thistle/pkg/events"
	"github.com/Ramsey-B/thistle/pkg/kafka"
	"github.com/Ramsey-B/thistle/pkg/merging"
	"github.com/Ramsey-B/thistle/pkg/metrics"
	"github.com/Ramsey-B/thistle/pkg/models"
	"github.com/Ramsey-B/thistle/pkg/reconciliation"
	"github.com/Ramsey-B/thistle/pkg/restrictions"
	"github.com/Ramsey-B/thistle/pkg/tracing"
)

type Service struct {
	tx            database.TxRunner
	values        *merging.RecencyMerger
	relationships *consolidation.Consolidator
	restrictions  *restrictions.Merger
	snapshots     *reconciliation.Builder
	validator     consolidation.CodeValidator
	emitter       *events.Emitter
	logger        ectologger.Logger
	now           func() time.Time
}

type Dependencies struct {
	Tx            database.TxRunner
	Values        *merging.RecencyMerger
	Relationships *consolidation.Consolidator
	Restrictions  *restrictions.Merger
	Snapshots     *reconciliation.Builder
	Validator     consolidation.CodeValidator
	Emitter       *events.Emitter
}

func NewService(deps Dependencies, logger ectologger.Logger) *Service {
	return &Service{
		tx:            deps.Tx,
		values:        deps.Values,
		relationships: deps.Relationships,
		restrictions:  deps.Restrictions,
		snapshots:     deps.Snapshots,
		validator:     deps.Validator,
		emitter:       deps.Emitter,
		logger:        logger,
		now:           func() time.Time { return time.Now().UTC() },
	}
}

func (s *Service) MergeRelationships(ctx context.Context, req models.MergeRelationshipsRequest) (*models.RelationshipsResult, error) {
	return mutate(ctx, s, "relationships.merge",
		func(ctx context.Context) (*models.RelationshipsResult, error) {
			return s.relationships.Merge(ctx, req.RetainedPrisonerNumber, req.RemovedPrisonerNumber, req.Relationships)
		},
		events.ForRelationships,
	)
}

func (s *Service) ResetRelationships(ctx context.Context, req models.ResetRelationshipsRequest) (*models.RelationshipsResult, error) {
	return mutate(ctx, s, "relationships.reset",
		func(ctx context.Context) (*models.RelationshipsResult, error) {
			return s.relationships.Reset(ctx, req.PrisonerNumber, req.Relationships)
		},
		events.ForRelationships,
	)
}

func (s *Service) MergeActiveValue(ctx context.Context, kind models.ActiveValueKind, req models.MergePrisonerRequest) (*models.ActiveValueMergeResult, error) {
	if req.RetainingPrisonerNumber == req.RemovingPrisonerNumber {
		return nil, httperror.NewHTTPErrorf(http.StatusBadRequest, "cannot merge prisoner %s into itself", req.RetainingPrisonerNumber)
	}
	return mutate(ctx, s, string(kind)+".merge",
		func(ctx context.Context) (*models.ActiveValueMergeResult, error) {
			return s.values.Merge(ctx, kind, req.RetainingPrisonerNumber, req.RemovingPrisonerNumber)
		},
		func(result *models.ActiveValueMergeResult) []*kafka.DomainEvent {
			return events.ForActiveValueMerge(kind, req.RetainingPrisonerNumber, result)
		},
	)
}

// SupersedeActiveValue records value as the prisoner's current value and keeps
// the previous one as history.
func (s *Service) SupersedeActiveValue(ctx context.Context, kind models.ActiveValueKind, prisonerNumber string, req models.SupersedeValueRequest) (*models.SupersedeResult, error) {
	value := strings.TrimSpace(req.Value)
	if err := s.validateValue(ctx, kind, value); err != nil {
		return nil, err
	}

	record := &models.ActiveValue{
		PrisonerNumber: prisonerNumber,
		Value:          value,
		CreatedBy:      pkgcontext.GetActor(ctx),
		CreatedTime:    s.now(),
	}
	if req.CreatedBy != nil && *req.CreatedBy != "" {
		record.CreatedBy = *req.CreatedBy
	}
	if req.CreatedTime != nil {
		record.CreatedTime = req.CreatedTime.UTC()
	}

	return mutate(ctx, s, string(kind)+".supersede",
		func(ctx context.Context) (*models.SupersedeResult, error) {
			return s.values.Supersede(ctx, kind, prisonerNumber, record)
		},
		func(result *models.SupersedeResult) []*kafka.DomainEvent {
			return events.ForSupersede(kind, prisonerNumber, result)
		},
	)
}

func (s *Service) MergeRestrictions(ctx context.Context, req models.MergePrisonerRequest) (*models.RestrictionMergeResult, error) {
	return mutate(ctx, s, "prisoner-restrictions.merge",
		func(ctx context.Context) (*models.RestrictionMergeResult, error) {
			return s.restrictions.Merge(ctx, req.RetainingPrisonerNumber, req.RemovingPrisonerNumber)
		},
		func(result *models.RestrictionMergeResult) []*kafka.DomainEvent {
			return events.ForRestrictionMerge(req.RetainingPrisonerNumber, req.RemovingPrisonerNumber, result)
		},
	)
}

func (s *Service) ResetRestrictions(ctx context.Context, req models.ResetPrisonerRestrictionsRequest) (*models.RestrictionResetResult, error) {
	return mutate(ctx, s, "prisoner-restrictions.reset",
		func(ctx context.Context) (*models.RestrictionResetResult, error) {
			return s.restrictions.Reset(ctx, req.PrisonerNumber, req.Restrictions)
		},
		func(result *models.RestrictionResetResult) []*kafka.DomainEvent {
			return events.ForRestrictionReset(req.PrisonerNumber, result)
		},
	)
}

func (s *Service) ReconcileContact(ctx context.Context, contactID int64) (*models.ContactReconciliation, error) {
	return read(ctx, s, "contact.reconcile", func(ctx context.Context) (*models.ContactReconciliation, error) {
		return s.snapshots.ContactSnapshot(ctx, contactID)
	})
}

func (s *Service) ReconcilePrisoner(ctx context.Context, prisonerNumber string) (*models.PrisonerReconciliation, error) {
	return read(ctx, s, "prisoner.reconcile", func(ctx context.Context) (*models.PrisonerReconciliation, error) {
		return s.snapshots.PrisonerSnapshot(ctx, prisonerNumber)
	})
}

func (s *Service) validateValue(ctx context.Context, kind models.ActiveValueKind, value string) error {
	switch kind {
	case models.ActiveValueNumberOfChildren:
		n, err := strconv.Atoi(value)
		if err != nil || n < 0 {
			return httperror.NewHTTPErrorf(http.StatusBadRequest, "number of children must be a non-negative whole number, got %q", value)
		}
		return nil
	case models.ActiveValueDomesticStatus:
		if s.validator == nil {
			return nil
		}
		return s.validator.ValidateAll(ctx, models.CodeRef{Group: models.GroupDomesticStatus, Code: value})
	default:
		return httperror.NewHTTPErrorf(http.StatusBadRequest, "unknown value kind %q", kind)
	}
}

// mutate runs fn in a READ COMMITTED transaction. Events are derived from the
// committed result and a publish failure is logged without failing the call.
func mutate[T any](ctx context.Context, s *Service, operation string, fn func(ctx context.Context) (T, error), derive func(T) []*kafka.DomainEvent) (T, error) {
	result, err := inTx(ctx, s, operation, database.ReadCommitted, fn)
	if err != nil {
		return result, err
	}

	emitted := derive(result)
	recordRows(emitted)
	if err := s.emitter.Emit(ctx, operation, emitted); err != nil {
		s.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{
			"operation": operation,
			"events":    len(emitted),
		}).Error("Failed to publish events after commit")
	}
	return result, nil
}

func read[T any](ctx context.Context, s *Service, operation string, fn func(ctx context.Context) (T, error)) (T, error) {
	return inTx(ctx, s, operation, database.ReadOnlySnapshot, fn)
}

func inTx[T any](ctx context.Context, s *Service, operation string, opts *sql.TxOptions, fn func(ctx context.Context) (T, error)) (T, error) {
	ctx, span := tracing.StartSpan(ctx, "syncservice."+operation)
	defer span.End()

	start := time.Now()
	var result T
	err := s.tx.RunInTx(ctx, opts, func(ctx context.Context) error {
		var err error
		result, err = fn(ctx)
		return err
	})
	metrics.OperationDuration.WithLabelValues(operation).Observe(time.Since(start).Seconds())

	if err != nil {
		tracing.RecordError(span, err)
		metrics.OperationsTotal.WithLabelValues(operation, metrics.OutcomeFailure).Inc()
		var zero T
		return zero, err
	}
	metrics.OperationsTotal.WithLabelValues(operation, metrics.OutcomeSuccess).Inc()
	return result, nil
}

func recordRows(emitted []*kafka.DomainEvent) {
	for _, event := range emitted {
		if event.ElementType == "" {
			continue
		}
		switch {
		case strings.HasSuffix(event.EventType, ".created"):
			metrics.RowsCreated.WithLabelValues(string(event.ElementType)).Inc()
		case strings.HasSuffix(event.EventType, ".deleted"):
			metrics.RowsRemoved.WithLabelValues(string(event.ElementType)).Inc()
		}
	}
}
