package activevalue

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Gobusters/ectologger"
	"github.com/Ramsey-B/thistle/pkg/database"
	"github.com/Ramsey-B/thistle/pkg/models"
	"github.com/Ramsey-B/thistle/pkg/tracing"
)

// valueTable describes where one kind of single-active value is stored.
type valueTable struct {
	name        string
	idColumn    string
	valueColumn string
}

var tables = map[models.ActiveValueKind]valueTable{
	models.ActiveValueDomesticStatus: {
		name:        "prisoner_domestic_status",
		idColumn:    "prisoner_domestic_status_id",
		valueColumn: "domestic_status_code",
	},
	models.ActiveValueNumberOfChildren: {
		name:        "prisoner_number_of_children",
		idColumn:    "prisoner_number_of_children_id",
		valueColumn: "number_of_children",
	},
}

func (t valueTable) selectColumns() []string {
	return []string{
		t.idColumn + " AS id",
		"prisoner_number",
		t.valueColumn + " AS value",
		"active",
		"created_by",
		"created_time",
	}
}

// Repository reads and writes both single-active-value tables.
type Repository struct {
	db     database.DB
	logger ectologger.Logger
}

func NewRepository(db database.DB, logger ectologger.Logger) *Repository {
	return &Repository{db: db, logger: logger}
}

func lookup(kind models.ActiveValueKind) (valueTable, error) {
	t, ok := tables[kind]
	if !ok {
		return valueTable{}, httperror.NewHTTPErrorf(http.StatusInternalServerError, "unknown value kind %s", kind)
	}
	return t, nil
}

// GetActive returns the active row for prisonerNumber, or nil when there is none.
func (r *Repository) GetActive(ctx context.Context, kind models.ActiveValueKind, prisonerNumber string) (*models.ActiveValue, error) {
	ctx, span := tracing.StartSpan(ctx, "activevalue.Repository.GetActive")
	defer span.End()
	tracing.SetPrisonerNumbers(span, prisonerNumber)

	t, err := lookup(kind)
	if err != nil {
		return nil, err
	}

	sb := database.NewSelectBuilder()
	sb.Select(t.selectColumns()...)
	sb.From(t.name)
	sb.Where(
		sb.Equal("prisoner_number", prisonerNumber),
		sb.Equal("active", true),
	)

	query, args := sb.Build()
	var out models.ActiveValue
	if err := database.Conn(ctx, r.db).GetContext(ctx, &out, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		r.logger.WithContext(ctx).WithError(err).Errorf("Failed to get active %s", kind)
		return nil, httperror.NewHTTPErrorf(http.StatusInternalServerError, "failed to get active %s", kind)
	}
	return &out, nil
}

// ListByPrisoner returns every row for prisonerNumber, active or not, ordered by id.
func (r *Repository) ListByPrisoner(ctx context.Context, kind models.ActiveValueKind, prisonerNumber string) ([]models.ActiveValue, error) {
	ctx, span := tracing.StartSpan(ctx, "activevalue.Repository.ListByPrisoner")
	defer span.End()
	tracing.SetPrisonerNumbers(span, prisonerNumber)

	t, err := lookup(kind)
	if err != nil {
		return nil, err
	}

	sb := database.NewSelectBuilder()
	sb.Select(t.selectColumns()...)
	sb.From(t.name)
	sb.Where(sb.Equal("prisoner_number", prisonerNumber))
	sb.OrderBy(t.idColumn)

	query, args := sb.Build()
	out := []models.ActiveValue{}
	if err := database.Conn(ctx, r.db).SelectContext(ctx, &out, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).Errorf("Failed to list %s history", kind)
		return nil, httperror.NewHTTPErrorf(http.StatusInternalServerError, "failed to list %s", kind)
	}
	return out, nil
}

func (r *Repository) Insert(ctx context.Context, kind models.ActiveValueKind, value *models.ActiveValue) (*models.ActiveValue, error) {
	ctx, span := tracing.StartSpan(ctx, "activevalue.Repository.Insert")
	defer span.End()
	tracing.SetPrisonerNumbers(span, value.PrisonerNumber)

	t, err := lookup(kind)
	if err != nil {
		return nil, err
	}

	ib := database.NewInsertBuilder()
	ib.InsertInto(t.name)
	ib.Cols("prisoner_number", t.valueColumn, "active", "created_by", "created_time")
	ib.Values(value.PrisonerNumber, value.Value, value.Active, value.CreatedBy, value.CreatedTime)
	ib.Returning(t.selectColumns()...)

	query, args := ib.Build()
	var out models.ActiveValue
	if err := database.Conn(ctx, r.db).GetContext(ctx, &out, query, args...); err != nil {
		if database.IsUniqueViolation(err) {
			return nil, httperror.NewHTTPErrorf(http.StatusConflict, "prisoner %s already has an active %s", value.PrisonerNumber, kind)
		}
		r.logger.WithContext(ctx).WithError(err).Errorf("Failed to insert %s", kind)
		return nil, httperror.NewHTTPErrorf(http.StatusInternalServerError, "failed to insert %s", kind)
	}
	return &out, nil
}

// SetActive flips the active flag of one row.
func (r *Repository) SetActive(ctx context.Context, kind models.ActiveValueKind, id int64, active bool) error {
	ctx, span := tracing.StartSpan(ctx, "activevalue.Repository.SetActive")
	defer span.End()

	t, err := lookup(kind)
	if err != nil {
		return err
	}

	ub := database.NewUpdateBuilder()
	ub.Update(t.name)
	ub.Set(ub.Assign("active", active))
	ub.Where(ub.Equal(t.idColumn, id))

	return r.exec(ctx, kind, fmt.Sprintf("%s %d", t.idColumn, id), ub.Build)
}

// Reparent moves rows to prisonerNumber leaving every other column unchanged.
func (r *Repository) Reparent(ctx context.Context, kind models.ActiveValueKind, ids []int64, prisonerNumber string) error {
	ctx, span := tracing.StartSpan(ctx, "activevalue.Repository.Reparent")
	defer span.End()
	tracing.SetPrisonerNumbers(span, prisonerNumber)

	if len(ids) == 0 {
		return nil
	}

	t, err := lookup(kind)
	if err != nil {
		return err
	}

	ub := database.NewUpdateBuilder()
	ub.Update(t.name)
	ub.Set(ub.Assign("prisoner_number", prisonerNumber))
	ub.Where(database.InIDs(&ub.Cond, t.idColumn, ids))

	return r.exec(ctx, kind, prisonerNumber, ub.Build)
}

func (r *Repository) exec(ctx context.Context, kind models.ActiveValueKind, target string, build func() (string, []interface{})) error {
	query, args := build()
	result, err := database.Conn(ctx, r.db).ExecContext(ctx, query, args...)
	if err != nil {
		if database.IsUniqueViolation(err) {
			return httperror.NewHTTPErrorf(http.StatusConflict, "update of %s for %s would leave two active rows", kind, target)
		}
		r.logger.WithContext(ctx).WithError(err).Errorf("Failed to update %s", kind)
		return httperror.NewHTTPErrorf(http.StatusInternalServerError, "failed to update %s", kind)
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		return httperror.NewHTTPErrorf(http.StatusNotFound, "%s not found for %s", kind, target)
	}
	return nil
}
