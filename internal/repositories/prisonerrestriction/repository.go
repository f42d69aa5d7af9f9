package prisonerrestriction

import (
	"context"
	"net/http"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Gobusters/ectologger"
	"github.com/Ramsey-B/thistle/pkg/database"
	"github.com/Ramsey-B/thistle/pkg/models"
	"github.com/Ramsey-B/thistle/pkg/tracing"
)

const table = "prisoner_restrictions"

var columns = []string{
	"prisoner_restriction_id",
	"prisoner_number",
	"restriction_type",
	"effective_date",
	"expiry_date",
	"comment_text",
	"authorised_username",
	"current_term",
	"created_by",
	"created_time",
	"updated_by",
	"updated_time",
}

type Repository struct {
	db     database.DB
	logger ectologger.Logger
}

func NewRepository(db database.DB, logger ectologger.Logger) *Repository {
	return &Repository{db: db, logger: logger}
}

func (r *Repository) ListByPrisoner(ctx context.Context, prisonerNumber string) ([]models.PrisonerRestriction, error) {
	ctx, span := tracing.StartSpan(ctx, "prisonerrestriction.Repository.ListByPrisoner")
	defer span.End()
	tracing.SetPrisonerNumbers(span, prisonerNumber)

	sb := database.NewSelectBuilder()
	sb.Select(columns...)
	sb.From(table)
	sb.Where(sb.Equal("prisoner_number", prisonerNumber))
	sb.OrderBy("prisoner_restriction_id")

	query, args := sb.Build()
	out := []models.PrisonerRestriction{}
	if err := database.Conn(ctx, r.db).SelectContext(ctx, &out, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("Failed to list prisoner restrictions")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to list prisoner restrictions")
	}
	return out, nil
}

func (r *Repository) Insert(ctx context.Context, restriction *models.PrisonerRestriction) (*models.PrisonerRestriction, error) {
	ctx, span := tracing.StartSpan(ctx, "prisonerrestriction.Repository.Insert")
	defer span.End()

	ib := database.NewInsertBuilder()
	ib.InsertInto(table)
	ib.Cols(columns[1:]...)
	ib.Values(
		restriction.PrisonerNumber,
		restriction.RestrictionType,
		restriction.EffectiveDate,
		restriction.ExpiryDate,
		restriction.CommentText,
		restriction.AuthorisedUsername,
		restriction.CurrentTerm,
		restriction.CreatedBy,
		restriction.CreatedTime,
		restriction.UpdatedBy,
		restriction.UpdatedTime,
	)
	ib.Returning(columns...)

	query, args := ib.Build()
	var out models.PrisonerRestriction
	if err := database.Conn(ctx, r.db).GetContext(ctx, &out, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("Failed to insert prisoner restriction")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to insert prisoner restriction")
	}
	return &out, nil
}

func (r *Repository) DeleteByPrisoner(ctx context.Context, prisonerNumber string) (int64, error) {
	ctx, span := tracing.StartSpan(ctx, "prisonerrestriction.Repository.DeleteByPrisoner")
	defer span.End()
	tracing.SetPrisonerNumbers(span, prisonerNumber)

	db := database.NewDeleteBuilder()
	db.DeleteFrom(table)
	db.Where(db.Equal("prisoner_number", prisonerNumber))

	query, args := db.Build()
	result, err := database.Conn(ctx, r.db).ExecContext(ctx, query, args...)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("Failed to delete prisoner restrictions")
		return 0, httperror.NewHTTPError(http.StatusInternalServerError, "failed to delete prisoner restrictions")
	}
	rows, _ := result.RowsAffected()
	return rows, nil
}
