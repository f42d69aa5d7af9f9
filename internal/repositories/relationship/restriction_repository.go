package relationship

import (
	"context"
	"net/http"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Gobusters/ectologger"
	"github.com/Ramsey-B/thistle/pkg/database"
	"github.com/Ramsey-B/thistle/pkg/models"
	"github.com/Ramsey-B/thistle/pkg/tracing"
)

const restrictionTable = "prisoner_contact_restriction"

var restrictionColumns = []string{
	"prisoner_contact_restriction_id",
	"prisoner_contact_id",
	"restriction_type",
	"start_date",
	"expiry_date",
	"comments",
	"created_by",
	"created_time",
	"updated_by",
	"updated_time",
}

// RestrictionRepository manages prisoner_contact_restriction rows.
type RestrictionRepository struct {
	db     database.DB
	logger ectologger.Logger
}

func NewRestrictionRepository(db database.DB, logger ectologger.Logger) *RestrictionRepository {
	return &RestrictionRepository{db: db, logger: logger}
}

func (r *RestrictionRepository) ListByRelationshipIDs(ctx context.Context, relationshipIDs []int64) ([]models.RelationshipRestriction, error) {
	ctx, span := tracing.StartSpan(ctx, "relationship.RestrictionRepository.ListByRelationshipIDs")
	defer span.End()

	out := []models.RelationshipRestriction{}
	if len(relationshipIDs) == 0 {
		return out, nil
	}

	sb := database.NewSelectBuilder()
	sb.Select(restrictionColumns...)
	sb.From(restrictionTable)
	sb.Where(database.InIDs(&sb.Cond, "prisoner_contact_id", relationshipIDs))
	sb.OrderBy("prisoner_contact_restriction_id")

	query, args := sb.Build()
	if err := database.Conn(ctx, r.db).SelectContext(ctx, &out, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("Failed to list relationship restrictions")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to list relationship restrictions")
	}
	return out, nil
}

func (r *RestrictionRepository) Insert(ctx context.Context, restriction *models.RelationshipRestriction) (*models.RelationshipRestriction, error) {
	ctx, span := tracing.StartSpan(ctx, "relationship.RestrictionRepository.Insert")
	defer span.End()

	ib := database.NewInsertBuilder()
	ib.InsertInto(restrictionTable)
	ib.Cols(restrictionColumns[1:]...)
	ib.Values(
		restriction.RelationshipID,
		restriction.RestrictionType,
		restriction.StartDate,
		restriction.ExpiryDate,
		restriction.Comments,
		restriction.CreatedBy,
		restriction.CreatedTime,
		restriction.UpdatedBy,
		restriction.UpdatedTime,
	)
	ib.Returning(restrictionColumns...)

	query, args := ib.Build()
	var out models.RelationshipRestriction
	if err := database.Conn(ctx, r.db).GetContext(ctx, &out, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("Failed to insert relationship restriction")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to insert relationship restriction")
	}
	return &out, nil
}

func (r *RestrictionRepository) DeleteByRelationshipIDs(ctx context.Context, relationshipIDs []int64) (int64, error) {
	ctx, span := tracing.StartSpan(ctx, "relationship.RestrictionRepository.DeleteByRelationshipIDs")
	defer span.End()

	if len(relationshipIDs) == 0 {
		return 0, nil
	}

	db := database.NewDeleteBuilder()
	db.DeleteFrom(restrictionTable)
	db.Where(database.InIDs(&db.Cond, "prisoner_contact_id", relationshipIDs))

	query, args := db.Build()
	result, err := database.Conn(ctx, r.db).ExecContext(ctx, query, args...)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("Failed to delete relationship restrictions")
		return 0, httperror.NewHTTPError(http.StatusInternalServerError, "failed to delete relationship restrictions")
	}
	rows, _ := result.RowsAffected()
	return rows, nil
}
