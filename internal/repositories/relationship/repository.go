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

const table = "prisoner_contact"

var columns = []string{
	"prisoner_contact_id",
	"contact_id",
	"prisoner_number",
	"relationship_type",
	"relationship_to_prisoner",
	"next_of_kin",
	"emergency_contact",
	"active",
	"approved_visitor",
	"approved_by",
	"approved_time",
	"current_term",
	"comments",
	"expiry_date",
	"created_by",
	"created_time",
	"updated_by",
	"updated_time",
}

// Repository manages prisoner_contact rows.
type Repository struct {
	db     database.DB
	logger ectologger.Logger
}

func NewRepository(db database.DB, logger ectologger.Logger) *Repository {
	return &Repository{db: db, logger: logger}
}

func (r *Repository) ListByPrisoner(ctx context.Context, prisonerNumber string) ([]models.Relationship, error) {
	ctx, span := tracing.StartSpan(ctx, "relationship.Repository.ListByPrisoner")
	defer span.End()
	tracing.SetPrisonerNumbers(span, prisonerNumber)

	sb := database.NewSelectBuilder()
	sb.Select(columns...)
	sb.From(table)
	sb.Where(sb.Equal("prisoner_number", prisonerNumber))
	sb.OrderBy("prisoner_contact_id")

	query, args := sb.Build()
	out := []models.Relationship{}
	if err := database.Conn(ctx, r.db).SelectContext(ctx, &out, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("Failed to list relationships by prisoner")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to list relationships")
	}
	return out, nil
}

func (r *Repository) ListByContact(ctx context.Context, contactID int64) ([]models.Relationship, error) {
	ctx, span := tracing.StartSpan(ctx, "relationship.Repository.ListByContact")
	defer span.End()

	sb := database.NewSelectBuilder()
	sb.Select(columns...)
	sb.From(table)
	sb.Where(sb.Equal("contact_id", contactID))
	sb.OrderBy("prisoner_contact_id")

	query, args := sb.Build()
	out := []models.Relationship{}
	if err := database.Conn(ctx, r.db).SelectContext(ctx, &out, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("Failed to list relationships by contact")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to list relationships")
	}
	return out, nil
}

// Insert stores rel and returns it with its newly allocated id.
func (r *Repository) Insert(ctx context.Context, rel *models.Relationship) (*models.Relationship, error) {
	ctx, span := tracing.StartSpan(ctx, "relationship.Repository.Insert")
	defer span.End()

	ib := database.NewInsertBuilder()
	ib.InsertInto(table)
	ib.Cols(columns[1:]...)
	ib.Values(
		rel.ContactID,
		rel.PrisonerNumber,
		rel.RelationshipType,
		rel.RelationshipSubType,
		rel.NextOfKin,
		rel.EmergencyContact,
		rel.Active,
		rel.ApprovedVisitor,
		rel.ApprovedBy,
		rel.ApprovedTime,
		rel.CurrentTerm,
		rel.Comments,
		rel.ExpiryDate,
		rel.CreatedBy,
		rel.CreatedTime,
		rel.UpdatedBy,
		rel.UpdatedTime,
	)
	ib.Returning(columns...)

	query, args := ib.Build()
	var out models.Relationship
	if err := database.Conn(ctx, r.db).GetContext(ctx, &out, query, args...); err != nil {
		if database.IsUniqueViolation(err) {
			return nil, httperror.NewHTTPErrorf(http.StatusConflict,
				"an active relationship already exists for contact %d, prisoner %s and type %s",
				rel.ContactID, rel.PrisonerNumber, rel.RelationshipType)
		}
		if database.IsForeignKeyViolation(err) {
			return nil, httperror.NewHTTPErrorf(http.StatusNotFound, "contact %d not found", rel.ContactID)
		}
		r.logger.WithContext(ctx).WithError(err).Error("Failed to insert relationship")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to insert relationship")
	}
	return &out, nil
}

// DeleteByPrisoner removes every relationship owned by prisonerNumber. Their
// restrictions go with them through the cascade.
func (r *Repository) DeleteByPrisoner(ctx context.Context, prisonerNumber string) (int64, error) {
	ctx, span := tracing.StartSpan(ctx, "relationship.Repository.DeleteByPrisoner")
	defer span.End()
	tracing.SetPrisonerNumbers(span, prisonerNumber)

	db := database.NewDeleteBuilder()
	db.DeleteFrom(table)
	db.Where(db.Equal("prisoner_number", prisonerNumber))

	query, args := db.Build()
	result, err := database.Conn(ctx, r.db).ExecContext(ctx, query, args...)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("Failed to delete relationships")
		return 0, httperror.NewHTTPError(http.StatusInternalServerError, "failed to delete relationships")
	}
	rows, _ := result.RowsAffected()
	return rows, nil
}
