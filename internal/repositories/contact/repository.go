package contact

import (
	"context"
	"database/sql"
	"errors"
	"net/http"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Gobusters/ectologger"
	"github.com/Ramsey-B/thistle/pkg/database"
	"github.com/Ramsey-B/thistle/pkg/models"
	"github.com/Ramsey-B/thistle/pkg/tracing"
)

// Repository reads a contact and its sub-entities. Writes belong to the CRUD
// sync and are not exposed here.
type Repository struct {
	db     database.DB
	logger ectologger.Logger
}

func NewRepository(db database.DB, logger ectologger.Logger) *Repository {
	return &Repository{db: db, logger: logger}
}

// Get returns nil when the contact does not exist.
func (r *Repository) Get(ctx context.Context, contactID int64) (*models.Contact, error) {
	ctx, span := tracing.StartSpan(ctx, "contact.Repository.Get")
	defer span.End()

	sb := database.SelectStruct(new(models.Contact), "contact")
	sb.Where(sb.Equal("contact_id", contactID))

	query, args := sb.Build()
	var out models.Contact
	if err := database.Conn(ctx, r.db).GetContext(ctx, &out, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		r.logger.WithContext(ctx).WithError(err).Error("Failed to get contact")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to get contact")
	}
	return &out, nil
}

func (r *Repository) ListPhones(ctx context.Context, contactID int64) ([]models.ContactPhone, error) {
	return listByContact[models.ContactPhone](ctx, r, "contact_phone", "contact_phone_id", contactID)
}

func (r *Repository) ListAddresses(ctx context.Context, contactID int64) ([]models.ContactAddress, error) {
	return listByContact[models.ContactAddress](ctx, r, "contact_address", "contact_address_id", contactID)
}

func (r *Repository) ListAddressPhones(ctx context.Context, contactID int64) ([]models.ContactAddressPhone, error) {
	return listByContact[models.ContactAddressPhone](ctx, r, "contact_address_phone", "contact_address_phone_id", contactID)
}

func (r *Repository) ListEmails(ctx context.Context, contactID int64) ([]models.ContactEmail, error) {
	return listByContact[models.ContactEmail](ctx, r, "contact_email", "contact_email_id", contactID)
}

func (r *Repository) ListIdentities(ctx context.Context, contactID int64) ([]models.ContactIdentity, error) {
	return listByContact[models.ContactIdentity](ctx, r, "contact_identity", "contact_identity_id", contactID)
}

func (r *Repository) ListEmployments(ctx context.Context, contactID int64) ([]models.ContactEmployment, error) {
	return listByContact[models.ContactEmployment](ctx, r, "employment", "employment_id", contactID)
}

func (r *Repository) ListRestrictions(ctx context.Context, contactID int64) ([]models.ContactRestriction, error) {
	return listByContact[models.ContactRestriction](ctx, r, "contact_restriction", "contact_restriction_id", contactID)
}

func listByContact[T any](ctx context.Context, r *Repository, table, idColumn string, contactID int64) ([]T, error) {
	ctx, span := tracing.StartSpan(ctx, "contact.Repository.List."+table)
	defer span.End()

	sb := database.SelectStruct(new(T), table)
	sb.Where(sb.Equal("contact_id", contactID))
	sb.OrderBy(idColumn)

	query, args := sb.Build()
	out := []T{}
	if err := database.Conn(ctx, r.db).SelectContext(ctx, &out, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).Errorf("Failed to list %s", table)
		return nil, httperror.NewHTTPErrorf(http.StatusInternalServerError, "failed to list %s", table)
	}
	return out, nil
}
