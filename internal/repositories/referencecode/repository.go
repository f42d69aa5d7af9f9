package referencecode

import (
	"context"
	"net/http"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Gobusters/ectologger"
	"github.com/Ramsey-B/thistle/pkg/database"
	"github.com/Ramsey-B/thistle/pkg/tracing"
)

type Repository struct {
	db     database.DB
	logger ectologger.Logger
}

func NewRepository(db database.DB, logger ectologger.Logger) *Repository {
	return &Repository{db: db, logger: logger}
}

// IsValidCode reports whether code is an active member of group.
func (r *Repository) IsValidCode(ctx context.Context, group, code string) (bool, error) {
	ctx, span := tracing.StartSpan(ctx, "referencecode.Repository.IsValidCode")
	defer span.End()

	sb := database.NewSelectBuilder()
	sb.Select("COUNT(*)")
	sb.From("reference_codes")
	sb.Where(
		sb.Equal("group_code", group),
		sb.Equal("code", code),
		sb.Equal("active", true),
	)

	query, args := sb.Build()
	var count int
	if err := database.Conn(ctx, r.db).GetContext(ctx, &count, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("Failed to look up reference code")
		return false, httperror.NewHTTPError(http.StatusInternalServerError, "failed to look up reference code")
	}
	return count > 0, nil
}
