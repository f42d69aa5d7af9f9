package syncapi

import (
	"context"
	"net/http"
	"strconv"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Gobusters/ectoinject"
	"github.com/Gobusters/ectologger"
	"github.com/Ramsey-B/thistle/pkg/models"
	"github.com/Ramsey-B/thistle/pkg/syncservice"
	"github.com/Ramsey-B/thistle/pkg/tracing"
	"github.com/Ramsey-B/thistle/pkg/utils"
	"github.com/labstack/echo/v4"
)

// Register mounts the sync routes on g, which is expected to be /api/v1/sync.
// Handlers resolve *syncservice.Service from the request's active container.
func Register(g *echo.Group) {
	g.POST("/relationships/merge", MergeRelationships)
	g.POST("/relationships/reset", ResetRelationships)

	for _, kind := range []models.ActiveValueKind{models.ActiveValueDomesticStatus, models.ActiveValueNumberOfChildren} {
		g.POST("/"+string(kind)+"/merge", MergeActiveValue(kind))
		g.PUT("/prisoners/:prisonerNumber/"+string(kind), SupersedeActiveValue(kind))
	}

	g.POST("/prisoner-restrictions/merge", MergeRestrictions)
	g.POST("/prisoner-restrictions/reset", ResetRestrictions)

	g.GET("/contacts/:contactId/reconcile", ReconcileContact)
	g.GET("/prisoners/:prisonerNumber/reconcile", ReconcilePrisoner)
}

func getService(ctx context.Context) (context.Context, *syncservice.Service, error) {
	ctx, service, err := ectoinject.GetContext[*syncservice.Service](ctx)
	if err != nil || service == nil {
		return ctx, nil, httperror.NewHTTPError(http.StatusInternalServerError, "service unavailable")
	}
	return ctx, service, nil
}

func MergeRelationships(c echo.Context) error {
	ctx, span := tracing.StartSpan(c.Request().Context(), "sync_handler.MergeRelationships")
	defer span.End()

	req, err := utils.BindRequest[models.MergeRelationshipsRequest](c)
	if err != nil {
		return err
	}

	ctx, service, err := getService(ctx)
	if err != nil {
		return err
	}

	result, err := service.MergeRelationships(ctx, req)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, result)
}

func ResetRelationships(c echo.Context) error {
	ctx, span := tracing.StartSpan(c.Request().Context(), "sync_handler.ResetRelationships")
	defer span.End()

	req, err := utils.BindRequest[models.ResetRelationshipsRequest](c)
	if err != nil {
		return err
	}

	ctx, service, err := getService(ctx)
	if err != nil {
		return err
	}

	result, err := service.ResetRelationships(ctx, req)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, result)
}

func MergeActiveValue(kind models.ActiveValueKind) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx, span := tracing.StartSpan(c.Request().Context(), "sync_handler.MergeActiveValue")
		defer span.End()

		req, err := utils.BindRequest[models.MergePrisonerRequest](c)
		if err != nil {
			return err
		}

		ctx, service, err := getService(ctx)
		if err != nil {
			return err
		}

		result, err := service.MergeActiveValue(ctx, kind, req)
		if err != nil {
			return err
		}
		return c.JSON(http.StatusOK, result)
	}
}

func SupersedeActiveValue(kind models.ActiveValueKind) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx, span := tracing.StartSpan(c.Request().Context(), "sync_handler.SupersedeActiveValue")
		defer span.End()

		prisonerNumber, err := prisonerNumberParam(c)
		if err != nil {
			return err
		}
		tracing.SetPrisonerNumbers(span, prisonerNumber)

		req, err := utils.BindRequest[models.SupersedeValueRequest](c)
		if err != nil {
			return err
		}
		if kind == models.ActiveValueNumberOfChildren {
			if err := utils.ValidateValue(req.Value, "numeric"); err != nil {
				return httperror.WrapError(http.StatusBadRequest, err)
			}
		}

		ctx, service, err := getService(ctx)
		if err != nil {
			return err
		}

		result, err := service.SupersedeActiveValue(ctx, kind, prisonerNumber, req)
		if err != nil {
			return err
		}
		return c.JSON(http.StatusOK, result)
	}
}

func MergeRestrictions(c echo.Context) error {
	ctx, span := tracing.StartSpan(c.Request().Context(), "sync_handler.MergeRestrictions")
	defer span.End()

	req, err := utils.BindRequest[models.MergePrisonerRequest](c)
	if err != nil {
		return err
	}

	ctx, service, err := getService(ctx)
	if err != nil {
		return err
	}

	result, err := service.MergeRestrictions(ctx, req)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, result)
}

func ResetRestrictions(c echo.Context) error {
	ctx, span := tracing.StartSpan(c.Request().Context(), "sync_handler.ResetRestrictions")
	defer span.End()

	req, err := utils.BindRequest[models.ResetPrisonerRestrictionsRequest](c)
	if err != nil {
		return err
	}

	ctx, service, err := getService(ctx)
	if err != nil {
		return err
	}

	result, err := service.ResetRestrictions(ctx, req)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, result)
}

func ReconcileContact(c echo.Context) error {
	ctx, span := tracing.StartSpan(c.Request().Context(), "sync_handler.ReconcileContact")
	defer span.End()

	contactID, err := strconv.ParseInt(c.Param("contactId"), 10, 64)
	if err != nil || contactID <= 0 {
		return httperror.NewHTTPErrorf(http.StatusBadRequest, "invalid contact id %q", c.Param("contactId"))
	}
	tracing.SetContactID(span, contactID)

	ctx, service, err := getService(ctx)
	if err != nil {
		return err
	}

	ctx, logger, _ := ectoinject.GetContext[ectologger.Logger](ctx)
	if logger != nil {
		logger.WithContext(ctx).WithField("contact_id", contactID).Debug("Reconciling contact")
	}

	result, err := service.ReconcileContact(ctx, contactID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, result)
}

func ReconcilePrisoner(c echo.Context) error {
	ctx, span := tracing.StartSpan(c.Request().Context(), "sync_handler.ReconcilePrisoner")
	defer span.End()

	prisonerNumber, err := prisonerNumberParam(c)
	if err != nil {
		return err
	}
	tracing.SetPrisonerNumbers(span, prisonerNumber)

	ctx, service, err := getService(ctx)
	if err != nil {
		return err
	}

	ctx, logger, _ := ectoinject.GetContext[ectologger.Logger](ctx)
	if logger != nil {
		logger.WithContext(ctx).WithField("prisoner_number", prisonerNumber).Debug("Reconciling prisoner")
	}

	result, err := service.ReconcilePrisoner(ctx, prisonerNumber)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, result)
}

func prisonerNumberParam(c echo.Context) (string, error) {
	prisonerNumber := c.Param("prisonerNumber")
	if err := utils.ValidateValue(prisonerNumber, "required,alphanum,max=10"); err != nil {
		return "", httperror.NewHTTPErrorf(http.StatusBadRequest, "invalid prisoner number %q", prisonerNumber)
	}
	return prisonerNumber, nil
}
