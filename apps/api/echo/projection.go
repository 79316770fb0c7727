package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/malla/core/projection"
)

var errProjNotFoundInCtx = errors.New("projection object not found in echo.Context")

type projectionApi struct {
	svc      projection.Service
	validate *validator.Validate
}

func registerProjectionAPI(g *echo.Group, jwt echo.MiddlewareFunc, deps ServerDeps) {
	api := projectionApi{
		svc:      deps.ProjectionSvc,
		validate: deps.Validate,
	}

	pg := g.Group("/projections", jwt, studentMiddleware())
	pg.GET("", api.query)

	dg := pg.Group("/:id", api.objectMiddleware)
	dg.GET("", api.retrieve)
	dg.PATCH("", api.update)
	dg.DELETE("", api.destroy)
}

// objectMiddleware loads the authenticated student's projection identified by the :id param.
func (api *projectionApi) objectMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(ctx echo.Context) error {
		claims, err := getContextClaims(ctx)
		if err != nil {
			return errors.Wrap(err, "getting context claims")
		}
		proj, err := api.svc.Get(ctx.Request().Context(), ctx.Param("id"), claims.Subject)
		if err != nil {
			if errors.Cause(err) == projection.ErrNotFound {
				return errHttpNotFound
			}
			return errors.Wrap(err, "finding projection by ID")
		}
		ctx.Set("object", proj)
		return next(ctx)
	}
}

// Handlers

func (api *projectionApi) query(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}
	filter := new(projection.QueryFilter)
	if err := ctx.Bind(filter); err != nil {
		return ctx.JSON(http.StatusOK, []projection.Projection{})
	}
	filter.StudentID = claims.Subject // students only ever see their own projections
	ordering := new(Ordering)
	ordering.Bind(ctx)

	projs, err := api.svc.Query(ctx.Request().Context(), filter, ordering.Orderings)
	if err != nil {
		return errors.Wrap(err, "querying projections")
	}
	if projs == nil {
		projs = []projection.Projection{}
	}
	return ctx.JSON(http.StatusOK, projs)
}

func (api *projectionApi) retrieve(ctx echo.Context) error {
	proj, ok := ctx.Get("object").(projection.Projection)
	if !ok {
		return errors.Wrap(errProjNotFoundInCtx, "retrieving object from context")
	}
	return ctx.JSON(http.StatusOK, proj)
}

func (api *projectionApi) update(ctx echo.Context) error {
	proj, ok := ctx.Get("object").(projection.Projection)
	if !ok {
		return errors.Wrap(errProjNotFoundInCtx, "retrieving object from context")
	}
	var data projection.UpdateProjection
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateProjection")
	}

	proj, err := api.svc.Update(ctx.Request().Context(), proj, data)
	if err != nil {
		return errors.Wrap(err, "updating projection")
	}
	return ctx.JSON(http.StatusOK, proj)
}

func (api *projectionApi) destroy(ctx echo.Context) error {
	proj, ok := ctx.Get("object").(projection.Projection)
	if !ok {
		return errors.Wrap(errProjNotFoundInCtx, "retrieving object from context")
	}
	if _, err := api.svc.Delete(ctx.Request().Context(), proj.ID); err != nil {
		return errors.Wrap(err, "deleting projection")
	}
	return ctx.NoContent(http.StatusNoContent)
}
