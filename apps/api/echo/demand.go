package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/malla/core/projection"
)

type demandApi struct {
	svc projection.Service
}

func registerDemandAPI(g *echo.Group, jwt echo.MiddlewareFunc, deps ServerDeps) {
	api := demandApi{svc: deps.ProjectionSvc}

	ag := g.Group("/admin", jwt, adminMiddleware())
	ag.GET("/demand", api.demand)
}

// demand aggregates the saved projections into per-course demand for the dashboard.
func (api *demandApi) demand(ctx echo.Context) error {
	var filter projection.DemandFilter
	if err := ctx.Bind(&filter); err != nil {
		return errors.Wrap(err, "binding to DemandFilter")
	}

	demand, err := api.svc.Demand(ctx.Request().Context(), filter)
	if err != nil {
		return errors.Wrap(err, "computing course demand")
	}
	if demand == nil {
		demand = []projection.Demand{}
	}
	return ctx.JSON(http.StatusOK, demand)
}
