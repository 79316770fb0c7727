package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/malla/core"
	"github.com/trezcool/malla/core/academic"
	"github.com/trezcool/malla/core/planner"
)

var errUnknownCareer = echo.NewHTTPError(http.StatusNotFound, "career not found")

type plannerApi struct {
	svc      planner.Service
	validate *validator.Validate
}

func registerPlannerAPI(g *echo.Group, jwt echo.MiddlewareFunc, deps ServerDeps) {
	api := plannerApi{
		svc:      deps.PlannerSvc,
		validate: deps.Validate,
	}

	cg := g.Group("/careers", jwt, studentMiddleware())
	cg.GET("", api.careers)
	cg.GET("/:career/malla", api.curriculum)
	cg.POST("/:career/sessions", api.start)
	cg.POST("/:career/auto", api.auto)

	sg := g.Group("/sessions/:id", jwt, studentMiddleware())
	sg.GET("", api.snapshot)
	sg.DELETE("", api.abandon)
	sg.GET("/eligible", api.eligible)
	sg.POST("/toggle", api.toggle)
	sg.POST("/commit", api.commit)
	sg.POST("/rewind", api.rewind)
	sg.POST("/finalize", api.finalize)
	sg.POST("/save", api.save)
}

// sessionContext resolves the :career param against the careers of the authenticated student.
func sessionContext(ctx echo.Context) (planner.SessionContext, error) {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return planner.SessionContext{}, errors.Wrap(err, "getting context claims")
	}
	career, ok := claims.Career(ctx.Param("career"))
	if !ok {
		return planner.SessionContext{}, errUnknownCareer
	}
	return planner.SessionContext{StudentID: claims.Subject, Career: career}, nil
}

// contextSession returns the planning session of the :id param owned by the authenticated student.
func (api *plannerApi) contextSession(ctx echo.Context) (*planner.Session, error) {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "getting context claims")
	}
	return api.svc.Session(ctx.Param("id"), claims.Subject)
}

// Handlers

func (api *plannerApi) careers(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}
	careers := claims.Careers
	if careers == nil {
		careers = []academic.Career{}
	}
	return ctx.JSON(http.StatusOK, careers)
}

func (api *plannerApi) curriculum(ctx echo.Context) error {
	sess, err := sessionContext(ctx)
	if err != nil {
		return err
	}
	progress, err := api.svc.Curriculum(ctx.Request().Context(), sess)
	if err != nil {
		return errors.Wrap(err, "summarizing curriculum")
	}
	return ctx.JSON(http.StatusOK, progress)
}

func (api *plannerApi) start(ctx echo.Context) error {
	sess, err := sessionContext(ctx)
	if err != nil {
		return err
	}
	s, err := api.svc.Start(ctx.Request().Context(), sess)
	if err != nil {
		return errors.Wrap(err, "starting planning session")
	}
	return ctx.JSON(http.StatusCreated, SessionResponse{ID: s.ID, Snapshot: s.Snapshot()})
}

func (api *plannerApi) auto(ctx echo.Context) error {
	sess, err := sessionContext(ctx)
	if err != nil {
		return err
	}
	var data AutoPlanRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to AutoPlanRequest")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	proj, err := api.svc.Auto(ctx.Request().Context(), sess, data.Name, data.Save)
	if err != nil {
		return errors.Wrap(err, "building automatic projection")
	}
	code := http.StatusOK
	if data.Save {
		code = http.StatusCreated
	}
	return ctx.JSON(code, proj)
}

func (api *plannerApi) snapshot(ctx echo.Context) error {
	s, err := api.contextSession(ctx)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, SessionResponse{ID: s.ID, Snapshot: s.Snapshot()})
}

func (api *plannerApi) abandon(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}
	if err := api.svc.Abandon(ctx.Param("id"), claims.Subject); err != nil {
		return err
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *plannerApi) eligible(ctx echo.Context) error {
	s, err := api.contextSession(ctx)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, s.Eligible())
}

func (api *plannerApi) toggle(ctx echo.Context) error {
	s, err := api.contextSession(ctx)
	if err != nil {
		return err
	}
	var data ToggleRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to ToggleRequest")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}
	return resultJSON(ctx, s.Toggle(data.Code))
}

func (api *plannerApi) commit(ctx echo.Context) error {
	s, err := api.contextSession(ctx)
	if err != nil {
		return err
	}
	return resultJSON(ctx, s.Commit())
}

func (api *plannerApi) rewind(ctx echo.Context) error {
	s, err := api.contextSession(ctx)
	if err != nil {
		return err
	}
	return resultJSON(ctx, s.Rewind())
}

func (api *plannerApi) finalize(ctx echo.Context) error {
	s, err := api.contextSession(ctx)
	if err != nil {
		return err
	}
	plan, res := s.Finalize()
	return ctx.JSON(http.StatusOK, FinalizeResponse{Result: res, Plan: plan})
}

func (api *plannerApi) save(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}
	var data SaveRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to SaveRequest")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	proj, err := api.svc.Save(ctx.Request().Context(), ctx.Param("id"), claims.Subject, data.Name)
	if err != nil {
		return errors.Wrap(err, "saving projection")
	}
	return ctx.JSON(http.StatusCreated, proj)
}

// resultJSON sends the Result of a simulator action; violations are a 409.
func resultJSON(ctx echo.Context, res planner.Result) error {
	if !res.OK() {
		return ctx.JSON(http.StatusConflict, res)
	}
	return ctx.JSON(http.StatusOK, res)
}

type (
	SessionResponse struct {
		ID string `json:"id"`
		planner.Snapshot
	}

	FinalizeResponse struct {
		Result planner.Result `json:"resultado"`
		Plan   planner.Plan   `json:"proyeccion"`
	}

	ToggleRequest struct {
		Code string `json:"codigo" validate:"required,coursecode"`
	}

	SaveRequest struct {
		Name string `json:"nombre" validate:"max=120"`
	}

	AutoPlanRequest struct {
		Name string `json:"nombre" validate:"max=120"`
		Save bool   `json:"guardar"`
	}
)

func (tr *ToggleRequest) Validate(validate *validator.Validate) error {
	tr.Code = core.CleanString(tr.Code)
	return validate.Struct(tr)
}

func (sr *SaveRequest) Validate(validate *validator.Validate) error {
	sr.Name = core.CleanString(sr.Name)
	return validate.Struct(sr)
}

func (ar *AutoPlanRequest) Validate(validate *validator.Validate) error {
	ar.Name = core.CleanString(ar.Name)
	return validate.Struct(ar)
}
