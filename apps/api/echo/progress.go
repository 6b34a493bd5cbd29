package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/solarsys/core"
	"github.com/trezcool/solarsys/core/progress"
	"github.com/trezcool/solarsys/core/report"
)

type progressAPI struct {
	ledger   *progress.Ledger
	reports  *report.Service
	validate *validator.Validate
}

func registerProgressAPI(
	g *echo.Group,
	guards routeGuards,
	ledger *progress.Ledger,
	reports *report.Service,
	validate *validator.Validate,
) {
	api := progressAPI{ledger: ledger, reports: reports, validate: validate}

	pg := g.Group("/progress")
	pg.POST("/visit", api.visit, guards.user...)
	pg.GET("/my", api.my, guards.user...)
	pg.GET("/all", api.all, guards.teacher...)
}

func (api *progressAPI) visit(ctx echo.Context) error {
	var data VisitRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to VisitRequest")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	usr, err := getContextUser(ctx)
	if err != nil {
		return err
	}
	prog, err := api.ledger.RecordVisit(ctx.Request().Context(), usr.ID, data.PlanetID)
	if err != nil {
		return errors.Wrap(err, "recording visit")
	}
	return ctx.JSON(http.StatusOK, echo.Map{"progress": prog.View()})
}

func (api *progressAPI) my(ctx echo.Context) error {
	usr, err := getContextUser(ctx)
	if err != nil {
		return err
	}
	mine, err := api.reports.MyProgress(ctx.Request().Context(), usr.ID)
	if err != nil {
		return errors.Wrap(err, "getting progress")
	}
	return ctx.JSON(http.StatusOK, echo.Map{"progress": mine})
}

func (api *progressAPI) all(ctx echo.Context) error {
	var filter report.StudentFilter
	if err := ctx.Bind(&filter); err != nil {
		return errors.Wrap(err, "binding to StudentFilter")
	}
	rows, err := api.reports.AllStudents(ctx.Request().Context(), filter)
	if err != nil {
		return errors.Wrap(err, "ranking students")
	}
	return ctx.JSON(http.StatusOK, echo.Map{"progress": rows})
}

type VisitRequest struct {
	PlanetID string `json:"planetId" validate:"required,notblank"`
}

func (vr *VisitRequest) Validate(validate *validator.Validate) error {
	vr.PlanetID = core.CleanString(vr.PlanetID)
	return validate.Struct(vr)
}
