package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/solarsys/core/quiz"
	"github.com/trezcool/solarsys/core/report"
)

type quizAPI struct {
	svc      *quiz.Service
	reports  *report.Service
	validate *validator.Validate
}

func registerQuizAPI(
	g *echo.Group,
	guards routeGuards,
	svc *quiz.Service,
	reports *report.Service,
	validate *validator.Validate,
) {
	api := quizAPI{svc: svc, reports: reports, validate: validate}

	qg := g.Group("/quiz")
	qg.POST("/submit", api.submit, guards.user...)
	qg.GET("/my-scores", api.myScores, guards.user...)
	qg.GET("/scores", api.scores, guards.user...)
}

func (api *quizAPI) submit(ctx echo.Context) error {
	var data quiz.Submission
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to Submission")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	usr, err := getContextUser(ctx)
	if err != nil {
		return err
	}
	res, err := api.svc.Submit(ctx.Request().Context(), usr, data)
	if err != nil {
		return errors.Wrap(err, "submitting quiz")
	}
	return ctx.JSON(http.StatusOK, res)
}

func (api *quizAPI) myScores(ctx echo.Context) error {
	usr, err := getContextUser(ctx)
	if err != nil {
		return err
	}
	attempts, err := api.svc.UserAttempts(ctx.Request().Context(), usr.ID)
	if err != nil {
		return errors.Wrap(err, "listing attempts")
	}
	return ctx.JSON(http.StatusOK, echo.Map{"attempts": attempts})
}

// scores is open to teachers, and to students asking for their own history.
func (api *quizAPI) scores(ctx echo.Context) error {
	var filter report.ScoreFilter
	if err := ctx.Bind(&filter); err != nil {
		return errors.Wrap(err, "binding to ScoreFilter")
	}

	usr, err := getContextUser(ctx)
	if err != nil {
		return err
	}
	if !usr.IsTeacher() && filter.UserID != usr.ID {
		return errHttpForbidden
	}

	rows, err := api.reports.Scores(ctx.Request().Context(), filter)
	if err != nil {
		return errors.Wrap(err, "listing scores")
	}
	return ctx.JSON(http.StatusOK, echo.Map{"attempts": rows})
}
