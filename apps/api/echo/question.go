package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/solarsys/core/question"
)

type questionAPI struct {
	svc      *question.Service
	validate *validator.Validate
}

func registerQuestionAPI(g *echo.Group, guards routeGuards, svc *question.Service, validate *validator.Validate) {
	api := questionAPI{svc: svc, validate: validate}

	qg := g.Group("/questions")
	qg.GET("", api.query, guards.user...)
	qg.GET("/:id", api.retrieve, guards.user...)
	qg.POST("", api.create, guards.teacher...)
	qg.PUT("/:id", api.update, guards.teacher...)
	qg.DELETE("/:id", api.destroy, guards.teacher...)
}

// canSeeAnswers tells whether the requesting user may see the correct answers.
func canSeeAnswers(ctx echo.Context) bool {
	usr, err := getContextUser(ctx)
	return err == nil && usr.IsTeacher()
}

func (api *questionAPI) query(ctx echo.Context) error {
	var filter question.QueryFilter
	if err := ctx.Bind(&filter); err != nil {
		return errors.Wrap(err, "binding to QueryFilter")
	}
	ordering := new(Ordering)
	ordering.Bind(ctx)

	items, err := api.svc.List(ctx.Request().Context(), filter, ordering.Orderings)
	if err != nil {
		return errors.Wrap(err, "listing questions")
	}
	return ctx.JSON(http.StatusOK, echo.Map{"questions": question.ForViewerSlice(items, canSeeAnswers(ctx))})
}

func (api *questionAPI) retrieve(ctx echo.Context) error {
	q, err := api.svc.Get(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "getting question")
	}
	return ctx.JSON(http.StatusOK, echo.Map{"question": question.ForViewer(q, canSeeAnswers(ctx))})
}

func (api *questionAPI) create(ctx echo.Context) error {
	var data question.NewQuestion
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewQuestion")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	usr, err := getContextUser(ctx)
	if err != nil {
		return err
	}
	q, err := api.svc.Create(ctx.Request().Context(), data, usr.ID)
	if err != nil {
		return errors.Wrap(err, "creating question")
	}
	return ctx.JSON(http.StatusCreated, echo.Map{"question": question.ForViewer(q, true)})
}

func (api *questionAPI) update(ctx echo.Context) error {
	var data question.UpdateQuestion
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateQuestion")
	}
	q, err := api.svc.Update(ctx.Request().Context(), ctx.Param("id"), data)
	if err != nil {
		return errors.Wrap(err, "updating question")
	}
	return ctx.JSON(http.StatusOK, echo.Map{"question": question.ForViewer(q, true)})
}

func (api *questionAPI) destroy(ctx echo.Context) error {
	if err := api.svc.Delete(ctx.Request().Context(), ctx.Param("id")); err != nil {
		return errors.Wrap(err, "deleting question")
	}
	return ctx.JSON(http.StatusOK, okResponse{OK: true})
}
