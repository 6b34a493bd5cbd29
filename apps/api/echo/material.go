package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/solarsys/core/material"
)

type materialAPI struct {
	svc      *material.Service
	validate *validator.Validate
}

func registerMaterialAPI(g *echo.Group, guards routeGuards, svc *material.Service, validate *validator.Validate) {
	api := materialAPI{svc: svc, validate: validate}

	mg := g.Group("/materials")
	mg.GET("", api.query)
	mg.GET("/:id", api.retrieve)
	mg.POST("", api.create, guards.teacher...)
	mg.PUT("/:id", api.update, guards.teacher...)
	mg.DELETE("/:id", api.destroy, guards.teacher...)
}

func (api *materialAPI) query(ctx echo.Context) error {
	var filter material.QueryFilter
	if err := ctx.Bind(&filter); err != nil {
		return errors.Wrap(err, "binding to QueryFilter")
	}
	items, err := api.svc.List(ctx.Request().Context(), filter)
	if err != nil {
		return errors.Wrap(err, "listing materials")
	}
	return ctx.JSON(http.StatusOK, echo.Map{"materials": items})
}

func (api *materialAPI) retrieve(ctx echo.Context) error {
	m, err := api.svc.Get(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "getting material")
	}
	return ctx.JSON(http.StatusOK, echo.Map{"material": m})
}

func (api *materialAPI) create(ctx echo.Context) error {
	var data material.NewMaterial
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewMaterial")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	usr, err := getContextUser(ctx)
	if err != nil {
		return err
	}
	m, err := api.svc.Create(ctx.Request().Context(), data, usr.ID)
	if err != nil {
		return errors.Wrap(err, "creating material")
	}
	return ctx.JSON(http.StatusCreated, echo.Map{"material": m})
}

func (api *materialAPI) update(ctx echo.Context) error {
	var data material.UpdateMaterial
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateMaterial")
	}
	m, err := api.svc.Update(ctx.Request().Context(), ctx.Param("id"), data)
	if err != nil {
		return errors.Wrap(err, "updating material")
	}
	return ctx.JSON(http.StatusOK, echo.Map{"material": m})
}

func (api *materialAPI) destroy(ctx echo.Context) error {
	if err := api.svc.Delete(ctx.Request().Context(), ctx.Param("id")); err != nil {
		return errors.Wrap(err, "deleting material")
	}
	return ctx.JSON(http.StatusOK, okResponse{OK: true})
}
