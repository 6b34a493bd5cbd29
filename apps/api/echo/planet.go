package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/solarsys/core/planet"
)

type planetAPI struct {
	svc *planet.Service
}

func registerPlanetAPI(g *echo.Group, svc *planet.Service) {
	api := planetAPI{svc: svc}

	pg := g.Group("/planets")
	pg.GET("", api.query)
	pg.GET("/:id", api.retrieve)
}

func (api *planetAPI) query(ctx echo.Context) error {
	planets, err := api.svc.List(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "listing planets")
	}
	return ctx.JSON(http.StatusOK, echo.Map{"planets": planets})
}

func (api *planetAPI) retrieve(ctx echo.Context) error {
	p, err := api.svc.Get(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "getting planet")
	}
	return ctx.JSON(http.StatusOK, echo.Map{"planet": p})
}
