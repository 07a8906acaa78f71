package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/infobank/intranet/core/news"
)

type newsApi struct {
	svc      *news.Service
	validate *validator.Validate
}

func registerNewsAPI(g *echo.Group, jwt, revocation echo.MiddlewareFunc, svc *news.Service, validate *validator.Validate) {
	api := newsApi{svc: svc, validate: validate}

	ng := g.Group("/news", jwt, revocation)
	ng.GET("", api.query)
	ng.POST("", api.create, adminMiddleware())
	ng.GET("/:id", api.retrieve)
	ng.PUT("/:id", api.update, adminMiddleware())
	ng.DELETE("/:id", api.destroy, adminMiddleware())
}

func (api *newsApi) create(ctx echo.Context) error {
	var data news.NewNews
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewNews")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	item, err := api.svc.Create(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "creating news")
	}
	return ctx.JSON(http.StatusCreated, item)
}

func (api *newsApi) query(ctx echo.Context) error {
	items, err := api.svc.Query(ctx.Request().Context(), ctx.QueryParam("search"))
	if err != nil {
		return errors.Wrap(err, "querying news")
	}
	if items == nil {
		items = []news.News{}
	}
	return ctx.JSON(http.StatusOK, items)
}

func (api *newsApi) retrieve(ctx echo.Context) error {
	item, err := api.svc.GetByID(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "finding news by ID")
	}
	return ctx.JSON(http.StatusOK, item)
}

func (api *newsApi) update(ctx echo.Context) error {
	var data news.NewNews
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewNews")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	item, err := api.svc.Update(ctx.Request().Context(), ctx.Param("id"), data)
	if err != nil {
		return errors.Wrap(err, "updating news")
	}
	return ctx.JSON(http.StatusOK, item)
}

func (api *newsApi) destroy(ctx echo.Context) error {
	if err := api.svc.Delete(ctx.Request().Context(), ctx.Param("id")); err != nil {
		return errors.Wrap(err, "deleting news")
	}
	return ctx.NoContent(http.StatusNoContent)
}
