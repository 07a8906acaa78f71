package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/infobank/intranet/core/user"
	"github.com/infobank/intranet/core/wall"
)

type wallApi struct {
	svc      *wall.Service
	userSvc  user.ServiceInterface
	validate *validator.Validate
}

func registerWallAPI(g *echo.Group, jwt, revocation echo.MiddlewareFunc, svc *wall.Service, userSvc user.ServiceInterface, validate *validator.Validate) {
	api := wallApi{svc: svc, userSvc: userSvc, validate: validate}

	wg := g.Group("/wall", jwt, revocation)
	wg.GET("", api.query)
	wg.POST("", api.create, adminMiddleware())
	wg.GET("/:id", api.retrieve)
	wg.PUT("/:id", api.update, adminMiddleware())
	wg.DELETE("/:id", api.destroy, adminMiddleware())
}

func (api *wallApi) create(ctx echo.Context) error {
	var data wall.NewPost
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewPost")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	ctxUsr, err := getContextUser(ctx, api.userSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	post, err := api.svc.Create(ctx.Request().Context(), data, ctxUsr.Nombre, ctxUsr.Rol)
	if err != nil {
		return errors.Wrap(err, "creating post")
	}
	return ctx.JSON(http.StatusCreated, post)
}

func (api *wallApi) query(ctx echo.Context) error {
	posts, err := api.svc.Query(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "querying posts")
	}
	if posts == nil {
		posts = []wall.Post{}
	}
	return ctx.JSON(http.StatusOK, posts)
}

func (api *wallApi) retrieve(ctx echo.Context) error {
	post, err := api.svc.GetByID(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "finding post by ID")
	}
	return ctx.JSON(http.StatusOK, post)
}

func (api *wallApi) update(ctx echo.Context) error {
	var data wall.NewPost
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewPost")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	post, err := api.svc.Update(ctx.Request().Context(), ctx.Param("id"), data)
	if err != nil {
		return errors.Wrap(err, "updating post")
	}
	return ctx.JSON(http.StatusOK, post)
}

func (api *wallApi) destroy(ctx echo.Context) error {
	if err := api.svc.Delete(ctx.Request().Context(), ctx.Param("id")); err != nil {
		return errors.Wrap(err, "deleting post")
	}
	return ctx.NoContent(http.StatusNoContent)
}
