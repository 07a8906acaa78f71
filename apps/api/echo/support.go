package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/infobank/intranet/core/support"
	"github.com/infobank/intranet/core/user"
)

type supportApi struct {
	svc      *support.Service
	userSvc  user.ServiceInterface
	validate *validator.Validate
}

func registerSupportAPI(g *echo.Group, jwt, revocation echo.MiddlewareFunc, svc *support.Service, userSvc user.ServiceInterface, validate *validator.Validate) {
	api := supportApi{svc: svc, userSvc: userSvc, validate: validate}

	sg := g.Group("/support", jwt, revocation)
	sg.POST("", api.submit)
	sg.GET("", api.queryMine)
	sg.GET("/counts", api.counts)
	sg.GET("/all", api.queryAll, adminMiddleware())
	sg.GET("/:id/replies", api.replies)
	sg.POST("/:id/read", api.markRead, adminMiddleware())
	sg.POST("/:id/reply", api.reply, adminMiddleware())
	sg.DELETE("/:id", api.destroy, adminMiddleware())
}

func (api *supportApi) submit(ctx echo.Context) error {
	var data support.NewMessage
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewMessage")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	ctxUsr, err := getContextUser(ctx, api.userSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	msg, err := api.svc.Submit(ctx.Request().Context(), data, ctxUsr.ID, ctxUsr.Email)
	if err != nil {
		return errors.Wrap(err, "submitting message")
	}
	return ctx.JSON(http.StatusCreated, msg)
}

func (api *supportApi) queryMine(ctx echo.Context) error {
	ctxUsr, err := getContextUser(ctx, api.userSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	msgs, err := api.svc.QueryByUser(ctx.Request().Context(), ctxUsr.ID)
	if err != nil {
		return errors.Wrap(err, "querying messages")
	}
	if msgs == nil {
		msgs = []support.Message{}
	}
	return ctx.JSON(http.StatusOK, msgs)
}

func (api *supportApi) counts(ctx echo.Context) error {
	ctxUsr, err := getContextUser(ctx, api.userSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	counts, err := api.svc.CountsByUser(ctx.Request().Context(), ctxUsr.ID)
	if err != nil {
		return errors.Wrap(err, "counting messages")
	}
	return ctx.JSON(http.StatusOK, counts)
}

func (api *supportApi) queryAll(ctx echo.Context) error {
	msgs, err := api.svc.QueryAll(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "querying messages")
	}
	if msgs == nil {
		msgs = []support.Message{}
	}
	return ctx.JSON(http.StatusOK, msgs)
}

// replies is visible to the sender and to admins.
func (api *supportApi) replies(ctx echo.Context) error {
	msg, err := api.svc.GetByID(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "finding message by ID")
	}

	ctxUsr, err := getContextUser(ctx, api.userSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}
	if msg.UserID != ctxUsr.ID && !ctxUsr.IsAdmin() {
		return errHttpNotFound
	}

	replies, err := api.svc.Replies(ctx.Request().Context(), msg.ID)
	if err != nil {
		return errors.Wrap(err, "querying replies")
	}
	if replies == nil {
		replies = []support.Reply{}
	}
	return ctx.JSON(http.StatusOK, replies)
}

func (api *supportApi) markRead(ctx echo.Context) error {
	msg, err := api.svc.MarkRead(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "marking message read")
	}
	return ctx.JSON(http.StatusOK, msg)
}

func (api *supportApi) reply(ctx echo.Context) error {
	var data support.NewReply
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewReply")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	ctxUsr, err := getContextUser(ctx, api.userSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	msg, err := api.svc.Reply(ctx.Request().Context(), ctx.Param("id"), data, ctxUsr.Nombre)
	if err != nil {
		return errors.Wrap(err, "replying to message")
	}
	return ctx.JSON(http.StatusOK, msg)
}

func (api *supportApi) destroy(ctx echo.Context) error {
	if err := api.svc.Delete(ctx.Request().Context(), ctx.Param("id")); err != nil {
		return errors.Wrap(err, "deleting message")
	}
	return ctx.NoContent(http.StatusNoContent)
}
