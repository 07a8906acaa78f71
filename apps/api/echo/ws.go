package echoapi

import (
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/infobank/intranet/services/realtime"
)

type wsApi struct {
	hub *realtime.Hub
}

func registerWsAPI(g *echo.Group, jwt, revocation echo.MiddlewareFunc, hub *realtime.Hub) {
	api := wsApi{hub: hub}

	g.GET("/ws", api.serve, jwt, revocation)
}

// serve upgrades the connection and streams document events for the
// requested topics. The caller's account topic is always included so a
// block takes effect without polling.
func (api *wsApi) serve(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errUnauthorized
	}

	var topics []string
	if raw := ctx.QueryParam("topics"); raw != "" {
		for _, t := range strings.Split(raw, ",") {
			if t = strings.TrimSpace(t); t != "" {
				topics = append(topics, t)
			}
		}
	}

	conn, err := realtime.Upgrader.Upgrade(ctx.Response(), ctx.Request(), nil)
	if err != nil {
		return errors.Wrap(err, "upgrading connection")
	}

	api.hub.ServeClient(conn, claims.Subject, topics)
	return nil
}
