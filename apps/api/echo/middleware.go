package echoapi

import (
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/infobank/intranet/core/user"
)

func adminMiddleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			claims, err := getContextClaims(ctx)
			if err != nil {
				return errors.Wrap(err, "getting context claims")
			}
			if claims.IsAdmin {
				return next(ctx)
			}
			return errHttpForbidden
		}
	}
}

// revocationMiddleware rejects tokens of accounts whose sessions were revoked
// after an admin blocked them; a valid signature is not enough then.
func revocationMiddleware(revoker user.SessionRevoker) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			claims, err := getContextClaims(ctx)
			if err != nil {
				return errors.Wrap(err, "getting context claims")
			}
			revoked, err := revoker.IsRevoked(ctx.Request().Context(), claims.Subject)
			if err != nil {
				return errors.Wrap(err, "checking session revocation")
			}
			if revoked {
				return errSessionRevoked
			}
			return next(ctx)
		}
	}
}
