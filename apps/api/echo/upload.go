package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	uploadsvc "github.com/infobank/intranet/services/upload"
)

type uploadApi struct {
	store *uploadsvc.LocalStore
}

func registerUploadAPI(g *echo.Group, jwt, revocation echo.MiddlewareFunc, store *uploadsvc.LocalStore) {
	api := uploadApi{store: store}

	ug := g.Group("/uploads", jwt, revocation)
	ug.POST("", api.upload)
}

// profilePhotoFolder is the one destination open to every signed-in user;
// course, news and wall media stay admin-only.
const profilePhotoFolder = "perfiles"

// maxUploadSize caps image uploads at 5 MiB.
const maxUploadSize = 5 << 20

type UploadResponse struct {
	URL string `json:"url"`
}

func (api *uploadApi) upload(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}

	folder := ctx.FormValue("folder")
	if folder == "" {
		folder = "misc"
	}
	if !claims.IsAdmin && folder != profilePhotoFolder {
		return errHttpForbidden
	}

	fh, err := ctx.FormFile("file")
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, echo.Map{"error": "missing file"})
	}
	if fh.Size > maxUploadSize {
		return echo.NewHTTPError(http.StatusRequestEntityTooLarge, echo.Map{"error": "file too large"})
	}

	src, err := fh.Open()
	if err != nil {
		return errors.Wrap(err, "opening uploaded file")
	}
	defer src.Close()

	url, err := api.store.Save(folder, fh.Filename, src)
	if err != nil {
		if errors.Cause(err) == uploadsvc.ErrUnsupportedType {
			return echo.NewHTTPError(http.StatusBadRequest, echo.Map{"error": "unsupported file type"})
		}
		return errors.Wrap(err, "saving uploaded file")
	}
	return ctx.JSON(http.StatusCreated, UploadResponse{URL: url})
}
