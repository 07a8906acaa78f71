package echoapi

import (
	"context"
	"net/http"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/labstack/gommon/log"

	"github.com/infobank/intranet/core"
	"github.com/infobank/intranet/core/calendar"
	"github.com/infobank/intranet/core/course"
	"github.com/infobank/intranet/core/news"
	"github.com/infobank/intranet/core/notification"
	"github.com/infobank/intranet/core/support"
	"github.com/infobank/intranet/core/user"
	"github.com/infobank/intranet/core/wall"
	"github.com/infobank/intranet/services/realtime"
	uploadsvc "github.com/infobank/intranet/services/upload"
)

type (
	Options struct {
		Conf           *core.Config
		Logger         core.Logger
		DisableReqLogs bool

		UserSvc         user.ServiceInterface
		CourseSvc       *course.Service
		NewsSvc         *news.Service
		WallSvc         *wall.Service
		SupportSvc      *support.Service
		CalendarSvc     *calendar.Service
		NotificationSvc *notification.Service

		Revoker user.SessionRevoker
		Hub     *realtime.Hub
		Uploads *uploadsvc.LocalStore

		Validate   *validator.Validate
		Translator ut.Translator

		// SignalShutdown is called when a handler reports an unrecoverable
		// integrity error.
		SignalShutdown func()
	}

	Server interface {
		http.Handler
		Start()
		Stop(context.Context) error
	}

	server struct {
		opts *Options
		app  *echo.Echo
	}
)

var _ Server = (*server)(nil)

func NewServer(opts *Options) Server {
	s := &server{
		opts: opts,
		app:  echo.New(),
	}
	s.setup()
	return s
}

func (s *server) setup() {
	conf := s.opts.Conf

	s.app.Pre(middleware.RemoveTrailingSlash())
	if !s.opts.DisableReqLogs {
		s.app.Use(middleware.Logger())
	}
	// do not recover in DEV|TEST mode
	if !(conf.Debug || conf.TestMode) {
		s.app.Use(middleware.RecoverWithConfig(middleware.RecoverConfig{LogLevel: log.ERROR}))
	}

	s.app.HTTPErrorHandler = newAppHTTPErrorHandler(s.opts.Logger, s.opts.Translator, s.opts.SignalShutdown)
	s.app.Debug = conf.Debug

	s.app.GET("/", home(conf))
	if s.opts.Uploads != nil {
		s.app.Static(conf.MediaBaseURL, s.opts.Uploads.Root())
	}

	v1 := s.app.Group("/v1")
	jwt := newJWTMiddleware(conf)
	revocation := revocationMiddleware(s.opts.Revoker)

	registerUserAPI(v1, jwt, revocation, conf, s.opts.UserSvc, s.opts.Validate, s.opts.Translator)
	registerCourseAPI(v1, jwt, revocation, s.opts.CourseSvc, s.opts.UserSvc, s.opts.Validate)
	registerNewsAPI(v1, jwt, revocation, s.opts.NewsSvc, s.opts.Validate)
	registerWallAPI(v1, jwt, revocation, s.opts.WallSvc, s.opts.UserSvc, s.opts.Validate)
	registerSupportAPI(v1, jwt, revocation, s.opts.SupportSvc, s.opts.UserSvc, s.opts.Validate)
	registerCalendarAPI(v1, jwt, revocation, s.opts.CalendarSvc, s.opts.UserSvc, s.opts.Validate)
	registerNotificationAPI(v1, jwt, revocation, s.opts.NotificationSvc)
	registerExportAPI(v1, jwt, revocation, s.opts.CourseSvc, s.opts.UserSvc, s.opts.SupportSvc)
	if s.opts.Uploads != nil {
		registerUploadAPI(v1, jwt, revocation, s.opts.Uploads)
	}
	if s.opts.Hub != nil {
		registerWsAPI(v1, jwt, revocation, s.opts.Hub)
	}
}

func (s *server) Start() {
	s.app.Logger.Fatal(s.app.Start(s.opts.Conf.Server.Addr))
}

func (s *server) Stop(ctx context.Context) error {
	return s.app.Shutdown(ctx)
}

func (s *server) ServeHTTP(w http.ResponseWriter, r *http.Request) { // for tests
	s.app.ServeHTTP(w, r)
}

func home(conf *core.Config) echo.HandlerFunc {
	return func(ctx echo.Context) error {
		return ctx.String(http.StatusOK, "Welcome to "+conf.AppName+" API!")
	}
}
