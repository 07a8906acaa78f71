package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"

	echoapi "github.com/infobank/intranet/apps/api/echo"
	"github.com/infobank/intranet/core"
	"github.com/infobank/intranet/core/calendar"
	"github.com/infobank/intranet/core/course"
	"github.com/infobank/intranet/core/news"
	"github.com/infobank/intranet/core/notification"
	"github.com/infobank/intranet/core/support"
	"github.com/infobank/intranet/core/user"
	"github.com/infobank/intranet/core/wall"
	emailsvc "github.com/infobank/intranet/services/email"
	logsvc "github.com/infobank/intranet/services/logger"
	"github.com/infobank/intranet/services/realtime"
	revokesvc "github.com/infobank/intranet/services/revoke"
	uploadsvc "github.com/infobank/intranet/services/upload"
	"github.com/infobank/intranet/storage/database"
	inmemdb "github.com/infobank/intranet/storage/database/inmem"
	sqlxrepos "github.com/infobank/intranet/storage/database/sqlx"
)

type repositories struct {
	user         user.Repository
	course       course.Repository
	news         news.Repository
	wall         wall.Repository
	support      support.Repository
	calendar     calendar.Repository
	notification notification.Repository
}

func main() {
	// =========================================================================
	// Set up Dependencies

	conf := core.NewConfig()

	std := log.New(os.Stdout, "API : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile)
	var logger core.Logger
	if conf.RollbarToken != "" {
		rl := logsvc.NewRollbarLogger(std, conf)
		rl.Enable(!conf.Debug)
		logger = rl
	} else {
		logger = logsvc.NewStdLogger(std)
	}

	// set up storage
	var repos repositories
	if conf.TestMode {
		mem := inmemdb.NewDB()
		repos = repositories{
			user:         inmemdb.NewUserRepository(mem),
			course:       inmemdb.NewCourseRepository(mem),
			news:         inmemdb.NewNewsRepository(mem),
			wall:         inmemdb.NewWallRepository(mem),
			support:      inmemdb.NewSupportRepository(mem),
			calendar:     inmemdb.NewCalendarRepository(mem),
			notification: inmemdb.NewNotificationRepository(mem),
		}
	} else {
		db, err := setUpDB(conf)
		if err != nil {
			logger.Fatal(fmt.Sprintf("setting up database: %v", err), err)
		}
		defer func() {
			if err = db.Close(); err != nil {
				logger.Error("failed to close database", err)
			}
		}()
		repos = repositories{
			user:         sqlxrepos.NewUserRepository(db),
			course:       sqlxrepos.NewCourseRepository(db),
			news:         sqlxrepos.NewNewsRepository(db),
			wall:         sqlxrepos.NewWallRepository(db),
			support:      sqlxrepos.NewSupportRepository(db),
			calendar:     sqlxrepos.NewCalendarRepository(db),
			notification: sqlxrepos.NewNotificationRepository(db),
		}
	}

	// set up services
	var mailSvc core.EmailService
	if conf.Debug {
		mailSvc = emailsvc.NewConsoleService(conf)
	} else {
		mailSvc = emailsvc.NewSendgridService(conf, logger)
	}

	var revoker user.SessionRevoker
	if conf.Redis.Addr != "" {
		var err error
		if revoker, err = revokesvc.NewRedisRevoker(conf); err != nil {
			logger.Fatal(fmt.Sprintf("connecting to redis: %v", err), err)
		}
	} else {
		revoker = revokesvc.NewInmemRevoker()
	}

	bus := core.NewBus()

	notificationSvc := notification.NewService(repos.notification, bus)
	usrSvc := user.NewService(conf, repos.user, mailSvc, bus, revoker)
	courseSvc := course.NewService(repos.course, bus, notificationSvc)
	newsSvc := news.NewService(repos.news, bus)
	wallSvc := wall.NewService(repos.wall, bus)
	supportSvc := support.NewService(conf, repos.support, mailSvc, bus, notificationSvc)
	calendarSvc := calendar.NewService(repos.calendar, bus)

	hub := realtime.NewHub(bus, logger)
	defer hub.Close()

	uploads, err := uploadsvc.NewLocalStore(conf)
	if err != nil {
		logger.Fatal(fmt.Sprintf("setting up media store: %v", err), err)
	}

	// =========================================================================
	// Initialize App

	logger.Info(fmt.Sprintf("Application initializing : version %q", conf.Build))
	defer logger.Info("Application stopped")

	validate := validator.New()
	translator := newTranslator()
	core.InitValidators(validate, translator)
	user.RegisterValidators(conf, validate, translator)

	// =========================================================================
	// Start API Service

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	server := echoapi.NewServer(&echoapi.Options{
		Conf:            conf,
		Logger:          logger,
		UserSvc:         usrSvc,
		CourseSvc:       courseSvc,
		NewsSvc:         newsSvc,
		WallSvc:         wallSvc,
		SupportSvc:      supportSvc,
		CalendarSvc:     calendarSvc,
		NotificationSvc: notificationSvc,
		Revoker:         revoker,
		Hub:             hub,
		Uploads:         uploads,
		Validate:        validate,
		Translator:      translator,
		SignalShutdown:  func() { shutdown <- syscall.SIGTERM },
	})

	go server.Start()

	// =========================================================================
	// Shutdown

	sig := <-shutdown
	logger.Info(fmt.Sprintf("%v: Start shutdown...", sig))

	// give outstanding requests a deadline for completion
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Stop(ctx); err != nil {
		logger.Error(fmt.Sprintf("could not stop server gracefully: %v", err), err)
	}
}

func setUpDB(conf *core.Config) (*sqlx.DB, error) {
	if err := database.CreateIfNotExist(conf); err != nil {
		return nil, err
	}

	db, err := database.Open(conf)
	if err != nil {
		return nil, err
	}

	if err = database.Migrate(db.DB); err != nil {
		return nil, err
	}
	return db, nil
}

func newTranslator() ut.Translator {
	_en := en.New()
	uni := ut.New(_en, _en)
	translator, _ := uni.GetTranslator("en")
	return translator
}
