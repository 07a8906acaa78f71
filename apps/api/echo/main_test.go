package echoapi_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"reflect"
	"testing"
	"time"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"

	. "github.com/infobank/intranet/apps/api/echo"
	"github.com/infobank/intranet/core"
	"github.com/infobank/intranet/core/calendar"
	"github.com/infobank/intranet/core/course"
	"github.com/infobank/intranet/core/news"
	"github.com/infobank/intranet/core/notification"
	"github.com/infobank/intranet/core/support"
	"github.com/infobank/intranet/core/user"
	"github.com/infobank/intranet/core/wall"
	emailsvc "github.com/infobank/intranet/services/email"
	revokesvc "github.com/infobank/intranet/services/revoke"
	uploadsvc "github.com/infobank/intranet/services/upload"
	inmemdb "github.com/infobank/intranet/storage/database/inmem"
)

var (
	conf    *core.Config
	app     Server
	usrSvc  *user.Service
	crsSvc  *course.Service
	revoker user.SessionRevoker

	errMissingToken = httpErr{Error: "missing or malformed jwt"}
	errPermDenied   = httpErr{Error: "permission denied"}
	errRevoked      = httpErr{Error: "session revoked"}
	errBlocked      = httpErr{Error: "account blocked or deactivated"}
)

func TestMain(m *testing.M) {
	conf = &core.Config{
		TestMode:         true,
		AppName:          "InfoBank",
		SecretKey:        "secret-test-key",
		FrontendBaseURL:  "http://localhost:3000",
		DefaultFromEmail: "noreply@infobank.com",
		SupportEmail:     "soporte@infobank.com",
		Server: core.ServerConfig{
			JWTExpirationDelta:        time.Hour,
			JWTRefreshExpirationDelta: 4 * time.Hour,
			BlockedLogoutDelay:        15 * time.Second,
		},
	}

	mediaRoot, err := os.MkdirTemp("", "media")
	if err != nil {
		panic(err)
	}
	conf.MediaRoot = mediaRoot
	conf.MediaBaseURL = "/media"

	// set up storage & services
	mem := inmemdb.NewDB()
	bus := core.NewBus()
	mailSvc := emailsvc.NewConsoleServiceMock(conf)
	revoker = revokesvc.NewInmemRevoker()

	notifSvc := notification.NewService(inmemdb.NewNotificationRepository(mem), bus)
	usrSvc = user.NewService(conf, inmemdb.NewUserRepository(mem), mailSvc, bus, revoker)
	crsSvc = course.NewService(inmemdb.NewCourseRepository(mem), bus, notifSvc)
	newsSvc := news.NewService(inmemdb.NewNewsRepository(mem), bus)
	wallSvc := wall.NewService(inmemdb.NewWallRepository(mem), bus)
	supportSvc := support.NewService(conf, inmemdb.NewSupportRepository(mem), mailSvc, bus, notifSvc)
	calendarSvc := calendar.NewService(inmemdb.NewCalendarRepository(mem), bus)

	uploads, err := uploadsvc.NewLocalStore(conf)
	if err != nil {
		panic(err)
	}

	validate := validator.New()
	_en := en.New()
	uni := ut.New(_en, _en)
	translator, _ := uni.GetTranslator("en")
	core.InitValidators(validate, translator)
	user.RegisterValidators(conf, validate, translator)

	// set up server
	app = NewServer(&Options{
		Conf:            conf,
		Logger:          noopLogger{},
		DisableReqLogs:  true,
		UserSvc:         usrSvc,
		CourseSvc:       crsSvc,
		NewsSvc:         newsSvc,
		WallSvc:         wallSvc,
		SupportSvc:      supportSvc,
		CalendarSvc:     calendarSvc,
		NotificationSvc: notifSvc,
		Revoker:         revoker,
		Uploads:         uploads,
		Validate:        validate,
		Translator:      translator,
		SignalShutdown:  func() {},
	})

	code := m.Run()
	os.RemoveAll(mediaRoot)
	os.Exit(code)
}

type noopLogger struct{}

func (noopLogger) Enable(bool)                  {}
func (noopLogger) Debug(string, ...interface{}) {}
func (noopLogger) Info(string, ...interface{})  {}
func (noopLogger) Warn(string, ...interface{})  {}
func (noopLogger) Error(string, ...interface{}) {}
func (noopLogger) Fatal(string, ...interface{}) {}

type httpErr struct {
	Error string `json:"error"`
}

type httpTest struct {
	name     string
	method   string
	path     string
	body     []byte
	token    string
	wantCode int
	wantData []byte
}

func newAuthRequest(method, path, token string, data ...[]byte) (*http.Request, *httptest.ResponseRecorder) {
	var body bytes.Buffer
	if len(data) > 0 {
		body.Write(data[0])
	}
	req := httptest.NewRequest(method, path, &body)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	return req, rec
}

func newRequest(method, path string, data ...[]byte) (*http.Request, *httptest.ResponseRecorder) {
	return newAuthRequest(method, path, "", data...)
}

func getToken(t *testing.T, usr user.User) string {
	t.Helper()
	claims := GetUserClaims(conf, usr)
	token, err := GenerateToken(conf, claims)
	if err != nil {
		t.Fatalf("getToken(): %v", err)
	}
	return token
}

func createUser(t *testing.T, nombre, email, pwd, rol string) user.User {
	t.Helper()
	usr, err := usrSvc.Create(context.Background(), user.NewUser{
		Nombre:   nombre,
		Apellido: "Test",
		Email:    email,
		Area:     "Sistemas",
		Rol:      rol,
		Password: pwd,
	})
	if err != nil {
		t.Fatalf("createUser(%s): %v", email, err)
	}
	return usr
}

func marchallObj(t *testing.T, obj interface{}) []byte {
	t.Helper()
	data, err := json.Marshal(obj)
	if err != nil {
		t.Fatalf("marchallObj(): %v", err)
	}
	return data
}

func jsonBytesEqual(b1, b2 []byte) (bool, error) {
	var j1, j2 interface{}
	if err := json.Unmarshal(b1, &j1); err != nil {
		return false, err
	}
	if err := json.Unmarshal(b2, &j2); err != nil {
		return false, err
	}
	return reflect.DeepEqual(j1, j2), nil
}

func checkCodeAndData(t *testing.T, tt httpTest, rec *httptest.ResponseRecorder) {
	t.Helper()
	if rec.Code != tt.wantCode {
		t.Errorf("failed! code = %v; wantCode %v; body %s", rec.Code, tt.wantCode, rec.Body.String())
	}
	if tt.wantData == nil {
		return
	}
	ok, err := jsonBytesEqual(rec.Body.Bytes(), tt.wantData)
	if err != nil {
		t.Errorf("jsonBytesEqual() failed to compare; err %v", err)
	}
	if !ok {
		t.Errorf("failed! data = %v; wantData %v", rec.Body.String(), string(tt.wantData))
	}
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder, dst interface{}) {
	t.Helper()
	if err := json.Unmarshal(rec.Body.Bytes(), dst); err != nil {
		t.Fatalf("decodeBody(%s): %v", rec.Body.String(), err)
	}
}
