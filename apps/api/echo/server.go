package echoapi

import (
	"context"
	"net/http"
	"os"
	"syscall"
	"time"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/labstack/gommon/log"

	"github.com/trezcool/madrasa/core"
	"github.com/trezcool/madrasa/core/academic"
	"github.com/trezcool/madrasa/core/fee"
	"github.com/trezcool/madrasa/core/notice"
	"github.com/trezcool/madrasa/core/reminder"
	"github.com/trezcool/madrasa/core/staff"
	"github.com/trezcool/madrasa/core/student"
	"github.com/trezcool/madrasa/core/user"
)

type (
	Deps struct {
		Conf           *core.Config
		Logger         core.Logger
		Validate       *validator.Validate
		Translator     ut.Translator
		DisableReqLogs bool
		Now            func() time.Time // defaults to time.Now

		UserSvc     user.Service
		StudentSvc  student.Service
		FeeSvc      fee.Service
		ReminderSvc reminder.Service
		NoticeSvc   notice.Service
		StaffSvc    staff.Service
		AcademicSvc academic.Service
	}

	Server interface {
		http.Handler
		Start()
		Shutdown(ctx context.Context) error
		Close() error
		Errors() <-chan error
		ShutdownSignal() <-chan os.Signal
	}

	server struct {
		address  string
		deps     *Deps
		app      *echo.Echo
		errors   chan error
		shutdown chan os.Signal
	}
)

var _ Server = (*server)(nil)

// NewServer builds the API server. shutdown receives OS signals; it is created when nil.
func NewServer(address string, shutdown chan os.Signal, deps *Deps) Server {
	if shutdown == nil {
		shutdown = make(chan os.Signal, 1)
	}
	if deps.Now == nil {
		deps.Now = time.Now
	}
	s := &server{
		address:  address,
		deps:     deps,
		app:      echo.New(),
		errors:   make(chan error, 1),
		shutdown: shutdown,
	}
	s.setup()
	return s
}

func (s *server) setup() {
	conf := s.deps.Conf

	s.app.HideBanner = true
	s.app.Pre(middleware.RemoveTrailingSlash())
	if !s.deps.DisableReqLogs {
		s.app.Use(middleware.Logger())
	}
	// do not recover in DEV|TEST mode
	if !(conf.Debug || conf.TestMode) {
		s.app.Use(middleware.RecoverWithConfig(middleware.RecoverConfig{LogLevel: log.ERROR}))
	}
	s.app.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: []string{conf.FrontendBaseURL},
		AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization},
	}))

	s.app.HTTPErrorHandler = newAppHTTPErrorHandler(s.deps.Logger, s.deps.Translator, s.signalShutdown)
	s.app.Debug = conf.Debug

	s.app.GET("/", s.home)

	v1 := s.app.Group("/v1")
	jwt := middleware.JWTWithConfig(jwtConfig(conf))
	admin := adminMiddleware(s.deps.UserSvc)

	registerUserAPI(v1, jwt, admin, s.deps)
	registerStudentAPI(v1.Group("/students", jwt, admin), s.deps)
	registerFeeAPI(v1, jwt, admin, s.deps)
	registerReminderAPI(v1.Group("/reminders", jwt, admin), s.deps)
	registerNoticeAPI(v1, jwt, admin, s.deps)
	registerStaffAPI(v1.Group("/staff", jwt, admin), s.deps)
	registerAcademicAPI(v1, jwt, admin, s.deps)
	v1.GET("/settings", s.settings, jwt, admin)
}

func (s *server) Start() {
	s.deps.Logger.Info("API listening on " + s.address)
	if err := s.app.Start(s.address); err != nil && err != http.ErrServerClosed {
		s.errors <- err
	}
}

func (s *server) Shutdown(ctx context.Context) error {
	return s.app.Shutdown(ctx)
}

func (s *server) Close() error {
	return s.app.Close()
}

func (s *server) Errors() <-chan error {
	return s.errors
}

func (s *server) ShutdownSignal() <-chan os.Signal {
	return s.shutdown
}

func (s *server) signalShutdown() {
	select {
	case s.shutdown <- syscall.SIGTERM:
	default: // already shutting down
	}
}

func (s *server) ServeHTTP(w http.ResponseWriter, r *http.Request) { // for tests
	s.app.ServeHTTP(w, r)
}

func (s *server) home(ctx echo.Context) error {
	return ctx.String(http.StatusOK, "Welcome to "+s.deps.Conf.Institute.Name+" API!")
}

// settings returns the institute settings. They are read-only: they come from the configuration.
func (s *server) settings(ctx echo.Context) error {
	return ctx.JSON(http.StatusOK, s.deps.Conf.Institute)
}
