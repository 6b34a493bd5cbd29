package echoapi

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/labstack/gommon/log"

	"github.com/trezcool/solarsys/core"
	"github.com/trezcool/solarsys/core/material"
	"github.com/trezcool/solarsys/core/planet"
	"github.com/trezcool/solarsys/core/progress"
	"github.com/trezcool/solarsys/core/question"
	"github.com/trezcool/solarsys/core/quiz"
	"github.com/trezcool/solarsys/core/report"
	"github.com/trezcool/solarsys/core/user"
)

type (
	ServerDeps struct {
		Conf           *core.Config
		Logger         core.Logger
		DisableReqLogs bool

		UserSvc     *user.Service
		PlanetSvc   *planet.Service
		MaterialSvc *material.Service
		QuestionSvc *question.Service
		QuizSvc     *quiz.Service
		Ledger      *progress.Ledger
		ReportSvc   *report.Service

		Validate   *validator.Validate
		Translator ut.Translator
	}

	Server struct {
		deps     ServerDeps
		app      *echo.Echo
		jwt      *JWT
		errors   chan error
		shutdown chan os.Signal
	}
)

func NewServer(deps ServerDeps) *Server {
	s := &Server{
		deps:     deps,
		app:      echo.New(),
		jwt:      NewJWT(deps.Conf),
		errors:   make(chan error, 1),
		shutdown: make(chan os.Signal, 1),
	}
	s.setup()
	return s
}

func (s *Server) setup() {
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
	s.app.Use(middleware.Secure())
	s.app.Use(middleware.CORSWithConfig(middleware.CORSConfig{AllowOrigins: conf.Server.CORSOrigins}))

	s.app.HTTPErrorHandler = newAppHTTPErrorHandler(s.deps.Logger, s.deps.Translator, s.SignalShutdown)
	s.app.Debug = conf.Debug

	s.app.GET("/health", health)

	g := s.app.Group("/api")
	authed := s.jwt.Middleware()
	loadUser := ctxUserMiddleware(s.jwt, s.deps.UserSvc)
	guards := routeGuards{
		user:    []echo.MiddlewareFunc{authed, loadUser},
		teacher: []echo.MiddlewareFunc{authed, loadUser, teacherMiddleware()},
	}

	registerAuthAPI(g, guards, s.jwt, s.deps.UserSvc, s.deps.Ledger, s.deps.Validate)
	registerPlanetAPI(g, s.deps.PlanetSvc)
	registerMaterialAPI(g, guards, s.deps.MaterialSvc, s.deps.Validate)
	registerQuestionAPI(g, guards, s.deps.QuestionSvc, s.deps.Validate)
	registerQuizAPI(g, guards, s.deps.QuizSvc, s.deps.ReportSvc, s.deps.Validate)
	registerProgressAPI(g, guards, s.deps.Ledger, s.deps.ReportSvc, s.deps.Validate)
}

// Start listens until the server is shut down. Errors are reported on Errors().
func (s *Server) Start() {
	signal.Notify(s.shutdown, os.Interrupt, syscall.SIGTERM)

	srv := &http.Server{
		Addr:         s.deps.Conf.Server.Address,
		ReadTimeout:  s.deps.Conf.Server.ReadTimeout,
		WriteTimeout: s.deps.Conf.Server.WriteTimeout,
	}
	if err := s.app.StartServer(srv); err != nil && err != http.ErrServerClosed {
		s.errors <- err
	}
}

func (s *Server) Errors() <-chan error {
	return s.errors
}

func (s *Server) ShutdownSignal() <-chan os.Signal {
	return s.shutdown
}

// SignalShutdown asks for a graceful shutdown.
func (s *Server) SignalShutdown() {
	select {
	case s.shutdown <- syscall.SIGTERM:
	default: // already signaled
	}
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.app.Shutdown(ctx)
}

func (s *Server) Close() error {
	return s.app.Close()
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.app.ServeHTTP(w, r)
}

// JWT returns the token issuer of the server.
func (s *Server) JWT() *JWT {
	return s.jwt
}

// routeGuards hold the middleware chains of the authenticated routes.
type routeGuards struct {
	user    []echo.MiddlewareFunc
	teacher []echo.MiddlewareFunc
}

func health(ctx echo.Context) error {
	return ctx.JSON(http.StatusOK, okResponse{OK: true})
}

type okResponse struct {
	OK bool `json:"ok"`
}
