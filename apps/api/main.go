package main

import (
	"context"
	"expvar"
	"fmt"
	"log"
	"net/http"
	_ "net/http/pprof"
	"os"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"

	echoapi "github.com/trezcool/solarsys/apps/api/echo"
	"github.com/trezcool/solarsys/core"
	"github.com/trezcool/solarsys/core/material"
	"github.com/trezcool/solarsys/core/planet"
	"github.com/trezcool/solarsys/core/progress"
	"github.com/trezcool/solarsys/core/question"
	"github.com/trezcool/solarsys/core/quiz"
	"github.com/trezcool/solarsys/core/report"
	"github.com/trezcool/solarsys/core/user"
	appfs "github.com/trezcool/solarsys/fs"
	emailsvc "github.com/trezcool/solarsys/services/email"
	logsvc "github.com/trezcool/solarsys/services/logger"
	"github.com/trezcool/solarsys/storage/database"
	sqlxrepos "github.com/trezcool/solarsys/storage/database/sqlx"
)

func main() {
	// =========================================================================
	// Set up Dependencies

	conf := core.NewConfig()

	// set up loggers
	logger := logsvc.NewRollbarLogger(
		log.New(os.Stdout, "API : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile),
		conf,
	)
	logger.Enable(!conf.Debug)

	dbLogger := logsvc.NewRollbarLogger(
		log.New(os.Stdout, "DB : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile),
		conf,
	)
	dbLogger.Enable(!conf.Debug)

	if err := conf.Validate(); err != nil {
		logger.Fatal(fmt.Sprintf("invalid config: %v", err), err)
	}

	// set up DB
	db, err := database.Setup(conf)
	if err != nil {
		dbLogger.Fatal(fmt.Sprintf("setting up database: %v", err), err)
	}
	defer func() {
		if err = db.Close(); err != nil {
			dbLogger.Fatal("Failed to close", err)
		}
	}()

	// set up repos
	usrRepo := sqlxrepos.NewUserRepository(db)
	planetRepo := sqlxrepos.NewPlanetRepository(db)
	progressRepo := sqlxrepos.NewProgressRepository(db)

	// set up services
	var mailSvc core.EmailService
	if conf.Debug {
		mailSvc = emailsvc.NewConsoleService(conf)
	} else {
		mailSvc = emailsvc.NewSendgridService(conf, logger)
	}
	usrSvc := user.NewService(usrRepo, mailSvc)
	planetSvc := planet.NewService(planetRepo)
	questionSvc := question.NewService(sqlxrepos.NewQuestionRepository(db), planetSvc)
	ledger := progress.NewLedger(progressRepo, planetSvc, conf.Points)
	quizSvc := quiz.NewService(sqlxrepos.NewAttemptRepository(db), questionSvc, planetSvc, ledger)

	if err = seedPlanets(planetSvc); err != nil {
		dbLogger.Fatal(fmt.Sprintf("seeding planets: %v", err), err)
	}

	// =========================================================================
	// Initialize App

	logger.Info(fmt.Sprintf("Application initializing : version %q", conf.Build))
	defer logger.Info("Application stopped")

	validate := validator.New()
	translator := core.NewTranslator()
	core.InitValidators(validate, translator)
	user.InitValidators(validate, translator)
	question.InitValidators(validate, translator)

	if err = core.ParseEmailTemplates(appfs.FS, conf); err != nil {
		logger.Fatal(fmt.Sprintf("parsing email templates: %v", err), err)
	}

	// =========================================================================
	// Start Debug Service
	//
	// /debug/pprof - Added to the default mux by importing the net/http/pprof package.
	// /debug/vars - Added to the default mux by importing the expvar package.

	// Expose important info under /debug/vars.
	expvar.NewString("build").Set(conf.Build)
	expvar.NewString("env").Set(conf.Env)

	go func() {
		if err := http.ListenAndServe(conf.Server.DebugHost, http.DefaultServeMux); err != nil {
			logger.Error(fmt.Sprintf("debug server closed: %v", err), err)
		}
	}()

	// =========================================================================
	// Start API Service

	server := echoapi.NewServer(echoapi.ServerDeps{
		Conf:        conf,
		Logger:      logger,
		UserSvc:     usrSvc,
		PlanetSvc:   planetSvc,
		MaterialSvc: material.NewService(sqlxrepos.NewMaterialRepository(db), planetSvc),
		QuestionSvc: questionSvc,
		QuizSvc:     quizSvc,
		Ledger:      ledger,
		ReportSvc:   report.NewService(usrSvc, ledger, progressRepo, quizSvc, planetSvc),
		Validate:    validate,
		Translator:  translator,
	})

	go func() {
		server.Start()
	}()

	// =========================================================================
	// Shutdown

	select {
	case err = <-server.Errors():
		logger.Fatal(fmt.Sprintf("server error: %v", err), err)

	case sig := <-server.ShutdownSignal():
		logger.Info(fmt.Sprintf("%v: Start shutdown...", sig))

		// give outstanding requests a deadline for completion
		ctx, cancel := context.WithTimeout(context.Background(), conf.Server.ShutdownTimeout)
		defer cancel()

		// asking listener to shutdown and shed load
		if err = server.Shutdown(ctx); err != nil {
			logger.Error(fmt.Sprintf("could not stop server gracefully: %v", err), err)

			if err = server.Close(); err != nil {
				logger.Fatal(fmt.Sprintf("could not force stop server: %v", err), err)
			}
		}
	}
}

// seedPlanets upserts the embedded reference planets.
func seedPlanets(svc *planet.Service) error {
	planets, err := database.LoadPlanets(appfs.FS)
	if err != nil {
		return err
	}
	return errors.Wrap(svc.Seed(context.Background(), planets), "storing planets")
}
