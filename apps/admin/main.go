package main

import (
	"fmt"
	"log"
	"os"

	"github.com/go-playground/validator/v10"

	"github.com/trezcool/solarsys/core"
	"github.com/trezcool/solarsys/core/planet"
	"github.com/trezcool/solarsys/core/progress"
	"github.com/trezcool/solarsys/core/user"
	appfs "github.com/trezcool/solarsys/fs"
	emailsvc "github.com/trezcool/solarsys/services/email"
	logsvc "github.com/trezcool/solarsys/services/logger"
	"github.com/trezcool/solarsys/storage/database"
	sqlxrepos "github.com/trezcool/solarsys/storage/database/sqlx"
)

func main() {
	conf := core.NewConfig()
	logger := logsvc.NewRollbarLogger(
		log.New(os.Stdout, "ADMIN : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile),
		conf,
	)
	logger.Enable(!conf.Debug)

	// set up DB
	if err := database.CreateIfNotExist(conf); err != nil {
		logger.Fatal(fmt.Sprintf("creating database: %v", err), err)
	}
	db, err := database.Open(conf)
	if err != nil {
		logger.Fatal(fmt.Sprintf("opening database: %v", err), err)
	}

	if err = core.ParseEmailTemplates(appfs.FS, conf); err != nil {
		logger.Fatal(fmt.Sprintf("parsing email templates: %v", err), err)
	}
	validate := validator.New()
	translator := core.NewTranslator()
	core.InitValidators(validate, translator)
	user.InitValidators(validate, translator)

	planetSvc := planet.NewService(sqlxrepos.NewPlanetRepository(db))

	// start CLI
	cli := commandLine{
		db:        db.DB,
		usrSvc:    user.NewService(sqlxrepos.NewUserRepository(db), emailsvc.NewConsoleService(conf)),
		planetSvc: planetSvc,
		ledger:    progress.NewLedger(sqlxrepos.NewProgressRepository(db), planetSvc, conf.Points),
		validate:  validate,
	}
	err = cli.run(os.Args)
	_ = db.Close()
	if err != nil {
		if err != errHelp {
			logger.Error(fmt.Sprintf("error: %v", err), err)
		}
		os.Exit(1)
	}
}
