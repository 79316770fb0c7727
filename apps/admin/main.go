package main

import (
	"fmt"
	"os"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/trezcool/malla/core"
	"github.com/trezcool/malla/core/planner"
	"github.com/trezcool/malla/core/projection"
	"github.com/trezcool/malla/services/academic"
	"github.com/trezcool/malla/services/logger"
	"github.com/trezcool/malla/storage/database"
	"github.com/trezcool/malla/storage/database/sqlx"
)

func main() {
	conf := core.NewConfig()
	logger := logsvc.New("ADMIN", conf)

	// set up DB
	if err := database.CreateIfNotExist(conf); err != nil {
		logger.Fatal(fmt.Sprintf("creating database: %v", err), err)
	}
	db, err := database.Open(conf)
	if err != nil {
		logger.Fatal(fmt.Sprintf("opening database: %v", err), err)
	}

	// set up services
	validate := validator.New()
	translator := core.NewTranslator()
	core.InitValidators(validate, translator)
	projection.InitValidators(validate, translator)

	client := academicsvc.NewClient(conf.Academic, logger)
	projSvc := projection.NewService(db, sqlxrepos.NewProjectionRepository(db), validate)
	plannerSvc := planner.NewService(
		client, client, projSvc,
		planner.NewSessionStore(1, time.Minute),
		planner.NewOptions(conf.Planner.CreditCap, time.Now),
	)

	// start CLI
	cli := commandLine{
		db:         db.DB,
		usrRepo:    sqlxrepos.NewUserRepository(db),
		plannerSvc: plannerSvc,
		out:        os.Stdout,
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
