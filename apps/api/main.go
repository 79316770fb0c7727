package main

import (
	"context"
	"expvar"
	"flag"
	"fmt"
	"net/http"
	_ "net/http/pprof"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/trezcool/malla/apps/api/echo"
	"github.com/trezcool/malla/core"
	"github.com/trezcool/malla/core/planner"
	"github.com/trezcool/malla/core/projection"
	"github.com/trezcool/malla/core/user"
	"github.com/trezcool/malla/services/academic"
	"github.com/trezcool/malla/services/logger"
	"github.com/trezcool/malla/storage/database"
	"github.com/trezcool/malla/storage/database/inmem"
	"github.com/trezcool/malla/storage/database/sqlx"
)

func main() {
	inMemory := flag.Bool("inmem", false, "keep users and projections in memory instead of PostgreSQL")
	flag.Parse()

	// =========================================================================
	// Set up Dependencies

	conf := core.NewConfig()

	// set up loggers
	logger := logsvc.New("API", conf)
	dbLogger := logsvc.New("DB", conf)

	// set up repositories
	var (
		db       core.DB
		usrRepo  user.Repository
		projRepo projection.Repository
	)
	if *inMemory {
		memDB := inmemdb.Open()
		usrRepo = inmemdb.NewUserRepository(memDB)
		projRepo = inmemdb.NewProjectionRepository(memDB)
	} else {
		sqlDB, err := database.Setup(conf)
		if err != nil {
			logger.Fatal(fmt.Sprintf("setting up database: %v", err), err)
		}
		defer func() {
			if err = sqlDB.Close(); err != nil {
				dbLogger.Fatal("Failed to close", err)
			}
		}()
		db = sqlDB
		usrRepo = sqlxrepos.NewUserRepository(sqlDB)
		projRepo = sqlxrepos.NewProjectionRepository(sqlDB)
	}

	// =========================================================================
	// Initialize App

	logger.Info(fmt.Sprintf("Application initializing : version %q", conf.Build))
	defer logger.Info("Application stopped")

	validate := validator.New()
	translator := core.NewTranslator()
	core.InitValidators(validate, translator)
	user.InitValidators(validate, translator)
	projection.InitValidators(validate, translator)
	planner.InitValidators(validate, translator)

	user.LoadCommonPasswords(logger)

	// set up services
	client := academicsvc.NewClient(conf.Academic, logger)
	curricula, err := academicsvc.NewCachedCurricula(client, conf.Academic.CurriculumCacheSz)
	if err != nil {
		logger.Fatal(fmt.Sprintf("setting up curriculum cache: %v", err), err)
	}

	usrSvc := user.NewService(usrRepo)
	projSvc := projection.NewService(db, projRepo, validate)
	plannerSvc := planner.NewService(
		curricula,
		client,
		projSvc,
		planner.NewSessionStore(conf.Server.SessionCapacity, conf.Server.SessionTTL),
		planner.NewOptions(conf.Planner.CreditCap, time.Now),
	)

	// =========================================================================
	// Start Debug Service
	//
	// /debug/pprof - Added to the default mux by importing the net/http/pprof package.
	// /debug/vars - Added to the default mux by importing the expvar package.

	// Expose important info under /debug/vars.
	expvar.NewString("build").Set(conf.Build)
	expvar.NewString("env").Set(conf.Env)
	expvar.Publish("curricula_cached", expvar.Func(func() interface{} { return curricula.Len() }))

	go func() {
		if err := http.ListenAndServe(conf.Server.DebugHost, http.DefaultServeMux); err != nil {
			logger.Error(fmt.Sprintf("debug server closed: %v", err), err)
		}
	}()

	// =========================================================================
	// Start API Service

	server := echoapi.NewServer(
		echoapi.ServerDeps{
			Conf:          conf,
			Logger:        logger,
			Auth:          client,
			UserSvc:       usrSvc,
			PlannerSvc:    plannerSvc,
			ProjectionSvc: projSvc,
			Validate:      validate,
			Translator:    translator,
		},
	)

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
