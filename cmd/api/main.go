package main

import (
	"context"
	"log"
	"net/http"
	"path/filepath"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/jmoiron/sqlx"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"

	"baymv/adapters/api"
	"baymv/adapters/excel"
	"baymv/adapters/postgres"
	"baymv/app"
	"baymv/internal"
	"baymv/internal/config"
	"baymv/internal/migration"
	"baymv/internal/testkit"
)

func main() {
	// .env is optional; environment variables win.
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	appConfig, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	logger := internal.NewDefaultLogger()

	db, err := sqlx.Connect("postgres", appConfig.Database.URL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	migrator := migration.NewRunner()
	if err := migrator.Run(context.Background(), db); err != nil {
		log.Fatalf("Database migration failed: %v", err)
	}
	logger.Info("Database ready (migration version %s)", migrator.Version())

	datasets := postgres.NewDatasetRepository(db)
	runs := postgres.NewRunRepository(db)
	rng := testkit.NewSeededRNG()

	reader := excel.NewDataReader(appConfig.Data.ObservationFile)
	datasetService := app.NewDatasetService(datasets, reader, logger)
	inferenceService := app.NewInferenceService(datasets, runs, rng, logger, appConfig.Engine.Concurrency)
	reportService := app.NewReportService(datasets, runs, inferenceService, logger)

	// Optional startup ingestion of a configured observation file.
	if path := appConfig.Data.ObservationFile; path != "" {
		name := filepath.Base(path)
		if ds, err := datasetService.IngestFile(context.Background(), name, path); err != nil {
			logger.Warn("Startup ingestion of %s failed: %v", path, err)
		} else {
			logger.Info("Startup ingestion complete: dataset %s", ds.ID)
		}
	}

	if appConfig.Profiling.Enabled {
		go startProfilingServer(appConfig.Profiling.Port, logger)
	}

	server := api.NewServer(datasetService, inferenceService, reportService, logger)
	log.Fatal(server.Run(":" + appConfig.Server.Port))
}

// startProfilingServer serves pprof on a separate port so profiling traffic
// never mixes with API traffic.
func startProfilingServer(port string, logger *internal.Logger) {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Mount("/debug", middleware.Profiler())

	logger.Info("Profiling server starting on :%s", port)
	logger.Info("View profiles: go tool pprof http://localhost:%s/debug/pprof/profile?seconds=30", port)
	if err := http.ListenAndServe(":"+port, r); err != nil {
		logger.Error("Profiling server failed: %v", err)
	}
}
