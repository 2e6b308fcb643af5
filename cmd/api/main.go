package main

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"

	"bcall/adapters/api"
	"bcall/adapters/excel"
	"bcall/adapters/export"
	"bcall/adapters/postgres"
	"bcall/app"
	"bcall/internal"
	"bcall/internal/config"
	"bcall/ports"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment variables")
	}

	appConfig, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	logger := internal.NewDefaultLogger()

	var repo ports.ResultRepositoryPort
	if appConfig.Persistence() {
		db, err := sqlx.Connect("postgres", appConfig.Database.URL)
		if err != nil {
			log.Fatalf("Failed to connect to database: %v", err)
		}
		defer db.Close()

		pgRepo := postgres.NewResultRepository(db)
		if err := pgRepo.Migrate(context.Background()); err != nil {
			log.Fatalf("Failed to migrate result tables: %v", err)
		}
		repo = pgRepo
		logger.Info("Persistence enabled")
	} else {
		logger.Warn("DATABASE_URL not set, runs will not be stored")
	}

	defaults, err := appConfig.AnalysisConfig()
	if err != nil {
		log.Fatalf("Invalid analysis defaults: %v", err)
	}

	service := app.NewAnalysisService(excel.NewMatrixLoader(), repo, export.NewCSVWriter(), logger)
	server := api.NewServer(service, defaults, appConfig.Paths.UploadDir, logger)

	addr := ":" + appConfig.Server.Port
	httpServer := &http.Server{
		Addr:         addr,
		Handler:      server.Handler(),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 120 * time.Second,
	}

	log.Printf("[API] listening on %s", addr)
	if err := httpServer.ListenAndServe(); err != nil {
		log.Fatalf("Server failed: %v", err)
	}
}
