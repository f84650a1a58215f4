package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/ocx/judgeflow/internal/config"
	"github.com/ocx/judgeflow/internal/evaluation"
	"github.com/ocx/judgeflow/internal/handlers"
	"github.com/ocx/judgeflow/internal/ingest"
	"github.com/ocx/judgeflow/internal/queue"
	"github.com/ocx/judgeflow/internal/status"
	"github.com/ocx/judgeflow/internal/store"
)

func main() {
	// Local dev convenience; missing .env is fine.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	storeClient, err := store.NewClient(cfg.SupabaseURL, cfg.SupabaseKey)
	if err != nil {
		log.Fatalf("Failed to initialize store client: %v", err)
	}

	reporter := status.NewReporter(storeClient)

	router := handlers.Router(handlers.Deps{
		Judges:         storeClient,
		Assignments:    storeClient,
		QueueStore:     storeClient,
		SummaryStore:   storeClient,
		DuplicateStore: storeClient,
		Ingester:       ingest.NewIngester(storeClient, cfg.UploadBatchSize),
		Enqueuer:       queue.NewMaterializer(storeClient, cfg.RunJudgesPage, cfg.JobBatchSize),
		Lister:         evaluation.NewLister(storeClient),
		Reporter:       reporter,
		Live:           status.NewLiveHandler(reporter),
		WS:             status.NewWSHandler(reporter),
		PageLimit:      cfg.EvaluationsPageLimit,
		CORSOrigins:    cfg.CORSOrigins,
	})

	server := &http.Server{
		Addr:        ":" + cfg.Port,
		Handler:     router,
		ReadTimeout: 15 * time.Second,
		// Write timeout is generous because live status streams stay open
		// until the run settles.
		WriteTimeout: 10 * time.Minute,
		IdleTimeout:  60 * time.Second,
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-sigChan
		log.Println("Received shutdown signal, shutting down gracefully...")

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := server.Shutdown(ctx); err != nil {
			log.Printf("Server shutdown error: %v", err)
		}
	}()

	log.Printf("judgeflow API starting on port %s", cfg.Port)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatalf("Server failed to start: %v", err)
	}
	log.Println("Server stopped")
}
