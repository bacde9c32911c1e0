package main

import (
	"context"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/iamdaviwilliam/phiq-insights/internal/analytics"
	"github.com/iamdaviwilliam/phiq-insights/internal/api/handlers"
	"github.com/iamdaviwilliam/phiq-insights/internal/api/middleware"
	"github.com/iamdaviwilliam/phiq-insights/internal/config"
	"github.com/iamdaviwilliam/phiq-insights/internal/ingest"
	"github.com/iamdaviwilliam/phiq-insights/internal/logger"
	"github.com/iamdaviwilliam/phiq-insights/internal/rules"
	"github.com/iamdaviwilliam/phiq-insights/internal/session"
)

func main() {
	var (
		configFile = flag.String("config", "", "Path to config file (optional)")
		addr       = flag.String("addr", "", "Listen address (overrides config)")
	)
	flag.Parse()

	log := logger.New()

	cfg, err := config.Load(*configFile)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load config")
	}
	if *addr != "" {
		cfg.Addr = *addr
	}

	ruleSet, err := rules.Load(cfg.RulesFile)
	if err != nil {
		log.Fatal().Err(err).Str("rules_file", cfg.RulesFile).Msg("Failed to load business rules")
	}

	normalizer := ingest.NewNormalizer(ruleSet, cfg.DefaultFranchise, log)
	engine := analytics.NewEngine(ruleSet, log)
	store := session.NewStore()

	reports := handlers.NewReportsHandler(normalizer, engine, store, cfg.MaxUploadBytes, log)

	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/dataset", reports.UploadDataset)
	mux.HandleFunc("GET /api/report/overview", reports.Overview)
	mux.HandleFunc("GET /api/report/recurrence", reports.RecurrenceReport)
	mux.HandleFunc("GET /api/report/manager/{cohort}", reports.ManagerView)

	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		middleware.WriteJSON(w, http.StatusOK, map[string]string{
			"status": "healthy",
			"time":   time.Now().Format(time.RFC3339),
		})
	})

	// RequestID wraps Logger so the request id is in the context by the
	// time the access log line is written.
	handler := middleware.Recovery(log)(
		middleware.RequestID(
			middleware.Logger(log)(
				middleware.CORS(mux),
			),
		),
	)

	server := &http.Server{
		Addr:         cfg.Addr,
		Handler:      handler,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info().Str("addr", cfg.Addr).Msg("Starting API server")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Fatal().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server exited")
}
