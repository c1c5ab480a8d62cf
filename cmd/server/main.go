package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/p1sangmas/SmartColorizer/internal/colorize"
	"github.com/p1sangmas/SmartColorizer/internal/config"
	"github.com/p1sangmas/SmartColorizer/internal/handlers"
	"github.com/p1sangmas/SmartColorizer/internal/model"
)

func enableCORS(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "POST, GET, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next(w, r)
	}
}

func main() {
	configPath := flag.String("config", "", "path to YAML config file")
	debugMode := flag.Bool("debug", false, "enable debug logging")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		logrus.Fatalf("Failed to load config: %v", err)
	}
	logger := config.NewLogger(cfg.Log, os.Stdout, *debugMode)

	opts, err := cfg.Colorize.Options()
	if err != nil {
		logger.Fatalf("Invalid colorize options: %v", err)
	}

	logger.WithField("model", cfg.Model.Path).Info("Loading model")
	loader := model.LoadAsync(cfg.Model, logger)
	defer loader.Close()

	pipeline, err := colorize.New(loader, opts, logger)
	if err != nil {
		logger.Fatalf("Failed to initialize pipeline: %v", err)
	}
	pipeline.OnTransition(func(id uint64, from, to colorize.State) {
		if to.Terminal() {
			logger.WithFields(logrus.Fields{"request_id": id, "state": to.String()}).Debug("colorization finished")
		}
	})

	handler := handlers.NewHandler(pipeline, loader, cfg.Server.MaxUploadBytes, logger)

	mux := http.NewServeMux()
	mux.HandleFunc("/health", enableCORS(handler.Health))
	mux.HandleFunc("/colorize", enableCORS(handler.Colorize))
	mux.HandleFunc("/colorize/cancel", enableCORS(handler.Cancel))

	srv := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	shutdownDone := make(chan struct{})
	go func() {
		defer close(shutdownDone)
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		pipeline.Cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.WithError(err).Warn("Server shutdown incomplete")
		}
	}()

	logger.WithFields(logrus.Fields{
		"addr":           cfg.Server.Addr,
		"white_point":    opts.WhitePoint.String(),
		"gray_transform": opts.GrayTransform.String(),
	}).Info("Server starting")
	logger.Info("Endpoints: GET /health, POST /colorize, POST /colorize/cancel")

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Fatalf("Server failed: %v", err)
	}
	<-shutdownDone
	logger.Info("Server stopped")
}
