package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"lexsaksham-backend/app"
	"lexsaksham-backend/config"
	"lexsaksham-backend/handlers"
	"lexsaksham-backend/middleware"
	"lexsaksham-backend/observability"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("Failed to load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := observability.NewLogger(os.Stdout, cfg.Telemetry.LogFormat, cfg.Telemetry.LogLevel)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracer, err := observability.InitTracer(ctx, cfg.Telemetry.ServiceName, cfg.Telemetry.OTLPEndpoint)
	if err != nil {
		logger.Error("Failed to initialize tracing", slog.Any("error", err))
		os.Exit(1)
	}
	defer shutdownTracer(context.Background())

	a, err := app.New(ctx, cfg, logger)
	if err != nil {
		logger.Error("Failed to initialize services", slog.Any("error", err))
		os.Exit(1)
	}
	defer a.Close()

	if cfg.Server.GinMode != "" {
		gin.SetMode(cfg.Server.GinMode)
	}

	// Setup Gin router
	r := gin.New()
	r.Use(
		gin.Recovery(),
		otelgin.Middleware(cfg.Telemetry.ServiceName),
		middleware.RequestID(),
		middleware.AccessLog(logger),
	)
	r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(a.Metrics.Registry, promhttp.HandlerOpts{})))

	var protect []gin.HandlerFunc
	if a.Verifier != nil {
		protect = append(protect, middleware.APIKeyAuth(a.Verifier, logger))
		logger.Info("API key authentication enabled")
	}

	handlers.Register(r, handlers.Set{
		Status:    handlers.NewStatusHandler(a.Analysis, a.Judgments),
		Analysis:  handlers.NewAnalysisHandler(a.Analysis, logger),
		Judgments: handlers.NewJudgmentHandler(a.Judgments, logger),
		Documents: handlers.NewDocumentHandler(a.Documents, logger),
	}, protect...)

	srv := &http.Server{
		Addr:    ":" + cfg.Server.Port,
		Handler: r,
	}

	go func() {
		logger.Info("Server starting", slog.String("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("Failed to start server", slog.Any("error", err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("Shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server shutdown failed", slog.Any("error", err))
	}
}
