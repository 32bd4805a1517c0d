package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/inesloren/ticket/internal/domain"
	"github.com/inesloren/ticket/internal/handlers"
	"github.com/inesloren/ticket/internal/platform/config"
	"github.com/inesloren/ticket/internal/platform/observability"
	"github.com/inesloren/ticket/internal/platform/textutil"
	"github.com/inesloren/ticket/internal/services"
)

func main() {
	ctx := context.Background()
	startedAt := time.Now().UTC()

	baseLogger, err := observability.NewLogger()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialise logger: %v\n", err)
		os.Exit(1)
	}
	defer func() {
		_ = baseLogger.Sync()
	}()

	logger := baseLogger.Named("api")
	ctx = observability.WithLogger(ctx, logger)

	cfg, err := config.Load()
	if err != nil {
		var invalid *config.ValidationError
		if errors.As(err, &invalid) {
			logger.Fatal("invalid configuration", zap.Strings("fields", invalid.Fields()))
		}
		logger.Fatal("failed to load configuration", zap.Error(err))
	}
	logger = logger.With(zap.String("service", cfg.Telemetry.ServiceName), zap.String("environment", cfg.Environment))

	calculator := services.NewVATCalculator()
	ticketService, err := services.NewTicketService(services.TicketServiceDeps{
		Calculator: calculator,
		MaxLines:   cfg.Limits.MaxLines,
		Logger:     observability.EventLogger(logger.Named("tickets")),
	})
	if err != nil {
		logger.Fatal("failed to initialise ticket service", zap.Error(err))
	}

	healthHandlers := handlers.NewHealthHandlers(
		handlers.WithHealthBuildInfo(buildInfoFromEnv(cfg, startedAt)),
		handlers.WithReadinessCheck("calculator", calculatorCheck(calculator)),
	)
	ticketHandlers := handlers.NewTicketHandlers(ticketService,
		handlers.WithTicketBodyLimit(cfg.Limits.MaxBodyBytes),
		handlers.WithNameNormalizer(textutil.NewNameNormalizer().Normalize),
	)

	router := handlers.NewRouter(
		handlers.WithHealthHandlers(healthHandlers),
		handlers.WithTicketRoutes(ticketHandlers.Routes),
		handlers.WithMiddlewares(
			observability.TraceMiddleware(cfg.Telemetry.ProjectID),
			observability.InjectLoggerMiddleware(logger),
			observability.RequestLoggerMiddleware(),
			observability.RecoveryMiddleware(logger),
			middleware.NoCache,
		),
	)

	server := &http.Server{
		Addr:         cfg.Server.Addr(),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
		BaseContext:  func(net.Listener) context.Context { return ctx },
	}

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, syscall.SIGINT, syscall.SIGTERM)

	serverLogger := logger.Named("http").With(zap.String("addr", server.Addr))
	go func() {
		serverLogger.Info("ticket api listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverLogger.Fatal("http server error", zap.Error(err))
		}
	}()

	<-shutdown
	logger.Info("shutdown signal received; draining requests")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", zap.Error(err))
	}
}

func buildInfoFromEnv(cfg config.Config, started time.Time) handlers.BuildInfo {
	version := strings.TrimSpace(os.Getenv("TICKET_BUILD_VERSION"))
	if version == "" {
		version = "dev"
	}
	return handlers.BuildInfo{
		Version:     version,
		CommitSHA:   strings.TrimSpace(os.Getenv("TICKET_BUILD_COMMIT_SHA")),
		Environment: cfg.Environment,
		StartedAt:   started,
	}
}

// calculatorCheck prices a known amount and compares it with the general rate.
func calculatorCheck(calc services.TicketCalculator) handlers.ReadinessCheck {
	base := decimal.NewFromInt(100)
	want := base.Mul(decimal.NewFromInt(1).Add(domain.TaxCategoryGeneral.Rate()))
	return func(ctx context.Context) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		got, err := calc.PriceWithTax(base, domain.TaxCategoryGeneral)
		if err != nil {
			return err
		}
		if !got.Equal(want) {
			return fmt.Errorf("general rate check returned %s, want %s", got, want)
		}
		return nil
	}
}
