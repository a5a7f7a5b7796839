package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aws/aws-lambda-go/lambda"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	awsdynamodb "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	awsssm "github.com/aws/aws-sdk-go-v2/service/ssm"

	"travel-agent/handler"
	"travel-agent/internal/config"
	"travel-agent/internal/integrations/amadeus"
	"travel-agent/internal/integrations/booking"
	"travel-agent/internal/integrations/openai"
	"travel-agent/internal/integrations/paramstore"
	"travel-agent/internal/logger"
	"travel-agent/internal/mcptools"
	"travel-agent/internal/repository"
	"travel-agent/internal/stream"
	"travel-agent/internal/usecase"
)

const shutdownTimeout = 10 * time.Second

func main() {
	ctx := context.Background()

	if err := config.LoadDotEnv(); err != nil {
		slog.Error("failed to load .env", "err", err)
		os.Exit(1)
	}

	// ---- AWS SDK config (only when SSM or DynamoDB is in use) ----
	var (
		params config.ParamGetter
		tasks  usecase.TaskStore
	)
	taskTable := os.Getenv("TASK_TABLE")
	if config.Prefix(os.Getenv) != "" || taskTable != "" {
		awsCfg, err := awsconfig.LoadDefaultConfig(ctx)
		if err != nil {
			slog.Error("failed to load AWS config", "err", err)
			os.Exit(1)
		}
		if config.Prefix(os.Getenv) != "" {
			ssmClient, err := paramstore.New(awsssm.NewFromConfig(awsCfg))
			if err != nil {
				slog.Error("failed to create SSM client", "err", err)
				os.Exit(1)
			}
			params = ssmClient
		}
		if taskTable != "" {
			taskClient, err := repository.New(awsdynamodb.NewFromConfig(awsCfg), taskTable)
			if err != nil {
				slog.Error("failed to create task store", "err", err)
				os.Exit(1)
			}
			tasks = taskClient
		}
	}
	if tasks == nil {
		tasks = repository.NewMemoryTaskStore()
	}

	// ---- Configuration (read only here) ----
	cfg, err := config.Load(ctx, os.Getenv, params)
	if err != nil {
		slog.Error("invalid configuration", "err", err)
		os.Exit(1)
	}
	logFormat := cfg.LogFormat
	if logFormat == "" && cfg.Lambda {
		logFormat = "json"
	}
	log := logger.Init(os.Stdout, cfg.LogLevel, logFormat)

	// ---- Clients ----
	llmOpts := []openai.Option{}
	if cfg.LLMProvider == config.ProviderGrok {
		llmOpts = append(llmOpts, openai.WithBaseURL(openai.GrokBaseURL))
	}
	llmClient, err := openai.NewClient(cfg.LLMAPIKey, llmOpts...)
	if err != nil {
		log.Error("failed to create LLM client", "err", err)
		os.Exit(1)
	}

	tokens, err := amadeus.NewTokenCache(cfg.AmadeusAPIKey, cfg.AmadeusAPISecret, amadeus.WithBaseURL(cfg.AmadeusBaseURL))
	if err != nil {
		log.Error("failed to create Amadeus token cache", "err", err)
		os.Exit(1)
	}
	flightClient, err := amadeus.NewClient(tokens, amadeus.WithBaseURL(cfg.AmadeusBaseURL))
	if err != nil {
		log.Error("failed to create Amadeus client", "err", err)
		os.Exit(1)
	}

	hotelClient, err := booking.NewClient(cfg.BookingAPIKey, booking.WithHost(cfg.BookingHost))
	if err != nil {
		log.Error("failed to create Booking client", "err", err)
		os.Exit(1)
	}

	// ---- Service and transports ----
	travelService, err := usecase.NewTravelService(llmClient, flightClient, hotelClient, tasks, cfg.LLMModel, cfg.MaxMessageLength)
	if err != nil {
		log.Error("failed to create travel service", "err", err)
		os.Exit(1)
	}

	card := handler.NewAgentCard(cfg.BaseURL)
	h, err := handler.NewHandler(travelService, card)
	if err != nil {
		log.Error("failed to create handler", "err", err)
		os.Exit(1)
	}

	if cfg.Lambda {
		lambda.Start(h.Handle)
		return
	}

	rpcHandler, err := stream.NewRPCHandler(travelService)
	if err != nil {
		log.Error("failed to create stream handler", "err", err)
		os.Exit(1)
	}
	mcpServer, err := mcptools.NewServer(travelService, card.Version)
	if err != nil {
		log.Error("failed to create MCP server", "err", err)
		os.Exit(1)
	}

	mux := http.NewServeMux()
	mux.Handle("/ws", rpcHandler)
	mux.Handle("/mcp", mcpServer.Handler())
	mux.Handle("/", h)

	log.Info("travel agent ready",
		"baseUrl", cfg.BaseURL,
		"addr", cfg.Addr(),
		"llmProvider", cfg.LLMProvider,
		"model", cfg.LLMModel,
		"taskTable", taskTable,
	)
	if err := serve(ctx, cfg.Addr(), mux); err != nil {
		log.Error("server failed", "err", err)
		os.Exit(1)
	}
}

// serve runs the HTTP server until SIGINT or SIGTERM, then drains it.
func serve(ctx context.Context, addr string, h http.Handler) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	srv := &http.Server{
		Addr:              addr,
		Handler:           h,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	slog.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
