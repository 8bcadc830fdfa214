package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/aws/aws-lambda-go/lambda"
	"github.com/aws/aws-sdk-go-v2/config"
	awsssm "github.com/aws/aws-sdk-go-v2/service/ssm"
	"github.com/joho/godotenv"

	"quicksquad-chat/handler"
	"quicksquad-chat/internal/integrations/openai"
	"quicksquad-chat/internal/integrations/paramstore"
	"quicksquad-chat/internal/relay"
)

func main() {
	ctx := context.Background()

	// A missing .env is normal outside local development.
	_ = godotenv.Load()

	inLambda := os.Getenv("AWS_LAMBDA_RUNTIME_API") != ""
	slog.SetDefault(newLogger(inLambda))

	// ---- Configuration (read only here) ----
	apiKey := os.Getenv("OPENAI_API_KEY")
	paramPrefix := os.Getenv("PARAM_PREFIX")
	model := envString("OPENAI_MODEL", relay.DefaultModel)
	baseURL := envString("OPENAI_BASE_URL", "https://api.openai.com/v1")
	relayPath := envString("RELAY_PATH", "/quicksquad-ai")
	staticDir := os.Getenv("STATIC_DIR")
	port := envInt("PORT", 8082)

	// ---- Clients ----
	keys, err := keySource(ctx, apiKey, paramPrefix)
	if err != nil {
		slog.Error("failed to create key source", "err", err)
		os.Exit(1)
	}
	if strings.TrimSpace(apiKey) == "" && paramPrefix == "" {
		slog.Warn("OPENAI_API_KEY is missing. Set it in .env")
	}

	openaiClient, err := openai.NewClient(keys, openai.WithBaseURL(baseURL))
	if err != nil {
		slog.Error("failed to create OpenAI client", "err", err)
		os.Exit(1)
	}

	// ---- Handler ----
	relayService, err := relay.NewService(openaiClient, model)
	if err != nil {
		slog.Error("failed to create relay service", "err", err)
		os.Exit(1)
	}

	h, err := handler.NewHandler(relayService)
	if err != nil {
		slog.Error("failed to create handler", "err", err)
		os.Exit(1)
	}

	if inLambda {
		lambda.Start(h.Handle)
		return
	}

	if err := serve(ctx, fmt.Sprintf(":%d", port), newRouter(h, relayPath, staticDir)); err != nil {
		slog.Error("server stopped", "err", err)
		os.Exit(1)
	}
}

// keySource prefers an explicit key and falls back to SSM when a parameter
// prefix is configured. With neither, the relay answers every request with
// the misconfiguration reply.
func keySource(ctx context.Context, apiKey, paramPrefix string) (openai.KeySource, error) {
	if strings.TrimSpace(apiKey) != "" || strings.TrimSpace(paramPrefix) == "" {
		return openai.StaticKey(apiKey), nil
	}
	cfg, err := config.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("load AWS config: %w", err)
	}
	ssmClient, err := paramstore.New(awsssm.NewFromConfig(cfg))
	if err != nil {
		return nil, err
	}
	return paramstore.NewTokenSource(ssmClient, paramPrefix)
}

func serve(ctx context.Context, addr string, h http.Handler) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	srv := &http.Server{
		Addr:              addr,
		Handler:           h,
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		slog.Info("QuickSquad AI running", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

func newLogger(json bool) *slog.Logger {
	if json {
		return slog.New(slog.NewJSONHandler(os.Stdout, nil))
	}
	return slog.New(slog.NewTextHandler(os.Stderr, nil))
}

func envString(key, def string) string {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	return v
}

func envInt(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}
