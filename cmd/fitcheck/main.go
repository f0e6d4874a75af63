// FitCheck is an exercise coaching service that turns motion observations
// into short spoken advice and streams it as synthesized audio.
//
// Usage:
//
//	fitcheck [flags]
//	fitcheck --config /path/to/fitcheck.yaml
//
// @title        FitCheck Coaching Voice API
// @version      1.0
// @description  Exercise coaching advice generation and streaming speech synthesis.
// @BasePath     /
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	_ "github.com/fitcheck/fitcheck/docs"
	"github.com/fitcheck/fitcheck/internal/coach"
	"github.com/fitcheck/fitcheck/internal/completion"
	localcompletion "github.com/fitcheck/fitcheck/internal/completion/local"
	openaicompletion "github.com/fitcheck/fitcheck/internal/completion/openai"
	"github.com/fitcheck/fitcheck/internal/config"
	"github.com/fitcheck/fitcheck/internal/health"
	"github.com/fitcheck/fitcheck/internal/speech"
	"github.com/fitcheck/fitcheck/internal/speech/azure"
	"github.com/fitcheck/fitcheck/internal/speech/piper"
	"github.com/fitcheck/fitcheck/internal/telemetry"
	"github.com/fitcheck/fitcheck/internal/transport"
	grpctransport "github.com/fitcheck/fitcheck/internal/transport/grpc"
	httptransport "github.com/fitcheck/fitcheck/internal/transport/http"
)

// version is set at build time via ldflags.
var version = "dev"

func main() {
	showVersion := flag.Bool("version", false, "print version and exit")
	configFile := flag.String("config", "", "path to config file (e.g. configs/fitcheck.yaml)")
	flag.Parse()

	if *showVersion {
		fmt.Printf("fitcheck %s\n", version)
		os.Exit(0)
	}

	// A missing .env is normal outside local development.
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		slog.Warn("failed to load .env", "error", err)
	}

	cfg, err := config.Load(*configFile)
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	config.SetupLogging(cfg.Logging)
	slog.Info("fitcheck starting", "version", version)

	ctx, cancel := signal.NotifyContext(context.Background(),
		syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	tel, err := telemetry.Setup(ctx, cfg.Telemetry, version)
	if err != nil {
		slog.Error("failed to set up telemetry", "error", err)
		os.Exit(1)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := tel.Shutdown(shutdownCtx); err != nil {
			slog.Error("telemetry shutdown error", "error", err)
		}
	}()

	// Completion backends. The text gateway serves the text-only prompt route.
	var vision, text completion.Client
	switch cfg.Completion.Backend {
	case "azure", "openai":
		textEndpoint := cfg.Completion.TextEndpoint
		if textEndpoint == "" {
			textEndpoint = cfg.Completion.Endpoint
		}
		vision = openaicompletion.New(cfg.Completion.Backend, cfg.Completion.Endpoint, false, cfg.Completion)
		text = openaicompletion.New(cfg.Completion.Backend+"-text", textEndpoint, true, cfg.Completion)
		slog.Info("using OpenAI-compatible completion backend",
			"backend", cfg.Completion.Backend,
			"model", cfg.Completion.Model)
	case "local":
		vision = localcompletion.New(cfg.Completion)
		text = vision
		slog.Info("using local completion backend", "endpoint", cfg.Completion.Endpoint)
	default:
		slog.Error("unknown completion backend", "backend", cfg.Completion.Backend)
		os.Exit(1)
	}
	gateway := completion.NewGateway(vision, cfg.Completion.MaxConcurrency)
	defer gateway.Close()
	textGateway := completion.NewGateway(text, cfg.Completion.MaxConcurrency)
	defer textGateway.Close()

	healthServer := health.New(cfg.Server.HealthPort, tel.MetricsHandler)

	// Speech engine.
	var engine speech.Engine
	switch cfg.Speech.Backend {
	case "azure":
		engine = azure.New(cfg.Speech.Azure)
		slog.Info("using Azure speech", "region", cfg.Speech.Azure.Region, "format", cfg.Speech.Azure.OutputFormat)
	case "piper":
		p := piper.New(cfg.Speech.Piper)
		healthServer.AddCheck("speech", p.Ping)
		engine = p
		slog.Info("using Piper speech", "endpoint", cfg.Speech.Piper.Endpoint)
	default:
		slog.Error("unknown speech backend", "backend", cfg.Speech.Backend)
		os.Exit(1)
	}
	defer engine.Close()

	svc := coach.NewService(gateway, speech.NewProxy(engine, cfg.Speech.DefaultChunkSize), cfg.Server.PublicURL)

	var transports []transport.Transport
	if cfg.Transports.HTTP.Enabled {
		transports = append(transports, httptransport.New(httptransport.Options{
			Port:           cfg.Transports.HTTP.Port,
			MaxUploadBytes: cfg.Transports.HTTP.MaxUploadBytes,
			Version:        version,
			Coach:          svc,
			Prompt:         gateway,
			TextPrompt:     textGateway,
		}))
	}
	if cfg.Transports.GRPC.Enabled {
		transports = append(transports, grpctransport.New(cfg.Transports.GRPC.Port))
	}
	if len(transports) == 0 {
		slog.Error("no transports enabled, enable at least one in config")
		os.Exit(1)
	}

	go func() {
		if err := healthServer.ListenAndServe(ctx); err != nil {
			slog.Error("health server failed", "error", err)
		}
	}()

	var wg sync.WaitGroup
	for _, t := range transports {
		wg.Add(1)
		go func(t transport.Transport) {
			defer wg.Done()
			slog.Info("starting transport", "name", t.Name())
			if err := t.Listen(ctx); err != nil {
				slog.Error("transport failed", "name", t.Name(), "error", err)
			}
		}(t)
	}

	healthServer.SetReady(true)
	slog.Info("fitcheck ready",
		"transports", len(transports),
		"health_port", cfg.Server.HealthPort)

	<-ctx.Done()
	slog.Info("shutdown signal received, draining...")
	healthServer.SetReady(false)

	for _, t := range transports {
		if err := t.Close(); err != nil {
			slog.Error("transport close error", "name", t.Name(), "error", err)
		}
	}

	wg.Wait()
	slog.Info("fitcheck stopped")
}
