// Command forge runs the Forge autonomous SRE agent's HTTP surface: the
// Agent Orchestrator, Network Test Engine, and Cluster Coordinator wired to
// real (circuit-breaker-wrapped) adapters and served over HTTP.
package main

import (
	"context"
	"flag"
	"log"
	"log/slog"
	"net"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/forge-sre/forge/pkg/actionlog"
	"github.com/forge-sre/forge/pkg/activity"
	"github.com/forge-sre/forge/pkg/adapters"
	"github.com/forge-sre/forge/pkg/agent"
	"github.com/forge-sre/forge/pkg/cluster"
	"github.com/forge-sre/forge/pkg/config"
	"github.com/forge-sre/forge/pkg/httpapi"
	"github.com/forge-sre/forge/pkg/networktest"
	"github.com/forge-sre/forge/pkg/obsmetrics"
	"github.com/forge-sre/forge/pkg/store"
	"github.com/forge-sre/forge/pkg/version"
)

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// selfBaseURL turns a listen address like ":8080" or "0.0.0.0:8080" into a
// loopback URL the network-test engine can probe against itself.
func selfBaseURL(httpAddr string) string {
	host, port, err := net.SplitHostPort(httpAddr)
	if err != nil {
		return "http://localhost" + httpAddr
	}
	if host == "" || host == "0.0.0.0" {
		host = "localhost"
	}
	return "http://" + net.JoinHostPort(host, port)
}

func main() {
	configDir := flag.String("config-dir",
		getEnv("CONFIG_DIR", "./deploy/config"),
		"Path to configuration directory")
	flag.Parse()

	envPath := filepath.Join(*configDir, ".env")
	if err := godotenv.Load(envPath); err != nil {
		log.Printf("warning: could not load %s: %v", envPath, err)
		log.Printf("continuing with existing environment variables")
	} else {
		log.Printf("loaded environment from %s", envPath)
	}

	logHandler := slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo})
	slog.SetDefault(slog.New(logHandler))

	ctx := context.Background()

	cfg, err := config.Initialize(ctx, *configDir)
	if err != nil {
		log.Fatalf("failed to initialize configuration: %v", err)
	}

	st, err := store.New(cfg.StoragePath)
	if err != nil {
		log.Fatalf("failed to open knowledge store at %s: %v", cfg.StoragePath, err)
	}

	activityLog := activity.New()
	actionLog := actionlog.New()

	graph := adapters.NewBreakingGraphAdapter(
		adapters.NewHTTPGraphAdapter(cfg.Adapters.Graph.Endpoint, 10*time.Second))
	metrics := adapters.NewBreakingMetricsAdapter(
		adapters.NewHTTPMetricsAdapter(cfg.Adapters.Metrics.Endpoint))
	validation := adapters.NewBreakingValidationAdapter(
		adapters.NewHTTPValidationAdapter(cfg.Adapters.Validation.Endpoint))

	remediationDelegate, err := adapters.NewAWSRemediationAdapter(ctx, cfg.Adapters.Remediation.Region)
	if err != nil {
		log.Fatalf("failed to initialize AWS remediation adapter: %v", err)
	}
	remediation := adapters.NewBreakingRemediationAdapter(remediationDelegate)

	llm := adapters.NewAnthropicLLMAdapter(cfg.Adapters.LLM.APIKeyEnv, cfg.Adapters.LLM.Model)
	var backgroundLLM adapters.LLMAdapter
	if cfg.Demo.BackgroundDeepening {
		backgroundLLM = adapters.NewAnthropicLLMAdapter(cfg.Adapters.LLM.APIKeyEnv, cfg.Adapters.LLM.BackgroundModel)
	}

	orchestrator := agent.New(st, activityLog, actionLog, graph, metrics, remediation, validation,
		llm, backgroundLLM, cfg.Demo, cfg.Tuning)

	netEngine := networktest.New(selfBaseURL(cfg.HTTPAddr), st)
	coordinator := cluster.New(cfg.Tuning, validation, activityLog)
	obs := obsmetrics.New()

	server := httpapi.NewServer(st, activityLog, actionLog, orchestrator, netEngine, coordinator,
		graph, metrics, remediation, validation, cfg.Demo, obs)

	slog.Info("starting forge", "version", version.Full(), "http_addr", cfg.HTTPAddr, "config_dir", *configDir)

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start(cfg.HTTPAddr)
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errCh:
		if err != nil {
			log.Fatalf("http server exited: %v", err)
		}
	case sig := <-stop:
		slog.Info("received shutdown signal", "signal", sig.String())
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Fatalf("graceful shutdown failed: %v", err)
		}
		slog.Info("forge shut down cleanly")
	}
}
