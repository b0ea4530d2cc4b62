// Voyant is an AI-assisted web search service.
//
// It accepts a natural-language query, runs a bounded tool-calling loop
// against an Ollama backend with web search and summarization tools, and
// returns the search results alongside a synthesized answer.
//
// Usage:
//
//	voyant serve             Start the API server
//	voyant ask <query>       Resolve a single query and print the result
//	voyant init              Write an example config.yaml
//	voyant version           Print version and build information
//
// Configuration comes from an optional YAML file (-config) plus
// environment variables (OLLAMA_URL, OLLAMA_MODEL, BRAVE_API_KEY, ...).
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/voyant-search/voyant/examples"
	"github.com/voyant-search/voyant/internal/agent"
	"github.com/voyant-search/voyant/internal/api"
	"github.com/voyant-search/voyant/internal/buildinfo"
	"github.com/voyant-search/voyant/internal/config"
	"github.com/voyant-search/voyant/internal/events"
	"github.com/voyant-search/voyant/internal/history"
	"github.com/voyant-search/voyant/internal/llm"
	"github.com/voyant-search/voyant/internal/search"
	"github.com/voyant-search/voyant/internal/summarizer"
)

// main is intentionally minimal. It constructs the OS-level environment
// (context, stdio, argv) and delegates immediately to [run], keeping
// os.Exit and os.Args out of the application logic so the full lifecycle
// can be driven from tests.
func main() {
	ctx := context.Background()

	if err := run(ctx, os.Stdout, os.Stderr, os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "%s\n", err)
		os.Exit(1)
	}
}

// run is the real entry point for the voyant command. Arguments are
// parsed by hand: the flag package relies on package-level globals,
// which interfere with parallel tests, and the surface here is small.
func run(ctx context.Context, stdout, stderr io.Writer, args []string) error {
	var configPath string
	var command string
	var cmdArgs []string

	for i := 0; i < len(args); i++ {
		switch {
		case args[i] == "-config" && i+1 < len(args):
			configPath = args[i+1]
			i++
		case strings.HasPrefix(args[i], "-config="):
			configPath = strings.TrimPrefix(args[i], "-config=")
		case args[i] == "-h" || args[i] == "-help" || args[i] == "--help":
			return printUsage(stdout)
		case !strings.HasPrefix(args[i], "-") && command == "":
			command = args[i]
		default:
			if command != "" {
				cmdArgs = append(cmdArgs, args[i])
			} else {
				return fmt.Errorf("unknown flag: %s", args[i])
			}
		}
	}

	switch command {
	case "version":
		fmt.Fprintln(stdout, buildinfo.String())
		return nil
	case "init":
		return runInit(stdout)
	case "serve", "ask":
		// Both need full configuration; fall through.
	case "":
		return printUsage(stdout)
	default:
		return fmt.Errorf("unknown command %q", command)
	}

	path, err := config.FindConfig(configPath)
	if err != nil {
		return err
	}
	cfg, err := config.Load(path)
	if err != nil {
		return err
	}

	level, err := config.ParseLogLevel(cfg.LogLevel)
	if err != nil {
		return err
	}
	logger := slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{
		Level:       level,
		ReplaceAttr: config.ReplaceLogLevelNames,
	}))
	slog.SetDefault(logger)

	logger.Info("starting", "build", buildinfo.String(), "config", path)

	client := llm.NewOllamaClient(cfg.Ollama.URL, logger)

	mgr := search.NewManager(cfg.Search.Primary)
	if cfg.Search.Brave.Configured() {
		mgr.Register(search.NewBrave(cfg.Search.Brave.APIKey))
	}
	if cfg.Search.SearXNG.Configured() {
		mgr.Register(search.NewSearXNG(cfg.Search.SearXNG.URL))
	}
	if !mgr.Configured() {
		// Without a provider the model's web_search calls come back
		// empty; the service still answers from model knowledge.
		logger.Warn("no search provider configured (set BRAVE_API_KEY or SEARXNG_URL)")
	}

	adapter := search.NewAdapter(mgr, cfg.Search.MaxResults, logger)
	summ := summarizer.New(client, cfg.Ollama.Model, logger)
	bus := events.New()
	loop := agent.NewLoop(client, adapter, summ, cfg.Ollama.Model, logger, bus)

	if command == "ask" {
		return runAsk(ctx, stdout, loop, cmdArgs)
	}

	hist := history.NewStore(cfg.History.Size)
	server := api.NewServer(cfg.Listen.Address, cfg.Listen.Port, loop, client, cfg.Ollama.URL, hist, bus, logger)

	return serve(ctx, logger, server)
}

// runInit writes the example config to ./config.yaml. It refuses to
// overwrite an existing file.
func runInit(stdout io.Writer) error {
	const path = "config.yaml"
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("%s already exists, not overwriting", path)
	}
	if err := os.WriteFile(path, examples.ConfigYAML, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	fmt.Fprintf(stdout, "wrote %s\n", path)
	return nil
}

// runAsk resolves a single query and prints the envelope as JSON.
func runAsk(ctx context.Context, stdout io.Writer, loop *agent.Loop, args []string) error {
	if len(args) == 0 {
		return errors.New("usage: voyant ask <query>")
	}
	query := strings.Join(args, " ")

	res, err := loop.Resolve(ctx, query)
	if err != nil {
		return fmt.Errorf("resolve: %w", err)
	}

	enc := json.NewEncoder(stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(res)
}

// serve runs the API server until the context is cancelled or a
// termination signal arrives, then shuts down gracefully.
func serve(ctx context.Context, logger *slog.Logger, server *api.Server) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start(ctx)
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	logger.Info("shutdown complete")
	return nil
}

func printUsage(w io.Writer) error {
	fmt.Fprintf(w, `Voyant — AI-assisted web search

Usage:
  voyant [flags] <command> [args]

Commands:
  serve              Start the API server
  ask <query>        Resolve a single query and print the result
  init               Write an example config.yaml to the current directory
  version            Print version and build information

Flags:
  -config <path>     Path to config.yaml (default: search standard locations)

Environment:
  OLLAMA_URL         Ollama base URL (default %s)
  OLLAMA_MODEL       Model identifier (default %s)
  BRAVE_API_KEY      Brave Search API credential
  SEARXNG_URL        SearXNG instance URL (alternative provider)
  SEARCH_PROVIDER    Primary provider name (brave or searxng)
  PORT               Listen port (default %d)
  LOG_LEVEL          trace, debug, info, warn, error
`, config.DefaultOllamaURL, config.DefaultModel, config.DefaultPort)
	return nil
}
