// MyThing is the AI backend for a personal portfolio and knowledge
// journal platform.
//
// It exposes an HTTP API for multi-agent chat, daily note capture with
// AI enrichment, a scraped tech news feed, and an admin dashboard.
// Configuration is loaded from a single YAML file discovered
// automatically (see [config.DefaultSearchPaths]).
//
// Usage:
//
//	mything serve            Start the API server
//	mything init [dir]       Initialize a working directory with defaults
//	mything ask <question>   Ask a single question (for testing)
//	mything version          Print version and build information
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/icetonges/mything/internal/agent"
	"github.com/icetonges/mything/internal/api"
	"github.com/icetonges/mything/internal/buildinfo"
	"github.com/icetonges/mything/internal/config"
	"github.com/icetonges/mything/internal/llm"
	"github.com/icetonges/mything/internal/store"
	"github.com/icetonges/mything/internal/summarizer"
	"github.com/icetonges/mything/internal/tools"
)

// main is intentionally minimal. It constructs the OS-level environment
// (context, stdio, argv) and delegates immediately to [run]. This keeps
// os.Exit, os.Stdout, and os.Args out of the application logic so that
// the full startup-to-shutdown lifecycle can be driven from tests.
func main() {
	ctx := context.Background()

	if err := run(ctx, os.Stdout, os.Stderr, os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "%s\n", err)
		os.Exit(1)
	}
}

// run is the real entry point for the mything command. All OS-level
// dependencies are injected as parameters. We parse arguments by hand
// rather than using the flag package: flag relies on package-level
// globals, and our argument surface is small enough that manual parsing
// is clearer than bringing in a CLI framework.
func run(ctx context.Context, stdout io.Writer, stderr io.Writer, args []string) error {
	var configPath string
	var outputFmt string // "text" (default) or "json"
	var command string
	var cmdArgs []string

	for i := 0; i < len(args); i++ {
		switch {
		case args[i] == "-config" && i+1 < len(args):
			configPath = args[i+1]
			i++ // skip the value
		case strings.HasPrefix(args[i], "-config="):
			configPath = strings.TrimPrefix(args[i], "-config=")
		case (args[i] == "-o" || args[i] == "--output") && i+1 < len(args):
			outputFmt = args[i+1]
			i++
		case strings.HasPrefix(args[i], "-o="):
			outputFmt = strings.TrimPrefix(args[i], "-o=")
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

	if outputFmt == "" {
		outputFmt = "text"
	}
	if outputFmt != "text" && outputFmt != "json" {
		return fmt.Errorf("unknown output format: %q (expected text or json)", outputFmt)
	}

	switch command {
	case "serve":
		return runServe(ctx, stdout, configPath)
	case "init":
		dir := "."
		if len(cmdArgs) > 0 {
			dir = cmdArgs[0]
		}
		return runInit(stdout, dir)
	case "ask":
		if len(cmdArgs) == 0 {
			return fmt.Errorf("usage: mything ask <question>")
		}
		return runAsk(ctx, stdout, configPath, cmdArgs)
	case "version":
		return runVersion(stdout, outputFmt)
	case "":
		return printUsage(stdout)
	default:
		return fmt.Errorf("unknown command: %s", command)
	}
}

// runVersion prints build metadata in the requested output format.
func runVersion(w io.Writer, outputFmt string) error {
	info := buildinfo.Info()
	if outputFmt == "json" {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(info)
	}
	fmt.Fprintln(w, buildinfo.String())
	for _, k := range []string{"version", "git_commit", "build_time", "go_version", "os", "arch"} {
		if v, ok := info[k]; ok {
			fmt.Fprintf(w, "  %-12s %s\n", k+":", v)
		}
	}
	return nil
}

// printUsage writes the top-level help text to w.
func printUsage(w io.Writer) error {
	fmt.Fprintln(w, "MyThing - Portfolio Platform AI Backend")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Usage: mything [flags] <command> [args]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Commands:")
	fmt.Fprintln(w, "  serve        Start the API server")
	fmt.Fprintln(w, "  init [dir]   Initialize working directory with defaults (default: .)")
	fmt.Fprintln(w, "  ask          Ask a single question (for testing)")
	fmt.Fprintln(w, "  version      Show version information")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Flags:")
	fmt.Fprintln(w, "  -config <path>    Path to config file (default: auto-discover)")
	fmt.Fprintln(w, "  -o, --output fmt  Output format: text (default) or json")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Config search order:")
	fmt.Fprintln(w, "  ./config.yaml, ~/.config/mything/config.yaml, /etc/mything/config.yaml")
	return nil
}

// runAsk handles the "mything ask <question>" subcommand. It boots the
// agent against a throwaway in-memory database and processes a single
// question, printing the response to stdout. Useful for quick smoke
// tests without starting the server.
func runAsk(ctx context.Context, stdout io.Writer, configPath string, args []string) error {
	logger := newLogger(stdout, slog.LevelWarn)

	question := strings.Join(args, " ")

	cfg, _, err := loadConfig(configPath)
	if err != nil {
		return err
	}
	if cfg.Gemini.APIKey == "" {
		return fmt.Errorf("gemini api key not configured (set gemini.api_key or GEMINI_API_KEY)")
	}

	// In-memory store is fine for a one-shot question. The tools see an
	// empty platform, which is enough to exercise the exchange.
	st, err := store.Open(":memory:")
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer st.Close()

	client, err := llm.NewGeminiClient(ctx, cfg.Gemini.APIKey, logger)
	if err != nil {
		return fmt.Errorf("create gemini client: %w", err)
	}

	runner := agent.NewRunner(logger, client, cfg.Gemini.Models, tools.NewPlatformRegistry(st))

	resp := runner.Run(ctx, agent.Route(question, ""), question, nil)
	fmt.Fprintf(stdout, "[%s %s]\n%s\n", resp.AgentEmoji, resp.AgentName, resp.Answer)
	return nil
}

// runServe handles the "mything serve" subcommand. It is the primary
// operating mode: loads config, opens the database, builds the agent
// stack, starts the API server, and blocks until a shutdown signal
// arrives.
func runServe(ctx context.Context, stdout io.Writer, configPath string) error {
	logger := newLogger(stdout, slog.LevelInfo)
	logger.Info("starting MyThing", "version", buildinfo.Version, "commit", buildinfo.GitCommit, "built", buildinfo.BuildTime)

	cfg, cfgPath, err := loadConfig(configPath)
	if err != nil {
		return err
	}

	// Reconfigure the logger now that the desired level is known. The
	// initial Info-level logger covers only the startup banner.
	if cfg.LogLevel != "" {
		level, err := config.ParseLogLevel(cfg.LogLevel)
		if err != nil {
			return err
		}
		logger = newLogger(stdout, level)
	}

	logger.Info("config loaded",
		"path", cfgPath,
		"port", cfg.Listen.Port,
		"models", cfg.Gemini.Models,
		"database", cfg.Database.Path,
	)

	if cfg.Gemini.APIKey == "" {
		return fmt.Errorf("gemini api key not configured (set gemini.api_key or GEMINI_API_KEY)")
	}

	// --- Store ---
	// Single SQLite database holding articles, notes, chat transcripts,
	// and contact submissions.
	st, err := store.Open(cfg.Database.Path)
	if err != nil {
		return fmt.Errorf("open database %s: %w", cfg.Database.Path, err)
	}
	defer st.Close()
	logger.Info("database opened", "path", cfg.Database.Path)

	// --- LLM client and fallback chain ---
	client, err := llm.NewGeminiClient(ctx, cfg.Gemini.APIKey, logger)
	if err != nil {
		return fmt.Errorf("create gemini client: %w", err)
	}
	chain := llm.NewChain(client, cfg.Gemini.Models, logger)

	// --- Agent runner ---
	// The conversation engine: routes each message to an agent profile
	// and drives the tool loop over the model fallback chain.
	registry := tools.NewPlatformRegistry(st)
	runner := agent.NewRunner(logger, chain.Client(), chain.Models(), registry)
	logger.Info("agent runner initialized", "tools", len(registry.Declarations()), "models", chain.Models())

	// --- Note summarizer ---
	sum := summarizer.New(chain, logger)

	// --- API server ---
	server := api.NewServer(cfg.Listen.Address, cfg.Listen.Port, runner, st, sum, cfg.Scraper.Token, logger)
	if cfg.Scraper.Token == "" {
		logger.Warn("scraper token not configured - ingestion endpoint disabled")
	}

	// --- Signal handling and graceful shutdown ---
	// NotifyContext wraps the parent context so that SIGINT/SIGTERM
	// cancellation flows through the same ctx used by all components.
	ctx, cancel := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	go func() {
		<-ctx.Done()
		logger.Info("shutdown signal received")
		_ = server.Shutdown(context.Background())
	}()

	if err := server.Start(ctx); err != nil {
		if ctx.Err() == nil {
			return fmt.Errorf("server failed: %w", err)
		}
	}

	logger.Info("MyThing stopped")
	return nil
}

// newLogger creates a structured text logger writing to w at the given
// level. All log output goes through slog; this helper standardizes the
// handler configuration across subcommands.
func newLogger(w io.Writer, level slog.Level) *slog.Logger {
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{
		Level:       level,
		ReplaceAttr: config.ReplaceLogLevelNames,
	}))
}

// loadConfig locates and parses the YAML configuration file. If explicit
// is non-empty, that exact path is used (and must exist). Otherwise,
// [config.FindConfig] searches the default locations.
func loadConfig(explicit string) (*config.Config, string, error) {
	cfgPath, err := config.FindConfig(explicit)
	if err != nil {
		return nil, "", err
	}

	cfg, err := config.Load(cfgPath)
	if err != nil {
		return nil, cfgPath, fmt.Errorf("load config %s: %w", cfgPath, err)
	}

	return cfg, cfgPath, nil
}
