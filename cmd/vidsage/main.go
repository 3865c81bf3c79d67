// Vidsage is a video transcript acquisition and AI query service.
//
// It fetches transcripts for YouTube and Facebook videos through a
// tiered acquisition pipeline (platform captions, yt-dlp auto-subs,
// Whisper audio transcription) and answers questions about them
// through multiple LLM providers. Configuration is loaded from a YAML
// file discovered automatically (see [config.DefaultSearchPaths]),
// with API keys taken from the environment.
//
// Usage:
//
//	vidsage serve                  Start the API server
//	vidsage process <url>          Fetch a video's transcript and print it
//	vidsage ask <url> <question>   Process a video and ask one question
//	vidsage version                Print version and build information
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/vidsage/vidsage/internal/api"
	"github.com/vidsage/vidsage/internal/buildinfo"
	"github.com/vidsage/vidsage/internal/config"
	"github.com/vidsage/vidsage/internal/llm"
	"github.com/vidsage/vidsage/internal/orchestrator"
	"github.com/vidsage/vidsage/internal/pipeline"
	"github.com/vidsage/vidsage/internal/platform"
	"github.com/vidsage/vidsage/internal/respcache"
	"github.com/vidsage/vidsage/internal/speech"
	"github.com/vidsage/vidsage/internal/store"
	"github.com/vidsage/vidsage/internal/ytdlp"
)

// main constructs the OS-level environment (context, stdio, argv) and
// delegates immediately to [run]. This keeps os.Exit, os.Stdout, and
// os.Args out of the application logic so the full lifecycle can be
// driven from tests.
func main() {
	ctx := context.Background()

	if err := run(ctx, os.Stdout, os.Stderr, os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "%s\n", err)
		os.Exit(1)
	}
}

// run is the real entry point for the vidsage command. Arguments are
// parsed by hand; the flag package relies on package-level globals
// that interfere with calling run() concurrently from tests, and the
// argument surface is small.
func run(ctx context.Context, stdout io.Writer, stderr io.Writer, args []string) error {
	// A .env file is optional and only a convenience for development.
	_ = godotenv.Load()

	var configPath string
	var outputFmt string
	var command string
	var cmdArgs []string

	for i := 0; i < len(args); i++ {
		switch {
		case args[i] == "-config" && i+1 < len(args):
			configPath = args[i+1]
			i++
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
	case "process":
		if len(cmdArgs) == 0 {
			return fmt.Errorf("usage: vidsage process <url>")
		}
		return runProcess(ctx, stdout, configPath, cmdArgs[0])
	case "ask":
		if len(cmdArgs) < 2 {
			return fmt.Errorf("usage: vidsage ask <url> <question>")
		}
		return runAsk(ctx, stdout, configPath, cmdArgs[0], strings.Join(cmdArgs[1:], " "))
	case "version":
		return runVersion(stdout, outputFmt)
	case "":
		return printUsage(stdout)
	default:
		return fmt.Errorf("unknown command: %s", command)
	}
}

// printUsage writes the top-level help text to w.
func printUsage(w io.Writer) error {
	fmt.Fprintln(w, "Vidsage - Video Transcript AI Service")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Usage: vidsage [flags] <command> [args]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Commands:")
	fmt.Fprintln(w, "  serve                Start the API server")
	fmt.Fprintln(w, "  process <url>        Fetch a video's transcript and print it")
	fmt.Fprintln(w, "  ask <url> <q>        Process a video and ask one question")
	fmt.Fprintln(w, "  version              Show version information")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Flags:")
	fmt.Fprintln(w, "  -config <path>    Path to config file (default: auto-discover)")
	fmt.Fprintln(w, "  -o, --output fmt  Output format: text (default) or json")
	return nil
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

// newLogger creates a structured text logger writing to w at the given
// level. All log output goes through slog; this helper standardizes
// the handler configuration across subcommands.
func newLogger(w io.Writer, level slog.Level) *slog.Logger {
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{
		Level:       level,
		ReplaceAttr: config.ReplaceLogLevelNames,
	}))
}

// loadConfig locates and parses the YAML configuration file. If
// explicit is non-empty, that exact path is used (and must exist).
// When no config file exists anywhere, the environment-driven default
// configuration is used so the service still starts with just API keys
// in the environment.
func loadConfig(explicit string) (*config.Config, string, error) {
	cfgPath, err := config.FindConfig(explicit)
	if err != nil {
		if explicit != "" {
			return nil, "", err
		}
		return config.Default(), "(defaults)", nil
	}

	cfg, err := config.Load(cfgPath)
	if err != nil {
		return nil, cfgPath, fmt.Errorf("load config %s: %w", cfgPath, err)
	}
	return cfg, cfgPath, nil
}

// buildPipeline wires the acquisition tiers for both platforms from
// configuration. Tiers whose dependencies are unavailable (no yt-dlp
// binary, no speech API key) still register; they report empty results
// and the pipeline falls through to the next tier.
func buildPipeline(cfg *config.Config, logger *slog.Logger) *pipeline.Service {
	piped := platform.NewPipedClient(cfg.Piped.Instances, logger)
	scraper := platform.NewFacebookScraper(logger)

	dlp := ytdlp.New(ytdlp.Config{
		Path:             cfg.Video.YtDlpPath,
		SubtitleLanguage: cfg.Video.SubtitleLanguage,
	}, logger)
	if !dlp.Available() {
		logger.Warn("yt-dlp binary not found, subtitle and audio tiers degraded")
	}

	transcriber := speech.New(speech.Config{
		APIKey:     cfg.Providers.GroqAPIKey,
		BaseURL:    cfg.Speech.BaseURL,
		Model:      cfg.Speech.Model,
		FfmpegPath: cfg.Speech.FfmpegPath,
	}, logger)
	if transcriber == nil {
		logger.Warn("no speech API key configured, audio transcription tier disabled")
	}

	lang := cfg.Video.SubtitleLanguage

	p := pipeline.NewService(float64(cfg.Video.MaxDurationSeconds), logger)
	p.RegisterPlatform(platform.YouTube, piped,
		pipeline.NewPipedSubtitles(piped, lang),
		pipeline.NewYtDlpSubtitles(dlp, lang),
		pipeline.NewWhisperAudio(dlp, transcriber, lang),
	)
	p.RegisterPlatform(platform.Facebook, scraper,
		pipeline.NewYtDlpSubtitles(dlp, lang),
		pipeline.NewWhisperAudio(dlp, transcriber, lang),
	)
	return p
}

// buildCatalog constructs provider clients from configured credentials.
// A provider with no key is simply absent from the catalog.
func buildCatalog(cfg *config.Config, logger *slog.Logger) *llm.Catalog {
	var gemini, openRouter llm.Client
	if cfg.Providers.GeminiAPIKey != "" {
		gemini = llm.NewGeminiClient(cfg.Providers.GeminiAPIKey, logger)
		logger.Info("Gemini provider configured")
	}
	if cfg.Providers.OpenRouterAPIKey != "" {
		openRouter = llm.NewOpenRouterClient(cfg.Providers.OpenRouterAPIKey, logger)
		logger.Info("OpenRouter provider configured")
	}
	return llm.NewCatalog(gemini, openRouter)
}

// runProcess handles "vidsage process <url>". It runs the acquisition
// pipeline for a single video and prints the transcript, without
// touching the session database. Useful for smoke tests and debugging.
func runProcess(ctx context.Context, stdout io.Writer, configPath, url string) error {
	logger := newLogger(stdout, slog.LevelWarn)

	cfg, _, err := loadConfig(configPath)
	if err != nil {
		return err
	}

	p := buildPipeline(cfg, logger)
	result, err := p.Process(ctx, url)
	if err != nil {
		return fmt.Errorf("process: %w", err)
	}

	fmt.Fprintf(stdout, "Title:    %s\n", result.Metadata.Title)
	fmt.Fprintf(stdout, "Platform: %s\n", result.Identity.Platform)
	fmt.Fprintf(stdout, "Video ID: %s\n", result.Identity.ID)
	if !result.HasTranscript() {
		fmt.Fprintln(stdout, "No transcript available.")
		return nil
	}

	tr := result.Transcript
	fmt.Fprintf(stdout, "Source:   %s (%d segments, %d words)\n\n", tr.Source, len(tr.Segments), tr.WordCount())
	fmt.Fprintln(stdout, tr.Preview(len(tr.Segments)))
	return nil
}

// runAsk handles "vidsage ask <url> <question>". It processes the
// video, picks a recommended model for the question, and prints a
// single response. Nothing is persisted.
func runAsk(ctx context.Context, stdout io.Writer, configPath, url, question string) error {
	logger := newLogger(stdout, slog.LevelWarn)

	cfg, _, err := loadConfig(configPath)
	if err != nil {
		return err
	}

	catalog := buildCatalog(cfg, logger)
	orch := orchestrator.New(catalog,
		respcache.New[orchestrator.Result](cfg.Cache.MaxEntries, time.Duration(cfg.Cache.TTLSeconds)*time.Second),
		logger)

	p := buildPipeline(cfg, logger)
	result, err := p.Process(ctx, url)
	if err != nil {
		return fmt.Errorf("process: %w", err)
	}

	_, models := orch.Recommend(question)
	if len(models) == 0 {
		return fmt.Errorf("no LLM provider configured (set GEMINI_API_KEY or OPENROUTER_API_KEY)")
	}

	res, err := orch.Query(ctx, orchestrator.Request{
		SessionID:  "cli",
		ModelID:    models[0],
		Query:      question,
		Transcript: result.Transcript,
	})
	if err != nil {
		return fmt.Errorf("ask: %w", err)
	}

	fmt.Fprintln(stdout, res.Text)
	fmt.Fprintf(stdout, "\n[%s, %.1fs]\n", res.Metadata.ModelID, res.Metadata.ProcessingTime)
	return nil
}

// runServe handles "vidsage serve", the primary operating mode. It
// loads config, opens the session database, wires the acquisition
// pipeline and LLM catalog, starts the HTTP server, and blocks until
// a shutdown signal arrives.
func runServe(ctx context.Context, stdout io.Writer, configPath string) error {
	logger := newLogger(stdout, slog.LevelInfo)
	logger.Info("starting vidsage", "version", buildinfo.Version, "commit", buildinfo.GitCommit, "built", buildinfo.BuildTime)

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
		"piped_instances", len(cfg.Piped.Instances),
	)

	if err := os.MkdirAll(cfg.DataDir, 0755); err != nil {
		return fmt.Errorf("create data directory %s: %w", cfg.DataDir, err)
	}

	dbPath := cfg.DataDir + "/vidsage.db"
	st, err := store.NewStore(dbPath)
	if err != nil {
		return fmt.Errorf("open session database %s: %w", dbPath, err)
	}
	defer st.Close()
	logger.Info("session database opened", "path", dbPath)

	p := buildPipeline(cfg, logger)
	catalog := buildCatalog(cfg, logger)

	cache := respcache.New[orchestrator.Result](cfg.Cache.MaxEntries, time.Duration(cfg.Cache.TTLSeconds)*time.Second)
	orch := orchestrator.New(catalog, cache, logger)

	listen := net.JoinHostPort(cfg.Listen.Address, strconv.Itoa(cfg.Listen.Port))
	server := api.NewServer(listen, p, orch, catalog, st,
		cfg.RateLimit.Requests, time.Duration(cfg.RateLimit.WindowS)*time.Second, logger)

	// SIGINT/SIGTERM cancellation flows through the same ctx used by
	// all components.
	ctx, cancel := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	go func() {
		<-ctx.Done()
		logger.Info("shutdown signal received")

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		_ = server.Shutdown(shutdownCtx)
	}()

	logger.Info("api server listening", "addr", listen)
	if err := server.Start(ctx); err != nil {
		if ctx.Err() == nil {
			return fmt.Errorf("server failed: %w", err)
		}
	}

	logger.Info("vidsage stopped")
	return nil
}
