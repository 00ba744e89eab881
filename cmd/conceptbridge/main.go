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
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/sync/errgroup"

	"github.com/pavelanni/conceptbridge/internal/agent"
	"github.com/pavelanni/conceptbridge/internal/browser"
	"github.com/pavelanni/conceptbridge/internal/handler"
	appI18n "github.com/pavelanni/conceptbridge/internal/i18n"
	"github.com/pavelanni/conceptbridge/internal/llm"
	"github.com/pavelanni/conceptbridge/internal/model"
	"github.com/pavelanni/conceptbridge/internal/notify"
	"github.com/pavelanni/conceptbridge/internal/quiz"
	"github.com/pavelanni/conceptbridge/internal/store"
	"github.com/pavelanni/conceptbridge/internal/transcript"
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "conceptbridge",
		Short: "Focus timer and comprehension quiz for online video lectures",
	}

	run := runCmd()
	root.AddCommand(run, exportCmd())

	// Make "run" the default when no subcommand is given.
	root.RunE = run.RunE

	// Register run flags on root so bare `conceptbridge --url ...` still works.
	root.Flags().AddFlagSet(run.Flags())

	return root
}

func runCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Open a lecture video and run focus sessions against it",
		RunE:  runAgent,
	}
	f := cmd.Flags()
	f.StringP("url", "u", "", "Video page to open")
	f.String("browser-url", "", "DevTools URL of a running browser (default: launch one)")
	f.Bool("headless", false, "Launch the browser without a window")
	f.StringP("addr", "a", ":8787", "HTTP listen address for the overlay")
	f.Int("focus-seconds", 25*60, "Length of a manual focus session")
	f.Int("demo-seconds", 3*60, "Length of a demo or auto-started session")
	f.Int("auto-start-below", 0, "Remaining seconds under which playback may auto-start a session (0 = demo length)")
	f.String("ad-selector", browser.DefaultAdSelector, "CSS selector present while an advert plays")
	f.Duration("ad-poll", time.Second, "Advert check interval")
	f.Duration("observe-interval", 500*time.Millisecond, "Video discovery interval")
	f.String("transcript-url", "", "Transcript service base URL (empty = no transcripts)")
	f.String("llm-url", "http://localhost:11434/v1", "OpenAI-compatible API base URL")
	f.String("llm-key", "ollama", "API key for LLM")
	f.String("llm-model", "llama3.2", "LLM model name")
	f.Bool("llm-json-mode", false, "Request JSON object responses from the LLM")
	f.Duration("request-timeout", quiz.DefaultTimeout, "Timeout for each transcript or generation request")
	f.StringP("lang", "l", "en", "UI language (en, ru)")
	f.String("db", "", "SQLite archive of quiz attempts (empty = no archive)")
	f.Bool("desktop-notify", false, "Mirror milestones and completion to desktop notifications")
	f.String("log-level", "info", "Log level (debug, info, warn, error)")
	f.String("log-format", "text", "Log format (text, json)")
	return cmd
}

func exportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export archived quiz attempts as JSON",
		RunE:  runExport,
	}
	f := cmd.Flags()
	f.String("db", "conceptbridge.db", "SQLite archive path")
	f.String("video", "", "Only export attempts for this content ID")
	f.StringP("output", "o", "-", "Output file path (- for stdout)")
	f.String("log-level", "info", "Log level (debug, info, warn, error)")
	f.String("log-format", "text", "Log format (text, json)")
	return cmd
}

func setupLogging(cmd *cobra.Command) {
	v := viperForCmd(cmd)

	var logLevel slog.Level
	switch strings.ToLower(v.GetString("log-level")) {
	case "debug":
		logLevel = slog.LevelDebug
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}
	handlerOpts := &slog.HandlerOptions{Level: logLevel}
	var logHandler slog.Handler
	switch strings.ToLower(v.GetString("log-format")) {
	case "json":
		logHandler = slog.NewJSONHandler(os.Stderr, handlerOpts)
	default:
		logHandler = slog.NewTextHandler(os.Stderr, handlerOpts)
	}
	slog.SetDefault(slog.New(logHandler))
}

// viperForCmd binds a command's flags and environment to a fresh viper instance.
func viperForCmd(cmd *cobra.Command) *viper.Viper {
	v := viper.New()
	_ = v.BindPFlags(cmd.Flags())

	v.SetEnvPrefix("CONCEPTBRIDGE")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	v.SetConfigName("conceptbridge")
	v.AddConfigPath(".")
	v.AddConfigPath("$HOME/.config/conceptbridge")
	v.AddConfigPath("/etc/conceptbridge")
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			slog.Warn("error reading config file", "error", err)
		}
	} else {
		slog.Debug("loaded config file", "path", v.ConfigFileUsed())
	}

	return v
}

// agentConfig reads session and agent settings. Milestones come from the
// config file; without any, every whole minute shows a rotating quote.
func agentConfig(v *viper.Viper) (model.AgentConfig, error) {
	sess := model.SessionConfig{
		FocusDurationSeconds: v.GetInt("focus-seconds"),
		DemoDurationSeconds:  v.GetInt("demo-seconds"),
		AutoStartBelow:       v.GetInt("auto-start-below"),
	}
	if err := v.UnmarshalKey("milestones", &sess.Milestones); err != nil {
		return model.AgentConfig{}, fmt.Errorf("read milestones: %w", err)
	}
	if len(sess.Milestones) == 0 {
		sess.Milestones = model.DefaultMilestones(max(sess.FocusDurationSeconds, sess.DemoDurationSeconds))
	}
	if err := sess.Validate(); err != nil {
		return model.AgentConfig{}, fmt.Errorf("invalid session config: %w", err)
	}
	return model.AgentConfig{
		Session:         sess,
		AdPollInterval:  v.GetDuration("ad-poll"),
		ObserveInterval: v.GetDuration("observe-interval"),
		RequestTimeout:  v.GetDuration("request-timeout"),
		NumQuestions:    quiz.DefaultNumQuestions,
	}, nil
}

func runAgent(cmd *cobra.Command, _ []string) error {
	setupLogging(cmd)
	v := viperForCmd(cmd)

	pageURL := v.GetString("url")
	if pageURL == "" {
		return errors.New("a video page is required: set --url or CONCEPTBRIDGE_URL")
	}
	cfg, err := agentConfig(v)
	if err != nil {
		return err
	}

	lang := v.GetString("lang")
	if err := appI18n.Init(lang); err != nil {
		return fmt.Errorf("init i18n: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	llmClient := llm.New(
		v.GetString("llm-url"),
		v.GetString("llm-key"),
		v.GetString("llm-model"),
		v.GetBool("llm-json-mode"),
	)
	pingCtx, cancelPing := context.WithTimeout(ctx, cfg.RequestTimeout)
	if err := llmClient.Ping(pingCtx); err != nil {
		// Generation failures degrade to the fallback quiz, so this is not fatal.
		slog.Warn("LLM health check failed", "url", v.GetString("llm-url"), "error", err)
	} else {
		slog.Info("LLM endpoint OK", "url", v.GetString("llm-url"), "model", v.GetString("llm-model"))
	}
	cancelPing()

	var transcripts quiz.TranscriptSource = transcript.None{}
	if u := v.GetString("transcript-url"); u != "" {
		transcripts = transcript.New(u, lang, &http.Client{Timeout: cfg.RequestTimeout})
	}

	var archive agent.Archive
	if path := v.GetString("db"); path != "" {
		db, err := store.New(path)
		if err != nil {
			return fmt.Errorf("open archive: %w", err)
		}
		defer db.Close()
		if err := db.SetMetadataPairs(map[string]string{
			store.MetaLLMModel:     v.GetString("llm-model"),
			store.MetaLanguage:     lang,
			store.MetaNumQuestions: strconv.Itoa(cfg.NumQuestions),
		}); err != nil {
			slog.Warn("write archive metadata", "error", err)
		}
		archive = db
	}

	g, ctx := errgroup.WithContext(ctx)

	hub := handler.NewHub()
	presenters := agent.Fanout{hub}
	if v.GetBool("desktop-notify") {
		bus, err := notify.ConnectSessionBus()
		if err != nil {
			slog.Warn("desktop notifications disabled", "error", err)
		} else {
			defer bus.Close()
			n := notify.New(bus, lang)
			presenters = append(presenters, n)
			g.Go(func() error { return n.Run(ctx) })
		}
	}

	page, err := browser.Open(ctx, browser.Options{
		ControlURL: v.GetString("browser-url"),
		Headless:   v.GetBool("headless"),
		URL:        pageURL,
		AdSelector: v.GetString("ad-selector"),
	})
	if err != nil {
		return fmt.Errorf("open browser: %w", err)
	}
	defer page.Close()

	ag := agent.New(ctx, cfg, agent.Options{
		Page:        page,
		Transcripts: transcripts,
		Generator:   llmClient,
		Presenter:   presenters,
		Archive:     archive,
	})

	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(appI18n.Middleware(lang))
	handler.New(ag, hub).Routes(r)

	srv := &http.Server{Addr: v.GetString("addr"), Handler: r}

	g.Go(func() error { return ag.Run(ctx) })
	g.Go(func() error {
		slog.Info("starting overlay server", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	slog.Info("agent started",
		"url", pageURL,
		"focus_seconds", cfg.Session.FocusDurationSeconds,
		"demo_seconds", cfg.Session.DemoDurationSeconds,
		"milestones", len(cfg.Session.Milestones),
		"model", v.GetString("llm-model"),
		"lang", lang,
	)
	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

func runExport(cmd *cobra.Command, _ []string) error {
	setupLogging(cmd)
	v := viperForCmd(cmd)

	db, err := store.New(v.GetString("db"))
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()

	export, err := db.ExportAttempts(v.GetString("video"), time.Now().UTC())
	if err != nil {
		return fmt.Errorf("export attempts: %w", err)
	}

	data, err := json.MarshalIndent(export, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal JSON: %w", err)
	}

	outPath := v.GetString("output")
	var w io.Writer
	if outPath == "" || outPath == "-" {
		w = os.Stdout
	} else {
		f, err := os.Create(outPath)
		if err != nil {
			return fmt.Errorf("create output file: %w", err)
		}
		defer f.Close()
		w = f
	}

	_, err = w.Write(data)
	if err != nil {
		return fmt.Errorf("write output: %w", err)
	}
	// Ensure trailing newline.
	_, _ = fmt.Fprintln(w)

	return nil
}
