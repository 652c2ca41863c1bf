// Command chat is the interactive surface over the conversational graph: it
// reads lines from the terminal, feeds each as a user turn into a graph run
// over carried-over session state, and prints the assistant's reply along
// with derived fields. Control inputs (exit, clear, help, stats) are handled
// entirely outside the graph.
package main

import (
	"fmt"
	"net/http"
	"os"
	"time"

	anthropicsdk "github.com/anthropics/anthropic-sdk-go"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/wasiiff/convograph"
	"github.com/wasiiff/convograph/config"
	"github.com/wasiiff/convograph/logging"
	"github.com/wasiiff/convograph/metrics"
	"github.com/wasiiff/convograph/model"
	"github.com/wasiiff/convograph/model/anthropic"
	"github.com/wasiiff/convograph/model/openai"
	"github.com/wasiiff/convograph/session"
)

type flags struct {
	configPath         string
	provider           string
	modelName          string
	summarizeThreshold int
	summarizeWindow    int
	logLevel           string
	logFormat          string
	metricsAddr        string
	sessionID          string
}

func main() {
	var f flags

	cmd := &cobra.Command{
		Use:   "chat",
		Short: "Interactive conversational graph REPL",
		Long: "chat runs the reference conversational pipeline (routing, arithmetic\n" +
			"evaluation, chat, sentiment classification, calming responses and\n" +
			"summarization) against an OpenAI or Anthropic model.",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(cmd, f)
		},
	}

	cmd.Flags().StringVarP(&f.configPath, "config", "c", "", "path to YAML config file")
	cmd.Flags().StringVar(&f.provider, "provider", "", "model provider (openai or anthropic)")
	cmd.Flags().StringVar(&f.modelName, "model", "", "model name override")
	cmd.Flags().IntVar(&f.summarizeThreshold, "summarize-threshold", 0, "messages required before summarizing")
	cmd.Flags().IntVar(&f.summarizeWindow, "summarize-window", 0, "summarize only the last N messages (0 = all)")
	cmd.Flags().StringVar(&f.logLevel, "log-level", "", "log level (debug, info, warn, error)")
	cmd.Flags().StringVar(&f.logFormat, "log-format", "", "log format (text or json)")
	cmd.Flags().StringVar(&f.metricsAddr, "metrics-addr", "", "serve Prometheus metrics on this address (e.g. :9090)")
	cmd.Flags().StringVar(&f.sessionID, "session", "", "session identifier (defaults to a random id)")

	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func run(cmd *cobra.Command, f flags) error {
	cfg, err := config.Load(f.configPath)
	if err != nil {
		return err
	}
	applyFlagOverrides(&cfg, f)

	logger := logging.NewSlogLogger(logging.ParseLevel(cfg.Logging.Level), cfg.Logging.Format, false).
		WithComponent("cli")

	llm, err := buildModel(cfg.Model)
	if err != nil {
		return err
	}

	var recorder *metrics.Collector
	if f.metricsAddr != "" {
		registry := prometheus.NewRegistry()
		recorder = metrics.NewCollector(registry)
		go serveMetrics(f.metricsAddr, registry, logger)
	}

	executor, err := convograph.NewChatGraph(llm, func(o *convograph.Options) {
		o.SummarizeThreshold = cfg.Summarize.Threshold
		o.SummarizeWindow = cfg.Summarize.Window
		o.MaxSteps = cfg.Engine.MaxSteps
		o.NodeTimeout = time.Duration(cfg.Engine.NodeTimeout)
		o.ChatPrompt = cfg.Prompts.Chat
		o.SentimentPrompt = cfg.Prompts.Sentiment
		o.CalmingPrompt = cfg.Prompts.Calming
		o.SummarizePrompt = cfg.Prompts.Summarize
		o.Logger = logger.WithComponent("engine")
		if recorder != nil {
			o.Recorder = recorder
		}
	})
	if err != nil {
		return err
	}

	sessionID := f.sessionID
	if sessionID == "" {
		sessionID = session.NewID()
	}

	repl := newREPL(executor, session.NewInMemoryStore(), sessionID, llm.Name(), logger)
	return repl.loop(cmd.Context(), os.Stdin, os.Stdout)
}

func applyFlagOverrides(cfg *config.Config, f flags) {
	if f.provider != "" {
		cfg.Model.Provider = f.provider
	}
	if f.modelName != "" {
		cfg.Model.Name = f.modelName
	}
	if f.summarizeThreshold > 0 {
		cfg.Summarize.Threshold = f.summarizeThreshold
	}
	if f.summarizeWindow > 0 {
		cfg.Summarize.Window = f.summarizeWindow
	}
	if f.logLevel != "" {
		cfg.Logging.Level = f.logLevel
	}
	if f.logFormat != "" {
		cfg.Logging.Format = f.logFormat
	}
}

// buildModel constructs the configured provider adapter. A missing API key
// is fatal here: the engine itself is agnostic to credentials, but the CLI
// cannot do anything useful without them.
func buildModel(cfg config.ModelConfig) (model.Model, error) {
	switch cfg.Provider {
	case config.ProviderOpenAI:
		if os.Getenv("OPENAI_API_KEY") == "" {
			return nil, fmt.Errorf("OPENAI_API_KEY environment variable is required for the openai provider")
		}
		return openai.NewModel(func(o *openai.Options) {
			if cfg.Name != "" {
				o.Model = cfg.Name
			}
			o.Temperature = cfg.Temperature
		}), nil
	case config.ProviderAnthropic:
		if os.Getenv("ANTHROPIC_API_KEY") == "" {
			return nil, fmt.Errorf("ANTHROPIC_API_KEY environment variable is required for the anthropic provider")
		}
		return anthropic.NewModel(func(o *anthropic.Options) {
			if cfg.Name != "" {
				o.Model = anthropicsdk.Model(cfg.Name)
			}
			o.Temperature = cfg.Temperature
		}), nil
	default:
		return nil, fmt.Errorf("unknown model provider %q", cfg.Provider)
	}
}

func serveMetrics(addr string, registry *prometheus.Registry, logger logging.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
	logger.Info("serving metrics", "addr", addr)
	if err := http.ListenAndServe(addr, mux); err != nil {
		logger.Error("metrics server stopped", "error", err)
	}
}
