// Command talespin plays branching YAML stories in the terminal or over HTTP.
package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"

	"github.com/spf13/cobra"

	"talespin/internal/config"
	"talespin/internal/enhance"
	"talespin/internal/story"
	"talespin/internal/telemetry"
)

var (
	cfg      config.Config
	envFile  string
	storyArg string
	strict   bool
	debug    bool
)

var rootCmd = &cobra.Command{
	Use:   "talespin",
	Short: "Play branching YAML stories",
	Long: `talespin loads a story document and plays it in the terminal (play),
serves it to browsers (serve), lints it (check) or draws a journey map
from a save file (map). Settings come from the environment and an
optional .env file; flags override them.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		if envFile != "" {
			cfg, err = config.Load(envFile)
		} else {
			cfg, err = config.Load()
		}
		if err != nil {
			return err
		}
		flags := cmd.Flags()
		if flags.Changed("story") {
			cfg.Story = storyArg
		}
		if flags.Changed("strict") {
			cfg.Strict = strict
		}
		if flags.Changed("debug") {
			cfg.Debug = debug
		}
		return cfg.Validate()
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", "", "Load settings from this file instead of .env")
	rootCmd.PersistentFlags().StringVarP(&storyArg, "story", "s", "", "Story document (overrides TALESPIN_STORY)")
	rootCmd.PersistentFlags().BoolVar(&strict, "strict", false, "Reject conditions and effects the engine cannot read")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "Write diagnostics to debug.log")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// loadStory reads the story named by the first argument, falling back to
// the configured one.
func loadStory(args []string) (*story.Document, error) {
	path := cfg.Story
	if len(args) > 0 {
		path = args[0]
	}
	if path == "" {
		return nil, errors.New("no story given: pass a path or set TALESPIN_STORY")
	}
	return story.Load(path)
}

// newLogger returns the command logger. With toFile, or in debug mode,
// output is appended to debug.log; call the returned func when done.
func newLogger(toFile bool) (*log.Logger, func(), error) {
	if !toFile && !cfg.Debug {
		return log.New(os.Stderr, "", log.LstdFlags), func() {}, nil
	}
	f, err := os.OpenFile("debug.log", os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o666)
	if err != nil {
		return nil, nil, fmt.Errorf("open debug log: %w", err)
	}
	flags := log.LstdFlags
	if cfg.Debug {
		flags |= log.Lshortfile
	}
	l := log.New(f, "", flags)
	if cfg.Debug {
		l.Printf("=== DEBUG MODE ENABLED ===")
	}
	return l, func() { _ = f.Close() }, nil
}

// newGenerator returns the configured passage generator, or nil when
// enhancement is off.
func newGenerator(p *telemetry.Provider, logger *log.Logger) enhance.Generator {
	if !cfg.Enhance {
		return nil
	}
	return enhance.NewOpenAI(enhance.OpenAIConfig{
		APIKey: cfg.OpenAIKey,
		Model:  cfg.OpenAIModel,
		Tracer: p.Tracer("talespin/enhance"),
		Logger: logger,
	})
}

func startTelemetry(ctx context.Context, logger *log.Logger) (*telemetry.Provider, func(), error) {
	p, err := telemetry.Init(ctx, cfg.Tracing.Telemetry(Version))
	if err != nil {
		return nil, nil, err
	}
	shutdown := func() {
		ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := p.Shutdown(ctx); err != nil {
			logger.Printf("telemetry shutdown: %v", err)
		}
	}
	return p, shutdown, nil
}
