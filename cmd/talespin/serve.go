package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"talespin/internal/save"
	"talespin/internal/session"
	"talespin/internal/web"
)

const (
	shutdownTimeout = 5 * time.Second
	sweepInterval   = time.Minute
)

var (
	addr     string
	mediaDir string
)

var serveCmd = &cobra.Command{
	Use:   "serve [story]",
	Short: "Serve a story over HTTP",
	Long: `Serves the story to browsers. Save slots live in memory unless
TALESPIN_DB names a SQLite file.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		doc, err := loadStory(args)
		if err != nil {
			return err
		}
		logger, closeLog, err := newLogger(false)
		if err != nil {
			return err
		}
		defer closeLog()
		for _, w := range doc.Warnings {
			logger.Printf("story: %s", w)
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		provider, shutdownTelemetry, err := startTelemetry(ctx, logger)
		if err != nil {
			return err
		}
		defer shutdownTelemetry()

		srv := &web.Server{
			Doc:            doc,
			Codec:          save.Codec{},
			Strict:         cfg.Strict,
			MediaDir:       mediaDir,
			Generator:      newGenerator(provider, logger),
			EnhanceTimeout: cfg.EnhanceTimeout,
			IdleTimeout:    cfg.SessionIdle,
			Logger:         logger,
			Tracer:         provider.Tracer("talespin/web"),
		}
		if cfg.DB != "" {
			store, err := session.OpenSQLite(cfg.DB)
			if err != nil {
				return err
			}
			defer store.Close()
			srv.Saves = store
		}

		if cmd.Flags().Changed("addr") {
			cfg.Addr = addr
		}
		httpSrv := &http.Server{
			Addr:              cfg.Addr,
			Handler:           srv.Routes(),
			ReadHeaderTimeout: 10 * time.Second,
		}
		defer func() {
			if err := srv.Close(context.Background()); err != nil {
				logger.Printf("close sessions: %v", err)
			}
		}()
		go srv.RunSweeper(ctx, sweepInterval)
		go func() {
			<-ctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			if err := httpSrv.Shutdown(shutdownCtx); err != nil {
				logger.Printf("shutdown: %v", err)
			}
		}()

		logger.Printf("serving %q on %s", doc.Title, cfg.Addr)
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	},
}

func init() {
	serveCmd.Flags().StringVarP(&addr, "addr", "a", ":8080", "Listen address (overrides TALESPIN_ADDR)")
	serveCmd.Flags().StringVar(&mediaDir, "media", "", "Directory with scenery/ and audio/ files")
	rootCmd.AddCommand(serveCmd)
}
