package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/cors"
	"github.com/spf13/cobra"

	"github.com/gyeh/binhelper/internal/config"
	"github.com/gyeh/binhelper/internal/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the dashboard JSON API",
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().StringVar(&cfg.ServerAddr, "addr", "", "Listen address (default "+config.DefaultServerAddr+")")
	serveCmd.Flags().StringSliceVar(&cfg.CORSOrigins, "cors-origin", nil, "Origins allowed to call the API from a browser (repeatable)")
	serveCmd.Flags().DurationVar(&cfg.TrendInterval, "trend-interval", 0, "Minimum time between recorded trend points (default 1h)")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	p, done := openPipeline()
	defer done()
	hist := tryHistory()
	if hist != nil {
		defer hist.Close()
	}

	srv := server.New(p, newState(), hist, cfg.TrendInterval, log)
	var handler http.Handler = srv.Handler()
	if len(cfg.CORSOrigins) > 0 {
		handler = cors.New(cors.Options{
			AllowedOrigins: cfg.CORSOrigins,
			AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
			AllowedHeaders: []string{"Content-Type"},
		}).Handler(handler)
	}
	httpSrv := &http.Server{
		Addr:              cfg.ServerAddr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", cfg.ServerAddr).Msg("listening")
		errCh <- httpSrv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Msg("server failed")
			return err
		}
	case <-ctx.Done():
		log.Info().Msg("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpSrv.Shutdown(shutdownCtx); err != nil {
			log.Warn().Err(err).Msg("shutdown incomplete")
		}
	}
	return nil
}
