package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/kdduha/omni-reader/internal/handler"
	"github.com/kdduha/omni-reader/internal/metrics"
	"github.com/kdduha/omni-reader/internal/models"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	_ "github.com/kdduha/omni-reader/docs"
	httpSwagger "github.com/swaggo/http-swagger"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		logger := log.Default()
		svc, cleanup, err := newReaderService(ctx, logger, cfg)
		if err != nil {
			return err
		}
		defer cleanup()
		defer func() { _ = svc.StopPlayback() }()

		lang := models.Language(cfg.Reader.DefaultLanguage)
		rh := handler.NewRecognizeHandler(logger, svc, lang)
		rh.AllowOrigins(cfg.Server.WSAllowedOrigins)
		ph := handler.NewPlaybackHandler(logger, svc, lang)

		r := chi.NewRouter()
		r.Use([]func(http.Handler) http.Handler{
			middleware.Logger,
			middleware.Recoverer,
			middleware.Throttle(cfg.Server.ThrottleLimit),
			metrics.Middleware,
		}...)

		r.Group(func(r chi.Router) {
			r.Use(middleware.Timeout(cfg.Server.Timeout))
			r.Post("/recognize", rh.Recognize)
			r.Post("/recognize/stream", rh.RecognizeStream)
			r.Post("/recognize/audio", rh.RecognizeAudio)
			r.Post("/playback", ph.Play)
			r.Delete("/playback", ph.Stop)
			r.Get("/playback", ph.Status)
		})
		// websocket connections outlive the request timeout
		r.Get("/recognize/ws", rh.RecognizeWS)
		r.Get("/swagger/*", httpSwagger.Handler(
			httpSwagger.URL("/swagger/doc.json"),
		))
		r.Handle("/metrics", promhttp.Handler())

		srv := &http.Server{
			Addr:    ":" + cfg.Server.Port,
			Handler: r,
		}

		go func() {
			logger.Printf("server started :%s\n", cfg.Server.Port)
			if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				logger.Fatalf("listen error: %v", err)
			}
		}()

		<-ctx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		logger.Println("server stopped")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}
