package cli

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/justinas/alice"
	"github.com/spf13/cobra"

	viewrender "github.com/goliatone/go-viewrender"
	"github.com/goliatone/go-viewrender/components/pages"
	"github.com/goliatone/go-viewrender/internal/config"
	"github.com/goliatone/go-viewrender/internal/logging"
	"github.com/goliatone/go-viewrender/pkg/view"
)

const shutdownTimeout = 10 * time.Second

// newServeCommand creates the "serve" subcommand that renders pages over HTTP.
func newServeCommand(opts *Options) *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve templates as pages over HTTP",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(opts)
			if err != nil {
				return err
			}
			logger := commandLogger(cmd, cfg)
			if addr != "" {
				cfg.Addr = addr
			}

			handler, err := newServerHandler(cfg, logger)
			if err != nil {
				return err
			}

			server := &http.Server{
				Addr:              cfg.Addr,
				Handler:           handler,
				ReadHeaderTimeout: 10 * time.Second,
				ErrorLog:          log.New(logging.NewWriter(logger, logging.LevelError, "http server error"), "", 0),
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			errCh := make(chan error, 1)
			go func() {
				logger.Info("serving pages", "addr", cfg.Addr, "engine", cfg.Engine)
				errCh <- server.ListenAndServe()
			}()

			select {
			case err := <-errCh:
				if errors.Is(err, http.ErrServerClosed) {
					return nil
				}
				return err
			case <-ctx.Done():
			}

			logger.Info("shutting down")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			return server.Shutdown(shutdownCtx)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "Listen address (defaults to the configured addr)")

	return cmd
}

// newServerHandler wires the asset files and the page routes behind the
// recovery and access log middleware.
func newServerHandler(cfg config.Config, logger *slog.Logger) (http.Handler, error) {
	renderer, err := newRenderer(cfg, logger)
	if err != nil {
		return nil, err
	}

	router := mux.NewRouter()
	router.PathPrefix(defaultAssetPrefix + "/").Handler(
		http.StripPrefix(defaultAssetPrefix+"/", http.FileServer(http.FS(viewrender.AssetsFS()))),
	)

	err = pages.BindRoutes(router, renderer,
		pages.WithTrustForwarded(cfg.TrustForwarded),
		pages.WithLogger(logger),
		pages.WithHelpers(func(_ *http.Request, r *view.Renderer) {
			registerContentHelpers(r, cfg.Theme)
		}),
	)
	if err != nil {
		return nil, err
	}

	accessLog := logging.NewWriter(logger, logging.LevelInfo, "http request")
	stack := alice.New(
		handlers.RecoveryHandler(handlers.RecoveryLogger(log.New(logging.NewWriter(logger, logging.LevelError, "http handler panic"), "", 0))),
		func(next http.Handler) http.Handler { return handlers.CombinedLoggingHandler(accessLog, next) },
	)
	return stack.Then(router), nil
}
