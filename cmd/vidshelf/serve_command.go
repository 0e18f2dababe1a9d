package main

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sir_venger/vidshelf/internal/app/videohttp"
)

const shutdownTimeout = 15 * time.Second

func newServeCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API server",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger, err := ctx.logger()
			if err != nil {
				return err
			}
			defer func() { _ = logger.Sync() }()

			sigCtx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			handler, srv, err := videohttp.NewServer(sigCtx, cfg, logger)
			if err != nil {
				return err
			}
			defer func() {
				if err := srv.Close(); err != nil {
					logger.Warn("close server resources", zap.Error(err))
				}
			}()

			server := &http.Server{
				Addr:              cfg.ListenAddr,
				Handler:           handler,
				ReadHeaderTimeout: 10 * time.Second,
			}

			ln, err := net.Listen("tcp", cfg.ListenAddr)
			if err != nil {
				return err
			}
			logger.Info("vidshelf listening",
				zap.String("addr", ln.Addr().String()),
				zap.String("meta_dsn_scheme", dsnScheme(cfg.MetaDSN)),
				zap.Strings("library_roots", cfg.LibraryRoots),
				zap.Bool("thumbnails", srv.Thumbnails != nil),
			)
			if err := serve(sigCtx, server, ln, logger); err != nil {
				return err
			}

			logger.Info("vidshelf stopped")
			return nil
		},
	}
}

// serve обслуживает ln до отмены ctx и возвращается только после того, как активные
// запросы допишутся (или истечёт shutdownTimeout).
func serve(ctx context.Context, server *http.Server, ln net.Listener, logger *zap.Logger) error {
	// Сценарий graceful shutdown при получении SIGTERM/SIGINT.
	drained := make(chan struct{})
	stopped := make(chan struct{})
	go func() {
		defer close(drained)
		select {
		case <-ctx.Done():
			shutdown(server, logger)
		case <-stopped:
		}
	}()

	err := server.Serve(ln)
	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		close(stopped)
		<-drained
		return err
	}
	// Serve возвращается сразу после начала Shutdown: ждём, пока активные запросы допишутся.
	<-drained
	return nil
}

// shutdown останавливает приём соединений и ждёт завершения активных запросов.
func shutdown(server *http.Server, logger *zap.Logger) {
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("shutdown", zap.Error(err))
	}
}
