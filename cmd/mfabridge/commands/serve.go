package commands

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"github.com/MrEthical07/mfabridge/internal/config"
	"github.com/MrEthical07/mfabridge/internal/logger"
	"github.com/MrEthical07/mfabridge/internal/server"
)

func newServeCmd() *cobra.Command {
	var dev bool
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the login service",
		Long: `Run the HTTP login service.

Examples:
  # Start with a config file
  mfabridge serve --config /etc/mfabridge/config.yaml

  # Start against an in-process Redis for local testing
  mfabridge serve --config config.yaml --dev

  # Override settings from the environment
  MFABRIDGE_LOGGING_LEVEL=DEBUG MFABRIDGE_SERVER_ADDR=:9000 mfabridge serve`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd.Context(), dev)
		},
	}
	cmd.Flags().BoolVar(&dev, "dev", false, "use an in-process Redis instead of redis.addr")
	return cmd
}

func runServe(parent context.Context, dev bool) error {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return err
	}
	log, logCloser, err := logger.New(cfg.Logging)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer logCloser.Close()

	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	addr := cfg.Redis.Addr
	if dev {
		mr, err := miniredis.Run()
		if err != nil {
			return fmt.Errorf("failed to start in-process redis: %w", err)
		}
		defer mr.Close()
		addr = mr.Addr()
		log.Warn("using in-process redis; state is lost on exit", "addr", addr)
	}
	rdb := redis.NewClient(&redis.Options{Addr: addr, Password: cfg.Redis.Password, DB: cfg.Redis.DB})
	defer rdb.Close()

	srv, err := server.Build(ctx, cfg, server.Deps{Redis: rdb, Logger: log})
	if err != nil {
		return err
	}
	defer srv.Close()

	httpSrv := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           srv.Handler,
		ReadHeaderTimeout: cfg.Server.ReadHeaderTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("listening", "addr", cfg.Server.Addr, "source", configSource())
		errCh <- httpSrv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		log.Info("shutdown signal received, draining connections")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	log.Info("server stopped")
	return nil
}

func configSource() string {
	if cfgFile != "" {
		return cfgFile
	}
	return "defaults"
}
