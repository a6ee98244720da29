package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/biasnet/influence/internal/rest"
	"github.com/biasnet/influence/internal/setup"
	"github.com/biasnet/influence/internal/setup/telemetry"
	"github.com/urfave/cli/v3"
	"go.uber.org/zap"
)

// RESTLogDir specifies where REST server log files are stored.
const RESTLogDir = "logs/rest_logs"

func main() {
	cmd := &cli.Command{
		Name:  "rest",
		Usage: "Serve the influence REST API",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:    "auto-migrate",
				Usage:   "Apply pending migrations at startup without asking",
				Sources: cli.EnvVars("INFLUENCE_AUTO_MIGRATE"),
			},
		},
		Action: serve,
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		log.Fatalf("REST server failed: %v", err)
	}
}

func serve(ctx context.Context, c *cli.Command) error {
	// Initialize application with required dependencies
	app, err := setup.InitializeApp(ctx, telemetry.ServiceAPI, RESTLogDir, setup.Options{
		AutoMigrate: c.Bool("auto-migrate"),
	})
	if err != nil {
		return fmt.Errorf("failed to initialize application: %w", err)
	}
	defer app.Cleanup(context.Background())

	serverCfg := app.Config.API.Server
	addr := fmt.Sprintf("%s:%d", serverCfg.Host, serverCfg.Port)

	// Create HTTP server with timeouts
	srv := &http.Server{
		Addr:         addr,
		Handler:      rest.NewServer(app.DB.Service(), app.Ping, &app.Config.API, app.Logger),
		ReadTimeout:  time.Duration(serverCfg.ReadTimeout) * time.Millisecond,
		WriteTimeout: time.Duration(serverCfg.WriteTimeout) * time.Millisecond,
	}

	// Start server in a goroutine
	serveErr := make(chan error, 1)
	go func() {
		app.Logger.Info("REST server started", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	// Wait for interrupt signal or a listener failure
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-stop:
	case err := <-serveErr:
		if err != nil {
			app.Logger.Error("Failed to start server", zap.Error(err))
			return err
		}
	}

	app.Logger.Info("Shutting down REST server...")

	// Create shutdown context with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(),
		time.Duration(serverCfg.ShutdownTimeout)*time.Millisecond)
	defer cancel()

	// Attempt graceful shutdown
	if err := srv.Shutdown(shutdownCtx); err != nil {
		app.Logger.Error("Server forced to shutdown", zap.Error(err))
	}

	app.Logger.Info("Server gracefully stopped")
	return nil
}
