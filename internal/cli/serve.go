package cli

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/evcraddock/gatepass/internal/backend"
	"github.com/evcraddock/gatepass/internal/config"
	"github.com/evcraddock/gatepass/internal/logging"
	"github.com/evcraddock/gatepass/internal/metrics"
	"github.com/evcraddock/gatepass/internal/telephony"
	"github.com/evcraddock/gatepass/internal/web"
)

func newServeCmd() *cobra.Command {
	var (
		port    int
		envFile string
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the API server",
		Long:  "Start the HTTP API server residents' apps and the gate CLI talk to.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context(), port, envFile)
		},
	}

	cmd.Flags().IntVar(&port, "port", 8080, "port to listen on")
	cmd.Flags().StringVar(&envFile, "env-file", ".env", "dotenv file to load before reading the environment")

	return cmd
}

func runServe(ctx context.Context, port int, envFile string) error {
	if err := config.LoadDotEnv(envFile); err != nil {
		return err
	}
	cfg, err := config.FromEnv()
	if err != nil {
		return err
	}

	logging.Setup(cfg.DevMode, cfg.LogLevel)

	dialer, err := newDialer(cfg)
	if err != nil {
		return err
	}

	database, err := openDB()
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer closeDB(database)

	srv, err := web.NewServer(database, web.Options{
		Visitors: backend.NewClient(cfg.BackendURL),
		Dialer:   dialer,
		Metrics:  metrics.New(),
		Location: cfg.Location,
	})
	if err != nil {
		return fmt.Errorf("creating server: %w", err)
	}

	return srv.ListenAndServe(ctx, port)
}

// newDialer picks the webhook dialer when one is configured and falls
// back to logging calls.
func newDialer(cfg config.Config) (telephony.Dialer, error) {
	if cfg.DialWebhook == "" {
		if !cfg.DevMode {
			slog.Warn("GATE_DIAL_WEBHOOK not set, calls will only be logged")
		}
		return telephony.LogDialer{}, nil
	}
	d, err := telephony.NewWebhookDialer(cfg.DialWebhook, cfg.DialRate)
	if err != nil {
		return nil, fmt.Errorf("creating dialer: %w", err)
	}
	return d, nil
}
