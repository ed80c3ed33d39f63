package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/momentum-app/momentum-backend/internal/config"
	"github.com/momentum-app/momentum-backend/internal/observability"
	"github.com/momentum-app/momentum-backend/internal/tools/common"
)

func main() {
	root := &cobra.Command{
		Use:           "momentum-server",
		Short:         "Momentum auth and session backend",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	var envFile string
	serve := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP server",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd.Context(), envFile)
		},
	}
	serve.Flags().StringVar(&envFile, "env-file", ".env", "environment file to load before reading config")
	root.AddCommand(serve)
	root.RunE = serve.RunE
	root.Flags().StringVar(&envFile, "env-file", ".env", "environment file to load before reading config")

	if err := root.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func runServe(ctx context.Context, envFile string) error {
	if err := common.LoadEnvFile(envFile); err != nil {
		return fmt.Errorf("load env file: %w", err)
	}

	cfg, err := config.Load(ctx)
	if err != nil {
		return err
	}

	base := observability.NewBaseLogger(cfg)
	runtime, err := observability.InitRuntime(ctx, cfg, base)
	if err != nil {
		return fmt.Errorf("init observability: %w", err)
	}
	logger := runtime.Logger

	application, err := InitializeApp(cfg, logger, runtime)
	if err != nil {
		return fmt.Errorf("init app: %w", err)
	}
	return application.Run(ctx)
}
