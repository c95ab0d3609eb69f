package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"reelpress/internal/daemonrun"
	"reelpress/internal/transport"
	"reelpress/internal/transport/telegram"
)

func newRunCommand(ctx *commandContext) *cobra.Command {
	var logLevel string
	var development bool

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the reelpress daemon in the foreground",
		RunE: func(cmd *cobra.Command, args []string) error {
			// Tokens commonly live in a local .env during development.
			_ = godotenv.Load()

			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}

			token := cfg.BotToken()
			if token == "" {
				return fmt.Errorf("bot token not set; export %s or add it to .env", cfg.Transport.TokenEnv)
			}

			makeTransport := func(runCtx context.Context, logger *slog.Logger) (transport.Transport, func(), error) {
				client, err := telegram.New(token, logger)
				if err != nil {
					return nil, nil, err
				}
				client.Start(runCtx)
				return client, client.Stop, nil
			}

			return daemonrun.Run(cmd.Context(), cfg, makeTransport, daemonrun.Options{
				LogLevel:    logLevel,
				Development: development,
			})
		},
	}

	cmd.Flags().StringVar(&logLevel, "log-level", "", "Override configured log level")
	cmd.Flags().BoolVar(&development, "dev", false, "Enable development logging output")
	return cmd
}
