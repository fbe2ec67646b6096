package main

import (
	"github.com/spf13/cobra"

	"clippa/internal/logging"
	"clippa/internal/server"
)

func newServeCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP clip server in the foreground",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger, err := logging.NewFromConfig(cfg)
			if err != nil {
				return err
			}
			logger.Info("clippa server starting",
				logging.String(logging.FieldEventType, "server_start"),
				logging.String("config_path", ctx.configPath),
				logging.String("bind", cfg.API.Bind),
				logging.String("storage_backend", cfg.Storage.Backend),
				logging.String("store_backend", cfg.Store.Backend),
				logging.Bool("kafka_enabled", cfg.KafkaEnabled()),
			)
			return server.Run(cmd.Context(), cfg, logger)
		},
	}
}
