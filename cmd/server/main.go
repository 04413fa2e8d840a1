package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/klatch-chat/klatch-server/internal/app"
	"github.com/klatch-chat/klatch-server/internal/config"
	"github.com/klatch-chat/klatch-server/internal/log"
	"github.com/klatch-chat/klatch-server/internal/seed"
	"github.com/klatch-chat/klatch-server/internal/store/sqlite"
)

func main() {
	var (
		configPath string
		addr       string
		logLevel   string
		seedCount  int
	)

	root := &cobra.Command{
		Use:           "klatch-server",
		Short:         "Group chat backend with websocket realtime delivery",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&configPath, "config", "", "path to config file")
	root.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level (debug, info, warn, error)")

	loadConfig := func() (config.Config, error) {
		bootstrapLog := log.New("info")
		cfg, path, err := config.Load(bootstrapLog, configPath)
		if err != nil {
			return config.Config{}, fmt.Errorf("load config: %w", err)
		}
		if addr != "" {
			cfg.Addr = addr
		}
		if logLevel != "" {
			cfg.LogLevel = logLevel
		}
		bootstrapLog.Debug().Str("config_path", path).Msg("configuration loaded")
		return cfg, nil
	}

	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP and websocket server",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			logger := log.New(cfg.LogLevel)

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			application, err := app.New(cfg, logger)
			if err != nil {
				return err
			}

			logger.Info().Str("addr", cfg.Addr).Msg("starting klatch server")
			if err := application.Run(ctx); err != nil {
				return err
			}
			logger.Info().Msg("server stopped")
			return nil
		},
	}
	serveCmd.Flags().StringVar(&addr, "addr", "", "HTTP listen address")

	seedCmd := &cobra.Command{
		Use:   "seed",
		Short: "Insert sample users into the database",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			logger := log.New(cfg.LogLevel)

			st, err := sqlite.New(cfg.DatabasePath)
			if err != nil {
				return fmt.Errorf("init store: %w", err)
			}
			defer st.Close()

			return seed.Users(cmd.Context(), st, seedCount, logger)
		},
	}
	seedCmd.Flags().IntVar(&seedCount, "count", 10, "number of users to create")

	root.AddCommand(serveCmd, seedCmd)

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
