package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/Sahil-Bhoite/Mars-2.0/api"
	"github.com/Sahil-Bhoite/Mars-2.0/chat"
	"github.com/Sahil-Bhoite/Mars-2.0/config"
	"github.com/Sahil-Bhoite/Mars-2.0/dropwatch"
	"github.com/Sahil-Bhoite/Mars-2.0/logging"
	"github.com/Sahil-Bhoite/Mars-2.0/session"
	"github.com/Sahil-Bhoite/Mars-2.0/tui"
	"github.com/Sahil-Bhoite/Mars-2.0/upload"
)

var baseURLFlag string

var rootCmd = &cobra.Command{
	Use:   "mars",
	Short: "Mars is a terminal client for chatting with your documents",
	Long: `Mars is a terminal client for the Mars 2.0 document-chat backend.
Upload files into a session, then ask questions answered from their
content with source citations. Files can be picked interactively or
dropped into a watched directory.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, dir, err := loadConfig()
		if err != nil {
			return err
		}

		logger, err := logging.New(cfg.LogFile)
		if err != nil {
			return fmt.Errorf("failed to set up logging: %w", err)
		}
		defer logger.Sync()

		client := api.NewClient(cfg.BaseURL, cfg.Timeout(), logger)
		store := session.NewStore()
		chatCtl := chat.NewController(store, client, cfg.Model, logger)
		uploadCtl := upload.NewController(store, client, logger)

		var watcher *dropwatch.Watcher
		if cfg.DropDir != "" {
			watcher, err = dropwatch.New(cfg.DropDir, logger)
			if err != nil {
				logger.Warn("drop directory disabled", zap.Error(err))
				fmt.Fprintf(os.Stderr, "Warning: drop directory disabled: %v\n", err)
			} else {
				watcher.Start()
			}
		}

		logger.Info("client starting",
			zap.String("base_url", client.BaseURL()),
			zap.String("config_dir", dir))

		return tui.Start(tui.NewModel(store, chatCtl, uploadCtl, client, watcher, logger))
	},
}

// loadConfig resolves the config directory, loads settings, and applies
// the --base-url override.
func loadConfig() (*config.Config, string, error) {
	dir, err := config.Dir()
	if err != nil {
		return nil, "", err
	}
	cfg, err := config.Load(dir)
	if err != nil {
		return nil, "", err
	}
	if baseURLFlag != "" {
		cfg.BaseURL = baseURLFlag
	}
	return cfg, dir, nil
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&baseURLFlag, "base-url", "b", "", "Backend base URL (overrides config)")

	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(modelsCmd)
	rootCmd.AddCommand(formatsCmd)
	rootCmd.AddCommand(statusCmd)
}
