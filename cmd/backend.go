package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/Sahil-Bhoite/Mars-2.0/api"
)

// newClient builds a transport client for the one-shot subcommands, which
// print to stdout and so use a no-op logger.
func newClient() (*api.Client, error) {
	cfg, _, err := loadConfig()
	if err != nil {
		return nil, err
	}
	return api.NewClient(cfg.BaseURL, cfg.Timeout(), zap.NewNop()), nil
}

var modelsCmd = &cobra.Command{
	Use:   "models",
	Short: "List the answer-generation models the backend offers",
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newClient()
		if err != nil {
			return err
		}
		response, err := client.Models(context.Background())
		if err != nil {
			return err
		}
		for _, m := range response.Models {
			marker := " "
			if m.ID == response.Default {
				marker = "*"
			}
			fmt.Printf("%s %-8s %-20s %s (%s)\n", marker, m.ID, m.Name, m.Provider, m.Type)
		}
		return nil
	},
}

var formatsCmd = &cobra.Command{
	Use:   "formats",
	Short: "List the file formats the backend can ingest",
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newClient()
		if err != nil {
			return err
		}
		extensions, err := client.SupportedFormats(context.Background())
		if err != nil {
			return err
		}
		fmt.Println(strings.Join(extensions, ", "))
		return nil
	},
}

var statusCmd = &cobra.Command{
	Use:   "status <session-id>",
	Short: "Show the backend's view of a session",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newClient()
		if err != nil {
			return err
		}
		info, err := client.SessionInfo(context.Background(), args[0])
		if err != nil {
			return err
		}
		fmt.Printf("session %s: %d files, %d chunks\n", args[0], len(info.Files), info.TotalChunks)
		for _, name := range info.Files {
			fmt.Println("  " + name)
		}
		return nil
	},
}
