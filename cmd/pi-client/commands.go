package main

import (
	"os"

	"github.com/go-faster/errors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	appkg "github.com/xenking/pi-generator/internal/app"
)

// newRootCommand builds the command tree. Without a subcommand the
// interactive session starts.
func newRootCommand(lg *zap.Logger, m appkg.Telemetry) *cobra.Command {
	var configFile string

	loadConfig := func() (*appkg.Config, error) {
		if configFile == "" {
			return appkg.LoadConfig()
		}
		if _, err := os.Stat(configFile); err != nil {
			return nil, errors.Wrap(err, "config file")
		}
		return appkg.LoadConfig(configFile)
	}

	runSession := func(cmd *cobra.Command, _ []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		return appkg.RunSession(cmd.Context(), lg, m, cfg, cmd.InOrStdin(), cmd.OutOrStdout())
	}

	root := &cobra.Command{
		Use:           "pi-client",
		Short:         "Capture proforma invoice orders and have the documents generated",
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.NoArgs,
		RunE:          runSession,
	}
	root.PersistentFlags().StringVarP(&configFile, "config", "c", "", "additional YAML config file")

	root.AddCommand(
		&cobra.Command{
			Use:   "session",
			Short: "Start the interactive session (default)",
			Args:  cobra.NoArgs,
			RunE:  runSession,
		},
		newOnceCommand(lg, m, loadConfig, appkg.OpDownload, "Generate the document for an order file and save it"),
		newOnceCommand(lg, m, loadConfig, appkg.OpEmail, "Generate the document for an order file and email it"),
	)
	return root
}

func newOnceCommand(lg *zap.Logger, m appkg.Telemetry, loadConfig func() (*appkg.Config, error), op appkg.Operation, short string) *cobra.Command {
	var file string
	cmd := &cobra.Command{
		Use:   string(op) + " -f order.yaml",
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			return appkg.RunOnce(cmd.Context(), lg, m, cfg, op, file, cmd.OutOrStdout())
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "", "order file (YAML)")
	_ = cmd.MarkFlagRequired("file")
	return cmd
}
