// main.go
package main

import (
	"fmt"
	"os"

	"github.com/Abraxas-365/hireline/pkg/config"
	"github.com/Abraxas-365/hireline/pkg/logx"
	"github.com/spf13/cobra"
)

// rootOptions holds the global flags and the config loaded from them
type rootOptions struct {
	configFile string
	cfg        *config.Config
}

func main() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:   "hireline",
		Short: "Hireline recruitment back office",
		Long:  "Hireline runs the recruitment pipeline, HR operations, partner invoicing and store complaints behind one API.",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if opts.configFile != "" {
				if err := os.Setenv("HIRELINE_CONFIG", opts.configFile); err != nil {
					return err
				}
			}
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("failed to load configuration: %w", err)
			}
			opts.cfg = cfg
			setupLogger(cfg)
			return nil
		},
	}

	cmd.PersistentFlags().StringVarP(&opts.configFile, "config", "c", "", "YAML config file (overrides HIRELINE_CONFIG)")

	cmd.AddCommand(newServeCommand(opts))
	cmd.AddCommand(newMigrateCommand(opts))
	cmd.AddCommand(newCreateAdminCommand(opts))
	cmd.AddCommand(newSeedPanelCommand(opts))

	return cmd
}

func setupLogger(cfg *config.Config) {
	logx.SetLevel(logx.ParseLevel(cfg.Server.LogLevel))
	logx.UseJSON(cfg.Server.LogJSON || cfg.IsProd())
}
