// Package cli wires the homedeck commands.
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/Dicklesworthstone/homedeck/internal/config"
)

var (
	cfgFile string
	dataDir string
	cfg     *config.Config

	// Global JSON output flag, inherited by all subcommands.
	jsonOutput bool

	// Build information, set via ldflags.
	Version = "dev"
	Commit  = "none"
	Date    = "unknown"
)

var rootCmd = &cobra.Command{
	Use:   "homedeck",
	Short: "Terminal dashboard for Home Assistant",
	Long: `homedeck connects to a Home Assistant server over its WebSocket API and
renders your entities as a card dashboard in the terminal.

Quick Start:
  homedeck dash                    # Open the dashboard
  homedeck export layout.zip       # Export layout + theme as a bundle
  homedeck import layout.zip       # Import a bundle (use --dry-run to preview)
  homedeck serve-cameras           # Serve the camera discovery API`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		path := cfgFile
		if path == "" {
			path = config.DefaultPath()
		}
		var err error
		cfg, err = config.Load(path)
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}
		return nil
	},
}

// Execute runs the CLI.
func Execute() error {
	if err := rootCmd.Execute(); err != nil {
		if !jsonOutput {
			fmt.Fprintln(os.Stderr, "Error:", err)
		}
		return err
	}
	return nil
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default ~/.config/homedeck/config.toml)")
	rootCmd.PersistentFlags().StringVar(&dataDir, "data-dir", "", "data directory (default ~/.local/share/homedeck)")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "Output in JSON format (machine-readable)")
}
