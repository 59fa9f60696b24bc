package cli

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/Dicklesworthstone/homedeck/internal/app"
	"github.com/Dicklesworthstone/homedeck/internal/config"
	"github.com/Dicklesworthstone/homedeck/internal/persist"
	"github.com/Dicklesworthstone/homedeck/internal/theme"
	"github.com/Dicklesworthstone/homedeck/internal/tui"
)

var dashCmd = &cobra.Command{
	Use:   "dash",
	Short: "Open the entity dashboard",
	Long: `Connects to the configured Home Assistant server and opens the card
dashboard. The layout is editable in place: press 'e' to enter edit mode,
drag cards with the mouse, and press enter to save.

The dashboard opens even when the server is unreachable; the connection
keeps retrying in the background.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		docs := persist.Open(dataBase())
		a := app.New(cfg, docs)
		defer a.Close()

		ctx, cancel := context.WithTimeout(cmd.Context(), 15*time.Second)
		defer cancel()
		if err := a.Connect(ctx); err != nil {
			// The client keeps retrying in the background; only tell
			// the user and carry on with an empty dashboard.
			fmt.Fprintf(os.Stderr, "warning: %v\n", err)
		}

		return tui.Run(a, loadPalette(docs), configPath())
	},
}

func dataBase() string {
	if dataDir != "" {
		return dataDir
	}
	return persist.DefaultBasePath()
}

func configPath() string {
	if cfgFile != "" {
		return cfgFile
	}
	return config.DefaultPath()
}

// loadPalette resolves the palette from persisted theme settings, falling
// back to the default palette.
func loadPalette(docs *persist.Store) theme.Palette {
	raw, err := docs.GetRaw(persist.KeyTheme)
	if err != nil {
		return theme.Default
	}
	settings, err := theme.ParseSettings(raw)
	if err != nil {
		return theme.Default
	}
	return theme.ForSettings(settings)
}

func init() {
	rootCmd.AddCommand(dashCmd)
}
