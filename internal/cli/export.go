package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/Dicklesworthstone/homedeck/internal/backup"
	"github.com/Dicklesworthstone/homedeck/internal/persist"
)

var exportCmd = &cobra.Command{
	Use:   "export <file>",
	Short: "Export the layout and theme as a bundle",
	Long: `Writes the current dashboard layout and theme settings into a zip
bundle that 'homedeck import' can restore, on this machine or another.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		docs := persist.Open(dataBase())

		layout, err := docs.GetRaw(persist.KeyLayout)
		if err != nil && !errors.Is(err, persist.ErrNotFound) {
			return fmt.Errorf("reading layout: %w", err)
		}
		theme, err := docs.GetRaw(persist.KeyTheme)
		if err != nil && !errors.Is(err, persist.ErrNotFound) {
			return fmt.Errorf("reading theme: %w", err)
		}
		if layout == nil {
			return errors.New("no layout to export; open the dashboard first")
		}

		f, err := os.Create(args[0])
		if err != nil {
			return err
		}
		defer f.Close()

		if err := backup.Export(f, backup.Documents{Layout: layout, Theme: theme}); err != nil {
			return fmt.Errorf("writing bundle: %w", err)
		}

		if jsonOutput {
			return json.NewEncoder(os.Stdout).Encode(map[string]any{
				"file":  args[0],
				"theme": theme != nil,
			})
		}
		fmt.Printf("Exported layout to %s\n", args[0])
		return nil
	},
}

func init() {
	rootCmd.AddCommand(exportCmd)
}
