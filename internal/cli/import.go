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

var importDryRun bool

var importCmd = &cobra.Command{
	Use:   "import <file>",
	Short: "Import a layout bundle",
	Long: `Restores the dashboard layout (and theme, when the bundle carries one)
from a zip bundle written by 'homedeck export'. The bundle is validated in
full before anything is written; a bad bundle changes nothing.

Use --dry-run to preview how the incoming layout differs from the current
one without applying it.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		f, err := os.Open(args[0])
		if err != nil {
			return err
		}
		defer f.Close()
		info, err := f.Stat()
		if err != nil {
			return err
		}

		bundle, err := backup.Import(f, info.Size())
		if err != nil {
			return fmt.Errorf("reading bundle: %w", err)
		}

		docs := persist.Open(dataBase())
		current, err := docs.GetRaw(persist.KeyLayout)
		if err != nil && !errors.Is(err, persist.ErrNotFound) {
			return fmt.Errorf("reading current layout: %w", err)
		}

		diff := backup.PreviewDiff(current, bundle.Layout)
		if importDryRun {
			if jsonOutput {
				return json.NewEncoder(os.Stdout).Encode(diff)
			}
			fmt.Printf("Similarity: %.0f%%\n", diff.Similarity*100)
			if diff.UnifiedDiff == "" {
				fmt.Println("Layouts are identical.")
			} else {
				fmt.Print(diff.UnifiedDiff)
			}
			return nil
		}

		if err := docs.SetRaw(persist.KeyLayout, bundle.Layout); err != nil {
			return fmt.Errorf("writing layout: %w", err)
		}
		if bundle.Theme != nil {
			if err := docs.SetRaw(persist.KeyTheme, bundle.Theme); err != nil {
				return fmt.Errorf("writing theme: %w", err)
			}
		}

		if jsonOutput {
			return json.NewEncoder(os.Stdout).Encode(map[string]any{
				"imported":   true,
				"similarity": diff.Similarity,
			})
		}
		fmt.Printf("Imported layout from %s\n", args[0])
		return nil
	},
}

func init() {
	importCmd.Flags().BoolVar(&importDryRun, "dry-run", false, "Preview the layout diff without applying")
	rootCmd.AddCommand(importCmd)
}
