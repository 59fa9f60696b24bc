package cli

import (
	_ "embed"
	"fmt"
	"os"

	"github.com/charmbracelet/glamour"
	"github.com/mattn/go-isatty"
	"github.com/muesli/reflow/wordwrap"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

//go:embed guide.md
var guideMarkdown string

var guideCmd = &cobra.Command{
	Use:   "guide",
	Short: "Show the user guide",
	RunE: func(cmd *cobra.Command, args []string) error {
		if !isatty.IsTerminal(os.Stdout.Fd()) {
			// Piped output gets plain wrapped markdown.
			fmt.Println(wordwrap.String(guideMarkdown, 80))
			return nil
		}

		width := 100
		if w, _, err := term.GetSize(int(os.Stdout.Fd())); err == nil && w > 0 && w < width {
			width = w
		}

		r, err := glamour.NewTermRenderer(
			glamour.WithAutoStyle(),
			glamour.WithWordWrap(width),
		)
		if err != nil {
			fmt.Println(wordwrap.String(guideMarkdown, 80))
			return nil
		}
		out, err := r.Render(guideMarkdown)
		if err != nil {
			fmt.Println(wordwrap.String(guideMarkdown, 80))
			return nil
		}
		fmt.Print(out)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(guideCmd)
}
