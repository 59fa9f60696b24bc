package tui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/Dicklesworthstone/homedeck/internal/theme"
)

// Styles holds every lipgloss style the dashboard renders with, derived
// from one theme palette.
type Styles struct {
	TabBar      lipgloss.Style
	TabActive   lipgloss.Style
	TabInactive lipgloss.Style
	StatusBar   lipgloss.Style
	StatusError lipgloss.Style
	Help        lipgloss.Style

	Card          lipgloss.Style
	CardSelected  lipgloss.Style
	CardCollision lipgloss.Style
	CardProblem   lipgloss.Style
	CardDraft     lipgloss.Style
	CardOn        lipgloss.Style
	CardOff       lipgloss.Style
}

// NewStyles builds the style set for a palette.
func NewStyles(p theme.Palette) Styles {
	return Styles{
		TabBar:      lipgloss.NewStyle().Foreground(p.Muted),
		TabActive:   lipgloss.NewStyle().Foreground(p.Accent).Bold(true),
		TabInactive: lipgloss.NewStyle().Foreground(p.Muted),
		StatusBar:   lipgloss.NewStyle().Foreground(p.Muted),
		StatusError: lipgloss.NewStyle().Foreground(p.Problem).Bold(true),
		Help:        lipgloss.NewStyle().Foreground(p.Muted),

		Card:          lipgloss.NewStyle().Foreground(p.Text),
		CardSelected:  lipgloss.NewStyle().Foreground(p.Selected).Bold(true),
		CardCollision: lipgloss.NewStyle().Foreground(p.Collision).Bold(true),
		CardProblem:   lipgloss.NewStyle().Foreground(p.Problem),
		CardDraft:     lipgloss.NewStyle().Foreground(p.Accent),
		CardOn:        lipgloss.NewStyle().Foreground(p.On),
		CardOff:       lipgloss.NewStyle().Foreground(p.Off),
	}
}
