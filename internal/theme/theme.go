// Package theme provides the dashboard color palette and the persisted
// theme settings document.
package theme

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
	"gopkg.in/yaml.v3"
)

// Settings is the user-editable theme document, stored as YAML.
type Settings struct {
	Name      string `yaml:"name"`
	Accent    string `yaml:"accent,omitempty"`
	ShowIcons bool   `yaml:"show_icons"`
}

// DefaultSettings returns the settings used when none are persisted.
func DefaultSettings() Settings {
	return Settings{Name: "default", ShowIcons: true}
}

// ParseSettings decodes a YAML settings document, rejecting malformed
// input without partial application.
func ParseSettings(data []byte) (Settings, error) {
	s := DefaultSettings()
	if err := yaml.Unmarshal(data, &s); err != nil {
		return DefaultSettings(), fmt.Errorf("theme: parsing settings: %w", err)
	}
	return s, nil
}

// EncodeSettings serializes settings to YAML.
func EncodeSettings(s Settings) ([]byte, error) {
	data, err := yaml.Marshal(s)
	if err != nil {
		return nil, fmt.Errorf("theme: encoding settings: %w", err)
	}
	return data, nil
}

// Palette is the set of colors the dashboard renders with.
type Palette struct {
	Bg        lipgloss.Color
	CardBg    lipgloss.Color
	Border    lipgloss.Color
	Selected  lipgloss.Color
	Collision lipgloss.Color
	Text      lipgloss.Color
	Muted     lipgloss.Color
	Accent    lipgloss.Color
	Problem   lipgloss.Color
	On        lipgloss.Color
	Off       lipgloss.Color
}

// Default is the standard dark palette.
var Default = Palette{
	Bg:        lipgloss.Color("#1e1e2e"),
	CardBg:    lipgloss.Color("#313244"),
	Border:    lipgloss.Color("#45475a"),
	Selected:  lipgloss.Color("#89b4fa"),
	Collision: lipgloss.Color("#f38ba8"),
	Text:      lipgloss.Color("#cdd6f4"),
	Muted:     lipgloss.Color("#6c7086"),
	Accent:    lipgloss.Color("#cba6f7"),
	Problem:   lipgloss.Color("#f9e2af"),
	On:        lipgloss.Color("#a6e3a1"),
	Off:       lipgloss.Color("#585b70"),
}

// ForSettings resolves a palette from settings, applying the accent
// override when present.
func ForSettings(s Settings) Palette {
	p := Default
	if s.Accent != "" {
		p.Accent = lipgloss.Color(s.Accent)
	}
	return p
}

// ColorProfile reports the terminal's color capability.
func ColorProfile() termenv.Profile {
	return termenv.ColorProfile()
}
