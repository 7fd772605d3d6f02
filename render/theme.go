package render

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Theme colors
type Theme struct {
	Name       string
	Foreground lipgloss.Color
	TabBar     lipgloss.Color
	TabActive  lipgloss.Color
	Muted      lipgloss.Color
	Bell       lipgloss.Color
}

// ThemeOption describes an available theme.
type ThemeOption struct {
	Name  string
	Label string
}

// ThemeOptions lists the available themes.
func ThemeOptions() []ThemeOption {
	return []ThemeOption{
		{Name: "raven-blue", Label: "Raven Blue"},
		{Name: "crow-black", Label: "Crow Black"},
		{Name: "magpie-black-white-grey", Label: "Magpie Black/White/Grey"},
		{Name: "catppuccin-mocha", Label: "Catppuccin Mocha"},
	}
}

// KnownTheme reports whether name selects a theme other than the fallback.
func KnownTheme(name string) bool {
	normalized := normalizeTheme(name)
	for _, opt := range ThemeOptions() {
		if opt.Name == normalized {
			return true
		}
	}
	return false
}

// DefaultTheme returns the default color theme
func DefaultTheme() Theme {
	return ThemeByName("raven-blue")
}

// ThemeByName returns a theme for a known theme name. Unknown names get
// the default theme.
func ThemeByName(name string) Theme {
	switch normalizeTheme(name) {
	case "crow-black":
		return Theme{
			Name:       "crow-black",
			Foreground: "#e6e6e6",
			TabBar:     "#000000",
			TabActive:  "#b3b3b3",
			Muted:      "#6b6b6b",
			Bell:       "#f6f6f6",
		}
	case "magpie-black-white-grey":
		return Theme{
			Name:       "magpie-black-white-grey",
			Foreground: "#f5f5f5",
			TabBar:     "#0a0a0a",
			TabActive:  "#d0d0d0",
			Muted:      "#7a7a7a",
			Bell:       "#ffffff",
		}
	case "catppuccin-mocha":
		return Theme{
			Name:       "catppuccin-mocha",
			Foreground: "#cdd6f4",
			TabBar:     "#181825",
			TabActive:  "#89b4fa",
			Muted:      "#6c7086",
			Bell:       "#f5c2e7",
		}
	default:
		return Theme{
			Name:       "raven-blue",
			Foreground: "#e8edf7",
			TabBar:     "#0a0c14",
			TabActive:  "#74b6ff",
			Muted:      "#5c6780",
			Bell:       "#a2e0c7",
		}
	}
}

func normalizeTheme(name string) string {
	name = strings.ToLower(strings.TrimSpace(name))
	switch name {
	case "magpie-black-and-white-grey":
		return "magpie-black-white-grey"
	case "catppuccin", "catpuccin":
		return "catppuccin-mocha"
	}
	return name
}
