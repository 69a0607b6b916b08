// Package style provides a functional API for composing and applying lipgloss-based TUI styles.
package style

import (
	"strings"
	"sync"

	"github.com/aurras-cli/aurras/color"
	"github.com/aurras-cli/aurras/key"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/viper"
)

// Theme defines a named color palette applied across the player UI.
type Theme struct {
	Name      string
	Primary   lipgloss.Color
	Secondary lipgloss.Color
	Accent    lipgloss.Color
	Dim       lipgloss.Color
	ErrorFg   lipgloss.Color
}

// themes is the ordered registry of available palettes. The order determines
// the cycling sequence of the theme-switch key.
var themes = []Theme{
	{
		Name:      "galaxy",
		Primary:   color.New("#BD93F9"),
		Secondary: color.New("#8BE9FD"),
		Accent:    color.New("#FF79C6"),
		Dim:       color.New("#6272A4"),
		ErrorFg:   color.New("#FF5555"),
	},
	{
		Name:      "neon",
		Primary:   color.New("#00FFFF"),
		Secondary: color.New("#FF00FF"),
		Accent:    color.New("#39FF14"),
		Dim:       color.New("#555555"),
		ErrorFg:   color.New("#FF3131"),
	},
	{
		Name:      "vintage",
		Primary:   color.New("#CC9966"),
		Secondary: color.New("#FF9966"),
		Accent:    color.New("#99CC66"),
		Dim:       color.New("#776655"),
		ErrorFg:   color.New("#CC6666"),
	},
	{
		Name:      "minimal",
		Primary:   color.New("#FFFFFF"),
		Secondary: color.New("#CCCCCC"),
		Accent:    color.New("#AAFFAA"),
		Dim:       color.New("#888888"),
		ErrorFg:   color.New("#FF8888"),
	},
}

var (
	themeMu sync.RWMutex
	active  = themes[0]
	loaded  bool
)

// AvailableThemes returns the names of all registered palettes in cycling order.
func AvailableThemes() []string {
	names := make([]string, len(themes))
	for i, t := range themes {
		names[i] = t.Name
	}
	return names
}

// Active returns the currently selected theme, resolving the configured
// default on first use.
func Active() Theme {
	themeMu.RLock()
	if loaded {
		defer themeMu.RUnlock()
		return active
	}
	themeMu.RUnlock()

	SetTheme(viper.GetString(key.AppearanceTheme))

	themeMu.RLock()
	defer themeMu.RUnlock()
	return active
}

// SetTheme selects the named palette. Unknown names fall back to the first
// registered theme.
func SetTheme(name string) Theme {
	themeMu.Lock()
	defer themeMu.Unlock()

	loaded = true
	active = themes[0]
	for _, t := range themes {
		if strings.EqualFold(t.Name, name) {
			active = t
			break
		}
	}
	return active
}

// CycleTheme advances to the next registered palette, wrapping around, and
// returns the newly active theme.
func CycleTheme() Theme {
	themeMu.Lock()
	defer themeMu.Unlock()

	loaded = true
	for i, t := range themes {
		if t.Name == active.Name {
			active = themes[(i+1)%len(themes)]
			return active
		}
	}

	active = themes[0]
	return active
}
