// Package config provides centralized management for application settings, defaults, and the Viper-based configuration engine.
package config

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"text/template"

	"github.com/aurras-cli/aurras/color"
	"github.com/aurras-cli/aurras/constant"
	"github.com/aurras-cli/aurras/key"
	"github.com/aurras-cli/aurras/style"
	"github.com/samber/lo"
	"github.com/spf13/viper"
)

// Field represents a configuration field definition.
type Field struct {
	Key         string
	Value       any
	Description string
}

// Pretty returns a colored string representation of the field for display.
func (f *Field) Pretty() string {
	var b strings.Builder
	lo.Must0(prettyTemplate.Execute(&b, f))
	return b.String()
}

// Env returns the environment variable name for this field.
func (f *Field) Env() string {
	env := strings.ToUpper(EnvKeyReplacer.Replace(f.Key))
	prefix := strings.ToUpper(constant.Aurras + "_")
	if strings.HasPrefix(env, prefix) {
		return env
	}
	return prefix + env
}

// MarshalJSON customizes JSON output to include current and default values.
func (f *Field) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Key         string `json:"key"`
		Value       any    `json:"value"`
		Default     any    `json:"default"`
		Description string `json:"description"`
		Type        string `json:"type"`
	}{
		Key:         f.Key,
		Value:       viper.Get(f.Key),
		Default:     f.Value,
		Description: f.Description,
		Type:        f.typeName(),
	})
}

// typeName returns the string representation of the field's underlying value type.
func (f *Field) typeName() string {
	switch f.Value.(type) {
	case string:
		return "string"
	case int:
		return "int"
	case bool:
		return "bool"
	case []string:
		return "[]string"
	default:
		return "unknown"
	}
}

// Default holds the map of all configuration fields.
var Default = make(map[string]Field)

// EnvExposed holds keys that are bound to environment variables.
var EnvExposed []string

func init() {
	// register validates and adds a new configuration field to the global registry.
	register := func(k string, v any, desc string) {
		if _, exists := Default[k]; exists {
			panic("Duplicate config key: " + k)
		}
		f := Field{Key: k, Value: v, Description: desc}
		Default[k] = f
		EnvExposed = append(EnvExposed, k)
	}

	register(key.PlaybackVolume, 100, "Initial playback volume (0 to playback.max_volume)")
	register(key.PlaybackMaxVolume, 130, "Upper bound for the volume keys.\nmpv allows software amplification above 100")
	register(key.PlaybackSeekSeconds, 10, "Seconds to seek forward/backward per keypress")
	register(key.PlaybackWrapJump, false, "Wrap around the queue on jump-mode navigation instead of clamping at the edges")
	register(key.PlaybackEngineLogLevel, "warn", "Message level passed to the playback engine.\nAvailable options are: fatal, error, warn, info, debug")
	register(key.PlaybackRemoteMedia, true, "Resolve remote media (yt-dlp) in the playback engine.\nDisable for strictly local playback")
	register(key.LyricsEnable, true, "Fetch and display lyrics for the current track")
	register(key.HistorySaveOnPlay, true, "Record played songs to the localized history")
	register(key.HistoryMaxQueueSize, 21, "Maximum number of history songs merged in front of a new queue")
	register(key.AppearanceTheme, "galaxy", "Player color theme.\nType \"aurras config get appearance.theme\" for the active one; cycle in-player with the theme key")
	register(key.AppearanceFeedbackVisible, true, "Show transient action feedback (volume, seek, jump) in the player UI")
	register(key.IconsVariant, "plain", "Icons variant.\nAvailable options are: emoji, plain, nerd (nerd-font required)")
	register(key.KeyboardQuit, "q", "Quit playback")
	register(key.KeyboardPause, "space", "Toggle pause")
	register(key.KeyboardVolumeUp, "+", "Raise volume by 5")
	register(key.KeyboardVolumeDown, "-", "Lower volume by 5")
	register(key.KeyboardSeekForward, "f", "Seek forward")
	register(key.KeyboardSeekBackward, "b", "Seek backward")
	register(key.KeyboardNextTrack, "n", "Next track (honors pending jump digits)")
	register(key.KeyboardPrevTrack, "p", "Previous track (honors pending jump digits)")
	register(key.KeyboardToggleLyrics, "l", "Toggle the lyrics panel")
	register(key.KeyboardSwitchTheme, "t", "Cycle to the next theme")
	register(key.CliColored, true, "Enable colored CLI output")
	register(key.CliVersionCheck, true, "Enable automatic version check")
	register(key.LogsWrite, false, "Write logs")
	register(key.LogsLevel, "info", "Available options are: (from less to most verbose)\npanic, fatal, error, warn, info, debug, trace")
	register(key.LogsJson, false, "Use json format for logs")
}

var prettyTemplate = lo.Must(template.New("pretty").Funcs(template.FuncMap{
	"faint":  style.Faint,
	"bold":   style.Bold,
	"purple": style.Fg(color.Purple),
	"blue":   style.Fg(color.Blue),
	"value":  func(k string) any { return viper.Get(k) },
	"hl": func(v any) string {
		switch value := v.(type) {
		case bool:
			b := strconv.FormatBool(value)
			if value {
				return style.Fg(color.Green)(b)
			}
			return style.Fg(color.Red)(b)
		case string:
			return style.Fg(color.Yellow)(value)
		default:
			return fmt.Sprint(value)
		}
	},
}).Parse(`{{ faint .Description }}
{{ blue "Key:" }}     {{ purple .Key }}
{{ blue "Env:" }}     {{ .Env }}
{{ blue "Value:" }}   {{ hl (value .Key) }}
{{ blue "Default:" }} {{ hl (.Value) }}`))
