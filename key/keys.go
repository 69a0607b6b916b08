// Package key defines the canonical set of configuration identifiers used for centralized settings management.
package key

// Playback Engine - these keys govern the media engine and runtime playback behavior.
const (
	PlaybackVolume         = "playback.volume"
	PlaybackMaxVolume      = "playback.max_volume"
	PlaybackSeekSeconds    = "playback.seek_seconds"
	PlaybackWrapJump       = "playback.wrap_jump"
	PlaybackEngineLogLevel = "playback.engine_loglevel"
	PlaybackRemoteMedia    = "playback.remote_media"
)

// Lyrics - these keys configure the background lyric lookup.
const (
	LyricsEnable = "lyrics.enable"
)

// History Tracking - these keys configure the persistence of playback history.
const (
	HistorySaveOnPlay   = "history.save_on_play"
	HistoryMaxQueueSize = "history.max_queue_songs"
)

// Appearance - these keys define the visual presentation of the player UI.
const (
	AppearanceTheme           = "appearance.theme"
	AppearanceFeedbackVisible = "appearance.feedback_visible"
)

// Iconography - these keys manage the visual rendering of UI symbols.
const (
	IconsVariant = "icons.variant"
)

// Keyboard Bindings - these keys map player actions to terminal keys.
const (
	KeyboardQuit         = "keyboard.quit"
	KeyboardPause        = "keyboard.pause"
	KeyboardVolumeUp     = "keyboard.volume_up"
	KeyboardVolumeDown   = "keyboard.volume_down"
	KeyboardSeekForward  = "keyboard.seek_forward"
	KeyboardSeekBackward = "keyboard.seek_backward"
	KeyboardNextTrack    = "keyboard.next_track"
	KeyboardPrevTrack    = "keyboard.previous_track"
	KeyboardToggleLyrics = "keyboard.toggle_lyrics"
	KeyboardSwitchTheme  = "keyboard.switch_theme"
)

// CLI Behavior - these keys control top-level command-line presentation.
const (
	CliColored      = "cli.colored"
	CliVersionCheck = "cli.version_check"
)

// Logging Infrastructure - these keys manage the application's internal diagnostics.
const (
	LogsWrite = "logs.write"
	LogsLevel = "logs.level"
	LogsJson  = "logs.json"
)
