package player

import (
	"strings"
	"time"

	"github.com/aurras-cli/aurras/history"
)

// Status enumerates playback states.
type Status int

const (
	Stopped Status = iota
	Playing
	Paused
)

func (s Status) String() string {
	switch s {
	case Playing:
		return "PLAYING"
	case Paused:
		return "PAUSED"
	default:
		return "STOPPED"
	}
}

// LyricsStatus enumerates the lyric lookup lifecycle for the current track.
type LyricsStatus int

const (
	LyricsDisabled LyricsStatus = iota
	LyricsLoading
	LyricsAvailable
	LyricsNotFound
)

func (s LyricsStatus) String() string {
	switch s {
	case LyricsLoading:
		return "LOADING"
	case LyricsAvailable:
		return "AVAILABLE"
	case LyricsNotFound:
		return "NOT_FOUND"
	default:
		return "DISABLED"
	}
}

// FeedbackKind classifies transient user feedback messages.
type FeedbackKind int

const (
	FeedbackInfo FeedbackKind = iota
	FeedbackAction
	FeedbackError
)

// feedbackTimeout is how long a transient feedback message stays visible.
const feedbackTimeout = 1500 * time.Millisecond

// unknownField is the default for metadata fields the engine has not reported.
const unknownField = "Unknown"

// Metadata holds track tags as reported by the engine.
type Metadata struct {
	Title    string
	Artist   string
	Album    string
	Duration float64
}

func newMetadata() Metadata {
	return Metadata{Title: unknownField, Artist: unknownField, Album: unknownField}
}

// Complete reports whether enough tags arrived to identify the track.
func (m Metadata) Complete() bool {
	return m.Title != unknownField && m.Artist != unknownField && m.Duration > 0
}

// knownAlbum returns the album tag, or empty when nothing tagged one. Lyric
// lookups must not narrow an exact match with a placeholder album.
func (m Metadata) knownAlbum() string {
	if m.Album == unknownField {
		return ""
	}
	return m.Album
}

// splitStreamTag splits a combined "artist - title" stream tag once on the
// first separator. Returns ok=false when the tag has no separator.
func splitStreamTag(tag string) (artist, title string, ok bool) {
	parts := strings.SplitN(tag, " - ", 2)
	if len(parts) != 2 {
		return "", "", false
	}
	return strings.TrimSpace(parts[0]), strings.TrimSpace(parts[1]), true
}

// UserFeedback is an ephemeral message shown for a short interval after a
// user action or track event.
type UserFeedback struct {
	Action      string
	Description string
	Kind        FeedbackKind
	CreatedAt   time.Time
}

// Expired reports whether the display loop should omit the feedback.
// Expired feedback is dropped from snapshots rather than deleted eagerly.
func (f *UserFeedback) Expired() bool {
	return time.Since(f.CreatedAt) > feedbackTimeout
}

// HistoryInfo is the lazily loaded listening history for the current track.
type HistoryInfo struct {
	PlayCount  int
	Category   history.Category
	LastPlayed time.Time
	Loaded     bool
}

func newHistoryInfo() HistoryInfo {
	return HistoryInfo{Category: history.CategoryNew}
}

// LyricsState tracks the lyric lookup for the current track.
type LyricsState struct {
	Status      LyricsStatus
	Lines       []string
	NotFoundMsg string
}

func (l *LyricsState) reset(enabled bool) {
	l.Lines = nil
	l.NotFoundMsg = ""
	if enabled {
		l.Status = LyricsLoading
	} else {
		l.Status = LyricsDisabled
	}
}

// queueEntry is one playable item: its engine URL and display name.
type queueEntry struct {
	url  string
	name string
}

// runtimeState is the mutable controller state shared between the engine
// callback goroutine, the keyboard reader, and the display loop. All access
// goes through the controller mutex.
type runtimeState struct {
	status          Status
	showLyrics      bool
	stopRequested   bool
	interrupted     bool
	elapsed         float64
	refreshInterval time.Duration
	metadataReady   bool
	currentIndex    int
	queueStartIndex int
	jumpMode        bool
	jumpDigits      string
}

// Snapshot is the immutable per-tick view handed to the renderer.
type Snapshot struct {
	Status     Status
	Song       string
	Artist     string
	Album      string
	Elapsed    float64
	Duration   float64
	Volume     int
	Theme      string
	Index      int
	QueueLen   int
	StartIndex int
	SongNames  []string
	LyricsOn   bool
	Lyrics     LyricsStatus
	LyricLines []string
	History    HistoryInfo
	Feedback   *UserFeedback
	JumpDigits string
}

// PlaybackInfo is the externally queryable playback state.
type PlaybackInfo struct {
	IsPlaying   bool    `json:"is_playing"`
	Status      string  `json:"status"`
	Song        string  `json:"song"`
	Artist      string  `json:"artist"`
	Album       string  `json:"album"`
	Position    float64 `json:"position"`
	Duration    float64 `json:"duration"`
	Volume      int     `json:"volume"`
	Index       int     `json:"playlist_position"`
	QueueLength int     `json:"playlist_count"`
	Lyrics      string  `json:"lyrics_status"`
}
