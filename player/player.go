// Package player implements the playback runtime controller. It owns the
// player state, reacts to asynchronous property notifications from the media
// engine, coordinates background lyric prefetching, and drives the periodic
// display refresh, guaranteeing resource teardown on every exit path.
package player

import (
	"context"
	"strings"

	"github.com/aurras-cli/aurras/engine"
	"github.com/aurras-cli/aurras/key"
	"github.com/aurras-cli/aurras/lyrics"
	"github.com/spf13/viper"
)

// Engine is the contract the controller requires from the playback backend.
// *engine.MPV satisfies it; tests substitute a fake.
type Engine interface {
	Append(url string) error
	PlayAt(index int) error
	Seek(deltaSeconds float64) error
	TogglePause() error
	GetProperty(name string) (interface{}, error)
	GetPropertyOr(name string, def interface{}) interface{}
	SetProperty(name string, value interface{}) error
	Subscribe(property string, cb engine.PropertyCallback) (*engine.Subscription, error)
	Terminate() error
	Done() <-chan struct{}
}

// LyricsFetcher resolves lyrics for a song. *lyrics.Fetcher satisfies it.
type LyricsFetcher interface {
	Fetch(ctx context.Context, track, artist, album string, duration float64) (*lyrics.Result, error)
}

// Renderer consumes display snapshots. It must never block; the display loop
// calls it once per tick.
type Renderer interface {
	Render(snapshot *Snapshot)
	Clear()
}

// Probe builds a one-shot PlaybackInfo by querying a live engine handle
// directly. Used to inspect a playback session owned by another process.
func Probe(e Engine) PlaybackInfo {
	queueLength := int(asFloat(e.GetPropertyOr("playlist-count", 0.0)))

	status := Playing
	if paused, ok := e.GetPropertyOr("pause", false).(bool); ok && paused {
		status = Paused
	}
	if queueLength == 0 {
		status = Stopped
	}

	meta := newMetadata()
	if tags, ok := e.GetPropertyOr("metadata", map[string]interface{}{}).(map[string]interface{}); ok {
		for k, v := range tags {
			s, ok := v.(string)
			if !ok || s == "" {
				continue
			}
			switch strings.ToLower(k) {
			case "title":
				meta.Title = s
			case "artist":
				meta.Artist = s
			case "album":
				meta.Album = s
			case "icy-title":
				if meta.Artist == unknownField {
					if artist, title, ok := splitStreamTag(s); ok {
						meta.Artist = artist
						meta.Title = title
					} else if meta.Title == unknownField {
						meta.Title = s
					}
				}
			}
		}
	}

	lyricsStatus := LyricsDisabled
	if viper.GetBool(key.LyricsEnable) {
		lyricsStatus = LyricsLoading
	}

	return PlaybackInfo{
		IsPlaying:   status == Playing,
		Status:      status.String(),
		Song:        meta.Title,
		Artist:      meta.Artist,
		Album:       meta.Album,
		Position:    asFloat(e.GetPropertyOr("time-pos", 0.0)),
		Duration:    asFloat(e.GetPropertyOr("duration", 0.0)),
		Volume:      int(asFloat(e.GetPropertyOr("volume", 0.0))),
		Index:       int(asFloat(e.GetPropertyOr("playlist-pos", 0.0))),
		QueueLength: queueLength,
		Lyrics:      lyricsStatus.String(),
	}
}

// noopFetcher stands in when lyric lookups are disabled.
type noopFetcher struct{}

func (noopFetcher) Fetch(context.Context, string, string, string, float64) (*lyrics.Result, error) {
	return nil, lyrics.ErrNotFound
}
