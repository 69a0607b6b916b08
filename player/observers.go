package player

import (
	"fmt"
	"strings"

	"github.com/aurras-cli/aurras/engine"
	"github.com/aurras-cli/aurras/log"
)

// observedProperties are the engine properties the controller reacts to.
func (c *Controller) observedProperties() []struct {
	property string
	handler  func(interface{})
} {
	return []struct {
		property string
		handler  func(interface{})
	}{
		{"pause", c.onPauseChanged},
		{"duration", c.onDurationChanged},
		{"metadata", c.onMetadataChanged},
		{"playlist-pos", c.onPlaylistPosChanged},
	}
}

// registerObservers subscribes the property handlers. On partial failure the
// already registered handles are released before returning.
func (c *Controller) registerObservers() error {
	for _, o := range c.observedProperties() {
		sub, err := c.engine.Subscribe(o.property, recovered(o.handler))
		if err != nil {
			c.unregisterObservers()
			return fmt.Errorf("observe %s: %w", o.property, err)
		}
		c.subs = append(c.subs, sub)
	}
	return nil
}

// unregisterObservers releases every subscription handle. Each handle
// unsubscribes exactly once, so repeated teardown is harmless, and one failed
// release never prevents the others.
func (c *Controller) unregisterObservers() {
	for _, sub := range c.subs {
		if err := sub.Unsubscribe(); err != nil {
			log.Warnf("unsubscribe %s: %v", sub.Property(), err)
		}
	}
}

// recovered wraps a property handler so a panic degrades to a logged warning
// instead of killing the engine's event goroutine.
func recovered(handler func(interface{})) engine.PropertyCallback {
	return func(property string, value interface{}) {
		defer func() {
			if r := recover(); r != nil {
				log.Warnf("property handler %s: %v", property, r)
			}
		}()
		handler(value)
	}
}

// onPauseChanged runs on the engine goroutine. Pure state update.
func (c *Controller) onPauseChanged(value interface{}) {
	paused, ok := value.(bool)
	if !ok {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state.status == Stopped {
		return
	}

	if paused {
		c.state.status = Paused
		c.state.refreshInterval = refreshPaused
		c.setFeedbackLocked("pause", "Paused", FeedbackAction)
	} else {
		c.state.status = Playing
		c.state.refreshInterval = refreshNormal
		c.setFeedbackLocked("pause", "Resumed", FeedbackAction)
	}
}

// onDurationChanged stores the track duration once the engine knows it.
func (c *Controller) onDurationChanged(value interface{}) {
	duration, ok := value.(float64)
	if !ok || duration <= 0 {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.metadata.Duration = duration
}

// onMetadataChanged merges the tag fields that differ from current values.
// Tag keys vary in case between containers, and internet radio streams often
// pack "artist - title" into a single icy-title tag.
func (c *Controller) onMetadataChanged(value interface{}) {
	tags, ok := value.(map[string]interface{})
	if !ok {
		return
	}

	normalized := make(map[string]string, len(tags))
	for k, v := range tags {
		if s, ok := v.(string); ok && s != "" {
			normalized[strings.ToLower(k)] = s
		}
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if title := normalized["title"]; title != "" && title != c.metadata.Title {
		c.metadata.Title = title
	}
	if artist := normalized["artist"]; artist != "" && artist != c.metadata.Artist {
		c.metadata.Artist = artist
	}
	if album := normalized["album"]; album != "" && album != c.metadata.Album {
		c.metadata.Album = album
	}

	if icy := normalized["icy-title"]; icy != "" && c.metadata.Artist == unknownField {
		if artist, title, ok := splitStreamTag(icy); ok {
			c.metadata.Artist = artist
			c.metadata.Title = title
		} else if c.metadata.Title == unknownField {
			c.metadata.Title = icy
		}
	}
}

// onPlaylistPosChanged resets per-track state when the engine moves to another
// playlist entry. Idempotent under rapid re-fire: resetting twice in a row is
// safe, as is cancelling an already cancelled lyric lookup.
func (c *Controller) onPlaylistPosChanged(value interface{}) {
	index := -1
	switch v := value.(type) {
	case float64:
		index = int(v)
	case int:
		index = v
	default:
		return
	}

	c.mu.Lock()
	if index < 0 || index >= len(c.queue) {
		c.mu.Unlock()
		return
	}

	c.state.currentIndex = index
	c.resetTrackLocked()
	name := c.queue[index].name
	c.setFeedbackLocked("track", "Now playing "+name, FeedbackInfo)
	c.mu.Unlock()

	c.pool.cancelCurrent()
}

// resetTrackLocked restores the per-track state to its defaults. Caller holds
// the controller mutex.
func (c *Controller) resetTrackLocked() {
	c.metadata = newMetadata()
	c.lyrics.reset(c.state.showLyrics)
	c.historyInfo = newHistoryInfo()
	c.state.metadataReady = false
}
