package player

import (
	"errors"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"time"

	"github.com/spf13/viper"

	"github.com/aurras-cli/aurras/engine"
	"github.com/aurras-cli/aurras/history"
	"github.com/aurras-cli/aurras/key"
	"github.com/aurras-cli/aurras/log"
	"github.com/aurras-cli/aurras/style"
	"github.com/aurras-cli/aurras/util"
)

// Result codes returned by Play.
const (
	ResultOK          = 0
	ResultInterrupted = 1
	ResultError       = 2
)

const (
	refreshNormal = 250 * time.Millisecond
	refreshPaused = time.Second
	errorBackoff  = time.Second

	// maxQueueEntries bounds the playback queue.
	maxQueueEntries = 200

	// metadataSettleTicks is how many consecutive display ticks the metadata
	// must be observed complete and unchanged before it counts as ready.
	// Protects against partially populated tag updates arriving mid-transition.
	metadataSettleTicks = 2
)

// Options configures a Controller.
type Options struct {
	// Engine is the playback backend. Required.
	Engine Engine
	// Renderer consumes display snapshots. Required.
	Renderer Renderer
	// Fetcher resolves lyrics. Nil disables lyric lookups entirely.
	Fetcher LyricsFetcher
	// Volume is the initial volume. Values outside [0, MaxVolume] are clamped.
	Volume int
	// MaxVolume caps the volume. Zero falls back to the configured maximum.
	MaxVolume int
}

// Controller is the playback runtime. One controller drives one Play
// invocation; construct a new one per playback session.
type Controller struct {
	mu sync.Mutex

	engine   Engine
	renderer Renderer
	pool     *fetchPool

	state       runtimeState
	metadata    Metadata
	lyrics      LyricsState
	historyInfo HistoryInfo
	feedback    *UserFeedback

	queue     []queueEntry
	volume    int
	maxVolume int

	subs     []*engine.Subscription
	termOnce sync.Once
}

// New wires a controller: STOPPED status, property observers registered,
// lyric pool constructed.
func New(opts Options) (*Controller, error) {
	if opts.Engine == nil {
		return nil, fmt.Errorf("player: engine is required")
	}
	if opts.Renderer == nil {
		return nil, fmt.Errorf("player: renderer is required")
	}

	fetcher := opts.Fetcher
	if fetcher == nil {
		fetcher = noopFetcher{}
	}

	maxVolume := opts.MaxVolume
	if maxVolume <= 0 {
		maxVolume = viper.GetInt(key.PlaybackMaxVolume)
	}

	c := &Controller{
		engine:    opts.Engine,
		renderer:  opts.Renderer,
		volume:    util.Clamp(opts.Volume, 0, maxVolume),
		maxVolume: maxVolume,
	}
	c.state.status = Stopped
	c.state.refreshInterval = refreshNormal
	c.metadata = newMetadata()
	c.historyInfo = newHistoryInfo()
	c.lyrics.reset(false)
	c.pool = newFetchPool(fetcher)

	if err := c.registerObservers(); err != nil {
		c.pool.shutdown()
		return nil, err
	}

	return c, nil
}

// Play queues the given URLs, starts playback at startIndex, and drives the
// display loop in the calling goroutine until playback ends. Returns
// ResultOK, ResultInterrupted when the user aborted, or ResultError. Teardown
// runs on every exit path.
func (c *Controller) Play(urls, names []string, showLyrics bool, startIndex int) (result int) {
	// Teardown is unconditional: every return path, including precondition
	// failures and panics, leaves the pool shut down and observers released.
	defer c.teardown()

	defer func() {
		if r := recover(); r != nil {
			log.Errorf("playback crashed: %v", r)
			fmt.Fprintf(os.Stderr, "playback error: %v\n", r)
			result = ResultError
		}
	}()

	return c.play(urls, names, showLyrics, startIndex)
}

func (c *Controller) play(urls, names []string, showLyrics bool, startIndex int) int {
	if len(urls) != len(names) {
		log.Errorf("queue/name length mismatch: %d vs %d", len(urls), len(names))
		return ResultError
	}
	if len(urls) == 0 || startIndex < 0 || startIndex >= len(urls) {
		log.Errorf("start index %d out of range for %d songs", startIndex, len(urls))
		return ResultError
	}

	if len(urls) > maxQueueEntries {
		log.Warnf("queue truncated from %d to %d songs", len(urls), maxQueueEntries)
		urls = urls[:maxQueueEntries]
		names = names[:maxQueueEntries]
		if startIndex >= maxQueueEntries {
			startIndex = maxQueueEntries - 1
		}
	}

	entries := make([]queueEntry, len(urls))
	for i := range urls {
		url := urls[i]
		// Blank entries are replaced with a placeholder so playlist indices
		// stay aligned with the display names.
		if url == "" {
			url = history.PlaceholderSource
		}
		entries[i] = queueEntry{url: url, name: names[i]}
	}

	c.mu.Lock()
	c.state.stopRequested = false
	c.state.interrupted = false
	c.state.status = Playing
	c.state.showLyrics = showLyrics
	c.state.refreshInterval = refreshNormal
	c.state.currentIndex = startIndex
	c.state.queueStartIndex = startIndex
	c.queue = entries
	c.metadata = newMetadata()
	c.historyInfo = newHistoryInfo()
	c.lyrics.reset(showLyrics)
	c.mu.Unlock()

	for _, entry := range entries {
		if err := c.engine.Append(entry.url); err != nil {
			if errors.Is(err, engine.ErrShutdown) {
				return ResultOK
			}
			log.Errorf("queueing %q: %v", entry.name, err)
			fmt.Fprintf(os.Stderr, "could not queue %q: %v\n", entry.name, err)
			return ResultError
		}
	}

	if err := c.engine.PlayAt(startIndex); err != nil {
		if errors.Is(err, engine.ErrShutdown) {
			return ResultOK
		}
		log.Errorf("starting playback: %v", err)
		fmt.Fprintf(os.Stderr, "could not start playback: %v\n", err)
		return ResultError
	}

	util.Ignore(func() error { return c.engine.SetProperty("pause", false) })
	util.Ignore(func() error { return c.engine.SetProperty("volume", c.volume) })

	stopKeyboard, err := c.startKeyboard()
	if err != nil {
		log.Warnf("keyboard unavailable: %v", err)
	}
	defer stopKeyboard()

	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, os.Interrupt)
	defer signal.Stop(interrupt)

	c.displayLoop(interrupt)

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state.interrupted {
		return ResultInterrupted
	}
	return ResultOK
}

// displayLoop refreshes the display at the current cadence until playback
// stops. A failing tick is logged and followed by a backoff instead of
// terminating the loop.
func (c *Controller) displayLoop(interrupt <-chan os.Signal) {
	var lastTrack = -1
	var lastMeta Metadata
	settled := 0

	for {
		c.mu.Lock()
		stop := c.state.stopRequested || c.state.status == Stopped
		interval := c.state.refreshInterval
		c.mu.Unlock()

		if stop {
			return
		}

		if err := c.tick(&lastTrack, &lastMeta, &settled); err != nil {
			log.Warnf("display tick: %v", err)
			interval = errorBackoff
		}

		select {
		case <-interrupt:
			c.requestStop(true)
			return
		case <-c.engine.Done():
			c.requestStop(false)
			return
		case <-time.After(interval):
		}
	}
}

// tick performs one display refresh: read playback position, debounce
// metadata readiness, resolve lyric content, lazily load history, render.
func (c *Controller) tick(lastTrack *int, lastMeta *Metadata, settled *int) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("tick panic: %v", r)
		}
	}()

	elapsed := asFloat(c.engine.GetPropertyOr("time-pos", 0.0))

	c.mu.Lock()
	c.state.elapsed = elapsed
	index := c.state.currentIndex
	meta := c.metadata
	ready := c.state.metadataReady
	c.mu.Unlock()

	if index != *lastTrack {
		*lastTrack = index
		*lastMeta = Metadata{}
		*settled = 0
	}

	if !ready {
		if meta.Complete() && meta == *lastMeta {
			*settled++
		} else {
			*settled = 0
		}
		*lastMeta = meta

		if *settled >= metadataSettleTicks {
			c.mu.Lock()
			c.state.metadataReady = true
			showLyrics := c.state.showLyrics
			c.mu.Unlock()

			if showLyrics {
				c.pool.prefetch(meta.Title, meta.Artist, meta.knownAlbum(), meta.Duration)
			}
		}
	}

	lines, lyricStatus := c.lyricContent()
	c.loadHistoryInfo(index)

	c.renderer.Render(c.snapshot(lines, lyricStatus))
	return nil
}

// lyricContent resolves what the lyric panel shows this tick without ever
// blocking on an unfinished fetch. Precedence: disabled, metadata pending,
// completed fetch, in-flight fetch, cached result or fallback.
func (c *Controller) lyricContent() ([]string, LyricsStatus) {
	c.mu.Lock()
	showLyrics := c.state.showLyrics
	ready := c.state.metadataReady
	track := c.metadata.Title
	cached := c.lyrics.Lines
	notFound := c.lyrics.NotFoundMsg
	c.mu.Unlock()

	if !showLyrics {
		return []string{"Lyrics disabled"}, LyricsDisabled
	}
	if !ready && len(cached) == 0 {
		return []string{"Waiting for track info..."}, LyricsLoading
	}

	if future := c.pool.snapshotCurrent(); future != nil {
		if !future.isDone() {
			return []string{"Fetching lyrics..."}, LyricsLoading
		}

		c.pool.clear(future)

		// A stale future for a previous track is dropped unconsumed.
		if future.track == track {
			c.mu.Lock()
			if future.err == nil && len(future.lines) > 0 {
				c.lyrics.Status = LyricsAvailable
				c.lyrics.Lines = future.lines
			} else {
				c.lyrics.Status = LyricsNotFound
				c.lyrics.NotFoundMsg = fmt.Sprintf("No lyrics found for %q", track)
			}
			cached = c.lyrics.Lines
			notFound = c.lyrics.NotFoundMsg
			c.mu.Unlock()
		}
	}

	if len(cached) > 0 {
		return cached, LyricsAvailable
	}
	if notFound != "" {
		return []string{notFound}, LyricsNotFound
	}
	return []string{"Lyrics unavailable"}, LyricsNotFound
}

// loadHistoryInfo records the play and loads listening stats exactly once per
// track. Plays of history-sourced queue entries are not re-recorded, so
// replaying history does not inflate counts.
func (c *Controller) loadHistoryInfo(index int) {
	c.mu.Lock()
	if c.historyInfo.Loaded || index < 0 || index >= len(c.queue) {
		c.mu.Unlock()
		return
	}
	entry := c.queue[index]
	fromHistory := index < c.state.queueStartIndex
	c.mu.Unlock()

	if !fromHistory {
		if err := history.Save(entry.name, entry.url); err != nil {
			log.Warnf("recording play of %q: %v", entry.name, err)
		}
	}

	info := newHistoryInfo()
	info.Loaded = true

	if record, err := history.Lookup(entry.name); err == nil && record != nil {
		info.PlayCount = record.PlayCount
		info.Category = record.Category()
		info.LastPlayed = record.PlayedAt
	}

	c.mu.Lock()
	if c.state.currentIndex == index {
		c.historyInfo = info
	}
	c.mu.Unlock()
}

// snapshot assembles the per-tick view handed to the renderer.
func (c *Controller) snapshot(lyricLines []string, lyricStatus LyricsStatus) *Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()

	names := make([]string, len(c.queue))
	for i, entry := range c.queue {
		names[i] = entry.name
	}

	song := c.metadata.Title
	if song == unknownField && c.state.currentIndex >= 0 && c.state.currentIndex < len(c.queue) {
		song = c.queue[c.state.currentIndex].name
	}

	var feedback *UserFeedback
	if c.feedback != nil && !c.feedback.Expired() && viper.GetBool(key.AppearanceFeedbackVisible) {
		copied := *c.feedback
		feedback = &copied
	}

	jumpDigits := ""
	if c.state.jumpMode {
		jumpDigits = c.state.jumpDigits
	}

	return &Snapshot{
		Status:     c.state.status,
		Song:       song,
		Artist:     c.metadata.Artist,
		Album:      c.metadata.Album,
		Elapsed:    c.state.elapsed,
		Duration:   c.metadata.Duration,
		Volume:     c.volume,
		Theme:      style.Active().Name,
		Index:      c.state.currentIndex,
		QueueLen:   len(c.queue),
		StartIndex: c.state.queueStartIndex,
		SongNames:  names,
		LyricsOn:   c.state.showLyrics,
		Lyrics:     lyricStatus,
		LyricLines: lyricLines,
		History:    c.historyInfo,
		Feedback:   feedback,
		JumpDigits: jumpDigits,
	}
}

// PlaybackInfo returns the externally queryable playback state. Mid-shutdown
// it degrades to a safe zero snapshot instead of failing.
func (c *Controller) PlaybackInfo() PlaybackInfo {
	c.mu.Lock()
	info := PlaybackInfo{
		IsPlaying:   c.state.status == Playing,
		Status:      c.state.status.String(),
		Song:        c.metadata.Title,
		Artist:      c.metadata.Artist,
		Album:       c.metadata.Album,
		Duration:    c.metadata.Duration,
		Volume:      c.volume,
		Index:       c.state.currentIndex,
		QueueLength: len(c.queue),
		Lyrics:      c.lyrics.Status.String(),
	}
	c.mu.Unlock()

	info.Position = asFloat(c.engine.GetPropertyOr("time-pos", 0.0))
	return info
}

// SetVolume clamps and applies the volume.
func (c *Controller) SetVolume(level int) {
	level = util.Clamp(level, 0, c.maxVolume)

	c.mu.Lock()
	c.volume = level
	c.setFeedbackLocked("volume", fmt.Sprintf("Volume %d%%", level), FeedbackAction)
	c.mu.Unlock()

	if err := c.engine.SetProperty("volume", level); err != nil && !errors.Is(err, engine.ErrShutdown) {
		log.Warnf("setting volume: %v", err)
	}
}

// Terminate tears the controller down. Idempotent; Play's own teardown and an
// explicit Terminate may both run without conflict.
func (c *Controller) Terminate() {
	c.teardown()
}

// requestStop asks the display loop to exit at the next check.
func (c *Controller) requestStop(interrupted bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state.stopRequested = true
	if interrupted {
		c.state.interrupted = true
	}
}

// teardown stops the loop, releases the lyric pool without waiting,
// unregisters the observers and terminates the engine. Each step is guarded
// so one failure never prevents the rest.
func (c *Controller) teardown() {
	c.termOnce.Do(func() {
		c.mu.Lock()
		c.state.stopRequested = true
		c.state.status = Stopped
		c.mu.Unlock()

		c.pool.cancelCurrent()
		c.pool.shutdown()
		c.unregisterObservers()

		if err := c.engine.Terminate(); err != nil && !errors.Is(err, engine.ErrShutdown) {
			log.Warnf("terminating engine: %v", err)
		}

		c.renderer.Clear()
	})
}

// setFeedbackLocked replaces the transient feedback. Caller holds the mutex.
func (c *Controller) setFeedbackLocked(action, description string, kind FeedbackKind) {
	c.feedback = &UserFeedback{
		Action:      action,
		Description: description,
		Kind:        kind,
		CreatedAt:   time.Now(),
	}
}

func asFloat(value interface{}) float64 {
	switch v := value.(type) {
	case float64:
		return v
	case float32:
		return float64(v)
	case int:
		return float64(v)
	case int64:
		return float64(v)
	default:
		return 0
	}
}
