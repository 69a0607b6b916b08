package player

import (
	"context"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/muesli/cancelreader"
	. "github.com/smartystreets/goconvey/convey"
	"github.com/spf13/viper"

	"github.com/aurras-cli/aurras/engine"
	"github.com/aurras-cli/aurras/filesystem"
	"github.com/aurras-cli/aurras/key"
	"github.com/aurras-cli/aurras/lyrics"
)

func init() {
	filesystem.SetMemMapFs()

	viper.Set(key.PlaybackMaxVolume, 130)
	viper.Set(key.PlaybackSeekSeconds, 10)
	viper.Set(key.PlaybackWrapJump, false)
	viper.Set(key.AppearanceFeedbackVisible, true)
	viper.Set(key.HistorySaveOnPlay, false)
	viper.Set(key.KeyboardQuit, "q")
	viper.Set(key.KeyboardPause, "space")
	viper.Set(key.KeyboardVolumeUp, "+")
	viper.Set(key.KeyboardVolumeDown, "-")
	viper.Set(key.KeyboardToggleLyrics, "l")
	viper.Set(key.KeyboardSeekForward, "f")
	viper.Set(key.KeyboardSeekBackward, "b")
	viper.Set(key.KeyboardNextTrack, "n")
	viper.Set(key.KeyboardPrevTrack, "p")
	viper.Set(key.KeyboardSwitchTheme, "t")
}

// fakeEngine records commands and lets tests fire property notifications the
// way the real event listener would.
type fakeEngine struct {
	mu           sync.Mutex
	appended     []string
	playedAt     []int
	seeks        []float64
	pauseToggles int
	properties   map[string]interface{}
	callbacks    map[string][]engine.PropertyCallback
	unsubscribed []string
	terminations int
	done         chan struct{}
}

func newFakeEngine() *fakeEngine {
	return &fakeEngine{
		properties: make(map[string]interface{}),
		callbacks:  make(map[string][]engine.PropertyCallback),
		done:       make(chan struct{}),
	}
}

func (e *fakeEngine) Append(url string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.appended = append(e.appended, url)
	return nil
}

func (e *fakeEngine) PlayAt(index int) error {
	e.mu.Lock()
	e.playedAt = append(e.playedAt, index)
	e.mu.Unlock()
	e.fire("playlist-pos", float64(index))
	return nil
}

func (e *fakeEngine) Seek(deltaSeconds float64) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.seeks = append(e.seeks, deltaSeconds)
	return nil
}

func (e *fakeEngine) TogglePause() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.pauseToggles++
	return nil
}

func (e *fakeEngine) GetProperty(name string) (interface{}, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.properties[name], nil
}

func (e *fakeEngine) GetPropertyOr(name string, def interface{}) interface{} {
	e.mu.Lock()
	defer e.mu.Unlock()
	if v, ok := e.properties[name]; ok {
		return v
	}
	return def
}

func (e *fakeEngine) SetProperty(name string, value interface{}) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.properties[name] = value
	return nil
}

func (e *fakeEngine) Subscribe(property string, cb engine.PropertyCallback) (*engine.Subscription, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.callbacks[property] = append(e.callbacks[property], cb)
	return engine.NewSubscription(property, func() error {
		e.mu.Lock()
		defer e.mu.Unlock()
		e.unsubscribed = append(e.unsubscribed, property)
		return nil
	}), nil
}

func (e *fakeEngine) Terminate() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.terminations++
	if e.terminations == 1 {
		close(e.done)
	}
	return nil
}

func (e *fakeEngine) Done() <-chan struct{} {
	return e.done
}

func (e *fakeEngine) fire(property string, value interface{}) {
	e.mu.Lock()
	cbs := append([]engine.PropertyCallback(nil), e.callbacks[property]...)
	e.mu.Unlock()
	for _, cb := range cbs {
		cb(property, value)
	}
}

func (e *fakeEngine) lastPlayedAt() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	if len(e.playedAt) == 0 {
		return -1
	}
	return e.playedAt[len(e.playedAt)-1]
}

// nullRenderer discards snapshots.
type nullRenderer struct {
	mu        sync.Mutex
	snapshots []*Snapshot
	cleared   int
}

func (r *nullRenderer) Render(snapshot *Snapshot) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.snapshots = append(r.snapshots, snapshot)
}

func (r *nullRenderer) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.cleared++
}

// stubFetcher resolves instantly with fixed lines, the way a fetcher serving
// straight from its on-disk cache would.
type stubFetcher struct {
	mu        sync.Mutex
	lines     []string
	err       error
	calls     []string
	durations []float64
}

func (f *stubFetcher) Fetch(_ context.Context, track, _, _ string, duration float64) (*lyrics.Result, error) {
	f.mu.Lock()
	f.calls = append(f.calls, track)
	f.durations = append(f.durations, duration)
	f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	return &lyrics.Result{Lines: f.lines, Source: "test"}, nil
}

func (f *stubFetcher) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

func (f *stubFetcher) lastDuration() float64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.durations) == 0 {
		return -1
	}
	return f.durations[len(f.durations)-1]
}

func newTestController(fetcher LyricsFetcher) (*Controller, *fakeEngine, *nullRenderer) {
	fe := newFakeEngine()
	fr := &nullRenderer{}
	c, err := New(Options{Engine: fe, Renderer: fr, Fetcher: fetcher, Volume: 100})
	So(err, ShouldBeNil)
	return c, fe, fr
}

func (c *Controller) loadQueue(names []string, startIndex int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.queue = c.queue[:0]
	for _, name := range names {
		c.queue = append(c.queue, queueEntry{url: "file:///" + name, name: name})
	}
	c.state.currentIndex = startIndex
	c.state.queueStartIndex = startIndex
	c.state.status = Playing
	c.state.showLyrics = true
	c.lyrics.reset(true)
}

func TestPlayPreconditions(t *testing.T) {
	Convey("Play preconditions", t, func() {
		Convey("Should reject mismatched queue and name lengths", func() {
			c, fe, _ := newTestController(nil)
			So(c.Play([]string{"a", "b"}, []string{"A"}, false, 0), ShouldEqual, ResultError)

			Convey("And still tear down", func() {
				So(fe.terminations, ShouldEqual, 1)
				So(len(fe.unsubscribed), ShouldEqual, 4)
				So(c.pool.closed, ShouldBeTrue)
			})
		})

		Convey("Should reject an out-of-range start index", func() {
			c, _, _ := newTestController(nil)
			So(c.Play([]string{"a"}, []string{"A"}, false, 3), ShouldEqual, ResultError)
		})

		Convey("Should reject an empty queue", func() {
			c, _, _ := newTestController(nil)
			So(c.Play(nil, nil, false, 0), ShouldEqual, ResultError)
		})
	})
}

func TestPlayLifecycle(t *testing.T) {
	Convey("Play lifecycle", t, func() {
		Convey("Should queue everything, start at the index, and tear down cleanly", func() {
			c, fe, _ := newTestController(nil)

			results := make(chan int, 1)
			go func() {
				results <- c.Play(
					[]string{"urlA", "urlB"},
					[]string{"SongA", "SongB"},
					false,
					1,
				)
			}()

			// Give the loop a couple of ticks, then stop it.
			time.Sleep(600 * time.Millisecond)
			c.requestStop(false)

			select {
			case code := <-results:
				So(code, ShouldEqual, ResultOK)
			case <-time.After(3 * time.Second):
				t.Fatal("Play did not return")
			}

			So(fe.appended, ShouldResemble, []string{"urlA", "urlB"})
			So(fe.playedAt[0], ShouldEqual, 1)
			So(fe.terminations, ShouldEqual, 1)
			So(len(fe.unsubscribed), ShouldEqual, 4)

			Convey("And playlist-position events move the current track", func() {
				// The fake fired playlist-pos(1) during PlayAt.
				So(c.PlaybackInfo().Index, ShouldEqual, 1)
			})
		})

		Convey("Should replace blank URLs with placeholders", func() {
			c, fe, _ := newTestController(nil)

			go c.Play([]string{"", "urlB"}, []string{"Ghost", "SongB"}, false, 1)
			time.Sleep(400 * time.Millisecond)
			c.requestStop(false)
			time.Sleep(400 * time.Millisecond)

			So(fe.appended[0], ShouldEqual, "null://")
		})

		Convey("Should report interruption as result 1", func() {
			c, _, _ := newTestController(nil)

			results := make(chan int, 1)
			go func() {
				results <- c.Play([]string{"urlA"}, []string{"SongA"}, false, 0)
			}()

			time.Sleep(300 * time.Millisecond)
			c.requestStop(true)

			select {
			case code := <-results:
				So(code, ShouldEqual, ResultInterrupted)
			case <-time.After(3 * time.Second):
				t.Fatal("Play did not return")
			}
		})
	})
}

func TestMetadataReadiness(t *testing.T) {
	Convey("Metadata readiness", t, func() {
		fetcher := &stubFetcher{lines: []string{"la la la"}}
		c, fe, _ := newTestController(fetcher)
		c.loadQueue([]string{"Song"}, 0)

		lastTrack, lastMeta, settled := -1, Metadata{}, 0
		runTick := func() {
			So(c.tick(&lastTrack, &lastMeta, &settled), ShouldBeNil)
		}

		isReady := func() bool {
			c.mu.Lock()
			defer c.mu.Unlock()
			return c.state.metadataReady
		}

		Convey("Should not be ready on partial metadata, in any order", func() {
			fe.fire("duration", 194.0)
			runTick()
			runTick()
			runTick()
			So(isReady(), ShouldBeFalse)

			fe.fire("metadata", map[string]interface{}{"title": "Creep"})
			runTick()
			runTick()
			runTick()
			So(isReady(), ShouldBeFalse)

			Convey("And become ready only after all fields settle", func() {
				fe.fire("metadata", map[string]interface{}{"artist": "Radiohead"})
				runTick()
				So(isReady(), ShouldBeFalse) // first observation of complete metadata
				runTick()
				So(isReady(), ShouldBeFalse) // one stable tick
				runTick()
				So(isReady(), ShouldBeTrue) // two stable ticks

				Convey("And trigger exactly one lyric prefetch", func() {
					time.Sleep(100 * time.Millisecond)
					So(fetcher.callCount(), ShouldEqual, 1)
				})
			})
		})

		Convey("Should split a combined stream tag on the first separator", func() {
			fe.fire("metadata", map[string]interface{}{"icy-title": "Daft Punk - Around the World - Live"})

			c.mu.Lock()
			So(c.metadata.Artist, ShouldEqual, "Daft Punk")
			So(c.metadata.Title, ShouldEqual, "Around the World - Live")
			c.mu.Unlock()
		})
	})
}

func TestLyricResolution(t *testing.T) {
	Convey("Lyric resolution", t, func() {
		Convey("Should surface instantly resolved lyrics through the display loop", func() {
			// A fetcher answering from its on-disk cache completes before the
			// next tick. The result still has to land in the lyric panel.
			fetcher := &stubFetcher{lines: []string{"cached line"}}
			c, fe, _ := newTestController(fetcher)
			defer c.Terminate()
			c.loadQueue([]string{"Song"}, 0)

			fe.fire("metadata", map[string]interface{}{"title": "Creep", "artist": "Radiohead"})
			fe.fire("duration", 194.0)

			lastTrack, lastMeta, settled := -1, Metadata{}, 0
			for i := 0; i < 4; i++ {
				So(c.tick(&lastTrack, &lastMeta, &settled), ShouldBeNil)
			}

			So(waitFor(func() bool {
				lines, status := c.lyricContent()
				return status == LyricsAvailable &&
					len(lines) == 1 && lines[0] == "cached line"
			}), ShouldBeTrue)

			Convey("And hand the track duration to the fetcher", func() {
				So(fetcher.lastDuration(), ShouldEqual, 194.0)
			})
		})
	})
}

func TestTrackChangeResets(t *testing.T) {
	Convey("Track change", t, func() {
		c, fe, _ := newTestController(&stubFetcher{})
		c.loadQueue([]string{"SongA", "SongB"}, 1)

		// Settle metadata for the current track.
		fe.fire("metadata", map[string]interface{}{"title": "B Side", "artist": "Someone"})
		fe.fire("duration", 100.0)
		c.mu.Lock()
		c.state.metadataReady = true
		c.lyrics.Status = LyricsAvailable
		c.lyrics.Lines = []string{"cached"}
		c.historyInfo.Loaded = true
		c.mu.Unlock()

		Convey("Should reset metadata, lyrics and history", func() {
			fe.fire("playlist-pos", float64(0))

			c.mu.Lock()
			defer c.mu.Unlock()
			So(c.state.currentIndex, ShouldEqual, 0)
			So(c.state.metadataReady, ShouldBeFalse)
			So(c.metadata.Title, ShouldEqual, unknownField)
			So(c.lyrics.Status, ShouldEqual, LyricsLoading)
			So(c.lyrics.Lines, ShouldBeNil)
			So(c.historyInfo.Loaded, ShouldBeFalse)
			So(c.feedback.Description, ShouldEqual, "Now playing SongA")
		})

		Convey("Should be idempotent under rapid re-fire", func() {
			fe.fire("playlist-pos", float64(0))
			So(func() { fe.fire("playlist-pos", float64(0)) }, ShouldNotPanic)

			c.mu.Lock()
			defer c.mu.Unlock()
			So(c.state.currentIndex, ShouldEqual, 0)
			So(c.state.metadataReady, ShouldBeFalse)
		})

		Convey("Should ignore out-of-range positions", func() {
			fe.fire("playlist-pos", float64(7))

			c.mu.Lock()
			defer c.mu.Unlock()
			So(c.state.currentIndex, ShouldEqual, 1)
		})
	})
}

func TestJumpMode(t *testing.T) {
	Convey("Jump mode", t, func() {
		viper.Set(key.PlaybackWrapJump, false)
		c, fe, _ := newTestController(nil)

		names := make([]string, 20)
		for i := range names {
			names[i] = "Song"
		}
		c.loadQueue(names, 5)

		Convey("Should jump by the accumulated digits", func() {
			c.handleKey("1")
			c.handleKey("2")
			c.handleKey("n")
			So(fe.lastPlayedAt(), ShouldEqual, 17)
		})

		Convey("Should clamp the target to the queue", func() {
			c.handleKey("9")
			c.handleKey("9")
			c.handleKey("n")
			So(fe.lastPlayedAt(), ShouldEqual, 19)
		})

		Convey("Should move one track without digits", func() {
			c.handleKey("n")
			So(fe.lastPlayedAt(), ShouldEqual, 6)

			c.handleKey("p")
			So(fe.lastPlayedAt(), ShouldEqual, 5)
		})

		Convey("Should jump backwards with digits", func() {
			c.handleKey("3")
			c.handleKey("p")
			So(fe.lastPlayedAt(), ShouldEqual, 2)
		})

		Convey("Should wrap when wrap_jump is enabled", func() {
			viper.Set(key.PlaybackWrapJump, true)
			defer viper.Set(key.PlaybackWrapJump, false)

			c.mu.Lock()
			c.state.currentIndex = 18
			c.mu.Unlock()

			c.handleKey("5")
			c.handleKey("n")
			So(fe.lastPlayedAt(), ShouldEqual, 3)
		})

		Convey("Should cancel jump mode on escape", func() {
			c.handleKey("4")
			c.handleKey(decodeKey([]byte{0x1b}))
			c.handleKey("n")
			So(fe.lastPlayedAt(), ShouldEqual, 6)
		})
	})
}

func TestVolume(t *testing.T) {
	Convey("Volume", t, func() {
		c, fe, _ := newTestController(nil)
		c.loadQueue([]string{"Song"}, 0)

		Convey("Should clamp at the maximum after repeated raises", func() {
			for i := 0; i < 7; i++ {
				c.handleKey("+")
			}
			So(c.currentVolume(), ShouldEqual, 130)
			So(fe.properties["volume"], ShouldEqual, 130)
		})

		Convey("Should clamp at zero", func() {
			c.SetVolume(-20)
			So(c.currentVolume(), ShouldEqual, 0)
		})
	})
}

func TestKeyboardActions(t *testing.T) {
	Convey("Keyboard actions", t, func() {
		c, fe, _ := newTestController(&stubFetcher{})
		c.loadQueue([]string{"Song"}, 0)

		Convey("Pause key should toggle the engine", func() {
			c.handleKey("space")
			So(fe.pauseToggles, ShouldEqual, 1)
		})

		Convey("Seek keys should move relative", func() {
			c.handleKey("f")
			c.handleKey("b")
			So(fe.seeks, ShouldResemble, []float64{10, -10})
		})

		Convey("Arrow keys should seek too", func() {
			c.handleKey(decodeKey([]byte{0x1b, '[', 'C'}))
			So(fe.seeks, ShouldResemble, []float64{10})
		})

		Convey("Lyrics toggle should flip the state", func() {
			c.handleKey("l")
			c.mu.Lock()
			So(c.state.showLyrics, ShouldBeFalse)
			So(c.lyrics.Status, ShouldEqual, LyricsDisabled)
			c.mu.Unlock()

			c.handleKey("l")
			c.mu.Lock()
			So(c.state.showLyrics, ShouldBeTrue)
			So(c.lyrics.Status, ShouldEqual, LyricsLoading)
			c.mu.Unlock()
		})

		Convey("Theme key should clear the renderer for a redraw", func() {
			renderer := c.renderer.(*nullRenderer)
			c.handleKey("t")
			So(renderer.cleared, ShouldEqual, 1)
		})

		Convey("Quit key should request a stop", func() {
			c.handleKey("q")
			c.mu.Lock()
			So(c.state.stopRequested, ShouldBeTrue)
			So(c.state.interrupted, ShouldBeFalse)
			c.mu.Unlock()
		})
	})
}

func TestKeyboardReader(t *testing.T) {
	Convey("Keyboard reader", t, func() {
		c, fe, _ := newTestController(nil)
		c.loadQueue([]string{"Song"}, 0)

		r, w, err := os.Pipe()
		So(err, ShouldBeNil)
		defer r.Close()
		defer w.Close()

		reader, err := cancelreader.NewReader(r)
		So(err, ShouldBeNil)

		done := make(chan struct{})
		go func() {
			c.readKeys(reader)
			close(done)
		}()

		Convey("Should dispatch keypresses from the stream", func() {
			_, err := w.Write([]byte(" "))
			So(err, ShouldBeNil)

			So(waitFor(func() bool {
				fe.mu.Lock()
				defer fe.mu.Unlock()
				return fe.pauseToggles == 1
			}), ShouldBeTrue)

			Convey("And exit when cancelled rather than waiting on another read", func() {
				So(reader.Cancel(), ShouldBeTrue)

				select {
				case <-done:
				case <-time.After(2 * time.Second):
					t.Fatal("reader goroutine did not exit after cancel")
				}
			})
		})
	})
}

func TestTeardownIdempotence(t *testing.T) {
	Convey("Teardown", t, func() {
		c, fe, _ := newTestController(nil)

		Convey("Should be safe to run twice", func() {
			c.Terminate()
			So(func() { c.Terminate() }, ShouldNotPanic)

			So(fe.terminations, ShouldEqual, 1)
			So(len(fe.unsubscribed), ShouldEqual, 4)
			So(c.pool.closed, ShouldBeTrue)
		})
	})
}

func TestPlaybackInfo(t *testing.T) {
	Convey("PlaybackInfo", t, func() {
		Convey("Should return a safe zero snapshot before playback", func() {
			c, _, _ := newTestController(nil)
			info := c.PlaybackInfo()

			So(info.IsPlaying, ShouldBeFalse)
			So(info.Status, ShouldEqual, "STOPPED")
			So(info.Position, ShouldEqual, 0)
			So(info.QueueLength, ShouldEqual, 0)
		})

		Convey("Should reflect the current state during playback", func() {
			c, fe, _ := newTestController(nil)
			c.loadQueue([]string{"SongA", "SongB"}, 0)
			fe.properties["time-pos"] = 42.5

			info := c.PlaybackInfo()
			So(info.IsPlaying, ShouldBeTrue)
			So(info.Position, ShouldEqual, 42.5)
			So(info.QueueLength, ShouldEqual, 2)
		})
	})
}

func TestDecodeKey(t *testing.T) {
	Convey("decodeKey", t, func() {
		So(decodeKey([]byte("q")), ShouldEqual, "q")
		So(decodeKey([]byte(" ")), ShouldEqual, keySpace)
		So(decodeKey([]byte{0x1b}), ShouldEqual, keyEscape)
		So(decodeKey([]byte{0x1b, '[', 'C'}), ShouldEqual, keyRight)
		So(decodeKey([]byte{0x1b, '[', 'D'}), ShouldEqual, keyLeft)
		So(decodeKey([]byte{0x03}), ShouldEqual, keyInterrupt)
		So(decodeKey([]byte{0x1b, '[', 'A'}), ShouldEqual, "")
		So(decodeKey(nil), ShouldEqual, "")
	})
}
