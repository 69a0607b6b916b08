package player

import (
	"context"
	"sync"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/aurras-cli/aurras/lyrics"
)

// blockingFetcher blocks every fetch until its context is cancelled, so tests
// can observe in-flight lookups.
type blockingFetcher struct {
	mu        sync.Mutex
	started   []string
	cancelled []string
	begun     chan string
}

func newBlockingFetcher() *blockingFetcher {
	return &blockingFetcher{begun: make(chan string, 8)}
}

func (f *blockingFetcher) Fetch(ctx context.Context, track, _, _ string, _ float64) (*lyrics.Result, error) {
	f.mu.Lock()
	f.started = append(f.started, track)
	f.mu.Unlock()
	f.begun <- track

	<-ctx.Done()

	f.mu.Lock()
	f.cancelled = append(f.cancelled, track)
	f.mu.Unlock()
	return nil, ctx.Err()
}

func (f *blockingFetcher) cancelledTracks() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.cancelled...)
}

func awaitStart(t *testing.T, f *blockingFetcher, track string) {
	t.Helper()
	select {
	case started := <-f.begun:
		So(started, ShouldEqual, track)
	case <-time.After(2 * time.Second):
		t.Fatalf("fetch for %q never started", track)
	}
}

func TestFetchPool(t *testing.T) {
	Convey("fetchPool", t, func() {
		Convey("Should keep at most one lookup outstanding", func() {
			fetcher := newBlockingFetcher()
			pool := newFetchPool(fetcher)
			defer pool.shutdown()

			pool.prefetch("TrackA", "Artist", "", 0)
			awaitStart(t, fetcher, "TrackA")

			pool.prefetch("TrackB", "Artist", "", 0)
			awaitStart(t, fetcher, "TrackB")

			// Scheduling B must have cancelled A.
			So(waitFor(func() bool {
				tracks := fetcher.cancelledTracks()
				return len(tracks) == 1 && tracks[0] == "TrackA"
			}), ShouldBeTrue)
		})

		Convey("Should not resubmit the track already in flight", func() {
			fetcher := newBlockingFetcher()
			pool := newFetchPool(fetcher)
			defer pool.shutdown()

			pool.prefetch("Track", "Artist", "", 0)
			awaitStart(t, fetcher, "Track")
			pool.prefetch("Track", "Artist", "", 0)

			So(len(fetcher.cancelledTracks()), ShouldEqual, 0)
		})

		Convey("Should submit a lookup even when the fetcher resolves instantly", func() {
			fetcher := &stubFetcher{lines: []string{"line"}}
			pool := newFetchPool(fetcher)
			defer pool.shutdown()

			pool.prefetch("Track", "Artist", "", 0)
			future := pool.snapshotCurrent()
			So(future, ShouldNotBeNil)
			So(waitFor(future.isDone), ShouldBeTrue)
			So(future.lines, ShouldResemble, []string{"line"})
		})

		Convey("Should cancel without waiting on shutdown", func() {
			fetcher := newBlockingFetcher()
			pool := newFetchPool(fetcher)

			pool.prefetch("Track", "Artist", "", 0)
			awaitStart(t, fetcher, "Track")

			start := time.Now()
			pool.shutdown()
			So(time.Since(start), ShouldBeLessThan, 500*time.Millisecond)

			So(waitFor(func() bool {
				return len(fetcher.cancelledTracks()) == 1
			}), ShouldBeTrue)

			Convey("And further prefetches become no-ops", func() {
				So(func() { pool.prefetch("Another", "Artist", "", 0) }, ShouldNotPanic)
				So(func() { pool.shutdown() }, ShouldNotPanic)
			})
		})

		Convey("Should prune completed futures from the tracked set", func() {
			fetcher := &stubFetcher{lines: []string{"line"}}
			pool := newFetchPool(fetcher)
			defer pool.shutdown()

			for i := 0; i < 5; i++ {
				pool.prefetch("Track", "Artist", "", 0)
				future := pool.snapshotCurrent()
				So(future, ShouldNotBeNil)
				So(waitFor(future.isDone), ShouldBeTrue)
				pool.clear(future)
			}

			So(waitFor(func() bool {
				pool.mu.Lock()
				defer pool.mu.Unlock()
				return pool.tracked.Len() == 0
			}), ShouldBeTrue)
		})
	})
}

func waitFor(cond func() bool) bool {
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return true
		}
		time.Sleep(10 * time.Millisecond)
	}
	return false
}
