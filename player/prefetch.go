package player

import (
	"context"
	"sync"

	"github.com/aurras-cli/aurras/log"
	"github.com/aurras-cli/aurras/util"
)

const (
	// poolWorkers fixes the lyric pool size. One worker would suffice since at
	// most one fetch is outstanding; the second absorbs a cancelled fetch that
	// is still draining its network call.
	poolWorkers = 2

	// maxTrackedFutures bounds the completion-tracking set so a long session
	// cannot accumulate futures.
	maxTrackedFutures = 25
)

// fetchFuture is the handle for one background lyric lookup.
type fetchFuture struct {
	track    string
	artist   string
	album    string
	duration float64

	cancel context.CancelFunc
	done   chan struct{}

	// Written by the worker before done is closed, read only after.
	lines []string
	err   error
}

func (f *fetchFuture) isDone() bool {
	select {
	case <-f.done:
		return true
	default:
		return false
	}
}

// fetchPool runs lyric lookups on a small fixed set of worker goroutines.
// At most one lookup is current at a time; scheduling a new one cancels the
// previous.
type fetchPool struct {
	fetcher LyricsFetcher
	jobs    chan func()

	mu      sync.Mutex
	current *fetchFuture
	tracked *util.Ring[*fetchFuture]
	closed  bool
}

func newFetchPool(fetcher LyricsFetcher) *fetchPool {
	p := &fetchPool{
		fetcher: fetcher,
		jobs:    make(chan func(), poolWorkers*2),
		tracked: util.NewRing[*fetchFuture](maxTrackedFutures),
	}

	for i := 0; i < poolWorkers; i++ {
		go p.worker()
	}

	return p
}

func (p *fetchPool) worker() {
	for job := range p.jobs {
		job()
	}
}

// prefetch schedules a lyric lookup for the track. It is a no-op when the
// same track is already in flight; any other unfinished lookup is cancelled
// first, keeping at most one outstanding. A lookup is always submitted, even
// for tracks held in the on-disk cache: the fetcher resolves those instantly
// and the result still has to travel through the future for the display loop
// to ever see it.
func (p *fetchPool) prefetch(track, artist, album string, duration float64) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return
	}

	if p.current != nil && !p.current.isDone() {
		if p.current.track == track && p.current.artist == artist {
			return
		}
		p.current.cancel()
	}

	ctx, cancel := context.WithCancel(context.Background())
	future := &fetchFuture{
		track:    track,
		artist:   artist,
		album:    album,
		duration: duration,
		cancel:   cancel,
		done:     make(chan struct{}),
	}

	p.current = future
	p.tracked.Push(future)

	select {
	case p.jobs <- func() { p.run(ctx, future) }:
	default:
		// All workers busy and the queue full. Drop the lookup rather than
		// block; the next tick resolves against NOT_FOUND.
		log.Warnf("lyric pool saturated, dropping lookup for %q", track)
		cancel()
		close(future.done)
	}
}

func (p *fetchPool) run(ctx context.Context, future *fetchFuture) {
	defer close(future.done)

	result, err := p.fetcher.Fetch(ctx, future.track, future.artist, future.album, future.duration)
	if err != nil {
		future.err = err
	} else {
		future.lines = result.Lines
	}

	// Completion pruning keeps the tracked set from growing across a session.
	p.mu.Lock()
	p.tracked.Remove(func(other *fetchFuture) bool { return other == future })
	p.mu.Unlock()
}

// snapshotCurrent returns the current lookup, if any.
func (p *fetchPool) snapshotCurrent() *fetchFuture {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.current
}

// clear drops the current lookup if it still is the given one. Used after the
// display loop consumed a completed result.
func (p *fetchPool) clear(future *fetchFuture) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.current == future {
		p.current = nil
	}
}

// cancelCurrent aborts the outstanding lookup, if any. Safe to call
// repeatedly; a second call with nothing in flight is a no-op.
func (p *fetchPool) cancelCurrent() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.current != nil {
		p.current.cancel()
		p.current = nil
	}
}

// shutdown cancels outstanding work and releases the workers without waiting
// for a slow fetch to finish. Idempotent.
func (p *fetchPool) shutdown() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return
	}
	p.closed = true

	if p.current != nil {
		p.current.cancel()
		p.current = nil
	}

	close(p.jobs)
}
