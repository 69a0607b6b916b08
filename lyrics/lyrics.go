// Package lyrics fetches song lyrics from the LRCLIB public API with a
// persistent on-disk cache keyed by track metadata.
package lyrics

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	levenshtein "github.com/ka-weihe/fast-levenshtein"

	"github.com/aurras-cli/aurras/constant"
	"github.com/aurras-cli/aurras/log"
	"github.com/aurras-cli/aurras/network"
)

// ErrNotFound indicates no provider could locate lyrics for the song.
var ErrNotFound = errors.New("lyrics not found")

const lrclibEndpoint = "https://lrclib.net/api"

// Result is the outcome of a successful lyrics lookup.
type Result struct {
	// Lines are the plain lyrics split into display lines.
	Lines []string
	// Source names the provider ("lrclib") or "cache" when served locally.
	Source string
}

// Fetcher resolves lyrics for songs by metadata.
type Fetcher struct {
	endpoint string
	client   *http.Client
}

// New creates a Fetcher backed by the shared network client.
func New() *Fetcher {
	return &Fetcher{
		endpoint: lrclibEndpoint,
		client:   network.Client,
	}
}

// Fetch returns lyrics for the song, consulting the cache before the network.
// Duration (seconds) disambiguates the exact-match lookup; zero omits it.
// The context cancels an in-flight request when the player moves on to
// another track.
func (f *Fetcher) Fetch(ctx context.Context, track, artist, album string, duration float64) (*Result, error) {
	key := cacheKey(track, artist, album)

	if cached, ok := lyricsCacher.Get(key).Get(); ok {
		return &Result{Lines: cached.Lines, Source: "cache"}, nil
	}

	lines, err := f.getExact(ctx, track, artist, album, duration)
	if errors.Is(err, ErrNotFound) {
		lines, err = f.search(ctx, track, artist)
	}
	if err != nil {
		return nil, err
	}

	record := &cachedLyrics{Lines: lines, Source: "lrclib", CachedAt: time.Now()}
	if err := lyricsCacher.Set(key, record); err != nil {
		log.Warnf("persisting lyrics cache: %v", err)
	}

	return &Result{Lines: lines, Source: "lrclib"}, nil
}

// lrclibTrack mirrors the LRCLIB track record.
type lrclibTrack struct {
	ID           int     `json:"id"`
	TrackName    string  `json:"trackName"`
	ArtistName   string  `json:"artistName"`
	AlbumName    string  `json:"albumName"`
	Duration     float64 `json:"duration"`
	Instrumental bool    `json:"instrumental"`
	PlainLyrics  string  `json:"plainLyrics"`
	SyncedLyrics string  `json:"syncedLyrics"`
}

// getExact queries the /get endpoint, which requires an exact artist and
// track match. Album and duration narrow the match when known.
func (f *Fetcher) getExact(ctx context.Context, track, artist, album string, duration float64) ([]string, error) {
	params := url.Values{}
	params.Set("track_name", cleanQuery(track))
	params.Set("artist_name", cleanQuery(artist))
	if album != "" {
		params.Set("album_name", cleanQuery(album))
	}
	if duration > 0 {
		params.Set("duration", strconv.Itoa(int(duration+0.5)))
	}

	body, status, err := f.request(ctx, "/get?"+params.Encode())
	if err != nil {
		return nil, err
	}

	if status == http.StatusNotFound {
		return nil, ErrNotFound
	}
	if status != http.StatusOK {
		return nil, fmt.Errorf("lrclib returned status %d", status)
	}

	var record lrclibTrack
	if err := json.Unmarshal(body, &record); err != nil {
		return nil, fmt.Errorf("parse lrclib response: %w", err)
	}

	return trackLines(&record)
}

// search queries the /search endpoint and picks the closest match by
// levenshtein distance against the requested track and artist.
func (f *Fetcher) search(ctx context.Context, track, artist string) ([]string, error) {
	params := url.Values{}
	params.Set("q", strings.TrimSpace(cleanQuery(track)+" "+cleanQuery(artist)))

	body, status, err := f.request(ctx, "/search?"+params.Encode())
	if err != nil {
		return nil, err
	}
	if status != http.StatusOK {
		return nil, fmt.Errorf("lrclib search returned status %d", status)
	}

	var records []*lrclibTrack
	if err := json.Unmarshal(body, &records); err != nil {
		return nil, fmt.Errorf("parse lrclib search response: %w", err)
	}
	if len(records) == 0 {
		return nil, ErrNotFound
	}

	want := strings.ToLower(track + " " + artist)
	sort.SliceStable(records, func(i, j int) bool {
		a := strings.ToLower(records[i].TrackName + " " + records[i].ArtistName)
		b := strings.ToLower(records[j].TrackName + " " + records[j].ArtistName)
		return levenshtein.Distance(want, a) < levenshtein.Distance(want, b)
	})

	for _, record := range records {
		lines, err := trackLines(record)
		if err == nil {
			return lines, nil
		}
	}

	return nil, ErrNotFound
}

func (f *Fetcher) request(ctx context.Context, path string) ([]byte, int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.endpoint+path, nil)
	if err != nil {
		return nil, 0, err
	}
	req.Header.Set("User-Agent", constant.UserAgent)

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, 0, fmt.Errorf("lrclib request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, 0, fmt.Errorf("read lrclib response: %w", err)
	}

	return body, resp.StatusCode, nil
}

// trackLines extracts display lines from a track record.
func trackLines(record *lrclibTrack) ([]string, error) {
	if record.Instrumental {
		return []string{"[Instrumental]"}, nil
	}
	if record.PlainLyrics == "" {
		return nil, ErrNotFound
	}

	raw := strings.Split(strings.ReplaceAll(record.PlainLyrics, "\r\n", "\n"), "\n")
	lines := make([]string, 0, len(raw))
	for _, line := range raw {
		lines = append(lines, strings.TrimRight(line, " \t"))
	}

	// Drop trailing blank lines.
	for len(lines) > 0 && lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}

	if len(lines) == 0 {
		return nil, ErrNotFound
	}
	return lines, nil
}

// cleanQuery strips featuring credits and parenthetical qualifiers that hurt
// exact matching.
func cleanQuery(query string) string {
	query = strings.TrimSpace(query)

	lower := strings.ToLower(query)
	if idx := strings.Index(lower, " feat"); idx != -1 {
		query = query[:idx]
	}
	if idx := strings.Index(strings.ToLower(query), " ft."); idx != -1 {
		query = query[:idx]
	}
	if idx := strings.Index(query, "("); idx != -1 {
		query = query[:idx]
	}
	if idx := strings.Index(query, "["); idx != -1 {
		query = query[:idx]
	}

	return strings.TrimSpace(query)
}
