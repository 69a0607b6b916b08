package lyrics

import (
	"strings"
	"sync"
	"time"

	"github.com/aurras-cli/aurras/filesystem"
	"github.com/aurras-cli/aurras/where"
	"github.com/metafates/gache"
	"github.com/samber/mo"
)

// maxCachedSongs bounds the on-disk lyrics cache. Oldest entries are evicted
// on overflow so the cache file cannot grow without limit.
const maxCachedSongs = 200

// cacheData defines the structured format for persisting fetched lyrics to disk.
type cacheData struct {
	Songs map[string]*cachedLyrics `json:"songs"`
}

// cachedLyrics is a single persisted lyrics record.
type cachedLyrics struct {
	Lines    []string  `json:"lines"`
	Source   string    `json:"source"`
	CachedAt time.Time `json:"cached_at"`
}

// cacher provides a thread-safe, disk-backed registry for fetched lyrics.
type cacher struct {
	internal *gache.Cache[*cacheData]
	mu       sync.RWMutex
}

// lyricsCacher persists lyrics so repeated plays of the same song skip the network.
var lyricsCacher = &cacher{
	internal: gache.New[*cacheData](
		&gache.Options{
			Path:       where.LyricsCache(),
			Lifetime:   time.Hour * 24 * 30,
			FileSystem: &filesystem.CacheFs{},
		},
	),
}

// cacheKey builds the lookup key for a song. Case-insensitive so metadata
// capitalization differences between sources still hit the cache.
func cacheKey(track, artist, album string) string {
	return strings.ToLower(strings.Join([]string{track, artist, album}, "|"))
}

// Get retrieves cached lyrics for the song.
func (c *cacher) Get(key string) mo.Option[*cachedLyrics] {
	c.mu.RLock()
	defer c.mu.RUnlock()

	data, expired, err := c.internal.Get()
	if err != nil || expired || data == nil {
		return mo.None[*cachedLyrics]()
	}

	record, ok := data.Songs[key]
	if ok {
		return mo.Some(record)
	}

	return mo.None[*cachedLyrics]()
}

// Set persists lyrics for the song, evicting the oldest record when full.
func (c *cacher) Set(key string, record *cachedLyrics) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	data, expired, err := c.internal.Get()
	if err != nil {
		return err
	}

	if expired || data == nil {
		data = &cacheData{Songs: make(map[string]*cachedLyrics)}
	}

	if _, exists := data.Songs[key]; !exists && len(data.Songs) >= maxCachedSongs {
		evictOldest(data.Songs)
	}

	data.Songs[key] = record
	return c.internal.Set(data)
}

func evictOldest(songs map[string]*cachedLyrics) {
	var oldestKey string
	var oldestAt time.Time

	for key, record := range songs {
		if oldestKey == "" || record.CachedAt.Before(oldestAt) {
			oldestKey = key
			oldestAt = record.CachedAt
		}
	}

	if oldestKey != "" {
		delete(songs, oldestKey)
	}
}
