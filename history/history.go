// Package history tracks played songs and feeds them back into new playback
// queues and listening statistics.
package history

import (
	"sort"
	"strings"
	"time"

	"github.com/lithammer/fuzzysearch/fuzzy"
	"github.com/spf13/viper"

	"github.com/aurras-cli/aurras/filesystem"
	"github.com/aurras-cli/aurras/key"
	"github.com/aurras-cli/aurras/where"
	"github.com/metafates/gache"
)

// maxRecords bounds the persistent store. Least recently played records are
// evicted on overflow.
const maxRecords = 500

// Record is a single song's listening history.
type Record struct {
	SongName  string    `json:"song_name"`
	Source    string    `json:"source"`
	PlayCount int       `json:"play_count"`
	PlayedAt  time.Time `json:"played_at"`
}

// Category returns the listening category derived from the play count.
func (r *Record) Category() Category {
	return Categorize(r.PlayCount)
}

// cacher provides an abstracted, disk-backed registry for listening records.
var cacher = gache.New[map[string]*Record](
	&gache.Options{
		Path:       where.History(),
		FileSystem: &filesystem.CacheFs{},
	},
)

// encode normalizes a song name into its registry key.
func encode(songName string) string {
	return strings.ToLower(strings.TrimSpace(songName))
}

// Get returns the complete collection of listening records from the persistent store.
func Get() (map[string]*Record, error) {
	cached, expired, err := cacher.Get()
	if err != nil {
		return nil, err
	}
	if expired || cached == nil {
		return make(map[string]*Record), nil
	}
	return cached, nil
}

// Save records a play of the song, honoring the save_on_play setting.
// Repeat plays increment the play count instead of duplicating the record.
func Save(songName, source string) error {
	if !viper.GetBool(key.HistorySaveOnPlay) {
		return nil
	}
	if strings.TrimSpace(songName) == "" {
		return nil
	}

	saved, err := Get()
	if err != nil {
		return err
	}

	record, exists := saved[encode(songName)]
	if exists {
		record.PlayCount++
		record.PlayedAt = time.Now()
		record.Source = source
	} else {
		if len(saved) >= maxRecords {
			evictLeastRecent(saved)
		}
		saved[encode(songName)] = &Record{
			SongName:  songName,
			Source:    source,
			PlayCount: 1,
			PlayedAt:  time.Now(),
		}
	}

	return cacher.Set(saved)
}

// Lookup returns the record for the song, or nil when the song was never played.
func Lookup(songName string) (*Record, error) {
	saved, err := Get()
	if err != nil {
		return nil, err
	}
	return saved[encode(songName)], nil
}

// Remove permanently deletes a song's record from the registry.
func Remove(songName string) error {
	saved, err := Get()
	if err != nil {
		return err
	}

	delete(saved, encode(songName))
	return cacher.Set(saved)
}

// Clear wipes the entire listening history.
func Clear() error {
	return cacher.Set(make(map[string]*Record))
}

// Recent returns up to n records ordered oldest first, so appending the
// current queue after them preserves chronology.
func Recent(n int) ([]*Record, error) {
	saved, err := Get()
	if err != nil {
		return nil, err
	}

	records := make([]*Record, 0, len(saved))
	for _, record := range saved {
		records = append(records, record)
	}

	sort.Slice(records, func(i, j int) bool {
		return records[i].PlayedAt.After(records[j].PlayedAt)
	})

	if n > 0 && len(records) > n {
		records = records[:n]
	}

	// Reverse to oldest first.
	for i, j := 0, len(records)-1; i < j; i, j = i+1, j-1 {
		records[i], records[j] = records[j], records[i]
	}

	return records, nil
}

// Search returns records whose song names fuzzy-match the query, best match first.
func Search(query string) ([]*Record, error) {
	saved, err := Get()
	if err != nil {
		return nil, err
	}

	names := make([]string, 0, len(saved))
	byName := make(map[string]*Record, len(saved))
	for _, record := range saved {
		names = append(names, record.SongName)
		byName[record.SongName] = record
	}

	ranks := fuzzy.RankFindNormalizedFold(query, names)
	sort.Sort(ranks)

	matches := make([]*Record, 0, len(ranks))
	for _, rank := range ranks {
		matches = append(matches, byName[rank.Target])
	}

	return matches, nil
}

func evictLeastRecent(saved map[string]*Record) {
	var oldestKey string
	var oldestAt time.Time

	for key, record := range saved {
		if oldestKey == "" || record.PlayedAt.Before(oldestAt) {
			oldestKey = key
			oldestAt = record.PlayedAt
		}
	}

	if oldestKey != "" {
		delete(saved, oldestKey)
	}
}
