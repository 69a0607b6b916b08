package history

import "strings"

// PlaceholderSource stands in for records persisted without a playable source.
// The player resolves placeholders before handing the queue to the engine.
const PlaceholderSource = "null://"

// Integrate prepends recently played songs to the requested queue so the user
// can jump backwards past the first requested song. Songs already present in
// the queue are not duplicated. The returned start index points at the first
// requested song, so playback begins where the user asked.
func Integrate(urls, names []string, maxHistory int) (combinedURLs, combinedNames []string, startIndex int) {
	recent, err := Recent(maxHistory)
	if err != nil {
		return urls, names, 0
	}

	requested := make(map[string]bool, len(names))
	for _, name := range names {
		requested[encode(name)] = true
	}

	for _, record := range recent {
		if requested[encode(record.SongName)] {
			continue
		}

		source := record.Source
		if strings.TrimSpace(source) == "" {
			source = PlaceholderSource
		}

		combinedURLs = append(combinedURLs, source)
		combinedNames = append(combinedNames, record.SongName)
	}

	startIndex = len(combinedURLs)
	combinedURLs = append(combinedURLs, urls...)
	combinedNames = append(combinedNames, names...)

	return combinedURLs, combinedNames, startIndex
}
