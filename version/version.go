// Package version provides application version tracking and update discovery.
package version

import (
	"encoding/json"
	"errors"
	"net/http"
	"path/filepath"
	"time"

	"github.com/aurras-cli/aurras/constant"
	"github.com/aurras-cli/aurras/filesystem"
	"github.com/aurras-cli/aurras/network"
	"github.com/aurras-cli/aurras/util"
	"github.com/aurras-cli/aurras/where"
	"github.com/metafates/gache"
)

var versionCacher = gache.New[string](&gache.Options{
	Path:       filepath.Join(where.Cache(), "version.json"),
	Lifetime:   time.Hour * 24 * 2,
	FileSystem: &filesystem.CacheFs{},
})

const releasesEndpoint = "https://api.github.com/repos/aurras-cli/aurras/releases/latest"

// Latest retrieves the most recent stable release version. It queries the
// GitHub Releases API and caches the result to limit API pressure.
func Latest() (version string, err error) {
	ver, expired, err := versionCacher.Get()
	if err != nil {
		return "", err
	}

	if !expired && ver != "" {
		return ver, nil
	}

	req, err := http.NewRequest(http.MethodGet, releasesEndpoint, nil)
	if err != nil {
		return
	}
	req.Header.Set("User-Agent", constant.UserAgent)

	resp, err := network.Client.Do(req)
	if err != nil {
		return
	}

	defer util.Ignore(resp.Body.Close)

	var release struct {
		TagName string `json:"tag_name"`
	}

	err = json.NewDecoder(resp.Body).Decode(&release)
	if err != nil {
		return
	}

	if release.TagName == "" {
		err = errors.New("empty tag name")
		return
	}

	// Release tags carry a 'v' prefix.
	version = release.TagName[1:]
	_ = versionCacher.Set(version)
	return
}
