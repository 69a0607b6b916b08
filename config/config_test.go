package config

import (
	"testing"

	"github.com/aurras-cli/aurras/filesystem"
	"github.com/aurras-cli/aurras/key"
	. "github.com/smartystreets/goconvey/convey"
	"github.com/spf13/viper"
)

func init() {
	filesystem.SetMemMapFs()
}

func TestSetup(t *testing.T) {
	Convey("When setting up the configuration", t, func() {
		err := Setup()

		Convey("Then defaults are registered", func() {
			So(err, ShouldBeNil)
			So(viper.GetInt(key.PlaybackVolume), ShouldEqual, 100)
			So(viper.GetInt(key.PlaybackMaxVolume), ShouldEqual, 130)
			So(viper.GetBool(key.LyricsEnable), ShouldBeTrue)
			So(viper.GetString(key.AppearanceTheme), ShouldEqual, "galaxy")
		})
	})
}

func TestFieldEnv(t *testing.T) {
	Convey("Given a configuration field", t, func() {
		field := Default[key.PlaybackVolume]

		Convey("Its environment variable name carries the app prefix", func() {
			So(field.Env(), ShouldEqual, "AURRAS_PLAYBACK_VOLUME")
		})
	})
}
