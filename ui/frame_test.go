package ui

import (
	"strings"
	"testing"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/aurras-cli/aurras/history"
	"github.com/aurras-cli/aurras/player"
)

func sample() *player.Snapshot {
	return &player.Snapshot{
		Status:     player.Playing,
		Song:       "Karma Police",
		Artist:     "Radiohead",
		Album:      "OK Computer",
		Elapsed:    61,
		Duration:   261,
		Volume:     100,
		Theme:      "galaxy",
		Index:      1,
		QueueLen:   3,
		StartIndex: 1,
		SongNames:  []string{"Old Play", "Karma Police", "No Surprises"},
		LyricsOn:   true,
		Lyrics:     player.LyricsAvailable,
		LyricLines: []string{"This is what you get", "when you mess with us"},
		History:    player.HistoryInfo{Loaded: true, PlayCount: 12, Category: history.CategoryFavorite},
		Feedback:   &player.UserFeedback{Description: "Volume 100%", Kind: player.FeedbackAction},
	}
}

func TestFrame(t *testing.T) {
	Convey("Frame", t, func() {
		var out strings.Builder
		frame := NewFrame(&out)

		Convey("Should render the snapshot fields", func() {
			frame.Render(sample())
			rendered := out.String()

			So(rendered, ShouldContainSubstring, "Karma Police")
			So(rendered, ShouldContainSubstring, "Radiohead")
			So(rendered, ShouldContainSubstring, "OK Computer")
			So(rendered, ShouldContainSubstring, "PLAYING")
			So(rendered, ShouldContainSubstring, "1:01")
			So(rendered, ShouldContainSubstring, "4:21")
			So(rendered, ShouldContainSubstring, "FAVORITE")
			So(rendered, ShouldContainSubstring, "This is what you get")
			So(rendered, ShouldContainSubstring, "Volume 100%")
			So(rendered, ShouldContainSubstring, "history")
		})

		Convey("Should omit expired feedback and empty queues", func() {
			s := sample()
			s.Feedback = nil
			s.SongNames = nil
			So(func() { frame.Render(s) }, ShouldNotPanic)
		})

		Convey("Should handle a zero duration without dividing by zero", func() {
			s := sample()
			s.Duration = 0
			So(func() { frame.Render(s) }, ShouldNotPanic)
		})

		Convey("Clear should erase the screen and the wrap cache", func() {
			frame.Render(sample())
			frame.Clear()

			So(out.String(), ShouldContainSubstring, "\x1b[2J")
			So(frame.wrapKey, ShouldEqual, "")
		})

		Convey("Should reuse wrapped lyrics for the same song and width", func() {
			s := sample()
			frame.Render(s)
			first := frame.wrapLines
			frame.Render(s)
			So(&frame.wrapLines[0], ShouldEqual, &first[0])
		})
	})
}
