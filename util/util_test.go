package util

import (
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

func TestQuantify(t *testing.T) {
	Convey("Quantify", t, func() {
		So(Quantify(1, "song", "songs"), ShouldEqual, "1 song")
		So(Quantify(2, "song", "songs"), ShouldEqual, "2 songs")
	})
}

func TestCapitalize(t *testing.T) {
	Convey("Capitalize", t, func() {
		So(Capitalize("volume"), ShouldEqual, "Volume")
		So(Capitalize(""), ShouldEqual, "")
	})
}

func TestFileStem(t *testing.T) {
	Convey("FileStem", t, func() {
		So(FileStem("/music/album/track01.flac"), ShouldEqual, "track01")
		So(FileStem("song.mp3"), ShouldEqual, "song")
	})
}

func TestFormatDuration(t *testing.T) {
	Convey("FormatDuration", t, func() {
		So(FormatDuration(0), ShouldEqual, "0:00")
		So(FormatDuration(61), ShouldEqual, "1:01")
		So(FormatDuration(3723), ShouldEqual, "1:02:03")
		So(FormatDuration(-5), ShouldEqual, "0:00")
	})
}

func TestClamp(t *testing.T) {
	Convey("Clamp", t, func() {
		So(Clamp(135, 0, 130), ShouldEqual, 130)
		So(Clamp(-3, 0, 130), ShouldEqual, 0)
		So(Clamp(42, 0, 130), ShouldEqual, 42)
	})
}

func TestRing(t *testing.T) {
	Convey("Given a ring of capacity 3", t, func() {
		ring := NewRing[int](3)

		Convey("Pushing within capacity keeps order", func() {
			ring.Push(1)
			ring.Push(2)
			So(ring.Items(), ShouldResemble, []int{1, 2})
			So(ring.Len(), ShouldEqual, 2)
		})

		Convey("Pushing past capacity evicts the oldest", func() {
			for i := 1; i <= 5; i++ {
				ring.Push(i)
			}
			So(ring.Items(), ShouldResemble, []int{3, 4, 5})
			So(ring.Len(), ShouldEqual, ring.Cap())
		})

		Convey("Remove drops the first match", func() {
			ring.Push(1)
			ring.Push(2)
			ring.Push(3)

			removed := ring.Remove(func(v int) bool { return v == 2 })
			So(removed, ShouldBeTrue)
			So(ring.Items(), ShouldResemble, []int{1, 3})

			So(ring.Remove(func(v int) bool { return v == 99 }), ShouldBeFalse)
		})
	})
}
