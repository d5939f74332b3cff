package timefmt

import (
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

func TestFormat(t *testing.T) {
	Convey("Given durations in seconds", t, func() {
		cases := map[int]string{
			0:      "00:00",
			9:      "00:09",
			59:     "00:59",
			60:     "01:00",
			754:    "12:34",
			3599:   "59:59",
			3600:   "01:00:00",
			3661:   "01:01:01",
			45296:  "12:34:56",
			86399:  "23:59:59",
			360000: "100:00:00",
		}
		for in, want := range cases {
			So(Format(in), ShouldEqual, want)
		}
	})
}

func TestFromParts(t *testing.T) {
	Convey("Hours, minutes and seconds fold into seconds", t, func() {
		So(FromParts(0, 0, 0), ShouldEqual, 0)
		So(FromParts(1, 1, 1), ShouldEqual, 3661)
		So(FromParts(0, 45, 12), ShouldEqual, 2712)
		So(Format(FromParts(12, 34, 56)), ShouldEqual, "12:34:56")
	})
}
