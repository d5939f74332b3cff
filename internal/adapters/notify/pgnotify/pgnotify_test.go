package pgnotify

import (
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

func TestDecode(t *testing.T) {
	Convey("Given trigger payloads", t, func() {
		Convey("A well formed payload carries op and id", func() {
			ev := Decode(`{"op":"DELETE","id":"6f1c7c1e-7a43-4a4f-9a57-1a0c3c0b7d10"}`)
			So(ev.Source, ShouldEqual, SourceName)
			So(ev.Op, ShouldEqual, "DELETE")
			So(ev.RowID, ShouldEqual, "6f1c7c1e-7a43-4a4f-9a57-1a0c3c0b7d10")
		})

		Convey("Garbage still produces a reload-worthy event", func() {
			ev := Decode("not json")
			So(ev.Source, ShouldEqual, SourceName)
			So(ev.Op, ShouldBeEmpty)
		})

		Convey("An empty payload is accepted", func() {
			So(Decode("").Source, ShouldEqual, SourceName)
		})
	})
}
