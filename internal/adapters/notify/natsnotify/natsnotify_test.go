package natsnotify

import (
	"encoding/json"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/okian/huntboard/internal/domain/model"
)

func TestDecode(t *testing.T) {
	Convey("Given published payloads", t, func() {
		Convey("A published event round-trips its op and id", func() {
			data, err := json.Marshal(model.ChangeEvent{Source: "node-2", Op: "insert", RowID: "r1", ReceivedAt: time.Now()})
			So(err, ShouldBeNil)

			ev := Decode(data)
			So(ev.Source, ShouldEqual, SourceName)
			So(ev.Op, ShouldEqual, "insert")
			So(ev.RowID, ShouldEqual, "r1")
		})

		Convey("Garbage still produces an event", func() {
			ev := Decode([]byte("{"))
			So(ev.Source, ShouldEqual, SourceName)
		})
	})
}

func TestConnectFailure(t *testing.T) {
	Convey("Connecting to nothing fails without retrying", t, func() {
		_, err := Connect("nats://127.0.0.1:1", "leaderboard.changes", nil, nil)
		So(err, ShouldNotBeNil)
	})
}
