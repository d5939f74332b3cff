package rules

import (
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

func TestGet(t *testing.T) {
	Convey("The rules book is numbered and isolated from callers", t, func() {
		b := Get()
		So(b.Rules, ShouldHaveLength, 9)
		for i, r := range b.Rules {
			So(r.Number, ShouldEqual, i+1)
			So(r.Title, ShouldNotBeEmpty)
		}
		b.Rules[0].Title = "changed"
		So(Get().Rules[0].Title, ShouldEqual, "Game Area")
	})
}
