package errs

import (
	"errors"
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

var errKind = errors.New("query failed")

func TestErrs(t *testing.T) {
	Convey("Given an operation error", t, func() {
		cause := errors.New("connection refused")

		Convey("WrapKind matches both kind and cause", func() {
			err := WrapKind("remotesync.Reload", errKind, cause)
			So(errors.Is(err, errKind), ShouldBeTrue)
			So(errors.Is(err, cause), ShouldBeTrue)
			So(err.Error(), ShouldEqual, "remotesync.Reload: query failed: connection refused")
		})

		Convey("NewKind carries no cause", func() {
			err := NewKind("api.create", errKind)
			So(errors.Is(err, errKind), ShouldBeTrue)
			So(err.Error(), ShouldEqual, "api.create: query failed")
		})

		Convey("Wrap and WrapKind keep nil as nil", func() {
			So(Wrap("op", nil), ShouldBeNil)
			So(WrapKind("op", errKind, nil), ShouldBeNil)
		})

		Convey("errors.As reaches the op", func() {
			var e *E
			So(errors.As(Wrap("postgres.List", cause), &e), ShouldBeTrue)
			So(e.Op, ShouldEqual, "postgres.List")
		})
	})
}
