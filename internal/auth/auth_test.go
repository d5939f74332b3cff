package auth

import (
	"context"
	"errors"
	"testing"

	. "github.com/smartystreets/goconvey/convey"
	"golang.org/x/crypto/bcrypt"
)

func TestBcryptAuthorizer(t *testing.T) {
	ctx := context.Background()

	Convey("Given a configured hash", t, func() {
		h, err := bcrypt.GenerateFromPassword([]byte("open sesame"), bcrypt.MinCost)
		So(err, ShouldBeNil)
		a, err := NewBcrypt(string(h))
		So(err, ShouldBeNil)

		Convey("The right secret passes", func() {
			So(a.Enabled(), ShouldBeTrue)
			So(a.Verify(ctx, "open sesame"), ShouldBeNil)
		})

		Convey("A wrong secret is unauthorized", func() {
			So(errors.Is(a.Verify(ctx, "guess"), ErrUnauthorized), ShouldBeTrue)
		})
	})

	Convey("Given no hash", t, func() {
		a, err := NewBcrypt("")
		So(err, ShouldBeNil)

		Convey("Every secret is refused as disabled", func() {
			So(a.Enabled(), ShouldBeFalse)
			So(errors.Is(a.Verify(ctx, ""), ErrDisabled), ShouldBeTrue)
		})
	})

	Convey("A malformed hash is rejected at construction", t, func() {
		_, err := NewBcrypt("plaintext")
		So(err, ShouldNotBeNil)
	})

	Convey("Hash output verifies", t, func() {
		h, err := Hash("pw")
		So(err, ShouldBeNil)
		a, err := NewBcrypt(h)
		So(err, ShouldBeNil)
		So(a.Verify(ctx, "pw"), ShouldBeNil)
	})
}
