package main

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/smartystreets/goconvey/convey"
	"golang.org/x/crypto/bcrypt"
)

// execute runs the root command with args and returns captured stdout.
func execute(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetIn(strings.NewReader(stdin))
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

func TestVersionCommand(t *testing.T) {
	convey.Convey("Given the version command", t, func() {
		out, err := execute(t, "", "version")

		convey.Convey("Then it prints the build information", func() {
			convey.So(err, convey.ShouldBeNil)
			convey.So(out, convey.ShouldContainSubstring, "huntboard dev")
			convey.So(out, convey.ShouldContainSubstring, "commit: none")
		})
	})
}

func TestHashPasswordCommand(t *testing.T) {
	convey.Convey("Given a secret on stdin", t, func() {
		out, err := execute(t, "hunter2\n", "hash-password")

		convey.Convey("Then the printed hash verifies against it", func() {
			convey.So(err, convey.ShouldBeNil)
			hash := strings.TrimSpace(out)
			convey.So(bcrypt.CompareHashAndPassword([]byte(hash), []byte("hunter2")), convey.ShouldBeNil)
		})
	})

	convey.Convey("Given an empty stdin", t, func() {
		_, err := execute(t, "", "hash-password")
		convey.So(err, convey.ShouldNotBeNil)
	})
}

func TestMigratePrint(t *testing.T) {
	convey.Convey("Given a custom notify channel", t, func() {
		t.Setenv("HUNT_NOTIFY_CHANNEL", "hunt_changes")
		out, err := execute(t, "", "migrate", "--print")

		convey.Convey("Then the schema targets that channel", func() {
			convey.So(err, convey.ShouldBeNil)
			convey.So(out, convey.ShouldContainSubstring, "CREATE TABLE IF NOT EXISTS")
			convey.So(out, convey.ShouldContainSubstring, "'hunt_changes'")
		})
	})

	convey.Convey("Given no store configured", t, func() {
		t.Setenv("HUNT_STORE_URL", "")
		t.Setenv("HUNT_STORE_KEY", "")
		_, err := execute(t, "", "migrate", "--print=false")

		convey.Convey("Then applying the schema explains what to set", func() {
			convey.So(err, convey.ShouldNotBeNil)
			convey.So(err.Error(), convey.ShouldContainSubstring, "HUNT_STORE_URL")
		})
	})
}

func TestOriginChecker(t *testing.T) {
	convey.Convey("Given websocket origin checks", t, func() {
		req := func(origin string) *http.Request {
			r := httptest.NewRequest(http.MethodGet, "/ws", http.NoBody)
			if origin != "" {
				r.Header.Set("Origin", origin)
			}
			return r
		}

		convey.Convey("Then a wildcard allows everything", func() {
			convey.So(originChecker([]string{"*"})(req("https://any.example")), convey.ShouldBeTrue)
		})

		convey.Convey("And a list only allows its members", func() {
			check := originChecker([]string{"https://hunt.example"})
			convey.So(check(req("https://hunt.example")), convey.ShouldBeTrue)
			convey.So(check(req("https://evil.example")), convey.ShouldBeFalse)
			convey.So(check(req("")), convey.ShouldBeTrue)
		})
	})
}

func TestSystemMetrics(t *testing.T) {
	convey.Convey("Given the system metrics updater", t, func() {
		convey.Convey("Then a single update should not panic", func() {
			convey.So(updateSystemMetrics, convey.ShouldNotPanic)
		})

		convey.Convey("And the loop returns when its context ends", func() {
			ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
			defer cancel()
			done := make(chan struct{})
			go func() {
				startSystemMetricsUpdater(ctx, 10*time.Millisecond)
				close(done)
			}()
			select {
			case <-done:
			case <-time.After(2 * time.Second):
				t.Fatal("updater did not stop")
			}
		})
	})
}
