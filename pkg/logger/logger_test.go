package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	. "github.com/smartystreets/goconvey/convey"
)

func TestLoggerInit(t *testing.T) {
	err := Init()
	if err != nil {
		t.Fatalf("failed to initialize logger: %v", err)
	}
	defer func() {
		if err := Sync(); err != nil {
			t.Errorf("failed to sync logger: %v", err)
		}
	}()

	if Get() == nil {
		t.Fatal("logger is nil after initialization")
	}

	if err := InitConsole(); err != nil {
		t.Fatalf("failed to initialize console logger: %v", err)
	}
	if Get() == nil {
		t.Fatal("logger is nil after console initialization")
	}
}

func TestLoggerNamed(t *testing.T) {
	if err := Init(); err != nil {
		t.Fatalf("failed to initialize logger: %v", err)
	}

	namedLogger := Named("test")
	if namedLogger == nil {
		t.Fatal("named logger is nil")
	}
	namedLogger.Info(context.Background(), "test message")
}

func TestLoggerOutput(t *testing.T) {
	Convey("Given a logger writing to a buffer", t, func() {
		SetLevel(zerolog.DebugLevel)
		defer SetLevel(zerolog.InfoLevel)

		var buf bytes.Buffer
		log := New(&buf).Named("sync").Named("reload")

		Convey("fields, component and source are emitted as JSON", func() {
			log.Warn(context.Background(), "reload failed", String("reason", "notification"), Int("count", 3), Error(errors.New("boom")))

			var line map[string]interface{}
			So(json.Unmarshal(buf.Bytes(), &line), ShouldBeNil)
			So(line["message"], ShouldEqual, "reload failed")
			So(line["level"], ShouldEqual, "warn")
			So(line["component"], ShouldEqual, "sync.reload")
			So(line["reason"], ShouldEqual, "notification")
			So(line["count"], ShouldEqual, 3)
			So(line["error"], ShouldEqual, "boom")
			So(line["source"], ShouldContainSubstring, "logger_test.go")
		})

		Convey("levels below the global level are dropped", func() {
			SetLevel(zerolog.ErrorLevel)
			log.Info(context.Background(), "hidden")
			So(buf.Len(), ShouldEqual, 0)
		})
	})
}

func TestSetLevelString(t *testing.T) {
	Convey("SetLevelString accepts the known levels", t, func() {
		defer SetLevel(zerolog.InfoLevel)
		for _, lvl := range []string{"debug", "INFO", "", "warn", "warning", "error"} {
			So(SetLevelString(lvl), ShouldBeNil)
		}
		So(SetLevelString("verbose"), ShouldNotBeNil)
	})
}

func TestNop(t *testing.T) {
	Convey("A nop logger accepts every call", t, func() {
		log := NewNop()
		So(func() { log.Named("x").Error(context.Background(), "ignored", Any("k", 1)) }, ShouldNotPanic)
	})
}
