package seed

import (
	"context"
	"encoding/json"
	"errors"
	"math/rand/v2"
	"net/http"
	"net/http/httptest"
	"os"
	"slices"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	. "github.com/smartystreets/goconvey/convey"

	"github.com/okian/huntboard/internal/domain/model"
	"github.com/okian/huntboard/pkg/logger"
)

func TestMain(m *testing.M) {
	// Run logs through the global logger.
	if err := logger.Init(); err != nil {
		panic(err)
	}
	logger.SetLevel(zerolog.ErrorLevel)
	os.Exit(m.Run())
}

// fakeBoard is an in-memory stand-in for the admin and leaderboard routes.
type fakeBoard struct {
	mu      sync.Mutex
	secret  string
	keys    map[string]bool
	entries []Row
}

func (f *fakeBoard) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	switch {
	case r.Method == http.MethodGet && r.URL.Path == "/leaderboard":
		rows := slices.Clone(f.entries)
		slices.SortStableFunc(rows, func(a, b Row) int { return a.TimeTaken - b.TimeTaken })
		for i := range rows {
			rows[i].Rank = i + 1
		}
		_ = json.NewEncoder(w).Encode(Board{Rows: rows, Total: len(rows)})
	case r.Method == http.MethodPost && r.URL.Path == "/entries":
		if _, pw, ok := r.BasicAuth(); !ok || pw != f.secret {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		key := r.Header.Get("Idempotency-Key")
		if f.keys[key] {
			w.WriteHeader(http.StatusOK)
			return
		}
		var s Submission
		if err := json.NewDecoder(r.Body).Decode(&s); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		f.keys[key] = true
		f.entries = append(f.entries, Row{TeamName: s.TeamName, TimeTaken: s.TimeTaken})
		w.WriteHeader(http.StatusAccepted)
	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

func TestGenerate(t *testing.T) {
	Convey("Given a seeded generator", t, func() {
		subs := Generate(200, rand.New(rand.NewPCG(1, 2)))

		Convey("Then every submission is valid and unique", func() {
			So(subs, ShouldHaveLength, 200)
			names := map[string]bool{}
			keys := map[string]bool{}
			for _, s := range subs {
				e := model.NewEntry{TeamName: s.TeamName, Year: model.Year(s.Year), Department: s.Department, TimeTaken: s.TimeTaken}
				So(e.Validate(), ShouldBeNil)
				names[s.TeamName] = true
				keys[s.Key] = true
			}
			So(names, ShouldHaveLength, 200)
			So(keys, ShouldHaveLength, 200)
		})
	})
}

func TestVerify(t *testing.T) {
	Convey("Given leaderboard rows", t, func() {
		Convey("Then ascending rows with ties pass", func() {
			rows := []Row{{Rank: 1, TimeTaken: 10}, {Rank: 2, TimeTaken: 10}, {Rank: 3, TimeTaken: 30}}
			So(Verify(rows), ShouldBeNil)
			So(Verify(nil), ShouldBeNil)
		})

		Convey("And descending rows fail", func() {
			rows := []Row{{Rank: 1, TimeTaken: 30}, {Rank: 2, TimeTaken: 10}}
			So(errors.Is(Verify(rows), ErrUnordered), ShouldBeTrue)
		})

		Convey("And gaps in rank fail", func() {
			rows := []Row{{Rank: 1, TimeTaken: 10}, {Rank: 3, TimeTaken: 20}}
			So(errors.Is(Verify(rows), ErrUnordered), ShouldBeTrue)
		})

		Convey("And Missing names the absent teams", func() {
			subs := []Submission{{TeamName: "a"}, {TeamName: "b"}}
			So(Missing(subs, []Row{{TeamName: "a"}}), ShouldResemble, []string{"b"})
		})
	})
}

func TestRun(t *testing.T) {
	Convey("Given a fake service", t, func() {
		fake := &fakeBoard{secret: "s3cret", keys: map[string]bool{}}
		srv := httptest.NewServer(fake)
		defer srv.Close()
		cfg := &Config{
			BaseURL:  srv.URL,
			Count:    40,
			Workers:  4,
			Timeout:  5 * time.Second,
			User:     "admin",
			Secret:   "s3cret",
			Settle:   2 * time.Second,
			Resubmit: true,
		}

		Convey("When seeding with resubmission", func() {
			stats, err := Run(context.Background(), cfg)

			Convey("Then every entry lands once and the board verifies", func() {
				So(err, ShouldBeNil)
				So(stats.Accepted, ShouldEqual, 40)
				So(stats.Duplicates, ShouldEqual, 40)
				So(stats.Failed, ShouldEqual, 0)
				So(stats.BoardRows, ShouldEqual, 40)
			})
		})

		Convey("When the secret is wrong", func() {
			cfg.Secret = "nope"
			_, err := Run(context.Background(), cfg)

			Convey("Then the run aborts", func() {
				So(errors.Is(err, ErrAdminRejected), ShouldBeTrue)
			})
		})
	})
}
