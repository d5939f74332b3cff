package stream

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
	. "github.com/smartystreets/goconvey/convey"

	"github.com/okian/huntboard/internal/adapters/repository"
	"github.com/okian/huntboard/internal/domain/model"
)

type fakeSource struct {
	current *repository.Snapshot
	ch      chan *repository.Snapshot
	unsub   chan struct{}
}

func newFakeSource() *fakeSource {
	return &fakeSource{
		current: &repository.Snapshot{Entries: []model.Entry{
			{ID: "1", TeamName: "Slow", Year: model.YearFirst, Department: "CM", TimeTaken: 900},
			{ID: "2", TeamName: "Fast", Year: model.YearFirst, Department: "IT", TimeTaken: 60},
		}, Version: 4},
		ch:    make(chan *repository.Snapshot),
		unsub: make(chan struct{}),
	}
}

func (f *fakeSource) Current() *repository.Snapshot          { return f.current }
func (f *fakeSource) Loading() bool                          { return false }
func (f *fakeSource) Subscribe() <-chan *repository.Snapshot { return f.ch }
func (f *fakeSource) Unsubscribe(<-chan *repository.Snapshot) {
	close(f.unsub)
}

func dial(url string) (*websocket.Conn, error) {
	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(url, "http")+"/ws", nil)
	return conn, err
}

func readMessage(conn *websocket.Conn) Message {
	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	_, data, err := conn.ReadMessage()
	So(err, ShouldBeNil)
	var msg Message
	So(json.Unmarshal(data, &msg), ShouldBeNil)
	return msg
}

func waitFor(cond func() bool) bool {
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return true
		}
		time.Sleep(10 * time.Millisecond)
	}
	return false
}

func TestHub(t *testing.T) {
	Convey("Given a hub mounted on a test server", t, func() {
		src := newFakeSource()
		hub := NewHub(src, DefaultConfig())
		r := chi.NewRouter()
		hub.Mount(r)
		srv := httptest.NewServer(r)
		defer srv.Close()

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		done := make(chan struct{})
		go func() {
			hub.Run(ctx)
			close(done)
		}()

		conn, err := dial(srv.URL)
		So(err, ShouldBeNil)
		defer conn.Close()

		Convey("Then the current board arrives on connect, fastest first", func() {
			msg := readMessage(conn)
			So(msg.Type, ShouldEqual, MessageBoard)
			So(msg.Version, ShouldEqual, uint64(4))
			So(msg.Board.Rows, ShouldHaveLength, 2)
			So(msg.Board.Rows[0].TeamName, ShouldEqual, "Fast")
			So(msg.Board.Filter, ShouldEqual, model.DepartmentAll)
			So(waitFor(func() bool { return hub.Count() == 1 }), ShouldBeTrue)

			Convey("And each new snapshot is pushed", func() {
				src.ch <- &repository.Snapshot{Entries: []model.Entry{
					{ID: "3", TeamName: "Only", Year: model.YearBTech, Department: "CS", TimeTaken: 30},
				}, Version: 5}
				msg := readMessage(conn)
				So(msg.Version, ShouldEqual, uint64(5))
				So(msg.Board.Rows, ShouldHaveLength, 1)
				So(msg.Board.Stats.Best, ShouldEqual, 30)
			})

			Convey("And stopping the hub closes the connection normally", func() {
				cancel()
				<-done
				_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
				_, _, err := conn.ReadMessage()
				So(websocket.IsCloseError(err, websocket.CloseNormalClosure), ShouldBeTrue)
				So(hub.Count(), ShouldEqual, 0)
				<-src.unsub
			})

			Convey("And a disconnecting client is unregistered", func() {
				So(conn.Close(), ShouldBeNil)
				So(waitFor(func() bool { return hub.Count() == 0 }), ShouldBeTrue)
			})
		})
	})
}

// swappingSource publishes a newer snapshot the first time the hub asks
// for the loading flag, which happens while the first board is encoded.
type swappingSource struct {
	*fakeSource
	mu      sync.Mutex
	swapped bool
}

func (s *swappingSource) Current() *repository.Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current
}

func (s *swappingSource) Loading() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.swapped {
		s.swapped = true
		next := &repository.Snapshot{Entries: []model.Entry{
			{ID: "9", TeamName: "Late", Year: model.YearSecond, Department: "ME", TimeTaken: 45},
		}, Version: s.current.Version + 1}
		s.current = next
		go func() { s.ch <- next }()
	}
	return false
}

func TestHubSwapDuringConnect(t *testing.T) {
	Convey("Given a snapshot swap while a client's first board is encoded", t, func() {
		src := &swappingSource{fakeSource: newFakeSource()}
		hub := NewHub(src, DefaultConfig())
		r := chi.NewRouter()
		hub.Mount(r)
		srv := httptest.NewServer(r)
		defer srv.Close()

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		go hub.Run(ctx)

		conn, err := dial(srv.URL)
		So(err, ShouldBeNil)
		defer conn.Close()

		Convey("Then the client ends on the newer board", func() {
			first := readMessage(conn)
			So(first.Version, ShouldBeBetweenOrEqual, uint64(4), uint64(5))
			last := first
			if first.Version == 4 {
				last = readMessage(conn)
			}
			So(last.Version, ShouldEqual, uint64(5))
			So(last.Board.Rows, ShouldHaveLength, 1)
			So(last.Board.Rows[0].TeamName, ShouldEqual, "Late")
		})
	})
}

func TestHubGate(t *testing.T) {
	Convey("Given a hub gated by a failing check", t, func() {
		hub := NewHub(newFakeSource(), DefaultConfig(), WithGate(func() error {
			return errors.New("configuration missing")
		}))

		Convey("Then upgrades are refused with 503", func() {
			w := httptest.NewRecorder()
			hub.HandleWS(w, httptest.NewRequest(http.MethodGet, "/ws", http.NoBody))
			So(w.Code, ShouldEqual, http.StatusServiceUnavailable)
		})
	})
}

func TestHubRejectsPlainHTTP(t *testing.T) {
	Convey("Given a plain GET without upgrade headers", t, func() {
		hub := NewHub(newFakeSource(), DefaultConfig())
		w := httptest.NewRecorder()
		hub.HandleWS(w, httptest.NewRequest(http.MethodGet, "/ws", http.NoBody))

		Convey("Then the upgrader answers 400 and nothing registers", func() {
			So(w.Code, ShouldEqual, http.StatusBadRequest)
			So(hub.Count(), ShouldEqual, 0)
		})
	})
}
