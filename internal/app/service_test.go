package service_test

import (
	"context"
	"errors"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/okian/huntboard/internal/adapters/repository"
	service "github.com/okian/huntboard/internal/app"
	"github.com/okian/huntboard/internal/config"
	"github.com/okian/huntboard/internal/domain/model"
	"github.com/okian/huntboard/pkg/logger"
)

func init() {
	if err := logger.Init(); err != nil {
		panic(err)
	}
}

func eventually(cond func() bool) bool {
	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return true
		}
		time.Sleep(10 * time.Millisecond)
	}
	return false
}

func newEntry(team string, secs int) model.NewEntry {
	return model.NewEntry{TeamName: team, Year: model.YearSecond, Department: "CS", TimeTaken: secs}
}

func TestService_Degraded(t *testing.T) {
	Convey("Given a service without a remote store", t, func() {
		svc := service.New(service.WithLogger(logger.NewNop()))
		So(svc.Start(context.Background()), ShouldBeNil)
		defer svc.Stop()

		Convey("It reports the configuration problem", func() {
			So(errors.Is(svc.Degraded(), config.ErrConfigurationMissing), ShouldBeTrue)
			So(svc.GetStats()["degraded"], ShouldEqual, true)
		})

		Convey("It is not loading and shows an empty board", func() {
			board, loading := svc.Board("", "")
			So(loading, ShouldBeFalse)
			So(board.Rows, ShouldBeEmpty)
		})

		Convey("Commands are refused", func() {
			_, err := svc.Submit(context.Background(), "", newEntry("x", 1))
			So(errors.Is(err, repository.ErrDetached), ShouldBeTrue)
			So(errors.Is(svc.Remove(context.Background(), "id"), repository.ErrDetached), ShouldBeTrue)
			_, err = svc.Reload(context.Background())
			So(errors.Is(err, service.ErrDegraded), ShouldBeTrue)
		})
	})

	Convey("Given a connector that cannot reach the store", t, func() {
		svc := service.New(
			service.WithLogger(logger.NewNop()),
			service.WithConnector(func(context.Context) (*service.Remote, error) {
				return nil, service.ErrStoreUnreachable
			}),
		)
		So(svc.Start(context.Background()), ShouldBeNil)
		defer svc.Stop()

		So(errors.Is(svc.Degraded(), service.ErrStoreUnreachable), ShouldBeTrue)
	})
}

func TestService_Sync(t *testing.T) {
	ctx := context.Background()

	Convey("Given a service over an in-memory remote", t, func() {
		remote := &memRemote{rows: []model.Entry{
			{ID: "seed-1", TeamName: "Owls", Year: model.YearFirst, Department: "IT", TimeTaken: 500},
			{ID: "seed-2", TeamName: "Foxes", Year: model.YearFirst, Department: "CS", TimeTaken: 120},
		}}
		svc := service.New(
			service.WithLogger(logger.NewNop()),
			service.WithWorkerCount(2),
			service.WithRemote(&service.Remote{Store: remote, Notifier: remote}),
		)
		So(svc.Start(ctx), ShouldBeNil)
		defer svc.Stop()

		Convey("The initial reload fills the snapshot in time order", func() {
			So(svc.Degraded(), ShouldBeNil)
			board, loading := svc.Board("", model.DepartmentAll)
			So(loading, ShouldBeFalse)
			So(board.Rows, ShouldHaveLength, 2)
			So(board.Rows[0].TeamName, ShouldEqual, "Foxes")
			So(board.Stats.Mean, ShouldEqual, 310)
		})

		Convey("An insert shows up after the reload it triggers", func() {
			dup, err := svc.Submit(ctx, "key-1", newEntry("Badgers", 60))
			So(err, ShouldBeNil)
			So(dup, ShouldBeFalse)
			So(eventually(func() bool { return len(svc.Entries()) == 3 }), ShouldBeTrue)

			board, _ := svc.Board("badg", "")
			So(board.Rows, ShouldHaveLength, 1)
			So(board.Rows[0].Rank, ShouldEqual, 1)
		})

		Convey("A repeated idempotency key is not sent twice", func() {
			_, err := svc.Submit(ctx, "key-2", newEntry("Moles", 90))
			So(err, ShouldBeNil)
			dup, err := svc.Submit(ctx, "key-2", newEntry("Moles", 90))
			So(err, ShouldBeNil)
			So(dup, ShouldBeTrue)
			So(eventually(func() bool { return len(svc.Entries()) == 3 }), ShouldBeTrue)
		})

		Convey("A failed insert releases its idempotency key", func() {
			remote.setFailing(true)
			_, err := svc.Submit(ctx, "key-3", newEntry("Moles", 90))
			So(err, ShouldNotBeNil)
			remote.setFailing(false)

			dup, err := svc.Submit(ctx, "key-3", newEntry("Moles", 90))
			So(err, ShouldBeNil)
			So(dup, ShouldBeFalse)
		})

		Convey("A delete removes the row after the reload", func() {
			So(svc.Remove(ctx, "seed-1"), ShouldBeNil)
			So(eventually(func() bool { return len(svc.Entries()) == 1 }), ShouldBeTrue)
		})

		Convey("A failing manual reload keeps the snapshot", func() {
			remote.setFailing(true)
			_, err := svc.Reload(ctx)
			So(err, ShouldNotBeNil)
			So(svc.Entries(), ShouldHaveLength, 2)
		})

		Convey("A manual reload reports the size", func() {
			n, err := svc.Reload(ctx)
			So(err, ShouldBeNil)
			So(n, ShouldEqual, 2)
		})

		Convey("Stop closes the subscription", func() {
			svc.Stop()
			So(eventually(func() bool { return remote.subs[0].isClosed() }), ShouldBeTrue)
			So(svc.GetStats()["started"], ShouldEqual, false)
		})
	})
}
