package checkpoint

import (
	"path/filepath"
	"testing"

	"github.com/coder/quartz"
	. "github.com/smartystreets/goconvey/convey"

	"github.com/riverrun/chessrl/network"
)

func testNetwork(t *testing.T) *network.Wrapper {
	t.Helper()
	w, err := network.New(network.Config{
		Features: 8, Outputs: 4, BatchSize: 1,
		Hidden:      []int{6},
		Activations: []*network.Activation{network.ReLU()},
		LearnRate:   1e-3,
	})
	if err != nil {
		t.Fatalf("network.New: %v", err)
	}
	return w
}

func TestCheckpointLifecycle(t *testing.T) {
	Convey("Given a manager backed by a temp directory", t, func() {
		dir := t.TempDir()
		clock := quartz.NewMock(t)
		mgr, err := New(Config{Dir: dir, MaxVersions: 2, Clock: clock})
		So(err, ShouldBeNil)

		Convey("Creating a checkpoint writes weights and metadata to disk", func() {
			net := testNetwork(t)
			info, err := mgr.Create(net, 1, 0.5, Metadata{Cycle: 1, Notes: "first"})
			So(err, ShouldBeNil)
			So(info.Valid, ShouldBeTrue)
			So(info.SizeBytes, ShouldBeGreaterThan, 0)
			So(filepath.Dir(info.Path), ShouldEqual, dir)

			created, loaded, deleted := mgr.Counters()
			So(created, ShouldEqual, 1)
			So(loaded, ShouldEqual, 0)
			So(deleted, ShouldEqual, 0)

			Convey("Loading it back into a fresh network succeeds", func() {
				other := testNetwork(t)
				err := mgr.Load(info, other)
				So(err, ShouldBeNil)
				_, loaded, _ := mgr.Counters()
				So(loaded, ShouldEqual, 1)
			})

			Convey("The first checkpoint becomes the best by default", func() {
				best, ok := mgr.Best()
				So(ok, ShouldBeTrue)
				So(best.Version, ShouldEqual, 1)
			})

			Convey("A strictly better later checkpoint becomes the new best", func() {
				_, err := mgr.Create(net, 2, 0.9, Metadata{Cycle: 2})
				So(err, ShouldBeNil)
				best, ok := mgr.Best()
				So(ok, ShouldBeTrue)
				So(best.Version, ShouldEqual, 2)
			})

			Convey("Exceeding MaxVersions prunes the worst non-best checkpoint", func() {
				_, err := mgr.Create(net, 2, 0.1, Metadata{Cycle: 2})
				So(err, ShouldBeNil)
				_, err = mgr.Create(net, 3, 0.2, Metadata{Cycle: 3})
				So(err, ShouldBeNil)

				versions := mgr.Versions()
				So(len(versions), ShouldEqual, 2)

				best, ok := mgr.Best()
				So(ok, ShouldBeTrue)
				So(best.Version, ShouldEqual, 1) // 0.5 still beats 0.1 and 0.2

				_, hasTwo := mgr.Get(2)
				So(hasTwo, ShouldBeFalse) // lowest-performing and not best: evicted
			})
		})

		Convey("Comparing two checkpoints buckets the recommendation by magnitude", func() {
			net := testNetwork(t)
			_, err := mgr.Create(net, 1, 1.0, Metadata{})
			So(err, ShouldBeNil)
			_, err = mgr.Create(net, 2, 1.2, Metadata{})
			So(err, ShouldBeNil)

			result, err := mgr.Compare(1, 2)
			So(err, ShouldBeNil)
			So(result.Delta, ShouldAlmostEqual, 0.2, 1e-9)
			So(result.Recommendation, ShouldEqual, "strong improvement")
		})

		Convey("Comparing an unknown version fails", func() {
			_, err := mgr.Compare(1, 2)
			So(err, ShouldNotBeNil)
		})
	})
}

func TestRecommendBuckets(t *testing.T) {
	Convey("recommend classifies percent deltas into magnitude buckets", t, func() {
		So(recommend(15), ShouldEqual, "strong improvement")
		So(recommend(7), ShouldEqual, "moderate improvement")
		So(recommend(2), ShouldEqual, "slight improvement")
		So(recommend(0), ShouldEqual, "no significant change")
		So(recommend(-3), ShouldEqual, "slight regression")
		So(recommend(-9), ShouldEqual, "significant regression")
	})
}
