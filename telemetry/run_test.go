package telemetry

import (
	"testing"

	. "github.com/smartystreets/goconvey/convey"

	"slotmac/network"
	"slotmac/protocol"
	"slotmac/rng"
)

func TestRunFrameAccumulatesStats(t *testing.T) {
	Convey("Given a run over two always-on EB-ALOHA players (guaranteed collision)", t, func() {
		r := rng.New(200)
		p1 := protocol.NewEBAloha("a", true, r)
		p2 := protocol.NewEBAloha("b", true, r)
		p1.P, p2.P = 1.0, 1.0
		net := network.New([]protocol.Node{p1, p2}, nil, nil)
		// A one-slot frame: after a collision both players back off below P=1, so only
		// the first slot is a guaranteed collision.
		run := NewRun(net, 1)

		Convey("When a frame runs", func() {
			run.RunFrame()

			Convey("Then collisions are recorded at 100% for the frame", func() {
				So(run.Collisions, ShouldHaveLength, 1)
				So(run.Collisions[0], ShouldEqual, 1.0)
			})
		})
	})
}

func TestPrepareStatsFairness(t *testing.T) {
	Convey("Given a run over one always-on, always-active EB-ALOHA player alone on its network", t, func() {
		r := rng.New(201)
		p1 := protocol.NewEBAloha("a", true, r)
		net := network.New([]protocol.Node{p1}, nil, nil)
		p1.P = 1.0
		run := NewRun(net, 10)

		Convey("When 10 frames run (one statistical block)", func() {
			for i := 0; i < 10; i++ {
				run.RunFrame()
			}
			stats := run.PrepareStats(10, 0.1)

			Convey("Then Jain's index for the single fully-utilized player is 1", func() {
				So(stats.Jain, ShouldHaveLength, 1)
				So(stats.Jain[0], ShouldAlmostEqual, 1.0, 1e-9)
			})

			Convey("Then the bottom fair ratio is also 1 (the one player is its own fair share)", func() {
				So(*stats.BottomFairRatio[0], ShouldAlmostEqual, 1.0, 1e-9)
			})
		})
	})
}
