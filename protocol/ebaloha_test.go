package protocol

import (
	"testing"

	. "github.com/smartystreets/goconvey/convey"
	"slotmac/rng"
)

func TestEBAlohaBackoffOnCollision(t *testing.T) {
	Convey("Given a fresh EB-ALOHA node", t, func() {
		r := rng.New(30)
		e := NewEBAloha("n", true, r)
		before := e.P

		Convey("When a collision is learned", func() {
			e.Learn(Outcome{Collision: true})

			Convey("Then P shrinks", func() {
				So(e.P, ShouldBeLessThan, before)
			})
		})

		Convey("When an empty slot is learned", func() {
			e.Learn(Outcome{})

			Convey("Then P grows, capped at 1", func() {
				So(e.P, ShouldBeGreaterThan, before)
				So(e.P, ShouldBeLessThanOrEqualTo, 1.0)
			})
		})

		Convey("When a successful use by someone else is learned", func() {
			e.Learn(Outcome{Used: true})

			Convey("Then P is unchanged", func() {
				So(e.P, ShouldEqual, before)
			})
		})
	})
}

func TestEBAlohaEstimates(t *testing.T) {
	Convey("Given an EB-ALOHA node with P=0.5", t, func() {
		r := rng.New(31)
		e := NewEBAloha("n", true, r)

		Convey("When asked for its estimated player count", func() {
			est, ok := e.EstimatedNumPlayers()

			Convey("Then it reports 1/P", func() {
				So(ok, ShouldBeTrue)
				So(est, ShouldEqual, 2.0)
			})
		})
	})
}
