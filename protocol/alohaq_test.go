package protocol

import (
	"testing"

	. "github.com/smartystreets/goconvey/convey"
	"slotmac/rng"
)

func TestAlohaQDecisionGating(t *testing.T) {
	Convey("Given an inactive ALOHA-Q node", t, func() {
		r := rng.New(1)
		q := NewAlohaQ("n", false, 8, r)

		Convey("When Decision is polled", func() {
			got := q.Decision()

			Convey("Then the gated result is always false even if the internal intent fired", func() {
				So(got, ShouldBeFalse)
			})
		})
	})

	Convey("Given an active ALOHA-Q node whose slot matches the current tick", t, func() {
		r := rng.New(2)
		q := NewAlohaQ("n", true, 4, r)
		q.slot = 0
		q.frame = 0
		q.scheduledFrame = 0

		Convey("When Decision is polled at t=0", func() {
			got := q.Decision()

			Convey("Then it transmits and Learn keys off the raw intent", func() {
				So(got, ShouldBeTrue)
				So(q.decisionIntent, ShouldBeTrue)
			})
		})
	})
}

func TestAlohaQLearnUpdatesQ(t *testing.T) {
	Convey("Given a node that decided to transmit this slot", t, func() {
		r := rng.New(3)
		q := NewAlohaQ("n", true, 4, r)
		q.slot = 0
		q.frame = 0
		q.scheduledFrame = 0
		q.Decision()

		Convey("When the outcome is a successful use", func() {
			before := q.Q[0]
			q.Learn(Outcome{Used: true})

			Convey("Then Q at the current index moves toward +1 and backoff resets", func() {
				So(q.Q[0], ShouldBeGreaterThan, before)
				So(q.W, ShouldEqual, 1)
				So(q.retry, ShouldEqual, 0)
			})
		})

		Convey("When the outcome is a collision", func() {
			q.Learn(Outcome{Collision: true})

			Convey("Then the backoff window doubles and retry increments", func() {
				So(q.W, ShouldEqual, 2)
				So(q.retry, ShouldEqual, 1)
			})
		})
	})

	Convey("Given a node that did not decide to transmit", t, func() {
		r := rng.New(4)
		q := NewAlohaQ("n", true, 4, r)
		q.slot = 1
		q.t = 0
		q.Decision()
		before := make([]float64, len(q.Q))
		copy(before, q.Q)

		Convey("When any outcome arrives", func() {
			q.Learn(Outcome{Used: true})

			Convey("Then Q is untouched", func() {
				So(q.Q, ShouldResemble, before)
			})
		})
	})
}
