package protocol

import (
	"testing"

	. "github.com/smartystreets/goconvey/convey"
	"slotmac/rng"
)

func TestAlohaQTWeightsStayBounded(t *testing.T) {
	Convey("Given a fresh ALOHA-QT node", t, func() {
		r := rng.New(10)
		q := NewAlohaQT("n", true, 4, r)

		Convey("When running many rounds of mixed outcomes", func() {
			outcomes := []Outcome{
				{Collision: true},
				{Used: true},
				{},
			}
			for i := 0; i < 500; i++ {
				q.Decision()
				q.Learn(outcomes[i%len(outcomes)])
				q.Tick()
			}

			Convey("Then every weight stays within [0, 1]", func() {
				for _, w := range q.W {
					So(w, ShouldBeBetweenOrEqual, 0.0, 1.0)
				}
			})
		})
	})
}

func TestAlohaQTDecisionIsPreGated(t *testing.T) {
	Convey("Given an inactive ALOHA-QT node", t, func() {
		r := rng.New(11)
		q := NewAlohaQT("n", false, 2, r)

		Convey("When Decision is computed", func() {
			got := q.Decision()

			Convey("Then the gated decision is false even though it is also stored for Learn", func() {
				So(got, ShouldBeFalse)
				So(q.decision, ShouldBeFalse)
			})
		})
	})
}

func TestAlohaQTNoCapabilities(t *testing.T) {
	Convey("Given an ALOHA-QT node", t, func() {
		r := rng.New(12)
		q := NewAlohaQT("n", true, 2, r)

		Convey("When asked for estimated players or depth", func() {
			_, okP := q.EstimatedNumPlayers()
			_, okD := q.Depth()

			Convey("Then neither capability is offered", func() {
				So(okP, ShouldBeFalse)
				So(okD, ShouldBeFalse)
			})
		})
	})
}
