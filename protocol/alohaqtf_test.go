package protocol

import (
	"testing"

	. "github.com/smartystreets/goconvey/convey"
	"slotmac/rng"
)

func TestAlohaQTFBandwidthFairness(t *testing.T) {
	Convey("Given an ALOHA-QTF node", t, func() {
		r := rng.New(40)
		q := NewAlohaQTF("n", true, 3, r)

		Convey("When running rounds where it keeps winning", func() {
			for i := 0; i < 50; i++ {
				q.Decision()
				q.Learn(Outcome{Used: true})
				q.Tick()
			}

			Convey("Then it tracks a requested bandwidth and a player estimate", func() {
				So(q.RequestedBandwidth, ShouldBeGreaterThan, 0)
				So(q.NumPlayers, ShouldBeGreaterThanOrEqualTo, 1)
			})

			Convey("Then weights remain bounded", func() {
				for _, w := range q.W {
					So(w, ShouldBeBetweenOrEqual, 0.0, 1.0)
				}
			})
		})
	})
}

func TestAlohaQTFDisplayName(t *testing.T) {
	Convey("Given an ALOHA-QTF node", t, func() {
		r := rng.New(41)
		q := NewAlohaQTF("n", true, 2, r)

		Convey("When asked for its display name", func() {
			Convey("Then it reports ALOHA-QTF, not its embedded ALOHA-QT's name", func() {
				So(q.DisplayName(), ShouldEqual, "ALOHA-QTF")
			})
		})
	})
}
