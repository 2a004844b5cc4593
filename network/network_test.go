package network

import (
	"testing"

	. "github.com/smartystreets/goconvey/convey"

	"slotmac/protocol"
	"slotmac/rng"
)

func TestRoundOutcomeInvariant(t *testing.T) {
	Convey("Given a network with two EB-ALOHA players forced to always transmit", t, func() {
		r := rng.New(100)
		p1 := protocol.NewEBAloha("a", true, r)
		p2 := protocol.NewEBAloha("b", true, r)
		p1.P = 1.0
		p2.P = 1.0
		net := New([]protocol.Node{p1, p2}, nil, nil)

		Convey("When a round runs", func() {
			net.Round()

			Convey("Then it is recorded as a collision, not a use", func() {
				So(net.Collisions(), ShouldEqual, 1.0)
			})
		})
	})

	Convey("Given a network with one always-on EB-ALOHA player", t, func() {
		r := rng.New(101)
		p1 := protocol.NewEBAloha("solo", true, r)
		p1.P = 1.0
		net := New([]protocol.Node{p1}, nil, nil)

		Convey("When a round runs", func() {
			net.Round()

			Convey("Then it is recorded as a use with no collision", func() {
				So(net.Collisions(), ShouldEqual, 0.0)
				So(net.PlayerUtilization()[0], ShouldEqual, 1.0)
			})
		})
	})

	Convey("Given a network with one always-off EB-ALOHA player", t, func() {
		r := rng.New(102)
		p1 := protocol.NewEBAloha("quiet", true, r)
		p1.P = 0.0
		net := New([]protocol.Node{p1}, nil, nil)

		Convey("When a round runs", func() {
			net.Round()

			Convey("Then the slot is empty: no collision, no use", func() {
				So(net.Collisions(), ShouldEqual, 0.0)
				So(net.PlayerUtilization()[0], ShouldEqual, 0.0)
			})
		})
	})
}

func TestTDMATakesPriorityAsWinner(t *testing.T) {
	Convey("Given a network with one TDMA source and one silent player", t, func() {
		r := rng.New(103)
		p1 := protocol.NewEBAloha("quiet", true, r)
		p1.P = 0.0
		tdma := protocol.NewTDMA("t0", 1, 0)
		net := New([]protocol.Node{p1}, []*protocol.TDMA{tdma}, nil)

		Convey("When a round runs", func() {
			net.Round()

			Convey("Then the TDMA slot is counted as used", func() {
				So(net.TDMAUtilization(), ShouldEqual, 1.0)
				So(net.Collisions(), ShouldEqual, 0.0)
			})
		})
	})
}

func TestL16ChannelCapEnforced(t *testing.T) {
	Convey("Given four L16 channels", t, func() {
		r := rng.New(104)
		l16s := []*protocol.L16{
			protocol.NewL16("l0", 0.1, r),
			protocol.NewL16("l1", 0.1, r),
			protocol.NewL16("l2", 0.1, r),
			protocol.NewL16("l3", 0.1, r),
		}

		Convey("When constructing a network with them", func() {
			build := func() { New(nil, nil, l16s) }

			Convey("Then it panics, matching set_l16s's assertion of at most three", func() {
				So(build, ShouldPanic)
			})
		})
	})
}
