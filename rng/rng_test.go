package rng

import (
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

func TestSourceDeterminism(t *testing.T) {
	Convey("Given two sources built from the same seed", t, func() {
		a := New(42)
		b := New(42)

		Convey("When drawing the same sequence of operations from each", func() {
			var drawsA, drawsB []float64
			for i := 0; i < 50; i++ {
				drawsA = append(drawsA, a.Float64())
				drawsB = append(drawsB, b.Float64())
			}

			Convey("Then the sequences are identical", func() {
				So(drawsA, ShouldResemble, drawsB)
			})
		})

		Convey("When drawing Intn, Bool, and Choice2 in the same order", func() {
			n1a, n1b := a.Intn(100), b.Intn(100)
			boolA, boolB := a.Bool(0.5), b.Bool(0.5)
			cA, cB := a.Choice2(1, 2), b.Choice2(1, 2)

			Convey("Then each pairing matches", func() {
				So(n1a, ShouldEqual, n1b)
				So(boolA, ShouldEqual, boolB)
				So(cA, ShouldEqual, cB)
			})
		})
	})
}

func TestHexEncoding(t *testing.T) {
	Convey("Given a seeded source", t, func() {
		s := New(7)

		Convey("When minting hex tags", func() {
			h16 := s.HexUint16()
			h32 := s.HexUint32()

			Convey("Then they are non-empty lowercase hex", func() {
				So(h16, ShouldNotBeEmpty)
				So(h32, ShouldNotBeEmpty)
				for _, c := range h16 + h32 {
					So(c, ShouldBeIn, []rune("0123456789abcdef"))
				}
			})
		})
	})
}
