package participant

import (
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

type fixedRNG struct{ tag string }

func (f fixedRNG) HexUint32() string { return f.tag }

func TestCounterEstimate(t *testing.T) {
	Convey("Given a fresh counter with capacity 3", t, func() {
		c := NewCounter(3, fixedRNG{tag: "deadbeef"})

		Convey("When nothing has been seen", func() {
			Convey("Then estimate floors at 1", func() {
				So(c.Estimate(), ShouldEqual, 1)
			})
		})

		Convey("When two distinct tags are set", func() {
			c.Set("alice")
			c.Set("bob")

			Convey("Then count and estimate report 2", func() {
				So(c.Count(), ShouldEqual, 2)
				So(c.Estimate(), ShouldEqual, 2)
			})
		})

		Convey("When empty slots are recorded", func() {
			c.Set("")
			c.Set("")

			Convey("Then they don't count as participants", func() {
				So(c.Count(), ShouldEqual, 0)
				So(c.Estimate(), ShouldEqual, 1)
			})
		})

		Convey("When more entries than capacity are pushed", func() {
			c.Set("a")
			c.Set("b")
			c.Set("c")
			c.Set("d")

			Convey("Then only the most recent l entries are retained", func() {
				So(c.queue.Len(), ShouldEqual, 3)
			})
		})

		Convey("When a collision is hit repeatedly with distinct random tags", func() {
			c2 := NewCounter(5, &sequentialRNG{tags: []string{"t1", "t2", "t3"}})
			c2.Hit()
			c2.Hit()
			c2.Hit()

			Convey("Then each hit counts as a distinct participant", func() {
				So(c2.Count(), ShouldEqual, 3)
			})
		})
	})
}

type sequentialRNG struct {
	tags []string
	i    int
}

func (s *sequentialRNG) HexUint32() string {
	t := s.tags[s.i%len(s.tags)]
	s.i++
	return t
}
