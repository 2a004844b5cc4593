package persist

import (
	"os"
	"path/filepath"
	"testing"

	. "github.com/smartystreets/goconvey/convey"

	"slotmac/telemetry"
)

func TestSaveAndReadRunsRoundTrip(t *testing.T) {
	Convey("Given a Stats value with a nil bottom fair ratio entry", t, func() {
		ratio := 0.87
		runs := []telemetry.Stats{
			{
				TotalUtilization: []float64{0.1, 0.2},
				Jain:             []float64{1.0},
				BottomFairRatio:  []*float64{nil},
				MidFairRatio:     []*float64{&ratio},
				Empty:            []float64{0.8, 0.7},
				CollisionsOut:    []float64{0.1, 0.1},
				NumActive:        []int{2, 2},
			},
		}
		path := filepath.Join(t.TempDir(), "runs.json")

		Convey("When saved and reloaded", func() {
			err := SaveRuns(path, runs)
			So(err, ShouldBeNil)

			got, err := ReadRuns(path)
			So(err, ShouldBeNil)

			Convey("Then the round trip preserves every field", func() {
				So(got, ShouldHaveLength, 1)
				So(got[0].TotalUtilization, ShouldResemble, runs[0].TotalUtilization)
				So(got[0].Jain, ShouldResemble, runs[0].Jain)
				So(got[0].BottomFairRatio[0], ShouldBeNil)
				So(*got[0].MidFairRatio[0], ShouldEqual, ratio)
			})
		})
	})

	Convey("Given a JSON file missing optional keys", t, func() {
		path := filepath.Join(t.TempDir(), "legacy.json")
		err := os.WriteFile(path, []byte(`[{"utilization":[0.5],"jain":[1.0],"bfr":[null]}]`), 0o644)
		So(err, ShouldBeNil)

		Convey("When read", func() {
			got, err := ReadRuns(path)

			Convey("Then it decodes without error and leaves missing fields nil", func() {
				So(err, ShouldBeNil)
				So(got, ShouldHaveLength, 1)
				So(got[0].Empty, ShouldBeNil)
				So(got[0].CollisionsOut, ShouldBeNil)
			})
		})
	})
}
