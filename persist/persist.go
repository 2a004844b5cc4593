// Package persist saves and loads telemetry.Stats as JSON, matching the exact key
// names original_source/experiments.py's run_to_dict/dict_to_run/save_runs/read_runs
// used, so archived result files from the original tooling remain loadable.
package persist

import (
	"encoding/json"
	"os"

	"slotmac/telemetry"
)

// record is the on-disk shape of one telemetry.Stats, matching run_to_dict's keys
// exactly. BottomFairRatio entries serialize as JSON null where the Python original
// appended None.
type record struct {
	Utilization []float64  `json:"utilization"`
	Jain        []float64  `json:"jain"`
	BFR         []*float64 `json:"bfr"`
	Empty       []float64  `json:"empty,omitempty"`
	Collisions  []float64  `json:"collisions,omitempty"`
	NumActive   []int      `json:"num_active,omitempty"`

	// MidFairRatio is not part of the original run_to_dict key set; it's an addition
	// supplementing a metric run.py computes but experiments.py never persisted.
	MidFairRatio []*float64 `json:"mid_fair_ratio,omitempty"`
}

func toRecord(s telemetry.Stats) record {
	return record{
		Utilization:  s.TotalUtilization,
		Jain:         s.Jain,
		BFR:          s.BottomFairRatio,
		Empty:        s.Empty,
		Collisions:   s.CollisionsOut,
		NumActive:    s.NumActive,
		MidFairRatio: s.MidFairRatio,
	}
}

// fromRecord decodes tolerantly: a record missing empty/collisions/num_active (as
// dict_to_run's try/except allows for older files) simply leaves those fields nil.
func fromRecord(rec record) telemetry.Stats {
	return telemetry.Stats{
		TotalUtilization: rec.Utilization,
		Jain:             rec.Jain,
		BottomFairRatio:  rec.BFR,
		Empty:            rec.Empty,
		CollisionsOut:    rec.Collisions,
		NumActive:        rec.NumActive,
		MidFairRatio:     rec.MidFairRatio,
	}
}

// SaveRuns writes runs to path as a JSON array, matching save_runs.
func SaveRuns(path string, runs []telemetry.Stats) error {
	records := make([]record, len(runs))
	for i, r := range runs {
		records[i] = toRecord(r)
	}
	data, err := json.Marshal(records)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

// ReadRuns reads a JSON array of runs from path, matching read_runs. Decoding is
// tolerant of missing optional fields (empty, collisions, num_active, mid_fair_ratio);
// unknown extra fields in the file are ignored.
func ReadRuns(path string) ([]telemetry.Stats, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var records []record
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, err
	}
	runs := make([]telemetry.Stats, len(records))
	for i, rec := range records {
		runs[i] = fromRecord(rec)
	}
	return runs, nil
}
