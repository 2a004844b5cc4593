// Package telemetry aggregates per-slot network outcomes into per-frame and
// per-statistical-block summaries: utilization, collision rate, and fairness.
//
// Grounded on original_source/run.py's Run class. The plotting half of that class
// (matplotlib figures) is intentionally not ported — spec.md's non-goals exclude a
// visualization surface, and SPEC_FULL.md routes live visualization through the
// liveview package's websocket push instead of static plots.
package telemetry

import (
	"math"
	"sort"

	"slotmac/network"
)

// Run drives a network frame-by-frame (a frame is FrameLen consecutive slots) and
// accumulates the statistics needed both for persistence and for fairness analysis.
type Run struct {
	Net      *network.Network
	FrameLen int

	TDMAUtilization   []float64
	L16Utilization    [][]float64
	PlayerUtilization [][]float64
	Actives           [][]bool
	Collisions        []float64
	Depths            [][]float64
	EstimatedN        [][]float64
}

// NewRun returns a Run over net, advancing frame by frameLen slots per RunFrame call
// (100, matching run.py's default, if frameLen<=0).
func NewRun(net *network.Network, frameLen int) *Run {
	if frameLen <= 0 {
		frameLen = 100
	}
	return &Run{Net: net, FrameLen: frameLen}
}

// RunFrame advances the network by one frame's worth of slots and snapshots its
// counters, then resets them for the next frame.
func (r *Run) RunFrame() {
	for j := 0; j < r.FrameLen; j++ {
		r.Net.Round()
	}
	r.TDMAUtilization = append(r.TDMAUtilization, r.Net.TDMAUtilization())
	r.L16Utilization = append(r.L16Utilization, r.Net.L16Utilization())
	r.PlayerUtilization = append(r.PlayerUtilization, r.Net.PlayerUtilization())
	r.Actives = append(r.Actives, r.Net.PlayerActive())
	r.Collisions = append(r.Collisions, r.Net.Collisions())
	depths, _ := r.Net.PlayerDepths()
	r.Depths = append(r.Depths, depths)
	estN, _ := r.Net.EstimatedNumPlayers()
	r.EstimatedN = append(r.EstimatedN, estN)
	r.Net.ResetCounters()
}

// Stats is the fully reduced summary of a Run: per-frame totals plus per-statistical-
// block fairness, matching the shape experiments.py's run_to_dict persists (field
// names there become persist's JSON keys).
type Stats struct {
	// TotalUtilization, Empty, CollisionsOut, and NumActive are one entry per frame.
	TotalUtilization []float64
	Empty            []float64
	CollisionsOut    []float64
	NumActive        []int

	// Jain, BottomFairRatio, and MidFairRatio are one entry per statistical block of
	// StatLen frames. BottomFairRatio and MidFairRatio entries are nil when the block
	// has too few active players to form the corresponding group.
	Jain            []float64
	BottomFairRatio []*float64
	MidFairRatio    []*float64
}

// PrepareStats reduces the accumulated per-frame history into a Stats summary.
// statLen is the number of frames per statistical block (10, matching run.py's
// default, if statLen<=0); bottomFraction is the fraction of active players counted
// as the "bottom" group for BottomFairRatio (0.1, matching run.py's default, if <=0).
func (r *Run) PrepareStats(statLen int, bottomFraction float64) Stats {
	if statLen <= 0 {
		statLen = 10
	}
	if bottomFraction <= 0 {
		bottomFraction = 0.1
	}

	numFrames := len(r.PlayerUtilization)
	numPlayers := 0
	if numFrames > 0 {
		numPlayers = len(r.PlayerUtilization[0])
	}

	s := Stats{
		TotalUtilization: make([]float64, numFrames),
		Empty:            make([]float64, numFrames),
		CollisionsOut:    append([]float64(nil), r.Collisions...),
		NumActive:        make([]int, numFrames),
	}
	for i := 0; i < numFrames; i++ {
		total := r.TDMAUtilization[i]
		for _, u := range r.L16Utilization[i] {
			total += u
		}
		for _, u := range r.PlayerUtilization[i] {
			total += u
		}
		s.TotalUtilization[i] = total
		s.Empty[i] = 1 - total - r.Collisions[i]
		active := 0
		for _, a := range r.Actives[i] {
			if a {
				active++
			}
		}
		s.NumActive[i] = active
	}

	numStatTimes := numFrames / statLen
	for b := 0; b < numStatTimes; b++ {
		lo, hi := b*statLen, (b+1)*statLen

		// A player counts as "active" for this block only if it was active every
		// frame in the block, matching run.py's np.all over the block.
		var utils []float64
		for j := 0; j < numPlayers; j++ {
			allActive := true
			avg := 0.0
			for i := lo; i < hi; i++ {
				if !r.Actives[i][j] {
					allActive = false
				}
				avg += r.PlayerUtilization[i][j]
			}
			avg /= float64(statLen)
			if allActive {
				utils = append(utils, avg*float64(r.FrameLen*statLen))
			}
		}

		numActivePlayers := len(utils)
		totUtil := 0.0
		sumSquares := 0.0
		for _, u := range utils {
			totUtil += u
			sumSquares += u * u
		}
		var jain float64
		if numActivePlayers > 0 && sumSquares > 0 {
			jain = (totUtil * totUtil) / (float64(numActivePlayers) * sumSquares)
		}
		s.Jain = append(s.Jain, jain)

		sort.Float64s(utils)
		numBottom := int(math.Ceil(float64(numActivePlayers) * bottomFraction))
		numMid := int(math.Ceil(float64(numActivePlayers) / 2))

		if numBottom == 0 {
			s.BottomFairRatio = append(s.BottomFairRatio, nil)
		} else {
			bottomUtil := sum(utils[:numBottom])
			fairUtil := totUtil * float64(numBottom) / float64(numActivePlayers)
			ratio := bottomUtil / fairUtil
			s.BottomFairRatio = append(s.BottomFairRatio, &ratio)
		}
		if numMid == 0 {
			s.MidFairRatio = append(s.MidFairRatio, nil)
		} else {
			midUtil := sum(utils[:numMid])
			fairUtil := totUtil * float64(numMid) / float64(numActivePlayers)
			ratio := midUtil / fairUtil
			s.MidFairRatio = append(s.MidFairRatio, &ratio)
		}
	}

	return s
}

func sum(xs []float64) float64 {
	total := 0.0
	for _, x := range xs {
		total += x
	}
	return total
}
