package liveview

import "slotmac/telemetry"

// FrameFromRun builds a Frame snapshot of the most recently completed frame of run
// (run.RunFrame resets the network's counters as its last step, so the snapshot is
// read back from Run's own accumulated history rather than the live network).
func FrameFromRun(run *telemetry.Run) Frame {
	i := len(run.Collisions) - 1
	if i < 0 {
		return Frame{}
	}
	return Frame{
		Index:             i,
		Collisions:        run.Collisions[i],
		TDMAUtilization:   run.TDMAUtilization[i],
		PlayerUtilization: run.PlayerUtilization[i],
		PlayerLabels:      run.Net.PlayerLabels(),
		Active:            run.Actives[i],
	}
}
