// Package experiment reproduces the fixed activity schedules used to probe protocol
// behavior under changing population: a ramp up, a ramp down, a double ramp in each
// direction, and a churn process flipping individual nodes on and off at random.
//
// Grounded on original_source/experiments.py. run_n's plotting/do_print machinery and
// save_runs/read_runs are not part of this package: persistence lives in persist,
// invoked by a caller once a Run is built, matching how experiments.py itself only
// plots or persists outside the driver functions.
package experiment

import (
	"slotmac/network"
	"slotmac/protocol"
	"slotmac/rng"
	"slotmac/telemetry"
)

// PlayerFactory builds the idx'th player of an experiment's population. Callers
// close over an *rng.Source and any protocol-specific construction parameters.
type PlayerFactory func(idx int) protocol.Node

func buildNetwork(factory PlayerFactory, n int) *network.Network {
	players := make([]protocol.Node, n)
	for i := range players {
		players[i] = factory(i)
	}
	return network.New(players, nil, nil)
}

// Ramp runs the "10, 50, 30" active-population schedule: starts with the first 10 of
// 50 players active, ramps up to all 50 over 40 frames, holds, ramps down by 20 to 30
// active, then holds again.
func Ramp(factory PlayerFactory, frameLen int) *telemetry.Run {
	net := buildNetwork(factory, 50)
	for i := 10; i < 50; i++ {
		net.Players[i].SetActive(false)
	}
	run := telemetry.NewRun(net, frameLen)
	for i := 0; i < 50; i++ {
		run.RunFrame()
	}
	for i := 0; i < 40; i++ {
		net.Players[i+10].SetActive(true)
		run.RunFrame()
	}
	for i := 0; i < 100; i++ {
		run.RunFrame()
	}
	for i := 0; i < 20; i++ {
		net.Players[i].SetActive(false)
		run.RunFrame()
	}
	for i := 0; i < 100; i++ {
		run.RunFrame()
	}
	return run
}

// ReverseRamp runs the "50, 10, 40" active-population schedule: starts with all 50
// players active, ramps down to 10 over 40 frames, holds, ramps back up by 30 to 40
// active, then holds again.
func ReverseRamp(factory PlayerFactory, frameLen int) *telemetry.Run {
	net := buildNetwork(factory, 50)
	for i := 0; i < 50; i++ {
		net.Players[i].SetActive(true)
	}
	run := telemetry.NewRun(net, frameLen)
	for i := 0; i < 50; i++ {
		run.RunFrame()
	}
	for i := 0; i < 40; i++ {
		net.Players[i].SetActive(false)
		run.RunFrame()
	}
	for i := 0; i < 100; i++ {
		run.RunFrame()
	}
	for i := 0; i < 30; i++ {
		net.Players[i].SetActive(true)
		run.RunFrame()
	}
	for i := 0; i < 100; i++ {
		run.RunFrame()
	}
	return run
}

// RampUp builds maxNodes players, starting with only minNodes active, then activates
// one additional node per frame until all maxNodes are active, holding 20 frames
// before and after the ramp. It returns the slot-by-slot history trace covering
// exactly the ramp window, matching experiments.py's sliced net.history return (a
// Python list indexed by slot, not a string indexed by byte — node names can be more
// than one character, so the trace here is sliced by slot index too).
func RampUp(factory PlayerFactory, frameLen, minNodes, maxNodes int) []string {
	net := buildNetwork(factory, maxNodes)
	for i := minNodes; i < maxNodes; i++ {
		net.Players[i].SetActive(false)
	}
	run := telemetry.NewRun(net, frameLen)
	for i := 0; i < 20; i++ {
		run.RunFrame()
	}
	for i := 0; i < maxNodes-minNodes; i++ {
		net.Players[i+minNodes].SetActive(true)
		run.RunFrame()
	}
	for i := 0; i < 20; i++ {
		run.RunFrame()
	}
	full := net.History()
	start := 20 * frameLen
	end := (20 + maxNodes - minNodes) * frameLen
	return sliceHistory(full, start, end)
}

// RampDown builds maxNodes players, all active, then deactivates one node per frame
// from index minNodes upward until only the first minNodes remain active, holding 50
// frames before the ramp and 10 after. Returns the history trace of the ramp window.
func RampDown(factory PlayerFactory, frameLen, minNodes, maxNodes int) []string {
	net := buildNetwork(factory, maxNodes)
	run := telemetry.NewRun(net, frameLen)
	for i := 0; i < 50; i++ {
		run.RunFrame()
	}
	for i := 0; i < maxNodes-minNodes; i++ {
		net.Players[i+minNodes].SetActive(false)
		run.RunFrame()
	}
	for i := 0; i < 10; i++ {
		run.RunFrame()
	}
	full := net.History()
	start := 50 * frameLen
	end := (50 + maxNodes - minNodes) * frameLen
	return sliceHistory(full, start, end)
}

// Churn runs numSteps frames over numPlayers nodes whose active/inactive state is
// driven by an independent per-step random flip with probability churnRate. The
// schedule always starts with exactly the first and last node active, matching
// experiments.py's note that with delayed ack a single active node doesn't work.
func Churn(factory PlayerFactory, numPlayers, numSteps int, churnRate float64, frameLen int, r *rng.Source) *telemetry.Run {
	net := buildNetwork(factory, numPlayers)
	isActive := make([][]bool, numPlayers)
	for j := range isActive {
		isActive[j] = make([]bool, numSteps)
	}
	if numSteps > 0 {
		isActive[0][0] = true
		isActive[numPlayers-1][0] = true
	}
	for i := 1; i < numSteps; i++ {
		for j := 0; j < numPlayers; j++ {
			isActive[j][i] = isActive[j][i-1]
			if r.Float64() < churnRate {
				isActive[j][i] = !isActive[j][i]
			}
		}
	}

	for i := 0; i < numPlayers; i++ {
		net.Players[i].SetActive(false)
	}
	run := telemetry.NewRun(net, frameLen)
	for step := 0; step < numSteps; step++ {
		for j := 0; j < numPlayers; j++ {
			net.Players[j].SetActive(isActive[j][step])
		}
		run.RunFrame()
	}
	return run
}

// sliceHistory returns the slots in [start, end), operating on slot indices rather
// than byte offsets so multi-character node names never desync the window.
func sliceHistory(h []string, start, end int) []string {
	if start < 0 {
		start = 0
	}
	if end > len(h) {
		end = len(h)
	}
	if start >= end {
		return nil
	}
	return append([]string(nil), h[start:end]...)
}
