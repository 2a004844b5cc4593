// Package network implements the synchronous round engine that drives a fixed set of
// protocol.Node players and external protocol.Transmitter sources (TDMA, L16) through
// one shared, slotted medium, one slot at a time.
//
// Grounded on original_source/network.py. The engine is deliberately single-threaded:
// spec.md calls for strict, reproducible draw ordering, which a goroutine-per-node
// design (as seen in the teacher's training loop) cannot guarantee.
package network

import (
	"slotmac/protocol"
)

// Network holds one round's worth of participants and their running slot counters.
// TDMA and L16 sources take transmission priority over players when computing the
// winner's display name, matching network.py's argmax-over-tdmas-then-l16s-then-
// players order, even though any second transmitter in the same slot still produces a
// collision.
type Network struct {
	Players []protocol.Node
	TDMAs   []*protocol.TDMA
	L16s    []*protocol.L16

	// history holds one entry per slot (a single-letter tag or a node name of any
	// length), so slicing by slot index never desyncs the way slicing a concatenated
	// string by byte offset would once any node name is longer than one character.
	history []string

	slotCounter      int
	collisionCounter int
	tdmaCounter      int
	playerCounter    []int
	l16Counter       []int
}

// New returns a network over the given players and external sources. At most three
// L16 channels are supported, matching network.py's set_l16s assertion.
func New(players []protocol.Node, tdmas []*protocol.TDMA, l16s []*protocol.L16) *Network {
	if len(l16s) > 3 {
		panic("network: at most three L16 channels are supported")
	}
	n := &Network{
		Players: players,
		TDMAs:   tdmas,
		L16s:    l16s,
	}
	n.ResetCounters()
	return n
}

// ResetCounters zeroes the per-frame accumulators without touching player state.
func (n *Network) ResetCounters() {
	n.slotCounter = 0
	n.collisionCounter = 0
	n.tdmaCounter = 0
	n.playerCounter = make([]int, len(n.Players))
	n.l16Counter = make([]int, len(n.L16s))
}

// History returns the per-slot trace accumulated across all rounds ever played on
// this network (network.py's __repr__, which is a Python list sliced by slot index
// rather than a concatenated string sliced by byte offset).
func (n *Network) History() []string { return append([]string(nil), n.history...) }

// Round performs exactly one slot of simulation: every transmitter's decision is
// drawn (TDMAs first, then L16s, then players, in index order — the fixed draw order
// spec.md requires for reproducibility), the outcome is computed, every player learns
// from it regardless of its own decision, counters update, and finally every
// transmitter and player ticks its clock forward by one slot.
func (n *Network) Round() {
	n.slotCounter++

	tdmaFires := make([]bool, len(n.TDMAs))
	numTDMAs := 0
	for i, t := range n.TDMAs {
		tdmaFires[i] = t.Transmit()
		if tdmaFires[i] {
			numTDMAs++
		}
	}

	l16Fires := make([]bool, len(n.L16s))
	numL16s := 0
	for i, l := range n.L16s {
		l16Fires[i] = l.Transmit()
		if l16Fires[i] {
			numL16s++
		}
	}

	playerFires := make([]bool, len(n.Players))
	numPlayers := 0
	for i, p := range n.Players {
		playerFires[i] = p.Decision()
		if playerFires[i] {
			numPlayers++
		}
	}

	total := numTDMAs + numL16s + numPlayers
	collision := total > 1
	used := total == 1

	var winner *protocol.NodeName
	if used {
		switch {
		case numTDMAs > 0:
			for i, fired := range tdmaFires {
				if fired {
					name := n.TDMAs[i].Name()
					winner = &name
					break
				}
			}
		case numL16s > 0:
			for i, fired := range l16Fires {
				if fired {
					name := n.L16s[i].Name()
					winner = &name
					break
				}
			}
		default:
			for i, fired := range playerFires {
				if fired {
					name := n.Players[i].Name()
					winner = &name
					break
				}
			}
		}
	}

	outcome := protocol.Outcome{Collision: collision, Used: used, Winner: winner}
	for _, p := range n.Players {
		p.Learn(outcome)
	}

	if collision {
		n.collisionCounter++
		n.history = append(n.history, "C")
	} else {
		var slot string
		switch {
		case numTDMAs > 0:
			n.tdmaCounter++
			slot = "T"
		case numL16s > 0:
			slot = "L"
		case numPlayers > 0 && winner != nil:
			slot = string(*winner)
		default:
			slot = "_"
		}
		for i, fired := range playerFires {
			if fired {
				n.playerCounter[i]++
			}
		}
		for i, fired := range l16Fires {
			if fired {
				n.l16Counter[i]++
			}
		}
		n.history = append(n.history, slot)
	}

	for _, t := range n.TDMAs {
		t.Tick()
	}
	for _, l := range n.L16s {
		l.Tick()
	}
	for _, p := range n.Players {
		p.Tick()
	}
}

// TDMAUtilization returns the fraction of slots this frame used by TDMA traffic.
func (n *Network) TDMAUtilization() float64 {
	if n.slotCounter == 0 {
		return 0
	}
	return float64(n.tdmaCounter) / float64(n.slotCounter)
}

// L16Utilization returns, per channel, the fraction of slots this frame it used.
func (n *Network) L16Utilization() []float64 {
	out := make([]float64, len(n.l16Counter))
	for i, c := range n.l16Counter {
		if n.slotCounter == 0 {
			continue
		}
		out[i] = float64(c) / float64(n.slotCounter)
	}
	return out
}

// PlayerUtilization returns, per player, the fraction of slots this frame it won.
func (n *Network) PlayerUtilization() []float64 {
	out := make([]float64, len(n.playerCounter))
	for i, c := range n.playerCounter {
		if n.slotCounter == 0 {
			continue
		}
		out[i] = float64(c) / float64(n.slotCounter)
	}
	return out
}

// Collisions returns the fraction of slots this frame that collided.
func (n *Network) Collisions() float64 {
	if n.slotCounter == 0 {
		return 0
	}
	return float64(n.collisionCounter) / float64(n.slotCounter)
}

// PlayerDepths reports each player's Depth(): players without a depth report 0 and
// are flagged false in the parallel ok slice.
func (n *Network) PlayerDepths() ([]float64, []bool) {
	depths := make([]float64, len(n.Players))
	oks := make([]bool, len(n.Players))
	for i, p := range n.Players {
		depths[i], oks[i] = p.Depth()
	}
	return depths, oks
}

// EstimatedNumPlayers reports each player's EstimatedNumPlayers(), parallel to
// PlayerDepths.
func (n *Network) EstimatedNumPlayers() ([]float64, []bool) {
	ests := make([]float64, len(n.Players))
	oks := make([]bool, len(n.Players))
	for i, p := range n.Players {
		ests[i], oks[i] = p.EstimatedNumPlayers()
	}
	return ests, oks
}

// PlayerLabels returns each player's protocol display name.
func (n *Network) PlayerLabels() []string {
	out := make([]string, len(n.Players))
	for i, p := range n.Players {
		out[i] = p.DisplayName()
	}
	return out
}

// PlayerActive reports whether each player is currently active.
func (n *Network) PlayerActive() []bool {
	out := make([]bool, len(n.Players))
	for i, p := range n.Players {
		out[i] = p.Active()
	}
	return out
}
