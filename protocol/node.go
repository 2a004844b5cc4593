// Package protocol implements the five self-learning channel-access state machines
// (EB-ALOHA, ALOHA-Q, ALOHA-QT, ALOHA-QTF, AT-ALOHA) and the minimal surface external,
// non-learning transmitters (TDMA, L16) must satisfy to share a medium with them.
//
// Each protocol is ported line-for-line from the original Python source
// (original_source/*.py in the retrieval pack) rather than redesigned: numerical
// constants, draw order, and update formulas are preserved exactly, since spec.md
// calls out that these details materially change measured results.
package protocol

// NodeName is an opaque short identifier. Uniqueness across a network is expected but
// not enforced; duplicates only degrade ParticipantCounter estimation quality.
type NodeName string

// Outcome is the slot-level feedback every node receives once per round, regardless of
// its own decision. Exactly one of Collision and Used is true, or neither (empty slot).
// Winner is non-nil iff Used is true.
type Outcome struct {
	Collision bool
	Used      bool
	Winner    *NodeName
}

// Node is the common capability set the round engine drives. Capability optionality
// (estimated player count, tree depth) is expressed by the ok return value rather than
// by interface probing/duck typing: callers that don't care can ignore it, and a
// protocol that has no notion of "depth" (ALOHA-QT) simply always returns ok=false.
type Node interface {
	// Decision reports whether this node transmits in the current slot. True only if
	// the node is active and its internal policy elects to transmit.
	Decision() bool

	// Learn delivers the round's outcome. Called exactly once per round for every node,
	// regardless of that node's own Decision.
	Learn(o Outcome)

	// Tick advances the node's internal time by one slot. Called after every node in
	// the round has learned from the round's outcome.
	Tick()

	SetActive(active bool)
	Active() bool

	Name() NodeName
	// DisplayName names the protocol family, e.g. "AT", "ALOHA-Q".
	DisplayName() string

	// EstimatedNumPlayers is the protocol's own estimate of the active population, if
	// it maintains one.
	EstimatedNumPlayers() (value float64, ok bool)
	// Depth is a single scalar summarizing the node's current policy depth/spread, for
	// visualization; not every protocol maintains a notion of depth.
	Depth() (value float64, ok bool)
}

// Transmitter is the minimal surface external, non-learning traffic sources (TDMA,
// L16) present to the round engine. Their state machines are not specified by
// spec.md; the round engine only needs a transmit decision, a name, and a clock tick.
type Transmitter interface {
	Transmit() bool
	Tick()
	Name() NodeName
}
