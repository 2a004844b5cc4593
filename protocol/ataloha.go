package protocol

import (
	"math"
	"sort"
)

// atPolicy is one leaf of an AT-ALOHA node's transmit schedule: transmit whenever
// t mod 2^N == I. The tree of policies partitions (or partially covers) the slot
// index space; siblings are merged into their parent when both exist, keeping the
// tree well-formed.
type atPolicy struct {
	I, N int
}

// ATAloha is the AT-ALOHA protocol: a tree of periodic policies that claims more
// slots by inserting a policy when slots go empty ("empty incentive"), and gives up
// a held policy for one of its children one level finer (half the bandwidth) on
// collision or, with the "kind incentive" probability, in any other slot where one
// of its policies fired, trading off throughput against fairness to other nodes.
//
// Grounded on original_source/at_aloha.py.
type ATAloha struct {
	name   NodeName
	active bool
	t      uint64

	KindIncentive     float64
	KindAdaptation    float64
	MinKindIncentive  float64
	EmptyIncentive    float64
	EmptyAdaptation   float64
	FreeToCollision   float64
	MinEmptyIncentive float64

	MaxNumPolicies     int
	MaxLevelDifference int
	StartLevelOffset   int
	// Kindness is the target fraction (one every n slots) of slots a node aims to
	// leave free, default 20, matching at_aloha.py's fixed constructor default.
	Kindness int

	policies []atPolicy

	// decision is AT's raw pre-active-gate intent (did any policy's phase match this
	// tick), mirroring at_aloha.py's self.decision. Learn keys off this, not off the
	// active-gated Decision() return value (self.transmit).
	decision bool
	strategy atPolicy

	cCount, fCount, uCount int

	rng randSource
}

// NewATAloha constructs an AT-ALOHA node with a single initial policy at initialLevel
// (default 1), phase drawn uniformly from [0, 2^initialLevel).
func NewATAloha(name string, active bool, initialLevel int, r randSource) *ATAloha {
	if initialLevel <= 0 {
		initialLevel = 1
	}
	nm := NodeName(name)
	if name == "" {
		nm = NodeName(r.HexUint16())
	}
	a := &ATAloha{
		name:               nm,
		active:             active,
		KindIncentive:      0.05,
		KindAdaptation:     0.98,
		MinKindIncentive:   1e-2,
		EmptyIncentive:     0.1,
		EmptyAdaptation:    0.99,
		FreeToCollision:    1.39,
		MinEmptyIncentive:  1e-3,
		MaxNumPolicies:     10,
		MaxLevelDifference: 2,
		StartLevelOffset:   3,
		Kindness:           20,
		rng:                r,
	}
	a.policies = []atPolicy{{I: r.Intn(1 << uint(initialLevel)), N: initialLevel}}
	return a
}

func (a *ATAloha) Decision() bool {
	a.decision = false
	a.strategy = atPolicy{}
	for _, p := range a.policies {
		if int(a.t%uint64(1<<uint(p.N))) == p.I {
			a.strategy = p
			a.decision = true
			break
		}
	}
	return a.decision && a.active
}

func (a *ATAloha) bandwidth() float64 {
	bw := 0.0
	for _, p := range a.policies {
		bw += 1.0 / float64(uint64(1)<<uint(p.N))
	}
	return bw
}

func clip(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func (a *ATAloha) levelForNewNode() int {
	numPlayers := a.estimatedNumPlayers()
	bw := a.bandwidth()
	discrepancy := clip(math.Log2(bw*numPlayers), -1, 1)
	return int(math.Ceil(math.Log2(numPlayers) + discrepancy + float64(a.StartLevelOffset)))
}

func (a *ATAloha) isSubpolicy(p1, p2 atPolicy) bool {
	return p1.N < p2.N && p2.I%(1<<uint(p1.N)) == p1.I
}

func (a *ATAloha) clearSubtree(p atPolicy) {
	kept := a.policies[:0:0]
	for _, pp := range a.policies {
		if !a.isSubpolicy(p, pp) {
			kept = append(kept, pp)
		}
	}
	a.policies = kept
}

func (a *ATAloha) normalizeSiblings(p atPolicy) {
	if p.N == 0 {
		return
	}
	m := 1 << uint(p.N-1)
	leftC := p.I % m
	rightC := m + leftC
	hasLeft, hasRight := false, false
	for _, pp := range a.policies {
		if pp.N == p.N && pp.I == leftC {
			hasLeft = true
		}
		if pp.N == p.N && pp.I == rightC {
			hasRight = true
		}
	}
	if hasLeft && hasRight {
		a.removePolicy(atPolicy{I: leftC, N: p.N})
		a.removePolicy(atPolicy{I: rightC, N: p.N})
		parent := atPolicy{I: leftC, N: p.N - 1}
		a.policies = append(a.policies, parent)
		a.normalizeSiblings(parent)
	}
}

func (a *ATAloha) removePolicy(p atPolicy) {
	for i, pp := range a.policies {
		if pp == p {
			a.policies = append(a.policies[:i], a.policies[i+1:]...)
			return
		}
	}
}

func (a *ATAloha) normalizeTree(p atPolicy) {
	a.clearSubtree(p)
	a.normalizeSiblings(p)
}

func (a *ATAloha) demoteNode(i, n int) {
	a.removePolicy(atPolicy{I: i, N: n})
	covered := 0
	for _, pp := range a.policies {
		if pp.N <= n {
			covered++
		}
	}
	if covered == 0 {
		m := 1 << uint(n)
		newI := a.rng.Choice2(i, i+m)
		a.policies = append(a.policies, atPolicy{I: newI, N: n + 1})
	}
}

func (a *ATAloha) insertPolicy() {
	n := a.levelForNewNode()
	if n < 0 {
		n = 0
	}
	i := int(a.t % uint64(1<<uint(n)))
	p := atPolicy{I: i, N: n}
	a.policies = append(a.policies, p)
	a.normalizeTree(p)
}

func (a *ATAloha) simplifyTree() {
	a.rng.Shuffle(len(a.policies), func(i, j int) {
		a.policies[i], a.policies[j] = a.policies[j], a.policies[i]
	})
	sort.SliceStable(a.policies, func(i, j int) bool {
		return a.policies[i].N < a.policies[j].N
	})
	minLevel := a.policies[0].N
	filtered := a.policies[:0:0]
	for _, p := range a.policies {
		if p.N < minLevel+a.MaxLevelDifference {
			filtered = append(filtered, p)
		}
	}
	if len(filtered) > a.MaxNumPolicies {
		filtered = filtered[:a.MaxNumPolicies]
	}
	a.policies = filtered
}

func (a *ATAloha) Learn(o Outcome) {
	switch {
	case o.Collision:
		a.cCount++
		a.KindIncentive /= a.KindAdaptation
		a.EmptyIncentive *= math.Pow(a.EmptyAdaptation, a.FreeToCollision)
	case o.Used:
		a.KindIncentive /= a.KindAdaptation
		a.uCount++
	default:
		a.EmptyIncentive /= a.EmptyAdaptation
		a.KindIncentive *= math.Pow(a.KindAdaptation, float64(a.Kindness))
		a.fCount++
	}
	a.EmptyIncentive = clip(a.EmptyIncentive, a.MinEmptyIncentive, 0.5)
	a.KindIncentive = clip(a.KindIncentive, a.MinKindIncentive, 0.5)

	switch {
	case a.decision:
		p := a.strategy
		if o.Collision {
			a.demoteNode(p.I, p.N)
		} else if a.rng.Float64() < a.KindIncentive {
			a.demoteNode(p.I, p.N)
		}
	case !o.Used:
		if a.rng.Float64() < a.EmptyIncentive {
			a.insertPolicy()
		}
	}

	a.simplifyTree()
}

func (a *ATAloha) Tick() {
	a.t++
}

func (a *ATAloha) SetActive(active bool) { a.active = active }
func (a *ATAloha) Active() bool          { return a.active }

func (a *ATAloha) Name() NodeName     { return a.name }
func (a *ATAloha) DisplayName() string { return "AT" }

func (a *ATAloha) estimatedNumPlayers() float64 {
	return 1.0 / (0.0000001 + a.EmptyIncentive)
}

func (a *ATAloha) EstimatedNumPlayers() (float64, bool) {
	return a.estimatedNumPlayers(), true
}

func (a *ATAloha) Depth() (float64, bool) {
	max := a.policies[0].N
	for _, p := range a.policies[1:] {
		if p.N > max {
			max = p.N
		}
	}
	return float64(max), true
}
