package protocol

import "math"

// AlohaQ is the ALOHA-Q player from Chu et al.: a Q-learner over slot indices within a
// fixed-size frame, with exponential backoff of frame spacing on repeated collision.
//
// Grounded on original_source/aloha_q.py.
type AlohaQ struct {
	name   NodeName
	active bool

	N int // slots per frame
	Q []float64

	slot int // currently preferred slot index within the frame
	t    uint64

	W              int // backoff window
	frame          int
	scheduledFrame int
	retry          int
	retryLimit     int

	Alpha float64
	Gamma float64 // stored, never used in the update — see spec.md's open question.

	// decisionIntent mirrors aloha_q.py's self.decision: whether the preferred slot and
	// frame matched this tick, computed before the active gate. Learn keys off this raw
	// intent, not off the active-gated value Decision() returns (a node that "wanted"
	// the slot but was inactive still updates Q from the round's outcome).
	decisionIntent bool

	rng randSource
}

// NewAlohaQ constructs an ALOHA-Q node with N slots per frame (default 64 if n<=0).
func NewAlohaQ(name string, active bool, n int, r randSource) *AlohaQ {
	if n <= 0 {
		n = 64
	}
	nm := NodeName(name)
	if name == "" {
		nm = NodeName(r.HexUint16())
	}
	q := &AlohaQ{
		name:       nm,
		active:     active,
		N:          n,
		Q:          make([]float64, n),
		W:          1,
		retryLimit: 6,
		Alpha:      0.9,
		Gamma:      0.9,
		rng:        r,
	}
	q.slot = q.argmaxNoisyQ()
	return q
}

// argmaxNoisyQ returns argmax(Q + U[0,1)*1e-10), redrawn per call so frame-boundary
// ties break stochastically while numpy's argmax first-max rule is preserved when no
// noise tie occurs (ties between distinct random draws are vanishingly unlikely, but
// the first-max scan below matches numpy's behavior regardless).
func (q *AlohaQ) argmaxNoisyQ() int {
	best := 0
	bestVal := math.Inf(-1)
	for i := 0; i < q.N; i++ {
		v := q.Q[i] + q.rng.Float64()*1e-10
		if v > bestVal {
			bestVal = v
			best = i
		}
	}
	return best
}

func (q *AlohaQ) Decision() bool {
	q.decisionIntent = q.slot == int(q.t%uint64(q.N)) && q.frame == q.scheduledFrame
	return q.decisionIntent && q.active
}

func (q *AlohaQ) Learn(o Outcome) {
	if !q.decisionIntent {
		return
	}
	idx := int(q.t % uint64(q.N))
	if o.Collision {
		q.W *= 2
		q.updateQ(idx, -1)
		q.retry++
		if q.retry > q.retryLimit {
			q.retry = 0
			q.W = 1
			q.frame = 0
			q.scheduledFrame = 0
		} else {
			q.scheduledFrame = q.rng.Intn(q.W)
		}
	}
	if o.Used {
		q.updateQ(idx, 1)
		q.retry = 0
		q.W = 1
		q.frame = 0
		q.scheduledFrame = 0
	}
}

// updateQ applies Q[idx] += alpha * (reward - Q[idx]).
func (q *AlohaQ) updateQ(idx int, reward float64) {
	old := q.Q[idx]
	q.Q[idx] = old + q.Alpha*(reward-old)
}

func (q *AlohaQ) Tick() {
	q.t++
	q.frame = int((q.t / uint64(q.N))) % q.W
	if q.t%uint64(q.N) == 0 {
		q.slot = q.argmaxNoisyQ()
	}
}

func (q *AlohaQ) SetActive(active bool) { q.active = active }
func (q *AlohaQ) Active() bool          { return q.active }

func (q *AlohaQ) Name() NodeName     { return q.name }
func (q *AlohaQ) DisplayName() string { return "ALOHA-Q" }

func (q *AlohaQ) EstimatedNumPlayers() (float64, bool) {
	return float64(q.N), true
}

func (q *AlohaQ) Depth() (float64, bool) {
	return -math.Log2(float64(q.N)), true
}
