package protocol

import "math"

// AlohaQT is the ALOHA-QT protocol: a bank of periodic policies (period 2^m, phase k,
// for m in [0, maxPeriodExponent]) each carrying a transmit weight in [0, 1]. A policy
// "fires" when the clock matches its phase; the node transmits if any firing policy's
// weight clears the optimality window (or is the single best-weighted policy).
//
// Grounded on original_source/aloha_qt.py.
type AlohaQT struct {
	name   NodeName
	active bool
	time   uint64

	OptimalityWindow      float64
	InitialTransmit       float64
	IncSuccess            float64
	IncCollision          float64
	IncPotentialCollision float64
	IncEmpty              float64
	Relinquish            float64
	MaxPeriodExponent     int

	N []int // policy period
	K []int // policy phase
	W []float64

	numPolicies int

	activePolicies   []bool
	selectedPolicies []bool

	// decision is already active-gated at computation time (aloha_qt.py computes
	// self.decision = self.active * (...) > 0), unlike AlohaQ/ATAloha. Learn's checks
	// against it are therefore naturally gated too; no separate pre-gate intent field
	// is needed here.
	decision bool

	rng randSource
}

// NewAlohaQT constructs an ALOHA-QT node with policies for periods 2^0..2^maxPeriodExponent.
func NewAlohaQT(name string, active bool, maxPeriodExponent int, r randSource) *AlohaQT {
	if maxPeriodExponent <= 0 {
		maxPeriodExponent = 8
	}
	nm := NodeName(name)
	if name == "" {
		nm = NodeName(r.HexUint16())
	}
	q := &AlohaQT{
		name:                  nm,
		active:                active,
		OptimalityWindow:      0.95,
		InitialTransmit:       0.25,
		IncSuccess:            0.2,
		IncCollision:          0.5,
		IncPotentialCollision: 0.5,
		IncEmpty:              0.2,
		Relinquish:            2e-2,
		MaxPeriodExponent:     maxPeriodExponent,
		rng:                   r,
	}

	const initialNoise = 0.1
	for m := 0; m <= maxPeriodExponent; m++ {
		n := 1 << uint(m)
		for k := 0; k < n; k++ {
			w := q.InitialTransmit * ((1.0 - initialNoise) + initialNoise*r.Float64())
			q.N = append(q.N, n)
			q.K = append(q.K, k)
			q.W = append(q.W, w/math.Pow(1.2, float64(m)))
		}
	}
	q.numPolicies = len(q.N)
	q.activePolicies = make([]bool, q.numPolicies)
	q.selectedPolicies = make([]bool, q.numPolicies)
	return q
}

func (q *AlohaQT) argmaxW() int {
	best := 0
	for i := 1; i < q.numPolicies; i++ {
		if q.W[i] > q.W[best] {
			best = i
		}
	}
	return best
}

func (q *AlohaQT) Decision() bool {
	sum := 0.0
	for i := 0; i < q.numPolicies; i++ {
		q.activePolicies[i] = int(q.time)%q.N[i] == q.K[i]
		q.selectedPolicies[i] = q.W[i] > q.OptimalityWindow
	}
	q.selectedPolicies[q.argmaxW()] = true
	for i := 0; i < q.numPolicies; i++ {
		if q.activePolicies[i] && q.selectedPolicies[i] {
			sum++
		}
	}
	q.decision = q.active && sum > 0
	return q.decision
}

// updateFactor returns exp(sign * incAmount * activePolicies * noise), elementwise.
func (q *AlohaQT) updateFactor(sign float64, incAmount float64) []float64 {
	out := make([]float64, q.numPolicies)
	for i := 0; i < q.numPolicies; i++ {
		active := 0.0
		if q.activePolicies[i] {
			active = 1.0
		}
		out[i] = math.Exp(sign * incAmount * active * q.rng.Float64())
	}
	return out
}

func (q *AlohaQT) Learn(o Outcome) {
	newW := make([]float64, q.numPolicies)
	switch {
	case o.Collision:
		f := q.updateFactor(-1, q.IncCollision)
		for i := range newW {
			newW[i] = q.W[i] * f[i]
		}
	case o.Used:
		if q.decision {
			f := q.updateFactor(1, q.IncSuccess)
			for i := range newW {
				newW[i] = q.W[i] * f[i]
			}
		} else {
			f := q.updateFactor(-1, q.IncPotentialCollision)
			for i := range newW {
				newW[i] = q.W[i] * f[i]
			}
		}
	default:
		f := q.updateFactor(1, q.IncEmpty)
		for i := range newW {
			newW[i] = q.W[i] * f[i]
		}
	}

	if q.decision && q.rng.Float64() < q.Relinquish {
		for i := range newW {
			if q.activePolicies[i] {
				newW[i] = 0
			}
		}
	}

	oldSum := 0.0
	for i := range newW {
		if newW[i] > 1.0 {
			newW[i] = 1.0
		}
		oldSum += q.W[i]
	}
	newSum := 0.0
	for _, v := range newW {
		newSum += v
	}
	decrease := oldSum - newSum
	if decrease > 0 && newSum < q.InitialTransmit*float64(q.numPolicies) {
		inc := make([]float64, q.numPolicies)
		incSum := 0.0
		for i := range inc {
			inc[i] = q.rng.Float64()
			incSum += inc[i]
		}
		for i := range newW {
			newW[i] += (inc[i] / incSum) * decrease
			if newW[i] > 1.0 {
				newW[i] = 1.0
			}
		}
	}
	q.W = newW
}

func (q *AlohaQT) Tick() {
	q.time++
}

func (q *AlohaQT) SetActive(active bool) { q.active = active }
func (q *AlohaQT) Active() bool          { return q.active }

func (q *AlohaQT) Name() NodeName     { return q.name }
func (q *AlohaQT) DisplayName() string { return "ALOHA-QT" }

// EstimatedNumPlayers is not maintained by ALOHA-QT.
func (q *AlohaQT) EstimatedNumPlayers() (float64, bool) { return 0, false }

// Depth is not maintained by ALOHA-QT.
func (q *AlohaQT) Depth() (float64, bool) { return 0, false }
