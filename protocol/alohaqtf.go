package protocol

import (
	"math"

	"slotmac/participant"
)

// AlohaQTF is ALOHA-QT extended with fairness awareness: it tracks the recent
// participant population via a participant.Counter and scales its weight updates so
// that nodes requesting more than their fair share of bandwidth back off harder and
// gain less from success.
//
// Grounded on original_source/aloha_qtf.py, which subclasses ALOHA_QT.
type AlohaQTF struct {
	*AlohaQT

	participants *participant.Counter

	NumPlayers         float64
	RequestedBandwidth float64
	FairBandwidth      float64
}

// NewAlohaQTF constructs an ALOHA-QTF node. Matches QTF.__init__'s defaults: inc_empty
// 0.5 and relinquish 0.02 differ from plain ALOHA-QT's 0.2/0.02 in the inc_empty case.
func NewAlohaQTF(name string, active bool, maxPeriodExponent int, r randSource) *AlohaQTF {
	if maxPeriodExponent <= 0 {
		maxPeriodExponent = 8
	}
	base := NewAlohaQT(name, active, maxPeriodExponent, r)
	base.IncEmpty = 0.5
	base.Relinquish = 0.02

	counterRNG, ok := r.(interface{ HexUint32() string })
	if !ok {
		panic("protocol: randSource must also provide HexUint32 for ALOHA-QTF's participant counter")
	}
	return &AlohaQTF{
		AlohaQT:            base,
		participants:       participant.NewCounter(1<<uint(maxPeriodExponent), counterRNG),
		NumPlayers:         1,
		RequestedBandwidth: 1,
		FairBandwidth:      1,
	}
}

func (q *AlohaQTF) DisplayName() string { return "ALOHA-QTF" }

func (q *AlohaQTF) EstimatedNumPlayers() (float64, bool) {
	return q.NumPlayers, true
}

// bandwidth computes the fraction of the channel this node's currently-selected
// policies claim, skipping any selected policy that is a harmonic sub-period of an
// already-counted coarser policy (e.g. period 4 phase 1 is a child of period 2 phase 1).
func (q *AlohaQTF) bandwidth() float64 {
	type periodPhase struct{ k, n int }
	var chosen []periodPhase
	bw := 0.0
	for i, selected := range q.selectedPolicies {
		if !selected {
			continue
		}
		k, n := q.K[i], q.N[i]
		isSub := false
		for _, other := range chosen {
			if n > other.n && k%other.n == other.k {
				isSub = true
				break
			}
		}
		if !isSub {
			bw += 1.0 / float64(n)
			chosen = append(chosen, periodPhase{k, n})
		}
	}
	return bw
}

// updateFactorFair is QTF's fairness-scaled replacement for AlohaQT.updateFactor: the
// magnitude of every weight update is additionally scaled by f in [0, 1], where r is
// requested over fair bandwidth: gains use f = 1 - r^2, shrinking as r approaches 1
// and vanishing at or above it; losses use f = sqrt(r), softened below fair share
// and at full strength at or above it.
func (q *AlohaQTF) updateFactorFair(sign float64, incAmount float64) []float64 {
	ratio := q.RequestedBandwidth / q.FairBandwidth
	var f float64
	if sign > 0 {
		f = 1 - math.Pow(ratio, 2.0)
	} else {
		f = math.Sqrt(ratio)
	}
	if f < 0 {
		f = 0
	}
	if f > 1 {
		f = 1
	}
	out := make([]float64, q.numPolicies)
	for i := 0; i < q.numPolicies; i++ {
		active := 0.0
		if q.activePolicies[i] {
			active = 1.0
		}
		out[i] = math.Exp(sign * incAmount * active * q.rng.Float64() * f)
	}
	return out
}

func (q *AlohaQTF) Learn(o Outcome) {
	q.NumPlayers = q.participants.Estimate()
	q.RequestedBandwidth = q.bandwidth()
	q.FairBandwidth = 1.0 / q.NumPlayers

	var f []float64
	switch {
	case o.Collision:
		q.participants.Hit()
		f = q.updateFactorFair(-1, q.IncCollision)
	case o.Used:
		winnerTag := ""
		if o.Winner != nil {
			winnerTag = string(*o.Winner)
		}
		q.participants.Set(winnerTag)
		if q.decision {
			f = q.updateFactorFair(1, q.IncSuccess)
		} else {
			f = q.updateFactorFair(-1, q.IncPotentialCollision)
		}
	default:
		q.participants.Set("")
		f = q.updateFactorFair(1, q.IncEmpty)
	}

	newW := make([]float64, q.numPolicies)
	for i := range newW {
		newW[i] = q.W[i] * f[i]
	}

	if q.decision && q.rng.Float64() < q.Relinquish && q.RequestedBandwidth > q.FairBandwidth {
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
