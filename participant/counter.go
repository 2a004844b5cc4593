// Package participant provides ParticipantCounter, a bounded history of recently-seen
// transmitter tags used to estimate how many distinct nodes are sharing the medium.
//
// Grounded on original_source/participant_counter.py.
package participant

import "container/list"

// randSource is the minimal draw surface Counter needs; satisfied by *rng.Source.
type randSource interface {
	HexUint32() string
}

// Counter is a bounded FIFO of optional tags (protocol.NodeName strings, or empty for
// "no one/unknown"). Estimate() reports the number of distinct non-empty tags among
// the last L entries (from Hit and Set alike), floored at 1 (a node always counts
// itself).
//
// TransmissionCounter and spy() from the Python original are not ported: neither is
// referenced by any other module in the original source tree.
type Counter struct {
	l     int
	queue *list.List

	rng randSource
}

// NewCounter returns a counter retaining the most recent l entries (100 if l<=0).
func NewCounter(l int, r randSource) *Counter {
	if l <= 0 {
		l = 100
	}
	return &Counter{l: l, queue: list.New(), rng: r}
}

// Hit records a collision: since the colliding tags aren't individually known, a fresh
// random 32-bit hex tag stands in for "someone, distinct from anyone else we've seen".
func (c *Counter) Hit() {
	c.queue.PushFront(c.rng.HexUint32())
	c.normalize()
}

// Set records the tag of the node that used the slot, or "" for an empty slot.
func (c *Counter) Set(tag string) {
	c.queue.PushFront(tag)
	c.normalize()
}

// Count returns the number of distinct non-empty tags currently retained.
func (c *Counter) Count() int {
	seen := make(map[string]struct{}, c.queue.Len())
	for e := c.queue.Front(); e != nil; e = e.Next() {
		tag := e.Value.(string)
		if tag == "" {
			continue
		}
		seen[tag] = struct{}{}
	}
	return len(seen)
}

// Estimate returns the estimated number of distinct participants, at least 1.
func (c *Counter) Estimate() float64 {
	if n := c.Count(); n > 1 {
		return float64(n)
	}
	return 1
}

func (c *Counter) normalize() {
	if c.queue.Len() > c.l {
		c.queue.Remove(c.queue.Back())
	}
}
