package normalize

import "math/rand/v2"

// IDGenerator hands out ids that are unique within one batch.
type IDGenerator interface {
	// Next returns an id not handed out or claimed before.
	Next() int64
	// Claim reserves a caller-supplied id. It reports false if the id is taken.
	Claim(id int64) bool
}

// Counter is a monotonic generator starting at 1.
type Counter struct {
	next int64
	seen map[int64]struct{}
}

func NewCounter() *Counter {
	return &Counter{next: 1, seen: map[int64]struct{}{}}
}

func (c *Counter) Next() int64 {
	for {
		id := c.next
		c.next++
		if _, taken := c.seen[id]; !taken {
			c.seen[id] = struct{}{}
			return id
		}
	}
}

func (c *Counter) Claim(id int64) bool {
	if _, taken := c.seen[id]; taken {
		return false
	}
	c.seen[id] = struct{}{}
	return true
}

// RandomIDs draws from [1, max] and retries on collision.
type RandomIDs struct {
	max  int64
	rng  *rand.Rand
	seen map[int64]struct{}
}

// NewRandomIDs returns a generator over [1, max]; max <= 0 means 1,000,000.
// A nil rng uses the process-wide source.
func NewRandomIDs(max int64, rng *rand.Rand) *RandomIDs {
	if max <= 0 {
		max = 1_000_000
	}
	return &RandomIDs{max: max, rng: rng, seen: map[int64]struct{}{}}
}

func (g *RandomIDs) Next() int64 {
	for int64(len(g.seen)) < g.max {
		var id int64
		if g.rng != nil {
			id = g.rng.Int64N(g.max) + 1
		} else {
			id = rand.Int64N(g.max) + 1
		}
		if g.Claim(id) {
			return id
		}
	}
	// space exhausted; continue past max
	id := g.max + 1
	for !g.Claim(id) {
		id++
	}
	return id
}

func (g *RandomIDs) Claim(id int64) bool {
	if _, taken := g.seen[id]; taken {
		return false
	}
	g.seen[id] = struct{}{}
	return true
}
