// Package queue provides the bounded candidate heap used by brute-force
// nearest-neighbor searches.
package queue

// Candidate is one search candidate: a dense row slot and its distance
// from the query. Value-based to keep the heap allocation-free.
type Candidate struct {
	Slot     uint32
	Distance float32
}

// Bounded is a fixed-capacity max-heap of search candidates. Offering a
// candidate to a full heap evicts the current farthest entry when the new
// candidate is closer, so after any sequence of offers the heap holds the
// k nearest candidates seen so far.
type Bounded struct {
	capacity int
	items    []Candidate
}

// NewBounded creates a bounded candidate heap holding at most capacity items.
func NewBounded(capacity int) *Bounded {
	if capacity < 1 {
		capacity = 1
	}
	return &Bounded{
		capacity: capacity,
		items:    make([]Candidate, 0, capacity),
	}
}

// Len returns the number of candidates currently held.
func (b *Bounded) Len() int { return len(b.items) }

// Offer considers a candidate for inclusion.
func (b *Bounded) Offer(c Candidate) {
	if len(b.items) < b.capacity {
		b.items = append(b.items, c)
		b.siftUp(len(b.items) - 1)
		return
	}
	if c.Distance >= b.items[0].Distance {
		return
	}
	b.items[0] = c
	b.siftDown(0)
}

// Drain removes all candidates and returns them sorted by ascending
// distance. The heap is empty (and reusable) afterwards.
func (b *Bounded) Drain() []Candidate {
	out := make([]Candidate, len(b.items))
	for i := len(b.items) - 1; i >= 0; i-- {
		out[i] = b.pop()
	}
	return out
}

// Reset clears the heap for reuse.
func (b *Bounded) Reset() {
	b.items = b.items[:0]
}

func (b *Bounded) pop() Candidate {
	n := len(b.items)
	root := b.items[0]
	last := b.items[n-1]
	b.items[n-1] = Candidate{}
	b.items = b.items[:n-1]
	if n-1 > 0 {
		b.items[0] = last
		b.siftDown(0)
	}
	return root
}

func (b *Bounded) less(i, j int) bool {
	return b.items[i].Distance > b.items[j].Distance
}

func (b *Bounded) siftUp(i int) {
	for i > 0 {
		p := (i - 1) / 2
		if !b.less(i, p) {
			return
		}
		b.items[i], b.items[p] = b.items[p], b.items[i]
		i = p
	}
}

func (b *Bounded) siftDown(i int) {
	n := len(b.items)
	for {
		l := 2*i + 1
		if l >= n {
			return
		}
		best := l
		if r := l + 1; r < n && b.less(r, l) {
			best = r
		}
		if !b.less(best, i) {
			return
		}
		b.items[i], b.items[best] = b.items[best], b.items[i]
		i = best
	}
}
