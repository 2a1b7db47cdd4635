package controls

import "fmt"

// Pool is an arena of recycled events of one kind. Slots [0, Used()) are
// live, slots [Used(), Len()) are free. Allocation reuses the first free slot
// or grows the arena, deallocation swaps the freed event with the last live
// one, so both are O(1) and the live region stays compact.
//
// A Pool is guarded by the lock of the device that owns it.
type Pool struct {
	kind   ControlKind
	events []*Event
	used   int
	grown  uint64
}

// PoolStats is a point in time view of a Pool.
type PoolStats struct {
	Used     int
	Capacity int
	// Grown counts allocations that had to construct a new event.
	Grown uint64
}

// NewPool returns an empty pool for events of the given kind.
func NewPool(kind ControlKind) *Pool {
	switch kind {
	case BooleanKind, AnalogKind:
	default:
		panic(fmt.Sprintf("controls: unhandled event kind %d", kind))
	}
	return &Pool{kind: kind}
}

// Kind is the kind of every event in the pool.
func (p *Pool) Kind() ControlKind { return p.kind }

// Used is the number of live events.
func (p *Pool) Used() int { return p.used }

// Len is the number of events ever constructed by the pool.
func (p *Pool) Len() int { return len(p.events) }

// Stats returns the pool counters.
func (p *Pool) Stats() PoolStats {
	return PoolStats{Used: p.used, Capacity: len(p.events), Grown: p.grown}
}

// Allocate hands out a live event. A reused event keeps its previous
// contents, the caller overwrites them before use.
func (p *Pool) Allocate() *Event {
	var e *Event
	if p.used < len(p.events) {
		e = p.events[p.used]
	} else {
		e = &Event{kind: p.kind, pool: p}
		p.events = append(p.events, e)
		p.grown++
	}
	e.slot = p.used
	p.used++
	return e
}

// Live reports whether e is a live event of this pool.
func (p *Pool) Live(e *Event) bool {
	return e != nil &&
		e.pool == p &&
		e.slot >= 0 &&
		e.slot < p.used &&
		p.events[e.slot] == e
}

// Deallocate returns e to the free region. It fails with ErrInvalidSlot when
// e belongs to another pool, is already free, or its slot bookkeeping does
// not match the arena.
func (p *Pool) Deallocate(e *Event) error {
	switch {
	case e == nil:
		return fmt.Errorf("deallocate nil event: %w", ErrInvalidSlot)
	case e.pool != p:
		return fmt.Errorf("deallocate %v event from a foreign pool: %w", e.kind, ErrInvalidSlot)
	case e.slot < 0 || e.slot >= len(p.events) || p.events[e.slot] != e:
		return fmt.Errorf("deallocate %v event with inconsistent slot %d: %w", e.kind, e.slot, ErrInvalidSlot)
	case e.slot >= p.used:
		return fmt.Errorf("deallocate free %v event at slot %d (used %d): %w", e.kind, e.slot, p.used, ErrInvalidSlot)
	}

	last := p.used - 1
	freed := e.slot
	other := p.events[last]
	p.events[freed], p.events[last] = other, e
	other.slot = freed
	e.slot = last
	p.used--
	return nil
}
