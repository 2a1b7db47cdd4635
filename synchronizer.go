package controls

import (
	"cmp"
	"fmt"
	"sync"

	"github.com/joeycumines/logiface"
	"golang.org/x/exp/slices"
)

// Synchronizer presents several devices as one source whose polls return
// events in global timestamp order. It holds a single lock for every
// operation and re-parents its devices onto that lock, so producers enqueue
// under the same lock the merge reads under.
//
// Events within one device are never reordered, so the ordering guarantee
// holds as long as each device is fed non-decreasing timestamps.
type Synchronizer struct {
	mu      sync.Locker
	devices []*Device
	log     *logiface.Logger[logiface.Event]

	cache   peekCache
	scratch Snapshot

	polled   uint64
	hits     uint64
	rebuilds uint64
}

// peekCache is every pending event across all devices, sorted by timestamp,
// valid while snapshot matches the queues.
type peekCache struct {
	valid    bool
	snapshot Snapshot
	entries  []peekEntry
}

type peekEntry struct {
	device    int
	position  int
	timestamp int64
}

// SynchronizerStats is a point in time view of a Synchronizer.
type SynchronizerStats struct {
	Devices       int
	Pending       int
	Polled        uint64
	CacheHits     uint64
	CacheRebuilds uint64
}

// NewSynchronizer merges devices. Only WithLocker and WithLogger apply.
//
// A device belongs to at most one synchronizer, and one built WithLocker
// must have been given the synchronizer's lock. On error no device is
// modified.
func NewSynchronizer(devices []*Device, options ...Option) (*Synchronizer, error) {
	c := resolveConfig(options)
	s := &Synchronizer{
		mu:  c.locker,
		log: c.logger,
	}
	for i, d := range devices {
		switch {
		case d == nil:
			return nil, fmt.Errorf("synchronizer device %d: %w", i, ErrNilDevice)
		case slices.Contains(devices[:i], d):
			return nil, fmt.Errorf("synchronizer device %q: %w", d.name, ErrDuplicateDevice)
		}
	}
	prev := make([]sync.Locker, 0, len(devices))
	for _, d := range devices {
		mu, err := d.attach(s)
		if err != nil {
			for i, l := range prev {
				devices[i].detach(l)
			}
			return nil, err
		}
		prev = append(prev, mu)
	}
	s.devices = append([]*Device(nil), devices...)
	return s, nil
}

// AddDevice re-parents d onto the synchronizer's lock and starts merging it.
// No other operation may be in flight on d while it is added. It fails with
// ErrDeviceSynchronized when another synchronizer already merges d.
func (s *Synchronizer) AddDevice(d *Device) error {
	if d == nil {
		return ErrNilDevice
	}
	if _, err := d.attach(s); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.devices = append(s.devices, d)
	s.cache.valid = false

	s.log.Info().
		Str("device", d.name).
		Int("devices", len(s.devices)).
		Log("device synchronized")

	return nil
}

// Devices returns the synchronized devices.
func (s *Synchronizer) Devices() []*Device {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]*Device(nil), s.devices...)
}

// earliestLocked returns the index of the device whose head event has the
// smallest timestamp, or -1 when every queue is empty. Ties go to the first
// device in iteration order.
func (s *Synchronizer) earliestLocked() int {
	best := -1
	var bestTimestamp int64
	for i, d := range s.devices {
		head, ok := d.queue.Peek(0)
		if !ok {
			continue
		}
		if best < 0 || head.timestamp < bestTimestamp {
			best = i
			bestTimestamp = head.timestamp
		}
	}
	return best
}

// PollEvent removes, applies and returns the globally earliest event. The
// returned event is only valid until the next poll.
func (s *Synchronizer) PollEvent() (*Event, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.earliestLocked()
	if i < 0 {
		return nil, false
	}
	s.polled++
	return s.devices[i].pollLocked()
}

// PeekEvent returns the pending event at position which of the merged
// order, without mutating anything. Position 0 scans the queue heads like
// PollEvent, deeper positions are served from a cached merge of every queue
// that is rebuilt whenever a queue changed. While every device is fed
// non-decreasing timestamps, position n is the event the n+1th poll from
// now returns; a device fed out of order timestamps makes the two diverge.
func (s *Synchronizer) PeekEvent(which int) (*Event, bool) {
	if which < 0 {
		return nil, false
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if which == 0 {
		i := s.earliestLocked()
		if i < 0 {
			return nil, false
		}
		return s.devices[i].queue.Peek(0)
	}

	if which >= s.sizeLocked() {
		return nil, false
	}

	entries := s.mergedLocked()
	entry := entries[which]
	return s.devices[entry.device].queue.Peek(entry.position)
}

// mergedLocked returns the cached merge, rebuilding it if it is stale.
func (s *Synchronizer) mergedLocked() []peekEntry {
	s.scratch = captureLocked(s.scratch[:0], s.devices)
	if s.cache.valid && s.cache.snapshot.Matches(s.scratch) {
		s.hits++
		return s.cache.entries
	}

	entries := s.cache.entries[:0]
	for i, d := range s.devices {
		for position, e := range d.queue.flat() {
			entries = append(entries, peekEntry{
				device:    i,
				position:  position,
				timestamp: e.timestamp,
			})
		}
	}
	// stable, so equal timestamps keep device order like the head scan does
	slices.SortStableFunc(entries, func(a, b peekEntry) int {
		return cmp.Compare(a.timestamp, b.timestamp)
	})

	s.cache.entries = entries
	s.cache.snapshot, s.scratch = s.scratch, s.cache.snapshot
	s.cache.valid = true
	s.rebuilds++

	s.log.Trace().
		Int("entries", len(entries)).
		Uint64("rebuilds", s.rebuilds).
		Log("rebuilt peek cache")

	return entries
}

// EventQueueSize is the number of pending events across every device.
func (s *Synchronizer) EventQueueSize() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sizeLocked()
}

func (s *Synchronizer) sizeLocked() (n int) {
	for _, d := range s.devices {
		n += d.queue.Len()
	}
	return n
}

// FastForward applies and discards every pending event of every device.
func (s *Synchronizer) FastForward() (n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, d := range s.devices {
		n += d.fastForwardLocked()
	}
	return n
}

// Controls allocates a fresh list of every device's controls. It is meant
// for setup and display, not for the polling loop.
func (s *Synchronizer) Controls() []Control {
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int
	for _, d := range s.devices {
		n += len(d.Controls())
	}
	all := make([]Control, 0, n)
	for _, d := range s.devices {
		all = append(all, d.Controls()...)
	}
	return all
}

// Stats returns the synchronizer counters.
func (s *Synchronizer) Stats() SynchronizerStats {
	s.mu.Lock()
	defer s.mu.Unlock()
	return SynchronizerStats{
		Devices:       len(s.devices),
		Pending:       s.sizeLocked(),
		Polled:        s.polled,
		CacheHits:     s.hits,
		CacheRebuilds: s.rebuilds,
	}
}
