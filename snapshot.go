package controls

// DeviceMark is what a Synchronizer remembers about one device queue when
// it caches a merge.
type DeviceMark struct {
	Length int
	// Head is the timestamp of the earliest pending event, meaningful only
	// when Length is non-zero.
	Head int64
	// Enqueued is the device's lifetime enqueue count.
	Enqueued uint64
}

// Snapshot holds one DeviceMark per synchronized device, in device order.
// A captured Snapshot is never modified.
type Snapshot []DeviceMark

// Matches reports whether a merge cached at s is still valid for the queues
// described by current. Queues only grow at the back and shrink at the
// front, so any change shows up as a different length, a different head or
// a different enqueue count.
func (s Snapshot) Matches(current Snapshot) bool {
	if len(s) != len(current) {
		return false
	}
	for i, m := range s {
		c := current[i]
		if m.Length != c.Length || m.Enqueued != c.Enqueued {
			return false
		}
		if m.Length != 0 && m.Head != c.Head {
			return false
		}
	}
	return true
}

// captureLocked appends the marks of devices to dst. The caller holds the
// shared lock.
func captureLocked(dst Snapshot, devices []*Device) Snapshot {
	for _, d := range devices {
		m := DeviceMark{Length: d.queue.Len(), Enqueued: d.enqueued}
		if head, ok := d.queue.Peek(0); ok {
			m.Head = head.timestamp
		}
		dst = append(dst, m)
	}
	return dst
}
