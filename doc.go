// Package controls buffers input events from devices such as keyboards, mice
// and gamepads until a consumer is ready for them.
//
// A Device owns its controls and a FIFO of pending events. Producers, often
// running on their own goroutines, enqueue boolean (press, release) and
// analog (coordinate vector) events stamped with a millisecond timestamp.
// The consumer polls them one at a time: polling removes the earliest event,
// replays it onto its control and returns it. Controls therefore always show
// the state as of the last polled event, never the state of events still
// queued.
//
// Events are recycled through per device pools, so the steady state of a
// polling loop does not allocate.
//
// A Synchronizer merges several devices into one Source that polls in global
// timestamp order:
//
//	keyboard, _ := controls.NewDevice("keyboard")
//	mouse, _ := controls.NewDevice("mouse")
//	sync, _ := controls.NewSynchronizer([]*controls.Device{keyboard, mouse})
//	for {
//		e, ok := sync.PollEvent()
//		if !ok {
//			break
//		}
//		fmt.Println(e.Record())
//	}
package controls
