package controls

// Source is what consumers read events from: a single Device, or a
// Synchronizer merging several.
type Source interface {
	PollEvent() (*Event, bool)
	PeekEvent(position int) (*Event, bool)
	FastForward() int
	EventQueueSize() int
	Controls() []Control
}

var (
	_ Source = (*Device)(nil)
	_ Source = (*Synchronizer)(nil)
)
