package gamepad

// FilterFunc decides whether the Bus handles a raw event. Connect and
// disconnect events always pass.
type FilterFunc func(e *Event) bool

// SkipInitialState drops the synthetic state events sent when a gamepad is
// opened, so only changes made while subscribed become events.
func SkipInitialState(e *Event) bool {
	c, ok := e.Data.(ControlEvent)
	return !ok || !c.Initial()
}

// ButtonsOnly drops axis events.
func ButtonsOnly(e *Event) bool {
	c, ok := e.Data.(ControlEvent)
	return !ok || c.Kind() == Button
}

func accept(filters []FilterFunc, e *Event) bool {
	if e.Type != ControlEventType {
		return true
	}
	for _, filter := range filters {
		if !filter(e) {
			return false
		}
	}
	return true
}
