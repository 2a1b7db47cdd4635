package gamepad

import "strings"

// linuxEventType classifies the entries of /dev/input.
type linuxEventType uint8

const (
	irrelevantEventType linuxEventType = iota
	gamepadEventType
)

// extractFromBytes classifies an inotify file name, joysticks are js*.
func extractFromBytes(src []byte) (t linuxEventType, name string, ok bool) {
	name = escapeString(src)
	if !strings.HasPrefix(name, "js") {
		return irrelevantEventType, "", false
	}
	return gamepadEventType, name, true
}

func parseButtonsMap(mp [768]uint16, count int) (dest []int) {
	count = min(count, len(mp))
	for _, m := range mp[:count] {
		dest = append(dest, int(m))
	}
	return
}

func parseAxesMap(mp [64]uint8, count int) (dest []int) {
	count = min(count, len(mp))
	for _, m := range mp[:count] {
		dest = append(dest, int(m))
	}
	return
}
