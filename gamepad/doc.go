// Package gamepad feeds joystick input into controls devices.
//
// On linux it lists the js* nodes of /dev/input, watches the directory with
// inotify for hotplug and reads struct js_event records from subscribed
// gamepads. Other platforms report ErrOSNotSupported.
package gamepad
