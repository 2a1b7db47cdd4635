package gamepad

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"unsafe"

	"github.com/joeycumines/logiface"
	"golang.org/x/sys/unix"
)

const (
	inputPath = "/dev/input"
	// how often the watcher wakes up to check for cancellation, in ms
	watchPollTimeout = 250
)

type notifyLinux struct {
	mu     sync.RWMutex
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
	gp     []*gamepadLinux
	events chan<- *Event
	errs   chan<- error
	log    *logiface.Logger[logiface.Event]
}

func platformNotifier(ctx context.Context, events chan<- *Event, errs chan<- error, log *logiface.Logger[logiface.Event]) (notify, error) {
	return linuxNotifier(ctx, events, errs, log)
}

// linuxNotifier connects the joysticks already present, then watches
// /dev/input for hotplug.
func linuxNotifier(ctx context.Context, events chan<- *Event, errs chan<- error, log *logiface.Logger[logiface.Event]) (*notifyLinux, error) {
	current, err := os.ReadDir(inputPath)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", inputPath, err)
	}

	fd, err := unix.InotifyInit1(unix.IN_NONBLOCK | unix.IN_CLOEXEC)
	if err != nil {
		return nil, fmt.Errorf("inotify init: %w", err)
	}
	if _, err = unix.InotifyAddWatch(fd, inputPath, unix.IN_CREATE|unix.IN_DELETE|unix.IN_ATTRIB); err != nil {
		_ = unix.Close(fd)
		return nil, fmt.Errorf("inotify add watch %s: %w", inputPath, err)
	}

	nl := &notifyLinux{
		events: events,
		errs:   errs,
		log:    log,
	}
	nl.ctx, nl.cancel = context.WithCancel(ctx)

	nl.wg.Add(1)
	go func() {
		defer nl.wg.Done()
		for _, entry := range current {
			nl.handleEvent(unix.IN_CREATE, []byte(entry.Name()))
		}
		nl.watch(fd)
	}()

	return nl, nil
}

// watch reads inotify events until the notifier stops.
func (nl *notifyLinux) watch(fd int) {
	defer func() {
		if err := unix.Close(fd); err != nil {
			nl.report(fmt.Errorf("inotify close: %w", err))
		}
	}()

	buf := make([]byte, 4096)
	fds := []unix.PollFd{{Fd: int32(fd), Events: unix.POLLIN}}

	for nl.ctx.Err() == nil {
		n, err := unix.Poll(fds, watchPollTimeout)
		if err != nil {
			if errors.Is(err, unix.EINTR) {
				continue
			}
			nl.report(fmt.Errorf("inotify poll: %w", err))
			return
		}
		if n == 0 {
			continue
		}

		n, err = unix.Read(fd, buf)
		if err != nil {
			if errors.Is(err, unix.EAGAIN) || errors.Is(err, unix.EINTR) {
				continue
			}
			nl.report(fmt.Errorf("inotify read: %w", err))
			return
		}

		for offset := 0; offset+unix.SizeofInotifyEvent <= n; {
			event := (*unix.InotifyEvent)(unsafe.Pointer(&buf[offset]))
			start := offset + unix.SizeofInotifyEvent
			end := start + int(event.Len)
			nl.handleEvent(event.Mask, buf[start:end])
			offset = end
		}
	}
}

func (nl *notifyLinux) report(err error) {
	nl.log.Err().
		Err(err).
		Log("gamepad notifier error")
	send(nl.ctx, nl.errs, err)
}

// handleEvent reacts to one /dev/input change.
func (nl *notifyLinux) handleEvent(mask uint32, name []byte) {
	t, id, ok := extractFromBytes(name)
	if !ok || t != gamepadEventType {
		return
	}

	switch {
	case mask&(unix.IN_CREATE|unix.IN_ATTRIB) != 0:
		// IN_ATTRIB: permissions landed after a create we could not open
		if nl.find(id) == nil {
			nl.connectGamepad(id)
		}
	case mask&unix.IN_DELETE != 0:
		nl.disconnectGamepad(id)
	}
}

func (nl *notifyLinux) find(id string) *gamepadLinux {
	nl.mu.RLock()
	defer nl.mu.RUnlock()
	for _, gp := range nl.gp {
		if gp.id == id {
			return gp
		}
	}
	return nil
}

// connectGamepad is called when a new gamepad device is connected.
func (nl *notifyLinux) connectGamepad(id string) {
	gp, err := newLinuxGamepad(nl.ctx, id, filepath.Join(inputPath, id))
	if err != nil {
		if nl.ctx.Err() == nil {
			nl.report(err)
		}
		return
	}

	nl.mu.Lock()
	nl.gp = append(nl.gp, gp)
	nl.mu.Unlock()

	nl.log.Info().
		Str("gamepad", id).
		Str("model", gp.devName).
		Int("buttons", int(gp.buttons)).
		Int("axes", int(gp.axes)).
		Log("gamepad connected")

	send(nl.ctx, nl.events, &Event{
		Type: ConnectEventType,
		ID:   id,
		Data: gp.info(),
	})
}

func (nl *notifyLinux) disconnectGamepad(id string) {
	nl.mu.Lock()
	var gone *gamepadLinux
	for i, gp := range nl.gp {
		if gp.id == id {
			gone = gp
			nl.gp = append(nl.gp[:i], nl.gp[i+1:]...)
			break
		}
	}
	nl.mu.Unlock()

	if gone == nil {
		return
	}
	if gone.subscribed() {
		_ = gone.unsubscribe()
	}

	nl.log.Info().
		Str("gamepad", id).
		Log("gamepad disconnected")

	send(nl.ctx, nl.events, &Event{
		Type: DisconnectEventType,
		ID:   id,
	})
}

// gamepads returns a list of connected gamepads.
func (nl *notifyLinux) gamepads() (devices []Info) {
	nl.mu.RLock()
	defer nl.mu.RUnlock()
	for _, gp := range nl.gp {
		devices = append(devices, gp.info())
	}
	return
}

// stop unsubscribes every gamepad and stops watching.
func (nl *notifyLinux) stop() (err error) {
	nl.cancel()
	nl.wg.Wait()

	nl.mu.RLock()
	defer nl.mu.RUnlock()
	for _, gp := range nl.gp {
		if gp.subscribed() {
			err = errors.Join(err, gp.unsubscribe())
		}
	}
	return err
}

func (nl *notifyLinux) subscribe(id string) error {
	gp := nl.find(id)
	if gp == nil {
		return fmt.Errorf("gamepad %q: %w", id, ErrGamepadNotFound)
	}
	return gp.subscribe(nl.ctx, nl.events, nl.errs, nl.log)
}

func (nl *notifyLinux) unsubscribe(id string) error {
	gp := nl.find(id)
	if gp == nil {
		return fmt.Errorf("gamepad %q: %w", id, ErrGamepadNotFound)
	}
	return gp.unsubscribe()
}
