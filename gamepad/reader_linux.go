package gamepad

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"
	"sync"
	"unsafe"

	"github.com/joeycumines/logiface"
	"golang.org/x/sys/unix"
)

// joystick ioctls, see linux/joystick.h
const (
	gpName       = 0x80006a13 + (128 << 16) // JSIOCGNAME(128)
	gpAxes       = 0x80016a11
	gpButtons    = 0x80016a12
	gpVersion    = 0x80046a01
	gpAxesMap    = 0x80406a32
	gpButtonsMap = 0x80406a34
)

type gamepadLinux struct {
	id         string
	path       string
	devName    string
	buttons    uint8
	buttonsMap [768]uint16
	axes       uint8
	axesMap    [64]uint8
	version    int32

	mu     sync.Mutex
	file   *os.File
	cancel context.CancelFunc
	done   chan struct{}
}

// eventLinux is struct js_event.
type eventLinux struct {
	Timestamp uint32
	Value     int16
	Type      uint8
	Index     uint8
}

func newLinuxGamepad(ctx context.Context, name, path string) (*gamepadLinux, error) {
	f, err := openFilePersistent(ctx, path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()

	gp := &gamepadLinux{
		id:   name,
		path: path,
	}

	if err = ioctlStr(f, gpName, &gp.devName); err != nil {
		return nil, fmt.Errorf("gamepad %s name: %w", name, err)
	}
	if err = ioctl(f, gpButtons, unsafe.Pointer(&gp.buttons)); err != nil {
		return nil, fmt.Errorf("gamepad %s buttons: %w", name, err)
	}
	if err = ioctl(f, gpAxes, unsafe.Pointer(&gp.axes)); err != nil {
		return nil, fmt.Errorf("gamepad %s axes: %w", name, err)
	}
	if err = ioctl(f, gpVersion, unsafe.Pointer(&gp.version)); err != nil {
		return nil, fmt.Errorf("gamepad %s version: %w", name, err)
	}
	if err = ioctl(f, gpButtonsMap, unsafe.Pointer(&gp.buttonsMap)); err != nil {
		return nil, fmt.Errorf("gamepad %s button map: %w", name, err)
	}
	if err = ioctl(f, gpAxesMap, unsafe.Pointer(&gp.axesMap)); err != nil {
		return nil, fmt.Errorf("gamepad %s axis map: %w", name, err)
	}

	return gp, nil
}

func (g *gamepadLinux) info() Info {
	return Info{
		ID:        g.id,
		Model:     g.devName,
		Buttons:   int(g.buttons),
		ButtonMap: parseButtonsMap(g.buttonsMap, int(g.buttons)),
		Axes:      int(g.axes),
		AxesMap:   parseAxesMap(g.axesMap, int(g.axes)),
	}
}

// subscribe starts reading events from the device node until unsubscribe,
// ctx is done, or the device goes away.
func (g *gamepadLinux) subscribe(ctx context.Context, events chan<- *Event, errs chan<- error, log *logiface.Logger[logiface.Event]) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.file != nil {
		return fmt.Errorf("gamepad %s: %w", g.id, ErrAlreadySubscribed)
	}

	f, err := openFilePersistent(ctx, g.path)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(ctx)
	g.file, g.cancel, g.done = f, cancel, make(chan struct{})

	go g.read(ctx, f, g.done, events, errs, log)

	return nil
}

func (g *gamepadLinux) read(ctx context.Context, f *os.File, done chan<- struct{}, events chan<- *Event, errs chan<- error, log *logiface.Logger[logiface.Event]) {
	defer close(done)
	id := g.id
	for {
		var e eventLinux
		if err := binary.Read(f, binary.LittleEndian, &e); err != nil {
			// closed by unsubscribe, or unplugged
			if ctx.Err() == nil && !errors.Is(err, os.ErrClosed) && !errors.Is(err, io.EOF) {
				send(ctx, errs, fmt.Errorf("gamepad %s read: %w", id, err))
			}
			log.Debug().
				Str("gamepad", id).
				Err(err).
				Log("gamepad reader stopped")
			return
		}

		if !send(ctx, events, &Event{
			Type: ControlEventType,
			ID:   id,
			Data: ControlEvent{
				Timestamp: e.Timestamp,
				Type:      ControlType(e.Type),
				Index:     int(e.Index),
				Value:     e.Value,
			},
		}) {
			return
		}
	}
}

// unsubscribe stops the reader and waits for it to exit.
func (g *gamepadLinux) unsubscribe() error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.file == nil {
		return fmt.Errorf("gamepad %s: %w", g.id, ErrAlreadyUnsubscribed)
	}

	g.cancel()
	// unblocks the pending read
	err := g.file.Close()
	<-g.done
	g.file, g.cancel, g.done = nil, nil, nil
	return err
}

func (g *gamepadLinux) subscribed() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.file != nil
}

func ioctl(f *os.File, infoType int, dest unsafe.Pointer) error {
	_, _, errno := unix.Syscall(unix.SYS_IOCTL,
		f.Fd(),
		uintptr(infoType),
		uintptr(dest),
	)
	if errno != 0 {
		return fmt.Errorf("ioctl %#x: %w", infoType, errno)
	}
	return nil
}

func ioctlStr(f *os.File, infoType int, dest *string) error {
	info := make([]byte, 128)
	if err := ioctl(f, infoType, unsafe.Pointer(&info[0])); err != nil {
		return err
	}
	*dest = escapeString(info)
	return nil
}
