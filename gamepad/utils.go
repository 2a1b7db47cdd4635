package gamepad

import (
	"context"
	"errors"
	"os"
	"time"
)

const (
	openAttempts = 5
	openBackoff  = 200 * time.Millisecond
)

// escapeString drops the NUL bytes of a fixed size C buffer.
func escapeString(src []byte) string {
	n := 0
	for _, b := range src {
		if b != 0 {
			src[n] = b
			n++
		}
	}
	return string(src[:n])
}

// openFilePersistent opens path for reading, retrying permission errors for
// a while: a freshly created device node gets its permissions from udev
// slightly after it appears.
func openFilePersistent(ctx context.Context, path string) (*os.File, error) {
	var err error
	for i := 0; i < openAttempts; i++ {
		var f *os.File
		if f, err = os.OpenFile(path, os.O_RDONLY, 0); err == nil {
			return f, nil
		}
		if !errors.Is(err, os.ErrPermission) || i == openAttempts-1 {
			break
		}
		timer := time.NewTimer(openBackoff)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}
	}
	return nil, err
}
