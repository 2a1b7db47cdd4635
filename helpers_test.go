package controls

import (
	"io"
	"testing"

	"github.com/joeycumines/logiface"
	"github.com/joeycumines/stumpy"
	"github.com/stretchr/testify/require"
)

func newTestLogger(w io.Writer) *logiface.Logger[logiface.Event] {
	return stumpy.L.New(
		stumpy.L.WithStumpy(stumpy.WithWriter(w), stumpy.WithTimeField(``)),
		stumpy.L.WithLevel(logiface.LevelTrace),
	).Logger()
}

// fixedClock never advances, tests pass explicit timestamps.
func fixedClock() int64 { return 0 }

func newTestDevice(t *testing.T, name string, options ...Option) *Device {
	t.Helper()
	d, err := NewDevice(name, append([]Option{WithClock(fixedClock)}, options...)...)
	require.NoError(t, err)
	return d
}

// drain polls src until it is empty, returning the records in poll order.
func drain(src Source) []Record {
	var records []Record
	for {
		e, ok := src.PollEvent()
		if !ok {
			return records
		}
		records = append(records, e.Record())
	}
}

func timestamps(records []Record) []int64 {
	ts := make([]int64, len(records))
	for i, r := range records {
		ts[i] = r.Timestamp
	}
	return ts
}
