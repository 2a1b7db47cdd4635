package controls

import "time"

var epoch = time.Now()

// monotonicMillis reads the monotonic clock, in milliseconds since process
// start.
func monotonicMillis() int64 {
	return time.Since(epoch).Milliseconds()
}
