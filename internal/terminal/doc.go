// Package terminal is the inputview bubbletea program. It is both a producer,
// turning terminal key and mouse messages into device events, and the
// consumer that polls the merged event stream and renders control state.
package terminal
