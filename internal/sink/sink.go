// Package sink defines the LedSink boundary between the core and output
// backends: byte-level hardware emitters are out of scope for the core,
// which only ever consumes this interface.
package sink

import "github.com/ledbetter-fw/endpoint/internal/layout"

// LedSink accepts exactly one frame's worth of pixels per Write call, in
// strip-major, pixel-minor order matching the Layout it was built from.
type LedSink interface {
	Write(pixels []layout.PixelVal) error
}

// Factory constructs a LedSink bound to a Layout. It is called once per
// worker (on every Driver.Start), not once per process, so backends may
// hold per-session hardware state.
type Factory func(l *layout.Layout) (LedSink, error)
