// Package sandbox hosts the WebAssembly guest that computes pixel colors.
// The guest is untrusted: wazero's compiler-based sandboxing keeps it from
// touching host memory outside its own linear memory, and the host ABI
// below is the guest's entire window onto the outside world.
package sandbox

import (
	"context"
	"fmt"
	"math/rand"

	"github.com/lucasb-eyer/go-colorful"
	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/api"

	"github.com/ledbetter-fw/endpoint/internal/logging"
)

var log = logging.L("sandbox")

// newRuntime builds a fresh wazero runtime with the env and colorConvert
// host modules linked. One runtime is created per worker spawn and closed
// when the worker exits.
func newRuntime(ctx context.Context) (wazero.Runtime, error) {
	rt := wazero.NewRuntime(ctx)

	if _, err := rt.NewHostModuleBuilder("env").
		NewFunctionBuilder().WithFunc(hostAbort).Export("abort").
		NewFunctionBuilder().WithFunc(hostSeed).Export("seed").
		Instantiate(ctx); err != nil {
		rt.Close(ctx)
		return nil, fmt.Errorf("sandbox: link env host module: %w", err)
	}

	if _, err := rt.NewHostModuleBuilder("colorConvert").
		NewFunctionBuilder().WithFunc(hostHSVToRGBEncoded).Export("hsvToRgbEncoded").
		Instantiate(ctx); err != nil {
		rt.Close(ctx)
		return nil, fmt.Errorf("sandbox: link colorConvert host module: %w", err)
	}

	return rt, nil
}

// hostAbort implements env.abort: log and continue. The host never
// forcibly terminates the guest on abort, matching the AssemblyScript
// convention the original ABI was built against.
func hostAbort(ctx context.Context, mod api.Module, msgRef, fileRef, line, col uint32) {
	log.Warn("guest called abort", "line", line, "col", col)
}

// hostSeed implements env.seed, an optional import: a fresh f64 in [0,1).
func hostSeed(ctx context.Context) float64 {
	return rand.Float64()
}

// hostHSVToRGBEncoded implements colorConvert.hsvToRgbEncoded, an optional
// import: h in [0,360), s/v in [0,100], encoded as 0xAARRGGBB with A=0xFF.
func hostHSVToRGBEncoded(ctx context.Context, h, s, v uint32) uint32 {
	c := colorful.Hsv(float64(h), float64(s)/100, float64(v)/100)
	return 0xFF000000 |
		uint32(clamp255(c.R))<<16 |
		uint32(clamp255(c.G))<<8 |
		uint32(clamp255(c.B))
}

func clamp255(v float64) uint8 {
	switch {
	case v <= 0:
		return 0
	case v >= 1:
		return 255
	default:
		return uint8(v * 255)
	}
}
