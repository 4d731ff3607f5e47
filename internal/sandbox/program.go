package sandbox

import (
	"context"
	"fmt"

	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/api"

	"github.com/ledbetter-fw/endpoint/internal/layout"
)

// Program is a sandboxed per-frame pixel producer. Tick advances guest
// state by one render period; Pixels returns the frame produced by the
// most recent Tick (or, before the first Tick, the frame produced by
// construction).
type Program interface {
	Tick(ctx context.Context) error
	Pixels() *layout.Frame
	Close(ctx context.Context) error
}

var requiredExports = []string{
	"initLayoutSetNumStrips",
	"initLayoutSetStripLen",
	"initLayoutSetPixelLoc",
	"initLayoutDone",
	"tick",
	"getPixelVal",
}

// WasmProgram is the WebAssembly-backed Program implementation.
type WasmProgram struct {
	module api.Module
	layout *layout.Layout
	frame  *layout.Frame

	fnTick        api.Function
	fnGetPixelVal api.Function
}

// NewWasmProgram parses wasmBin, links it against an already-constructed
// runtime, resolves the required guest exports, and runs the layout-init
// sequence. A missing required export or any trap during init fails
// construction. After construction, Pixels() is already valid: one
// updatePixelVals pass runs before the first Tick.
func NewWasmProgram(ctx context.Context, rt wazero.Runtime, l *layout.Layout, wasmBin []byte) (*WasmProgram, error) {
	compiled, err := rt.CompileModule(ctx, wasmBin)
	if err != nil {
		return nil, fmt.Errorf("sandbox: parse wasm module: %w", err)
	}

	mod, err := rt.InstantiateModule(ctx, compiled, wazero.NewModuleConfig().WithName("program"))
	if err != nil {
		return nil, fmt.Errorf("sandbox: instantiate wasm module: %w", err)
	}

	fns := make(map[string]api.Function, len(requiredExports))
	for _, name := range requiredExports {
		fn := mod.ExportedFunction(name)
		if fn == nil {
			mod.Close(ctx)
			return nil, fmt.Errorf("sandbox: guest module missing required export %q", name)
		}
		fns[name] = fn
	}

	p := &WasmProgram{
		module:        mod,
		layout:        l,
		frame:         layout.NewFrame(l),
		fnTick:        fns["tick"],
		fnGetPixelVal: fns["getPixelVal"],
	}

	if err := p.initLayout(ctx, fns); err != nil {
		mod.Close(ctx)
		return nil, err
	}

	if err := p.updatePixelVals(ctx); err != nil {
		mod.Close(ctx)
		return nil, err
	}

	return p, nil
}

func (p *WasmProgram) initLayout(ctx context.Context, fns map[string]api.Function) error {
	if _, err := fns["initLayoutSetNumStrips"].Call(ctx, uint64(len(p.layout.Strips))); err != nil {
		return fmt.Errorf("sandbox: initLayoutSetNumStrips: %w", err)
	}
	for i, strip := range p.layout.Strips {
		if _, err := fns["initLayoutSetStripLen"].Call(ctx, uint64(i), uint64(len(strip.Pixels))); err != nil {
			return fmt.Errorf("sandbox: initLayoutSetStripLen(%d): %w", i, err)
		}
		for j, px := range strip.Pixels {
			if _, err := fns["initLayoutSetPixelLoc"].Call(ctx,
				uint64(i), uint64(j), api.EncodeF32(px.X), api.EncodeF32(px.Y)); err != nil {
				return fmt.Errorf("sandbox: initLayoutSetPixelLoc(%d,%d): %w", i, j, err)
			}
		}
	}
	if _, err := fns["initLayoutDone"].Call(ctx); err != nil {
		return fmt.Errorf("sandbox: initLayoutDone: %w", err)
	}
	return nil
}

// Tick calls the guest's tick export once, then refreshes the frame by
// calling getPixelVal for every pixel in layout order.
func (p *WasmProgram) Tick(ctx context.Context) error {
	if _, err := p.fnTick.Call(ctx); err != nil {
		return fmt.Errorf("sandbox: guest tick trapped: %w", err)
	}
	return p.updatePixelVals(ctx)
}

func (p *WasmProgram) updatePixelVals(ctx context.Context) error {
	for i, strip := range p.layout.Strips {
		for j := range strip.Pixels {
			results, err := p.fnGetPixelVal.Call(ctx, uint64(i), uint64(j))
			if err != nil {
				return fmt.Errorf("sandbox: getPixelVal(%d,%d): %w", i, j, err)
			}
			p.frame.Strips[i][j] = decodeARGB(uint32(results[0]))
		}
	}
	return nil
}

// decodeARGB unpacks a 0xAARRGGBB value into a PixelVal, ignoring alpha.
func decodeARGB(v uint32) layout.PixelVal {
	return layout.PixelVal{
		R: uint8(v >> 16),
		G: uint8(v >> 8),
		B: uint8(v),
	}
}

func (p *WasmProgram) Pixels() *layout.Frame { return p.frame }

func (p *WasmProgram) Close(ctx context.Context) error {
	return p.module.Close(ctx)
}
