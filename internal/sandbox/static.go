package sandbox

import (
	"context"

	"github.com/tetratelabs/wazero"

	"github.com/ledbetter-fw/endpoint/internal/layout"
)

// StaticProgram is a non-wasm Program that holds every pixel at a
// constant color. It exists so driver tests can exercise the render loop
// without a compiled guest module.
type StaticProgram struct {
	frame *layout.Frame
}

// NewStaticProgram returns a Program whose frame is filled with c and
// never changes across Tick calls.
func NewStaticProgram(l *layout.Layout, c layout.PixelVal) *StaticProgram {
	f := layout.NewFrame(l)
	for i, strip := range f.Strips {
		for j := range strip {
			f.Strips[i][j] = c
		}
	}
	return &StaticProgram{frame: f}
}

func (p *StaticProgram) Tick(ctx context.Context) error  { return nil }
func (p *StaticProgram) Pixels() *layout.Frame           { return p.frame }
func (p *StaticProgram) Close(ctx context.Context) error { return nil }

// New parses and instantiates wasmBin against a freshly built runtime,
// returning a Program whose Close also closes the runtime. Callers that
// want to manage the runtime's lifetime themselves should call
// NewWasmProgram directly against their own wazero.Runtime.
func New(ctx context.Context, l *layout.Layout, wasmBin []byte) (Program, error) {
	rt, err := newRuntime(ctx)
	if err != nil {
		return nil, err
	}

	prog, err := NewWasmProgram(ctx, rt, l, wasmBin)
	if err != nil {
		rt.Close(ctx)
		return nil, err
	}

	return &ownedRuntimeProgram{WasmProgram: prog, rt: rt}, nil
}

type ownedRuntimeProgram struct {
	*WasmProgram
	rt wazero.Runtime
}

func (p *ownedRuntimeProgram) Close(ctx context.Context) error {
	werr := p.WasmProgram.Close(ctx)
	rerr := p.rt.Close(ctx)
	if werr != nil {
		return werr
	}
	return rerr
}
