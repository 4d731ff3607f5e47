// Package driver runs the render loop: a single background worker that
// ticks a sandbox.Program at a fixed cadence and writes each resulting
// frame to a sink.LedSink. Exactly two goroutines ever touch a Driver's
// state: the caller (foreground) and the worker it spawns.
package driver

import (
	"context"
	"fmt"
	"runtime/debug"
	"sync"
	"time"

	"github.com/ledbetter-fw/endpoint/internal/layout"
	"github.com/ledbetter-fw/endpoint/internal/ledberr"
	"github.com/ledbetter-fw/endpoint/internal/logging"
	"github.com/ledbetter-fw/endpoint/internal/sandbox"
	"github.com/ledbetter-fw/endpoint/internal/sink"
)

var log = logging.L("driver")

// Status is the driver's externally visible play state. Being a string
// type, it marshals to JSON as its literal value ("NotPlaying", "Playing",
// "Paused").
type Status string

const (
	NotPlaying Status = "NotPlaying"
	Playing    Status = "Playing"
	Paused     Status = "Paused"
)

type ctrlAction int

const (
	ctrlPlay ctrlAction = iota
	ctrlPause
	ctrlExit
)

// programFactory builds the Program a worker runs. Tests substitute a
// factory that returns a sandbox.StaticProgram so they don't need a
// compiled wasm fixture.
type programFactory func(ctx context.Context, l *layout.Layout, wasmBin []byte) (sandbox.Program, error)

// Driver owns the render loop lifecycle: Start spawns the worker, Play
// and Pause change its state, Stop tears it down.
type Driver struct {
	mu sync.Mutex

	layout        *layout.Layout
	renderPeriod  time.Duration
	sinkFactory   sink.Factory
	programFn     programFactory

	status   Status
	ctrlChan chan ctrlAction
	doneChan chan error
}

// New constructs a Driver for the given layout, render frequency (Hz, as
// validated by internal/config), and sink factory.
func New(l *layout.Layout, renderFreqHz int, sf sink.Factory) *Driver {
	return &Driver{
		layout:       l,
		renderPeriod: time.Duration(1000/renderFreqHz) * time.Millisecond,
		sinkFactory:  sf,
		programFn: func(ctx context.Context, l *layout.Layout, wasmBin []byte) (sandbox.Program, error) {
			return sandbox.New(ctx, l, wasmBin)
		},
		status: NotPlaying,
	}
}

func (d *Driver) Status() Status {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.status
}

// Start compiles wasmBin into a running worker and blocks until the
// worker has either successfully constructed its sink and program (in
// which case it is left Playing) or failed to do so (in which case the
// driver stays NotPlaying and the construction error is returned).
//
// The handshake is explicit because a Go channel send has no way to
// report "the receiving goroutine already exited" the way a Rust
// SyncSender::send does. The worker always sends exactly once on ready,
// before it ever reads from ctrlChan, so Start never blocks forever on
// a worker that failed during setup.
func (d *Driver) Start(wasmBin []byte) (Status, error) {
	d.Stop()

	d.mu.Lock()
	ready := make(chan error, 1)
	ctrlChan := make(chan ctrlAction)
	doneChan := make(chan error, 1)
	d.ctrlChan = ctrlChan
	d.doneChan = doneChan
	d.mu.Unlock()

	go d.runWorker(wasmBin, ready, ctrlChan, doneChan)

	if err := <-ready; err != nil {
		d.mu.Lock()
		d.status = NotPlaying
		d.mu.Unlock()
		return NotPlaying, err
	}

	ctrlChan <- ctrlPlay

	d.mu.Lock()
	d.status = Playing
	d.mu.Unlock()
	return Playing, nil
}

// Play resumes a paused render loop. No-op (returns the current status,
// NotPlaying) if no worker is running.
func (d *Driver) Play() Status { return d.sendAction(ctrlPlay, Playing) }

// Pause suspends the render loop without tearing down the program. No-op
// (returns the current status, NotPlaying) if no worker is running.
func (d *Driver) Pause() Status { return d.sendAction(ctrlPause, Paused) }

// sendAction never returns an error: a send failure means the worker has
// already died, which is itself treated as an implicit stop.
func (d *Driver) sendAction(action ctrlAction, onSuccess Status) Status {
	d.mu.Lock()
	if d.status == NotPlaying {
		d.mu.Unlock()
		return NotPlaying
	}
	ctrlChan := d.ctrlChan
	doneChan := d.doneChan
	d.mu.Unlock()

	select {
	case ctrlChan <- action:
		d.mu.Lock()
		d.status = onSuccess
		d.mu.Unlock()
		return onSuccess
	case err := <-doneChan:
		if err != nil {
			log.Error("worker exited before control action applied", "error", err)
		}
		d.mu.Lock()
		d.status = NotPlaying
		d.mu.Unlock()
		return NotPlaying
	}
}

// Stop signals the worker to exit and waits for it to finish, logging
// (never propagating) any error the worker returns. No-op if the driver
// isn't running. Always leaves status NotPlaying.
func (d *Driver) Stop() Status {
	d.mu.Lock()
	if d.status == NotPlaying {
		d.mu.Unlock()
		return NotPlaying
	}
	ctrlChan := d.ctrlChan
	doneChan := d.doneChan
	d.mu.Unlock()

	var workerErr error
	select {
	case ctrlChan <- ctrlExit:
		workerErr = <-doneChan
	case err := <-doneChan:
		workerErr = err
	}
	if workerErr != nil {
		log.Error("worker exited with error", "error", workerErr)
	}

	d.mu.Lock()
	d.status = NotPlaying
	d.mu.Unlock()
	return NotPlaying
}

// runWorker is the render loop body. It always sends exactly once on
// ready and exactly once on done, on every exit path including panics.
func (d *Driver) runWorker(wasmBin []byte, ready chan<- error, ctrlChan <-chan ctrlAction, doneChan chan<- error) {
	ctx := context.Background()
	var workerErr error
	readySent := false
	defer func() {
		if r := recover(); r != nil {
			log.Error("worker panicked", "panic", r, "stack", string(debug.Stack()))
			workerErr = fmt.Errorf("worker panic: %v", r)
		}
		if !readySent {
			ready <- workerErr
		}
		doneChan <- workerErr
	}()

	led, err := d.sinkFactory(d.layout)
	if err != nil {
		workerErr = ledberr.New(ledberr.Sink, "runWorker", err)
		return
	}

	prog, err := d.programFn(ctx, d.layout, wasmBin)
	if err != nil {
		workerErr = ledberr.New(ledberr.Sandbox, "runWorker", err)
		return
	}
	defer prog.Close(ctx)

	readySent = true
	ready <- nil

	playing := false
	renderAt := time.Now()

loop:
	for {
		if playing {
			gotAction := false
			select {
			case action := <-ctrlChan:
				if !d.applyAction(action, &playing) {
					break loop
				}
				gotAction = true
			default:
			}
			if gotAction && !playing {
				continue
			}
		} else {
			action, ok := <-ctrlChan
			if !ok {
				break loop
			}
			if !d.applyAction(action, &playing) {
				break loop
			}
			renderAt = time.Now()
			continue
		}

		if err := prog.Tick(ctx); err != nil {
			workerErr = ledberr.New(ledberr.Sandbox, "runWorker", err)
			return
		}
		if err := led.Write(prog.Pixels().Flatten()); err != nil {
			workerErr = ledberr.New(ledberr.Sink, "runWorker", err)
			return
		}

		renderAt = renderAt.Add(d.renderPeriod)
		sleep := time.Until(renderAt)
		if sleep < 0 {
			sleep = 0
		}
		timer := time.NewTimer(sleep)
		select {
		case action := <-ctrlChan:
			timer.Stop()
			if !d.applyAction(action, &playing) {
				break loop
			}
		case <-timer.C:
		}
	}

	blank := layout.NewFrame(d.layout).Flatten()
	_ = led.Write(blank)
}

// applyAction mutates playing in place and reports whether the loop
// should continue.
func (d *Driver) applyAction(action ctrlAction, playing *bool) bool {
	switch action {
	case ctrlPlay:
		*playing = true
		return true
	case ctrlPause:
		*playing = false
		return true
	case ctrlExit:
		return false
	default:
		return true
	}
}
