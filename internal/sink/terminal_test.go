package sink

import (
	"testing"

	"github.com/ledbetter-fw/endpoint/internal/layout"
)

func TestTerminalSinkRejectsWrongPixelCount(t *testing.T) {
	lv := layout2Strips()
	l := &lv
	s, err := NewTerminalSink(l)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if err := s.Write(make([]layout.PixelVal, 1)); err == nil {
		t.Fatalf("expected error for wrong pixel count")
	}
}

func TestTerminalSinkAcceptsExactPixelCount(t *testing.T) {
	lv := layout2Strips()
	l := &lv
	s, err := NewTerminalSink(l)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	total := l.TotalPixels()
	if err := s.Write(make([]layout.PixelVal, total)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestTerminalSinkHandlesZeroStripLayout(t *testing.T) {
	l := &layout.Layout{}
	s, err := NewTerminalSink(l)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := s.Write(nil); err != nil {
		t.Fatalf("unexpected error for empty layout: %v", err)
	}
}

func layout2Strips() layout.Layout {
	return layout.Layout{Strips: []layout.Strip{
		{Pixels: make([]layout.PixelLoc, 3)},
		{Pixels: make([]layout.PixelLoc, 2)},
	}}
}
