package sink

import (
	"fmt"
	"strings"

	"github.com/pterm/pterm"

	"github.com/ledbetter-fw/endpoint/internal/layout"
)

// TerminalSink is the development-mode LedSink: one row of colored "O"
// characters per strip, printed to the terminal on every Write.
type TerminalSink struct {
	shape []int
	total int
}

// NewTerminalSink satisfies Factory.
func NewTerminalSink(l *layout.Layout) (LedSink, error) {
	return &TerminalSink{shape: l.Shape(), total: l.TotalPixels()}, nil
}

func (t *TerminalSink) Write(pixels []layout.PixelVal) error {
	if len(pixels) != t.total {
		return fmt.Errorf("terminal sink: expected %d pixels, got %d", t.total, len(pixels))
	}

	var out strings.Builder
	idx := 0
	for _, n := range t.shape {
		for j := 0; j < n; j++ {
			p := pixels[idx]
			out.WriteString(pterm.NewRGB(int(p.R), int(p.G), int(p.B)).Sprint("O"))
			idx++
		}
		out.WriteByte('\n')
	}

	pterm.Print(out.String())
	return nil
}
