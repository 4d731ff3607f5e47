package sink

import "fmt"

// FactoryFor resolves the output.target configuration value to a Factory.
// Only "terminal" is linked into this build; "rpi" names a real backend
// (GPIO bit-bang or DMA-based PWM) that lives outside the core and must be
// supplied by whatever binary links in hardware support.
func FactoryFor(target string, pins []uint32) (Factory, error) {
	switch target {
	case "terminal":
		return NewTerminalSink, nil
	case "rpi":
		return nil, fmt.Errorf("sink: output.target %q requires a hardware backend not linked into this build", target)
	default:
		return nil, fmt.Errorf("sink: unknown output.target %q", target)
	}
}
