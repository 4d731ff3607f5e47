package config

import "fmt"

// ValidationResult separates problems that should merely be logged from
// problems that must stop startup.
type ValidationResult struct {
	Warnings []error
	Fatals   []error
}

func (r *ValidationResult) HasFatals() bool { return len(r.Fatals) > 0 }

func (r *ValidationResult) addFatal(format string, args ...interface{}) {
	r.Fatals = append(r.Fatals, fmt.Errorf(format, args...))
}

func (r *ValidationResult) addWarning(format string, args ...interface{}) {
	r.Warnings = append(r.Warnings, fmt.Errorf(format, args...))
}

var validLogLevels = map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
var validLogFormats = map[string]bool{"text": true, "json": true}
var validOutputTargets = map[string]bool{"terminal": true, "rpi": true}

// Validate checks a Config for both hard failures (fatal) and suspicious
// but survivable values (warnings), clamping RenderFreq into range as a
// side effect rather than rejecting it outright.
func (c *Config) Validate() *ValidationResult {
	r := &ValidationResult{}

	if c.Name == "" {
		r.addFatal("name must not be empty")
	}

	if c.RenderFreq < 1 || c.RenderFreq > 1000 {
		r.addWarning("render_freq %d out of range [1,1000], clamping", c.RenderFreq)
		if c.RenderFreq < 1 {
			c.RenderFreq = 1
		} else {
			c.RenderFreq = 1000
		}
	}

	if c.Controller.Host == "" {
		r.addFatal("controller.host must not be empty")
	}
	if c.Controller.Port == 0 {
		r.addFatal("controller.port must not be zero")
	}

	if !validOutputTargets[c.Output.Target] {
		r.addFatal("output.target %q is not one of terminal, rpi", c.Output.Target)
	}
	if c.Output.Target == "rpi" && len(c.Output.Pins) != len(c.Layout.PixelLocations) {
		r.addFatal("output.pins has %d entries, want one per strip (%d)", len(c.Output.Pins), len(c.Layout.PixelLocations))
	}

	if c.LogLevel != "" && !validLogLevels[c.LogLevel] {
		r.addWarning("log_level %q not recognized, defaulting to info", c.LogLevel)
		c.LogLevel = "info"
	}
	if c.LogFormat != "" && !validLogFormats[c.LogFormat] {
		r.addWarning("log_format %q not recognized, defaulting to text", c.LogFormat)
		c.LogFormat = "text"
	}

	return r
}
