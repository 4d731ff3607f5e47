// Package config loads and validates the TOML configuration that drives
// the endpoint's layout, render cadence, controller address, and output
// backend selection.
package config

import (
	"fmt"

	"github.com/spf13/viper"

	"github.com/ledbetter-fw/endpoint/internal/layout"
)

// ControllerConfig holds the address of the remote controller.
type ControllerConfig struct {
	Host string `mapstructure:"host"`
	Port uint16 `mapstructure:"port"`
}

// OutputConfig selects and parameterizes the LedSink backend.
type OutputConfig struct {
	Target string   `mapstructure:"target"`
	Pins   []uint32 `mapstructure:"pins"`
}

// LayoutConfig is the raw, file-shaped form of the physical layout: one
// slice of (x, y) pairs per strip.
type LayoutConfig struct {
	PixelLocations [][][2]float32 `mapstructure:"pixel_locations"`
}

// Config is the fully parsed, not-yet-validated configuration.
type Config struct {
	Name       string           `mapstructure:"name"`
	RenderFreq int              `mapstructure:"render_freq"`
	Controller ControllerConfig `mapstructure:"controller"`
	Output     OutputConfig     `mapstructure:"output"`
	Layout     LayoutConfig     `mapstructure:"layout"`
	LogLevel   string           `mapstructure:"log_level"`
	LogFormat  string           `mapstructure:"log_format"`
	LogFile    string           `mapstructure:"log_file"`
}

// Default returns a Config with every field at its documented default.
// Load starts from this and overlays whatever the file specifies.
func Default() *Config {
	return &Config{
		Name:       "ledbetter",
		RenderFreq: 60,
		Controller: ControllerConfig{Host: "localhost", Port: 9000},
		Output:     OutputConfig{Target: "terminal"},
		LogLevel:   "info",
		LogFormat:  "text",
	}
}

// Load reads and parses the TOML file at path into a fresh Config. It
// uses a private viper instance rather than the package-global one, so
// repeated loads in the same process (or in tests) never leak state.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("toml")

	def := Default()
	v.SetDefault("name", def.Name)
	v.SetDefault("render_freq", def.RenderFreq)
	v.SetDefault("controller.host", def.Controller.Host)
	v.SetDefault("controller.port", def.Controller.Port)
	v.SetDefault("output.target", def.Output.Target)
	v.SetDefault("log_level", def.LogLevel)
	v.SetDefault("log_format", def.LogFormat)
	v.SetDefault("log_file", def.LogFile)

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}

	return &cfg, nil
}

// ToLayout converts the file-shaped layout config into the domain's
// Layout type.
func (c *Config) ToLayout() *layout.Layout {
	l := &layout.Layout{Strips: make([]layout.Strip, len(c.Layout.PixelLocations))}
	for i, strip := range c.Layout.PixelLocations {
		pixels := make([]layout.PixelLoc, len(strip))
		for j, p := range strip {
			pixels[j] = layout.PixelLoc{X: p[0], Y: p[1]}
		}
		l.Strips[i] = layout.Strip{Pixels: pixels}
	}
	return l
}
