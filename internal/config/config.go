// Package config handles flexgen configuration loading and management.
package config

// Backend names accepted by RenderConfig.Backend.
const (
	BackendSoft = "soft"
	BackendGL   = "gl"
)

// Config holds all generator settings.
type Config struct {
	Output    OutputConfig    `yaml:"output"`
	Render    RenderConfig    `yaml:"render"`
	GapFill   GapFillConfig   `yaml:"gap_fill"`
	Noise     NoiseConfig     `yaml:"noise"`
	Resources ResourcesConfig `yaml:"resources"`
	Workers   int             `yaml:"workers"` // 0 keeps GOMAXPROCS
	Logging   LoggingConfig   `yaml:"logging"`
}

// OutputConfig controls where generated files go.
type OutputConfig struct {
	Dir   string `yaml:"dir"`   // Base directory for relative output files
	Force bool   `yaml:"force"` // Regenerate even when every output exists
}

// RenderConfig selects the rendering backend.
type RenderConfig struct {
	Backend string `yaml:"backend"`
}

// GapFillConfig holds defaults for the fillgaps command.
type GapFillConfig struct {
	Downsample  int  `yaml:"downsample"`
	Transparent bool `yaml:"transparent"`
}

// NoiseConfig holds defaults for the noise command.
type NoiseConfig struct {
	Size     int       `yaml:"size"`
	Octaves  []float32 `yaml:"octaves"` // Magnitudes; octave i doubles the scale of octave i-1
	Seed     float32   `yaml:"seed"`
	Bias     float32   `yaml:"bias"`
	Contrast float32   `yaml:"contrast"`
}

// ResourcesConfig lists resource search directories, lowest priority first.
type ResourcesConfig struct {
	Dirs []string `yaml:"dirs"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level   string `yaml:"level"`
	LogFile string `yaml:"log_file"`
}

// Default returns a Config with sensible default values.
func Default() *Config {
	return &Config{
		Output: OutputConfig{
			Dir: ".",
		},
		Render: RenderConfig{
			Backend: BackendSoft,
		},
		GapFill: GapFillConfig{
			Downsample: 0,
		},
		Noise: NoiseConfig{
			Size:    256,
			Octaves: []float32{1, 0.5, 0.25},
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}
