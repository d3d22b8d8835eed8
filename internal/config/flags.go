package config

import "flag"

var (
	flagConfig  = flag.String("config", "", "Path to config file")
	flagDebug   = flag.Bool("debug", false, "Enable debug logging")
	flagBackend = flag.String("backend", "", "Rendering backend (soft or gl)")
	flagOut     = flag.String("out", "", "Output directory")
	flagForce   = flag.Bool("force", false, "Regenerate outputs that already exist")
	flagWorkers = flag.Int("workers", 0, "Number of worker goroutines")
)

// ParseFlags parses command-line flags. Call this early in main().
// Parsing stops at the first non-flag argument, which is the subcommand.
func ParseFlags() {
	flag.Parse()
}

// ConfigPath returns the explicit config path if provided via --config flag.
func ConfigPath() string {
	return *flagConfig
}

// applyFlags applies CLI flag overrides to the config.
func applyFlags(cfg *Config) {
	if *flagDebug {
		cfg.Logging.Level = "debug"
	}
	if *flagBackend != "" {
		cfg.Render.Backend = *flagBackend
	}
	if *flagOut != "" {
		cfg.Output.Dir = *flagOut
	}
	if *flagForce {
		cfg.Output.Force = true
	}
	if *flagWorkers > 0 {
		cfg.Workers = *flagWorkers
	}
}
