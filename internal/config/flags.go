package config

import (
	"flag"
	"path/filepath"
)

var (
	flagConfig    = flag.String("config", "", "Path to config file")
	flagDebug     = flag.Bool("debug", false, "Enable debug logging")
	flagSeed      = flag.Int64("seed", 0, "Seed for tree placement and procedural heightmaps")
	flagHeightmap = flag.String("heightmap", "", "Heightmap image (PNG or BMP)")
	flagWidth     = flag.Int("width", 0, "Terrain cells along X")
	flagDepth     = flag.Int("depth", 0, "Terrain cells along Z")
	flagOut       = flag.String("out", "", "Directory for terrain.obj and trees.yaml")
)

// ParseFlags parses command-line flags from args, usually os.Args after the
// subcommand. Call this early in main().
func ParseFlags(args []string) error {
	return flag.CommandLine.Parse(args)
}

// Args returns the positional arguments left after flag parsing.
func Args() []string {
	return flag.Args()
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
	if *flagSeed != 0 {
		cfg.Trees.Seed = *flagSeed
		cfg.Heightmap.Noise.Seed = *flagSeed
	}
	if *flagHeightmap != "" {
		cfg.Heightmap.Path = *flagHeightmap
	}
	if *flagWidth > 0 {
		cfg.Terrain.Width = *flagWidth
	}
	if *flagDepth > 0 {
		cfg.Terrain.Depth = *flagDepth
	}
	if *flagOut != "" {
		cfg.Output.MeshPath = filepath.Join(*flagOut, "terrain.obj")
		cfg.Output.PlacementsPath = filepath.Join(*flagOut, "trees.yaml")
	}
}
