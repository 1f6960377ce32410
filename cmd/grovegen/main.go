// grovegen builds heightfield terrain meshes and scatters tree groups on them.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"strconv"
	"syscall"

	"go.uber.org/zap"

	"github.com/Faultbox/grove/internal/config"
	"github.com/Faultbox/grove/internal/logger"
	"github.com/Faultbox/grove/internal/scatter"
	"github.com/Faultbox/grove/internal/world"
	"github.com/Faultbox/grove/pkg/formats"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	command := os.Args[1]
	args := os.Args[2:]

	switch command {
	case "generate", "gen":
		cmdGenerate(args)
	case "query", "q":
		cmdQuery(args)
	case "watch", "w":
		cmdWatch(args)
	case "inspect", "i":
		cmdInspect(args)
	case "init":
		cmdInit(args)
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", command)
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println(`grovegen - heightfield terrain and tree placement generator

Usage:
  grovegen <command> [options]

Commands:
  generate                 Build the terrain and trees, write the outputs
  query <x> <z> [options]  Print the terrain height and normal at a point
  watch                    Regenerate whenever the config or heightmap changes
  inspect                  Summarize the written terrain.obj and trees.yaml
  init                     Write the default config to -config or ./grove.yaml

Options:
  -config <file>           Config file (default ./grove.yaml)
  -heightmap <file>        Heightmap image, PNG or BMP (default: procedural)
  -seed <n>                Seed for trees and procedural heightmaps
  -width <n>, -depth <n>   Terrain resolution in cells
  -out <dir>               Write terrain.obj and trees.yaml into dir
  -debug                   Enable debug logging

Examples:
  grovegen generate -heightmap island.png -out build
  grovegen query -seed 7 32 32
  grovegen query -5 3 -seed 7
  grovegen query -seed 7 -- -5 3
  grovegen watch -config grove.yaml
  grovegen inspect -out build`)
}

// setup parses flags, loads config and initializes the logger.
func setup(args []string) (*config.Config, string) {
	if err := config.ParseFlags(args); err != nil {
		os.Exit(2)
	}

	cfg, path, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Config error: %v\n", err)
		os.Exit(1)
	}

	if err := logger.Init(cfg.Logging.Level, cfg.Logging.LogFile); err != nil {
		fmt.Fprintf(os.Stderr, "Logger error: %v\n", err)
		os.Exit(1)
	}
	logger.Sugar.Debugf("Config: %+v", cfg)
	return cfg, path
}

func newWorld(cfg *config.Config) *world.World {
	return world.New(cfg, cfg.Heightmap.Source(), scatter.NewRandom(cfg.Trees.Seed))
}

func cmdGenerate(args []string) {
	cfg, _ := setup(args)
	defer logger.Sync()

	w := newWorld(cfg)
	if err := w.Regenerate(); err != nil {
		logger.Error("generation failed", zap.Error(err))
		os.Exit(1)
	}
	if err := w.Export(cfg.Output.MeshPath, cfg.Output.PlacementsPath); err != nil {
		logger.Error("writing output", zap.Error(err))
		os.Exit(1)
	}

	printSummary(w, cfg)
}

// splitCoords takes a leading numeric x z pair off args so negative
// coordinates are not read as flags. Otherwise args are returned unchanged.
func splitCoords(args []string) (coords, rest []string) {
	if len(args) >= 2 && isNumber(args[0]) && isNumber(args[1]) {
		return args[:2], args[2:]
	}
	return nil, args
}

func isNumber(s string) bool {
	_, err := strconv.ParseFloat(s, 32)
	return err == nil
}

// parseCoords parses an x z pair.
func parseCoords(args []string) (x, z float32, err error) {
	if len(args) != 2 {
		return 0, 0, fmt.Errorf("expected <x> <z>, got %d arguments", len(args))
	}
	fx, errX := strconv.ParseFloat(args[0], 32)
	fz, errZ := strconv.ParseFloat(args[1], 32)
	if errX != nil || errZ != nil {
		return 0, 0, fmt.Errorf("coordinates must be numbers, got %q %q", args[0], args[1])
	}
	return float32(fx), float32(fz), nil
}

func cmdQuery(args []string) {
	coords, flagArgs := splitCoords(args)
	cfg, _ := setup(flagArgs)
	defer logger.Sync()

	if coords == nil {
		coords = config.Args()
	} else if extra := config.Args(); len(extra) > 0 {
		coords = append(coords, extra...)
	}
	x, z, err := parseCoords(coords)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		fmt.Fprintln(os.Stderr, "Usage: grovegen query <x> <z> [options]  or  grovegen query [options] -- <x> <z>")
		os.Exit(1)
	}

	w := newWorld(cfg)
	if err := w.Regenerate(); err != nil {
		logger.Error("generation failed", zap.Error(err))
		os.Exit(1)
	}

	y, n, ok := w.HeightAt(x, z)
	if !ok {
		fp := w.Footprint()
		fmt.Printf("miss: (%g, %g) is outside [%g, %g] x [%g, %g]\n", x, z, fp.MinX, fp.MaxX, fp.MinZ, fp.MaxZ)
		os.Exit(1)
	}
	fmt.Printf("hit:    (%g, %.4f, %g)\n", x, y, z)
	fmt.Printf("normal: (%.4f, %.4f, %.4f)\n", n.X, n.Y, n.Z)
}

func cmdWatch(args []string) {
	cfg, cfgPath := setup(args)
	defer logger.Sync()

	w := newWorld(cfg)
	w.OnRegenerate(func(w *world.World) {
		if err := w.Export(cfg.Output.MeshPath, cfg.Output.PlacementsPath); err != nil {
			logger.Error("writing output", zap.Error(err))
			return
		}
		logger.Info("world regenerated",
			zap.Int("generation", w.Generation()),
			zap.Int("trees", w.Stats().TreesPlaced))
	})
	if err := w.Regenerate(); err != nil {
		logger.Warn("initial generation failed, waiting for changes", zap.Error(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// A heightmap change only needs a regeneration. A config change may
	// point at a different heightmap file, so the watched set follows it.
	reload := func(path string) ([]string, error) {
		if cfgPath == "" || path != absPath(cfgPath) {
			return nil, nil
		}
		next, err := config.LoadFile(cfgPath)
		if err != nil {
			return nil, err
		}
		if err := w.Apply(next); err != nil {
			return nil, err
		}
		w.SetSource(next.Heightmap.Source())
		cfg = next
		return []string{cfgPath, next.Heightmap.Path}, nil
	}

	if err := w.Watch(ctx, []string{cfgPath, cfg.Heightmap.Path}, reload); err != nil {
		logger.Error("watch failed", zap.Error(err))
		os.Exit(1)
	}
	logger.Info("watch stopped")
}

func cmdInspect(args []string) {
	cfg, _ := setup(args)
	defer logger.Sync()

	mesh, err := formats.ParseOBJFile(cfg.Output.MeshPath)
	if err != nil {
		logger.Error("reading mesh", zap.String("path", cfg.Output.MeshPath), zap.Error(err))
		os.Exit(1)
	}
	placed, err := formats.LoadPlacements(cfg.Output.PlacementsPath)
	if err != nil {
		logger.Error("reading placements", zap.String("path", cfg.Output.PlacementsPath), zap.Error(err))
		os.Exit(1)
	}

	fmt.Printf("mesh:     %s\n", cfg.Output.MeshPath)
	fmt.Printf("          %d vertices, %d triangles\n", len(mesh.Positions), mesh.TriangleCount())
	fmt.Printf("placed:   %s\n", cfg.Output.PlacementsPath)
	fmt.Printf("          seed %d, %d trees\n", placed.Seed, len(placed.Instances))
	for _, line := range speciesCounts(placed.Instances) {
		fmt.Printf("          %s\n", line)
	}
}

// speciesCounts returns "name: n" lines sorted by species name.
func speciesCounts(instances []formats.Placement) []string {
	counts := make(map[string]int)
	for _, p := range instances {
		counts[p.Species]++
	}
	names := make([]string, 0, len(counts))
	for name := range counts {
		names = append(names, name)
	}
	sort.Strings(names)

	lines := make([]string, len(names))
	for i, name := range names {
		lines[i] = fmt.Sprintf("%s: %d", name, counts[name])
	}
	return lines
}

func cmdInit(args []string) {
	if err := config.ParseFlags(args); err != nil {
		os.Exit(2)
	}
	path := config.ConfigPath()
	if path == "" {
		path = config.FileName
	}
	if _, err := os.Stat(path); err == nil {
		fmt.Fprintf(os.Stderr, "Error: %s already exists\n", path)
		os.Exit(1)
	}
	if err := config.Default().SaveTo(path); err != nil {
		fmt.Fprintf(os.Stderr, "Error: writing %s: %v\n", path, err)
		os.Exit(1)
	}
	fmt.Printf("wrote %s\n", path)
}

func absPath(p string) string {
	abs, err := filepath.Abs(p)
	if err != nil {
		return p
	}
	return abs
}

func printSummary(w *world.World, cfg *config.Config) {
	fp := w.Footprint()
	stats := w.Stats()
	mesh := w.Terrain().Mesh()

	fmt.Printf("terrain:  %dx%d cells, %d vertices, %d triangles\n",
		cfg.Terrain.Width, cfg.Terrain.Depth, len(mesh.Vertices), len(mesh.Indices)/3)
	fmt.Printf("extent:   x [%g, %g]  z [%g, %g]\n", fp.MinX, fp.MaxX, fp.MinZ, fp.MaxZ)
	fmt.Printf("groups:   %d placed, %d rejected\n", stats.GroupsPlaced, stats.GroupsRejected)
	fmt.Printf("trees:    %d placed, %d rejected\n", stats.TreesPlaced, stats.TreesRejected)
	if cfg.Output.MeshPath != "" {
		fmt.Printf("mesh:     %s\n", cfg.Output.MeshPath)
	}
	if cfg.Output.PlacementsPath != "" {
		fmt.Printf("placed:   %s\n", cfg.Output.PlacementsPath)
	}
}
