// Command spectroset builds a spectrogram image dataset from labelled audio.
//
// Usage:
//
//	spectroset [options] <source-dir> <output-dir>
//	spectroset -seed 42 recordings dataset
//	spectroset -profiles 96k,48k,16k:16000:256:64 -workers 8 recordings dataset
//	spectroset -manifest runs.db -replay <run-id> recordings dataset
//
// Defaults for most options can be set with SPECTROSET_* environment
// variables or a .env file in the working directory.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"runtime/pprof"
	"strconv"
	"strings"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/tphakala/spectroset"
)

const (
	envSource   = "SPECTROSET_SOURCE"
	envOutput   = "SPECTROSET_OUTPUT"
	envProfiles = "SPECTROSET_PROFILES"
	envSeed     = "SPECTROSET_SEED"
	envWorkers  = "SPECTROSET_WORKERS"
	envManifest = "SPECTROSET_MANIFEST"

	positionalArgs = 2
)

var errUsage = errors.New("source and output directories are required")

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	_ = godotenv.Load()

	cfg := spectroset.DefaultConfig()

	seed, err := envUint(envSeed, cfg.Seed)
	if err != nil {
		return err
	}
	workers, err := envInt(envWorkers, cfg.Workers)
	if err != nil {
		return err
	}

	source := flag.String("source", os.Getenv(envSource), "Directory searched recursively for recordings")
	output := flag.String("output", os.Getenv(envOutput), "Directory that receives the dataset")
	profiles := flag.String("profiles", envString(envProfiles, cfg.Catalog.Names()),
		"Comma-separated rate profiles: preset names or name:rate:window:hop")
	exts := flag.String("ext", strings.Join(cfg.Extensions, ","), "Comma-separated audio extensions")
	flag.Uint64Var(&cfg.Seed, "seed", seed, "Split shuffle seed (0 picks a random seed)")
	flag.IntVar(&cfg.Workers, "workers", workers, "Files processed concurrently (0 = one per CPU)")
	flag.IntVar(&cfg.Width, "width", cfg.Width, "Image width in pixels")
	flag.IntVar(&cfg.Height, "height", cfg.Height, "Image height in pixels")
	flag.StringVar(&cfg.Interpolation, "interp", cfg.Interpolation, "Canvas scaling: nearest, bilinear, catmullrom")
	flag.Float64Var(&cfg.TopDB, "top-db", cfg.TopDB, "Dynamic range below the peak in dB")
	flag.StringVar(&cfg.ManifestPath, "manifest", os.Getenv(envManifest), "SQLite run manifest (empty disables)")
	flag.StringVar(&cfg.ReplayRun, "replay", "", "Reuse the split assignment of a run stored in the manifest")
	verbose := flag.Bool("v", false, "Verbose output")
	cpuprofile := flag.String("cpuprofile", "", "Write CPU profile to file (for PGO)")
	flag.Parse()

	cfg.SourceDir, cfg.OutputDir, err = resolveDirs(*source, *output, flag.Args())
	if err != nil {
		fmt.Fprintf(os.Stderr, "Usage: %s [options] <source-dir> <output-dir>\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
		return err
	}

	cfg.Catalog, err = spectroset.ParseCatalog(*profiles)
	if err != nil {
		return err
	}
	cfg.Extensions = splitList(*exts)

	if *cpuprofile != "" {
		f, err := os.Create(*cpuprofile)
		if err != nil {
			return fmt.Errorf("could not create CPU profile: %w", err)
		}
		if err := pprof.StartCPUProfile(f); err != nil {
			_ = f.Close()
			return fmt.Errorf("could not start CPU profile: %w", err)
		}
		defer func() {
			pprof.StopCPUProfile()
			_ = f.Close()
		}()
	}

	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	logger := spectroset.NewLogger(os.Stderr, level)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	report, err := spectroset.Run(ctx, cfg, logger)
	if report != nil {
		fmt.Println(report)
	}
	return err
}

// resolveDirs takes the directories from flags, falling back to positional
// arguments.
func resolveDirs(source, output string, args []string) (string, string, error) {
	if len(args) >= positionalArgs {
		source, output = args[0], args[1]
	}
	if source == "" || output == "" {
		return "", "", errUsage
	}
	return source, output, nil
}

func envString(key string, def []string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return strings.Join(def, ",")
}

func envUint(key string, def uint64) (uint64, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	n, err := strconv.ParseUint(v, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return n, nil
}

func envInt(key string, def int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return n, nil
}

func splitList(s string) []string {
	var out []string
	for part := range strings.SplitSeq(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
