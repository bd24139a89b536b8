package main

import (
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"mesh-dismember/internal/batch"
	"mesh-dismember/internal/config"
	"mesh-dismember/internal/texture"
)

func main() {
	configFile := flag.String("config", "", "Path to a YAML run config")
	rigs := flag.String("rigs", "", "Comma-separated rig files or globs (overrides config)")
	joints := flag.String("joints", "", "Comma-separated joints to cut, in order (overrides config)")
	mode := flag.String("mode", "", "Default cut mode: threshold or mask")
	threshold := flag.Float64("threshold", 0, "Global bone-weight threshold in (0, 1]")
	workers := flag.Int("workers", 0, "Number of worker goroutines (default: NumCPU)")
	outputDir := flag.String("output", "", "Output directory (default: out)")
	noPreview := flag.Bool("no-preview", false, "Skip preview images")
	testN := flag.Int("test", 0, "Process only the first N rigs")
	quiet := flag.Bool("quiet", false, "Silence engine logging")

	flag.Parse()

	var cfg config.Config
	if *configFile != "" {
		var err error
		cfg, err = config.Load(*configFile)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
			os.Exit(1)
		}
	}

	cfg.Resolve(config.Flags{
		Rigs:      splitList(*rigs),
		OutputDir: *outputDir,
		Joints:    splitList(*joints),
		Mode:      *mode,
		Threshold: float32(*threshold),
		Workers:   *workers,
		NoPreview: *noPreview,
	})

	files, err := cfg.RigFiles()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	if *testN > 0 && *testN < len(files) {
		files = files[:*testN]
	}

	engineCfg, err := cfg.Engine()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	if engineCfg.MaskAsset != nil {
		for _, w := range engineCfg.MaskAsset.Warnings() {
			fmt.Fprintf(os.Stderr, "Warning: mask asset: %s\n", w)
		}
	}
	cuts, err := cfg.Requests()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	if len(cuts) == 0 {
		fmt.Println("No cuts configured.")
		os.Exit(0)
	}
	previewOpts, format, err := cfg.PreviewOptions()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	texIndex := texture.BuildIndex(cfg.TextureDirs...)
	fmt.Printf("Textures: %d indexed\n", texIndex.Len())

	logger := log.New(os.Stderr, "", 0)
	if *quiet {
		logger.SetOutput(io.Discard)
	}

	fmt.Println("Skinned mesh dismemberment")
	fmt.Printf("Rigs: %d, Cuts: %d, Mode: %s, Workers: %d\n", len(files), len(cuts), modeName(cfg.Mode), cfg.Workers)
	fmt.Printf("Output: %s\n", cfg.OutputDir)
	fmt.Println("------------------------------------------------------------")

	start := time.Now()
	results := batch.Run(batch.Config{
		Engine:      engineCfg,
		CapMaterial: cfg.Cap(),
		Cuts:        cuts,
		OutputDir:   cfg.OutputDir,
		Textures:    texture.NewCache(texIndex),
		Preview:     previewOpts,
		Format:      format,
		NoPreview:   cfg.Preview.Disabled,
		Workers:     cfg.Workers,
		Logger:      logger,
	}, files)

	fmt.Println("------------------------------------------------------------")
	fmt.Printf("Done in %.1fs\n", time.Since(start).Seconds())

	var failed []batch.Result
	fragments := 0
	for _, r := range results {
		fragments += r.Fragments
		if !r.Success {
			failed = append(failed, r)
		}
	}
	fmt.Printf("Processed: %d/%d, fragments: %d\n", len(results)-len(failed), len(results), fragments)

	if len(failed) > 0 {
		fmt.Printf("\nFailed (%d):\n", len(failed))
		for _, r := range failed[:min(len(failed), 20)] {
			fmt.Printf("  %s: %s\n", r.Name, r.Error)
		}
	}

	manifestPath := filepath.Join(cfg.OutputDir, "manifest.json")
	if err := os.MkdirAll(cfg.OutputDir, 0o755); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: %v\n", err)
	}
	if err := batch.WriteManifest(manifestPath, results); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: manifest write failed: %v\n", err)
	} else {
		fmt.Printf("Manifest: %s\n", manifestPath)
	}

	if len(failed) > 0 {
		os.Exit(1)
	}
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func modeName(m string) string {
	if m == "" {
		return "threshold"
	}
	return m
}
