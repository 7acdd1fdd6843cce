package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"mrivolviz/pkg/classify"
	"mrivolviz/pkg/config"
	"mrivolviz/pkg/normalize"
	"mrivolviz/pkg/render"
	"mrivolviz/pkg/slicer"
	"mrivolviz/pkg/volume"
)

func main() {
	// Parse command line arguments
	inputFile := flag.String("input", "", "NIfTI volume to visualize (.nii or .nii.gz)")
	configPath := flag.String("config", "", "Optional YAML config file")
	outputDir := flag.String("output-dir", "", "Directory for rendered outputs (overrides config)")
	strategy := flag.String("strategy", "", "Normalization strategy: minmax or percentile (overrides config)")
	tissueThreshold := flag.Float64("tissue", -1, "Tissue threshold in [0,1) (overrides config)")
	regionThreshold := flag.Float64("region", -1, "Region threshold in (0,1] (overrides config)")
	sampleRatio := flag.Float64("ratio", -1, "Point sampling ratio in (0,1] (overrides config)")
	seed := flag.Uint64("seed", 0, "Sampling seed (overrides config)")
	workers := flag.Int("workers", 0, "Parallel scan workers (overrides config)")
	sliceIndex := flag.Int("slice-index", -1, "Slice index for the overlay images (default: volume center)")
	writeConfig := flag.String("write-config", "", "Write a default YAML config to this path and exit")
	flag.Parse()

	if *writeConfig != "" {
		if err := config.CreateDefaultConfigFile(*writeConfig); err != nil {
			log.Fatalf("Failed to write default config: %v", err)
		}
		fmt.Printf("Default configuration written to %s\n", *writeConfig)
		return
	}

	// Validate inputs
	if *inputFile == "" {
		flag.Usage()
		os.Exit(1)
	}

	// Load configuration and apply flag overrides
	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if *outputDir != "" {
		cfg.Output.Dir = *outputDir
	}
	if *strategy != "" {
		cfg.Normalization.Strategy = *strategy
	}
	if *tissueThreshold >= 0 {
		cfg.Classification.TissueThreshold = *tissueThreshold
	}
	if *regionThreshold >= 0 {
		cfg.Classification.RegionThreshold = *regionThreshold
	}
	if *sampleRatio >= 0 {
		cfg.Classification.SampleRatio = *sampleRatio
	}
	if *seed != 0 {
		cfg.Classification.Seed = *seed
	}
	if *workers > 0 {
		cfg.Classification.Workers = *workers
	}

	strat, err := normalize.ParseStrategy(cfg.Normalization.Strategy)
	if err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	fmt.Println("================================")
	fmt.Println("VOLUMETRIC SCAN CLASSIFIER AND POINT-CLOUD EXTRACTOR")
	fmt.Println("================================")

	// Step 1: Load the volume
	fmt.Printf("Step 1: Loading volume from %s...\n", *inputFile)
	startTime := time.Now()
	vol, err := volume.LoadNIfTI(*inputFile)
	if err != nil {
		log.Fatalf("Failed to load volume: %v", err)
	}
	fmt.Printf("Loaded %dx%dx%d volume (%d voxels)\n", vol.Nx, vol.Ny, vol.Nz, vol.Len())

	// Step 2: Normalize intensities
	fmt.Printf("Step 2: Normalizing intensities (%s)...\n", strat)
	var norm *volume.Volume
	if strat == normalize.PercentileClip {
		norm, err = normalize.PercentileClipNormalize(vol,
			cfg.Normalization.LowPercentile, cfg.Normalization.HighPercentile)
	} else {
		norm, err = normalize.MinMaxNormalize(vol)
	}
	if err != nil {
		log.Fatalf("Normalization failed: %v", err)
	}

	// Step 3: Classify and sample point clouds
	fmt.Println("Step 3: Classifying voxels and sampling point clouds...")
	thr := classify.Thresholds{
		Tissue: cfg.Classification.TissueThreshold,
		Region: cfg.Classification.RegionThreshold,
	}
	result, err := classify.ClassifyAndSample(norm, thr, classify.Options{
		SampleRatio: cfg.Classification.SampleRatio,
		FloorCount:  cfg.Classification.FloorCount,
		RegionBoost: cfg.Classification.RegionBoost,
		Seed:        cfg.Classification.Seed,
		Workers:     cfg.Classification.Workers,
	})
	if err != nil {
		log.Fatalf("Classification failed: %v", err)
	}
	fmt.Printf("Sampled %d tissue points and %d region points\n", len(result.Tissue), len(result.Region))
	if len(result.Region) == 0 {
		fmt.Println("No voxels above the region threshold; region rendering will be skipped")
	}

	// Step 4: Write outputs
	fmt.Printf("Step 4: Writing outputs to %s...\n", cfg.Output.Dir)
	if err := os.MkdirAll(cfg.Output.Dir, 0755); err != nil {
		log.Fatalf("Failed to create output directory: %v", err)
	}

	if cfg.Output.WritePLY {
		if err := render.SavePLY(result.Tissue, filepath.Join(cfg.Output.Dir, "tissue.ply")); err != nil {
			log.Fatalf("Failed to write tissue point cloud: %v", err)
		}
		if len(result.Region) > 0 {
			if err := render.SavePLY(result.Region, filepath.Join(cfg.Output.Dir, "region.ply")); err != nil {
				log.Fatalf("Failed to write region point cloud: %v", err)
			}
		}
	}

	if cfg.Output.WriteHTML {
		title := fmt.Sprintf("Volume classification (%s)", filepath.Base(*inputFile))
		if err := render.SaveScatterHTML(result, title, filepath.Join(cfg.Output.Dir, "pointcloud.html")); err != nil {
			log.Fatalf("Failed to write scatter page: %v", err)
		}
	}

	if cfg.Output.WriteSlices {
		for _, axis := range []slicer.Axis{slicer.AxisX, slicer.AxisY, slicer.AxisZ} {
			index := *sliceIndex
			if index < 0 {
				index = centerIndex(norm, axis)
			}
			s, m, err := slicer.ExtractSlice(norm, axis, index, thr.Region)
			if err != nil {
				log.Fatalf("Failed to extract %s slice: %v", axis, err)
			}
			filename := filepath.Join(cfg.Output.Dir, fmt.Sprintf("slice_%s_%03d.jpg", axis, index))
			if err := render.SaveSliceJPEG(s, m, filename); err != nil {
				log.Fatalf("Failed to save %s slice: %v", axis, err)
			}
		}
	}

	fmt.Printf("\nDone in %.2f seconds\n", time.Since(startTime).Seconds())
}

func centerIndex(vol *volume.Volume, axis slicer.Axis) int {
	switch axis {
	case slicer.AxisX:
		return vol.Nx / 2
	case slicer.AxisY:
		return vol.Ny / 2
	default:
		return vol.Nz / 2
	}
}
