package main

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"asset-forge/internal/application/analysis"
	"asset-forge/internal/application/asset"
	"asset-forge/internal/application/geometry"
	"asset-forge/internal/application/procedural"
	"asset-forge/internal/config"
	"asset-forge/internal/domain/entity"
	"asset-forge/internal/infrastructure/meshio"
)

func newAssetService(cfg *config.Config, outputDir string) (*asset.Service, error) {
	presets := geometry.DefaultPresets()
	if cfg.Storage.ShapesFile != "" {
		p, err := geometry.LoadPresets(cfg.Storage.ShapesFile)
		if err != nil {
			return nil, err
		}
		presets = p
	}
	if outputDir == "" {
		outputDir = cfg.Storage.OutputDir
	}
	return asset.NewService(
		procedural.NewGenerator(presets),
		analysis.NewValidator(meshio.Codec{}),
		asset.Config{OutputDir: outputDir, ScreenshotSize: cfg.Generation.ScreenshotSize},
	), nil
}

func newPromptCommand(root *rootOptions) *cobra.Command {
	var (
		outputDir string
		seed      int64
		steps     int
		guidance  float64
	)
	cmd := &cobra.Command{
		Use:   "prompt TEXT",
		Short: "Generate an asset from a text prompt",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			gen := root.cfg.Generation
			req := entity.GenerationRequest{Prompt: args[0], Seed: gen.DefaultSeed, Steps: gen.DefaultSteps, GuidanceScale: gen.DefaultGuidanceScale}
			if cmd.Flags().Changed("seed") {
				req.Seed = seed
			}
			if cmd.Flags().Changed("steps") {
				req.Steps = steps
			}
			if cmd.Flags().Changed("guidance-scale") {
				req.GuidanceScale = guidance
			}
			if err := req.Validate(); err != nil {
				return err
			}

			svc, err := newAssetService(root.cfg, outputDir)
			if err != nil {
				return err
			}

			jobID := uuid.NewString()
			start := time.Now()
			result, err := svc.Generate(cmd.Context(), jobID, req)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Job %s completed in %s\n", jobID, time.Since(start).Round(time.Millisecond))
			fmt.Fprintf(out, "   Shape: %s %v\n", result.Shape, result.Modifiers)
			fmt.Fprintf(out, "   Vertices: %d, Faces: %d\n", result.Metrics.VertexCount, result.Metrics.FaceCount)
			fmt.Fprintf(out, "   Watertight: %t\n", result.Metrics.IsWatertight)
			if result.Quality != nil && !result.Quality.Passed {
				fmt.Fprintf(out, "   Quality errors: %v\n", result.Quality.Errors)
			}
			fmt.Fprintf(out, "   Output: %s\n", filepath.Join(svc.OutputDir(), jobID))
			return nil
		},
	}

	f := cmd.Flags()
	f.Int64Var(&seed, "seed", 42, "random seed")
	f.IntVar(&steps, "steps", 20, "inference steps, controls mesh detail")
	f.Float64Var(&guidance, "guidance-scale", 7.5, "guidance scale, controls deformation strength")
	f.StringVar(&outputDir, "output-dir", "", "output root (default: storage.output_dir)")
	return cmd
}
