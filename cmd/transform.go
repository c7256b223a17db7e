package cmd

import (
	"context"
	"fmt"
	"os"

	"voicefx-media/application/pipeline"
	"voicefx-media/domain/effect"

	"github.com/spf13/cobra"
)

var (
	transformSource    string
	transformPreset    string
	transformPitch     int
	transformRate      float64
	transformListSteps bool
)

var transformCmd = &cobra.Command{
	Use:   "transform",
	Short: "Apply a voice preset to the audio of a video",
	Long: `Transform a video through the complete pipeline:
1. Extract the audio tracks
2. Render the pitch and speed effect offline
3. Remux the filtered audio with the original video

The source is a file name inside the library directory, an absolute path, or a
Google Drive file written as drive:<fileID>.

The result is written to the scratch directory and replaced by the next run.

Use --pitch and --rate instead of --preset for ad-hoc parameters.

Example:
  voicefx transform --source clip.mp4 --preset child
  voicefx transform --source drive:1AbCdEf --preset man
  voicefx transform --source clip.mp4 --pitch 300 --rate 1.05`,
	RunE: runTransform,
}

func init() {
	rootCmd.AddCommand(transformCmd)
	transformCmd.Flags().StringVar(&transformSource, "source", "", "Library file name, path, or drive:<fileID> (required)")
	transformCmd.Flags().StringVar(&transformPreset, "preset", "child", "Preset name (see 'voicefx presets list')")
	transformCmd.Flags().IntVar(&transformPitch, "pitch", 0, "Pitch shift in cents, overrides --preset")
	transformCmd.Flags().Float64Var(&transformRate, "rate", 1.0, "Playback rate, overrides --preset")
	transformCmd.Flags().BoolVar(&transformListSteps, "list-steps", false, "List the pipeline steps and exit")
}

// TransformInput contains the input parameters for the transform command
type TransformInput struct {
	Source string
	Preset string
	// Custom selects Parameters instead of Preset
	Custom     bool
	Parameters effect.Parameters
}

func runTransform(cmd *cobra.Command, args []string) error {
	if transformListSteps {
		return RunListSteps(os.Stdout)
	}
	if transformSource == "" {
		return fmt.Errorf("--source is required")
	}

	cfg := GetConfig()
	ctx := cmd.Context()

	deps, err := newPipelineDependencies(ctx, cfg)
	if err != nil {
		return err
	}
	if err := verifyTools(ctx, deps.Extractor, deps.Remuxer); err != nil {
		return err
	}

	input := TransformInput{Source: transformSource, Preset: transformPreset}
	if cmd.Flags().Changed("pitch") || cmd.Flags().Changed("rate") {
		input.Custom = true
		input.Parameters = effect.Parameters{PitchCents: transformPitch, Rate: transformRate}
	}

	opts := pipeline.Options{
		StageTimeout: cfg.Pipeline.StageTimeout,
		Render:       renderOptions(cfg),
	}

	return RunTransformWithDependencies(ctx, deps, opts, input, os.Stdout)
}

// RunTransformWithDependencies runs the transform command with injected dependencies (for testing)
func RunTransformWithDependencies(
	ctx context.Context,
	deps pipeline.Dependencies,
	opts pipeline.Options,
	input TransformInput,
	output OutputWriter,
) error {
	service := pipeline.NewService(deps, opts, output)

	asset, err := service.Resolve(ctx, input.Source)
	if err != nil {
		return fmt.Errorf("failed to resolve source %q: %w", input.Source, err)
	}

	var result *pipeline.Result
	if input.Custom {
		result, err = service.ApplyParameters(ctx, asset, input.Parameters)
	} else {
		result, err = service.ApplyPreset(ctx, asset, input.Preset)
	}
	if err != nil {
		return err
	}

	fmt.Fprintf(output, "Output:  %s\n", result.OutputPath)
	fmt.Fprintf(output, "Video:   %s\n", formatSeconds(result.VideoDuration.Seconds()))
	fmt.Fprintf(output, "Audio:   %s\n", formatSeconds(result.AudioDuration.Seconds()))
	fmt.Fprintf(output, "Run ID:  %s\n", result.RunID)
	return nil
}

// RunListSteps prints the pipeline steps
func RunListSteps(output OutputWriter) error {
	fmt.Fprintln(output, "Transform steps:")
	for _, step := range pipeline.GetSteps() {
		fmt.Fprintf(output, "  %d. %s (%s)\n", step.Number, step.Description, step.Stage)
	}
	return nil
}

func formatSeconds(s float64) string {
	return fmt.Sprintf("%.2fs", s)
}
