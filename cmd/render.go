package cmd

import (
	"context"
	"fmt"
	"os"

	apprender "voicefx-media/application/render"
	"voicefx-media/domain/audio"
	"voicefx-media/domain/effect"
	"voicefx-media/domain/media"
	"voicefx-media/domain/render"
	"voicefx-media/infrastructure/config"
	"voicefx-media/infrastructure/dsp"

	"github.com/spf13/cobra"
)

var (
	renderInput  string
	renderOutput string
	renderPreset string
	renderPitch  int
	renderRate   float64
)

var renderCmd = &cobra.Command{
	Use:   "render",
	Short: "Render the voice effect over an audio file",
	Long: `Render the pitch and speed effect over an audio file offline.

The output has the length of the input divided by the rate. Input and output
formats follow the file extensions.

Example:
  voicefx render --input extracted.m4a --output filtered.m4a --preset child
  voicefx render --input voice.wav --output low.wav --pitch -500 --rate 0.9`,
	RunE: runRender,
}

func init() {
	rootCmd.AddCommand(renderCmd)
	renderCmd.Flags().StringVar(&renderInput, "input", "", "Input audio file (default: scratch extracted artifact)")
	renderCmd.Flags().StringVar(&renderOutput, "output", "", "Output audio file (default: scratch filtered artifact)")
	renderCmd.Flags().StringVar(&renderPreset, "preset", "child", "Preset name")
	renderCmd.Flags().IntVar(&renderPitch, "pitch", 0, "Pitch shift in cents, overrides --preset")
	renderCmd.Flags().Float64Var(&renderRate, "rate", 1.0, "Playback rate, overrides --preset")
}

// RenderInput contains the input parameters for the render command
type RenderInput struct {
	InputPath  string
	OutputPath string
	Preset     string
	Custom     bool
	Parameters effect.Parameters
}

func runRender(cmd *cobra.Command, args []string) error {
	cfg := GetConfig()

	input := RenderInput{InputPath: renderInput, OutputPath: renderOutput, Preset: renderPreset}
	if input.InputPath == "" || input.OutputPath == "" {
		dir, err := newScratch(cfg)
		if err != nil {
			return err
		}
		if input.InputPath == "" {
			input.InputPath = dir.Path(media.ArtifactExtracted)
		}
		if input.OutputPath == "" {
			input.OutputPath = dir.Path(media.ArtifactFiltered)
		}
	}
	if cmd.Flags().Changed("pitch") || cmd.Flags().Changed("rate") {
		input.Custom = true
		input.Parameters = effect.Parameters{PitchCents: renderPitch, Rate: renderRate}
	}

	presets, err := config.PresetSet(cfg)
	if err != nil {
		return fmt.Errorf("invalid presets in config: %w", err)
	}

	return RunRenderWithDependencies(
		cmd.Context(),
		newFileIO(cfg),
		dsp.NewEngine(),
		presets,
		renderOptions(cfg),
		input,
		os.Stdout,
	)
}

// RunRenderWithDependencies runs the render command with injected dependencies (for testing)
func RunRenderWithDependencies(
	ctx context.Context,
	fileIO audio.FileIO,
	engine render.Engine,
	presets *effect.Presets,
	opts apprender.Options,
	input RenderInput,
	output OutputWriter,
) error {
	params := input.Parameters
	if input.Custom {
		if err := params.Validate(); err != nil {
			return err
		}
	} else {
		preset, err := presets.Lookup(input.Preset)
		if err != nil {
			return err
		}
		params = preset.Parameters
	}

	stream, err := fileIO.OpenForReading(ctx, input.InputPath)
	if err != nil {
		return err
	}
	defer stream.Close()

	graph, err := effect.NewGraph(params, stream.Format())
	if err != nil {
		return err
	}

	fmt.Fprintf(output, "Rendering %s with %s...\n", input.InputPath, params)

	renderer := apprender.NewRenderer(engine, fileIO, opts)
	result, err := renderer.RenderFile(ctx, stream, graph, input.OutputPath)
	if err != nil {
		return err
	}

	fmt.Fprintf(output, "Successfully created: %s (%d frames, %s)\n",
		result.OutputPath, result.Frames, formatSeconds(result.Duration().Seconds()))
	return nil
}
