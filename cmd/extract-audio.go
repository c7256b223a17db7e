package cmd

import (
	"context"
	"fmt"
	"os"

	"voicefx-media/domain/media"

	"github.com/spf13/cobra"
)

var (
	extractSource string
	extractOutput string
)

var extractAudioCmd = &cobra.Command{
	Use:   "extract-audio",
	Short: "Extract the audio tracks of a video",
	Long: `Extract only the audio tracks of a video into a standalone audio file.

The output container follows the file extension (.m4a, .wav, .mp3, ...). It defaults
to the extracted artifact in the scratch directory.

Example:
  voicefx extract-audio --source clip.mp4
  voicefx extract-audio --source drive:1AbCdEf --output /tmp/voice.wav`,
	RunE: runExtractAudio,
}

func init() {
	rootCmd.AddCommand(extractAudioCmd)
	extractAudioCmd.Flags().StringVar(&extractSource, "source", "", "Library file name, path, or drive:<fileID> (required)")
	extractAudioCmd.Flags().StringVar(&extractOutput, "output", "", "Output audio file (default: scratch directory)")
	extractAudioCmd.MarkFlagRequired("source")
}

func runExtractAudio(cmd *cobra.Command, args []string) error {
	cfg := GetConfig()
	ctx := cmd.Context()

	outputPath := extractOutput
	if outputPath == "" {
		dir, err := newScratch(cfg)
		if err != nil {
			return err
		}
		outputPath = dir.Path(media.ArtifactExtracted)
	}

	prober := newProber(cfg)
	source, err := newAssetSource(ctx, cfg, prober)
	if err != nil {
		return err
	}

	extractor := newExtractor(cfg)
	if err := verifyTools(ctx, extractor); err != nil {
		return err
	}

	return RunExtractAudioWithDependencies(ctx, source, extractor, extractSource, outputPath, os.Stdout)
}

// RunExtractAudioWithDependencies runs the extract-audio command with injected dependencies (for testing)
func RunExtractAudioWithDependencies(
	ctx context.Context,
	source media.AssetSource,
	extractor media.TrackExtractor,
	sourceID string,
	outputPath string,
	output OutputWriter,
) error {
	asset, err := source.Resolve(ctx, sourceID)
	if err != nil {
		return fmt.Errorf("failed to resolve source %q: %w", sourceID, err)
	}

	fmt.Fprintf(output, "Extracting %d audio track(s) from %s...\n", len(asset.AudioTracks()), asset.Location)

	if err := extractor.Extract(ctx, asset, outputPath); err != nil {
		return err
	}

	fmt.Fprintf(output, "Successfully created: %s\n", outputPath)
	return nil
}
