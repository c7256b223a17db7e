package cmd

import (
	"context"
	"fmt"
	"os"

	"voicefx-media/domain/media"

	"github.com/spf13/cobra"
)

var (
	remuxVideo  string
	remuxAudio  string
	remuxOutput string
)

var remuxCmd = &cobra.Command{
	Use:   "remux",
	Short: "Combine a video with a replacement audio track",
	Long: `Copy the first video track of one file and the first audio track of another
into a new container. Nothing is re-encoded. The output is cut at the video duration.

Example:
  voicefx remux --video clip.mp4 --audio filtered.m4a --output clip-child.mp4`,
	RunE: runRemux,
}

func init() {
	rootCmd.AddCommand(remuxCmd)
	remuxCmd.Flags().StringVar(&remuxVideo, "video", "", "Library file name, path, or drive:<fileID> of the video (required)")
	remuxCmd.Flags().StringVar(&remuxAudio, "audio", "", "Audio file (default: scratch filtered artifact)")
	remuxCmd.Flags().StringVar(&remuxOutput, "output", "", "Output video file (default: scratch remuxed artifact)")
	remuxCmd.MarkFlagRequired("video")
}

func runRemux(cmd *cobra.Command, args []string) error {
	cfg := GetConfig()
	ctx := cmd.Context()

	audioPath, outputPath := remuxAudio, remuxOutput
	if audioPath == "" || outputPath == "" {
		dir, err := newScratch(cfg)
		if err != nil {
			return err
		}
		if audioPath == "" {
			audioPath = dir.Path(media.ArtifactFiltered)
		}
		if outputPath == "" {
			outputPath = dir.Path(media.ArtifactRemuxed)
		}
	}

	prober := newProber(cfg)
	source, err := newAssetSource(ctx, cfg, prober)
	if err != nil {
		return err
	}

	remuxer := newRemuxer(cfg)
	if err := verifyTools(ctx, remuxer); err != nil {
		return err
	}

	return RunRemuxWithDependencies(ctx, source, prober, remuxer, remuxVideo, audioPath, outputPath, os.Stdout)
}

// RunRemuxWithDependencies runs the remux command with injected dependencies (for testing)
func RunRemuxWithDependencies(
	ctx context.Context,
	source media.AssetSource,
	prober media.Prober,
	remuxer media.Remuxer,
	videoID string,
	audioPath string,
	outputPath string,
	output OutputWriter,
) error {
	videoAsset, err := source.Resolve(ctx, videoID)
	if err != nil {
		return fmt.Errorf("failed to resolve video %q: %w", videoID, err)
	}
	audioAsset, err := prober.Probe(ctx, audioPath)
	if err != nil {
		return fmt.Errorf("failed to probe audio: %w", err)
	}

	fmt.Fprintf(output, "Remuxing %s with %s...\n", videoAsset.Location, audioAsset.Location)

	if err := remuxer.Remux(ctx, videoAsset, audioAsset, outputPath); err != nil {
		return err
	}

	fmt.Fprintf(output, "Successfully created: %s\n", outputPath)
	return nil
}
