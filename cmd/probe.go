package cmd

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"time"

	"voicefx-media/domain/media"
	"voicefx-media/infrastructure/filesystem"
	"voicefx-media/infrastructure/library"

	"github.com/spf13/cobra"
)

var probeLibrary bool

var probeCmd = &cobra.Command{
	Use:   "probe [source]",
	Short: "Show the tracks of a video",
	Long: `Show the audio and video tracks of a source, or list the videos in the
library directory with --library.

Example:
  voicefx probe clip.mp4
  voicefx probe drive:1AbCdEf
  voicefx probe --library`,
	Args: cobra.MaximumNArgs(1),
	RunE: runProbe,
}

func init() {
	rootCmd.AddCommand(probeCmd)
	probeCmd.Flags().BoolVar(&probeLibrary, "library", false, "List the videos in the library directory")
}

func runProbe(cmd *cobra.Command, args []string) error {
	cfg := GetConfig()
	ctx := cmd.Context()
	prober := newProber(cfg)

	if probeLibrary {
		lib := library.NewSource(cfg.Paths.LibraryDirectory, prober, filesystem.NewChecker())
		return RunLibraryListWithDependencies(lib, os.Stdout)
	}
	if len(args) == 0 {
		return fmt.Errorf("a source is required unless --library is given")
	}

	source, err := newAssetSource(ctx, cfg, prober)
	if err != nil {
		return err
	}
	return RunProbeWithDependencies(ctx, source, args[0], os.Stdout)
}

// VideoLister lists the videos an asset source can resolve
type VideoLister interface {
	Videos() ([]string, error)
}

// RunLibraryListWithDependencies runs the library listing with injected dependencies (for testing)
func RunLibraryListWithDependencies(lister VideoLister, output OutputWriter) error {
	videos, err := lister.Videos()
	if err != nil {
		return err
	}
	if len(videos) == 0 {
		fmt.Fprintln(output, "No videos in the library directory.")
		return nil
	}
	for _, v := range videos {
		fmt.Fprintln(output, v)
	}
	return nil
}

// RunProbeWithDependencies runs the probe command with injected dependencies (for testing)
func RunProbeWithDependencies(ctx context.Context, source media.AssetSource, id string, output OutputWriter) error {
	asset, err := source.Resolve(ctx, id)
	if err != nil {
		return err
	}

	fmt.Fprintf(output, "%s (%s)\n", asset.Location, formatSeconds(asset.Duration.Seconds()))

	rows := make([][]string, 0, len(asset.Tracks))
	for _, t := range asset.Tracks {
		rows = append(rows, []string{
			strconv.Itoa(t.Index),
			string(t.Kind),
			t.Codec,
			formatOffset(t.Start),
			formatSeconds(t.Duration.Seconds()),
			trackDetails(t),
		})
	}
	fmt.Fprintln(output, renderTable(
		[]string{"Index", "Kind", "Codec", "Start", "Duration", "Details"},
		rows,
		[]columnAlignment{alignRight, alignLeft, alignLeft, alignRight, alignRight, alignLeft},
	))
	return nil
}

func formatOffset(d time.Duration) string {
	if d == 0 {
		return "0"
	}
	return fmt.Sprintf("%.3fs", d.Seconds())
}

func trackDetails(t media.Track) string {
	switch t.Kind {
	case media.KindAudio:
		return fmt.Sprintf("%d Hz, %d ch", t.SampleRate, t.Channels)
	case media.KindVideo:
		return fmt.Sprintf("%dx%d", t.Width, t.Height)
	default:
		return ""
	}
}
