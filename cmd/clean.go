package cmd

import (
	"context"
	"fmt"
	"os"

	"voicefx-media/domain/media"

	"github.com/spf13/cobra"
)

var cleanCmd = &cobra.Command{
	Use:   "clean",
	Short: "Remove the artifacts of the last transform",
	Long: `Remove the extracted, filtered and remuxed files from the scratch directory.

The scratch lock is taken first, so a running transform is never disturbed.

Example:
  voicefx clean`,
	Args: cobra.NoArgs,
	RunE: runClean,
}

func init() {
	rootCmd.AddCommand(cleanCmd)
}

func runClean(cmd *cobra.Command, args []string) error {
	dir, err := newScratch(GetConfig())
	if err != nil {
		return err
	}
	return RunCleanWithDependencies(cmd.Context(), dir, os.Stdout)
}

// ScratchCleaner is a scratch directory that can report its artifacts
type ScratchCleaner interface {
	media.Scratch
	Existing() map[media.Artifact]int64
}

// RunCleanWithDependencies runs the clean command with injected dependencies (for testing)
func RunCleanWithDependencies(ctx context.Context, scratch ScratchCleaner, output OutputWriter) error {
	unlock, err := scratch.Lock(ctx)
	if err != nil {
		return err
	}
	defer unlock()

	existing := scratch.Existing()
	if len(existing) == 0 {
		fmt.Fprintln(output, "Scratch directory is already clean.")
		return nil
	}

	if err := scratch.Clean(); err != nil {
		return err
	}

	for _, a := range media.Artifacts() {
		if size, ok := existing[a]; ok {
			fmt.Fprintf(output, "Removed %s (%s)\n", scratch.Path(a), formatSize(size))
		}
	}
	return nil
}

func formatSize(bytes int64) string {
	const unit = 1024
	if bytes < unit {
		return fmt.Sprintf("%d B", bytes)
	}
	div, exp := int64(unit), 0
	for n := bytes / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(bytes)/float64(div), "KMGTPE"[exp])
}
