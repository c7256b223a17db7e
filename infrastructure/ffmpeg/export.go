package ffmpeg

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"voicefx-media/domain/media"
)

// ExportStatus is the terminal state of an export
type ExportStatus int

const (
	ExportRunning ExportStatus = iota
	ExportCompleted
	ExportFailed
	ExportCancelled
)

func (s ExportStatus) String() string {
	switch s {
	case ExportRunning:
		return "running"
	case ExportCompleted:
		return "completed"
	case ExportFailed:
		return "failed"
	case ExportCancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}

// Export is an in-flight ffmpeg export. ffmpeg writes to a partial file next to the
// destination, which is renamed into place only once the process exits cleanly.
type Export struct {
	Output  string
	partial string
	done    chan struct{}
	status  ExportStatus
	err     error
	elapsed time.Duration
}

// startExport launches ffmpeg in the background. args must not contain the output path;
// the partial path and muxer are appended here.
func startExport(ctx context.Context, runner CommandRunner, ffmpegPath, output, muxer string, args []string) *Export {
	e := &Export{
		Output:  output,
		partial: partialPath(output),
		done:    make(chan struct{}),
		status:  ExportRunning,
	}

	full := make([]string, 0, len(args)+3)
	full = append(full, args...)
	full = append(full, "-f", muxer, e.partial)

	logger := logrus.WithFields(logrus.Fields{
		"component": "ffmpeg",
		"output":    filepath.Base(output),
	})
	logger.WithField("args", strings.Join(full, " ")).Debug("Starting export")

	go func() {
		defer close(e.done)
		start := time.Now()

		err := runner.Run(ctx, ffmpegPath, full...)
		e.elapsed = time.Since(start)
		if err == nil {
			err = os.Rename(e.partial, e.Output)
		}

		switch {
		case err == nil:
			e.status = ExportCompleted
		case ctx.Err() != nil:
			e.status = ExportCancelled
			e.err = fmt.Errorf("%w: %w", media.ErrExportFailed, ctx.Err())
		default:
			e.status = ExportFailed
			e.err = fmt.Errorf("%w: %v", media.ErrExportFailed, err)
		}

		if e.status != ExportCompleted {
			if rmErr := os.Remove(e.partial); rmErr != nil && !errors.Is(rmErr, os.ErrNotExist) {
				logger.WithError(rmErr).Warn("Could not remove partial export")
			}
		}
		logger.WithFields(logrus.Fields{
			"status":  e.status.String(),
			"elapsed": e.elapsed.Round(time.Millisecond).String(),
		}).Debug("Export finished")
	}()

	return e
}

// Wait blocks until the export reaches a terminal state
func (e *Export) Wait() error {
	<-e.done
	return e.err
}

func partialPath(output string) string {
	ext := filepath.Ext(output)
	return strings.TrimSuffix(output, ext) + ".partial" + ext
}

// removeStale deletes a previous artifact before a new export starts
func removeStale(path string) error {
	for _, p := range []string{path, partialPath(path)} {
		if err := os.Remove(p); err != nil && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("remove stale artifact %s: %w", p, err)
		}
	}
	return nil
}

// muxerFor picks the ffmpeg muxer for an output extension
func muxerFor(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".m4a":
		return "ipod"
	case ".mov":
		return "mov"
	case ".aac":
		return "adts"
	case ".caf":
		return "caf"
	case ".wav":
		return "wav"
	default:
		return "mp4"
	}
}

// audioCodecArgs selects PCM for WAV outputs and AAC for everything else
func audioCodecArgs(path, bitrate string) []string {
	if muxerFor(path) == "wav" {
		return []string{"-c:a", "pcm_s16le"}
	}
	return []string{"-c:a", "aac", "-b:a", bitrate}
}
