package cmd

import (
	"context"
	"fmt"
	"time"

	"voicefx-media/application/pipeline"
	apprender "voicefx-media/application/render"
	"voicefx-media/domain/media"
	"voicefx-media/infrastructure/audiofile"
	"voicefx-media/infrastructure/config"
	"voicefx-media/infrastructure/drive"
	"voicefx-media/infrastructure/dsp"
	"voicefx-media/infrastructure/ffmpeg"
	"voicefx-media/infrastructure/ffprobe"
	"voicefx-media/infrastructure/filesystem"
	"voicefx-media/infrastructure/library"
	"voicefx-media/infrastructure/scratch"

	"github.com/sirupsen/logrus"
)

func newProber(cfg *config.Config) *ffprobe.Prober {
	return ffprobe.New(ffprobe.WithBinary(cfg.FFmpeg.FFprobePath))
}

func newExtractor(cfg *config.Config) *ffmpeg.Extractor {
	return ffmpeg.NewExtractor(
		ffmpeg.WithExtractorFFmpegPath(cfg.FFmpeg.FFmpegPath),
		ffmpeg.WithExtractorBitrate(cfg.Audio.Bitrate),
	)
}

func newRemuxer(cfg *config.Config) *ffmpeg.Remuxer {
	return ffmpeg.NewRemuxer(ffmpeg.WithRemuxerFFmpegPath(cfg.FFmpeg.FFmpegPath))
}

// newFileIO returns the codec registry with the ffmpeg bridge for AAC containers
func newFileIO(cfg *config.Config) *audiofile.FileIO {
	codec := ffmpeg.NewCodec(
		ffmpeg.WithCodecFFmpegPath(cfg.FFmpeg.FFmpegPath),
		ffmpeg.WithCodecBitrate(cfg.Audio.Bitrate),
	)
	return audiofile.New(audiofile.WithTranscoder(codec))
}

func newScratch(cfg *config.Config) (*scratch.Dir, error) {
	a := cfg.Pipeline.Artifacts
	return scratch.New(cfg.Paths.ScratchDirectory,
		scratch.WithNames(scratch.Names{Extracted: a.Extracted, Filtered: a.Filtered, Remuxed: a.Remuxed}),
		scratch.WithLockTimeout(cfg.Pipeline.LockTimeout),
	)
}

func renderOptions(cfg *config.Config) apprender.Options {
	return apprender.Options{
		MaxFrames:  cfg.Render.MaxFrames,
		MaxRetries: cfg.Render.MaxRetries,
		Timeout:    cfg.Render.Timeout,
	}
}

// newAssetSource routes drive:<id> to Google Drive and everything else to the library.
// Drive is only wired when credentials are configured.
func newAssetSource(ctx context.Context, cfg *config.Config, prober media.Prober) (media.AssetSource, error) {
	lib := library.NewSource(cfg.Paths.LibraryDirectory, prober, filesystem.NewChecker())
	router := media.NewRouter(lib)

	if cfg.Google.CredentialsFile == "" {
		return router.Route(drive.Prefix, unconfiguredDrive{}), nil
	}

	src, err := drive.NewSource(ctx, drive.Config{
		CredentialsFile: cfg.Google.CredentialsFile,
		TokenFile:       cfg.Google.TokenFile,
		CacheDir:        cfg.Paths.CacheDirectory,
	}, prober)
	if err != nil {
		return nil, fmt.Errorf("failed to create Google Drive source: %w", err)
	}
	return router.Route(drive.Prefix, src), nil
}

// unconfiguredDrive rejects drive identifiers when no credentials are set
type unconfiguredDrive struct{}

func (unconfiguredDrive) Resolve(_ context.Context, id string) (*media.Asset, error) {
	return nil, fmt.Errorf("%w: %s needs google.credentials_file in the config (run 'voicefx setup')",
		media.ErrAssetUnavailable, id)
}

// newPipelineDependencies builds the production adapters for a transform run
func newPipelineDependencies(ctx context.Context, cfg *config.Config) (pipeline.Dependencies, error) {
	presets, err := config.PresetSet(cfg)
	if err != nil {
		return pipeline.Dependencies{}, fmt.Errorf("invalid presets in config: %w", err)
	}

	prober := newProber(cfg)
	source, err := newAssetSource(ctx, cfg, prober)
	if err != nil {
		return pipeline.Dependencies{}, err
	}

	dir, err := newScratch(cfg)
	if err != nil {
		return pipeline.Dependencies{}, err
	}

	return pipeline.Dependencies{
		Extractor: newExtractor(cfg),
		Remuxer:   newRemuxer(cfg),
		Prober:    prober,
		Source:    source,
		FileIO:    newFileIO(cfg),
		Engine:    dsp.NewEngine(),
		Scratch:   dir,
		Presets:   presets,
	}, nil
}

// verifyTools checks that the external binaries answer before any work starts
func verifyTools(ctx context.Context, tools ...any) error {
	for _, tool := range tools {
		verifiable, ok := tool.(interface{ VerifyInstalled(context.Context) error })
		if !ok {
			continue
		}
		verifyCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		err := verifiable.VerifyInstalled(verifyCtx)
		cancel()
		if err != nil {
			logrus.WithError(err).Debug("Tool verification failed")
			return fmt.Errorf("ffmpeg verification failed: %w", err)
		}
	}
	return nil
}
