//go:build integration

package steps

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"voicefx-media/application/pipeline"
	apprender "voicefx-media/application/render"
	"voicefx-media/cmd"
	"voicefx-media/domain/audio"
	"voicefx-media/domain/effect"
	"voicefx-media/domain/media"
	"voicefx-media/domain/render"

	"github.com/cucumber/godog"
)

// transformContext holds test state for transform scenarios
type transformContext struct {
	source    *mockSource
	extractor *mockExtractor
	remuxer   *mockRemuxer
	fileIO    *mockFileIO
	engine    *scriptedEngine
	scratch   *memScratch
	output    *bytes.Buffer
	err       error
}

// SharedTransformContext is reset before each scenario via Before hook
var SharedTransformContext *transformContext

func getTransformContext() *transformContext {
	return SharedTransformContext
}

func InitializeTransformScenario(ctx *godog.ScenarioContext) {
	ctx.Before(func(c context.Context, sc *godog.Scenario) (context.Context, error) {
		SharedTransformContext = &transformContext{
			source:    newMockSource(),
			extractor: &mockExtractor{},
			remuxer:   &mockRemuxer{},
			fileIO:    &mockFileIO{format: audio.Format{SampleRate: 44100, Channels: 2, BitDepth: 16}},
			engine:    &scriptedEngine{},
			scratch:   &memScratch{root: "/scratch"},
			output:    &bytes.Buffer{},
		}
		return c, nil
	})

	ctx.After(func(c context.Context, sc *godog.Scenario, err error) (context.Context, error) {
		SharedTransformContext = nil
		return c, nil
	})

	ctx.Step(`^a (\d+) second video "([^"]*)" with (\d+) audio tracks?$`, aVideoWithAudioTracks)
	ctx.Step(`^its extracted audio is (\d+) frames at 44.1 kHz$`, itsExtractedAudioIsFrames)
	ctx.Step(`^the render engine never makes progress$`, theRenderEngineNeverMakesProgress)
	ctx.Step(`^the remux export fails$`, theRemuxExportFails)
	ctx.Step(`^I transform "([^"]*)" with preset "([^"]*)"$`, iTransformWithPreset)
	ctx.Step(`^I transform "([^"]*)" with pitch (-?\d+) and rate ([\d.]+)$`, iTransformWithPitchAndRate)
	ctx.Step(`^I extract audio from "([^"]*)" to "([^"]*)"$`, iExtractAudioFromTo)
	ctx.Step(`^I list the transform steps$`, iListTheTransformSteps)
	ctx.Step(`^the transform should succeed$`, theTransformShouldSucceed)
	ctx.Step(`^the transform should fail in the (extract|render|remux) stage$`, theTransformShouldFailInStage)
	ctx.Step(`^the error should be "([^"]*)"$`, theErrorShouldBe)
	ctx.Step(`^the filtered audio should have (\d+) frames$`, theFilteredAudioShouldHaveFrames)
	ctx.Step(`^the remux should combine "([^"]*)" with "([^"]*)"$`, theRemuxShouldCombine)
	ctx.Step(`^audio should have been extracted to "([^"]*)"$`, audioShouldHaveBeenExtractedTo)
	ctx.Step(`^the transform output should contain "([^"]*)"$`, theTransformOutputShouldContain)
}

func aVideoWithAudioTracks(seconds int, name string, tracks int) error {
	t := getTransformContext()
	t.source.add(name, time.Duration(seconds)*time.Second, tracks)
	return nil
}

func itsExtractedAudioIsFrames(frames int) error {
	t := getTransformContext()
	t.fileIO.length = int64(frames)
	return nil
}

func theRenderEngineNeverMakesProgress() error {
	t := getTransformContext()
	t.engine.alwaysBusy = true
	return nil
}

func theRemuxExportFails() error {
	t := getTransformContext()
	t.remuxer.failError = fmt.Errorf("%w: ffmpeg exited with status 1", media.ErrExportFailed)
	return nil
}

func (t *transformContext) run(input cmd.TransformInput) {
	deps := pipeline.Dependencies{
		Extractor: t.extractor,
		Remuxer:   t.remuxer,
		Prober:    &mockProber{},
		Source:    t.source,
		FileIO:    t.fileIO,
		Engine:    t.engine,
		Scratch:   t.scratch,
	}
	opts := pipeline.Options{Render: apprender.Options{MaxRetries: 16}}
	t.err = cmd.RunTransformWithDependencies(context.Background(), deps, opts, input, t.output)
}

func iTransformWithPreset(name, preset string) error {
	t := getTransformContext()
	t.run(cmd.TransformInput{Source: name, Preset: preset})
	return nil
}

func iTransformWithPitchAndRate(name string, pitch int, rate string) error {
	t := getTransformContext()
	r, err := strconv.ParseFloat(rate, 64)
	if err != nil {
		return err
	}
	t.run(cmd.TransformInput{
		Source:     name,
		Custom:     true,
		Parameters: effect.Parameters{PitchCents: pitch, Rate: r},
	})
	return nil
}

func iExtractAudioFromTo(name, output string) error {
	t := getTransformContext()
	t.err = cmd.RunExtractAudioWithDependencies(context.Background(), t.source, t.extractor, name, output, t.output)
	return nil
}

func iListTheTransformSteps() error {
	t := getTransformContext()
	t.err = cmd.RunListSteps(t.output)
	return nil
}

func theTransformShouldSucceed() error {
	t := getTransformContext()
	if t.err != nil {
		return fmt.Errorf("expected success, got: %v\n%s", t.err, t.output.String())
	}
	return nil
}

func theTransformShouldFailInStage(stage string) error {
	t := getTransformContext()
	if t.err == nil {
		return fmt.Errorf("expected the transform to fail")
	}
	if got := pipeline.FailedStage(t.err); string(got) != stage {
		return fmt.Errorf("expected failure in %s stage, got %q: %v", stage, got, t.err)
	}
	return nil
}

func theErrorShouldBe(name string) error {
	t := getTransformContext()
	sentinels := map[string]error{
		"no audio track":    media.ErrNoAudioTrack,
		"export failed":     media.ErrExportFailed,
		"asset unavailable": media.ErrAssetUnavailable,
		"unknown preset":    effect.ErrUnknownPreset,
		"invalid params":    effect.ErrInvalidParameters,
		"engine failure":    render.ErrEngineFailure,
	}
	target, ok := sentinels[name]
	if !ok {
		return fmt.Errorf("unknown error name %q", name)
	}
	if !errors.Is(t.err, target) {
		return fmt.Errorf("expected %s error, got: %v", name, t.err)
	}
	return nil
}

func theFilteredAudioShouldHaveFrames(frames int) error {
	t := getTransformContext()
	if t.fileIO.sink == nil {
		return fmt.Errorf("no filtered audio was written")
	}
	if t.fileIO.sink.frames != int64(frames) {
		return fmt.Errorf("expected %d filtered frames, got %d", frames, t.fileIO.sink.frames)
	}
	return nil
}

func theRemuxShouldCombine(video, audioPath string) error {
	t := getTransformContext()
	if !strings.HasSuffix(t.remuxer.videoPath, video) {
		return fmt.Errorf("expected video %q, got %q", video, t.remuxer.videoPath)
	}
	if t.remuxer.audioPath != audioPath {
		return fmt.Errorf("expected audio %q, got %q", audioPath, t.remuxer.audioPath)
	}
	return nil
}

func audioShouldHaveBeenExtractedTo(path string) error {
	t := getTransformContext()
	for _, call := range t.extractor.calls {
		if call == path {
			return nil
		}
	}
	return fmt.Errorf("expected extraction to %q, got %v", path, t.extractor.calls)
}

func theTransformOutputShouldContain(expected string) error {
	t := getTransformContext()
	if !strings.Contains(t.output.String(), expected) {
		return fmt.Errorf("expected output to contain %q, got:\n%s", expected, t.output.String())
	}
	return nil
}
