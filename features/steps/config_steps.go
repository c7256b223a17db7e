//go:build integration

package steps

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"voicefx-media/infrastructure/config"

	"github.com/cucumber/godog"
)

type configContext struct {
	tempDir    string
	configPath string
	cfg        *config.Config
	loadErr    error
}

// SharedConfigContext is reset before each scenario via After hook
var SharedConfigContext = &configContext{}

func InitializeConfigScenario(ctx *godog.ScenarioContext) {
	testCtx := SharedConfigContext

	ctx.Before(func(c context.Context, sc *godog.Scenario) (context.Context, error) {
		tempDir, err := os.MkdirTemp("", "config-test-*")
		if err != nil {
			return c, err
		}
		testCtx.tempDir = tempDir
		testCtx.configPath = filepath.Join(tempDir, "config.yaml")
		testCtx.cfg = nil
		testCtx.loadErr = nil
		return c, nil
	})

	// Reset context after each scenario
	ctx.After(func(c context.Context, sc *godog.Scenario, err error) (context.Context, error) {
		if testCtx.tempDir != "" {
			os.RemoveAll(testCtx.tempDir)
		}
		SharedConfigContext = &configContext{}
		return c, nil
	})

	ctx.Step(`^a configuration file containing:$`, testCtx.aConfigurationFileContaining)
	ctx.Step(`^no configuration file exists$`, testCtx.noConfigurationFileExists)
	ctx.Step(`^I load the configuration$`, testCtx.iLoadTheConfiguration)
	ctx.Step(`^I attempt to load the configuration$`, testCtx.iAttemptToLoadTheConfiguration)
	ctx.Step(`^the library directory should be "([^"]*)"$`, testCtx.theLibraryDirectoryShouldBe)
	ctx.Step(`^the audio bitrate should be "([^"]*)"$`, testCtx.theAudioBitrateShouldBe)
	ctx.Step(`^the stage timeout should be "([^"]*)"$`, testCtx.theStageTimeoutShouldBe)
	ctx.Step(`^the render retry limit should be (\d+)$`, testCtx.theRenderRetryLimitShouldBe)
	ctx.Step(`^I should receive an error about missing configuration$`, testCtx.iShouldReceiveAnErrorAboutMissingConfiguration)
	ctx.Step(`^I should receive a configuration error mentioning "([^"]*)"$`, testCtx.iShouldReceiveAConfigurationErrorMentioning)
}

func (c *configContext) aConfigurationFileContaining(doc *godog.DocString) error {
	return os.WriteFile(c.configPath, []byte(doc.Content), 0644)
}

func (c *configContext) noConfigurationFileExists() error {
	return nil
}

func (c *configContext) iLoadTheConfiguration() error {
	cfg, err := config.Load(c.configPath)
	if err != nil {
		return fmt.Errorf("unexpected error loading config: %w", err)
	}
	c.cfg = cfg
	return nil
}

func (c *configContext) iAttemptToLoadTheConfiguration() error {
	cfg, err := config.Load(c.configPath)
	c.cfg = cfg
	c.loadErr = err
	return nil
}

func (c *configContext) theLibraryDirectoryShouldBe(expected string) error {
	if c.cfg == nil {
		return fmt.Errorf("config was not loaded")
	}
	if c.cfg.Paths.LibraryDirectory != expected {
		return fmt.Errorf("expected library directory %q, got %q", expected, c.cfg.Paths.LibraryDirectory)
	}
	return nil
}

func (c *configContext) theAudioBitrateShouldBe(expected string) error {
	if c.cfg == nil {
		return fmt.Errorf("config was not loaded")
	}
	if c.cfg.Audio.Bitrate != expected {
		return fmt.Errorf("expected audio bitrate %q, got %q", expected, c.cfg.Audio.Bitrate)
	}
	return nil
}

func (c *configContext) theStageTimeoutShouldBe(expected string) error {
	if c.cfg == nil {
		return fmt.Errorf("config was not loaded")
	}
	want, err := time.ParseDuration(expected)
	if err != nil {
		return err
	}
	if c.cfg.Pipeline.StageTimeout != want {
		return fmt.Errorf("expected stage timeout %s, got %s", want, c.cfg.Pipeline.StageTimeout)
	}
	return nil
}

func (c *configContext) theRenderRetryLimitShouldBe(expected int) error {
	if c.cfg == nil {
		return fmt.Errorf("config was not loaded")
	}
	if c.cfg.Render.MaxRetries != expected {
		return fmt.Errorf("expected render retry limit %d, got %d", expected, c.cfg.Render.MaxRetries)
	}
	return nil
}

func (c *configContext) iShouldReceiveAnErrorAboutMissingConfiguration() error {
	if c.loadErr == nil {
		return fmt.Errorf("expected an error but got none")
	}
	return nil
}

func (c *configContext) iShouldReceiveAConfigurationErrorMentioning(text string) error {
	if c.loadErr == nil {
		return fmt.Errorf("expected an error but got none")
	}
	if !contains(c.loadErr.Error(), text) {
		return fmt.Errorf("expected error mentioning %q, got: %v", text, c.loadErr)
	}
	return nil
}
