//go:build integration

package steps

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"voicefx-media/cmd"
	"voicefx-media/infrastructure/config"

	"github.com/cucumber/godog"
)

type presetsContext struct {
	tempDir    string
	configPath string
	config     *config.Config
	output     *bytes.Buffer
	err        error
}

var SharedPresetsContext = &presetsContext{}

func InitializePresetsScenario(ctx *godog.ScenarioContext) {
	testCtx := SharedPresetsContext

	ctx.Before(func(c context.Context, sc *godog.Scenario) (context.Context, error) {
		// Create temp directory for each scenario
		tempDir, err := os.MkdirTemp("", "presets-test-*")
		if err != nil {
			return c, err
		}
		testCtx.tempDir = tempDir
		testCtx.configPath = filepath.Join(tempDir, "config.yaml")
		testCtx.output = &bytes.Buffer{}
		testCtx.err = nil
		testCtx.config = nil
		return c, nil
	})

	ctx.After(func(c context.Context, sc *godog.Scenario, err error) (context.Context, error) {
		// Cleanup temp directory
		if testCtx.tempDir != "" {
			os.RemoveAll(testCtx.tempDir)
		}
		SharedPresetsContext = &presetsContext{}
		return c, nil
	})

	// Background
	ctx.Step(`^a config file exists without presets$`, testCtx.aConfigFileExistsWithoutPresets)
	ctx.Step(`^preset "([^"]*)" exists with pitch (-?\d+) and rate ([\d.]+)$`, testCtx.presetExistsWithPitchAndRate)

	// Commands
	ctx.Step(`^I run presets list$`, testCtx.iRunPresetsList)
	ctx.Step(`^I run presets add with key "([^"]*)" pitch (-?\d+) and rate ([\d.]+)$`, testCtx.iRunPresetsAdd)
	ctx.Step(`^I run presets remove "([^"]*)"$`, testCtx.iRunPresetsRemove)
	ctx.Step(`^I run presets update "([^"]*)" with rate ([\d.]+)$`, testCtx.iRunPresetsUpdateRate)
	ctx.Step(`^I run presets update "([^"]*)" with pitch (-?\d+)$`, testCtx.iRunPresetsUpdatePitch)

	// Assertions
	ctx.Step(`^the config should contain preset "([^"]*)" with pitch (-?\d+) and rate ([\d.]+)$`, testCtx.theConfigShouldContainPreset)
	ctx.Step(`^the config should not contain preset "([^"]*)"$`, testCtx.theConfigShouldNotContainPreset)
	ctx.Step(`^the presets command should succeed$`, testCtx.theCommandShouldSucceed)
	ctx.Step(`^the presets command should fail with "([^"]*)"$`, testCtx.theCommandShouldFailWith)
	ctx.Step(`^the presets output should contain "([^"]*)"$`, testCtx.theOutputShouldContain)
}

func (c *presetsContext) loadConfig() error {
	cfg, err := config.Load(c.configPath)
	if err != nil {
		return err
	}
	c.config = cfg
	return nil
}

func (c *presetsContext) saveConfig() error {
	return config.Save(c.config, c.configPath)
}

// --- Background ---

func (c *presetsContext) aConfigFileExistsWithoutPresets() error {
	c.config = config.Defaults()
	c.config.Paths.LibraryDirectory = "/videos"
	return c.saveConfig()
}

func (c *presetsContext) presetExistsWithPitchAndRate(key string, pitch int, rate string) error {
	if err := c.loadConfig(); err != nil {
		return err
	}
	r, err := strconv.ParseFloat(rate, 64)
	if err != nil {
		return err
	}
	if c.config.Presets == nil {
		c.config.Presets = make(map[string]config.PresetConfig)
	}
	c.config.Presets[strings.ToLower(key)] = config.PresetConfig{PitchCents: pitch, Rate: r}
	return c.saveConfig()
}

// --- Commands ---

func (c *presetsContext) iRunPresetsList() error {
	if err := c.loadConfig(); err != nil {
		return err
	}
	c.output.Reset()
	c.err = cmd.RunPresetsListWithDependencies(c.config, c.output)
	return nil
}

func (c *presetsContext) iRunPresetsAdd(key string, pitch int, rate string) error {
	if err := c.loadConfig(); err != nil {
		return err
	}
	r, err := strconv.ParseFloat(rate, 64)
	if err != nil {
		return err
	}
	c.output.Reset()
	c.err = cmd.RunPresetsAddWithDependencies(c.config, c.configPath, key, "", pitch, r, c.output)
	return nil
}

func (c *presetsContext) iRunPresetsRemove(key string) error {
	if err := c.loadConfig(); err != nil {
		return err
	}
	c.output.Reset()
	c.err = cmd.RunPresetsRemoveWithDependencies(c.config, c.configPath, key, c.output)
	return nil
}

func (c *presetsContext) iRunPresetsUpdateRate(key, rate string) error {
	if err := c.loadConfig(); err != nil {
		return err
	}
	r, err := strconv.ParseFloat(rate, 64)
	if err != nil {
		return err
	}
	c.output.Reset()
	c.err = cmd.RunPresetsUpdateWithDependencies(c.config, c.configPath, key, "", nil, &r, c.output)
	return nil
}

func (c *presetsContext) iRunPresetsUpdatePitch(key string, pitch int) error {
	if err := c.loadConfig(); err != nil {
		return err
	}
	c.output.Reset()
	c.err = cmd.RunPresetsUpdateWithDependencies(c.config, c.configPath, key, "", &pitch, nil, c.output)
	return nil
}

// --- Assertions ---

func (c *presetsContext) theConfigShouldContainPreset(key string, pitch int, rate string) error {
	if err := c.loadConfig(); err != nil {
		return err
	}
	r, err := strconv.ParseFloat(rate, 64)
	if err != nil {
		return err
	}
	key = strings.ToLower(key)
	p, exists := c.config.Presets[key]
	if !exists {
		return fmt.Errorf("preset %q not found in config", key)
	}
	if p.PitchCents != pitch || p.Rate != r {
		return fmt.Errorf("expected preset %q to be %+d cents x%.2f, got %+d cents x%.2f", key, pitch, r, p.PitchCents, p.Rate)
	}
	return nil
}

func (c *presetsContext) theConfigShouldNotContainPreset(key string) error {
	if err := c.loadConfig(); err != nil {
		return err
	}
	if _, exists := c.config.Presets[strings.ToLower(key)]; exists {
		return fmt.Errorf("preset %q should not exist in config", key)
	}
	return nil
}

func (c *presetsContext) theCommandShouldSucceed() error {
	if c.err != nil {
		return fmt.Errorf("expected command to succeed, got error: %v", c.err)
	}
	return nil
}

func (c *presetsContext) theCommandShouldFailWith(expected string) error {
	if c.err == nil {
		return fmt.Errorf("expected command to fail with %q, but it succeeded", expected)
	}
	if !strings.Contains(c.err.Error(), expected) {
		return fmt.Errorf("expected error containing %q, got: %v", expected, c.err)
	}
	return nil
}

func (c *presetsContext) theOutputShouldContain(expected string) error {
	if !strings.Contains(c.output.String(), expected) {
		return fmt.Errorf("expected output to contain %q, got:\n%s", expected, c.output.String())
	}
	return nil
}
