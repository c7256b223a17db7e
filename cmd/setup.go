package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"voicefx-media/infrastructure/config"
	"voicefx-media/infrastructure/drive"

	"github.com/AlecAivazis/survey/v2"
	"github.com/spf13/cobra"
)

// Prompter interface for interactive prompts (allows mocking in tests)
type Prompter interface {
	Input(message string, defaultValue string) (string, error)
	Confirm(message string, defaultValue bool) (bool, error)
}

// SurveyPrompter implements Prompter using the survey library
type SurveyPrompter struct{}

func (p *SurveyPrompter) Input(message string, defaultValue string) (string, error) {
	result := ""
	prompt := &survey.Input{
		Message: message,
		Default: defaultValue,
	}
	if err := survey.AskOne(prompt, &result); err != nil {
		return "", err
	}
	return result, nil
}

func (p *SurveyPrompter) Confirm(message string, defaultValue bool) (bool, error) {
	result := defaultValue
	prompt := &survey.Confirm{
		Message: message,
		Default: defaultValue,
	}
	if err := survey.AskOne(prompt, &result); err != nil {
		return false, err
	}
	return result, nil
}

// DefaultPrompter is the prompter used in production
var DefaultPrompter Prompter = &SurveyPrompter{}

var setupDriveAuth bool

var setupCmd = &cobra.Command{
	Use:   "setup",
	Short: "Create configuration file interactively",
	Long: `Prompts for configuration values and creates config.yaml.

With --drive-auth, runs the Google Drive consent flow for the configured OAuth
client instead and stores the token file.`,
	RunE: runSetup,
}

func init() {
	rootCmd.AddCommand(setupCmd)
	setupCmd.Flags().BoolVar(&setupDriveAuth, "drive-auth", false, "Authorize Google Drive access and save the token")
}

func runSetup(cmd *cobra.Command, args []string) error {
	if setupDriveAuth {
		return RunDriveAuth(cmd.Context(), GetConfig(), os.Stdout)
	}
	return RunSetupWithPrompter(DefaultPrompter, cfgFile)
}

// RunDriveAuth runs the OAuth consent flow and writes the token file
func RunDriveAuth(ctx context.Context, cfg *config.Config, output OutputWriter) error {
	if cfg.Google.CredentialsFile == "" || cfg.Google.TokenFile == "" {
		return fmt.Errorf("google.credentials_file and google.token_file must be set; run 'voicefx setup' first")
	}
	if err := drive.Authorize(ctx, cfg.Google.CredentialsFile, cfg.Google.TokenFile, output); err != nil {
		return err
	}
	fmt.Fprintf(output, "Token saved to %s\n", cfg.Google.TokenFile)
	return nil
}

// RunSetupWithPrompter runs the setup with a given prompter (for testing)
func RunSetupWithPrompter(prompter Prompter, configPath string) error {
	if configPath == "" {
		configPath = config.DefaultPath
	}

	// Check if config already exists
	if _, err := os.Stat(configPath); err == nil {
		overwrite, err := prompter.Confirm("config.yaml already exists. Overwrite?", false)
		if err != nil {
			return fmt.Errorf("prompt cancelled")
		}
		if !overwrite {
			fmt.Println("Setup cancelled.")
			return nil
		}
	}

	fmt.Println("Welcome to voicefx setup!")
	fmt.Println()

	cfg := config.Defaults()

	if err := promptPaths(prompter, cfg); err != nil {
		return err
	}
	if err := promptAudio(prompter, cfg); err != nil {
		return err
	}
	if err := promptGoogle(prompter, cfg); err != nil {
		return err
	}

	// Ensure config directory exists
	if err := os.MkdirAll(filepath.Dir(configPath), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	if err := config.Save(cfg, configPath); err != nil {
		return fmt.Errorf("failed to save configuration: %w", err)
	}

	fmt.Println()
	fmt.Printf("Configuration saved to %s\n", configPath)
	if cfg.Google.TokenFile != "" {
		fmt.Println("Run 'voicefx setup --drive-auth' to authorize Google Drive access.")
	}
	return nil
}

func promptPaths(prompter Prompter, cfg *config.Config) error {
	library, err := prompter.Input("Where are the videos to transform?", "")
	if err != nil {
		return fmt.Errorf("prompt cancelled")
	}
	if library == "" {
		return fmt.Errorf("library directory is required")
	}
	cfg.Paths.LibraryDirectory = library

	scratch, err := prompter.Input("Where should transform artifacts go?", cfg.Paths.ScratchDirectory)
	if err != nil {
		return fmt.Errorf("prompt cancelled")
	}
	if scratch != "" {
		cfg.Paths.ScratchDirectory = scratch
	}

	cache, err := prompter.Input("Where should downloaded videos be cached?", cfg.Paths.CacheDirectory)
	if err != nil {
		return fmt.Errorf("prompt cancelled")
	}
	if cache != "" {
		cfg.Paths.CacheDirectory = cache
	}

	return nil
}

func promptAudio(prompter Prompter, cfg *config.Config) error {
	bitrate, err := prompter.Input("AAC bitrate for extracted and filtered audio?", "192k")
	if err != nil {
		return fmt.Errorf("prompt cancelled")
	}
	if bitrate == "" {
		bitrate = "192k"
	}
	cfg.Audio.Bitrate = bitrate
	return nil
}

func promptGoogle(prompter Prompter, cfg *config.Config) error {
	useDrive, err := prompter.Confirm("Fetch videos from Google Drive?", false)
	if err != nil {
		return fmt.Errorf("prompt cancelled")
	}
	if !useDrive {
		return nil
	}

	credentials, err := prompter.Input("Path to Google credentials file?", "credentials.json")
	if err != nil {
		return fmt.Errorf("prompt cancelled")
	}
	if credentials == "" {
		credentials = "credentials.json"
	}
	cfg.Google.CredentialsFile = credentials

	serviceAccount, err := prompter.Confirm("Is this a service account key?", false)
	if err != nil {
		return fmt.Errorf("prompt cancelled")
	}
	if serviceAccount {
		return nil
	}

	token, err := prompter.Input("Where should the Drive token be stored?", "config/drive_token.json")
	if err != nil {
		return fmt.Errorf("prompt cancelled")
	}
	if token == "" {
		token = "config/drive_token.json"
	}
	cfg.Google.TokenFile = token

	return nil
}
