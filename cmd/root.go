package cmd

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"voicefx-media/infrastructure/config"
	"voicefx-media/infrastructure/logging"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var (
	cfgFile   string
	logLevel  string
	cfg       *config.Config
	cfgLoaded bool
)

var rootCmd = &cobra.Command{
	Use:   "voicefx",
	Short: "Apply voice effects to the audio of video files",
	Long: `voicefx changes the voice in a video without touching its picture:

  - Extract the audio tracks of a video
  - Render a pitch and speed effect over the audio offline
  - Remux the filtered audio with the original video

Sources are files in the library directory or Google Drive files (drive:<fileID>).

Example:
  voicefx transform --source clip.mp4 --preset child`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c := GetConfig()
		level := c.Logging.Level
		if logLevel != "" {
			level = logLevel
		}
		if err := logging.Setup(level, c.Logging.Format, os.Stderr); err != nil {
			return err
		}
		if !cfgLoaded {
			logrus.WithField("config", cfgFile).Debug("No configuration file, using defaults")
		}
		return nil
	},
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./config/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level: debug, info, warn or error (default from config)")
}

func initConfig() {
	if cfgFile == "" {
		cfgFile = config.DefaultPath
	}

	var err error
	cfg, err = config.Load(cfgFile)
	if err != nil {
		// Every command can run on defaults; a broken file is still reported
		if !errors.Is(err, fs.ErrNotExist) {
			fmt.Fprintf(os.Stderr, "warning: ignoring %s: %v\n", cfgFile, err)
		}
		cfg = config.Defaults()
		cfgLoaded = false
		return
	}
	cfgLoaded = true
}

// GetConfig returns the loaded configuration, or the defaults when no file was loaded
func GetConfig() *config.Config {
	if cfg == nil {
		return config.Defaults()
	}
	return cfg
}

// OutputWriter allows capturing output in tests
type OutputWriter interface {
	Write(p []byte) (n int, err error)
}
