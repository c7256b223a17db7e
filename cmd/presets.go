package cmd

import (
	"fmt"
	"os"
	"strconv"

	"voicefx-media/domain/effect"
	"voicefx-media/infrastructure/config"

	"github.com/spf13/cobra"
)

// DefaultOutput is the default output writer for preset commands
var DefaultOutput OutputWriter = os.Stdout

var presetsCmd = &cobra.Command{
	Use:   "presets",
	Short: "List and manage voice presets",
	Long: `List the built-in presets and manage user-defined ones in the configuration file.

Built-in presets (child, man, alien and the legacy filter1, filter2) cannot be changed.

Examples:
  voicefx presets list
  voicefx presets add --key chipmunk --pitch 1200 --rate 1.3 --description "Very high"
  voicefx presets update chipmunk --rate 1.25
  voicefx presets remove chipmunk`,
}

func init() {
	rootCmd.AddCommand(presetsCmd)

	presetsCmd.AddCommand(presetsListCmd)
	presetsCmd.AddCommand(presetsAddCmd)
	presetsCmd.AddCommand(presetsRemoveCmd)
	presetsCmd.AddCommand(presetsUpdateCmd)
}

// --- LIST command ---

var presetsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List all presets",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return RunPresetsListWithDependencies(GetConfig(), DefaultOutput)
	},
}

// RunPresetsListWithDependencies runs the list command with injected dependencies
func RunPresetsListWithDependencies(cfg *config.Config, out OutputWriter) error {
	presets, err := config.PresetSet(cfg)
	if err != nil {
		return err
	}

	rows := make([][]string, 0)
	for _, p := range presets.All() {
		kind := "built-in"
		if p.Legacy {
			kind = "legacy"
		}
		if _, ok := cfg.Presets[p.Name]; ok {
			kind = "config"
		}
		rows = append(rows, []string{
			p.Name,
			fmt.Sprintf("%+d", p.Parameters.PitchCents),
			strconv.FormatFloat(p.Parameters.Rate, 'f', 2, 64),
			kind,
			p.Description,
		})
	}

	fmt.Fprintln(out, renderTable(
		[]string{"Name", "Pitch (cents)", "Rate", "Kind", "Description"},
		rows,
		[]columnAlignment{alignLeft, alignRight, alignRight, alignLeft, alignLeft},
	))
	return nil
}

// --- ADD command ---

var (
	addKey         string
	addDescription string
	addPitch       int
	addRate        float64
)

var presetsAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Add a user-defined preset",
	Long: `Add a preset to the configuration file.

Example:
  voicefx presets add --key chipmunk --pitch 1200 --rate 1.3`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return RunPresetsAddWithDependencies(GetConfig(), cfgFile, addKey, addDescription, addPitch, addRate, DefaultOutput)
	},
}

func init() {
	presetsAddCmd.Flags().StringVar(&addKey, "key", "", "Preset name (required)")
	presetsAddCmd.Flags().StringVar(&addDescription, "description", "", "Short description")
	presetsAddCmd.Flags().IntVar(&addPitch, "pitch", 0, fmt.Sprintf("Pitch shift in cents (%d..%d)", effect.MinPitchCents, effect.MaxPitchCents))
	presetsAddCmd.Flags().Float64Var(&addRate, "rate", 1.0, fmt.Sprintf("Playback rate (%.2f..%.2f)", effect.MinRate, effect.MaxRate))
	presetsAddCmd.MarkFlagRequired("key")
}

// RunPresetsAddWithDependencies runs the add command with injected dependencies
func RunPresetsAddWithDependencies(cfg *config.Config, configPath, key, description string, pitch int, rate float64, out OutputWriter) error {
	mgr := config.NewConfigManager(cfg, configPath)
	if err := mgr.AddPreset(key, description, pitch, rate); err != nil {
		return err
	}
	preset, err := mgr.GetPreset(key)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "Added preset %q: %+d cents, rate %.2f\n", preset.Key, preset.PitchCents, preset.Rate)
	return nil
}

// --- REMOVE command ---

var presetsRemoveCmd = &cobra.Command{
	Use:   "remove <key>",
	Short: "Remove a user-defined preset",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return RunPresetsRemoveWithDependencies(GetConfig(), cfgFile, args[0], DefaultOutput)
	},
}

// RunPresetsRemoveWithDependencies runs the remove command with injected dependencies
func RunPresetsRemoveWithDependencies(cfg *config.Config, configPath, key string, out OutputWriter) error {
	mgr := config.NewConfigManager(cfg, configPath)
	if err := mgr.RemovePreset(key); err != nil {
		return err
	}
	fmt.Fprintf(out, "Removed preset %q\n", key)
	return nil
}

// --- UPDATE command ---

var (
	updateDescription string
	updatePitch       int
	updateRate        float64
)

var presetsUpdateCmd = &cobra.Command{
	Use:   "update <key>",
	Short: "Update a user-defined preset",
	Long: `Update an existing user-defined preset. Only the given flags change.

Example:
  voicefx presets update chipmunk --pitch 1100`,
	Args: cobra.ExactArgs(1),
	RunE: runPresetsUpdate,
}

func init() {
	presetsUpdateCmd.Flags().StringVar(&updateDescription, "description", "", "New description")
	presetsUpdateCmd.Flags().IntVar(&updatePitch, "pitch", 0, "New pitch shift in cents")
	presetsUpdateCmd.Flags().Float64Var(&updateRate, "rate", 0, "New playback rate")
}

func runPresetsUpdate(cmd *cobra.Command, args []string) error {
	var pitch *int
	var rate *float64
	if cmd.Flags().Changed("pitch") {
		pitch = &updatePitch
	}
	if cmd.Flags().Changed("rate") {
		rate = &updateRate
	}
	if pitch == nil && rate == nil && updateDescription == "" {
		return fmt.Errorf("at least one of --description, --pitch or --rate is required")
	}

	return RunPresetsUpdateWithDependencies(GetConfig(), cfgFile, args[0], updateDescription, pitch, rate, DefaultOutput)
}

// RunPresetsUpdateWithDependencies runs the update command with injected dependencies
func RunPresetsUpdateWithDependencies(cfg *config.Config, configPath, key, description string, pitch *int, rate *float64, out OutputWriter) error {
	mgr := config.NewConfigManager(cfg, configPath)
	if err := mgr.UpdatePreset(key, description, pitch, rate); err != nil {
		return err
	}
	fmt.Fprintf(out, "Updated preset %q\n", key)
	return nil
}
