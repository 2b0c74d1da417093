package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/theirongolddev/evbudget/internal/cli"
	"github.com/theirongolddev/evbudget/internal/config"
	"github.com/theirongolddev/evbudget/internal/tui"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show current configuration",
	RunE:  runConfig,
}

func init() {
	rootCmd.AddCommand(configCmd)
}

func runConfig(_ *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	fmt.Printf("  Config file: %s\n", configPath())
	if flagConfig != "" || config.Exists() {
		fmt.Println("  Status: loaded")
	} else {
		fmt.Println("  Status: using defaults (no config file)")
	}
	fmt.Println()

	fmt.Println("  [General]")
	if cfg.General.ExportDir != "" {
		fmt.Printf("    Export directory: %s\n", cfg.General.ExportDir)
	} else {
		fmt.Println("    Export directory: current directory")
	}
	fmt.Println()

	fmt.Println("  [Appearance]")
	fmt.Printf("    Theme: %s\n", cfg.Appearance.Theme)
	fmt.Println()

	fmt.Println("  [Advisor]")
	fmt.Printf("    Provider: %s\n", cfg.Advisor.Provider)
	fmt.Printf("    Model:    %s\n", cfg.Advisor.Model)
	if cfg.Advisor.BaseURL != "" {
		fmt.Printf("    Base URL: %s\n", cfg.Advisor.BaseURL)
	}
	printKey(config.AdvisorAPIKey(cfg))
	fmt.Println()

	fmt.Println("  [Voice]")
	fmt.Printf("    Model: %s\n", cfg.Voice.Model)
	fmt.Printf("    Voice: %s\n", cfg.Voice.VoiceName)
	printKey(config.VoiceAPIKey(cfg))
	fmt.Println()

	fmt.Println("  [Daemon]")
	fmt.Printf("    Address:       %s\n", cfg.Daemon.Addr)
	fmt.Printf("    Events buffer: %d\n", cfg.Daemon.EventsBuffer)
	fmt.Println()

	fmt.Println("  [Seed]")
	seed := cfg.Seed.State()
	fmt.Printf("    Events:       %s\n", cli.FormatNumber(int64(len(seed.Events))))
	fmt.Printf("    Shared costs: %s\n", cli.FormatNumber(int64(len(seed.SharedCosts))))
	fmt.Println()

	fmt.Println("  Run `evbudget setup` to reconfigure.")
	return nil
}

func printKey(key string) {
	if key != "" {
		fmt.Printf("    API key:  %s\n", tui.MaskAPIKey(key))
	} else {
		fmt.Println("    API key:  not configured")
	}
}
