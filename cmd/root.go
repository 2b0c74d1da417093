// Package cmd implements the evbudget CLI commands.
package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/theirongolddev/evbudget/internal/advisor"
	"github.com/theirongolddev/evbudget/internal/config"
	"github.com/theirongolddev/evbudget/internal/sheet"
	"github.com/theirongolddev/evbudget/internal/store"
)

var (
	flagConfig  string
	flagImport  string
	flagQuiet   bool
	flagVerbose bool
)

var rootCmd = &cobra.Command{
	Use:   "evbudget",
	Short: "Event budgeting dashboard",
	Long:  "Plan event budgets: costs, shared overhead, tasks, profitability and AI advice.",
	RunE:  runSummary,
}

// Execute is the main entry point called from main.go.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&flagConfig, "config", "c", "", "Config file (default "+config.ConfigPath()+")")
	rootCmd.PersistentFlags().StringVarP(&flagImport, "import", "i", "", "Load costs and tasks from an .xlsx or .xls workbook")
	rootCmd.PersistentFlags().BoolVarP(&flagQuiet, "quiet", "q", false, "Suppress progress output")
	rootCmd.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "Log debug detail to stderr")
}

// loadConfig reads --config when given, else the default config path.
func loadConfig() (config.Config, error) {
	if flagConfig != "" {
		return config.LoadFile(flagConfig)
	}
	return config.Load()
}

func saveConfig(cfg config.Config) error {
	if flagConfig != "" {
		return config.SaveFile(flagConfig, cfg)
	}
	return config.Save(cfg)
}

func configPath() string {
	if flagConfig != "" {
		return flagConfig
	}
	return config.ConfigPath()
}

func newLogger() *slog.Logger {
	level := slog.LevelInfo
	switch {
	case flagVerbose:
		level = slog.LevelDebug
	case flagQuiet:
		level = slog.LevelWarn
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

// loadState is the shared state loading path used by all commands: the
// configured seed, then the --import workbook on top when given.
func loadState(cfg config.Config) (*store.Store, error) {
	st := store.New()
	seed := cfg.Seed.State()
	st.Replace(seed.Events, seed.SharedCosts)

	if flagImport == "" {
		return st, nil
	}

	if !flagQuiet {
		fmt.Fprintf(os.Stderr, "  Importando %s...\n", flagImport)
	}

	f, err := os.Open(flagImport) //nolint:gosec // user-chosen workbook
	if err != nil {
		return nil, fmt.Errorf("opening workbook: %w", err)
	}
	defer func() { _ = f.Close() }()

	rep, err := sheet.Import(st, f)
	if err != nil {
		return nil, err
	}

	if !flagQuiet {
		fmt.Fprintf(os.Stderr, "  Importados %d costos de eventos, %d compartidos, %d tareas\n",
			rep.SpecificCosts, rep.SharedCosts, rep.Tasks)
		if rep.DroppedRows > 0 {
			fmt.Fprintf(os.Stderr, "  Omitidas %d filas de eventos desconocidos\n", rep.DroppedRows)
		}
	}
	return st, nil
}

// loadAdvisor builds the advisor from config. A missing API key yields a
// nil advisor, which callers treat as "advice disabled".
func loadAdvisor(ctx context.Context, cfg config.Config, logger *slog.Logger) (*advisor.Advisor, error) {
	svc, err := advisor.NewService(ctx, cfg)
	if err != nil {
		if errors.Is(err, advisor.ErrNoAPIKey) {
			logger.Debug("advisor disabled", "reason", err)
			return nil, nil
		}
		return nil, err
	}
	return advisor.New(svc, logger), nil
}
