package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/theirongolddev/evbudget/internal/sheet"
)

var flagExportOut string

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Write the budget workbook (.xlsx)",
	RunE:  runExport,
}

func init() {
	exportCmd.Flags().StringVarP(&flagExportOut, "out", "o", "", "Output file or directory (default export_dir from config)")
	rootCmd.AddCommand(exportCmd)
}

func runExport(_ *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	st, err := loadState(cfg)
	if err != nil {
		return err
	}

	path := exportPath(flagExportOut, cfg.General.ExportDir, time.Now())
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return fmt.Errorf("creating export directory: %w", err)
	}
	if err := sheet.WriteFile(path, st.Snapshot()); err != nil {
		return err
	}

	fmt.Printf("  Exportado a %s\n", path)
	return nil
}

// exportPath resolves where the workbook goes: an explicit .xlsx file, a
// directory (flag, then config) holding the dated default name, or cwd.
func exportPath(out, dir string, now time.Time) string {
	if filepath.Ext(out) == ".xlsx" {
		return out
	}
	if out != "" {
		dir = out
	}
	if dir == "" {
		dir = "."
	}
	return filepath.Join(dir, sheet.FileName(now))
}
