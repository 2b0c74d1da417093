package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/theirongolddev/evbudget/internal/budget"
	"github.com/theirongolddev/evbudget/internal/cli"
)

var chartCmd = &cobra.Command{
	Use:   "chart",
	Short: "Profit margin per event",
	RunE:  runChart,
}

func init() {
	rootCmd.AddCommand(chartCmd)
}

func runChart(_ *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	st, err := loadState(cfg)
	if err != nil {
		return err
	}

	sum := budget.Compute(st.Snapshot())
	if len(sum.Events) == 0 {
		fmt.Println("\n  Sin eventos para graficar.")
		return nil
	}

	scale := budget.MarginScale(sum.Events)
	labelW := 0
	for _, f := range sum.Events {
		labelW = max(labelW, len([]rune(f.Name)))
	}
	labelW = min(labelW, 24)

	fmt.Println()
	fmt.Println(cli.RenderTitle("MARGEN DE GANANCIA"))
	fmt.Println()
	for _, f := range sum.Events {
		name := cli.Truncate(f.Name, labelW)
		pad := labelW - len([]rune(name))
		fmt.Printf("  %s%*s %s %s\n", name, pad, "",
			cli.RenderMarginBar(f.ProfitMargin, scale, 20),
			cli.FormatPercent(f.ProfitMargin))
	}
	fmt.Println()
	fmt.Println(cli.RenderMuted(fmt.Sprintf("  Escala ±%s", cli.FormatPercent(scale))))
	return nil
}
