package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/theirongolddev/evbudget/internal/budget"
	"github.com/theirongolddev/evbudget/internal/cli"
)

var summaryCmd = &cobra.Command{
	Use:   "summary",
	Short: "Portfolio budget summary",
	RunE:  runSummary,
}

func init() {
	rootCmd.AddCommand(summaryCmd)
}

func runSummary(_ *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	st, err := loadState(cfg)
	if err != nil {
		return err
	}

	state := st.Snapshot()
	if len(state.Events) == 0 {
		fmt.Println("\n  Aún no hay eventos.")
		fmt.Println("  Agrega eventos en la configuración o con `evbudget tui`.")
		return nil
	}

	sum := budget.Compute(state)

	fmt.Println()
	fmt.Println(cli.RenderTitle("RESUMEN DE PRESUPUESTOS"))
	fmt.Println()

	rows := [][]string{
		{"Eventos", cli.FormatNumber(int64(sum.EventCount))},
		{"Presupuesto total", cli.FormatCLP(sum.TotalBudget)},
		{"---"},
		{"Costos compartidos", cli.FormatCLP(sum.TotalSharedCost)},
		{"Compartido por evento", cli.FormatMoney(sum.SharedCostPerEvent)},
		{"---"},
		{"Gasto total", cli.FormatMoney(sum.TotalSpent)},
		{"Disponible", cli.FormatMoney(sum.TotalRemaining)},
		{"Disponible (%)", cli.FormatPercent(budget.RemainingPercent(sum.TotalRemaining, sum.TotalBudget))},
	}

	pending := 0
	for _, f := range sum.Events {
		pending += f.PendingTasks
	}
	rows = append(rows, []string{"---"}, []string{"Tareas pendientes", cli.FormatNumber(int64(pending))})

	fmt.Print(cli.RenderTable(cli.Table{
		Headers: []string{"Indicador", "Valor"},
		Rows:    rows,
	}))

	fmt.Println()
	fmt.Print(cli.RenderTable(eventsTable(sum)))
	return nil
}
