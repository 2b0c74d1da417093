package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/theirongolddev/evbudget/internal/budget"
	"github.com/theirongolddev/evbudget/internal/cli"
	"github.com/theirongolddev/evbudget/internal/model"
)

var eventsCmd = &cobra.Command{
	Use:   "events",
	Short: "Per-event budget figures",
	RunE:  runEvents,
}

func init() {
	rootCmd.AddCommand(eventsCmd)
}

func runEvents(_ *cobra.Command, _ []string) error {
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
		return nil
	}

	sum := budget.Compute(state)

	fmt.Println()
	fmt.Println(cli.RenderTitle("EVENTOS"))
	fmt.Println()
	fmt.Print(cli.RenderTable(eventsTable(sum)))

	for _, ev := range state.Events {
		fig, _ := sum.Figures(ev.ID)
		fmt.Println()
		fmt.Printf("  %s  %s\n", ev.Name, cli.RenderMuted(cli.FormatDateRange(ev.StartDate, ev.EndDate)))
		fmt.Printf("  Asistentes %s  ·  propio %s  ·  compartido %s  ·  disponible %s\n",
			cli.FormatNumber(ev.Attendees),
			cli.FormatCLP(fig.OwnCost),
			cli.FormatMoney(fig.SharedShare),
			cli.RenderHealth(cli.FormatMoney(fig.Remaining), budget.Health(fig.Remaining, fig.TotalBudget)),
		)
	}
	return nil
}

func eventsTable(sum model.Summary) cli.Table {
	rows := make([][]string, 0, len(sum.Events))
	for _, f := range sum.Events {
		rows = append(rows, []string{
			cli.Truncate(f.Name, 28),
			cli.FormatCLP(f.TotalBudget),
			cli.FormatMoney(f.TotalSpent),
			cli.FormatMoney(f.Remaining),
			cli.FormatPercent(f.ProfitMargin),
			fmt.Sprintf("%d/%d", f.CompletedTasks, f.CompletedTasks+f.PendingTasks),
		})
	}
	return cli.Table{
		Headers: []string{"Evento", "Presupuesto", "Gasto", "Disponible", "Margen", "Tareas"},
		Rows:    rows,
	}
}
