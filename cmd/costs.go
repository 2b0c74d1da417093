package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/theirongolddev/evbudget/internal/budget"
	"github.com/theirongolddev/evbudget/internal/cli"
	"github.com/theirongolddev/evbudget/internal/model"
)

var flagCostsEvent string

var costsCmd = &cobra.Command{
	Use:   "costs",
	Short: "Cost items per event and the shared pool",
	RunE:  runCosts,
}

var sharedCmd = &cobra.Command{
	Use:   "shared",
	Short: "Shared cost pool and its per-event share",
	RunE:  runShared,
}

func init() {
	rootCmd.AddCommand(sharedCmd)
	costsCmd.Flags().StringVarP(&flagCostsEvent, "event", "e", "", "Only this event (exact name)")
	rootCmd.AddCommand(costsCmd)
}

func runCosts(_ *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	st, err := loadState(cfg)
	if err != nil {
		return err
	}

	state := st.Snapshot()
	events := state.Events
	if flagCostsEvent != "" {
		ev, ok := state.EventByName(flagCostsEvent)
		if !ok {
			return fmt.Errorf("evento %q no encontrado", flagCostsEvent)
		}
		events = []model.Event{ev}
	}

	sum := budget.Compute(state)

	fmt.Println()
	fmt.Println(cli.RenderTitle("COSTOS"))
	fmt.Println()

	for _, ev := range events {
		fmt.Print(cli.RenderTable(costTable(ev)))
		fmt.Println()
	}

	if flagCostsEvent == "" {
		fmt.Print(cli.RenderTable(sharedTable(state, sum)))
	}
	return nil
}

func runShared(_ *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	st, err := loadState(cfg)
	if err != nil {
		return err
	}

	state := st.Snapshot()
	sum := budget.Compute(state)

	fmt.Println()
	fmt.Println(cli.RenderTitle("COSTOS COMPARTIDOS"))
	fmt.Println()
	fmt.Print(cli.RenderTable(sharedTable(state, sum)))
	if sum.EventCount == 0 {
		fmt.Println(cli.RenderMuted("  Sin eventos: los costos compartidos no se asignan."))
	}
	return nil
}

func sharedTable(state model.State, sum model.Summary) cli.Table {
	rows := make([][]string, 0, len(state.SharedCosts)+3)
	for _, c := range state.SharedCosts {
		rows = append(rows, []string{cli.Truncate(c.Description, 40), cli.FormatCLP(c.Amount)})
	}
	rows = append(rows,
		[]string{"---"},
		[]string{"Total", cli.FormatCLP(sum.TotalSharedCost)},
		[]string{fmt.Sprintf("Por evento (÷%d)", sum.EventCount), cli.FormatMoney(sum.SharedCostPerEvent)},
	)
	return cli.Table{
		Title:   "Costos compartidos",
		Headers: []string{"Descripción", "Monto"},
		Rows:    rows,
	}
}

func costTable(ev model.Event) cli.Table {
	rows := make([][]string, 0, len(ev.CostItems)+2)
	for _, c := range ev.CostItems {
		kind, rate := "Fijo", ""
		if c.IsVariable {
			kind = "Por asistente"
			rate = cli.FormatCLP(c.Amount)
		}
		rows = append(rows, []string{
			cli.Truncate(c.Description, 40),
			kind,
			rate,
			cli.FormatCLP(budget.EffectiveCost(c, ev.Attendees)),
		})
	}
	rows = append(rows, []string{"---"}, []string{"Total", "", "", cli.FormatCLP(budget.OwnCostTotal(ev))})

	return cli.Table{
		Title:   ev.Name,
		Headers: []string{"Descripción", "Tipo", "Tarifa", "Monto"},
		Rows:    rows,
	}
}
