package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/theirongolddev/evbudget/internal/cli"
)

var flagTasksPending bool

var tasksCmd = &cobra.Command{
	Use:   "tasks",
	Short: "Task checklist per event",
	RunE:  runTasks,
}

func init() {
	tasksCmd.Flags().BoolVar(&flagTasksPending, "pending", false, "Only show pending tasks")
	rootCmd.AddCommand(tasksCmd)
}

func runTasks(_ *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	st, err := loadState(cfg)
	if err != nil {
		return err
	}

	fmt.Println()
	fmt.Println(cli.RenderTitle("TAREAS"))
	fmt.Println()

	for _, ev := range st.Events() {
		rows := make([][]string, 0, len(ev.Tasks))
		for _, t := range ev.Tasks {
			if flagTasksPending && t.IsComplete {
				continue
			}
			check := "[ ]"
			if t.IsComplete {
				check = "[x]"
			}
			rows = append(rows, []string{check + " " + cli.Truncate(t.Description, 44), cli.FormatDate(t.DueDate)})
		}
		if len(rows) == 0 {
			continue
		}
		fmt.Print(cli.RenderTable(cli.Table{
			Title:   fmt.Sprintf("%s (%d pendientes)", ev.Name, ev.PendingTasks()),
			Headers: []string{"Tarea", "Fecha límite"},
			Rows:    rows,
		}))
		fmt.Println()
	}
	return nil
}
