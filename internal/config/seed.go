package config

import (
	"fmt"

	"github.com/theirongolddev/evbudget/internal/model"
)

// SeedConfig is the state a fresh process starts from.
type SeedConfig struct {
	Events      []SeedEvent `toml:"events"`
	SharedCosts []SeedCost  `toml:"shared_costs"`
}

// SeedEvent describes one starting event.
type SeedEvent struct {
	Name        string     `toml:"name"`
	StartDate   string     `toml:"start_date,omitempty"`
	EndDate     string     `toml:"end_date,omitempty"`
	TotalBudget int64      `toml:"total_budget"`
	Attendees   int64      `toml:"attendees,omitempty"`
	Costs       []SeedCost `toml:"costs,omitempty"`
	Tasks       []SeedTask `toml:"tasks,omitempty"`
}

// SeedCost describes one starting cost line.
type SeedCost struct {
	Description string `toml:"description"`
	Amount      int64  `toml:"amount"`
	IsVariable  bool   `toml:"is_variable,omitempty"`
}

// SeedTask describes one starting task.
type SeedTask struct {
	Description string `toml:"description"`
	DueDate     string `toml:"due_date,omitempty"`
	Done        bool   `toml:"done,omitempty"`
}

// DefaultSeed is the two-event production plan evbudget ships with.
func DefaultSeed() SeedConfig {
	return SeedConfig{
		Events: []SeedEvent{
			{Name: "Los Ríos Atrae", StartDate: "2026-01-07T09:00:00", TotalBudget: 20_500_000},
			{Name: "Ruedalab IA", StartDate: "2026-01-08T09:00:00", TotalBudget: 20_500_000},
		},
		SharedCosts: []SeedCost{
			{Description: "Pago Proyectista", Amount: 2_000_000},
			{Description: "Pago Productor Boris Gonzalez", Amount: 1_200_000},
			{Description: "Productora (para ambos eventos)"},
			{Description: "Hotel: Salón para 150 personas"},
			{Description: "Hotel: 1 Coffee Break"},
			{Description: "Hotel: Almuerzo Sky Bar (20pax, 7 Ene)"},
			{Description: "Hotel: Almuerzo Sky Bar (20pax, 8 Ene)"},
			{Description: "Hotel: Rueda de Negocios (50pax, 7 Ene)"},
			{Description: "Hotel: Rueda de Negocios (50pax, 8 Ene)"},
			{Description: "Hotel: Cocktail Clausura/Inauguración (150pax)"},
			{Description: "Hotel: Alojamiento 15 invitados"},
			{Description: "Amplificación y microfonía"},
			{Description: "Iluminación"},
			{Description: "Pantallas gigantes LED"},
			{Description: "Transporte: Avión"},
			{Description: "Transporte: Traslados locales"},
		},
	}
}

// State converts the seed into a model state with stable ids.
func (s SeedConfig) State() model.State {
	st := model.State{
		Events:      make([]model.Event, 0, len(s.Events)),
		SharedCosts: make([]model.CostItem, 0, len(s.SharedCosts)),
	}

	for i, se := range s.Events {
		ev := model.Event{
			ID:          fmt.Sprintf("event%d", i+1),
			Name:        se.Name,
			StartDate:   se.StartDate,
			EndDate:     se.EndDate,
			TotalBudget: se.TotalBudget,
			Attendees:   se.Attendees,
			CostItems:   make([]model.CostItem, 0, len(se.Costs)),
			Tasks:       make([]model.Task, 0, len(se.Tasks)),
		}
		for j, c := range se.Costs {
			ev.CostItems = append(ev.CostItems, model.CostItem{
				ID:          fmt.Sprintf("%s-c%d", ev.ID, j+1),
				Description: c.Description,
				Amount:      c.Amount,
				IsVariable:  c.IsVariable,
			})
		}
		for j, t := range se.Tasks {
			ev.Tasks = append(ev.Tasks, model.Task{
				ID:          fmt.Sprintf("%s-t%d", ev.ID, j+1),
				Description: t.Description,
				DueDate:     t.DueDate,
				IsComplete:  t.Done,
			})
		}
		st.Events = append(st.Events, ev)
	}

	for i, c := range s.SharedCosts {
		st.SharedCosts = append(st.SharedCosts, model.CostItem{
			ID:          fmt.Sprintf("sc%d", i+1),
			Description: c.Description,
			Amount:      c.Amount,
			IsVariable:  c.IsVariable,
		})
	}

	return st
}
