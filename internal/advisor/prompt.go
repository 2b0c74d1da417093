// Package advisor builds financial summaries and prompts for the AI
// production advisor and turns its failures into user-facing messages.
package advisor

import (
	"fmt"
	"strings"

	"github.com/theirongolddev/evbudget/internal/budget"
	"github.com/theirongolddev/evbudget/internal/cli"
	"github.com/theirongolddev/evbudget/internal/model"
)

// DefaultQuestion is asked when the user leaves the question empty.
const DefaultQuestion = "Dame un consejo general sobre cómo optimizar mis presupuestos."

const persona = "Eres un asesor experto en producción de eventos."

// SummaryText is a plain-text financial summary of the state. The same
// state always yields the same text.
func SummaryText(st model.State) string {
	sum := budget.Compute(st)

	var b strings.Builder
	for _, f := range sum.Events {
		fmt.Fprintf(&b, "Evento: %s\n", f.Name)
		fmt.Fprintf(&b, "- Presupuesto Total: %s\n", cli.FormatCLP(f.TotalBudget))
		fmt.Fprintf(&b, "- Gasto Total: %s\n", cli.FormatMoney(f.TotalSpent))
		fmt.Fprintf(&b, "- Presupuesto Disponible: %s\n\n", cli.FormatMoney(f.Remaining))
	}
	fmt.Fprintf(&b, "Costos compartidos entre todos los eventos suman: %s\n", cli.FormatCLP(sum.TotalSharedCost))
	return b.String()
}

// Prompt builds the text advisor prompt for a question.
func Prompt(st model.State, question string) string {
	if len(st.Events) == 0 {
		return persona + " El usuario aún no ha creado ningún evento. Anímale a crear su primer evento para poder empezar a planificar y usar tus servicios de asesoría."
	}
	question = strings.TrimSpace(question)
	if question == "" {
		question = DefaultQuestion
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%s Estoy planificando %d evento(s). Aquí está el resumen financiero actual:\n\n", persona, len(st.Events))
	b.WriteString(SummaryText(st))
	fmt.Fprintf(&b, "\nMi pregunta es: \"%s\".\n\n", question)
	b.WriteString("Por favor, dame tu consejo de forma clara, concisa y orientada a la acción. Usa markdown para formatear tu respuesta.")
	return b.String()
}

// VoiceInstruction builds the system instruction for a live voice session.
func VoiceInstruction(st model.State) string {
	if len(st.Events) == 0 {
		return persona + " El usuario aún no ha creado ningún evento. Anímale a crear su primer evento para poder empezar a planificar."
	}

	sum := budget.Compute(st)
	var b strings.Builder
	b.WriteString(persona)
	b.WriteString(" El usuario te hablará para consultarte sobre el estado financiero de sus eventos. Responde de forma amigable y conversacional. Aquí está el resumen financiero actual:\n\n")
	for _, f := range sum.Events {
		fmt.Fprintf(&b, "Evento: %s, Presupuesto Disponible: %s\n", f.Name, cli.FormatMoney(f.Remaining))
	}
	fmt.Fprintf(&b, "Total de costos compartidos: %s\n\n", cli.FormatCLP(sum.TotalSharedCost))
	b.WriteString("Responde directamente a las preguntas del usuario basándote en esta información.")
	return b.String()
}
