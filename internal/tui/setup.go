package tui

import (
	"strings"

	"github.com/charmbracelet/huh"

	"github.com/theirongolddev/evbudget/internal/config"
	"github.com/theirongolddev/evbudget/internal/tui/theme"
)

// SetupValues holds the answers of the setup wizard.
type SetupValues struct {
	Provider  string
	Model     string
	APIKey    string
	ExportDir string
	Theme     string
}

// SetupValuesFrom prefills the wizard from an existing config. The stored
// API key is left blank so an empty answer keeps it.
func SetupValuesFrom(cfg config.Config) *SetupValues {
	return &SetupValues{
		Provider:  cfg.Advisor.Provider,
		Model:     cfg.Advisor.Model,
		ExportDir: cfg.General.ExportDir,
		Theme:     cfg.Appearance.Theme,
	}
}

// NewSetupForm builds the first-run wizard over v.
func NewSetupForm(v *SetupValues, currentKey string) *huh.Form {
	keyHint := "Deja vacío para usar la variable de entorno del proveedor."
	if currentKey != "" {
		keyHint = "Actual: " + MaskAPIKey(currentKey) + ". Deja vacío para conservarla."
	}

	themes := make([]huh.Option[string], 0, len(theme.All))
	for _, t := range theme.All {
		themes = append(themes, huh.NewOption(t.Name, t.Name))
	}

	return huh.NewForm(
		huh.NewGroup(
			huh.NewNote().
				Title("Bienvenido a evbudget").
				Description("Configura el asesor de presupuestos y la apariencia del panel."),
		),
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Proveedor del asesor").
				Options(huh.NewOptions(config.Providers()...)...).
				Value(&v.Provider),
			huh.NewInput().
				Title("Modelo").
				Value(&v.Model).
				Validate(required("el modelo")),
			huh.NewInput().
				Title("API key").
				Description(keyHint).
				EchoMode(huh.EchoModePassword).
				Value(&v.APIKey),
		).Title("Asesor"),
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Tema de color").
				Options(themes...).
				Value(&v.Theme),
			huh.NewInput().
				Title("Carpeta de exportación").
				Placeholder("directorio actual").
				Value(&v.ExportDir),
		).Title("Apariencia"),
	).WithTheme(huh.ThemeCharm())
}

// Apply copies the wizard answers into cfg and activates the chosen theme.
func (v *SetupValues) Apply(cfg *config.Config) {
	cfg.Advisor.Provider = v.Provider
	cfg.Advisor.Model = strings.TrimSpace(v.Model)
	if key := strings.TrimSpace(v.APIKey); key != "" {
		cfg.Advisor.APIKey = key
	}
	cfg.General.ExportDir = strings.TrimSpace(v.ExportDir)
	if v.Theme != "" {
		cfg.Appearance.Theme = v.Theme
		theme.SetActive(v.Theme)
	}
}

// MaskAPIKey shortens a key for display.
func MaskAPIKey(key string) string {
	if len(key) > 16 {
		return key[:8] + "..." + key[len(key)-4:]
	}
	if len(key) > 4 {
		return key[:4] + "..."
	}
	return "****"
}
