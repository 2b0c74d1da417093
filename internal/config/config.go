package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
	"github.com/adrg/xdg"
	"github.com/charmbracelet/catwalk/pkg/catwalk"
)

const appName = "evbudget"

// ProviderGemini selects the Google Gemini API. The remaining provider
// types are catwalk's.
const ProviderGemini = "gemini"

// Config holds all evbudget configuration.
type Config struct {
	General    GeneralConfig    `toml:"general"`
	Appearance AppearanceConfig `toml:"appearance"`
	Advisor    AdvisorConfig    `toml:"advisor"`
	Voice      VoiceConfig      `toml:"voice"`
	Daemon     DaemonConfig     `toml:"daemon"`
	Seed       SeedConfig       `toml:"seed"`
}

// GeneralConfig holds general preferences.
type GeneralConfig struct {
	ExportDir string `toml:"export_dir,omitempty"`
}

// AppearanceConfig holds theme settings.
type AppearanceConfig struct {
	Theme string `toml:"theme"`
}

// AdvisorConfig selects the text advice backend.
type AdvisorConfig struct {
	Provider  string `toml:"provider"`
	Model     string `toml:"model"`
	APIKey    string `toml:"api_key,omitempty"`
	BaseURL   string `toml:"base_url,omitempty"`
	MaxTokens int64  `toml:"max_tokens,omitempty"`
}

// VoiceConfig holds live voice session settings.
type VoiceConfig struct {
	Model     string `toml:"model"`
	VoiceName string `toml:"voice_name"`
	APIKey    string `toml:"api_key,omitempty"`
}

// DaemonConfig holds HTTP API settings.
type DaemonConfig struct {
	Addr         string `toml:"addr"`
	EventsBuffer int    `toml:"events_buffer"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() Config {
	return Config{
		Appearance: AppearanceConfig{
			Theme: "flexoki-dark",
		},
		Advisor: AdvisorConfig{
			Provider:  ProviderGemini,
			Model:     "gemini-2.5-flash",
			MaxTokens: 2048,
		},
		Voice: VoiceConfig{
			Model:     "gemini-2.5-flash-native-audio-preview-09-2025",
			VoiceName: "Zephyr",
		},
		Daemon: DaemonConfig{
			Addr:         "127.0.0.1:8787",
			EventsBuffer: 200,
		},
		Seed: DefaultSeed(),
	}
}

// ConfigDir returns the XDG config directory for evbudget.
func ConfigDir() string {
	return filepath.Join(xdg.ConfigHome, appName)
}

// StateDir returns the XDG state directory for runtime files such as the
// daemon pid file and log.
func StateDir() string {
	return filepath.Join(xdg.StateHome, appName)
}

// ConfigPath returns the full path to the config file. EVBUDGET_CONFIG
// overrides it.
func ConfigPath() string {
	if p := os.Getenv("EVBUDGET_CONFIG"); p != "" {
		return p
	}
	return filepath.Join(ConfigDir(), "config.toml")
}

// Load reads the config file, returning defaults if it doesn't exist.
func Load() (Config, error) {
	return LoadFile(ConfigPath())
}

// LoadFile reads the config at path, returning defaults if it doesn't exist.
// A file that declares its own seed replaces the default seed wholesale.
func LoadFile(path string) (Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path) //nolint:gosec // user-chosen config path
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("reading config: %w", err)
	}

	cfg.Seed = SeedConfig{}
	md, err := toml.Decode(string(data), &cfg)
	if err != nil {
		return DefaultConfig(), fmt.Errorf("parsing config: %w", err)
	}
	if !md.IsDefined("seed") {
		cfg.Seed = DefaultSeed()
	}

	return cfg, nil
}

// Save writes the config to disk.
func Save(cfg Config) error {
	return SaveFile(ConfigPath(), cfg)
}

// SaveFile writes the config to path.
func SaveFile(path string, cfg Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating config dir: %w", err)
	}

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o600) //nolint:gosec // user-chosen config path
	if err != nil {
		return fmt.Errorf("creating config file: %w", err)
	}
	defer func() { _ = f.Close() }()

	return toml.NewEncoder(f).Encode(cfg)
}

// Exists returns true if a config file exists on disk.
func Exists() bool {
	_, err := os.Stat(ConfigPath())
	return err == nil
}

// providerEnv maps a provider type to its conventional API key variable.
var providerEnv = map[string]string{
	ProviderGemini:                   "GEMINI_API_KEY",
	string(catwalk.TypeOpenAI):       "OPENAI_API_KEY",
	string(catwalk.TypeOpenAICompat): "OPENAI_API_KEY",
	string(catwalk.TypeAnthropic):    "ANTHROPIC_API_KEY",
}

// lookupKey resolves an API key: EVBUDGET_API_KEY, then the provider's own
// variable, then API_KEY, then the config value.
func lookupKey(provider, configured string) string {
	if key := os.Getenv("EVBUDGET_API_KEY"); key != "" {
		return key
	}
	if name, ok := providerEnv[provider]; ok {
		if key := os.Getenv(name); key != "" {
			return key
		}
	}
	if key := os.Getenv("API_KEY"); key != "" {
		return key
	}
	return configured
}

// AdvisorAPIKey returns the key for the configured advice provider.
func AdvisorAPIKey(cfg Config) string {
	return lookupKey(cfg.Advisor.Provider, cfg.Advisor.APIKey)
}

// VoiceAPIKey returns the key for the live voice session, which always
// runs on Gemini. It falls back to the advisor key when that is Gemini too.
func VoiceAPIKey(cfg Config) string {
	key := lookupKey(ProviderGemini, cfg.Voice.APIKey)
	if key == "" && cfg.Advisor.Provider == ProviderGemini {
		key = cfg.Advisor.APIKey
	}
	return key
}

// Providers lists the advice provider types accepted in config.
func Providers() []string {
	return []string{
		ProviderGemini,
		string(catwalk.TypeOpenAI),
		string(catwalk.TypeOpenAICompat),
		string(catwalk.TypeAnthropic),
	}
}
