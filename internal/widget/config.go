package widget

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

const (
	PositionBottomRight = "bottom-right"
	PositionBottomLeft  = "bottom-left"
)

type Brand struct {
	Primary       string `yaml:"primary" json:"primary"`
	TextOnPrimary string `yaml:"textOnPrimary" json:"textOnPrimary"`
}

// Config is the embedding site's view of the widget. Zero-valued fields are
// treated as unset when merged over Defaults.
type Config struct {
	Endpoint     string   `yaml:"endpoint" json:"endpoint"`
	Title        string   `yaml:"title" json:"title"`
	Subtitle     string   `yaml:"subtitle" json:"subtitle"`
	Brand        Brand    `yaml:"brand" json:"brand"`
	Position     string   `yaml:"position" json:"position"`
	QuickPrompts []string `yaml:"quickPrompts" json:"quickPrompts"`
	Disclaimer   string   `yaml:"disclaimer" json:"disclaimer"`
	Greeting     string   `yaml:"greeting" json:"greeting"`
}

func Defaults() Config {
	return Config{
		Endpoint: "/quicksquad-ai",
		Title:    "QuickSquad",
		Subtitle: "AI Assistant",
		Brand:    Brand{Primary: "#0ea5e9", TextOnPrimary: "#ffffff"},
		Position: PositionBottomRight,
		QuickPrompts: []string{
			"Open a bank account online",
			"Fix Wi‑Fi that keeps dropping",
			"Reset my email password",
			"Find the nearest DMV",
			"Explain Roth IRA vs 401(k)",
		},
		Disclaimer: "General guidance only — not financial, legal, or medical advice.",
		Greeting:   "Hi! I'm your QuickSquad assistant. How can I help today?",
	}
}

// Merge returns base with every set field of override replacing it. The
// override is shallow: a non-zero Brand replaces the whole base Brand, and a
// non-nil QuickPrompts (even empty) replaces the list. Unknown positions fall
// back to bottom-right.
func Merge(base, override Config) Config {
	out := base
	if override.Endpoint != "" {
		out.Endpoint = override.Endpoint
	}
	if override.Title != "" {
		out.Title = override.Title
	}
	if override.Subtitle != "" {
		out.Subtitle = override.Subtitle
	}
	if override.Brand != (Brand{}) {
		out.Brand = override.Brand
	}
	if override.Position != "" {
		out.Position = override.Position
	}
	if override.QuickPrompts != nil {
		out.QuickPrompts = append([]string{}, override.QuickPrompts...)
	} else {
		out.QuickPrompts = append([]string(nil), base.QuickPrompts...)
	}
	if override.Disclaimer != "" {
		out.Disclaimer = override.Disclaimer
	}
	if override.Greeting != "" {
		out.Greeting = override.Greeting
	}
	if out.Position != PositionBottomLeft {
		out.Position = PositionBottomRight
	}
	return out
}

// LoadConfig reads a YAML override file. The result is not merged.
func LoadConfig(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("widget: read config: %w", err)
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("widget: parse config: %w", err)
	}
	cfg.Position = strings.TrimSpace(cfg.Position)
	return cfg, nil
}
