package utils

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Tokens          []string `yaml:"tokens"`
	EnableArknights bool     `yaml:"enable_arknights"`
	EnableEndfield  bool     `yaml:"enable_endfield"`
	WebhookURL      string   `yaml:"webhook_url"`
	Proxy           string   `yaml:"proxy"`
}

func DefaultConfig() Config {
	return Config{
		EnableArknights: true,
		EnableEndfield:  true,
	}
}

// LoadConfig reads the optional YAML file at path, then applies environment overrides.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("failed to read config: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("failed to parse config: %w", err)
		}
	}

	applyEnv(&cfg, os.LookupEnv)
	return cfg, nil
}

func applyEnv(cfg *Config, lookup func(string) (string, bool)) {
	for _, key := range []string{"SKYLAND_TOKENS", "SKYLAND_TOKEN"} {
		if raw, ok := lookup(key); ok && strings.TrimSpace(raw) != "" {
			cfg.Tokens = SplitTokens(raw)
			break
		}
	}

	// ENABLE_GAMES lists games; the per-game switches below take precedence
	if raw, ok := lookup("ENABLE_GAMES"); ok && strings.TrimSpace(raw) != "" {
		games := SplitTokens(raw)
		cfg.EnableArknights = containsFold(games, "arknights")
		cfg.EnableEndfield = containsFold(games, "endfield")
	}
	if raw, ok := lookup("ENABLE_ARKNIGHTS"); ok {
		cfg.EnableArknights = parseFlag(raw, cfg.EnableArknights)
	}
	if raw, ok := lookup("ENABLE_ENDFIELD"); ok {
		cfg.EnableEndfield = parseFlag(raw, cfg.EnableEndfield)
	}
	if raw, ok := lookup("WEBHOOK_URL"); ok {
		cfg.WebhookURL = strings.TrimSpace(raw)
	}
	if raw, ok := lookup("PROXY_URL"); ok {
		cfg.Proxy = strings.TrimSpace(raw)
	}
}

// SplitTokens accepts comma and newline separated lists and drops blanks.
func SplitTokens(raw string) []string {
	fields := strings.FieldsFunc(raw, func(r rune) bool {
		return r == ',' || r == '\n'
	})

	tokens := make([]string, 0, len(fields))
	for _, f := range fields {
		if t := strings.TrimSpace(f); t != "" {
			tokens = append(tokens, t)
		}
	}
	return tokens
}

func containsFold(list []string, s string) bool {
	for _, item := range list {
		if strings.EqualFold(item, s) {
			return true
		}
	}
	return false
}

func parseFlag(raw string, fallback bool) bool {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "true", "1", "yes", "on":
		return true
	case "false", "0", "no", "off":
		return false
	default:
		return fallback
	}
}

// Games lists the enabled preset names.
func (c Config) Games() []string {
	var games []string
	if c.EnableArknights {
		games = append(games, "arknights")
	}
	if c.EnableEndfield {
		games = append(games, "endfield")
	}
	return games
}

// MaskToken keeps the first and last four characters.
func MaskToken(token string) string {
	if len(token) <= 8 {
		return "***"
	}
	return token[:4] + "***" + token[len(token)-4:]
}
