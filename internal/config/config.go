// ABOUTME: Settings loading: global + project YAML deep merge, then environment overrides
// ABOUTME: YAML via gopkg.in/yaml.v3; environment via caarlos0/env with ANTHROPIC_/CHATSTREAM_ names

package config

import (
	"errors"
	"fmt"
	"maps"
	"os"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"
)

const (
	DefaultModel       = "claude-sonnet-4-20250514"
	DefaultMaxTokens   = 4096
	DefaultLogLevel    = "info"
	DefaultNATSSubject = "chatstream.snapshots"
)

// Settings holds the merged configuration.
type Settings struct {
	Model          string            `yaml:"model,omitempty" env:"CHATSTREAM_MODEL"`
	APIKey         string            `yaml:"api_key,omitempty" env:"ANTHROPIC_API_KEY"`
	BaseURL        string            `yaml:"base_url,omitempty" env:"ANTHROPIC_BASE_URL"`
	MaxTokens      int               `yaml:"max_tokens,omitempty" env:"CHATSTREAM_MAX_TOKENS"`
	Temperature    float64           `yaml:"temperature,omitempty" env:"CHATSTREAM_TEMPERATURE"`
	ThinkingBudget int               `yaml:"thinking_budget,omitempty" env:"CHATSTREAM_THINKING_BUDGET"`
	System         string            `yaml:"system,omitempty" env:"CHATSTREAM_SYSTEM"`
	LogLevel       string            `yaml:"log_level,omitempty" env:"CHATSTREAM_LOG_LEVEL"`
	NATS           NATSSettings      `yaml:"nats,omitempty" envPrefix:"CHATSTREAM_NATS_"`
	Headers        map[string]string `yaml:"headers,omitempty"`
}

// NATSSettings configures the optional snapshot fan-out.
type NATSSettings struct {
	URL     string `yaml:"url,omitempty" env:"URL"`
	Subject string `yaml:"subject,omitempty" env:"SUBJECT"`
}

// Load reads global and project-local settings and applies the process
// environment. Project settings override global ones; environment wins.
func Load(projectRoot string) (*Settings, error) {
	return LoadFiles(GlobalConfigFile(), ProjectConfigFile(projectRoot), nil)
}

// LoadFiles is Load with explicit paths. A nil environ means the process
// environment. Missing files are skipped; an empty path is ignored.
func LoadFiles(globalPath, projectPath string, environ map[string]string) (*Settings, error) {
	global, err := loadFile(globalPath)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("loading global config: %w", err)
	}

	project, err := loadFile(projectPath)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("loading project config: %w", err)
	}

	merged := merge(global, project)

	opts := env.Options{}
	lookup := os.Getenv
	if environ != nil {
		opts.Environment = environ
		lookup = func(k string) string { return environ[k] }
	}
	resolveEnvVars(merged, lookup)
	if err := env.ParseWithOptions(merged, opts); err != nil {
		return nil, fmt.Errorf("reading environment: %w", err)
	}

	merged.applyDefaults()
	return merged, nil
}

// loadFile reads Settings from a YAML file. Returns zero Settings if the file
// does not exist.
func loadFile(path string) (*Settings, error) {
	if path == "" {
		return &Settings{}, os.ErrNotExist
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return &Settings{}, err
	}
	var s Settings
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	return &s, nil
}

// merge deep-merges project settings onto global settings.
// Non-zero project values override global values.
func merge(global, project *Settings) *Settings {
	if global == nil {
		global = &Settings{}
	}
	if project == nil {
		project = &Settings{}
	}

	result := *global
	result.Headers = maps.Clone(global.Headers)

	if project.Model != "" {
		result.Model = project.Model
	}
	if project.APIKey != "" {
		result.APIKey = project.APIKey
	}
	if project.BaseURL != "" {
		result.BaseURL = project.BaseURL
	}
	if project.MaxTokens != 0 {
		result.MaxTokens = project.MaxTokens
	}
	if project.Temperature != 0 {
		result.Temperature = project.Temperature
	}
	if project.ThinkingBudget != 0 {
		result.ThinkingBudget = project.ThinkingBudget
	}
	if project.System != "" {
		result.System = project.System
	}
	if project.LogLevel != "" {
		result.LogLevel = project.LogLevel
	}
	if project.NATS.URL != "" {
		result.NATS.URL = project.NATS.URL
	}
	if project.NATS.Subject != "" {
		result.NATS.Subject = project.NATS.Subject
	}

	if len(project.Headers) > 0 {
		if result.Headers == nil {
			result.Headers = make(map[string]string)
		}
		maps.Copy(result.Headers, project.Headers)
	}

	return &result
}

func (s *Settings) applyDefaults() {
	if s.Model == "" {
		s.Model = DefaultModel
	}
	if s.MaxTokens == 0 {
		s.MaxTokens = DefaultMaxTokens
	}
	if s.LogLevel == "" {
		s.LogLevel = DefaultLogLevel
	}
	if s.NATS.Subject == "" {
		s.NATS.Subject = DefaultNATSSubject
	}
}
