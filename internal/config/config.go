// Package config loads the LSP core's on-disk configuration: toolchain
// locations, per-language backend commands, workspace roots, file-watch
// rules, and logging settings (spec §2.1, §2.2).
//
// Adapted from the teacher's internal/config/config.go: the same
// DefaultConfig/Load/Save/env-override/Validate shape, with every
// LLM/shard/memory field replaced by the toolchain/workspace/watch
// fields this domain actually needs.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds the LSP core's configuration.
type Config struct {
	// Toolchains lists the configured toolchains, each with its name,
	// launch command and languages. ToolchainFor picks among these per
	// spec §4.6 step 1.
	Toolchains []ToolchainConfig `yaml:"toolchains"`

	// DefaultToolchain is preferred when it supports a language.
	DefaultToolchain string `yaml:"default_toolchain"`

	// Watch configures the file-watcher rules from spec §6.
	Watch WatchConfig `yaml:"watch"`

	// Progress configures the work-done progress debounce (C10).
	Progress ProgressConfig `yaml:"progress"`

	Logging LoggingConfig `yaml:"logging"`
}

// ToolchainConfig describes one backend child process.
type ToolchainConfig struct {
	Name      string   `yaml:"name"`      // e.g. "swift", "clangd"
	Command   string   `yaml:"command"`   // executable path or name on PATH
	Args      []string `yaml:"args"`
	Languages []string `yaml:"languages"` // language ids this toolchain services
}

// WatchConfig lists the file-watch rules from spec §6.
type WatchConfig struct {
	// SourceExtensions are watched for create/delete per language.
	SourceExtensions []string `yaml:"source_extensions"`
	// ManifestFilenames are watched for change (e.g. Package.swift).
	ManifestFilenames []string `yaml:"manifest_filenames"`
	// CompilationDatabaseFilenames are watched for create/change/delete
	// (compile_commands.json, compile_flags.txt).
	CompilationDatabaseFilenames []string `yaml:"compilation_database_filenames"`
}

// ProgressConfig tunes C10's debounce behavior.
type ProgressConfig struct {
	// Debounce is retained for forward compatibility with a future
	// coalescing window; the current C10 implementation (spec §4.9) has
	// no debounce delay of its own, only a counter, so this is unused
	// until a richer progress model is needed.
	Debounce time.Duration `yaml:"debounce"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Toolchains: []ToolchainConfig{
			{
				Name:      "swift",
				Command:   "sourcekit-lsp",
				Languages: []string{"swift"},
			},
			{
				Name:      "clangd",
				Command:   "clangd",
				Args:      []string{"--background-index"},
				Languages: []string{"c", "cpp", "objective-c", "objective-cpp"},
			},
		},
		DefaultToolchain: "swift",
		Watch: WatchConfig{
			SourceExtensions:             []string{".swift", ".c", ".h", ".cpp", ".hpp", ".cc", ".m", ".mm"},
			ManifestFilenames:            []string{"Package.swift"},
			CompilationDatabaseFilenames: []string{"compile_commands.json", "compile_flags.txt"},
		},
		Progress: ProgressConfig{
			Debounce: 0,
		},
		Logging: LoggingConfig{
			Level:     "info",
			Format:    "text",
			DebugMode: false,
		},
	}
}

// Load reads configuration from a YAML file, falling back to defaults
// if the file does not exist.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			cfg.applyEnvOverrides()
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.applyEnvOverrides()
	return cfg, nil
}

// Save writes configuration to a YAML file, creating parent directories
// as needed.
func (c *Config) Save(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	return os.WriteFile(path, data, 0644)
}

// applyEnvOverrides applies environment variable overrides, mirroring
// the teacher's applyEnvOverrides pattern in internal/config/config.go.
func (c *Config) applyEnvOverrides() {
	if v := os.Getenv("LSPCORE_DEFAULT_TOOLCHAIN"); v != "" {
		c.DefaultToolchain = v
	}
	if v := os.Getenv("LSPCORE_LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}
	if v := os.Getenv("LSPCORE_DEBUG"); v == "1" || v == "true" {
		c.Logging.DebugMode = true
	}
}

// Validate checks the configuration for internal consistency.
func (c *Config) Validate() error {
	if len(c.Toolchains) == 0 {
		return fmt.Errorf("config: at least one toolchain must be configured")
	}
	seen := make(map[string]bool, len(c.Toolchains))
	for _, tc := range c.Toolchains {
		if tc.Name == "" {
			return fmt.Errorf("config: toolchain with empty name")
		}
		if seen[tc.Name] {
			return fmt.Errorf("config: duplicate toolchain name %q", tc.Name)
		}
		seen[tc.Name] = true
		if tc.Command == "" {
			return fmt.Errorf("config: toolchain %q has no command", tc.Name)
		}
		if len(tc.Languages) == 0 {
			return fmt.Errorf("config: toolchain %q services no languages", tc.Name)
		}
	}
	if c.DefaultToolchain != "" && !seen[c.DefaultToolchain] {
		return fmt.Errorf("config: default_toolchain %q is not a configured toolchain", c.DefaultToolchain)
	}
	return nil
}

// ToolchainFor returns the toolchain configured for language, preferring
// the default toolchain if it supports the language, else the first
// toolchain that does — spec §4.6 step 1.
func (c *Config) ToolchainFor(language string) (ToolchainConfig, bool) {
	var fallback *ToolchainConfig
	for i := range c.Toolchains {
		tc := &c.Toolchains[i]
		supports := false
		for _, lang := range tc.Languages {
			if lang == language {
				supports = true
				break
			}
		}
		if !supports {
			continue
		}
		if tc.Name == c.DefaultToolchain {
			return *tc, true
		}
		if fallback == nil {
			fallback = tc
		}
	}
	if fallback != nil {
		return *fallback, true
	}
	return ToolchainConfig{}, false
}
