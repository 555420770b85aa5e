package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"gopkg.in/yaml.v3"

	"github.com/youyo/clapikit/internal/logging"
	"github.com/youyo/clapikit/internal/render"
	"github.com/youyo/clapikit/internal/request"
)

// Config captures every input of a run after merging defaults, config file
// values and command-line overrides.
type Config struct {
	Spec       string
	Server     string
	Output     string
	Timeout    time.Duration
	Debug      bool
	Silent     bool
	NoColor    bool
	ConfigPath string

	// Per-run values, never read from the config file.
	Operation string
	Data      string
	Params    string
	Headers   string
	Tags      []string
}

func defaultConfig() Config {
	return Config{Output: string(render.Structured)}
}

// Raw returns the request overrides in the shape the builder expects.
func (c *Config) Raw() request.Raw {
	return request.Raw{Body: c.Data, Query: c.Params, Headers: c.Headers}
}

// Mode returns the validated output mode.
func (c *Config) Mode() render.Mode {
	m, _ := render.ParseMode(c.Output)
	return m
}

// resolveConfig merges the config file and flags, validates the result and
// configures logging for the rest of the command.
func resolveConfig(cmd *cobra.Command) (*Config, error) {
	cfg := defaultConfig()

	configPath, err := cmd.Flags().GetString("config")
	if err != nil {
		return nil, err
	}
	configPath = strings.TrimSpace(configPath)
	if configPath != "" {
		cfg.ConfigPath = configPath
		if err := applyConfigFromFile(&cfg, configPath); err != nil {
			return nil, err
		}
	}

	if err := applyFlagOverrides(cmd.Flags(), &cfg); err != nil {
		return nil, err
	}

	cfg.normalize()
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	logging.Configure(cmd.ErrOrStderr(), logging.Options{
		Debug:   cfg.Debug,
		Silent:  cfg.Silent,
		NoColor: cfg.NoColor,
	})
	return &cfg, nil
}

func applyFlagOverrides(flags *pflag.FlagSet, cfg *Config) error {
	strs := map[string]*string{
		"spec":    &cfg.Spec,
		"server":  &cfg.Server,
		"output":  &cfg.Output,
		"data":    &cfg.Data,
		"params":  &cfg.Params,
		"headers": &cfg.Headers,
	}
	for name, dst := range strs {
		if !changed(flags, name) {
			continue
		}
		value, err := flags.GetString(name)
		if err != nil {
			return err
		}
		*dst = value
	}

	bools := map[string]*bool{
		"debug":    &cfg.Debug,
		"silent":   &cfg.Silent,
		"no-color": &cfg.NoColor,
	}
	for name, dst := range bools {
		if !changed(flags, name) {
			continue
		}
		value, err := flags.GetBool(name)
		if err != nil {
			return err
		}
		*dst = value
	}

	if changed(flags, "timeout") {
		value, err := flags.GetDuration("timeout")
		if err != nil {
			return err
		}
		cfg.Timeout = value
	}
	if changed(flags, "tag") {
		value, err := flags.GetStringSlice("tag")
		if err != nil {
			return err
		}
		cfg.Tags = sanitizeTags(value)
	}
	return nil
}

// changed reports whether name is defined on this command and was set.
func changed(flags *pflag.FlagSet, name string) bool {
	return flags.Lookup(name) != nil && flags.Changed(name)
}

func (c *Config) normalize() {
	c.Spec = strings.TrimSpace(c.Spec)
	c.Server = strings.TrimSpace(c.Server)
	c.Output = strings.ToLower(strings.TrimSpace(c.Output))
	c.Operation = strings.TrimSpace(c.Operation)
	c.Tags = sanitizeTags(c.Tags)
}

func (c *Config) validate() error {
	if c.Spec == "" {
		return newUsageError("--spec is required (set via flag or config file)")
	}
	if _, err := render.ParseMode(c.Output); err != nil {
		return newUsageError(fmt.Sprintf("--output: %v", err))
	}
	if c.Timeout < 0 {
		return newUsageError("--timeout must not be negative")
	}
	return nil
}

func applyConfigFromFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return newUsageError(fmt.Sprintf("read config file %q: %v", path, err))
	}
	return applyConfigData(cfg, path, data)
}

// applyConfigData decodes data as TOML or YAML, chosen by the extension of
// path, and copies the known keys into cfg.
func applyConfigData(cfg *Config, path string, data []byte) error {
	var err error
	var raw map[string]any
	if strings.EqualFold(filepath.Ext(path), ".toml") {
		err = toml.Unmarshal(data, &raw)
	} else {
		err = yaml.Unmarshal(data, &raw)
	}
	if err != nil {
		return newUsageError(fmt.Sprintf("parse config file %q: %v", path, err))
	}

	for key, value := range raw {
		var err error
		switch normalizeKey(key) {
		case "spec":
			cfg.Spec, err = valueAsString(value)
		case "server":
			cfg.Server, err = valueAsString(value)
		case "output":
			cfg.Output, err = valueAsString(value)
		case "timeout":
			cfg.Timeout, err = valueAsDuration(value)
		case "debug":
			cfg.Debug, err = valueAsBool(value)
		case "silent":
			cfg.Silent, err = valueAsBool(value)
		case "nocolor":
			cfg.NoColor, err = valueAsBool(value)
		default:
			return newUsageError(fmt.Sprintf("config file %q: unknown field %q", path, key))
		}
		if err != nil {
			return newUsageError(fmt.Sprintf("config field %q: %v", key, err))
		}
	}

	return nil
}

func normalizeKey(raw string) string {
	lowered := strings.ToLower(strings.TrimSpace(raw))
	lowered = strings.ReplaceAll(lowered, "-", "")
	lowered = strings.ReplaceAll(lowered, "_", "")
	return lowered
}

func valueAsString(v any) (string, error) {
	switch val := v.(type) {
	case string:
		return strings.TrimSpace(val), nil
	case nil:
		return "", nil
	default:
		return "", fmt.Errorf("expected string, got %T", v)
	}
}

func valueAsBool(v any) (bool, error) {
	switch val := v.(type) {
	case bool:
		return val, nil
	case string:
		switch strings.ToLower(strings.TrimSpace(val)) {
		case "true", "t", "1", "yes", "y":
			return true, nil
		case "false", "f", "0", "no", "n", "":
			return false, nil
		default:
			return false, fmt.Errorf("invalid boolean value %q", val)
		}
	case nil:
		return false, nil
	default:
		return false, fmt.Errorf("expected boolean, got %T", v)
	}
}

// valueAsDuration accepts Go duration strings ("1m30s") or a number of seconds.
func valueAsDuration(v any) (time.Duration, error) {
	switch val := v.(type) {
	case nil:
		return 0, nil
	case string:
		if strings.TrimSpace(val) == "" {
			return 0, nil
		}
		d, err := time.ParseDuration(strings.TrimSpace(val))
		if err != nil {
			return 0, fmt.Errorf("invalid duration %q", val)
		}
		return d, nil
	case int:
		return time.Duration(val) * time.Second, nil
	case int64:
		return time.Duration(val) * time.Second, nil
	case uint64:
		return time.Duration(val) * time.Second, nil
	case float64:
		return time.Duration(val * float64(time.Second)), nil
	default:
		return 0, fmt.Errorf("expected duration, got %T", v)
	}
}

func sanitizeTags(tags []string) []string {
	if len(tags) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(tags))
	result := make([]string, 0, len(tags))
	for _, tag := range tags {
		trimmed := strings.TrimSpace(tag)
		if trimmed == "" {
			continue
		}
		if _, exists := seen[trimmed]; exists {
			continue
		}
		seen[trimmed] = struct{}{}
		result = append(result, trimmed)
	}
	if len(result) == 0 {
		return nil
	}
	return result
}
