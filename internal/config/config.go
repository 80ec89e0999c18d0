package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"medkit/internal/configdir"
)

const (
	systemConfigFile = "config.yaml"
	userConfigDir    = ".medkit"
	userConfigFile   = "config.yaml"
)

// Load loads and merges configuration from system and user files
// Priority: defaults < system config < user config
func Load() (Config, error) {
	// Start with defaults
	cfg := DefaultConfig()

	// Try to load system config
	systemPath := filepath.Join(configdir.ConfigDir(), systemConfigFile)
	if err := mergeConfigFile(&cfg, systemPath); err != nil {
		if !os.IsNotExist(err) {
			return cfg, fmt.Errorf("failed to load system config: %w", err)
		}
		// System config not existing is OK, continue with defaults
	}

	// Try to load user config
	homeDir, err := os.UserHomeDir()
	if err == nil {
		userPath := filepath.Join(homeDir, userConfigDir, userConfigFile)
		if err := mergeConfigFile(&cfg, userPath); err != nil {
			if !os.IsNotExist(err) {
				return cfg, fmt.Errorf("failed to load user config: %w", err)
			}
			// User config not existing is OK
		}
	}

	// Validate the merged configuration
	if validationErrors := cfg.Validate(); len(validationErrors) > 0 {
		return cfg, fmt.Errorf("config.validation.error: %v", formatValidationErrors(validationErrors))
	}

	return cfg, nil
}

// LoadFrom loads configuration from a specific file path
func LoadFrom(path string) (Config, error) {
	cfg := DefaultConfig()
	if err := mergeConfigFile(&cfg, path); err != nil {
		return cfg, fmt.Errorf("failed to load config from %s: %w", path, err)
	}

	// Validate
	if validationErrors := cfg.Validate(); len(validationErrors) > 0 {
		return cfg, fmt.Errorf("config.validation.error: %v", formatValidationErrors(validationErrors))
	}

	return cfg, nil
}

// mergeConfigFile reads a YAML file and merges it into the existing config
func mergeConfigFile(cfg *Config, path string) error {
	data, err := os.ReadFile(filepath.Clean(path)) // #nosec G304 -- path is constructed from trusted sources
	if err != nil {
		return err
	}

	// Parse YAML
	var overlay Config
	if err := yaml.Unmarshal(data, &overlay); err != nil {
		return fmt.Errorf("failed to parse YAML: %w", err)
	}

	// Merge non-zero values from overlay into cfg
	mergeConfig(cfg, &overlay)

	return nil
}

// mergeConfig merges non-zero values from src into dst
func mergeConfig(dst, src *Config) {
	if src.Logging.Level != "" {
		dst.Logging.Level = src.Logging.Level
	}
	if src.Logging.Format != "" {
		dst.Logging.Format = src.Logging.Format
	}

	mergeDependency(&dst.Dependencies.Numeric, src.Dependencies.Numeric)
	mergeDependency(&dst.Dependencies.Tensor, src.Dependencies.Tensor)
	mergeDependency(&dst.Dependencies.Training, src.Dependencies.Training)

	// An explicit empty list in YAML decodes to a non-nil slice and hides
	// the devices from every later process.
	if src.Devices.Visible != nil {
		dst.Devices.Visible = append([]int(nil), src.Devices.Visible...)
	}

	if src.Diag.OutputDir != "" {
		dst.Diag.OutputDir = src.Diag.OutputDir
	}
}

func mergeDependency(dst *DependencyConfig, src DependencyConfig) {
	if src.Label != "" {
		dst.Label = src.Label
	}
	if src.Module != "" {
		dst.Module = src.Module
	}
}

// formatValidationErrors formats validation errors for display
func formatValidationErrors(errors []ValidationError) string {
	if len(errors) == 0 {
		return ""
	}
	if len(errors) == 1 {
		return errors[0].Error()
	}
	result := fmt.Sprintf("%d validation errors:\n", len(errors))
	for _, err := range errors {
		result += "  - " + err.Error() + "\n"
	}
	return result
}

// SystemConfigPath returns the path to the system configuration file
func SystemConfigPath() string {
	return filepath.Join(configdir.ConfigDir(), systemConfigFile)
}

// UserConfigPath returns the path to the user configuration file
func UserConfigPath() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(homeDir, userConfigDir, userConfigFile)
}

// Source is one configuration file feeding the merged configuration
type Source struct {
	Name string
	Path string
}

// Sources lists the files that Load merges, in merge order, or the single
// file LoadFrom reads when explicit is set. Files that do not exist are
// left out.
func Sources(explicit string) []Source {
	candidates := []Source{
		{Name: "system", Path: SystemConfigPath()},
		{Name: "user", Path: UserConfigPath()},
	}
	if explicit != "" {
		candidates = []Source{{Name: "explicit", Path: explicit}}
	}

	sources := make([]Source, 0, len(candidates))
	for _, src := range candidates {
		if src.Path == "" {
			continue
		}
		if _, err := os.Stat(src.Path); err == nil {
			sources = append(sources, src)
		}
	}
	return sources
}

// YAML renders the configuration as it is in effect, after defaults and
// every source file have been merged. An unset device list is left out so
// that reading the output back does not hide every device.
func (c Config) YAML() ([]byte, error) {
	var node yaml.Node
	if err := node.Encode(c); err != nil {
		return nil, fmt.Errorf("failed to marshal config: %w", err)
	}
	if c.Devices.Visible == nil {
		for i := 0; i+1 < len(node.Content); i += 2 {
			if node.Content[i].Value == "devices" {
				node.Content = append(node.Content[:i], node.Content[i+2:]...)
				break
			}
		}
	}

	data, err := yaml.Marshal(&node)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal config: %w", err)
	}
	return data, nil
}
