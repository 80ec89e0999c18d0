package config

import (
	"fmt"
	"strings"

	"medkit/internal/deviceconfig"
)

// Validate checks if the configuration is valid
func (c *Config) Validate() []ValidationError {
	var errors []ValidationError

	errors = append(errors, c.validateLogging()...)
	errors = append(errors, c.validateDependencies()...)
	errors = append(errors, c.validateDevices()...)
	errors = append(errors, c.validateDiag()...)

	return errors
}

func (c *Config) validateLogging() []ValidationError {
	var errors []ValidationError
	validLevels := []string{"debug", "info", "warn", "error"}
	if !contains(validLevels, c.Logging.Level) {
		errors = append(errors, ValidationError{
			Path:    "logging.level",
			Message: fmt.Sprintf("must be one of %v, got '%s'", validLevels, c.Logging.Level),
		})
	}

	validFormats := []string{"json", "text"}
	if !contains(validFormats, c.Logging.Format) {
		errors = append(errors, ValidationError{
			Path:    "logging.format",
			Message: fmt.Sprintf("must be one of %v, got '%s'", validFormats, c.Logging.Format),
		})
	}

	return errors
}

func (c *Config) validateDependencies() []ValidationError {
	var errors []ValidationError

	roles := []struct {
		name string
		dep  DependencyConfig
	}{
		{"numeric", c.Dependencies.Numeric},
		{"tensor", c.Dependencies.Tensor},
		{"training", c.Dependencies.Training},
	}

	// The toolkit and runtime rows share the report with the libraries
	seen := map[string]string{
		deviceconfig.ToolkitLabel: "the toolkit row",
		deviceconfig.RuntimeLabel: "the runtime row",
	}
	for _, role := range roles {
		path := "dependencies." + role.name

		label := strings.TrimSpace(role.dep.Label)
		if label == "" {
			errors = append(errors, ValidationError{Path: path + ".label", Message: "must not be empty"})
		} else if prev, dup := seen[label]; dup {
			errors = append(errors, ValidationError{
				Path:    path + ".label",
				Message: fmt.Sprintf("label '%s' is already used by %s", label, prev),
			})
		} else {
			seen[label] = "dependencies." + role.name + ".label"
		}

		module := strings.TrimSpace(role.dep.Module)
		switch {
		case module == "":
			errors = append(errors, ValidationError{Path: path + ".module", Message: "must not be empty"})
		case strings.ContainsAny(module, " \t\n") || strings.HasPrefix(module, "/") || strings.HasSuffix(module, "/"):
			errors = append(errors, ValidationError{
				Path:    path + ".module",
				Message: fmt.Sprintf("invalid module path '%s'", role.dep.Module),
			})
		}
	}

	return errors
}

func (c *Config) validateDevices() []ValidationError {
	var errors []ValidationError
	for i, idx := range c.Devices.Visible {
		if idx < 0 {
			errors = append(errors, ValidationError{
				Path:    fmt.Sprintf("devices.visible[%d]", i),
				Message: fmt.Sprintf("must be non-negative, got %d", idx),
			})
		}
	}
	return errors
}

func (c *Config) validateDiag() []ValidationError {
	if strings.TrimSpace(c.Diag.OutputDir) != "" {
		return nil
	}

	return []ValidationError{{
		Path:    "diag.output_dir",
		Message: "must not be empty",
	}}
}

// contains checks if a string is in a slice
func contains(slice []string, item string) bool {
	for _, s := range slice {
		if s == item {
			return true
		}
	}
	return false
}
