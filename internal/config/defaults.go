package config

// Default dependency modules reported next to the toolkit and Go versions.
const (
	DefaultNumericLabel   = "Gonum version"
	DefaultNumericModule  = "gonum.org/v1/gonum"
	DefaultTensorLabel    = "Gotch version"
	DefaultTensorModule   = "github.com/sugarme/gotch"
	DefaultTrainingLabel  = "GoMLX version"
	DefaultTrainingModule = "github.com/gomlx/gomlx"
)

// DefaultConfig returns a configuration with sensible defaults
func DefaultConfig() Config {
	return Config{
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
		Dependencies: DependenciesConfig{
			Numeric:  DependencyConfig{Label: DefaultNumericLabel, Module: DefaultNumericModule},
			Tensor:   DependencyConfig{Label: DefaultTensorLabel, Module: DefaultTensorModule},
			Training: DependencyConfig{Label: DefaultTrainingLabel, Module: DefaultTrainingModule},
		},
		Diag: DiagConfig{
			OutputDir: ".",
		},
	}
}
