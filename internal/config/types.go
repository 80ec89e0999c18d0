package config

// Config represents the complete medkit configuration
type Config struct {
	Logging      LoggingConfig      `yaml:"logging"`
	Dependencies DependenciesConfig `yaml:"dependencies"`
	Devices      DevicesConfig      `yaml:"devices"`
	Diag         DiagConfig         `yaml:"diag"`
}

// LoggingConfig represents logging configuration
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// DependencyConfig names a reported library and the Go module it is resolved from
type DependencyConfig struct {
	Label  string `yaml:"label"`
	Module string `yaml:"module"`
}

// DependenciesConfig holds the three library roles of the version report.
// Report order is fixed by role, not by YAML order.
type DependenciesConfig struct {
	Numeric  DependencyConfig `yaml:"numeric"`
	Tensor   DependencyConfig `yaml:"tensor"`
	Training DependencyConfig `yaml:"training"`
}

// DevicesConfig represents accelerator visibility defaults
type DevicesConfig struct {
	// Visible is used by `medkit exec` when --devices is not given.
	// nil means "leave CUDA_VISIBLE_DEVICES untouched".
	Visible []int `yaml:"visible"`
}

// DiagConfig represents diagnostic bundle settings
type DiagConfig struct {
	OutputDir string `yaml:"output_dir"`
}

// ValidationError represents a configuration validation error
type ValidationError struct {
	Path    string
	Message string
}

func (e ValidationError) Error() string {
	return e.Path + ": " + e.Message
}
