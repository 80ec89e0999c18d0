package commands

import (
	"medkit/internal/config"
	"medkit/internal/logging"
)

// RootArgs holds the persistent flags and the state they produce.
type RootArgs struct {
	logLevel   *string
	logFormat  *string
	configPath *string

	cfg    config.Config
	logger *logging.Logger
}

func NewRootArgs() *RootArgs {
	return &RootArgs{
		logLevel:   new(string),
		logFormat:  new(string),
		configPath: new(string),
		cfg:        config.DefaultConfig(),
	}
}

func (a *RootArgs) GetLogLevel() string {
	return *a.logLevel
}

func (a *RootArgs) GetLogFormat() string {
	return *a.logFormat
}

func (a *RootArgs) GetConfigPath() string {
	return *a.configPath
}

// Config returns the configuration loaded before the command ran.
func (a *RootArgs) Config() config.Config {
	return a.cfg
}

// Logger returns the logger configured before the command ran.
func (a *RootArgs) Logger() *logging.Logger {
	return a.logger
}
