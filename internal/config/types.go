package config

import "time"

// DefaultFile is the configuration file read when --config is not given.
// It is optional: a missing default file yields Default().
const DefaultFile = "install-tool.yaml"

// Config is the top-level structure of the YAML configuration file.
//   - Overrides: property values keyed "<program>.<key>", consulted before any resource.
//   - ResourceDirs: directories searched for "<program>.dependency.<os>.properties" before the bundled set.
//   - OS: forces the OS identifier instead of detecting it.
//   - Shell: interpreter for install scripts (bash, sh or zsh).
//   - ScriptDir: where temporary install scripts are written.
//   - Timeout: per-command limit, zero for none.
//   - FailFast: stop at the first install command that exits non-zero.
//   - Report: path of a JSON run report, empty for none.
//   - MaxDepth: bound on dependency chain length, zero for the default.
type Config struct {
	Overrides    map[string]string `yaml:"overrides" validate:"dive,keys,required,contains=.,endkeys"`
	ResourceDirs []string          `yaml:"resource_dirs" validate:"dive,required"`
	OS           string            `yaml:"os" validate:"omitempty,excludesall=/\\"`
	Shell        string            `yaml:"shell" validate:"omitempty,oneof=bash sh zsh"`
	ScriptDir    string            `yaml:"script_dir"`
	Timeout      time.Duration     `yaml:"timeout" validate:"gte=0"`
	FailFast     bool              `yaml:"fail_fast"`
	Report       string            `yaml:"report"`
	MaxDepth     int               `yaml:"max_depth" validate:"gte=0,lte=1024"`
}

// Default returns the configuration used when no file is present.
func Default() *Config {
	return &Config{
		Overrides: make(map[string]string),
		Shell:     "bash",
	}
}
