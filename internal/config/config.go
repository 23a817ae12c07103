// Package config loads the CLI's `-c config.json` file and provides the
// JSON dump/query helpers the `-o` output modes build on.
package config

import (
	"fmt"
	"os"

	"github.com/goccy/go-yaml"
)

// Config is the `-c` file's schema. It is read with goccy/go-yaml, which
// accepts JSON as a strict subset of YAML, so the same loader serves both
// the documented `.json` config files and a YAML-authored equivalent.
type Config struct {
	ModuleRoot        string `yaml:"moduleRoot"`
	Optimize          bool   `yaml:"optimize"`
	MaxPassIterations int    `yaml:"maxPassIterations"`
	StackSize         int    `yaml:"stackSize"`
	StackPadding      int    `yaml:"stackPadding"`
}

// Default returns the configuration the CLI falls back to when `-c` is
// omitted: optimization on, the optimizer's and VM's own package defaults
// for iteration cap and stack sizing.
func Default() Config {
	return Config{
		ModuleRoot:        ".",
		Optimize:          true,
		MaxPassIterations: 32,
		StackSize:         64 * 1024,
		StackPadding:      8,
	}
}

// Load reads and parses the config file at path, filling in Default()'s
// values for any field the file omits.
func Load(path string) (Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("config: reading %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("config: parsing %s: %w", path, err)
	}
	return cfg, nil
}
