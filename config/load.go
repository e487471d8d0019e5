package config

import "fmt"

// Load parses raw configuration data (typically unmarshaled YAML) into an
// engine Config.
func Load(configData any) (*Config, error) {
	return getConfigSchema().UnserializeType(configData)
}

// Default returns the engine configuration with every field at its default.
func Default() *Config {
	cfg, err := getConfigSchema().UnserializeType(map[string]any{})
	if err != nil {
		panic(fmt.Errorf("failed to obtain default configuration (%w)", err))
	}
	return cfg
}
