package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/sitesentry/sitesentry/internal/common"
)

// GetConfigPath determines the configuration file path.
// Priority:
// 1. the path provided explicitly (e.g. from a -config flag)
// 2. SITESENTRY_CONFIG_PATH environment variable
// 3. config.yaml / config.json in the current working directory
func GetConfigPath(providedPath string) string {
	if providedPath != "" {
		if _, err := os.Stat(providedPath); err == nil {
			return providedPath
		}
	}

	if envPath := os.Getenv("SITESENTRY_CONFIG_PATH"); envPath != "" {
		if _, err := os.Stat(envPath); err == nil {
			return envPath
		}
	}

	cwd, err := os.Getwd()
	if err != nil {
		return ""
	}

	for _, file := range []string{"config.yaml", "config.yml", "config.json"} {
		path := filepath.Join(cwd, file)
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

// LoadGlobalConfig loads configuration from the given path, falling back to
// default locations and finally to built-in defaults when no file exists.
// Both YAML and JSON formats are supported.
func LoadGlobalConfig(providedPath string) (*GlobalConfig, error) {
	cfg := NewDefaultGlobalConfig()

	filePath := GetConfigPath(providedPath)
	if filePath == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, common.WrapErrorf(err, "failed to read config file %s", filePath)
	}

	if err := parseConfigContent(data, filePath, cfg); err != nil {
		return nil, common.WrapError(err, "failed to parse config content")
	}

	if err := ValidateConfig(cfg); err != nil {
		return nil, common.WrapError(err, "config validation failed")
	}

	return cfg, nil
}

func parseConfigContent(data []byte, filePath string, cfg *GlobalConfig) error {
	ext := strings.ToLower(filepath.Ext(filePath))
	switch ext {
	case ".yaml", ".yml":
		return yaml.Unmarshal(data, cfg)
	case ".json":
		return json.Unmarshal(data, cfg)
	default:
		// Try YAML first; it is a superset of what we emit in examples.
		if err := yaml.Unmarshal(data, cfg); err == nil {
			return nil
		}
		return json.Unmarshal(data, cfg)
	}
}
