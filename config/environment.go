package config

import (
	"os"
	"path/filepath"
	"strings"
)

const (
	appEnvVar              = "APP_ENV"
	environmentDevelopment = "development"
	environmentProduction  = "production"
	environmentStaging     = "staging"

	// DefaultConfigPath is used when --config is not given.
	DefaultConfigPath = "config/config.yml"
)

var environmentAliases = map[string]string{
	"dev":   environmentDevelopment,
	"prod":  environmentProduction,
	"stag":  environmentStaging,
	"stage": environmentStaging,
}

// getAppEnvironment reads the application environment from APP_ENV and
// defaults to development when no value is provided.
func getAppEnvironment() string {
	env := strings.ToLower(strings.TrimSpace(os.Getenv(appEnvVar)))
	if env == "" {
		return environmentDevelopment
	}
	if canonical, ok := environmentAliases[env]; ok {
		return canonical
	}
	return env
}

// AppEnvironment exposes the normalised APP_ENV value.
func AppEnvironment() string {
	return getAppEnvironment()
}

// ResolveConfigPath picks config/config.<env>.yml over the default path
// when it exists for the current APP_ENV. Explicit paths are returned as is.
func ResolveConfigPath(path string) string {
	if path != "" && path != DefaultConfigPath {
		return path
	}
	env := getAppEnvironment()
	ext := filepath.Ext(DefaultConfigPath)
	candidate := strings.TrimSuffix(DefaultConfigPath, ext) + "." + env + ext
	if _, err := os.Stat(candidate); err == nil {
		return candidate
	}
	return DefaultConfigPath
}
