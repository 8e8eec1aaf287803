// Package config loads crucible configuration from .crucible/config.yaml with
// CRUCIBLE_-prefixed environment overrides.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// Defaults applied when neither file nor environment sets a key.
const (
	DefaultDBFile              = "crucible.db"
	DefaultModel               = "claude-sonnet-4-5"
	DefaultSimilarityThreshold = 0.7
)

var v *viper.Viper

// Initialize loads configuration. The config file is optional; a missing
// .crucible/config.yaml simply leaves defaults and env overrides in force.
func Initialize() error {
	nv := viper.New()
	nv.SetConfigType("yaml")
	nv.SetEnvPrefix("CRUCIBLE")
	nv.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))
	nv.AutomaticEnv()

	nv.SetDefault("db", filepath.Join(".crucible", DefaultDBFile))
	nv.SetDefault("actor", "host")
	nv.SetDefault("model", DefaultModel)
	nv.SetDefault("similarity-threshold", DefaultSimilarityThreshold)
	nv.SetDefault("json", false)

	if dir := findProjectDir(); dir != "" {
		nv.SetConfigFile(filepath.Join(dir, "config.yaml"))
		if err := nv.ReadInConfig(); err != nil {
			if _, ok := err.(viper.ConfigFileNotFoundError); !ok && !os.IsNotExist(err) {
				return fmt.Errorf("read config: %w", err)
			}
		}
	}

	v = nv
	return nil
}

// findProjectDir walks up from the working directory looking for .crucible/.
func findProjectDir() string {
	cwd, err := os.Getwd()
	if err != nil {
		return ""
	}
	for dir := cwd; ; dir = filepath.Dir(dir) {
		candidate := filepath.Join(dir, ".crucible")
		if info, err := os.Stat(candidate); err == nil && info.IsDir() {
			return candidate
		}
		if dir == filepath.Dir(dir) {
			return ""
		}
	}
}

// GetString returns a string config value; empty when uninitialized.
func GetString(key string) string {
	if v == nil {
		return ""
	}
	return v.GetString(key)
}

// GetBool returns a bool config value; false when uninitialized.
func GetBool(key string) bool {
	if v == nil {
		return false
	}
	return v.GetBool(key)
}

// GetFloat64 returns a float config value; 0 when uninitialized.
func GetFloat64(key string) float64 {
	if v == nil {
		return 0
	}
	return v.GetFloat64(key)
}

// DBPath resolves the database path, preferring config over the default
// project-relative location.
func DBPath() string {
	if p := GetString("db"); p != "" {
		return p
	}
	return filepath.Join(".crucible", DefaultDBFile)
}
