package config

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/rileyhilliard/wpd/internal/errors"
	"github.com/spf13/viper"
)

const (
	// ConfigFileName is the default config file name.
	ConfigFileName = ".wpd.yaml"
	// EnvPrefix is the prefix for environment overrides (e.g. WPD_PROJECT_NAME).
	EnvPrefix = "WPD"
)

// Load reads config from the specified path.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if os.IsNotExist(err) {
			return nil, errors.WrapWithCode(err, errors.ErrConfig,
				"Config file not found",
				"Create a .wpd.yaml in the site checkout, or point at one with --config")
		}
		return nil, errors.WrapWithCode(err, errors.ErrConfig,
			"Failed to read config file",
			"Check the file exists and is valid YAML")
	}

	return parseConfig(v, path)
}

// Find locates the config file using the search order:
// 1. Explicit path (from --config flag)
// 2. .wpd.yaml in current directory
// 3. .wpd.yaml in parent directories (stops at git root or home)
//
// Returns the path to the config file, or empty string if not found.
func Find(explicit string) (string, error) {
	if explicit != "" {
		if _, err := os.Stat(explicit); err != nil {
			if os.IsNotExist(err) {
				return "", errors.WrapWithCode(err, errors.ErrConfig,
					"Specified config file not found: "+explicit,
					"Check the path is correct")
			}
			return "", errors.WrapWithCode(err, errors.ErrConfig,
				"Cannot access config file: "+explicit,
				"Check file permissions")
		}
		return explicit, nil
	}

	cwd, err := os.Getwd()
	if err != nil {
		return "", errors.WrapWithCode(err, errors.ErrConfig,
			"Cannot determine current directory",
			"Check directory permissions")
	}

	return findFrom(cwd), nil
}

// findFrom walks up from dir looking for ConfigFileName.
func findFrom(dir string) string {
	home, _ := os.UserHomeDir()
	for {
		candidate := filepath.Join(dir, ConfigFileName)
		if _, err := os.Stat(candidate); err == nil {
			return candidate
		}

		// Stop at git root or home
		if isGitRoot(dir) || (home != "" && dir == home) {
			return ""
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return ""
		}
		dir = parent
	}
}

// parseConfig converts viper config to our Config struct with defaults merged in.
func parseConfig(v *viper.Viper, path string) (*Config, error) {
	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, errors.WrapWithCode(err, errors.ErrConfig,
			"Invalid config format",
			"Check the YAML syntax in "+path)
	}

	applyDefaults(cfg)
	return cfg, nil
}

// applyDefaults fills every unset field from DefaultConfig.
func applyDefaults(cfg *Config) {
	def := DefaultConfig()

	if cfg.Version == 0 {
		cfg.Version = def.Version
	}
	if cfg.Strategy == "" {
		cfg.Strategy = def.Strategy
	}
	if cfg.StableBranch == "" {
		cfg.StableBranch = def.StableBranch
	}
	if cfg.Targets == nil {
		cfg.Targets = make(map[string]Settings)
	}
	cfg.Defaults = Merge(def.Defaults, cfg.Defaults)
	if cfg.Defaults.DB.Name == "" {
		cfg.Defaults.DB.Name = cfg.Project
	}
}

// isGitRoot checks if a directory is a git repository root.
func isGitRoot(dir string) bool {
	info, err := os.Stat(filepath.Join(dir, ".git"))
	if err != nil {
		return false
	}
	return info.IsDir()
}
