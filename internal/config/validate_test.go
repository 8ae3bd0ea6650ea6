package config

import (
	"testing"

	"github.com/rileyhilliard/wpd/internal/errors"
	"github.com/stretchr/testify/assert"
)

func validConfig() *Config {
	cfg := DefaultConfig()
	cfg.Project = "news"
	cfg.Targets["production"] = Settings{Hosts: []string{"admin1"}}
	return cfg
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{name: "valid", mutate: func(*Config) {}},
		{name: "future version", mutate: func(c *Config) { c.Version = 99 }, wantErr: "from the future"},
		{name: "missing project", mutate: func(c *Config) { c.Project = " " }, wantErr: "project_name"},
		{name: "bad strategy", mutate: func(c *Config) { c.Strategy = "hg" }, wantErr: "strategy 'hg'"},
		{name: "svn ok", mutate: func(c *Config) { c.Strategy = StrategySVN }},
		{
			name:    "reserved target",
			mutate:  func(c *Config) { c.Targets["list"] = Settings{} },
			wantErr: "built-in command",
		},
		{
			name:    "colon in target",
			mutate:  func(c *Config) { c.Targets["a:b"] = Settings{} },
			wantErr: "contains ':'",
		},
		{
			name:    "duplicate host",
			mutate:  func(c *Config) { c.Targets["staging"] = Settings{Hosts: []string{"s1", "s1"}} },
			wantErr: "twice",
		},
		{
			name:    "blank host",
			mutate:  func(c *Config) { c.Targets["staging"] = Settings{Hosts: []string{""}} },
			wantErr: "empty host",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)

			err := Validate(cfg)
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			assert.Error(t, err)
			assert.True(t, errors.IsCode(err, errors.ErrConfig))
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
