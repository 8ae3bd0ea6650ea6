package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/rileyhilliard/wpd/internal/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleConfig = `
version: 1
project_name: news
repo: git@github.com:newsapps/news.git
defaults:
  path: ${HOME}/sites/${PROJECT}
  domain: news.local
  db:
    wp_user: wp
    wp_pass: wp-secret
targets:
  production:
    hosts: [admin1]
    path: /mnt/apps/sites/news
    domain: news.example.com
    fix_perms: true
    db:
      host: db1
  staging:
    hosts: [admin-staging]
    path: /mnt/apps/sites/news
    domain: news.staging.example.com
    branch: master
    cache_servers: [stage-lb1]
`

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, ConfigFileName)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, CurrentConfigVersion, cfg.Version)
	assert.Equal(t, StrategyGit, cfg.Strategy)
	assert.Equal(t, "stable", cfg.StableBranch)
	assert.Equal(t, []string{"lb1", "lb2", "lb3"}, cfg.Defaults.CacheServers)
	assert.Equal(t, "tools/wp-scripts", cfg.Defaults.ScriptsDir)
	assert.Equal(t, "localhost", cfg.Defaults.DB.Host)
	assert.Equal(t, "root", cfg.Defaults.DB.RootUser)
	assert.NotNil(t, cfg.Targets)
}

func TestLoad(t *testing.T) {
	cfg, err := Load(writeConfig(t, sampleConfig))
	require.NoError(t, err)

	assert.Equal(t, "news", cfg.Project)
	assert.Equal(t, "git@github.com:newsapps/news.git", cfg.Repo)
	assert.Equal(t, StrategyGit, cfg.Strategy)
	assert.Equal(t, "news", cfg.Defaults.DB.Name, "db name defaults to project name")
	assert.Equal(t, "wp", cfg.Defaults.DB.WPUser)
	assert.Equal(t, "root", cfg.Defaults.DB.RootUser)
	assert.Equal(t, []string{"lb1", "lb2", "lb3"}, cfg.Defaults.CacheServers)

	require.Contains(t, cfg.Targets, "production")
	prod := cfg.Targets["production"]
	assert.Equal(t, []string{"admin1"}, prod.Hosts)
	assert.True(t, Bool(prod.FixPerms))
	assert.Equal(t, "db1", prod.DB.Host)

	staging := cfg.Targets["staging"]
	assert.Equal(t, "master", staging.Branch)
	assert.Equal(t, []string{"stage-lb1"}, staging.CacheServers)
}

func TestLoad_Missing(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrConfig))
}

func TestLoad_InvalidYAML(t *testing.T) {
	_, err := Load(writeConfig(t, "targets: [unclosed"))
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrConfig))
}

func TestFind_Explicit(t *testing.T) {
	path := writeConfig(t, sampleConfig)

	found, err := Find(path)
	require.NoError(t, err)
	assert.Equal(t, path, found)

	_, err = Find(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.True(t, errors.IsCode(err, errors.ErrConfig))
}

func TestFindFrom_WalksUpToGitRoot(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.Mkdir(filepath.Join(root, ".git"), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(root, ConfigFileName), []byte(sampleConfig), 0644))
	nested := filepath.Join(root, "wp-content", "themes")
	require.NoError(t, os.MkdirAll(nested, 0755))

	assert.Equal(t, filepath.Join(root, ConfigFileName), findFrom(nested))
}

func TestFindFrom_StopsAtGitRoot(t *testing.T) {
	outer := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(outer, ConfigFileName), []byte(sampleConfig), 0644))
	repo := filepath.Join(outer, "repo")
	require.NoError(t, os.MkdirAll(filepath.Join(repo, ".git"), 0755))

	assert.Equal(t, "", findFrom(repo))
}

func TestMerge(t *testing.T) {
	yes, no := true, false
	base := Settings{
		Hosts:        []string{"a"},
		Path:         "/base",
		Domain:       "base.local",
		FixPerms:     &yes,
		CacheServers: []string{"lb1"},
		DB:           DBSettings{Host: "localhost", Name: "news", RootUser: "root"},
	}
	over := Settings{
		Path:     "/over",
		FixPerms: &no,
		DB:       DBSettings{Host: "db1"},
	}

	got := Merge(base, over)

	assert.Equal(t, []string{"a"}, got.Hosts)
	assert.Equal(t, "/over", got.Path)
	assert.Equal(t, "base.local", got.Domain)
	assert.False(t, Bool(got.FixPerms), "explicit false overrides an inherited true")
	assert.Equal(t, []string{"lb1"}, got.CacheServers)
	assert.Equal(t, DBSettings{Host: "db1", Name: "news", RootUser: "root"}, got.DB)
}

func TestBool(t *testing.T) {
	yes := true
	assert.True(t, Bool(&yes))
	assert.False(t, Bool(nil))
}
