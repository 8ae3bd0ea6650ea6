package credential

import (
	"os"
	"testing"

	"github.com/rileyhilliard/wpd/internal/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnv(t *testing.T) {
	env := Env{Prefix: "WPD_", Getenv: func(k string) string {
		if k == "WPD_DB_ROOT_PASS" {
			return "from-env"
		}
		return ""
	}}

	assert.Equal(t, "WPD_DB_ROOT_PASS", env.EnvName("db_root_pass"))
	assert.Equal(t, "WPD_DB_ROOT_PASS", env.EnvName("db.root-pass"))

	v, err := env.Lookup("db_root_pass", "Database password: ")
	require.NoError(t, err)
	assert.Equal(t, "from-env", v)

	_, err = env.Lookup("db_wp_pass", "")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestEnv_DefaultsToProcessEnv(t *testing.T) {
	t.Setenv("WPD_TEST_SECRET", "abc")

	v, err := Env{Prefix: "WPD_"}.Lookup("test_secret", "")
	require.NoError(t, err)
	assert.Equal(t, "abc", v)
}

func TestStatic(t *testing.T) {
	s := Static{"db_root_pass": "hunter2"}

	v, err := s.Lookup("db_root_pass", "")
	require.NoError(t, err)
	assert.Equal(t, "hunter2", v)

	_, err = s.Lookup("other", "")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestTerminal_NotATTY(t *testing.T) {
	f, err := os.CreateTemp(t.TempDir(), "stdin")
	require.NoError(t, err)
	defer f.Close()

	_, err = Terminal{In: f}.Lookup("db_root_pass", "Database password: ")
	assert.ErrorIs(t, err, ErrNotFound)
}

type failingProvider struct{ err error }

func (f failingProvider) Lookup(string, string) (string, error) { return "", f.err }

func TestChain(t *testing.T) {
	chain := Chain{Static{}, Static{"db_root_pass": "second"}}

	v, err := chain.Lookup("db_root_pass", "")
	require.NoError(t, err)
	assert.Equal(t, "second", v)

	_, err = chain.Lookup("missing", "")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.True(t, errors.IsCode(err, errors.ErrConfig))
	assert.Contains(t, err.Error(), "WPD_MISSING")
}

func TestChain_StopsOnRealError(t *testing.T) {
	boom := errors.Declined("Prompt cancelled")
	chain := Chain{failingProvider{err: boom}, Static{"k": "v"}}

	_, err := chain.Lookup("k", "")
	assert.ErrorIs(t, err, boom)
}
