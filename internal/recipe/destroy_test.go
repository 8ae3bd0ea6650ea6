package recipe

import (
	"context"
	"testing"

	"github.com/rileyhilliard/wpd/internal/errors"
	"github.com/rileyhilliard/wpd/internal/shell"
	"github.com/rileyhilliard/wpd/internal/target"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestShivaTheDestroyer(t *testing.T) {
	t.Run("declined", func(t *testing.T) {
		f := newFixture(t)
		f.confirm.Confirms = []bool{false}

		err := ShivaTheDestroyer(context.Background(), f.run, Args{})

		require.Error(t, err)
		assert.True(t, errors.IsCode(err, errors.ErrDeclined))
		assert.Empty(t, f.rec.Commands())
	})

	t.Run("deployed target removes checkout", func(t *testing.T) {
		f := newFixture(t)
		f.confirm.Confirms = []bool{true}

		require.NoError(t, ShivaTheDestroyer(context.Background(), f.run, Args{}))

		cmds := f.rec.Commands()
		require.Len(t, cmds, 3)
		assert.Equal(t, "rm -Rf /srv/news", cmds[0])
		assert.Contains(t, cmds[1], "-f drop news")
		assert.Contains(t, cmds[2], "DROP USER")
		assert.Contains(t, f.confirm.Prompts[0], "staging")
	})

	t.Run("other target removes config only", func(t *testing.T) {
		f := newFixture(t, func(p *target.Profile) { p.Name = "dev" })
		f.confirm.Confirms = []bool{true}
		f.rec.On(`^rm `, shell.Result{ExitCode: 1, Stderr: "No such file"})

		require.NoError(t, ShivaTheDestroyer(context.Background(), f.run, Args{}))

		reqs := f.rec.Requests()
		require.Len(t, reqs, 4)
		assert.Equal(t, "rm .htaccess", reqs[0].Command)
		assert.Equal(t, "rm wp-config.php", reqs[1].Command)
		assert.Equal(t, "/srv/news", reqs[0].Dir)
		assert.Contains(t, reqs[2].Command, "-f drop news")
	})

	t.Run("confirmed once per run", func(t *testing.T) {
		f := newFixture(t)
		f.confirm.Confirms = []bool{true}

		require.NoError(t, ShivaTheDestroyer(context.Background(), f.run, Args{}))
		require.NoError(t, ShivaTheDestroyer(context.Background(), f.run, Args{}))
		assert.Len(t, f.confirm.Prompts, 1)
	})
}
