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

func TestClusterCommands(t *testing.T) {
	t.Run("force nfs refresh", func(t *testing.T) {
		f := newFixture(t)

		require.NoError(t, ForceNFSRefresh(context.Background(), f.run, Args{}))
		assert.Equal(t, []string{"run-for-cluster -t app 'cd /srv/news; git status;'"}, f.rec.Commands())
	})

	t.Run("sync app servers", func(t *testing.T) {
		f := newFixture(t, func(p *target.Profile) { p.SyncSource = "/mnt/apps/sites/news/" })

		require.NoError(t, SyncAppServers(context.Background(), f.run, Args{}))
		assert.Equal(t,
			[]string{"run-for-cluster -t app 'sudo rsync -a --delete /mnt/apps/sites/news/ /srv/news/'"},
			f.rec.Commands())
	})

	t.Run("sync failure aborts", func(t *testing.T) {
		f := newFixture(t)
		f.rec.On(`^run-for-cluster`, shell.Result{ExitCode: 2})

		err := SyncAppServers(context.Background(), f.run, Args{})
		assert.True(t, errors.IsCode(err, errors.ErrExec))
	})
}

func TestFixPerms(t *testing.T) {
	t.Run("disabled", func(t *testing.T) {
		f := newFixture(t)

		require.NoError(t, FixPerms(context.Background(), f.run, Args{}))
		assert.Empty(t, f.rec.Commands())
		assert.Contains(t, f.out.String(), "skipping")
	})

	t.Run("enabled", func(t *testing.T) {
		f := newFixture(t, func(p *target.Profile) { p.FixPerms = true })

		require.NoError(t, FixPerms(context.Background(), f.run, Args{}))
		assert.Equal(t, []string{
			"sudo sh -c 'chgrp -Rf www-data media'",
			"sudo sh -c 'chmod -Rf g+rw media'",
		}, f.rec.Commands())
	})
}

func TestMediaArchive(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	require.NoError(t, WrapMedia(ctx, f.run, Args{}))
	require.NoError(t, UnwrapMedia(ctx, f.run, Args{}))

	assert.Equal(t, []string{
		"tar zcf data/media.tgz wp-content/blogs.dir/* wp-content/uploads/*",
		"tar zxf data/media.tgz",
	}, f.rec.Commands())
	assert.Contains(t, f.out.String(), "Wrapped up media.")
}

func TestMediaTransfer(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	require.NoError(t, PutMedia(ctx, f.run, Args{}))
	require.NoError(t, GetMedia(ctx, f.run, Args{}))

	assert.Equal(t, []transferCall{
		{"put", "admin1", "data/media.tgz", "/srv/news/data/media.tgz"},
		{"get", "admin1", "/srv/news/data/media.tgz", "data/media.tgz"},
	}, f.xfer.calls)
}

func TestDeployedOnlyRecipes(t *testing.T) {
	recipes := map[string]func(context.Context, *Run, Args) error{
		"put_media":         PutMedia,
		"get_media":         GetMedia,
		"clear_cache":       ClearCache,
		"clear_asset_cache": ClearAssetCache,
		"clear_admin_cache": ClearAdminCache,
		"robots_setup":      RobotsSetup,
	}

	for name, fn := range recipes {
		t.Run(name, func(t *testing.T) {
			f := newFixture(t, func(p *target.Profile) { p.Name = "dev" })

			err := fn(context.Background(), f.run, Args{})

			require.Error(t, err)
			assert.True(t, errors.IsCode(err, errors.ErrConfig))
			assert.Empty(t, f.rec.Commands())
			assert.Empty(t, f.xfer.calls)
		})
	}
}

func TestClearCache(t *testing.T) {
	tests := []struct {
		name string
		fn   func(context.Context, *Run, Args) error
		want []string
	}{
		{
			name: "front page",
			fn:   ClearCache,
			want: []string{
				"curl -X PURGE -H 'Host: news.example.com' http://lb1/",
				"curl -X PURGE -H 'Host: news.example.com' http://lb2/",
			},
		},
		{
			name: "assets",
			fn:   ClearAssetCache,
			want: []string{
				"curl -X PURGE -H 'Host: news.example.com' 'http://lb1/.*/wp-content/.*'",
				"curl -X PURGE -H 'Host: news.example.com' 'http://lb2/.*/wp-content/.*'",
			},
		},
		{
			name: "admin",
			fn:   ClearAdminCache,
			want: []string{
				"curl -X PURGE -H 'Host: news.example.com' 'http://lb1/.*/wp-admin/.*'",
				"curl -X PURGE -H 'Host: news.example.com' 'http://lb2/.*/wp-admin/.*'",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)

			require.NoError(t, tt.fn(context.Background(), f.run, Args{}))
			assert.Equal(t, tt.want, f.rec.Commands())
		})
	}
}

func TestClearCache_NoServers(t *testing.T) {
	f := newFixture(t, func(p *target.Profile) { p.CacheServers = nil })

	require.NoError(t, ClearCache(context.Background(), f.run, Args{}))
	assert.Empty(t, f.rec.Commands())
	assert.Contains(t, f.out.String(), "No cache servers")
}

func TestRunScript(t *testing.T) {
	t.Run("runs script in path", func(t *testing.T) {
		f := newFixture(t, func(p *target.Profile) { p.Prefix = "sudo -u www-data" })

		require.NoError(t, RunScript(context.Background(), f.run, Args{Positional: []string{"migrate"}}))

		reqs := f.rec.Requests()
		require.Len(t, reqs, 1)
		assert.Equal(t, "sudo -u www-data php tools/wp-scripts/migrate.php", reqs[0].Command)
		assert.Equal(t, "/srv/news", reqs[0].Dir)
	})

	t.Run("needs a name", func(t *testing.T) {
		f := newFixture(t)

		err := RunScript(context.Background(), f.run, Args{})
		assert.True(t, errors.IsCode(err, errors.ErrConfig))
	})

	t.Run("rejects paths", func(t *testing.T) {
		f := newFixture(t)

		err := RunScript(context.Background(), f.run, Args{Positional: []string{"../../bin/evil"}})
		assert.True(t, errors.IsCode(err, errors.ErrConfig))
		assert.Empty(t, f.rec.Commands())
	})
}

func TestRobotsSetup(t *testing.T) {
	f := newFixture(t, production)

	require.NoError(t, RobotsSetup(context.Background(), f.run, Args{}))
	assert.Equal(t, []string{"cp robots_production.txt robots.txt"}, f.rec.Commands())
}

func TestRunServer(t *testing.T) {
	f := newFixture(t)

	require.NoError(t, RunServer(context.Background(), f.run, Args{}))
	reqs := f.rec.Requests()
	require.Len(t, reqs, 1)
	assert.Equal(t, "sudo ./tools/bin/runserver.py ops", reqs[0].Command)
	assert.Empty(t, reqs[0].Dir)
	assert.Contains(t, f.out.String(), "[local]")
}
