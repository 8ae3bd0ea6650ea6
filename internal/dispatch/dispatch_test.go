package dispatch

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/rileyhilliard/wpd/internal/config"
	"github.com/rileyhilliard/wpd/internal/credential"
	"github.com/rileyhilliard/wpd/internal/errors"
	guardtesting "github.com/rileyhilliard/wpd/internal/guard/testing"
	"github.com/rileyhilliard/wpd/internal/recipe"
	"github.com/rileyhilliard/wpd/pkg/sshutil"
	sshtesting "github.com/rileyhilliard/wpd/pkg/sshutil/testing"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig() *config.Config {
	cfg := config.DefaultConfig()
	cfg.Project = "news"
	cfg.Repo = "git@github.com:acme/news.git"
	local := true
	cfg.Targets = map[string]config.Settings{
		"production": {
			Hosts:  []string{"admin1", "admin2"},
			Path:   "/srv/news",
			Domain: "news.example.com",
		},
		"staging": {
			Hosts:  []string{"staging1"},
			Path:   "/srv/news",
			Domain: "staging.news.example.com",
		},
		"dev": {
			Local:  &local,
			Path:   "/tmp/news",
			Domain: "news.local",
		},
	}
	return cfg
}

type dialer struct {
	clients map[string]*sshtesting.MockClient
	dialed  []string
}

func newDialer(hosts ...string) *dialer {
	d := &dialer{clients: map[string]*sshtesting.MockClient{}}
	for _, h := range hosts {
		d.clients[h] = sshtesting.NewMockClient(h)
	}
	return d
}

func (d *dialer) Dial(host string) (sshutil.SSHClient, error) {
	d.dialed = append(d.dialed, host)
	c, ok := d.clients[host]
	if !ok {
		return nil, errors.New(errors.ErrSSH, "Can't reach '"+host+"'", "")
	}
	return c, nil
}

func newRunner(d *dialer, out *bytes.Buffer) *Runner {
	return &Runner{
		Confirm:     &guardtesting.Scripted{},
		Credentials: credential.Static{"db_root_pass": "rootpw"},
		Dial:        d.Dial,
		Out:         out,
	}
}

func TestBuild(t *testing.T) {
	cfg := testConfig()
	reg := recipe.Default()

	tests := []struct {
		name       string
		words      []string
		wantTarget string
		wantSteps  []string
		wantCode   string
	}{
		{name: "target and commands", words: []string{"production", "stable", "deploy"}, wantTarget: "production", wantSteps: []string{"stable", "deploy"}},
		{name: "untargeted", words: []string{"git_tag_stable"}, wantSteps: []string{"git_tag_stable"}},
		{name: "args", words: []string{"staging", "load_db:prod"}, wantTarget: "staging", wantSteps: []string{"load_db"}},
		{name: "nothing", words: nil, wantCode: errors.ErrConfig},
		{name: "target only", words: []string{"production"}, wantCode: errors.ErrConfig},
		{name: "unknown command", words: []string{"deplyo"}, wantCode: errors.ErrUnknownCommand},
		{name: "unknown command after target", words: []string{"staging", "Deploy"}, wantCode: errors.ErrUnknownCommand},
		{name: "unknown target", words: []string{"prod", "deploy"}, wantCode: errors.ErrUnknownTarget},
		{name: "disallowed target", words: []string{"dev", "stable", "put_media"}, wantCode: errors.ErrConfig},
		{name: "untargeted restricted command", words: []string{"clear_cache"}, wantCode: errors.ErrConfig},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			plan, err := Build(cfg, reg, tt.words)

			if tt.wantCode != "" {
				require.Error(t, err)
				assert.Equal(t, tt.wantCode, errors.Code(err), err.Error())
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantTarget, plan.Target)
			var names []string
			for _, s := range plan.Steps {
				names = append(names, s.Recipe.Name)
			}
			assert.Equal(t, tt.wantSteps, names)
		})
	}
}

func TestBuild_Suggestions(t *testing.T) {
	cfg := testConfig()

	_, err := Build(cfg, recipe.Default(), []string{"deplyo"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Did you mean 'deploy'?")

	_, err = Build(cfg, recipe.Default(), []string{"stagin", "deploy"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "staging")
}

func TestBuild_UntargetedIsLocal(t *testing.T) {
	plan, err := Build(testConfig(), recipe.Default(), []string{"wrap_media"})

	require.NoError(t, err)
	assert.True(t, plan.Profile.Local)
	assert.Equal(t, []string{"local"}, plan.Profile.ExecHosts())
}

func TestRun_EachHostInOrder(t *testing.T) {
	d := newDialer("admin1", "admin2")
	var out bytes.Buffer
	plan, err := Build(testConfig(), recipe.Default(), []string{"production", "stable", "deploy"})
	require.NoError(t, err)

	require.NoError(t, newRunner(d, &out).Run(context.Background(), plan))

	assert.Equal(t, []string{"admin1", "admin2"}, d.dialed)
	for _, host := range []string{"admin1", "admin2"} {
		c := d.clients[host]
		cmds := c.Commands()
		require.Len(t, cmds, 4, host)
		assert.Equal(t, "cd /srv/news && git checkout -b stable origin/stable", cmds[0])
		assert.Equal(t, "cd /srv/news && git pull origin stable", cmds[2])
		assert.True(t, strings.HasPrefix(cmds[3], "run-for-cluster -t app"))
		assert.True(t, c.Closed(), host)
	}
	assert.Contains(t, out.String(), "deploy on admin1")
	assert.Contains(t, out.String(), "deploy on admin2")
}

func TestRun_FailFastAcrossHosts(t *testing.T) {
	d := newDialer("admin1", "admin2")
	d.clients["admin1"].SetCommandResponse(`git pull`, sshtesting.CommandResponse{ExitCode: 1, Stderr: []byte("conflict\n")})
	plan, err := Build(testConfig(), recipe.Default(), []string{"production", "master", "deploy"})
	require.NoError(t, err)

	r := newRunner(d, &bytes.Buffer{})
	r.Confirm = &guardtesting.Scripted{Answers: []string{"yes"}}

	err = r.Run(context.Background(), plan)

	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrExec))
	assert.Equal(t, []string{"admin1"}, d.dialed)
	assert.True(t, d.clients["admin1"].Closed())
	assert.Empty(t, d.clients["admin2"].Commands())
}

func TestRun_BranchGateDeclinedRunsNothing(t *testing.T) {
	d := newDialer("admin1", "admin2")
	plan, err := Build(testConfig(), recipe.Default(), []string{"production", "branch:feature", "deploy"})
	require.NoError(t, err)
	r := newRunner(d, &bytes.Buffer{})
	r.Confirm = &guardtesting.Scripted{Answers: []string{"nope"}}

	err = r.Run(context.Background(), plan)

	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrDeclined))
	for _, c := range d.clients {
		assert.Empty(t, c.Commands())
	}
}

func TestRun_DialFailure(t *testing.T) {
	d := newDialer()
	plan, err := Build(testConfig(), recipe.Default(), []string{"staging", "wrap_media"})
	require.NoError(t, err)

	err = newRunner(d, &bytes.Buffer{}).Run(context.Background(), plan)

	assert.True(t, errors.IsCode(err, errors.ErrSSH))
}

func TestRun_DryRunNeverDials(t *testing.T) {
	d := newDialer("admin1", "admin2")
	var out bytes.Buffer
	plan, err := Build(testConfig(), recipe.Default(), []string{"production", "git_tag_stable", "force_nfs_refresh"})
	require.NoError(t, err)
	r := newRunner(d, &out)
	r.DryRun = true

	require.NoError(t, r.Run(context.Background(), plan))

	assert.Empty(t, d.dialed)
	assert.Equal(t, 1, strings.Count(out.String(), "git tag -l"), "local commands run once")
	assert.Contains(t, out.String(), "[admin1] run: run-for-cluster")
	assert.Contains(t, out.String(), "[admin2] run: run-for-cluster")
}

func TestRun_LocalTarget(t *testing.T) {
	d := newDialer()
	var out bytes.Buffer
	plan, err := Build(testConfig(), recipe.Default(), []string{"dev", "wrap_media"})
	require.NoError(t, err)
	r := newRunner(d, &out)
	r.DryRun = true

	require.NoError(t, r.Run(context.Background(), plan))

	assert.Empty(t, d.dialed)
	assert.Contains(t, out.String(), "[local] run: (in /tmp/news) tar zcf data/media.tgz")
}

func TestRun_Cancelled(t *testing.T) {
	d := newDialer("admin1", "admin2")
	plan, err := Build(testConfig(), recipe.Default(), []string{"production", "force_nfs_refresh"})
	require.NoError(t, err)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err = newRunner(d, &bytes.Buffer{}).Run(ctx, plan)

	require.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, d.dialed)
}
