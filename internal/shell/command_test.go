package shell

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCommandRender(t *testing.T) {
	tests := []struct {
		name string
		cmd  Command
		want string
	}{
		{
			name: "plain words stay unquoted",
			cmd:  Cmd("git", "pull", "origin", "stable"),
			want: "git pull origin stable",
		},
		{
			name: "metacharacters are quoted",
			cmd:  Cmd("git", "checkout", "feature; rm -rf /"),
			want: "git checkout 'feature; rm -rf /'",
		},
		{
			name: "single quote escaped",
			cmd:  Cmd("echo", "it's"),
			want: `echo 'it'\''s'`,
		},
		{
			name: "path keeps tilde",
			cmd:  Cmd("cp", "apache/production-apache.conf").Path("~/apache/news site"),
			want: "cp apache/production-apache.conf ~/'apache/news site'",
		},
		{
			name: "glob passes through",
			cmd:  Cmd("tar", "zcf", "data/media.tgz").Glob("wp-content/uploads/*"),
			want: "tar zcf data/media.tgz wp-content/uploads/*",
		},
		{
			name: "env prefix sorted",
			cmd:  Cmd("mysql").Env("MYSQL_PWD", "p w").Env("LANG", "C"),
			want: "LANG=C MYSQL_PWD='p w' mysql",
		},
		{
			name: "stdin is piped from printf",
			cmd:  Cmd("mysql", "news").Input("DROP USER 'wp'@'%';"),
			want: `printf '%s\n' 'DROP USER '\''wp'\''@'\''%'\'';' | mysql news`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.cmd.Render())
		})
	}
}

func TestCommandPathKeepsTildeWithSpaces(t *testing.T) {
	got := Cmd("ls").Path("~/apache dir").Render()
	assert.Equal(t, "ls ~/'apache dir'", got)
}

func TestCommandDisplayMasksSecrets(t *testing.T) {
	cmd := Cmd("mysql", "--user=root", "news").
		Env("MYSQL_PWD", "hunter2").
		Input("GRANT ALL ON * TO 'wp'@'localhost' IDENTIFIED BY 'wp-secret';").
		Redact("wp-secret")

	display := cmd.Display()
	assert.NotContains(t, display, "hunter2")
	assert.NotContains(t, display, "wp-secret")
	assert.Contains(t, display, "MYSQL_PWD="+Mask)
	assert.Contains(t, display, "IDENTIFIED BY")

	assert.Contains(t, cmd.Render(), "hunter2")
	assert.Contains(t, cmd.Render(), "wp-secret")
}

func TestCommandRedactIgnoresEmpty(t *testing.T) {
	cmd := Cmd("echo", "hello").Redact("").Env("EMPTY", "")
	assert.Equal(t, "EMPTY='' echo hello", cmd.Display())
}

func TestCommandBuildersDoNotAlias(t *testing.T) {
	base := Cmd("git")
	a := base.Arg("status")
	b := base.Arg("pull")

	assert.Equal(t, []string{"git"}, base.Args())
	assert.Equal(t, []string{"git", "status"}, a.Args())
	assert.Equal(t, []string{"git", "pull"}, b.Args())
}

func TestPipeline(t *testing.T) {
	p := Pipe(
		Cmd("mysqldump", "--host=db1", "news").Env("MYSQL_PWD", "s3cret"),
		Cmd("sed", "s/news\\.example\\.com/WPDEPLOYDOMAN/g"),
		Cmd("bzip2"),
	).To("data/dump.sql.bz2")

	assert.Equal(t,
		`bash -o pipefail -c 'MYSQL_PWD=s3cret mysqldump --host=db1 news | sed '\''s/news\.example\.com/WPDEPLOYDOMAN/g'\'' | bzip2 > data/dump.sql.bz2'`,
		p.Render())
	assert.Equal(t,
		`MYSQL_PWD=`+Mask+` mysqldump --host=db1 news | sed 's/news\.example\.com/WPDEPLOYDOMAN/g' | bzip2 > data/dump.sql.bz2`,
		p.Display())
}

func TestPipelineSingleStageNotWrapped(t *testing.T) {
	p := Pipe(Cmd("mysqldump", "news")).To("data/dump.sql")

	assert.Equal(t, "mysqldump news > data/dump.sql", p.Render())
	assert.Equal(t, p.Display(), p.Render())
}

func TestPipelineDisplayMasksAcrossStages(t *testing.T) {
	p := Pipe(
		Cmd("echo", "s3cret"),
		Cmd("mysql").Env("MYSQL_PWD", "s3cret"),
	)

	assert.NotContains(t, p.Display(), "s3cret")
}
