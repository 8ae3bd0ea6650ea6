package recipe

import (
	"context"
	"fmt"
	"strings"

	"github.com/rileyhilliard/wpd/internal/shell"
	"github.com/rileyhilliard/wpd/internal/target"
	"github.com/rileyhilliard/wpd/internal/util"
)

// DomainToken stands in for the site domain inside portable dumps.
const DomainToken = "WPDEPLOYDOMAN"

// DefaultDumpSlug names the dump file when none is given.
const DefaultDumpSlug = "dump"

// NoMoreBlogs is printed by setup_blog.php once every child blog exists.
const NoMoreBlogs = "No more blogs"

const maxPacket = "--max_allowed_packet=2M"

// database holds the connection settings one recipe needs.
type database struct {
	host     string
	name     string
	rootUser string
	rootPass string
	wpUser   string
	wpPass   string
}

func (r *Run) database(withWPUser bool) (database, error) {
	g := r.Store.Reader()
	db := database{
		host:     r.Store.StringOr(target.KeyDBHost, "localhost"),
		name:     r.Store.StringOr(target.KeyDBName, r.Store.StringOr(target.KeyProject, "")),
		rootUser: r.Store.StringOr(target.KeyDBRootUser, "root"),
	}
	if db.name == "" {
		return db, r.Store.Require(target.KeyDBName)
	}
	if withWPUser {
		db.wpUser = g.String(target.KeyDBWPUser)
		db.wpPass = g.Secret(target.KeyDBWPPass, "WordPress database user password: ")
	}
	db.rootPass = g.Secret(target.KeyDBRootPass, "Database password: ")
	return db, g.Err()
}

func (db database) local() bool {
	return db.host == "" || db.host == "localhost"
}

// grantHost is the host part of the WordPress user account.
func (db database) grantHost() string {
	if db.local() {
		return "localhost"
	}
	return "%"
}

// client builds a mysql client command authenticating as root. The password
// is set through MYSQL_PWD and masked in displayed and echoed commands.
func (db database) client(name string, args ...string) shell.Command {
	c := shell.Cmd(name)
	if !db.local() {
		c = c.Arg("--host=" + db.host)
	}
	return c.Arg("--user=" + db.rootUser).Arg(args...).Env("MYSQL_PWD", db.rootPass)
}

func (db database) account() string {
	return util.SQLString(db.wpUser) + "@" + util.SQLString(db.grantHost())
}

// CreateDB creates the database and grants the WordPress user access to it
// and nothing else.
func CreateDB(ctx context.Context, r *Run, _ Args) error {
	db, err := r.database(true)
	if err != nil {
		return err
	}
	if _, err := r.Shell.Run(ctx, db.client("mysqladmin", "create", db.name)); err != nil {
		return err
	}
	grant := fmt.Sprintf("GRANT ALL ON %s.* TO %s IDENTIFIED BY %s;",
		util.SQLIdent(db.name), db.account(), util.SQLString(db.wpPass))
	_, err = r.Shell.Run(ctx, db.client("mysql", db.name).Input(grant).Redact(db.wpPass))
	return err
}

// DestroyDB drops the database and the WordPress user. Either may already be
// gone, so failures are tolerated.
func DestroyDB(ctx context.Context, r *Run, _ Args) error {
	db, err := r.database(false)
	if err != nil {
		return err
	}
	db.wpUser = r.Store.StringOr(target.KeyDBWPUser, "")

	if _, err := r.Shell.Run(ctx, db.client("mysqladmin", "-f", "drop", db.name), shell.TolerateFailure()); err != nil {
		return err
	}
	if db.wpUser == "" {
		return nil
	}
	drop := fmt.Sprintf("DROP USER %s;", db.account())
	_, err = r.Shell.Run(ctx, db.client("mysql").Input(drop), shell.TolerateFailure())
	return err
}

func dumpFile(recipe string, args Args) (string, error) {
	slug := args.Get(0, "slug", DefaultDumpSlug)
	if err := checkName(recipe, "dump name", slug); err != nil {
		return "", err
	}
	return "data/" + slug + ".sql.bz2", nil
}

// LoadDB loads data/<slug>.sql.bz2, swapping the domain token for the
// target's domain.
func LoadDB(ctx context.Context, r *Run, args Args) error {
	file, err := dumpFile("load_db", args)
	if err != nil {
		return err
	}
	domain, err := r.Store.String(target.KeyDomain)
	if err != nil {
		return err
	}
	db, err := r.database(false)
	if err != nil {
		return err
	}

	return r.inPath(func(string) error {
		p := shell.Pipe(
			shell.Cmd("bzcat").Path(file),
			shell.Cmd("sed", util.SedSubstitute(DomainToken, domain)),
			db.client("mysql", maxPacket, db.name),
		)
		_, err := r.Shell.Run(ctx, p)
		return err
	})
}

// DumpDB writes the database to data/<slug>.sql.bz2 with the target's domain
// replaced by the domain token.
func DumpDB(ctx context.Context, r *Run, args Args) error {
	file, err := dumpFile("dump_db", args)
	if err != nil {
		return err
	}
	domain, err := r.Store.String(target.KeyDomain)
	if err != nil {
		return err
	}
	db, err := r.database(false)
	if err != nil {
		return err
	}

	return r.inPath(func(string) error {
		p := shell.Pipe(
			db.client("mysqldump", maxPacket, "--extended-insert=FALSE", "--lock-all-tables", db.name),
			shell.Cmd("sed", util.SedSubstitute(domain, DomainToken)),
			shell.Cmd("bzip2"),
		).To(file)
		_, err := r.Shell.Run(ctx, p)
		return err
	})
}

// ReloadDB recreates the database from a dump.
func ReloadDB(ctx context.Context, r *Run, args Args) error {
	if _, err := dumpFile("reload_db", args); err != nil {
		return err
	}
	if err := DestroyDB(ctx, r, args); err != nil {
		return err
	}
	if err := CreateDB(ctx, r, args); err != nil {
		return err
	}
	err := r.inPath(func(string) error {
		_, err := r.Shell.Run(ctx, r.php("setup_wp-config.php", "--finish"))
		return err
	})
	if err != nil {
		return err
	}
	return LoadDB(ctx, r, args)
}

// DestroyAttachments removes uploaded blog attachments.
func DestroyAttachments(ctx context.Context, r *Run, _ Args) error {
	return r.inPath(func(string) error {
		_, err := r.Shell.Run(ctx, shell.Cmd("rm", "-rf", "wp-content/blogs.dir"))
		return err
	})
}

// CreateBlogs runs setup_blog.php for index 0, 1, 2... until it reports
// there are no more blogs to create.
func CreateBlogs(ctx context.Context, r *Run, _ Args) error {
	return r.inPath(func(string) error {
		for i := 0; ; i++ {
			if err := ctx.Err(); err != nil {
				return err
			}
			res, err := r.Shell.Run(ctx, r.php("setup_blog.php", "-n", fmt.Sprint(i)))
			if err != nil {
				return err
			}
			if r.Shell.DryRun() || strings.Contains(res.Stdout, NoMoreBlogs) {
				r.log().Debug("blog loop finished after %d calls", i+1)
				return nil
			}
		}
	})
}

// Bootstrap installs requirements and provisions WordPress in four steps.
func Bootstrap(ctx context.Context, r *Run, args Args) error {
	return r.inPath(func(string) error {
		r.note("Step 1: Install required PHP extensions/apps")
		ok, err := r.Confirm.Confirm("Continue installing requirements? Can skip if already installed.")
		if err != nil {
			return err
		}
		if ok {
			if _, err := r.Shell.Run(ctx, shell.Cmd("sudo", "./requirements.sh")); err != nil {
				return err
			}
		}

		r.note("Step 2: Set up WordPress")
		if _, err := r.Shell.Run(ctx, r.php("setup_wp-config.php")); err != nil {
			return err
		}
		if err := CreateDB(ctx, r, args); err != nil {
			return err
		}
		for _, c := range []shell.Command{r.php("setup.php"), r.php("setup_wp-config.php", "--finish")} {
			if _, err := r.Shell.Run(ctx, c); err != nil {
				return err
			}
		}

		r.note("Step 3: Set up plugins")
		if _, err := r.Shell.Run(ctx, r.php("setup_plugins.php")); err != nil {
			return err
		}

		r.note("Step 4: Set up root blog")
		if _, err := r.Shell.Run(ctx, r.php("setup_root.php")); err != nil {
			return err
		}
		ok, err = r.Confirm.Confirm("Create child blogs?")
		if err != nil || !ok {
			return err
		}
		return CreateBlogs(ctx, r, args)
	})
}
