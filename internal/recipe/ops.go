package recipe

import (
	"context"
	"path"

	"github.com/rileyhilliard/wpd/internal/shell"
	"github.com/rileyhilliard/wpd/internal/target"
)

// MediaArchive is the media tarball, relative to the checkout.
const MediaArchive = "data/media.tgz"

// ForceNFSRefresh makes every app server stat the shared checkout.
func ForceNFSRefresh(ctx context.Context, r *Run, _ Args) error {
	p, err := r.Store.String(target.KeyPath)
	if err != nil {
		return err
	}
	snippet := shell.Cmd("cd").Path(p).Render() + "; " + shell.Cmd("git", "status").Render() + ";"
	_, err = r.Shell.Run(ctx, cluster(snippet))
	return err
}

// SyncAppServers mirrors the shared source tree into path on every app server.
func SyncAppServers(ctx context.Context, r *Run, _ Args) error {
	g := r.Store.Reader()
	src, p := g.String(target.KeySyncSource), g.String(target.KeyPath)
	if err := g.Err(); err != nil {
		return err
	}
	rsync := shell.Cmd("sudo", "rsync", "-a", "--delete").Path(withSlash(src)).Path(withSlash(p))
	_, err := r.Shell.Run(ctx, cluster(rsync.Render()))
	return err
}

func withSlash(p string) string {
	if p == "" || p[len(p)-1] == '/' {
		return p
	}
	return p + "/"
}

// FixPerms makes the media directory group-writable by the web server.
func FixPerms(ctx context.Context, r *Run, _ Args) error {
	if !r.Store.Bool(target.KeyFixPerms) {
		r.note("fix_perms is turned off for this target, skipping.")
		return nil
	}
	return r.inPath(func(string) error {
		for _, c := range []shell.Command{
			shell.Cmd("chgrp", "-Rf", "www-data", "media"),
			shell.Cmd("chmod", "-Rf", "g+rw", "media"),
		} {
			if _, err := r.Shell.Sudo(ctx, c); err != nil {
				return err
			}
		}
		return nil
	})
}

// WrapMedia archives blog attachments and uploads into data/media.tgz.
func WrapMedia(ctx context.Context, r *Run, _ Args) error {
	return r.inPath(func(string) error {
		tar := shell.Cmd("tar", "zcf", MediaArchive).Glob("wp-content/blogs.dir/*").Glob("wp-content/uploads/*")
		if _, err := r.Shell.Run(ctx, tar); err != nil {
			return err
		}
		r.note("Wrapped up media.")
		return nil
	})
}

// UnwrapMedia extracts data/media.tgz in the checkout.
func UnwrapMedia(ctx context.Context, r *Run, _ Args) error {
	return r.inPath(func(string) error {
		if _, err := r.Shell.Run(ctx, shell.Cmd("tar", "zxf", MediaArchive)); err != nil {
			return err
		}
		r.note("Unwrapped media.")
		return nil
	})
}

// PutMedia uploads the local data/media.tgz to the target's checkout.
func PutMedia(ctx context.Context, r *Run, _ Args) error {
	if err := r.Store.RequireTarget(Deployed...); err != nil {
		return err
	}
	p, err := r.Store.String(target.KeyPath)
	if err != nil {
		return err
	}
	return r.Transfer.Put(ctx, r.Shell.Host(), MediaArchive, path.Join(p, MediaArchive))
}

// GetMedia downloads the target's data/media.tgz to the local checkout.
func GetMedia(ctx context.Context, r *Run, _ Args) error {
	if err := r.Store.RequireTarget(Deployed...); err != nil {
		return err
	}
	p, err := r.Store.String(target.KeyPath)
	if err != nil {
		return err
	}
	return r.Transfer.Get(ctx, r.Shell.Host(), path.Join(p, MediaArchive), MediaArchive)
}

// Cache purge patterns, relative to the site root.
const (
	cacheFront  = ""
	cacheAssets = ".*/wp-content/.*"
	cacheAdmin  = ".*/wp-admin/.*"
)

// ClearCache purges the front page from every cache server.
func ClearCache(ctx context.Context, r *Run, _ Args) error {
	return r.purge(ctx, cacheFront)
}

// ClearAssetCache purges theme and upload assets from every cache server.
func ClearAssetCache(ctx context.Context, r *Run, _ Args) error {
	return r.purge(ctx, cacheAssets)
}

// ClearAdminCache purges admin pages from every cache server.
func ClearAdminCache(ctx context.Context, r *Run, _ Args) error {
	return r.purge(ctx, cacheAdmin)
}

func (r *Run) purge(ctx context.Context, pattern string) error {
	if err := r.Store.RequireTarget(Deployed...); err != nil {
		return err
	}
	domain, err := r.Store.String(target.KeyDomain)
	if err != nil {
		return err
	}
	servers := r.Store.Strings(target.KeyCacheServers)
	if len(servers) == 0 {
		r.warn("No cache servers configured, nothing to purge.")
		return nil
	}
	for _, server := range servers {
		c := shell.Cmd("curl", "-X", "PURGE", "-H", "Host: "+domain, "http://"+server+"/"+pattern)
		if _, err := r.Shell.Run(ctx, c); err != nil {
			return err
		}
	}
	return nil
}

// RunScript runs <scripts_dir>/<name>.php in the checkout.
func RunScript(ctx context.Context, r *Run, args Args) error {
	name, err := args.require("run_script", 0, "name")
	if err != nil {
		return err
	}
	if err := checkName("run_script", "script name", name); err != nil {
		return err
	}
	return r.inPath(func(string) error {
		_, err := r.Shell.Run(ctx, r.php(name+".php"))
		return err
	})
}

// RobotsSetup copies robots_<settings>.txt over robots.txt.
func RobotsSetup(ctx context.Context, r *Run, _ Args) error {
	if err := r.Store.RequireTarget(Deployed...); err != nil {
		return err
	}
	settings, err := r.Store.String(target.KeySettings)
	if err != nil {
		return err
	}
	return r.inPath(func(string) error {
		_, err := r.Shell.Run(ctx, shell.Cmd("cp", "robots_"+settings+".txt", "robots.txt"))
		return err
	})
}

// RunServer starts the development server on the workstation.
func RunServer(ctx context.Context, r *Run, _ Args) error {
	_, err := r.Shell.Local(ctx, shell.Cmd("sudo", "./tools/bin/runserver.py", r.user()))
	return err
}
