package fswalk

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"github.com/urfave/cli"

	"github.com/tvfiles-io/tracker/services/reconcile"
)

const (
	ScanDirFlag = "scan-dir"
)

func RegisterFlags(f []cli.Flag) []cli.Flag {
	return append(f,
		cli.StringSliceFlag{
			Name:   ScanDirFlag,
			Usage:  "directory tree to register and scan (repeatable)",
			EnvVar: "SCAN_DIR",
		},
	)
}

// Walker streams one observation per regular file under each of its roots.
// Every pass walks the full root set so the removal finalization always sees
// a complete picture.
type Walker struct {
	roots []string
}

// New builds a walker over the union of previously registered roots and the
// roots supplied on the command line.
func New(c *cli.Context, registered []string) *Walker {
	return NewWalker(append(registered, c.StringSlice(ScanDirFlag)...)...)
}

// NewWalker canonicalizes and dedupes the given roots.
func NewWalker(roots ...string) *Walker {
	seen := map[string]struct{}{}
	var canonical []string
	for _, r := range roots {
		r = reconcile.CanonicalPath(r)
		if _, ok := seen[r]; ok {
			continue
		}
		seen[r] = struct{}{}
		canonical = append(canonical, r)
	}
	sort.Strings(canonical)
	return &Walker{
		roots: canonical,
	}
}

func (w *Walker) Each(ctx context.Context, fn func(reconcile.Observation) error) error {
	for _, root := range w.roots {
		if err := w.walkRoot(ctx, root, fn); err != nil {
			return err
		}
	}
	return nil
}

func (w *Walker) walkRoot(ctx context.Context, root string, fn func(reconcile.Observation) error) error {
	rootPath := root
	parent := &reconcile.Entity{
		Key: reconcile.SingleKey(root),
		Attrs: reconcile.Attrs{
			Title: filepath.Base(root),
			Path:  &rootPath,
		},
	}
	// the root stays registered even when its tree holds no files
	if err := fn(reconcile.Observation{Parent: parent}); err != nil {
		return err
	}

	if _, err := os.Stat(root); err != nil {
		if os.IsNotExist(err) {
			// a vanished root legitimately means all of its files are gone
			log.WithField("dir", root).Warn("scan root no longer exists")
			return nil
		}
		return errors.Wrapf(reconcile.ErrSourceUnavailable, "stat scan root %s: %v", root, err)
	}

	var (
		dir   string
		count int
	)
	flush := func() {
		if count > 0 {
			log.WithField("dir", dir).WithField("files", count).Info("scanned directory")
		}
	}
	err := filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			log.WithError(err).WithField("path", p).Warn("skipping unreadable path")
			return nil
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		abs := reconcile.CanonicalPath(p)
		if filepath.Dir(abs) != dir {
			flush()
			dir = filepath.Dir(abs)
			count = 0
		}
		count++
		var created *time.Time
		if fi, err := d.Info(); err == nil {
			created = creationTime(fi)
		}
		leaf := &reconcile.Entity{
			Key: reconcile.CompositeKey(filepath.Base(abs), filepath.Dir(abs)),
			Attrs: reconcile.Attrs{
				CreatedAt: created,
			},
		}
		return fn(reconcile.Observation{Parent: parent, Leaf: leaf})
	})
	flush()
	return err
}
