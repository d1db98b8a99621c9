package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

const backupStampLayout = "20060102-150405"

// sqliteBackup snapshots a SQLite database file to
// <path>.<stamp>.bak before initdb touches it.
type sqliteBackup struct {
	path string
	keep int
	now  func() time.Time
}

func newSQLiteBackup(dsn string, keep int) sqliteBackup {
	return sqliteBackup{path: sqlitePath(dsn), keep: keep, now: time.Now}
}

// sqlitePath strips the scheme and query string from a SQLite DSN.
func sqlitePath(dsn string) string {
	dsn = strings.TrimPrefix(dsn, "sqlite://")
	dsn = strings.TrimPrefix(dsn, "file:")
	path, _, _ := strings.Cut(dsn, "?")
	return path
}

// run returns an empty name when there is no database file yet.
func (b sqliteBackup) run() (created string, pruned []string, err error) {
	info, err := os.Stat(b.path)
	if errors.Is(err, os.ErrNotExist) {
		return "", nil, nil
	}
	if err != nil {
		return "", nil, err
	}
	if !info.Mode().IsRegular() {
		return "", nil, fmt.Errorf("%s is not a regular file", b.path)
	}

	created = fmt.Sprintf("%s.%s%s", b.path, b.now().Format(backupStampLayout), backupFileExt)
	if err := snapshot(b.path, created, info.Mode().Perm()); err != nil {
		return "", nil, fmt.Errorf("backing up %s: %w", b.path, err)
	}
	pruned, err = b.prune()
	return created, pruned, err
}

// snapshot writes src to a temporary sibling of dst and renames it into
// place, so dst is either complete or absent.
func snapshot(src, dst string, perm os.FileMode) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	tmp := dst + ".partial"
	out, err := os.OpenFile(tmp, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, perm)
	if err != nil {
		return err
	}
	_, err = io.Copy(out, in)
	if err == nil {
		err = out.Sync()
	}
	if cerr := out.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		_ = os.Remove(tmp)
		return err
	}
	return os.Rename(tmp, dst)
}

// prune removes the oldest backups beyond keep. Stamps sort by time, so
// name order is age order.
func (b sqliteBackup) prune() ([]string, error) {
	if b.keep <= 0 {
		return nil, nil
	}
	dir, base := filepath.Split(b.path)
	if dir == "" {
		dir = "."
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	var backups []string
	for _, e := range entries {
		name := e.Name()
		if !e.IsDir() && strings.HasPrefix(name, base+".") && strings.HasSuffix(name, backupFileExt) {
			backups = append(backups, filepath.Join(dir, name))
		}
	}
	if len(backups) <= b.keep {
		return nil, nil
	}
	sort.Sort(sort.Reverse(sort.StringSlice(backups)))

	var removed []string
	for _, old := range backups[b.keep:] {
		if err := os.Remove(old); err != nil {
			return removed, err
		}
		removed = append(removed, old)
	}
	return removed, nil
}
