// Package fileio provides atomic roadmap document writes. A reconcile run
// either replaces the document wholesale or leaves it byte-identical;
// there is no partially written state.
package fileio

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// WriteOptions controls AtomicWrite behaviour.
type WriteOptions struct {
	// Backup keeps the previous document contents next to it as ".bak".
	Backup bool
	// Verify, if set, is run against the temp file's re-read contents
	// before the rename. A verification failure aborts the write with the
	// original document untouched.
	Verify func([]byte) error
}

// AtomicWrite replaces the file at path with content: write to a temp file
// in the same directory, fsync, re-read and verify, back up the original,
// then rename over it.
func AtomicWrite(path string, content []byte, opts WriteOptions) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, ".roadmap-tmp-*.md")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()

	defer func() {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
	}()

	if _, err := tmp.Write(content); err != nil {
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		return fmt.Errorf("sync temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}

	written, err := os.ReadFile(tmpName)
	if err != nil {
		return fmt.Errorf("read temp file for verification: %w", err)
	}
	if opts.Verify != nil {
		if err := opts.Verify(written); err != nil {
			return fmt.Errorf("verify written document: %w", err)
		}
	}

	if opts.Backup {
		if _, err := os.Stat(path); err == nil {
			if err := copyFile(path, path+".bak"); err != nil {
				return fmt.Errorf("create backup: %w", err)
			}
		}
	}

	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("atomic rename: %w", err)
	}
	return nil
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer func() { _ = in.Close() }()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer func() { _ = out.Close() }()

	if _, err := io.Copy(out, in); err != nil {
		return err
	}
	return out.Sync()
}
