package depcache

import (
	"archive/tar"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/zstd"
)

// pack writes the named paths (files or directories, relative to root) into
// a zstd-compressed tar stream.
func pack(root string, paths []string, w io.Writer) error {
	zw, err := zstd.NewWriter(w)
	if err != nil {
		return fmt.Errorf("failed to create zstd writer (%w)", err)
	}
	tw := tar.NewWriter(zw)
	for _, path := range paths {
		if err := packPath(root, path, tw); err != nil {
			return err
		}
	}
	if err := tw.Close(); err != nil {
		return fmt.Errorf("failed to finalize cache archive (%w)", err)
	}
	return zw.Close()
}

func packPath(root string, path string, tw *tar.Writer) error {
	absPath := filepath.Join(root, path)
	return filepath.WalkDir(absPath, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return fmt.Errorf("failed to walk cache path %s (%w)", path, err)
		}
		relPath, err := filepath.Rel(root, p)
		if err != nil {
			return err
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		link := ""
		if d.Type()&fs.ModeSymlink != 0 {
			if link, err = os.Readlink(p); err != nil {
				return fmt.Errorf("failed to read symlink %s (%w)", relPath, err)
			}
		}
		header, err := tar.FileInfoHeader(info, link)
		if err != nil {
			return err
		}
		header.Name = filepath.ToSlash(relPath)
		if err := tw.WriteHeader(header); err != nil {
			return err
		}
		if d.IsDir() || link != "" {
			return nil
		}
		f, err := os.Open(p) //nolint:gosec
		if err != nil {
			return err
		}
		defer func() {
			_ = f.Close()
		}()
		if _, err := io.Copy(tw, f); err != nil {
			return fmt.Errorf("failed to archive %s (%w)", relPath, err)
		}
		return nil
	})
}

// unpack restores a zstd-compressed tar stream under root. Entries escaping
// the root are rejected.
func unpack(root string, r io.Reader) error {
	zr, err := zstd.NewReader(r)
	if err != nil {
		return fmt.Errorf("failed to create zstd reader (%w)", err)
	}
	defer zr.Close()
	tr := tar.NewReader(zr)
	for {
		header, err := tr.Next()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("failed to read cache archive (%w)", err)
		}
		name := filepath.FromSlash(header.Name)
		if filepath.IsAbs(name) || strings.Contains(name, "..") {
			return fmt.Errorf("cache archive contains an unsafe path: %s", header.Name)
		}
		target := filepath.Join(root, name)
		switch header.Typeflag {
		case tar.TypeDir:
			if err := os.MkdirAll(target, 0o755); err != nil {
				return err
			}
		case tar.TypeReg:
			if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
				return err
			}
			f, err := os.OpenFile(target, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, header.FileInfo().Mode().Perm()) //nolint:gosec
			if err != nil {
				return err
			}
			if _, err := io.Copy(f, tr); err != nil { //nolint:gosec
				_ = f.Close()
				return fmt.Errorf("failed to restore %s (%w)", name, err)
			}
			if err := f.Close(); err != nil {
				return err
			}
		case tar.TypeSymlink:
			if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
				return err
			}
			_ = os.Remove(target)
			if err := os.Symlink(header.Linkname, target); err != nil {
				return fmt.Errorf("failed to restore symlink %s (%w)", name, err)
			}
		default:
			// Special files never appear in dependency caches we create;
			// reject rather than silently skip.
			return fmt.Errorf("cache archive contains an unsupported entry type for %s", header.Name)
		}
	}
}
