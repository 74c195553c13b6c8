package lifecycle

import (
	"archive/tar"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/klauspost/compress/gzip"
	"go.uber.org/zap"

	"github.com/elijj/cursor-nix-isolated/internal/namespace"
)

// ErrBackupWrite is returned when the backup sink cannot be written.
var ErrBackupWrite = errors.New("backup write failed")

// Backup archives the environment's full subtree into
// <backup base>/<id>-<label>.tar.gz and returns the archive path. An empty
// label derives one from the current time.
func (o *Ops) Backup(id int, label string) (string, error) {
	ns, err := namespace.Resolve(o.cfg.BaseDir, id, "")
	if err != nil {
		return "", err
	}
	if _, err := os.Stat(ns.Root); err != nil {
		return "", fmt.Errorf("environment %d has no data at %s: %w", id, ns.Root, err)
	}
	if label == "" {
		label = time.Now().Format("20060102-150405")
	}

	dest := filepath.Join(o.cfg.BackupBase(), fmt.Sprintf("%d-%s.tar.gz", id, label))
	f, err := os.Create(dest)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrBackupWrite, err)
	}

	if err := writeArchive(f, ns.Root, strconv.Itoa(id)); err != nil {
		f.Close()
		os.Remove(dest)
		return "", fmt.Errorf("%w: %v", ErrBackupWrite, err)
	}
	if err := f.Close(); err != nil {
		os.Remove(dest)
		return "", fmt.Errorf("%w: %v", ErrBackupWrite, err)
	}

	o.log.Info("backup written",
		zap.Int("env_id", id),
		zap.String("archive", dest))
	return dest, nil
}

// writeArchive tars root into w with every entry prefixed by prefix/.
func writeArchive(w io.Writer, root, prefix string) error {
	gz := gzip.NewWriter(w)
	tw := tar.NewWriter(gz)

	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		info, err := d.Info()
		if err != nil {
			return err
		}

		var link string
		if info.Mode()&fs.ModeSymlink != 0 {
			if link, err = os.Readlink(path); err != nil {
				return err
			}
		}
		hdr, err := tar.FileInfoHeader(info, link)
		if err != nil {
			return err
		}
		hdr.Name = filepath.ToSlash(filepath.Join(prefix, rel))
		if info.IsDir() {
			hdr.Name += "/"
		}
		if err := tw.WriteHeader(hdr); err != nil {
			return err
		}
		if !info.Mode().IsRegular() {
			return nil
		}

		src, err := os.Open(path)
		if err != nil {
			return err
		}
		defer src.Close()
		_, err = io.Copy(tw, src)
		return err
	})
	if err != nil {
		return err
	}
	if err := tw.Close(); err != nil {
		return err
	}
	return gz.Close()
}
