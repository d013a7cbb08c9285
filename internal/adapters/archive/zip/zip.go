package zip

import (
	"archive/zip"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"simplefilehost/internal/core/port"
)

type archiver struct{}

// NewArchiver returns a zip based port.Archiver
func NewArchiver() port.Archiver {
	return archiver{}
}

// ZipFile writes a single entry archive holding src
func (archiver) ZipFile(src, dst string) error {
	info, err := os.Lstat(src)
	if err != nil {
		return fmt.Errorf("zip %s: %w", src, err)
	}
	if info.IsDir() {
		return fmt.Errorf("zip %s: is a directory", src)
	}

	return writeArchive(dst, func(zw *zip.Writer) error {
		return addEntry(zw, src, filepath.Base(src), info)
	})
}

// ZipDir archives src recursively with entries rooted at its base name
func (archiver) ZipDir(src, dst string) error {
	info, err := os.Stat(src)
	if err != nil {
		return fmt.Errorf("zip %s: %w", src, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("zip %s: not a directory", src)
	}

	root := filepath.Clean(src)
	base := filepath.Base(root)
	absDst, _ := filepath.Abs(dst)

	return writeArchive(dst, func(zw *zip.Writer) error {
		return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			// the archive may be created inside the tree it archives
			if abs, _ := filepath.Abs(path); abs == absDst {
				return nil
			}

			rel, err := filepath.Rel(root, path)
			if err != nil {
				return err
			}
			info, err := d.Info()
			if err != nil {
				return err
			}
			return addEntry(zw, path, filepath.Join(base, rel), info)
		})
	})
}

func writeArchive(dst string, fill func(zw *zip.Writer) error) (err error) {
	out, err := os.Create(dst)
	if err != nil {
		return fmt.Errorf("create archive: %w", err)
	}
	defer func() {
		if cerr := out.Close(); err == nil && cerr != nil {
			err = cerr
		}
		if err != nil {
			_ = os.Remove(dst)
		}
	}()

	zw := zip.NewWriter(out)
	if err := fill(zw); err != nil {
		_ = zw.Close()
		return fmt.Errorf("build archive: %w", err)
	}
	return zw.Close()
}

func addEntry(zw *zip.Writer, path, name string, info fs.FileInfo) error {
	header, err := zip.FileInfoHeader(info)
	if err != nil {
		return err
	}
	header.Name = filepath.ToSlash(name)

	switch {
	case info.IsDir():
		header.Name += "/"
		header.Method = zip.Store
		_, err := zw.CreateHeader(header)
		return err

	case info.Mode()&fs.ModeSymlink != 0:
		target, err := os.Readlink(path)
		if err != nil {
			return err
		}
		header.Method = zip.Store
		w, err := zw.CreateHeader(header)
		if err != nil {
			return err
		}
		_, err = io.WriteString(w, target)
		return err

	case info.Mode().IsRegular():
		header.Method = zip.Deflate
		w, err := zw.CreateHeader(header)
		if err != nil {
			return err
		}
		f, err := os.Open(path)
		if err != nil {
			return err
		}
		defer f.Close()
		_, err = io.Copy(w, f)
		return err

	default:
		// sockets, devices and pipes have no archive representation
		return nil
	}
}
