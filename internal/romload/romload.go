// Package romload opens a cartridge image from disk, transparently
// decompressing the common archive formats ROM dumps circulate in.
package romload

import (
	"archive/zip"
	"compress/gzip"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/bodgit/sevenzip"
)

// Load reads filename and returns the raw cartridge image, unwrapping a
// single layer of .gz/.zip/.7z compression when the extension calls for it.
// A bare .gb/.gbc file (or anything else unrecognized) is returned as-is.
func Load(filename string) ([]byte, error) {
	f, err := os.Open(filename)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, err
	}

	switch strings.ToLower(filepath.Ext(filename)) {
	case ".gz":
		gz, err := gzip.NewReader(f)
		if err != nil {
			return nil, fmt.Errorf("romload: %s: %w", filename, err)
		}
		defer gz.Close()
		return io.ReadAll(gz)
	case ".zip":
		zr, err := zip.NewReader(f, info.Size())
		if err != nil {
			return nil, fmt.Errorf("romload: %s: %w", filename, err)
		}
		rc, err := firstZipEntry(zr)
		if err != nil {
			return nil, fmt.Errorf("romload: %s: %w", filename, err)
		}
		defer rc.Close()
		return io.ReadAll(rc)
	case ".7z":
		sz, err := sevenzip.NewReader(f, info.Size())
		if err != nil {
			return nil, fmt.Errorf("romload: %s: %w", filename, err)
		}
		if len(sz.File) == 0 {
			return nil, fmt.Errorf("romload: %s: archive is empty", filename)
		}
		rc, err := sz.File[0].Open()
		if err != nil {
			return nil, fmt.Errorf("romload: %s: %w", filename, err)
		}
		defer rc.Close()
		return io.ReadAll(rc)
	default:
		return io.ReadAll(f)
	}
}

// firstZipEntry returns the first non-directory member of a zip archive,
// which is the convention ROM-sharing archives follow (one image per file).
func firstZipEntry(zr *zip.Reader) (io.ReadCloser, error) {
	for _, member := range zr.File {
		if member.FileInfo().IsDir() {
			continue
		}
		return member.Open()
	}
	return nil, fmt.Errorf("no regular file found in archive")
}
