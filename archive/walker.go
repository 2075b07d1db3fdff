// Package archive walks sets of input files: entries of zip archives and
// directory trees, both in natural name order so "p2.txt" comes before
// "p10.txt".
package archive

import (
	"archive/zip"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"slices"
	"strings"

	"github.com/maruel/natural"
)

// WalkFunc is the type of the function called for each file in archive
// visited by Walk. The archive argument contains path to archive passed to Walk
// The file argument is the zip.File structure for file in archive which satisfies
// match condition. If an error is returned, processing stops.
type WalkFunc func(archive string, file *zip.File) error

// Walk walks the all files in the archive which satisfy match condition,
// calling walkFn for each item in natural order of names. Archives with path
// traversal components ("..") or absolute paths are rejected to prevent Zip
// Slip attacks.
func Walk(archive, pattern string, walkFn WalkFunc) error {
	r, err := zip.OpenReader(archive)
	if err != nil {
		return err
	}
	defer r.Close()

	files := make([]*zip.File, 0, len(r.File))
	for _, f := range r.File {
		name := f.FileHeader.Name
		if !isSafePath(name) {
			return fmt.Errorf("zip entry %q: unsafe path (absolute or contains path traversal)", name)
		}
		if !f.FileInfo().IsDir() && strings.HasPrefix(name, pattern) {
			files = append(files, f)
		}
	}
	slices.SortStableFunc(files, func(a, b *zip.File) int {
		return compareNatural(a.Name, b.Name)
	})

	for _, f := range files {
		if err := walkFn(archive, f); err != nil {
			return err
		}
	}
	return nil
}

// WalkDirFunc is called for every regular file found by WalkDir.
type WalkDirFunc func(path string, d fs.DirEntry) error

// WalkDir walks directory tree rooted at root calling walkFn for each regular
// file. Entries of every directory are visited in natural order, directories
// are descended into when reached.
func WalkDir(root string, walkFn WalkDirFunc) error {
	entries, err := os.ReadDir(root)
	if err != nil {
		return err
	}
	slices.SortStableFunc(entries, func(a, b fs.DirEntry) int {
		return compareNatural(a.Name(), b.Name())
	})

	for _, e := range entries {
		p := filepath.Join(root, e.Name())
		switch {
		case e.IsDir():
			if err := WalkDir(p, walkFn); err != nil {
				return err
			}
		case e.Type().IsRegular():
			if err := walkFn(p, e); err != nil {
				return err
			}
		}
	}
	return nil
}

func compareNatural(a, b string) int {
	switch {
	case natural.Less(a, b):
		return -1
	case natural.Less(b, a):
		return 1
	}
	return 0
}

// isSafePath returns false for paths that could escape the extraction
// directory: absolute paths and those containing ".." components.
func isSafePath(name string) bool {
	if path.IsAbs(name) || strings.HasPrefix(name, "/") || strings.HasPrefix(name, `\`) {
		return false
	}
	for part := range strings.SplitSeq(name, "/") {
		if part == ".." {
			return false
		}
	}
	return true
}
