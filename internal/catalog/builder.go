package catalog

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// IsImage checks if a file name has an image extension.
func IsImage(n string) bool {
	switch strings.ToLower(filepath.Ext(n)) {
	case ".png", ".jpg", ".jpeg", ".gif":
		return true
	default:
		return false
	}
}

// Build walks dir and returns a descriptor for the images it finds. Each
// directory holding images becomes a category named by its path relative to
// dir; images directly in dir go into a category named after dir itself.
// File entries are relative to dir so they resolve against the image prefix.
func Build(dir string) (Descriptor, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return Descriptor{}, fmt.Errorf("failed to stat %s: %w", dir, err)
	}
	if !info.IsDir() {
		return Descriptor{}, fmt.Errorf("%s is not a directory", dir)
	}

	byCategory := map[string][]Work{}
	rootName := filepath.Base(filepath.Clean(dir))

	err = filepath.WalkDir(dir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		name := d.Name()
		if d.IsDir() {
			// skip hidden directories, but never the root itself
			if p != dir && strings.HasPrefix(name, ".") {
				return filepath.SkipDir
			}
			return nil
		}
		if !d.Type().IsRegular() || strings.HasPrefix(name, ".") || !IsImage(name) {
			return nil
		}
		if fi, err := d.Info(); err != nil || fi.Size() == 0 {
			return nil
		}
		rel, err := filepath.Rel(dir, p)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)
		category := rootName
		if i := strings.LastIndex(rel, "/"); i >= 0 {
			category = rel[:i]
		}
		byCategory[category] = append(byCategory[category], Work{File: rel})
		return nil
	})
	if err != nil {
		return Descriptor{}, fmt.Errorf("scanning %s: %w", dir, err)
	}

	names := make([]string, 0, len(byCategory))
	for name := range byCategory {
		names = append(names, name)
	}
	sort.Strings(names)

	desc := Descriptor{Categories: make([]Category, 0, len(names))}
	for _, name := range names {
		works := byCategory[name]
		sort.Slice(works, func(i, j int) bool { return works[i].File < works[j].File })
		desc.Categories = append(desc.Categories, Category{Name: name, Works: works})
	}
	return desc, nil
}
