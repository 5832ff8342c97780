package testcase

import (
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// IsCaseFile reports whether path names a case file.
func IsCaseFile(path string) bool {
	name := strings.ToLower(filepath.Base(path))
	return strings.HasSuffix(name, ".case.yaml") || strings.HasSuffix(name, ".case.yml")
}

// Discover returns the case files under root in lexical order. root may also
// be a single case file.
func Discover(root string) ([]string, error) {
	var files []string

	err := walkFiles(root, func(p string, _ os.FileInfo) {
		if p == root || IsCaseFile(p) {
			files = append(files, p)
		}
	})
	if err != nil {
		return nil, err
	}

	sort.Strings(files)

	return files, nil
}

// walkFiles walks a file or directory and invokes onFile for each file,
// skipping vendor, node_modules and dot directories below root.
func walkFiles(root string, onFile func(p string, info os.FileInfo)) error {
	info, err := os.Stat(root)
	if err != nil {
		return err
	}

	if !info.IsDir() {
		onFile(root, info)
		return nil
	}

	return filepath.Walk(root, func(p string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}

		if !info.IsDir() {
			onFile(p, info)
			return nil
		}

		if p == root {
			return nil
		}

		name := info.Name()
		if name == "vendor" || name == "node_modules" || strings.HasPrefix(name, ".") {
			return filepath.SkipDir
		}

		return nil
	})
}
