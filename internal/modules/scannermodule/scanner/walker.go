package scanner

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/dxing/mediavault/internal/logger"
)

// Collection is one directory of matching media files found by a scan,
// in discovery order.
type Collection struct {
	Name  string
	Dir   string   // absolute directory holding the files
	Files []string // absolute paths of direct member files, listing order
}

// CollectionScanner discovers collections under a root: any directory
// (at any depth, including the root itself) whose direct children
// include files matching the extension set.
type CollectionScanner struct{}

// Scan walks rootPath and returns the discovered collections. Hidden
// directories (name starting with ".") are skipped along with their
// subtrees. An empty result means no media was found; the caller decides
// whether that is fatal.
func (CollectionScanner) Scan(rootPath string, extensions map[string]bool) ([]Collection, error) {
	var collections []Collection
	used := make(map[string]bool)

	err := filepath.WalkDir(rootPath, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			// Unreadable subtree: log and keep walking the rest.
			logger.Warn("skipping unreadable path during scan", "path", path, "error", err)
			if d != nil && d.IsDir() {
				return fs.SkipDir
			}
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		if path == rootPath {
			// The root is handled separately below.
			return nil
		}
		if strings.HasPrefix(d.Name(), ".") {
			return fs.SkipDir
		}

		files, err := directMediaFiles(path, extensions)
		if err != nil {
			logger.Warn("failed to list directory", "path", path, "error", err)
			return nil
		}
		if len(files) == 0 {
			return nil
		}

		name := uniqueCollectionName(d.Name(), path, rootPath, used, len(collections))
		used[name] = true
		collections = append(collections, Collection{Name: name, Dir: path, Files: files})
		logger.Debug("discovered collection", "name", name, "files", len(files))
		return nil
	})
	if err != nil {
		return nil, err
	}

	// Root-level special case: direct media files in the root itself
	// form one more collection named after the root directory.
	rootFiles, err := directMediaFiles(rootPath, extensions)
	if err != nil {
		return nil, err
	}
	if len(rootFiles) > 0 {
		name := filepath.Base(rootPath)
		if used[name] {
			name += "_root"
		}
		for n := len(collections); used[name]; n++ {
			name = fmt.Sprintf("%s_%d", filepath.Base(rootPath), n)
		}
		used[name] = true
		collections = append(collections, Collection{Name: name, Dir: rootPath, Files: rootFiles})
		logger.Debug("discovered root collection", "name", name, "files", len(rootFiles))
	}

	return collections, nil
}

// directMediaFiles lists the non-recursive regular files of dir whose
// extension (case-insensitive) is in the set, in directory listing order.
func directMediaFiles(dir string, extensions map[string]bool) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	var files []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if extensions[strings.ToLower(filepath.Ext(entry.Name()))] {
			files = append(files, filepath.Join(dir, entry.Name()))
		}
	}
	return files, nil
}

// uniqueCollectionName applies the collision rule: base name first, then
// the root-relative path with separators replaced by "_", then a numeric
// suffix as a last resort.
func uniqueCollectionName(base, dir, rootPath string, used map[string]bool, count int) string {
	if !used[base] {
		return base
	}

	if rel, err := filepath.Rel(rootPath, dir); err == nil {
		candidate := strings.NewReplacer("/", "_", "\\", "_").Replace(filepath.ToSlash(rel))
		if !used[candidate] {
			return candidate
		}
	}

	candidate := fmt.Sprintf("%s_%d", base, count)
	for n := count; used[candidate]; n++ {
		candidate = fmt.Sprintf("%s_%d", base, n)
	}
	return candidate
}
