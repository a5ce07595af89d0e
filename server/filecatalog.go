package server

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
)

var errBadGroupDir = errors.New("invalid group directory name")

// fileCatalog answers group file listing requests from the per-group
// directories under root. Uploads and downloads themselves go through
// the separate bulk listener; only the catalog lives here.
type fileCatalog struct {
	root string
}

func newFileCatalog(root string) *fileCatalog {
	return &fileCatalog{root: root}
}

// list returns the file names shared in the group's directory. A group
// without a directory simply has no files yet.
func (f *fileCatalog) list(groupID string) ([]string, error) {
	if groupID != filepath.Base(groupID) || strings.HasPrefix(groupID, ".") {
		return nil, errBadGroupDir
	}

	entries, err := os.ReadDir(filepath.Join(f.root, groupID))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	var files []string
	for _, e := range entries {
		if !e.IsDir() {
			files = append(files, e.Name())
		}
	}
	return files, nil
}
