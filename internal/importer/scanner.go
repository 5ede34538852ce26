package importer

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

const (
	// DuplicateDir receives inbox files whose content is already registered.
	DuplicateDir = "_duplicate"
	// FinishedDir receives inbox files after registration.
	FinishedDir = "_finished"
)

// ScannedFile is a candidate file found in the inbox.
type ScannedFile struct {
	Name    string // base name, used as the upload filename
	AbsPath string
}

// Scan lists the regular files directly inside the inbox, sorted by name.
// Subdirectories (including the duplicate and finished folders) and hidden
// files are skipped.
func (im *Importer) Scan(ctx context.Context) ([]ScannedFile, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	entries, err := os.ReadDir(im.inbox)
	if err != nil {
		return nil, fmt.Errorf("failed to read inbox %s: %w", im.inbox, err)
	}

	var files []ScannedFile
	for _, e := range entries {
		if e.IsDir() || strings.HasPrefix(e.Name(), ".") {
			continue
		}
		if !e.Type().IsRegular() {
			continue
		}
		files = append(files, ScannedFile{Name: e.Name(), AbsPath: filepath.Join(im.inbox, e.Name())})
	}
	sort.Slice(files, func(i, j int) bool { return files[i].Name < files[j].Name })
	return files, nil
}
