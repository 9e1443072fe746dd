// Package scaffold writes a starter project: an example config, an
// example Dockerfile and the canonical entrypoint script containing
// the in-container test contract (override variable check, lint,
// syntax check, run, idempotence re-run).
package scaffold

import (
	"embed"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

//go:embed templates
var templatesFS embed.FS

// Write materializes the starter files under dir. Existing files are
// never overwritten; the first conflict aborts with an error.
func Write(dir string) ([]string, error) {
	var written []string

	err := fs.WalkDir(templatesFS, "templates", func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}

		rel, err := filepath.Rel("templates", path)
		if err != nil {
			return err
		}
		target := filepath.Join(dir, rel)

		if d.IsDir() {
			return os.MkdirAll(target, 0755)
		}

		if _, err := os.Stat(target); err == nil {
			return fmt.Errorf("%s already exists, not overwriting", target)
		}

		data, err := templatesFS.ReadFile(path)
		if err != nil {
			return err
		}

		mode := os.FileMode(0644)
		if filepath.Ext(target) == ".sh" {
			mode = 0755
		}
		if err := os.WriteFile(target, data, mode); err != nil {
			return err
		}

		written = append(written, target)
		return nil
	})
	if err != nil {
		return written, err
	}
	return written, nil
}
