package pdf

import (
	"fmt"
	"os"
	"path/filepath"
)

// Store is the on-disk cache of rendered documents: exactly one file per
// project id, regenerated in place, no versioning.
type Store struct {
	dir string
}

// NewStore creates the pdfs directory under uploadsDir if needed.
func NewStore(uploadsDir string) (*Store, error) {
	dir := filepath.Join(uploadsDir, "pdfs")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("pdf: create store dir: %w", err)
	}
	return &Store{dir: dir}, nil
}

// Path returns the deterministic file path for a project id.
func (s *Store) Path(projectID string) string {
	return filepath.Join(s.dir, projectID+".pdf")
}

// Exists reports whether a rendered document is on disk.
func (s *Store) Exists(projectID string) bool {
	_, err := os.Stat(s.Path(projectID))
	return err == nil
}

// Delete removes the document if present. Deleting a missing file is not an
// error.
func (s *Store) Delete(projectID string) error {
	err := os.Remove(s.Path(projectID))
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("pdf: delete %s: %w", projectID, err)
	}
	return nil
}
