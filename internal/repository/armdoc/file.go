package armdoc

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/andrewdarr/bt-sentinel/internal/arming"
)

// Repository defines persistence operations for the shared arm document.
type Repository interface {
	Load(ctx context.Context) (*arming.Document, error)
	Save(ctx context.Context, doc *arming.Document) error
}

// FileRepository persists the arm document as JSON on disk.
// Saves write the whole document to a temporary file in the same directory
// and rename it into place, so a concurrent reader never observes a
// half-written document. There is no cross-process lock: the last writer wins.
type FileRepository struct {
	// path is the filesystem location of the JSON document.
	path string
	// mu protects concurrent access from within this process.
	mu sync.Mutex
}

const filePermissions = 0o600

// ErrNotFound is returned when the document does not exist yet.
var ErrNotFound = errors.New("arm document not found")

// NewFileRepository creates a repository that reads/writes JSON at the provided path.
func NewFileRepository(path string) *FileRepository {
	return &FileRepository{
		path: filepath.Clean(path),
	}
}

// Load reads the whole document from disk.
func (r *FileRepository) Load(_ context.Context) (*arming.Document, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	contents, err := os.ReadFile(r.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, ErrNotFound
		}

		return nil, fmt.Errorf("read arm document: %w", err)
	}

	var doc arming.Document
	if err = json.Unmarshal(contents, &doc); err != nil {
		return nil, fmt.Errorf("decode arm document: %w", err)
	}

	return &doc, nil
}

// Save atomically replaces the document on disk.
func (r *FileRepository) Save(_ context.Context, doc *arming.Document) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("encode arm document: %w", err)
	}

	tmp := r.path + ".tmp"
	if err = os.WriteFile(tmp, data, filePermissions); err != nil {
		return fmt.Errorf("write arm document: %w", err)
	}

	if err = os.Rename(tmp, r.path); err != nil {
		return fmt.Errorf("replace arm document: %w", err)
	}

	return nil
}

// LoadOrDefaults returns the persisted document, or the documented defaults
// when the file is missing or unreadable. A missing file is a normal first
// run and reports no error; any other failure is reported alongside the
// defaults so callers can log the degraded read without aborting their cycle.
func LoadOrDefaults(ctx context.Context, repo Repository) (*arming.Document, error) {
	doc, err := repo.Load(ctx)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return arming.Defaults(), nil
		}

		return arming.Defaults(), err
	}

	return doc, nil
}
