package db

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/EO-DataHub/eodhp-scim-services/models"
	"github.com/gofrs/flock"
)

const lockRetryDelay = 50 * time.Millisecond

// FilePersister stores a collection as a single JSON object keyed by resource id.
type FilePersister struct {
	path string
	lock *flock.Flock
}

// NewFilePersister creates the parent directory of path if needed.
func NewFilePersister(path string) (*FilePersister, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, fmt.Errorf("collection file path is required")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	return &FilePersister{
		path: path,
		lock: flock.New(path + ".lock"),
	}, nil
}

// Path returns the file the collection is stored in.
func (p *FilePersister) Path() string {
	return p.path
}

// Load returns an empty collection when the file does not exist yet.
func (p *FilePersister) Load(ctx context.Context) (map[string]models.Document, error) {
	data, err := os.ReadFile(p.path)
	if err != nil {
		if os.IsNotExist(err) {
			return map[string]models.Document{}, nil
		}
		return nil, fmt.Errorf("reading collection file: %w", err)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return map[string]models.Document{}, nil
	}

	docs, err := decodeCollection(data)
	if err != nil {
		return nil, fmt.Errorf("parsing collection file %s: %w", p.path, err)
	}
	return docs, nil
}

// Save replaces the file with a temp-file-and-rename so readers never see a partial write.
func (p *FilePersister) Save(ctx context.Context, docs map[string]models.Document) error {
	locked, err := p.lock.TryLockContext(ctx, lockRetryDelay)
	if err != nil {
		return fmt.Errorf("locking collection file: %w", err)
	}
	if !locked {
		return fmt.Errorf("locking collection file: lock not acquired")
	}
	defer p.lock.Unlock()

	if docs == nil {
		docs = map[string]models.Document{}
	}
	data, err := json.MarshalIndent(docs, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding collection: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(p.path), filepath.Base(p.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName) // no-op once renamed

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("writing temp file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("syncing temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("closing temp file: %w", err)
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		return fmt.Errorf("setting file mode: %w", err)
	}
	if err := os.Rename(tmpName, p.path); err != nil {
		return fmt.Errorf("replacing collection file: %w", err)
	}
	return nil
}

// decodeCollection keeps numbers as json.Number so they are written back unchanged.
func decodeCollection(data []byte) (map[string]models.Document, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var docs map[string]models.Document
	if err := dec.Decode(&docs); err != nil {
		return nil, err
	}
	if docs == nil {
		docs = map[string]models.Document{}
	}
	return docs, nil
}
