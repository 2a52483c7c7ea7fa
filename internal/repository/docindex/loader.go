package docindex

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/kosworks/scriptmate/internal/domain"
	"github.com/kosworks/scriptmate/internal/domain/docs"
)

// supportedSchemaMajor is the doc index schema major version this loader
// understands. Minor revisions are additive and accepted.
const supportedSchemaMajor = "1"

// Loader reads a kOS doc index file from disk and builds the immutable
// in-memory index. A load reports success or failure exactly once; retrying
// is the caller's concern.
type Loader struct {
	path string
}

// NewLoader creates a Loader for the given index file path.
func NewLoader(path string) *Loader {
	return &Loader{path: path}
}

// Load reads, parses, and indexes the doc file.
func (l *Loader) Load(ctx context.Context) (*docs.Index, docs.IndexMeta, error) {
	if err := ctx.Err(); err != nil {
		return nil, docs.IndexMeta{}, err
	}

	data, err := os.ReadFile(filepath.Clean(l.path))
	if err != nil {
		return nil, docs.IndexMeta{}, fmt.Errorf("read doc index %s: %w", l.path, err)
	}

	var file indexFile
	if err := json.Unmarshal(data, &file); err != nil {
		return nil, docs.IndexMeta{}, fmt.Errorf("parse doc index: %w", err)
	}

	if major, _, _ := strings.Cut(file.SchemaVersion, "."); major != supportedSchemaMajor {
		return nil, docs.IndexMeta{}, fmt.Errorf("%w: %q", domain.ErrSchemaVersion, file.SchemaVersion)
	}

	entries := make([]docs.Entry, 0, len(file.Entries))
	for _, row := range file.Entries {
		e, err := entryFromRow(row)
		if err != nil {
			return nil, docs.IndexMeta{}, fmt.Errorf("invalid doc index: %w", err)
		}
		entries = append(entries, e)
	}

	ix, err := docs.NewIndex(entries)
	if err != nil {
		return nil, docs.IndexMeta{}, fmt.Errorf("build doc index: %w", err)
	}
	return ix, metaFromFile(&file), nil
}
