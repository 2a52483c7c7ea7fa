package docindex

import (
	"fmt"

	"github.com/kosworks/scriptmate/internal/domain/docs"
)

// indexFile mirrors the JSON envelope written by the kOS doc parser.
type indexFile struct {
	SchemaVersion  string            `json:"schemaVersion"`
	ContentVersion string            `json:"contentVersion"`
	KOSMinVersion  string            `json:"kosMinVersion"`
	GeneratedAt    string            `json:"generatedAt"`
	SourceURL      string            `json:"sourceUrl"`
	Entries        []entryRow        `json:"entries"`
	Tags           map[string]string `json:"tags"`
}

// entryRow is the JSON-serializable representation of one doc entry.
type entryRow struct {
	ID              string   `json:"id"`
	Name            string   `json:"name"`
	Type            string   `json:"type"`
	ParentStructure string   `json:"parentStructure"`
	ReturnType      string   `json:"returnType"`
	Access          string   `json:"access"`
	Signature       string   `json:"signature"`
	Description     string   `json:"description"`
	Snippet         string   `json:"snippet"`
	SourceRef       string   `json:"sourceRef"`
	Tags            []string `json:"tags,omitempty"`
	Aliases         []string `json:"aliases,omitempty"`
	Related         []string `json:"related,omitempty"`
	Deprecated      bool     `json:"deprecated,omitempty"`
	DeprecationNote string   `json:"deprecationNote,omitempty"`
}

// entryFromRow hydrates a domain entry from its file representation.
func entryFromRow(row entryRow) (docs.Entry, error) {
	if row.ID == "" {
		return docs.Entry{}, fmt.Errorf("entry without id")
	}
	typ := docs.EntryType(row.Type)
	if !typ.IsValid() {
		return docs.Entry{}, fmt.Errorf("entry %q has unknown type %q", row.ID, row.Type)
	}
	return docs.Entry{
		ID:              row.ID,
		Name:            row.Name,
		Type:            typ,
		ParentStructure: row.ParentStructure,
		ReturnType:      row.ReturnType,
		Access:          docs.AccessMode(row.Access),
		Signature:       row.Signature,
		Description:     row.Description,
		Snippet:         row.Snippet,
		SourceRef:       row.SourceRef,
		Tags:            row.Tags,
		Aliases:         row.Aliases,
		Related:         row.Related,
		Deprecated:      row.Deprecated,
		DeprecationNote: row.DeprecationNote,
	}, nil
}

func metaFromFile(f *indexFile) docs.IndexMeta {
	return docs.IndexMeta{
		SchemaVersion:  f.SchemaVersion,
		ContentVersion: f.ContentVersion,
		KOSMinVersion:  f.KOSMinVersion,
		GeneratedAt:    f.GeneratedAt,
		SourceURL:      f.SourceURL,
	}
}
