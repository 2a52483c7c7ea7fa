package doctool

import "github.com/kosworks/scriptmate/internal/domain/docs"

// Searcher is the retrieval surface the tool executes against.
type Searcher interface {
	Ready() bool
	Search(query string, limit int) []docs.Entry
}
