package docs

import (
	"fmt"
	"sort"
	"strings"

	"github.com/kosworks/scriptmate/internal/domain"
)

// Index is the immutable, queryable collection of documentation entries.
// It is built once at load time and exposes no write operations; concurrent
// reads from multiple turns are safe.
type Index struct {
	entries  []Entry
	byID     map[string]int
	byAlias  map[string]int   // lowercased alias -> entry position
	byParent map[string][]int // parent structure id -> positions, insertion order
	byTag    map[string][]int // lowercased tag -> positions, insertion order
}

// NewIndex builds an Index from a finite entry collection. Construction fails
// fast on a duplicate id, or on an alias that maps to more than one id.
func NewIndex(entries []Entry) (*Index, error) {
	ix := &Index{
		entries:  make([]Entry, len(entries)),
		byID:     make(map[string]int, len(entries)),
		byAlias:  make(map[string]int),
		byParent: make(map[string][]int),
		byTag:    make(map[string][]int),
	}
	copy(ix.entries, entries)

	for i, e := range ix.entries {
		if _, exists := ix.byID[e.ID]; exists {
			return nil, fmt.Errorf("%w: %q", domain.ErrDuplicateEntryID, e.ID)
		}
		ix.byID[e.ID] = i

		if e.ParentStructure != "" {
			ix.byParent[e.ParentStructure] = append(ix.byParent[e.ParentStructure], i)
		}
		for _, tag := range e.Tags {
			key := strings.ToLower(tag)
			ix.byTag[key] = append(ix.byTag[key], i)
		}
	}

	// Aliases resolve after all ids are known so an alias shadowing another
	// entry's id is rejected as well.
	for i, e := range ix.entries {
		for _, alias := range e.Aliases {
			key := strings.ToLower(alias)
			if prev, exists := ix.byAlias[key]; exists && prev != i {
				return nil, fmt.Errorf("%w: alias %q maps to both %q and %q",
					domain.ErrAliasConflict, alias, ix.entries[prev].ID, e.ID)
			}
			ix.byAlias[key] = i
		}
	}

	return ix, nil
}

// Len returns the number of entries in the index.
func (ix *Index) Len() int { return len(ix.entries) }

// GetByID returns the entry with the exact id. Case-sensitive.
func (ix *Index) GetByID(id string) (Entry, bool) {
	if i, ok := ix.byID[id]; ok {
		return ix.entries[i], true
	}
	return Entry{}, false
}

// GetByIDOrAlias tries an exact id match first, then the alias table.
// Alias lookup is case-insensitive.
func (ix *Index) GetByIDOrAlias(key string) (Entry, bool) {
	if e, ok := ix.GetByID(key); ok {
		return e, true
	}
	if i, ok := ix.byAlias[strings.ToLower(key)]; ok {
		return ix.entries[i], true
	}
	return Entry{}, false
}

// GetByParent returns the entries whose ParentStructure equals parentID,
// preserving insertion order.
func (ix *Index) GetByParent(parentID string) []Entry {
	return ix.collect(ix.byParent[parentID])
}

// GetByTag returns the entries carrying the tag. Case-insensitive.
func (ix *Index) GetByTag(tag string) []Entry {
	return ix.collect(ix.byTag[strings.ToLower(tag)])
}

func (ix *Index) collect(positions []int) []Entry {
	if len(positions) == 0 {
		return nil
	}
	out := make([]Entry, len(positions))
	for i, p := range positions {
		out[i] = ix.entries[p]
	}
	return out
}

// Search runs a lexical match of the query against entry ids, aliases, names
// and descriptions. Ranking is substring and keyword-overlap based; ties
// break by original insertion order. At most limit entries are returned and
// no id appears twice. The result is a pure function of (query, limit).
func (ix *Index) Search(query string, limit int) []Entry {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" || limit <= 0 {
		return nil
	}
	terms := searchTerms(q)

	type hit struct {
		pos   int
		score int
	}
	var hits []hit
	for i := range ix.entries {
		if s := scoreEntry(&ix.entries[i], q, terms); s > 0 {
			hits = append(hits, hit{pos: i, score: s})
		}
	}

	sort.SliceStable(hits, func(a, b int) bool { return hits[a].score > hits[b].score })

	if len(hits) > limit {
		hits = hits[:limit]
	}
	out := make([]Entry, len(hits))
	for i, h := range hits {
		out[i] = ix.entries[h.pos]
	}
	return out
}

// searchTerms splits a lowercased query into match terms, keeping the
// structure:suffix separator and underscores inside tokens.
func searchTerms(q string) []string {
	return strings.FieldsFunc(q, func(r rune) bool {
		return !(r >= 'a' && r <= 'z') && !(r >= '0' && r <= '9') && r != ':' && r != '_'
	})
}

func scoreEntry(e *Entry, q string, terms []string) int {
	id := strings.ToLower(e.ID)
	name := strings.ToLower(e.Name)
	desc := strings.ToLower(e.Description)

	score := 0
	switch {
	case id == q:
		score += 100
	case strings.Contains(id, q):
		score += 40
	}
	switch {
	case name == q:
		score += 60
	case strings.Contains(name, q):
		score += 25
	}
	for _, alias := range e.Aliases {
		a := strings.ToLower(alias)
		switch {
		case a == q:
			score += 60
		case strings.Contains(a, q):
			score += 20
		}
	}
	for _, t := range terms {
		if strings.Contains(id, t) {
			score += 10
		}
		if strings.Contains(desc, t) {
			score += 5
		}
	}
	return score
}
