package retrieval

import (
	"context"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/kosworks/scriptmate/internal/domain/docs"
)

// State is the retrieval service lifecycle.
type State string

// Lifecycle states. Transitions run NotInitialized -> Loading -> Ready|Error,
// at most once per process.
const (
	StateNotInitialized State = "not_initialized"
	StateLoading        State = "loading"
	StateReady          State = "ready"
	StateError          State = "error"
)

const (
	// searchPerKeyword bounds the fallback search per extracted keyword.
	searchPerKeyword = 3
	// suffixesPerStructure bounds structural expansion per matched structure.
	suffixesPerStructure = 3
)

// Service is the single access point over the documentation index. Query
// operations return empty results, never errors, while the index is not
// Ready: "docs not loaded" is a data condition, not an exceptional one.
type Service struct {
	loader Loader
	logger *zap.Logger

	mu      sync.RWMutex
	state   State
	index   *docs.Index
	meta    docs.IndexMeta
	loadErr error
	waiters []func(error)
}

// New creates a retrieval service. The index is not loaded until Initialize.
func New(loader Loader, logger *zap.Logger) *Service {
	return &Service{loader: loader, logger: logger, state: StateNotInitialized}
}

// Initialize starts the asynchronous index load. It is idempotent: concurrent
// and repeated calls collapse into a single load. onDone, if non-nil, is
// invoked exactly once when the load settles, with nil on success; if the
// load already settled it is invoked immediately on a fresh goroutine.
func (s *Service) Initialize(ctx context.Context, onDone func(error)) {
	s.mu.Lock()
	switch s.state {
	case StateReady, StateError:
		err := s.loadErr
		s.mu.Unlock()
		if onDone != nil {
			go onDone(err)
		}
		return
	case StateLoading:
		if onDone != nil {
			s.waiters = append(s.waiters, onDone)
		}
		s.mu.Unlock()
		return
	}

	s.state = StateLoading
	if onDone != nil {
		s.waiters = append(s.waiters, onDone)
	}
	s.mu.Unlock()

	go s.load(ctx)
}

func (s *Service) load(ctx context.Context) {
	ix, meta, err := s.loader.Load(ctx)

	s.mu.Lock()
	if err != nil {
		s.state = StateError
		s.loadErr = err
	} else {
		s.state = StateReady
		s.index = ix
		s.meta = meta
	}
	waiters := s.waiters
	s.waiters = nil
	s.mu.Unlock()

	if err != nil {
		s.logger.Error("doc index load failed", zap.Error(err))
	} else {
		s.logger.Info("doc index loaded",
			zap.Int("entries", ix.Len()),
			zap.String("content_version", meta.ContentVersion),
			zap.String("generated_at", meta.GeneratedAt),
		)
	}

	for _, w := range waiters {
		w(err)
	}
}

// State returns the current lifecycle state.
func (s *Service) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// Ready reports whether the index is loaded and queryable.
func (s *Service) Ready() bool { return s.State() == StateReady }

// Meta returns the provenance of the loaded index, zero until Ready.
func (s *Service) Meta() docs.IndexMeta {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.meta
}

// snapshot returns the index, or nil when not Ready.
func (s *Service) snapshot() *docs.Index {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.state != StateReady {
		return nil
	}
	return s.index
}

// GetByID looks up an entry by exact id.
func (s *Service) GetByID(id string) (docs.Entry, bool) {
	ix := s.snapshot()
	if ix == nil {
		return docs.Entry{}, false
	}
	return ix.GetByID(id)
}

// GetByIDOrAlias looks up an entry by id, falling back to aliases.
func (s *Service) GetByIDOrAlias(key string) (docs.Entry, bool) {
	ix := s.snapshot()
	if ix == nil {
		return docs.Entry{}, false
	}
	return ix.GetByIDOrAlias(key)
}

// GetSuffixes returns the suffix entries of a structure, in insertion order.
func (s *Service) GetSuffixes(structureID string) []docs.Entry {
	ix := s.snapshot()
	if ix == nil {
		return nil
	}
	return ix.GetByParent(structureID)
}

// GetByTag returns entries carrying the tag.
func (s *Service) GetByTag(tag string) []docs.Entry {
	ix := s.snapshot()
	if ix == nil {
		return nil
	}
	return ix.GetByTag(tag)
}

// Search runs a lexical search over the index.
func (s *Service) Search(query string, limit int) []docs.Entry {
	ix := s.snapshot()
	if ix == nil {
		return nil
	}
	return ix.Search(query, limit)
}

// GetRelevantDocs aggregates entries relevant to a free-text user query,
// capped at maxEntries and deduplicated by id.
//
// Primary pass, per extracted keyword in order: exact id-or-alias match;
// else, for keywords carrying the structure:suffix separator, exact id match
// (canonical upper-case form included); else a bounded lexical search.
// Expansion pass: up to three suffixes for every structure collected in the
// primary pass. Direct hits first, then structural expansion, so a structure
// reference pulls in its members without flooding the result.
func (s *Service) GetRelevantDocs(query string, maxEntries int) []docs.Entry {
	ix := s.snapshot()
	if ix == nil || maxEntries <= 0 {
		return nil
	}

	var out []docs.Entry
	seen := make(map[string]struct{})
	add := func(e docs.Entry) bool {
		if _, dup := seen[e.ID]; dup {
			return len(out) < maxEntries
		}
		if len(out) >= maxEntries {
			return false
		}
		seen[e.ID] = struct{}{}
		out = append(out, e)
		return len(out) < maxEntries
	}

	for _, kw := range ExtractKeywords(query) {
		if len(out) >= maxEntries {
			break
		}
		if e, ok := ix.GetByIDOrAlias(kw); ok {
			add(e)
			continue
		}
		if strings.Contains(kw, ":") {
			// Ids are canonically upper-case in the kOS index.
			if e, ok := ix.GetByID(strings.ToUpper(kw)); ok {
				add(e)
			}
			continue
		}
		for _, e := range ix.Search(kw, searchPerKeyword) {
			if !add(e) {
				break
			}
		}
	}

	structures := make([]docs.Entry, 0, len(out))
	for _, e := range out {
		if e.Type == docs.Structure {
			structures = append(structures, e)
		}
	}
	for _, st := range structures {
		if len(out) >= maxEntries {
			break
		}
		added := 0
		for _, sfx := range ix.GetByParent(st.ID) {
			if _, dup := seen[sfx.ID]; dup {
				continue
			}
			if !add(sfx) {
				break
			}
			added++
			if added >= suffixesPerStructure {
				break
			}
		}
	}

	return out
}
