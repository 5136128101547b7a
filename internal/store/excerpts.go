package store

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/blevesearch/bleve/v2"

	archerr "github.com/openarchive/unisearch/internal/errors"
	"github.com/openarchive/unisearch/internal/index"
	"github.com/openarchive/unisearch/internal/search"
)

// excerptTopScore is the candidate score assigned to the best excerpt
// hit. Excerpt matches rank below direct substring matches, which the
// engine scores 0.9.
const excerptTopScore = 0.85

// excerptDoc is the shape stored in the bleve index.
type excerptDoc struct {
	Text string `json:"text"`
}

// ExcerptIndex is a full-text index over document excerpt text. It
// surfaces documents whose body mentions the query even when their
// title does not, and plugs into the engine as a candidate source.
type ExcerptIndex struct {
	mu     sync.RWMutex
	index  bleve.Index
	path   string
	known  map[string]bool
	closed bool
}

// NewExcerptIndex opens or creates the excerpt index at path.
// An empty path creates an in-memory index.
func NewExcerptIndex(path string) (*ExcerptIndex, error) {
	mapping := bleve.NewIndexMapping()

	var idx bleve.Index
	var err error
	if path == "" {
		idx, err = bleve.NewMemOnly(mapping)
	} else {
		if mkErr := os.MkdirAll(filepath.Dir(path), 0o755); mkErr != nil {
			return nil, archerr.IOError(archerr.ErrCodeExcerptIndex, "create index directory", mkErr)
		}
		idx, err = bleve.Open(path)
		if err == bleve.ErrorIndexPathDoesNotExist {
			idx, err = bleve.New(path, mapping)
		}
	}
	if err != nil {
		return nil, archerr.IOError(archerr.ErrCodeExcerptIndex, "open excerpt index", err).
			WithDetail("path", path)
	}

	return &ExcerptIndex{
		index: idx,
		path:  path,
		known: make(map[string]bool),
	}, nil
}

// Reindex replaces the indexed set with the document records given:
// new and changed documents are upserted, vanished ones deleted.
// Non-document records are skipped.
func (e *ExcerptIndex) Reindex(ctx context.Context, records []*index.Record) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.closed {
		return archerr.IOError(archerr.ErrCodeExcerptIndex, "index is closed", nil)
	}

	batch := e.index.NewBatch()
	next := make(map[string]bool, len(records))
	for _, r := range records {
		if r.Source != index.SourceDocument {
			continue
		}
		text := strings.Join(r.Texts(), "\n")
		if strings.TrimSpace(text) == "" {
			continue
		}
		if err := batch.Index(r.ID, excerptDoc{Text: text}); err != nil {
			return archerr.IOError(archerr.ErrCodeExcerptIndex, "index document", err).
				WithDetail("id", r.ID)
		}
		next[r.ID] = true
	}
	for id := range e.known {
		if !next[id] {
			batch.Delete(id)
		}
	}

	if err := e.index.Batch(batch); err != nil {
		return archerr.IOError(archerr.ErrCodeExcerptIndex, "execute batch", err)
	}
	e.known = next
	return nil
}

// Name implements search.CandidateSource.
func (e *ExcerptIndex) Name() string {
	return "excerpt_index"
}

// Candidates implements search.CandidateSource. Hit scores are relative
// BM25 values, so they are normalized against the best hit.
func (e *ExcerptIndex) Candidates(ctx context.Context, query string, limit int) ([]search.Candidate, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	if e.closed {
		return nil, archerr.IOError(archerr.ErrCodeExcerptIndex, "index is closed", nil)
	}
	if strings.TrimSpace(query) == "" {
		return nil, nil
	}

	matchQuery := bleve.NewMatchQuery(query)
	matchQuery.SetField("text")

	req := bleve.NewSearchRequest(matchQuery)
	req.Size = limit

	result, err := e.index.SearchInContext(ctx, req)
	if err != nil {
		return nil, archerr.IOError(archerr.ErrCodeExcerptIndex, "excerpt search", err)
	}
	if len(result.Hits) == 0 {
		return nil, nil
	}

	top := result.Hits[0].Score
	candidates := make([]search.Candidate, 0, len(result.Hits))
	for _, hit := range result.Hits {
		score := excerptTopScore
		if top > 0 {
			score = excerptTopScore * hit.Score / top
		}
		candidates = append(candidates, search.Candidate{
			Source: index.SourceDocument,
			ID:     hit.ID,
			Score:  score,
		})
	}
	return candidates, nil
}

// Close releases the index.
func (e *ExcerptIndex) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.closed {
		return nil
	}
	e.closed = true
	return e.index.Close()
}
