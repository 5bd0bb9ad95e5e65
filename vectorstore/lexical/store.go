package lexical

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"
	"sync"

	"github.com/wearloom/atelier/chunker"
	"github.com/wearloom/atelier/vectorstore"
)

// entry is one upserted chunk with its token set precomputed at write time.
type entry struct {
	id      string
	payload map[string]any
	tokens  map[string]struct{}
}

// lexicalStore is the guaranteed-available retrieval path: pure token-overlap
// ranking over everything upserted so far, held in memory only.
type lexicalStore struct {
	options vectorstore.Options
	mtx     sync.RWMutex
	entries []entry
}

func (s *lexicalStore) Upsert(ctx context.Context, chunks []chunker.ChunkRecord) (int, error) {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	stored := 0

	for _, chunk := range chunks {
		if len(chunk.Text) == 0 {
			continue
		}
		s.entries = append(s.entries, entry{
			id:      fmt.Sprintf("inmemory-%d", len(s.entries)),
			payload: vectorstore.Payload(chunk),
			tokens:  tokenize(chunk.Text),
		})
		stored++
	}

	return stored, nil
}

// Query scores every stored chunk as |overlap| / sqrt(|chunk tokens|), where
// overlap is the set of query tokens present in the chunk. Dividing by the
// chunk's vocabulary size rewards chunks concentrated around the overlapping
// terms rather than merely long ones. Ties keep insertion order.
func (s *lexicalStore) Query(ctx context.Context, text string, topK int) ([]vectorstore.Hit, error) {
	if topK < 1 {
		return nil, nil
	}

	queryTokens := tokenize(text)
	if len(queryTokens) == 0 {
		return nil, nil
	}

	s.mtx.RLock()
	defer s.mtx.RUnlock()

	type scored struct {
		entry entry
		score float64
	}

	var candidates []scored

	for _, e := range s.entries {
		overlap := 0
		for token := range queryTokens {
			if _, ok := e.tokens[token]; ok {
				overlap++
			}
		}
		if overlap == 0 {
			continue
		}
		candidates = append(candidates, scored{
			entry: e,
			score: float64(overlap) / math.Sqrt(float64(len(e.tokens))),
		})
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].score > candidates[j].score
	})

	if len(candidates) > topK {
		candidates = candidates[:topK]
	}

	hits := make([]vectorstore.Hit, 0, len(candidates))
	for _, c := range candidates {
		score := c.score
		hits = append(hits, vectorstore.Hit{
			Id:      c.entry.id,
			Score:   &score,
			Payload: c.entry.payload,
		})
	}

	return hits, nil
}

// tokenize extracts the set of unique, case-folded ASCII alphanumeric runs.
// Anything outside a-z0-9, accented letters included, is a token boundary.
func tokenize(text string) map[string]struct{} {
	tokens := map[string]struct{}{}
	fields := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return (r < 'a' || r > 'z') && (r < '0' || r > '9')
	})
	for _, token := range fields {
		tokens[token] = struct{}{}
	}
	return tokens
}

func NewStore(opts ...vectorstore.Option) *lexicalStore {
	options := vectorstore.NewOptions(opts...)

	s := &lexicalStore{
		options: options,
		mtx:     sync.RWMutex{},
		entries: []entry{},
	}

	return s
}
