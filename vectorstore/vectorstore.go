package vectorstore

import (
	"context"
	"errors"

	"github.com/wearloom/atelier/chunker"
)

// ErrUnavailable reports that no backing index could be constructed or
// reached. Callers fall back to another backend instead of crashing.
var ErrUnavailable = errors.New("vector store unavailable")

// Hit is one retrieved chunk, best-first. Score is nil when the backend does
// not report a relevance score.
type Hit struct {
	Id      string
	Score   *float64
	Payload map[string]any
}

// VectorStore indexes chunk records and retrieves the closest ones for a
// query. Upsert reports how many chunks were actually stored.
type VectorStore interface {
	Upsert(ctx context.Context, chunks []chunker.ChunkRecord) (int, error)
	Query(ctx context.Context, text string, topK int) ([]Hit, error)
}

// Payload renders a chunk the way every backend stores it: the record's
// metadata plus the chunk text and its provenance fields. Reserved keys win
// over metadata on collision.
func Payload(chunk chunker.ChunkRecord) map[string]any {
	payload := make(map[string]any, len(chunk.Metadata)+3)
	for k, v := range chunk.Metadata {
		payload[k] = v
	}
	payload["text"] = chunk.Text
	payload["doc_id"] = chunk.SourceDocId
	payload["section_index"] = chunk.SectionIndex
	return payload
}
