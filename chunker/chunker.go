package chunker

import (
	"maps"
	"strings"
	"unicode/utf8"

	getsafe "github.com/wearloom/atelier/util/get_safe"
)

const (
	DefaultChunkSize    = 512
	DefaultChunkOverlap = 50
)

// defaultSeparators is ordered from the most to the least semantically
// meaningful boundary. The empty separator splits into single characters and
// guarantees the recursion terminates.
var defaultSeparators = []string{"\n\n", "\n", " ", ""}

// Record is one raw document handed to ingestion: free text plus whatever
// metadata the caller attached (doc_id, title, ...).
type Record struct {
	Text     string
	Metadata map[string]any
}

// ChunkRecord is one bounded, possibly overlapping piece of a Record. Every
// non-text field of the source record is carried on every chunk.
type ChunkRecord struct {
	Text         string
	SourceDocId  string
	SectionIndex int
	Metadata     map[string]any
}

// RecordFromMap lifts a decoded JSON object into a Record. The "text" key
// becomes the body; everything else is metadata.
func RecordFromMap(m map[string]any) Record {
	metadata := make(map[string]any, len(m))
	for k, v := range m {
		if k == "text" {
			continue
		}
		metadata[k] = v
	}
	return Record{
		Text:     getsafe.String(m, "text"),
		Metadata: metadata,
	}
}

// Chunker splits raw text into overlapping segments bounded by ChunkSize.
// ChunkOverlap must be smaller than ChunkSize; validating that is the
// caller's configuration problem, not ours.
type Chunker struct {
	chunkSize    int
	chunkOverlap int
	separators   []string
}

func New(chunkSize, chunkOverlap int) *Chunker {
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}
	if chunkOverlap < 0 {
		chunkOverlap = DefaultChunkOverlap
	}
	return &Chunker{
		chunkSize:    chunkSize,
		chunkOverlap: chunkOverlap,
		separators:   defaultSeparators,
	}
}

// Split divides text into segments of at most chunkSize characters, keeping
// chunkOverlap characters of context between adjacent segments. Splitting
// prefers paragraph breaks, then line breaks, then spaces, then single
// characters, recursively subdividing any piece that is still too large.
// The same input always yields the same segments.
func (c *Chunker) Split(text string) []string {
	return c.splitText(text, c.separators)
}

// Transform splits every record and fans its metadata out onto each chunk.
// SectionIndex is the 0-based position of the chunk within its source record.
func (c *Chunker) Transform(records []Record) []ChunkRecord {
	var chunked []ChunkRecord
	for _, record := range records {
		docId := getsafe.String(record.Metadata, "doc_id")
		for idx, segment := range c.Split(record.Text) {
			chunked = append(chunked, ChunkRecord{
				Text:         segment,
				SourceDocId:  docId,
				SectionIndex: idx,
				Metadata:     maps.Clone(record.Metadata),
			})
		}
	}
	return chunked
}

func (c *Chunker) splitText(text string, separators []string) []string {
	separator := separators[len(separators)-1]
	var remaining []string
	for i, s := range separators {
		if s == "" {
			separator = s
			break
		}
		if strings.Contains(text, s) {
			separator = s
			remaining = separators[i+1:]
			break
		}
	}

	var chunks []string
	var short []string

	for _, piece := range splitOn(text, separator) {
		if utf8.RuneCountInString(piece) < c.chunkSize {
			short = append(short, piece)
			continue
		}
		if len(short) > 0 {
			chunks = append(chunks, c.mergeSplits(short, separator)...)
			short = nil
		}
		if len(remaining) == 0 {
			// No finer separator left; an atomic unit may exceed chunkSize.
			chunks = append(chunks, piece)
		} else {
			chunks = append(chunks, c.splitText(piece, remaining)...)
		}
	}

	if len(short) > 0 {
		chunks = append(chunks, c.mergeSplits(short, separator)...)
	}

	return chunks
}

// mergeSplits packs consecutive pieces into chunks of at most chunkSize
// characters. Before starting a new chunk it pops pieces off the front of the
// running window until at most chunkOverlap characters remain, so adjacent
// chunks share that much trailing context.
func (c *Chunker) mergeSplits(pieces []string, separator string) []string {
	sepLen := utf8.RuneCountInString(separator)

	var chunks []string
	var window []string
	total := 0

	for _, piece := range pieces {
		pieceLen := utf8.RuneCountInString(piece)

		if total+pieceLen+joinCost(len(window), sepLen) > c.chunkSize && len(window) > 0 {
			if chunk := joinPieces(window, separator); chunk != "" {
				chunks = append(chunks, chunk)
			}
			for total > c.chunkOverlap ||
				(total+pieceLen+joinCost(len(window), sepLen) > c.chunkSize && total > 0) {
				total -= utf8.RuneCountInString(window[0])
				if len(window) > 1 {
					total -= sepLen
				}
				window = window[1:]
			}
		}

		window = append(window, piece)
		total += pieceLen
		if len(window) > 1 {
			total += sepLen
		}
	}

	if chunk := joinPieces(window, separator); chunk != "" {
		chunks = append(chunks, chunk)
	}

	return chunks
}

// joinCost is the separator cost of appending one more piece to a window of
// the given size.
func joinCost(windowLen, sepLen int) int {
	if windowLen > 0 {
		return sepLen
	}
	return 0
}

func joinPieces(pieces []string, separator string) string {
	return strings.TrimSpace(strings.Join(pieces, separator))
}

func splitOn(text, separator string) []string {
	var raw []string
	if separator == "" {
		raw = strings.Split(text, "")
	} else {
		raw = strings.Split(text, separator)
	}
	splits := raw[:0]
	for _, s := range raw {
		if s != "" {
			splits = append(splits, s)
		}
	}
	return splits
}
