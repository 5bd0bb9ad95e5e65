package main

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"log"
	"maps"
	"os"
	"path/filepath"

	"github.com/alecthomas/kong"

	"github.com/wearloom/atelier/chunker"
)

var (
	cfg struct {
		Documents    string `help:"Source documents, one JSON object per line" default:"data/documents.jsonl"`
		ChunkSize    int    `help:"Maximum chunk length in characters" default:"512"`
		ChunkOverlap int    `help:"Characters carried over between adjacent chunks" default:"50"`
		Output       string `help:"Where to write the chunked corpus" default:"artifacts/chunked_documents.jsonl"`
	}
)

func main() {
	_ = kong.Parse(&cfg)

	records, err := readRecords(cfg.Documents)
	if err != nil {
		log.Fatalf("failed to read documents: %v", err)
	}

	chunks := chunker.New(cfg.ChunkSize, cfg.ChunkOverlap).Transform(records)

	if err := writeChunks(cfg.Output, chunks); err != nil {
		log.Fatalf("failed to write chunks: %v", err)
	}

	fmt.Printf("Chunked %d documents into %d chunks: %s\n", len(records), len(chunks), cfg.Output)
}

func readRecords(path string) ([]chunker.Record, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	var records []chunker.Record

	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	for scanner.Scan() {
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}

		var document map[string]any
		if err := json.Unmarshal(line, &document); err != nil {
			return nil, err
		}

		records = append(records, chunker.RecordFromMap(document))
	}

	return records, scanner.Err()
}

// writeChunks persists one flat object per chunk: source metadata at the top
// level plus the chunk text and its index.
func writeChunks(path string, chunks []chunker.ChunkRecord) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}

	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	writer := bufio.NewWriter(file)

	encoder := json.NewEncoder(writer)
	for _, chunk := range chunks {
		item := maps.Clone(chunk.Metadata)
		if item == nil {
			item = map[string]any{}
		}
		item["text"] = chunk.Text
		item["chunk_index"] = chunk.SectionIndex

		if err := encoder.Encode(item); err != nil {
			return err
		}
	}

	return writer.Flush()
}
