package main

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"time"

	"github.com/alecthomas/kong"
)

var (
	cfg struct {
		Endpoint string `help:"Ingest endpoint of a running backend" default:"http://localhost:8000/api/ingest"`
		Path     string `help:"Documents to push, one JSON object per line" default:"data/documents.jsonl"`
		ApiKey   string `help:"X-API-Key header value, when the backend requires one" default:""`
	}
)

func main() {
	_ = kong.Parse(&cfg)

	documents, err := loadDocuments(cfg.Path)
	if err != nil {
		log.Fatalf("❌ failed to load documents: %v", err)
	}

	count, err := push(cfg.Endpoint, cfg.ApiKey, documents)
	if err != nil {
		log.Fatalf("❌ failed to ingest: %v", err)
	}

	fmt.Printf("✅ Ingested %d chunks from %d documents\n", count, len(documents))
}

func loadDocuments(path string) ([]map[string]any, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	var documents []map[string]any

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

		documents = append(documents, document)
	}

	return documents, scanner.Err()
}

func push(endpoint, apiKey string, documents []map[string]any) (int, error) {
	body, err := json.Marshal(map[string]any{"documents": documents})
	if err != nil {
		return 0, err
	}

	req, err := http.NewRequest(http.MethodPost, endpoint, bytes.NewBuffer(body))
	if err != nil {
		return 0, err
	}

	req.Header.Set("Content-Type", "application/json")
	if len(apiKey) > 0 {
		req.Header.Set("X-API-Key", apiKey)
	}

	client := &http.Client{Timeout: 120 * time.Second}

	resp, err := client.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		b, _ := io.ReadAll(resp.Body)
		return 0, fmt.Errorf("status: %s body: %s", resp.Status, string(b))
	}

	var res struct {
		RecordsIngested int `json:"records_ingested"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&res); err != nil {
		return 0, err
	}

	return res.RecordsIngested, nil
}
