package atelier

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wearloom/atelier/catalog"
	"github.com/wearloom/atelier/chunker"
	"github.com/wearloom/atelier/internal/config"
)

func testSettings(t *testing.T) *config.Settings {
	t.Helper()

	lines := []string{
		`{"product_id": "SKU-001", "name": "Organic Cotton Jacket", "brand": "Loomwell", "category": "Jackets", "materials": "organic cotton", "description": "Boxy everyday jacket.", "care": "Machine wash cold", "price": 129.5, "sizes": ["S", "M", "L"], "tags": ["organic"]}`,
	}

	path := filepath.Join(t.TempDir(), "products.jsonl")
	require.NoError(t, os.WriteFile(path, []byte(strings.Join(lines, "\n")+"\n"), 0o644))

	return &config.Settings{
		AppName:         "atelier",
		VectorBackend:   "memory",
		ProductDataPath: path,
		ChunkSize:       512,
		ChunkOverlap:    50,
	}
}

func TestFromSettingsMemoryBackend(t *testing.T) {
	ctx := context.Background()

	pipeline, layer := FromSettings(ctx, testSettings(t))

	require.NotNil(t, pipeline)
	assert.True(t, pipeline.Ready())
	assert.False(t, layer.Enabled())
	require.NotNil(t, pipeline.Catalog())
	assert.Equal(t, 1, pipeline.Catalog().Len())

	stored, err := pipeline.Ingest(ctx, []chunker.Record{
		{Text: "Organic cotton jackets wash cold.", Metadata: map[string]any{"doc_id": "care"}},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, stored)

	result, err := pipeline.Query(ctx, "How do I wash the organic cotton jacket?", 0, catalog.Filters{})
	require.NoError(t, err)
	assert.NotEmpty(t, result.Answer)
	assert.NotEmpty(t, result.Context)
}

func TestFromSettingsFallsBackWhenBackendUnreachable(t *testing.T) {
	settings := testSettings(t)
	settings.VectorBackend = "qdrant"
	settings.QdrantUrl = "http://127.0.0.1:1"
	settings.CollectionName = "knowledge_base"
	settings.EmbeddingsDimension = 3
	settings.OpenAIKey = "sk-test"

	pipeline, _ := FromSettings(context.Background(), settings)

	assert.True(t, pipeline.Ready(), "lexical fallback should keep the pipeline ready")
}

func TestFromSettingsWithoutCatalogOrKeys(t *testing.T) {
	settings := testSettings(t)
	settings.ProductDataPath = filepath.Join(t.TempDir(), "missing.jsonl")

	pipeline, _ := FromSettings(context.Background(), settings)

	assert.Nil(t, pipeline.Catalog())

	result, err := pipeline.Query(context.Background(), "Anything in stock?", 0, catalog.Filters{})
	require.NoError(t, err)
	assert.Equal(t, "No supporting information was found to answer this question.", result.Answer)
}
