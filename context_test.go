package atelier

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wearloom/atelier/catalog"
	"github.com/wearloom/atelier/vectorstore"
)

func TestDocumentItem(t *testing.T) {
	score := 0.9

	item := documentItem(vectorstore.Hit{
		Id:    "p-1",
		Score: &score,
		Payload: map[string]any{
			"text":   "chunk text",
			"doc_id": "doc-9",
			"extra":  "kept",
		},
	})

	assert.Equal(t, TypeDocument, item.Type)
	assert.Equal(t, "p-1", item.Id)
	assert.Equal(t, "doc-9", item.Title)
	assert.Equal(t, "chunk text", item.Text)
	assert.Equal(t, SourceKnowledgeBase, item.Source)
	assert.Equal(t, "kept", item.Metadata["extra"])
	assert.NotContains(t, item.Metadata, "text")
	require.NotNil(t, item.Score)
	assert.InDelta(t, 0.9, *item.Score, 1e-9)
}

func TestDocumentItemPrefersTitle(t *testing.T) {
	item := documentItem(vectorstore.Hit{
		Payload: map[string]any{"title": "Care Guide", "doc_id": "doc-9"},
	})

	assert.Equal(t, "Care Guide", item.Title)
}

func TestProductItem(t *testing.T) {
	item := productItem(catalog.Product{
		ProductId: "SKU-001",
		Name:      "Organic Cotton Jacket",
		Brand:     "Loomwell",
		Category:  "Jackets",
		Materials: "organic cotton",
		Care:      "Machine wash cold",
		Price:     129.5,
	})

	assert.Equal(t, TypeProduct, item.Type)
	assert.Equal(t, "SKU-001", item.Id)
	assert.Equal(t, "Organic Cotton Jacket", item.Title)
	assert.Equal(t, SourceProductCatalog, item.Source)
	assert.Nil(t, item.Score)
	assert.Equal(t, "Loomwell", item.Metadata["brand"])
	assert.Contains(t, item.Text, "Brand: Loomwell")
	assert.Contains(t, item.Text, "Sizes: N/A")
	assert.Contains(t, item.Text, "Tags: None")
}

func TestPromptContext(t *testing.T) {
	items := []ContextItem{
		{Type: TypeDocument, Title: "Care Guide", Text: "Wash cold."},
		{Type: TypeDocument, Title: "Empty", Text: "   "},
		{Type: TypeProduct, Text: "Brand: Loomwell"},
	}

	got := promptContext(items)

	assert.Equal(t, "Care Guide:\nWash cold.\n\nproduct:\nBrand: Loomwell", got)
}

func TestPromptContextEmpty(t *testing.T) {
	assert.Empty(t, promptContext(nil))
	assert.Empty(t, promptContext([]ContextItem{{Type: TypeDocument, Text: ""}}))
}
