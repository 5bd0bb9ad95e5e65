package atelier

import (
	"strings"

	"github.com/wearloom/atelier/catalog"
	getsafe "github.com/wearloom/atelier/util/get_safe"
	"github.com/wearloom/atelier/vectorstore"
)

const (
	TypeDocument = "document"
	TypeProduct  = "product"

	SourceKnowledgeBase  = "knowledge_base"
	SourceProductCatalog = "product_catalog"
)

// ContextItem is one unified retrieval result handed to answer synthesis:
// either a knowledge-base document chunk or a catalog product. Type is the
// discriminator; the constructors below are the only places that set it.
type ContextItem struct {
	Type     string         `json:"type"`
	Id       string         `json:"id"`
	Title    string         `json:"title"`
	Text     string         `json:"text"`
	Score    *float64       `json:"score,omitempty"`
	Source   string         `json:"source"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

func documentItem(hit vectorstore.Hit) ContextItem {
	title := getsafe.String(hit.Payload, "title")
	if len(title) == 0 {
		title = getsafe.String(hit.Payload, "doc_id")
	}

	metadata := make(map[string]any, len(hit.Payload))
	for k, v := range hit.Payload {
		if k == "text" {
			continue
		}
		metadata[k] = v
	}

	return ContextItem{
		Type:     TypeDocument,
		Id:       hit.Id,
		Title:    title,
		Text:     getsafe.String(hit.Payload, "text"),
		Score:    hit.Score,
		Source:   SourceKnowledgeBase,
		Metadata: metadata,
	}
}

func productItem(product catalog.Product) ContextItem {
	return ContextItem{
		Type:   TypeProduct,
		Id:     product.ProductId,
		Title:  product.Name,
		Text:   product.Summary(),
		Source: SourceProductCatalog,
		Metadata: map[string]any{
			"brand":    product.Brand,
			"category": product.Category,
			"price":    product.Price,
		},
	}
}

// promptContext renders items as "<title-or-type>:\n<text>" blocks separated
// by blank lines. Items with empty text are skipped entirely.
func promptContext(items []ContextItem) string {
	var blocks []string

	for _, item := range items {
		if len(strings.TrimSpace(item.Text)) == 0 {
			continue
		}

		label := item.Title
		if len(label) == 0 {
			label = item.Type
		}

		blocks = append(blocks, label+":\n"+item.Text)
	}

	return strings.Join(blocks, "\n\n")
}
