package atelier

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"go.opentelemetry.io/otel/attribute"

	"github.com/wearloom/atelier/catalog"
	"github.com/wearloom/atelier/chunker"
	"github.com/wearloom/atelier/vectorstore"
)

const (
	noContextAnswer  = "No supporting information was found to answer this question."
	fallbackPreamble = "No language model is configured. Here is the most relevant context that was retrieved:"

	maxProductContext = 3

	promptTemplate = `You are an assistant for a sustainable fashion brand. Use the provided context to answer the question.

Context:
%s

Question: %s`
)

// Result is the answer to one question plus everything needed to audit it.
type Result struct {
	Answer   string        `json:"answer"`
	Context  []ContextItem `json:"context"`
	TraceId  string        `json:"trace_id,omitempty"`
	TraceUrl string        `json:"trace_url,omitempty"`
}

// Pipeline is the retrieve-then-generate answering engine. Both stages always
// run; each degrades internally when its collaborator is missing rather than
// failing the request.
type Pipeline struct {
	options Options
}

func New(opts ...Option) *Pipeline {
	options := NewOptions(opts...)

	return &Pipeline{
		options: options,
	}
}

// Ready reports whether a vector store was constructible.
func (p *Pipeline) Ready() bool {
	return p.options.Store != nil
}

// Catalog exposes the product catalog, nil when none was loaded.
func (p *Pipeline) Catalog() *catalog.Catalog {
	return p.options.Catalog
}

// Ingest chunks the records and writes them to the vector store, returning
// how many chunks were stored.
func (p *Pipeline) Ingest(ctx context.Context, records []chunker.Record) (int, error) {
	if p.options.Store == nil {
		return 0, vectorstore.ErrUnavailable
	}

	_, span := p.options.Tracing.Span(ctx, "chunk_documents", attribute.Int("count", len(records)))
	chunks := p.options.Chunker.Transform(records)
	span.SetAttribute("chunks", len(chunks))
	span.End(nil)

	stored, err := p.options.Store.Upsert(ctx, chunks)
	if err != nil {
		slog.ErrorContext(ctx, "failed to upsert chunks", "error", err)
		return 0, err
	}

	return stored, nil
}

// Retrieve gathers context for a question: vector store hits first, in rank
// order, then up to three catalog products. A store failure degrades to an
// empty document list since product context may still carry the answer.
func (p *Pipeline) Retrieve(ctx context.Context, question string, topK int, filters catalog.Filters) []ContextItem {
	if topK < 1 {
		topK = p.options.TopK
	}

	var items []ContextItem

	if p.options.Store != nil {
		retrieveCtx, span := p.options.Tracing.Span(ctx, "vector_retrieve",
			attribute.String("query", question),
			attribute.Int("top_k", topK),
		)

		hits, err := p.options.Store.Query(retrieveCtx, question, topK)

		span.SetAttribute("documents", len(hits))
		span.End(err)

		if err != nil {
			slog.ErrorContext(ctx, "vector retrieval failed", "error", err)
		}

		for _, hit := range hits {
			items = append(items, documentItem(hit))
		}
	}

	items = append(items, p.productContext(question, filters)...)

	return items
}

func (p *Pipeline) productContext(question string, filters catalog.Filters) []ContextItem {
	if p.options.Catalog == nil {
		return nil
	}

	var products []catalog.Product
	if !filters.Empty() {
		products = p.options.Catalog.Search(filters)
	} else {
		products = p.options.Catalog.LookupFromText(question)
	}

	if len(products) > maxProductContext {
		products = products[:maxProductContext]
	}

	items := make([]ContextItem, 0, len(products))
	for _, product := range products {
		items = append(items, productItem(product))
	}

	return items
}

// Generate synthesizes an answer from the context items. Without any usable
// context it returns the sentinel answer; without a language model it returns
// a deterministic extract of the context. Neither case is an error.
func (p *Pipeline) Generate(ctx context.Context, question string, items []ContextItem) string {
	rendered := promptContext(items)
	if len(rendered) == 0 {
		return noContextAnswer
	}

	if p.options.Generator == nil {
		return extractiveFallback(items)
	}

	prompt := fmt.Sprintf(promptTemplate, rendered, question)

	generateCtx, span := p.options.Tracing.Span(ctx, "llm_generate",
		attribute.Int("question_length", len(question)),
	)

	answer, err := p.options.Generator.Generate(generateCtx, prompt)

	span.End(err)

	if err != nil {
		slog.ErrorContext(ctx, "answer generation failed", "error", err)
		return extractiveFallback(items)
	}

	return answer
}

// extractiveFallback is the answer of last resort: a fixed preamble plus the
// first two non-empty context snippets.
func extractiveFallback(items []ContextItem) string {
	parts := []string{fallbackPreamble}

	count := 0
	for _, item := range items {
		if len(strings.TrimSpace(item.Text)) == 0 {
			continue
		}
		parts = append(parts, item.Text)
		count++
		if count == 2 {
			break
		}
	}

	return strings.Join(parts, "\n\n")
}

// Query answers one question end to end under a root span. Retrieve and
// Generate each run exactly once; the only error returned is the caller's
// own cancellation.
func (p *Pipeline) Query(ctx context.Context, question string, topK int, filters catalog.Filters) (*Result, error) {
	ctx, span, handle := p.options.Tracing.Run(ctx, "rag_query",
		attribute.String("question", question),
	)

	var runErr error
	defer func() {
		span.End(runErr)
	}()

	items := p.Retrieve(ctx, question, topK, filters)

	if err := ctx.Err(); err != nil {
		runErr = err
		return nil, err
	}

	answer := p.Generate(ctx, question, items)

	span.SetAttribute("context_items", len(items))

	if items == nil {
		items = []ContextItem{}
	}

	return &Result{
		Answer:   answer,
		Context:  items,
		TraceId:  handle.TraceId,
		TraceUrl: handle.TraceUrl,
	}, nil
}
