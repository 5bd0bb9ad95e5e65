package atelier

import (
	"context"

	"github.com/wearloom/atelier/catalog"
	"github.com/wearloom/atelier/chunker"
	"github.com/wearloom/atelier/generator"
	"github.com/wearloom/atelier/tracing"
	"github.com/wearloom/atelier/vectorstore"
)

const DefaultTopK = 5

type Option func(*Options)

// Options carries the pipeline's collaborators. Store, Catalog, and
// Generator may stay nil; each stage degrades on its own when its
// collaborator is missing.
type Options struct {
	Chunker   *chunker.Chunker
	Store     vectorstore.VectorStore
	Catalog   *catalog.Catalog
	Generator generator.Generator
	Tracing   *tracing.Layer
	TopK      int
	Context   context.Context
}

func WithChunker(c *chunker.Chunker) Option {
	return func(o *Options) {
		o.Chunker = c
	}
}

func WithStore(s vectorstore.VectorStore) Option {
	return func(o *Options) {
		o.Store = s
	}
}

func WithCatalog(c *catalog.Catalog) Option {
	return func(o *Options) {
		o.Catalog = c
	}
}

func WithGenerator(g generator.Generator) Option {
	return func(o *Options) {
		o.Generator = g
	}
}

func WithTracing(l *tracing.Layer) Option {
	return func(o *Options) {
		o.Tracing = l
	}
}

func WithTopK(topK int) Option {
	return func(o *Options) {
		o.TopK = topK
	}
}

func NewOptions(opts ...Option) Options {
	options := Options{
		TopK:    DefaultTopK,
		Context: context.Background(),
	}
	for _, opt := range opts {
		opt(&options)
	}

	if options.Chunker == nil {
		options.Chunker = chunker.New(chunker.DefaultChunkSize, chunker.DefaultChunkOverlap)
	}

	if options.Tracing == nil {
		options.Tracing = tracing.New()
	}

	if options.TopK < 1 {
		options.TopK = DefaultTopK
	}

	return options
}
