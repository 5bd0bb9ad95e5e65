package vectorstore

import (
	"context"

	"github.com/wearloom/atelier/embedder"
)

type Option func(*Options)

type Options struct {
	Location   string
	ApiKey     string
	Collection string
	VectorSize int
	Distance   string
	Embedder   embedder.Embedder
	Context    context.Context
}

func WithLocation(loc string) Option {
	return func(o *Options) {
		o.Location = loc
	}
}

func WithApiKey(apiKey string) Option {
	return func(o *Options) {
		o.ApiKey = apiKey
	}
}

func WithCollection(collection string) Option {
	return func(o *Options) {
		o.Collection = collection
	}
}

func WithVectorSize(size int) Option {
	return func(o *Options) {
		o.VectorSize = size
	}
}

func WithDistance(distance string) Option {
	return func(o *Options) {
		o.Distance = distance
	}
}

func WithEmbedder(e embedder.Embedder) Option {
	return func(o *Options) {
		o.Embedder = e
	}
}

func NewOptions(opts ...Option) Options {
	options := Options{
		Context: context.Background(),
	}
	for _, opt := range opts {
		opt(&options)
	}
	return options
}
