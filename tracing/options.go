package tracing

import "context"

type Option func(*Options)

type Options struct {
	Endpoint    string
	ServiceName string
	Context     context.Context
}

func WithEndpoint(endpoint string) Option {
	return func(o *Options) {
		o.Endpoint = endpoint
	}
}

func WithServiceName(name string) Option {
	return func(o *Options) {
		o.ServiceName = name
	}
}

func NewOptions(opts ...Option) Options {
	options := Options{
		ServiceName: "atelier",
		Context:     context.Background(),
	}
	for _, opt := range opts {
		opt(&options)
	}
	return options
}
