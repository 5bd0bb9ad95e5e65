package openai

import (
	"context"
	"errors"

	"github.com/sashabaranov/go-openai"
	"github.com/wearloom/atelier/embedder"
)

type openAIEmbedder struct {
	options embedder.Options
	client  *openai.Client
}

func (e *openAIEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	vectors, err := e.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vectors[0], nil
}

func (e *openAIEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	rsp, err := e.client.CreateEmbeddings(ctx, openai.EmbeddingRequest{
		Input: texts,
		Model: openai.EmbeddingModel(e.options.Model),
	})
	if err != nil {
		return nil, err
	}

	if len(rsp.Data) != len(texts) {
		return nil, errors.New("no response from OpenAI")
	}

	vectors := make([][]float32, len(texts))
	for _, data := range rsp.Data {
		if data.Index < 0 || data.Index >= len(texts) || len(data.Embedding) == 0 {
			return nil, errors.New("no response from OpenAI")
		}
		vectors[data.Index] = data.Embedding
	}

	return vectors, nil
}

func NewEmbedder(opts ...embedder.Option) (embedder.Embedder, error) {
	options := embedder.NewOptions(opts...)

	e := &openAIEmbedder{
		options: options,
	}

	client := openai.NewClient(options.ApiKey)

	e.client = client

	return e, nil
}
