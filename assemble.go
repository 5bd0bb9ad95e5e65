package atelier

import (
	"context"
	"log/slog"

	"github.com/wearloom/atelier/catalog"
	"github.com/wearloom/atelier/chunker"
	"github.com/wearloom/atelier/embedder"
	googleembedder "github.com/wearloom/atelier/embedder/google"
	openaiembedder "github.com/wearloom/atelier/embedder/openai"
	"github.com/wearloom/atelier/generator"
	anthropicgenerator "github.com/wearloom/atelier/generator/anthropic"
	googlegenerator "github.com/wearloom/atelier/generator/google"
	openaigenerator "github.com/wearloom/atelier/generator/openai"
	"github.com/wearloom/atelier/internal/config"
	"github.com/wearloom/atelier/tracing"
	"github.com/wearloom/atelier/vectorstore"
	"github.com/wearloom/atelier/vectorstore/lexical"
	"github.com/wearloom/atelier/vectorstore/pgvector"
	"github.com/wearloom/atelier/vectorstore/qdrant"
)

// FromSettings assembles a pipeline from environment-driven settings. Every
// collaborator that cannot be built is logged and left out; the pipeline
// itself always comes up and degrades per stage instead.
func FromSettings(ctx context.Context, settings *config.Settings) (*Pipeline, *tracing.Layer) {
	layer := tracing.New(
		tracing.WithEndpoint(settings.TraceEndpoint),
		tracing.WithServiceName(settings.AppName),
	)

	store := buildStore(ctx, settings, buildEmbedder(ctx, settings))

	cat, err := catalog.Load(settings.ProductDataPath)
	if err != nil {
		slog.WarnContext(ctx, "product catalog not loaded", "error", err)
	}

	pipeline := New(
		WithChunker(chunker.New(settings.ChunkSize, settings.ChunkOverlap)),
		WithStore(store),
		WithCatalog(cat),
		WithGenerator(buildGenerator(ctx, settings)),
		WithTracing(layer),
	)

	return pipeline, layer
}

func buildEmbedder(ctx context.Context, settings *config.Settings) embedder.Embedder {
	switch settings.EmbeddingsProvider {
	case "google":
		if len(settings.GoogleKey) == 0 {
			slog.WarnContext(ctx, "no google api key; semantic retrieval disabled")
			return nil
		}

		emb, err := googleembedder.NewEmbedder(
			embedder.WithApiKey(settings.GoogleKey),
			embedder.WithModel(settings.EmbeddingsModel),
		)
		if err != nil {
			slog.ErrorContext(ctx, "failed to create google embedder", "error", err)
			return nil
		}

		return emb
	default:
		if len(settings.OpenAIKey) == 0 {
			slog.WarnContext(ctx, "no openai api key; semantic retrieval disabled")
			return nil
		}

		emb, err := openaiembedder.NewEmbedder(
			embedder.WithApiKey(settings.OpenAIKey),
			embedder.WithModel(settings.EmbeddingsModel),
		)
		if err != nil {
			slog.ErrorContext(ctx, "failed to create openai embedder", "error", err)
			return nil
		}

		return emb
	}
}

// buildStore falls back to the in-memory lexical store when the configured
// backend cannot be reached. The decision is made once, at assembly time.
func buildStore(ctx context.Context, settings *config.Settings, emb embedder.Embedder) vectorstore.VectorStore {
	switch settings.VectorBackend {
	case "memory":
		return lexical.NewStore()
	case "pgvector":
		store, err := pgvector.NewStore(
			vectorstore.WithLocation(settings.PostgresUrl),
			vectorstore.WithCollection(settings.CollectionName),
			vectorstore.WithVectorSize(settings.EmbeddingsDimension),
			vectorstore.WithEmbedder(emb),
		)
		if err != nil {
			slog.WarnContext(ctx, "pgvector store unavailable; falling back to in-memory retrieval", "error", err)
			return lexical.NewStore()
		}

		return store
	default:
		store, err := qdrant.NewStore(
			vectorstore.WithLocation(settings.QdrantUrl),
			vectorstore.WithApiKey(settings.QdrantApiKey),
			vectorstore.WithCollection(settings.CollectionName),
			vectorstore.WithVectorSize(settings.EmbeddingsDimension),
			vectorstore.WithEmbedder(emb),
		)
		if err != nil {
			slog.WarnContext(ctx, "qdrant store unavailable; falling back to in-memory retrieval", "error", err)
			return lexical.NewStore()
		}

		return store
	}
}

func buildGenerator(ctx context.Context, settings *config.Settings) generator.Generator {
	switch settings.LLMProvider {
	case "anthropic":
		if len(settings.AnthropicKey) == 0 {
			slog.WarnContext(ctx, "no anthropic api key; answers degrade to extraction")
			return nil
		}

		return anthropicgenerator.NewGenerator(
			generator.WithApiKey(settings.AnthropicKey),
			generator.WithModel(settings.LLMModel),
		)
	case "google":
		if len(settings.GoogleKey) == 0 {
			slog.WarnContext(ctx, "no google api key; answers degrade to extraction")
			return nil
		}

		gen, err := googlegenerator.NewGenerator(
			generator.WithApiKey(settings.GoogleKey),
			generator.WithModel(settings.LLMModel),
		)
		if err != nil {
			slog.ErrorContext(ctx, "failed to create google generator", "error", err)
			return nil
		}

		return gen
	default:
		if len(settings.OpenAIKey) == 0 {
			slog.WarnContext(ctx, "no openai api key; answers degrade to extraction")
			return nil
		}

		return openaigenerator.NewGenerator(
			generator.WithApiKey(settings.OpenAIKey),
			generator.WithModel(settings.LLMModel),
		)
	}
}
