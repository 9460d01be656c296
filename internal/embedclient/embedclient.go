// Package embedclient is a thin abstraction over one or more embedding HTTP
// providers, producing L2-normalized float32 vectors of provider-defined
// dimension. It trades thermal-throttling/retry machinery for a plain
// generate-validate-normalize pipeline.
package embedclient

import (
	"context"
	"encoding/binary"
	"fmt"
	"math"
	"strings"
	"sync"
	"time"

	mditerrors "github.com/mditgo/mditgo/internal/errors"
)

// DefaultProvider is the standard provider name used when the caller
// supplies an empty provider string to SetEmbeddingConfig.
const DefaultProvider = "ollama"

// Vector is a generated embedding: its dimension and its little-endian
// float32 byte serialization, ready to be written to segment_vec.embedding.
type Vector struct {
	Dim   int
	Bytes []byte
}

// Embedder generates vector embeddings for text against one configured
// provider+model pair. Each backend is a capability interface
// implementation, not a shared base type.
type Embedder interface {
	Generate(ctx context.Context, text string) (Vector, error)
	Provider() string
	Model() string
}

// Process-wide HTTP defaults for every embedder constructed with an empty
// baseURL or zero timeout. Set once via Configure; immutable afterward.
var (
	configureOnce  sync.Once
	defaultBaseURL string
	defaultTimeout time.Duration
)

// Configure installs the process-wide base URL and timeout defaults for
// embedding HTTP clients. Only the first call takes effect.
func Configure(baseURL string, timeout time.Duration) {
	configureOnce.Do(func() {
		defaultBaseURL = baseURL
		defaultTimeout = timeout
	})
}

// New constructs the embedder for provider+model. provider and model must
// both be non-empty; an empty provider does not default here (defaulting
// to DefaultProvider is the storage layer's responsibility when persisting
// config).
func New(provider, model, baseURL string, timeout time.Duration) (Embedder, error) {
	provider = strings.TrimSpace(provider)
	model = strings.TrimSpace(model)
	if provider == "" {
		return nil, mditerrors.New(mditerrors.CodeInternalError, "embedclient: provider must not be empty")
	}
	if model == "" {
		return nil, mditerrors.New(mditerrors.CodeInternalError, "embedclient: model must not be empty")
	}
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	if timeout <= 0 {
		timeout = 60 * time.Second
	}

	switch strings.ToLower(provider) {
	case "ollama":
		return newOllamaEmbedder(model, baseURL, timeout), nil
	case "openai", "openai-compatible":
		return newOpenAIEmbedder(model, baseURL, timeout), nil
	default:
		return nil, mditerrors.New(mditerrors.CodeInternalError, fmt.Sprintf("embedclient: unknown provider %q", provider))
	}
}

// generateAndNormalize rejects an empty or non-finite raw vector,
// L2-normalizes it, and serializes it to little-endian float32 bytes. This
// is the shared tail every backend funnels through after obtaining a raw
// []float32 from its provider.
func generateAndNormalize(raw []float32) (Vector, error) {
	if len(raw) == 0 {
		return Vector{}, mditerrors.New(mditerrors.CodeInternalError, "embedclient: provider returned an empty vector")
	}
	for _, v := range raw {
		if math.IsNaN(float64(v)) || math.IsInf(float64(v), 0) {
			return Vector{}, mditerrors.New(mditerrors.CodeInternalError, "embedclient: provider returned a non-finite value")
		}
	}

	normalized, err := l2Normalize(raw)
	if err != nil {
		return Vector{}, err
	}

	return Vector{Dim: len(normalized), Bytes: encodeFloat32LE(normalized)}, nil
}

// l2Normalize scales v to unit length, failing if its norm is zero or
// non-finite.
func l2Normalize(v []float32) ([]float32, error) {
	var sumSquares float64
	for _, x := range v {
		sumSquares += float64(x) * float64(x)
	}
	norm := math.Sqrt(sumSquares)
	if norm == 0 || math.IsNaN(norm) || math.IsInf(norm, 0) {
		return nil, mditerrors.New(mditerrors.CodeInternalError, "embedclient: vector norm is zero or non-finite")
	}

	out := make([]float32, len(v))
	for i, x := range v {
		out[i] = float32(float64(x) / norm)
	}
	return out, nil
}

func encodeFloat32LE(v []float32) []byte {
	out := make([]byte, len(v)*4)
	for i, x := range v {
		binary.LittleEndian.PutUint32(out[i*4:i*4+4], math.Float32bits(x))
	}
	return out
}

// probeText is the fixed input used to detect a provider+model's embedding
// dimension.
const probeText = "dimension probe"

// ResolveEmbeddingDimension generates a single probe embedding and returns
// its dimension. Intended to be called once per indexing run to validate
// configuration.
func ResolveEmbeddingDimension(ctx context.Context, embedder Embedder) (int, error) {
	vec, err := embedder.Generate(ctx, probeText)
	if err != nil {
		return 0, err
	}
	return vec.Dim, nil
}
