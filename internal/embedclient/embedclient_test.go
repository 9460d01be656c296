package embedclient

import (
	"context"
	"encoding/json"
	"math"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestNewRejectsEmptyProviderOrModel(t *testing.T) {
	_, err := New("", "text-embedding", "", 0)
	require.Error(t, err)

	_, err = New("ollama", "", "", 0)
	require.Error(t, err)
}

func TestNewRejectsUnknownProvider(t *testing.T) {
	_, err := New("not-a-real-provider", "m", "", 0)
	require.Error(t, err)
}

func TestOllamaGenerateNormalizesVector(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(ollamaEmbedResponse{Embeddings: [][]float64{{3, 4}}})
	}))
	defer srv.Close()

	e, err := New("ollama", "nomic-embed-text", srv.URL, time.Second)
	require.NoError(t, err)

	vec, err := e.Generate(context.Background(), "hello")
	require.NoError(t, err)
	require.Equal(t, 2, vec.Dim)
	require.Len(t, vec.Bytes, 8)

	x := math.Float32frombits(uint32(vec.Bytes[0]) | uint32(vec.Bytes[1])<<8 | uint32(vec.Bytes[2])<<16 | uint32(vec.Bytes[3])<<24)
	require.InDelta(t, 0.6, x, 1e-4)
}

func TestOllamaGenerateFailsOnEmptyEmbeddings(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(ollamaEmbedResponse{Embeddings: nil})
	}))
	defer srv.Close()

	e, err := New("ollama", "m", srv.URL, time.Second)
	require.NoError(t, err)
	_, err = e.Generate(context.Background(), "x")
	require.Error(t, err)
}

func TestOllamaGenerateFailsOnNonFiniteValue(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"embeddings":[[1, "NaN"]]}`))
	}))
	defer srv.Close()

	e, err := New("ollama", "m", srv.URL, time.Second)
	require.NoError(t, err)
	_, err = e.Generate(context.Background(), "x")
	require.Error(t, err)
}

func TestOllamaGenerateFailsOnZeroVector(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(ollamaEmbedResponse{Embeddings: [][]float64{{0, 0, 0}}})
	}))
	defer srv.Close()

	e, err := New("ollama", "m", srv.URL, time.Second)
	require.NoError(t, err)
	_, err = e.Generate(context.Background(), "x")
	require.Error(t, err)
}

func TestResolveEmbeddingDimensionProbesOnce(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		_ = json.NewEncoder(w).Encode(ollamaEmbedResponse{Embeddings: [][]float64{{1, 2, 3, 4}}})
	}))
	defer srv.Close()

	e, err := New("ollama", "m", srv.URL, time.Second)
	require.NoError(t, err)

	dim, err := ResolveEmbeddingDimension(context.Background(), e)
	require.NoError(t, err)
	require.Equal(t, 4, dim)
	require.Equal(t, 1, calls)
}

func TestOpenAIGenerateNormalizesVector(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(openAIEmbedResponse{Data: []struct {
			Embedding []float64 `json:"embedding"`
		}{{Embedding: []float64{1, 0}}}})
	}))
	defer srv.Close()

	e, err := New("openai", "text-embedding-3-small", srv.URL, time.Second)
	require.NoError(t, err)

	vec, err := e.Generate(context.Background(), "hello")
	require.NoError(t, err)
	require.Equal(t, 2, vec.Dim)
}
