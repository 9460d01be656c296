package embedclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	mditerrors "github.com/mditgo/mditgo/internal/errors"
)

const defaultOllamaHost = "http://localhost:11434"

// ollamaEmbedder is a thin net/http wrapper over Ollama's embedding API.
// No retry machinery here; retry policy is left to the caller.
type ollamaEmbedder struct {
	client *http.Client
	host   string
	model  string
}

var _ Embedder = (*ollamaEmbedder)(nil)

func newOllamaEmbedder(model, baseURL string, timeout time.Duration) *ollamaEmbedder {
	host := strings.TrimRight(baseURL, "/")
	if host == "" {
		host = defaultOllamaHost
	}
	return &ollamaEmbedder{
		client: &http.Client{Timeout: timeout},
		host:   host,
		model:  model,
	}
}

type ollamaEmbedRequest struct {
	Model string `json:"model"`
	Input string `json:"input"`
}

type ollamaEmbedResponse struct {
	Embeddings [][]float64 `json:"embeddings"`
}

func (e *ollamaEmbedder) Generate(ctx context.Context, text string) (Vector, error) {
	reqBody, err := json.Marshal(ollamaEmbedRequest{Model: e.model, Input: text})
	if err != nil {
		return Vector{}, mditerrors.Wrap(mditerrors.CodeInternalError, err, "embedclient: marshaling ollama request")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.host+"/api/embed", bytes.NewReader(reqBody))
	if err != nil {
		return Vector{}, mditerrors.Wrap(mditerrors.CodeInternalError, err, "embedclient: building ollama request")
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := e.client.Do(req)
	if err != nil {
		return Vector{}, mditerrors.Wrap(mditerrors.CodeInternalError, err, "embedclient: calling ollama")
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return Vector{}, mditerrors.New(mditerrors.CodeInternalError, fmt.Sprintf("embedclient: ollama returned %d: %s", resp.StatusCode, string(body)))
	}

	var parsed ollamaEmbedResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return Vector{}, mditerrors.Wrap(mditerrors.CodeInternalError, err, "embedclient: decoding ollama response")
	}
	if len(parsed.Embeddings) == 0 {
		return Vector{}, mditerrors.New(mditerrors.CodeInternalError, "embedclient: ollama returned no embeddings")
	}

	raw := make([]float32, len(parsed.Embeddings[0]))
	for i, v := range parsed.Embeddings[0] {
		raw[i] = float32(v)
	}
	return generateAndNormalize(raw)
}

func (e *ollamaEmbedder) Provider() string { return "ollama" }
func (e *ollamaEmbedder) Model() string    { return e.model }
