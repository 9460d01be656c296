package embedclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	mditerrors "github.com/mditgo/mditgo/internal/errors"
)

const defaultOpenAIBaseURL = "https://api.openai.com/v1"

// openAIEmbedder calls an OpenAI-compatible /embeddings endpoint, enriching
// mditgo's provider set beyond an Ollama-only backend, using the same
// net/http-wrapper idiom as ollama.go.
type openAIEmbedder struct {
	client  *http.Client
	baseURL string
	model   string
	apiKey  string
}

var _ Embedder = (*openAIEmbedder)(nil)

func newOpenAIEmbedder(model, baseURL string, timeout time.Duration) *openAIEmbedder {
	base := strings.TrimRight(baseURL, "/")
	if base == "" {
		base = defaultOpenAIBaseURL
	}
	return &openAIEmbedder{
		client:  &http.Client{Timeout: timeout},
		baseURL: base,
		model:   model,
		apiKey:  os.Getenv("OPENAI_API_KEY"),
	}
}

type openAIEmbedRequest struct {
	Model string `json:"model"`
	Input string `json:"input"`
}

type openAIEmbedResponse struct {
	Data []struct {
		Embedding []float64 `json:"embedding"`
	} `json:"data"`
}

func (e *openAIEmbedder) Generate(ctx context.Context, text string) (Vector, error) {
	reqBody, err := json.Marshal(openAIEmbedRequest{Model: e.model, Input: text})
	if err != nil {
		return Vector{}, mditerrors.Wrap(mditerrors.CodeInternalError, err, "embedclient: marshaling openai request")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.baseURL+"/embeddings", bytes.NewReader(reqBody))
	if err != nil {
		return Vector{}, mditerrors.Wrap(mditerrors.CodeInternalError, err, "embedclient: building openai request")
	}
	req.Header.Set("Content-Type", "application/json")
	if e.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+e.apiKey)
	}

	resp, err := e.client.Do(req)
	if err != nil {
		return Vector{}, mditerrors.Wrap(mditerrors.CodeInternalError, err, "embedclient: calling openai")
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return Vector{}, mditerrors.New(mditerrors.CodeInternalError, fmt.Sprintf("embedclient: openai returned %d: %s", resp.StatusCode, string(body)))
	}

	var parsed openAIEmbedResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return Vector{}, mditerrors.Wrap(mditerrors.CodeInternalError, err, "embedclient: decoding openai response")
	}
	if len(parsed.Data) == 0 {
		return Vector{}, mditerrors.New(mditerrors.CodeInternalError, "embedclient: openai returned no embeddings")
	}

	raw := make([]float32, len(parsed.Data[0].Embedding))
	for i, v := range parsed.Data[0].Embedding {
		raw[i] = float32(v)
	}
	return generateAndNormalize(raw)
}

func (e *openAIEmbedder) Provider() string { return "openai" }
func (e *openAIEmbedder) Model() string    { return e.model }
