// internal/analysis/client.go
package analysis

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"
)

// Result is one deep-analysis response: the model's free text plus any
// structured data recovered from it.
type Result struct {
	Description string
	Raw         string
	Structured  map[string]interface{}
}

// Analyzer is the deep-analysis collaborator: given a frame and a prompt
// it returns a scene explanation. Failures are surfaced to the
// scheduler's retry logic, never swallowed.
type Analyzer interface {
	Analyze(ctx context.Context, frame []byte, prompt string) (Result, error)
}

// OllamaClient calls a local Ollama server running a vision model.
type OllamaClient struct {
	endpoint string
	model    string
	client   *http.Client
	logger   *zap.Logger
}

// NewOllamaClient creates a client for the given endpoint and model
func NewOllamaClient(endpoint, model string, timeout time.Duration, logger *zap.Logger) *OllamaClient {
	if model == "" {
		model = "llava:7b"
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &OllamaClient{
		endpoint: endpoint,
		model:    model,
		client:   &http.Client{Timeout: timeout},
		logger:   logger,
	}
}

type generateRequest struct {
	Model     string                 `json:"model"`
	Prompt    string                 `json:"prompt"`
	Images    []string               `json:"images"`
	Stream    bool                   `json:"stream"`
	KeepAlive string                 `json:"keep_alive,omitempty"`
	Options   map[string]interface{} `json:"options,omitempty"`
}

type generateResponse struct {
	Response string `json:"response"`
}

// Analyze sends the frame and prompt to the model and extracts the
// response text. Structured JSON embedded in the text is parsed out when
// present; its absence is not an error.
func (c *OllamaClient) Analyze(ctx context.Context, frame []byte, prompt string) (Result, error) {
	payload := generateRequest{
		Model:     c.model,
		Prompt:    prompt,
		Images:    []string{base64.StdEncoding.EncodeToString(frame)},
		Stream:    false,
		KeepAlive: "5m",
		Options: map[string]interface{}{
			"temperature": 0.3,
			"num_predict": 200,
			"num_ctx":     2048,
			"num_thread":  4,
		},
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return Result{}, fmt.Errorf("analysis: marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.endpoint+"/api/generate", bytes.NewReader(body))
	if err != nil {
		return Result{}, fmt.Errorf("analysis: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := c.client.Do(req)
	if err != nil {
		return Result{}, fmt.Errorf("analysis: call model: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return Result{}, fmt.Errorf("analysis: model returned %s: %s", resp.Status, msg)
	}

	var gr generateResponse
	if err := json.NewDecoder(resp.Body).Decode(&gr); err != nil {
		return Result{}, fmt.Errorf("analysis: decode response: %w", err)
	}

	if c.logger != nil {
		c.logger.Debug("deep analysis completed",
			zap.Duration("took", time.Since(start)),
			zap.Int("response_len", len(gr.Response)))
	}

	result := Result{Description: gr.Response, Raw: gr.Response}
	if structured, ok := extractJSON(gr.Response); ok {
		result.Structured = structured
		if desc, ok := structured["description"].(string); ok && desc != "" {
			result.Description = desc
		}
	}

	return result, nil
}

// extractJSON pulls the first-{-to-last-} substring out of model text and
// parses it. Vision models often wrap JSON in prose.
func extractJSON(text string) (map[string]interface{}, bool) {
	start := bytes.IndexByte([]byte(text), '{')
	end := bytes.LastIndexByte([]byte(text), '}')
	if start < 0 || end <= start {
		return nil, false
	}

	var out map[string]interface{}
	if err := json.Unmarshal([]byte(text[start:end+1]), &out); err != nil {
		return nil, false
	}
	return out, true
}
