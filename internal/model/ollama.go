package model

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// OllamaBackend manages residency through Ollama's keep_alive parameter.
type OllamaBackend struct {
	baseURL string
	client  *http.Client
}

func NewOllamaBackend(baseURL string, timeout time.Duration) *OllamaBackend {
	if baseURL == "" {
		baseURL = "http://localhost:11434"
	}
	if timeout <= 0 {
		timeout = 5 * time.Minute
	}
	return &OllamaBackend{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: timeout},
	}
}

type ollamaOptions struct {
	Temperature float64 `json:"temperature"`
	TopP        float64 `json:"top_p"`
	NumPredict  int     `json:"num_predict,omitempty"`
}

type ollamaGenerateRequest struct {
	Model     string         `json:"model"`
	Prompt    string         `json:"prompt"`
	System    string         `json:"system,omitempty"`
	Stream    bool           `json:"stream"`
	Format    string         `json:"format,omitempty"`
	KeepAlive any            `json:"keep_alive,omitempty"`
	Options   *ollamaOptions `json:"options,omitempty"`
}

type ollamaGenerateResponse struct {
	Response string `json:"response"`
	Done     bool   `json:"done"`
}

// Load checks that the weights exist locally and pins them in memory.
func (b *OllamaBackend) Load(ctx context.Context, spec TierSpec) (Model, error) {
	if err := b.show(ctx, spec.Model); err != nil {
		return nil, err
	}
	// An empty prompt loads the model without generating anything.
	if _, err := b.generate(ctx, ollamaGenerateRequest{
		Model:     spec.Model,
		KeepAlive: -1,
	}); err != nil {
		return nil, fmt.Errorf("failed to preload %s: %w", spec.Model, err)
	}
	return &ollamaModel{backend: b, spec: spec}, nil
}

// Unload asks Ollama to evict the weights immediately.
func (b *OllamaBackend) Unload(ctx context.Context, m Model) error {
	if _, err := b.generate(ctx, ollamaGenerateRequest{
		Model:     m.ID(),
		KeepAlive: 0,
	}); err != nil {
		return fmt.Errorf("failed to unload %s: %w", m.ID(), err)
	}
	return nil
}

// Complete runs a one-off completion on name outside the tier lifecycle.
// Ollama's default keep_alive applies, so the weights are not pinned.
func (b *OllamaBackend) Complete(ctx context.Context, name string, req GenerateRequest) (string, error) {
	body := ollamaGenerateRequest{
		Model:  name,
		Prompt: req.Prompt,
		System: req.System,
		Format: req.Format,
	}
	if req.Options != (GenerationOptions{}) {
		body.Options = &ollamaOptions{
			Temperature: req.Options.Temperature,
			TopP:        req.Options.TopP,
			NumPredict:  req.Options.MaxTokens,
		}
	}
	return b.generate(ctx, body)
}

// IsAvailable reports whether the Ollama server answers.
func (b *OllamaBackend) IsAvailable(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, b.baseURL+"/api/tags", nil)
	if err != nil {
		return err
	}
	resp, err := b.client.Do(req)
	if err != nil {
		return fmt.Errorf("Ollama not available: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("Ollama returned status %d", resp.StatusCode)
	}
	return nil
}

func (b *OllamaBackend) show(ctx context.Context, name string) error {
	resp, err := b.post(ctx, "/api/show", map[string]string{"model": name})
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
		return nil
	case http.StatusNotFound:
		return fmt.Errorf("model %s is not available in Ollama (run: ollama pull %s)", name, name)
	default:
		return fmt.Errorf("Ollama returned status %d for %s: %s", resp.StatusCode, name, readSnippet(resp.Body))
	}
}

func (b *OllamaBackend) generate(ctx context.Context, body ollamaGenerateRequest) (string, error) {
	resp, err := b.post(ctx, "/api/generate", body)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("API returned status %d: %s", resp.StatusCode, readSnippet(resp.Body))
	}

	var out ollamaGenerateResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("failed to decode response: %w", err)
	}
	return out.Response, nil
}

func (b *OllamaBackend) post(ctx context.Context, path string, body any) (*http.Response, error) {
	jsonData, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, b.baseURL+path, bytes.NewReader(jsonData))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := b.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	return resp, nil
}

func readSnippet(r io.Reader) string {
	b, _ := io.ReadAll(io.LimitReader(r, 512))
	return strings.TrimSpace(string(b))
}

type ollamaModel struct {
	backend *OllamaBackend
	spec    TierSpec
}

func (m *ollamaModel) ID() string { return m.spec.Model }
func (m *ollamaModel) Tier() Tier { return m.spec.Tier }

// Generate runs one non-streaming completion. Request options override the
// tier defaults only where they are set.
func (m *ollamaModel) Generate(ctx context.Context, req GenerateRequest) (string, error) {
	opts := m.spec.Options
	if req.Options.MaxTokens > 0 {
		opts.MaxTokens = req.Options.MaxTokens
	}
	if req.Options.Temperature > 0 {
		opts.Temperature = req.Options.Temperature
	}
	if req.Options.TopP > 0 {
		opts.TopP = req.Options.TopP
	}

	return m.backend.generate(ctx, ollamaGenerateRequest{
		Model:     m.spec.Model,
		Prompt:    req.Prompt,
		System:    req.System,
		Stream:    false,
		Format:    req.Format,
		KeepAlive: -1,
		Options: &ollamaOptions{
			Temperature: opts.Temperature,
			TopP:        opts.TopP,
			NumPredict:  opts.MaxTokens,
		},
	})
}
