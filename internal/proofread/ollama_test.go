package proofread

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/valpere/pagetran/internal/apperrors"
	"github.com/valpere/pagetran/internal/model"
)

type generateRequest struct {
	Model     string          `json:"model"`
	Prompt    string          `json:"prompt"`
	Stream    bool            `json:"stream"`
	Format    string          `json:"format"`
	KeepAlive json.RawMessage `json:"keep_alive"`
}

func newServer(t *testing.T, response string, status int) (*httptest.Server, *generateRequest) {
	t.Helper()
	var got generateRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/generate" {
			t.Errorf("path = %s", r.URL.Path)
		}
		json.NewDecoder(r.Body).Decode(&got)
		if status != http.StatusOK {
			w.WriteHeader(status)
			return
		}
		json.NewEncoder(w).Encode(map[string]any{"response": response, "done": true})
	}))
	t.Cleanup(srv.Close)
	return srv, &got
}

func TestOllamaProofreader_Issues(t *testing.T) {
	srv, got := newServer(t, `{"has_issues": true, "corrected_text": "主軸を停止する。", "issues": [{"type": "terminology", "description": "spindle", "suggestion": "主軸"}]}`, http.StatusOK)
	p := NewOllamaProofreader(model.NewOllamaBackend(srv.URL+"/", 10*time.Second), "qwen2.5:7b-instruct", "en", "ja")

	res, err := p.Proofread(context.Background(), "Stop the spindle.", "スピンドルを停止する。", 3)
	if err != nil {
		t.Fatalf("Proofread: %v", err)
	}
	if got.Model != "qwen2.5:7b-instruct" || got.Format != "json" || got.Stream || got.KeepAlive != nil {
		t.Errorf("request = %+v", got)
	}
	if !strings.Contains(got.Prompt, "Stop the spindle.") || !strings.Contains(got.Prompt, "Japanese") {
		t.Errorf("prompt missing content: %q", got.Prompt)
	}
	if !res.HasIssues || len(res.Issues) != 1 || res.CorrectedText != "主軸を停止する。" {
		t.Errorf("result = %+v", res)
	}
	if res.Issues[0].Type != "terminology" || res.Issues[0].Suggestion != "主軸" {
		t.Errorf("issue = %+v", res.Issues[0])
	}
}

func TestOllamaProofreader_NoIssuesKeepsTranslation(t *testing.T) {
	srv, _ := newServer(t, "<think>looks fine</think>\n{\"has_issues\": false, \"corrected_text\": \"something else\"}", http.StatusOK)
	p := NewOllamaProofreader(model.NewOllamaBackend(srv.URL, 10*time.Second), "m", "en", "ja")

	res, err := p.Proofread(context.Background(), "Stop.", "停止。", 1)
	if err != nil {
		t.Fatalf("Proofread: %v", err)
	}
	if res.HasIssues || res.CorrectedText != "停止。" {
		t.Errorf("result = %+v", res)
	}
	if res.Issues == nil {
		t.Error("issues should be an empty slice, not nil")
	}
}

func TestOllamaProofreader_EmptyTranslation(t *testing.T) {
	p := NewOllamaProofreader(model.NewOllamaBackend("http://127.0.0.1:1", 10*time.Second), "m", "en", "ja")
	_, err := p.Proofread(context.Background(), "Stop.", "  ", 1)
	if !apperrors.IsKind(err, apperrors.KindValidation) {
		t.Errorf("err = %v, want validation error", err)
	}
}

func TestOllamaProofreader_Errors(t *testing.T) {
	tests := []struct {
		name     string
		response string
		status   int
	}{
		{"server error", "", http.StatusInternalServerError},
		{"not json", "The translation looks good.", http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv, _ := newServer(t, tt.response, tt.status)
			p := NewOllamaProofreader(model.NewOllamaBackend(srv.URL, 10*time.Second), "m", "en", "ja")
			if _, err := p.Proofread(context.Background(), "a", "b", 1); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestOllamaProofreader_ContextCancelled(t *testing.T) {
	srv, _ := newServer(t, `{"has_issues": false}`, http.StatusOK)
	p := NewOllamaProofreader(model.NewOllamaBackend(srv.URL, 10*time.Second), "m", "en", "ja")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := p.Proofread(ctx, "a", "b", 1); err == nil {
		t.Error("expected error for cancelled context")
	}
}
