package model

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"
)

type recordedRequest struct {
	Path string
	Body map[string]any
}

func newOllamaServer(t *testing.T, missing map[string]bool, response string) (*httptest.Server, *[]recordedRequest) {
	t.Helper()
	var mu sync.Mutex
	var reqs []recordedRequest

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		json.NewDecoder(r.Body).Decode(&body)
		mu.Lock()
		reqs = append(reqs, recordedRequest{Path: r.URL.Path, Body: body})
		mu.Unlock()

		switch r.URL.Path {
		case "/api/show":
			if missing[body["model"].(string)] {
				w.WriteHeader(http.StatusNotFound)
				w.Write([]byte(`{"error":"model not found"}`))
				return
			}
			w.Write([]byte(`{"modelfile":""}`))
		case "/api/generate":
			json.NewEncoder(w).Encode(map[string]any{"response": response, "done": true})
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	t.Cleanup(server.Close)
	return server, &reqs
}

func TestOllamaBackend_LoadGenerateUnload(t *testing.T) {
	server, reqs := newOllamaServer(t, nil, "スピンドル")
	backend := NewOllamaBackend(server.URL+"/", 5*time.Second)
	spec := DefaultCatalog()[TierHigh]
	ctx := context.Background()

	mdl, err := backend.Load(ctx, spec)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if mdl.ID() != "qwen3:14b" || mdl.Tier() != TierHigh {
		t.Errorf("unexpected model %s/%s", mdl.ID(), mdl.Tier())
	}

	out, err := mdl.Generate(ctx, GenerateRequest{System: "sys", Prompt: "Spindle"})
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	if out != "スピンドル" {
		t.Errorf("Generate = %q", out)
	}

	if err := backend.Unload(ctx, mdl); err != nil {
		t.Fatalf("Unload failed: %v", err)
	}

	got := *reqs
	if len(got) != 4 {
		t.Fatalf("expected 4 requests, got %d: %+v", len(got), got)
	}

	if got[0].Path != "/api/show" || got[0].Body["model"] != "qwen3:14b" {
		t.Errorf("first request should check the model, got %+v", got[0])
	}

	preload := got[1]
	if preload.Path != "/api/generate" || preload.Body["prompt"] != "" || preload.Body["keep_alive"] != float64(-1) {
		t.Errorf("unexpected preload request %+v", preload)
	}

	gen := got[2].Body
	if gen["stream"] != false || gen["system"] != "sys" || gen["prompt"] != "Spindle" {
		t.Errorf("unexpected generate request %+v", gen)
	}
	opts, _ := gen["options"].(map[string]any)
	if opts["num_predict"] != float64(2048) || opts["temperature"] != 0.1 || opts["top_p"] != 0.95 {
		t.Errorf("unexpected options %+v", opts)
	}

	unload := got[3].Body
	if unload["model"] != "qwen3:14b" || unload["keep_alive"] != float64(0) {
		t.Errorf("unexpected unload request %+v", unload)
	}
}

func TestOllamaBackend_Complete(t *testing.T) {
	server, reqs := newOllamaServer(t, nil, `{"has_issues": false}`)
	backend := NewOllamaBackend(server.URL, 5*time.Second)

	out, err := backend.Complete(context.Background(), "qwen2.5:7b-instruct", GenerateRequest{Prompt: "review", Format: "json"})
	if err != nil {
		t.Fatalf("Complete failed: %v", err)
	}
	if out != `{"has_issues": false}` {
		t.Errorf("Complete = %q", out)
	}
	if len(*reqs) != 1 {
		t.Fatalf("expected one request, got %d", len(*reqs))
	}
	body := (*reqs)[0].Body
	if body["model"] != "qwen2.5:7b-instruct" || body["format"] != "json" || body["stream"] != false {
		t.Errorf("request body = %v", body)
	}
	for _, key := range []string{"keep_alive", "options"} {
		if _, ok := body[key]; ok {
			t.Errorf("one-off completion must not send %s: %v", key, body)
		}
	}
}

func TestOllamaBackend_MissingWeights(t *testing.T) {
	server, reqs := newOllamaServer(t, map[string]bool{"qwen3:14b": true}, "")
	backend := NewOllamaBackend(server.URL, 5*time.Second)

	_, err := backend.Load(context.Background(), DefaultCatalog()[TierHigh])
	if err == nil || !strings.Contains(err.Error(), "not available") {
		t.Fatalf("expected unavailable error, got %v", err)
	}
	if len(*reqs) != 1 {
		t.Errorf("no preload should follow a failed show, got %d requests", len(*reqs))
	}
}

func TestOllamaBackend_ServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/api/show" {
			w.Write([]byte(`{}`))
			return
		}
		http.Error(w, "out of memory", http.StatusInternalServerError)
	}))
	defer server.Close()

	_, err := NewOllamaBackend(server.URL, 5*time.Second).Load(context.Background(), DefaultCatalog()[TierFast])
	if err == nil || !strings.Contains(err.Error(), "500") {
		t.Fatalf("expected status 500 error, got %v", err)
	}
}

func TestOllamaBackend_ContextCancelled(t *testing.T) {
	server, _ := newOllamaServer(t, nil, "x")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewOllamaBackend(server.URL, 5*time.Second).Load(ctx, DefaultCatalog()[TierFast])
	if err == nil {
		t.Fatal("expected error for cancelled context")
	}
}

func TestOllamaBackend_IsAvailable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/tags" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		w.Write([]byte(`{"models":[]}`))
	}))
	defer server.Close()

	if err := NewOllamaBackend(server.URL, time.Second).IsAvailable(context.Background()); err != nil {
		t.Fatalf("IsAvailable failed: %v", err)
	}
}
