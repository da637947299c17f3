package llm

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestAnthropicProvider_Generate(t *testing.T) {
	var got struct {
		Model     string `json:"model"`
		MaxTokens int    `json:"max_tokens"`
		System    string `json:"system"`
		Messages  []struct {
			Role string `json:"role"`
		} `json:"messages"`
	}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/messages" {
			t.Errorf("path = %s; want /v1/messages", r.URL.Path)
		}
		if r.Header.Get("x-api-key") != "secret" {
			t.Errorf("x-api-key = %q; want secret", r.Header.Get("x-api-key"))
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode request: %v", err)
		}

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"id": "msg_1", "type": "message", "role": "assistant",
			"content": [
				{"type": "thinking", "thinking": "let me check"},
				{"type": "text", "text": "PASS"}
			],
			"stop_reason": "end_turn",
			"usage": {"input_tokens": 12, "output_tokens": 1}
		}`))
	}))
	defer srv.Close()

	p := NewAnthropicProvider(AnthropicConfig{
		Name:    "minimax",
		APIKey:  "secret",
		BaseURL: srv.URL + "/v1",
		Model:   "MiniMax-M2.1",
		Timeout: 5 * time.Second,
	})

	resp, err := p.Generate(context.Background(), UserPrompt("You are a strict code reviewer.", "check this", 4000))
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}

	if resp.Content != "PASS" {
		t.Errorf("Content = %q; want PASS (thinking blocks dropped)", resp.Content)
	}
	if resp.Usage.InputTokens != 12 {
		t.Errorf("InputTokens = %d; want 12", resp.Usage.InputTokens)
	}
	if got.Model != "MiniMax-M2.1" || got.MaxTokens != 4000 || got.System != "You are a strict code reviewer." {
		t.Errorf("request = %+v", got)
	}
	if len(got.Messages) != 1 || got.Messages[0].Role != "user" {
		t.Errorf("messages = %+v", got.Messages)
	}
	if p.Name() != "minimax" {
		t.Errorf("Name() = %q; want minimax", p.Name())
	}
}

func TestAnthropicProvider_NoTextBlock(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"id":"msg_2","type":"message","role":"assistant","content":[{"type":"thinking","thinking":"..."}],"usage":{"input_tokens":1,"output_tokens":1}}`))
	}))
	defer srv.Close()

	p := NewAnthropicProvider(AnthropicConfig{APIKey: "k", BaseURL: srv.URL + "/v1"})

	_, err := p.Generate(context.Background(), UserPrompt("", "hi", 10))
	if !errors.Is(err, ErrEmptyResponse) {
		t.Errorf("Generate() error = %v; want ErrEmptyResponse", err)
	}
}

func TestAnthropicProvider_AuthError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"type":"error","error":{"type":"authentication_error","message":"invalid x-api-key"}}`))
	}))
	defer srv.Close()

	p := NewAnthropicProvider(AnthropicConfig{APIKey: "bad", BaseURL: srv.URL + "/v1"})

	if _, err := p.Generate(context.Background(), UserPrompt("", "hi", 10)); err == nil {
		t.Fatal("Generate() should fail on 401")
	}
}

func TestNewMiniMaxProvider_Defaults(t *testing.T) {
	p := NewMiniMaxProvider("key", "", 0)
	if p.Name() != "minimax" {
		t.Errorf("Name() = %q; want minimax", p.Name())
	}
	if p.model != MiniMaxModel {
		t.Errorf("model = %q; want %q", p.model, MiniMaxModel)
	}
}
