package pipeline

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/inclusiveworks/inlint/internal/cache"
	"github.com/inclusiveworks/inlint/internal/catalog"
	"github.com/inclusiveworks/inlint/internal/config"
	"github.com/inclusiveworks/inlint/internal/linter"
	"github.com/inclusiveworks/inlint/internal/llm"
	"github.com/inclusiveworks/inlint/internal/logger"
)

func newTestRunner(t *testing.T, llmCfg config.LLMConfig) *Runner {
	t.Helper()
	cat, err := catalog.Load(catalog.Options{}, logger.Nop())
	if err != nil {
		t.Fatalf("Failed to load catalog: %v", err)
	}
	engine := linter.New(cat, logger.Nop())
	return New(engine, llm.New(llmCfg, logger.Nop()), nil, nil, logger.Nop())
}

// TestRun tests the end-to-end lint pipeline without external services
func TestRun(t *testing.T) {
	runner := newTestRunner(t, config.LLMConfig{})

	t.Run("LocalOnly", func(t *testing.T) {
		result, err := runner.Run(context.Background(), "Able to climb ladders.")
		if err != nil {
			t.Fatalf("Run failed: %v", err)
		}
		if result.UsedLLM {
			t.Error("UsedLLM set without a credential")
		}
		if result.Notice != "" {
			t.Errorf("Unexpected notice without LLM configured: %q", result.Notice)
		}
		if result.RewrittenText != "Able to ascend ladders." {
			t.Errorf("Rewritten text = %q", result.RewrittenText)
		}
		if len(result.Findings) != 1 {
			t.Errorf("Expected 1 finding, got %d", len(result.Findings))
		}
	})

	t.Run("CleanInput", func(t *testing.T) {
		text := "We welcome applicants from every background."
		result, err := runner.Run(context.Background(), text)
		if err != nil {
			t.Fatalf("Run failed: %v", err)
		}
		if len(result.Findings) != 0 {
			t.Errorf("Clean text produced findings: %+v", result.Findings)
		}
		if result.RewrittenText != text {
			t.Errorf("Clean text was rewritten to %q", result.RewrittenText)
		}
	})

	t.Run("CancelledContext", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		if _, err := runner.Run(ctx, "anything"); err == nil {
			t.Error("Expected error for cancelled context")
		}
	})
}

// TestFromCached tests that a cache entry replays the complete result
func TestFromCached(t *testing.T) {
	cached := &cache.CachedResult{
		Result: linter.ScanResult{
			SourceText:    "Able to climb ladders.",
			Findings:      []linter.Finding{{RuleID: "R-P1"}},
			RewrittenText: "Able to ascend ladders.",
		},
		UsedLLM: false,
		Notice:  NoticeLLMUnavailable,
	}

	result := fromCached(cached, time.Now())

	if !result.CacheHit {
		t.Error("CacheHit not set on replayed result")
	}
	if result.Notice != NoticeLLMUnavailable {
		t.Errorf("Notice = %q, want the cached notice to replay", result.Notice)
	}
	if result.UsedLLM {
		t.Error("UsedLLM set on a local-only cached run")
	}
	if result.RewrittenText != "Able to ascend ladders." {
		t.Errorf("RewrittenText = %q", result.RewrittenText)
	}
}

// TestRunWithLLM tests the enhanced rewrite path and its fallback
func TestRunWithLLM(t *testing.T) {
	llmCfg := config.LLMConfig{
		APIKey:    "test-key",
		Model:     "gpt-4o-mini",
		MaxTokens: 100,
		Timeout:   2 * time.Second,
	}

	t.Run("EnhancedRewriteUsed", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.Write([]byte(`{"choices": [{"message": {"role": "assistant", "content": "Polished posting."}}]}`))
		}))
		defer server.Close()

		cfg := llmCfg
		cfg.BaseURL = server.URL + "/v1"
		runner := newTestRunner(t, cfg)

		result, err := runner.Run(context.Background(), "Able to climb ladders.")
		if err != nil {
			t.Fatalf("Run failed: %v", err)
		}
		if !result.UsedLLM {
			t.Error("UsedLLM not set on successful enhanced rewrite")
		}
		if result.RewrittenText != "Polished posting." {
			t.Errorf("Rewritten text = %q", result.RewrittenText)
		}
		if result.Notice != "" {
			t.Errorf("Unexpected notice on success: %q", result.Notice)
		}
		// The findings still come from the deterministic scan.
		if len(result.Findings) != 1 || result.Findings[0].RuleID != "R-P1" {
			t.Errorf("Findings = %+v", result.Findings)
		}
	})

	t.Run("FallbackOnFailure", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "unavailable", http.StatusServiceUnavailable)
		}))
		defer server.Close()

		cfg := llmCfg
		cfg.BaseURL = server.URL + "/v1"
		runner := newTestRunner(t, cfg)

		result, err := runner.Run(context.Background(), "Able to climb ladders.")
		if err != nil {
			t.Fatalf("Run failed despite the enhancement failing: %v", err)
		}
		if result.UsedLLM {
			t.Error("UsedLLM set on failed enhanced rewrite")
		}
		if result.Notice != NoticeLLMUnavailable {
			t.Errorf("Notice = %q, want %q", result.Notice, NoticeLLMUnavailable)
		}
		if result.RewrittenText != "Able to ascend ladders." {
			t.Errorf("Fallback rewrite = %q", result.RewrittenText)
		}
	})
}
