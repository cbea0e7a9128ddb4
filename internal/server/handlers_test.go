package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/inclusiveworks/inlint/internal/config"
	"github.com/inclusiveworks/inlint/internal/logger"
	"github.com/inclusiveworks/inlint/internal/pipeline"
)

func newTestServer(t *testing.T, mutate func(*config.Config)) *Server {
	t.Helper()

	cfg := config.GetDefaults()
	cfg.Cache.Enabled = false
	cfg.History.Enabled = false
	cfg.Server.RateLimit.Enabled = false
	if mutate != nil {
		mutate(cfg)
	}

	srv, err := New(cfg, logger.Nop())
	if err != nil {
		t.Fatalf("Failed to create server: %v", err)
	}
	return srv
}

func doRequest(srv *Server, method, path, contentType, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	rec := httptest.NewRecorder()
	srv.router.ServeHTTP(rec, req)
	return rec
}

// TestHandleLint tests the lint endpoint
func TestHandleLint(t *testing.T) {
	srv := newTestServer(t, nil)

	t.Run("JSONBody", func(t *testing.T) {
		rec := doRequest(srv, "POST", "/v1/lint", "application/json",
			`{"text": "Able to climb ladders, no felons."}`)
		if rec.Code != http.StatusOK {
			t.Fatalf("Status = %d, body: %s", rec.Code, rec.Body.String())
		}

		var result pipeline.Result
		if err := json.Unmarshal(rec.Body.Bytes(), &result); err != nil {
			t.Fatalf("Response is not valid JSON: %v", err)
		}
		if len(result.Findings) != 2 {
			t.Errorf("Expected 2 findings, got %d", len(result.Findings))
		}
		if result.UsedLLM {
			t.Error("UsedLLM set without a credential")
		}
		if !strings.Contains(result.RewrittenText, "ascend") {
			t.Errorf("Rewritten text = %q", result.RewrittenText)
		}
	})

	t.Run("RawTextBody", func(t *testing.T) {
		rec := doRequest(srv, "POST", "/v1/lint", "text/plain", "we need more manpower")
		if rec.Code != http.StatusOK {
			t.Fatalf("Status = %d", rec.Code)
		}

		var result pipeline.Result
		if err := json.Unmarshal(rec.Body.Bytes(), &result); err != nil {
			t.Fatalf("Response is not valid JSON: %v", err)
		}
		if len(result.Findings) != 1 || result.Findings[0].RuleID != "R-G1" {
			t.Errorf("Findings = %+v", result.Findings)
		}
	})

	t.Run("EmptyText", func(t *testing.T) {
		rec := doRequest(srv, "POST", "/v1/lint", "application/json", `{"text": ""}`)
		if rec.Code != http.StatusOK {
			t.Fatalf("Status = %d", rec.Code)
		}
		if !strings.Contains(rec.Body.String(), `"findings": []`) &&
			!strings.Contains(rec.Body.String(), `"findings":[]`) {
			t.Errorf("Empty input should serialize findings as []: %s", rec.Body.String())
		}
	})

	t.Run("MalformedJSON", func(t *testing.T) {
		rec := doRequest(srv, "POST", "/v1/lint", "application/json", `{"text": `)
		if rec.Code != http.StatusBadRequest {
			t.Errorf("Status = %d, want 400", rec.Code)
		}
	})

	t.Run("BodyTooLarge", func(t *testing.T) {
		small := newTestServer(t, func(cfg *config.Config) {
			cfg.Server.MaxBodyBytes = 16
		})
		rec := doRequest(small, "POST", "/v1/lint", "text/plain",
			strings.Repeat("x", 64))
		if rec.Code != http.StatusBadRequest {
			t.Errorf("Status = %d, want 400 for oversized body", rec.Code)
		}
	})

	t.Run("RequestIDHeader", func(t *testing.T) {
		rec := doRequest(srv, "POST", "/v1/lint", "text/plain", "hello")
		if rec.Header().Get("X-Request-ID") == "" {
			t.Error("Missing X-Request-ID response header")
		}
	})
}

// TestHandleExport tests the export endpoint
func TestHandleExport(t *testing.T) {
	srv := newTestServer(t, nil)

	t.Run("CSVDefault", func(t *testing.T) {
		rec := doRequest(srv, "POST", "/v1/lint/export", "text/plain", "no felons")
		if rec.Code != http.StatusOK {
			t.Fatalf("Status = %d", rec.Code)
		}
		if ct := rec.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/csv") {
			t.Errorf("Content-Type = %q", ct)
		}
		if cd := rec.Header().Get("Content-Disposition"); !strings.Contains(cd, "lint-report.csv") {
			t.Errorf("Content-Disposition = %q", cd)
		}
		if !strings.Contains(rec.Body.String(), "R-L1") {
			t.Error("CSV body missing the finding")
		}
	})

	t.Run("MarkdownFormat", func(t *testing.T) {
		rec := doRequest(srv, "POST", "/v1/lint/export?format=markdown", "text/plain", "no felons")
		if rec.Code != http.StatusOK {
			t.Fatalf("Status = %d", rec.Code)
		}
		if !strings.Contains(rec.Body.String(), "# Accessibility Lint Report") {
			t.Error("Markdown body missing report heading")
		}
	})

	t.Run("UnsupportedFormat", func(t *testing.T) {
		rec := doRequest(srv, "POST", "/v1/lint/export?format=xlsx", "text/plain", "x")
		if rec.Code != http.StatusBadRequest {
			t.Errorf("Status = %d, want 400", rec.Code)
		}
	})
}

// TestHandleRules tests the catalog listing endpoint
func TestHandleRules(t *testing.T) {
	srv := newTestServer(t, nil)

	rec := doRequest(srv, "GET", "/v1/rules", "", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("Status = %d", rec.Code)
	}

	var body struct {
		Version string     `json:"version"`
		Count   int        `json:"count"`
		Rules   []ruleView `json:"rules"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("Response is not valid JSON: %v", err)
	}
	if body.Count == 0 || len(body.Rules) != body.Count {
		t.Errorf("Count = %d, rules = %d", body.Count, len(body.Rules))
	}
	if body.Version == "" {
		t.Error("Missing catalog version")
	}
}

// TestHandleScans tests the history endpoint when history is disabled
func TestHandleScans(t *testing.T) {
	srv := newTestServer(t, nil)

	t.Run("DisabledHistory", func(t *testing.T) {
		rec := doRequest(srv, "GET", "/v1/scans", "", "")
		if rec.Code != http.StatusServiceUnavailable {
			t.Errorf("Status = %d, want 503 when history is disabled", rec.Code)
		}
	})

	t.Run("InvalidLimit", func(t *testing.T) {
		rec := doRequest(srv, "GET", "/v1/scans?limit=9999", "", "")
		// History-disabled check runs first, so still 503 here.
		if rec.Code != http.StatusServiceUnavailable {
			t.Errorf("Status = %d", rec.Code)
		}
	})
}

// TestHandleCacheClear tests the cache administration endpoint
func TestHandleCacheClear(t *testing.T) {
	srv := newTestServer(t, nil)

	rec := doRequest(srv, "POST", "/v1/cache/clear", "", "")
	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("Status = %d, want 503 when the cache is disabled", rec.Code)
	}
}

// TestHealthAndInfo tests the operational endpoints
func TestHealthAndInfo(t *testing.T) {
	srv := newTestServer(t, nil)

	t.Run("Health", func(t *testing.T) {
		rec := doRequest(srv, "GET", "/health", "", "")
		if rec.Code != http.StatusOK {
			t.Fatalf("Status = %d", rec.Code)
		}
		if !strings.Contains(rec.Body.String(), "healthy") {
			t.Errorf("Body = %s", rec.Body.String())
		}
	})

	t.Run("Info", func(t *testing.T) {
		rec := doRequest(srv, "GET", "/info", "", "")
		if rec.Code != http.StatusOK {
			t.Fatalf("Status = %d", rec.Code)
		}

		var info map[string]interface{}
		if err := json.Unmarshal(rec.Body.Bytes(), &info); err != nil {
			t.Fatalf("Response is not valid JSON: %v", err)
		}
		if info["service"] != "inlint" {
			t.Errorf("service = %v", info["service"])
		}
		if info["llm_enabled"] != false {
			t.Error("llm_enabled should be false without a credential")
		}
		if _, ok := info["history"]; ok {
			t.Error("Disabled history should not report stats")
		}
	})

	t.Run("InfoCountsScans", func(t *testing.T) {
		srv := newTestServer(t, nil)
		doRequest(srv, "POST", "/v1/lint", "text/plain", "hello")
		doRequest(srv, "POST", "/v1/lint", "text/plain", "hello again")

		rec := doRequest(srv, "GET", "/info", "", "")
		var info map[string]interface{}
		if err := json.Unmarshal(rec.Body.Bytes(), &info); err != nil {
			t.Fatalf("Response is not valid JSON: %v", err)
		}
		if info["total_scans"] != float64(2) {
			t.Errorf("total_scans = %v, want 2", info["total_scans"])
		}
	})
}

// TestRateLimit tests the per-IP request budget
func TestRateLimit(t *testing.T) {
	srv := newTestServer(t, func(cfg *config.Config) {
		cfg.Server.RateLimit.Enabled = true
		cfg.Server.RateLimit.RequestsPerSecond = 1
		cfg.Server.RateLimit.Burst = 2
	})

	var rejected int
	for i := 0; i < 5; i++ {
		rec := doRequest(srv, "POST", "/v1/lint", "text/plain", "hello")
		if rec.Code == http.StatusTooManyRequests {
			rejected++
		}
	}
	if rejected == 0 {
		t.Error("Burst of requests was never rate limited")
	}

	// A different client IP gets its own bucket.
	req := httptest.NewRequest("POST", "/v1/lint", strings.NewReader("hello"))
	req.Header.Set("Content-Type", "text/plain")
	req.Header.Set("X-Forwarded-For", "203.0.113.9")
	rec := httptest.NewRecorder()
	srv.router.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Errorf("Fresh client IP got status %d", rec.Code)
	}
}
