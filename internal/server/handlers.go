package server

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/inclusiveworks/inlint/internal/catalog"
	"github.com/inclusiveworks/inlint/internal/export"
	"github.com/inclusiveworks/inlint/internal/pipeline"
	"github.com/inclusiveworks/inlint/internal/websocket"
	"go.uber.org/zap"
)

// lintRequest is the JSON body accepted by the lint endpoints. Raw text
// bodies are also accepted for curl convenience.
type lintRequest struct {
	Text string `json:"text"`
}

// errorResponse is the JSON error envelope
type errorResponse struct {
	Error string `json:"error"`
}

// handleLint runs the full lint pipeline on the posted text
func (s *Server) handleLint(w http.ResponseWriter, r *http.Request) {
	result, ok := s.runLint(w, r)
	if !ok {
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(result); err != nil {
		s.logger.Error("Failed to encode lint response", zap.Error(err))
	}
}

// handleExport runs the lint pipeline and streams the report in the
// requested format
func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	format, err := export.ParseFormat(formatParam(r))
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	result, ok := s.runLint(w, r)
	if !ok {
		return
	}

	w.Header().Set("Content-Type", format.ContentType())
	w.Header().Set("Content-Disposition",
		fmt.Sprintf(`attachment; filename="lint-report.%s"`, format.Extension()))

	if err := export.Write(w, format, result); err != nil {
		s.logger.Error("Failed to write export",
			zap.String("format", string(format)),
			zap.Error(err),
		)
	}
}

// runLint reads the request text and executes the pipeline. On failure it
// writes the error response itself and returns ok=false.
func (s *Server) runLint(w http.ResponseWriter, r *http.Request) (*pipeline.Result, bool) {
	text, err := s.readText(r)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err.Error())
		return nil, false
	}

	result, err := s.runner.Run(r.Context(), text)
	if err != nil {
		s.logger.Error("Lint run failed", zap.Error(err))
		s.writeError(w, http.StatusInternalServerError, "lint run failed")
		return nil, false
	}

	s.totalScans.Add(1)
	s.broadcastResult(r.Header.Get("X-Request-ID"), result)
	return result, true
}

// formatParam reads the export format from the query string, defaulting to
// CSV
func formatParam(r *http.Request) string {
	if v := r.URL.Query().Get("format"); v != "" {
		return v
	}
	return "csv"
}

// readText extracts the text to lint from either a JSON body or a raw one
func (s *Server) readText(r *http.Request) (string, error) {
	body, err := io.ReadAll(http.MaxBytesReader(nil, r.Body, s.config.Server.MaxBodyBytes))
	if err != nil {
		return "", fmt.Errorf("failed to read request body: %w", err)
	}

	contentType := r.Header.Get("Content-Type")
	if strings.HasPrefix(contentType, "application/json") {
		var req lintRequest
		if err := json.Unmarshal(body, &req); err != nil {
			return "", fmt.Errorf("invalid JSON body: %w", err)
		}
		return req.Text, nil
	}

	return string(body), nil
}

// broadcastResult pushes a lint summary to dashboard clients
func (s *Server) broadcastResult(requestID string, result *pipeline.Result) {
	event := websocket.LintResultEvent{
		RequestID:    requestID,
		FindingCount: len(result.Findings),
		UsedLLM:      result.UsedLLM,
		CacheHit:     result.CacheHit,
		ProcessingMS: float64(result.Duration.Microseconds()) / 1000.0,
		Findings:     result.Findings,
	}
	for _, f := range result.Findings {
		switch f.Severity {
		case catalog.SeverityBlock:
			event.BlockCount++
		case catalog.SeverityWarn:
			event.WarnCount++
		default:
			event.InfoCount++
		}
	}

	s.wsHub.BroadcastEvent(websocket.Event{
		Type:      websocket.EventTypeLintResult,
		Timestamp: time.Now(),
		Data:      event,
		RequestID: requestID,
	})
}

// ruleView is the JSON shape served by the rules endpoint
type ruleView struct {
	ID       string `json:"id"`
	Category string `json:"category"`
	Severity string `json:"severity"`
	Pattern  string `json:"pattern"`
	Message  string `json:"message"`
}

// handleRules lists the active rule catalog
func (s *Server) handleRules(w http.ResponseWriter, r *http.Request) {
	cat := s.engine.Catalog()

	rules := cat.Rules()
	views := make([]ruleView, len(rules))
	for i, rule := range rules {
		views[i] = ruleView{
			ID:       rule.ID,
			Category: string(rule.Category),
			Severity: rule.Severity.String(),
			Pattern:  rule.Pattern.String(),
			Message:  rule.Message,
		}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"version": cat.Version(),
		"count":   len(views),
		"rules":   views,
	})
}

// handleScans returns recent scan history records
func (s *Server) handleScans(w http.ResponseWriter, r *http.Request) {
	if s.history == nil {
		s.writeError(w, http.StatusServiceUnavailable, "scan history is not enabled")
		return
	}

	limit := 50
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 || n > 500 {
			s.writeError(w, http.StatusBadRequest, "limit must be between 1 and 500")
			return
		}
		limit = n
	}

	records, err := s.history.Recent(r.Context(), limit)
	if err != nil {
		s.logger.Error("Failed to read scan history", zap.Error(err))
		s.writeError(w, http.StatusInternalServerError, "failed to read scan history")
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"count": len(records),
		"scans": records,
	})
}

// handleCacheClear drops every cached scan result. Useful after editing the
// external rules file back to a previously-seen revision.
func (s *Server) handleCacheClear(w http.ResponseWriter, r *http.Request) {
	if s.cache == nil {
		s.writeError(w, http.StatusServiceUnavailable, "result cache is not enabled")
		return
	}

	if err := s.cache.Clear(r.Context()); err != nil {
		s.logger.Error("Failed to clear result cache", zap.Error(err))
		s.writeError(w, http.StatusInternalServerError, "failed to clear result cache")
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "cleared"})
}

// handleHealth handles health check requests
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"status":    "healthy",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"uptime":    time.Since(s.startedAt).String(),
	})
}

// handleInfo reports the server configuration surface
func (s *Server) handleInfo(w http.ResponseWriter, r *http.Request) {
	cat := s.engine.Catalog()
	wsStats := s.wsHub.GetStats()

	info := map[string]interface{}{
		"service":         "inlint",
		"rules":           cat.Len(),
		"catalog_version": cat.Version(),
		"total_scans":     s.totalScans.Load(),
		"llm_enabled":     s.runner.LLMEnabled(),
		"cache_enabled":   s.cache != nil,
		"history_enabled": s.history != nil,
		"websocket": map[string]interface{}{
			"active_connections": wsStats.ActiveConnections,
			"total_broadcasts":   wsStats.TotalBroadcasts,
		},
	}

	if s.cache != nil {
		if stats, err := s.cache.GetStats(r.Context()); err == nil {
			info["cache"] = stats
		}
	}

	if s.history != nil {
		if stats, err := s.history.GetStats(r.Context()); err == nil {
			info["history"] = stats
		} else {
			s.logger.Warn("Failed to read history stats", zap.Error(err))
		}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(info)
}

// writeError writes a JSON error response
func (s *Server) writeError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(errorResponse{Error: message})
}
