// Package pipeline drives one lint invocation end to end: scan, local
// rewrite, then a single bounded attempt at the enhanced rewrite when a
// credential is present. The local rewrite is always computed first so the
// enhanced path can only improve the result, never lose it.
package pipeline

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"time"

	"github.com/inclusiveworks/inlint/internal/cache"
	"github.com/inclusiveworks/inlint/internal/catalog"
	"github.com/inclusiveworks/inlint/internal/history"
	"github.com/inclusiveworks/inlint/internal/linter"
	"github.com/inclusiveworks/inlint/internal/llm"
	"github.com/inclusiveworks/inlint/internal/logger"
	"github.com/inclusiveworks/inlint/internal/rewrite"
	"go.uber.org/zap"
)

// NoticeLLMUnavailable is the soft notice attached when the enhanced
// rewrite was attempted and failed.
const NoticeLLMUnavailable = "smart rewrite unavailable; using rule-based rewrite"

// Result is the outcome of one lint run
type Result struct {
	linter.ScanResult
	UsedLLM  bool          `json:"used_llm"`
	CacheHit bool          `json:"cache_hit,omitempty"`
	Notice   string        `json:"notice,omitempty"`
	Duration time.Duration `json:"-"`
}

// Runner wires the engine, composer and optional collaborators together.
// The cache and history store may be nil; the flow is identical without
// them.
type Runner struct {
	engine  *linter.Engine
	llm     *llm.Client
	cache   *cache.ResultCache
	history *history.Store
	logger  *logger.Logger
}

// New creates a pipeline runner
func New(engine *linter.Engine, llmClient *llm.Client, resultCache *cache.ResultCache, store *history.Store, log *logger.Logger) *Runner {
	return &Runner{
		engine:  engine,
		llm:     llmClient,
		cache:   resultCache,
		history: store,
		logger:  log,
	}
}

// LLMEnabled reports whether the enhanced rewrite path is configured
func (r *Runner) LLMEnabled() bool { return r.llm.Enabled() }

// Run lints text and produces the final rewritten copy. Failures in the
// enhancement path, the cache and the history store are soft: the scan
// findings and the local rewrite are always produced.
func (r *Runner) Run(ctx context.Context, text string) (*Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	start := time.Now()

	var cacheKey string
	if r.cache != nil {
		cacheKey = r.cache.Key(text, r.engine.Catalog().Version())
		if cached, ok := r.cache.Get(ctx, cacheKey); ok {
			return fromCached(cached, start), nil
		}
	}

	result := &Result{}
	result.ScanResult = r.engine.Scan(text)
	result.RewrittenText = rewrite.Rewrite(text, result.Findings)

	if r.llm.Enabled() {
		if rewritten, ok := r.llm.TryRewrite(ctx, text, result.Findings); ok {
			result.RewrittenText = rewritten
			result.UsedLLM = true
		} else {
			result.Notice = NoticeLLMUnavailable
		}
	}

	result.Duration = time.Since(start)

	if r.cache != nil {
		if err := r.cache.Store(ctx, cacheKey, &cache.CachedResult{
			Result:  result.ScanResult,
			UsedLLM: result.UsedLLM,
			Notice:  result.Notice,
		}); err != nil {
			r.logger.Debug("Result cache store failed", zap.Error(err))
		}
	}

	r.record(ctx, text, result)

	r.logger.Info("Lint run completed",
		zap.Int("findings", len(result.Findings)),
		zap.Bool("used_llm", result.UsedLLM),
		zap.Duration("duration", result.Duration),
	)

	return result, nil
}

// fromCached rebuilds a full result from a cache entry. The notice travels
// with the entry: a run cached after a failed enhancement replays with the
// same soft notice.
func fromCached(cached *cache.CachedResult, start time.Time) *Result {
	return &Result{
		ScanResult: cached.Result,
		UsedLLM:    cached.UsedLLM,
		Notice:     cached.Notice,
		CacheHit:   true,
		Duration:   time.Since(start),
	}
}

// record persists the scan summary when a history store is configured
func (r *Runner) record(ctx context.Context, text string, result *Result) {
	if r.history == nil {
		return
	}

	findings, err := json.Marshal(result.Findings)
	if err != nil {
		r.logger.Warn("Failed to encode findings for history", zap.Error(err))
		return
	}

	hash := sha256.Sum256([]byte(text))
	record := &history.ScanRecord{
		TextHash:     hex.EncodeToString(hash[:]),
		FindingCount: len(result.Findings),
		UsedLLM:      result.UsedLLM,
		Findings:     findings,
	}

	for _, f := range result.Findings {
		switch f.Severity {
		case catalog.SeverityBlock:
			record.BlockCount++
		case catalog.SeverityWarn:
			record.WarnCount++
		default:
			record.InfoCount++
		}
	}

	if err := r.history.Insert(ctx, record); err != nil {
		r.logger.Warn("Failed to record scan in history", zap.Error(err))
	}
}
