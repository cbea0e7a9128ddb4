// Package history persists per-scan summaries in PostgreSQL. It is an
// optional collaborator: the linting pipeline works identically with the
// store absent, and write failures are soft.
package history

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/inclusiveworks/inlint/internal/config"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"go.uber.org/zap"
)

const schema = `
CREATE TABLE IF NOT EXISTS scans (
	id            BIGSERIAL PRIMARY KEY,
	text_hash     TEXT        NOT NULL,
	finding_count INTEGER     NOT NULL,
	block_count   INTEGER     NOT NULL,
	warn_count    INTEGER     NOT NULL,
	info_count    INTEGER     NOT NULL,
	used_llm      BOOLEAN     NOT NULL,
	findings      JSONB       NOT NULL,
	created_at    TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS idx_scans_created_at ON scans (created_at DESC);`

// Store handles scan history storage
type Store struct {
	db     *sqlx.DB
	logger *zap.Logger
}

// New creates a history store and ensures the schema exists
func New(cfg config.HistoryConfig, logger *zap.Logger) (*Store, error) {
	db, err := sqlx.Connect("postgres", cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.ConnMaxLifetime)

	store := &Store{
		db:     db,
		logger: logger,
	}

	if err := store.initialize(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize history store: %w", err)
	}

	logger.Info("History store initialized",
		zap.String("database_url", maskDatabaseURL(cfg.DatabaseURL)),
		zap.Int("max_open_conns", cfg.MaxOpenConns))

	return store, nil
}

// initialize pings the database and creates the schema
func (s *Store) initialize() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := s.db.PingContext(ctx); err != nil {
		return fmt.Errorf("database ping failed: %w", err)
	}

	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("schema creation failed: %w", err)
	}

	return nil
}

// Insert records a completed scan
func (s *Store) Insert(ctx context.Context, record *ScanRecord) error {
	query := `
		INSERT INTO scans (text_hash, finding_count, block_count, warn_count, info_count, used_llm, findings)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at`

	err := s.db.QueryRowContext(ctx, query,
		record.TextHash,
		record.FindingCount,
		record.BlockCount,
		record.WarnCount,
		record.InfoCount,
		record.UsedLLM,
		record.Findings,
	).Scan(&record.ID, &record.CreatedAt)

	if err != nil {
		s.logger.Error("Failed to insert scan record",
			zap.Error(err),
			zap.String("text_hash", record.TextHash))
		return fmt.Errorf("failed to insert scan record: %w", err)
	}

	s.logger.Debug("Scan record inserted",
		zap.Int64("id", record.ID),
		zap.Int("findings", record.FindingCount))

	return nil
}

// Recent returns the most recent scans, newest first
func (s *Store) Recent(ctx context.Context, limit int) ([]ScanRecord, error) {
	if limit <= 0 {
		limit = 20
	}

	var records []ScanRecord
	query := `
		SELECT id, text_hash, finding_count, block_count, warn_count, info_count, used_llm, findings, created_at
		FROM scans
		ORDER BY created_at DESC
		LIMIT $1`

	if err := s.db.SelectContext(ctx, &records, query, limit); err != nil {
		return nil, fmt.Errorf("failed to list recent scans: %w", err)
	}

	return records, nil
}

// GetStats returns aggregate history statistics
func (s *Store) GetStats(ctx context.Context) (*Stats, error) {
	stats := &Stats{}
	query := `
		SELECT
			COUNT(*)                          AS total_scans,
			COALESCE(SUM(finding_count), 0)   AS total_findings,
			COUNT(*) FILTER (WHERE used_llm)  AS llm_scans,
			COALESCE(AVG(finding_count), 0)   AS avg_findings
		FROM scans`

	if err := s.db.GetContext(ctx, stats, query); err != nil {
		return nil, fmt.Errorf("failed to get history stats: %w", err)
	}

	return stats, nil
}

// Close closes the database connection
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// maskDatabaseURL masks credentials in a database URL for logging
func maskDatabaseURL(url string) string {
	if strings.Contains(url, "@") {
		parts := strings.Split(url, "@")
		if len(parts) >= 2 {
			userPart := parts[0]
			if strings.Contains(userPart, ":") {
				userParts := strings.Split(userPart, ":")
				if len(userParts) >= 3 {
					userParts[len(userParts)-1] = "***"
					parts[0] = strings.Join(userParts, ":")
				}
			}
			return strings.Join(parts, "@")
		}
	}
	return url
}
