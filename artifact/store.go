package artifact

import (
	"context"
	"database/sql"
	"time"

	"go.uber.org/zap"

	"github.com/trannam110702/lighthouse-sub001/db"
	"github.com/trannam110702/lighthouse-sub001/errors"
	"github.com/trannam110702/lighthouse-sub001/logger"
)

// Summary is the persisted part of a metric result. Graphs and per-node
// timings are never stored.
type Summary struct {
	Key           string    `json:"key"`
	Kind          string    `json:"kind"`
	Profile       string    `json:"profile"`
	TimingMs      float64   `json:"timing_ms"`
	OptimisticMs  float64   `json:"optimistic_ms"`
	PessimisticMs float64   `json:"pessimistic_ms"`
	CreatedAt     time.Time `json:"created_at"`
}

// Stats counts stored summaries per metric kind.
type Stats struct {
	Total  int64            `json:"total"`
	ByKind map[string]int64 `json:"by_kind"`
}

// Store persists metric summaries.
type Store interface {
	// Get returns errors.ErrNotFound when key is absent.
	Get(ctx context.Context, key string) (*Summary, error)
	Put(ctx context.Context, s Summary) error
	Stats(ctx context.Context) (Stats, error)
	Clear(ctx context.Context) (int64, error)
}

// Query constants
const (
	summarySelectQuery = `
		SELECT cache_key, kind, profile, timing_ms, optimistic_ms, pessimistic_ms, created_at
		FROM metric_estimates WHERE cache_key = ?`

	summaryUpsertQuery = `
		INSERT INTO metric_estimates (cache_key, kind, profile, timing_ms, optimistic_ms, pessimistic_ms, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(cache_key) DO UPDATE SET
			kind = excluded.kind,
			profile = excluded.profile,
			timing_ms = excluded.timing_ms,
			optimistic_ms = excluded.optimistic_ms,
			pessimistic_ms = excluded.pessimistic_ms,
			created_at = excluded.created_at`

	summaryStatsQuery = `
		SELECT kind, COUNT(*) FROM metric_estimates GROUP BY kind ORDER BY kind`

	summaryClearQuery = `DELETE FROM metric_estimates`
)

// SQLStore implements Store on the metric_estimates table. Driver errors
// are classified with db.Classify, so callers can test for a closed or busy
// database.
type SQLStore struct {
	db     *sql.DB
	logger *zap.SugaredLogger
	now    func() time.Time
}

// NewSQLStore creates a store on a migrated database.
func NewSQLStore(conn *sql.DB, log *zap.SugaredLogger) *SQLStore {
	return &SQLStore{
		db:     conn,
		logger: logger.OrNop(log).Named("artifact"),
		now:    time.Now,
	}
}

func (s *SQLStore) Get(ctx context.Context, key string) (*Summary, error) {
	var sum Summary
	err := s.db.QueryRowContext(ctx, summarySelectQuery, key).Scan(
		&sum.Key, &sum.Kind, &sum.Profile,
		&sum.TimingMs, &sum.OptimisticMs, &sum.PessimisticMs,
		&sum.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, errors.Wrapf(errors.ErrNotFound, "metric estimate %s", key)
	}
	if err != nil {
		return nil, errors.Wrapf(db.Classify(err), "failed to read metric estimate %s", key)
	}
	return &sum, nil
}

// Put inserts or replaces the summary for s.Key. A zero CreatedAt is set
// to the current time.
func (s *SQLStore) Put(ctx context.Context, sum Summary) error {
	if sum.Key == "" {
		return errors.NewInvalidRequestError("metric estimate has no cache key")
	}
	if sum.CreatedAt.IsZero() {
		sum.CreatedAt = s.now().UTC()
	}
	_, err := s.db.ExecContext(ctx, summaryUpsertQuery,
		sum.Key, sum.Kind, sum.Profile,
		sum.TimingMs, sum.OptimisticMs, sum.PessimisticMs,
		sum.CreatedAt,
	)
	if err != nil {
		return errors.Wrapf(db.Classify(err), "failed to store metric estimate %s", sum.Key)
	}
	s.logger.Debugw("stored metric estimate",
		logger.FieldCacheKey, sum.Key,
		logger.FieldMetric, sum.Kind,
		logger.FieldProfile, sum.Profile,
	)
	return nil
}

func (s *SQLStore) Stats(ctx context.Context) (Stats, error) {
	stats := Stats{ByKind: make(map[string]int64)}
	rows, err := s.db.QueryContext(ctx, summaryStatsQuery)
	if err != nil {
		return stats, errors.Wrap(db.Classify(err), "failed to count metric estimates")
	}
	defer rows.Close()

	for rows.Next() {
		var kind string
		var count int64
		if err := rows.Scan(&kind, &count); err != nil {
			return stats, errors.Wrap(err, "failed to scan metric estimate count")
		}
		stats.ByKind[kind] = count
		stats.Total += count
	}
	if err := rows.Err(); err != nil {
		return stats, errors.Wrap(db.Classify(err), "failed to count metric estimates")
	}
	return stats, nil
}

// Clear deletes every summary and returns how many were removed.
func (s *SQLStore) Clear(ctx context.Context) (int64, error) {
	res, err := s.db.ExecContext(ctx, summaryClearQuery)
	if err != nil {
		return 0, errors.Wrap(db.Classify(err), "failed to clear metric estimates")
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, errors.Wrap(err, "failed to clear metric estimates")
	}
	s.logger.Infow("cleared metric estimates", logger.FieldCount, n)
	return n, nil
}
