package observability

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/ClickHouse/clickhouse-go/v2"

	"singularityio/internal/config"
)

// GenerationRecord is one row of the per-call generation ledger: which
// pipeline stage ran, how long it took, how many tokens it used, whether
// it was served from the semantic cache, and whether it failed.
type GenerationRecord struct {
	TraceID          string
	Stage            string // e.g. "retrieve", "rerank", "generate", "ingest"
	Timestamp        time.Time
	LatencyMS        int64
	PromptTokens     int
	CompletionTokens int
	CacheHit         bool
	Error            string
}

// Sink persists GenerationRecords for later analysis. A nil Sink means no
// generation ledger is configured; callers should treat RecordGeneration
// on a nil Sink as a no-op rather than branching on it everywhere.
type Sink interface {
	Record(ctx context.Context, rec GenerationRecord) error
}

// ClickHouseSink writes GenerationRecords to a ClickHouse table, grounded
// on the teacher's clickhouseTokenMetrics connection/DSN handling but
// write- rather than read-oriented: one INSERT per recorded generation
// instead of aggregate SELECTs.
type ClickHouseSink struct {
	conn    clickhouse.Conn
	table   string
	timeout time.Duration
}

// NewClickHouseSink opens a ClickHouse connection and pings it once before
// returning, matching the teacher's fail-fast construction. An empty DSN
// returns (nil, nil) so callers can leave generation logging disabled by
// simply not configuring it, same convention as newClickHouseTokenMetrics.
func NewClickHouseSink(ctx context.Context, cfg config.ClickHouseConfig) (*ClickHouseSink, error) {
	dsn := strings.TrimSpace(cfg.DSN)
	if dsn == "" {
		return nil, nil
	}

	opts, err := clickhouse.ParseDSN(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse clickhouse dsn: %w", err)
	}
	if cfg.Database != "" {
		opts.Auth.Database = cfg.Database
	}

	conn, err := clickhouse.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open clickhouse connection: %w", err)
	}

	timeout := time.Duration(cfg.TimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 5 * time.Second
	}

	table := strings.TrimSpace(cfg.Table)
	if table == "" {
		table = "generation_records"
	}

	ctxPing, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	if err := conn.Ping(ctxPing); err != nil {
		return nil, fmt.Errorf("clickhouse ping: %w", err)
	}

	return &ClickHouseSink{conn: conn, table: table, timeout: timeout}, nil
}

// Record inserts one generation row. Errors are returned for the caller to
// log-and-continue; a failed ledger write must never fail the request it
// describes.
func (s *ClickHouseSink) Record(ctx context.Context, rec GenerationRecord) error {
	if s == nil || s.conn == nil {
		return nil
	}
	ts := rec.Timestamp
	if ts.IsZero() {
		ts = time.Now().UTC()
	}

	query := fmt.Sprintf(`
INSERT INTO %s
    (trace_id, stage, ts, latency_ms, prompt_tokens, completion_tokens, cache_hit, error)
VALUES (?, ?, ?, ?, ?, ?, ?, ?)
`, s.table)

	execCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	return s.conn.Exec(execCtx, query,
		rec.TraceID, rec.Stage, ts, rec.LatencyMS,
		rec.PromptTokens, rec.CompletionTokens, rec.CacheHit, rec.Error,
	)
}
