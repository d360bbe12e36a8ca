// Package metricsfeed consumes system-monitoring metrics from Kafka and
// hands each batch to the operations specialist's "monitoring" path,
// rather than requiring a caller to POST them through the HTTP API.
package metricsfeed

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/segmentio/kafka-go"

	"singularityio/internal/specialists"
)

// Analyzer is the subset of OperationsAgent the feed needs; satisfied by
// *specialists.OperationsAgent.
type Analyzer interface {
	Process(ctx context.Context, req specialists.Request) specialists.Result
}

// Consumer reads one metrics payload (a JSON object) per Kafka message and
// runs it through Analyzer's monitoring path, logging the resulting
// assessment. Unlike the teacher's command-dispatch consumer, there is no
// worker pool, dedupe store, or DLQ: metrics ingestion has no caller
// waiting on a reply and no exactly-once requirement, so a single reader
// goroutine with at-least-once commit semantics is sufficient.
type Consumer struct {
	reader   *kafka.Reader
	analyzer Analyzer
}

// Config mirrors the reader fields the teacher's StartKafkaConsumer
// exposes, trimmed to what a single-consumer metrics feed needs.
type Config struct {
	Brokers []string
	GroupID string
	Topic   string
}

// NewConsumer builds a Consumer. It does not connect until Run is called.
func NewConsumer(cfg Config, analyzer Analyzer) *Consumer {
	return &Consumer{
		reader: kafka.NewReader(kafka.ReaderConfig{
			Brokers:  cfg.Brokers,
			GroupID:  cfg.GroupID,
			Topic:    cfg.Topic,
			MinBytes: 1,
			MaxBytes: 10e6,
		}),
		analyzer: analyzer,
	}
}

// processPayload decodes one metrics message and runs it through analyzer.
// Split out from Run so it can be tested without a live Kafka broker.
func processPayload(ctx context.Context, analyzer Analyzer, payload []byte) (specialists.Result, error) {
	var metrics map[string]any
	if err := json.Unmarshal(payload, &metrics); err != nil {
		return specialists.Result{}, err
	}
	result := analyzer.Process(ctx, specialists.Request{Type: "monitoring", Metrics: metrics})
	log.Info().Str("risk_level", string(result.RiskLevel)).Msg("metrics_feed_assessment")
	return result, nil
}

// Run fetches messages until ctx is canceled, decoding each as a
// map[string]any metrics payload and committing only after the analyzer
// has processed it. Transient fetch errors are logged and retried after a
// short delay rather than aborting the feed.
func (c *Consumer) Run(ctx context.Context) error {
	defer func() {
		if err := c.reader.Close(); err != nil {
			log.Warn().Err(err).Msg("metrics_feed_reader_close_failed")
		}
	}()

	for {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		msg, err := c.reader.FetchMessage(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return ctx.Err()
			}
			log.Warn().Err(err).Msg("metrics_feed_fetch_failed")
			t := time.NewTimer(500 * time.Millisecond)
			select {
			case <-t.C:
			case <-ctx.Done():
				t.Stop()
				return ctx.Err()
			}
			continue
		}

		if _, err := processPayload(ctx, c.analyzer, msg.Value); err != nil {
			log.Warn().Err(err).Msg("metrics_feed_decode_failed")
		}

		// processPayload already logged the assessment; only commit
		// offset failures are reported here.
		if err := c.reader.CommitMessages(ctx, msg); err != nil {
			log.Warn().Err(err).
				Str("topic", msg.Topic).
				Int("partition", msg.Partition).
				Int64("offset", msg.Offset).
				Msg("metrics_feed_commit_failed")
		}
	}
}
