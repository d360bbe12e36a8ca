package llm

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/sony/gobreaker"
	"go.opentelemetry.io/otel/trace"

	"singularityio/internal/observability"
)

// Cache is the subset of the semantic cache (internal/cache/semantic) that
// Client needs; defined here to avoid an import cycle, satisfied by
// *semantic.Cache.
type Cache interface {
	Lookup(ctx context.Context, prompt string) (response string, similarity float64, hit bool)
	Store(ctx context.Context, prompt, response string) error
}

// GenerateOptions mirrors the reference service's generate() keyword
// arguments. Generate uses SystemPrompt and Model; Temperature and
// MaxTokens are not forwarded to the provider.
type GenerateOptions struct {
	SystemPrompt string
	Temperature  float64
	MaxTokens    int
	Model        string
}

// Client wraps a Provider with retry and a circuit breaker, and an
// optional semantic cache lookup, matching the retry-decorated,
// cache-checking generate() method of the reference LLM service.
type Client struct {
	provider Provider
	cache    Cache
	breaker  *gobreaker.CircuitBreaker
	model    string
	sink     observability.Sink
}

// NewClient builds a breaker-protected client. The breaker is named
// "llm_service" and opens for 60s after 5 consecutive failures.
func NewClient(provider Provider, model string, cache Cache) *Client {
	st := gobreaker.Settings{
		Name:        "llm_service",
		MaxRequests: 1,
		Interval:    0,
		Timeout:     60 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
	}
	return &Client{
		provider: provider,
		cache:    cache,
		breaker:  gobreaker.NewCircuitBreaker(st),
		model:    model,
	}
}

// WithSink attaches a generation-record sink (e.g. observability.ClickHouseSink)
// that records one row per Generate call. Returns c for chaining at
// construction time; a nil sink disables the ledger.
func (c *Client) WithSink(sink observability.Sink) *Client {
	c.sink = sink
	return c
}

// Generate produces one completion for a single-turn prompt, checking the
// semantic cache first and retrying transient provider failures with
// exponential backoff before giving up.
func (c *Client) Generate(ctx context.Context, prompt string, opts GenerateOptions) (string, bool, error) {
	start := time.Now()
	cacheKey := opts.SystemPrompt + ":" + prompt
	if c.cache != nil {
		if resp, _, hit := c.cache.Lookup(ctx, cacheKey); hit {
			c.recordGeneration(ctx, start, true, nil)
			return resp, true, nil
		}
	}

	msgs := make([]Message, 0, 2)
	if opts.SystemPrompt != "" {
		msgs = append(msgs, Message{Role: "system", Content: opts.SystemPrompt})
	}
	msgs = append(msgs, Message{Role: "user", Content: prompt})

	model := opts.Model
	if model == "" {
		model = c.model
	}

	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = time.Second
	bo.Multiplier = 2
	bo.MaxElapsedTime = 30 * time.Second

	var out string
	op := func() error {
		result, err := c.breaker.Execute(func() (any, error) {
			msg, err := c.provider.Chat(ctx, msgs, nil, model)
			if err != nil {
				return "", err
			}
			return msg.Content, nil
		})
		if err != nil {
			return err
		}
		out = result.(string)
		return nil
	}
	if err := backoff.Retry(op, backoff.WithContext(bo, ctx)); err != nil {
		c.recordGeneration(ctx, start, false, err)
		return "", false, err
	}

	if c.cache != nil {
		_ = c.cache.Store(ctx, cacheKey, out)
	}
	c.recordGeneration(ctx, start, false, nil)
	return out, false, nil
}

// recordGeneration writes one generation row via c.sink, if configured. It
// never fails the request it describes: sink errors are discarded without
// logging.
func (c *Client) recordGeneration(ctx context.Context, start time.Time, cacheHit bool, genErr error) {
	if c.sink == nil {
		return
	}
	rec := observability.GenerationRecord{
		Stage:     "generate",
		Timestamp: time.Now().UTC(),
		LatencyMS: time.Since(start).Milliseconds(),
		CacheHit:  cacheHit,
	}
	if sc := trace.SpanContextFromContext(ctx); sc.HasTraceID() {
		rec.TraceID = sc.TraceID().String()
	}
	if genErr != nil {
		rec.Error = genErr.Error()
	}
	_ = c.sink.Record(ctx, rec)
}
