// Package vector wraps a Qdrant collection for chunk embeddings (C2) and,
// via a second collection, semantic-cache embeddings (C14). Both are
// independent collections on the same client, created with only a vector
// size and distance metric (no index tuning), matching the one-ANN-store-serves-both shape decided in
// DESIGN.md's Open Questions section.
package vector

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"sync"

	"github.com/google/uuid"
	"github.com/qdrant/go-client/qdrant"

	"singularityio/internal/domain"
)

// Metric selects the distance function for a collection.
type Metric string

const (
	MetricCosine Metric = "cosine"
	MetricL2     Metric = "l2"
)

// Result is a single nearest-neighbor hit.
type Result struct {
	ID       string
	Score    float64
	Text     string
	Metadata map[string]string
}

const payloadIDField = "_original_id"
const payloadTextField = "_text"

// Store is a process-wide singleton over one Qdrant client, lazily
// reconnected on failure. Collections are created by EnsureCollection.
type Store struct {
	mu     sync.Mutex
	client *qdrant.Client
	dsn    string
}

// New connects lazily: the gRPC client is only dialed on first Ensure/Upsert
// call, so construction never blocks on network availability.
func New(dsn string) *Store {
	return &Store{dsn: dsn}
}

func (s *Store) connect() (*qdrant.Client, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.client != nil {
		return s.client, nil
	}
	u, err := url.Parse(s.dsn)
	if err != nil {
		return nil, fmt.Errorf("parse qdrant dsn: %w", err)
	}
	host := u.Hostname()
	if host == "" {
		host = "localhost"
	}
	portStr := u.Port()
	if portStr == "" {
		portStr = "6334"
	}
	port, err := strconv.Atoi(portStr)
	if err != nil {
		return nil, fmt.Errorf("invalid qdrant port: %w", err)
	}
	cfg := &qdrant.Config{Host: host, Port: port, UseTLS: u.Scheme == "https"}
	if key := u.Query().Get("api_key"); key != "" {
		cfg.APIKey = key
	}
	c, err := qdrant.NewClient(cfg)
	if err != nil {
		return nil, fmt.Errorf("dial qdrant: %w", err)
	}
	s.client = c
	return c, nil
}

// EnsureCollection creates collection (size=dim, the given metric) if absent.
func (s *Store) EnsureCollection(ctx context.Context, collection string, dim int, metric Metric) error {
	c, err := s.connect()
	if err != nil {
		return err
	}
	exists, err := c.CollectionExists(ctx, collection)
	if err != nil {
		return fmt.Errorf("check collection %s: %w", collection, err)
	}
	if exists {
		return nil
	}
	dist := qdrant.Distance_Cosine
	if metric == MetricL2 {
		dist = qdrant.Distance_Euclid
	}
	return c.CreateCollection(ctx, &qdrant.CreateCollection{
		CollectionName: collection,
		VectorsConfig: qdrant.NewVectorsConfig(&qdrant.VectorParams{
			Size:     uint64(dim),
			Distance: dist,
		}),
	})
}

// Upsert writes one chunk's embedding. metadata values are stringified;
// id may be any opaque string (every id is hashed to a deterministic
// UUID, as Qdrant point ids are restricted to UUID/int).
func (s *Store) Upsert(ctx context.Context, collection, id string, vec domain.Embedding, text string, metadata map[string]string) error {
	c, err := s.connect()
	if err != nil {
		return err
	}
	pointID := uuid.NewSHA1(uuid.NameSpaceOID, []byte(id)).String()
	payload := map[string]any{payloadIDField: id, payloadTextField: text}
	for k, v := range metadata {
		payload[k] = v
	}
	f32 := make([]float32, len(vec))
	copy(f32, vec)
	_, err = c.Upsert(ctx, &qdrant.UpsertPoints{
		CollectionName: collection,
		Points: []*qdrant.PointStruct{{
			Id:      qdrant.NewIDUUID(pointID),
			Vectors: qdrant.NewVectorsDense(f32),
			Payload: qdrant.NewValueMap(payload),
		}},
	})
	return err
}

// Search runs an ANN top-k query. k<=0 defaults to 10.
func (s *Store) Search(ctx context.Context, collection string, vec domain.Embedding, k int) ([]Result, error) {
	c, err := s.connect()
	if err != nil {
		return nil, err
	}
	if k <= 0 {
		k = 10
	}
	f32 := make([]float32, len(vec))
	copy(f32, vec)
	limit := uint64(k)
	hits, err := c.Query(ctx, &qdrant.QueryPoints{
		CollectionName: collection,
		Query:          qdrant.NewQueryDense(f32),
		Limit:          &limit,
		WithPayload:    qdrant.NewWithPayload(true),
	})
	if err != nil {
		return nil, err
	}
	out := make([]Result, 0, len(hits))
	for _, h := range hits {
		var origID, text string
		meta := make(map[string]string)
		if h.Payload != nil {
			for k, v := range h.Payload {
				switch k {
				case payloadIDField:
					origID = v.GetStringValue()
				case payloadTextField:
					text = v.GetStringValue()
				default:
					meta[k] = v.GetStringValue()
				}
			}
		}
		if origID == "" {
			origID = h.Id.GetUuid()
		}
		out = append(out, Result{ID: origID, Score: float64(h.Score), Text: text, Metadata: meta})
	}
	return out, nil
}

// Close releases the underlying gRPC connection, if one was opened.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.client == nil {
		return nil
	}
	return s.client.Close()
}

// DocumentCollection and CacheCollection name the two collections per §6:
// IVF_FLAT nlist=1024 for document chunks, nlist=128 for the semantic cache.
// Qdrant's HNSW index does not expose an nlist knob directly; the distinct
// collections still give each index its own segment/config tuning surface.
const (
	DocumentCollection = "chunks"
	CacheCollection     = "semantic_cache"
)
