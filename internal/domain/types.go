// Package domain holds the shared data model for the consultation RAG core:
// chunks, embeddings, retrieval results, graph entities/relations, query
// plans, agent state, and cache entries. Every retrieval/orchestration
// package in this module imports these types rather than redeclaring them.
package domain

import "time"

// ChunkType distinguishes how a Chunk's Body/Payload should be interpreted.
type ChunkType string

const (
	ChunkText    ChunkType = "text"
	ChunkTable   ChunkType = "table"
	ChunkImage   ChunkType = "image"
	ChunkHeading ChunkType = "heading"
)

// Chunk is a unit of retrievable evidence produced by the chunker and
// consumed by the vector/BM25 indexes.
type Chunk struct {
	ID          string
	Type        ChunkType
	Title       string // heading text this chunk was emitted under, if any
	Level       int    // 0, 1 or 2; 0 when not under any heading
	ParentTitle string // nearest enclosing H1/H2 title
	Body        string
	Payload     ChunkPayload
	Metadata    ChunkMetadata
}

// ChunkPayload carries the structured content specific to table/image chunks.
// AIDescription is always present (possibly empty string) on table/image
// chunks per the chunker's invariant.
type ChunkPayload struct {
	TableHTML     string
	ImagePath     string
	AIDescription string
	ContextBefore string
	ContextAfter  string
}

// ChunkMetadata is the side information written alongside a chunk into the
// vector/BM25 indexes.
type ChunkMetadata struct {
	DocumentID string
	Page       int
	BBox       [4]float64
	ChunkIndex int
}

// Embedding is a fixed-dimension float vector. Embeddings are owned by
// whichever store wrote them and are never mutated after creation.
type Embedding []float32

const EmbeddingDim = 1024

// RetrievalMethod names which sub-retriever produced a RetrievalResult.
type RetrievalMethod string

const (
	MethodVector RetrievalMethod = "vector"
	MethodBM25   RetrievalMethod = "bm25"
	MethodSemantic RetrievalMethod = "semantic"
	MethodKG     RetrievalMethod = "knowledge_graph"
)

// RetrievalResult is produced by a single retriever and mutated only by
// downstream fusion/rerank stages; it is dropped at the end of a request.
type RetrievalResult struct {
	Chunk          Chunk
	SourceTag      string
	Method         RetrievalMethod
	RawScore       float64
	PerMethodScore map[RetrievalMethod]float64
	// FinalScore is defined after fusion and monotone w.r.t. the rerank output.
	FinalScore float64
	// Scratch carries intermediate rerank fields (bge_score, ml_score, ...)
	// so the reranker chain can compose without redefining RetrievalResult
	// at every stage.
	Scratch map[string]float64
}

// EntityType enumerates the node labels in the knowledge graph.
type EntityType string

const (
	EntityDisease     EntityType = "Disease"
	EntitySymptom     EntityType = "Symptom"
	EntityDrug        EntityType = "Drug"
	EntityExamination EntityType = "Examination"
	EntityDepartment  EntityType = "Department"
)

// Entity is created by ingestion and is read-only at query time.
type Entity struct {
	Type          EntityType
	CanonicalName string
	Properties    map[string]any
}

// Predicate enumerates the relation types connecting entities.
type Predicate string

const (
	PredHasSymptom         Predicate = "HAS_SYMPTOM"
	PredTreatedBy          Predicate = "TREATED_BY"
	PredRequiresExam       Predicate = "REQUIRES_EXAM"
	PredBelongsTo          Predicate = "BELONGS_TO"
	PredInteractsWith      Predicate = "INTERACTS_WITH"
	PredContraindicatedFor Predicate = "CONTRAINDICATED_FOR"
	PredAccompanies        Predicate = "ACCOMPANIES"
)

// Relation is idempotent on (Subject, Predicate, Object) — inserting it
// twice must leave the graph unchanged (MERGE semantics).
type Relation struct {
	Subject    Entity
	Predicate  Predicate
	Object     Entity
	Properties map[string]any
}

// QueryPlan is derived once per turn by the strategy selector and is
// immutable once emitted.
type QueryPlan struct {
	QuestionType   string
	StrategyName   string
	EntityPriority []EntityType
	Depth          int
	MaxResults     int
	Confidence     float64
}

// RiskLevel is the doctor agent's triage classification.
type RiskLevel string

const (
	RiskHigh     RiskLevel = "high"
	RiskCritical RiskLevel = "critical"
	RiskMedium   RiskLevel = "medium"
	RiskLow      RiskLevel = "low"
)

// AgentState is mutable for the duration of one orchestration run; it is
// never persisted by the core.
type AgentState struct {
	UserInput string
	Intent    string
	AgentType string
	Result    SpecialistResult
	Context   map[string]any // history, user_profile, risk_level, trace_id, intent_confidence, ...
	Err       error
}

// SpecialistResult is what a specialist agent's process() call returns.
type SpecialistResult struct {
	Answer        string
	Sources       []RetrievalResult
	ToolsUsed     []string
	RiskLevel     RiskLevel
	ExecutionTime time.Duration
	CacheHit      bool
	Similarity    float64
}

// CacheEntry is the semantic-cache record keyed by query-embedding
// similarity, with a TTL of roughly 7 days.
type CacheEntry struct {
	QueryEmbedding Embedding
	QueryText      string
	Response       string
	Metadata       map[string]any
	Timestamp      time.Time
}

const SemanticCacheTTL = 7 * 24 * time.Hour
