// Command consult runs the medical-consultation backend: an HTTP server
// wiring the knowledge/vector/graph/cache stores, the chunk/embed/index
// ingestion pipeline, the four-path retrieval and reranking pipeline, and
// the doctor/health-manager/customer-service/operations agent orchestrator
// behind the /v1/consult and /v1/ingest endpoints.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"

	"singularityio/internal/cache/semantic"
	"singularityio/internal/config"
	"singularityio/internal/domain"
	"singularityio/internal/llm"
	"singularityio/internal/llm/providers"
	"singularityio/internal/nlp/entity"
	"singularityio/internal/nlp/strategy"
	"singularityio/internal/observability"
	"singularityio/internal/orchestrator"
	"singularityio/internal/rag/chunker"
	"singularityio/internal/rag/describe"
	"singularityio/internal/rag/embedder"
	"singularityio/internal/rag/ingest"
	"singularityio/internal/rag/pdfparse"
	"singularityio/internal/rerank"
	kgretrieve "singularityio/internal/retrieve/kg"
	semanticretrieve "singularityio/internal/retrieve/semantic"
	"singularityio/internal/specialists"
	"singularityio/internal/specialists/metricsfeed"
	"singularityio/internal/store/bm25"
	"singularityio/internal/store/graph"
	"singularityio/internal/store/kv"
	"singularityio/internal/store/vector"
)

func main() {
	if err := godotenv.Load(".env"); err != nil {
		_ = godotenv.Load("example.env")
	}
	observability.InitLogger("consult.log", "info")

	configPath := flag.String("config", "config.yaml", "path to the YAML config file")
	addr := flag.String("addr", ":8090", "HTTP listen address")
	flag.Parse()

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.OTel.Enabled {
		shutdownOTel, err := observability.InitOTel(ctx, cfg.OTel)
		if err != nil {
			log.Warn().Err(err).Msg("otel_init_failed")
		} else {
			defer func() { _ = shutdownOTel(context.Background()) }()
		}
	}

	graphClient := graph.New(cfg.Graph.URI, cfg.Graph.User, cfg.Graph.Password)
	if err := graphClient.EnsureIndexes(ctx); err != nil {
		log.Warn().Err(err).Msg("graph_ensure_indexes_failed")
	}

	vectorStore := vector.New(cfg.Vector.DSN)
	if err := vectorStore.EnsureCollection(ctx, vector.DocumentCollection, domain.EmbeddingDim, vector.MetricCosine); err != nil {
		log.Warn().Err(err).Msg("vector_ensure_document_collection_failed")
	}
	if err := vectorStore.EnsureCollection(ctx, vector.CacheCollection, domain.EmbeddingDim, vector.MetricCosine); err != nil {
		log.Warn().Err(err).Msg("vector_ensure_cache_collection_failed")
	}

	bm25Index := bm25.New()

	embed := embedder.NewClient(cfg.Embedding, domain.EmbeddingDim)

	var exporter *pdfparse.Exporter
	if cfg.Ingestion.PDFExportBucket != "" {
		uploader, err := pdfparse.NewS3Uploader(ctx, cfg.Ingestion.PDFExportBucket, cfg.Ingestion.PDFExportRegion)
		if err != nil {
			log.Warn().Err(err).Msg("pdf_export_uploader_init_failed")
		} else {
			exporter = pdfparse.NewExporter(uploader)
			exporter.ExportPrefix = cfg.Ingestion.PDFExportPrefix
		}
	}
	docChunker := chunker.New(cfg.Ingestion.ChunkSize, cfg.Ingestion.ChunkOverlap)
	pdfParser := pdfparse.NewLocalParser()
	ingestPipeline := ingest.NewPipeline(docChunker, embed, vectorStore, bm25Index, exporter, nil)

	var kvStore *kv.Store
	if cfg.Redis.Enabled {
		kvStore, err = kv.New(kv.Config{
			Addr:                  cfg.Redis.Addr,
			Password:              cfg.Redis.Password,
			DB:                    cfg.Redis.DB,
			TLSInsecureSkipVerify: cfg.Redis.TLSInsecureSkipVerify,
		})
		if err != nil {
			log.Warn().Err(err).Msg("redis_connect_degraded")
		}
	}

	httpClient := observability.NewHTTPClient(nil)
	provider, err := providers.Build(*cfg, httpClient)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to build llm provider")
	}

	respCache := semantic.New(vectorStore, embed, semantic.DefaultSimilarityThreshold, cfg.Redis.Enabled)
	llmModel := cfg.LLMClient.OpenAI.Model
	if cfg.LLMClient.Provider == "anthropic" {
		llmModel = cfg.LLMClient.Anthropic.Model
	}
	llmClient := llm.NewClient(provider, llmModel, respCache)
	if genSink, err := observability.NewClickHouseSink(ctx, cfg.ClickHouse); err != nil {
		log.Warn().Err(err).Msg("clickhouse_sink_init_failed")
	} else if genSink != nil {
		llmClient.WithSink(genSink)
	}
	ingestPipeline.Describer = describe.NewGenerator(llmClient)

	recognizer := entity.NewRecognizer(llmClient, graphClient)
	selector := strategy.NewSelector()

	kgRetriever := kgretrieve.NewRetriever(graphClient, recognizer, selector)
	semanticRetriever := semanticretrieve.NewRetriever(llmClient, embed, vectorStore)

	var bgeClient *rerank.BGEClient
	if cfg.Reranker.Host != "" {
		bgeClient = rerank.NewBGEClient(rerank.BGEConfig{BaseURL: cfg.Reranker.Host})
	}
	rerankChain := rerank.NewChain(bgeClient, nil, nil, rerank.DefaultWeights)

	ragTool := specialists.NewRAGTool(vectorStore, embed, bm25Index, semanticRetriever, kgRetriever, rerankChain)
	kgTool := specialists.NewKGTool(graphClient, kvStore)

	doctor := specialists.NewDoctorAgent(llmClient, ragTool, kgTool)
	healthManager := specialists.NewHealthManagerAgent(llmClient, ragTool, kgTool, recognizer)
	customerService := specialists.NewCustomerServiceAgent(llmClient, ragTool)
	operations := specialists.NewOperationsAgent(llmClient)

	orch := orchestrator.New(doctor, healthManager, customerService, operations)

	if len(cfg.KafkaMetricsFeed.Brokers) > 0 {
		feed := metricsfeed.NewConsumer(metricsfeed.Config{
			Brokers: cfg.KafkaMetricsFeed.Brokers,
			GroupID: cfg.KafkaMetricsFeed.GroupID,
			Topic:   cfg.KafkaMetricsFeed.Topic,
		}, operations)
		go func() {
			if err := feed.Run(ctx); err != nil && ctx.Err() == nil {
				log.Error().Err(err).Msg("metrics_feed_stopped")
			}
		}()
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintln(w, "ok")
	})
	mux.HandleFunc("/v1/consult", consultHandler(orch))
	mux.HandleFunc("/v1/ingest", ingestHandler(ingestPipeline, pdfParser))

	srv := &http.Server{
		Addr:         *addr,
		Handler:      mux,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 2 * time.Minute,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
		_ = graphClient.Close(shutdownCtx)
		_ = vectorStore.Close()
	}()

	log.Info().Str("addr", *addr).Msg("consult_listening")
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatal().Err(err).Msg("consult_server_failed")
	}
}

type consultRequest struct {
	Question       string                     `json:"question"`
	Type           string                     `json:"type,omitempty"`
	History        []specialists.HistoryTurn  `json:"history,omitempty"`
	UserProfile    map[string]any             `json:"user_profile,omitempty"`
	FeedbackData   map[string]any             `json:"feedback_data,omitempty"`
	OperationsData map[string]any             `json:"operations_data,omitempty"`
}

type consultResponse struct {
	Intent           string                      `json:"intent"`
	IntentConfidence float64                     `json:"intent_confidence"`
	Answer           string                      `json:"answer"`
	RiskLevel        string                      `json:"risk_level,omitempty"`
	Sources          []string                    `json:"sources,omitempty"`
	ToolsUsed        []string                    `json:"tools_used,omitempty"`
	Diagnosis        *specialists.DiagnosisResult `json:"diagnosis,omitempty"`
}

func consultHandler(orch *orchestrator.Orchestrator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		var req consultRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "bad request", http.StatusBadRequest)
			return
		}
		if req.Question == "" {
			http.Error(w, "question is required", http.StatusBadRequest)
			return
		}

		requestID := uuid.NewString()
		reqLog := log.With().Str("request_id", requestID).Logger()
		reqLog.Info().Str("intent_hint", req.Type).Msg("consult_request_received")

		resp := orch.Process(r.Context(), req.Question, specialists.Request{
			Type:           req.Type,
			History:        req.History,
			UserProfile:    req.UserProfile,
			FeedbackData:   req.FeedbackData,
			OperationsData: req.OperationsData,
		})

		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("X-Request-ID", requestID)
		_ = json.NewEncoder(w).Encode(consultResponse{
			Intent:           string(resp.Intent),
			IntentConfidence: resp.IntentConfidence,
			Answer:           resp.Result.Answer,
			RiskLevel:        string(resp.Result.RiskLevel),
			Sources:          resp.Result.Sources,
			ToolsUsed:        resp.Result.ToolsUsed,
			Diagnosis:        resp.Result.Diagnosis,
		})
	}
}

type ingestRequest struct {
	DocID    string `json:"doc_id"`
	Title    string `json:"title,omitempty"`
	URL      string `json:"url,omitempty"`
	Source   string `json:"source,omitempty"`
	Text     string `json:"text,omitempty"`
	PDFPath  string `json:"pdf_path,omitempty"`
	Reingest string `json:"reingest_policy,omitempty"`
}

type ingestResponse struct {
	DocID      string   `json:"doc_id"`
	Version    int      `json:"version"`
	ChunkIDs   []string `json:"chunk_ids"`
	NumChunks  int      `json:"num_chunks"`
	VectorUpserts int   `json:"vector_upserts"`
	Warnings   []string `json:"warnings,omitempty"`
}

// ingestHandler accepts either inline text or a server-local PDF path,
// parses/chunks/indexes it through the ingestion pipeline (C6 chunker +
// C7 pdfparse), and reports per-chunk indexing results.
func ingestHandler(pipeline *ingest.Pipeline, pdfParser pdfparse.Parser) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		var req ingestRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "bad request", http.StatusBadRequest)
			return
		}
		if req.DocID == "" {
			req.DocID = uuid.NewString()
		}
		if req.Text == "" && req.PDFPath == "" {
			http.Error(w, "text or pdf_path is required", http.StatusBadRequest)
			return
		}

		var sidecars ingest.Sidecars
		text := req.Text
		if req.PDFPath != "" {
			doc, err := pdfParser.Parse(r.Context(), req.PDFPath)
			if err != nil {
				http.Error(w, fmt.Sprintf("pdf parse failed: %v", err), http.StatusUnprocessableEntity)
				return
			}
			text = doc.Text
			sidecars = ingest.Sidecars{Tables: doc.Tables, Images: doc.Images}
		}

		policy := ingest.ReingestPolicy(req.Reingest)
		if policy == "" {
			policy = ingest.ReingestOverwrite
		}

		resp, err := pipeline.Ingest(r.Context(), ingest.IngestRequest{
			ID:     req.DocID,
			Title:  req.Title,
			URL:    req.URL,
			Source: req.Source,
			Text:   text,
			Options: ingest.IngestOptions{
				Embedding:      ingest.EmbeddingOptions{Enabled: true},
				ReingestPolicy: policy,
			},
		}, sidecars)
		if err != nil {
			log.Error().Err(err).Str("doc_id", req.DocID).Msg("ingest_failed")
			http.Error(w, "ingest failed", http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(ingestResponse{
			DocID:         resp.DocID,
			Version:       resp.Version,
			ChunkIDs:      resp.ChunkIDs,
			NumChunks:     resp.Stats.NumChunks,
			VectorUpserts: resp.Stats.VectorUpserts,
			Warnings:      resp.Warnings,
		})
	}
}
