// Package graph wraps a Neo4j driver with the lazy-reconnect discipline
// spec.md §5/§9 requires for process-wide clients, and exposes the
// parameterized Cypher templates used by the KG retriever (C10), KGTool
// and the UpsertRelation writer.
package graph

import (
	"context"
	"fmt"
	"sync"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"singularityio/internal/domain"
)

// Client is a process-wide singleton, mutex-protected against thundering
// herds on reconnect, as spec.md §5 requires of graph/vector/KV clients.
type Client struct {
	uri, user, password string

	mu     sync.Mutex
	driver neo4j.DriverWithContext
}

func New(uri, user, password string) *Client {
	return &Client{uri: uri, user: user, password: password}
}

func (c *Client) connect(ctx context.Context) (neo4j.DriverWithContext, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.driver != nil {
		if err := c.driver.VerifyConnectivity(ctx); err == nil {
			return c.driver, nil
		}
		_ = c.driver.Close(ctx)
		c.driver = nil
	}
	d, err := neo4j.NewDriverWithContext(c.uri, neo4j.BasicAuth(c.user, c.password, ""))
	if err != nil {
		return nil, fmt.Errorf("dial neo4j: %w", err)
	}
	if err := d.VerifyConnectivity(ctx); err != nil {
		_ = d.Close(ctx)
		return nil, fmt.Errorf("verify neo4j connectivity: %w", err)
	}
	c.driver = d
	return d, nil
}

func (c *Client) Close(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.driver == nil {
		return nil
	}
	err := c.driver.Close(ctx)
	c.driver = nil
	return err
}

// Record is one row of a Cypher result.
type Record map[string]any

// Run executes a read query. A connection failure returns an error; callers
// that can tolerate a missing graph (C10's "no graph client" edge case)
// should treat any error here as "no evidence", not a fault.
func (c *Client) Run(ctx context.Context, cypher string, params map[string]any) ([]Record, error) {
	d, err := c.connect(ctx)
	if err != nil {
		return nil, err
	}
	session := d.NewSession(ctx, neo4j.SessionConfig{AccessMode: neo4j.AccessModeRead})
	defer session.Close(ctx)
	result, err := session.Run(ctx, cypher, params)
	if err != nil {
		return nil, err
	}
	var out []Record
	for result.Next(ctx) {
		out = append(out, Record(result.Record().AsMap()))
	}
	return out, result.Err()
}

// RunWrite executes a write query inside an explicit transaction function,
// matching the "consume results inside the transaction" discipline the
// reference client uses for execute_write.
func (c *Client) RunWrite(ctx context.Context, cypher string, params map[string]any) ([]Record, error) {
	d, err := c.connect(ctx)
	if err != nil {
		return nil, err
	}
	session := d.NewSession(ctx, neo4j.SessionConfig{AccessMode: neo4j.AccessModeWrite})
	defer session.Close(ctx)
	res, err := session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		r, err := tx.Run(ctx, cypher, params)
		if err != nil {
			return nil, err
		}
		var rows []Record
		for r.Next(ctx) {
			rows = append(rows, Record(r.Record().AsMap()))
		}
		return rows, r.Err()
	})
	if err != nil {
		return nil, err
	}
	rows, _ := res.([]Record)
	return rows, nil
}

// EnsureIndexes creates the indexes named in §6: (Disease,name),
// (Disease,icd10), (Symptom,name), (Drug,name), (Examination,name).
func (c *Client) EnsureIndexes(ctx context.Context) error {
	stmts := []string{
		"CREATE INDEX disease_name IF NOT EXISTS FOR (d:Disease) ON (d.name)",
		"CREATE INDEX disease_icd10 IF NOT EXISTS FOR (d:Disease) ON (d.icd10)",
		"CREATE INDEX symptom_name IF NOT EXISTS FOR (s:Symptom) ON (s.name)",
		"CREATE INDEX drug_name IF NOT EXISTS FOR (dr:Drug) ON (dr.name)",
		"CREATE INDEX exam_name IF NOT EXISTS FOR (e:Examination) ON (e.name)",
	}
	for _, s := range stmts {
		if _, err := c.RunWrite(ctx, s, nil); err != nil {
			return err
		}
	}
	return nil
}

// UpsertRelation writes (subject)-[predicate]->(object) with MERGE
// semantics: inserting the same triple twice leaves the graph unchanged.
func (c *Client) UpsertRelation(ctx context.Context, rel domain.Relation) error {
	cypher := fmt.Sprintf(
		"MERGE (a:%s {name: $from}) MERGE (b:%s {name: $to}) MERGE (a)-[r:%s]->(b) SET r += $props RETURN r",
		rel.Subject.Type, rel.Object.Type, rel.Predicate,
	)
	props := rel.Properties
	if props == nil {
		props = map[string]any{}
	}
	_, err := c.RunWrite(ctx, cypher, map[string]any{
		"from":  rel.Subject.CanonicalName,
		"to":    rel.Object.CanonicalName,
		"props": props,
	})
	return err
}

// Queries mirrors the Cypher template catalog: Disease/Symptom/Drug/
// Examination expansions used by the KG retriever's per-strategy branches.
var Queries = struct {
	DiseaseSymptoms       string
	DiseaseDrugs          string
	DiseaseExaminations   string
	DrugInteractions      string
	DrugContraindications string
	DiseasesBySymptoms    string
	DiseasesTreatedByDrug string
	DiseasesRequiringExam string
	EntityExists          string
	SymptomsByDepartment  string
}{
	DiseaseSymptoms: `MATCH (d:Disease {name: $name})-[:HAS_SYMPTOM]->(s:Symptom)
RETURN s.name AS symptom, s.severity AS severity LIMIT $limit`,
	DiseaseDrugs: `MATCH (d:Disease {name: $name})-[:TREATED_BY]->(dr:Drug)
RETURN dr.name AS drug, dr.generic_name AS generic_name LIMIT $limit`,
	DiseaseExaminations: `MATCH (d:Disease {name: $name})-[:REQUIRES_EXAM]->(e:Examination)
RETURN e.name AS examination, e.type AS type LIMIT $limit`,
	DrugInteractions: `MATCH (d1:Drug {name: $name})-[r:INTERACTS_WITH]-(d2:Drug)
RETURN d2.name AS interacting_drug, r.severity AS severity, r.description AS description LIMIT $limit`,
	DrugContraindications: `MATCH (dr:Drug {name: $name})-[:CONTRAINDICATED_FOR]->(d:Disease)
RETURN d.name AS disease, d.icd10 AS icd10 LIMIT $limit`,
	DiseasesBySymptoms: `MATCH (d:Disease)-[:HAS_SYMPTOM]->(s:Symptom)
WHERE s.name IN $names
WITH d, count(s) AS symptom_count
WHERE symptom_count >= $minMatches
RETURN d.name AS disease, d.icd10 AS icd10, symptom_count
ORDER BY symptom_count DESC LIMIT $limit`,
	DiseasesTreatedByDrug: `MATCH (d:Disease)-[:TREATED_BY]->(dr:Drug {name: $name})
RETURN d.name AS disease, d.icd10 AS icd10 LIMIT $limit`,
	DiseasesRequiringExam: `MATCH (d:Disease)-[:REQUIRES_EXAM]->(e:Examination {name: $name})
RETURN d.name AS disease, d.icd10 AS icd10 LIMIT $limit`,
	EntityExists: `MATCH (n) WHERE $label IN labels(n) AND n.name CONTAINS $name RETURN n.name AS name LIMIT 1`,
	SymptomsByDepartment: `MATCH (s:Symptom)-[:BELONGS_TO]->(dep:Department {name: $name})
RETURN s.name AS symptom LIMIT $limit`,
}

// DiseaseInfo is the composite read used by the KG retriever and
// KGTool.DiseaseInfo: a disease plus its symptoms, drugs and examinations,
// read with four queries.
type DiseaseInfo struct {
	Disease      Record
	Symptoms     []Record
	Drugs        []Record
	Examinations []Record
}

func (c *Client) QueryDiseaseInfo(ctx context.Context, name string, limit int) (DiseaseInfo, error) {
	if limit <= 0 {
		limit = 20
	}
	var info DiseaseInfo
	disease, err := c.Run(ctx, `MATCH (d:Disease {name: $name}) RETURN d`, map[string]any{"name": name})
	if err != nil {
		return info, err
	}
	if len(disease) > 0 {
		info.Disease = disease[0]
	}
	params := map[string]any{"name": name, "limit": limit}
	if info.Symptoms, err = c.Run(ctx, Queries.DiseaseSymptoms, params); err != nil {
		return info, err
	}
	if info.Drugs, err = c.Run(ctx, Queries.DiseaseDrugs, params); err != nil {
		return info, err
	}
	if info.Examinations, err = c.Run(ctx, Queries.DiseaseExaminations, params); err != nil {
		return info, err
	}
	return info, nil
}
