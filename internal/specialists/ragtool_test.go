package specialists

import (
	"context"
	"testing"
)

func TestRAGTool_Search_AllPathsNilReturnsEmptyResult(t *testing.T) {
	tool := NewRAGTool(nil, nil, nil, nil, nil, nil)

	result, err := tool.Search(context.Background(), "头痛怎么办", 5)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(result.Results) != 0 {
		t.Errorf("expected no results with every retrieval path nil, got %v", result.Results)
	}
	if result.Context != "" {
		t.Errorf("expected empty context, got %q", result.Context)
	}
}

func TestFormatContext_EmptyResultsReturnsEmptyString(t *testing.T) {
	if got := formatContext(nil); got != "" {
		t.Errorf("formatContext(nil) = %q, want empty string", got)
	}
}

func TestSourcesOf_EmptyResultsReturnsEmptySlice(t *testing.T) {
	out := sourcesOf(nil)
	if len(out) != 0 {
		t.Errorf("sourcesOf(nil) = %v, want empty", out)
	}
}

func TestExtractEntities_NilRecognizerReturnsZeroValue(t *testing.T) {
	entities := ExtractEntities(context.Background(), nil, "发热咳嗽")
	if len(entities.Diseases) != 0 || len(entities.Symptoms) != 0 {
		t.Errorf("expected zero-value Entities for a nil recognizer, got %v", entities)
	}
}
