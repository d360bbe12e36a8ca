package observability

import (
	"context"
	"testing"

	"singularityio/internal/config"
)

func TestNewClickHouseSink_EmptyDSNDisablesSink(t *testing.T) {
	sink, err := NewClickHouseSink(context.Background(), config.ClickHouseConfig{})
	if err != nil {
		t.Fatalf("NewClickHouseSink: %v", err)
	}
	if sink != nil {
		t.Fatalf("expected nil sink for empty DSN, got %+v", sink)
	}
}

func TestClickHouseSink_RecordNoopOnNilReceiver(t *testing.T) {
	var sink *ClickHouseSink
	if err := sink.Record(context.Background(), GenerationRecord{Stage: "generate"}); err != nil {
		t.Fatalf("Record on nil sink: %v", err)
	}
}
