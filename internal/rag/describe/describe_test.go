package describe

import (
	"context"
	"testing"

	"singularityio/internal/llm"
	"singularityio/internal/rag/chunker"
)

type echoProvider struct{}

func (echoProvider) Chat(_ context.Context, msgs []llm.Message, _ []llm.ToolSchema, _ string) (llm.Message, error) {
	return llm.Message{Role: "assistant", Content: "描述: " + msgs[len(msgs)-1].Content[:10]}, nil
}

func (echoProvider) ChatStream(context.Context, []llm.Message, []llm.ToolSchema, string, llm.StreamHandler) error {
	return nil
}

func TestGenerator_Table_PopulatesAIDescription(t *testing.T) {
	g := NewGenerator(llm.NewClient(echoProvider{}, "test-model", nil))
	table := chunker.TableElement{Title: "血常规", HTML: "<table><tr><td>WBC</td></tr></table>"}

	out := g.Table(context.Background(), table, "")
	if out.AIDescription == "" {
		t.Fatal("expected AIDescription to be populated")
	}
}

func TestGenerator_Table_SkipsEmptyHTML(t *testing.T) {
	g := NewGenerator(llm.NewClient(echoProvider{}, "test-model", nil))
	out := g.Table(context.Background(), chunker.TableElement{Title: "空表格"}, "")
	if out.AIDescription != "" {
		t.Fatalf("expected no description for empty HTML, got %q", out.AIDescription)
	}
}

func TestGenerator_Image_PopulatesAIDescription(t *testing.T) {
	g := NewGenerator(llm.NewClient(echoProvider{}, "test-model", nil))
	img := chunker.ImageElement{Path: "/tmp/fig1.png", Title: "图1", ContextBefore: "前文说明"}

	out := g.Image(context.Background(), img)
	if out.AIDescription == "" {
		t.Fatal("expected AIDescription to be populated")
	}
}

func TestGenerator_Batch_ProcessesAllSidecars(t *testing.T) {
	g := NewGenerator(llm.NewClient(echoProvider{}, "test-model", nil))
	tables := []chunker.TableElement{{Title: "t1", HTML: "<table></table>"}}
	images := []chunker.ImageElement{{Path: "/tmp/a.png", Title: "i1"}}

	outTables, outImages := g.Batch(context.Background(), tables, images)
	if outTables[0].AIDescription == "" {
		t.Error("expected table description to be populated")
	}
	if outImages[0].AIDescription == "" {
		t.Error("expected image description to be populated")
	}
}
