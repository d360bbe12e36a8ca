// Package describe generates AI descriptions for table and image sidecars
// recovered during PDF parsing (internal/rag/pdfparse), populating the
// TableElement/ImageElement.AIDescription fields the chunker (C6) folds
// into each chunk's body.
package describe

import (
	"context"
	"fmt"
	"time"

	"singularityio/internal/llm"
	"singularityio/internal/rag/chunker"
)

const tableSystemPrompt = "你是一个专业的数据分析师，擅长分析表格数据并生成准确、简洁的描述。"
const imageSystemPrompt = "你是一个专业的医疗图像分析师，擅长识别和分析医疗相关的图表、数据可视化等信息。"

// Generator fills in AIDescription on tables/images using an LLM client.
// Retries and circuit-breaking are handled by *llm.Client itself
// (cenkalti/backoff + sony/gobreaker, see internal/llm/generate.go), so
// Generator does not duplicate that policy — a failed description call
// degrades to an empty AIDescription rather than failing the batch, same
// as the reference generator's except-and-return-empty-string behavior.
type Generator struct {
	Client *llm.Client
}

func NewGenerator(client *llm.Client) *Generator {
	return &Generator{Client: client}
}

// Table generates a table's description in place, returning the
// populated element. An empty HTML is left undescribed.
func (g *Generator) Table(ctx context.Context, t chunker.TableElement, context_ string) chunker.TableElement {
	if t.HTML == "" {
		return t
	}
	prompt := ""
	if context_ != "" {
		prompt += fmt.Sprintf("上下文信息：\n%s\n\n", context_)
	}
	if t.Title != "" {
		prompt += fmt.Sprintf("表格标题：%s\n\n", t.Title)
	}
	prompt += fmt.Sprintf("表格HTML：\n%s\n\n请分析这个表格，生成简洁的文字描述，包括表格的主要内容和关键数据。", t.HTML)

	desc, _, err := g.Client.Generate(ctx, prompt, llm.GenerateOptions{SystemPrompt: tableSystemPrompt, Temperature: 0.3, MaxTokens: 1000})
	if err != nil {
		return t
	}
	t.AIDescription = desc
	return t
}

// Image generates an image's description from its title and surrounding
// text context. The reference generator sends the image itself to a
// vision model; this module's Provider/Message contract is text-only, so
// the prompt instead leans on title/context-before/context-after the way
// the chunker already threads that context into a chunk's body — a
// documented simplification, not a silent behavior change.
func (g *Generator) Image(ctx context.Context, img chunker.ImageElement) chunker.ImageElement {
	if img.Path == "" {
		return img
	}
	prompt := ""
	if img.ContextBefore != "" {
		prompt += fmt.Sprintf("前文上下文：\n%s\n\n", img.ContextBefore)
	}
	if img.Title != "" {
		prompt += fmt.Sprintf("图片标题：%s\n\n", img.Title)
	}
	prompt += "请根据标题与上下文，推测并描述这张图片中可能包含的医疗相关内容，包括图表、文字、数据等信息。"
	if img.ContextAfter != "" {
		prompt += fmt.Sprintf("\n\n后文上下文：\n%s", img.ContextAfter)
	}

	desc, _, err := g.Client.Generate(ctx, prompt, llm.GenerateOptions{SystemPrompt: imageSystemPrompt, Temperature: 0.3, MaxTokens: 1000})
	if err != nil {
		return img
	}
	img.AIDescription = desc
	return img
}

// Batch fills descriptions for every table/image sidecar, matching the
// reference's generate_table_descriptions_batch/generate_image_descriptions_batch
// sequential-processing shape (no concurrency: description generation is
// not the bottleneck ingestion needs to parallelize), with a 0.5 s pause
// between consecutive description calls.
func (g *Generator) Batch(ctx context.Context, tables []chunker.TableElement, images []chunker.ImageElement) ([]chunker.TableElement, []chunker.ImageElement) {
	n := 0
	pause := func() {
		if n > 0 {
			select {
			case <-time.After(500 * time.Millisecond):
			case <-ctx.Done():
			}
		}
		n++
	}
	outTables := make([]chunker.TableElement, len(tables))
	for i, t := range tables {
		pause()
		outTables[i] = g.Table(ctx, t, "")
	}
	outImages := make([]chunker.ImageElement, len(images))
	for i, img := range images {
		pause()
		outImages[i] = g.Image(ctx, img)
	}
	return outTables, outImages
}
