// Package chunker implements the structure-aware document chunker: it
// locates H1/H2 headings, associates tables and images with the nearest
// heading, and folds any remaining prose through sliding-window chunking.
package chunker

import (
	"regexp"
	"sort"
	"strings"

	"singularityio/internal/domain"
)

var (
	h1MDPattern   = regexp.MustCompile(`(?m)^#\s+(.+)$`)
	h2MDPattern   = regexp.MustCompile(`(?m)^##\s+(.+)$`)
	h1HTMLPattern = regexp.MustCompile(`(?is)<h1[^>]*>(.*?)</h1>`)
	h2HTMLPattern = regexp.MustCompile(`(?is)<h2[^>]*>(.*?)</h2>`)
	tagStrip      = regexp.MustCompile(`<[^>]+>`)
	blankRunSplit = regexp.MustCompile(`\n\s*\n`)
)

// TableElement is a table sidecar supplied alongside the raw text/markdown.
type TableElement struct {
	Title         string
	HTML          string
	AIDescription string
	Page          int
	Index         int
	BBox          [4]float64
}

// ImageElement is an image sidecar supplied alongside the raw text/markdown.
type ImageElement struct {
	Title         string
	Path          string
	AIDescription string
	ContextBefore string
	ContextAfter  string
	Page          int
	Index         int
	BBox          [4]float64
}

// Input is the chunker's contract input: markdown/HTML text plus optional
// sidecar lists of tables and images.
type Input struct {
	Text   string
	Tables []TableElement
	Images []ImageElement
}

// Chunker turns Input into an ordered sequence of domain.Chunk.
type Chunker struct {
	ChunkSize    int
	ChunkOverlap int
}

// New returns a Chunker with the given sliding-window parameters. Values
// <= 0 fall back to the defaults (500/50 characters) used throughout the
// reference pipeline this was ported from.
func New(chunkSize, chunkOverlap int) *Chunker {
	if chunkSize <= 0 {
		chunkSize = 500
	}
	if chunkOverlap <= 0 {
		chunkOverlap = 50
	}
	return &Chunker{ChunkSize: chunkSize, ChunkOverlap: chunkOverlap}
}

type heading struct {
	level    int
	text     string
	position int
}

type textSection struct {
	text     string
	position int
}

type titledElem struct {
	Title string
	Page  int
}

// element is a position-tagged unit fed into the single linear merge pass.
type element struct {
	kind     string // "heading", "table", "image", "text"
	position int
	heading  heading
	table    TableElement
	image    ImageElement
	text     textSection
}

// Chunk runs the full structure-aware algorithm. It never returns an error:
// malformed/headless input degrades to the sliding-window fallback.
func (c *Chunker) Chunk(in Input) ([]domain.Chunk, error) {
	headings := extractHeadings(in.Text)
	sections := extractTextSections(in.Text)

	if len(headings) == 0 {
		return c.simpleChunk(sections, in.Tables, in.Images), nil
	}

	tableElems := make([]titledElem, len(in.Tables))
	for i, t := range in.Tables {
		tableElems[i] = titledElem{t.Title, t.Page}
	}
	imageElems := make([]titledElem, len(in.Images))
	for i, im := range in.Images {
		imageElems[i] = titledElem{im.Title, im.Page}
	}
	tablePos := markPositions(in.Text, tableElems)
	imagePos := markPositions(in.Text, imageElems)

	elems := make([]element, 0, len(headings)+len(in.Tables)+len(in.Images)+len(sections))
	for _, h := range headings {
		elems = append(elems, element{kind: "heading", position: h.position, heading: h})
	}
	for i, t := range in.Tables {
		elems = append(elems, element{kind: "table", position: tablePos[i], table: t})
	}
	for i, im := range in.Images {
		elems = append(elems, element{kind: "image", position: imagePos[i], image: im})
	}
	for _, s := range sections {
		elems = append(elems, element{kind: "text", position: s.position, text: s})
	}
	sort.SliceStable(elems, func(i, j int) bool { return elems[i].position < elems[j].position })

	var (
		chunks       []domain.Chunk
		currentH1    string
		currentH2    string
		sectionLevel int // 0 = no enclosing heading yet, 1 or 2 otherwise
		sectionText  []string
		pendingElems []domain.Chunk // tables/images encountered within the current section
		visited      = make(map[int]bool)
		chunkIndex   int
	)

	// flush emits the current section's text chunk(s) followed by any
	// table/image chunks encountered while scanning that section, so a
	// table/image appearing mid-section never jumps ahead of the section's
	// own text in the output order.
	flush := func() {
		if len(sectionText) > 0 {
			var title, parent string
			switch sectionLevel {
			case 1:
				title = "# " + currentH1
			case 2:
				title = "## " + currentH2
				parent = currentH1
			}
			chunks = append(chunks, c.emitSection(title, strings.Join(sectionText, "\n\n"), sectionLevel, parent, &chunkIndex)...)
			sectionText = nil
		}
		chunks = append(chunks, pendingElems...)
		pendingElems = nil
	}

	for _, el := range elems {
		switch el.kind {
		case "heading":
			flush()
			if el.heading.level == 1 {
				currentH1 = el.heading.text
				currentH2 = ""
				sectionLevel = 1
			} else {
				currentH2 = el.heading.text
				sectionLevel = 2
			}
		case "table":
			pendingElems = append(pendingElems, c.tableChunk(el.table, currentH1, currentH2, &chunkIndex))
		case "image":
			pendingElems = append(pendingElems, c.imageChunk(el.image, currentH1, currentH2, &chunkIndex))
		case "text":
			if visited[el.text.position] {
				continue
			}
			if sectionLevel == 0 {
				continue // no enclosing heading yet; handled by the leftover pass below
			}
			sectionText = append(sectionText, el.text.text)
			visited[el.text.position] = true
		}
	}
	flush()

	var leftover []string
	for _, s := range sections {
		if !visited[s.position] {
			leftover = append(leftover, s.text)
		}
	}
	if len(leftover) > 0 {
		chunks = append(chunks, c.slidingWindow(strings.Join(leftover, "\n\n"), "", 0, "", &chunkIndex)...)
	}

	return chunks, nil
}

func nearestParent(h1, h2 string) string {
	if h2 != "" {
		return h2
	}
	return h1
}

func (c *Chunker) simpleChunk(sections []textSection, tables []TableElement, images []ImageElement) []domain.Chunk {
	var chunks []domain.Chunk
	var idx int
	for _, t := range tables {
		chunks = append(chunks, c.tableChunk(t, "", "", &idx))
	}
	for _, im := range images {
		chunks = append(chunks, c.imageChunk(im, "", "", &idx))
	}
	var parts []string
	for _, s := range sections {
		parts = append(parts, s.text)
	}
	chunks = append(chunks, c.slidingWindow(strings.Join(parts, "\n\n"), "", 0, "", &idx)...)
	return chunks
}

// emitSection mirrors the reference's _create_chunk: short sections become
// one chunk (title + body); long sections get a standalone title chunk
// followed by sliding-window chunks over the body alone.
func (c *Chunker) emitSection(title, body string, level int, parent string, idx *int) []domain.Chunk {
	full := body
	if title != "" {
		full = title + "\n\n" + body
	}
	if len(full) <= c.ChunkSize {
		ch := domain.Chunk{
			Type:        domain.ChunkText,
			Title:       title,
			Level:       level,
			ParentTitle: parent,
			Body:        strings.TrimSpace(full),
			Metadata:    domain.ChunkMetadata{ChunkIndex: *idx},
		}
		*idx++
		return []domain.Chunk{ch}
	}
	var out []domain.Chunk
	if title != "" {
		out = append(out, domain.Chunk{
			Type:        domain.ChunkText,
			Title:       title,
			Level:       level,
			ParentTitle: parent,
			Body:        title,
			Metadata:    domain.ChunkMetadata{ChunkIndex: *idx},
		})
		*idx++
	}
	out = append(out, c.slidingWindow(body, title, level, parent, idx)...)
	return out
}

func (c *Chunker) slidingWindow(text, title string, level int, parent string, idx *int) []domain.Chunk {
	if strings.TrimSpace(text) == "" {
		return nil
	}
	paras := splitParagraphs(text)
	var chunks []domain.Chunk
	var current strings.Builder
	flush := func() {
		body := strings.TrimSpace(current.String())
		if body == "" {
			return
		}
		chunks = append(chunks, domain.Chunk{
			Type:        domain.ChunkText,
			Title:       title,
			Level:       level,
			ParentTitle: parent,
			Body:        body,
			Metadata:    domain.ChunkMetadata{ChunkIndex: *idx},
		})
		*idx++
	}
	for _, p := range paras {
		if current.Len() > 0 && current.Len()+len(p) > c.ChunkSize {
			flush()
			cur := current.String()
			current.Reset()
			if len(cur) > c.ChunkOverlap {
				current.WriteString(cur[len(cur)-c.ChunkOverlap:])
				current.WriteString("\n\n")
			}
			current.WriteString(p)
			continue
		}
		if current.Len() > 0 {
			current.WriteString("\n\n")
		}
		current.WriteString(p)
	}
	flush()
	return chunks
}

func (c *Chunker) tableChunk(t TableElement, h1, h2 string, idx *int) domain.Chunk {
	title := t.Title
	if title == "" {
		title = "表格"
	}
	var parts []string
	if h1 != "" {
		parts = append(parts, "# "+h1)
	}
	if h2 != "" {
		parts = append(parts, "## "+h2)
	}
	parts = append(parts, "### "+title)
	if t.AIDescription != "" {
		parts = append(parts, "*描述："+t.AIDescription+"*")
	}
	parts = append(parts, t.HTML)
	ch := domain.Chunk{
		Type:        domain.ChunkTable,
		Title:       title,
		ParentTitle: nearestParent(h1, h2),
		Body:        strings.Join(parts, "\n\n"),
		Payload: domain.ChunkPayload{
			TableHTML:     t.HTML,
			AIDescription: t.AIDescription,
		},
		Metadata: domain.ChunkMetadata{Page: t.Page, ChunkIndex: *idx},
	}
	*idx++
	return ch
}

func (c *Chunker) imageChunk(im ImageElement, h1, h2 string, idx *int) domain.Chunk {
	title := im.Title
	if title == "" {
		title = "图片"
	}
	var parts []string
	if h1 != "" {
		parts = append(parts, "# "+h1)
	}
	if h2 != "" {
		parts = append(parts, "## "+h2)
	}
	parts = append(parts, "### "+title)
	if im.ContextBefore != "" {
		parts = append(parts, "*前文："+im.ContextBefore+"*")
	}
	parts = append(parts, "!["+title+"]("+im.Path+")")
	if im.AIDescription != "" {
		parts = append(parts, "*描述："+im.AIDescription+"*")
	}
	if im.ContextAfter != "" {
		parts = append(parts, "*后文："+im.ContextAfter+"*")
	}
	ch := domain.Chunk{
		Type:        domain.ChunkImage,
		Title:       title,
		ParentTitle: nearestParent(h1, h2),
		Body:        strings.Join(parts, "\n\n"),
		Payload: domain.ChunkPayload{
			ImagePath:     im.Path,
			AIDescription: im.AIDescription,
			ContextBefore: im.ContextBefore,
			ContextAfter:  im.ContextAfter,
		},
		Metadata: domain.ChunkMetadata{Page: im.Page, ChunkIndex: *idx},
	}
	*idx++
	return ch
}

func extractHeadings(text string) []heading {
	var out []heading
	for _, m := range h1MDPattern.FindAllStringSubmatchIndex(text, -1) {
		out = append(out, heading{level: 1, text: strings.TrimSpace(text[m[2]:m[3]]), position: m[0]})
	}
	for _, m := range h2MDPattern.FindAllStringSubmatchIndex(text, -1) {
		out = append(out, heading{level: 2, text: strings.TrimSpace(text[m[2]:m[3]]), position: m[0]})
	}
	for _, m := range h1HTMLPattern.FindAllStringSubmatchIndex(text, -1) {
		out = append(out, heading{level: 1, text: strings.TrimSpace(tagStrip.ReplaceAllString(text[m[2]:m[3]], "")), position: m[0]})
	}
	for _, m := range h2HTMLPattern.FindAllStringSubmatchIndex(text, -1) {
		out = append(out, heading{level: 2, text: strings.TrimSpace(tagStrip.ReplaceAllString(text[m[2]:m[3]], "")), position: m[0]})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].position < out[j].position })
	return out
}

// markPositions implements the title -> keyword -> page-estimate fallback
// chain. This deterministic chain is preserved intentionally: two
// equally-plausible pages can map to the same content, and "improving" the
// heuristic would make ingestion non-reproducible against prior runs.
func markPositions(text string, elems []titledElem) []int {
	out := make([]int, len(elems))
	for i, e := range elems {
		pos := -1
		if e.Title != "" {
			if p := strings.Index(text, e.Title); p >= 0 {
				pos = p
			} else {
				words := strings.Fields(e.Title)
				if len(words) > 3 {
					words = words[:3]
				}
				for _, kw := range words {
					if len(kw) > 2 {
						if p := strings.Index(text, kw); p >= 0 {
							pos = p
							break
						}
					}
				}
			}
		}
		if pos < 0 && e.Page > 0 {
			pos = (e.Page - 1) * 2000
		}
		if pos < 0 {
			pos = 0
		}
		out[i] = pos
	}
	return out
}

// extractTextSections splits text on blank-line runs, skipping lines that
// are themselves H1/H2 markdown headings (already captured separately),
// and records each paragraph's true character offset in text so that
// merge-sorting against headings/tables/images stays coordinate-consistent.
func extractTextSections(text string) []textSection {
	paras := blankRunSplit.Split(text, -1)
	var out []textSection
	cursor := 0
	for _, raw := range paras {
		trimmed := strings.TrimSpace(raw)
		pos := cursor
		if start := strings.Index(text[cursor:], raw); start >= 0 {
			pos = cursor + start
			cursor = pos + len(raw)
		} else {
			cursor += len(raw)
		}
		if trimmed == "" {
			continue
		}
		if h1MDPattern.MatchString(trimmed) || h2MDPattern.MatchString(trimmed) {
			continue
		}
		out = append(out, textSection{text: trimmed, position: pos})
	}
	return out
}

func splitParagraphs(text string) []string {
	raw := blankRunSplit.Split(text, -1)
	var out []string
	for _, p := range raw {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}
