package chunker

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"singularityio/internal/domain"
)

func TestChunk_HeadingStructure(t *testing.T) {
	in := Input{
		Text: "# A\n\npara1\n\n## B\n\npara2\n",
		Tables: []TableElement{
			{Title: "B", HTML: "<table></table>", Page: 1},
		},
	}
	c := New(500, 50)
	chunks, err := c.Chunk(in)
	require.NoError(t, err)
	require.Len(t, chunks, 3)

	require.Equal(t, domain.ChunkText, chunks[0].Type)
	require.Equal(t, "# A", chunks[0].Title)
	require.Contains(t, chunks[0].Body, "para1")

	require.Equal(t, domain.ChunkText, chunks[1].Type)
	require.Equal(t, "## B", chunks[1].Title)
	require.Equal(t, "A", chunks[1].ParentTitle)
	require.Contains(t, chunks[1].Body, "para2")

	require.Equal(t, domain.ChunkTable, chunks[2].Type)
	require.Equal(t, "B", chunks[2].ParentTitle)
}

func TestChunk_NoDoublePositionCount(t *testing.T) {
	in := Input{Text: "# A\n\npara1\n\npara2\n\n## B\n\npara3\n"}
	c := New(500, 50)
	chunks, err := c.Chunk(in)
	require.NoError(t, err)

	var all string
	for _, ch := range chunks {
		all += ch.Body
	}
	require.Equal(t, 1, strings.Count(all, "para1"))
	require.Equal(t, 1, strings.Count(all, "para2"))
	require.Equal(t, 1, strings.Count(all, "para3"))
}

func TestChunk_Headless(t *testing.T) {
	c := New(500, 50)
	chunks, err := c.Chunk(Input{Text: "just some prose\n\nmore prose here"})
	require.NoError(t, err)
	require.NotEmpty(t, chunks)
	for _, ch := range chunks {
		require.Equal(t, domain.ChunkText, ch.Type)
	}
}

func TestChunk_SlidingWindowOnLongSection(t *testing.T) {
	long := strings.Repeat("word ", 200)
	c := New(100, 20)
	chunks, err := c.Chunk(Input{Text: "# Big\n\n" + long})
	require.NoError(t, err)
	require.True(t, len(chunks) > 1)
}

func TestChunk_ImageWithContext(t *testing.T) {
	in := Input{
		Text: "# A\n\npara1\n",
		Images: []ImageElement{
			{Title: "A", Path: "img.png", ContextBefore: "before", ContextAfter: "after", Page: 1},
		},
	}
	c := New(500, 50)
	chunks, err := c.Chunk(in)
	require.NoError(t, err)
	var found bool
	for _, ch := range chunks {
		if ch.Type == domain.ChunkImage {
			found = true
			require.Contains(t, ch.Body, "before")
			require.Contains(t, ch.Body, "after")
		}
	}
	require.True(t, found)
}
