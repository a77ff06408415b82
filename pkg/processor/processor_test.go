package processor_test

import (
	"strconv"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/documind/documind/internal/models"
	"github.com/documind/documind/pkg/processor"
)

func TestNormalize(t *testing.T) {
	assert.Equal(t, "a b", processor.Normalize(" a \n\n b  "))
	assert.Equal(t, "", processor.Normalize(""))
	assert.Equal(t, "", processor.Normalize(" \t\n "))
	assert.Equal(t, "one two three", processor.Normalize("one\ntwo\t\tthree"))
}

func TestNewWithConfig_RejectsOverlapNotSmallerThanChunkSize(t *testing.T) {
	_, err := processor.NewWithConfig(processor.ProcessorConfig{
		ChunkSize:    100,
		ChunkOverlap: 100,
	})
	assert.Error(t, err)

	_, err = processor.NewWithConfig(processor.ProcessorConfig{
		ChunkSize:    100,
		ChunkOverlap: 150,
	})
	assert.Error(t, err)
}

func TestProcess_DropsEmptyElements(t *testing.T) {
	p, err := processor.NewWithConfig(processor.ProcessorConfig{ChunkSize: 100, ChunkOverlap: 20})
	require.NoError(t, err)

	chunks, err := p.Process([]models.Element{
		{Text: "   \n\n  ", Source: "empty.pdf", PageNumber: 1},
		{Text: "some real content here", Source: "real.pdf", PageNumber: 2},
	})
	require.NoError(t, err)

	require.Len(t, chunks, 1)
	assert.Equal(t, "real.pdf", chunks[0].Source)
	assert.Equal(t, 2, chunks[0].PageNumber)
	assert.Equal(t, "some real content here", chunks[0].Text)
}

func TestProcess_ChunkBoundsAndOverlap(t *testing.T) {
	const chunkSize = 100
	const overlap = 30

	p, err := processor.NewWithConfig(processor.ProcessorConfig{
		ChunkSize:    chunkSize,
		ChunkOverlap: overlap,
	})
	require.NoError(t, err)

	text := strings.Repeat("lorem ipsum dolor sit amet ", 40)
	chunks, err := p.Process([]models.Element{
		{Text: text, Source: "doc.pdf", PageNumber: 3},
	})
	require.NoError(t, err)
	require.Greater(t, len(chunks), 1)

	for _, chunk := range chunks {
		assert.LessOrEqual(t, len(chunk.Text), chunkSize)
		assert.Equal(t, "doc.pdf", chunk.Source)
		assert.Equal(t, 3, chunk.PageNumber)
	}

	// Adjacent chunks share at least the configured overlap.
	for i := 1; i < len(chunks); i++ {
		prevEnd := chunks[i-1].StartOffset + len(chunks[i-1].Text)
		shared := prevEnd - chunks[i].StartOffset
		assert.GreaterOrEqual(t, shared, overlap,
			"chunks %d and %d share only %d chars", i-1, i, shared)
	}

	// Offsets index into the normalized element text.
	normalized := processor.Normalize(text)
	for _, chunk := range chunks {
		assert.Equal(t, chunk.Text,
			normalized[chunk.StartOffset:chunk.StartOffset+len(chunk.Text)])
	}
}

func TestProcess_ChunkIDsUniqueAcrossRun(t *testing.T) {
	p, err := processor.NewWithConfig(processor.ProcessorConfig{ChunkSize: 50, ChunkOverlap: 10})
	require.NoError(t, err)

	chunks, err := p.Process([]models.Element{
		{Text: strings.Repeat("alpha beta gamma ", 20), Source: "a.pdf", PageNumber: 1},
		{Text: strings.Repeat("delta epsilon ", 20), Source: "a.pdf", PageNumber: 2},
		{Text: "short", Source: "b.pdf", PageNumber: 1},
	})
	require.NoError(t, err)

	seen := make(map[string]bool)
	for _, chunk := range chunks {
		assert.False(t, seen[chunk.ChunkID], "duplicate chunk id %s", chunk.ChunkID)
		seen[chunk.ChunkID] = true
	}

	// The index is global across the whole run, not per document.
	assert.Equal(t, "b.pdf_"+strconv.Itoa(len(chunks)-1), chunks[len(chunks)-1].ChunkID)
}

func TestProcess_SingleElementSplitsInTwo(t *testing.T) {
	p, err := processor.NewWithConfig(processor.ProcessorConfig{
		ChunkSize:    1000,
		ChunkOverlap: 200,
	})
	require.NoError(t, err)

	// Just over one window once normalized.
	text := strings.Repeat("The sky is blue. ", 60)
	chunks, err := p.Process([]models.Element{
		{Text: text, Source: "sky.pdf", PageNumber: 1},
	})
	require.NoError(t, err)

	require.Len(t, chunks, 2)
	for _, chunk := range chunks {
		assert.Equal(t, "sky.pdf", chunk.Source)
		assert.Equal(t, 1, chunk.PageNumber)
		assert.LessOrEqual(t, len(chunk.Text), 1000)
	}
}

func TestProcess_SeparatorFreeTextKeepsOverlap(t *testing.T) {
	const chunkSize = 1000
	const overlap = 200

	p, err := processor.NewWithConfig(processor.ProcessorConfig{
		ChunkSize:    chunkSize,
		ChunkOverlap: overlap,
	})
	require.NoError(t, err)

	// One unbroken run with no separators at all, so splitting can only
	// happen at the character level.
	text := strings.Repeat("x", 2500)
	chunks, err := p.Process([]models.Element{
		{Text: text, Source: "blob.pdf", PageNumber: 1},
	})
	require.NoError(t, err)
	require.Greater(t, len(chunks), 1)

	for _, chunk := range chunks {
		assert.LessOrEqual(t, len(chunk.Text), chunkSize)
		assert.Equal(t, chunk.Text,
			text[chunk.StartOffset:chunk.StartOffset+len(chunk.Text)])
	}
	for i := 1; i < len(chunks); i++ {
		prevEnd := chunks[i-1].StartOffset + len(chunks[i-1].Text)
		shared := prevEnd - chunks[i].StartOffset
		assert.GreaterOrEqual(t, shared, overlap,
			"chunks %d and %d share only %d chars", i-1, i, shared)
	}
}

func TestProcess_SeparatorFreeTextCutsOnRuneBoundaries(t *testing.T) {
	const chunkSize = 100
	const overlap = 20

	p, err := processor.NewWithConfig(processor.ProcessorConfig{
		ChunkSize:    chunkSize,
		ChunkOverlap: overlap,
	})
	require.NoError(t, err)

	// Three-byte runes with no whitespace anywhere.
	text := strings.Repeat("語", 500)
	chunks, err := p.Process([]models.Element{
		{Text: text, Source: "cjk.pdf", PageNumber: 1},
	})
	require.NoError(t, err)
	require.Greater(t, len(chunks), 1)

	for i, chunk := range chunks {
		assert.True(t, utf8.ValidString(chunk.Text), "chunk %d split a rune", i)
		assert.LessOrEqual(t, utf8.RuneCountInString(chunk.Text), chunkSize)
		assert.Equal(t, chunk.Text,
			text[chunk.StartOffset:chunk.StartOffset+len(chunk.Text)])
	}
	for i := 1; i < len(chunks); i++ {
		prevEnd := chunks[i-1].StartOffset + len(chunks[i-1].Text)
		shared := utf8.RuneCountInString(text[chunks[i].StartOffset:prevEnd])
		assert.GreaterOrEqual(t, shared, overlap,
			"chunks %d and %d share only %d runes", i-1, i, shared)
	}
}

func TestProcess_RespectsParagraphBreaksBeforeSpaces(t *testing.T) {
	p, err := processor.NewWithConfig(processor.ProcessorConfig{ChunkSize: 40, ChunkOverlap: 5})
	require.NoError(t, err)

	chunks, err := p.Process([]models.Element{
		{Text: "first sentence here. second sentence here. third one.", Source: "s.pdf", PageNumber: 1},
	})
	require.NoError(t, err)

	require.NotEmpty(t, chunks)
	for _, chunk := range chunks {
		assert.LessOrEqual(t, len(chunk.Text), 40)
		assert.NotEqual(t, " ", chunk.Text[:1], "chunk should not start mid-separator")
	}
}
