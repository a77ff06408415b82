package processor

import (
	"fmt"
	"strings"

	"github.com/documind/documind/internal/models"
)

// Separator priority for recursive splitting: paragraph break, line
// break, space, then a hard character cut as the last resort.
var separators = []string{"\n\n", "\n", " "}

type ProcessorConfig struct {
	ChunkSize    int
	ChunkOverlap int
}

type Processor struct {
	config ProcessorConfig
}

func NewWithConfig(config ProcessorConfig) (Processor, error) {
	if config.ChunkSize == 0 {
		config.ChunkSize = 1000
	}
	if config.ChunkOverlap == 0 {
		config.ChunkOverlap = 200
	}
	if config.ChunkOverlap >= config.ChunkSize {
		return Processor{}, fmt.Errorf("chunk overlap (%d) must be less than chunk size (%d)",
			config.ChunkOverlap, config.ChunkSize)
	}

	return Processor{
		config: config,
	}, nil
}

// Normalize collapses all whitespace runs, including newlines, into
// single spaces and trims both ends. An empty result signals the caller
// to drop the element.
func Normalize(text string) string {
	return strings.Join(strings.Fields(text), " ")
}

// Process normalizes each element, drops the empty ones, and splits the
// remainder into overlapping chunks. Chunk ids are sequential across the
// whole input, so they are unique within a single run as long as the
// element order is stable.
func (p *Processor) Process(elements []models.Element) ([]models.Chunk, error) {
	var chunks []models.Chunk
	index := 0

	for _, el := range elements {
		text := Normalize(el.Text)
		if text == "" {
			continue
		}

		for _, pc := range p.splitText(text) {
			chunks = append(chunks, models.Chunk{
				Text:        pc.text,
				Source:      el.Source,
				PageNumber:  el.PageNumber,
				ChunkID:     fmt.Sprintf("%s_%d", el.Source, index),
				StartOffset: pc.offset,
				Metadata:    el.Metadata,
			})
			index++
		}
	}

	return chunks, nil
}

// piece is a segment of the normalized element text together with its
// start position in that text.
type piece struct {
	text   string
	offset int
}

func (p *Processor) splitText(text string) []piece {
	leaves := p.decompose(text, 0, separators)
	return p.merge(text, leaves)
}

// decompose recursively splits text on the separator cascade until every
// produced segment fits inside the chunk window.
func (p *Processor) decompose(text string, offset int, seps []string) []piece {
	if len(text) <= p.config.ChunkSize {
		return []piece{{text: text, offset: offset}}
	}

	if len(seps) == 0 {
		// Character-level fallback for separator-free runs (URLs,
		// base64, CJK text). Windows are cut on rune boundaries and
		// advance by chunk_size-overlap, so consecutive windows keep
		// the configured overlap even with no separator to back up to.
		bounds := runeBounds(text)
		step := p.config.ChunkSize - p.config.ChunkOverlap
		var out []piece
		for start := 0; ; start += step {
			end := start + p.config.ChunkSize
			if end > len(bounds)-1 {
				end = len(bounds) - 1
			}
			out = append(out, piece{
				text:   text[bounds[start]:bounds[end]],
				offset: offset + bounds[start],
			})
			if end == len(bounds)-1 {
				return out
			}
		}
	}

	sep := seps[0]
	var out []piece
	pos := 0
	for _, part := range strings.Split(text, sep) {
		if part != "" {
			out = append(out, p.decompose(part, offset+pos, seps[1:])...)
		}
		pos += len(part) + len(sep)
	}
	return out
}

// merge greedily packs consecutive segments into chunks bounded by
// chunk_size, re-slicing the original text so separators between packed
// segments are preserved. Each next chunk backs up far enough to share
// at least chunk_overlap characters with its predecessor.
// runeBounds returns the byte offset of every rune boundary in text,
// including len(text), so bounds[i] is where the i-th rune starts.
func runeBounds(text string) []int {
	bounds := make([]int, 0, len(text)+1)
	for i := range text {
		bounds = append(bounds, i)
	}
	return append(bounds, len(text))
}

func (p *Processor) merge(text string, leaves []piece) []piece {
	var chunks []piece

	i := 0
	for i < len(leaves) {
		j := i
		end := leaves[j].offset + len(leaves[j].text)
		for j+1 < len(leaves) && leaves[j+1].offset+len(leaves[j+1].text)-leaves[i].offset <= p.config.ChunkSize {
			j++
			end = leaves[j].offset + len(leaves[j].text)
		}

		chunks = append(chunks, piece{text: text[leaves[i].offset:end], offset: leaves[i].offset})

		if j+1 >= len(leaves) {
			break
		}

		k := j + 1
		for k > i+1 && end-leaves[k].offset < p.config.ChunkOverlap {
			k--
		}
		i = k
	}

	return chunks
}
