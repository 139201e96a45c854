// Package chunker splits raw document text into bounded, overlapping
// chunks suitable for embedding.
//
// Splitting is structural: paragraph boundaries first, then sentence
// boundaries, then words, with a hard rune cut only when a single
// unbroken run exceeds the chunk size. If the structural pass cannot
// produce chunks it falls back to a plain blank-line split.
package chunker

import (
	"errors"
	"regexp"
	"strings"

	"github.com/myai-labs/retrieval/internal/logger"
)

// DefaultChunkSize is the default number of characters per chunk.
const DefaultChunkSize = 1000

// DefaultChunkOverlap is the default number of overlapping characters.
const DefaultChunkOverlap = 200

var (
	paragraphSplitter = regexp.MustCompile(`\n[ \t]*\n+`)
	sentenceSplitter  = regexp.MustCompile(`[^.!?]+[.!?]+|[^.!?]+$`)
)

// Chunker splits text into overlapping bounded-size chunks.
type Chunker struct {
	chunkSize int
	overlap   int
}

// Option configures the chunker.
type Option func(*Chunker)

// WithChunkSize sets the maximum chunk size in characters.
func WithChunkSize(size int) Option {
	return func(c *Chunker) {
		if size > 0 {
			c.chunkSize = size
		}
	}
}

// WithOverlap sets the maximum overlap between adjacent chunks.
func WithOverlap(overlap int) Option {
	return func(c *Chunker) {
		if overlap >= 0 {
			c.overlap = overlap
		}
	}
}

// New creates a chunker with the given options.
func New(opts ...Option) *Chunker {
	c := &Chunker{
		chunkSize: DefaultChunkSize,
		overlap:   DefaultChunkOverlap,
	}

	for _, opt := range opts {
		opt(c)
	}

	// Ensure overlap doesn't exceed chunk size
	if c.overlap >= c.chunkSize {
		c.overlap = c.chunkSize / 4
	}

	return c
}

// Split returns the ordered chunks for text. Empty or whitespace-only
// input yields nil; anything else yields at least one chunk, each at
// most chunkSize characters.
func (c *Chunker) Split(text string) []string {
	if strings.TrimSpace(text) == "" {
		return nil
	}

	chunks, err := c.structural(text)
	if err != nil {
		logger.Warn("structural split failed (%v), falling back to blank-line split", err)
		return blankLineSplit(text)
	}
	return chunks
}

// segment is a structural unit no longer than chunkSize.
type segment struct {
	text string
	// sep is what joins this segment to the previous one when they
	// share a chunk.
	sep string
	// standalone marks a hard-cut piece that already carries its own
	// overlap and must become a chunk by itself.
	standalone bool
}

// structural performs the paragraph -> sentence -> word split and packs
// the resulting segments into overlapping chunks.
func (c *Chunker) structural(text string) ([]string, error) {
	segs := c.segments(text)
	if len(segs) == 0 {
		return nil, errors.New("no segments from non-empty input")
	}

	var chunks []string
	var cur []rune

	flush := func() {
		if len(cur) > 0 {
			chunks = append(chunks, string(cur))
			cur = nil
		}
	}

	for _, seg := range segs {
		if seg.standalone {
			flush()
			chunks = append(chunks, seg.text)
			continue
		}

		segRunes := []rune(seg.text)

		if len(cur) == 0 {
			// Seed the new chunk with the tail of the previous one.
			if tail := c.overlapTail(chunks); tail != "" {
				joined := len([]rune(tail)) + len(seg.sep) + len(segRunes)
				if joined <= c.chunkSize {
					cur = append(cur, []rune(tail)...)
					cur = append(cur, []rune(seg.sep)...)
				}
			}
			cur = append(cur, segRunes...)
			continue
		}

		if len(cur)+len(seg.sep)+len(segRunes) <= c.chunkSize {
			cur = append(cur, []rune(seg.sep)...)
			cur = append(cur, segRunes...)
			continue
		}

		flush()
		if tail := c.overlapTail(chunks); tail != "" {
			joined := len([]rune(tail)) + len(seg.sep) + len(segRunes)
			if joined <= c.chunkSize {
				cur = append(cur, []rune(tail)...)
				cur = append(cur, []rune(seg.sep)...)
			}
		}
		cur = append(cur, segRunes...)
	}
	flush()

	if len(chunks) == 0 {
		return nil, errors.New("packing produced no chunks")
	}
	return chunks, nil
}

// overlapTail returns up to overlap trailing characters of the last
// chunk, cut forward to a space so a word is never half-shared.
func (c *Chunker) overlapTail(chunks []string) string {
	if c.overlap == 0 || len(chunks) == 0 {
		return ""
	}
	prev := []rune(chunks[len(chunks)-1])
	if len(prev) <= c.overlap {
		return strings.TrimSpace(string(prev))
	}
	tail := prev[len(prev)-c.overlap:]
	if i := strings.IndexAny(string(tail), " \t\n"); i >= 0 {
		return strings.TrimSpace(string(tail)[i:])
	}
	return strings.TrimSpace(string(tail))
}

// segments breaks text into units of at most chunkSize characters.
func (c *Chunker) segments(text string) []segment {
	var segs []segment

	for _, para := range paragraphSplitter.Split(text, -1) {
		para = strings.TrimSpace(para)
		if para == "" {
			continue
		}
		if len([]rune(para)) <= c.chunkSize {
			segs = append(segs, segment{text: para, sep: "\n\n"})
			continue
		}

		sentences := sentenceSplitter.FindAllString(para, -1)
		if len(sentences) == 0 {
			// Punctuation-only runs defeat the sentence regexp.
			sentences = []string{para}
		}
		for _, sentence := range sentences {
			sentence = strings.TrimSpace(sentence)
			if sentence == "" {
				continue
			}
			if len([]rune(sentence)) <= c.chunkSize {
				segs = append(segs, segment{text: sentence, sep: " "})
				continue
			}

			for _, word := range strings.Fields(sentence) {
				if len([]rune(word)) <= c.chunkSize {
					segs = append(segs, segment{text: word, sep: " "})
					continue
				}
				// Unsplittable run: hard cut with an overlapping walk.
				segs = append(segs, c.hardCut(word)...)
			}
		}
	}

	return segs
}

// hardCut slices an oversized run into chunkSize pieces, stepping by
// chunkSize-overlap so adjacent pieces share the configured overlap.
func (c *Chunker) hardCut(run string) []segment {
	runes := []rune(run)
	step := c.chunkSize - c.overlap
	if step <= 0 {
		step = c.chunkSize
	}

	var segs []segment
	for start := 0; start < len(runes); start += step {
		end := start + c.chunkSize
		if end > len(runes) {
			end = len(runes)
		}
		segs = append(segs, segment{text: string(runes[start:end]), standalone: true})
		if end == len(runes) {
			break
		}
	}
	return segs
}

// blankLineSplit is the degraded path: paragraphs become chunks as-is,
// with no size bound.
func blankLineSplit(text string) []string {
	var chunks []string
	for _, para := range paragraphSplitter.Split(text, -1) {
		para = strings.TrimSpace(para)
		if para != "" {
			chunks = append(chunks, para)
		}
	}
	return chunks
}
