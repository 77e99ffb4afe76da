package model

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

// chunkJoin separates paragraphs inside a chunk and the overlap prefix from
// the chunk body.
const chunkJoin = "\n\n"

const defaultChunkSize = 1000

// SentenceSplitter breaks a paragraph into sentences. The default splits on
// sentence-terminal punctuation, which mis-splits abbreviations and decimal
// numbers; replace it with a real tokenizer without touching the packing.
type SentenceSplitter interface {
	Split(text string) []string
}

var sentenceRe = regexp.MustCompile(`[^.!?。！？]*[.!?。！？]+`)

type regexSentenceSplitter struct{}

func (regexSentenceSplitter) Split(text string) []string {
	var sentences []string
	last := 0
	for _, loc := range sentenceRe.FindAllStringIndex(text, -1) {
		if s := strings.TrimSpace(text[loc[0]:loc[1]]); s != "" {
			sentences = append(sentences, s)
		}
		last = loc[1]
	}
	// Un-terminated trailing fragment counts as a final sentence.
	if tail := strings.TrimSpace(text[last:]); tail != "" {
		sentences = append(sentences, tail)
	}
	return sentences
}

// TextChunk is one segment of a document plus the number of characters at its
// head borrowed from the preceding segment.
type TextChunk struct {
	Text          string
	OverlapPrefix int
}

// Splitter segments raw document text into bounded, overlapping chunks.
// Chunk boundaries are paragraph-aligned, falling back to sentence alignment
// for paragraphs larger than the chunk size. Splitting is pure and
// deterministic.
type Splitter struct {
	chunkSize int
	overlap   int
	sentences SentenceSplitter
}

func NewSplitter(chunkSize, overlap int) *Splitter {
	if chunkSize <= 0 {
		chunkSize = defaultChunkSize
	}
	if overlap < 0 {
		overlap = 0
	}
	return &Splitter{
		chunkSize: chunkSize,
		overlap:   overlap,
		sentences: regexSentenceSplitter{},
	}
}

// UseSentenceSplitter swaps the sentence boundary detector.
func (s *Splitter) UseSentenceSplitter(ss SentenceSplitter) {
	s.sentences = ss
}

// Split returns the chunk texts for a document. Empty or whitespace-only
// input yields no chunks.
func (s *Splitter) Split(text string) []string {
	chunks := s.SplitChunks(text)
	if len(chunks) == 0 {
		return nil
	}
	out := make([]string, len(chunks))
	for i, c := range chunks {
		out[i] = c.Text
	}
	return out
}

// SplitChunks segments text and reports per-chunk overlap accounting.
//
// Paragraphs are packed greedily up to the chunk size, joined by a blank
// line. A paragraph that alone exceeds the chunk size is packed sentence by
// sentence instead, and its residual sentence buffer seeds the next chunk.
// After packing, every chunk except the first is prefixed with the trailing
// overlap characters of the previous chunk's pre-overlap text, so overlap
// never compounds across more than two adjacent chunks.
func (s *Splitter) SplitChunks(text string) []TextChunk {
	var raw []string
	var buf string

	for _, para := range splitParagraphs(text) {
		switch {
		case buf == "":
			buf = s.startBuffer(para, &raw)
		case runeLen(buf)+runeLen(chunkJoin)+runeLen(para) > s.chunkSize:
			raw = append(raw, buf)
			buf = s.startBuffer(para, &raw)
		default:
			buf += chunkJoin + para
		}
	}
	if strings.TrimSpace(buf) != "" {
		raw = append(raw, buf)
	}
	if len(raw) == 0 {
		return nil
	}

	chunks := make([]TextChunk, len(raw))
	chunks[0] = TextChunk{Text: raw[0]}
	for i := 1; i < len(raw); i++ {
		if s.overlap == 0 {
			chunks[i] = TextChunk{Text: raw[i]}
			continue
		}
		tail := lastRunes(raw[i-1], s.overlap)
		chunks[i] = TextChunk{
			Text:          tail + chunkJoin + raw[i],
			OverlapPrefix: runeLen(tail),
		}
	}
	return chunks
}

// startBuffer seeds a fresh chunk buffer with a paragraph. An oversized
// paragraph is sentence-packed; fully packed sub-chunks are flushed and the
// residual becomes the new buffer.
func (s *Splitter) startBuffer(para string, out *[]string) string {
	if runeLen(para) <= s.chunkSize {
		return para
	}
	var sub string
	for _, sent := range s.sentences.Split(para) {
		switch {
		case sub == "":
			// A single sentence longer than the chunk size stays whole.
			sub = sent
		case runeLen(sub)+1+runeLen(sent) > s.chunkSize:
			*out = append(*out, sub)
			sub = sent
		default:
			sub += " " + sent
		}
	}
	return sub
}

// SplitText segments text into overlapping chunk strings with the given
// bounds. It is the package-level form of Splitter.Split.
func SplitText(text string, chunkSize, overlap int) []string {
	return NewSplitter(chunkSize, overlap).Split(text)
}

var paragraphRe = regexp.MustCompile(`\r?\n\s*\r?\n`)

func splitParagraphs(text string) []string {
	var paragraphs []string
	for _, p := range paragraphRe.Split(text, -1) {
		if p = strings.TrimSpace(p); p != "" {
			paragraphs = append(paragraphs, p)
		}
	}
	return paragraphs
}

func runeLen(s string) int {
	return utf8.RuneCountInString(s)
}

// lastRunes returns the trailing n characters of text without cutting a
// multi-byte character.
func lastRunes(text string, n int) string {
	runes := []rune(text)
	if len(runes) <= n {
		return text
	}
	return string(runes[len(runes)-n:])
}
