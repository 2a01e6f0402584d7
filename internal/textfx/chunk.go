// Package textfx splits text into chunks and animates every chunk on its
// own clock. A chunk's state is a pure function of (chunk index, frame).
package textfx

import (
	"errors"
	"fmt"
	"image/color"
	"strconv"
	"strings"
	"unicode"
)

var (
	// ErrGranularity reports an unknown or malformed chunking rule.
	ErrGranularity = errors.New("textfx: invalid granularity")
	// ErrMarkup reports unbalanced or unknown colour markup.
	ErrMarkup = errors.New("textfx: invalid markup")
	// ErrStyle reports an unknown reveal style.
	ErrStyle = errors.New("textfx: unknown style")
)

// Units of a Granularity.
const (
	UnitChars = "chars"
	UnitWords = "words"
)

// Granularity decides how text is cut into chunks: Size characters or
// Size words per chunk.
type Granularity struct {
	Unit string
	Size int
}

var (
	Chars = Granularity{Unit: UnitChars, Size: 1}
	Words = Granularity{Unit: UnitWords, Size: 1}
)

// WordGroups is Size words per chunk.
func WordGroups(n int) Granularity { return Granularity{Unit: UnitWords, Size: n} }

// ParseGranularity reads "chars", "words", or a unit with a size such as
// "words:2".
func ParseGranularity(s string) (Granularity, error) {
	unit, size, found := strings.Cut(s, ":")
	g := Granularity{Unit: unit, Size: 1}
	if found {
		n, err := strconv.Atoi(size)
		if err != nil {
			return Granularity{}, fmt.Errorf("%w: %q", ErrGranularity, s)
		}
		g.Size = n
	}
	return g, g.Validate()
}

func (g Granularity) Validate() error {
	if g.Unit != UnitChars && g.Unit != UnitWords {
		return fmt.Errorf("%w: unit %q", ErrGranularity, g.Unit)
	}
	if g.Size < 1 {
		return fmt.Errorf("%w: size %d", ErrGranularity, g.Size)
	}
	return nil
}

// Separator is what layout puts between consecutive chunks. Character
// chunks keep their own spaces; word chunks are joined by one space.
func (g Granularity) Separator() string {
	if g.Unit == UnitWords {
		return " "
	}
	return ""
}

func (g Granularity) String() string {
	if g.Size == 1 {
		return g.Unit
	}
	return g.Unit + ":" + strconv.Itoa(g.Size)
}

// Span is a run of text in one colour. A nil Color means the layer's
// default colour.
type Span struct {
	Text  string
	Color color.Color
}

// Chunk is one animated unit of text, possibly spanning several colours.
type Chunk struct {
	Spans []Span
}

// Text returns the chunk without colour information.
func (c Chunk) Text() string {
	var b strings.Builder
	for _, s := range c.Spans {
		b.WriteString(s.Text)
	}
	return b.String()
}

// Split cuts plain text into chunks.
func Split(text string, g Granularity) ([]Chunk, error) {
	return SplitSpans([]Span{{Text: text}}, g)
}

// SplitSpans cuts coloured text into chunks, keeping each rune's colour.
func SplitSpans(spans []Span, g Granularity) ([]Chunk, error) {
	if err := g.Validate(); err != nil {
		return nil, err
	}
	var runes []coloredRune
	for _, s := range spans {
		for _, r := range s.Text {
			runes = append(runes, coloredRune{r: r, c: s.Color})
		}
	}
	if g.Unit == UnitChars {
		return groupChars(runes, g.Size), nil
	}
	return groupWords(runes, g.Size), nil
}

type coloredRune struct {
	r rune
	c color.Color
}

func groupChars(runes []coloredRune, size int) []Chunk {
	var chunks []Chunk
	for i := 0; i < len(runes); i += size {
		chunks = append(chunks, toChunk(runes[i:min(i+size, len(runes))]))
	}
	return chunks
}

func groupWords(runes []coloredRune, size int) []Chunk {
	var words [][]coloredRune
	var cur []coloredRune
	for _, cr := range runes {
		if unicode.IsSpace(cr.r) {
			if len(cur) > 0 {
				words = append(words, cur)
				cur = nil
			}
			continue
		}
		cur = append(cur, cr)
	}
	if len(cur) > 0 {
		words = append(words, cur)
	}

	var chunks []Chunk
	for i := 0; i < len(words); i += size {
		var group []coloredRune
		for j, w := range words[i:min(i+size, len(words))] {
			if j > 0 {
				group = append(group, coloredRune{r: ' ', c: w[0].c})
			}
			group = append(group, w...)
		}
		chunks = append(chunks, toChunk(group))
	}
	return chunks
}

// toChunk merges neighbouring runes of the same colour into spans.
func toChunk(runes []coloredRune) Chunk {
	var c Chunk
	var b strings.Builder
	var current color.Color
	flush := func() {
		if b.Len() > 0 {
			c.Spans = append(c.Spans, Span{Text: b.String(), Color: current})
			b.Reset()
		}
	}
	for i, cr := range runes {
		if i > 0 && cr.c != current {
			flush()
		}
		current = cr.c
		b.WriteRune(cr.r)
	}
	flush()
	return c
}

// ParseMarkup turns "With {primary:Zero Code} Required" into spans,
// resolving colour names through lookup. Braces do not nest.
func ParseMarkup(s string, lookup func(name string) (color.Color, error)) ([]Span, error) {
	var spans []Span
	for len(s) > 0 {
		open := strings.IndexByte(s, '{')
		if open < 0 {
			if strings.IndexByte(s, '}') >= 0 {
				return nil, fmt.Errorf("%w: stray '}'", ErrMarkup)
			}
			spans = append(spans, Span{Text: s})
			break
		}
		if strings.IndexByte(s[:open], '}') >= 0 {
			return nil, fmt.Errorf("%w: stray '}'", ErrMarkup)
		}
		if open > 0 {
			spans = append(spans, Span{Text: s[:open]})
		}
		end := strings.IndexByte(s[open:], '}')
		if end < 0 {
			return nil, fmt.Errorf("%w: unclosed '{'", ErrMarkup)
		}
		body := s[open+1 : open+end]
		name, text, ok := strings.Cut(body, ":")
		if !ok || strings.ContainsRune(body, '{') {
			return nil, fmt.Errorf("%w: %q", ErrMarkup, body)
		}
		c, err := lookup(strings.TrimSpace(name))
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMarkup, err)
		}
		spans = append(spans, Span{Text: text, Color: c})
		s = s[open+end+1:]
	}
	return spans, nil
}
