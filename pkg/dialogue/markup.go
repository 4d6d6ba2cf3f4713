package dialogue

import "strings"

// Dialogue lines carry two inline markup forms: 【…】 wraps clickable
// link text and {…} wraps emphasized text. The runtime itself only
// matches link text against a node's Links map; presenters use the
// span scanner for coloring and hit regions.

// SpanKind classifies a scanned run of text.
type SpanKind int

const (
	SpanText SpanKind = iota
	SpanLink
	SpanEmphasis
)

// Span is a run of one line with uniform presentation.
type Span struct {
	Kind SpanKind
	Text string
}

// ScanLine splits a line into markup spans. Marker runes are consumed.
// An unterminated marker extends its span to the end of the line.
func ScanLine(line string) []Span {
	var spans []Span
	var buf strings.Builder
	kind := SpanText

	flush := func() {
		if buf.Len() > 0 {
			spans = append(spans, Span{Kind: kind, Text: buf.String()})
			buf.Reset()
		}
	}

	for _, r := range line {
		switch r {
		case '【':
			flush()
			kind = SpanLink
		case '】':
			flush()
			kind = SpanText
		case '{':
			flush()
			kind = SpanEmphasis
		case '}':
			flush()
			kind = SpanText
		default:
			buf.WriteRune(r)
		}
	}
	flush()
	return spans
}

// LinkTexts returns every link span across lines, in display order.
// Key-confirmation input uses the first entry as its default target.
func LinkTexts(lines []string) []string {
	var links []string
	for _, line := range lines {
		for _, span := range ScanLine(line) {
			if span.Kind == SpanLink && span.Text != "" {
				links = append(links, span.Text)
			}
		}
	}
	return links
}
