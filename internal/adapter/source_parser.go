package adapter

import (
	"context"
	"fmt"

	m "flog.dev/pkg/flog/internal/model"
)

// SourceParser turns source content into a syntax tree.
type SourceParser interface {
	Parse(ctx context.Context, source m.Source, content []byte) (*m.Node, error)
}

// FormatParser dispatches to a parser by source format.
type FormatParser struct {
	parsers map[m.SourceFormat]SourceParser
}

// NewFormatParser builds a FormatParser with the Ruby and sexp front ends.
func NewFormatParser() *FormatParser {
	return &FormatParser{
		parsers: map[m.SourceFormat]SourceParser{
			m.FormatRuby: NewRubyParserAdapter(),
			m.FormatSexp: NewSexpParserAdapter(),
		},
	}
}

// Parse implements SourceParser.
func (p *FormatParser) Parse(ctx context.Context, source m.Source, content []byte) (*m.Node, error) {
	format := source.Format
	if format == "" {
		format = FormatForPath(string(source.Path))
	}

	parser, ok := p.parsers[format]
	if !ok {
		return nil, fmt.Errorf("%s: no parser for format %q", source.Path, format)
	}

	return parser.Parse(ctx, source, content)
}
