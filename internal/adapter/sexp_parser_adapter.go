package adapter

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	m "flog.dev/pkg/flog/internal/model"
)

// ErrEmptyTree is returned when a serialized tree holds no node.
var ErrEmptyTree = errors.New("empty syntax tree")

// SexpParserAdapter decodes syntax trees serialized as nested YAML or JSON
// arrays, e.g. [class, Foo, null, [defn, bar, [args], [call, null, baz]]].
type SexpParserAdapter struct{}

// NewSexpParserAdapter constructs a SexpParserAdapter.
func NewSexpParserAdapter() *SexpParserAdapter {
	return &SexpParserAdapter{}
}

// Parse decodes content into a tree.
func (a *SexpParserAdapter) Parse(ctx context.Context, source m.Source, content []byte) (*m.Node, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var doc yaml.Node
	if err := yaml.Unmarshal(content, &doc); err != nil {
		return nil, fmt.Errorf("decode %s: %w", source.Path, err)
	}

	if doc.Kind != yaml.DocumentNode || len(doc.Content) == 0 {
		return nil, fmt.Errorf("%s: %w", source.Path, ErrEmptyTree)
	}

	root := doc.Content[0]
	if root.Kind != yaml.SequenceNode {
		return nil, fmt.Errorf("%s: line %d: top level must be a sequence", source.Path, root.Line)
	}

	return decodeNode(root)
}

func decodeNode(seq *yaml.Node) (*m.Node, error) {
	if len(seq.Content) == 0 {
		return nil, fmt.Errorf("line %d: %w", seq.Line, ErrEmptyTree)
	}

	head := seq.Content[0]
	if head.Kind != yaml.ScalarNode || head.Tag != "!!str" {
		return nil, fmt.Errorf("line %d: node kind must be a string, got %q", head.Line, head.Value)
	}

	kind := m.Kind(strings.TrimPrefix(head.Value, ":"))
	children := make([]m.Element, 0, len(seq.Content)-1)

	for _, item := range seq.Content[1:] {
		var (
			child m.Element
			err   error
		)

		if kind == m.KindLit {
			child, err = decodeLiteral(item)
		} else {
			child, err = decodeElement(item)
		}

		if err != nil {
			return nil, err
		}

		children = append(children, child)
	}

	return m.NewNode(kind, children...), nil
}

func decodeElement(item *yaml.Node) (m.Element, error) {
	switch item.Kind {
	case yaml.SequenceNode:
		return decodeNode(item)
	case yaml.AliasNode:
		return decodeElement(item.Alias)
	case yaml.ScalarNode:
		switch item.Tag {
		case "!!null":
			return nil, nil
		case "!!str":
			return m.Ident(strings.TrimPrefix(item.Value, ":")), nil
		default:
			return decodeLiteral(item)
		}
	default:
		return nil, fmt.Errorf("line %d: unexpected mapping in syntax tree", item.Line)
	}
}

// decodeLiteral turns a scalar into a literal value. Strings follow Ruby
// notation: /re/ is a Regexp, a..b a Range, anything else a Symbol.
func decodeLiteral(item *yaml.Node) (m.Element, error) {
	if item.Kind != yaml.ScalarNode {
		return decodeElement(item)
	}

	switch item.Tag {
	case "!!int":
		return &m.Literal{Value: parseInteger(item.Value)}, nil
	case "!!float":
		// yaml resolves integers wider than 64 bits as floats.
		if isDigits(strings.TrimPrefix(item.Value, "-")) {
			return &m.Literal{Value: parseInteger(item.Value)}, nil
		}

		f, err := strconv.ParseFloat(item.Value, 64)
		if err != nil {
			return nil, fmt.Errorf("line %d: invalid float %q: %w", item.Line, item.Value, err)
		}

		return &m.Literal{Value: f}, nil
	case "!!str":
		return &m.Literal{Value: parseStringLiteral(item.Value)}, nil
	case "!!bool":
		return &m.Literal{Value: item.Value == "true"}, nil
	case "!!null":
		return nil, nil
	default:
		return &m.Literal{Value: item.Value}, nil
	}
}

func parseInteger(text string) any {
	clean := strings.ReplaceAll(text, "_", "")
	if v, err := strconv.ParseInt(clean, 0, 64); err == nil {
		return v
	}

	if v, ok := new(big.Int).SetString(clean, 0); ok {
		return v
	}

	return text
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}

	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}

	return true
}

func parseStringLiteral(text string) any {
	if len(text) >= 2 && strings.HasPrefix(text, "/") && strings.HasSuffix(text, "/") {
		return m.Regexp(text[1 : len(text)-1])
	}

	if r, ok := parseRange(text); ok {
		return r
	}

	return m.Symbol(strings.TrimPrefix(text, ":"))
}

func parseRange(text string) (m.Range, bool) {
	sep, exclusive := "..", false
	if strings.Contains(text, "...") {
		sep, exclusive = "...", true
	}

	lo, hi, ok := strings.Cut(text, sep)
	if !ok {
		return m.Range{}, false
	}

	begin, err := strconv.ParseInt(strings.TrimSpace(lo), 10, 64)
	if err != nil {
		return m.Range{}, false
	}

	end, err := strconv.ParseInt(strings.TrimSpace(hi), 10, 64)
	if err != nil {
		return m.Range{}, false
	}

	return m.Range{Begin: begin, End: end, Exclusive: exclusive}, true
}
