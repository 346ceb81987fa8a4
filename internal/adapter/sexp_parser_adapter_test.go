package adapter

import (
	"context"
	"errors"
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	m "flog.dev/pkg/flog/internal/model"
)

func TestSexpParserAdapter_Parse(t *testing.T) {
	ctx := context.Background()
	source := m.Source{Path: "tree.yaml", Format: m.FormatSexp}

	t.Run("yaml flow sequence", func(t *testing.T) {
		content := `[class, Foo, null, [defn, bar, [args], [call, null, baz, [arglist, [lit, 5]]]]]`

		tree, err := NewSexpParserAdapter().Parse(ctx, source, []byte(content))
		require.NoError(t, err)
		assert.Equal(t,
			"s(:class, :Foo, nil, s(:defn, :bar, s(:args), s(:call, nil, :baz, s(:arglist, s(:lit, 5)))))",
			tree.String())
	})

	t.Run("json document", func(t *testing.T) {
		content := `["block_pass", ["lit", ":name"], ["call", null, "map", ["arglist"]]]`

		tree, err := NewSexpParserAdapter().Parse(ctx, source, []byte(content))
		require.NoError(t, err)
		assert.Equal(t, "s(:block_pass, s(:lit, :name), s(:call, nil, :map, s(:arglist)))", tree.String())
	})

	t.Run("block style yaml", func(t *testing.T) {
		content := "- module\n- Util\n- - alias\n  - - lit\n    - new\n  - - lit\n    - old\n"

		tree, err := NewSexpParserAdapter().Parse(ctx, source, []byte(content))
		require.NoError(t, err)
		assert.Equal(t, "s(:module, :Util, s(:alias, s(:lit, :new), s(:lit, :old)))", tree.String())
	})

	t.Run("empty document", func(t *testing.T) {
		_, err := NewSexpParserAdapter().Parse(ctx, source, []byte(""))
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrEmptyTree))
	})

	t.Run("top level scalar", func(t *testing.T) {
		_, err := NewSexpParserAdapter().Parse(ctx, source, []byte("call"))
		require.Error(t, err)
	})

	t.Run("numeric kind", func(t *testing.T) {
		_, err := NewSexpParserAdapter().Parse(ctx, source, []byte("[1, 2]"))
		require.Error(t, err)
	})

	t.Run("mapping inside tree", func(t *testing.T) {
		_, err := NewSexpParserAdapter().Parse(ctx, source, []byte("[call, {a: 1}]"))
		require.Error(t, err)
	})
}

func TestSexpParserAdapter_Literals(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    any
	}{
		{"integer", "[lit, 42]", int64(42)},
		{"negative integer", "[lit, -1]", int64(-1)},
		{"float", "[lit, 1.5]", 1.5},
		{"symbol with colon", `[lit, ":foo"]`, m.Symbol("foo")},
		{"bare symbol", "[lit, foo]", m.Symbol("foo")},
		{"regexp", `[lit, "/a+b/"]`, m.Regexp("a+b")},
		{"range", `[lit, "1..3"]`, m.Range{Begin: 1, End: 3}},
		{"exclusive range", `[lit, "1...3"]`, m.Range{Begin: 1, End: 3, Exclusive: true}},
		{"bool", "[lit, true]", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tree, err := NewSexpParserAdapter().Parse(context.Background(), m.Source{Path: "t.yaml"}, []byte(tt.content))
			require.NoError(t, err)
			require.Len(t, tree.Children, 1)

			lit, ok := tree.Child(0).(*m.Literal)
			require.True(t, ok, "child is %T", tree.Child(0))
			assert.Equal(t, tt.want, lit.Value)
		})
	}

	t.Run("bignum", func(t *testing.T) {
		tree, err := NewSexpParserAdapter().Parse(context.Background(), m.Source{Path: "t.yaml"},
			[]byte("[lit, 123456789012345678901234567890]"))
		require.NoError(t, err)

		lit, ok := tree.Child(0).(*m.Literal)
		require.True(t, ok)

		v, ok := lit.Value.(*big.Int)
		require.True(t, ok, "value is %T", lit.Value)
		assert.Equal(t, "123456789012345678901234567890", v.String())
	})
}

func TestFormatParser_Routes(t *testing.T) {
	parser := NewFormatParser()

	tree, err := parser.Parse(context.Background(), m.Source{Path: "x.sexp"}, []byte("[lit, 7]"))
	require.NoError(t, err)
	assert.Equal(t, "s(:lit, 7)", tree.String())

	_, err = parser.Parse(context.Background(), m.Source{Path: "x", Format: "cobol"}, []byte(""))
	require.Error(t, err)
}
