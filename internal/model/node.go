// Package model defines the data structures shared by the scorer, its
// adapters and the UI.
package model

import (
	"fmt"
	"strings"
)

// Kind tags a syntax tree node.
type Kind string

const (
	// KindCall is a method call: (call recv name arglist).
	KindCall Kind = "call"
	// KindClass is a class body: (class name super body...).
	KindClass Kind = "class"
	// KindModule is a module body: (module name body...).
	KindModule Kind = "module"
	// KindDefn is an instance method definition: (defn name args body...).
	KindDefn Kind = "defn"
	// KindDefs is a singleton method definition: (defs recv name args body...).
	KindDefs Kind = "defs"
	// KindLit is a literal value: (lit value).
	KindLit Kind = "lit"
	// KindAlias is the alias keyword: (alias new old).
	KindAlias Kind = "alias"
	// KindBlockPass passes a callable as a block: (block_pass arg call).
	KindBlockPass Kind = "block_pass"
	// KindSClass reopens an object's singleton class: (sclass recv body...).
	KindSClass Kind = "sclass"
	// KindIter is a call with a block literal: (iter call params body...).
	KindIter Kind = "iter"
	// KindLVar is a local variable reference.
	KindLVar Kind = "lvar"
	// KindDVar is a block-local variable reference.
	KindDVar Kind = "dvar"
	// KindIVar is an instance variable reference.
	KindIVar Kind = "ivar"
	// KindNil is the nil literal.
	KindNil Kind = "nil"

	// Kinds below are produced by the parsers but carry no scoring rule.

	KindBlock   Kind = "block"
	KindScope   Kind = "scope"
	KindArgs    Kind = "args"
	KindArgList Kind = "arglist"
	KindStr     Kind = "str"
	KindConst   Kind = "const"
	KindColon2  Kind = "colon2"
	KindSelf    Kind = "self"
	KindAnd     Kind = "and"
	KindOr      Kind = "or"
	KindNot     Kind = "not"
	KindDot2    Kind = "dot2"
	KindDot3    Kind = "dot3"
)

// Element is one child slot of a Node: a nested *Node, an Ident or a *Literal.
// A nil Element marks an absent slot, such as a call without a receiver.
type Element interface {
	element()
}

// Node is an immutable syntax tree node. Its meaning is defined by Kind and
// the position of its children.
type Node struct {
	Kind     Kind
	Children []Element
}

// Ident is an identifier or name stored inline in a node (class name, method
// name, call name).
type Ident string

// Literal carries the runtime value of a lit node. Value holds one of int64,
// *big.Int, float64, Symbol, Regexp or Range; anything else is unsupported.
type Literal struct {
	Value any
}

// Symbol is a symbol literal value, stored without the leading colon.
type Symbol string

// Regexp is a regular expression literal value, stored without delimiters.
type Regexp string

// Range is a literal range value such as 1..10 or 1...10.
type Range struct {
	Begin     int64
	End       int64
	Exclusive bool
}

func (*Node) element()    {}
func (Ident) element()    {}
func (*Literal) element() {}

// NewNode builds a node of the given kind.
func NewNode(kind Kind, children ...Element) *Node {
	return &Node{Kind: kind, Children: children}
}

// Lit builds a (lit value) node.
func Lit(value any) *Node {
	return NewNode(KindLit, &Literal{Value: value})
}

// Child returns the child at index i, or nil when out of range.
func (n *Node) Child(i int) Element {
	if n == nil || i < 0 || i >= len(n.Children) {
		return nil
	}

	return n.Children[i]
}

// String renders the node as an s-expression, mainly for diagnostics.
func (n *Node) String() string {
	if n == nil {
		return "nil"
	}

	var b strings.Builder

	b.WriteString("s(:")
	b.WriteString(string(n.Kind))

	for _, child := range n.Children {
		b.WriteString(", ")
		b.WriteString(FormatElement(child))
	}

	b.WriteString(")")

	return b.String()
}

// FormatElement renders a single element the way Node.String does.
func FormatElement(el Element) string {
	switch v := el.(type) {
	case nil:
		return "nil"
	case *Node:
		return v.String()
	case Ident:
		return ":" + string(v)
	case *Literal:
		if v == nil {
			return "nil"
		}

		return v.String()
	default:
		return fmt.Sprintf("%v", v)
	}
}

// String renders the literal value in Ruby-ish notation.
func (l *Literal) String() string {
	switch v := l.Value.(type) {
	case Symbol:
		return ":" + string(v)
	case Regexp:
		return "/" + string(v) + "/"
	case Range:
		if v.Exclusive {
			return fmt.Sprintf("%d...%d", v.Begin, v.End)
		}

		return fmt.Sprintf("%d..%d", v.Begin, v.End)
	case string:
		return fmt.Sprintf("%q", v)
	default:
		return fmt.Sprintf("%v", v)
	}
}

// KindOf returns the kind of el when it is a node, and "" otherwise.
func KindOf(el Element) Kind {
	if n, ok := el.(*Node); ok && n != nil {
		return n.Kind
	}

	return ""
}
