package adapter

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"strconv"
	"strings"
	"unicode/utf8"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/ruby"

	m "flog.dev/pkg/flog/internal/model"
)

// ErrSyntax is returned when Ruby source does not parse cleanly.
var ErrSyntax = errors.New("ruby syntax error")

// RubyParserAdapter parses Ruby source with tree-sitter and translates the
// concrete tree into the scorer's s-expression vocabulary.
type RubyParserAdapter struct{}

// NewRubyParserAdapter constructs a RubyParserAdapter.
func NewRubyParserAdapter() *RubyParserAdapter {
	return &RubyParserAdapter{}
}

// Parse builds a tree for one Ruby source.
func (a *RubyParserAdapter) Parse(ctx context.Context, source m.Source, content []byte) (*m.Node, error) {
	parser := sitter.NewParser()
	parser.SetLanguage(ruby.GetLanguage())

	tree, err := parser.ParseCtx(ctx, nil, content)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", source.Path, err)
	}

	root := tree.RootNode()
	if root.HasError() {
		return nil, fmt.Errorf("%s:%d: %w", source.Path, firstErrorLine(root), ErrSyntax)
	}

	t := newRubyTranslator(content)

	return m.NewNode(m.KindBlock, t.children(root)...), nil
}

func firstErrorLine(n *sitter.Node) int {
	if n.Type() == "ERROR" || n.IsMissing() {
		return int(n.StartPoint().Row) + 1
	}

	for i := 0; i < int(n.ChildCount()); i++ {
		child := n.Child(i)
		if child != nil && child.HasError() {
			return firstErrorLine(child)
		}
	}

	return int(n.StartPoint().Row) + 1
}

// frame is one lexical variable scope. Method, class and module bodies open
// hard frames that hide outer locals; blocks open soft frames.
type frame struct {
	vars map[string]m.Kind
	hard bool
}

type rubyTranslator struct {
	src    []byte
	frames []frame
}

func newRubyTranslator(src []byte) *rubyTranslator {
	t := &rubyTranslator{src: src}
	t.push(true)

	return t
}

func (t *rubyTranslator) push(hard bool) {
	t.frames = append(t.frames, frame{vars: map[string]m.Kind{}, hard: hard})
}

func (t *rubyTranslator) pop() {
	t.frames = t.frames[:len(t.frames)-1]
}

// declare binds name in the innermost frame: lvar in a hard frame, dvar in
// a block frame.
func (t *rubyTranslator) declare(name string) {
	top := &t.frames[len(t.frames)-1]
	if _, ok := t.lookup(name); ok {
		return
	}

	if top.hard {
		top.vars[name] = m.KindLVar
	} else {
		top.vars[name] = m.KindDVar
	}
}

func (t *rubyTranslator) lookup(name string) (m.Kind, bool) {
	for i := len(t.frames) - 1; i >= 0; i-- {
		if kind, ok := t.frames[i].vars[name]; ok {
			return kind, true
		}

		if t.frames[i].hard {
			break
		}
	}

	return "", false
}

func (t *rubyTranslator) text(n *sitter.Node) string {
	if n == nil {
		return ""
	}

	return n.Content(t.src)
}

//nolint:cyclop,funlen // One case per Ruby node type.
func (t *rubyTranslator) translate(n *sitter.Node) m.Element {
	if n == nil {
		return nil
	}

	switch n.Type() {
	case "comment":
		return nil
	case "class":
		return t.class(n)
	case "module":
		return t.module(n)
	case "singleton_class":
		return t.singletonClass(n)
	case "method":
		return t.method(n)
	case "singleton_method":
		return t.singletonMethod(n)
	case "call", "method_call":
		return t.call(n)
	case "lambda":
		return t.lambda(n)
	case "alias":
		return m.NewNode(m.KindAlias,
			m.Lit(m.Symbol(strings.TrimPrefix(t.text(n.ChildByFieldName("name")), ":"))),
			m.Lit(m.Symbol(strings.TrimPrefix(t.text(n.ChildByFieldName("alias")), ":"))),
		)
	case "identifier":
		return t.identifier(n)
	case "instance_variable":
		return m.NewNode(m.KindIVar, m.Ident(t.text(n)))
	case "class_variable":
		return m.NewNode("cvar", m.Ident(t.text(n)))
	case "global_variable":
		return m.NewNode("gvar", m.Ident(t.text(n)))
	case "constant":
		return m.NewNode(m.KindConst, m.Ident(t.text(n)))
	case "scope_resolution":
		return m.NewNode(m.KindColon2,
			t.translate(n.ChildByFieldName("scope")),
			m.Ident(t.text(n.ChildByFieldName("name"))))
	case "self":
		return m.NewNode(m.KindSelf)
	case "nil":
		return m.NewNode(m.KindNil)
	case "true", "false":
		return m.NewNode(m.Kind(n.Type()))
	case "integer":
		return m.Lit(parseRubyInteger(t.text(n)))
	case "float":
		return m.Lit(parseRubyFloat(t.text(n)))
	case "character":
		return m.Lit(parseRubyCharacter(t.text(n)))
	case "rational", "complex", "imaginary":
		return m.Lit(t.text(n))
	case "simple_symbol", "hash_key_symbol", "delimited_symbol", "bare_symbol":
		return t.symbol(n)
	case "regex":
		return t.regex(n)
	case "string":
		return t.str(n)
	case "range":
		return t.rng(n)
	case "binary":
		return t.binary(n)
	case "unary":
		return t.unary(n)
	case "assignment":
		return t.assignment(n)
	case "operator_assignment":
		return t.operatorAssignment(n)
	case "element_reference":
		return t.elementReference(n)
	default:
		return m.NewNode(m.Kind(n.Type()), t.children(n)...)
	}
}

// children translates every named child, dropping comments.
func (t *rubyTranslator) children(n *sitter.Node, skip ...*sitter.Node) []m.Element {
	var out []m.Element

	for i := 0; i < int(n.NamedChildCount()); i++ {
		child := n.NamedChild(i)
		if child == nil || isOneOf(child, skip) {
			continue
		}

		if el := t.translate(child); el != nil {
			out = append(out, el)
		}
	}

	return out
}

// body translates the statements of a class, method or block, flattening
// body_statement / block_body wrappers.
func (t *rubyTranslator) body(n *sitter.Node, skip ...*sitter.Node) []m.Element {
	var out []m.Element

	for i := 0; i < int(n.NamedChildCount()); i++ {
		child := n.NamedChild(i)
		if child == nil || isOneOf(child, skip) {
			continue
		}

		switch child.Type() {
		case "body_statement", "block_body":
			out = append(out, t.children(child)...)
		default:
			if el := t.translate(child); el != nil {
				out = append(out, el)
			}
		}
	}

	return out
}

func isOneOf(n *sitter.Node, nodes []*sitter.Node) bool {
	for _, other := range nodes {
		if other != nil && n.StartByte() == other.StartByte() && n.EndByte() == other.EndByte() && n.Type() == other.Type() {
			return true
		}
	}

	return false
}

// (class name super body...)
func (t *rubyTranslator) class(n *sitter.Node) m.Element {
	name := n.ChildByFieldName("name")
	super := n.ChildByFieldName("superclass")

	var superEl m.Element

	if super != nil {
		if super.NamedChildCount() > 0 {
			superEl = t.translate(super.NamedChild(0))
		} else {
			superEl = t.translate(super)
		}
	}

	t.push(true)
	defer t.pop()

	children := []m.Element{m.Ident(t.text(name)), superEl}

	return m.NewNode(m.KindClass, append(children, t.body(n, name, super)...)...)
}

// (module name body...)
func (t *rubyTranslator) module(n *sitter.Node) m.Element {
	name := n.ChildByFieldName("name")

	t.push(true)
	defer t.pop()

	children := []m.Element{m.Ident(t.text(name))}

	return m.NewNode(m.KindModule, append(children, t.body(n, name)...)...)
}

// (sclass recv body...)
func (t *rubyTranslator) singletonClass(n *sitter.Node) m.Element {
	value := n.ChildByFieldName("value")
	recv := t.translate(value)

	t.push(true)
	defer t.pop()

	return m.NewNode(m.KindSClass, append([]m.Element{recv}, t.body(n, value)...)...)
}

// (defn name args body...)
func (t *rubyTranslator) method(n *sitter.Node) m.Element {
	name := n.ChildByFieldName("name")
	params := n.ChildByFieldName("parameters")

	t.push(true)
	defer t.pop()

	children := []m.Element{m.Ident(t.text(name)), t.params(params)}

	return m.NewNode(m.KindDefn, append(children, t.body(n, name, params)...)...)
}

// (defs recv name args body...)
func (t *rubyTranslator) singletonMethod(n *sitter.Node) m.Element {
	object := n.ChildByFieldName("object")
	name := n.ChildByFieldName("name")
	params := n.ChildByFieldName("parameters")
	recv := t.translate(object)

	t.push(true)
	defer t.pop()

	children := []m.Element{recv, m.Ident(t.text(name)), t.params(params)}

	return m.NewNode(m.KindDefs, append(children, t.body(n, object, name, params)...)...)
}

// params declares every parameter name in the current frame and returns an
// (args ...) node. Default values are kept as (lasgn name value).
func (t *rubyTranslator) params(n *sitter.Node) m.Element {
	if n == nil {
		return m.NewNode(m.KindArgs)
	}

	var args []m.Element

	for i := 0; i < int(n.NamedChildCount()); i++ {
		param := n.NamedChild(i)
		if param == nil || param.Type() == "comment" {
			continue
		}

		if param.Type() == "identifier" {
			t.declare(t.text(param))
			args = append(args, m.Ident(t.text(param)))

			continue
		}

		name := param.ChildByFieldName("name")
		if name != nil {
			t.declare(t.text(name))
		}

		if value := param.ChildByFieldName("value"); value != nil {
			args = append(args, m.NewNode("lasgn", m.Ident(t.text(name)), t.translate(value)))
			continue
		}

		if name != nil {
			args = append(args, m.Ident(t.text(name)))
		} else {
			args = append(args, m.NewNode(m.Kind(param.Type()), t.children(param)...))
		}
	}

	return m.NewNode(m.KindArgs, args...)
}

// call translates a method call. A block argument wraps the call in
// (block_pass arg call); a block literal wraps it in (iter call args body...).
func (t *rubyTranslator) call(n *sitter.Node) m.Element {
	receiver := n.ChildByFieldName("receiver")
	method := n.ChildByFieldName("method")
	arguments := n.ChildByFieldName("arguments")
	block := n.ChildByFieldName("block")

	recv := t.translate(receiver)

	name := t.text(method)
	if name == "" {
		name = "call"
	}

	var (
		args     []m.Element
		blockArg *sitter.Node
		hasBlock bool
	)

	if arguments != nil {
		for i := 0; i < int(arguments.NamedChildCount()); i++ {
			arg := arguments.NamedChild(i)
			if arg == nil || arg.Type() == "comment" {
				continue
			}

			if arg.Type() == "block_argument" {
				blockArg, hasBlock = arg, true
				continue
			}

			if el := t.translate(arg); el != nil {
				args = append(args, el)
			}
		}
	}

	var result m.Element = m.NewNode(m.KindCall, recv, m.Ident(name), m.NewNode(m.KindArgList, args...))
	if method != nil && method.Type() == "super" {
		result = m.NewNode("super", args...)
	}

	if hasBlock {
		result = m.NewNode(m.KindBlockPass, t.blockArgument(blockArg), result)
	}

	if block != nil {
		result = t.iter(result, block)
	}

	return result
}

func (t *rubyTranslator) blockArgument(n *sitter.Node) m.Element {
	if n.NamedChildCount() == 0 {
		// Anonymous block forwarding: def foo(&) bar(&) end
		return m.NewNode(m.KindLVar, m.Ident("&"))
	}

	return t.translate(n.NamedChild(0))
}

// (iter call args body...)
func (t *rubyTranslator) iter(call m.Element, block *sitter.Node) m.Element {
	t.push(false)
	defer t.pop()

	params := block.ChildByFieldName("parameters")
	children := []m.Element{call, t.params(params)}

	return m.NewNode(m.KindIter, append(children, t.body(block, params)...)...)
}

func (t *rubyTranslator) lambda(n *sitter.Node) m.Element {
	call := m.NewNode(m.KindCall, nil, m.Ident("lambda"), m.NewNode(m.KindArgList))

	t.push(false)
	defer t.pop()

	params := n.ChildByFieldName("parameters")
	children := []m.Element{call, t.params(params)}

	if body := n.ChildByFieldName("body"); body != nil {
		children = append(children, t.body(body, body.ChildByFieldName("parameters"))...)
	}

	return m.NewNode(m.KindIter, children...)
}

// identifier is a local variable when bound in scope, otherwise a
// receiver-less call without arguments.
func (t *rubyTranslator) identifier(n *sitter.Node) m.Element {
	name := t.text(n)
	if kind, ok := t.lookup(name); ok {
		return m.NewNode(kind, m.Ident(name))
	}

	return m.NewNode(m.KindCall, nil, m.Ident(name), m.NewNode(m.KindArgList))
}

func (t *rubyTranslator) symbol(n *sitter.Node) m.Element {
	if hasInterpolation(n) {
		return m.NewNode("dsym", t.children(n)...)
	}

	text := strings.TrimSuffix(strings.TrimPrefix(t.text(n), ":"), ":")
	text = strings.Trim(text, `"'`)

	return m.Lit(m.Symbol(text))
}

func (t *rubyTranslator) regex(n *sitter.Node) m.Element {
	if hasInterpolation(n) {
		return m.NewNode("dregx", t.children(n)...)
	}

	return m.Lit(m.Regexp(stringContent(n, t.src)))
}

func (t *rubyTranslator) str(n *sitter.Node) m.Element {
	if hasInterpolation(n) {
		return m.NewNode("dstr", t.children(n)...)
	}

	return m.NewNode(m.KindStr, m.Ident(stringContent(n, t.src)))
}

func (t *rubyTranslator) rng(n *sitter.Node) m.Element {
	begin := n.ChildByFieldName("begin")
	end := n.ChildByFieldName("end")

	if begin == nil && end == nil && n.NamedChildCount() == 2 {
		begin, end = n.NamedChild(0), n.NamedChild(1)
	}

	exclusive := strings.Contains(t.text(n), "...")

	if begin != nil && end != nil && begin.Type() == "integer" && end.Type() == "integer" {
		lo, okLo := parseRubyInteger(t.text(begin)).(int64)
		hi, okHi := parseRubyInteger(t.text(end)).(int64)

		if okLo && okHi {
			return m.Lit(m.Range{Begin: lo, End: hi, Exclusive: exclusive})
		}
	}

	kind := m.KindDot2
	if exclusive {
		kind = m.KindDot3
	}

	return m.NewNode(kind, t.translate(begin), t.translate(end))
}

func (t *rubyTranslator) binary(n *sitter.Node) m.Element {
	left := t.translate(n.ChildByFieldName("left"))
	right := t.translate(n.ChildByFieldName("right"))
	op := t.text(n.ChildByFieldName("operator"))

	switch op {
	case "&&", "and":
		return m.NewNode(m.KindAnd, left, right)
	case "||", "or":
		return m.NewNode(m.KindOr, left, right)
	default:
		return m.NewNode(m.KindCall, left, m.Ident(op), m.NewNode(m.KindArgList, right))
	}
}

func (t *rubyTranslator) unary(n *sitter.Node) m.Element {
	operand := n.ChildByFieldName("operand")
	op := t.text(n.ChildByFieldName("operator"))

	switch op {
	case "!", "not":
		return m.NewNode(m.KindNot, t.translate(operand))
	case "defined?":
		return m.NewNode("defined", t.translate(operand))
	case "-":
		if operand != nil && operand.Type() == "integer" {
			return m.Lit(parseRubyInteger("-" + t.text(operand)))
		}

		if operand != nil && operand.Type() == "float" {
			return m.Lit(-parseRubyFloat(t.text(operand)))
		}

		return m.NewNode(m.KindCall, t.translate(operand), m.Ident("-@"), m.NewNode(m.KindArgList))
	case "+":
		return m.NewNode(m.KindCall, t.translate(operand), m.Ident("+@"), m.NewNode(m.KindArgList))
	default:
		return m.NewNode(m.KindCall, t.translate(operand), m.Ident(op), m.NewNode(m.KindArgList))
	}
}

func (t *rubyTranslator) assignment(n *sitter.Node) m.Element {
	left := n.ChildByFieldName("left")
	right := n.ChildByFieldName("right")

	if left == nil {
		return m.NewNode("asgn", t.children(n)...)
	}

	switch left.Type() {
	case "identifier":
		t.declare(t.text(left))
		return m.NewNode("lasgn", m.Ident(t.text(left)), t.translate(right))
	case "instance_variable":
		return m.NewNode("iasgn", m.Ident(t.text(left)), t.translate(right))
	case "call":
		recv := t.translate(left.ChildByFieldName("receiver"))
		name := t.text(left.ChildByFieldName("method")) + "="

		return m.NewNode("attrasgn", recv, m.Ident(name), m.NewNode(m.KindArgList, t.translate(right)))
	case "element_reference":
		recv := t.translate(left.ChildByFieldName("object"))
		args := t.children(left, left.ChildByFieldName("object"))
		args = append(args, t.translate(right))

		return m.NewNode("attrasgn", recv, m.Ident("[]="), m.NewNode(m.KindArgList, args...))
	case "left_assignment_list":
		t.declareTargets(left)
		return m.NewNode("masgn", t.translate(left), t.translate(right))
	default:
		return m.NewNode("asgn", t.translate(left), t.translate(right))
	}
}

func (t *rubyTranslator) declareTargets(n *sitter.Node) {
	for i := 0; i < int(n.NamedChildCount()); i++ {
		child := n.NamedChild(i)

		switch child.Type() {
		case "identifier":
			t.declare(t.text(child))
		case "rest_assignment", "destructured_left_assignment":
			t.declareTargets(child)
		}
	}
}

// operatorAssignment expands x op= y into an assignment of (call x op (arglist y)).
// ||= and &&= involve no method call and stay op_asgn nodes.
func (t *rubyTranslator) operatorAssignment(n *sitter.Node) m.Element {
	left := n.ChildByFieldName("left")
	right := n.ChildByFieldName("right")
	op := strings.TrimSuffix(t.assignmentOperator(n), "=")

	if left != nil && left.Type() == "identifier" {
		t.declare(t.text(left))
	}

	var kind m.Kind

	switch {
	case left == nil, op == "", op == "||", op == "&&":
		return m.NewNode("op_asgn", t.children(n)...)
	case left.Type() == "identifier":
		kind = "lasgn"
	case left.Type() == "instance_variable":
		kind = "iasgn"
	case left.Type() == "global_variable":
		kind = "gasgn"
	case left.Type() == "class_variable":
		kind = "cvasgn"
	default:
		return m.NewNode("op_asgn", t.children(n)...)
	}

	value := m.NewNode(m.KindCall, t.translate(left), m.Ident(op), m.NewNode(m.KindArgList, t.translate(right)))

	return m.NewNode(kind, m.Ident(t.text(left)), value)
}

func (t *rubyTranslator) assignmentOperator(n *sitter.Node) string {
	if op := n.ChildByFieldName("operator"); op != nil {
		return t.text(op)
	}

	for i := 0; i < int(n.ChildCount()); i++ {
		child := n.Child(i)
		if !child.IsNamed() && strings.HasSuffix(child.Type(), "=") {
			return child.Type()
		}
	}

	return ""
}

// element_reference: a[i] is (call a [] (arglist i)).
func (t *rubyTranslator) elementReference(n *sitter.Node) m.Element {
	object := n.ChildByFieldName("object")

	return m.NewNode(m.KindCall,
		t.translate(object),
		m.Ident("[]"),
		m.NewNode(m.KindArgList, t.children(n, object)...))
}

func hasInterpolation(n *sitter.Node) bool {
	for i := 0; i < int(n.NamedChildCount()); i++ {
		if n.NamedChild(i).Type() == "interpolation" {
			return true
		}
	}

	return false
}

func stringContent(n *sitter.Node, src []byte) string {
	var b strings.Builder

	for i := 0; i < int(n.NamedChildCount()); i++ {
		child := n.NamedChild(i)
		if child.Type() == "string_content" || child.Type() == "escape_sequence" {
			b.WriteString(child.Content(src))
		}
	}

	return b.String()
}

// parseRubyInteger returns an int64, a *big.Int beyond 64 bits, or the raw
// text when it is not a recognisable integer.
func parseRubyInteger(text string) any {
	clean := strings.ReplaceAll(text, "_", "")

	neg := strings.HasPrefix(clean, "-")
	digits := strings.TrimPrefix(clean, "-")

	if strings.HasPrefix(digits, "0d") || strings.HasPrefix(digits, "0D") {
		digits = digits[2:]
	}

	signed := digits
	if neg {
		signed = "-" + digits
	}

	if v, err := strconv.ParseInt(signed, 0, 64); err == nil {
		return v
	}

	if v, ok := new(big.Int).SetString(signed, 0); ok {
		return v
	}

	return text
}

func parseRubyFloat(text string) float64 {
	f, err := strconv.ParseFloat(strings.ReplaceAll(text, "_", ""), 64)
	if err != nil {
		return 0
	}

	return f
}

// parseRubyCharacter turns a ?c literal into its code point.
func parseRubyCharacter(text string) any {
	body := strings.TrimPrefix(text, "?")
	if body == `\s` {
		return int64(' ')
	}

	if r, _, _, err := strconv.UnquoteChar(body, 0); err == nil {
		return int64(r)
	}

	r, _ := utf8.DecodeRuneInString(body)

	return int64(r)
}
