package domain

import (
	"math/big"

	m "flog.dev/pkg/flog/internal/model"
)

// Multiplier bonuses applied while processing riskier subtrees.
const (
	receiverBonus   = 0.2
	argumentBonus   = 0.2
	superclassBonus = 1.0
	sclassBonus     = 0.5
)

// Fixed weights for constructs that are not looked up in the ScoreTable.
const (
	litFixnumScore      = 0.25
	aliasScore          = 2.0
	toProcScore         = 3.0
	toProcIterScore     = 6.0
	singletonClassScore = 5.0
)

// Construct names recorded for keyword-level constructs.
const (
	litFixnumName  = "lit_fixnum"
	aliasName      = "alias"
	toProcName     = "to_proc"
	toProcIterName = "to_proc_iter_wtf?"
	sclassName     = "sclass"
)

// Scorer walks syntax trees and accumulates complexity scores per scope.
// Scores accumulate across every tree processed by the same Scorer.
type Scorer interface {
	// Process walks tree completely, recording its score contributions.
	// Traversal stops at the first unsupported literal or block_pass shape.
	Process(tree *m.Node) error
	// Scores returns the accumulated totals and breakdowns.
	Scores() *m.Scores
}

type scorer struct {
	table      ScoreTable
	scores     *m.Scores
	class      string
	method     string
	multiplier float64
}

// NewScorer creates a Scorer with fresh state weighing calls by table.
func NewScorer(table ScoreTable) Scorer {
	return &scorer{
		table:      table,
		scores:     m.NewScores(),
		class:      m.NoClass,
		method:     m.NoMethod,
		multiplier: 1.0,
	}
}

func (s *scorer) Process(tree *m.Node) error {
	return s.process(tree)
}

func (s *scorer) Scores() *m.Scores {
	return s.scores
}

func (s *scorer) process(el m.Element) error {
	n, ok := el.(*m.Node)
	if !ok || n == nil {
		return nil
	}

	c := newCursor(n)

	switch n.Kind {
	case m.KindCall:
		return s.processCall(c)
	case m.KindClass:
		return s.processClass(c)
	case m.KindModule:
		return s.processModule(c)
	case m.KindDefn:
		return s.processDefn(c)
	case m.KindDefs:
		return s.processDefs(c)
	case m.KindLit:
		return s.processLit(c)
	case m.KindAlias:
		return s.processAlias(c)
	case m.KindBlockPass:
		return s.processBlockPass(c)
	case m.KindSClass:
		return s.processSClass(c)
	default:
		return s.processAll(c.rest())
	}
}

func (s *scorer) processAll(elements []m.Element) error {
	for _, el := range elements {
		if err := s.process(el); err != nil {
			return err
		}
	}

	return nil
}

// addToScore records score, scaled by the current multiplier, under the
// current scope.
func (s *scorer) addToScore(name string, score float64) {
	key := m.ScopeKey{Class: s.class, Method: s.method}
	s.scores.Add(key, name, score*s.multiplier)
}

// badDog raises the multiplier by bonus while fn runs. The previous value is
// restored even when fn fails.
func (s *scorer) badDog(bonus float64, fn func() error) error {
	saved := s.multiplier
	s.multiplier += bonus

	defer func() {
		s.multiplier = saved
	}()

	return fn()
}

// (call recv name arglist)
func (s *scorer) processCall(c *cursor) error {
	recv := c.next()
	if err := s.badDog(receiverBonus, func() error { return s.process(recv) }); err != nil {
		return err
	}

	name := c.name()

	args := c.rest()
	if err := s.badDog(argumentBonus, func() error { return s.processAll(args) }); err != nil {
		return err
	}

	s.addToScore(name, s.table.Score(name))

	return nil
}

// (class name super body...)
func (s *scorer) processClass(c *cursor) error {
	s.class = c.name()

	defer func() {
		s.class = m.NoClass
	}()

	super := c.next()
	if err := s.badDog(superclassBonus, func() error { return s.process(super) }); err != nil {
		return err
	}

	return s.processAll(c.rest())
}

// (module name body...)
func (s *scorer) processModule(c *cursor) error {
	s.class = c.name()

	defer func() {
		s.class = m.NoClass
	}()

	return s.processAll(c.rest())
}

// (defn name args body...)
func (s *scorer) processDefn(c *cursor) error {
	s.method = c.name()

	defer func() {
		s.method = m.NoMethod
	}()

	return s.processAll(c.rest())
}

// (defs recv name args body...)
func (s *scorer) processDefs(c *cursor) error {
	if err := s.process(c.next()); err != nil {
		return err
	}

	return s.processDefn(c)
}

// (lit value)
func (s *scorer) processLit(c *cursor) error {
	el := c.next()

	lit, ok := el.(*m.Literal)
	if !ok || lit == nil {
		return &LiteralError{Value: el}
	}

	switch v := lit.Value.(type) {
	case int64:
		s.scoreInteger(v)
	case int:
		s.scoreInteger(int64(v))
	case *big.Int:
		if v.IsInt64() {
			s.scoreInteger(v.Int64())
		} else {
			s.addToScore(litFixnumName, litFixnumScore)
		}
	case float64, m.Symbol, m.Regexp, m.Range:
	default:
		return &LiteralError{Value: lit.Value}
	}

	return s.processAll(c.rest())
}

// scoreInteger ignores 0 and -1, which are almost always array indices.
func (s *scorer) scoreInteger(v int64) {
	if v == 0 || v == -1 {
		return
	}

	s.addToScore(litFixnumName, litFixnumScore)
}

// (alias new old)
func (s *scorer) processAlias(c *cursor) error {
	if err := s.process(c.next()); err != nil {
		return err
	}

	if err := s.process(c.next()); err != nil {
		return err
	}

	s.addToScore(aliasName, aliasScore)

	return s.processAll(c.rest())
}

// (block_pass arg call)
func (s *scorer) processBlockPass(c *cursor) error {
	arg := c.next()
	call := c.next()

	switch m.KindOf(arg) {
	case m.KindIter:
		s.addToScore(toProcIterName, toProcIterScore)
	case m.KindLit, m.KindCall:
		s.addToScore(toProcName, toProcScore)
	case m.KindLVar, m.KindDVar, m.KindIVar, m.KindNil:
	default:
		return &BlockPassError{Arg: arg, Call: call}
	}

	if err := s.process(arg); err != nil {
		return err
	}

	if err := s.process(call); err != nil {
		return err
	}

	return s.processAll(c.rest())
}

// (sclass recv body...)
func (s *scorer) processSClass(c *cursor) error {
	err := s.badDog(sclassBonus, func() error {
		if err := s.process(c.next()); err != nil {
			return err
		}

		return s.processAll(c.rest())
	})
	if err != nil {
		return err
	}

	s.addToScore(sclassName, singletonClassScore)

	return nil
}

// cursor reads a node's children by position without mutating the node.
type cursor struct {
	children []m.Element
	pos      int
}

func newCursor(n *m.Node) *cursor {
	return &cursor{children: n.Children}
}

func (c *cursor) next() m.Element {
	if c.pos >= len(c.children) {
		return nil
	}

	el := c.children[c.pos]
	c.pos++

	return el
}

// name reads the next child as a name. Non-identifier names (a colon2 node
// for Foo::Bar in a hand-written tree, say) are rendered as text.
func (c *cursor) name() string {
	switch v := c.next().(type) {
	case m.Ident:
		return string(v)
	case nil:
		return "nil"
	default:
		return m.FormatElement(v)
	}
}

func (c *cursor) rest() []m.Element {
	if c.pos >= len(c.children) {
		return nil
	}

	rest := c.children[c.pos:]
	c.pos = len(c.children)

	return rest
}
