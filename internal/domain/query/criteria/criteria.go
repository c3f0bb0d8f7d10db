package criteria

import (
	"fmt"
	"strings"

	"github.com/kailas-cloud/solrq/internal/domain"
	"github.com/kailas-cloud/solrq/internal/domain/query/field"
)

// valueSeparator splits tokens in the engine's query syntax.
const valueSeparator = " "

// Operator is the boolean operator that attaches a node to the fragment before it.
type Operator string

// Operator constants.
const (
	And Operator = "AND"
	Or  Operator = "OR"
)

// Chain is the ordered list of nodes produced by Where/And/Or calls.
// All nodes of a chain point to the same Chain.
type Chain struct {
	nodes []*Criteria
	err   error
}

// Nodes returns the chain nodes in insertion order.
func (ch *Chain) Nodes() []*Criteria {
	out := make([]*Criteria, len(ch.nodes))
	copy(out, ch.nodes)
	return out
}

// Len returns the number of nodes in the chain.
func (ch *Chain) Len() int { return len(ch.nodes) }

// Criteria is one node of a boolean expression chain: a field plus its predicates.
type Criteria struct {
	field       field.Field
	entries     []Entry
	chain       *Chain
	index       int
	conjunction Operator
}

// New creates the root of a new chain for a validated field.
func New(f field.Field) (*Criteria, error) {
	if f.IsZero() {
		return nil, fmt.Errorf("criteria field must not be empty: %w", domain.ErrInvalidArgument)
	}
	ch := &Chain{}
	return ch.append(f, And), nil
}

// Where starts a new chain on the named field.
// An invalid name is latched and reported by Err and CreateQueryString.
func Where(name string) *Criteria {
	ch := &Chain{}
	return ch.appendName(name, And)
}

// WhereField starts a new chain on f.
func WhereField(f field.Field) *Criteria {
	ch := &Chain{}
	return ch.appendField(f, And)
}

func (ch *Chain) appendName(name string, op Operator) *Criteria {
	f, err := field.New(name)
	if err != nil {
		ch.latch(fmt.Errorf("criteria on field %q: %w", name, err))
	}
	return ch.append(f, op)
}

func (ch *Chain) appendField(f field.Field, op Operator) *Criteria {
	if f.IsZero() {
		ch.latch(fmt.Errorf("criteria field must not be empty: %w", domain.ErrInvalidArgument))
	}
	return ch.append(f, op)
}

func (ch *Chain) append(f field.Field, op Operator) *Criteria {
	c := &Criteria{field: f, chain: ch, index: len(ch.nodes), conjunction: op}
	ch.nodes = append(ch.nodes, c)
	return c
}

// latch keeps the first construction error.
func (ch *Chain) latch(err error) {
	if ch.err == nil {
		ch.err = err
	}
}

// And appends a node on the named field, joined with AND.
func (c *Criteria) And(name string) *Criteria {
	return c.chain.appendName(name, And)
}

// Or appends a node on the named field, joined with OR.
func (c *Criteria) Or(name string) *Criteria {
	return c.chain.appendName(name, Or)
}

// AndField appends a node on f, joined with AND.
func (c *Criteria) AndField(f field.Field) *Criteria {
	return c.chain.appendField(f, And)
}

// OrField appends a node on f, joined with OR.
func (c *Criteria) OrField(f field.Field) *Criteria {
	return c.chain.appendField(f, Or)
}

// AndCriteria appends a copy of other's field and predicates, joined with AND.
func (c *Criteria) AndCriteria(other *Criteria) *Criteria {
	return c.adopt(other, And)
}

// OrCriteria appends a copy of other's field and predicates, joined with OR.
func (c *Criteria) OrCriteria(other *Criteria) *Criteria {
	return c.adopt(other, Or)
}

func (c *Criteria) adopt(other *Criteria, op Operator) *Criteria {
	if other == nil {
		c.chain.latch(fmt.Errorf("criteria must not be nil: %w", domain.ErrInvalidArgument))
		return c
	}
	if other.chain.err != nil {
		c.chain.latch(other.chain.err)
	}
	n := c.chain.appendField(other.field, op)
	n.entries = append(n.entries, other.entries...)
	return n
}

// Is adds an equality predicate.
func (c *Criteria) Is(value any) *Criteria {
	return c.add(KindEquals, value)
}

// Contains adds a predicate matching values containing text.
// Text with spaces cannot be expressed; use Expression or several AND-ed criteria.
func (c *Criteria) Contains(text string) *Criteria {
	return c.addWildcard(KindContains, text)
}

// StartsWith adds a predicate matching values starting with text.
func (c *Criteria) StartsWith(text string) *Criteria {
	return c.addWildcard(KindStartsWith, text)
}

// EndsWith adds a predicate matching values ending with text.
func (c *Criteria) EndsWith(text string) *Criteria {
	return c.addWildcard(KindEndsWith, text)
}

// Expression adds raw query text that is passed through unescaped.
func (c *Criteria) Expression(raw string) *Criteria {
	return c.add(KindExpression, raw)
}

func (c *Criteria) addWildcard(kind Kind, text string) *Criteria {
	if strings.Contains(text, valueSeparator) {
		c.chain.latch(fmt.Errorf(
			"cannot construct %s query with whitespace in %q, use expression or multiple clauses instead: %w",
			kind, text, domain.ErrAPIUsage,
		))
		return c
	}
	return c.add(kind, text)
}

func (c *Criteria) add(kind Kind, value any) *Criteria {
	if isNil(value) {
		c.chain.latch(fmt.Errorf("%s value on field %q must not be nil: %w",
			kind, c.field.Name(), domain.ErrInvalidArgument))
		return c
	}
	e := newEntry(kind, value)
	for _, existing := range c.entries {
		if existing.sameAs(e) {
			return c
		}
	}
	c.entries = append(c.entries, e)
	return c
}

// Field returns the node's field.
func (c *Criteria) Field() field.Field { return c.field }

// Entries returns the node's predicates in insertion order.
func (c *Criteria) Entries() []Entry {
	out := make([]Entry, len(c.entries))
	copy(out, c.entries)
	return out
}

// Conjunction returns how this node attaches to the node before it.
func (c *Criteria) Conjunction() Operator { return c.conjunction }

// Index returns the node's position in its chain.
func (c *Criteria) Index() int { return c.index }

// Chain returns the chain this node belongs to.
func (c *Criteria) Chain() *Chain { return c.chain }

// Root returns the first node of the chain.
func (c *Criteria) Root() *Criteria { return c.chain.nodes[0] }

// Err returns the first error recorded while building the chain.
func (c *Criteria) Err() error { return c.chain.err }

// Join appends every node of other's chain to this chain. The first joined
// node is attached with AND, the rest keep their own conjunction.
func (c *Criteria) Join(other *Criteria) *Criteria {
	if other == nil {
		c.chain.latch(fmt.Errorf("criteria must not be nil: %w", domain.ErrInvalidArgument))
		return c
	}
	if other.chain == c.chain {
		return c
	}
	if other.chain.err != nil {
		c.chain.latch(other.chain.err)
	}
	last := c
	for i, node := range other.chain.nodes {
		op := node.conjunction
		if i == 0 {
			op = And
		}
		last = c.chain.appendField(node.field, op)
		last.entries = append(last.entries, node.entries...)
	}
	return last
}

// Copy deep-copies the chain and returns the node at the same position.
func (c *Criteria) Copy() *Criteria {
	ch := &Chain{err: c.chain.err, nodes: make([]*Criteria, len(c.chain.nodes))}
	for i, node := range c.chain.nodes {
		n := &Criteria{
			field:       node.field,
			chain:       ch,
			index:       i,
			conjunction: node.conjunction,
			entries:     make([]Entry, len(node.entries)),
		}
		copy(n.entries, node.entries)
		ch.nodes[i] = n
	}
	return ch.nodes[c.index]
}
