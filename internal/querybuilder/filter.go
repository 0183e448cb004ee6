package querybuilder

import (
	"sort"
	"strings"
)

// OpKind identifies a leaf filter operator. The declaration order is the
// order operators are printed within a leaf.
type OpKind int

const (
	OpEq OpKind = iota
	OpContains
	OpStartsWith
	OpGte
	OpLte
)

func (k OpKind) String() string {
	switch k {
	case OpEq:
		return "eq"
	case OpContains:
		return "contains"
	case OpStartsWith:
		return "startsWith"
	case OpGte:
		return "gte"
	case OpLte:
		return "lte"
	default:
		return "unknown"
	}
}

// Operator is a single comparison applied to a field.
type Operator struct {
	Kind  OpKind
	Value any
}

func Eq(v any) Operator { return Operator{Kind: OpEq, Value: v} }
func Contains(s string) Operator { return Operator{Kind: OpContains, Value: s} }
func StartsWith(s string) Operator { return Operator{Kind: OpStartsWith, Value: s} }
func Gte(v any) Operator { return Operator{Kind: OpGte, Value: v} }
func Lte(v any) Operator { return Operator{Kind: OpLte, Value: v} }

// Clause is one entry of a filter object: either a Leaf or an Or.
type Clause interface {
	clause()
}

// Leaf constrains one field. Each operator kind appears at most once.
type Leaf struct {
	Field string
	Ops   []Operator
}

// Or matches when any branch matches.
type Or struct {
	Branches []*Filter
}

func (Leaf) clause() {}
func (Or) clause() {}

// Filter is a flat filter object keyed by field name, plus an optional or
// combinator. The zero value is an empty filter ready to use.
type Filter struct {
	leaves map[string]Leaf
	or     *Or
}

// NewFilter returns an empty filter.
func NewFilter() *Filter {
	return &Filter{}
}

// Set replaces the leaf for field with ops. When ops repeat a kind the last
// one wins. Set with no operators removes the field.
func (f *Filter) Set(field string, ops ...Operator) *Filter {
	field = strings.TrimSpace(field)
	if field == "" {
		return f
	}
	if len(ops) == 0 {
		delete(f.leaves, field)
		return f
	}
	if f.leaves == nil {
		f.leaves = make(map[string]Leaf)
	}
	f.leaves[field] = Leaf{Field: field, Ops: normalizeOps(ops)}
	return f
}

// SetOr replaces the or combinator. Nil and empty branches are skipped; if
// none remain the combinator is removed.
func (f *Filter) SetOr(branches ...*Filter) *Filter {
	kept := make([]*Filter, 0, len(branches))
	for _, br := range branches {
		if !br.IsEmpty() {
			kept = append(kept, br)
		}
	}
	if len(kept) == 0 {
		f.or = nil
		return f
	}
	f.or = &Or{Branches: kept}
	return f
}

// Leaf returns the leaf for field.
func (f *Filter) Leaf(field string) (Leaf, bool) {
	if f == nil {
		return Leaf{}, false
	}
	l, ok := f.leaves[field]
	return l, ok
}

// Op returns the value of a single operator on field.
func (f *Filter) Op(field string, kind OpKind) (any, bool) {
	l, ok := f.Leaf(field)
	if !ok {
		return nil, false
	}
	for _, op := range l.Ops {
		if op.Kind == kind {
			return op.Value, true
		}
	}
	return nil, false
}

// Or returns the or combinator, if any.
func (f *Filter) Or() (Or, bool) {
	if f == nil || f.or == nil {
		return Or{}, false
	}
	return *f.or, true
}

// IsEmpty reports whether the filter has no clauses. A nil filter is empty.
func (f *Filter) IsEmpty() bool {
	return f == nil || (len(f.leaves) == 0 && f.or == nil)
}

// Fields returns the leaf field names in lexical order.
func (f *Filter) Fields() []string {
	if f == nil {
		return nil
	}
	names := make([]string, 0, len(f.leaves))
	for name := range f.leaves {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Clauses returns the filter contents in print order: leaves by field name,
// then the or combinator.
func (f *Filter) Clauses() []Clause {
	if f.IsEmpty() {
		return nil
	}
	out := make([]Clause, 0, len(f.leaves)+1)
	for _, name := range f.Fields() {
		out = append(out, f.leaves[name])
	}
	if f.or != nil {
		out = append(out, *f.or)
	}
	return out
}

func normalizeOps(ops []Operator) []Operator {
	byKind := make(map[OpKind]Operator, len(ops))
	for _, op := range ops {
		byKind[op.Kind] = op
	}
	out := make([]Operator, 0, len(byKind))
	for _, op := range byKind {
		out = append(out, op)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Kind < out[j].Kind })
	return out
}

func writeFilter(b *strings.Builder, f *Filter) {
	clauses := f.Clauses()
	if len(clauses) == 0 {
		b.WriteString("{  }")
		return
	}
	b.WriteString("{ ")
	for i, c := range clauses {
		if i > 0 {
			b.WriteString(", ")
		}
		switch c := c.(type) {
		case Leaf:
			b.WriteString(c.Field)
			b.WriteString(": { ")
			for j, op := range c.Ops {
				if j > 0 {
					b.WriteString(", ")
				}
				b.WriteString(op.Kind.String())
				b.WriteString(": ")
				writeLiteral(b, op.Value)
			}
			b.WriteString(" }")
		case Or:
			b.WriteString("or: [")
			for j, br := range c.Branches {
				if j > 0 {
					b.WriteString(", ")
				}
				writeFilter(b, br)
			}
			b.WriteByte(']')
		}
	}
	b.WriteString(" }")
}
