package render

import (
	"fmt"
	"math"
	"reflect"
	"strconv"
	"strings"
)

// Vars maps top-level variable names to values. Values may be scalars,
// Objects, Sequences, plain maps or slices.
type Vars map[string]any

// Object exposes a fixed attribute set to templates.
type Object interface {
	Attr(name string) (any, bool)
}

// Sequence is an ordered collection a for loop can iterate.
type Sequence interface {
	Len() int
	At(i int) any
}

// Loop is the state of the innermost active for loop, bound as `loop` inside
// its body.
type Loop struct {
	Index0 int
	Length int
}

// First reports whether this is the first iteration.
func (l *Loop) First() bool { return l.Index0 == 0 }

// Last reports whether this is the final iteration.
func (l *Loop) Last() bool { return l.Index0 == l.Length-1 }

func (l *Loop) Attr(name string) (any, bool) {
	switch name {
	case "first":
		return l.First(), true
	case "last":
		return l.Last(), true
	case "index":
		return l.Index0 + 1, true
	case "index0":
		return l.Index0, true
	case "length":
		return l.Length, true
	default:
		return nil, false
	}
}

// scope is one loop binding layered over its parent.
type scope struct {
	parent *scope
	name   string
	value  any
	loop   *Loop
}

// state is the per-render executor. A Template is shared; a state is not.
type state struct {
	tmpl  *Template
	vars  Vars
	scope *scope
	out   strings.Builder
	cfg   config
}

func (s *state) errorf(sentinel error, pos Pos, name, format string, args ...any) *Error {
	return &Error{
		Err:      sentinel,
		Template: s.tmpl.name,
		Name:     name,
		Pos:      pos,
		Detail:   fmt.Sprintf(format, args...),
	}
}

func (s *state) walk(nodes []Node) error {
	for _, node := range nodes {
		switch n := node.(type) {
		case *TextNode:
			s.out.WriteString(n.Text)
		case *OutputNode:
			value, err := s.eval(n.Expr)
			if err != nil {
				return err
			}
			s.out.WriteString(stringify(value))
		case *ForNode:
			if err := s.expandLoop(n); err != nil {
				return err
			}
		case *IfNode:
			cond, err := s.eval(n.Cond)
			if err != nil {
				return err
			}
			branch := n.Else
			if truthy(cond) {
				branch = n.Then
			}
			if err := s.walk(branch); err != nil {
				return err
			}
		}
	}
	return nil
}

// resolve looks a name up through the active loop bindings, innermost first,
// then in the top-level Vars.
func (s *state) resolve(name string, pos Pos) (any, error) {
	for sc := s.scope; sc != nil; sc = sc.parent {
		if sc.name == name {
			return sc.value, nil
		}
		if name == "loop" {
			return sc.loop, nil
		}
	}
	if value, ok := s.vars[name]; ok {
		return value, nil
	}
	return nil, s.errorf(ErrUndefinedVariable, pos, name, "not found in context or loop scope")
}

// expandLoop renders the body once per element, in order, with the element
// bound to the loop variable. An empty sequence renders nothing unless the
// sequence name was marked with RequireNonEmpty.
func (s *state) expandLoop(n *ForNode) error {
	seqValue, err := s.eval(n.Seq)
	if err != nil {
		return err
	}
	items, ok := sequenceOf(seqValue)
	if !ok {
		return s.errorf(ErrType, n.Seq.Position(), n.Seq.String(), "%T is not iterable", seqValue)
	}

	length := items.Len()
	if length == 0 {
		if _, required := s.cfg.nonEmpty[n.Seq.String()]; required {
			return s.errorf(ErrEmptySequence, n.Seq.Position(), n.Seq.String(), "loop requires at least one item")
		}
		return nil
	}

	parent := s.scope
	defer func() { s.scope = parent }()

	for i := 0; i < length; i++ {
		s.scope = &scope{
			parent: parent,
			name:   n.Var,
			value:  items.At(i),
			loop:   &Loop{Index0: i, Length: length},
		}
		if err := s.walk(n.Body); err != nil {
			return err
		}
	}
	return nil
}

func (s *state) eval(expr Expr) (any, error) {
	switch e := expr.(type) {
	case *LiteralExpr:
		return e.Value, nil

	case *NameExpr:
		return s.resolve(e.Name, e.Pos)

	case *AttrExpr:
		x, err := s.eval(e.X)
		if err != nil {
			return nil, err
		}
		value, ok := attribute(x, e.Name)
		if !ok {
			return nil, s.errorf(ErrUndefinedVariable, e.Pos, e.String(), "%T has no attribute %q", x, e.Name)
		}
		return value, nil

	case *FormatExpr:
		arg, err := s.eval(e.Arg)
		if err != nil {
			return nil, err
		}
		out, err := e.Spec.Format(arg)
		if err != nil {
			return nil, s.errorf(ErrMalformedFormatSpec, e.Pos, e.Arg.String(), "%s cannot format %T", e.Spec, arg)
		}
		return out, nil

	case *UnaryExpr:
		x, err := s.eval(e.X)
		if err != nil {
			return nil, err
		}
		if e.Op == "not" {
			return !truthy(x), nil
		}
		n, ok := toNumber(x)
		if !ok {
			return nil, s.errorf(ErrType, e.Pos, e.String(), "cannot negate %T", x)
		}
		if n.isFloat || n.isUint {
			return -n.float(), nil
		}
		return -n.i, nil

	case *BinaryExpr:
		return s.evalBinary(e)
	}
	return nil, s.errorf(ErrSyntax, expr.Position(), expr.String(), "unsupported expression")
}

func (s *state) evalBinary(e *BinaryExpr) (any, error) {
	left, err := s.eval(e.L)
	if err != nil {
		return nil, err
	}

	switch e.Op {
	case "and":
		if !truthy(left) {
			return left, nil
		}
		return s.eval(e.R)
	case "or":
		if truthy(left) {
			return left, nil
		}
		return s.eval(e.R)
	}

	right, err := s.eval(e.R)
	if err != nil {
		return nil, err
	}

	if ls, ok := left.(string); ok && e.Op == "+" {
		if rs, ok := right.(string); ok {
			return ls + rs, nil
		}
	}

	a, aok := toNumber(left)
	b, bok := toNumber(right)
	if !aok || !bok {
		return nil, s.errorf(ErrType, e.Pos, e.String(), "unsupported operands %T %s %T", left, e.Op, right)
	}

	if !a.isFloat && !b.isFloat && !a.isUint && !b.isUint {
		if e.Op == "+" {
			return a.i + b.i, nil
		}
		return a.i - b.i, nil
	}
	if e.Op == "+" {
		return a.float() + b.float(), nil
	}
	return a.float() - b.float(), nil
}

func attribute(x any, name string) (any, bool) {
	switch v := x.(type) {
	case Object:
		return v.Attr(name)
	case map[string]any:
		value, ok := v[name]
		return value, ok
	case Vars:
		value, ok := v[name]
		return value, ok
	}
	return nil, false
}

type anySlice []any

func (s anySlice) Len() int     { return len(s) }
func (s anySlice) At(i int) any { return s[i] }

type reflectSlice struct{ v reflect.Value }

func (s reflectSlice) Len() int     { return s.v.Len() }
func (s reflectSlice) At(i int) any { return s.v.Index(i).Interface() }

func sequenceOf(value any) (Sequence, bool) {
	switch v := value.(type) {
	case nil:
		return nil, false
	case Sequence:
		return v, true
	case []any:
		return anySlice(v), true
	case string:
		return nil, false
	}
	rv := reflect.ValueOf(value)
	switch rv.Kind() {
	case reflect.Slice, reflect.Array:
		return reflectSlice{v: rv}, true
	}
	return nil, false
}

func truthy(value any) bool {
	switch v := value.(type) {
	case nil:
		return false
	case bool:
		return v
	case string:
		return v != ""
	}
	if n, ok := toNumber(value); ok {
		if n.isFloat {
			return n.f != 0
		}
		return n.isUint || n.i != 0
	}
	if seq, ok := sequenceOf(value); ok {
		return seq.Len() > 0
	}
	if m, ok := value.(map[string]any); ok {
		return len(m) > 0
	}
	return true
}

// stringify renders a value the way `{{ }}` prints it: integral floats keep
// one fractional digit ("1.0"), booleans print as True/False and nil as None.
func stringify(value any) string {
	switch v := value.(type) {
	case nil:
		return "None"
	case string:
		return v
	case bool:
		if v {
			return "True"
		}
		return "False"
	case float32:
		return formatFloat(float64(v))
	case float64:
		return formatFloat(v)
	case fmt.Stringer:
		return v.String()
	}
	if n, ok := toNumber(value); ok && !n.isFloat {
		if n.isUint {
			return strconv.FormatUint(n.u, 10)
		}
		return strconv.FormatInt(n.i, 10)
	}
	return fmt.Sprint(value)
}

func formatFloat(f float64) string {
	switch {
	case math.IsNaN(f):
		return "nan"
	case math.IsInf(f, 1):
		return "inf"
	case math.IsInf(f, -1):
		return "-inf"
	}
	abs := math.Abs(f)
	if abs != 0 && (abs < 1e-4 || abs >= 1e16) {
		return strconv.FormatFloat(f, 'e', -1, 64)
	}
	if f == math.Trunc(f) {
		return strconv.FormatFloat(f, 'f', 1, 64)
	}
	return strconv.FormatFloat(f, 'f', -1, 64)
}
