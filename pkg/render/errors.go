package render

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrUndefinedVariable reports a name or attribute that is absent from the
	// Vars and from every active loop binding.
	ErrUndefinedVariable = errors.New("undefined variable")
	// ErrMalformedFormatSpec reports an unsupported format specifier or a
	// format filter applied to a non-numeric value.
	ErrMalformedFormatSpec = errors.New("malformed format spec")
	// ErrEmptySequence reports a loop over a sequence that was required to
	// produce at least one iteration.
	ErrEmptySequence = errors.New("empty sequence")
	// ErrSyntax reports template markup the parser does not understand.
	ErrSyntax = errors.New("syntax error")
	// ErrType reports an operation applied to values of the wrong type.
	ErrType = errors.New("type error")
)

// Pos is a 1-based line and column inside a template.
type Pos struct {
	Line int
	Col  int
}

func (p Pos) String() string {
	return fmt.Sprintf("%d:%d", p.Line, p.Col)
}

// Error carries the failure kind (one of the Err* sentinels), the template
// name, the offending expression and its position. Use errors.Is against the
// sentinels to branch on the kind.
type Error struct {
	Err      error
	Template string
	Name     string
	Pos      Pos
	Detail   string
}

func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString("render: ")
	if e.Template != "" {
		b.WriteString(e.Template)
		b.WriteByte(':')
	}
	if e.Pos.Line > 0 {
		b.WriteString(e.Pos.String())
		b.WriteString(": ")
	} else if e.Template != "" {
		b.WriteByte(' ')
	}
	b.WriteString(e.Err.Error())
	if e.Name != "" {
		fmt.Fprintf(&b, " %q", e.Name)
	}
	if e.Detail != "" {
		b.WriteString(": ")
		b.WriteString(e.Detail)
	}
	return b.String()
}

func (e *Error) Unwrap() error {
	return e.Err
}
