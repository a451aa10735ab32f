package render

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// FormatSpec is a printf-style numeric format: optional flags, width and
// precision followed by a fixed-point ('f') or integer ('d') verb. It accepts
// both the "%0.3f" form and the bare ".3f" / "03d" form.
type FormatSpec struct {
	LeftAlign bool
	Plus      bool
	Space     bool
	ZeroPad   bool
	Width     int
	// Precision is -1 when the spec does not carry one.
	Precision int
	Verb      byte
}

// Fixed returns the spec for a fixed-point rendering with the given number of
// fractional digits ("%.3f" for 3).
func Fixed(precision int) FormatSpec {
	return FormatSpec{Precision: precision, Verb: 'f'}
}

// ZeroPad returns the spec for an integer left padded with zeros to width
// ("%03d" for 3).
func ZeroPad(width int) FormatSpec {
	return FormatSpec{ZeroPad: true, Width: width, Precision: -1, Verb: 'd'}
}

// ParseFormatSpec parses a format specifier. Unsupported flags or verbs and
// trailing characters return an error wrapping ErrMalformedFormatSpec.
func ParseFormatSpec(raw string) (FormatSpec, error) {
	spec := FormatSpec{Precision: -1}
	s := strings.TrimPrefix(strings.TrimSpace(raw), "%")
	if s == "" {
		return FormatSpec{}, fmt.Errorf("%w: %q is empty", ErrMalformedFormatSpec, raw)
	}

	i := 0
flags:
	for i < len(s) {
		switch s[i] {
		case '-':
			spec.LeftAlign = true
		case '+':
			spec.Plus = true
		case ' ':
			spec.Space = true
		case '0':
			spec.ZeroPad = true
		default:
			break flags
		}
		i++
	}

	start := i
	for i < len(s) && isDigit(s[i]) {
		i++
	}
	if i > start {
		spec.Width, _ = strconv.Atoi(s[start:i])
	}

	if i < len(s) && s[i] == '.' {
		i++
		start = i
		for i < len(s) && isDigit(s[i]) {
			i++
		}
		if i == start {
			return FormatSpec{}, fmt.Errorf("%w: %q has no digits after '.'", ErrMalformedFormatSpec, raw)
		}
		spec.Precision, _ = strconv.Atoi(s[start:i])
	}

	if i != len(s)-1 {
		return FormatSpec{}, fmt.Errorf("%w: %q must end with a single verb", ErrMalformedFormatSpec, raw)
	}
	switch s[i] {
	case 'f', 'F':
		spec.Verb = 'f'
	case 'd', 'i':
		spec.Verb = 'd'
	default:
		return FormatSpec{}, fmt.Errorf("%w: %q uses unsupported verb %q", ErrMalformedFormatSpec, raw, s[i])
	}
	return spec, nil
}

// String renders the spec back in "%" form.
func (f FormatSpec) String() string {
	var b strings.Builder
	b.WriteByte('%')
	b.WriteString(f.flags())
	if f.Width > 0 {
		b.WriteString(strconv.Itoa(f.Width))
	}
	if f.Precision >= 0 {
		b.WriteByte('.')
		b.WriteString(strconv.Itoa(f.Precision))
	}
	if f.Verb != 0 {
		b.WriteByte(f.Verb)
	}
	return b.String()
}

// Format renders a numeric value. 'f' produces exactly Precision fractional
// digits (6 when unset) with round-half-even on the binary value; 'd'
// truncates floats toward zero and pads to Width. Non-numeric input returns
// an error wrapping ErrMalformedFormatSpec.
func (f FormatSpec) Format(value any) (string, error) {
	n, ok := toNumber(value)
	if !ok {
		return "", fmt.Errorf("%w: %s cannot format %T", ErrMalformedFormatSpec, f, value)
	}

	switch f.Verb {
	case 'f':
		x := n.float()
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return f.pad(nonFinite(x)), nil
		}
		precision := f.Precision
		if precision < 0 {
			precision = 6
		}
		return fmt.Sprintf("%"+f.flags()+f.width()+"."+strconv.Itoa(precision)+"f", x), nil
	case 'd':
		verb := "%" + f.flags() + f.width()
		if f.Precision >= 0 {
			verb += "." + strconv.Itoa(f.Precision)
		}
		if n.isUint {
			return fmt.Sprintf(verb+"d", n.u), nil
		}
		i, ok := n.integer()
		if !ok {
			return "", fmt.Errorf("%w: %s cannot format %v as an integer", ErrMalformedFormatSpec, f, value)
		}
		return fmt.Sprintf(verb+"d", i), nil
	default:
		return "", fmt.Errorf("%w: %s has no verb", ErrMalformedFormatSpec, f)
	}
}

func (f FormatSpec) flags() string {
	var b strings.Builder
	if f.LeftAlign {
		b.WriteByte('-')
	}
	if f.Plus {
		b.WriteByte('+')
	}
	if f.Space {
		b.WriteByte(' ')
	}
	if f.ZeroPad {
		b.WriteByte('0')
	}
	return b.String()
}

func (f FormatSpec) width() string {
	if f.Width <= 0 {
		return ""
	}
	return strconv.Itoa(f.Width)
}

func (f FormatSpec) pad(s string) string {
	if len(s) >= f.Width {
		return s
	}
	fill := strings.Repeat(" ", f.Width-len(s))
	if f.LeftAlign {
		return s + fill
	}
	return fill + s
}

func nonFinite(x float64) string {
	switch {
	case math.IsNaN(x):
		return "nan"
	case x > 0:
		return "inf"
	default:
		return "-inf"
	}
}

// number holds an int64, a float64 or, for unsigned values above
// math.MaxInt64, a uint64 operand.
type number struct {
	i       int64
	u       uint64
	f       float64
	isFloat bool
	isUint  bool
}

// Bounds of the float64 values that truncate into an int64. 2^63 itself is
// exactly representable and already out of range.
const (
	minInt64Float = -(1 << 63)
	maxInt64Float = 1 << 63
)

func (n number) float() float64 {
	switch {
	case n.isFloat:
		return n.f
	case n.isUint:
		return float64(n.u)
	}
	return float64(n.i)
}

// integer truncates toward zero. It fails for non-finite floats and for
// values outside the int64 range.
func (n number) integer() (int64, bool) {
	switch {
	case n.isUint:
		return 0, false
	case !n.isFloat:
		return n.i, true
	}
	if math.IsNaN(n.f) || n.f < minInt64Float || n.f >= maxInt64Float {
		return 0, false
	}
	return int64(n.f), true
}

func fromUint(v uint64) number {
	if v > math.MaxInt64 {
		return number{u: v, isUint: true}
	}
	return number{i: int64(v)}
}

func toNumber(value any) (number, bool) {
	switch v := value.(type) {
	case int:
		return number{i: int64(v)}, true
	case int8:
		return number{i: int64(v)}, true
	case int16:
		return number{i: int64(v)}, true
	case int32:
		return number{i: int64(v)}, true
	case int64:
		return number{i: v}, true
	case uint:
		return fromUint(uint64(v)), true
	case uint8:
		return number{i: int64(v)}, true
	case uint16:
		return number{i: int64(v)}, true
	case uint32:
		return number{i: int64(v)}, true
	case uint64:
		return fromUint(v), true
	case float32:
		return number{f: float64(v), isFloat: true}, true
	case float64:
		return number{f: v, isFloat: true}, true
	case json.Number:
		if i, err := v.Int64(); err == nil {
			return number{i: i}, true
		}
		if u, err := strconv.ParseUint(string(v), 10, 64); err == nil {
			return fromUint(u), true
		}
		if f, err := v.Float64(); err == nil {
			return number{f: f, isFloat: true}, true
		}
	}
	return number{}, false
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}
