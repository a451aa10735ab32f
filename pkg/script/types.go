package script

// Scan is one detector position sweep. Filename doubles as the sample label
// and as the stem of the integration output file, so it must be unique within
// a Context.
type Scan struct {
	X        float64 `json:"x" yaml:"x"`
	Y        float64 `json:"y" yaml:"y"`
	Filename string  `json:"filename" yaml:"filename"`
}

// Attr resolves the attribute names templates use (`scan.x`, `scan.filename`).
func (s Scan) Attr(name string) (any, bool) {
	switch name {
	case "x":
		return s.X, true
	case "y":
		return s.Y, true
	case "filename":
		return s.Filename, true
	default:
		return nil, false
	}
}

// Frame is one angular integration range. Number is rendered zero padded in
// generated frame file names.
type Frame struct {
	Number int     `json:"number" yaml:"number"`
	Start  float64 `json:"start" yaml:"start"`
	End    float64 `json:"end" yaml:"end"`
}

// Attr resolves `frame.number`, `frame.start` and `frame.end`.
func (f Frame) Attr(name string) (any, bool) {
	switch name {
	case "number":
		return f.Number, true
	case "start":
		return f.Start, true
	case "end":
		return f.End, true
	default:
		return nil, false
	}
}

// Scans is an ordered scan sequence.
type Scans []Scan

func (s Scans) Len() int     { return len(s) }
func (s Scans) At(i int) any { return s[i] }

// Frames is an ordered frame sequence.
type Frames []Frame

func (f Frames) Len() int     { return len(f) }
func (f Frames) At(i int) any { return f[i] }
