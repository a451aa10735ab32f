package sample

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/goliatone/go-slamgen/pkg/script"
)

// Instrument limits and defaults, in degrees, millimetres and seconds.
const (
	MaxTheta1        = 50.0
	MaxTheta2        = 110.0
	DetectorWindow   = 22.5
	DefaultDiameter  = 12.7
	DefaultCollim    = 0.5
	DefaultFrameStep = 20.0
	DefaultScanTime  = 300.0
)

// DefaultTwoThetaRange is used when Options leaves the range unset.
var DefaultTwoThetaRange = [2]float64{50, 90}

// ErrAngleOutOfRange reports a two-theta range the goniometer cannot reach.
var ErrAngleOutOfRange = errors.New("sample: two-theta range outside instrument limits")

// Options describes a circular sample and how to collect it. Zero values
// take the package defaults.
type Options struct {
	Name          string     `json:"name" yaml:"name"`
	Center        [2]float64 `json:"center" yaml:"center"`
	Diameter      float64    `json:"diameter" yaml:"diameter"`
	Collimator    float64    `json:"collimator" yaml:"collimator"`
	Rows          int        `json:"rows" yaml:"rows"`
	TwoThetaRange [2]float64 `json:"two_theta_range" yaml:"two_theta_range"`
	// ScanTime is the exposure per frame, in seconds.
	ScanTime    float64 `json:"scan_time" yaml:"scan_time"`
	FrameStep   float64 `json:"frame_step" yaml:"frame_step"`
	Aux         float64 `json:"aux" yaml:"aux"`
	FloodFile   string  `json:"flood_file" yaml:"flood_file"`
	SpatialFile string  `json:"spatial_file" yaml:"spatial_file"`
}

// WithDefaults fills unset fields.
func (o Options) WithDefaults() Options {
	o.Name = strings.TrimSpace(o.Name)
	if o.Diameter == 0 {
		o.Diameter = DefaultDiameter
	}
	if o.Collimator == 0 {
		o.Collimator = DefaultCollim
	}
	if o.TwoThetaRange == [2]float64{} {
		o.TwoThetaRange = DefaultTwoThetaRange
	}
	if o.ScanTime == 0 {
		o.ScanTime = DefaultScanTime
	}
	if o.FrameStep == 0 {
		o.FrameStep = DefaultFrameStep
	}
	return o
}

// Sample is a mapped sample with its loci computed.
type Sample struct {
	opts Options
	rows int
	loci []Cube
}

// New validates opts (after defaults) and lays out the loci.
func New(opts Options) (*Sample, error) {
	opts = opts.WithDefaults()

	var errs []error
	if opts.Name == "" {
		errs = append(errs, errors.New("sample: name is required"))
	}
	if opts.Diameter < 0 {
		errs = append(errs, fmt.Errorf("sample: diameter must be positive, got %v", opts.Diameter))
	}
	if opts.Collimator < 0 {
		errs = append(errs, fmt.Errorf("sample: collimator must be positive, got %v", opts.Collimator))
	}
	if opts.Rows < 0 {
		errs = append(errs, fmt.Errorf("sample: rows must not be negative, got %d", opts.Rows))
	}
	if opts.ScanTime < 0 {
		errs = append(errs, fmt.Errorf("sample: scan time must be positive, got %v", opts.ScanTime))
	}
	if opts.FrameStep < 0 {
		errs = append(errs, fmt.Errorf("sample: frame step must be positive, got %v", opts.FrameStep))
	}
	if err := errors.Join(errs...); err != nil {
		return nil, err
	}

	rows := opts.Rows
	if rows == 0 {
		rows = int(math.Ceil(opts.Diameter / opts.Collimator / 2))
	}

	return &Sample{opts: opts, rows: rows, loci: Spiral(rows)}, nil
}

// Options returns the options after defaults.
func (s *Sample) Options() Options { return s.opts }

// Rows is the number of hexagonal rings around the centre locus.
func (s *Sample) Rows() int { return s.rows }

// Loci returns the scan positions in collection order.
func (s *Sample) Loci() []Cube { return append([]Cube(nil), s.loci...) }

// UnitSize is the distance between neighbouring loci.
func (s *Sample) UnitSize() float64 {
	return s.opts.Diameter / (float64(s.rows) * math.Sqrt(3))
}

// Theta1 is the source angle: the low end of the range, capped at
// MaxTheta1.
func (s *Sample) Theta1() (float64, error) {
	low := s.opts.TwoThetaRange[0]
	if low < 0 {
		return 0, fmt.Errorf("%w: start %v is negative", ErrAngleOutOfRange, low)
	}
	return math.Min(low, MaxTheta1), nil
}

// Theta2Start is the detector angle of the first frame, chosen so the
// detector window starts at the low end of the range.
func (s *Sample) Theta2Start() (float64, error) {
	theta1, err := s.Theta1()
	if err != nil {
		return 0, err
	}
	return s.opts.TwoThetaRange[0] - theta1 + DetectorWindow/2, nil
}

// NumberOfFrames is how many frame steps cover the range. The detector angle
// of the last frame must stay within MaxTheta2.
func (s *Sample) NumberOfFrames() (int, error) {
	low, high := s.opts.TwoThetaRange[0], s.opts.TwoThetaRange[1]
	if high <= low {
		return 0, fmt.Errorf("%w: end %v is not above start %v", ErrAngleOutOfRange, high, low)
	}
	theta2, err := s.Theta2Start()
	if err != nil {
		return 0, err
	}

	n := int(math.Ceil((high - low) / s.opts.FrameStep))
	if last := theta2 + float64(n-1)*s.opts.FrameStep; last > MaxTheta2 {
		return 0, fmt.Errorf("%w: last frame needs theta2 %v, limit is %v", ErrAngleOutOfRange, last, MaxTheta2)
	}
	return n, nil
}

// Frames returns one integration range per frame step, numbered from 0.
func (s *Sample) Frames() (script.Frames, error) {
	n, err := s.NumberOfFrames()
	if err != nil {
		return nil, err
	}
	low, high := s.opts.TwoThetaRange[0], s.opts.TwoThetaRange[1]

	frames := make(script.Frames, 0, n)
	for i := 0; i < n; i++ {
		start := low + float64(i)*s.opts.FrameStep
		frames = append(frames, script.Frame{
			Number: i,
			Start:  start,
			End:    math.Min(start+s.opts.FrameStep, high),
		})
	}
	return frames, nil
}

// Scans returns one scan per locus with positions relative to the centre.
// Filenames are "map-" plus the locus index in hex, which keeps them short
// and unique.
func (s *Sample) Scans() script.Scans {
	unit := s.UnitSize()
	scans := make(script.Scans, 0, len(s.loci))
	for idx, locus := range s.loci {
		x, y := locus.XY(unit)
		scans = append(scans, script.Scan{
			X:        x,
			Y:        y,
			Filename: fmt.Sprintf("map-%x", idx),
		})
	}
	return scans
}

// TotalTime estimates the collection time of the whole map.
func (s *Sample) TotalTime() (time.Duration, error) {
	n, err := s.NumberOfFrames()
	if err != nil {
		return 0, err
	}
	seconds := s.opts.ScanTime * float64(n) * float64(len(s.loci))
	return time.Duration(seconds * float64(time.Second)), nil
}

// Context assembles everything a slam template needs.
func (s *Sample) Context() (script.Context, error) {
	theta1, err := s.Theta1()
	if err != nil {
		return script.Context{}, err
	}
	theta2, err := s.Theta2Start()
	if err != nil {
		return script.Context{}, err
	}
	frames, err := s.Frames()
	if err != nil {
		return script.Context{}, err
	}
	total, err := s.TotalTime()
	if err != nil {
		return script.Context{}, err
	}
	scans := s.Scans()

	return script.Context{
		SampleName:     s.opts.Name,
		Frames:         frames,
		NumScans:       len(scans),
		TotalTime:      FormatDuration(total),
		Scans:          scans,
		XOffset:        s.opts.Center[0],
		YOffset:        s.opts.Center[1],
		Aux:            s.opts.Aux,
		FrameStep:      s.opts.FrameStep,
		ScanTime:       s.opts.ScanTime,
		Theta1:         theta1,
		Theta2:         theta2,
		NumberOfFrames: len(frames),
		FloodFile:      s.opts.FloodFile,
		SpatialFile:    s.opts.SpatialFile,
	}, nil
}

// FormatDuration renders d as H:MM:SS, rounded to the second.
func FormatDuration(d time.Duration) string {
	d = d.Round(time.Second)
	sign := ""
	if d < 0 {
		sign = "-"
		d = -d
	}
	h := d / time.Hour
	d -= h * time.Hour
	m := d / time.Minute
	d -= m * time.Minute
	sec := d / time.Second
	return fmt.Sprintf("%s%d:%02d:%02d", sign, h, m, sec)
}
