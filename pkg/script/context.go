package script

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrNoScans reports a Context that would render a script without any
	// SCAN block.
	ErrNoScans = errors.New("script: context has no scans")
	// ErrDuplicateFilename reports two scans sharing an output file stem.
	ErrDuplicateFilename = errors.New("script: duplicate scan filename")
	// ErrMissingSampleName reports an empty sample name.
	ErrMissingSampleName = errors.New("script: sample name is required")
)

// Context is the full set of values a slam-file template is rendered against.
// It is built once per render and never mutated by the renderer.
//
// Frames is bound globally: every scan iterates the same frame sequence.
type Context struct {
	SampleName     string  `json:"sample_name" yaml:"sample_name"`
	Frames         Frames  `json:"frames" yaml:"frames"`
	NumScans       int     `json:"num_scans" yaml:"num_scans"`
	TotalTime      string  `json:"total_time" yaml:"total_time"`
	Scans          Scans   `json:"scans" yaml:"scans"`
	XOffset        float64 `json:"xoffset" yaml:"xoffset"`
	YOffset        float64 `json:"yoffset" yaml:"yoffset"`
	Aux            float64 `json:"aux" yaml:"aux"`
	FrameStep      float64 `json:"frame_step" yaml:"frame_step"`
	ScanTime       float64 `json:"scan_time" yaml:"scan_time"`
	Theta1         float64 `json:"theta1" yaml:"theta1"`
	Theta2         float64 `json:"theta2" yaml:"theta2"`
	NumberOfFrames int     `json:"number_of_frames" yaml:"number_of_frames"`
	FloodFile      string  `json:"flood_file" yaml:"flood_file"`
	SpatialFile    string  `json:"spatial_file" yaml:"spatial_file"`
}

// Vars projects the context onto the variable names used by templates. Scans
// and Frames keep their typed form so attribute access stays explicit.
func (c Context) Vars() map[string]any {
	return map[string]any{
		"sample_name":      c.SampleName,
		"frames":           c.Frames,
		"num_scans":        c.NumScans,
		"total_time":       c.TotalTime,
		"scans":            c.Scans,
		"xoffset":          c.XOffset,
		"yoffset":          c.YOffset,
		"aux":              c.Aux,
		"frame_step":       c.FrameStep,
		"scan_time":        c.ScanTime,
		"theta1":           c.Theta1,
		"theta2":           c.Theta2,
		"number_of_frames": c.NumberOfFrames,
		"flood_file":       c.FloodFile,
		"spatial_file":     c.SpatialFile,
	}
}

// Validate checks the invariants the generated script relies on: a sample
// name, at least one scan, and unique scan filenames. Duplicate filenames would
// chain INTEGRATE output from different scans into the same file.
func (c Context) Validate() error {
	var errs []error

	if strings.TrimSpace(c.SampleName) == "" {
		errs = append(errs, ErrMissingSampleName)
	}
	if len(c.Scans) == 0 {
		errs = append(errs, ErrNoScans)
	}

	seen := make(map[string]int, len(c.Scans))
	for idx, scan := range c.Scans {
		name := strings.TrimSpace(scan.Filename)
		if name == "" {
			errs = append(errs, fmt.Errorf("script: scan %d has an empty filename", idx))
			continue
		}
		if first, ok := seen[name]; ok {
			errs = append(errs, fmt.Errorf("%w: %q used by scans %d and %d", ErrDuplicateFilename, name, first, idx))
			continue
		}
		seen[name] = idx
	}

	return errors.Join(errs...)
}
