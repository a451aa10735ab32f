package script

import (
	"errors"
	"strings"
	"testing"
)

func validContext() Context {
	return Context{
		SampleName: "demo",
		Scans: Scans{
			{X: 1, Y: 2, Filename: "run1"},
			{X: 3, Y: 4, Filename: "run2"},
		},
		Frames: Frames{{Number: 1, Start: 0, End: 10}},
	}
}

func TestContext_Validate(t *testing.T) {
	if err := validContext().Validate(); err != nil {
		t.Fatalf("validate: %v", err)
	}
}

func TestContext_ValidateErrors(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Context)
		want   error
		detail string
	}{
		{
			name:   "missing sample name",
			mutate: func(c *Context) { c.SampleName = "  " },
			want:   ErrMissingSampleName,
		},
		{
			name:   "no scans",
			mutate: func(c *Context) { c.Scans = nil },
			want:   ErrNoScans,
		},
		{
			name:   "duplicate filename",
			mutate: func(c *Context) { c.Scans[1].Filename = "run1" },
			want:   ErrDuplicateFilename,
			detail: "scans 0 and 1",
		},
		{
			name:   "empty filename",
			mutate: func(c *Context) { c.Scans[0].Filename = "" },
			detail: "scan 0 has an empty filename",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			c := validContext()
			tc.mutate(&c)
			err := c.Validate()
			if err == nil {
				t.Fatalf("expected error")
			}
			if tc.want != nil && !errors.Is(err, tc.want) {
				t.Fatalf("error = %v, want %v", err, tc.want)
			}
			if tc.detail != "" && !strings.Contains(err.Error(), tc.detail) {
				t.Fatalf("error %q missing %q", err, tc.detail)
			}
		})
	}
}

func TestContext_ValidateIgnoresUnusedFiles(t *testing.T) {
	c := validContext()
	c.FloodFile = ""
	c.SpatialFile = ""
	if err := c.Validate(); err != nil {
		t.Fatalf("flood and spatial files are optional: %v", err)
	}
}

func TestContext_Vars(t *testing.T) {
	c := validContext()
	vars := c.Vars()

	for _, key := range []string{
		"sample_name", "frames", "num_scans", "total_time", "scans",
		"xoffset", "yoffset", "aux", "frame_step", "scan_time",
		"theta1", "theta2", "number_of_frames", "flood_file", "spatial_file",
	} {
		if _, ok := vars[key]; !ok {
			t.Errorf("vars missing %q", key)
		}
	}

	scans, ok := vars["scans"].(Scans)
	if !ok || scans.Len() != 2 {
		t.Fatalf("scans = %#v", vars["scans"])
	}
	name, ok := scans.At(1).(Scan).Attr("filename")
	if !ok || name != "run2" {
		t.Fatalf("scan 1 filename = %v", name)
	}
	if _, ok := c.Frames[0].Attr("missing"); ok {
		t.Fatalf("unknown frame attribute resolved")
	}
}
