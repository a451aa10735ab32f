package testsupport

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-slamgen/pkg/script"
)

// ScenarioContext is the smallest useful script: one scan over two frames.
func ScenarioContext() script.Context {
	return script.Context{
		SampleName: "demo",
		Scans: script.Scans{
			{X: 1.0, Y: 2.0, Filename: "run1"},
		},
		Frames: script.Frames{
			{Number: 1, Start: 0, End: 10},
			{Number: 2, Start: 10, End: 20},
		},
		NumScans:       1,
		TotalTime:      "0:10:00",
		FrameStep:      10,
		ScanTime:       300,
		Theta1:         0,
		Theta2:         11.25,
		NumberOfFrames: 2,
	}
}

// GridContext builds a context with n scans named run0..run{n-1} and m
// frames covering consecutive 10 degree windows.
func GridContext(n, m int) script.Context {
	c := ScenarioContext()
	c.Scans = make(script.Scans, 0, n)
	for i := 0; i < n; i++ {
		c.Scans = append(c.Scans, script.Scan{
			X:        float64(i) * 0.5,
			Y:        -float64(i) * 0.25,
			Filename: "run" + strconv.Itoa(i),
		})
	}
	c.Frames = make(script.Frames, 0, m)
	for i := 0; i < m; i++ {
		c.Frames = append(c.Frames, script.Frame{
			Number: i,
			Start:  float64(i) * 10,
			End:    float64(i+1) * 10,
		})
	}
	c.NumScans = n
	c.NumberOfFrames = m
	return c
}

// CountLines returns how many lines of out start with prefix.
func CountLines(out, prefix string) int {
	n := 0
	for _, line := range strings.Split(out, "\n") {
		if strings.HasPrefix(line, prefix) {
			n++
		}
	}
	return n
}

// LinesWithPrefix returns the lines of out that start with prefix.
func LinesWithPrefix(out, prefix string) []string {
	var lines []string
	for _, line := range strings.Split(out, "\n") {
		if strings.HasPrefix(line, prefix) {
			lines = append(lines, line)
		}
	}
	return lines
}

// CompareGolden returns a diff string if the values differ.
func CompareGolden(want, got any) string {
	return cmp.Diff(want, got)
}

// MustReadGolden reads a golden file and returns its raw bytes.
func MustReadGolden(t *testing.T, path string) []byte {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read golden: %v", err)
	}
	return data
}

// MustReadGoldenString reads a golden file and returns its string content.
func MustReadGoldenString(t *testing.T, path string) string {
	t.Helper()
	return string(MustReadGolden(t, path))
}

// WriteMaybeGolden updates a golden file when UPDATE_GOLDENS is set. Returns
// true if the golden was written (test should exit early).
func WriteMaybeGolden(t *testing.T, path string, data []byte) bool {
	t.Helper()
	if os.Getenv("UPDATE_GOLDENS") == "" {
		return false
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir golden dir: %v", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write golden: %v", err)
	}
	return true
}

// AssertGolden compares got against the golden file at path, rewriting it
// first when UPDATE_GOLDENS is set.
func AssertGolden(t *testing.T, path string, got []byte) {
	t.Helper()
	if WriteMaybeGolden(t, path, got) {
		return
	}
	want := MustReadGoldenString(t, path)
	if diff := cmp.Diff(want, string(got)); diff != "" {
		t.Fatalf("golden %s mismatch (-want +got):\n%s", path, diff)
	}
}

// Context returns a background context for tests.
func Context() context.Context {
	return context.Background()
}

// CaptureTemplateOutput executes a render function that writes to an io.Writer,
// returning both the string result and the writer contents.
func CaptureTemplateOutput(t *testing.T, render func(io.Writer) (string, error)) (string, string) {
	t.Helper()

	var buf bytes.Buffer
	out, err := render(&buf)
	if err != nil {
		t.Fatalf("render template: %v", err)
	}

	return out, buf.String()
}
