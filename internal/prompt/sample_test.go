package prompt

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-slamgen/pkg/sample"
)

// scriptedDriver answers prompts from queues. An empty input answer takes
// the prompt default, as the terminal does.
type scriptedDriver struct {
	inputs   []string
	selected int
	confirm  bool
	messages []string
	info     []string
}

func (d *scriptedDriver) Input(_ context.Context, cfg InputConfig) (string, error) {
	d.messages = append(d.messages, cfg.Message)
	if len(d.inputs) == 0 {
		return "", errors.New("unexpected input prompt " + cfg.Message)
	}
	answer := d.inputs[0]
	d.inputs = d.inputs[1:]
	if answer == "" {
		answer = cfg.Default
	}
	if cfg.Validator != nil {
		if err := cfg.Validator(answer); err != nil {
			return "", err
		}
	}
	return answer, nil
}

func (d *scriptedDriver) Select(_ context.Context, cfg SelectConfig) (int, error) {
	d.messages = append(d.messages, cfg.Message)
	return d.selected, nil
}

func (d *scriptedDriver) Confirm(_ context.Context, cfg ConfirmConfig) (bool, error) {
	d.messages = append(d.messages, cfg.Message)
	return d.confirm, nil
}

func (d *scriptedDriver) Info(_ context.Context, msg string) error {
	d.info = append(d.info, msg)
	return nil
}

func TestAsk_Defaults(t *testing.T) {
	d := &scriptedDriver{
		inputs:   []string{" lmo ", "-10.5", "20.338", "", "", "", "", ""},
		selected: 1,
		confirm:  true,
	}
	answers, err := Ask(context.Background(), d, []string{"native", "pongo2"})
	if err != nil {
		t.Fatalf("ask: %v", err)
	}

	want := sample.Options{
		Name:          "lmo",
		Center:        [2]float64{-10.5, 20.338},
		Diameter:      sample.DefaultDiameter,
		Collimator:    sample.DefaultCollim,
		TwoThetaRange: sample.DefaultTwoThetaRange,
		ScanTime:      sample.DefaultScanTime,
	}
	if diff := cmp.Diff(want, answers.Sample); diff != "" {
		t.Fatalf("sample mismatch (-want +got):\n%s", diff)
	}
	if answers.Engine != "pongo2" {
		t.Fatalf("engine = %q, want pongo2", answers.Engine)
	}
	if len(d.info) != 1 || !strings.HasPrefix(d.info[0], "547 scans, estimated ") {
		t.Fatalf("summary = %q", d.info)
	}
}

func TestAsk_SingleEngineSkipsSelect(t *testing.T) {
	d := &scriptedDriver{
		inputs:  []string{"s", "0", "0", "10", "1", "50", "70", "60"},
		confirm: true,
	}
	answers, err := Ask(context.Background(), d, []string{"native"})
	if err != nil {
		t.Fatalf("ask: %v", err)
	}
	if answers.Engine != "native" {
		t.Fatalf("engine = %q", answers.Engine)
	}
	for _, msg := range d.messages {
		if msg == "Template engine" {
			t.Fatalf("select prompt shown for a single engine")
		}
	}
	if answers.Sample.ScanTime != 60 || answers.Sample.TwoThetaRange != [2]float64{50, 70} {
		t.Fatalf("unexpected sample %+v", answers.Sample)
	}
}

func TestAsk_Declined(t *testing.T) {
	d := &scriptedDriver{inputs: []string{"s", "", "", "", "", "", "", ""}}
	if _, err := Ask(context.Background(), d, nil); !errors.Is(err, ErrAborted) {
		t.Fatalf("error = %v, want ErrAborted", err)
	}
}

func TestAsk_InvalidAnswers(t *testing.T) {
	d := &scriptedDriver{inputs: []string{"bad name"}}
	if _, err := Ask(context.Background(), d, nil); err == nil {
		t.Fatalf("expected name validation error")
	}

	d = &scriptedDriver{inputs: []string{"s", "abc"}}
	if _, err := Ask(context.Background(), d, nil); err == nil || !strings.Contains(err.Error(), "not a number") {
		t.Fatalf("error = %v, want number validation error", err)
	}

	d = &scriptedDriver{inputs: []string{"s", "", "", "", "", "50", "200", ""}, confirm: true}
	if _, err := Ask(context.Background(), d, nil); !errors.Is(err, sample.ErrAngleOutOfRange) {
		t.Fatalf("error = %v, want ErrAngleOutOfRange", err)
	}
}

func TestIndexOf(t *testing.T) {
	if got := indexOf([]string{"a", "b"}, "b"); got != 1 {
		t.Fatalf("indexOf = %d", got)
	}
	if got := indexOf([]string{"a"}, "z"); got != -1 {
		t.Fatalf("indexOf = %d", got)
	}
}
