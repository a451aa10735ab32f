package prompt

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/goliatone/go-slamgen/pkg/sample"
)

// Answers is the outcome of Ask.
type Answers struct {
	Sample sample.Options
	Engine string
}

// Ask walks the user through a sample definition, offering the package
// defaults, then lets them pick one of engines (the first is the default).
func Ask(ctx context.Context, d Driver, engines []string) (Answers, error) {
	defaults := sample.Options{}.WithDefaults()
	var out Answers

	name, err := d.Input(ctx, InputConfig{
		Message:   "Sample name",
		Help:      "Used in scan titles and as the script file name.",
		Validator: requireName,
	})
	if err != nil {
		return Answers{}, err
	}
	out.Sample.Name = strings.TrimSpace(name)

	if out.Sample.Center[0], err = askFloat(ctx, d, "Centre X (mm)", 0); err != nil {
		return Answers{}, err
	}
	if out.Sample.Center[1], err = askFloat(ctx, d, "Centre Y (mm)", 0); err != nil {
		return Answers{}, err
	}
	if out.Sample.Diameter, err = askFloat(ctx, d, "Diameter (mm)", defaults.Diameter); err != nil {
		return Answers{}, err
	}
	if out.Sample.Collimator, err = askFloat(ctx, d, "Collimator (mm)", defaults.Collimator); err != nil {
		return Answers{}, err
	}
	if out.Sample.TwoThetaRange[0], err = askFloat(ctx, d, "Two-theta start (deg)", defaults.TwoThetaRange[0]); err != nil {
		return Answers{}, err
	}
	if out.Sample.TwoThetaRange[1], err = askFloat(ctx, d, "Two-theta end (deg)", defaults.TwoThetaRange[1]); err != nil {
		return Answers{}, err
	}
	if out.Sample.ScanTime, err = askFloat(ctx, d, "Exposure per frame (s)", defaults.ScanTime); err != nil {
		return Answers{}, err
	}

	if len(engines) > 1 {
		idx, err := d.Select(ctx, SelectConfig{
			Message:      "Template engine",
			Options:      engines,
			DefaultIndex: 0,
		})
		if err != nil {
			return Answers{}, err
		}
		if idx >= 0 {
			out.Engine = engines[idx]
		}
	} else if len(engines) == 1 {
		out.Engine = engines[0]
	}

	s, err := sample.New(out.Sample)
	if err != nil {
		return Answers{}, err
	}
	total, err := s.TotalTime()
	if err != nil {
		return Answers{}, err
	}
	summary := fmt.Sprintf("%d scans, estimated %s", len(s.Loci()), sample.FormatDuration(total))
	if err := d.Info(ctx, summary); err != nil {
		return Answers{}, err
	}

	ok, err := d.Confirm(ctx, ConfirmConfig{Message: "Generate script?", Default: true})
	if err != nil {
		return Answers{}, err
	}
	if !ok {
		return Answers{}, ErrAborted
	}
	return out, nil
}

func askFloat(ctx context.Context, d Driver, message string, def float64) (float64, error) {
	raw, err := d.Input(ctx, InputConfig{
		Message:   message,
		Default:   strconv.FormatFloat(def, 'f', -1, 64),
		Validator: validateFloat,
	})
	if err != nil {
		return 0, err
	}
	return strconv.ParseFloat(strings.TrimSpace(raw), 64)
}

func requireName(s string) error {
	name := strings.TrimSpace(s)
	if name == "" {
		return fmt.Errorf("name is required")
	}
	if strings.ContainsAny(name, `/\ "`) {
		return fmt.Errorf("name must not contain spaces, quotes or path separators")
	}
	return nil
}

func validateFloat(s string) error {
	if _, err := strconv.ParseFloat(strings.TrimSpace(s), 64); err != nil {
		return fmt.Errorf("%q is not a number", s)
	}
	return nil
}
