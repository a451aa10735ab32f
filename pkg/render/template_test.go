package render

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/goliatone/go-slamgen/pkg/script"
	"github.com/goliatone/go-slamgen/pkg/testsupport"
	"github.com/goliatone/go-slamgen/templates"
)

func slamTemplate(t *testing.T) *Template {
	t.Helper()
	tmpl, err := Parse(templates.SlamFileName, templates.SlamFile())
	if err != nil {
		t.Fatalf("parse slam template: %v", err)
	}
	return tmpl
}

func mustRender(t *testing.T, text string, vars Vars, opts ...Option) string {
	t.Helper()
	out, err := Render(text, vars, opts...)
	if err != nil {
		t.Fatalf("render %q: %v", text, err)
	}
	return out
}

func asRenderError(t *testing.T, err error) *Error {
	t.Helper()
	var rerr *Error
	if !errors.As(err, &rerr) {
		t.Fatalf("error %v (%T) is not a *render.Error", err, err)
	}
	return rerr
}

func TestSlamTemplate_Scenario(t *testing.T) {
	out, err := slamTemplate(t).Render(testsupport.ScenarioContext().Vars())
	if err != nil {
		t.Fatalf("render: %v", err)
	}

	testsupport.AssertGolden(t, filepath.Join("testdata", "scenario.slm.golden"), []byte(out))

	if got := testsupport.CountLines(out, "SCAN /SINGLERUN"); got != 1 {
		t.Fatalf("SCAN blocks = %d, want 1", got)
	}
	writes := testsupport.LinesWithPrefix(out, `INTEGRATE /WRITE "run1"`)
	if len(writes) != 2 {
		t.Fatalf("INTEGRATE /WRITE lines = %d, want 2", len(writes))
	}
	if strings.Contains(writes[0], "/APPEND") || !strings.HasSuffix(writes[1], "/APPEND") {
		t.Fatalf("append rule broken: %q", writes)
	}
}

func TestSlamTemplate_Structure(t *testing.T) {
	tmpl := slamTemplate(t)

	for _, size := range [][2]int{{1, 1}, {3, 2}, {7, 4}, {2, 0}} {
		n, m := size[0], size[1]
		t.Run(fmt.Sprintf("%dx%d", n, m), func(t *testing.T) {
			out, err := tmpl.Render(testsupport.GridContext(n, m).Vars())
			if err != nil {
				t.Fatalf("render: %v", err)
			}

			if got := testsupport.CountLines(out, "SCAN /SINGLERUN"); got != n {
				t.Fatalf("SCAN blocks = %d, want %d", got, n)
			}
			writes := testsupport.LinesWithPrefix(out, "INTEGRATE /WRITE")
			if len(writes) != n*m {
				t.Fatalf("INTEGRATE /WRITE lines = %d, want %d", len(writes), n*m)
			}
			for idx, line := range writes {
				wantAppend := idx%m != 0
				if got := strings.HasSuffix(line, " /APPEND"); got != wantAppend {
					t.Fatalf("write %d (frame %d) append = %v: %q", idx, idx%m, got, line)
				}
			}

			if !strings.HasPrefix(out, "! ") {
				t.Fatalf("output must start with a comment block: %q", out[:20])
			}
			logAt := strings.Index(out, "LOGFILE /NEW logfile._lg\nGONIOMETER /GENERATOR 40.000 40.000 /WAIT\n")
			if logAt < 0 || (n > 0 && logAt > strings.Index(out, "SCAN")) {
				t.Fatalf("setup lines missing or out of order")
			}
			if !strings.HasSuffix(out, "\nmenumode") {
				t.Fatalf("output must end with menumode")
			}
		})
	}
}

func TestSlamTemplate_FrameOrderPerScan(t *testing.T) {
	c := testsupport.GridContext(2, 3)
	out, err := slamTemplate(t).Render(c.Vars())
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	displays := testsupport.LinesWithPrefix(out, "DISPLAY /NEW")
	want := []string{
		"DISPLAY /NEW run0_000.gfrm",
		"DISPLAY /NEW run0_001.gfrm",
		"DISPLAY /NEW run0_002.gfrm",
		"DISPLAY /NEW run1_000.gfrm",
		"DISPLAY /NEW run1_001.gfrm",
		"DISPLAY /NEW run1_002.gfrm",
	}
	if diff := testsupport.CompareGolden(want, displays); diff != "" {
		t.Fatalf("display lines mismatch (-want +got):\n%s", diff)
	}
}

func TestSlamTemplate_Offsets(t *testing.T) {
	c := testsupport.ScenarioContext()
	c.XOffset = -10.5
	c.YOffset = 20.338
	c.Aux = 1
	out, err := slamTemplate(t).Render(c.Vars())
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if !strings.Contains(out, "/X=-9.500 /Y=22.338 /AUX=1.000 &") {
		t.Fatalf("offset line not found in:\n%s", out)
	}
}

func TestSlamTemplate_Idempotent(t *testing.T) {
	tmpl := slamTemplate(t)
	vars := testsupport.GridContext(5, 3).Vars()

	first, err := tmpl.Render(vars)
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	second, err := tmpl.Render(vars)
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if first != second {
		t.Fatalf("renders differ")
	}
}

func TestSlamTemplate_Concurrent(t *testing.T) {
	tmpl := slamTemplate(t)
	want, err := tmpl.Render(testsupport.GridContext(4, 2).Vars())
	if err != nil {
		t.Fatalf("render: %v", err)
	}

	var wg sync.WaitGroup
	errs := make(chan error, 8)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			got, err := tmpl.Render(testsupport.GridContext(4, 2).Vars())
			if err != nil {
				errs <- err
				return
			}
			if got != want {
				errs <- errors.New("concurrent render differs")
			}
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Fatal(err)
	}
}

func TestSlamTemplate_MissingSampleName(t *testing.T) {
	vars := testsupport.ScenarioContext().Vars()
	delete(vars, "sample_name")

	var buf bytes.Buffer
	err := slamTemplate(t).Execute(&buf, vars)
	if !errors.Is(err, ErrUndefinedVariable) {
		t.Fatalf("error = %v, want ErrUndefinedVariable", err)
	}
	rerr := asRenderError(t, err)
	if rerr.Name != "sample_name" {
		t.Fatalf("error names %q, want sample_name", rerr.Name)
	}
	if rerr.Pos != (Pos{Line: 1, Col: 20}) {
		t.Fatalf("error at %s, want 1:20", rerr.Pos)
	}
	if buf.Len() != 0 {
		t.Fatalf("partial output written: %q", buf.String())
	}
}

func TestSlamTemplate_CommentVariablesNeverResolved(t *testing.T) {
	vars := testsupport.ScenarioContext().Vars()
	delete(vars, "flood_file")
	delete(vars, "spatial_file")

	if _, err := slamTemplate(t).Render(vars); err != nil {
		t.Fatalf("flood_file and spatial_file only appear in comments: %v", err)
	}
}

func TestSlamTemplate_EmptyScans(t *testing.T) {
	c := testsupport.ScenarioContext()
	c.Scans = script.Scans{}
	tmpl := slamTemplate(t)

	out, err := tmpl.Render(c.Vars())
	if err != nil {
		t.Fatalf("empty sequence renders nothing by default: %v", err)
	}
	if strings.Contains(out, "SCAN") || !strings.HasSuffix(out, "/WAIT\nmenumode") {
		t.Fatalf("unexpected output:\n%s", out)
	}

	_, err = tmpl.Render(c.Vars(), RequireNonEmpty("scans"))
	if !errors.Is(err, ErrEmptySequence) {
		t.Fatalf("error = %v, want ErrEmptySequence", err)
	}
	if rerr := asRenderError(t, err); rerr.Name != "scans" {
		t.Fatalf("error names %q, want scans", rerr.Name)
	}
}

func TestRender_LoopFirstIsInnermost(t *testing.T) {
	text := "{% for a in outer %}[{% for b in inner %}{% if loop.first %}F{% endif %}{{ b }}{% endfor %}{% if loop.last %}L{% endif %}]{% endfor %}"
	got := mustRender(t, text, Vars{
		"outer": []any{1, 2},
		"inner": []string{"x", "y", "z"},
	})
	if want := "[Fxyz][FxyzL]"; got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}

func TestRender_LoopAttributes(t *testing.T) {
	got := mustRender(t, "{% for s in xs %}{{ loop.index }}/{{ loop.length }}:{{ loop.index0 }} {% endfor %}", Vars{
		"xs": []int{10, 20},
	})
	if want := "1/2:0 2/2:1 "; got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}

func TestRender_ScopeShadowing(t *testing.T) {
	got := mustRender(t, "{{ x }}{% for x in xs %}{{ x }}{% endfor %}{{ x }}", Vars{
		"x":  "top",
		"xs": []string{"a", "b"},
	})
	if want := "topabtop"; got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}

func TestRender_Expressions(t *testing.T) {
	cases := []struct {
		text string
		want string
	}{
		{"{{ 1 + 2 }}", "3"},
		{"{{ 1.5 + 1 }}", "2.5"},
		{"{{ 2.0 }}", "2.0"},
		{"{{ 'a' + 'b' }}", "ab"},
		{"{{ -n }}", "-4"},
		{"{{ n - 1 }}", "3"},
		{"{{ not flag }}", "True"},
		{"{{ flag or 'fallback' }}", "fallback"},
		{"{{ (1 + 2) - 3 }}", "0"},
		{"{{ '%0.3f'|format(n + 0.5) }}", "4.500"},
		{"{{ '%03d'|format(n) }}", "004"},
		{"{% if n and not flag %}yes{% else %}no{% endif %}", "yes"},
		{"{% if flag %}a{% elif n %}b{% else %}c{% endif %}", "b"},
		{"{{ obj.inner.value }}", "deep"},
	}
	vars := Vars{
		"n":    4,
		"flag": false,
		"obj":  map[string]any{"inner": map[string]any{"value": "deep"}},
	}
	for _, tc := range cases {
		if got := mustRender(t, tc.text, vars); got != tc.want {
			t.Errorf("%s = %q, want %q", tc.text, got, tc.want)
		}
	}
}

func TestRender_TrimMarkersAndComments(t *testing.T) {
	text := "a  {#- ignored {{ missing }} -#}  b\n{%- for x in xs -%}\n  {{ x }}\n{%- endfor %}"
	got := mustRender(t, text, Vars{"xs": []int{1, 2}})
	if want := "ab12"; got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}

func TestRender_UntakenBranchNotResolved(t *testing.T) {
	got := mustRender(t, "{% if false %}{{ missing }}{% endif %}ok", Vars{})
	if got != "ok" {
		t.Fatalf("got %q", got)
	}
}

func TestRender_RuntimeErrors(t *testing.T) {
	cases := []struct {
		name     string
		text     string
		vars     Vars
		sentinel error
		errName  string
		pos      Pos
	}{
		{
			name:     "undefined name",
			text:     "line one\n  {{ missing }}",
			sentinel: ErrUndefinedVariable,
			errName:  "missing",
			pos:      Pos{Line: 2, Col: 6},
		},
		{
			name:     "undefined attribute",
			text:     "{% for s in scans %}{{ s.z }}{% endfor %}",
			vars:     Vars{"scans": script.Scans{{Filename: "a"}}},
			sentinel: ErrUndefinedVariable,
			errName:  "s.z",
			pos:      Pos{Line: 1, Col: 24},
		},
		{
			name:     "loop variable outside loop",
			text:     "{% for s in xs %}{% endfor %}{{ s }}",
			vars:     Vars{"xs": []int{1}},
			sentinel: ErrUndefinedVariable,
			errName:  "s",
			pos:      Pos{Line: 1, Col: 33},
		},
		{
			name:     "format of a string",
			text:     "{{ '%0.3f'|format(name) }}",
			vars:     Vars{"name": "demo"},
			sentinel: ErrMalformedFormatSpec,
			errName:  "name",
			pos:      Pos{Line: 1, Col: 4},
		},
		{
			name:     "not iterable",
			text:     "{% for x in n %}{% endfor %}",
			vars:     Vars{"n": 3},
			sentinel: ErrType,
			errName:  "n",
			pos:      Pos{Line: 1, Col: 13},
		},
		{
			name:     "adding string and number",
			text:     "{{ name + 1 }}",
			vars:     Vars{"name": "demo"},
			sentinel: ErrType,
			errName:  "name + 1",
			pos:      Pos{Line: 1, Col: 4},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			out, err := Render(tc.text, tc.vars)
			if !errors.Is(err, tc.sentinel) {
				t.Fatalf("error = %v, want %v", err, tc.sentinel)
			}
			if out != "" {
				t.Fatalf("partial output %q", out)
			}
			rerr := asRenderError(t, err)
			if rerr.Name != tc.errName || rerr.Pos != tc.pos {
				t.Fatalf("error %q at %s, want %q at %s", rerr.Name, rerr.Pos, tc.errName, tc.pos)
			}
			if rerr.Template != "inline" {
				t.Fatalf("template = %q, want inline", rerr.Template)
			}
		})
	}
}

func TestParse_Errors(t *testing.T) {
	cases := []struct {
		name     string
		text     string
		sentinel error
		pos      Pos
	}{
		{"unclosed output", "ok\n{{ x", ErrSyntax, Pos{Line: 2, Col: 1}},
		{"missing endfor", "{% for x in xs %}x", ErrSyntax, Pos{Line: 1, Col: 3}},
		{"missing endif", "{% if x %}x", ErrSyntax, Pos{Line: 1, Col: 3}},
		{"stray endfor", "{% endfor %}", ErrSyntax, Pos{Line: 1, Col: 3}},
		{"bad for", "{% for x of xs %}{% endfor %}", ErrSyntax, Pos{Line: 1, Col: 3}},
		{"unknown tag", "{% set x %}", ErrSyntax, Pos{Line: 1, Col: 3}},
		{"unknown filter", "{{ x|upper }}", ErrSyntax, Pos{Line: 1, Col: 6}},
		{"empty output", "{{ }}", ErrSyntax, Pos{Line: 1, Col: 3}},
		{"bad character", "{{ x * 2 }}", ErrSyntax, Pos{Line: 1, Col: 6}},
		{"malformed spec", "{{ '%0.3q'|format(x) }}", ErrMalformedFormatSpec, Pos{Line: 1, Col: 4}},
		{"spec not literal", "{{ spec|format(x) }}", ErrMalformedFormatSpec, Pos{Line: 1, Col: 8}},
		{"two format args", "{{ '%d'|format(x, y) }}", ErrMalformedFormatSpec, Pos{Line: 1, Col: 17}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Parse("case.slm", tc.text)
			if !errors.Is(err, tc.sentinel) {
				t.Fatalf("error = %v, want %v", err, tc.sentinel)
			}
			rerr := asRenderError(t, err)
			if rerr.Pos != tc.pos {
				t.Fatalf("error at %s, want %s (%v)", rerr.Pos, tc.pos, err)
			}
			if !strings.HasPrefix(err.Error(), "render: case.slm:") {
				t.Fatalf("message %q lacks template name", err)
			}
		})
	}
}

func TestError_Message(t *testing.T) {
	err := &Error{
		Err:      ErrUndefinedVariable,
		Template: "slamfile.slm",
		Name:     "sample_name",
		Pos:      Pos{Line: 1, Col: 20},
		Detail:   "not found in context or loop scope",
	}
	want := `render: slamfile.slm:1:20: undefined variable "sample_name": not found in context or loop scope`
	if got := err.Error(); got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}

func TestNative_Render(t *testing.T) {
	engine := NewNative(slamTemplate(t), RequireNonEmpty("scans"))
	if engine.Name() != NativeName || engine.ContentType() != ContentType {
		t.Fatalf("unexpected engine identity %q %q", engine.Name(), engine.ContentType())
	}

	out, err := engine.Render(testsupport.Context(), testsupport.ScenarioContext().Vars())
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	want := testsupport.MustReadGoldenString(t, filepath.Join("testdata", "scenario.slm.golden"))
	if diff := testsupport.CompareGolden(want, string(out)); diff != "" {
		t.Fatalf("output mismatch (-want +got):\n%s", diff)
	}
}

func TestNative_RenderNilContext(t *testing.T) {
	var ctx context.Context
	out, err := NewNative(slamTemplate(t)).Render(ctx, testsupport.ScenarioContext().Vars())
	if err == nil || out != nil {
		t.Fatalf("nil context: out=%q err=%v, want error and no output", out, err)
	}
}

func TestParse_DropsSingleTrailingNewline(t *testing.T) {
	cases := []struct {
		text string
		want string
	}{
		{"a\n", "a"},
		{"a\n\n", "a\n"},
		{"a\r\n", "a"},
		{"{{ x }}\n", "1"},
		{"a", "a"},
		{"\n", ""},
	}
	for _, tc := range cases {
		if got := mustRender(t, tc.text, Vars{"x": 1}); got != tc.want {
			t.Errorf("render %q = %q, want %q", tc.text, got, tc.want)
		}
	}

	out, err := slamTemplate(t).Render(testsupport.ScenarioContext().Vars())
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if strings.HasSuffix(out, "\n") {
		t.Fatalf("script must end on menumode without a newline: %q", out[len(out)-12:])
	}
}
