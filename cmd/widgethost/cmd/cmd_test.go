package cmd

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/go-drift/widgethost/pkg/errors"
	"github.com/google/go-cmp/cmp"
)

func TestParsePageFlags(t *testing.T) {
	tests := []struct {
		name       string
		args       []string
		positional []string
		flags      pageFlags
		wantErr    bool
	}{
		{"page only", []string{"a.html"}, []string{"a.html"}, pageFlags{settle: defaultSettle}, false},
		{"all flags", []string{"a.html", "-o", "out.html", "--location", "http://x/?viewer_pane=1", "--settle", "1s", "m.jsonl"},
			[]string{"a.html", "m.jsonl"}, pageFlags{output: "out.html", location: "http://x/?viewer_pane=1", settle: time.Second}, false},
		{"missing value", []string{"a.html", "-o"}, nil, pageFlags{}, true},
		{"bad duration", []string{"--settle", "soon"}, nil, pageFlags{}, true},
		{"unknown flag", []string{"--fast"}, nil, pageFlags{}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			positional, flags, err := parsePageFlags(tt.args)
			if (err != nil) != tt.wantErr {
				t.Fatalf("error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				return
			}
			if diff := cmp.Diff(tt.positional, positional); diff != "" {
				t.Errorf("positional (-want +got):\n%s", diff)
			}
			if diff := cmp.Diff(tt.flags, flags, cmp.AllowUnexported(pageFlags{})); diff != "" {
				t.Errorf("flags (-want +got):\n%s", diff)
			}
		})
	}
}

func TestExecute_UnknownCommand(t *testing.T) {
	if err := execute([]string{"frobnicate"}); err == nil {
		t.Error("expected an error for an unknown command")
	}
}

const chartPage = `<!DOCTYPE html><html><head></head><body>
<div id="c1" class="canvasXpress" style="width: 320px; height: 200px"></div>
<script type="application/json" data-for="c1">{"x": {"graphType": "Bar"}}</script>
<div id="o1" class="canvasXpress html-widget-output" style="width: 100px; height: 100px"></div>
</body></html>`

func setupPage(t *testing.T) (dir, page string) {
	t.Helper()
	dir = t.TempDir()
	page = filepath.Join(dir, "page.html")
	if err := os.WriteFile(page, []byte(chartPage), 0o644); err != nil {
		t.Fatal(err)
	}
	configPath = filepath.Join(dir, "widgethost.yaml")
	if err := os.WriteFile(configPath, []byte("log:\n  level: error\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() {
		configPath = ""
		errors.SetHandler(nil)
	})
	return dir, page
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	return string(data)
}

func TestRender(t *testing.T) {
	dir, page := setupPage(t)
	out := filepath.Join(dir, "out.html")

	if err := runRender([]string{page, "-o", out, "--settle", "1ms"}); err != nil {
		t.Fatal(err)
	}
	html := readFile(t, out)
	for _, want := range []string{`id="c1-cx"`, `width="320"`, `data-config=`, "html-widget-static-bound"} {
		if !strings.Contains(html, want) {
			t.Errorf("output is missing %s:\n%s", want, html)
		}
	}
	if strings.Contains(html, `id="o1-cx"`) {
		t.Error("reactive outputs must not be bound by the static pass")
	}
}

func TestReplay(t *testing.T) {
	dir, page := setupPage(t)
	messages := filepath.Join(dir, "m.jsonl")
	data := "# outputs\n" +
		`{"values": {"o1": {"x": {"graphType": "Line"}}}}` + "\n\n"
	if err := os.WriteFile(messages, []byte(data), 0o644); err != nil {
		t.Fatal(err)
	}
	out := filepath.Join(dir, "out.html")

	if err := runReplay([]string{page, messages, "-o", out, "--settle", "1ms"}); err != nil {
		t.Fatal(err)
	}
	html := readFile(t, out)
	if !strings.Contains(html, `id="o1-cx"`) || !strings.Contains(html, "Line") {
		t.Errorf("output o1 was not rendered:\n%s", html)
	}
}

func TestReplay_UnknownOutput(t *testing.T) {
	dir, page := setupPage(t)
	messages := filepath.Join(dir, "m.jsonl")
	if err := os.WriteFile(messages, []byte(`{"values": {"nope": {"x": 1}}}`+"\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	err := runReplay([]string{page, messages, "--settle", "1ms"})
	if err == nil || !strings.Contains(err.Error(), "m.jsonl:1") {
		t.Errorf("expected a line-numbered error, got %v", err)
	}
}
