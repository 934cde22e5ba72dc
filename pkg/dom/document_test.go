package dom

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func mustParse(t *testing.T, body string, opts ...Option) *Document {
	t.Helper()
	d, err := ParseString("<!DOCTYPE html><html><head></head><body>"+body+"</body></html>", opts...)
	if err != nil {
		t.Fatalf("ParseString: %v", err)
	}
	return d
}

func byID(t *testing.T, d *Document, id string) *Element {
	t.Helper()
	el := d.GetElementByID(id)
	if el == nil {
		t.Fatalf("no element with id %q", id)
	}
	return el
}

func TestDocument_Structure(t *testing.T) {
	d := New(WithLocation("http://localhost/?viewer_pane=1"))

	if d.Root() == nil || d.Root().TagName() != "html" {
		t.Fatalf("Root: got %v", d.Root())
	}
	if d.Head() == nil || d.Body() == nil {
		t.Fatal("expected head and body")
	}
	if d.Location() != "http://localhost/?viewer_pane=1" {
		t.Errorf("Location: got %q", d.Location())
	}
	if d.Viewport() != DefaultViewport {
		t.Errorf("Viewport: got %v, want %v", d.Viewport(), DefaultViewport)
	}
}

func TestDocument_ElementIdentity(t *testing.T) {
	d := mustParse(t, `<div id="a" class="w"></div>`)

	first := d.GetElementByID("a")
	found, err := d.QuerySelector(".w")
	if err != nil {
		t.Fatalf("QuerySelector: %v", err)
	}
	if first != found {
		t.Error("expected the same *Element for the same node")
	}
	if d.ElementFor(nil) != nil {
		t.Error("ElementFor(nil) should be nil")
	}
}

func TestDocument_Globals(t *testing.T) {
	d := New(WithGlobal("Shiny", 1))

	if v, ok := d.Global("Shiny"); !ok || v != 1 {
		t.Errorf("Global: got %v, %v", v, ok)
	}
	if _, ok := d.Global("missing"); ok {
		t.Error("expected missing global to be absent")
	}
	d.SetGlobal("other", "x")
	if v, _ := d.Global("other"); v != "x" {
		t.Errorf("SetGlobal: got %v", v)
	}
}

func TestDocument_SetViewport(t *testing.T) {
	d := New()

	var events []string
	d.Window().AddEventListener("resize", func(Event) { events = append(events, "resize") })
	cancel := d.ObserveLayout(func() { events = append(events, "layout") })

	d.SetViewport(300, 200)
	if diff := cmp.Diff([]string{"resize", "layout"}, events); diff != "" {
		t.Errorf("events mismatch (-want +got):\n%s", diff)
	}
	if got := d.Root().Size(); got != (Size{300, 200}) {
		t.Errorf("root size: got %v", got)
	}

	cancel()
	d.SetViewport(400, 200)
	if len(events) != 3 {
		t.Errorf("observer ran after cancel: %v", events)
	}
}

func TestDocument_ObserveLayoutOrder(t *testing.T) {
	d := New()
	var order []int
	for i := 1; i <= 3; i++ {
		d.ObserveLayout(func() { order = append(order, i) })
	}
	d.SetViewport(10, 10)
	if diff := cmp.Diff([]int{1, 2, 3}, order); diff != "" {
		t.Errorf("order mismatch (-want +got):\n%s", diff)
	}
}

func TestDocument_CreateAndRender(t *testing.T) {
	d := New()
	el := d.CreateElement("DIV")
	el.SetAttr("id", "made")
	el.SetText("hi")
	if el.IsConnected() {
		t.Error("created element should be detached")
	}
	d.Body().AppendChild(el)
	if !el.IsConnected() {
		t.Error("appended element should be connected")
	}
	if got := d.String(); !strings.Contains(got, `<div id="made">hi</div>`) {
		t.Errorf("rendered document missing element: %s", got)
	}
}
