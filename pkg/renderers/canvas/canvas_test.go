package canvas_test

import (
	"encoding/json"
	stderrors "errors"
	"testing"

	"github.com/go-drift/widgethost/pkg/dom"
	"github.com/go-drift/widgethost/pkg/renderers/canvas"
	"github.com/go-drift/widgethost/pkg/widgethost"
	"github.com/go-drift/widgethost/pkg/widgettest"
	"github.com/google/go-cmp/cmp"
)

const chartPage = `<div id="c1" class="canvasXpress" style="width: 400px; height: 300px"></div>`

func setup(t *testing.T, body string, opts ...canvas.Option) (*dom.Document, *canvas.Instance) {
	t.Helper()
	doc := widgettest.Page(t, body)
	h, err := widgethost.New(doc)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := h.RegisterRenderer(canvas.Definition(opts...)); err != nil {
		t.Fatal(err)
	}
	if err := h.Ready(); err != nil {
		t.Fatal(err)
	}
	inst, err := h.FindInstance("#c1")
	if err != nil {
		t.Fatal(err)
	}
	ci, ok := inst.(*canvas.Instance)
	if !ok {
		t.Fatalf("instance is %T", inst)
	}
	return doc, ci
}

func attrs(el *dom.Element, keys ...string) map[string]string {
	out := make(map[string]string)
	for _, k := range keys {
		out[k], _ = el.Attr(k)
	}
	return out
}

func TestRender_AttrBackend(t *testing.T) {
	doc, inst := setup(t, chartPage+widgettest.Payload("c1", `{"x": {"graphType": "Bar"}}`))

	c := widgettest.Element(t, doc, "c1-cx")
	if inst.Canvas() != c || c.Parent() != widgettest.Element(t, doc, "c1") {
		t.Fatal("canvas should be created inside the widget element")
	}
	if diff := cmp.Diff(map[string]string{"width": "400", "height": "300"}, attrs(c, "width", "height")); diff != "" {
		t.Errorf("canvas size (-want +got):\n%s", diff)
	}

	raw, ok := c.Attr(canvas.ConfigAttr)
	if !ok {
		t.Fatal("config not recorded")
	}
	var config map[string]any
	if err := json.Unmarshal([]byte(raw), &config); err != nil {
		t.Fatal(err)
	}
	want := map[string]any{"graphType": "Bar", "renderTo": "c1-cx"}
	if diff := cmp.Diff(want, config); diff != "" {
		t.Errorf("config (-want +got):\n%s", diff)
	}

	if err := inst.Resize(640, 480); err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(map[string]string{"width": "640", "height": "480"}, attrs(c, "width", "height")); diff != "" {
		t.Errorf("resized canvas (-want +got):\n%s", diff)
	}

	if err := inst.Render([]any{1.0, 2.0}); err != nil {
		t.Fatal(err)
	}
	if _, ok := c.Attr(canvas.ConfigAttr); ok {
		t.Error("a list config should destroy the chart and draw nothing")
	}
}

func TestRender_NotAnObject(t *testing.T) {
	_, inst := setup(t, chartPage)
	if err := inst.Render("bar"); !stderrors.Is(err, canvas.ErrConfig) {
		t.Errorf("expected ErrConfig, got %v", err)
	}
}

type fakeChart struct {
	id   string
	dims [][2]int
}

func (c *fakeChart) SetDimensions(w, h int) error {
	c.dims = append(c.dims, [2]int{w, h})
	return nil
}

type fakeBackend struct {
	charts map[string]*fakeChart
	log    []string
}

func (b *fakeBackend) Create(config map[string]any) error {
	id := config["renderTo"].(string)
	b.log = append(b.log, "create "+id)
	b.charts[id] = &fakeChart{id: id}
	return nil
}

func (b *fakeBackend) Destroy(id string) {
	b.log = append(b.log, "destroy "+id)
	delete(b.charts, id)
}

func (b *fakeBackend) Lookup(id string) (canvas.Chart, bool) {
	c, ok := b.charts[id]
	return c, ok
}

func TestRender_DestroysPrevious(t *testing.T) {
	b := &fakeBackend{charts: map[string]*fakeChart{}}
	_, inst := setup(t, chartPage+widgettest.Payload("c1", `{"x": {}}`), canvas.WithBackend(b))

	if err := inst.Render(map[string]any{}); err != nil {
		t.Fatal(err)
	}
	want := []string{"destroy c1-cx", "create c1-cx", "destroy c1-cx", "create c1-cx"}
	if diff := cmp.Diff(want, b.log); diff != "" {
		t.Errorf("backend calls (-want +got):\n%s", diff)
	}
}

func TestResize_FallsBackToSuffixedChart(t *testing.T) {
	split := &fakeChart{id: "c1-cx-1"}
	b := &fakeBackend{charts: map[string]*fakeChart{"c1-cx-1": split}}
	_, inst := setup(t, chartPage, canvas.WithBackend(b))

	if err := inst.Resize(100, 50); err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([][2]int{{100, 50}}, split.dims); diff != "" {
		t.Errorf("dimensions (-want +got):\n%s", diff)
	}

	delete(b.charts, "c1-cx-1")
	if err := inst.Resize(1, 1); err != nil {
		t.Errorf("resize without a chart: %v", err)
	}
}
