package widget_test

import (
	stderrors "errors"
	"testing"

	"github.com/go-drift/widgethost/pkg/dom"
	"github.com/go-drift/widgethost/pkg/errors"
	"github.com/go-drift/widgethost/pkg/widget"
	"github.com/go-drift/widgethost/pkg/widgettest"
	"github.com/google/go-cmp/cmp"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func noopRender(*dom.Element, any, any) error { return nil }

func TestRegister_Validation(t *testing.T) {
	tests := []struct {
		name string
		def  widget.Definition
		want error
	}{
		{"missing name", widget.Definition{Type: "output", Render: noopRender}, widget.ErrMissingName},
		{"missing type", widget.Definition{Name: "w", Render: noopRender}, widget.ErrMissingType},
		{"unsupported type", widget.Definition{Name: "w", Type: "input", Render: noopRender}, widget.ErrUnsupportedType},
		{"missing render", widget.Definition{Name: "w", Type: "output"}, widget.ErrMissingRender},
		{"invalid name", widget.Definition{Name: "1bad", Type: "output", Render: noopRender}, widget.ErrInvalidName},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reg := widget.NewRegistry()
			_, err := reg.Register(tt.def)
			if !stderrors.Is(err, tt.want) {
				t.Fatalf("got %v, want %v", err, tt.want)
			}
			var we *errors.WidgetError
			if !stderrors.As(err, &we) || we.Kind != errors.KindConfig || we.Op != "widget.Register" {
				t.Errorf("expected a config WidgetError, got %#v", err)
			}
			if reg.Len() != 0 {
				t.Error("failed registration should not be stored")
			}
		})
	}
}

func TestRegister_Duplicate(t *testing.T) {
	reg := widget.NewRegistry()
	rec := widgettest.NewRecorder()
	if _, err := reg.Register(rec.Definition("plot")); err != nil {
		t.Fatal(err)
	}
	if _, err := reg.Register(rec.Definition("plot")); !stderrors.Is(err, widget.ErrDuplicateName) {
		t.Errorf("expected ErrDuplicateName, got %v", err)
	}
}

func TestRegister_OrderAndLookup(t *testing.T) {
	reg := widget.NewRegistry()
	rec := widgettest.NewRecorder()
	for _, name := range []string{"b", "a", "c"} {
		if _, err := reg.Register(rec.Definition(name)); err != nil {
			t.Fatal(err)
		}
	}

	var names []string
	for _, def := range reg.Definitions() {
		names = append(names, def.Name)
	}
	if diff := cmp.Diff([]string{"b", "a", "c"}, names); diff != "" {
		t.Errorf("order mismatch (-want +got):\n%s", diff)
	}

	def, ok := reg.Lookup("a")
	if !ok || def.Name != "a" {
		t.Errorf("Lookup: got %v, %v", def, ok)
	}
	if _, ok := reg.Lookup("missing"); ok {
		t.Error("Lookup of an unknown name should fail")
	}
}

func TestRegister_DefaultFind(t *testing.T) {
	doc := widgettest.Page(t, `<div id="a" class="plot"></div><div id="b" class="other"></div><span id="c" class="plot x"></span>`)
	reg := widget.NewRegistry()

	def, err := reg.Register(widgettest.NewRecorder().RenderOnly("plot"))
	if err != nil {
		t.Fatal(err)
	}
	found, err := def.Find(doc.Root())
	if err != nil {
		t.Fatal(err)
	}
	var ids []string
	for _, el := range found {
		ids = append(ids, el.ID())
	}
	if diff := cmp.Diff([]string{"a", "c"}, ids); diff != "" {
		t.Errorf("Find mismatch (-want +got):\n%s", diff)
	}
}

func TestRegister_CustomFindKept(t *testing.T) {
	reg := widget.NewRegistry()
	called := false
	def, err := reg.Register(widget.Definition{
		Name:   "w",
		Type:   "output",
		Render: noopRender,
		Find: func(scope *dom.Element) ([]*dom.Element, error) {
			called = true
			return nil, nil
		},
	})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := def.Find(nil); err != nil || !called {
		t.Error("custom Find should be kept")
	}
}

func TestRegister_Listeners(t *testing.T) {
	reg := widget.NewRegistry()
	rec := widgettest.NewRecorder()
	if _, err := reg.Register(rec.Definition("early")); err != nil {
		t.Fatal(err)
	}

	var seen []string
	reg.OnRegister(func(def *widget.Definition) { seen = append(seen, def.Name) })
	stored, err := reg.Register(rec.Definition("late"))
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([]string{"late"}, seen); diff != "" {
		t.Errorf("listener mismatch (-want +got):\n%s", diff)
	}
	if got, _ := reg.Lookup("late"); got != stored {
		t.Error("listener and Lookup should see the stored definition")
	}
}

func TestRegister_ListenerAddedDuringNotify(t *testing.T) {
	reg := widget.NewRegistry()
	rec := widgettest.NewRecorder()

	var seen []string
	reg.OnRegister(func(def *widget.Definition) {
		seen = append(seen, "first:"+def.Name)
		if def.Name == "a" {
			reg.OnRegister(func(def *widget.Definition) { seen = append(seen, "second:"+def.Name) })
		}
	})
	for _, name := range []string{"a", "b"} {
		if _, err := reg.Register(rec.Definition(name)); err != nil {
			t.Fatal(err)
		}
	}

	want := []string{"first:a", "first:b", "second:b"}
	if diff := cmp.Diff(want, seen); diff != "" {
		t.Errorf("listener mismatch (-want +got):\n%s", diff)
	}
}

func TestRegister_DoesNotMutateInput(t *testing.T) {
	reg := widget.NewRegistry()
	def := widgettest.NewRecorder().RenderOnly("plot")
	if _, err := reg.Register(def); err != nil {
		t.Fatal(err)
	}
	if def.Find != nil {
		t.Error("Register filled in Find on the caller's definition")
	}
}

func TestRegister_Logs(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	reg := widget.NewRegistry(widget.WithLogger(zap.New(core)))
	if _, err := reg.Register(widgettest.NewRecorder().Definition("plot")); err != nil {
		t.Fatal(err)
	}
	entries := logs.FilterMessage("registered renderer").All()
	if len(entries) != 1 {
		t.Fatalf("expected one log entry, got %d", len(entries))
	}
	if entries[0].LoggerName != "registry" || entries[0].ContextMap()["name"] != "plot" {
		t.Errorf("unexpected entry: %+v", entries[0])
	}
}
