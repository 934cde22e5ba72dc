// Package widgettest provides helpers for testing widget hosts and
// renderers without a browser.
//
// # Quick Start
//
// Parse a page, register a recording renderer, run a static pass and
// inspect the calls:
//
//	func TestPlot(t *testing.T) {
//	    doc := widgettest.Page(t, `<div id="p1" class="plot"></div>`+
//	        widgettest.Payload("p1", `{"x": {"n": 1}}`))
//	    rec := widgettest.NewRecorder()
//
//	    host := widgethost.New(doc)
//	    host.RegisterRenderer(rec.Definition("plot"))
//	    host.Ready()
//
//	    if rec.Count(widgettest.OpRender, "p1") != 1 {
//	        t.Error("expected one render")
//	    }
//	}
//
// # Time
//
// Loops built on a FakeClock only fire timers when the test advances the
// clock and calls RunPending:
//
//	clock := widgettest.NewFakeClock()
//	l := loop.New(clock)
//	clock.Advance(500 * time.Millisecond)
//	l.RunPending()
package widgettest
