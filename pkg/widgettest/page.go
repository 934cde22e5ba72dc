package widgettest

import (
	"fmt"
	"testing"

	"github.com/go-drift/widgethost/pkg/dom"
)

// Page parses body inside a minimal HTML document.
func Page(t testing.TB, body string, opts ...dom.Option) *dom.Document {
	t.Helper()
	doc, err := dom.ParseString("<!DOCTYPE html><html><head></head><body>"+body+"</body></html>", opts...)
	if err != nil {
		t.Fatalf("widgettest.Page: %v", err)
	}
	return doc
}

// Payload returns a payload sidecar tag for the element id.
func Payload(id, json string) string {
	return fmt.Sprintf(`<script type="application/json" data-for=%q>%s</script>`, id, json)
}

// Sizing returns a sizing sidecar tag for the element id.
func Sizing(id, json string) string {
	return fmt.Sprintf(`<script type="application/htmlwidget-sizing" data-for=%q>%s</script>`, id, json)
}

// Element returns the element with the given id or fails the test.
func Element(t testing.TB, doc *dom.Document, id string) *dom.Element {
	t.Helper()
	el := doc.GetElementByID(id)
	if el == nil {
		t.Fatalf("widgettest.Element: no element with id %q", id)
	}
	return el
}

// Append parses fragment into the end of the body, as a page script
// adding widgets after load would.
func Append(t testing.TB, doc *dom.Document, fragment string) {
	t.Helper()
	if err := doc.Body().AppendHTML(fragment); err != nil {
		t.Fatalf("widgettest.Append: %v", err)
	}
}
