package canvas

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/go-drift/widgethost/pkg/dom"
)

// ConfigAttr holds the JSON config of the chart drawn on a canvas.
const ConfigAttr = "data-config"

// AttrBackend draws nothing: it records each chart's config as the
// ConfigAttr attribute of its canvas, and its size in the canvas's width
// and height attributes.
type AttrBackend struct {
	doc *dom.Document
}

// NewAttrBackend returns an AttrBackend for doc.
func NewAttrBackend(doc *dom.Document) *AttrBackend {
	return &AttrBackend{doc: doc}
}

// Create records config on the canvas named by config["renderTo"].
func (b *AttrBackend) Create(config map[string]any) error {
	id, _ := config["renderTo"].(string)
	c := b.doc.GetElementByID(id)
	if c == nil {
		return fmt.Errorf("canvas: no canvas %q", id)
	}
	data, err := json.Marshal(config)
	if err != nil {
		return fmt.Errorf("canvas: encode config: %w", err)
	}
	c.SetAttr(ConfigAttr, string(data))
	return nil
}

// Destroy removes the recorded config.
func (b *AttrBackend) Destroy(canvasID string) {
	if c := b.doc.GetElementByID(canvasID); c != nil {
		c.RemoveAttr(ConfigAttr)
	}
}

// Lookup returns the chart recorded on canvasID.
func (b *AttrBackend) Lookup(canvasID string) (Chart, bool) {
	c := b.doc.GetElementByID(canvasID)
	if c == nil {
		return nil, false
	}
	if _, ok := c.Attr(ConfigAttr); !ok {
		return nil, false
	}
	return attrChart{c}, true
}

type attrChart struct {
	canvas *dom.Element
}

func (c attrChart) SetDimensions(width, height int) error {
	c.canvas.SetAttr("width", strconv.Itoa(width))
	c.canvas.SetAttr("height", strconv.Itoa(height))
	return nil
}
