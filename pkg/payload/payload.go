// Package payload decodes the JSON message a widget is rendered from:
//
//	{"x": ..., "evals": ["opts.fmt"], "jsHooks": {"render": [...]}, "deps": [...]}
//
// Static documents carry it in a sidecar tag; reactive hosts deliver it as
// the output value.
package payload

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/go-drift/widgethost/pkg/deps"
	"github.com/go-drift/widgethost/pkg/dom"
	"github.com/go-drift/widgethost/pkg/errors"
	"github.com/go-drift/widgethost/pkg/script"
)

// MIMEType is the type of the payload sidecar tag.
const MIMEType = "application/json"

// Evals lists dotted paths into X whose string values are script
// literals. JSON null, a single string, or a list decode into it.
type Evals []string

// UnmarshalJSON accepts null, a string, or a list of strings.
func (e *Evals) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	switch {
	case bytes.Equal(b, []byte("null")):
		*e = nil
		return nil
	case len(b) > 0 && b[0] == '"':
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*e = Evals{s}
		return nil
	}
	var list []string
	if err := json.Unmarshal(b, &list); err != nil {
		return fmt.Errorf("payload: evals must be a string or a list of strings: %w", err)
	}
	*e = list
	return nil
}

// Hooks holds the script tasks run around rendering.
type Hooks struct {
	Render []script.Task `json:"render"`
}

// Payload is one decoded widget message.
type Payload struct {
	X       any               `json:"x"`
	Evals   Evals             `json:"evals"`
	JSHooks Hooks             `json:"jsHooks"`
	Deps    []deps.Dependency `json:"deps"`
}

// IsNull reports whether the widget data is null or absent.
func (p *Payload) IsNull() bool {
	return p == nil || p.X == nil
}

// Decode parses a payload.
func Decode(data []byte) (*Payload, error) {
	var p Payload
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// FromSidecar loads the payload for el from its sidecar tag. The boolean
// is false when there is no tag; a malformed tag is a parsing error.
func FromSidecar(doc *dom.Document, el *dom.Element) (*Payload, bool, error) {
	text, ok := doc.Sidecar(el.ID(), MIMEType)
	if !ok {
		return nil, false, nil
	}
	p, err := Decode([]byte(text))
	if err != nil {
		return nil, true, &errors.WidgetError{
			Op:        "payload.FromSidecar",
			Kind:      errors.KindParsing,
			ElementID: el.ID(),
			Err: &errors.ParseError{
				Source:   fmt.Sprintf("script[data-for=%q][type=%q]", el.ID(), MIMEType),
				DataType: "widget payload",
				Err:      err,
			},
		}
	}
	return p, true, nil
}
