// Package sizing reads per-element sizing policies from sidecar tags and
// applies them to the document.
//
// A sizing sidecar looks like
//
//	<script type="application/htmlwidget-sizing" data-for="plot1">
//	  {"viewer": {"fill": true, "padding": 0},
//	   "browser": {"fill": false, "padding": [10, 20], "width": 600, "height": "50vh"}}
//	</script>
//
// One of the two variants is chosen per host: viewer when the document
// location carries viewer_pane=1, browser otherwise.
package sizing

import (
	"bytes"
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
)

// MIMEType is the script type of sizing sidecar tags.
const MIMEType = "application/htmlwidget-sizing"

// DefaultContainerID is the id of the element that wraps a full-page widget.
const DefaultContainerID = "htmlwidget_container"

// Padding is a resolved box padding in pixels.
type Padding struct {
	Top, Right, Bottom, Left int
}

// UnpackPadding expands 1 to 4 values the way the CSS padding shorthand
// does.
func UnpackPadding(values []int) (Padding, error) {
	switch len(values) {
	case 1:
		v := values[0]
		return Padding{v, v, v, v}, nil
	case 2:
		return Padding{values[0], values[1], values[0], values[1]}, nil
	case 3:
		return Padding{values[0], values[1], values[2], values[1]}, nil
	case 4:
		return Padding{values[0], values[1], values[2], values[3]}, nil
	default:
		return Padding{}, fmt.Errorf("sizing: padding takes 1 to 4 values, got %d", len(values))
	}
}

// CSS formats the padding as a four-value CSS declaration.
func (p Padding) CSS() string {
	return fmt.Sprintf("%dpx %dpx %dpx %dpx", p.Top, p.Right, p.Bottom, p.Left)
}

// PaddingSpec is the padding as written in a policy: a number or an array
// of numbers. Nil means no padding was given.
type PaddingSpec []int

// UnmarshalJSON accepts a number or an array of numbers.
func (s *PaddingSpec) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		*s = nil
		return nil
	}
	if len(b) > 0 && b[0] == '[' {
		var vals []float64
		if err := json.Unmarshal(b, &vals); err != nil {
			return err
		}
		out := make(PaddingSpec, len(vals))
		for i, v := range vals {
			out[i] = int(v)
		}
		*s = out
		return nil
	}
	var v float64
	if err := json.Unmarshal(b, &v); err != nil {
		return fmt.Errorf("sizing: padding must be a number or an array: %w", err)
	}
	*s = PaddingSpec{int(v)}
	return nil
}

// Unpack expands the written padding. Absent padding is zero.
func (s PaddingSpec) Unpack() (Padding, error) {
	if s == nil {
		return Padding{}, nil
	}
	return UnpackPadding(s)
}

// Dimension is a width or height: a number of pixels or a raw CSS length.
type Dimension struct {
	Pixels int
	Raw    string
	Set    bool
}

// Px returns a pixel dimension.
func Px(n int) Dimension {
	return Dimension{Pixels: n, Set: true}
}

// UnmarshalJSON accepts a number (pixels) or a string (raw CSS).
func (d *Dimension) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		*d = Dimension{}
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var raw string
		if err := json.Unmarshal(b, &raw); err != nil {
			return err
		}
		*d = Dimension{Raw: raw, Set: true}
		return nil
	}
	var v float64
	if err := json.Unmarshal(b, &v); err != nil {
		return fmt.Errorf("sizing: dimension must be a number or a string: %w", err)
	}
	*d = Dimension{Pixels: int(v), Set: true}
	return nil
}

// CSS returns the CSS length: "<n>px" for pixels, the raw string otherwise.
func (d Dimension) CSS() string {
	if !d.Set {
		return ""
	}
	if d.Raw != "" {
		return d.Raw
	}
	return strconv.Itoa(d.Pixels) + "px"
}

// Policy is one variant of an element's sizing sidecar.
type Policy struct {
	Fill    bool        `json:"fill"`
	Padding PaddingSpec `json:"padding"`
	Width   Dimension   `json:"width"`
	Height  Dimension   `json:"height"`
}

// Variant selects which half of a sizing sidecar applies.
type Variant int

const (
	// Browser is the variant for a regular browser window.
	Browser Variant = iota
	// Viewer is the variant for an IDE viewer pane.
	Viewer
)

func (v Variant) String() string {
	if v == Viewer {
		return "viewer"
	}
	return "browser"
}

var viewerFlag = regexp.MustCompile(`\bviewer_pane=1\b`)

// VariantFromLocation returns Viewer when the location carries the
// viewer_pane=1 flag.
func VariantFromLocation(location string) Variant {
	if viewerFlag.MatchString(location) {
		return Viewer
	}
	return Browser
}

type sidecar struct {
	Viewer  *Policy `json:"viewer"`
	Browser *Policy `json:"browser"`
}

func (s sidecar) pick(v Variant) *Policy {
	if v == Viewer {
		return s.Viewer
	}
	return s.Browser
}
