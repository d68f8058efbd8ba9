package graph

import (
	"math"

	"docgraph/domain/catalog"
)

// Mode is the render mode chosen by the layout controller
type Mode string

const (
	// ModeClustered renders one button per top tag instead of the full graph
	ModeClustered Mode = "clustered"
	// ModeExpanded renders every document node with physics-driven positions
	ModeExpanded Mode = "expanded"
)

// TagButton is a positioned tag cluster button for clustered mode
type TagButton struct {
	Tag   string  `json:"tag"`
	Count int     `json:"count"`
	X     float64 `json:"x"`
	Y     float64 `json:"y"`
}

// Controller decides the render mode from zoom level and selection state.
// The decision is a pure function of its two inputs; there is no hidden
// history, so a zoom crossing the threshold or a selection change flips
// the mode deterministically.
type Controller struct {
	ZoomThreshold float64
	Radius        float64
	MaxTagButtons int
}

// NewController builds a layout controller with the given tuning.
// Non-positive values fall back to the defaults.
func NewController(zoomThreshold, radius float64, maxTagButtons int) Controller {
	c := DefaultController()
	if zoomThreshold > 0 {
		c.ZoomThreshold = zoomThreshold
	}
	if radius > 0 {
		c.Radius = radius
	}
	if maxTagButtons > 0 {
		c.MaxTagButtons = maxTagButtons
	}
	return c
}

// DefaultController returns the controller tuning used when nothing is
// configured
func DefaultController() Controller {
	return Controller{
		ZoomThreshold: 1.0,
		Radius:        250,
		MaxTagButtons: 12,
	}
}

// Mode returns Clustered iff the viewport is zoomed out below the
// threshold and nothing is selected; any selection forces Expanded
// regardless of zoom.
func (c Controller) Mode(zoom float64, selected int) Mode {
	if selected == 0 && zoom < c.ZoomThreshold {
		return ModeClustered
	}
	return ModeExpanded
}

// ClusterPositions places the top-K most frequent tags on a circle of
// fixed radius around the viewport center, one button per tag. Ordering
// (and therefore angular position) is deterministic: frequency descending,
// ties by first-seen order.
func (c Controller) ClusterPositions(docs []catalog.Document, centerX, centerY float64) []TagButton {
	freqs := TagFrequencies(docs)
	if len(freqs) > c.MaxTagButtons {
		freqs = freqs[:c.MaxTagButtons]
	}

	buttons := make([]TagButton, len(freqs))
	for i, tc := range freqs {
		angle := 2 * math.Pi * float64(i) / float64(len(freqs))
		buttons[i] = TagButton{
			Tag:   tc.Tag,
			Count: tc.Count,
			X:     centerX + c.Radius*math.Cos(angle),
			Y:     centerY + c.Radius*math.Sin(angle),
		}
	}
	return buttons
}
