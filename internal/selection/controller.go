// Package selection tracks the one vessel the operator is looking at.
package selection

import (
	"errors"
	"fmt"

	"shipmap/internal/render"
	"shipmap/internal/vessel"
)

var ErrUnknownVessel = errors.New("vessel not tracked")

// Lookup finds the latest record for a vessel.
type Lookup interface {
	Get(id vessel.ID) (vessel.Record, bool)
}

// Trails starts and abandons trail loads.
type Trails interface {
	Fetch(id vessel.ID)
	Cancel()
}

// Controller holds the selection: none, or one tracked vessel.
type Controller struct {
	store  Lookup
	trails Trails
	sink   render.Sink

	selected vessel.ID
	active   bool
}

func NewController(store Lookup, trails Trails, sink render.Sink) *Controller {
	return &Controller{store: store, trails: trails, sink: sink}
}

func (c *Controller) Selected() (vessel.ID, bool) { return c.selected, c.active }

// Select highlights id, requests its trail and shows its panel. Selecting
// the current vessel again reloads the trail and the panel.
func (c *Controller) Select(id vessel.ID) error {
	rec, ok := c.store.Get(id)
	if !ok {
		return fmt.Errorf("select %s: %w", id, ErrUnknownVessel)
	}

	if !c.active || c.selected != id {
		if c.active {
			c.sink.SetHighlight(c.selected, false)
		}
		c.sink.SetHighlight(id, true)
	}
	c.selected, c.active = id, true

	c.trails.Fetch(id)
	c.sink.RenderPanel(&rec)
	return nil
}

func (c *Controller) Clear() {
	if !c.active {
		return
	}
	c.sink.SetHighlight(c.selected, false)
	c.selected, c.active = 0, false
	c.trails.Cancel()
	c.sink.RenderPanel(nil)
}

// Refresh redraws the panel if rec belongs to the selected vessel.
func (c *Controller) Refresh(rec vessel.Record) {
	if c.active && rec.MMSI == c.selected {
		c.sink.RenderPanel(&rec)
	}
}
