package locate

import (
	"fmt"
	"math"
)

// Layer is one horizontal slab of the velocity model, bounded by its bottom
// and top altitudes and carrying a single propagation velocity.
type Layer struct {
	Bottom   float64 `json:"bottom"`
	Top      float64 `json:"top"`
	Velocity float64 `json:"velocity"`
}

// Model is a stack of horizontal velocity layers ordered from the shallowest
// (index 0) to the deepest. Layers are contiguous: each layer's bottom is
// the next layer's top.
type Model struct {
	layers []Layer
}

// NewModel validates the layer stack and returns a Model. The stack must be
// non-empty, every layer must have positive thickness and velocity, and
// consecutive layers must share a boundary.
func NewModel(layers []Layer) (Model, error) {
	if len(layers) == 0 {
		return Model{}, fmt.Errorf("velocity model has no layers")
	}
	for i, l := range layers {
		if l.Top <= l.Bottom {
			return Model{}, fmt.Errorf("layer %d has non-positive thickness: [%g, %g)", i, l.Bottom, l.Top)
		}
		if l.Velocity <= 0 {
			return Model{}, fmt.Errorf("layer %d has non-positive velocity %g", i, l.Velocity)
		}
		if i > 0 && layers[i-1].Bottom != l.Top {
			return Model{}, fmt.Errorf("layer %d top %g does not meet layer %d bottom %g", i, l.Top, i-1, layers[i-1].Bottom)
		}
	}
	return Model{layers: layers}, nil
}

// ModelFromFlat builds a Model from the flat [layers × 3] wire array with
// columns bottom altitude, top altitude, velocity.
func ModelFromFlat(flat []float32) (Model, error) {
	if len(flat) == 0 || len(flat)%modelColumns != 0 {
		return Model{}, fmt.Errorf("flat model length %d is not a multiple of %d", len(flat), modelColumns)
	}
	layers := make([]Layer, len(flat)/modelColumns)
	for i := range layers {
		layers[i] = Layer{
			Bottom:   float64(flat[i*modelColumns]),
			Top:      float64(flat[i*modelColumns+1]),
			Velocity: float64(flat[i*modelColumns+2]),
		}
	}
	return NewModel(layers)
}

// Flat returns the model as the [layers × 3] wire array.
func (m Model) Flat() []float32 {
	flat := make([]float32, len(m.layers)*modelColumns)
	for i, l := range m.layers {
		flat[i*modelColumns] = float32(l.Bottom)
		flat[i*modelColumns+1] = float32(l.Top)
		flat[i*modelColumns+2] = float32(l.Velocity)
	}
	return flat
}

// Layers returns the layer stack.
func (m Model) Layers() []Layer { return m.layers }

// MinAltitude returns the bottom of the deepest layer.
func (m Model) MinAltitude() float64 { return m.layers[len(m.layers)-1].Bottom }

// MaxAltitude returns the top of the shallowest layer.
func (m Model) MaxAltitude() float64 { return m.layers[0].Top }

// LayerIndex returns the index of the first layer whose half-open
// [bottom, top) interval contains altitude, or false when the altitude is
// outside every modeled layer.
func (m Model) LayerIndex(altitude float64) (int, bool) {
	for i, l := range m.layers {
		if l.Bottom <= altitude && altitude < l.Top {
			return i, true
		}
	}
	return NullValue, false
}

// rayParameter returns the Snell's-law invariant sin(angle)/velocity, which
// is constant along a ray through horizontally layered media.
func rayParameter(angle, velocity float64) float64 {
	return math.Sin(angle) / velocity
}
