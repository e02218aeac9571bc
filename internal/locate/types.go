package locate

// NullValue is the sentinel written into flat output arrays for slots that
// could not be computed: no usable correlation, unreachable ray, altitude
// outside the model, or too few contributing stations. External data
// producers and consumers rely on this exact value, so it is preserved at
// every array boundary.
const NullValue = -9999

// MinStationsCount is the support threshold shared by the delay estimator
// and the misfit evaluator: a time sample is valid only if strictly more
// than this many stations yielded a delay, and a misfit is defined only if
// at least this many stations contribute a residual.
const MinStationsCount = 3

// modelColumns is the column count of the flat layered-model array:
// bottom altitude, top altitude, velocity.
const modelColumns = 3

// coordinateColumns is the column count of the flat station-coordinate
// array: x, y.
const coordinateColumns = 2

// originColumns is the column count of the flat per-event search-origin
// array: x, y, z.
const originColumns = 3

// Station is one sensor of the array. All stations share a single altitude
// (flat-topography assumption), carried separately in Geometry.
type Station struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Geometry describes the observation system: station positions, the shared
// station altitude, and the index of the base (reference) station all
// delays are measured against.
type Geometry struct {
	Stations    []Station `json:"stations"`
	Altitude    float64   `json:"altitude"`
	BaseStation int       `json:"base_station"`
}

// FlatCoordinates returns the stations as the flat [stations × 2] row-major
// array used at the wire boundary.
func (g Geometry) FlatCoordinates() []float32 {
	flat := make([]float32, len(g.Stations)*coordinateColumns)
	for i, s := range g.Stations {
		flat[i*coordinateColumns] = float32(s.X)
		flat[i*coordinateColumns+1] = float32(s.Y)
	}
	return flat
}

// Grid is the regular 3D search lattice evaluated around each event's
// origin. Node (i, j, k) sits at origin + (i·DX, j·DY, k·DZ).
type Grid struct {
	DX, DY, DZ float64
	NX, NY, NZ int
}

// NodeCount returns the number of nodes per event.
func (g Grid) NodeCount() int { return g.NX * g.NY * g.NZ }

// NodeIndex decomposes a linear node id into its (i, j, k) lattice indices.
// The decomposition is x-fastest, matching the cube layout.
func (g Grid) NodeIndex(nodeID int) (ix, iy, iz int) {
	plane := g.NX * g.NY
	ix = (nodeID % plane) % g.NX
	iy = (nodeID % plane) / g.NX
	iz = nodeID / plane
	return ix, iy, iz
}
