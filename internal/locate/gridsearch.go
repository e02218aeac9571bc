package locate

import (
	"fmt"
	"math"
)

// GridParams configures the misfit grid search.
type GridParams struct {
	Model     Model
	Geometry  Geometry
	Grid      Grid
	Accuracy  float64
	Frequency int

	// Workers is the parallel fan-out; <= 0 selects runtime.NumCPU().
	Workers int
}

// Validate checks the grid shape and solver parameters.
func (p GridParams) Validate() error {
	if p.Grid.NX <= 0 || p.Grid.NY <= 0 || p.Grid.NZ <= 0 {
		return fmt.Errorf("grid counts must be positive, got %d×%d×%d", p.Grid.NX, p.Grid.NY, p.Grid.NZ)
	}
	if p.Accuracy <= 0 {
		return fmt.Errorf("accuracy must be positive, got %g", p.Accuracy)
	}
	if p.Frequency <= 0 {
		return fmt.Errorf("frequency must be positive, got %d", p.Frequency)
	}
	if len(p.Geometry.Stations) == 0 {
		return fmt.Errorf("geometry has no stations")
	}
	if p.Geometry.BaseStation < 0 || p.Geometry.BaseStation >= len(p.Geometry.Stations) {
		return fmt.Errorf("base station %d out of range [0, %d)", p.Geometry.BaseStation, len(p.Geometry.Stations))
	}
	return nil
}

// ComputeMisfitCube evaluates the misfit at every grid node of every event
// and returns the flat cube [events × NX·NY·NZ]. observed is the flat
// [events × stations] table of per-event observed delays; origins is the
// flat [events × 3] table of per-event grid origins. Nodes whose altitude
// falls outside the modeled range are set to NullValue without evaluation.
func ComputeMisfitCube(p GridParams, observed []int32, origins []float32) ([]float32, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	if len(origins) == 0 || len(origins)%originColumns != 0 {
		return nil, fmt.Errorf("origins length %d is not a multiple of %d", len(origins), originColumns)
	}
	events := len(origins) / originColumns
	stations := len(p.Geometry.Stations)
	if len(observed) != events*stations {
		return nil, fmt.Errorf("observed delays have %d entries, want %d events × %d stations", len(observed), events, stations)
	}

	nodes := p.Grid.NodeCount()
	cube := make([]float32, events*nodes)
	minAltitude := p.Model.MinAltitude()
	maxAltitude := p.Model.MaxAltitude()

	runStage(events*nodes, p.Workers, func(id int) {
		eventID := id / nodes
		nodeID := id % nodes

		ix, iy, iz := p.Grid.NodeIndex(nodeID)
		node := [3]float64{
			float64(ix)*p.Grid.DX + float64(origins[eventID*originColumns]),
			float64(iy)*p.Grid.DY + float64(origins[eventID*originColumns+1]),
			float64(iz)*p.Grid.DZ + float64(origins[eventID*originColumns+2]),
		}

		if node[2] < minAltitude || node[2] > maxAltitude {
			cube[id] = NullValue
			return
		}

		row := observed[eventID*stations : (eventID+1)*stations]
		value, ok := p.Model.Misfit(p.Geometry, row, node, p.Accuracy, p.Frequency)
		if !ok {
			cube[id] = NullValue
			return
		}
		cube[id] = float32(value)
	})
	return cube, nil
}

// ReduceMinima scans each event's slice of the misfit cube for its minimum
// defined value. It returns the per-event minimal node index (NullValue when
// the event has no defined node) and the corresponding misfit (+Inf when
// none). Events are reduced independently in parallel.
func ReduceMinima(cube []float32, nodesCount, workers int) ([]int32, []float32, error) {
	if nodesCount <= 0 {
		return nil, nil, fmt.Errorf("nodes count must be positive, got %d", nodesCount)
	}
	if len(cube)%nodesCount != 0 {
		return nil, nil, fmt.Errorf("cube length %d is not a multiple of %d nodes", len(cube), nodesCount)
	}
	events := len(cube) / nodesCount

	minimalNodes := make([]int32, events)
	errors := make([]float32, events)
	runStage(events, workers, func(eventID int) {
		start := eventID * nodesCount

		minimalNode := int32(NullValue)
		minMisfit := float32(math.Inf(1))
		for i := 0; i < nodesCount; i++ {
			v := cube[start+i]
			if v == NullValue {
				continue
			}
			if v < minMisfit {
				minMisfit = v
				minimalNode = int32(i)
			}
		}

		minimalNodes[eventID] = minimalNode
		errors[eventID] = minMisfit
	})
	return minimalNodes, errors, nil
}

// OriginsFromCenters converts per-event search-space centers into grid
// origins by backing each center off by half the grid extent per axis.
func OriginsFromCenters(centers []float32, g Grid) []float32 {
	origins := make([]float32, len(centers))
	for e := 0; e < len(centers)/originColumns; e++ {
		origins[e*originColumns] = centers[e*originColumns] - float32(float64(g.NX)*g.DX/2)
		origins[e*originColumns+1] = centers[e*originColumns+1] - float32(float64(g.NY)*g.DY/2)
		origins[e*originColumns+2] = centers[e*originColumns+2] - float32(float64(g.NZ)*g.DZ/2)
	}
	return origins
}

// Location is one located event: the minimal node's world coordinate and
// its misfit.
type Location struct {
	EventID int     `json:"event_id"`
	NodeID  int     `json:"node_id"`
	X       float64 `json:"x"`
	Y       float64 `json:"y"`
	Z       float64 `json:"z"`
	Misfit  float64 `json:"misfit"`
}

// Locations converts the reduction output back to world coordinates around
// the per-event search-space centers. Events with no defined node are
// omitted.
func Locations(minimalNodes []int32, errors []float32, centers []float32, g Grid) []Location {
	located := make([]Location, 0, len(minimalNodes))
	for eventID, nodeID := range minimalNodes {
		if nodeID == NullValue {
			continue
		}

		ix, iy, iz := g.NodeIndex(int(nodeID))
		located = append(located, Location{
			EventID: eventID,
			NodeID:  int(nodeID),
			X:       float64(centers[eventID*originColumns]) + g.DX*(float64(ix)-float64(g.NX)/2),
			Y:       float64(centers[eventID*originColumns+1]) + g.DY*(float64(iy)-float64(g.NY)/2),
			Z:       float64(centers[eventID*originColumns+2]) + g.DZ*(float64(iz)-float64(g.NZ)/2),
			Misfit:  float64(errors[eventID]),
		})
	}
	return located
}
