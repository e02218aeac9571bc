package locate

import "fmt"

// PipelineParams bundles the per-run configuration of the full locator
// pipeline.
type PipelineParams struct {
	Delay DelayParams
	Grid  GridParams
}

// Result carries every intermediate and final product of one pipeline run.
// The flat arrays keep the external sentinel conventions so they can be
// persisted or shipped as-is.
type Result struct {
	DelayTable   []int32     `json:"-"`
	Picks        []EventPick `json:"picks"`
	Origins      []float32   `json:"-"`
	Cube         []float32   `json:"-"`
	MinimalNodes []int32     `json:"minimal_nodes"`
	Errors       []float32   `json:"errors"`
	Located      []Location  `json:"located"`
}

// Run executes the three pipeline stages in order: delay estimation over
// the signal matrix, event picking, and the misfit grid search around the
// search center. center is the shared (x, y, z) search-space center applied
// to every picked event. Each stage completes fully before the next starts.
func Run(signals []float32, center [3]float32, p PipelineParams) (*Result, error) {
	table, err := EstimateDelays(signals, p.Delay)
	if err != nil {
		return nil, fmt.Errorf("delay estimation: %w", err)
	}

	picks, err := PickEvents(table, p.Delay.StationsCount, p.Delay.WindowSize, p.Delay.ScannerSize)
	if err != nil {
		return nil, fmt.Errorf("event picking: %w", err)
	}
	result := &Result{DelayTable: table, Picks: picks}
	if len(picks) == 0 {
		return result, nil
	}

	centers := make([]float32, len(picks)*originColumns)
	for e := range picks {
		centers[e*originColumns] = center[0]
		centers[e*originColumns+1] = center[1]
		centers[e*originColumns+2] = center[2]
	}
	result.Origins = OriginsFromCenters(centers, p.Grid.Grid)

	observed := ObservedDelays(picks, p.Delay.StationsCount)
	result.Cube, err = ComputeMisfitCube(p.Grid, observed, result.Origins)
	if err != nil {
		return nil, fmt.Errorf("misfit grid search: %w", err)
	}

	result.MinimalNodes, result.Errors, err = ReduceMinima(result.Cube, p.Grid.Grid.NodeCount(), p.Grid.Workers)
	if err != nil {
		return nil, fmt.Errorf("minimum reduction: %w", err)
	}

	result.Located = Locations(result.MinimalNodes, result.Errors, centers, p.Grid.Grid)
	return result, nil
}
