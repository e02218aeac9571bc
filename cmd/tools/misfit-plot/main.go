// Command misfit-plot renders a PNG heat map of one horizontal layer of an
// event's misfit cube, computed by running the pipeline over a waveform
// record.
package main

import (
	"flag"
	"log"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/palette/moreland"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/microseis/gridloc/internal/config"
	"github.com/microseis/gridloc/internal/locate"
	"github.com/microseis/gridloc/internal/waveform"
)

// misfitLayer adapts one z layer of an event's misfit cube to the plotter
// grid interface. Undefined nodes keep their sentinel value, which pins the
// color scale floor, so they are remapped to the layer maximum instead.
type misfitLayer struct {
	values  []float32
	grid    locate.Grid
	layer   int
	originX float64
	originY float64
	ceil    float64
}

func (m *misfitLayer) Dims() (c, r int) { return m.grid.NX, m.grid.NY }

func (m *misfitLayer) X(c int) float64 { return m.originX + float64(c)*m.grid.DX }

func (m *misfitLayer) Y(r int) float64 { return m.originY + float64(r)*m.grid.DY }

func (m *misfitLayer) Z(c, r int) float64 {
	v := m.values[m.layer*m.grid.NX*m.grid.NY+r*m.grid.NX+c]
	if v == locate.NullValue {
		return m.ceil
	}
	return float64(v)
}

func main() {
	waveformPath := flag.String("waveform", "", "waveform record to process")
	sitePath := flag.String("site", "site.json", "site descriptor")
	paramsPath := flag.String("params", "", "processing parameters JSON (optional)")
	event := flag.Int("event", 0, "event index")
	layer := flag.Int("layer", -1, "z layer index (-1 selects the minimal node's layer)")
	output := flag.String("o", "misfit.png", "output PNG path")
	flag.Parse()

	if *waveformPath == "" {
		log.Fatal("waveform path is required")
	}

	site, err := waveform.LoadSite(*sitePath)
	if err != nil {
		log.Fatalf("failed to load site: %v", err)
	}

	params := &config.Processing{}
	if *paramsPath != "" {
		params, err = config.Load(*paramsPath)
		if err != nil {
			log.Fatalf("failed to load parameters: %v", err)
		}
	}

	header, signals, err := waveform.ReadFile(*waveformPath)
	if err != nil {
		log.Fatalf("failed to read waveform: %v", err)
	}
	model, err := site.Model()
	if err != nil {
		log.Fatalf("failed to build model: %v", err)
	}

	frequency := int(header.Frequency)
	if frequency == 0 {
		frequency = params.GetFrequency()
	}

	dx, dy, dz := params.GetGridStep()
	nx, ny, nz := params.GetGridCounts()
	grid := locate.Grid{DX: dx, DY: dy, DZ: dz, NX: nx, NY: ny, NZ: nz}
	pipeline := locate.PipelineParams{
		Delay: locate.DelayParams{
			SignalLength:   int(header.Samples),
			StationsCount:  len(site.Stations),
			WindowSize:     params.GetWindowSize(),
			ScannerSize:    params.GetScannerSize(),
			MinCorrelation: params.GetMinCorrelation(),
			BaseStation:    params.GetBaseStation(),
			Workers:        params.GetWorkers(),
		},
		Grid: locate.GridParams{
			Model:     model,
			Geometry:  site.Geometry(),
			Grid:      grid,
			Accuracy:  params.GetAccuracy(),
			Frequency: frequency,
			Workers:   params.GetWorkers(),
		},
	}

	center := [3]float32{
		float32(site.Center[0]),
		float32(site.Center[1]),
		float32(site.Center[2]),
	}
	result, err := locate.Run(signals, center, pipeline)
	if err != nil {
		log.Fatalf("pipeline failed: %v", err)
	}
	if len(result.Picks) == 0 {
		log.Fatal("no events picked, nothing to plot")
	}
	if *event < 0 || *event >= len(result.Picks) {
		log.Fatalf("event %d out of range [0, %d)", *event, len(result.Picks))
	}

	nodes := grid.NodeCount()
	slice := result.Cube[*event*nodes : (*event+1)*nodes]

	iz := *layer
	if iz < 0 {
		iz = grid.NZ / 2
		if node := result.MinimalNodes[*event]; node != locate.NullValue {
			_, _, iz = grid.NodeIndex(int(node))
		}
	}
	if iz >= grid.NZ {
		log.Fatalf("layer %d out of range [0, %d)", iz, grid.NZ)
	}

	ceil := 0.0
	for _, v := range slice[iz*grid.NX*grid.NY : (iz+1)*grid.NX*grid.NY] {
		if v != locate.NullValue && float64(v) > ceil {
			ceil = float64(v)
		}
	}

	data := &misfitLayer{
		values:  slice,
		grid:    grid,
		layer:   iz,
		originX: float64(result.Origins[*event*3]),
		originY: float64(result.Origins[*event*3+1]),
		ceil:    ceil,
	}

	p := plot.New()
	p.Title.Text = "Misfit"
	p.X.Label.Text = "X (m)"
	p.Y.Label.Text = "Y (m)"

	heatMap := plotter.NewHeatMap(data, moreland.SmoothBlueRed().Palette(128))
	p.Add(heatMap)

	if err := p.Save(8*vg.Inch, 8*vg.Inch, *output); err != nil {
		log.Fatalf("failed to save plot: %v", err)
	}
	log.Printf("✓ Created: %s (event %d, layer %d)", *output, *event, iz)
}
