package api

import (
	"bytes"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/microseis/gridloc/internal/httputil"
	"github.com/microseis/gridloc/internal/locate"
)

// showJobChart renders an HTML misfit map of one horizontal grid layer for
// one event of a finished job. Query params:
//   - event (optional; default 0)
//   - layer (optional; default the layer holding the event's minimal node)
func (s *Server) showJobChart(w http.ResponseWriter, r *http.Request, jobID string) {
	result, ok := s.runner.Cube(jobID)
	if !ok {
		httputil.NotFound(w, "no cube cached for job (not finished, restarted, or no events)")
		return
	}

	event := 0
	if q := r.URL.Query().Get("event"); q != "" {
		v, err := strconv.Atoi(q)
		if err != nil || v < 0 || v >= result.Events {
			httputil.BadRequest(w, fmt.Sprintf("event must be in [0, %d)", result.Events))
			return
		}
		event = v
	}

	grid := result.Grid
	nodes := grid.NodeCount()
	slice := result.Cube[event*nodes : (event+1)*nodes]

	layer := minimalLayer(slice, grid)
	if q := r.URL.Query().Get("layer"); q != "" {
		v, err := strconv.Atoi(q)
		if err != nil || v < 0 || v >= grid.NZ {
			httputil.BadRequest(w, fmt.Sprintf("layer must be in [0, %d)", grid.NZ))
			return
		}
		layer = v
	}

	data := make([]opts.ScatterData, 0, grid.NX*grid.NY)
	maxMisfit := 0.0
	for iy := 0; iy < grid.NY; iy++ {
		for ix := 0; ix < grid.NX; ix++ {
			v := slice[layer*grid.NX*grid.NY+iy*grid.NX+ix]
			if v == locate.NullValue {
				continue
			}
			if float64(v) > maxMisfit {
				maxMisfit = float64(v)
			}
			data = append(data, opts.ScatterData{
				Value: []interface{}{float64(ix) * grid.DX, float64(iy) * grid.DY, v},
			})
		}
	}
	if maxMisfit == 0 {
		maxMisfit = 1
	}

	scatter := charts.NewScatter()
	scatter.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{
			PageTitle: "Misfit Map",
			Width:     "900px",
			Height:    "900px",
		}),
		charts.WithTitleOpts(opts.Title{
			Title:    "Event Misfit Map",
			Subtitle: fmt.Sprintf("job=%s event=%d layer=%d points=%d", jobID, event, layer, len(data)),
		}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithXAxisOpts(opts.XAxis{Name: "X (m)", NameLocation: "middle", NameGap: 25}),
		charts.WithYAxisOpts(opts.YAxis{Name: "Y (m)", NameLocation: "middle", NameGap: 30}),
		charts.WithVisualMapOpts(opts.VisualMap{
			Show:       opts.Bool(true),
			Calculable: opts.Bool(true),
			Min:        0,
			Max:        float32(maxMisfit),
			Dimension:  "2",
			InRange: &opts.VisualMapInRange{Color: []string{
				"#1f9e89", "#6ece58", "#fde725", "#fd9668", "#b73779",
			}},
		}),
	)
	scatter.AddSeries("misfit", data, charts.WithScatterChartOpts(opts.ScatterChart{SymbolSize: 12}))

	var buf bytes.Buffer
	if err := scatter.Render(&buf); err != nil {
		httputil.InternalServerError(w, fmt.Sprintf("failed to render chart: %v", err))
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write(buf.Bytes())
}

// minimalLayer returns the z index of the smallest defined misfit in one
// event's cube slice, or the middle layer when nothing is defined.
func minimalLayer(slice []float32, grid locate.Grid) int {
	best := grid.NZ / 2
	bestValue := float32(0)
	found := false
	for i, v := range slice {
		if v == locate.NullValue {
			continue
		}
		if !found || v < bestValue {
			_, _, iz := grid.NodeIndex(i)
			best = iz
			bestValue = v
			found = true
		}
	}
	return best
}
