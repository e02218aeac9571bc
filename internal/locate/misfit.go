package locate

import "math"

// Misfit scores one candidate source node against one event's observed
// delays: the theoretical delay of every station relative to the base
// station (ray-traced travel times through the model) is compared with the
// observed delay, and the residuals are reduced to sqrt(Σδ²)/n over the n
// contributing stations. Stations whose travel time is undefined or whose
// theoretical delay is negative (a non-causal arrival for this node) are
// skipped. ok=false when the base-station travel time is undefined or fewer
// than MinStationsCount stations contribute.
//
// observed is one event row of per-station delays in samples; node is the
// candidate source coordinate (x, y, altitude).
func (m Model) Misfit(geom Geometry, observed []int32, node [3]float64, accuracy float64, frequency int) (float64, bool) {
	base := geom.Stations[geom.BaseStation]
	offset := math.Hypot(base.X-node[0], base.Y-node[1])

	baseTime, ok := m.TravelTime(0, node[2], offset, geom.Altitude, accuracy, frequency)
	if !ok {
		return NullValue, false
	}

	var sum float64
	contributing := 0
	for i, s := range geom.Stations {
		offset = math.Hypot(s.X-node[0], s.Y-node[1])
		t, ok := m.TravelTime(0, node[2], offset, geom.Altitude, accuracy, frequency)
		if !ok {
			continue
		}

		theoretical := t - baseTime
		if theoretical < 0 {
			continue
		}

		delta := float64(theoretical - observed[i])
		sum += delta * delta
		contributing++
	}

	if contributing < MinStationsCount {
		return NullValue, false
	}
	return math.Sqrt(sum) / float64(contributing), true
}
