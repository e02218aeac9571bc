package waveform

import (
	"fmt"
	"math"
	"math/rand"

	"github.com/microseis/gridloc/internal/locate"
)

// SyntheticParams configures a synthetic record for a known source position.
// Every station receives the same pseudo-random source trace shifted by its
// ray-traced arrival delay relative to the base station, which makes the
// record a ground-truth input for the whole pipeline.
type SyntheticParams struct {
	Site      *Site
	Event     [3]float64 // true source position (x, y, altitude)
	Length    int        // samples per trace
	Frequency int        // sampling frequency, Hz
	Accuracy  float64    // travel-time solver accuracy, meters
	Noise     float64    // additive uniform noise amplitude, 0 disables
	Seed      int64
}

// Synthesize builds the [stations × length] trace matrix plus the true
// per-station delays it encoded. It fails when any station is unreachable
// from the event through the site's velocity model, or when a delay does
// not fit the trace length.
func Synthesize(p SyntheticParams) ([]float32, []int32, error) {
	if p.Length <= 0 {
		return nil, nil, fmt.Errorf("trace length must be positive, got %d", p.Length)
	}
	if err := p.Site.Validate(); err != nil {
		return nil, nil, err
	}
	model, err := p.Site.Model()
	if err != nil {
		return nil, nil, err
	}
	geom := p.Site.Geometry()

	delays, err := TrueDelays(model, geom, p.Event, p.Accuracy, p.Frequency)
	if err != nil {
		return nil, nil, err
	}

	rng := rand.New(rand.NewSource(p.Seed))
	source := make([]float32, p.Length)
	for i := range source {
		source[i] = rng.Float32()*2 - 1
	}

	stations := len(geom.Stations)
	signals := make([]float32, stations*p.Length)
	for s := 0; s < stations; s++ {
		d := int(delays[s])
		if d >= p.Length {
			return nil, nil, fmt.Errorf("station %d delay %d exceeds trace length %d", s, d, p.Length)
		}
		row := signals[s*p.Length : (s+1)*p.Length]
		for i := 0; i < d; i++ {
			row[i] = rng.Float32()*2 - 1
		}
		copy(row[d:], source[:p.Length-d])
		if p.Noise > 0 {
			for i := range row {
				row[i] += float32(p.Noise) * (rng.Float32()*2 - 1)
			}
		}
	}
	return signals, delays, nil
}

// TrueDelays ray-traces the arrival delay of every station relative to the
// base station for a source at event. Delays are in samples at frequency.
func TrueDelays(model locate.Model, geom locate.Geometry, event [3]float64, accuracy float64, frequency int) ([]int32, error) {
	base := geom.Stations[geom.BaseStation]
	offset := math.Hypot(base.X-event[0], base.Y-event[1])
	baseTime, ok := model.TravelTime(0, event[2], offset, geom.Altitude, accuracy, frequency)
	if !ok {
		return nil, fmt.Errorf("base station unreachable from event (%g, %g, %g)", event[0], event[1], event[2])
	}

	delays := make([]int32, len(geom.Stations))
	for i, s := range geom.Stations {
		offset = math.Hypot(s.X-event[0], s.Y-event[1])
		t, ok := model.TravelTime(0, event[2], offset, geom.Altitude, accuracy, frequency)
		if !ok {
			return nil, fmt.Errorf("station %d unreachable from event (%g, %g, %g)", i, event[0], event[1], event[2])
		}
		if t < baseTime {
			return nil, fmt.Errorf("station %d arrives %d samples before the base station", i, baseTime-t)
		}
		delays[i] = t - baseTime
	}
	return delays, nil
}
