package locate

import "math"

// Lateral ray directions. The direction is fixed once per ray from the sign
// of the receiver offset and applied to every per-layer lateral step.
const (
	positiveDirection = 1
	negativeDirection = -1
)

// RayPoint is the state of a traced ray at its end point: lateral offset
// from the trace start, altitude, and accumulated travel time. Time is
// scaled by the integer sampling frequency so a downstream truncation yields
// an integer sample count.
type RayPoint struct {
	Offset   float64
	Altitude float64
	Time     float64
}

// sentinelRay is the all-NullValue ray state marking a ray that could not
// be traced.
var sentinelRay = RayPoint{Offset: NullValue, Altitude: NullValue, Time: NullValue}

// reflected reports whether a ray leaving sourceAltitude at incidentAngle
// cannot reach targetAltitude: either altitude resolves to no layer, or the
// ray parameter turns post-critical (p·v > 1) in any traversed layer, which
// means total internal reflection before the target.
func (m Model) reflected(sourceAltitude, targetAltitude, incidentAngle float64) bool {
	sourceLayer, ok := m.LayerIndex(sourceAltitude)
	if !ok {
		return true
	}
	targetLayer, ok := m.LayerIndex(targetAltitude)
	if !ok {
		return true
	}

	p := rayParameter(incidentAngle, m.layers[sourceLayer].Velocity)
	for i := sourceLayer; i > targetLayer-1; i-- {
		if p*m.layers[i].Velocity > 1 {
			return true
		}
	}
	return false
}

// traceRay integrates a ray from (sourceR, sourceAltitude) up through the
// layer stack to targetAltitude at the given take-off angle, accumulating
// per-layer lateral offset, altitude, and frequency-scaled travel time.
// The boundary layers contribute only the thickness between the source or
// target altitude and the crossed interface. Returns ok=false and the
// sentinel ray state when the ray is reflected before reaching the target.
//
// Layer indices decrease from the source layer to the target layer: the
// model is ordered shallowest-first, and the trace walks toward the surface.
func (m Model) traceRay(sourceR, sourceAltitude, targetAltitude, incidentAngle float64, lateralDirection, frequency int) (RayPoint, bool) {
	if m.reflected(sourceAltitude, targetAltitude, incidentAngle) {
		return sentinelRay, false
	}

	sourceLayer, _ := m.LayerIndex(sourceAltitude)
	targetLayer, _ := m.LayerIndex(targetAltitude)

	point := RayPoint{Offset: sourceR, Altitude: sourceAltitude, Time: 0}
	p := rayParameter(incidentAngle, m.layers[sourceLayer].Velocity)

	for i := sourceLayer; i > targetLayer-1; i-- {
		layer := m.layers[i]

		var thickness float64
		switch {
		case i == sourceLayer:
			thickness = layer.Top - sourceAltitude
		case i == targetLayer:
			thickness = targetAltitude - layer.Bottom
		default:
			thickness = layer.Top - layer.Bottom
		}

		refractionAngle := math.Asin(p * layer.Velocity)
		offset := thickness * math.Tan(refractionAngle) * float64(lateralDirection)
		pathLength := math.Sqrt(offset*offset + thickness*thickness)

		point.Offset += offset
		point.Altitude += thickness
		point.Time += pathLength / layer.Velocity * float64(frequency)
	}
	return point, true
}
