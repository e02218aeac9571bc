package locate

import "math"

// MaxIterationsCount caps the bisection over take-off angle. The solver
// trades guaranteed convergence for a hard iteration bound, which keeps the
// grid-search throughput predictable; an unconverged solve is a sentinel
// result, not an error.
const MaxIterationsCount = 10

// minTakeoffAngle returns the lower bisection bound: the angle whose lateral
// reach over the full altitude difference is half the accuracy target.
func minTakeoffAngle(deltaAltitudes, accuracy float64) float64 {
	return math.Atan2(0.5*accuracy, deltaAltitudes)
}

// maxTakeoffAngle returns the upper bisection bound from the straight-line
// geometry within the source layer.
func maxTakeoffAngle(deltaAltitudes, rOffset float64) float64 {
	return math.Atan2(rOffset, deltaAltitudes)
}

// TravelTime finds the ray from (sourceR, sourceAltitude) to
// (receiverR, receiverAltitude) whose lateral offset matches the receiver
// offset within accuracy, and returns its travel time truncated to an
// integer sample count at the given sampling frequency. It bisects the
// take-off angle between the accuracy-derived minimum and the source-layer
// geometric maximum for at most MaxIterationsCount iterations, tracing rays
// at the bracket ends and midpoint each round. ok=false when the source
// altitude is outside the model, the bracket turns invalid, or the
// iteration budget runs out without an accuracy-level match.
func (m Model) TravelTime(sourceR, sourceAltitude, receiverR, receiverAltitude, accuracy float64, frequency int) (int32, bool) {
	deltaAltitudes := math.Abs(sourceAltitude - receiverAltitude)
	minAngle := minTakeoffAngle(deltaAltitudes, accuracy)

	sourceLayer, ok := m.LayerIndex(sourceAltitude)
	if !ok {
		return NullValue, false
	}
	layerDelta := m.layers[sourceLayer].Top - sourceAltitude
	rOffset := math.Abs(sourceR - receiverR)
	maxAngle := maxTakeoffAngle(layerDelta, rOffset)

	lateralDirection := positiveDirection
	if receiverR < 0 {
		lateralDirection = negativeDirection
	}

	for i := 0; i < MaxIterationsCount; i++ {
		minRay, ok := m.traceRay(sourceR, sourceAltitude, receiverAltitude, minAngle, lateralDirection, frequency)
		if ok && math.Abs(minRay.Offset-receiverR) < accuracy {
			return int32(minRay.Time), true
		}

		middleAngle := (minAngle + maxAngle) / 2
		middleRay, ok := m.traceRay(sourceR, sourceAltitude, receiverAltitude, middleAngle, lateralDirection, frequency)
		if ok && math.Abs(middleRay.Offset-receiverR) < accuracy {
			return int32(middleRay.Time), true
		}

		maxRay, ok := m.traceRay(sourceR, sourceAltitude, receiverAltitude, maxAngle, lateralDirection, frequency)
		if ok && math.Abs(maxRay.Offset-receiverR) < accuracy {
			return int32(maxRay.Time), true
		}

		// Narrow the bracket around the receiver offset. No monotonicity is
		// assumed: a bracket that contains the target on neither side is
		// terminal.
		if lateralDirection == positiveDirection {
			switch {
			case minRay.Offset < receiverR && receiverR < middleRay.Offset:
				maxAngle = middleAngle
			case middleRay.Offset < receiverR && receiverR < maxRay.Offset:
				minAngle = middleAngle
			default:
				return NullValue, false
			}
		} else {
			switch {
			case maxRay.Offset < receiverR && receiverR < middleRay.Offset:
				minAngle = middleAngle
			case middleRay.Offset < receiverR && receiverR < minRay.Offset:
				maxAngle = middleAngle
			default:
				return NullValue, false
			}
		}
	}
	return NullValue, false
}
