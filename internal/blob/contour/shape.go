package contour

import "math"

// MatchMethod selects how two sets of Hu invariants are compared.
type MatchMethod int

const (
	// MatchI1 sums |1/mA - 1/mB| over the log-scaled invariants.
	MatchI1 MatchMethod = iota + 1
	// MatchI2 sums |mA - mB| over the log-scaled invariants.
	MatchI2
	// MatchI3 takes max |mA - mB| / |mA| over the log-scaled invariants.
	MatchI3
)

// huEpsilon skips invariants too small to log-scale meaningfully.
const huEpsilon = 1e-5

// HuMoments returns the seven Hu invariants derived from the normalised
// central moments. They are invariant to translation, scale and rotation.
func (m Moments) HuMoments() [7]float64 {
	t0 := m.Nu30 + m.Nu12
	t1 := m.Nu21 + m.Nu03
	q0 := m.Nu20 - m.Nu02
	q1 := m.Nu30 - 3*m.Nu12
	q2 := 3*m.Nu21 - m.Nu03
	n4 := t0*t0 - 3*t1*t1
	n5 := 3*t0*t0 - t1*t1

	return [7]float64{
		m.Nu20 + m.Nu02,
		q0*q0 + 4*m.Nu11*m.Nu11,
		q1*q1 + q2*q2,
		t0*t0 + t1*t1,
		q1*t0*n4 + q2*t1*n5,
		q0*(t0*t0-t1*t1) + 4*m.Nu11*t0*t1,
		q2*t0*n4 - q1*t1*n5,
	}
}

// ShapeDissimilarity compares two contours through their Hu invariants.
// Identical shapes (up to translation, scale and rotation) score 0; the
// score grows without a fixed upper bound as the shapes diverge.
func ShapeDissimilarity(a, b Contour, method MatchMethod) float64 {
	ha := ComputeMoments(a).HuMoments()
	hb := ComputeMoments(b).HuMoments()

	var result float64
	for i := range ha {
		ama, amb := math.Abs(ha[i]), math.Abs(hb[i])
		if ama <= huEpsilon || amb <= huEpsilon {
			continue
		}
		ama = sign(ha[i]) * math.Log10(ama)
		amb = sign(hb[i]) * math.Log10(amb)

		switch method {
		case MatchI1:
			result += math.Abs(1/ama - 1/amb)
		case MatchI2:
			result += math.Abs(ama - amb)
		default:
			if d := math.Abs((ama - amb) / ama); d > result {
				result = d
			}
		}
	}
	return result
}

func sign(v float64) float64 {
	switch {
	case v > 0:
		return 1
	case v < 0:
		return -1
	}
	return 0
}
