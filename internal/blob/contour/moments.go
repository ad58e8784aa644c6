package contour

import (
	"errors"
	"image"
	"math"
)

// ErrDegenerateRegion is returned when a centroid is requested for a
// contour that encloses zero area.
var ErrDegenerateRegion = errors.New("contour: degenerate region (zero area)")

// areaEpsilon matches the single-precision epsilon used by contour moment
// implementations to decide that a polygon has no area.
const areaEpsilon = 1.1920929e-07

// Contour is a closed polygon in pixel coordinates. The last vertex joins
// back to the first.
type Contour []image.Point

// Moments holds the spatial, central and normalised central moments of a
// contour polygon up to third order.
type Moments struct {
	M00, M10, M01, M20, M11, M02, M30, M21, M12, M03 float64
	Mu20, Mu11, Mu02, Mu30, Mu21, Mu12, Mu03         float64
	Nu20, Nu11, Nu02, Nu30, Nu21, Nu12, Nu03         float64
}

// ComputeMoments integrates the polygon moments with Green's theorem over
// the contour edges. Orientation does not matter; a clockwise contour yields
// the same (positive) area as its counter-clockwise twin.
func ComputeMoments(c Contour) Moments {
	var m Moments
	n := len(c)
	if n == 0 {
		return m
	}

	var a00, a10, a01, a20, a11, a02, a30, a21, a12, a03 float64
	prev := c[n-1]
	xi1, yi1 := float64(prev.X), float64(prev.Y)
	for _, p := range c {
		xi, yi := float64(p.X), float64(p.Y)
		xi2, yi2 := xi*xi, yi*yi
		xi12, yi12 := xi1*xi1, yi1*yi1

		dxy := xi1*yi - xi*yi1
		xii1 := xi1 + xi
		yii1 := yi1 + yi

		a00 += dxy
		a10 += dxy * xii1
		a01 += dxy * yii1
		a20 += dxy * (xi1*xii1 + xi2)
		a11 += dxy * (xi1*(yii1+yi1) + xi*(yii1+yi))
		a02 += dxy * (yi1*yii1 + yi2)
		a30 += dxy * xii1 * (xi12 + xi2)
		a03 += dxy * yii1 * (yi12 + yi2)
		a21 += dxy * (xi12*(3*yi1+yi) + 2*xi*xi1*yii1 + xi2*(yi1+3*yi))
		a12 += dxy * (yi12*(3*xi1+xi) + 2*yi*yi1*xii1 + yi2*(xi1+3*xi))

		xi1, yi1 = xi, yi
	}

	if math.Abs(a00) <= areaEpsilon {
		return m
	}

	sign := 1.0
	if a00 < 0 {
		sign = -1.0
	}
	m.M00 = sign * a00 / 2
	m.M10 = sign * a10 / 6
	m.M01 = sign * a01 / 6
	m.M20 = sign * a20 / 12
	m.M11 = sign * a11 / 24
	m.M02 = sign * a02 / 12
	m.M30 = sign * a30 / 20
	m.M21 = sign * a21 / 60
	m.M12 = sign * a12 / 60
	m.M03 = sign * a03 / 20

	cx := m.M10 / m.M00
	cy := m.M01 / m.M00

	m.Mu20 = m.M20 - m.M10*cx
	m.Mu11 = m.M11 - m.M10*cy
	m.Mu02 = m.M02 - m.M01*cy
	m.Mu30 = m.M30 - cx*(3*m.Mu20+cx*m.M10)
	m.Mu21 = m.M21 - cx*(2*m.Mu11+cx*m.M01) - cy*m.Mu20
	m.Mu12 = m.M12 - cy*(2*m.Mu11+cy*m.M10) - cx*m.Mu02
	m.Mu03 = m.M03 - cy*(3*m.Mu02+cy*m.M01)

	inv := 1 / m.M00
	s2 := inv * inv
	s3 := s2 * math.Sqrt(math.Abs(inv))
	m.Nu20 = m.Mu20 * s2
	m.Nu11 = m.Mu11 * s2
	m.Nu02 = m.Mu02 * s2
	m.Nu30 = m.Mu30 * s3
	m.Nu21 = m.Mu21 * s3
	m.Nu12 = m.Mu12 * s3
	m.Nu03 = m.Mu03 * s3

	return m
}

// Area returns the unsigned polygon area.
func (c Contour) Area() float64 {
	return ComputeMoments(c).M00
}

// Centroid returns the sub-pixel centroid of the enclosed region.
func (c Contour) Centroid() (x, y float64, err error) {
	m := ComputeMoments(c)
	if m.M00 == 0 {
		return 0, 0, ErrDegenerateRegion
	}
	return m.M10 / m.M00, m.M01 / m.M00, nil
}

// Center returns the centroid truncated to integer pixel coordinates, the
// form used for point-cloud lookups.
func (c Contour) Center() (image.Point, error) {
	x, y, err := c.Centroid()
	if err != nil {
		return image.Point{}, err
	}
	return image.Pt(int(x), int(y)), nil
}
