// Package pointcloud holds the per-pixel 3D coordinates that accompany a
// depth frame.
//
// A Cloud is an immutable snapshot of the X, Y and Z planes. Producers build
// a new Cloud per frame and hand it over whole; readers never observe a
// partially replaced triple.
package pointcloud

import (
	"errors"
	"fmt"
	"image"
	"math"

	"github.com/golang/geo/r3"
	"gonum.org/v1/gonum/mat"
)

// ErrUnavailable is returned when a 3D coordinate cannot be looked up,
// either because no cloud has been supplied yet, because the pixel lies
// outside the planes, or because the sensor reported no depth there.
var ErrUnavailable = errors.New("pointcloud: coordinate unavailable")

// Cloud is a read-only bundle of three planes indexed by pixel row (y) and
// column (x).
type Cloud struct {
	x, y, z *mat.Dense
}

// New wraps the three planes. The planes are not copied and must not be
// mutated afterwards. No shape validation is performed; lookups check each
// plane's bounds individually.
func New(x, y, z *mat.Dense) *Cloud {
	return &Cloud{x: x, y: y, z: z}
}

// FromRows builds a Cloud from row-major slices, one []float64 per pixel
// row. All rows of a plane must share the same width.
func FromRows(x, y, z [][]float64) (*Cloud, error) {
	xs, err := denseFromRows(x)
	if err != nil {
		return nil, fmt.Errorf("x plane: %w", err)
	}
	ys, err := denseFromRows(y)
	if err != nil {
		return nil, fmt.Errorf("y plane: %w", err)
	}
	zs, err := denseFromRows(z)
	if err != nil {
		return nil, fmt.Errorf("z plane: %w", err)
	}
	return New(xs, ys, zs), nil
}

func denseFromRows(rows [][]float64) (*mat.Dense, error) {
	if len(rows) == 0 || len(rows[0]) == 0 {
		return nil, errors.New("empty plane")
	}
	cols := len(rows[0])
	data := make([]float64, 0, len(rows)*cols)
	for i, r := range rows {
		if len(r) != cols {
			return nil, fmt.Errorf("row %d has %d columns, want %d", i, len(r), cols)
		}
		data = append(data, r...)
	}
	return mat.NewDense(len(rows), cols, data), nil
}

// Lookup returns the 3D coordinate stored for pixel p. Pixels holding a NaN
// or infinite coordinate (invalid depth) are reported as unavailable.
func (c *Cloud) Lookup(p image.Point) (r3.Vector, error) {
	if c == nil || c.x == nil || c.y == nil || c.z == nil {
		return r3.Vector{}, ErrUnavailable
	}
	x, ok := at(c.x, p)
	if !ok {
		return r3.Vector{}, fmt.Errorf("pixel %v outside x plane: %w", p, ErrUnavailable)
	}
	y, ok := at(c.y, p)
	if !ok {
		return r3.Vector{}, fmt.Errorf("pixel %v outside y plane: %w", p, ErrUnavailable)
	}
	z, ok := at(c.z, p)
	if !ok {
		return r3.Vector{}, fmt.Errorf("pixel %v outside z plane: %w", p, ErrUnavailable)
	}
	v := r3.Vector{X: x, Y: y, Z: z}
	if !finite(v) {
		return r3.Vector{}, fmt.Errorf("pixel %v has no valid depth: %w", p, ErrUnavailable)
	}
	return v, nil
}

func finite(v r3.Vector) bool {
	for _, f := range [3]float64{v.X, v.Y, v.Z} {
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return false
		}
	}
	return true
}

// Dims returns the rows and columns of the X plane.
func (c *Cloud) Dims() (rows, cols int) {
	if c == nil || c.x == nil {
		return 0, 0
	}
	return c.x.Dims()
}

func at(m *mat.Dense, p image.Point) (float64, bool) {
	rows, cols := m.Dims()
	if p.X < 0 || p.Y < 0 || p.Y >= rows || p.X >= cols {
		return 0, false
	}
	return m.At(p.Y, p.X), true
}
