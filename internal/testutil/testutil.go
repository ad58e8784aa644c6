// Package testutil provides shared test utilities and fixtures.
//
// This package centralises the contour and point-cloud fixtures used by the
// blob tracking tests.
package testutil

import (
	"image"
	"time"

	"github.com/banshee-data/blobtrack/internal/blob/contour"
	"github.com/banshee-data/blobtrack/internal/blob/pointcloud"
	"github.com/golang/geo/r3"
	"gonum.org/v1/gonum/mat"
)

// Rect returns an axis-aligned rectangle contour with its top-left corner
// at (x, y).
func Rect(x, y, w, h int) contour.Contour {
	return contour.Contour{{x, y}, {x + w, y}, {x + w, y + h}, {x, y + h}}
}

// Square returns a square contour of side 2*half centred on (cx, cy).
func Square(cx, cy, half int) contour.Contour {
	return Rect(cx-half, cy-half, 2*half, 2*half)
}

// Epoch is a fixed reference time for deterministic timestamps.
var Epoch = time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

// Frame returns Epoch advanced by n frames at the given interval.
func Frame(n int, interval time.Duration) time.Time {
	return Epoch.Add(time.Duration(n) * interval)
}

// PlaneCloud builds a width×height point cloud whose coordinate at each
// pixel is given by f.
func PlaneCloud(width, height int, f func(p image.Point) r3.Vector) *pointcloud.Cloud {
	x := mat.NewDense(height, width, nil)
	y := mat.NewDense(height, width, nil)
	z := mat.NewDense(height, width, nil)
	for row := 0; row < height; row++ {
		for col := 0; col < width; col++ {
			v := f(image.Pt(col, row))
			x.Set(row, col, v.X)
			y.Set(row, col, v.Y)
			z.Set(row, col, v.Z)
		}
	}
	return pointcloud.New(x, y, z)
}

// ScaledCloud maps pixel (col, row) to (col*scale, row*scale, depth).
func ScaledCloud(width, height int, scale, depth float64) *pointcloud.Cloud {
	return PlaneCloud(width, height, func(p image.Point) r3.Vector {
		return r3.Vector{X: float64(p.X) * scale, Y: float64(p.Y) * scale, Z: depth}
	})
}
