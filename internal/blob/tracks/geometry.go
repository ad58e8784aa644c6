package tracks

import (
	"math"

	"github.com/banshee-data/blobtrack/internal/blob/contour"
	"github.com/banshee-data/blobtrack/internal/blob/pointcloud"
	"github.com/golang/geo/r3"
)

// ScreenDistance returns the pixel distance between the centres of a and b
// divided by the frame diagonal. In-frame objects score within [0, 1].
func (bt *BlobTracker) ScreenDistance(a, b Observation) float64 {
	dx := float64(a.Center.X - b.Center.X)
	dy := float64(a.Center.Y - b.Center.Y)
	diag := math.Hypot(float64(bt.cfg.Width), float64(bt.cfg.Height))
	return math.Hypot(dx, dy) / diag
}

// CartesianDistance returns the 3D distance between the centres of a and b
// in the current point cloud, divided by CartNormal. It returns an error
// wrapping pointcloud.ErrUnavailable when no cloud is set or a centre falls
// outside it.
func (bt *BlobTracker) CartesianDistance(a, b Observation) (float64, error) {
	return bt.cartesianDistance(bt.cloud.Load(), a, b)
}

// CartesianPosition looks up the 3D position of o's centre in the current
// point cloud.
func (bt *BlobTracker) CartesianPosition(o Observation) (r3.Vector, error) {
	return bt.cloud.Load().Lookup(o.Center)
}

// ScoreFunc returns the dissimilarity of two observations:
//
//	(1 - Alpha)·CartesianDistance + Alpha·ShapeDissimilarity
//
// A pair whose distance cannot be computed scores +Inf unless
// ScreenFallback is set. A NaN score is reported as +Inf.
func (bt *BlobTracker) ScoreFunc(a, b Observation) float64 {
	return bt.score(bt.cloud.Load(), a, b)
}

func (bt *BlobTracker) cartesianDistance(cloud *pointcloud.Cloud, a, b Observation) (float64, error) {
	pa, err := cloud.Lookup(a.Center)
	if err != nil {
		return 0, err
	}
	pb, err := cloud.Lookup(b.Center)
	if err != nil {
		return 0, err
	}
	return pa.Sub(pb).Norm() / bt.cfg.CartNormal, nil
}

func (bt *BlobTracker) score(cloud *pointcloud.Cloud, a, b Observation) float64 {
	alpha := bt.cfg.Alpha

	// A zero weight drops its term entirely so an unavailable distance
	// (+Inf) cannot turn into NaN.
	var s float64
	if alpha < 1 {
		dist, err := bt.cartesianDistance(cloud, a, b)
		if err != nil {
			if !bt.cfg.ScreenFallback {
				return math.Inf(1)
			}
			dist = bt.ScreenDistance(a, b)
		}
		s += (1 - alpha) * dist
	}
	if alpha > 0 {
		s += alpha * bt.shape(a.Contour, b.Contour)
	}
	if math.IsNaN(s) {
		return math.Inf(1)
	}
	return s
}

func (bt *BlobTracker) shape(a, b contour.Contour) float64 {
	if bt.Shape != nil {
		return bt.Shape(a, b)
	}
	return contour.ShapeDissimilarity(a, b, bt.cfg.ShapeMethod)
}
