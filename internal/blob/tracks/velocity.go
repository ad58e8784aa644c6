package tracks

import (
	"errors"
	"fmt"
	"math"

	"github.com/banshee-data/blobtrack/internal/blob/pointcloud"
	"github.com/golang/geo/r3"
)

// FindVelocity returns one velocity per slot, in slot order, computed as
// (position(newest) - position(second newest)) / dt with both centres
// looked up in the current point cloud. Slots holding fewer than two
// observations get the zero vector.
//
// A slot whose positions cannot be looked up also gets the zero vector; the
// lookup failures are joined into the returned error.
func (bt *BlobTracker) FindVelocity(dt float64) ([]r3.Vector, error) {
	if !(dt > 0) || math.IsInf(dt, 1) {
		return nil, fmt.Errorf("dt must be positive and finite, got %v", dt)
	}
	return bt.velocities(func(prev, last Observation) (float64, error) {
		return dt, nil
	})
}

// ObservedVelocity is FindVelocity with dt taken from the timestamps of the
// two newest observations in each slot. Slots whose timestamps do not
// increase get the zero vector and contribute an error.
func (bt *BlobTracker) ObservedVelocity() ([]r3.Vector, error) {
	return bt.velocities(func(prev, last Observation) (float64, error) {
		dt := last.Timestamp.Sub(prev.Timestamp).Seconds()
		if dt <= 0 {
			return 0, fmt.Errorf("non-increasing timestamps (%v)", last.Timestamp.Sub(prev.Timestamp))
		}
		return dt, nil
	})
}

func (bt *BlobTracker) velocities(elapsed func(prev, last Observation) (float64, error)) ([]r3.Vector, error) {
	bt.mu.RLock()
	defer bt.mu.RUnlock()

	cloud := bt.cloud.Load()
	out := make([]r3.Vector, len(bt.slots))
	var errs []error
	for i, tr := range bt.slots {
		prev, last, ok := tr.history.lastTwo()
		if !ok {
			continue
		}
		dt, err := elapsed(prev, last)
		if err != nil {
			errs = append(errs, fmt.Errorf("slot %d: %w", i, err))
			continue
		}
		v, err := displacement(cloud, prev, last)
		if err != nil {
			errs = append(errs, fmt.Errorf("slot %d: %w", i, err))
			continue
		}
		out[i] = v.Mul(1 / dt)
	}
	return out, errors.Join(errs...)
}

func displacement(cloud *pointcloud.Cloud, prev, last Observation) (r3.Vector, error) {
	p0, err := cloud.Lookup(last.Center)
	if err != nil {
		return r3.Vector{}, err
	}
	p1, err := cloud.Lookup(prev.Center)
	if err != nil {
		return r3.Vector{}, err
	}
	return p0.Sub(p1), nil
}
