package tracks

import (
	"math"
	"testing"

	"github.com/banshee-data/blobtrack/internal/blob/pointcloud"
	"github.com/banshee-data/blobtrack/internal/testutil"
	"github.com/golang/geo/r3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func assertVector(t *testing.T, want, got r3.Vector) {
	t.Helper()
	assert.InDelta(t, want.X, got.X, 1e-9, "X")
	assert.InDelta(t, want.Y, got.Y, 1e-9, "Y")
	assert.InDelta(t, want.Z, got.Z, 1e-9, "Z")
}

func TestFindVelocity(t *testing.T) {
	bt := newTestTracker(t, nil)

	// Slot 0 moves 10 px (0.1 m) in x per frame, slot 1 is seen once.
	mustUpdate(t, bt, square(20, 20, 0))
	mustUpdate(t, bt, square(30, 20, 1), square(100, 40, 1))

	vel, err := bt.FindVelocity(0.1)
	require.NoError(t, err)
	require.Len(t, vel, 4, "one entry per slot")
	assertVector(t, r3.Vector{X: 1}, vel[0])
	assert.Equal(t, r3.Vector{}, vel[1])
	assert.Equal(t, r3.Vector{}, vel[2])
	assert.Equal(t, r3.Vector{}, vel[3])

	// Newest minus second newest, so moving back flips the sign.
	mustUpdate(t, bt, square(25, 20, 2), square(100, 44, 2))
	vel, err = bt.FindVelocity(0.5)
	require.NoError(t, err)
	assertVector(t, r3.Vector{X: -0.1}, vel[0])
	assertVector(t, r3.Vector{Y: 0.08}, vel[1])
}

func TestFindVelocity_Stationary(t *testing.T) {
	bt := newTestTracker(t, nil)
	mustUpdate(t, bt, square(50, 30, 0))
	mustUpdate(t, bt, square(50, 30, 1))

	vel, err := bt.FindVelocity(0.1)
	require.NoError(t, err)
	assert.Equal(t, r3.Vector{}, vel[0])
}

func TestFindVelocity_InvalidDt(t *testing.T) {
	bt := newTestTracker(t, nil)
	for _, dt := range []float64{0, -1, math.NaN(), math.Inf(1)} {
		_, err := bt.FindVelocity(dt)
		assert.Error(t, err, "dt=%v", dt)
	}
}

func TestFindVelocity_CloudUnavailable(t *testing.T) {
	bt := newTestTracker(t, nil)
	mustUpdate(t, bt, square(20, 20, 0))
	mustUpdate(t, bt, square(22, 20, 1))

	bt.SetCloud(nil)
	vel, err := bt.FindVelocity(0.1)
	assert.ErrorIs(t, err, pointcloud.ErrUnavailable)
	require.Len(t, vel, 4)
	assert.Equal(t, r3.Vector{}, vel[0])

	// A cloud too small for the stored centres.
	bt.SetCloud(testutil.ScaledCloud(10, 10, 0.01, 3))
	_, err = bt.FindVelocity(0.1)
	assert.ErrorIs(t, err, pointcloud.ErrUnavailable)
}

func TestObservedVelocity(t *testing.T) {
	bt := newTestTracker(t, nil)
	mustUpdate(t, bt, square(20, 20, 0))
	mustUpdate(t, bt, square(30, 20, 1))

	observed, err := bt.ObservedVelocity()
	require.NoError(t, err)
	fixed, err := bt.FindVelocity(frameInterval.Seconds())
	require.NoError(t, err)
	assertVector(t, fixed[0], observed[0])
	assertVector(t, r3.Vector{X: 1}, observed[0])

	// Same timestamp twice cannot give a rate.
	mustUpdate(t, bt, square(32, 20, 1))
	observed, err = bt.ObservedVelocity()
	assert.Error(t, err)
	assert.Equal(t, r3.Vector{}, observed[0])
}
