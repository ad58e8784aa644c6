package tracks

import (
	"fmt"
	"math"

	"github.com/banshee-data/blobtrack/internal/blob/contour"
	"github.com/banshee-data/blobtrack/internal/config"
)

// TrackerConfig holds configuration parameters for the blob tracker.
type TrackerConfig struct {
	MaxObjects int // Number of track slots
	History    int // Observations kept per track

	// Frame dimensions in pixels, used to normalise screen distance
	Width  int
	Height int

	Alpha      float64 // 0 = distance only, 1 = shape only
	CartNormal float64 // Metres mapped to a distance score of 1
	MaxScore   float64 // Pairs scoring at or above this are rejected; +Inf disables the gate

	// MaxMisses releases a slot after this many consecutive unmatched
	// cycles. Zero keeps every claimed slot forever.
	MaxMisses int

	// ScreenFallback scores a pair by screen distance when the point-cloud
	// lookup fails, instead of treating it as maximally dissimilar.
	ScreenFallback bool

	ShapeMethod contour.MatchMethod
}

// DefaultTrackerConfig returns tracker configuration loaded from the
// canonical tuning defaults file (config/tuning.defaults.json).
// Panics if the file cannot be found.
func DefaultTrackerConfig() TrackerConfig {
	return TrackerConfigFromTuning(config.MustLoadDefaultConfig())
}

// TrackerConfigFromTuning builds a TrackerConfig from a loaded TuningConfig.
func TrackerConfigFromTuning(cfg *config.TuningConfig) TrackerConfig {
	return TrackerConfig{
		MaxObjects:     cfg.GetMaxObjects(),
		History:        cfg.GetHistory(),
		Width:          cfg.GetFrameWidth(),
		Height:         cfg.GetFrameHeight(),
		Alpha:          cfg.GetAlpha(),
		CartNormal:     cfg.GetCartNormal(),
		MaxScore:       cfg.GetMaxScore(),
		MaxMisses:      cfg.GetMaxMisses(),
		ScreenFallback: cfg.GetScreenDistanceFallback(),
		ShapeMethod:    contour.MatchI3,
	}
}

// Validate checks that the configuration can drive a tracker.
func (c TrackerConfig) Validate() error {
	switch {
	case c.MaxObjects < 1:
		return fmt.Errorf("max objects must be at least 1, got %d", c.MaxObjects)
	case c.History < 1:
		return fmt.Errorf("history must be at least 1, got %d", c.History)
	case c.Width <= 0 || c.Height <= 0:
		return fmt.Errorf("frame size must be positive, got %dx%d", c.Width, c.Height)
	case math.IsNaN(c.Alpha) || c.Alpha < 0 || c.Alpha > 1:
		return fmt.Errorf("alpha must be between 0 and 1, got %f", c.Alpha)
	case !(c.CartNormal > 0) || math.IsInf(c.CartNormal, 1):
		return fmt.Errorf("cart normal must be positive and finite, got %f", c.CartNormal)
	case math.IsNaN(c.MaxScore):
		return fmt.Errorf("max score must be a number")
	case c.MaxMisses < 0:
		return fmt.Errorf("max misses must be non-negative, got %d", c.MaxMisses)
	}
	switch c.ShapeMethod {
	case contour.MatchI1, contour.MatchI2, contour.MatchI3:
	default:
		return fmt.Errorf("unknown shape match method %d", c.ShapeMethod)
	}
	return nil
}
