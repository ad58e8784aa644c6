package config

import (
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"
)

// DefaultConfigPath is the path to the canonical tuning defaults file.
// This is the single source of truth for all default tuning values.
const DefaultConfigPath = "config/tuning.defaults.json"

// TuningConfig represents the root configuration for the blob tracker.
// Every field is optional; the Get* accessors supply the default for any
// field the JSON omits, so partial configs are safe.
type TuningConfig struct {
	// Track store capacity
	MaxObjects *int `json:"max_objects,omitempty"`
	History    *int `json:"history,omitempty"`

	// Frame geometry used to normalise screen distances
	FrameWidth  *int `json:"frame_width,omitempty"`
	FrameHeight *int `json:"frame_height,omitempty"`

	// Scoring
	Alpha      *float64 `json:"alpha,omitempty"`       // shape (1) vs distance (0) blend
	CartNormal *float64 `json:"cart_normal,omitempty"` // metres
	MaxScore   *float64 `json:"max_score,omitempty"`   // absent means unbounded

	// Track expiry policy; 0 keeps tracks forever.
	MaxMisses *int `json:"max_misses,omitempty"`

	// Use screen distance when the point-cloud lookup for a pair fails.
	ScreenDistanceFallback *bool `json:"screen_distance_fallback,omitempty"`
}

// Helper functions to create pointers
func ptrFloat64(v float64) *float64 { return &v }
func ptrBool(v bool) *bool          { return &v }
func ptrInt(v int) *int             { return &v }

// EmptyTuningConfig returns a TuningConfig with all fields set to nil.
// Use LoadTuningConfig to load actual values from the defaults file.
func EmptyTuningConfig() *TuningConfig {
	return &TuningConfig{}
}

// DefaultTuningConfig returns a TuningConfig with every field populated from
// the built-in defaults. It matches config/tuning.defaults.json.
func DefaultTuningConfig() *TuningConfig {
	c := EmptyTuningConfig()
	return &TuningConfig{
		MaxObjects:             ptrInt(c.GetMaxObjects()),
		History:                ptrInt(c.GetHistory()),
		FrameWidth:             ptrInt(c.GetFrameWidth()),
		FrameHeight:            ptrInt(c.GetFrameHeight()),
		Alpha:                  ptrFloat64(c.GetAlpha()),
		CartNormal:             ptrFloat64(c.GetCartNormal()),
		MaxMisses:              ptrInt(c.GetMaxMisses()),
		ScreenDistanceFallback: ptrBool(c.GetScreenDistanceFallback()),
	}
}

// LoadTuningConfig loads a TuningConfig from a JSON file.
// The file is validated to ensure it has a .json extension and is under the max file size.
func LoadTuningConfig(path string) (*TuningConfig, error) {
	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".json" {
		return nil, fmt.Errorf("config file must have .json extension, got %q", ext)
	}

	// Check file size for safety (max 1MB)
	fileInfo, err := os.Stat(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	const maxFileSize = 1 * 1024 * 1024 // 1MB
	if fileInfo.Size() > maxFileSize {
		return nil, fmt.Errorf("config file too large: %d bytes (max %d)", fileInfo.Size(), maxFileSize)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := EmptyTuningConfig()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// MustLoadDefaultConfig loads the canonical tuning defaults from DefaultConfigPath.
// It searches for the file in the current directory and common parent directories.
// Panics if the file cannot be loaded, intended for test setup.
func MustLoadDefaultConfig() *TuningConfig {
	candidates := []string{
		DefaultConfigPath,
		"../../" + DefaultConfigPath,       // from internal/config/
		"../../../" + DefaultConfigPath,    // from internal/blob/tracks/
		"../../../../" + DefaultConfigPath, // deeper packages
	}
	for _, path := range candidates {
		if cfg, err := LoadTuningConfig(path); err == nil {
			return cfg
		}
	}
	panic("cannot find " + DefaultConfigPath + " - run tests from repository root")
}

// Validate checks that the configuration values are valid.
func (c *TuningConfig) Validate() error {
	if c.MaxObjects != nil && *c.MaxObjects < 1 {
		return fmt.Errorf("max_objects must be at least 1, got %d", *c.MaxObjects)
	}
	if c.History != nil && *c.History < 1 {
		return fmt.Errorf("history must be at least 1, got %d", *c.History)
	}
	if c.FrameWidth != nil && *c.FrameWidth <= 0 {
		return fmt.Errorf("frame_width must be positive, got %d", *c.FrameWidth)
	}
	if c.FrameHeight != nil && *c.FrameHeight <= 0 {
		return fmt.Errorf("frame_height must be positive, got %d", *c.FrameHeight)
	}
	if c.Alpha != nil {
		if math.IsNaN(*c.Alpha) || *c.Alpha < 0 || *c.Alpha > 1 {
			return fmt.Errorf("alpha must be between 0 and 1, got %f", *c.Alpha)
		}
	}
	if c.CartNormal != nil && !(*c.CartNormal > 0) {
		return fmt.Errorf("cart_normal must be positive, got %f", *c.CartNormal)
	}
	if c.MaxScore != nil && math.IsNaN(*c.MaxScore) {
		return fmt.Errorf("max_score must be a number")
	}
	if c.MaxMisses != nil && *c.MaxMisses < 0 {
		return fmt.Errorf("max_misses must be non-negative, got %d", *c.MaxMisses)
	}
	return nil
}

// GetMaxObjects returns the max_objects value or the default.
func (c *TuningConfig) GetMaxObjects() int {
	if c.MaxObjects == nil {
		return 10
	}
	return *c.MaxObjects
}

// GetHistory returns the history value or the default.
func (c *TuningConfig) GetHistory() int {
	if c.History == nil {
		return 3
	}
	return *c.History
}

// GetFrameWidth returns the frame_width value or the default.
func (c *TuningConfig) GetFrameWidth() int {
	if c.FrameWidth == nil {
		return 160
	}
	return *c.FrameWidth
}

// GetFrameHeight returns the frame_height value or the default.
func (c *TuningConfig) GetFrameHeight() int {
	if c.FrameHeight == nil {
		return 60
	}
	return *c.FrameHeight
}

// GetAlpha returns the alpha value or the default.
func (c *TuningConfig) GetAlpha() float64 {
	if c.Alpha == nil {
		return 0.5
	}
	return *c.Alpha
}

// GetCartNormal returns the cart_normal value or the default.
func (c *TuningConfig) GetCartNormal() float64 {
	if c.CartNormal == nil {
		return 2.0
	}
	return *c.CartNormal
}

// GetMaxScore returns the max_score value, or +Inf when unset.
func (c *TuningConfig) GetMaxScore() float64 {
	if c.MaxScore == nil {
		return math.Inf(1)
	}
	return *c.MaxScore
}

// GetMaxMisses returns the max_misses value or the default.
func (c *TuningConfig) GetMaxMisses() int {
	if c.MaxMisses == nil {
		return 0
	}
	return *c.MaxMisses
}

// GetScreenDistanceFallback returns the screen_distance_fallback value or the default.
func (c *TuningConfig) GetScreenDistanceFallback() bool {
	if c.ScreenDistanceFallback == nil {
		return false
	}
	return *c.ScreenDistanceFallback
}
