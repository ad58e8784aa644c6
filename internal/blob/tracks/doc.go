// Package tracks owns the bounded-history track store for blob tracking.
//
// Responsibilities: per-frame association of detections to tracks through
// package match, a fixed arena of track slots each holding a ring buffer of
// accepted observations, blended distance/shape scoring against the current
// point cloud, and finite-difference velocity.
// Key types: BlobTracker, Detection, Observation, TrackerConfig.
//
// Update, Reset and ResetAll take the write lock, so concurrent calls are
// serialised. Diagnostic readers (LastObjects, Tracks, Stats, FindVelocity)
// take a read lock. The point cloud is swapped whole by SetPointCloud and
// each Update reads one snapshot for its entire cycle.
//
// Dependency rule: tracks may depend on contour, pointcloud, match, config
// and monitoring.
package tracks
