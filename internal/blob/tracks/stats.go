package tracks

// TrackerStats holds running counters since construction or the last
// ResetAll.
type TrackerStats struct {
	Cycles             int64 `json:"cycles"`
	Associations       int64 `json:"associations"`
	TracksCreated      int64 `json:"tracks_created"`
	TracksExpired      int64 `json:"tracks_expired"`
	DetectionsDropped  int64 `json:"detections_dropped"`
	DetectionsRejected int64 `json:"detections_rejected"`
	ActiveTracks       int   `json:"active_tracks"`
}

// DebugCollector receives every pairing the solver selected, with the
// score it was gated on. Allows decoupling from any visualisation code.
type DebugCollector interface {
	IsEnabled() bool
	RecordAssociation(slot, detection int, score float64, accepted bool)
}

// Stats returns the current counters.
func (bt *BlobTracker) Stats() TrackerStats {
	bt.mu.RLock()
	defer bt.mu.RUnlock()

	s := bt.stats
	for _, tr := range bt.slots {
		if tr.history.len() > 0 {
			s.ActiveTracks++
		}
	}
	return s
}
