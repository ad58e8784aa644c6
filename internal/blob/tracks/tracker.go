package tracks

import (
	"errors"
	"fmt"
	"image"
	"sync"
	"sync/atomic"
	"time"

	"github.com/banshee-data/blobtrack/internal/blob/contour"
	"github.com/banshee-data/blobtrack/internal/blob/match"
	"github.com/banshee-data/blobtrack/internal/blob/pointcloud"
	"github.com/banshee-data/blobtrack/internal/monitoring"
	"github.com/google/uuid"
	"gonum.org/v1/gonum/mat"
)

// ErrCapacityExceeded reports that a cycle had more new detections than
// free track slots. The excess detections are dropped.
var ErrCapacityExceeded = errors.New("tracks: track capacity exceeded")

var logf = monitoring.Component("blobtrack")

// Detection is one detected blob in a frame.
type Detection struct {
	Contour   contour.Contour
	Timestamp time.Time
}

// Observation is a detection accepted into a track, with its pixel centre
// resolved at acceptance.
type Observation struct {
	Detection
	Center image.Point
}

// SlotObservation pairs an observation with the slot that holds it.
type SlotObservation struct {
	Slot int
	Observation
}

// Track is the state of one claimed slot.
type Track struct {
	Slot      int
	ID        uuid.UUID // New identity each time the slot is claimed
	Hits      int       // Accepted observations since the slot was claimed
	Misses    int       // Consecutive cycles without a match
	FirstSeen time.Time

	history *history
}

// TrackSnapshot is a copy of a track's state that is safe to keep.
type TrackSnapshot struct {
	Slot         int
	ID           uuid.UUID
	Hits         int
	Misses       int
	FirstSeen    time.Time
	Observations []Observation // Oldest first
}

func (t *Track) snapshot() TrackSnapshot {
	return TrackSnapshot{
		Slot:         t.Slot,
		ID:           t.ID,
		Hits:         t.Hits,
		Misses:       t.Misses,
		FirstSeen:    t.FirstSeen,
		Observations: t.history.items(),
	}
}

// SlotMatch records a detection accepted into an existing track.
type SlotMatch struct {
	Slot      int
	Detection int // Index into the detections passed to Update
	Score     float64
}

// RejectedDetection is a detection that could not be considered for
// matching.
type RejectedDetection struct {
	Detection int
	Err       error
}

// UpdateResult describes what one Update cycle did.
type UpdateResult struct {
	Matched  []SlotMatch
	Created  []int // Slots claimed by new detections
	Dropped  []int // Detection indices lost to capacity
	Rejected []RejectedDetection
	Expired  []int // Slots released by the miss policy
}

// CapacityErr returns an error wrapping ErrCapacityExceeded when any
// detection was dropped, otherwise nil.
func (r UpdateResult) CapacityErr() error {
	if len(r.Dropped) == 0 {
		return nil
	}
	return fmt.Errorf("%w: dropped %d detection(s)", ErrCapacityExceeded, len(r.Dropped))
}

// candidate is the item type flowing through the matcher: an existing
// track's newest observation (slot >= 0) or an incoming detection.
type candidate struct {
	slot      int
	detection int
	obs       Observation
}

// BlobTracker associates blobs across frames into a fixed number of track
// slots.
type BlobTracker struct {
	// DebugCollector captures association decisions (optional)
	DebugCollector DebugCollector

	// Shape scores contour dissimilarity (optional). Nil uses
	// contour.ShapeDissimilarity with the configured ShapeMethod. Set it
	// before the first Update.
	Shape func(a, b contour.Contour) float64

	cfg     TrackerConfig
	slots   []*Track
	cloud   atomic.Pointer[pointcloud.Cloud]
	matcher *match.Matcher[candidate]
	stats   TrackerStats

	mu sync.RWMutex
}

// NewBlobTracker creates a tracker with cfg.MaxObjects empty slots.
func NewBlobTracker(cfg TrackerConfig) (*BlobTracker, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid tracker config: %w", err)
	}
	bt := &BlobTracker{
		cfg:   cfg,
		slots: make([]*Track, cfg.MaxObjects),
	}
	for i := range bt.slots {
		bt.slots[i] = &Track{Slot: i, history: newHistory(cfg.History)}
	}
	bt.matcher = match.NewMatcher[candidate](nil)
	return bt, nil
}

// Config returns the tracker configuration.
func (bt *BlobTracker) Config() TrackerConfig {
	return bt.cfg
}

// SetPointCloud replaces the coordinate planes used for scoring and
// velocity. The planes must not be mutated after the call.
func (bt *BlobTracker) SetPointCloud(x, y, z *mat.Dense) {
	bt.cloud.Store(pointcloud.New(x, y, z))
}

// SetCloud installs a prepared point-cloud snapshot. A nil cloud returns
// the tracker to the no-cloud state.
func (bt *BlobTracker) SetCloud(c *pointcloud.Cloud) {
	bt.cloud.Store(c)
}

// Update associates the frame's detections with the existing tracks.
// Matched detections extend their track's history; unmatched detections
// claim free slots in order until none remain.
//
// Detections with a degenerate contour are reported in the result and skip
// matching. The returned error is non-nil only when assignment fails, in
// which case no track is modified.
func (bt *BlobTracker) Update(detections []Detection) (UpdateResult, error) {
	bt.mu.Lock()
	defer bt.mu.Unlock()

	var res UpdateResult
	bt.stats.Cycles++

	groupB := make([]candidate, 0, len(detections))
	for i, d := range detections {
		center, err := d.Contour.Center()
		if err != nil {
			res.Rejected = append(res.Rejected, RejectedDetection{
				Detection: i,
				Err:       fmt.Errorf("detection %d: %w", i, err),
			})
			continue
		}
		groupB = append(groupB, candidate{
			slot:      -1,
			detection: i,
			obs:       Observation{Detection: d, Center: center},
		})
	}
	if n := len(res.Rejected); n > 0 {
		bt.stats.DetectionsRejected += int64(n)
		logf("cycle %d: rejected %d degenerate detection(s)", bt.stats.Cycles, n)
	}

	groupA := bt.lastCandidates()

	// One cloud snapshot for the whole cycle.
	cloud := bt.cloud.Load()
	bt.matcher.Score = func(a, b candidate) float64 {
		return bt.score(cloud, a.obs, b.obs)
	}
	out, err := bt.matcher.Match(groupA, groupB, bt.cfg.MaxScore)
	if err != nil {
		return res, fmt.Errorf("matching %d tracks to %d detections: %w", len(groupA), len(groupB), err)
	}

	matched := make(map[int]bool, len(out.Matched))
	for _, p := range out.Matched {
		tr := bt.slots[p.A.slot]
		tr.history.push(p.B.obs)
		tr.Hits++
		tr.Misses = 0
		matched[tr.Slot] = true
		res.Matched = append(res.Matched, SlotMatch{Slot: tr.Slot, Detection: p.B.detection, Score: p.Score})
	}
	bt.stats.Associations += int64(len(out.Matched))
	bt.recordAssociations(groupA, groupB, matched)

	for _, c := range groupA {
		if matched[c.slot] {
			continue
		}
		tr := bt.slots[c.slot]
		tr.Misses++
		if bt.cfg.MaxMisses > 0 && tr.Misses >= bt.cfg.MaxMisses {
			bt.release(tr)
			res.Expired = append(res.Expired, tr.Slot)
		}
	}
	if n := len(res.Expired); n > 0 {
		bt.stats.TracksExpired += int64(n)
		logf("cycle %d: expired %d track(s) after %d misses", bt.stats.Cycles, n, bt.cfg.MaxMisses)
	}

	for _, c := range out.UnmatchedB {
		tr := bt.freeSlot()
		if tr == nil {
			res.Dropped = append(res.Dropped, c.detection)
			continue
		}
		tr.ID = uuid.New()
		tr.FirstSeen = c.obs.Timestamp
		tr.Hits = 1
		tr.Misses = 0
		tr.history.push(c.obs)
		res.Created = append(res.Created, tr.Slot)
	}
	bt.stats.TracksCreated += int64(len(res.Created))
	if n := len(res.Dropped); n > 0 {
		bt.stats.DetectionsDropped += int64(n)
		logf("cycle %d: %v", bt.stats.Cycles, res.CapacityErr())
	}

	return res, nil
}

// lastCandidates builds group A from the newest observation of every
// non-empty slot, in slot order.
func (bt *BlobTracker) lastCandidates() []candidate {
	out := make([]candidate, 0, len(bt.slots))
	for _, tr := range bt.slots {
		if obs, ok := tr.history.last(); ok {
			out = append(out, candidate{slot: tr.Slot, detection: -1, obs: obs})
		}
	}
	return out
}

// recordAssociations reports every pair the solver chose, accepted or
// gated, to the debug collector.
func (bt *BlobTracker) recordAssociations(groupA, groupB []candidate, matched map[int]bool) {
	if bt.DebugCollector == nil || !bt.DebugCollector.IsEnabled() {
		return
	}
	costs := bt.matcher.LastCosts()
	if costs == nil {
		return
	}
	for i, j := range bt.matcher.LastAssignment().RowAssign {
		if j == match.NoMatch {
			continue
		}
		slot := groupA[i].slot
		bt.DebugCollector.RecordAssociation(slot, groupB[j].detection, costs.At(i, j), matched[slot])
	}
}

func (bt *BlobTracker) freeSlot() *Track {
	for _, tr := range bt.slots {
		if tr.history.len() == 0 {
			return tr
		}
	}
	return nil
}

func (bt *BlobTracker) release(tr *Track) {
	tr.history.reset()
	tr.ID = uuid.Nil
	tr.Hits = 0
	tr.Misses = 0
	tr.FirstSeen = time.Time{}
}

// LastObjects returns the newest observation of every non-empty slot, in
// slot order.
func (bt *BlobTracker) LastObjects() []SlotObservation {
	bt.mu.RLock()
	defer bt.mu.RUnlock()

	var out []SlotObservation
	for _, tr := range bt.slots {
		if obs, ok := tr.history.last(); ok {
			out = append(out, SlotObservation{Slot: tr.Slot, Observation: obs})
		}
	}
	return out
}

// Track returns a snapshot of the given slot. ok is false when the slot is
// out of range or empty.
func (bt *BlobTracker) Track(slot int) (snap TrackSnapshot, ok bool) {
	bt.mu.RLock()
	defer bt.mu.RUnlock()

	if slot < 0 || slot >= len(bt.slots) || bt.slots[slot].history.len() == 0 {
		return TrackSnapshot{}, false
	}
	return bt.slots[slot].snapshot(), true
}

// Tracks returns snapshots of every non-empty slot, in slot order.
func (bt *BlobTracker) Tracks() []TrackSnapshot {
	bt.mu.RLock()
	defer bt.mu.RUnlock()

	var out []TrackSnapshot
	for _, tr := range bt.slots {
		if tr.history.len() > 0 {
			out = append(out, tr.snapshot())
		}
	}
	return out
}

// Reset empties one slot so it can be claimed again.
func (bt *BlobTracker) Reset(slot int) error {
	bt.mu.Lock()
	defer bt.mu.Unlock()

	if slot < 0 || slot >= len(bt.slots) {
		return fmt.Errorf("slot %d out of range [0, %d)", slot, len(bt.slots))
	}
	bt.release(bt.slots[slot])
	return nil
}

// ResetAll empties every slot and clears the counters. The point cloud is
// kept.
func (bt *BlobTracker) ResetAll() {
	bt.mu.Lock()
	defer bt.mu.Unlock()

	for _, tr := range bt.slots {
		bt.release(tr)
	}
	bt.stats = TrackerStats{}
}
