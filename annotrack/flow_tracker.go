package annotrack

import (
	"image"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/stat"
)

// FlowConfig carries the tuning constants of the sparse optical flow tracker.
// The defaults are the empirically stable values the annotation pipeline has
// always used; override them only deliberately.
type FlowConfig struct {
	// PyramidLevels is the number of pyramid levels. Default 3
	PyramidLevels int
	// WindowSize is the Lucas-Kanade integration window size. Default 30
	WindowSize int
	// MaxIterations is the iteration budget per pyramid level. Default 30
	MaxIterations int
	// Epsilon is the per-iteration convergence threshold. Default 0.01
	Epsilon float64
	// MinEigenvalue rejects points whose local gradient is too weak to track. Default 0.001
	MinEigenvalue float64
	// GridSize is the per-axis number of sample points laid over each box,
	// GridSize^2 points in total. Default 11
	GridSize int
	// ClampBorder is the number of pixels reserved at the image boundary when
	// clamping translated boxes. Default 1
	ClampBorder int
}

// NewDefaultFlowConfig returns the default tracking constants
func NewDefaultFlowConfig() FlowConfig {
	return FlowConfig{
		PyramidLevels: 3,
		WindowSize:    30,
		MaxIterations: 30,
		Epsilon:       0.01,
		MinEigenvalue: 0.001,
		GridSize:      11,
		ClampBorder:   1,
	}
}

// SparseOpticalFlowTracker estimates a per-box translation vector between two
// consecutive frames from a uniform grid of tracked points. It owns two
// reusable grayscale pyramids ("previous" and "current") which are mutated and
// swapped in place; access them exclusively through Init/Track/Reset.
// It keeps no history - it is a pure frame-to-frame transform engine.
type SparseOpticalFlowTracker struct {
	config        FlowConfig
	previous      *Pyramid
	current       *Pyramid
	isInitialized bool
}

// NewSparseOpticalFlowTracker creates a tracker with default constants
func NewSparseOpticalFlowTracker() *SparseOpticalFlowTracker {
	return NewSparseOpticalFlowTrackerWithConfig(NewDefaultFlowConfig())
}

// NewSparseOpticalFlowTrackerWithConfig creates a tracker with the given constants
func NewSparseOpticalFlowTrackerWithConfig(config FlowConfig) *SparseOpticalFlowTracker {
	return &SparseOpticalFlowTracker{
		config:   config,
		previous: NewPyramid(config.PyramidLevels),
		current:  NewPyramid(config.PyramidLevels),
	}
}

// Init loads img as the "previous" frame and makes the tracker ready for Track
func (tracker *SparseOpticalFlowTracker) Init(img image.Image) {
	tracker.previous.Rebuild(img)
	tracker.isInitialized = true
}

// Reset flags the tracker as uninitialized. Pyramid buffers stay allocated so
// a later Init on same-sized frames does not reallocate.
func (tracker *SparseOpticalFlowTracker) Reset() {
	tracker.isInitialized = false
}

// IsInitialized reports whether Init has been called since the last Reset
func (tracker *SparseOpticalFlowTracker) IsInitialized() bool {
	return tracker.isInitialized
}

// Track estimates the new position of every box between the "previous" frame
// and img. The result has the same length and order as boxes; nil entries in
// boxes stay nil (nothing to compute), and a tracked box becomes nil when it
// is lost (no point tracked successfully, or the clamped box degenerates).
// After a successful call the pyramids are swapped so the next consecutive
// call needs no re-Init.
func (tracker *SparseOpticalFlowTracker) Track(img image.Image, boxes []*BoundingBox) ([]*BoundingBox, error) {
	if !tracker.isInitialized {
		return nil, errors.Wrap(ErrTrackerNotInitialized, "can't track boxes")
	}
	anyVisible := false
	for _, box := range boxes {
		if box != nil {
			anyVisible = true
			break
		}
	}
	if !anyVisible {
		return nil, errors.Wrap(ErrNoPointsToTrack, "can't track boxes")
	}

	tracker.current.Rebuild(img)

	pointsPerBox := tracker.config.GridSize * tracker.config.GridSize
	points := make([]Point, 0, pointsPerBox*len(boxes))
	for _, box := range boxes {
		if box == nil {
			continue
		}
		points = appendGridPoints(points, box, tracker.config.GridSize)
	}

	moved, ok := trackPointsPyramidal(tracker.previous, tracker.current, points, tracker.config)

	results := make([]*BoundingBox, len(boxes))
	offset := 0
	for i, box := range boxes {
		if box == nil {
			continue
		}
		results[i] = tracker.translateBox(box, points[offset:offset+pointsPerBox], moved[offset:offset+pointsPerBox], ok[offset:offset+pointsPerBox])
		offset += pointsPerBox
	}

	// Swap so the frame just tracked becomes the "previous" frame of the next call
	tracker.previous, tracker.current = tracker.current, tracker.previous
	return results, nil
}

// appendGridPoints lays a uniform GridSize x GridSize grid over the interior
// of the box, edges inclusive
func appendGridPoints(points []Point, box *BoundingBox, gridSize int) []Point {
	step := float64(gridSize - 1)
	for gy := 0; gy < gridSize; gy++ {
		y := box.Y + box.Height*float64(gy)/step
		for gx := 0; gx < gridSize; gx++ {
			x := box.X + box.Width*float64(gx)/step
			points = append(points, Point{X: x, Y: y})
		}
	}
	return points
}

// translateBox fits a single rigid translation (no rotation or scale - boxes
// are assumed rigid between consecutive frames) mapping the successfully
// tracked "before" points to their "after" positions, applies it to the box
// edges and clamps the result inside the image with the configured border.
// Returns nil when the object is lost or the clamped box degenerates.
func (tracker *SparseOpticalFlowTracker) translateBox(box *BoundingBox, before, after []Point, ok []bool) *BoundingBox {
	dxs := make([]float64, 0, len(before))
	dys := make([]float64, 0, len(before))
	for i := range before {
		if !ok[i] {
			continue
		}
		dxs = append(dxs, after[i].X-before[i].X)
		dys = append(dys, after[i].Y-before[i].Y)
	}
	if len(dxs) == 0 {
		// Every sample point failed: the object is considered lost or occluded
		return nil
	}
	// Least-squares translation fit is the mean displacement
	tx := stat.Mean(dxs, nil)
	ty := stat.Mean(dys, nil)

	maxX := float64(tracker.current.Width()-1) - float64(tracker.config.ClampBorder)
	maxY := float64(tracker.current.Height()-1) - float64(tracker.config.ClampBorder)
	x1 := clampFloat64(box.X+tx, 0, maxX)
	y1 := clampFloat64(box.Y+ty, 0, maxY)
	x2 := clampFloat64(box.X+box.Width+tx, 0, maxX)
	y2 := clampFloat64(box.Y+box.Height+ty, 0, maxY)
	if x2-x1 <= 0 || y2-y1 <= 0 {
		return nil
	}
	result := NewBoundingBox(x1, y1, x2-x1, y2-y1)
	return &result
}
