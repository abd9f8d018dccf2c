package annotrack

import (
	"github.com/pkg/errors"
)

// Invariant-violation errors. Each of them signals a broken caller contract or
// corrupted data rather than a transient condition, so none of them should be
// retried. Match with errors.Is.
var (
	// ErrTrackerNotInitialized is returned when Track() is called on the
	// optical flow tracker before Init().
	ErrTrackerNotInitialized = errors.New("optical flow tracker is not initialized")
	// ErrNoPointsToTrack is returned when Track() is called with zero visible boxes
	ErrNoPointsToTrack = errors.New("no visible boxes to track")
	// ErrCorruptedAnnotations is returned when no valid replay start frame
	// exists down to frame 0. It should be unreachable as long as every object
	// carries its injected frame-0 entry.
	ErrCorruptedAnnotations = errors.New("corrupted annotations: no valid start frame")
	// ErrSequentialTrackingViolation is returned when a frame is tracked out of
	// order: some object has no fact for the frame or for the frame before it.
	ErrSequentialTrackingViolation = errors.New("frames must be tracked sequentially")
)
