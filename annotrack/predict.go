package annotrack

import (
	kalman_filter "github.com/LdDl/kalman-filter"
	"github.com/pkg/errors"
)

// BoxPredictor extrapolates a bounding box through short occlusions using an
// 8-D constant-velocity Kalman filter over box center and size. The objects
// tracker feeds it confirmed optical flow positions and asks it for a guess
// whenever the flow tracker loses the box; after maxMisses consecutive guesses
// the predictor gives up and the box stays absent.
type BoxPredictor struct {
	tracker   *kalman_filter.KalmanBBox
	misses    int
	maxMisses int
}

// NewBoxPredictor creates a predictor seeded with the object's current box
func NewBoxPredictor(initial BoundingBox, maxMisses int) *BoxPredictor {
	centerX := initial.X + initial.Width/2.0
	centerY := initial.Y + initial.Height/2.0

	// Kalman filter props
	dt := 1.0
	uCx := 1.0
	uCy := 1.0
	uW := 0.0
	uH := 0.0
	stdDevA := 2.0
	stdDevMCx := 0.1
	stdDevMCy := 0.1
	stdDevMW := 0.1
	stdDevMH := 0.1
	kf := kalman_filter.NewKalmanBBox(
		dt, uCx, uCy, uW, uH,
		stdDevA, stdDevMCx, stdDevMCy, stdDevMW, stdDevMH,
		kalman_filter.WithStateBBox(centerX, centerY, initial.Width, initial.Height),
	)
	return &BoxPredictor{
		tracker:   kf,
		maxMisses: maxMisses,
	}
}

// Observe feeds a confirmed box position into the filter and resets the miss budget
func (predictor *BoxPredictor) Observe(box BoundingBox) error {
	predictor.tracker.Predict()
	centerX := box.X + box.Width/2.0
	centerY := box.Y + box.Height/2.0
	err := predictor.tracker.Update(centerX, centerY, box.Width, box.Height)
	if err != nil {
		return errors.Wrap(err, "can't update box predictor")
	}
	predictor.misses = 0
	return nil
}

// PredictLost returns an extrapolated box while the optical flow tracker has
// lost the object, or nil once the miss budget is exhausted
func (predictor *BoxPredictor) PredictLost() *BoundingBox {
	if predictor.misses >= predictor.maxMisses {
		return nil
	}
	predictor.misses++
	predictor.tracker.Predict()
	centerX, centerY, width, height := predictor.tracker.GetState()
	if width <= 0 || height <= 0 {
		return nil
	}
	box := NewBoundingBox(centerX-width/2.0, centerY-height/2.0, width, height)
	return &box
}
