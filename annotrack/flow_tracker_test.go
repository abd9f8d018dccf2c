package annotrack

import (
	"image"
	"image/color"
	"math"
	"testing"

	"github.com/stretchr/testify/require"
)

// testPattern is a smooth, textured intensity field with non-degenerate
// gradients in both axes, so Lucas-Kanade windows are well conditioned
// everywhere
func testPattern(x, y float64) uint8 {
	v := 128.0 +
		55.0*math.Sin(0.17*x)*math.Cos(0.13*y) +
		30.0*math.Sin(0.07*(x+y))
	if v < 0 {
		v = 0
	} else if v > 255 {
		v = 255
	}
	return uint8(v)
}

// patternImage renders the test pattern shifted by (dx, dy): content that was
// at (x, y) in the unshifted image appears at (x+dx, y+dy)
func patternImage(width, height, dx, dy int) *image.Gray {
	img := image.NewGray(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.SetGray(x, y, color.Gray{Y: testPattern(float64(x-dx), float64(y-dy))})
		}
	}
	return img
}

// A box over content moving with a constant pixel offset per frame must be
// reproduced within 1px at every step
func TestTrackConstantOffsetRoundTrip(t *testing.T) {
	const width, height = 160, 120
	const stepX, stepY = 2, 1

	tracker := NewSparseOpticalFlowTracker()
	tracker.Init(patternImage(width, height, 0, 0))

	box := boxPtr(50, 40, 40, 30)
	for step := 1; step <= 3; step++ {
		results, err := tracker.Track(patternImage(width, height, step*stepX, step*stepY), []*BoundingBox{box})
		require.NoError(t, err)
		require.Len(t, results, 1)
		require.NotNil(t, results[0], "box lost at step %d", step)

		expected := box.Translate(stepX, stepY)
		require.InDelta(t, expected.X, results[0].X, 1.0, "step %d", step)
		require.InDelta(t, expected.Y, results[0].Y, 1.0, "step %d", step)
		require.InDelta(t, box.Width, results[0].Width, 1.0, "step %d", step)
		require.InDelta(t, box.Height, results[0].Height, 1.0, "step %d", step)
		box = results[0]
	}
}

// Track before Init must fail with the dedicated error
func TestTrackBeforeInit(t *testing.T) {
	tracker := NewSparseOpticalFlowTracker()
	_, err := tracker.Track(patternImage(64, 64, 0, 0), []*BoundingBox{boxPtr(10, 10, 20, 20)})
	require.ErrorIs(t, err, ErrTrackerNotInitialized)
}

// Track with zero visible boxes must fail with the dedicated error
func TestTrackNothingToTrack(t *testing.T) {
	tracker := NewSparseOpticalFlowTracker()
	tracker.Init(patternImage(64, 64, 0, 0))
	_, err := tracker.Track(patternImage(64, 64, 0, 0), []*BoundingBox{nil, nil})
	require.ErrorIs(t, err, ErrNoPointsToTrack)
}

// Absent boxes contribute no flow work and stay absent in the result
func TestTrackSkipsAbsentBoxes(t *testing.T) {
	const width, height = 160, 120
	tracker := NewSparseOpticalFlowTracker()
	tracker.Init(patternImage(width, height, 0, 0))

	results, err := tracker.Track(patternImage(width, height, 2, 1), []*BoundingBox{boxPtr(50, 40, 40, 30), nil})
	require.NoError(t, err)
	require.Len(t, results, 2)
	require.NotNil(t, results[0])
	require.Nil(t, results[1])
	require.InDelta(t, 52.0, results[0].X, 1.0)
	require.InDelta(t, 41.0, results[0].Y, 1.0)
}

// Reset flags the tracker stale without breaking a later Init/Track cycle
func TestResetRequiresReinit(t *testing.T) {
	tracker := NewSparseOpticalFlowTracker()
	tracker.Init(patternImage(64, 64, 0, 0))
	require.True(t, tracker.IsInitialized())

	tracker.Reset()
	require.False(t, tracker.IsInitialized())
	_, err := tracker.Track(patternImage(64, 64, 1, 0), []*BoundingBox{boxPtr(10, 10, 20, 20)})
	require.ErrorIs(t, err, ErrTrackerNotInitialized)

	tracker.Init(patternImage(64, 64, 0, 0))
	results, err := tracker.Track(patternImage(64, 64, 1, 0), []*BoundingBox{boxPtr(16, 16, 30, 30)})
	require.NoError(t, err)
	require.NotNil(t, results[0])
}

// A box translated beyond the image border is clamped inside the 1-pixel
// border and collapses to absent instead of getting a negative size
func TestTranslateBoxClampAndCollapse(t *testing.T) {
	const width, height = 160, 120
	tracker := NewSparseOpticalFlowTracker()
	tracker.current.Rebuild(patternImage(width, height, 0, 0))

	before := []Point{{X: 10, Y: 10}}
	ok := []bool{true}

	// Moderate overshoot: clamped but still a valid box
	moved := tracker.translateBox(boxPtr(140, 100, 10, 10), before, []Point{{X: 20, Y: 10}}, ok)
	require.NotNil(t, moved)
	require.Equal(t, 150.0, moved.X)
	require.Equal(t, 8.0, moved.Width) // right edge clamped to width-2
	require.Greater(t, moved.Width, 0.0)
	require.Greater(t, moved.Height, 0.0)

	// Full overshoot: both edges clamp to the same line, box collapses
	collapsed := tracker.translateBox(boxPtr(150, 100, 8, 10), before, []Point{{X: 25, Y: 10}}, ok)
	require.Nil(t, collapsed)

	// Every point failed: the object is lost
	lost := tracker.translateBox(boxPtr(50, 50, 10, 10), before, []Point{{X: 12, Y: 10}}, []bool{false})
	require.Nil(t, lost)
}
