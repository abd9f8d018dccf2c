package annotrack

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func boxPtr(x, y, width, height float64) *BoundingBox {
	box := NewBoundingBox(x, y, width, height)
	return &box
}

func frameNumbers(obj *AnnotatedObject) []int {
	numbers := make([]int, 0, obj.Len())
	for _, frame := range obj.Frames() {
		numbers = append(numbers, frame.FrameNumber)
	}
	return numbers
}

// First fact at frame 5 must inject an invisible frame-0 entry
func TestAddInjectsOriginFrame(t *testing.T) {
	obj := NewAnnotatedObject()
	obj.Add(NewAnnotatedFrame(5, boxPtr(10, 20, 30, 40), true))

	origin := obj.Get(0)
	require.NotNil(t, origin)
	require.False(t, origin.IsVisible())
	require.False(t, origin.IsGroundTruth)

	atFive := obj.Get(5)
	require.NotNil(t, atFive)
	require.True(t, atFive.IsVisible())
	require.True(t, atFive.BBox.Equal(NewBoundingBox(10, 20, 30, 40)))

	require.Nil(t, obj.Get(3))
}

// Editing a ground truth frame invalidates the computed frames after it
func TestAddInvalidatesComputedFrames(t *testing.T) {
	obj := NewAnnotatedObject()
	obj.Add(NewAnnotatedFrame(5, boxPtr(0, 0, 10, 10), true))
	obj.Add(NewAnnotatedFrame(6, boxPtr(1, 0, 10, 10), false))
	obj.Add(NewAnnotatedFrame(5, boxPtr(2, 0, 10, 10), true))

	require.Nil(t, obj.Get(6))
	atFive := obj.Get(5)
	require.NotNil(t, atFive)
	require.True(t, atFive.BBox.Equal(NewBoundingBox(2, 0, 10, 10)))
}

// Invalidation stops at the next ground truth entry
func TestInvalidationStopsAtGroundTruth(t *testing.T) {
	obj := NewAnnotatedObject()
	obj.Add(NewAnnotatedFrame(5, boxPtr(0, 0, 10, 10), true))
	obj.Add(NewAnnotatedFrame(6, boxPtr(1, 0, 10, 10), false))
	obj.Add(NewAnnotatedFrame(7, boxPtr(2, 0, 10, 10), false))
	obj.Add(NewAnnotatedFrame(8, boxPtr(3, 0, 10, 10), true))
	obj.Add(NewAnnotatedFrame(9, boxPtr(4, 0, 10, 10), false))

	obj.Add(NewAnnotatedFrame(5, boxPtr(9, 0, 10, 10), true))

	require.Equal(t, []int{0, 5, 8, 9}, frameNumbers(obj))
}

// Inserting a fact in the middle invalidates the computed run after the insertion point
func TestInsertInMiddleInvalidatesForward(t *testing.T) {
	obj := NewAnnotatedObject()
	obj.Add(NewAnnotatedFrame(2, boxPtr(0, 0, 10, 10), true))
	obj.Add(NewAnnotatedFrame(3, boxPtr(1, 0, 10, 10), false))
	obj.Add(NewAnnotatedFrame(4, boxPtr(2, 0, 10, 10), false))

	obj.Add(NewAnnotatedFrame(1, boxPtr(5, 0, 10, 10), true))

	// 2 is ground truth, so invalidation stops there and 3, 4 survive
	require.Equal(t, []int{0, 1, 2, 3, 4}, frameNumbers(obj))

	obj.Add(NewAnnotatedFrame(2, boxPtr(6, 0, 10, 10), true))
	require.Equal(t, []int{0, 1, 2}, frameNumbers(obj))
}

// Frame numbers stay strictly increasing after any sequence of adds
func TestTimelineStaysStrictlyIncreasing(t *testing.T) {
	obj := NewAnnotatedObject()
	for _, n := range []int{7, 3, 9, 3, 0, 5, 7, 1} {
		obj.Add(NewAnnotatedFrame(n, boxPtr(float64(n), 0, 10, 10), n%2 == 0))
		numbers := frameNumbers(obj)
		require.Equal(t, 0, numbers[0])
		for i := 1; i < len(numbers); i++ {
			require.Greater(t, numbers[i], numbers[i-1])
		}
	}
}

// Get without an intervening Add returns equal results
func TestGetIsIdempotent(t *testing.T) {
	obj := NewAnnotatedObject()
	obj.Add(NewAnnotatedFrame(4, boxPtr(1, 2, 3, 4), true))

	first := obj.Get(4)
	second := obj.Get(4)
	require.NotNil(t, first)
	require.Equal(t, *first, *second)
}

func TestRemoveFramesToBeRecomputedFrom(t *testing.T) {
	obj := NewAnnotatedObject()
	obj.Add(NewAnnotatedFrame(0, boxPtr(0, 0, 10, 10), true))
	obj.Add(NewAnnotatedFrame(1, boxPtr(1, 0, 10, 10), false))
	obj.Add(NewAnnotatedFrame(2, boxPtr(2, 0, 10, 10), false))
	obj.Add(NewAnnotatedFrame(3, boxPtr(3, 0, 10, 10), true))

	obj.RemoveFramesToBeRecomputedFrom(1)
	require.Equal(t, []int{0, 3}, frameNumbers(obj))

	// Out of range indices are no-ops
	obj.RemoveFramesToBeRecomputedFrom(10)
	obj.RemoveFramesToBeRecomputedFrom(-1)
	require.Equal(t, []int{0, 3}, frameNumbers(obj))
}

func TestNewAnnotatedObjectFromFramesValidation(t *testing.T) {
	_, err := NewAnnotatedObjectFromFrames([]AnnotatedFrame{
		NewAnnotatedFrame(5, boxPtr(0, 0, 10, 10), true),
		NewAnnotatedFrame(3, boxPtr(0, 0, 10, 10), true),
	})
	require.Error(t, err)

	_, err = NewAnnotatedObjectFromFrames([]AnnotatedFrame{
		NewAnnotatedFrame(5, boxPtr(0, 0, 10, 10), true),
		NewAnnotatedFrame(5, boxPtr(0, 0, 10, 10), true),
	})
	require.Error(t, err)

	_, err = NewAnnotatedObjectFromFrames([]AnnotatedFrame{
		NewAnnotatedFrame(-1, boxPtr(0, 0, 10, 10), true),
	})
	require.Error(t, err)

	obj, err := NewAnnotatedObjectFromFrames([]AnnotatedFrame{
		NewAnnotatedFrame(2, boxPtr(0, 0, 10, 10), true),
		NewAnnotatedFrame(4, nil, false),
	})
	require.NoError(t, err)
	require.Equal(t, []int{0, 2, 4}, frameNumbers(obj))
}
