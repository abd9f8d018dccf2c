package annotrack

import (
	"github.com/google/uuid"
	"github.com/pkg/errors"
)

// ObjectClass is an optional user-facing tag on an annotated object
type ObjectClass struct {
	Name  string
	Color string
}

// AnnotatedObject is an ordered, gap-tolerant timeline of AnnotatedFrame facts
// for a single tracked entity. Frame numbers are strictly increasing with no
// duplicates, and after any mutation that adds at least one fact the timeline
// always contains an entry for frame 0 (an invisible non-ground-truth one is
// injected if none was supplied).
type AnnotatedObject struct {
	id     uuid.UUID
	class  *ObjectClass
	frames []AnnotatedFrame
}

// NewAnnotatedObject creates a new object with an empty timeline
func NewAnnotatedObject() *AnnotatedObject {
	return &AnnotatedObject{
		id:     uuid.New(),
		frames: make([]AnnotatedFrame, 0, 16),
	}
}

// NewAnnotatedObjectWithClass creates a new object tagged with the given class
func NewAnnotatedObjectWithClass(class *ObjectClass) *AnnotatedObject {
	obj := NewAnnotatedObject()
	obj.class = class
	return obj
}

// NewAnnotatedObjectFromFrames creates an object from an imported timeline.
// The input must already be strictly increasing by frame number with no
// duplicates; anything else is rejected with a validation error instead of
// being silently reordered.
func NewAnnotatedObjectFromFrames(frames []AnnotatedFrame) (*AnnotatedObject, error) {
	obj := NewAnnotatedObject()
	prev := -1
	for _, frame := range frames {
		if frame.FrameNumber < 0 {
			return nil, errors.Errorf("invalid frame number %d: must be >= 0", frame.FrameNumber)
		}
		if frame.FrameNumber <= prev {
			return nil, errors.Errorf("frame numbers must be strictly increasing: %d follows %d", frame.FrameNumber, prev)
		}
		prev = frame.FrameNumber
		obj.Add(frame)
	}
	return obj, nil
}

// GetID returns object's identifier
func (obj *AnnotatedObject) GetID() uuid.UUID {
	return obj.id
}

// SetID sets object's identifier
func (obj *AnnotatedObject) SetID(newID uuid.UUID) {
	obj.id = newID
}

// GetClass returns object's class tag (may be nil)
func (obj *AnnotatedObject) GetClass() *ObjectClass {
	return obj.class
}

// SetClass sets object's class tag
func (obj *AnnotatedObject) SetClass(class *ObjectClass) {
	obj.class = class
}

// Frames returns object's timeline. Be careful: this is not a copy of the timeline, but a reference to it
func (obj *AnnotatedObject) Frames() []AnnotatedFrame {
	return obj.frames
}

// Len returns the number of recorded facts
func (obj *AnnotatedObject) Len() int {
	return len(obj.frames)
}

// Add records a fact into the timeline. A fact for an already known frame
// replaces the old one in place; otherwise the fact is inserted preserving the
// strict ascending order. Either way, the maximal run of consecutive
// non-ground-truth facts after the edit point is invalidated, because they were
// computed from data that just changed. May therefore delete zero or more
// trailing computed entries.
func (obj *AnnotatedObject) Add(frame AnnotatedFrame) {
	for i := range obj.frames {
		if obj.frames[i].FrameNumber == frame.FrameNumber {
			obj.frames[i] = frame
			obj.RemoveFramesToBeRecomputedFrom(i + 1)
			obj.InjectInvisibleFrameAtOrigin()
			return
		}
		if obj.frames[i].FrameNumber > frame.FrameNumber {
			obj.frames = append(obj.frames, AnnotatedFrame{})
			copy(obj.frames[i+1:], obj.frames[i:])
			obj.frames[i] = frame
			obj.RemoveFramesToBeRecomputedFrom(i + 1)
			obj.InjectInvisibleFrameAtOrigin()
			return
		}
	}
	obj.frames = append(obj.frames, frame)
	obj.InjectInvisibleFrameAtOrigin()
}

// Get returns the fact recorded for the exact frame number, or nil if none
// exists. The ascending order lets the scan stop early.
func (obj *AnnotatedObject) Get(frameNumber int) *AnnotatedFrame {
	for i := range obj.frames {
		if obj.frames[i].FrameNumber == frameNumber {
			return &obj.frames[i]
		}
		if obj.frames[i].FrameNumber > frameNumber {
			break
		}
	}
	return nil
}

// RemoveFramesToBeRecomputedFrom deletes the maximal run of consecutive
// non-ground-truth facts beginning at startIndex, stopping at the first ground
// truth fact or the end of the timeline. Ground truth is authoritative and is
// never silently discarded.
func (obj *AnnotatedObject) RemoveFramesToBeRecomputedFrom(startIndex int) {
	if startIndex < 0 || startIndex >= len(obj.frames) {
		return
	}
	end := startIndex
	for end < len(obj.frames) && !obj.frames[end].IsGroundTruth {
		end++
	}
	if end > startIndex {
		obj.frames = append(obj.frames[:startIndex], obj.frames[end:]...)
	}
}

// InjectInvisibleFrameAtOrigin guarantees that index 0 of the timeline
// corresponds to frame 0, injecting an invisible non-ground-truth fact at the
// head if the first real entry starts later.
func (obj *AnnotatedObject) InjectInvisibleFrameAtOrigin() {
	if len(obj.frames) > 0 && obj.frames[0].FrameNumber == 0 {
		return
	}
	obj.frames = append(obj.frames, AnnotatedFrame{})
	copy(obj.frames[1:], obj.frames)
	obj.frames[0] = NewAnnotatedFrame(0, nil, false)
}
