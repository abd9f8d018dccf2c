package annotrack

// AnnotatedFrame is a single fact about a tracked object: its bounding box at
// one frame (nil = not visible), and whether the fact was supplied by a human
// (ground truth) or computed by the optical flow tracker.
// A fact is immutable once recorded; a changed fact is represented by a new
// AnnotatedFrame replacing the old one in the owning timeline.
type AnnotatedFrame struct {
	FrameNumber   int
	BBox          *BoundingBox
	IsGroundTruth bool
}

func NewAnnotatedFrame(frameNumber int, bbox *BoundingBox, isGroundTruth bool) AnnotatedFrame {
	return AnnotatedFrame{
		FrameNumber:   frameNumber,
		BBox:          bbox,
		IsGroundTruth: isGroundTruth,
	}
}

// IsVisible reports whether the object is visible in this frame
func (frame AnnotatedFrame) IsVisible() bool {
	return frame.BBox != nil
}
