package annotrack

import (
	"context"
	"image"
	"sync"

	"github.com/cyclopcam/logs"
	"github.com/google/uuid"
	"github.com/pkg/errors"
)

// TrackerConfig carries the behaviour switches of AnnotatedObjectsTracker
type TrackerConfig struct {
	// Flow holds the optical flow tuning constants
	Flow FlowConfig
	// PredictOccluded enables Kalman extrapolation of boxes the optical flow
	// tracker has lost, for at most PredictMaxFrames consecutive frames.
	// Off by default: a lost box is recorded as absent.
	PredictOccluded bool
	// PredictMaxFrames is the per-occlusion budget of extrapolated frames. Default 10
	PredictMaxFrames int
}

// NewDefaultTrackerConfig returns the default tracker behaviour
func NewDefaultTrackerConfig() TrackerConfig {
	return TrackerConfig{
		Flow:             NewDefaultFlowConfig(),
		PredictOccluded:  false,
		PredictMaxFrames: 10,
	}
}

// ObjectPosition pairs an object with its recorded fact for one frame
type ObjectPosition struct {
	Object *AnnotatedObject
	Frame  AnnotatedFrame
}

// FrameWithObjects is the answer to "where is every object in frame N"
type FrameWithObjects struct {
	FrameNumber int
	Image       image.Image
	Objects     []ObjectPosition
}

// AnnotatedObjectsTracker decides, for any requested frame, where every
// tracked object is located, using a mix of human-supplied ground truth and
// positions computed by sequential optical flow replay. Because optical flow
// is inherently incremental - a position at frame N can only be derived from a
// known position at frame N-1 - requests replay frame by frame from the latest
// frame where every object is known, memoizing the one-step flow state in the
// lastFrame cursor.
//
// Calls to GetFrameWithObjects are serialized internally; the flow pyramids
// and the object timelines are shared mutable state.
type AnnotatedObjectsTracker struct {
	// Objects is the live list of annotated objects. The UI layer appends on
	// create and removes on delete; the tracker reads it during replay and
	// records computed facts into it.
	Objects []*AnnotatedObject

	config     TrackerConfig
	provider   FrameProvider
	flow       *SparseOpticalFlowTracker
	lastFrame  int
	predictors map[uuid.UUID]*BoxPredictor
	log        logs.Log
	mu         sync.Mutex
}

// NewAnnotatedObjectsTracker creates a tracker with default behaviour over the
// given frame source
func NewAnnotatedObjectsTracker(provider FrameProvider) *AnnotatedObjectsTracker {
	return NewAnnotatedObjectsTrackerWithConfig(provider, NewDefaultTrackerConfig())
}

// NewAnnotatedObjectsTrackerWithConfig creates a tracker with the given behaviour
func NewAnnotatedObjectsTrackerWithConfig(provider FrameProvider, config TrackerConfig) *AnnotatedObjectsTracker {
	return &AnnotatedObjectsTracker{
		Objects:    make([]*AnnotatedObject, 0),
		config:     config,
		provider:   provider,
		flow:       NewSparseOpticalFlowTrackerWithConfig(config.Flow),
		lastFrame:  -1,
		predictors: make(map[uuid.UUID]*BoxPredictor),
	}
}

// SetLogger attaches an optional logger for per-frame tracking reports
func (tracker *AnnotatedObjectsTracker) SetLogger(logger logs.Log) {
	tracker.log = logger
}

// Reset replaces the frame source and clears all tracking state: objects,
// flow pyramids and the lastFrame cursor
func (tracker *AnnotatedObjectsTracker) Reset(provider FrameProvider) {
	tracker.mu.Lock()
	defer tracker.mu.Unlock()
	tracker.provider = provider
	tracker.Objects = tracker.Objects[:0]
	tracker.flow.Reset()
	tracker.lastFrame = -1
	tracker.predictors = make(map[uuid.UUID]*BoxPredictor)
}

// GetFrameWithObjects returns the image of the requested frame together with
// the position of every tracked object in it, computing missing positions by
// sequential optical flow replay from the latest frame where everything is
// known. Intermediate replay results are discarded. Cancellation is honored at
// each per-frame step boundary; a started step runs to completion.
func (tracker *AnnotatedObjectsTracker) GetFrameWithObjects(ctx context.Context, frameNumber int) (*FrameWithObjects, error) {
	tracker.mu.Lock()
	defer tracker.mu.Unlock()
	if frameNumber < 0 || frameNumber >= tracker.provider.TotalFrames() {
		return nil, errors.Errorf("frame number %d out of range [0, %d)", frameNumber, tracker.provider.TotalFrames())
	}
	start, err := tracker.StartFrame(frameNumber)
	if err != nil {
		return nil, err
	}
	var result *FrameWithObjects
	for i := start; i <= frameNumber; i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		result, err = tracker.track(ctx, i)
		if err != nil {
			return nil, err
		}
	}
	return result, nil
}

// StartFrame scans backward from frameNumber and returns the largest frame
// index at or before it for which every object already has a recorded fact.
// Fails with ErrCorruptedAnnotations when no such frame exists down to 0,
// which indicates a data-integrity bug upstream: frame-0 injection should make
// frame 0 always valid.
func (tracker *AnnotatedObjectsTracker) StartFrame(frameNumber int) (int, error) {
	for i := frameNumber; i >= 0; i-- {
		known := true
		for _, obj := range tracker.Objects {
			if obj.Get(i) == nil {
				known = false
				break
			}
		}
		if known {
			return i, nil
		}
	}
	return 0, errors.Wrapf(ErrCorruptedAnnotations, "no start frame at or before %d", frameNumber)
}

// track advances the replay by exactly one frame: objects already known for
// frameNumber are passed through, the rest are computed by one optical flow
// step from their position at frameNumber-1 and recorded as non-ground-truth
// facts.
func (tracker *AnnotatedObjectsTracker) track(ctx context.Context, frameNumber int) (*FrameWithObjects, error) {
	img, err := tracker.provider.GetFrame(ctx, frameNumber)
	if err != nil {
		return nil, errors.Wrapf(err, "can't fetch frame %d", frameNumber)
	}

	// Partition objects into those already known for this frame and those
	// whose position must be computed from the previous frame
	toCompute := make([]*AnnotatedObject, 0, len(tracker.Objects))
	boxes := make([]*BoundingBox, 0, len(tracker.Objects))
	anyVisible := false
	for _, obj := range tracker.Objects {
		if obj.Get(frameNumber) != nil {
			continue
		}
		prev := obj.Get(frameNumber - 1)
		if prev == nil {
			return nil, errors.Wrapf(ErrSequentialTrackingViolation, "object %s has no fact for frame %d or %d", obj.GetID(), frameNumber, frameNumber-1)
		}
		toCompute = append(toCompute, obj)
		boxes = append(boxes, prev.BBox)
		if prev.BBox != nil {
			anyVisible = true
		}
	}

	var computed []*BoundingBox
	if len(toCompute) > 0 && anyVisible {
		// Make sure the flow tracker's "previous" pyramid holds frameNumber-1.
		// When frames are visited in strict increasing order (the common case)
		// the pyramid swap inside Track already guarantees it, and the re-init
		// with its grayscale conversion and pyramid build is skipped.
		if tracker.lastFrame != frameNumber-1 {
			prevImg, err := tracker.provider.GetFrame(ctx, frameNumber-1)
			if err != nil {
				return nil, errors.Wrapf(err, "can't fetch frame %d", frameNumber-1)
			}
			tracker.flow.Init(prevImg)
		}
		computed, err = tracker.flow.Track(img, boxes)
		if err != nil {
			return nil, errors.Wrapf(err, "can't track frame %d", frameNumber)
		}
		tracker.lastFrame = frameNumber
	} else {
		// Everything to compute is occluded: skip the flow work entirely
		computed = make([]*BoundingBox, len(toCompute))
	}

	for i, obj := range toCompute {
		box := computed[i]
		if tracker.config.PredictOccluded {
			box = tracker.applyPrediction(obj, box)
		}
		obj.Add(NewAnnotatedFrame(frameNumber, box, false))
		if tracker.log != nil && box == nil && boxes[i] != nil {
			tracker.log.Infof("Object %v lost at frame %v", obj.GetID(), frameNumber)
		}
	}

	positions := make([]ObjectPosition, 0, len(tracker.Objects))
	for _, obj := range tracker.Objects {
		positions = append(positions, ObjectPosition{
			Object: obj,
			Frame:  *obj.Get(frameNumber),
		})
	}
	return &FrameWithObjects{
		FrameNumber: frameNumber,
		Image:       img,
		Objects:     positions,
	}, nil
}

// applyPrediction feeds confirmed boxes into the object's Kalman predictor and
// substitutes an extrapolated box while the flow tracker has lost the object
func (tracker *AnnotatedObjectsTracker) applyPrediction(obj *AnnotatedObject, box *BoundingBox) *BoundingBox {
	predictor := tracker.predictors[obj.GetID()]
	if box != nil {
		if predictor == nil {
			tracker.predictors[obj.GetID()] = NewBoxPredictor(*box, tracker.config.PredictMaxFrames)
		} else if err := predictor.Observe(*box); err != nil && tracker.log != nil {
			tracker.log.Warnf("Box predictor update failed for object %v: %v", obj.GetID(), err)
		}
		return box
	}
	if predictor == nil {
		return nil
	}
	return predictor.PredictLost()
}
