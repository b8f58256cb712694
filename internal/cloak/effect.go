// Per-frame cloak pipeline: segment, refine, composite
package cloak

import (
	"fmt"

	"gocv.io/x/gocv"

	"invisibility-cloak/internal/metrics"
)

// Effect chains the segmenter, refiner and compositor
type Effect struct {
	segmenter  *Segmenter
	refiner    *Refiner
	compositor *Compositor
}

// Output is the result of one Effect.Apply call. Frame is owned by the caller.
type Output struct {
	Frame    gocv.Mat
	Coverage float64 // fraction of the frame replaced by the plate
}

// NewEffect creates a new effect pipeline
func NewEffect(segmenter *Segmenter, refiner *Refiner, compositor *Compositor) *Effect {
	return &Effect{
		segmenter:  segmenter,
		refiner:    refiner,
		compositor: compositor,
	}
}

// Apply produces the composited frame. Without a plate no segmentation runs
// and the frame is returned as a copy.
func (e *Effect) Apply(frame gocv.Mat, plate *Plate, ranges []ColorRange) (Output, error) {
	if plate == nil {
		return Output{Frame: frame.Clone()}, nil
	}

	raw, err := e.segmenter.Segment(frame, ranges)
	if err != nil {
		return Output{}, err
	}
	defer raw.Close()

	mask, err := e.refiner.Refine(raw)
	if err != nil {
		return Output{}, err
	}
	defer mask.Close()

	out, err := e.compositor.Composite(frame, plate, mask)
	if err != nil {
		return Output{}, fmt.Errorf("composite: %w", err)
	}

	return Output{Frame: out, Coverage: metrics.MaskCoverage(mask)}, nil
}
