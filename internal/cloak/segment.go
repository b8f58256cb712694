// Color segmentation in HSV space
package cloak

import (
	"fmt"

	"gocv.io/x/gocv"
)

// Segmenter turns a color frame into a binary membership mask
type Segmenter struct{}

// NewSegmenter creates a new segmenter
func NewSegmenter() *Segmenter {
	return &Segmenter{}
}

// Segment converts a BGR frame to HSV and returns a mask with 255 where the
// pixel lies inside any of the ranges and 0 elsewhere. The caller owns the mask.
func (s *Segmenter) Segment(frame gocv.Mat, ranges []ColorRange) (gocv.Mat, error) {
	if err := ValidateFrame(frame); err != nil {
		return gocv.NewMat(), fmt.Errorf("segment: %w", err)
	}

	hsv := gocv.NewMat()
	defer hsv.Close()
	gocv.CvtColor(frame, &hsv, gocv.ColorBGRToHSV)

	return s.SegmentHSV(hsv, ranges), nil
}

// SegmentHSV is Segment for a frame that is already HSV encoded.
// An empty range list yields an all-zero mask.
func (s *Segmenter) SegmentHSV(hsv gocv.Mat, ranges []ColorRange) gocv.Mat {
	mask := gocv.NewMatWithSizeFromScalar(gocv.NewScalar(0, 0, 0, 0), hsv.Rows(), hsv.Cols(), gocv.MatTypeCV8UC1)

	part := gocv.NewMat()
	defer part.Close()

	for _, r := range ranges {
		gocv.InRangeWithScalar(hsv, r.Lower.scalar(), r.Upper.scalar(), &part)
		gocv.BitwiseOr(mask, part, &mask)
	}

	return mask
}
