// Masked compositing of the background plate over the live frame
package cloak

import (
	"fmt"

	"gocv.io/x/gocv"
)

// Compositor replaces masked pixels of a frame with the plate
type Compositor struct{}

// NewCompositor creates a new compositor
func NewCompositor() *Compositor {
	return &Compositor{}
}

// Composite returns a new frame that takes plate pixels where mask is set and
// frame pixels elsewhere. With a nil plate the result is a copy of frame.
func (c *Compositor) Composite(frame gocv.Mat, plate *Plate, mask gocv.Mat) (gocv.Mat, error) {
	if plate == nil {
		return frame.Clone(), nil
	}

	if !sameGeometry(frame, plate.mat) {
		return gocv.NewMat(), fmt.Errorf("%w: frame %dx%d, plate %dx%d",
			ErrDimensionMismatch, frame.Cols(), frame.Rows(), plate.mat.Cols(), plate.mat.Rows())
	}
	if err := checkMask(frame, mask); err != nil {
		return gocv.NewMat(), err
	}

	output := frame.Clone()
	plate.mat.CopyToWithMask(&output, mask)
	return output, nil
}
