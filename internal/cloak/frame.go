// Frame validation helpers
package cloak

import (
	"fmt"

	"gocv.io/x/gocv"
)

const maxDimension = 16384

// ValidateFrame checks that mat is a usable 3-channel 8-bit color frame
func ValidateFrame(mat gocv.Mat) error {
	if mat.Empty() {
		return fmt.Errorf("frame is empty")
	}

	if mat.Cols() <= 0 || mat.Rows() <= 0 {
		return fmt.Errorf("invalid dimensions: %dx%d", mat.Cols(), mat.Rows())
	}

	if mat.Cols() > maxDimension || mat.Rows() > maxDimension {
		return fmt.Errorf("frame too large: %dx%d (max: %d)", mat.Cols(), mat.Rows(), maxDimension)
	}

	if mat.Type() != gocv.MatTypeCV8UC3 {
		return fmt.Errorf("unsupported frame type: %v (want 8-bit, 3 channels)", mat.Type())
	}

	return nil
}

// sameGeometry reports whether a and b have equal width, height and type
func sameGeometry(a, b gocv.Mat) bool {
	return a.Rows() == b.Rows() && a.Cols() == b.Cols() && a.Type() == b.Type()
}

func checkMask(frame, mask gocv.Mat) error {
	if mask.Rows() != frame.Rows() || mask.Cols() != frame.Cols() {
		return fmt.Errorf("%w: mask %dx%d, frame %dx%d",
			ErrDimensionMismatch, mask.Cols(), mask.Rows(), frame.Cols(), frame.Rows())
	}
	if mask.Type() != gocv.MatTypeCV8UC1 {
		return fmt.Errorf("%w: mask must be single channel 8-bit, got %v", ErrDimensionMismatch, mask.Type())
	}
	return nil
}
