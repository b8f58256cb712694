// Smoothing filters
package algorithms

import (
	"fmt"
	"image"

	"gocv.io/x/gocv"
)

// GaussianSmooth blurs input with a square gaussian kernel. Sigma is derived
// from the kernel size. Even sizes are bumped to the next odd value.
func GaussianSmooth(input gocv.Mat, kernelSize int) (gocv.Mat, error) {
	if input.Empty() {
		return gocv.NewMat(), fmt.Errorf("input image is empty")
	}
	if kernelSize < 1 || kernelSize > 21 {
		return gocv.NewMat(), fmt.Errorf("kernel_size must be between 1 and 21, got %d", kernelSize)
	}

	// Ensure kernel size is odd
	if kernelSize%2 == 0 {
		kernelSize++
	}

	output := gocv.NewMat()
	gocv.GaussianBlur(input, &output, image.Pt(kernelSize, kernelSize), 0, 0, gocv.BorderDefault)

	return output, nil
}
