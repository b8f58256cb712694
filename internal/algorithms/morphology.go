// Morphological operations on binary masks
package algorithms

import (
	"fmt"
	"image"

	"gocv.io/x/gocv"
)

// Kernel is a square rectangular structuring element. It is built once and
// only read afterwards, so a single Kernel can be shared by every caller.
type Kernel struct {
	mat  gocv.Mat
	size int
}

// NewRectKernel creates a size x size rectangular structuring element
func NewRectKernel(size int) (*Kernel, error) {
	if size < 1 || size > 15 {
		return nil, fmt.Errorf("kernel_size must be between 1 and 15, got %d", size)
	}
	return &Kernel{
		mat:  gocv.GetStructuringElement(gocv.MorphRect, image.Pt(size, size)),
		size: size,
	}, nil
}

// Size returns the side length of the kernel
func (k *Kernel) Size() int {
	return k.size
}

// Close releases the underlying Mat
func (k *Kernel) Close() {
	k.mat.Close()
}

// Erode applies morphological erosion the given number of times
func Erode(input gocv.Mat, kernel *Kernel, iterations int) (gocv.Mat, error) {
	if input.Empty() {
		return gocv.NewMat(), fmt.Errorf("input image is empty")
	}
	if iterations < 1 {
		return gocv.NewMat(), fmt.Errorf("iterations must be at least 1")
	}

	output := gocv.NewMat()
	gocv.Erode(input, &output, kernel.mat)

	for i := 1; i < iterations; i++ {
		temp := gocv.NewMat()
		gocv.Erode(output, &temp, kernel.mat)
		output.Close()
		output = temp
	}

	return output, nil
}

// Dilate applies morphological dilation the given number of times
func Dilate(input gocv.Mat, kernel *Kernel, iterations int) (gocv.Mat, error) {
	if input.Empty() {
		return gocv.NewMat(), fmt.Errorf("input image is empty")
	}
	if iterations < 1 {
		return gocv.NewMat(), fmt.Errorf("iterations must be at least 1")
	}

	output := gocv.NewMat()
	gocv.Dilate(input, &output, kernel.mat)

	for i := 1; i < iterations; i++ {
		temp := gocv.NewMat()
		gocv.Dilate(output, &temp, kernel.mat)
		output.Close()
		output = temp
	}

	return output, nil
}

// Open applies morphological opening with the OpenCV iteration semantics:
// all erosions first, then the same number of dilations.
func Open(input gocv.Mat, kernel *Kernel, iterations int) (gocv.Mat, error) {
	eroded, err := Erode(input, kernel, iterations)
	if err != nil {
		return gocv.NewMat(), fmt.Errorf("opening: %w", err)
	}
	defer eroded.Close()

	opened, err := Dilate(eroded, kernel, iterations)
	if err != nil {
		return gocv.NewMat(), fmt.Errorf("opening: %w", err)
	}
	return opened, nil
}
