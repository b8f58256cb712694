// Mask cleanup: opening, gap filling and small-region removal
package cloak

import (
	"fmt"
	"image/color"

	"gocv.io/x/gocv"

	"invisibility-cloak/internal/algorithms"
)

const (
	// DefaultMinRegionArea is the contour area under which a region is erased
	DefaultMinRegionArea = 500.0

	openIterations = 2
	fillIterations = 1
)

var black = color.RGBA{}

// Refiner removes speckle noise from a mask. It holds only read-only
// configuration and may be reused across frames.
type Refiner struct {
	kernel  *algorithms.Kernel
	minArea float64
}

// NewRefiner creates a refiner using kernel for all morphology passes
func NewRefiner(kernel *algorithms.Kernel, minArea float64) *Refiner {
	return &Refiner{
		kernel:  kernel,
		minArea: minArea,
	}
}

// MinArea returns the region area threshold
func (r *Refiner) MinArea() float64 {
	return r.minArea
}

// Refine opens the mask twice, dilates it once and erases every external
// region whose contour area is below the threshold. The input is not modified.
func (r *Refiner) Refine(mask gocv.Mat) (gocv.Mat, error) {
	if mask.Empty() {
		return gocv.NewMat(), fmt.Errorf("refine: mask is empty")
	}

	opened, err := algorithms.Open(mask, r.kernel, openIterations)
	if err != nil {
		return gocv.NewMat(), fmt.Errorf("refine: %w", err)
	}
	defer opened.Close()

	refined, err := algorithms.Dilate(opened, r.kernel, fillIterations)
	if err != nil {
		return gocv.NewMat(), fmt.Errorf("refine: %w", err)
	}

	r.dropSmallRegions(&refined)
	return refined, nil
}

func (r *Refiner) dropSmallRegions(mask *gocv.Mat) {
	contours := gocv.FindContours(*mask, gocv.RetrievalExternal, gocv.ChainApproxSimple)
	defer contours.Close()

	for i := 0; i < contours.Size(); i++ {
		if gocv.ContourArea(contours.At(i)) < r.minArea {
			gocv.DrawContours(mask, contours, i, black, -1)
		}
	}
}
