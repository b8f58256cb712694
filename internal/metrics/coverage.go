package metrics

import "gocv.io/x/gocv"

// MaskCoverage returns the fraction of non-zero mask cells, in [0, 1]
func MaskCoverage(mask gocv.Mat) float64 {
	if mask.Empty() {
		return 0
	}
	total := mask.Rows() * mask.Cols()
	if total == 0 {
		return 0
	}
	return float64(gocv.CountNonZero(mask)) / float64(total)
}
