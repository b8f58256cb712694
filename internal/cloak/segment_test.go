package cloak

import (
	"image"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gocv.io/x/gocv"
)

func TestSegment_RedMatchesBothHueRanges(t *testing.T) {
	frame := solidFrame(4, 6, bgrGray)
	defer frame.Close()
	fillRect(frame, image.Rect(0, 0, 2, 4), bgrRed)                        // hue 0
	fillRect(frame, image.Rect(2, 0, 4, 4), gocv.NewScalar(60, 0, 255, 0)) // hue ~173

	mask, err := NewSegmenter().Segment(frame, redRange)
	require.NoError(t, err)
	defer mask.Close()

	assert.Equal(t, gocv.MatTypeCV8UC1, mask.Type())
	for row := 0; row < 4; row++ {
		assert.Equal(t, uint8(255), mask.GetUCharAt(row, 0))
		assert.Equal(t, uint8(255), mask.GetUCharAt(row, 3))
		assert.Equal(t, uint8(0), mask.GetUCharAt(row, 5))
	}
	assert.Equal(t, 16, gocv.CountNonZero(mask))
}

func TestSegment_SingleRangeMissesWrappedHue(t *testing.T) {
	frame := solidFrame(2, 2, gocv.NewScalar(60, 0, 255, 0))
	defer frame.Close()

	mask, err := NewSegmenter().Segment(frame, redRange[:1])
	require.NoError(t, err)
	defer mask.Close()
	assert.Zero(t, gocv.CountNonZero(mask))
}

func TestSegment_EmptyRangesYieldEmptyMask(t *testing.T) {
	frame := solidFrame(8, 8, bgrRed)
	defer frame.Close()

	mask, err := NewSegmenter().Segment(frame, nil)
	require.NoError(t, err)
	defer mask.Close()

	assert.Equal(t, 8, mask.Rows())
	assert.Equal(t, 8, mask.Cols())
	assert.Zero(t, gocv.CountNonZero(mask))
}

func TestSegment_RejectsInvalidFrame(t *testing.T) {
	empty := gocv.NewMat()
	defer empty.Close()
	_, err := NewSegmenter().Segment(empty, redRange)
	assert.Error(t, err)

	gray := blankMask(4, 4)
	defer gray.Close()
	_, err = NewSegmenter().Segment(gray, redRange)
	assert.Error(t, err)
}

func TestSegment_WideningRangeNeverDropsPixels(t *testing.T) {
	frame := gocv.NewMatWithSize(16, 16, gocv.MatTypeCV8UC3)
	defer frame.Close()
	for y := 0; y < 16; y++ {
		for x := 0; x < 16; x++ {
			frame.SetUCharAt3(y, x, 0, uint8(x*16))
			frame.SetUCharAt3(y, x, 1, uint8(y*16))
			frame.SetUCharAt3(y, x, 2, uint8(255-x*8))
		}
	}

	narrow := []ColorRange{NewColorRange(HSV{0, 100, 100}, HSV{20, 220, 220})}
	wide := []ColorRange{NewColorRange(HSV{0, 60, 40}, HSV{60, 255, 255})}

	s := NewSegmenter()
	narrowMask, err := s.Segment(frame, narrow)
	require.NoError(t, err)
	defer narrowMask.Close()
	wideMask, err := s.Segment(frame, wide)
	require.NoError(t, err)
	defer wideMask.Close()

	require.NotZero(t, gocv.CountNonZero(narrowMask))
	for y := 0; y < 16; y++ {
		for x := 0; x < 16; x++ {
			if narrowMask.GetUCharAt(y, x) != 0 {
				assert.NotZero(t, wideMask.GetUCharAt(y, x), "pixel (%d,%d) lost by widening", x, y)
			}
		}
	}
	assert.GreaterOrEqual(t, gocv.CountNonZero(wideMask), gocv.CountNonZero(narrowMask))
}
