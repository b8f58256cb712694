// HSV color model and the built-in cloak presets
package cloak

import (
	"encoding/json"
	"fmt"
	"strings"

	"gocv.io/x/gocv"
)

// Channel limits of the 8-bit OpenCV HSV encoding. Hue is halved to fit a
// byte; 180 is accepted as an upper bound so a range can touch the wrap point.
const (
	MaxHue        = 180
	MaxSaturation = 255
	MaxValue      = 255
)

// HSV is a hue, saturation, value triple. It marshals as a JSON array.
type HSV [3]int

func (c HSV) H() int { return c[0] }
func (c HSV) S() int { return c[1] }
func (c HSV) V() int { return c[2] }

func (c HSV) scalar() gocv.Scalar {
	return gocv.NewScalar(float64(c[0]), float64(c[1]), float64(c[2]), 0)
}

// ColorRange is an inclusive box in HSV space
type ColorRange struct {
	Lower HSV
	Upper HSV
}

// NewColorRange builds a range from lower and upper bounds
func NewColorRange(lower, upper HSV) ColorRange {
	return ColorRange{Lower: lower, Upper: upper}
}

// Validate checks channel limits and bound ordering
func (r ColorRange) Validate() error {
	limits := HSV{MaxHue, MaxSaturation, MaxValue}
	names := [3]string{"hue", "saturation", "value"}
	for i := 0; i < 3; i++ {
		if r.Lower[i] < 0 || r.Upper[i] > limits[i] {
			return fmt.Errorf("%s bounds [%d, %d] outside [0, %d]", names[i], r.Lower[i], r.Upper[i], limits[i])
		}
		if r.Lower[i] > r.Upper[i] {
			return fmt.Errorf("%s lower bound %d exceeds upper bound %d", names[i], r.Lower[i], r.Upper[i])
		}
	}
	return nil
}

func (r ColorRange) String() string {
	return fmt.Sprintf("[%d,%d,%d]-[%d,%d,%d]",
		r.Lower[0], r.Lower[1], r.Lower[2], r.Upper[0], r.Upper[1], r.Upper[2])
}

// MarshalJSON encodes the range as [lower, upper]
func (r ColorRange) MarshalJSON() ([]byte, error) {
	return json.Marshal([2]HSV{r.Lower, r.Upper})
}

// UnmarshalJSON decodes a [lower, upper] pair
func (r *ColorRange) UnmarshalJSON(data []byte) error {
	var pair [2]HSV
	if err := json.Unmarshal(data, &pair); err != nil {
		return fmt.Errorf("color range: %w", err)
	}
	r.Lower, r.Upper = pair[0], pair[1]
	return nil
}

// Preset is a named list of ranges. Colors straddling the hue wrap point,
// such as red, need two ranges.
type Preset struct {
	Name        string
	Ranges      []ColorRange
	Description string
}

// DefaultPresets returns the built-in presets in cycling order
func DefaultPresets() []Preset {
	return []Preset{
		{
			Name: "red",
			Ranges: []ColorRange{
				NewColorRange(HSV{0, 120, 70}, HSV{10, 255, 255}),
				NewColorRange(HSV{170, 120, 70}, HSV{180, 255, 255}),
			},
			Description: "Bright red cloth/clothing",
		},
		{
			Name:        "blue",
			Ranges:      []ColorRange{NewColorRange(HSV{100, 150, 50}, HSV{130, 255, 255})},
			Description: "Blue cloth/clothing",
		},
		{
			Name:        "green",
			Ranges:      []ColorRange{NewColorRange(HSV{40, 40, 40}, HSV{80, 255, 255})},
			Description: "Green cloth/clothing",
		},
		{
			Name:        "yellow",
			Ranges:      []ColorRange{NewColorRange(HSV{20, 100, 100}, HSV{30, 255, 255})},
			Description: "Yellow cloth/clothing",
		},
	}
}

// PresetIndex finds a preset by case-insensitive name
func PresetIndex(presets []Preset, name string) (int, error) {
	for i, p := range presets {
		if strings.EqualFold(p.Name, name) {
			return i, nil
		}
	}
	return -1, fmt.Errorf("unknown color preset: %q", name)
}

// PresetNames lists preset names in order
func PresetNames(presets []Preset) []string {
	names := make([]string, len(presets))
	for i, p := range presets {
		names[i] = p.Name
	}
	return names
}
