package detection

import (
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/ironsheep/corner-tools-mcp/internal/imaging"
)

// IntensityStats summarizes an intensity image.
type IntensityStats struct {
	Min    float64 `json:"min"`
	Max    float64 `json:"max"`
	Mean   float64 `json:"mean"`
	StdDev float64 `json:"std_dev"`
}

// PeakAbs returns the largest absolute intensity.
func (s IntensityStats) PeakAbs() float64 {
	return math.Max(math.Abs(s.Min), math.Abs(s.Max))
}

// Stats computes summary statistics over every pixel of intensity. It returns
// false for an empty image.
func Stats(intensity *imaging.GrayF64) (IntensityStats, bool) {
	n := intensity.Width * intensity.Height
	if n == 0 {
		return IntensityStats{}, false
	}

	data := intensity.Data[:n]
	if intensity.Stride != intensity.Width {
		data = make([]float64, 0, n)
		for y := 0; y < intensity.Height; y++ {
			data = append(data, intensity.Data[y*intensity.Stride:y*intensity.Stride+intensity.Width]...)
		}
	}
	mean, std := stat.MeanStdDev(data, nil)
	if n == 1 {
		std = 0
	}
	return IntensityStats{
		Min:    floats.Min(data),
		Max:    floats.Max(data),
		Mean:   mean,
		StdDev: std,
	}, true
}
