package dataset

import (
	"fmt"
	"math/rand/v2"
)

// Image geometry shared by the MNIST loaders and SyntheticDigits.
const (
	ImageRows   = 28
	ImageCols   = 28
	ImagePixels = ImageRows * ImageCols
	NumDigits   = 10
)

const (
	bandHeight = 8
	bandValue  = 0.8
	noiseLevel = 0.2
)

// SyntheticDigits generates perClass noisy 28x28 images for each digit 0-9.
//
// Digit d lights a horizontal band starting at row 2d. Every pixel gets
// uniform noise in [0, 0.2), so samples of one class differ but stay
// separable. This is NOT realistic MNIST data; it exercises the pipeline.
func SyntheticDigits(perClass int, rng *rand.Rand) (*Dataset, error) {
	if perClass <= 0 {
		return nil, fmt.Errorf("synthetic digits: perClass must be > 0 (got %d)", perClass)
	}

	n := perClass * NumDigits
	d := &Dataset{
		X:      make([][]float64, 0, n),
		Labels: make([]int, 0, n),
	}
	for k := 0; k < perClass; k++ {
		for digit := 0; digit < NumDigits; digit++ {
			d.X = append(d.X, digitImage(digit, rng))
			d.Labels = append(d.Labels, digit)
		}
	}
	return d, nil
}

func digitImage(digit int, rng *rand.Rand) []float64 {
	img := make([]float64, ImagePixels)
	for i := range img {
		img[i] = noiseLevel * rng.Float64()
	}
	start := digit * 2
	for row := start; row < start+bandHeight && row < ImageRows; row++ {
		for col := 5; col < 23; col++ {
			img[row*ImageCols+col] += bandValue
		}
	}
	return img
}
