package data

import (
	"math"

	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat/distuv"
)

// Sine generates a synthetic regression dataset of n samples mapping
// x in [0, 1) to sin(2πx) plus Gaussian noise with the given standard
// deviation. Intended for examples and tests.
func Sine(n int, noise float64, seed uint64) (inputs, targets *mat.Dense) {
	src := rand.NewSource(seed)
	rng := rand.New(src)

	dist := distuv.Normal{Mu: 0, Sigma: noise, Src: src}

	inputs = mat.NewDense(n, 1, nil)
	targets = mat.NewDense(n, 1, nil)
	for i := 0; i < n; i++ {
		x := rng.Float64()
		y := math.Sin(2 * math.Pi * x)
		if noise > 0 {
			y += dist.Rand()
		}
		inputs.Set(i, 0, x)
		targets.Set(i, 0, y)
	}
	return inputs, targets
}
