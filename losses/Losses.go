// Package losses implements criterion builders: functions that add
// named scalar loss terms to a network's computational graph.
package losses

import (
	"github.com/pkg/errors"
	G "gorgonia.org/gorgonia"
)

// Terms maps loss-term names to the graph nodes that compute them.
// Each node is a scalar, already reduced over the batch. An agent's
// total cost is the sum of all terms.
type Terms map[string]*G.Node

// Builder adds the loss terms of a criterion to the graph holding the
// prediction and target nodes. Builders run once, when the agent
// finalizes its loss graph.
type Builder func(prediction, target *G.Node) (Terms, error)

// MSE is the default criterion: mean squared error between prediction
// and target.
func MSE(prediction, target *G.Node) (Terms, error) {
	diff, err := G.Sub(prediction, target)
	if err != nil {
		return nil, errors.Wrap(err, "mse")
	}

	sq, err := G.Square(diff)
	if err != nil {
		return nil, errors.Wrap(err, "mse")
	}

	mean, err := G.Mean(sq)
	if err != nil {
		return nil, errors.Wrap(err, "mse")
	}

	return Terms{"mse": mean}, nil
}

// MAE computes the mean absolute error between prediction and target
func MAE(prediction, target *G.Node) (Terms, error) {
	diff, err := G.Sub(prediction, target)
	if err != nil {
		return nil, errors.Wrap(err, "mae")
	}

	abs, err := G.Abs(diff)
	if err != nil {
		return nil, errors.Wrap(err, "mae")
	}

	mean, err := G.Mean(abs)
	if err != nil {
		return nil, errors.Wrap(err, "mae")
	}

	return Terms{"mae": mean}, nil
}

// Huber returns a Builder for the Huber loss with threshold delta:
// squared error below the threshold, absolute error above it.
func Huber(delta float64) Builder {
	return func(prediction, target *G.Node) (Terms, error) {
		if delta <= 0 {
			return nil, errors.Errorf("huber: delta must be positive, "+
				"got %v", delta)
		}

		diff, err := G.Sub(prediction, target)
		if err != nil {
			return nil, errors.Wrap(err, "huber")
		}

		abs, err := G.Abs(diff)
		if err != nil {
			return nil, errors.Wrap(err, "huber")
		}

		deltaNode := G.NewConstant(delta, G.WithName("huber_delta"))
		half := G.NewConstant(0.5)

		// mask is 1 where |diff| < delta and 0 elsewhere
		mask, err := G.Lt(abs, deltaNode, true)
		if err != nil {
			return nil, errors.Wrap(err, "huber")
		}

		sq, err := G.Square(diff)
		if err != nil {
			return nil, errors.Wrap(err, "huber")
		}
		quadratic, err := G.Mul(sq, half)
		if err != nil {
			return nil, errors.Wrap(err, "huber")
		}

		// delta * (|diff| - delta/2)
		halfDelta := G.NewConstant(delta / 2)
		shifted, err := G.Sub(abs, halfDelta)
		if err != nil {
			return nil, errors.Wrap(err, "huber")
		}
		linear, err := G.Mul(shifted, deltaNode)
		if err != nil {
			return nil, errors.Wrap(err, "huber")
		}

		ones := G.NewConstant(1.0)
		inverseMask, err := G.Sub(ones, mask)
		if err != nil {
			return nil, errors.Wrap(err, "huber")
		}

		quadPart, err := G.HadamardProd(mask, quadratic)
		if err != nil {
			return nil, errors.Wrap(err, "huber")
		}
		linPart, err := G.HadamardProd(inverseMask, linear)
		if err != nil {
			return nil, errors.Wrap(err, "huber")
		}

		sum, err := G.Add(quadPart, linPart)
		if err != nil {
			return nil, errors.Wrap(err, "huber")
		}

		mean, err := G.Mean(sum)
		if err != nil {
			return nil, errors.Wrap(err, "huber")
		}

		return Terms{"huber": mean}, nil
	}
}
