package linear

import (
	"github.com/YuminosukeSato/carprice/pkg/log"
)

// Option is a function that configures GradientDescent
type Option func(*GradientDescent)

// WithLearningRate sets the step size applied to both gradients
func WithLearningRate(lr float64) Option {
	return func(gd *GradientDescent) {
		gd.learningRate = lr
	}
}

// WithIterations sets the exact number of updates performed by Train
func WithIterations(n int) Option {
	return func(gd *GradientDescent) {
		gd.iterations = n
	}
}

// WithParallelThreshold sets the sample count above which cost and gradient
// sums are split into chunks
func WithParallelThreshold(n int) Option {
	return func(gd *GradientDescent) {
		gd.parallelThreshold = n
	}
}

// WithLogger sets the logger used for progress records
func WithLogger(l log.Logger) Option {
	return func(gd *GradientDescent) {
		if l != nil {
			gd.logger = l
		}
	}
}
