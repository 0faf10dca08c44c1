// Package schedule computes the decay/apply weight pairs used to merge a
// fresh model update into the running model.
package schedule

import "math"

// Weights is one merge step's coefficient pair. Decay scales the running
// counters, Apply scales the fresh update.
type Weights struct {
	Decay float64
	Apply float64
}

// Offline holds caller-supplied constant weights, reused for every
// synchronization of an offline fit call.
type Offline struct {
	Decay float64
	Apply float64
}

func (o Offline) Weights() Weights {
	return Weights{Decay: o.Decay, Apply: o.Apply}
}

// Online recomputes weights every time a group of batches has been
// accumulated, following the stochastic learning-rate decay
//
//	rho = (tau0 + update_count)^(-kappa)
//
// with update_count derived from a nominal processed-document counter that
// grows by BatchSize*UpdateEvery per recomputation. The counter uses the
// caller's declared batch size, not actual per-batch document counts; when
// real batches vary in size the schedule is a nominal-size approximation.
// Tau0 must be positive and Kappa should lie in (0.5, 1]; out-of-range
// values are not validated and only show up as degenerate weights.
type Online struct {
	Tau0        float64
	Kappa       float64
	BatchSize   int
	UpdateEvery int

	processed int
}

// Next advances the processed-document counter and returns the weights for
// the synchronization being flushed. A final partial group still advances
// the counter by the full BatchSize*UpdateEvery, matching the engine's
// reference behavior.
func (o *Online) Next() Weights {
	o.processed += o.BatchSize * o.UpdateEvery
	updateCount := o.processed / (o.BatchSize * o.UpdateEvery)
	rho := math.Pow(o.Tau0+float64(updateCount), -o.Kappa)
	return Weights{Decay: 1 - rho, Apply: rho}
}

// Processed reports the nominal number of documents accounted so far.
func (o *Online) Processed() int {
	return o.processed
}
