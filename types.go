package bo

import (
	"log/slog"

	"github.com/thalesfsp/bo/dual"
	"golang.org/x/exp/constraints"
)

// Phase names the stage of the optimization loop an update belongs to.
type Phase string

const (
	// PhaseStart is the evaluation of the domain's start point.
	PhaseStart Phase = "Start"

	// PhaseWarmup covers the uniformly random samples.
	PhaseWarmup Phase = "Warmup"

	// PhaseOptimization covers the acquisition-driven samples.
	PhaseOptimization Phase = "Optimization"
)

// Sample is one observation: an input point and the objective value there.
type Sample[T constraints.Float] struct {
	// X is the input point.
	X []T `json:"x"`

	// Y is the objective value at X.
	Y T `json:"y"`
}

// clone returns a deep copy of s.
func (s Sample[T]) clone() Sample[T] {
	return Sample[T]{X: append([]T(nil), s.X...), Y: s.Y}
}

// ProgressUpdate represents the current state of the optimization process.
type ProgressUpdate[T constraints.Float] struct {
	// Phase indicates whether we're in warmup or optimization phase
	Phase Phase

	// CurrentIteration is the current iteration number within the phase
	CurrentIteration int

	// TotalIterations is the number of iterations requested for the phase
	TotalIterations int

	// CurrentParams holds the point that was just evaluated
	CurrentParams []T

	// CurrentBestParams holds the best point found so far
	CurrentBestParams []T

	// CurrentBestValue holds the best objective value found so far
	CurrentBestValue T

	// LastValue holds the objective value at CurrentParams
	LastValue T
}

// ParameterRange defines the valid range of one input dimension.
//
// Type Parameter:
//   - T: The floating-point type of the domain (float32 or float64)
//
// Fields:
// - Min: The lower bound (inclusive)
// - Max: The upper bound (inclusive)
//
// Usage:
//
//	// Branin-Hoo is usually searched over x0 in [-5, 10], x1 in [0, 15].
//	ranges := []ParameterRange[float64]{
//	    {Min: -5, Max: 10},
//	    {Min: 0, Max: 15},
//	}
//
// Validation:
// - Min must be strictly less than Max
// - Both bounds must be finite
type ParameterRange[T constraints.Float] struct {
	// Min defines the minimum allowed value (inclusive) for this dimension.
	Min T `json:"min" yaml:"min"`

	// Max defines the maximum allowed value (inclusive) for this dimension.
	Max T `json:"max" yaml:"max"`
}

// Objective is the expensive function being minimized. It is evaluated
// synchronously and assumed deterministic and noiseless.
//
// Usage example:
//
//	sphere := Objective[float64](func(x []float64) float64 {
//	    return x[0]*x[0] + x[1]*x[1]
//	})
type Objective[T constraints.Float] func(x []T) T

// Domain supplies candidate points to the optimization loop.
//
// Implementations:
//   - Bounds: per-dimension box constraints
type Domain[T constraints.Float] interface {
	// Start returns the first point evaluated.
	Start() []T

	// Random draws a point uniformly from the domain.
	Random() []T

	// Generate draws a point biased toward center.
	Generate(center []T) []T

	// Project clamps x into the domain.
	Project(x []T) []T
}

// Surrogate is the read-only view of a regression model that acquisition
// functions and observers work with. Process implements it.
type Surrogate[T constraints.Float] interface {
	// Len returns the number of observations.
	Len() int

	// Dim returns the input dimension.
	Dim() int

	// Predict returns the predictive mean and variance at x.
	Predict(x []T) (mean, variance T)

	// PredictDual is Predict carried out on dual numbers, so the result
	// holds derivatives with respect to the seeded query coordinates.
	PredictDual(x []dual.Number[T]) (mean, variance dual.Number[T])
}

// Model is a Surrogate that absorbs new observations. Process implements
// it.
type Model[T constraints.Float] interface {
	Surrogate[T]

	// Emplace adds the observation (x, y).
	Emplace(x []T, y T)
}

// Acquisition scores candidate points. Higher is more promising; the loop
// maximizes it.
type Acquisition[T constraints.Float] interface {
	// Eval scores a plain point, for reporting.
	Eval(x []T) T

	// EvalDual scores a dual point, for gradient-based maximization.
	EvalDual(x []dual.Number[T]) dual.Number[T]
}

// AcquisitionFunc builds an acquisition function from the current model and
// incumbent value. Built-in options:
//   - ExpectedImprovement
//   - ProbabilityOfImprovement(xi)
//   - LowerConfidenceBound(beta)
//
// Usage example:
//
//	config := DefaultConfig[float64]()
//	config.AcquisitionFunc = ProbabilityOfImprovement[float64](0.01)
type AcquisitionFunc[T constraints.Float] func(model Surrogate[T], best T) Acquisition[T]

// Event is what observers receive after each evaluation of the objective.
type Event[T constraints.Float] struct {
	// Phase of the loop that produced the sample.
	Phase Phase

	// Iteration is the 1-based iteration within the phase call.
	Iteration int

	// Sample is the point just evaluated.
	Sample Sample[T]

	// Best is the incumbent after the sample was absorbed.
	Best Sample[T]

	// Improved reports whether Sample replaced the incumbent.
	Improved bool

	// Observations is the number of observations in the model once the
	// sample was inserted.
	Observations int

	// Model is a live view of the optimizer's surrogate, valid only during
	// Observe. Later evaluations keep changing it.
	Model Surrogate[T]

	// Acquisition that proposed Sample; nil outside PhaseOptimization.
	Acquisition Acquisition[T]
}

// Observer is a side channel notified after every evaluation. Observers must
// not modify the model.
//
// Implementations:
//   - SnapshotWriter: JSON Lines dump of model and acquisition surfaces
//   - telemetry.PrometheusObserver: Prometheus metrics
type Observer[T constraints.Float] interface {
	Observe(event Event[T])
}

// Config holds all configuration parameters for the Bayesian optimization
// process.
//
// Fields explanation:
// - Iterations: Number of acquisition-driven steps after warmup
// - InitialSamples: Number of uniformly random samples taken first
// - Gradient: Step budget, rate and tolerance of the acquisition hill-climb
// - Bandwidth: Radial kernel bandwidth used by Minimize
// - Noise: Observation noise standard deviation
// - AcquisitionFunc: Strategy for choosing next points to evaluate
//
// Usage example:
//
//	config := DefaultConfig[float64]()
//	config.InitialSamples = 30
//	config.Iterations = 50
//	config.Bandwidth = 2
//
// Note:
// - Create separate configs for parallel optimizations.
type Config[T constraints.Float] struct {
	// Iterations determines how many acquisition-driven steps Minimize
	// performs after warmup. Each step evaluates the objective once.
	Iterations int

	// InitialSamples determines how many uniformly random points Minimize
	// evaluates before the acquisition-driven steps.
	InitialSamples int

	// Gradient configures the gradient ascent over the acquisition surface.
	Gradient GradientConfig[T]

	// Bandwidth is the radial kernel bandwidth used by Minimize. Must be
	// positive.
	Bandwidth T

	// Noise is the observation noise standard deviation. Its square is
	// floored at Jitter.
	Noise T

	// Start is the first point evaluated by Minimize. If nil, the center of
	// the ranges is used.
	Start []T

	// Seed seeds the random source used by Minimize. Zero means a
	// time-based seed.
	Seed uint64

	// AcquisitionFunc determines the strategy for selecting the next point
	// to evaluate. If nil, ExpectedImprovement is used.
	AcquisitionFunc AcquisitionFunc[T]

	// ProgressChan is used to send progress updates during optimization.
	// If nil, no updates will be sent. Updates are dropped when the channel
	// is full.
	ProgressChan chan<- ProgressUpdate[T]

	// Observers are notified after every evaluation.
	Observers []Observer[T]

	// Logger receives structured logs. If nil, logs are discarded.
	Logger *slog.Logger
}

// ObserverFunc adapts an ordinary function to the Observer interface.
type ObserverFunc[T constraints.Float] func(event Event[T])

// Observe calls f(event).
func (f ObserverFunc[T]) Observe(event Event[T]) {
	f(event)
}
