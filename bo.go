package bo

import (
	"fmt"
	"io"
	"log/slog"
	"math"
	"math/rand/v2"
	"time"

	"golang.org/x/exp/constraints"
)

//////
// Const, vars, types.
//////

// Optimizer is the Bayesian optimization loop. It owns the incumbent, the
// best observation seen so far under the minimize convention, and drives the
// model, the domain and the objective through two phases:
//
//   - Warmup: uniformly random samples
//   - Run: samples proposed by maximizing an acquisition function
//
// There is no terminal state; the caller decides how many times to call
// Warmup and Run.
//
// Optimizer is single-threaded. It must not be used concurrently.
type Optimizer[T constraints.Float] struct {
	model     Model[T]
	domain    Domain[T]
	objective Objective[T]

	acquisition  AcquisitionFunc[T]
	progressChan chan<- ProgressUpdate[T]
	observers    []Observer[T]
	logger       *slog.Logger

	best Sample[T]
}

//////
// Exported functionalities.
//////

// DefaultConfig returns a default configuration.
func DefaultConfig[T constraints.Float]() Config[T] {
	return Config[T]{
		Iterations:      50,
		InitialSamples:  10,
		Gradient:        DefaultGradientConfig[T](),
		Bandwidth:       1,
		Noise:           1e-3,
		AcquisitionFunc: NewExpectedImprovement[T],
		ProgressChan:    nil, // Default to no progress updates.
	}
}

// Validate checks the values Minimize depends on.
func (c Config[T]) Validate() error {
	if c.Iterations < 0 {
		return fmt.Errorf("config: iterations %d: %w", c.Iterations, ErrInvalidConfig)
	}

	if c.InitialSamples < 0 {
		return fmt.Errorf("config: initial samples %d: %w", c.InitialSamples, ErrInvalidConfig)
	}

	if !(c.Bandwidth > 0) || math.IsInf(float64(c.Bandwidth), 0) {
		return fmt.Errorf("config: bandwidth %v: %w", c.Bandwidth, ErrInvalidBandwidth)
	}

	if !(c.Noise >= 0) || math.IsInf(float64(c.Noise), 0) {
		return fmt.Errorf("config: noise %v: %w", c.Noise, ErrInvalidConfig)
	}

	return c.Gradient.Validate()
}

// New creates an optimizer, evaluates the domain's start point and inserts
// it into the model. The start point is the initial incumbent.
//
// Only the observation fields of config are read: AcquisitionFunc,
// ProgressChan, Observers and Logger.
//
// Returns ErrDimensionMismatch when the model and the domain disagree, and
// ErrNonFiniteObjective when the start point evaluates to NaN or an
// infinity.
func New[T constraints.Float](model Model[T], domain Domain[T], objective Objective[T], config Config[T]) (*Optimizer[T], error) {
	start := domain.Start()
	if len(start) != model.Dim() {
		return nil, fmt.Errorf("optimizer: domain has %d dimensions, model %d: %w",
			len(start), model.Dim(), ErrDimensionMismatch)
	}

	o := &Optimizer[T]{
		model:        model,
		domain:       domain,
		objective:    objective,
		acquisition:  config.AcquisitionFunc,
		progressChan: config.ProgressChan,
		observers:    config.Observers,
		logger:       config.Logger,
	}

	if o.acquisition == nil {
		o.acquisition = NewExpectedImprovement[T]
	}

	if o.logger == nil {
		o.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	y, err := o.evaluate(PhaseStart, start)
	if err != nil {
		return nil, err
	}

	o.best = Sample[T]{X: start, Y: y}
	o.model.Emplace(start, y)
	o.notify(PhaseStart, 1, 1, o.best, true, nil)

	return o, nil
}

// Minimize uses Bayesian optimization to find the minimum of objective over
// the box given by ranges. It combines Gaussian Process regression with an
// acquisition function to spend as few evaluations as possible.
//
// Type Parameter:
//   - T: The floating-point type of the domain (float32 or float64)
//
// Parameters:
// - config: Config controlling the optimization process
// - objective: The function to minimize
// - ranges: One or more ParameterRange defining the search space
//
// Returns:
// - Sample[T]: The best point found and its value
// - error: Validation errors, or ErrNonFiniteObjective
//
// Usage example:
//
//	ranges := []ParameterRange[float64]{
//	    {Min: -5, Max: 10},
//	    {Min: 0, Max: 15},
//	}
//
//	best, err := Minimize(DefaultConfig[float64](), branin, ranges...)
//
// How it works:
// 1. Evaluates the start point (Config.Start, or the center of the box)
// 2. Takes InitialSamples uniformly random samples to build the model
// 3. For each iteration:
//   - Draws a starting point around the incumbent
//   - Climbs the acquisition surface with the gradient optimizer
//   - Evaluates the objective at the point reached
//   - Updates the model with the new result
//
// 4. Returns the best sample found
//
// Performance considerations:
// - Total evaluations = 1 + InitialSamples + Iterations
// - Each model update is O(n²) for n observations
// - Each gradient step predicts once on dual numbers, O(n²)
func Minimize[T constraints.Float](
	config Config[T],
	objective Objective[T],
	ranges ...ParameterRange[T],
) (Sample[T], error) {
	if err := config.Validate(); err != nil {
		return Sample[T]{}, err
	}

	seed := config.Seed
	if seed == 0 {
		seed = uint64(time.Now().UnixNano())
	}

	kernel, err := NewRadial(config.Bandwidth)
	if err != nil {
		return Sample[T]{}, err
	}

	domain, err := NewBounds(ranges, config.Start, rand.NewPCG(seed, seed))
	if err != nil {
		return Sample[T]{}, err
	}

	model, err := NewProcess[T](kernel, len(ranges), nil, config.Noise)
	if err != nil {
		return Sample[T]{}, err
	}

	o, err := New[T](model, domain, objective, config)
	if err != nil {
		return Sample[T]{}, err
	}

	if err := o.Warmup(config.InitialSamples); err != nil {
		return o.Best(), err
	}

	if err := o.Run(config.Iterations, config.Gradient); err != nil {
		return o.Best(), err
	}

	return o.Best(), nil
}

//////
// Methods.
//////

// Best returns a copy of the incumbent.
func (o *Optimizer[T]) Best() Sample[T] {
	return o.best.clone()
}

// Model returns the surrogate. Callers must not insert observations into it.
func (o *Optimizer[T]) Model() Surrogate[T] {
	return o.model
}

// Warmup evaluates n uniformly random points from the domain.
func (o *Optimizer[T]) Warmup(n int) error {
	if n < 0 {
		return fmt.Errorf("optimizer: warmup steps %d: %w", n, ErrInvalidConfig)
	}

	for i := 0; i < n; i++ {
		x := o.domain.Random()

		if err := o.absorb(PhaseWarmup, i+1, n, x, nil); err != nil {
			return err
		}
	}

	return nil
}

// Run performs n acquisition-driven steps. Each step builds the acquisition
// from the current model and incumbent value, maximizes it with the gradient
// optimizer starting from a point drawn around the incumbent, projects the
// result into the domain and evaluates the objective there.
//
// A gradient search that ends on a non-finite point falls back to its start.
func (o *Optimizer[T]) Run(n int, gradient GradientConfig[T]) error {
	if n < 0 {
		return fmt.Errorf("optimizer: run steps %d: %w", n, ErrInvalidConfig)
	}

	if err := gradient.Validate(); err != nil {
		return err
	}

	for i := 0; i < n; i++ {
		acq := o.acquisition(o.model, o.best.Y)

		x0 := o.domain.Generate(o.best.X)

		x := NewGradient[T](acq.EvalDual, gradient).Maximize(x0)
		if !isFinite(x) {
			o.logger.Warn("gradient search diverged, using its start point",
				slog.Int("iteration", i+1),
				slog.Any("start", x0),
			)

			x = x0
		}

		if err := o.absorb(PhaseOptimization, i+1, n, o.domain.Project(x), acq); err != nil {
			return err
		}
	}

	return nil
}

// absorb evaluates x, inserts it into the model, updates the incumbent and
// notifies observers.
func (o *Optimizer[T]) absorb(phase Phase, iteration, total int, x []T, acq Acquisition[T]) error {
	y, err := o.evaluate(phase, x)
	if err != nil {
		return err
	}

	o.model.Emplace(x, y)

	improved := y < o.best.Y
	if improved {
		o.best = Sample[T]{X: append([]T(nil), x...), Y: y}

		o.logger.Info("incumbent improved",
			slog.String("phase", string(phase)),
			slog.Int("iteration", iteration),
			slog.Any("x", x),
			slog.Any("y", y),
		)
	}

	o.notify(phase, iteration, total, Sample[T]{X: x, Y: y}, improved, acq)

	return nil
}

func (o *Optimizer[T]) evaluate(phase Phase, x []T) (T, error) {
	y := o.objective(x)

	o.logger.Debug("objective evaluated",
		slog.String("phase", string(phase)),
		slog.Int("observations", o.model.Len()),
		slog.Any("x", x),
		slog.Any("y", y),
	)

	if math.IsNaN(float64(y)) || math.IsInf(float64(y), 0) {
		return y, fmt.Errorf("optimizer: %s at %v: %w", phase, x, ErrNonFiniteObjective)
	}

	return y, nil
}

// notify sends a progress update and an event to every observer.
func (o *Optimizer[T]) notify(phase Phase, iteration, total int, s Sample[T], improved bool, acq Acquisition[T]) {
	if o.progressChan != nil {
		update := ProgressUpdate[T]{
			Phase:             phase,
			CurrentIteration:  iteration,
			TotalIterations:   total,
			CurrentParams:     append([]T(nil), s.X...),
			CurrentBestParams: append([]T(nil), o.best.X...),
			CurrentBestValue:  o.best.Y,
			LastValue:         s.Y,
		}

		select {
		case o.progressChan <- update:
		default:
			// Skip update if channel is full.
		}
	}

	if len(o.observers) == 0 {
		return
	}

	event := Event[T]{
		Phase:        phase,
		Iteration:    iteration,
		Sample:       s.clone(),
		Best:         o.best.clone(),
		Improved:     improved,
		Observations: o.model.Len(),
		Model:        o.model,
		Acquisition:  acq,
	}

	for _, obs := range o.observers {
		obs.Observe(event)
	}
}
