package bo

import (
	"encoding/json"
	"fmt"
	"io"

	"golang.org/x/exp/constraints"
)

//////
// Const, vars, types.
//////

// Grid is a rectangular lattice over a 2-D domain. Each axis is split into
// Steps intervals, so the lattice has (Steps+1)² points.
type Grid[T constraints.Float] struct {
	X     ParameterRange[T] `json:"x" yaml:"x"`
	Y     ParameterRange[T] `json:"y" yaml:"y"`
	Steps int               `json:"steps" yaml:"steps"`
}

// Surface holds model and acquisition values over a Grid, flattened in
// row-major order (X outer, Y inner).
type Surface[T constraints.Float] struct {
	X           []T `json:"x"`
	Y           []T `json:"y"`
	Mean        []T `json:"mean"`
	Variance    []T `json:"variance"`
	Acquisition []T `json:"acquisition,omitempty"`
}

// Snapshot is one line of SnapshotWriter output.
type Snapshot[T constraints.Float] struct {
	Phase        Phase       `json:"phase"`
	Iteration    int         `json:"iteration"`
	Sample       Sample[T]   `json:"sample"`
	Best         Sample[T]   `json:"best"`
	Improved     bool        `json:"improved"`
	Observations int         `json:"observations"`
	Surface      *Surface[T] `json:"surface,omitempty"`
}

// SnapshotWriter is an Observer writing one JSON document per event (JSON
// Lines). When a grid is configured and the model is 2-D, each snapshot also
// holds the predictive mean and variance over the grid and, for
// acquisition-driven samples, the acquisition values.
//
// Writing stops at the first error, which Err reports.
type SnapshotWriter[T constraints.Float] struct {
	enc  *json.Encoder
	grid *Grid[T]
	err  error
}

//////
// Factory.
//////

// NewSnapshotWriter creates a SnapshotWriter on w. grid may be nil.
//
// Usage example:
//
//	f, _ := os.Create("snapshots.jsonl")
//	defer f.Close()
//
//	sw, err := NewSnapshotWriter(f, &Grid[float64]{
//	    X:     ParameterRange[float64]{Min: -5, Max: 10},
//	    Y:     ParameterRange[float64]{Min: 0, Max: 15},
//	    Steps: 50,
//	})
//	config.Observers = append(config.Observers, sw)
func NewSnapshotWriter[T constraints.Float](w io.Writer, grid *Grid[T]) (*SnapshotWriter[T], error) {
	if grid != nil {
		if grid.Steps < 1 {
			return nil, fmt.Errorf("snapshot: grid steps %d: %w", grid.Steps, ErrInvalidConfig)
		}

		if !(grid.X.Min < grid.X.Max) || !(grid.Y.Min < grid.Y.Max) {
			return nil, fmt.Errorf("snapshot: grid %v x %v: %w", grid.X, grid.Y, ErrInvalidRange)
		}
	}

	return &SnapshotWriter[T]{enc: json.NewEncoder(w), grid: grid}, nil
}

//////
// Methods.
//////

// Observe writes the snapshot of e.
func (s *SnapshotWriter[T]) Observe(e Event[T]) {
	if s.err != nil {
		return
	}

	snap := Snapshot[T]{
		Phase:        e.Phase,
		Iteration:    e.Iteration,
		Sample:       e.Sample,
		Best:         e.Best,
		Improved:     e.Improved,
		Observations: e.Observations,
	}

	if s.grid != nil && e.Model.Dim() == 2 {
		snap.Surface = s.surface(e.Model, e.Acquisition)
	}

	if err := s.enc.Encode(snap); err != nil {
		s.err = fmt.Errorf("snapshot: %s %d: %w", e.Phase, e.Iteration, err)
	}
}

// Err returns the first write error.
func (s *SnapshotWriter[T]) Err() error {
	return s.err
}

func (s *SnapshotWriter[T]) surface(model Surrogate[T], acq Acquisition[T]) *Surface[T] {
	g := s.grid
	n := (g.Steps + 1) * (g.Steps + 1)

	out := &Surface[T]{
		X:        make([]T, 0, n),
		Y:        make([]T, 0, n),
		Mean:     make([]T, 0, n),
		Variance: make([]T, 0, n),
	}

	if acq != nil {
		out.Acquisition = make([]T, 0, n)
	}

	dx := (g.X.Max - g.X.Min) / T(g.Steps)
	dy := (g.Y.Max - g.Y.Min) / T(g.Steps)

	for i := 0; i <= g.Steps; i++ {
		for j := 0; j <= g.Steps; j++ {
			p := []T{g.X.Min + T(i)*dx, g.Y.Min + T(j)*dy}

			mean, variance := model.Predict(p)

			out.X = append(out.X, p[0])
			out.Y = append(out.Y, p[1])
			out.Mean = append(out.Mean, mean)
			out.Variance = append(out.Variance, variance)

			if acq != nil {
				out.Acquisition = append(out.Acquisition, acq.Eval(p))
			}
		}
	}

	return out
}
