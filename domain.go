package bo

import (
	"fmt"
	"math"
	"math/rand/v2"

	"golang.org/x/exp/constraints"
	"gonum.org/v1/gonum/stat/distuv"
)

// Bounds is a box-constrained Domain: one closed interval per dimension.
//
// Random draws are uniform per dimension. Generate draws from a triangular
// distribution over each interval with its mode at the requested center,
// which keeps proposals close to the incumbent while still reaching every
// point of the box.
//
// Bounds holds a random source and is not safe for concurrent use.
type Bounds[T constraints.Float] struct {
	ranges []ParameterRange[T]
	start  []T
	src    rand.Source
}

// NewBounds creates a box domain.
//
// Parameters:
//   - ranges: One interval per dimension, Min < Max, both finite
//   - start: The first point evaluated; nil means the center of the box.
//     It is clamped into the box.
//   - src: Random source for Random and Generate
//
// Returns:
//   - *Bounds[T]: The domain
//   - error: ErrInvalidRange or ErrDimensionMismatch
//
// Usage example:
//
//	b, err := NewBounds([]ParameterRange[float64]{
//	    {Min: -5, Max: 10},
//	    {Min: 0, Max: 15},
//	}, nil, rand.NewPCG(1, 2))
func NewBounds[T constraints.Float](ranges []ParameterRange[T], start []T, src rand.Source) (*Bounds[T], error) {
	if len(ranges) == 0 {
		return nil, fmt.Errorf("bounds: no ranges: %w", ErrDimensionMismatch)
	}

	for i, r := range ranges {
		if !(r.Min < r.Max) || math.IsInf(float64(r.Min), 0) || math.IsInf(float64(r.Max), 0) {
			return nil, fmt.Errorf("bounds: range %d [%v, %v]: %w", i, r.Min, r.Max, ErrInvalidRange)
		}
	}

	b := &Bounds[T]{
		ranges: append([]ParameterRange[T](nil), ranges...),
		src:    src,
	}

	switch {
	case start == nil:
		b.start = center(ranges)
	case len(start) != len(ranges):
		return nil, fmt.Errorf("bounds: start has %d dimensions, want %d: %w",
			len(start), len(ranges), ErrDimensionMismatch)
	default:
		b.start = b.Project(start)
	}

	return b, nil
}

// Dim returns the number of dimensions.
func (b *Bounds[T]) Dim() int {
	return len(b.ranges)
}

// Ranges returns a copy of the intervals.
func (b *Bounds[T]) Ranges() []ParameterRange[T] {
	return append([]ParameterRange[T](nil), b.ranges...)
}

// Start returns a copy of the start point.
func (b *Bounds[T]) Start() []T {
	return append([]T(nil), b.start...)
}

// Random draws a point uniformly from the box.
func (b *Bounds[T]) Random() []T {
	out := make([]T, len(b.ranges))
	for i, r := range b.ranges {
		u := distuv.Uniform{Min: float64(r.Min), Max: float64(r.Max), Src: b.src}
		out[i] = b.clamp(i, T(u.Rand()))
	}

	return out
}

// Generate draws a point around c. Each coordinate follows a triangular
// distribution over its interval whose mode is c clamped into the interval.
//
// Panics if len(c) differs from Dim.
func (b *Bounds[T]) Generate(c []T) []T {
	b.check(len(c))

	out := make([]T, len(b.ranges))
	for i, r := range b.ranges {
		mode := b.clamp(i, c[i])
		t := distuv.NewTriangle(float64(r.Min), float64(r.Max), float64(mode), b.src)
		out[i] = b.clamp(i, T(t.Rand()))
	}

	return out
}

// Project clamps x into the box. NaN coordinates map to the interval's
// center.
//
// Panics if len(x) differs from Dim.
func (b *Bounds[T]) Project(x []T) []T {
	b.check(len(x))

	out := make([]T, len(x))
	for i := range x {
		out[i] = b.clamp(i, x[i])
	}

	return out
}

func (b *Bounds[T]) clamp(i int, v T) T {
	r := b.ranges[i]

	if math.IsNaN(float64(v)) {
		return r.Min + (r.Max-r.Min)/2
	}

	return min(max(v, r.Min), r.Max)
}

func (b *Bounds[T]) check(n int) {
	if n != len(b.ranges) {
		panic(fmt.Sprintf("bounds: point has %d dimensions, want %d", n, len(b.ranges)))
	}
}
