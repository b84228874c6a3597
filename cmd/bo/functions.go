package main

import (
	"math"
	"sort"

	"github.com/thalesfsp/bo"
	"gonum.org/v1/gonum/optimize/functions"
)

// testFunction is a benchmark objective with its usual search box.
type testFunction struct {
	name        string
	description string
	dim         int
	objective   bo.Objective[float64]
	ranges      []bo.ParameterRange[float64]
	minima      []functions.Minimum
}

var testFunctions = map[string]testFunction{
	"branin": {
		name:        "branin",
		description: "Branin-Hoo, three global minima",
		dim:         2,
		objective:   functions.BraninHoo{}.Func,
		ranges:      []bo.ParameterRange[float64]{{Min: -5, Max: 10}, {Min: 0, Max: 15}},
		minima:      functions.BraninHoo{}.Minima(),
	},
	"beale": {
		name:        "beale",
		description: "Beale, sharp ridges at the corners",
		dim:         2,
		objective:   functions.Beale{}.Func,
		ranges:      []bo.ParameterRange[float64]{{Min: -4.5, Max: 4.5}, {Min: -4.5, Max: 4.5}},
		minima:      functions.Beale{}.Minima(),
	},
	"rosenbrock": {
		name:        "rosenbrock",
		description: "Rosenbrock, narrow curved valley",
		dim:         2,
		objective:   functions.ExtendedRosenbrock{}.Func,
		ranges:      []bo.ParameterRange[float64]{{Min: -2, Max: 2}, {Min: -1, Max: 3}},
		minima:      functions.ExtendedRosenbrock{}.Minima(),
	},
}

func lookupFunction(name string) (testFunction, bool) {
	fn, ok := testFunctions[name]

	return fn, ok
}

// functionNames returns the registered names in lexical order.
func functionNames() []string {
	names := make([]string, 0, len(testFunctions))
	for name := range testFunctions {
		names = append(names, name)
	}

	sort.Strings(names)

	return names
}

// globalMinimum returns the smallest known global minimum in dim dimensions.
func (f testFunction) globalMinimum(dim int) (float64, bool) {
	best, found := math.Inf(1), false

	for _, m := range f.minima {
		if m.Global && len(m.X) == dim && m.F < best {
			best, found = m.F, true
		}
	}

	return best, found
}
