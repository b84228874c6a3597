// Package bo provides sample-efficient minimization of expensive black-box
// functions over a bounded domain using Bayesian optimization with Gaussian
// Processes.
//
// # Features
//
// The package includes the following key features:
//
//   - Gaussian Process regression with incremental training: each new
//     observation extends the Cholesky factor by one row instead of
//     refactorizing the covariance matrix
//   - Differentiable predictions: the kernel, the solver and the acquisition
//     functions are written once against generic scalar arithmetic, so the
//     same code runs on plain numbers and on the dual numbers of package
//     dual
//   - Gradient-based acquisition search instead of random candidates
//   - Generic Implementation: Works with float32 and float64
//   - Progress Monitoring: Real-time updates via channels and observers
//
// # Acquisition Functions
//
// All acquisition functions are maximized.
//
// 1. Expected Improvement (EI), the default:
//
//   - Balances improvement probability and magnitude
//
//   - Always >= 0
//
//     config := DefaultConfig[float64]()
//     config.AcquisitionFunc = NewExpectedImprovement[float64]
//
// 2. Probability of Improvement (PI):
//
//   - Conservative exploration strategy
//
//   - Xi sets the minimum improvement that counts
//
//     config.AcquisitionFunc = ProbabilityOfImprovement[float64](0.01)
//
// 3. Lower Confidence Bound (LCB):
//
//   - Beta weights uncertainty against the predicted mean
//
//     config.AcquisitionFunc = LowerConfidenceBound[float64](2.0)
//
// # Usage
//
// The shortest path is Minimize:
//
//	best, err := Minimize(DefaultConfig[float64](), objective,
//	    ParameterRange[float64]{Min: -5, Max: 10},
//	    ParameterRange[float64]{Min: 0, Max: 15},
//	)
//
// For full control build the pieces and drive the loop yourself:
//
//	kernel, _ := NewRadial(2.0)
//	domain, _ := NewBounds(ranges, nil, rand.NewPCG(1, 2))
//	model, _ := NewProcess[float64](kernel, 2, nil, 1e-3)
//	opt, _ := New[float64](model, domain, objective, DefaultConfig[float64]())
//
//	_ = opt.Warmup(30)
//	for i := 0; i < 50; i++ {
//	    _ = opt.Run(1, GradientConfig[float64]{MaxSteps: 100, Rate: 0.01, Eps: 1e-3})
//	}
//
//	best := opt.Best()
//
// # Observation
//
// Every evaluation is reported on Config.ProgressChan and to each of
// Config.Observers. SnapshotWriter dumps events as JSON Lines; the
// internal/telemetry package exports them as Prometheus metrics. A plain
// function works too:
//
//	config.Observers = append(config.Observers, ObserverFunc[float64](func(e Event[float64]) {
//	    log.Printf("%s %d: y=%g best=%g", e.Phase, e.Iteration, e.Sample.Y, e.Best.Y)
//	}))
//
// # Concurrency
//
// The optimizer and the model are single-threaded and must not be shared
// between goroutines while in use. Progress channel sends never block.
package bo
