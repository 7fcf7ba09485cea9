// Package fit estimates surface model parameters and sample rotation by least squares.
//
// The objective is Σ r² over the residuals of surface.Residuals, minimised jointly over the shape
// parameters and the three rotation angles with gonum's optimize package.
package fit

import (
	"context"
	"math"
	"time"

	"github.com/golang/geo/r3"
	"github.com/montanaflynn/stats"
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/diff/fd"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/optimize"
	"gonum.org/v1/gonum/stat"

	"github.com/surfacemetrology/surfacefit/logging"
	"github.com/surfacemetrology/surfacefit/spatialmath"
	"github.com/surfacemetrology/surfacefit/surface"
	"github.com/surfacemetrology/surfacefit/utils"
)

// Optimization methods.
const (
	MethodNelderMead = "nelder-mead"
	MethodBFGS       = "bfgs"
)

// nonFinitePenalty replaces a NaN or infinite cost, e.g. a cylinder evaluated outside its radius,
// so the search can step back out of the invalid region.
const nonFinitePenalty = 1e300

// Settings control a single minimisation.
type Settings struct {
	Method         string
	MaxIterations  int
	MaxEvaluations int
	// Tolerance is the absolute change in cost under which the fit is considered converged.
	Tolerance float64
	// Concurrency bounds the number of starts FitMultiStart runs at once. Zero means one per start.
	Concurrency int
}

// DefaultSettings returns settings suitable for point clouds of a few hundred markers.
func DefaultSettings() Settings {
	return Settings{
		Method:         MethodNelderMead,
		MaxIterations:  20000,
		MaxEvaluations: 100000,
		Tolerance:      1e-12,
	}
}

func (s Settings) method() (optimize.Method, error) {
	switch s.Method {
	case "", MethodNelderMead:
		return &optimize.NelderMead{}, nil
	case MethodBFGS:
		return &optimize.BFGS{}, nil
	default:
		return nil, errors.Errorf("unknown optimization method %q", s.Method)
	}
}

// Result is the outcome of a fit.
type Result struct {
	Model  surface.Model
	Params []float64
	Angles *spatialmath.EulerAngles

	// Cost is the sum of squared residuals at the solution.
	Cost           float64
	RMSE           float64
	MaxAbsResidual float64
	MeanResidual   float64
	StdDevResidual float64
	// MedianAbsResidual and P95AbsResidual summarise |r| over the finite residuals.
	MedianAbsResidual float64
	P95AbsResidual    float64
	Residuals         []float64

	Iterations  int
	Evaluations int
	Status      string
	Runtime     time.Duration
}

// Finite reports whether every residual at the solution is finite.
func (r *Result) Finite() bool {
	return utils.AllFinite(r.Residuals)
}

// Vector returns the solution as an optimizer vector {params..., roll, pitch, yaw}.
func (r *Result) Vector() []float64 {
	return surface.JoinParams(r.Params, r.Angles)
}

// Evaluate returns the rotated points and model predictions at the solution.
func (r *Result) Evaluate(pts []r3.Vector) *surface.Evaluation {
	return surface.Evaluate(pts, r.Model, r.Params, r.Angles)
}

// Cost returns the objective minimised by Fit for the optimizer vector x.
func Cost(pts []r3.Vector, m surface.Model, x []float64) float64 {
	c := surface.SumOfSquares(surface.Objective(pts, m)(x))
	if !utils.IsFinite(c) {
		return nonFinitePenalty
	}
	return c
}

// Fit minimises the squared residuals of m over pts starting from initial, an optimizer vector
// {params..., roll, pitch, yaw}.
func Fit(
	ctx context.Context,
	pts []r3.Vector,
	m surface.Model,
	initial []float64,
	settings Settings,
	logger logging.Logger,
) (*Result, error) {
	nVars := surface.NumParams(m) + surface.NumAngles
	if len(initial) != nVars {
		return nil, errors.Errorf("model %q needs %d initial values (%v plus 3 angles), got %d",
			m.Name(), nVars, m.ParamNames(), len(initial))
	}
	if len(pts) < nVars {
		return nil, errors.Errorf("need at least %d points to fit model %q, got %d", nVars, m.Name(), len(pts))
	}
	method, err := settings.method()
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	problem := optimize.Problem{
		Func: func(x []float64) float64 {
			return Cost(pts, m, x)
		},
	}
	if settings.Method == MethodBFGS {
		problem.Grad = func(grad, x []float64) {
			fd.Gradient(grad, problem.Func, x, &fd.Settings{Formula: fd.Central})
		}
	}

	tol := settings.Tolerance
	if tol <= 0 {
		tol = DefaultSettings().Tolerance
	}
	optSettings := &optimize.Settings{
		MajorIterations: settings.MaxIterations,
		FuncEvaluations: settings.MaxEvaluations,
		Converger:       &optimize.FunctionConverge{Absolute: tol, Iterations: 200},
		Recorder:        &contextRecorder{ctx: ctx, logger: logger, model: m.Name()},
	}

	logger.Debugw("starting fit", "model", m.Name(), "method", settings.Method, "points", len(pts), "initial", initial)
	start := time.Now()
	res, err := optimize.Minimize(problem, append([]float64(nil), initial...), optSettings, method)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		if res == nil {
			return nil, errors.Wrapf(err, "fitting model %q", m.Name())
		}
		// The method failed to make progress; report what it reached.
		logger.Warnw("optimizer stopped early", "model", m.Name(), "error", err)
	}

	result := newResult(pts, m, res.X)
	result.Iterations = res.MajorIterations
	result.Evaluations = res.FuncEvaluations
	result.Status = res.Status.String()
	result.Runtime = time.Since(start)
	if !result.Angles.RotationMatrix().IsOrthonormal(1e-9) {
		logger.Warnw("fitted rotation is not orthonormal", "model", m.Name(), "angles", result.Angles.Slice())
	}

	logger.Infow("fit finished",
		"model", m.Name(),
		"params", result.Params,
		"angles", result.Angles.Slice(),
		"rmse", result.RMSE,
		"iterations", result.Iterations,
		"status", result.Status)
	return result, nil
}

// NewResult computes the residual statistics of a given solution without optimising.
func NewResult(pts []r3.Vector, m surface.Model, x []float64) (*Result, error) {
	if len(x) != surface.NumParams(m)+surface.NumAngles {
		return nil, errors.Errorf("model %q needs %d values, got %d", m.Name(), surface.NumParams(m)+surface.NumAngles, len(x))
	}
	return newResult(pts, m, x), nil
}

func newResult(pts []r3.Vector, m surface.Model, x []float64) *Result {
	x = append([]float64(nil), x...)
	params, angles := surface.SplitParams(m, x)
	res := surface.Residuals(pts, m, params, angles)

	result := &Result{
		Model:     m,
		Params:    params,
		Angles:    angles,
		Residuals: res,
		Cost:      surface.SumOfSquares(res),
	}
	if len(res) == 0 {
		result.RMSE = math.NaN()
		result.MeanResidual = math.NaN()
		result.StdDevResidual = math.NaN()
		result.MedianAbsResidual = math.NaN()
		result.P95AbsResidual = math.NaN()
		return result
	}
	result.RMSE = math.Sqrt(result.Cost / float64(len(res)))
	result.MaxAbsResidual = floats.Norm(res, math.Inf(1))
	result.MeanResidual, result.StdDevResidual = stat.MeanStdDev(res, nil)
	result.MedianAbsResidual, result.P95AbsResidual = absResidualPercentiles(res)
	return result
}

// absResidualPercentiles returns the median and 95th percentile of |r| over the finite residuals,
// or NaN for both when there are none.
func absResidualPercentiles(res []float64) (median, p95 float64) {
	abs := make(stats.Float64Data, 0, len(res))
	for _, r := range res {
		if utils.IsFinite(r) {
			abs = append(abs, math.Abs(r))
		}
	}
	median, err := stats.Median(abs)
	if err != nil {
		return math.NaN(), math.NaN()
	}
	p95, err = stats.Percentile(abs, 95)
	if err != nil {
		return median, math.NaN()
	}
	return median, p95
}

// contextRecorder stops the optimizer once ctx is done and logs progress.
type contextRecorder struct {
	ctx    context.Context
	logger logging.Logger
	model  string
}

func (cr *contextRecorder) Init() error {
	return cr.ctx.Err()
}

func (cr *contextRecorder) Record(loc *optimize.Location, op optimize.Operation, stats *optimize.Stats) error {
	if err := cr.ctx.Err(); err != nil {
		return err
	}
	if op == optimize.MajorIteration && stats.MajorIterations%1000 == 0 {
		cr.logger.Debugw("fit progress", "model", cr.model, "iteration", stats.MajorIterations, "cost", loc.F)
	}
	return nil
}
