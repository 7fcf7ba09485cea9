package fit

import (
	"context"
	"math"
	"sort"

	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"

	"github.com/surfacemetrology/surfacefit/logging"
	"github.com/surfacemetrology/surfacefit/surface"
)

// FitMultiStart runs Fit from every start concurrently and returns the result with the lowest cost.
// A start that fails is logged and skipped; an error is returned only if every start fails or
// ctx is cancelled.
//
//nolint:revive
func FitMultiStart(
	ctx context.Context,
	pts []r3.Vector,
	m surface.Model,
	starts [][]float64,
	settings Settings,
	logger logging.Logger,
) (*Result, error) {
	if len(starts) == 0 {
		return nil, errors.New("no starting points given")
	}

	results := make([]*Result, len(starts))
	errs, ctx := errgroup.WithContext(ctx)
	if settings.Concurrency > 0 {
		errs.SetLimit(settings.Concurrency)
	}
	for i, start := range starts {
		i, start := i, start
		errs.Go(func() error {
			res, err := Fit(ctx, pts, m, start, settings, logger)
			if err != nil {
				if ctxErr := ctx.Err(); ctxErr != nil {
					return ctxErr
				}
				logger.Warnw("fit start failed", "model", m.Name(), "start", i, "error", err)
				return nil
			}
			results[i] = res
			return nil
		})
	}
	if err := errs.Wait(); err != nil {
		return nil, err
	}

	var best *Result
	for _, res := range results {
		if res == nil {
			continue
		}
		if best == nil || better(res, best) {
			best = res
		}
	}
	if best == nil {
		return nil, errors.Errorf("all %d starts failed for model %q", len(starts), m.Name())
	}
	return best, nil
}

func better(a, b *Result) bool {
	ca, cb := a.Cost, b.Cost
	if math.IsNaN(ca) {
		return false
	}
	if math.IsNaN(cb) {
		return true
	}
	return ca < cb
}

// Compare sorts results from best to worst by RMSE. Results with non-finite residuals sort last,
// and ties go to the model with fewer parameters.
func Compare(results []*Result) []*Result {
	sorted := make([]*Result, 0, len(results))
	for _, r := range results {
		if r != nil {
			sorted = append(sorted, r)
		}
	}
	sort.SliceStable(sorted, func(i, j int) bool {
		a, b := sorted[i], sorted[j]
		if a.Finite() != b.Finite() {
			return a.Finite()
		}
		if a.RMSE != b.RMSE {
			return a.RMSE < b.RMSE
		}
		return surface.NumParams(a.Model) < surface.NumParams(b.Model)
	})
	return sorted
}
