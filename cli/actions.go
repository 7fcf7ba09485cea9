package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/pkg/errors"
	"github.com/urfave/cli/v2"
	"go.uber.org/multierr"
	"golang.org/x/sync/errgroup"

	"github.com/surfacemetrology/surfacefit/config"
	"github.com/surfacemetrology/surfacefit/fit"
	"github.com/surfacemetrology/surfacefit/fitplot"
	"github.com/surfacemetrology/surfacefit/pointcloud"
	"github.com/surfacemetrology/surfacefit/spatialmath"
	"github.com/surfacemetrology/surfacefit/surface"
	"github.com/surfacemetrology/surfacefit/utils"
)

func inputOutputArgs(c *cli.Context) (string, string, error) {
	if c.Args().Len() != 2 {
		return "", "", errors.Errorf("expected <input> <output>, got %d arguments", c.Args().Len())
	}
	return c.Args().Get(0), c.Args().Get(1), nil
}

// ImportAction converts a marker export to a text point file.
func ImportAction(c *cli.Context) error {
	in, out, err := inputOutputArgs(c)
	if err != nil {
		return err
	}
	logger := getLogger(c)

	pts, err := pointcloud.ReadMarkerFile(in, logger)
	if err != nil {
		return err
	}
	total := len(pts)
	if c.IsSet(minZFlag) {
		pts = pts.FilterMinZ(c.Float64(minZFlag))
	} else if format, _ := pointcloud.MarkerFormatFromPath(in); format == pointcloud.MarkerRefXML {
		pts = pts.FilterMinZ(pointcloud.DefaultRefXMLMinZ)
	}
	if err := pointcloud.WriteFile(out, pts); err != nil {
		return errors.Wrapf(err, "writing %s", out)
	}
	printf(c.App.Writer, "imported %d of %d points from %s to %s", len(pts), total, in, out)
	return nil
}

// fitConfigFromContext reads the config file, if any, and applies command line overrides.
func fitConfigFromContext(c *cli.Context) (*config.FitConfig, error) {
	cfg := config.Default()
	if path := c.String(configFlag); path != "" {
		var err error
		if cfg, err = config.Read(path); err != nil {
			return nil, err
		}
	}
	if c.IsSet(inputFlag) {
		cfg.Input = c.String(inputFlag)
	}
	if c.IsSet(modelFlag) {
		cfg.Models = c.StringSlice(modelFlag)
	}
	if c.IsSet(minZFlag) {
		minZ := c.Float64(minZFlag)
		cfg.MinZ = &minZ
	}
	if c.IsSet(methodFlag) {
		cfg.Method = c.String(methodFlag)
	}
	if c.IsSet(startsFlag) {
		cfg.Starts = c.Int(startsFlag)
	}
	if c.IsSet(concurrencyFlag) {
		cfg.Concurrency = c.Int(concurrencyFlag)
	}
	if c.IsSet(outputDirFlag) {
		cfg.OutputDir = c.String(outputDirFlag)
	}
	if c.IsSet(plotFormatFlag) {
		cfg.PlotFormat = c.String(plotFormatFlag)
	}
	if err := cfg.Validate("flags"); err != nil {
		return nil, err
	}
	return cfg, nil
}

// FitAction fits every configured model and prints the results best first.
func FitAction(c *cli.Context) error {
	cfg, err := fitConfigFromContext(c)
	if err != nil {
		return err
	}
	logger := getLogger(c)

	pts, err := cfg.LoadPoints(logger)
	if err != nil {
		return err
	}
	logger.Infow("loaded points", "input", cfg.Input, "points", len(pts))

	settings := cfg.Settings()
	var results []*fit.Result
	for _, name := range cfg.Models {
		m, err := surface.Lookup(name)
		if err != nil {
			return err
		}
		starts, err := cfg.StartVectors(m, pts)
		if err != nil {
			return errors.Wrapf(err, "initial parameters for %q", name)
		}
		res, err := fit.FitMultiStart(c.Context, pts, m, starts, settings, logger.Sublogger(name))
		if err != nil {
			return err
		}
		results = append(results, res)
	}
	results = fit.Compare(results)
	printf(c.App.Writer, "%s", fit.Summary(results))

	if cfg.OutputDir == "" {
		return nil
	}
	dir := cfg.ResolvePath(cfg.OutputDir)
	if err := writeFitOutputs(dir, cfg, pts, results); err != nil {
		return err
	}
	printf(c.App.Writer, "wrote results to %s", dir)
	return nil
}

const (
	resultsFile         = "results.json"
	effectiveConfigFile = "fit_config.json"
)

// resultJSON is the results.json entry of one fitted model.
type resultJSON struct {
	Model      string             `json:"model"`
	Params     map[string]float64 `json:"params"`
	AnglesDeg  []float64          `json:"angles_deg"`
	RMSE       float64            `json:"rmse"`
	MedianAbs  float64            `json:"median_abs_residual"`
	P95Abs     float64            `json:"p95_abs_residual"`
	MaxAbs     float64            `json:"max_abs_residual"`
	Iterations int                `json:"iterations"`
	Status     string             `json:"status"`
}

func newResultJSON(r *fit.Result) resultJSON {
	params := make(map[string]float64, len(r.Params))
	for i, name := range r.Model.ParamNames() {
		params[name] = r.Params[i]
	}
	anglesDeg := make([]float64, 0, surface.NumAngles)
	for _, a := range r.Angles.Slice() {
		anglesDeg = append(anglesDeg, utils.RadToDeg(a))
	}
	return resultJSON{
		Model:      r.Model.Name(),
		Params:     params,
		AnglesDeg:  anglesDeg,
		RMSE:       nanToZero(r.RMSE),
		MedianAbs:  nanToZero(r.MedianAbsResidual),
		P95Abs:     nanToZero(r.P95AbsResidual),
		MaxAbs:     nanToZero(r.MaxAbsResidual),
		Iterations: r.Iterations,
		Status:     r.Status,
	}
}

// nanToZero keeps results.json valid JSON, which has no NaN or Inf.
func nanToZero(v float64) float64 {
	if !utils.IsFinite(v) {
		return 0
	}
	return v
}

// writeFitOutputs writes, for each result, its evaluation columns and plots, plus a top view of the
// markers, a results.json summary and the effective config. Plots are rendered concurrently.
func writeFitOutputs(dir string, cfg *config.FitConfig, pts pointcloud.Vectors, results []*fit.Result) error {
	//nolint:gosec
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	if err := writeJSONFile(filepath.Join(dir, effectiveConfigFile), func(f *os.File) error {
		return config.Write(f, cfg)
	}); err != nil {
		return err
	}

	format := cfg.PlotFormat
	var plots errgroup.Group
	plots.Go(func() error {
		return fitplot.TopView(pts, "markers", filepath.Join(dir, "markers_top."+format))
	})
	summaries := make([]resultJSON, 0, len(results))
	for _, r := range results {
		ev := r.Evaluate(pts)
		name := r.Model.Name()
		if err := writeEvaluation(filepath.Join(dir, name+"_eval.txt"), ev); err != nil {
			return multierr.Combine(err, plots.Wait())
		}
		title := fmt.Sprintf("%s (RMSE %.4g)", name, r.RMSE)
		plots.Go(func() error {
			return fitplot.Profile(ev, title, filepath.Join(dir, name+"_profile."+format))
		})
		plots.Go(func() error {
			return fitplot.Residuals(ev, name+" residuals", filepath.Join(dir, name+"_residuals."+format))
		})
		summaries = append(summaries, newResultJSON(r))
	}
	if err := plots.Wait(); err != nil {
		return err
	}

	return writeJSONFile(filepath.Join(dir, resultsFile), func(f *os.File) error {
		enc := json.NewEncoder(f)
		enc.SetIndent("", "  ")
		return enc.Encode(summaries)
	})
}

func writeJSONFile(fn string, write func(f *os.File) error) (err error) {
	//nolint:gosec
	f, err := os.Create(fn)
	if err != nil {
		return err
	}
	defer func() {
		err = multierr.Combine(err, f.Close())
	}()
	return write(f)
}

func writeEvaluation(fn string, ev *surface.Evaluation) (err error) {
	//nolint:gosec
	f, err := os.Create(fn)
	if err != nil {
		return err
	}
	defer func() {
		err = multierr.Combine(err, f.Close())
	}()
	return pointcloud.WriteColumns(f, ev.X, ev.Y, ev.Z, ev.Predicted)
}

// EvalAction evaluates a model at the given parameters and writes the rotated points with the
// predicted elevation.
func EvalAction(c *cli.Context) error {
	in, out, err := inputOutputArgs(c)
	if err != nil {
		return err
	}
	m, err := surface.Lookup(c.String(modelFlag))
	if err != nil {
		return err
	}
	params := c.Float64Slice(paramsFlag)
	if err := surface.CheckParams(m, params); err != nil {
		return err
	}
	angles := spatialmath.NewEulerAngles()
	if c.IsSet(anglesDegFlag) {
		degs := c.Float64Slice(anglesDegFlag)
		if len(degs) != surface.NumAngles {
			return errors.Errorf("--%s needs %d values, got %d", anglesDegFlag, surface.NumAngles, len(degs))
		}
		angles = spatialmath.NewEulerAnglesFromSlice(utils.AnglesDegToRad(degs))
	}

	pts, err := pointcloud.ReadFile(in, getLogger(c))
	if err != nil {
		return err
	}
	res, err := fit.NewResult(pts, m, surface.JoinParams(params, angles))
	if err != nil {
		return err
	}
	if err := writeEvaluation(out, res.Evaluate(pts)); err != nil {
		return errors.Wrapf(err, "writing %s", out)
	}
	printf(c.App.Writer, "evaluated %s on %d points, RMSE %.6g", m.Name(), len(pts), res.RMSE)
	return nil
}

// ModelsAction lists the registered surface models and their parameters.
func ModelsAction(c *cli.Context) error {
	t := table.NewWriter()
	t.AppendHeader(table.Row{"Model", "Parameters", "Optimizer vector"})
	for _, name := range surface.Names() {
		m, err := surface.Lookup(name)
		if err != nil {
			return err
		}
		vec := append(append([]string(nil), m.ParamNames()...), "α", "β", "γ")
		t.AppendRow(table.Row{name, strings.Join(m.ParamNames(), ", "), strings.Join(vec, ", ")})
	}
	printf(c.App.Writer, "%s", t.Render())
	return nil
}
