// Package config defines the JSON document that drives a surface fitting run.
package config

import (
	"os"
	"path/filepath"

	"github.com/golang/geo/r3"
	"github.com/pkg/errors"

	"github.com/surfacemetrology/surfacefit/fit"
	"github.com/surfacemetrology/surfacefit/logging"
	"github.com/surfacemetrology/surfacefit/pointcloud"
	"github.com/surfacemetrology/surfacefit/spatialmath"
	"github.com/surfacemetrology/surfacefit/surface"
	"github.com/surfacemetrology/surfacefit/utils"
)

// Plot formats understood by gonum/plot.
var plotFormats = map[string]struct{}{
	"png": {}, "svg": {}, "pdf": {}, "eps": {}, "jpg": {}, "tif": {},
}

// FitConfig describes which point cloud to load, which models to fit to it and where to write the
// results.
type FitConfig struct {
	// Input is a marker export (.refxml, .xml) or a whitespace separated x y z text file.
	Input string `json:"input"`
	// MinZ drops points below this height. Nil uses the default of the input format.
	MinZ *float64 `json:"min_z,omitempty"`

	Models []string `json:"models"`
	// Initial holds shape parameters per model name. Models without an entry are guessed
	// from the point cloud.
	Initial   map[string][]float64 `json:"initial,omitempty"`
	AnglesDeg []float64            `json:"angles_deg,omitempty"`

	Method        string `json:"method,omitempty"`
	MaxIterations int    `json:"max_iterations,omitempty"`
	Starts        int    `json:"starts,omitempty"`
	Concurrency   int    `json:"concurrency,omitempty"`

	OutputDir  string `json:"output_dir,omitempty"`
	PlotFormat string `json:"plot_format,omitempty"`

	// ConfigFilePath is the file the config was read from, if any.
	ConfigFilePath string `json:"-"`
}

// Default returns a config fitting every registered model with default settings.
func Default() *FitConfig {
	return &FitConfig{
		Models:     surface.Names(),
		AnglesDeg:  []float64{0, 0, 0},
		Method:     fit.MethodNelderMead,
		Starts:     1,
		PlotFormat: "png",
	}
}

// Validate checks the config and fills in defaults. path prefixes field names in errors.
func (c *FitConfig) Validate(path string) error {
	if c.Input == "" {
		return utils.NewConfigValidationFieldRequiredError(path, "input")
	}
	if len(c.Models) == 0 {
		return utils.NewConfigValidationFieldRequiredError(path, "models")
	}
	seen := make(map[string]bool, len(c.Models))
	models := make([]string, 0, len(c.Models))
	for idx, name := range c.Models {
		if _, err := surface.Lookup(name); err != nil {
			return utils.NewConfigValidationError(utils.FieldPath(utils.FieldPath(path, "models"), idx), err)
		}
		if seen[name] {
			continue
		}
		seen[name] = true
		models = append(models, name)
	}
	// Output files are named by model, so each model is fitted once.
	c.Models = models
	for name, params := range c.Initial {
		initialPath := utils.FieldPath(utils.FieldPath(path, "initial"), name)
		m, err := surface.Lookup(name)
		if err != nil {
			return utils.NewConfigValidationError(initialPath, err)
		}
		if err := surface.CheckParams(m, params); err != nil {
			return utils.NewConfigValidationError(initialPath, err)
		}
	}

	if c.AnglesDeg == nil {
		c.AnglesDeg = []float64{0, 0, 0}
	}
	if len(c.AnglesDeg) != surface.NumAngles {
		return utils.NewConfigValidationError(utils.FieldPath(path, "angles_deg"),
			errors.Errorf("need %d angles, got %d", surface.NumAngles, len(c.AnglesDeg)))
	}

	switch c.Method {
	case "":
		c.Method = fit.MethodNelderMead
	case fit.MethodNelderMead, fit.MethodBFGS:
	default:
		return utils.NewConfigValidationError(utils.FieldPath(path, "method"),
			errors.Errorf("unknown method %q, expected %q or %q", c.Method, fit.MethodNelderMead, fit.MethodBFGS))
	}
	if c.MaxIterations < 0 {
		return utils.NewConfigValidationError(utils.FieldPath(path, "max_iterations"), errors.New("must be non-negative"))
	}
	if c.Starts < 0 {
		return utils.NewConfigValidationError(utils.FieldPath(path, "starts"), errors.New("must be non-negative"))
	}
	if c.Starts == 0 {
		c.Starts = 1
	}
	if c.Concurrency < 0 {
		return utils.NewConfigValidationError(utils.FieldPath(path, "concurrency"), errors.New("must be non-negative"))
	}

	if c.PlotFormat == "" {
		c.PlotFormat = "png"
	}
	if _, ok := plotFormats[c.PlotFormat]; !ok {
		return utils.NewConfigValidationError(utils.FieldPath(path, "plot_format"),
			errors.Errorf("unsupported plot format %q", c.PlotFormat))
	}
	return nil
}

// Settings returns the optimizer settings described by the config.
func (c *FitConfig) Settings() fit.Settings {
	settings := fit.DefaultSettings()
	if c.Method != "" {
		settings.Method = c.Method
	}
	if c.MaxIterations > 0 {
		settings.MaxIterations = c.MaxIterations
	}
	settings.Concurrency = c.Concurrency
	return settings
}

// InitialAngles returns the configured starting rotation in radians.
func (c *FitConfig) InitialAngles() *spatialmath.EulerAngles {
	if len(c.AnglesDeg) != surface.NumAngles {
		return spatialmath.NewEulerAngles()
	}
	return spatialmath.NewEulerAnglesFromSlice(utils.AnglesDegToRad(c.AnglesDeg))
}

// InitialVector returns the optimizer starting vector for m: the configured shape parameters, or
// a guess from pts, followed by the configured angles.
func (c *FitConfig) InitialVector(m surface.Model, pts []r3.Vector) ([]float64, error) {
	params, ok := c.Initial[m.Name()]
	if !ok {
		guess, err := fit.DefaultInitial(m, pts)
		if err != nil {
			return nil, err
		}
		params = guess[:surface.NumParams(m)]
	}
	if err := surface.CheckParams(m, params); err != nil {
		return nil, err
	}
	return surface.JoinParams(append([]float64(nil), params...), c.InitialAngles()), nil
}

// StartVectors returns the starting vectors for m, jittering the angles of the initial vector when more
// than one start is configured.
func (c *FitConfig) StartVectors(m surface.Model, pts []r3.Vector) ([][]float64, error) {
	initial, err := c.InitialVector(m, pts)
	if err != nil {
		return nil, err
	}
	return fit.JitterStarts(m, initial, c.Starts, utils.DegToRad(2), 1), nil
}

// ResolvePath resolves a relative path against $SURFACEFIT_DATA_DIR, or else the directory of the
// config file.
func (c *FitConfig) ResolvePath(p string) string {
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	if dir := os.Getenv(utils.DataDirEnvVar); dir != "" {
		return filepath.Join(dir, p)
	}
	if c.ConfigFilePath != "" {
		return filepath.Join(filepath.Dir(c.ConfigFilePath), p)
	}
	return p
}

// LoadPoints reads the input file and applies the height filter.
func (c *FitConfig) LoadPoints(logger logging.Logger) (pointcloud.Vectors, error) {
	fn := c.ResolvePath(c.Input)
	pts, err := pointcloud.ReadFile(fn, logger)
	if err != nil {
		return nil, err
	}

	minZ := c.MinZ
	if minZ == nil {
		if format, ferr := pointcloud.MarkerFormatFromPath(fn); ferr == nil && format == pointcloud.MarkerRefXML {
			def := pointcloud.DefaultRefXMLMinZ
			minZ = &def
		}
	}
	if minZ != nil {
		before := len(pts)
		pts = pts.FilterMinZ(*minZ)
		logger.Infow("filtered points by height", "min_z", *minZ, "kept", len(pts), "dropped", before-len(pts))
	}
	return pts, nil
}
