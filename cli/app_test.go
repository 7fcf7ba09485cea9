package cli

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"go.viam.com/test"

	"github.com/surfacemetrology/surfacefit/config"
	"github.com/surfacemetrology/surfacefit/logging"
	"github.com/surfacemetrology/surfacefit/pointcloud"
)

const refXML = `<?xml version="1.0"?>
<reference_points>
  <point><coordinates><x>0</x><y>-1</y><z>6</z></coordinates></point>
  <point><coordinates><x>0</x><y>0</y><z>4</z></coordinates></point>
  <point><coordinates><x>1</x><y>1</y><z>6.5</z></coordinates></point>
</reference_points>
`

func runApp(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	a := NewAppWithLogger(&out, &errOut, logging.NewTestLogger(t))
	err := a.Run(append([]string{"surfacefit"}, args...))
	return out.String(), err
}

// writeParabola writes points on z = 0.5 y² + 1 to a text file.
func writeParabola(t *testing.T, dir string) string {
	t.Helper()
	var pts pointcloud.Vectors
	for xi := 0; xi < 3; xi++ {
		for yi := -10; yi <= 10; yi++ {
			y := float64(yi) / 5
			pts = append(pts, pointcloud.NewVector(float64(xi), y, 0.5*y*y+1))
		}
	}
	fn := filepath.Join(dir, "parabola.txt")
	test.That(t, pointcloud.WriteFile(fn, pts), test.ShouldBeNil)
	return fn
}

func TestModelsCommand(t *testing.T) {
	out, err := runApp(t, "models")
	test.That(t, err, test.ShouldBeNil)
	for _, name := range []string{"parabolic", "parabolic-legacy", "cosh", "cylinder"} {
		test.That(t, out, test.ShouldContainSubstring, name)
	}
	test.That(t, out, test.ShouldContainSubstring, "y0, b, a, z0")
}

func TestImportCommand(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "Reference Points.refxml")
	test.That(t, os.WriteFile(in, []byte(refXML), 0o600), test.ShouldBeNil)

	out := filepath.Join(dir, "map_3d.txt")
	stdout, err := runApp(t, "import", in, out)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, stdout, test.ShouldContainSubstring, "imported 2 of 3 points")
	pts, err := pointcloud.ReadFile(out, logging.NewTestLogger(t))
	test.That(t, err, test.ShouldBeNil)
	test.That(t, pts, test.ShouldHaveLength, 2)

	_, err = runApp(t, "import", "--min-z", "0", in, out)
	test.That(t, err, test.ShouldBeNil)
	pts, err = pointcloud.ReadFile(out, logging.NewTestLogger(t))
	test.That(t, err, test.ShouldBeNil)
	test.That(t, pts, test.ShouldHaveLength, 3)

	_, err = runApp(t, "import", in)
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, "expected <input> <output>")
}

func TestEvalCommand(t *testing.T) {
	dir := t.TempDir()
	in := writeParabola(t, dir)
	out := filepath.Join(dir, "eval.txt")

	stdout, err := runApp(t, "eval", "--model", "parabolic", "--params", "0.5,0,1", in, out)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, stdout, test.ShouldContainSubstring, "RMSE 0")

	data, err := os.ReadFile(out)
	test.That(t, err, test.ShouldBeNil)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	test.That(t, lines, test.ShouldHaveLength, 63)
	test.That(t, strings.Fields(lines[0]), test.ShouldHaveLength, 4)

	_, err = runApp(t, "eval", "--model", "parabolic", "--params", "0.5,0", in, out)
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, "takes 3 parameters")

	_, err = runApp(t, "eval", "--model", "parabolic", "--params", "0.5,0,1", "--angles-deg", "1", in, out)
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, "angles-deg")

	_, err = runApp(t, "eval", "--model", "ellipse", "--params", "1", in, out)
	test.That(t, err, test.ShouldNotBeNil)
}

func TestFitCommand(t *testing.T) {
	dir := t.TempDir()
	in := writeParabola(t, dir)
	outDir := filepath.Join(dir, "results")

	stdout, err := runApp(t, "fit", "--input", in, "--model", "parabolic", "--model", "cosh", "--model", "parabolic",
		"--starts", "2", "--output-dir", outDir, "--plot-format", "svg")
	test.That(t, err, test.ShouldBeNil)
	test.That(t, stdout, test.ShouldContainSubstring, "RMSE")
	test.That(t, stdout, test.ShouldContainSubstring, "cosh")
	test.That(t, stdout, test.ShouldContainSubstring, "wrote results to")

	for _, name := range []string{
		"markers_top.svg",
		"parabolic_eval.txt", "parabolic_profile.svg", "parabolic_residuals.svg",
		"cosh_eval.txt", "cosh_profile.svg", "cosh_residuals.svg",
	} {
		_, err := os.Stat(filepath.Join(outDir, name))
		test.That(t, err, test.ShouldBeNil)
	}

	data, err := os.ReadFile(filepath.Join(outDir, "results.json"))
	test.That(t, err, test.ShouldBeNil)
	var results []resultJSON
	test.That(t, json.Unmarshal(data, &results), test.ShouldBeNil)
	test.That(t, results, test.ShouldHaveLength, 2)
	test.That(t, results[0].AnglesDeg, test.ShouldHaveLength, 3)
	test.That(t, results[0].RMSE, test.ShouldBeLessThan, 1e-2)

	cfg, err := config.Read(filepath.Join(outDir, "fit_config.json"))
	test.That(t, err, test.ShouldBeNil)
	test.That(t, cfg.Input, test.ShouldEqual, in)
	test.That(t, cfg.Models, test.ShouldResemble, []string{"parabolic", "cosh"})
	test.That(t, cfg.Starts, test.ShouldEqual, 2)
	test.That(t, cfg.PlotFormat, test.ShouldEqual, "svg")
}

func TestFitCommandOutputErrorWaitsForPlots(t *testing.T) {
	dir := t.TempDir()
	in := writeParabola(t, dir)
	outDir := filepath.Join(dir, "results")
	// A directory in place of the evaluation file makes writing it fail.
	test.That(t, os.MkdirAll(filepath.Join(outDir, "parabolic_eval.txt"), 0o750), test.ShouldBeNil)

	_, err := runApp(t, "fit", "--input", in, "--model", "parabolic", "--output-dir", outDir)
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, "parabolic_eval.txt")

	// The top view was started before the failure and has finished by the time the command returns.
	_, err = os.Stat(filepath.Join(outDir, "markers_top.png"))
	test.That(t, err, test.ShouldBeNil)
	_, err = os.Stat(filepath.Join(outDir, "results.json"))
	test.That(t, os.IsNotExist(err), test.ShouldBeTrue)
}

func TestNewAppBuildsItsOwnLogger(t *testing.T) {
	injected := logging.NewTestLogger(t)
	var out, errOut bytes.Buffer
	first := NewAppWithLogger(&out, &errOut, injected)
	test.That(t, first.Run([]string{"surfacefit", "models"}), test.ShouldBeNil)
	test.That(t, first.Metadata[loggerKey], test.ShouldEqual, injected)

	logFile := filepath.Join(t.TempDir(), "surfacefit.log")
	a := NewApp(&out, &errOut)
	test.That(t, a.Run([]string{"surfacefit", "--log-level", "warn", "--log-file", logFile, "models"}), test.ShouldBeNil)
	logger, ok := a.Metadata[loggerKey].(logging.Logger)
	test.That(t, ok, test.ShouldBeTrue)
	test.That(t, logger, test.ShouldNotEqual, injected)
	test.That(t, logger.GetLevel(), test.ShouldEqual, logging.WARN)

	logger.Warnw("written to file", "model", "cosh")
	data, err := os.ReadFile(logFile)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, string(data), test.ShouldContainSubstring, "written to file")

	a = NewApp(&out, &errOut)
	test.That(t, a.Run([]string{"surfacefit", "--log-level", "error", "--debug", "models"}), test.ShouldBeNil)
	logger, ok = a.Metadata[loggerKey].(logging.Logger)
	test.That(t, ok, test.ShouldBeTrue)
	test.That(t, logger.GetLevel(), test.ShouldEqual, logging.DEBUG)

	a = NewApp(&out, &errOut)
	err = a.Run([]string{"surfacefit", "--log-level", "loud", "models"})
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, "loud")
}

func TestFitCommandWithConfig(t *testing.T) {
	dir := t.TempDir()
	writeParabola(t, dir)
	cfgPath := filepath.Join(dir, "fit.json")
	test.That(t, os.WriteFile(cfgPath, []byte(`{
		"input": "parabola.txt",
		"models": ["parabolic"],
		"initial": {"parabolic": [0.4, 0.1, 0.9]}
	}`), 0o600), test.ShouldBeNil)

	stdout, err := runApp(t, "fit", "--config", cfgPath)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, stdout, test.ShouldContainSubstring, "parabolic")
	test.That(t, stdout, test.ShouldNotContainSubstring, "wrote results")

	_, err = runApp(t, "fit", "--config", cfgPath, "--method", "powell")
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, "flags.method")

	_, err = runApp(t, "fit", "--model", "cosh")
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, `"input" is required`)
}
