// Package cli contains the surfacefit command line tool.
package cli

import (
	"fmt"
	"io"

	"github.com/urfave/cli/v2"

	"github.com/surfacemetrology/surfacefit/logging"
	"github.com/surfacemetrology/surfacefit/utils"
)

const (
	// Global flags.
	debugFlag    = "debug"
	logLevelFlag = "log-level"
	logFileFlag  = "log-file"

	// Command flags.
	configFlag      = "config"
	inputFlag       = "input"
	modelFlag       = "model"
	minZFlag        = "min-z"
	methodFlag      = "method"
	startsFlag      = "starts"
	concurrencyFlag = "concurrency"
	outputDirFlag   = "output-dir"
	plotFormatFlag  = "plot-format"
	paramsFlag      = "params"
	anglesDegFlag   = "angles-deg"

	loggerKey = "logger"
)

var app = &cli.App{
	Name:            "surfacefit",
	Usage:           "fit surface models to measured marker point clouds",
	HideHelpCommand: true,
	Flags: []cli.Flag{
		&cli.BoolFlag{
			Name:    debugFlag,
			Aliases: []string{"vvv"},
			EnvVars: []string{utils.DebugEnvVar},
			Usage:   "enable debug logging (same as --log-level debug)",
		},
		&cli.StringFlag{
			Name:    logLevelFlag,
			Value:   "info",
			EnvVars: []string{utils.LogLevelEnvVar},
			Usage:   "minimum log `LEVEL` (debug, info, warn, error)",
		},
		&cli.StringFlag{
			Name:  logFileFlag,
			Usage: "also write JSON logs to a rotating `FILE`",
		},
	},
	Before: func(c *cli.Context) error {
		if c.App.Metadata == nil {
			c.App.Metadata = map[string]interface{}{}
		}
		// Set only by NewAppWithLogger.
		if _, ok := c.App.Metadata[loggerKey]; ok {
			return nil
		}
		level, err := logging.LevelFromString(c.String(logLevelFlag))
		if err != nil {
			return err
		}
		if c.Bool(debugFlag) {
			level = logging.DEBUG
		}
		var logger logging.Logger
		if path := c.String(logFileFlag); path != "" {
			logger = logging.NewLoggerWithFile("surfacefit", level, path)
		} else {
			logger = logging.NewLoggerWithCores("surfacefit", level, logging.NewStdoutCore())
		}
		c.App.Metadata[loggerKey] = logger
		return nil
	},
	After: func(c *cli.Context) error {
		if logger, ok := c.App.Metadata[loggerKey].(logging.Logger); ok {
			//nolint:errcheck
			logger.Sync()
		}
		return nil
	},
	Commands: []*cli.Command{
		{
			Name:      "import",
			Usage:     "convert a marker export (.refxml, .xml) to x y z text",
			UsageText: "surfacefit import [--min-z Z] <input> <output>",
			Flags: []cli.Flag{
				&cli.Float64Flag{
					Name:  minZFlag,
					Usage: "drop points below this height (refxml defaults to 5)",
				},
			},
			Action: ImportAction,
		},
		{
			Name:      "fit",
			Usage:     "fit one or more surface models to a point cloud",
			UsageText: "surfacefit fit [--config FILE] [--input FILE --model NAME ...] [other options]",
			Flags: []cli.Flag{
				&cli.StringFlag{
					Name:    configFlag,
					Aliases: []string{"c"},
					EnvVars: []string{utils.ConfigEnvVar},
					Usage:   "load fit configuration from `FILE`",
				},
				&cli.StringFlag{
					Name:    inputFlag,
					Aliases: []string{"i"},
					Usage:   "point cloud `FILE` (overrides the config)",
				},
				&cli.StringSliceFlag{
					Name:    modelFlag,
					Aliases: []string{"m"},
					Usage:   "surface model to fit; may be repeated (overrides the config)",
				},
				&cli.Float64Flag{
					Name:  minZFlag,
					Usage: "drop points below this height",
				},
				&cli.StringFlag{
					Name:  methodFlag,
					Usage: "optimization method (nelder-mead, bfgs)",
				},
				&cli.IntFlag{
					Name:  startsFlag,
					Usage: "number of starts per model with jittered angles",
				},
				&cli.IntFlag{
					Name:  concurrencyFlag,
					Usage: "maximum number of concurrent starts (0 is unbounded)",
				},
				&cli.StringFlag{
					Name:    outputDirFlag,
					Aliases: []string{"o"},
					Usage:   "write evaluations, plots and results.json to `DIR`",
				},
				&cli.StringFlag{
					Name:  plotFormatFlag,
					Usage: "plot image format (png, svg, pdf, ...)",
				},
			},
			Action: FitAction,
		},
		{
			Name:      "eval",
			Usage:     "evaluate a model with given parameters and write X Y Z Predicted columns",
			UsageText: "surfacefit eval --model NAME --params P1,P2,... [--angles-deg A,B,G] <input> <output>",
			Flags: []cli.Flag{
				&cli.StringFlag{
					Name:     modelFlag,
					Aliases:  []string{"m"},
					Required: true,
					Usage:    "surface model",
				},
				&cli.Float64SliceFlag{
					Name:     paramsFlag,
					Required: true,
					Usage:    "shape parameters in model order",
				},
				&cli.Float64SliceFlag{
					Name:  anglesDegFlag,
					Usage: "rotation angles α,β,γ in degrees",
				},
			},
			Action: EvalAction,
		},
		{
			Name:   "models",
			Usage:  "list the available surface models",
			Action: ModelsAction,
		},
	},
}

// NewApp returns a new app with the CLI API, Writer set to out, and ErrWriter
// set to errOut.
func NewApp(out, errOut io.Writer) *cli.App {
	app.Writer = out
	app.ErrWriter = errOut
	app.Metadata = map[string]interface{}{}
	return app
}

// NewAppWithLogger is NewApp with a fixed logger instead of one chosen by the debug flag.
func NewAppWithLogger(out, errOut io.Writer, logger logging.Logger) *cli.App {
	a := NewApp(out, errOut)
	a.Metadata[loggerKey] = logger
	return a
}

func getLogger(c *cli.Context) logging.Logger {
	if logger, ok := c.App.Metadata[loggerKey].(logging.Logger); ok {
		return logger
	}
	return logging.Global()
}

// printf prints a message with a trailing newline to w.
func printf(w io.Writer, format string, a ...interface{}) {
	//nolint:errcheck
	fmt.Fprintf(w, format+"\n", a...)
}
