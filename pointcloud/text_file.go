package pointcloud

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"go.uber.org/multierr"

	"github.com/surfacemetrology/surfacefit/logging"
)

// WriteText writes one point per line as three space separated values in %.18e form, the layout
// numpy.savetxt produces for an (N, 3) array.
func WriteText(w io.Writer, pts Vectors) error {
	xs, ys, zs := pts.Columns()
	return WriteColumns(w, xs, ys, zs)
}

// WriteColumns writes equal length columns side by side, one row per line, in %.18e form.
func WriteColumns(w io.Writer, cols ...[]float64) error {
	bw := bufio.NewWriter(w)
	if len(cols) == 0 {
		return bw.Flush()
	}
	n := len(cols[0])
	for _, col := range cols[1:] {
		if len(col) != n {
			return errors.Errorf("column lengths differ: %d and %d", n, len(col))
		}
	}
	for row := 0; row < n; row++ {
		for c, col := range cols {
			if c > 0 {
				if err := bw.WriteByte(' '); err != nil {
					return err
				}
			}
			if _, err := fmt.Fprintf(bw, "%.18e", col[row]); err != nil {
				return err
			}
		}
		if err := bw.WriteByte('\n'); err != nil {
			return err
		}
	}
	return bw.Flush()
}

// ReadText reads whitespace separated x y z rows. Blank lines and lines starting with '#' are skipped.
func ReadText(r io.Reader) (Vectors, error) {
	scanner := bufio.NewScanner(r)
	pts := Vectors{}
	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		fields := strings.FieldsFunc(line, func(r rune) bool {
			return r == ' ' || r == '\t' || r == ','
		})
		if len(fields) != 3 {
			return nil, errors.Errorf("line %d: expected 3 values, got %d", lineNum, len(fields))
		}
		var xyz [3]float64
		for i, field := range fields {
			v, err := strconv.ParseFloat(field, 64)
			if err != nil {
				return nil, errors.Wrapf(err, "line %d", lineNum)
			}
			xyz[i] = v
		}
		pts = append(pts, NewVector(xyz[0], xyz[1], xyz[2]))
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return pts, nil
}

// ReadFile reads points from fn. Marker exports (.refxml, .xml) are decoded as XML and everything
// else as text rows.
func ReadFile(fn string, logger logging.Logger) (_ Vectors, err error) {
	if _, ferr := MarkerFormatFromPath(fn); ferr == nil {
		return ReadMarkerFile(fn, logger)
	}

	//nolint:gosec
	f, err := os.Open(fn)
	if err != nil {
		return nil, err
	}
	defer func() {
		err = multierr.Combine(err, f.Close())
	}()

	pts, err := ReadText(f)
	if err != nil {
		return nil, errors.Wrapf(err, "reading %s", fn)
	}
	logger.Debugw("read point file", "path", fn, "points", len(pts))
	return pts, nil
}

// WriteFile writes pts to fn in the text layout of WriteText.
func WriteFile(fn string, pts Vectors) (err error) {
	//nolint:gosec
	f, err := os.Create(fn)
	if err != nil {
		return err
	}
	defer func() {
		err = multierr.Combine(err, f.Close())
	}()
	return WriteText(f, pts)
}
