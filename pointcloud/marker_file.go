package pointcloud

import (
	"encoding/xml"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"go.uber.org/multierr"

	"github.com/surfacemetrology/surfacefit/logging"
)

// MarkerFormat is the layout of a scanner marker export.
type MarkerFormat int

const (
	// MarkerRefXML stores coordinates as child elements:
	// <point><coordinates><x>1</x><y>2</y><z>3</z></coordinates></point>.
	MarkerRefXML MarkerFormat = iota
	// MarkerXML stores coordinates as attributes: <point x="1" y="2" z="3"/>.
	MarkerXML
)

// DefaultRefXMLMinZ is the z threshold applied to reference point exports, which also contain
// fixture markers below the sample.
const DefaultRefXMLMinZ = 5.0

func (f MarkerFormat) String() string {
	switch f {
	case MarkerRefXML:
		return "refxml"
	case MarkerXML:
		return "xml"
	}
	return "unknown"
}

// MarkerFormatFromPath picks the format from the file extension.
func MarkerFormatFromPath(fn string) (MarkerFormat, error) {
	switch strings.ToLower(filepath.Ext(fn)) {
	case ".refxml":
		return MarkerRefXML, nil
	case ".xml":
		return MarkerXML, nil
	default:
		return 0, errors.Errorf("do not know how to read marker file %q", fn)
	}
}

// refPoint is the XML of a point in a refxml export.
type refPoint struct {
	Coordinates []struct {
		X string `xml:"x"`
		Y string `xml:"y"`
		Z string `xml:"z"`
	} `xml:"coordinates"`
}

// attrPoint is the XML of a point in a plain xml export.
type attrPoint struct {
	X *string `xml:"x,attr"`
	Y *string `xml:"y,attr"`
	Z *string `xml:"z,attr"`
}

// ReadMarkerFile reads every <point> element of a marker export. Points of a refxml file are not
// filtered here; see FilterMinZ.
func ReadMarkerFile(fn string, logger logging.Logger) (_ Vectors, err error) {
	format, err := MarkerFormatFromPath(fn)
	if err != nil {
		return nil, err
	}
	//nolint:gosec
	f, err := os.Open(fn)
	if err != nil {
		return nil, err
	}
	defer func() {
		err = multierr.Combine(err, f.Close())
	}()

	pts, err := ReadMarkerXML(f, format)
	if err != nil {
		return nil, errors.Wrapf(err, "reading %s", fn)
	}
	logger.Debugw("read marker file", "path", fn, "format", format.String(), "points", len(pts))
	return pts, nil
}

// ReadMarkerXML decodes all <point> elements, at any depth, from r.
func ReadMarkerXML(r io.Reader, format MarkerFormat) (Vectors, error) {
	dec := xml.NewDecoder(r)
	pts := Vectors{}
	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			return pts, nil
		}
		if err != nil {
			return nil, errors.Wrap(err, "malformed marker xml")
		}
		start, ok := tok.(xml.StartElement)
		if !ok || start.Name.Local != "point" {
			continue
		}

		var v Vectors
		switch format {
		case MarkerRefXML:
			var p refPoint
			if err := dec.DecodeElement(&p, &start); err != nil {
				return nil, errors.Wrapf(err, "point %d", len(pts))
			}
			v, err = p.vector()
		case MarkerXML:
			var p attrPoint
			if err := dec.DecodeElement(&p, &start); err != nil {
				return nil, errors.Wrapf(err, "point %d", len(pts))
			}
			v, err = p.vector()
		default:
			return nil, errors.Errorf("unsupported marker format %d", format)
		}
		if err != nil {
			return nil, errors.Wrapf(err, "point %d", len(pts))
		}
		pts = append(pts, v...)
	}
}

func (p refPoint) vector() (Vectors, error) {
	if len(p.Coordinates) == 0 {
		return nil, errors.New("missing <coordinates>")
	}
	c := p.Coordinates[0]
	return parseXYZ(&c.X, &c.Y, &c.Z)
}

func (p attrPoint) vector() (Vectors, error) {
	return parseXYZ(p.X, p.Y, p.Z)
}

func parseXYZ(x, y, z *string) (Vectors, error) {
	var xyz [3]float64
	for i, s := range []*string{x, y, z} {
		axis := string(rune('x' + i))
		if s == nil {
			return nil, errors.Errorf("missing %s coordinate", axis)
		}
		v, err := strconv.ParseFloat(strings.TrimSpace(*s), 64)
		if err != nil {
			return nil, errors.Wrapf(err, "bad %s coordinate", axis)
		}
		xyz[i] = v
	}
	return Vectors{NewVector(xyz[0], xyz[1], xyz[2])}, nil
}
