// Package surface defines closed-form surface models and composes them with a rigid rotation
// to produce residuals for least-squares fitting.
//
// A model maps the transverse coordinate y of the sample-aligned frame to an elevation z.
// Every function in this package is pure: no input validation is performed, and out-of-domain
// evaluations show up as NaN or ±Inf entries rather than errors.
package surface

import (
	"sort"
	"sync"

	"github.com/pkg/errors"
)

// Model is a surface whose elevation depends only on the transverse coordinate.
type Model interface {
	// Name is the registry key of the model.
	Name() string
	// ParamNames lists the shape parameters in the order Elevation expects them.
	ParamNames() []string
	// Elevation evaluates the surface at y. params must hold len(ParamNames()) values.
	Elevation(y float64, params []float64) float64
}

var (
	registryMu sync.RWMutex
	registry   = map[string]Model{}
)

func init() {
	Register(&Parabolic{})
	Register(&Parabolic{DoubleOffset: true})
	Register(&Cosh{})
	Register(&Cylinder{})
}

// Register makes a model available by its name. Registering a name twice replaces the earlier model.
func Register(m Model) {
	registryMu.Lock()
	defer registryMu.Unlock()
	registry[m.Name()] = m
}

// Lookup returns the model registered under name.
func Lookup(name string) (Model, error) {
	registryMu.RLock()
	defer registryMu.RUnlock()
	m, ok := registry[name]
	if !ok {
		return nil, errors.Errorf("unknown surface model %q", name)
	}
	return m, nil
}

// Names returns the registered model names, sorted.
func Names() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// NumParams is the number of shape parameters of m.
func NumParams(m Model) int {
	return len(m.ParamNames())
}

// CheckParams returns an error if params does not match the arity of m.
func CheckParams(m Model, params []float64) error {
	if len(params) != NumParams(m) {
		return errors.Errorf("model %q takes %d parameters %v, got %d", m.Name(), NumParams(m), m.ParamNames(), len(params))
	}
	return nil
}
