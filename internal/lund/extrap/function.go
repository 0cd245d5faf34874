package extrap

import (
	"errors"
	"fmt"
)

// ErrMissingFunction is returned when a table has no function for a
// populated (angle, kt) bin.
var ErrMissingFunction = errors.New("no extrapolation function for bin")

// Function is a parametrized fit function of subjet pt.
type Function interface {
	Eval(x float64) float64
	NumParams() int
	Param(p int) float64
	ParamError(p int) float64
	// EvalParams evaluates the function with params in place of the
	// nominal parameters.
	EvalParams(x float64, params []float64) float64
}

// Table looks up the extrapolation function of an (angle, kt) bin.
// Bins are 1-based, matching density map coordinates. sysLabel selects a
// systematic variant; the empty label is nominal.
type Table interface {
	Function(sysLabel string, angleBin, ktBin int) (Function, bool)
}

// Polynomial is Σ Params[i]·xⁱ with per-parameter errors.
type Polynomial struct {
	Params []float64
	Errors []float64
}

var _ Function = (*Polynomial)(nil)

// Eval evaluates the polynomial with its nominal parameters.
func (p *Polynomial) Eval(x float64) float64 { return horner(p.Params, x) }

// NumParams returns the number of coefficients.
func (p *Polynomial) NumParams() int { return len(p.Params) }

// Param returns coefficient i.
func (p *Polynomial) Param(i int) float64 { return p.Params[i] }

// ParamError returns the error of coefficient i, or zero when errors were
// not supplied.
func (p *Polynomial) ParamError(i int) float64 {
	if i >= len(p.Errors) {
		return 0
	}
	return p.Errors[i]
}

// EvalParams evaluates the polynomial with substituted coefficients.
func (p *Polynomial) EvalParams(x float64, params []float64) float64 { return horner(params, x) }

func (p *Polynomial) String() string {
	return fmt.Sprintf("pol%d%v", len(p.Params)-1, p.Params)
}

func horner(c []float64, x float64) float64 {
	var y float64
	for i := len(c) - 1; i >= 0; i-- {
		y = y*x + c[i]
	}
	return y
}

type tableKey struct {
	label      string
	angle, kt int
}

// MapTable is an in-memory Table.
type MapTable struct {
	funcs map[tableKey]Function
}

var _ Table = (*MapTable)(nil)

// NewMapTable returns an empty table.
func NewMapTable() *MapTable {
	return &MapTable{funcs: make(map[tableKey]Function)}
}

// Set stores the function of an (angle, kt) bin under sysLabel.
func (t *MapTable) Set(sysLabel string, angleBin, ktBin int, f Function) {
	t.funcs[tableKey{sysLabel, angleBin, ktBin}] = f
}

// Function implements Table.
func (t *MapTable) Function(sysLabel string, angleBin, ktBin int) (Function, bool) {
	f, ok := t.funcs[tableKey{sysLabel, angleBin, ktBin}]
	return f, ok
}

// Len returns the number of stored functions.
func (t *MapTable) Len() int { return len(t.funcs) }

// MaxParams returns the largest parameter count among the stored functions,
// which sizes pt-noise ensembles.
func (t *MapTable) MaxParams() int {
	n := 0
	for _, f := range t.funcs {
		n = max(n, f.NumParams())
	}
	return n
}
