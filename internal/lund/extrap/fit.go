package extrap

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/banshee-data/lundplane/internal/lund/density"
	"github.com/banshee-data/lundplane/internal/monitoring"
)

// ErrSingularFit is returned when a fit has too few points or a degenerate
// design matrix.
var ErrSingularFit = errors.New("extrapolation fit is singular")

// FitPolynomial fits a polynomial of the given degree to (xs, ys) by
// weighted least squares with weights 1/errs². Non-positive errors get unit
// weight. Parameter errors are the square roots of the diagonal of the
// covariance matrix (AᵀWA)⁻¹.
func FitPolynomial(xs, ys, errs []float64, degree int) (*Polynomial, error) {
	if len(xs) != len(ys) || (errs != nil && len(errs) != len(xs)) {
		return nil, fmt.Errorf("fit inputs have different lengths: %d x, %d y, %d err", len(xs), len(ys), len(errs))
	}
	if degree < 0 {
		return nil, fmt.Errorf("negative polynomial degree %d", degree)
	}
	np := degree + 1
	if len(xs) < np {
		return nil, fmt.Errorf("%w: %d points for %d parameters", ErrSingularFit, len(xs), np)
	}

	ata := mat.NewSymDense(np, nil)
	aty := mat.NewVecDense(np, nil)
	row := make([]float64, np)
	for n, x := range xs {
		w := 1.0
		if errs != nil && errs[n] > 0 {
			w = 1 / (errs[n] * errs[n])
		}
		row[0] = 1
		for i := 1; i < np; i++ {
			row[i] = row[i-1] * x
		}
		for i := 0; i < np; i++ {
			aty.SetVec(i, aty.AtVec(i)+w*row[i]*ys[n])
			for j := i; j < np; j++ {
				ata.SetSym(i, j, ata.At(i, j)+w*row[i]*row[j])
			}
		}
	}

	var chol mat.Cholesky
	if ok := chol.Factorize(ata); !ok {
		return nil, ErrSingularFit
	}
	beta := mat.NewVecDense(np, nil)
	if err := chol.SolveVecTo(beta, aty); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSingularFit, err)
	}
	var cov mat.SymDense
	if err := chol.InverseTo(&cov); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSingularFit, err)
	}

	p := &Polynomial{Params: make([]float64, np), Errors: make([]float64, np)}
	for i := 0; i < np; i++ {
		p.Params[i] = beta.AtVec(i)
		p.Errors[i] = math.Sqrt(math.Max(cov.At(i, i), 0))
	}
	return p, nil
}

// FitTable fits every (angle, kt) bin of a 3D ratio map across the pt
// layers fromBin..NBins(0) and stores the results under sysLabel. Points
// with zero content are skipped. The degree drops to fit bins with fewer
// points; bins that still cannot be fitted are left out and logged.
func FitTable(ratio *density.Map, fromBin, degree int, sysLabel string) (*MapTable, error) {
	if ratio.Dim() != 3 {
		return nil, fmt.Errorf("%w: extrapolation needs a pt axis", density.ErrDimension)
	}
	ptAxis := ratio.Axis(0)
	if fromBin < 1 || fromBin > ptAxis.NBins() {
		return nil, fmt.Errorf("first pt bin %d outside [1, %d]", fromBin, ptAxis.NBins())
	}

	table := NewMapTable()
	skipped := 0
	for j := 1; j <= ratio.NBins(1); j++ {
		for k := 1; k <= ratio.NBins(2); k++ {
			var xs, ys, es []float64
			for i := fromBin; i <= ptAxis.NBins(); i++ {
				c := ratio.Content(i, j, k)
				if c == 0 {
					continue
				}
				xs = append(xs, ptAxis.BinCenter(i))
				ys = append(ys, c)
				es = append(es, ratio.Error(i, j, k))
			}
			if len(xs) == 0 {
				continue
			}
			f, err := FitPolynomial(xs, ys, es, min(degree, len(xs)-1))
			if err != nil {
				skipped++
				continue
			}
			table.Set(sysLabel, j, k, f)
		}
	}
	if skipped > 0 {
		monitoring.Logf("extrap: %d bins could not be fitted for %q", skipped, sysLabel)
	}
	return table, nil
}
