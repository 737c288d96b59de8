package control

import (
	"gonum.org/v1/gonum/mat"
)

// Polynomial holds fitted coefficients in ascending-power order:
// p(x) = c[0] + c[1]*x + c[2]*x^2 + ...
type Polynomial []float64

// Eval returns p(x).
func (p Polynomial) Eval(x float64) float64 {
	result := 0.0
	for i := len(p) - 1; i >= 0; i-- {
		result = result*x + p[i]
	}
	return result
}

// Derivative returns the coefficients of p', term i becoming i*c[i] one
// degree down.
func (p Polynomial) Derivative() Polynomial {
	if len(p) < 2 {
		return Polynomial{0}
	}
	d := make(Polynomial, len(p)-1)
	for i := 1; i < len(p); i++ {
		d[i-1] = float64(i) * p[i]
	}
	return d
}

// Slope returns p'(x), the local tangent used for the heading-error reference.
func (p Polynomial) Slope(x float64) float64 {
	return p.Derivative().Eval(x)
}

// Polyfit fits a degree-order polynomial to the samples by least squares,
// solving the Vandermonde system through a QR factorization. The fit needs at
// least order+1 samples and equal-length inputs; anything less is a FitError.
func Polyfit(xs, ys []float64, order int) (Polynomial, error) {
	if order < 1 {
		return nil, &FitError{Samples: len(xs), Order: order, Reason: "order must be at least 1"}
	}
	if len(xs) != len(ys) {
		return nil, &FitError{Samples: len(xs), Order: order, Reason: "x and y sample counts differ"}
	}
	if len(xs) < order+1 {
		return nil, &FitError{Samples: len(xs), Order: order, Reason: "need at least order+1 samples"}
	}

	a := mat.NewDense(len(xs), order+1, nil)
	for i, x := range xs {
		term := 1.0
		for j := 0; j <= order; j++ {
			a.Set(i, j, term)
			term *= x
		}
	}
	b := mat.NewVecDense(len(ys), append([]float64(nil), ys...))

	var qr mat.QR
	qr.Factorize(a)

	var sol mat.VecDense
	if err := qr.SolveVecTo(&sol, false, b); err != nil {
		return nil, &FitError{Samples: len(xs), Order: order, Reason: "degenerate sample set: " + err.Error()}
	}

	coeffs := make(Polynomial, order+1)
	for i := range coeffs {
		coeffs[i] = sol.AtVec(i)
	}
	return coeffs, nil
}
