package ml

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

// LinearRegression is ordinary least squares with an intercept.
// A tiny ridge term keeps the normal equations solvable for collinear columns.
type LinearRegression struct {
	Ridge        float64
	Coefficients []float64
	Intercept    float64
}

// NewLinearRegression creates an unfitted linear model
func NewLinearRegression() *LinearRegression {
	return &LinearRegression{Ridge: 1e-8}
}

// Fit solves (XcᵀXc + λI)β = Xcᵀyc on centered data
func (m *LinearRegression) Fit(X [][]float64, y []float64) error {
	if err := validate(X, y); err != nil {
		return err
	}
	n, p := len(X), len(X[0])

	means := make([]float64, p)
	col := make([]float64, n)
	for j := 0; j < p; j++ {
		for i := range X {
			col[i] = X[i][j]
		}
		means[j] = stat.Mean(col, nil)
	}
	yMean := stat.Mean(y, nil)

	xc := mat.NewDense(n, p, nil)
	yc := mat.NewVecDense(n, nil)
	for i := 0; i < n; i++ {
		for j := 0; j < p; j++ {
			xc.Set(i, j, X[i][j]-means[j])
		}
		yc.SetVec(i, y[i]-yMean)
	}

	var gram mat.SymDense
	gram.SymOuterK(1, xc.T())
	lambda := m.Ridge * float64(n)
	if lambda <= 0 {
		lambda = 1e-12
	}
	for j := 0; j < p; j++ {
		gram.SetSym(j, j, gram.At(j, j)+lambda)
	}

	var xty mat.VecDense
	xty.MulVec(xc.T(), yc)

	var chol mat.Cholesky
	if ok := chol.Factorize(&gram); !ok {
		return fmt.Errorf("ml: normal equations are not positive definite")
	}
	var beta mat.VecDense
	if err := chol.SolveVecTo(&beta, &xty); err != nil {
		return fmt.Errorf("ml: solve normal equations: %w", err)
	}

	m.Coefficients = make([]float64, p)
	intercept := yMean
	for j := 0; j < p; j++ {
		m.Coefficients[j] = beta.AtVec(j)
		intercept -= m.Coefficients[j] * means[j]
	}
	m.Intercept = intercept
	return nil
}

// Predict returns the linear combination for x
func (m *LinearRegression) Predict(x []float64) float64 {
	out := m.Intercept
	for j, c := range m.Coefficients {
		if j < len(x) {
			out += c * x[j]
		}
	}
	return out
}
