package bayes

import (
	"fmt"
	"math"

	"baymv/domain/linalg"
	"baymv/domain/specfn"
)

// Posterior holds the exact Normal-Inverse-Gamma posterior parameters for one
// design matrix, plus the log marginal likelihood of the data under the
// prior. The update is closed-form; the only approximation error is
// floating-point rounding.
type Posterior struct {
	Mean       linalg.Vector `json:"mean"`       // muN
	Precision  linalg.Matrix `json:"precision"`  // LambdaN
	Covariance linalg.Matrix `json:"covariance"` // LambdaN^-1
	Shape      float64       `json:"shape"`      // aN = a0 + n/2
	Scale      float64       `json:"scale"`      // bN
	LogML      float64       `json:"log_marginal_likelihood"`
	N          int           `json:"n"`
}

// NoiseVariance returns the posterior point estimate bN/aN of the noise
// variance.
func (p *Posterior) NoiseVariance() float64 {
	return p.Scale / p.Shape
}

// OLSFit is the ordinary-least-squares reference fit, computed alongside the
// Bayesian update purely for side-by-side comparison. It plays no part in the
// posterior.
type OLSFit struct {
	Coefficients linalg.Vector `json:"coefficients"`
	RSS          float64       `json:"rss"`
	RSquared     float64       `json:"r_squared"`
	CVRMSE       float64       `json:"cv_rmse"`
}

// Regress computes the exact NIG posterior for response y under the given
// design matrix and prior:
//
//	LambdaN = Lambda0 + X'X
//	muN     = LambdaN^-1 (Lambda0 mu0 + X'y)
//	aN      = a0 + n/2
//	bN      = b0 + (y'y + mu0' Lambda0 mu0 - muN' LambdaN muN) / 2
//
// A singular LambdaN is reported as a wrapped core.ErrSingularSystem.
func Regress(X linalg.Matrix, y linalg.Vector, prior Prior) (*Posterior, error) {
	n := len(y)
	if X.Rows() != n {
		panic(fmt.Sprintf("bayes: design has %d rows for %d responses", X.Rows(), n))
	}

	Xt := X.Transpose()
	XtX := Xt.Mul(X)
	Xty := Xt.MulVec(y)

	lambdaN := prior.Precision.Add(XtX)
	covariance, err := lambdaN.Inverse()
	if err != nil {
		return nil, fmt.Errorf("posterior precision: %w", err)
	}

	rhs := prior.Precision.MulVec(prior.Mean)
	for i := range rhs {
		rhs[i] += Xty[i]
	}
	muN := covariance.MulVec(rhs)

	aN := prior.Shape + float64(n)/2
	bN := prior.Scale + 0.5*(linalg.Dot(y, y)+
		linalg.QuadraticForm(prior.Precision, prior.Mean)-
		linalg.QuadraticForm(lambdaN, muN))

	logML := -float64(n)/2*math.Log(2*math.Pi) +
		0.5*math.Log(prior.Precision.Det()) -
		0.5*math.Log(lambdaN.Det()) +
		prior.Shape*math.Log(prior.Scale) -
		aN*math.Log(bN) +
		specfn.LogGamma(aN) -
		specfn.LogGamma(prior.Shape)

	return &Posterior{
		Mean:       muN,
		Precision:  lambdaN,
		Covariance: covariance,
		Shape:      aN,
		Scale:      bN,
		LogML:      logML,
		N:          n,
	}, nil
}

// OLS computes the ordinary-least-squares estimate (X'X)^-1 X'y with residual
// diagnostics. A rank-deficient design returns a wrapped
// core.ErrSingularSystem.
func OLS(X linalg.Matrix, y linalg.Vector) (*OLSFit, error) {
	n := len(y)
	p := X.Cols()

	Xt := X.Transpose()
	XtXInv, err := Xt.Mul(X).Inverse()
	if err != nil {
		return nil, fmt.Errorf("normal equations: %w", err)
	}
	coefficients := XtXInv.MulVec(Xt.MulVec(y))

	meanY := 0.0
	for _, v := range y {
		meanY += v
	}
	meanY /= float64(n)

	rss, tss := 0.0, 0.0
	for i := 0; i < n; i++ {
		residual := y[i] - linalg.Dot(X[i], coefficients)
		rss += residual * residual
		dev := y[i] - meanY
		tss += dev * dev
	}

	rSquared := 0.0
	if tss > 0 {
		rSquared = 1 - rss/tss
	}

	cvRMSE := 0.0
	if n > p && meanY != 0 {
		cvRMSE = math.Sqrt(rss/float64(n-p)) / meanY
	}

	return &OLSFit{
		Coefficients: coefficients,
		RSS:          rss,
		RSquared:     rSquared,
		CVRMSE:       cvRMSE,
	}, nil
}
