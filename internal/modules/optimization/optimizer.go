package optimization

import (
	"math"

	"github.com/rs/zerolog"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/optimize"

	"github.com/aristath/advisor/internal/config"
	"github.com/aristath/advisor/internal/domain"
	"github.com/aristath/advisor/internal/metrics"
	"github.com/aristath/advisor/pkg/formulas"
)

// Method names how the weights were produced
type Method string

const (
	MethodMaxSharpe         Method = "max_sharpe"
	MethodInverseVolatility Method = "inverse_volatility"
	MethodSingleAsset       Method = "single_asset"
)

// Reasons for falling back to inverse-volatility weights
const (
	ReasonMissingVolatility  = "missing_volatility"
	ReasonSingularCovariance = "singular_covariance"
	ReasonIllConditioned     = "ill_conditioned"
	ReasonNonFinite          = "non_finite"
	ReasonSolverFailed       = "solver_failed"
)

// normalizationTolerance bounds |Σw - 1| of every result
const normalizationTolerance = 1e-9

// Result is the optimizer output. Slices are in candidate order.
type Result struct {
	Weights         []float64 `json:"weights"`
	ExpectedReturns []float64 `json:"expected_returns"`
	Volatilities    []float64 `json:"volatilities"`
	Method          Method    `json:"method"`
	DegradedReason  string    `json:"degraded_reason,omitempty"`
	ExpectedReturn  float64   `json:"expected_return"`
	Volatility      float64   `json:"volatility"`
	Sharpe          float64   `json:"sharpe"`
	Degraded        bool      `json:"degraded"`
}

// AllocationOptimizer maximises the portfolio Sharpe ratio over long-only weights
type AllocationOptimizer struct {
	policy    config.OptimizerPolicy
	estimator *ReturnEstimator
	metrics   *metrics.Registry
	log       zerolog.Logger
}

// NewAllocationOptimizer creates an optimizer. m may be nil.
func NewAllocationOptimizer(policy config.OptimizerPolicy, m *metrics.Registry, log zerolog.Logger) *AllocationOptimizer {
	return &AllocationOptimizer{
		policy:    policy,
		estimator: NewReturnEstimator(policy),
		metrics:   m,
		log:       log.With().Str("component", "optimizer").Logger(),
	}
}

// problemInputs holds the per-run estimates
type problemInputs struct {
	mu         []float64
	vols       []float64
	seed       []float64
	sigma      *mat.SymDense
	missingVol bool
}

// Optimize computes weights for the candidates. It never fails: any numerical problem
// resolves to the inverse-volatility seed, flagged as degraded.
//
// Objective: maximize (μ'w - r_f) / sqrt(w'Σw)
// Constraints: w ≥ 0 and Σw = 1 through the w = x²/Σx² parameterisation
func (ao *AllocationOptimizer) Optimize(candidates []domain.Candidate) Result {
	n := len(candidates)
	if n == 0 {
		return Result{Weights: []float64{}, ExpectedReturns: []float64{}, Volatilities: []float64{}, Method: MethodInverseVolatility}
	}

	in := ao.estimate(candidates)

	if n == 1 {
		return ao.finish(in, []float64{1}, MethodSingleAsset, "")
	}
	if in.missingVol {
		return ao.fallback(in, ReasonMissingVolatility)
	}
	if !allFinite(in.mu) || !symFinite(in.sigma) {
		return ao.fallback(in, ReasonNonFinite)
	}

	var chol mat.Cholesky
	if ok := chol.Factorize(in.sigma); !ok {
		return ao.fallback(in, ReasonSingularCovariance)
	}
	if cond := chol.Cond(); math.IsNaN(cond) || cond > ao.policy.MaxConditionNumber {
		return ao.fallback(in, ReasonIllConditioned)
	}

	solved, err := ao.solve(in)
	if err != nil {
		ao.log.Debug().Err(err).Msg("Sharpe solver did not converge")
		return ao.fallback(in, ReasonSolverFailed)
	}
	if !allFinite(solved) {
		return ao.fallback(in, ReasonNonFinite)
	}

	// The seed is feasible too; keep it when the solver found nothing better
	if ao.sharpe(in, solved) < ao.sharpe(in, in.seed) {
		solved = in.seed
	}
	return ao.finish(in, solved, MethodMaxSharpe, "")
}

func (ao *AllocationOptimizer) estimate(candidates []domain.Candidate) problemInputs {
	n := len(candidates)
	in := problemInputs{
		mu:   make([]float64, n),
		vols: make([]float64, n),
	}

	series := make([]ReturnSeries, n)
	seedVols := make([]float64, n)
	for i, c := range candidates {
		series[i] = NewReturnSeries(c.Data.Prices)
		in.mu[i], _ = ao.estimator.ExpectedReturn(c.Asset.Class, series[i])

		vol, ok := ao.estimator.Volatility(series[i])
		if !ok {
			in.missingVol = true
		}
		in.vols[i] = vol
		seedVols[i] = ao.estimator.SeedVolatility(c.Asset.Class, series[i])
	}

	in.seed = formulas.InverseVolatilityWeights(seedVols)
	in.sigma = CovarianceMatrix(series, ao.policy.MinHistory, ao.policy.MinOverlap)
	return in
}

// solve maximises the Sharpe ratio over the simplex. Weights are parameterised
// as w = x²/Σx², which keeps w ≥ 0 and Σw = 1 for every x, so the objective
// and its gradient stay smooth. BFGS runs first, then Nelder-Mead when BFGS
// stops without converging. The best point either method reached is returned,
// including runs that hit the iteration or evaluation caps.
func (ao *AllocationOptimizer) solve(in problemInputs) ([]float64, error) {
	n := len(in.mu)
	rf := ao.policy.RiskFreeRate

	problem := optimize.Problem{
		Func: func(x []float64) float64 {
			w, _ := simplexWeights(x)
			ret, variance := ao.moments(in, w)
			stdDev := math.Sqrt(math.Max(variance, 1e-10))
			return -(ret - rf) / stdDev
		},
		Grad: func(grad, x []float64) {
			w, sumSq := simplexWeights(x)
			if sumSq <= 0 {
				for k := range grad {
					grad[k] = 0
				}
				return
			}
			ret, variance := ao.moments(in, w)
			stdDev := math.Sqrt(math.Max(variance, 1e-10))

			// g = -dSharpe/dw
			g := make([]float64, n)
			var gw float64
			for i := 0; i < n; i++ {
				var sigmaW float64
				for j := 0; j < n; j++ {
					sigmaW += in.sigma.At(i, j) * w[j]
				}
				g[i] = -in.mu[i]/stdDev + (ret-rf)*sigmaW/(stdDev*stdDev*stdDev)
				gw += g[i] * w[i]
			}
			for k := 0; k < n; k++ {
				grad[k] = 2 * x[k] / sumSq * (g[k] - gw)
			}
		},
	}

	settings := &optimize.Settings{
		MajorIterations: ao.policy.MaxIterations,
		FuncEvaluations: ao.policy.MaxFuncEvaluations,
	}

	initial := make([]float64, n)
	for i, v := range in.seed {
		initial[i] = math.Sqrt(v)
	}

	var best []float64
	bestSharpe := math.Inf(-1)
	var lastStatus optimize.Status
	var lastErr error

	consider := func(result *optimize.Result, err error) bool {
		if result == nil {
			lastErr = err
			return false
		}
		lastStatus, lastErr = result.Status, err
		if !allFinite(result.X) {
			return false
		}
		w, sumSq := simplexWeights(result.X)
		if sumSq <= 0 {
			return false
		}
		if sr := ao.sharpe(in, w); sr > bestSharpe {
			best, bestSharpe = w, sr
		}
		return err == nil && successStatuses[result.Status]
	}

	start := make([]float64, n)
	copy(start, initial)
	if converged := consider(optimize.Minimize(problem, start, settings, &optimize.BFGS{})); !converged {
		ao.log.Debug().Err(lastErr).Str("status", lastStatus.String()).Msg("BFGS stopped early, trying Nelder-Mead")
		copy(start, initial)
		consider(optimize.Minimize(problem, start, settings, &optimize.NelderMead{}))
	}

	if best == nil {
		if lastErr != nil {
			return nil, lastErr
		}
		return nil, &solverError{status: lastStatus}
	}
	return best, nil
}

// successStatuses are the solver terminations accepted as converged
var successStatuses = map[optimize.Status]bool{
	optimize.Success:             true,
	optimize.GradientThreshold:   true,
	optimize.FunctionConvergence: true,
	optimize.StepConvergence:     true,
	optimize.MethodConverge:      true,
}

// simplexWeights maps x to w = x²/Σx² and returns Σx²
func simplexWeights(x []float64) ([]float64, float64) {
	var sumSq float64
	for _, v := range x {
		sumSq += v * v
	}
	w := make([]float64, len(x))
	if sumSq <= 0 {
		return w, 0
	}
	for i, v := range x {
		w[i] = v * v / sumSq
	}
	return w, sumSq
}

// moments returns the portfolio expected return and variance of w
func (ao *AllocationOptimizer) moments(in problemInputs, w []float64) (ret, variance float64) {
	for i := range w {
		ret += in.mu[i] * w[i]
		for j := range w {
			variance += w[i] * w[j] * in.sigma.At(i, j)
		}
	}
	return ret, variance
}

// sharpe evaluates the objective on normalised weights
func (ao *AllocationOptimizer) sharpe(in problemInputs, w []float64) float64 {
	ret, variance := ao.moments(in, normalize(w))
	if variance <= 0 {
		return math.Inf(-1)
	}
	return (ret - ao.policy.RiskFreeRate) / math.Sqrt(variance)
}

func (ao *AllocationOptimizer) fallback(in problemInputs, reason string) Result {
	ao.log.Warn().
		Str("reason", reason).
		Int("assets", len(in.mu)).
		Msg("Optimizer degraded, using inverse-volatility weights")
	ao.metrics.RecordOptimizerDegraded(reason)
	return ao.finish(in, in.seed, MethodInverseVolatility, reason)
}

func (ao *AllocationOptimizer) finish(in problemInputs, w []float64, method Method, reason string) Result {
	weights := normalize(w)

	res := Result{
		Weights:         weights,
		ExpectedReturns: in.mu,
		Volatilities:    in.vols,
		Method:          method,
		DegradedReason:  reason,
		Degraded:        reason != "",
	}
	for i, wi := range weights {
		res.ExpectedReturn += in.mu[i] * wi
	}
	if in.sigma != nil && !in.missingVol {
		var variance float64
		for i := range weights {
			for j := range weights {
				variance += weights[i] * weights[j] * in.sigma.At(i, j)
			}
		}
		if variance > 0 {
			res.Volatility = math.Sqrt(variance)
			res.Sharpe = (res.ExpectedReturn - ao.policy.RiskFreeRate) / res.Volatility
		}
	}
	return res
}

// normalize rescales non-negative weights to sum to 1 and folds the floating-point
// residual into the largest weight. All-zero input becomes equal weights.
func normalize(w []float64) []float64 {
	n := len(w)
	out := make([]float64, n)
	if n == 0 {
		return out
	}

	sum := 0.0
	for i, v := range w {
		if v > 0 && !math.IsNaN(v) && !math.IsInf(v, 0) {
			out[i] = v
			sum += v
		}
	}
	if sum <= 0 {
		for i := range out {
			out[i] = 1 / float64(n)
		}
		sum = 1
	}

	largest := 0
	for i := range out {
		out[i] /= sum
		if out[i] > out[largest] {
			largest = i
		}
	}

	residual := 1 - floats(out)
	if math.Abs(residual) > 0 {
		out[largest] += residual
	}
	return out
}

func floats(w []float64) float64 {
	var sum float64
	for _, v := range w {
		sum += v
	}
	return sum
}

func allFinite(xs []float64) bool {
	for _, v := range xs {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

func symFinite(m *mat.SymDense) bool {
	n := m.SymmetricDim()
	for i := 0; i < n; i++ {
		for j := i; j < n; j++ {
			if v := m.At(i, j); math.IsNaN(v) || math.IsInf(v, 0) {
				return false
			}
		}
	}
	return true
}

// solverError reports a solver run that ended without converging
type solverError struct {
	status optimize.Status
}

func (e *solverError) Error() string {
	return "optimization did not converge: status=" + e.status.String()
}
