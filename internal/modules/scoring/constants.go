// Package scoring holds the thresholds and band values of the full-data factor scorers.
package scoring

// Scoring Constants - thresholds and points for the full (history + fundamentals) path.
// Policy values that operators tune (weights, fallback bands) live in config.Policy.

// =============================================================================
// Technical Score Constants
// =============================================================================

const (
	// Moving average windows used for the trend ordering
	SMAShort  = 20
	SMAMedium = 50
	SMALong   = 200

	// Points awarded to each component (sum 100)
	TrendPoints      = 40.0
	MomentumPoints   = 30.0
	VolatilityPoints = 30.0

	// Momentum is the mean daily return of the last MomentumWindow returns
	MomentumWindow = 60
	MomentumStrong = 0.002
	MomentumWeak   = -0.002

	// Annualised volatility sweet spot for the technical score
	TechVolSweetLow  = 0.10
	TechVolSweetHigh = 0.25
	TechVolElevated  = 0.40

	// RSI adjustment
	RSILength     = 14
	RSIOverbought = 70.0
	RSIOversold   = 30.0
	RSIAdjustment = 5.0
)

// =============================================================================
// Fundamental Score Constants
// =============================================================================

const (
	// Equity: each of the four ratios is worth up to 25 points
	EquityRatioPoints  = 25.0
	MissingRatioPoints = 12.5

	PEExcellent = 15.0
	PEGood      = 25.0
	PEFair      = 35.0

	MarginHigh = 0.20
	MarginMid  = 0.10

	DebtEquityLow  = 0.5
	DebtEquityMid  = 1.0
	DebtEquityHigh = 2.0

	ROEExcellent = 0.20
	ROEGood      = 0.15
	ROEFair      = 0.10

	// ETF / fund: expense ratio and AUM (crore), 50 points each
	FundComponentPoints = 50.0
	MissingFundPoints   = 25.0

	ExpenseRatioLow  = 0.002
	ExpenseRatioMid  = 0.005
	ExpenseRatioHigh = 0.01

	AUMLarge = 10000.0
	AUMMid   = 1000.0
	AUMSmall = 100.0

	// Fixed income: yield and credit quality, 50 points each
	YieldHigh = 0.07
	YieldMid  = 0.05

	// Crypto has no fundamentals; the size tier nudges a neutral 50
	CryptoNeutral    = 50.0
	CryptoTierAdjust = 10.0
)

// =============================================================================
// Risk Score Constants
// =============================================================================

const (
	RiskVolLow      = 0.15
	RiskVolModerate = 0.25
	RiskVolHigh     = 0.40

	DrawdownLimit   = 0.30
	DrawdownPenalty = 10.0
)
