package allocation

import (
	"strings"

	"github.com/Rhymond/go-money"
	"github.com/shopspring/decimal"

	"github.com/aristath/advisor/internal/domain"
)

// currencyFor returns the registered currency for code
func currencyFor(code string) (*money.Currency, error) {
	cur := money.GetCurrency(strings.ToUpper(strings.TrimSpace(code)))
	if cur == nil {
		return nil, &domain.InvalidRequestError{Field: "currency", Reason: "unknown currency " + code}
	}
	return cur, nil
}

// ParseCapital converts a decimal amount in major units ("100000.50") to minor units
// of the currency. More decimal places than the currency supports is an error.
func ParseCapital(amount, currency string) (int64, error) {
	cur, err := currencyFor(currency)
	if err != nil {
		return 0, err
	}

	value, err := decimal.NewFromString(strings.TrimSpace(amount))
	if err != nil {
		return 0, &domain.InvalidRequestError{Field: "capital", Reason: "not a decimal amount: " + amount}
	}
	if !value.IsPositive() {
		return 0, &domain.InvalidRequestError{Field: "capital", Reason: "must be positive"}
	}

	minor := value.Shift(int32(cur.Fraction))
	if !minor.Equal(minor.Truncate(0)) {
		return 0, &domain.InvalidRequestError{Field: "capital", Reason: "too many decimal places for " + cur.Code}
	}
	if !minor.LessThanOrEqual(decimal.NewFromInt(maxMinorUnits)) {
		return 0, &domain.InvalidRequestError{Field: "capital", Reason: "amount too large"}
	}
	return minor.IntPart(), nil
}

// maxMinorUnits keeps amounts well inside int64
const maxMinorUnits = int64(1) << 53

// MajorUnits converts minor units back to a decimal in major units
func MajorUnits(minor int64, currency string) decimal.Decimal {
	cur, err := currencyFor(currency)
	if err != nil {
		return decimal.NewFromInt(minor)
	}
	return decimal.New(minor, -int32(cur.Fraction))
}

// FormatAmount renders minor units with the currency's symbol and separators
func FormatAmount(minor int64, currency string) string {
	return money.New(minor, strings.ToUpper(currency)).Display()
}
