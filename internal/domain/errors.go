package domain

import "fmt"

// InvalidRequestError reports a malformed PortfolioRequest. Nothing is computed.
type InvalidRequestError struct {
	Field  string
	Reason string
}

func (e *InvalidRequestError) Error() string {
	return fmt.Sprintf("invalid request: %s: %s", e.Field, e.Reason)
}

// InvalidAssetError reports a malformed asset identity. The asset is skipped.
type InvalidAssetError struct {
	Symbol string
	Reason string
}

func (e *InvalidAssetError) Error() string {
	return fmt.Sprintf("invalid asset %q: %s", e.Symbol, e.Reason)
}
