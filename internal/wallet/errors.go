package wallet

import "errors"

// Errors reported by the calculator, the poller and the chain client.
// Wrapped errors keep the collaborator's cause; check with errors.Is.
var (
	// ErrInsufficientFunds means the balance does not cover the amount plus
	// the margin-adjusted gas cost.
	ErrInsufficientFunds = errors.New("insufficient funds for amount plus gas")

	// ErrFeeDataUnavailable means the base or priority fee could not be read.
	ErrFeeDataUnavailable = errors.New("fee data unavailable")

	// ErrGasEstimationFailed means eth_estimateGas failed.
	ErrGasEstimationFailed = errors.New("gas estimation failed")

	// ErrNetworkUnavailable covers balance and token reads.
	ErrNetworkUnavailable = errors.New("network unavailable")

	// ErrSubmissionRejected wraps whatever the submitter returned.
	ErrSubmissionRejected = errors.New("submission rejected")

	// ErrInvalidAddress is returned for empty or malformed addresses.
	ErrInvalidAddress = errors.New("invalid address")
)
