// Package errors provides the typed error taxonomy for the pricing core.
package errors

import (
	"fmt"
)

// Code is a stable machine-readable error code. API consumers branch on
// codes, never on message text.
type Code string

const (
	// CodeInvalidWeight indicates a relative weight that is zero, negative,
	// NaN or infinite.
	CodeInvalidWeight Code = "INVALID_WEIGHT"

	// CodeInvalidBaseAmount indicates a negative or non-finite base price.
	CodeInvalidBaseAmount Code = "INVALID_BASE_AMOUNT"

	// CodeContractUnavailable indicates that no configured tariff source has
	// data for the requested contract.
	CodeContractUnavailable Code = "CONTRACT_UNAVAILABLE"

	// CodeTariffNotInForce indicates the contract exists but carries no price
	// entries for the determined scheme/tier.
	CodeTariffNotInForce Code = "TARIFF_NOT_IN_FORCE"

	// CodeTariffSourceUnavailable indicates no tariff source is configured.
	CodeTariffSourceUnavailable Code = "TARIFF_SOURCE_UNAVAILABLE"

	// CodeEpisodeNotFound indicates the episode does not exist.
	CodeEpisodeNotFound Code = "EPISODE_NOT_FOUND"

	// CodeEpisodeNoNorm indicates the episode has no applicable norm.
	CodeEpisodeNoNorm Code = "EPISODE_NO_NORM"

	// CodeEpisodeNoContract indicates the episode has a blank contract id.
	CodeEpisodeNoContract Code = "EPISODE_NO_CONTRACT"

	// CodeEpisodeNoValidWeight indicates the episode's norm-derived weight is
	// missing or non-positive.
	CodeEpisodeNoValidWeight Code = "EPISODE_NO_VALID_WEIGHT"

	// CodePricingSourceUnavailable indicates no active, completed pricing
	// dataset is loaded. Operational condition, not a data error.
	CodePricingSourceUnavailable Code = "PRICING_SOURCE_UNAVAILABLE"

	// CodeCalculationNotFound indicates an unknown calculation record id.
	CodeCalculationNotFound Code = "CALCULATION_NOT_FOUND"

	// CodeInternal indicates an infrastructure failure (storage, IO).
	CodeInternal Code = "INTERNAL_ERROR"
)

// Error is a domain error with a stable code and optional context.
type Error struct {
	Code    Code                   `json:"code"`
	Message string                 `json:"message"`
	Cause   error                  `json:"-"`
	Context map[string]interface{} `json:"context,omitempty"`
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error {
	return e.Cause
}

// WithContext attaches a key/value pair to the error.
func (e *Error) WithContext(key string, value interface{}) *Error {
	if e.Context == nil {
		e.Context = make(map[string]interface{})
	}
	e.Context[key] = value
	return e
}

// New creates an error with the given code.
func New(code Code, message string) *Error {
	return &Error{Code: code, Message: message}
}

// Newf creates a formatted error with the given code.
func Newf(code Code, format string, args ...interface{}) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// Wrap wraps a cause with a code and message.
func Wrap(code Code, message string, cause error) *Error {
	return &Error{Code: code, Message: message, Cause: cause}
}

// Wrapf wraps a cause with a code and formatted message.
func Wrapf(code Code, cause error, format string, args ...interface{}) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...), Cause: cause}
}

// IsCode reports whether err is an *Error carrying the given code.
func IsCode(err error, code Code) bool {
	if e, ok := err.(*Error); ok {
		return e.Code == code
	}
	return false
}

// CodeOf returns the code of err, or CodeInternal for foreign errors.
func CodeOf(err error) Code {
	if e, ok := err.(*Error); ok {
		return e.Code
	}
	return CodeInternal
}

// InvalidWeight creates an INVALID_WEIGHT error for the given value.
func InvalidWeight(value float64) *Error {
	return Newf(CodeInvalidWeight, "invalid relative weight: %v", value)
}

// InvalidBaseAmount creates an INVALID_BASE_AMOUNT error.
func InvalidBaseAmount(value string) *Error {
	return Newf(CodeInvalidBaseAmount, "invalid base price: %s", value)
}

// ContractUnavailable creates a CONTRACT_UNAVAILABLE error.
func ContractUnavailable(contractID string) *Error {
	return Newf(CodeContractUnavailable, "no tariff data for contract %s", contractID)
}

// TariffNotInForce creates a TARIFF_NOT_IN_FORCE error.
func TariffNotInForce(contractID string) *Error {
	return Newf(CodeTariffNotInForce, "no price entries in force for contract %s", contractID)
}

// TariffSourceUnavailable creates a TARIFF_SOURCE_UNAVAILABLE error.
func TariffSourceUnavailable() *Error {
	return New(CodeTariffSourceUnavailable, "no tariff sources configured")
}

// Internal creates an INTERNAL_ERROR wrapping cause.
func Internal(message string, cause error) *Error {
	return Wrap(CodeInternal, message, cause)
}
