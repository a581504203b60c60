package domain

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrNotFound             = errors.New("not found")
	ErrConcurrentUpdate     = errors.New("integration config was modified concurrently")
	ErrInvalidStayWindow    = errors.New("start of validity window must be before its end")
	ErrUnsupportedOperation = errors.New("operation not supported by provider")
	ErrUnknownDomain        = errors.New("unknown integration domain")
)

// UnsupportedProviderError is returned when a connector is asked to dispatch to a
// provider id that has no registered implementation.
type UnsupportedProviderError struct {
	Domain   Domain
	Provider string
}

func (e *UnsupportedProviderError) Error() string {
	return fmt.Sprintf("%s: unsupported provider %q", e.Domain, e.Provider)
}

// InvalidProviderError is returned by config writes naming a provider outside the
// domain's registered set.
type InvalidProviderError struct {
	Domain   Domain
	Provider string
}

func (e *InvalidProviderError) Error() string {
	return fmt.Sprintf("%s: provider %q is not registered", e.Domain, e.Provider)
}

// Code is the stable machine-readable identifier, e.g. invalid_pms_provider.
func (e *InvalidProviderError) Code() string {
	return "invalid_" + e.Domain.Snake() + "_provider"
}

// ProviderAPIError carries a non-2xx response from a third-party API.
type ProviderAPIError struct {
	Provider   string
	Status     int
	StatusText string
	Body       string
}

func (e *ProviderAPIError) Error() string {
	msg := fmt.Sprintf("%s API error: %d %s", e.Provider, e.Status, e.StatusText)
	if b := strings.TrimSpace(e.Body); b != "" {
		msg += ": " + b
	}
	return msg
}

// PaymentProviderError carries a failed payment-processor call.
type PaymentProviderError struct {
	Status  int
	Code    string
	Message string
}

func (e *PaymentProviderError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("payment provider error (%d %s): %s", e.Status, e.Code, e.Message)
	}
	return fmt.Sprintf("payment provider error (%d): %s", e.Status, e.Message)
}

type InvalidConfigError struct {
	Domain   Domain
	Provider string
	Reason   string
}

func (e *InvalidConfigError) Error() string {
	if e.Provider == "" {
		return fmt.Sprintf("%s: invalid config: %s", e.Domain, e.Reason)
	}
	return fmt.Sprintf("%s/%s: invalid config: %s", e.Domain, e.Provider, e.Reason)
}

// ConnectorNotInitializedError means no usable configuration exists for a domain
// that has no safe mock fallback.
type ConnectorNotInitializedError struct {
	Domain Domain
}

func (e *ConnectorNotInitializedError) Error() string {
	return fmt.Sprintf("%s connector not initialized: no configuration available", e.Domain)
}
