package applications

import (
	"errors"
	"fmt"
)

// Kind classifies a failed submission.
type Kind string

const (
	KindMissingReference   Kind = "MISSING_REFERENCE"
	KindConfiguration      Kind = "CONFIGURATION_ERROR"
	KindProviderAuth       Kind = "PROVIDER_AUTH_ERROR"
	KindProviderAPI        Kind = "PROVIDER_API_ERROR"
	KindPaymentNotVerified Kind = "PAYMENT_NOT_VERIFIED"
	KindStoreUnavailable   Kind = "STORE_UNAVAILABLE"
	KindUnhandled          Kind = "UNHANDLED_EXCEPTION"
)

// Error is a submission failure that is reported back to the caller.
type Error struct {
	Kind    Kind
	Message string
	Detail  string
	// Provider carries the decoded provider payload (or raw body) when there
	// is one worth showing.
	Provider any
	Err      error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

// KindOf reports the kind of err. Errors that are not *Error are unhandled.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnhandled
}

// AsError converts any error into an *Error, wrapping unknown failures as
// unhandled exceptions.
func AsError(err error) *Error {
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	return &Error{
		Kind:    KindUnhandled,
		Message: "Server exception: " + err.Error(),
		Detail:  err.Error(),
		Err:     err,
	}
}

const invalidProviderJSON = "Invalid JSON from Paystack"

func errMissingReference() *Error {
	return &Error{Kind: KindMissingReference, Message: "Missing paymentRef"}
}

func errNotConfigured() *Error {
	return &Error{
		Kind:    KindConfiguration,
		Message: "Paystack secret key not configured",
		Detail:  "Set PAYSTACK_SECRET_KEY for this deployment",
	}
}

func errProviderAuth() *Error {
	return &Error{
		Kind:    KindProviderAuth,
		Message: "Payment verification failed: Invalid API key",
		Detail:  "Please check your Paystack secret key configuration",
	}
}

func errProviderAPI(status int, message string, provider any) *Error {
	if message == "" {
		message = "Unknown error"
	}
	return &Error{
		Kind:     KindProviderAPI,
		Message:  "Payment verification failed: API error",
		Detail:   fmt.Sprintf("HTTP %d: %s", status, message),
		Provider: provider,
	}
}

func errNotVerified(message string, provider any) *Error {
	if message == "" {
		message = "Payment not completed successfully"
	}
	return &Error{
		Kind:     KindPaymentNotVerified,
		Message:  "Payment verification failed",
		Detail:   message,
		Provider: provider,
	}
}

func errStoreUnavailable(err error) *Error {
	return &Error{
		Kind:    KindStoreUnavailable,
		Message: "Spreadsheet access failed: " + err.Error(),
		Err:     err,
	}
}
