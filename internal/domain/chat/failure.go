package chat

import (
	"errors"
	"fmt"
	"time"
)

// FailureKind classifies a model transport failure.
type FailureKind string

// Failure kinds, each mapped to one stable user-facing message.
const (
	FailureAuth            FailureKind = "auth"
	FailureRateLimited     FailureKind = "rate_limited"
	FailureTimeout         FailureKind = "timeout"
	FailureNetwork         FailureKind = "network"
	FailureServer          FailureKind = "server"
	FailureContentFiltered FailureKind = "content_filtered"
	FailureModelNotFound   FailureKind = "model_not_found"
	FailureContextTooLong  FailureKind = "context_too_long"
	FailureUnknown         FailureKind = "unknown"
)

// Failure is a typed error from the response-generating service. It wraps the
// underlying transport error and carries a suggested retry delay for
// rate-limit failures when the service provided one.
type Failure struct {
	Kind       FailureKind
	RetryAfter time.Duration
	Err        error
}

func (f *Failure) Error() string {
	if f.Err != nil {
		return fmt.Sprintf("model request failed (%s): %v", f.Kind, f.Err)
	}
	return fmt.Sprintf("model request failed (%s)", f.Kind)
}

func (f *Failure) Unwrap() error { return f.Err }

// UserMessage returns the stable user-facing text for the failure kind.
func (f *Failure) UserMessage() string {
	switch f.Kind {
	case FailureAuth:
		return "The assistant could not authenticate with the model service. Check the configured API key."
	case FailureRateLimited:
		if f.RetryAfter > 0 {
			return fmt.Sprintf("The model service is rate limiting requests. Try again in about %s.",
				f.RetryAfter.Round(time.Second))
		}
		return "The model service is rate limiting requests. Try again shortly."
	case FailureTimeout:
		return "The model service took too long to respond. Try again."
	case FailureNetwork:
		return "The assistant could not reach the model service. Check your network connection."
	case FailureServer:
		return "The model service reported an internal error. Try again shortly."
	case FailureContentFiltered:
		return "The model service declined to answer due to content filtering."
	case FailureModelNotFound:
		return "The configured model was not found on the service."
	case FailureContextTooLong:
		return "The conversation is too long for the model. Start a new conversation."
	default:
		return "The assistant hit an unexpected error talking to the model service."
	}
}

// AsFailure extracts a *Failure from an error chain.
func AsFailure(err error) (*Failure, bool) {
	var f *Failure
	if errors.As(err, &f) {
		return f, true
	}
	return nil, false
}
