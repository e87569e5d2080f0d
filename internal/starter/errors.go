// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package starter

import (
	"errors"
	"fmt"
	"strings"

	"github.com/pdiddy/starter-export/pkg/types"
)

var (
	// ErrExhaustedRetries matches every request that failed after its retry budget.
	ErrExhaustedRetries = errors.New("retry attempts exhausted")

	// ErrThrottleExceeded matches exhaustion where the last failure was a throttle.
	ErrThrottleExceeded = errors.New("throttle retries exceeded")

	// ErrTransientExhausted matches exhaustion on server, network, or malformed-body failures.
	ErrTransientExhausted = errors.New("transient retries exhausted")

	// ErrOversizedResultSet matches a declared total above the configured ceiling.
	ErrOversizedResultSet = errors.New("result set too large")
)

// ClientQueryError reports a query the API rejected as malformed. It is
// never retried; the user has to fix the query.
type ClientQueryError struct {
	Status           int
	Query            string
	SearchableFields []string
}

// Error lists the field tags the API accepts.
func (e *ClientQueryError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "query rejected (HTTP %d)", e.Status)
	if e.Query != "" {
		fmt.Fprintf(&b, ": %q", e.Query)
	}
	if len(e.SearchableFields) > 0 {
		fmt.Fprintf(&b, ". Only the following fields can be searched using the Starter API: %s",
			strings.Join(e.SearchableFields, ", "))
	}
	b.WriteString(". Please check your search and try again")
	return b.String()
}

// StatusError is a non-retryable HTTP status other than a rejected query,
// such as 401 for a bad API key.
type StatusError struct {
	Status int
	Body   string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("starter API returned HTTP %d", e.Status)
	}
	return fmt.Sprintf("starter API returned HTTP %d: %s", e.Status, e.Body)
}

// ExhaustedRetriesError is returned when a logical request ran out of
// attempts. Class is the class of the last failure; Err is its cause.
type ExhaustedRetriesError struct {
	URL      string
	Class    types.ErrorClass
	Attempts int
	Err      error
}

func (e *ExhaustedRetriesError) Error() string {
	return fmt.Sprintf("request to %s failed after %d attempts (%s): %v", e.URL, e.Attempts, e.Class, e.Err)
}

// Unwrap exposes ErrExhaustedRetries, the class sentinel, and the last cause.
func (e *ExhaustedRetriesError) Unwrap() []error {
	kind := ErrTransientExhausted
	if e.Class == types.ClassThrottled {
		kind = ErrThrottleExceeded
	}
	errs := []error{ErrExhaustedRetries, kind}
	if e.Err != nil {
		errs = append(errs, e.Err)
	}
	return errs
}

// OversizedResultSetError reports a declared total above the ceiling. No
// page beyond the first is requested once it is raised.
type OversizedResultSetError struct {
	Total int
	Max   int
}

func (e *OversizedResultSetError) Error() string {
	return fmt.Sprintf("query returned %d results, max allowed is %d", e.Total, e.Max)
}

func (e *OversizedResultSetError) Unwrap() error { return ErrOversizedResultSet }

// attemptError is the cause recorded for one failed, retryable attempt.
type attemptError struct {
	status int
	msg    string
	err    error
}

func (e *attemptError) Error() string {
	switch {
	case e.err != nil && e.status > 0:
		return fmt.Sprintf("HTTP %d: %s: %v", e.status, e.msg, e.err)
	case e.err != nil:
		return fmt.Sprintf("%s: %v", e.msg, e.err)
	case e.status > 0:
		return fmt.Sprintf("HTTP %d: %s", e.status, e.msg)
	default:
		return e.msg
	}
}

func (e *attemptError) Unwrap() error { return e.err }
