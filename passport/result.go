package passport

import (
	"fmt"

	"github.com/andrebq/turnstile/account"
)

type (
	// Outcome tells which variant a Result holds.
	Outcome uint8

	// Result is the outcome of one authentication attempt, exactly one of
	// Success, Failure or Error.
	//
	// Failure is an expected business outcome and carries a message that can
	// be shown to the end user. Error means the attempt itself could not be
	// completed and its cause must never be shown to the end user.
	Result struct {
		outcome Outcome
		user    *account.User
		message string
		err     error
	}
)

const (
	OutcomeSuccess Outcome = iota + 1
	OutcomeFailure
	OutcomeError
)

func Success(user *account.User) Result {
	return Result{outcome: OutcomeSuccess, user: user}
}

func Failure(message string) Result {
	return Result{outcome: OutcomeFailure, message: message}
}

func Error(cause error) Result {
	return Result{outcome: OutcomeError, err: cause}
}

// Outcome of the attempt, the zero Result has no outcome and is treated
// as an error by the framework.
func (r Result) Outcome() Outcome {
	return r.outcome
}

// User is only set on Success.
func (r Result) User() *account.User {
	return r.user
}

// Message is only set on Failure.
func (r Result) Message() string {
	return r.message
}

// Err is only set on Error.
func (r Result) Err() error {
	return r.err
}

func (r Result) String() string {
	switch r.outcome {
	case OutcomeSuccess:
		if r.user == nil {
			return "success(<nil>)"
		}
		return fmt.Sprintf("success(%v)", r.user.ID)
	case OutcomeFailure:
		return fmt.Sprintf("failure(%v)", r.message)
	case OutcomeError:
		return fmt.Sprintf("error(%v)", r.err)
	}
	return "undefined"
}

func (o Outcome) String() string {
	switch o {
	case OutcomeSuccess:
		return "success"
	case OutcomeFailure:
		return "failure"
	case OutcomeError:
		return "error"
	}
	return fmt.Sprintf("outcome(%d)", uint8(o))
}
