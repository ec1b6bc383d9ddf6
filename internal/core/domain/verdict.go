package domain

// Verdict is the outcome of a guardrail check.
type Verdict struct {
	// Allowed is true when the content passed all checks.
	Allowed bool

	// Reason explains a rejection. Empty when Allowed.
	Reason string
}

// Allow returns a passing verdict.
func Allow() Verdict {
	return Verdict{Allowed: true}
}

// Reject returns a failing verdict with the given reason.
func Reject(reason string) Verdict {
	return Verdict{Allowed: false, Reason: reason}
}
