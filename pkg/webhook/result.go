package webhook

import "fmt"

// Result is the uniform envelope returned by every invoker and poller
// operation. Exactly one of Data/Error is populated: Data on success,
// Error otherwise. Callers branch on Success only; no operation in this
// package returns a Go error or panics past its own boundary.
type Result struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

// OK wraps a decoded response body in a success envelope.
func OK(data interface{}) Result {
	return Result{Success: true, Data: data}
}

// Fail builds a failure envelope from a format string.
func Fail(format string, args ...interface{}) Result {
	return Result{Success: false, Error: fmt.Sprintf(format, args...)}
}
