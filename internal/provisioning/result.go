package provisioning

// Result is the success/failure envelope returned by every orchestrator
// operation. Orchestrator methods never return Go errors to callers under
// normal failure conditions; callers branch on Success.
//
// CompensationErrors lists rollback steps that themselves failed after a
// primary failure. The primary error always wins: compensation failures
// never change the reported outcome, they only flag that a provider-side
// resource may have been orphaned and needs operator attention.
type Result[T any] struct {
	Success            bool     `json:"success"`
	Data               T        `json:"data,omitempty"`
	Error              string   `json:"error,omitempty"`
	CompensationErrors []string `json:"compensationErrors,omitempty"`
}

// Ok builds a success result.
func Ok[T any](data T) Result[T] {
	return Result[T]{Success: true, Data: data}
}

// Fail builds a failure result with a human-readable error.
func Fail[T any](err string, compensationErrors ...string) Result[T] {
	return Result[T]{Success: false, Error: err, CompensationErrors: compensationErrors}
}
