package httpapi

// Result is the envelope every JSON endpoint returns.
//   - code: ResultSuccess on success
//   - type: "success" | "error" | "warning"
type Result[T any] struct {
	Code    int    `json:"code"`
	Type    string `json:"type"`
	Message string `json:"message"`
	Result  T      `json:"result"`
}

const (
	ResultSuccess = 2000
	ResultError   = -1
	// ResultTokenExpired goes with HTTP 401.
	ResultTokenExpired = 60401
	ResultForbidden    = 60403
)

func Ok[T any](result T) Result[T] {
	return Result[T]{Code: ResultSuccess, Type: "success", Message: "ok", Result: result}
}

// Warn is a success that the caller should flag, such as a fallback to
// another data source.
func Warn[T any](message string, result T) Result[T] {
	return Result[T]{Code: ResultSuccess, Type: "warning", Message: message, Result: result}
}

func Fail(message string) Result[any] {
	return Result[any]{Code: ResultError, Type: "error", Message: message, Result: nil}
}
