package remote

import (
	"encoding/json"
	"errors"
	"fmt"
)

// ErrMalformedEnvelope is returned when a payload has neither an ok nor an err key
var ErrMalformedEnvelope = errors.New("malformed result envelope")

// Result is the outcome of a service operation: either a value or a
// human-readable failure message
type Result[T any] struct {
	value T
	msg   string
	ok    bool
}

// Ok wraps a successful value
func Ok[T any](v T) Result[T] {
	return Result[T]{value: v, ok: true}
}

// Err wraps a failure message
func Err[T any](msg string) Result[T] {
	return Result[T]{msg: msg}
}

// Errf wraps a formatted failure message
func Errf[T any](format string, args ...any) Result[T] {
	return Err[T](fmt.Sprintf(format, args...))
}

// IsOk reports whether the result carries a value
func (r Result[T]) IsOk() bool {
	return r.ok
}

// Value returns the value, or the zero value for an Err result
func (r Result[T]) Value() T {
	return r.value
}

// Unwrap returns the value and whether the result is Ok
func (r Result[T]) Unwrap() (T, bool) {
	return r.value, r.ok
}

// Message returns the failure message, empty for an Ok result
func (r Result[T]) Message() string {
	return r.msg
}

func (r Result[T]) String() string {
	if r.ok {
		return fmt.Sprintf("ok(%v)", r.value)
	}
	return fmt.Sprintf("err(%s)", r.msg)
}

// MarshalJSON encodes the result as {"ok": value} or {"err": message}
func (r Result[T]) MarshalJSON() ([]byte, error) {
	if r.ok {
		return json.Marshal(struct {
			Ok T `json:"ok"`
		}{r.value})
	}
	return json.Marshal(struct {
		Err string `json:"err"`
	}{r.msg})
}

// UnmarshalJSON decodes an envelope. The ok key wins when both are present.
func (r *Result[T]) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("decoding envelope: %w", err)
	}

	if payload, ok := raw["ok"]; ok {
		var v T
		if err := json.Unmarshal(payload, &v); err != nil {
			return fmt.Errorf("decoding ok payload: %w", err)
		}
		*r = Ok(v)
		return nil
	}

	if payload, ok := raw["err"]; ok {
		var msg string
		if err := json.Unmarshal(payload, &msg); err != nil {
			return fmt.Errorf("decoding err payload: %w", err)
		}
		*r = Err[T](msg)
		return nil
	}

	return ErrMalformedEnvelope
}
