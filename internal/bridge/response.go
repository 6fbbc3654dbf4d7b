package bridge

import (
	"errors"
	"fmt"

	"github.com/bytedance/sonic"
)

// Response is the wire reply to a Request. Data is set only on success,
// Error only on failure.
type Response struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
}

// OK builds a successful response.
func OK(data any) Response {
	return Response{Success: true, Data: data}
}

// Fail builds a failed response from err.
func Fail(err error) Response {
	msg := "unknown error"
	if err != nil && err.Error() != "" {
		msg = err.Error()
	}
	return Response{Success: false, Error: msg}
}

// Result is a Response with its value decoded.
type Result[T any] struct {
	Value T
	Err   error
}

// OK reports whether the result holds a value.
func (r Result[T]) OK() bool {
	return r.Err == nil
}

// Unwrap returns the value and error.
func (r Result[T]) Unwrap() (T, error) {
	return r.Value, r.Err
}

// AsResponse normalizes a reply as delivered by a host.
func AsResponse(v any) (Response, error) {
	switch r := v.(type) {
	case nil:
		return Response{}, errNoResponse
	case Response:
		return r, nil
	case *Response:
		if r == nil {
			return Response{}, errNoResponse
		}
		return *r, nil
	case []byte:
		return unmarshalResponse(r)
	case map[string]any:
		raw, err := sonic.Marshal(r)
		if err != nil {
			return Response{}, fmt.Errorf("encode response: %w", err)
		}
		return unmarshalResponse(raw)
	default:
		return Response{}, fmt.Errorf("unexpected response type %T", v)
	}
}

func unmarshalResponse(raw []byte) (Response, error) {
	if len(raw) == 0 {
		return Response{}, errNoResponse
	}
	var resp Response
	if err := sonic.Unmarshal(raw, &resp); err != nil {
		return Response{}, fmt.Errorf("decode response: %w", err)
	}
	return resp, nil
}

// resultOf decodes resp.Data with conv. A failed response becomes a
// *ResponseError.
func resultOf[T any](resp Response, conv func(any) (T, bool)) Result[T] {
	if !resp.Success {
		return Result[T]{Err: &ResponseError{Message: resp.Error}}
	}
	v, ok := conv(resp.Data)
	if !ok {
		return Result[T]{Err: &TransportError{Err: fmt.Errorf("unexpected response data %T", resp.Data)}}
	}
	return Result[T]{Value: v}
}

func asString(v any) (string, bool) {
	s, ok := v.(string)
	return s, ok
}

func asStrings(v any) ([]string, bool) {
	switch s := v.(type) {
	case nil:
		return []string{}, true
	case []string:
		return s, true
	case []any:
		out := make([]string, 0, len(s))
		for _, item := range s {
			str, ok := item.(string)
			if !ok {
				return nil, false
			}
			out = append(out, str)
		}
		return out, true
	default:
		return nil, false
	}
}

var errNoResponse = errors.New("The message port closed before a response was received.")
