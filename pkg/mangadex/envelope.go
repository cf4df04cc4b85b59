package mangadex

import (
	"encoding/json"
	"fmt"
)

// envelope is the common wrapper around every API response body.
type envelope struct {
	Result string          `json:"result"`
	Data   json.RawMessage `json:"data"`
	Errors []struct {
		Status int    `json:"status"`
		Title  string `json:"title"`
		Detail string `json:"detail"`
	} `json:"errors"`
}

// ResultError is a structured error reported by the service itself
// (result: "error" in the body). It is never retried.
type ResultError struct {
	Status int
	Title  string
	Detail string
}

func (e *ResultError) Error() string {
	return fmt.Sprintf("result not okay: <status %d> %s: %s", e.Status, e.Title, e.Detail)
}

// DecodeError marks a response body that could not be decoded as the expected
// shape, distinct from a service-reported ResultError.
type DecodeError struct {
	Err error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("failed to decode response: %v", e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

// decodeBody unpacks an API response body into v, surfacing a ResultError when
// the service flags the result and a DecodeError when the body is malformed.
func decodeBody(body []byte, v any) error {
	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return &DecodeError{Err: err}
	}
	if env.Result == "error" {
		res := &ResultError{}
		if len(env.Errors) > 0 {
			first := env.Errors[0]
			res.Status = first.Status
			res.Title = first.Title
			res.Detail = first.Detail
		}
		return res
	}
	if v == nil {
		return nil
	}
	if err := json.Unmarshal(body, v); err != nil {
		return &DecodeError{Err: err}
	}
	return nil
}
