// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package search

import "fmt"

// SearchError reports a failed search or a non-transient download failure:
// the resolver could not map the target to coordinates, the query matched
// nothing, or the cutout service rejected the request.
type SearchError struct {
	Msg string
	Err error
}

func (e *SearchError) Error() string {
	if e.Err != nil {
		if e.Msg == "" {
			return e.Err.Error()
		}
		return fmt.Sprintf("%s: %v", e.Msg, e.Err)
	}
	return e.Msg
}

func (e *SearchError) Unwrap() error { return e.Err }

// CutoutTimeoutError reports that the TESS full-frame-image cutout service
// timed out (HTTP 504). The service sheds load this way when overloaded;
// the condition is transient and the caller may retry. It is never retried
// internally.
type CutoutTimeoutError struct {
	Err error
}

func (e *CutoutTimeoutError) Error() string {
	return fmt.Sprintf("the TESS FFI cutout service appears to be temporarily unavailable: %v", e.Err)
}

func (e *CutoutTimeoutError) Unwrap() error { return e.Err }
