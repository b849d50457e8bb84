package comments

import "fmt"

// FetchError reports a failed network call or a response body that could not
// be decoded as JSON.
type FetchError struct {
	URL string
	Err error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetch %s: %v", e.URL, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// ShapeError reports decoded JSON that lacks the structure the API contract
// promises (missing data.children, short thread arrays, and so on).
type ShapeError struct {
	Reason string
}

func (e *ShapeError) Error() string {
	return "unexpected response shape: " + e.Reason
}

func shapeErrorf(format string, args ...any) *ShapeError {
	return &ShapeError{Reason: fmt.Sprintf(format, args...)}
}
