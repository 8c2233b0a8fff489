package gallery

import (
	"errors"
	"fmt"
)

// ErrNotInitialized is returned when a pipeline is used before Initialize.
var ErrNotInitialized = errors.New("gallery pipeline was not initialized")

// MalformedTimestampError reports a published date that is not an instant.
type MalformedTimestampError struct {
	Value string
	Err   error
}

func (e *MalformedTimestampError) Error() string {
	return fmt.Sprintf("malformed timestamp %q: %v", e.Value, e.Err)
}

func (e *MalformedTimestampError) Unwrap() error {
	return e.Err
}

// FetchError wraps any failure on the fetch path of a search.
type FetchError struct {
	Tag string
	Err error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("searching %q: %v", e.Tag, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}
