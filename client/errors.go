package client

import "fmt"

// URLError reports a request target that could not be resolved into a usable
// absolute URL. It is returned before any network call is attempted.
type URLError struct {
	Target string
	Err    error
}

func (e *URLError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("invalid url %q: %v", e.Target, e.Err)
	}
	return fmt.Sprintf("invalid url %q", e.Target)
}

func (e *URLError) Unwrap() error {
	return e.Err
}

// HeaderValueError reports a header value containing bytes that are illegal
// in HTTP header syntax. It is returned before any network call is attempted.
type HeaderValueError struct {
	Name  string
	Value string
}

func (e *HeaderValueError) Error() string {
	return fmt.Sprintf("invalid value for header %q", e.Name)
}
