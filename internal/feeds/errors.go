package feeds

import "fmt"

// TransportError reports a network or HTTP failure while fetching a feed
// page. The metadata store treats it as fatal for the first page of a
// refresh and as end-of-pagination for later pages.
type TransportError struct {
	URL    string
	Status string
	Err    error
}

func (e *TransportError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("fetch %s: %v", e.URL, e.Err)
	}
	return fmt.Sprintf("fetch %s: %s", e.URL, e.Status)
}

func (e *TransportError) Unwrap() error { return e.Err }

// ParseError reports malformed feed markup.
type ParseError struct {
	Err error
}

func (e *ParseError) Error() string { return fmt.Sprintf("parse feed: %v", e.Err) }

func (e *ParseError) Unwrap() error { return e.Err }
