package feed

import "fmt"

// Kind classifies a fetch failure for the refresh controller.
type Kind string

const (
	// KindConfig means the feed URL or shared secret was absent; no
	// network I/O was attempted.
	KindConfig Kind = "configuration-missing"
	// KindTransport covers network, DNS and TLS failures.
	KindTransport Kind = "transport"
	// KindUnauthorized is an explicit 401/403 from the upstream.
	KindUnauthorized Kind = "unauthorized"
	// KindUpstream is any other non-2xx response.
	KindUpstream Kind = "upstream-rejected"
)

// FetchError is the typed failure returned by Client.Fetch.
type FetchError struct {
	Kind   Kind
	Status int    // HTTP status code, when one was received
	Body   string // response body excerpt for upstream rejections
	cause  error
}

func (e *FetchError) Error() string {
	switch {
	case e.Status != 0 && e.Body != "":
		return fmt.Sprintf("feed fetch %s: status %d: %s", e.Kind, e.Status, e.Body)
	case e.Status != 0:
		return fmt.Sprintf("feed fetch %s: status %d", e.Kind, e.Status)
	case e.cause != nil:
		return fmt.Sprintf("feed fetch %s: %v", e.Kind, e.cause)
	default:
		return fmt.Sprintf("feed fetch %s", e.Kind)
	}
}

func (e *FetchError) Unwrap() error { return e.cause }
