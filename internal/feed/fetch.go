package feed

import (
	"context"
	"io"
	"net/http"
	"strings"
	"time"

	appLog "famcal/internal/log"
)

// SecretHeader carries the shared secret on feed fetches and is required
// from clients of the feed proxy.
const SecretHeader = "X-Api-Key"

// maxErrorBody bounds how much of a rejection body is kept on the error.
const maxErrorBody = 512

// Client fetches the raw ICS feed through the authenticated proxy. It is
// purely request/response; stale-data retention lives in the refresh
// controller.
type Client struct {
	url    string
	secret string
	client *http.Client
}

// NewClient builds a feed client for the given proxy URL and shared
// secret. Either may be empty; Fetch then fails fast with KindConfig.
func NewClient(url, secret string) *Client {
	return &Client{
		url:    url,
		secret: secret,
		client: &http.Client{
			Timeout: 15 * time.Second,
		},
	}
}

// Fetch performs one authenticated GET and returns the raw feed body.
// All failures are *FetchError.
func (c *Client) Fetch(ctx context.Context) ([]byte, error) {
	if strings.TrimSpace(c.url) == "" || strings.TrimSpace(c.secret) == "" {
		return nil, &FetchError{Kind: KindConfig}
	}

	url := NormalizeScheme(c.url)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, &FetchError{Kind: KindTransport, cause: err}
	}
	req.Header.Set(SecretHeader, c.secret)
	req.Header.Set("Accept", "text/calendar")

	appLog.Debug("feed fetch start", "url", RedactURL(url))

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, &FetchError{Kind: KindTransport, cause: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		return nil, &FetchError{Kind: KindUnauthorized, Status: resp.StatusCode}
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return nil, &FetchError{
			Kind:   KindUpstream,
			Status: resp.StatusCode,
			Body:   strings.TrimSpace(string(body)),
		}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &FetchError{Kind: KindTransport, cause: err}
	}

	appLog.Info("feed fetch success", "url", RedactURL(url), "status", resp.StatusCode, "bytes", len(body))
	return body, nil
}

// NormalizeScheme maps the webcal:// subscription convention onto plain
// HTTPS; the payloads are byte-identical, only the scheme differs.
func NormalizeScheme(url string) string {
	if strings.HasPrefix(url, "webcal://") {
		return "https://" + strings.TrimPrefix(url, "webcal://")
	}
	return url
}

// RedactURL hides the path and query of a feed URL for logging; private
// feed URLs routinely embed access tokens.
func RedactURL(u string) string {
	const redactedSuffix = "/...(redacted)"

	i := strings.Index(u, "://")
	if i == -1 {
		return "(redacted)"
	}
	host := u[i+3:]
	if j := strings.IndexByte(host, '/'); j != -1 {
		host = host[:j]
	}
	return u[:i+3] + host + redactedSuffix
}
