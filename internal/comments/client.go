package comments

import (
	"context"
	"net/url"
	"strings"
)

// Fetcher is the transport collaborator. It performs the HTTP call and hands
// back the raw JSON body; implementations own headers, rate limiting and
// timeouts, the core owns decoding and shape validation. Get always carries
// a limit=100 page-size parameter.
type Fetcher interface {
	Get(ctx context.Context, rawURL string, params url.Values) ([]byte, error)
	Post(ctx context.Context, rawURL string, params url.Values) ([]byte, error)
}

// Client layers the comment API's endpoint layout over a Fetcher. The base
// URL is injected at construction; Client keeps no other state and is safe
// for concurrent use.
type Client struct {
	fetcher Fetcher
	baseURL string
}

func NewClient(fetcher Fetcher, baseURL string) *Client {
	return &Client{
		fetcher: fetcher,
		baseURL: strings.TrimSuffix(baseURL, "/"),
	}
}
