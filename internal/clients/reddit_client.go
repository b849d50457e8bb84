package clients

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"strings"
	"sync"
	"time"
)

const DEFAULT_BASE_URL = "https://www.reddit.com"

var (
	redditClientInstance *RedditClient
	redditClientOnce     sync.Once
)

// RedditClient talks to the public JSON endpoints and satisfies
// comments.Fetcher. The public API wants no auth, only a distinctive
// User-Agent; rate limiting (429) is handled here with exponential backoff
// so the core never sees it.
type RedditClient struct {
	BaseURL string
	Client  *http.Client
}

func NewRedditClient(baseURL string) *RedditClient {
	return &RedditClient{
		BaseURL: strings.TrimSuffix(baseURL, "/"),
		Client:  &http.Client{Timeout: 30 * time.Second},
	}
}

func GetRedditClient() *RedditClient {
	redditClientOnce.Do(func() {
		baseURL := os.Getenv("REDDIT_BASE_URL")
		if baseURL == "" {
			baseURL = DEFAULT_BASE_URL
		}
		redditClientInstance = NewRedditClient(baseURL)
	})
	return redditClientInstance
}

// Get issues a GET with the standard page-size parameter and returns the raw
// response body.
func (rc *RedditClient) Get(ctx context.Context, rawURL string, params url.Values) ([]byte, error) {
	parsedUrl, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("[RedditClient] Failed to parse URL: %w", err)
	}

	queryParams := parsedUrl.Query()
	for key, values := range params {
		for _, value := range values {
			queryParams.Add(key, value)
		}
	}
	if queryParams.Get("limit") == "" {
		queryParams.Set("limit", "100")
	}
	parsedUrl.RawQuery = queryParams.Encode()

	return rc.doWithBackoff(ctx, http.MethodGet, parsedUrl.String(), "")
}

// Post issues a form-encoded POST and returns the raw response body.
func (rc *RedditClient) Post(ctx context.Context, rawURL string, params url.Values) ([]byte, error) {
	return rc.doWithBackoff(ctx, http.MethodPost, rawURL, params.Encode())
}

func (rc *RedditClient) doWithBackoff(ctx context.Context, method, requestURL, form string) ([]byte, error) {
	backoff := INITIAL_BACKOFF

	for attempt := 1; ; attempt++ {
		var body io.Reader
		if form != "" {
			body = strings.NewReader(form)
		}

		req, err := http.NewRequestWithContext(ctx, method, requestURL, body)
		if err != nil {
			return nil, err
		}
		req.Header.Set("User-Agent", USER_AGENT)
		if form != "" {
			req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		}

		resp, err := rc.Client.Do(req)
		if err != nil {
			return nil, err
		}

		if resp.StatusCode == http.StatusTooManyRequests && attempt < MAX_RETRIES {
			resp.Body.Close()
			slog.Warn("[RedditClient] 429 Too Many Requests - Retrying with backoff",
				slog.Int("attempt", attempt), slog.Duration("backoff", backoff))

			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(backoff):
			}

			backoff *= 2
			if backoff > MAX_BACKOFF {
				backoff = MAX_BACKOFF
			}
			continue
		}

		data, readErr := io.ReadAll(resp.Body)
		resp.Body.Close()
		if readErr != nil {
			return nil, readErr
		}
		if resp.StatusCode != http.StatusOK {
			return nil, fmt.Errorf("[RedditClient] %s %s: unexpected status %d", method, requestURL, resp.StatusCode)
		}
		return data, nil
	}
}
