package templating

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	derrors "git.home.luguber.info/inful/docnodes/internal/foundation/errors"
	"git.home.luguber.info/inful/docnodes/internal/retry"
)

// MaxResponseBytes caps every body fetched over HTTP.
const MaxResponseBytes = 5 * 1024 * 1024

// NewHTTPClient returns a client that only follows same-host redirects.
func NewHTTPClient() *http.Client {
	return &http.Client{
		Timeout: 10 * time.Second,
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			if len(via) == 0 {
				return nil
			}
			if req.URL.Host != via[0].URL.Host {
				return errors.New("redirect to different host blocked")
			}
			if len(via) >= 5 {
				return errors.New("too many redirects")
			}
			return nil
		},
	}
}

// FetchPolicy governs retries of transport failures and non-2xx answers
// other than 404.
var FetchPolicy = retry.NewPolicy(retry.Exponential, 200*time.Millisecond, 2*time.Second, 2)

// Fetch GETs rawURL and returns the body with its content type. A 404 is a
// MissingFileError; other failures are network errors, retried per FetchPolicy.
func Fetch(ctx context.Context, client *http.Client, rawURL string) (body []byte, ctype string, err error) {
	if client == nil {
		client = NewHTTPClient()
	}
	if _, err := ValidateURL(rawURL); err != nil {
		return nil, "", err
	}
	err = FetchPolicy.Do(ctx, func(ctx context.Context) error {
		var ferr error
		body, ctype, ferr = fetchOnce(ctx, client, rawURL)
		return ferr
	})
	return body, ctype, err
}

func fetchOnce(ctx context.Context, client *http.Client, rawURL string) ([]byte, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, http.NoBody)
	if err != nil {
		return nil, "", fmt.Errorf("build request: %w", err)
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, "", derrors.NetworkError("fetch failed").WithCause(err).WithContext("url", rawURL).Build()
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode == http.StatusNotFound {
		return nil, "", derrors.MissingFileError("remote resource not found").WithContext("url", rawURL).Build()
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, "", derrors.NetworkError(fmt.Sprintf("fetch %s: HTTP %d", rawURL, resp.StatusCode)).
			WithContext("url", rawURL).
			WithContext("status", resp.StatusCode).
			Build()
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, MaxResponseBytes+1))
	if err != nil {
		return nil, "", fmt.Errorf("read response: %w", err)
	}
	if len(data) > MaxResponseBytes {
		return nil, "", errors.New("response too large")
	}
	return data, resp.Header.Get("Content-Type"), nil
}

// ValidateURL accepts absolute http and https URLs only.
func ValidateURL(raw string) (*url.URL, error) {
	parsed, err := url.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("invalid URL: %w", err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return nil, fmt.Errorf("unsupported URL scheme: %q", parsed.Scheme)
	}
	return parsed, nil
}
