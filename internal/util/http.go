package util

import (
	"fmt"
	"io"
	"net/http"
	"time"
)

// DefaultHTTPClient returns the client used for source downloads. The feed
// hosts are slow; two minutes covers the largest registry CSV.
func DefaultHTTPClient() *http.Client {
	return &http.Client{Timeout: 120 * time.Second}
}

// FetchBytes executes a pre-built request and returns the body. The caller
// builds the request so it controls context and headers; non-200 responses
// become errors carrying the first bytes of the body for context.
func FetchBytes(client *http.Client, req *http.Request) ([]byte, error) {
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http do request for %s: %w", req.URL.String(), err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("bad status '%s' fetching %s: %s", resp.Status, req.URL.String(), string(snippet))
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed reading body from %s: %w", req.URL.String(), err)
	}
	return body, nil
}
