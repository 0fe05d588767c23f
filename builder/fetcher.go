// Package builder parses UPnP device and service description documents
// into the runtime object graph defined by package model. The host side
// fetches SCPDs and icons from the local filesystem; the control-point
// side fetches them over HTTP against the device's advertised location.
// Both share the same parsing and validation logic through the Fetcher
// abstraction.
package builder

import (
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Fetcher retrieves the bytes at a URL relative to a device's base
// location (a SCPD or an icon).
type Fetcher interface {
	Fetch(relativeURL string) ([]byte, error)
}

// FileFetcher resolves relative URLs against a directory on disk, used by
// the Device Host, which serves its own description files.
type FileFetcher struct {
	BaseDir string
}

func (f FileFetcher) Fetch(relativeURL string) ([]byte, error) {
	clean := strings.TrimPrefix(relativeURL, "/")
	path := filepath.Join(f.BaseDir, filepath.FromSlash(clean))
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("builder: reading %s: %w", path, err)
	}
	return data, nil
}

// HTTPFetcher resolves relative URLs against a base location URL, used by
// the Control Point to retrieve SCPDs and icons from a remote device.
type HTTPFetcher struct {
	BaseURL string
	Client  *http.Client
}

// NewHTTPFetcher builds a fetcher with the spec's 5 s connect/read
// timeouts for description retrieval (spec §5 "Cancellation & timeouts").
func NewHTTPFetcher(baseURL string) *HTTPFetcher {
	return &HTTPFetcher{
		BaseURL: baseURL,
		Client:  &http.Client{Timeout: 5 * time.Second},
	}
}

func (f *HTTPFetcher) Fetch(relativeURL string) ([]byte, error) {
	u, err := resolveURL(f.BaseURL, relativeURL)
	if err != nil {
		return nil, err
	}
	resp, err := f.Client.Get(u)
	if err != nil {
		return nil, fmt.Errorf("builder: fetching %s: %w", u, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("builder: fetching %s: status %s", u, resp.Status)
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("builder: reading body of %s: %w", u, err)
	}
	return data, nil
}

func resolveURL(base, rel string) (string, error) {
	if strings.HasPrefix(rel, "http://") || strings.HasPrefix(rel, "https://") {
		return rel, nil
	}
	base = strings.TrimRight(base, "/")
	rel = strings.TrimPrefix(rel, "/")
	return base + "/" + rel, nil
}
