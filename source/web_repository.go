package source

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/sirupsen/logrus"
)

// IndexFile lists the preset files served below a web repository's URL,
// one relative path per line. Blank lines and lines starting with # are
// ignored.
const IndexFile = "index.txt"

// WebRepository is a struct that implements the Repository interface for
// preset setup files fetched from a remote HTTP endpoint (web URL).
type WebRepository struct {
	presetSet
	Name   string       // Name of the preset source
	URL    *url.URL     // Base URL under which index.txt and the preset files are served
	APIKey string       // Optional API key for X-API-Key header authentication
	Client *http.Client // HTTP client; defaults to http.DefaultClient
}

// GetName returns the name of the preset source.
func (w *WebRepository) GetName() string {
	return w.Name
}

// Refresh fetches the index and then every preset file it lists.
func (w *WebRepository) Refresh() error {
	ctx := context.Background()

	index, err := w.fetch(ctx, IndexFile)
	if err != nil {
		return err
	}

	c := newCollector(w.Name)
	scanner := bufio.NewScanner(bytes.NewReader(index))
	for scanner.Scan() {
		rel := strings.TrimSpace(scanner.Text())
		if rel == "" || strings.HasPrefix(rel, "#") || !IsPresetFile(rel) {
			continue
		}
		data, err := w.fetch(ctx, rel)
		if err != nil {
			return err
		}
		if err := c.add(rel, w.resolve(rel).String(), data); err != nil {
			return err
		}
	}
	if err := scanner.Err(); err != nil {
		return err
	}

	w.swap(c.files)
	return nil
}

func (w *WebRepository) resolve(rel string) *url.URL {
	base := *w.URL
	if !strings.HasSuffix(base.Path, "/") {
		base.Path += "/"
	}
	return base.ResolveReference(&url.URL{Path: rel})
}

func (w *WebRepository) fetch(ctx context.Context, rel string) ([]byte, error) {
	target := w.resolve(rel)
	request, err := http.NewRequestWithContext(ctx, http.MethodGet, target.String(), nil)
	if err != nil {
		logrus.Debug("error creating request")
		return nil, err
	}

	// Set X-API-Key header if API key is configured
	if w.APIKey != "" {
		request.Header.Set("X-API-Key", w.APIKey)
	}

	client := w.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(request)
	if err != nil {
		logrus.Debug("error doing request")
		return nil, err
	}
	defer func(Body io.ReadCloser) {
		err := Body.Close()
		if err != nil {
			logrus.WithError(err).Debug("error closing response body")
		}
	}(resp.Body)

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetching %s: unexpected status %s", target, resp.Status)
	}
	return io.ReadAll(resp.Body)
}
