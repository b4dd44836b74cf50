// Package manifest retrieves the list of assets published for a site.
package manifest

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sort"

	"github.com/Saghetti0/obsidian-publish-downloader/models"
	"github.com/Saghetti0/obsidian-publish-downloader/pkg/fetcher"
)

var (
	ErrManifestUnavailable = errors.New("manifest unavailable")
	ErrManifestMalformed   = errors.New("manifest malformed")
)

// Fetch performs a single request to the site's manifest endpoint and
// returns its entries sorted by logical path.
func Fetch(ctx context.Context, f *fetcher.Fetcher, scheme string, site models.SiteDescriptor) (models.Manifest, error) {
	url := site.ManifestURL(scheme)
	body, err := f.Open(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrManifestUnavailable, url, err)
	}
	defer body.Close()

	return Parse(body)
}

// Parse decodes a JSON object mapping logical path to handle. String values
// are used verbatim; any other value is kept as its compact JSON text since
// handles are opaque.
func Parse(r io.Reader) (models.Manifest, error) {
	var raw map[string]json.RawMessage
	dec := json.NewDecoder(r)
	if err := dec.Decode(&raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrManifestMalformed, err)
	}
	if raw == nil {
		return nil, fmt.Errorf("%w: expected a JSON object", ErrManifestMalformed)
	}
	if err := dec.Decode(&json.RawMessage{}); err != io.EOF {
		return nil, fmt.Errorf("%w: unexpected data after the JSON object", ErrManifestMalformed)
	}

	m := make(models.Manifest, 0, len(raw))
	for path, value := range raw {
		m = append(m, models.ManifestEntry{LogicalPath: path, Handle: handleText(value)})
	}
	sort.Slice(m, func(i, j int) bool {
		return m[i].LogicalPath < m[j].LogicalPath
	})
	return m, nil
}

func handleText(value json.RawMessage) string {
	var s string
	if err := json.Unmarshal(value, &s); err == nil {
		return s
	}
	var buf bytes.Buffer
	if err := json.Compact(&buf, value); err != nil {
		return string(value)
	}
	return buf.String()
}
