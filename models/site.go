package models

import (
	"net/url"
	"strings"
)

// SiteDescriptor identifies the published snapshot to fetch.
type SiteDescriptor struct {
	SiteID string `json:"uid" yaml:"site_id"`
	Host   string `json:"host" yaml:"host"`
	Title  string `json:"-" yaml:"title,omitempty"` // page <title>, informational only
}

// BaseURL returns scheme://host for the site.
func (s SiteDescriptor) BaseURL(scheme string) string {
	return scheme + "://" + s.Host
}

// ManifestURL is the endpoint listing every asset of the site.
func (s SiteDescriptor) ManifestURL(scheme string) string {
	return s.BaseURL(scheme) + "/cache/" + url.PathEscape(s.SiteID)
}

// AccessURL is the endpoint serving the raw bytes of one logical path.
// Each slash-separated segment is escaped on its own so that names containing
// spaces, '#' or '?' still address the right asset.
func (s SiteDescriptor) AccessURL(scheme, logicalPath string) string {
	segments := strings.Split(logicalPath, "/")
	for i, seg := range segments {
		segments[i] = url.PathEscape(seg)
	}
	return s.BaseURL(scheme) + "/access/" + url.PathEscape(s.SiteID) + "/" + strings.Join(segments, "/")
}

// ManifestEntry maps a logical asset path to its opaque fetch handle.
type ManifestEntry struct {
	LogicalPath string
	Handle      string
}

// Manifest is the full asset list of a site, sorted by logical path.
type Manifest []ManifestEntry
