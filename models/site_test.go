package models

import "testing"

func TestSiteDescriptorURLs(t *testing.T) {
	site := SiteDescriptor{SiteID: "abc", Host: "publish.example.com"}

	if got, want := site.ManifestURL("https"), "https://publish.example.com/cache/abc"; got != want {
		t.Errorf("ManifestURL = %q, want %q", got, want)
	}

	tests := []struct {
		path string
		want string
	}{
		{"a/b.txt", "https://publish.example.com/access/abc/a/b.txt"},
		{"Daily Notes/2024-01-01.md", "https://publish.example.com/access/abc/Daily%20Notes/2024-01-01.md"},
		{"what?/#1.md", "https://publish.example.com/access/abc/what%3F/%231.md"},
	}
	for _, tt := range tests {
		if got := site.AccessURL("https", tt.path); got != tt.want {
			t.Errorf("AccessURL(%q) = %q, want %q", tt.path, got, tt.want)
		}
	}
}
