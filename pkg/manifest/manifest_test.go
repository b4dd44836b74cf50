package manifest

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/Saghetti0/obsidian-publish-downloader/models"
	"github.com/Saghetti0/obsidian-publish-downloader/pkg/fetcher"
)

func TestParse(t *testing.T) {
	m, err := Parse(strings.NewReader(`{"c.txt":"h2","a/b.txt":"h1","img/x.png":{"hash":"h3", "size": 10}}`))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}

	want := models.Manifest{
		{LogicalPath: "a/b.txt", Handle: "h1"},
		{LogicalPath: "c.txt", Handle: "h2"},
		{LogicalPath: "img/x.png", Handle: `{"hash":"h3","size":10}`},
	}
	if len(m) != len(want) {
		t.Fatalf("got %d entries, want %d", len(m), len(want))
	}
	for i := range want {
		if m[i] != want[i] {
			t.Errorf("entry %d = %+v, want %+v", i, m[i], want[i])
		}
	}
}

func TestParseMalformed(t *testing.T) {
	inputs := []string{
		``,
		`not json`,
		`["a","b"]`,
		`null`,
		`{"a": "b"`,
		`{"a":"h"} garbage`,
		`{"a":"h"}{"b":"h"}`,
		`{"a":"h"} []`,
	}
	for _, in := range inputs {
		if _, err := Parse(strings.NewReader(in)); !errors.Is(err, ErrManifestMalformed) {
			t.Errorf("Parse(%q) error = %v, want ErrManifestMalformed", in, err)
		}
	}
}

func TestParseAllowsTrailingWhitespace(t *testing.T) {
	m, err := Parse(strings.NewReader("{\"a.md\":\"h\"}\n\t \n"))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(m) != 1 || m[0].LogicalPath != "a.md" {
		t.Errorf("Parse = %+v", m)
	}
}

func TestParseEmptyObject(t *testing.T) {
	m, err := Parse(strings.NewReader(`{}`))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(m) != 0 {
		t.Errorf("expected empty manifest, got %v", m)
	}
}

func TestFetch(t *testing.T) {
	var gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		if r.URL.Path != "/cache/abc" {
			http.NotFound(w, r)
			return
		}
		_, _ = io.WriteString(w, `{"a/b.txt":"h1","c.txt":"h2"}`)
	}))
	defer srv.Close()

	f := fetcher.NewFetcher(5*time.Second, "")
	site := models.SiteDescriptor{SiteID: "abc", Host: strings.TrimPrefix(srv.URL, "http://")}

	m, err := Fetch(context.Background(), f, "http", site)
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if gotPath != "/cache/abc" {
		t.Errorf("requested %q", gotPath)
	}
	if len(m) != 2 || m[0].LogicalPath != "a/b.txt" || m[1].LogicalPath != "c.txt" {
		t.Errorf("unexpected manifest: %+v", m)
	}

	_, err = Fetch(context.Background(), f, "http", models.SiteDescriptor{SiteID: "other", Host: site.Host})
	if !errors.Is(err, ErrManifestUnavailable) {
		t.Errorf("expected ErrManifestUnavailable for 404, got %v", err)
	}
}

func TestFetchUnreachable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	host := strings.TrimPrefix(srv.URL, "http://")
	srv.Close()

	f := fetcher.NewFetcher(time.Second, "")
	_, err := Fetch(context.Background(), f, "http", models.SiteDescriptor{SiteID: "abc", Host: host})
	if !errors.Is(err, ErrManifestUnavailable) {
		t.Errorf("expected ErrManifestUnavailable, got %v", err)
	}
}
