package common

import "testing"

func TestSanitizeURL(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"  https://publish.obsidian.md/garden  ", "https://publish.obsidian.md/garden"},
		{"[garden](https://publish.obsidian.md/garden)", "https://publish.obsidian.md/garden"},
		{"https://example.com,", "https://example.com"},
		{"(https://example.com)", "https://example.com"},
		{"<https://example.com>", "https://example.com"},
	}
	for _, tt := range tests {
		if got := SanitizeURL(tt.input); got != tt.want {
			t.Errorf("SanitizeURL(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestValidatePageURL(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    string
		wantErr bool
	}{
		{name: "https", input: "https://publish.obsidian.md/garden", want: "https://publish.obsidian.md/garden"},
		{name: "http with port", input: "http://127.0.0.1:8080/", want: "http://127.0.0.1:8080/"},
		{name: "cleaned", input: " https://example.com/notes, ", want: "https://example.com/notes"},
		{name: "empty", input: "   ", wantErr: true},
		{name: "no scheme", input: "example.com/garden", wantErr: true},
		{name: "ftp", input: "ftp://example.com", wantErr: true},
		{name: "spaces", input: "https://example.com/my garden", wantErr: true},
		{name: "no host", input: "https:///path", wantErr: true},
		{name: "braces in host", input: "https://example{}.com", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ValidatePageURL(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ValidatePageURL(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if !tt.wantErr && got != tt.want {
				t.Errorf("ValidatePageURL(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}
