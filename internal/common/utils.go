package common

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"
)

var markdownLinkPattern = regexp.MustCompile(`^\[.*?\]\((https?://[^\)]+)\)$`)

// SanitizeURL performs basic cleanup on URLs to handle common copy-paste issues.
// Removes whitespace, trailing punctuation and markdown artifacts.
func SanitizeURL(rawURL string) string {
	cleaned := strings.TrimSpace(rawURL)

	// Example: "[my garden](https://publish.obsidian.md/garden)" -> "https://publish.obsidian.md/garden"
	if matches := markdownLinkPattern.FindStringSubmatch(cleaned); len(matches) > 1 {
		cleaned = matches[1]
	}

	// Example: "https://example.com," -> "https://example.com"
	trailingChars := []string{",", ".", ")", "}", "]", "\"", "'", ">", ";"}
	for _, char := range trailingChars {
		cleaned = strings.TrimSuffix(cleaned, char)
	}

	// Example: "(https://example.com)" -> "https://example.com"
	leadingChars := []string{"(", "[", "<", "\"", "'"}
	for _, char := range leadingChars {
		cleaned = strings.TrimPrefix(cleaned, char)
	}

	return strings.TrimSpace(cleaned)
}

// ValidatePageURL sanitizes rawURL and checks that it is an absolute
// http(s) URL with a host. It returns the sanitized form.
func ValidatePageURL(rawURL string) (string, error) {
	cleaned := SanitizeURL(rawURL)
	if cleaned == "" {
		return "", fmt.Errorf("page URL is empty")
	}

	// Reject URLs with literal spaces (must be pre-encoded as %20)
	if strings.Contains(cleaned, " ") {
		return "", fmt.Errorf("page URL %q contains spaces", rawURL)
	}

	parsed, err := url.Parse(cleaned)
	if err != nil {
		return "", fmt.Errorf("page URL %q is malformed: %w", rawURL, err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return "", fmt.Errorf("page URL %q must use http or https", rawURL)
	}
	if parsed.Host == "" {
		return "", fmt.Errorf("page URL %q has no host", rawURL)
	}
	if strings.ContainsAny(parsed.Host, "{}[]<>\"'") {
		return "", fmt.Errorf("page URL %q has an invalid host", rawURL)
	}
	return cleaned, nil
}
