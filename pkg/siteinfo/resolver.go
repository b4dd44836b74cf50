// Package siteinfo extracts the site descriptor that a published page embeds
// as a `window.siteInfo = {...}` assignment.
package siteinfo

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/Saghetti0/obsidian-publish-downloader/models"
)

var (
	ErrDescriptorNotFound  = errors.New("site descriptor not found")
	ErrDescriptorMalformed = errors.New("site descriptor malformed")
)

var siteInfoPattern = regexp.MustCompile(`window\.siteInfo\s*=\s*({[^}]+})`)

type rawDescriptor struct {
	UID    string `json:"uid"`
	SiteID string `json:"siteId"`
	Host   string `json:"host"`
}

// Resolve locates and parses the descriptor in an HTML document. Script
// elements are searched first; the raw text is the fallback so that a
// descriptor outside any <script> is still found.
func Resolve(html []byte) (models.SiteDescriptor, error) {
	var literal, title string

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(html))
	if err == nil {
		title = strings.TrimSpace(doc.Find("head title").First().Text())
		doc.Find("script").EachWithBreak(func(i int, s *goquery.Selection) bool {
			if m := siteInfoPattern.FindStringSubmatch(s.Text()); m != nil {
				literal = m[1]
				return false
			}
			return true
		})
	}
	if literal == "" {
		if m := siteInfoPattern.FindSubmatch(html); m != nil {
			literal = string(m[1])
		}
	}
	if literal == "" {
		return models.SiteDescriptor{}, ErrDescriptorNotFound
	}

	site, err := parseLiteral(literal)
	if err != nil {
		return models.SiteDescriptor{}, err
	}
	site.Title = title
	return site, nil
}

func parseLiteral(literal string) (models.SiteDescriptor, error) {
	var raw rawDescriptor
	if err := json.Unmarshal([]byte(literal), &raw); err != nil {
		return models.SiteDescriptor{}, fmt.Errorf("%w: %v", ErrDescriptorMalformed, err)
	}

	id := raw.UID
	if id == "" {
		id = raw.SiteID
	}
	if id == "" || raw.Host == "" {
		return models.SiteDescriptor{}, fmt.Errorf("%w: uid and host are required", ErrDescriptorMalformed)
	}
	return models.SiteDescriptor{SiteID: id, Host: raw.Host}, nil
}
