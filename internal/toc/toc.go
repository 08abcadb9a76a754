// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package toc extracts a navigable heading outline from markdown source or
// rendered HTML. It is a pure projection: it does not deduplicate ids —
// disambiguating duplicate headings is the renderer's job upstream.
package toc

import (
	"html"
	"regexp"
	"strconv"
	"strings"

	"github.com/microcosm-cc/bluemonday"

	"loreleaf/internal/slug"
)

// DefaultMaxLevel is the deepest heading level included when callers pass
// maxLevel <= 0.
const DefaultMaxLevel = 3

// Source identifies what kind of text Extract is scanning.
type Source string

const (
	SourceMarkdown Source = "markdown"
	SourceHTML     Source = "html"
)

// Heading is one entry of the outline, in document order.
type Heading struct {
	ID    string `json:"id"`
	Text  string `json:"text"`
	Level int    `json:"level"`
}

var (
	atxHeading  = regexp.MustCompile(`^(#{1,6})\s+(.*?)\s*#*\s*$`)
	htmlHeading = regexp.MustCompile(`(?is)<h([1-6])([^>]*)>(.*?)</h[1-6]\s*>`)
	idAttr      = regexp.MustCompile(`(?i)\bid\s*=\s*"([^"]*)"`)

	// Inline markup stripped from heading text so only the visible words
	// form the slug. Images reduce to their alt text, links to their label.
	inlineImage    = regexp.MustCompile(`!\[([^\]]*)\]\([^)]*\)`)
	inlineLink     = regexp.MustCompile(`\[([^\]]*)\]\([^)]*\)`)
	inlineCode     = regexp.MustCompile("`([^`]*)`")
	inlineEmphasis = regexp.MustCompile(`(\*{1,3}|_{1,3}|~~)`)
)

// stripTags removes nested tags inside HTML headings, keeping visible text.
var stripTags = bluemonday.StripTagsPolicy()

// Extract returns the headings of source up to maxLevel, in document order.
// Deeper headings are excluded entirely. maxLevel <= 0 uses DefaultMaxLevel.
func Extract(source string, maxLevel int, kind Source) []Heading {
	if maxLevel <= 0 {
		maxLevel = DefaultMaxLevel
	}
	if kind == SourceHTML {
		return extractHTML(source, maxLevel)
	}
	return extractMarkdown(source, maxLevel)
}

// extractMarkdown scans ATX headings line by line, skipping fenced code
// blocks so a commented-out "# heading" inside a fence never appears in
// the outline. The id is derived from the visible text with the same slug
// algorithm the renderer uses for anchors.
func extractMarkdown(source string, maxLevel int) []Heading {
	var headings []Heading
	inFence := false
	fenceMarker := ""

	for _, raw := range strings.Split(source, "\n") {
		line := strings.TrimRight(raw, "\r")
		trimmed := strings.TrimSpace(line)

		if marker := fenceDelimiter(trimmed); marker != "" {
			if !inFence {
				inFence = true
				fenceMarker = marker
			} else if strings.HasPrefix(marker, fenceMarker) {
				inFence = false
				fenceMarker = ""
			}
			continue
		}
		if inFence {
			continue
		}

		m := atxHeading.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		level := len(m[1])
		if level > maxLevel {
			continue
		}

		text := stripInlineMarkup(m[2])
		if text == "" {
			continue
		}
		headings = append(headings, Heading{
			ID:    slug.Generate(text),
			Text:  text,
			Level: level,
		})
	}
	return headings
}

// extractHTML scans <h1>..<h6> elements that carry an id attribute. The id
// is read verbatim — the renderer already assigned it deterministically.
// Headings without an id have no stable anchor and are skipped.
func extractHTML(source string, maxLevel int) []Heading {
	var headings []Heading
	for _, m := range htmlHeading.FindAllStringSubmatch(source, -1) {
		level, err := strconv.Atoi(m[1])
		if err != nil || level > maxLevel {
			continue
		}
		id := idAttr.FindStringSubmatch(m[2])
		if id == nil {
			continue
		}
		text := strings.TrimSpace(html.UnescapeString(stripTags.Sanitize(m[3])))
		if text == "" {
			continue
		}
		headings = append(headings, Heading{
			ID:    id[1],
			Text:  text,
			Level: level,
		})
	}
	return headings
}

// fenceDelimiter returns the fence marker when the line opens or closes a
// fenced code block, or "" otherwise.
func fenceDelimiter(trimmed string) string {
	for _, marker := range []string{"```", "~~~"} {
		if strings.HasPrefix(trimmed, marker) {
			return marker
		}
	}
	return ""
}

// stripInlineMarkup reduces a heading's markdown to its visible text:
// images become their alt text, links their label, inline code its
// contents, and emphasis markers disappear.
func stripInlineMarkup(s string) string {
	s = inlineImage.ReplaceAllString(s, "$1")
	s = inlineLink.ReplaceAllString(s, "$1")
	s = inlineCode.ReplaceAllString(s, "$1")
	s = inlineEmphasis.ReplaceAllString(s, "")
	return strings.TrimSpace(s)
}
